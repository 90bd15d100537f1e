package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "storefront",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})

	checkoutSessions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "checkout_sessions_total",
		Help:      "Checkout session creation attempts by result.",
	}, []string{"result"})

	webhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "webhook_events_total",
		Help:      "Webhook deliveries by outcome.",
	}, []string{"outcome"})
)

func ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func CheckoutSessionCreated()       { checkoutSessions.WithLabelValues("created").Inc() }
func CheckoutSessionFailed()        { checkoutSessions.WithLabelValues("failed").Inc() }
func WebhookEvent(outcome string)   { webhookEvents.WithLabelValues(outcome).Inc() }
