package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"storefront/internal/database"
	"storefront/internal/infrastructure/payment"
	"storefront/internal/logging"
	"storefront/internal/repo"
	"storefront/internal/service"
	transporthttp "storefront/internal/transport/http"
	"storefront/internal/worker"
	"storefront/migrations"

	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"
)

const defaultPort = "8080"
const shutdownTimeout = 10 * time.Second

func main() {
	logger := logging.MustNewLogger("storefront-api")
	defer logger.Sync()

	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	db := database.NewPostgres()
	defer db.Close()

	startupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(startupCtx); err != nil {
		logger.Fatal("db ping failed", zap.Error(err))
	}
	if err := migrations.Apply(startupCtx, db); err != nil {
		logger.Fatal("apply migrations failed", zap.Error(err))
	}

	gateway := payment.NewClient(
		os.Getenv("PAYMENT_API_BASE"),
		os.Getenv("PAYMENT_API_KEY"),
		os.Getenv("PAYMENT_WEBHOOK_SECRET"),
	)

	itemRepo := repo.NewItemRepo(db)
	orderRepo := repo.NewOrderRepo(db)

	cartSvc := service.NewCartService(db, orderRepo, itemRepo, logger)
	catalogSvc := service.NewCatalogService(db, itemRepo, gateway, logger)
	checkoutSvc := service.NewCheckoutService(db, orderRepo, itemRepo, gateway, logger)
	webhookSvc := service.NewWebhookService(db, orderRepo, gateway, os.Getenv("PAYMENT_WEBHOOK_SECRET"), logger)

	router := transporthttp.NewRouter(transporthttp.RouterConfig{
		Cart:        cartSvc,
		Catalog:     catalogSvc,
		Checkout:    checkoutSvc,
		Webhooks:    webhookSvc,
		Health:      database.New(db),
		CORSOrigins: parseCSV(os.Getenv("CORS_ORIGINS")),
		Logger:      logger,
	})

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Opt-in sweep for checkout sessions that never produced a webhook.
	if interval := os.Getenv("RECONCILE_INTERVAL"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err != nil {
			logger.Fatal("invalid RECONCILE_INTERVAL", zap.String("value", interval), zap.Error(err))
		}
		rw := worker.NewReconciliationWorker(db, orderRepo, gateway, d, logger)
		go rw.Run(stopCtx)
	}

	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	logger.Info("api listening", zap.String("port", port))

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
		}
	case <-stopCtx.Done():
		logger.Info("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("server stopped")
}

func parseCSV(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
