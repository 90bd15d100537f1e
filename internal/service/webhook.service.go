package service

import (
	"context"
	"database/sql"
	"storefront/internal/domain"
	"storefront/internal/infrastructure/payment"
	"storefront/internal/metrics"
	"storefront/internal/repo"

	"go.uber.org/zap"
)

type WebhookService interface {
	// HandleEvent verifies a raw webhook delivery and applies it. Once the
	// signature checks out the return is nil even when nothing matched, so
	// the provider never sees errors for events irrelevant to this system.
	HandleEvent(ctx context.Context, payload []byte, signatureHeader string) error
}

type webhookService struct {
	db            *sql.DB
	orderRepo     repo.OrderRepo
	gateway       payment.Gateway
	signingSecret string
	logger        *zap.Logger
}

func NewWebhookService(
	db *sql.DB,
	orderRepo repo.OrderRepo,
	gateway payment.Gateway,
	signingSecret string,
	logger *zap.Logger,
) WebhookService {
	return &webhookService{
		db:            db,
		orderRepo:     orderRepo,
		gateway:       gateway,
		signingSecret: signingSecret,
		logger:        logger,
	}
}

func (s *webhookService) HandleEvent(ctx context.Context, payload []byte, signatureHeader string) error {
	event, err := s.gateway.VerifyWebhook(payload, signatureHeader, s.signingSecret)
	if err != nil {
		metrics.WebhookEvent("invalid_signature")
		s.logger.Warn("webhook signature verification failed", zap.Error(err))
		return domain.ErrInvalidSignature
	}

	if event.Type != payment.EventCheckoutCompleted {
		metrics.WebhookEvent("ignored")
		return nil
	}

	order, err := s.orderRepo.FindByCheckoutSession(ctx, event.CheckoutSessionID)
	if err != nil {
		return err
	}
	if order == nil {
		// Unknown or already purged session: acknowledge and move on.
		metrics.WebhookEvent("unmatched")
		return nil
	}

	if !domain.CanTransition(order.PaymentStatus, domain.PaymentPaid) {
		// Replayed delivery for an order already in a terminal status.
		metrics.WebhookEvent("replayed")
		return nil
	}

	if err := order.Transition(domain.PaymentPaid); err != nil {
		return err
	}
	order.PaymentIntentID = event.PaymentIntentID

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.orderRepo.UpdatePaymentStatus(ctx, tx, order); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	metrics.WebhookEvent("paid")
	s.logger.Info("order marked paid",
		zap.String("order_id", order.ID.String()),
		zap.String("checkout_session_id", event.CheckoutSessionID),
		zap.String("event_id", event.ID),
	)
	return nil
}
