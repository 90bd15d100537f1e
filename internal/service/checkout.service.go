package service

import (
	"context"
	"database/sql"
	"storefront/internal/domain"
	"storefront/internal/infrastructure/payment"
	"storefront/internal/metrics"
	"storefront/internal/repo"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CheckoutService interface {
	// CreateCheckoutSession builds a hosted checkout session for the order's
	// lines and returns the provider redirect URL.
	CreateCheckoutSession(ctx context.Context, orderID uuid.UUID, successURL, cancelURL string) (string, error)
}

type checkoutService struct {
	db        *sql.DB
	orderRepo repo.OrderRepo
	itemRepo  repo.ItemRepo
	gateway   payment.Gateway
	logger    *zap.Logger
}

func NewCheckoutService(
	db *sql.DB,
	orderRepo repo.OrderRepo,
	itemRepo repo.ItemRepo,
	gateway payment.Gateway,
	logger *zap.Logger,
) CheckoutService {
	return &checkoutService{
		db:        db,
		orderRepo: orderRepo,
		itemRepo:  itemRepo,
		gateway:   gateway,
		logger:    logger,
	}
}

func (s *checkoutService) CreateCheckoutSession(ctx context.Context, orderID uuid.UUID, successURL, cancelURL string) (string, error) {
	order, err := s.orderRepo.FindById(ctx, orderID)
	if err != nil {
		return "", err
	}
	if order == nil {
		return "", domain.ErrOrderNotFound
	}
	if order.PaymentStatus != domain.PaymentPending {
		return "", domain.ErrOrderNotPending
	}
	if len(order.Lines) == 0 {
		return "", domain.ErrEmptyOrder
	}
	if err := order.ValidateCurrencyConsistency(); err != nil {
		return "", err
	}

	// Lazy catalog sync. These provider writes and the reference updates
	// persist even if session creation below fails; the window is accepted
	// rather than papered over with a distributed transaction.
	lineItems := make([]payment.LineItem, 0, len(order.Lines))
	for i := range order.Lines {
		item := &order.Lines[i].Item
		if item.ProviderPriceID == "" {
			if err := syncItemWithProvider(ctx, s.gateway, s.itemRepo, item); err != nil {
				metrics.CheckoutSessionFailed()
				return "", err
			}
		}
		lineItems = append(lineItems, payment.LineItem{
			PriceID:  item.ProviderPriceID,
			Quantity: order.Lines[i].Quantity,
		})
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, payment.CheckoutParams{
		LineItems:  lineItems,
		SuccessURL: successURL,
		CancelURL:  cancelURL,
		OrderID:    order.ID.String(),
	})
	if err != nil {
		metrics.CheckoutSessionFailed()
		s.logger.Warn("checkout session creation failed",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
		return "", err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	if err := s.orderRepo.SetCheckoutSession(ctx, tx, order.ID, session.ID); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}

	metrics.CheckoutSessionCreated()
	s.logger.Info("checkout session created",
		zap.String("order_id", order.ID.String()),
		zap.String("checkout_session_id", session.ID),
	)
	return session.URL, nil
}
