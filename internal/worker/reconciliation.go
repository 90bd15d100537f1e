package worker

import (
	"context"
	"database/sql"
	"storefront/internal/domain"
	"storefront/internal/infrastructure/payment"
	"storefront/internal/repo"
	"time"

	"go.uber.org/zap"
)

// staleAfter is how long a pending order with a checkout session must sit
// untouched before the worker asks the provider what actually happened.
const staleAfter = 1 * time.Minute

// ReconciliationWorker sweeps pending orders whose checkout session never
// produced a webhook and settles them from the provider's source of truth.
type ReconciliationWorker struct {
	db        *sql.DB
	orderRepo repo.OrderRepo
	gateway   payment.Gateway
	interval  time.Duration
	logger    *zap.Logger
}

func NewReconciliationWorker(
	db *sql.DB,
	orderRepo repo.OrderRepo,
	gateway payment.Gateway,
	interval time.Duration,
	logger *zap.Logger,
) *ReconciliationWorker {
	return &ReconciliationWorker{
		db:        db,
		orderRepo: orderRepo,
		gateway:   gateway,
		interval:  interval,
		logger:    logger,
	}
}

func (rw *ReconciliationWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(rw.interval)
	defer ticker.Stop()

	rw.logger.Info("reconciliation worker started", zap.Duration("interval", rw.interval))

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := rw.Process(ctx); err != nil {
				rw.logger.Error("reconciliation pass failed", zap.Error(err))
			}
		}
	}
}

// Process runs a single reconciliation pass. Exported so a one-shot sweep can
// be triggered without the ticker loop.
func (rw *ReconciliationWorker) Process(ctx context.Context) error {
	stuck, err := rw.orderRepo.FindStalePendingCheckouts(ctx, staleAfter)
	if err != nil {
		return err
	}
	if len(stuck) == 0 {
		return nil
	}

	rw.logger.Info("found stale pending checkouts", zap.Int("count", len(stuck)))

	for i := range stuck {
		order := &stuck[i]

		session, err := rw.gateway.GetCheckoutSession(ctx, order.CheckoutSessionID)
		if err != nil {
			rw.logger.Warn("session status check failed, will retry next pass",
				zap.String("order_id", order.ID.String()),
				zap.Error(err),
			)
			continue
		}

		var target domain.PaymentStatus
		switch session.Status {
		case payment.SessionComplete:
			// Webhook was missed; the shopper paid.
			target = domain.PaymentPaid
			order.PaymentIntentID = session.PaymentIntentID
		case payment.SessionExpired:
			target = domain.PaymentFailed
		default:
			// Still open, nothing to settle.
			continue
		}

		if err := order.Transition(target); err != nil {
			continue
		}

		if err := rw.settle(ctx, order); err != nil {
			rw.logger.Error("failed to settle order",
				zap.String("order_id", order.ID.String()),
				zap.Error(err),
			)
			continue
		}

		rw.logger.Info("order reconciled",
			zap.String("order_id", order.ID.String()),
			zap.String("payment_status", string(order.PaymentStatus)),
		)
	}
	return nil
}

func (rw *ReconciliationWorker) settle(ctx context.Context, order *domain.Order) error {
	tx, err := rw.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := rw.orderRepo.UpdatePaymentStatus(ctx, tx, order); err != nil {
		return err
	}
	return tx.Commit()
}
