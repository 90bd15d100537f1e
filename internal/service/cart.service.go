package service

import (
	"context"
	"database/sql"
	"storefront/internal/domain"
	"storefront/internal/repo"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CartService interface {
	// CreateOrGetPending returns the existing pending order for the session
	// key, or creates an empty one. The bool reports whether a new order was
	// created.
	CreateOrGetPending(ctx context.Context, sessionKey string) (*domain.Order, bool, error)
	GetPending(ctx context.Context, sessionKey string) (*domain.Order, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error)
	AddLine(ctx context.Context, orderID, itemID uuid.UUID, quantity int) (*domain.Order, error)
	RemoveLine(ctx context.Context, orderID, lineID uuid.UUID) error
}

type cartService struct {
	db        *sql.DB
	orderRepo repo.OrderRepo
	itemRepo  repo.ItemRepo
	logger    *zap.Logger
}

func NewCartService(db *sql.DB, orderRepo repo.OrderRepo, itemRepo repo.ItemRepo, logger *zap.Logger) CartService {
	return &cartService{
		db:        db,
		orderRepo: orderRepo,
		itemRepo:  itemRepo,
		logger:    logger,
	}
}

func (s *cartService) CreateOrGetPending(ctx context.Context, sessionKey string) (*domain.Order, bool, error) {
	existing, err := s.orderRepo.FindPendingBySessionKey(ctx, sessionKey)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	now := time.Now().UTC()
	order := &domain.Order{
		ID:            uuid.New(),
		SessionKey:    sessionKey,
		PaymentStatus: domain.PaymentPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback()

	if err := s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		// The partial unique index on (session_key, pending) catches the
		// lookup-then-create race; the loser adopts the winner's order.
		if repo.IsUniqueViolation(err) {
			winner, findErr := s.orderRepo.FindPendingBySessionKey(ctx, sessionKey)
			if findErr != nil {
				return nil, false, findErr
			}
			if winner != nil {
				return winner, false, nil
			}
		}
		return nil, false, err
	}

	if err := tx.Commit(); err != nil {
		return nil, false, err
	}

	s.logger.Info("pending order created",
		zap.String("order_id", order.ID.String()),
		zap.String("session_key", sessionKey),
	)
	return order, true, nil
}

func (s *cartService) GetPending(ctx context.Context, sessionKey string) (*domain.Order, error) {
	return s.orderRepo.FindPendingBySessionKey(ctx, sessionKey)
}

func (s *cartService) GetOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	order, err := s.orderRepo.FindById(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}

func (s *cartService) AddLine(ctx context.Context, orderID, itemID uuid.UUID, quantity int) (*domain.Order, error) {
	order, err := s.orderRepo.FindById(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrOrderNotFound
	}
	if order.PaymentStatus != domain.PaymentPending {
		return nil, domain.ErrOrderNotPending
	}

	item, err := s.itemRepo.FindById(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrItemNotFound
	}

	// Validation happens before any persistence; a rejected line leaves the
	// order untouched.
	if err := order.ValidateLine(item, quantity); err != nil {
		return nil, err
	}

	line := &domain.OrderLine{
		ID:       uuid.New(),
		OrderID:  order.ID,
		Item:     *item,
		Quantity: quantity,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := s.orderRepo.UpsertLine(ctx, tx, line); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return s.GetOrder(ctx, orderID)
}

func (s *cartService) RemoveLine(ctx context.Context, orderID, lineID uuid.UUID) error {
	order, err := s.orderRepo.FindById(ctx, orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return domain.ErrOrderNotFound
	}
	if order.PaymentStatus != domain.PaymentPending {
		return domain.ErrOrderNotPending
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Removing a line that does not exist is not an error.
	if err := s.orderRepo.DeleteLine(ctx, tx, orderID, lineID); err != nil {
		return err
	}
	return tx.Commit()
}
