package service

import (
	"context"
	"database/sql"
	"storefront/internal/domain"
	"storefront/internal/infrastructure/payment"
	"storefront/internal/repo"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CatalogService interface {
	ListItems(ctx context.Context) ([]domain.Item, error)
	GetItem(ctx context.Context, id uuid.UUID) (*domain.Item, error)
	CreateItem(ctx context.Context, in ItemInput) (*domain.Item, error)
	UpdateItem(ctx context.Context, id uuid.UUID, in ItemInput) (*domain.Item, error)
	// SyncItem pushes the item to the provider catalog: create or update the
	// product, retire the previous price, create a fresh one. An explicit
	// call, never a hidden save side effect.
	SyncItem(ctx context.Context, id uuid.UUID) (*domain.Item, error)
}

type ItemInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Currency    string
}

type catalogService struct {
	db       *sql.DB
	itemRepo repo.ItemRepo
	gateway  payment.Gateway
	logger   *zap.Logger
}

func NewCatalogService(db *sql.DB, itemRepo repo.ItemRepo, gateway payment.Gateway, logger *zap.Logger) CatalogService {
	return &catalogService{
		db:       db,
		itemRepo: itemRepo,
		gateway:  gateway,
		logger:   logger,
	}
}

func (s *catalogService) ListItems(ctx context.Context) ([]domain.Item, error) {
	return s.itemRepo.List(ctx)
}

func (s *catalogService) GetItem(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	item, err := s.itemRepo.FindById(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrItemNotFound
	}
	return item, nil
}

func (s *catalogService) CreateItem(ctx context.Context, in ItemInput) (*domain.Item, error) {
	currency, err := domain.ParseCurrency(in.Currency)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	item := &domain.Item{
		ID:          uuid.New(),
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Currency:    currency,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := s.itemRepo.CreateItem(ctx, tx, item); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *catalogService) UpdateItem(ctx context.Context, id uuid.UUID, in ItemInput) (*domain.Item, error) {
	currency, err := domain.ParseCurrency(in.Currency)
	if err != nil {
		return nil, err
	}

	item, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}

	priceChanged := !item.Price.Equal(in.Price)
	item.Name = in.Name
	item.Description = in.Description
	item.Price = in.Price
	item.Currency = currency
	item.UpdatedAt = time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := s.itemRepo.UpdateItem(ctx, tx, item); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	if priceChanged && item.ProviderPriceID != "" {
		s.logger.Info("item price changed, provider price is stale",
			zap.String("item_id", item.ID.String()),
			zap.String("provider_price_id", item.ProviderPriceID),
		)
	}
	return item, nil
}

func (s *catalogService) SyncItem(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	item, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := syncItemWithProvider(ctx, s.gateway, s.itemRepo, item); err != nil {
		return nil, err
	}
	s.logger.Info("item synced with provider",
		zap.String("item_id", item.ID.String()),
		zap.String("provider_product_id", item.ProviderProductID),
		zap.String("provider_price_id", item.ProviderPriceID),
	)
	return item, nil
}

// syncItemWithProvider creates or updates the provider product, deactivates
// the previous price and creates a new one in minor units, then records the
// references. The provider calls happen outside any local transaction and are
// not rolled back if a later step fails.
func syncItemWithProvider(ctx context.Context, gateway payment.Gateway, itemRepo repo.ItemRepo, item *domain.Item) error {
	if item.ProviderProductID != "" {
		if _, err := gateway.UpdateProduct(ctx, item.ProviderProductID, item.Name, item.Description); err != nil {
			return err
		}
	} else {
		product, err := gateway.CreateProduct(ctx, item.Name, item.Description)
		if err != nil {
			return err
		}
		item.ProviderProductID = product.ID
	}

	if item.ProviderPriceID != "" {
		// A failed deactivation leaves a dangling active price at the
		// provider; the new price still supersedes it for checkout.
		if err := gateway.DeactivatePrice(ctx, item.ProviderPriceID); err != nil {
			return err
		}
	}

	price, err := gateway.CreatePrice(ctx, item.ProviderProductID, item.PriceMinorUnits(), item.Currency)
	if err != nil {
		return err
	}
	item.ProviderPriceID = price.ID

	return itemRepo.UpdateProviderRefs(ctx, item.ID, item.ProviderProductID, item.ProviderPriceID)
}
