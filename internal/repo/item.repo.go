package repo

import (
	"context"
	"database/sql"
	"storefront/internal/domain"

	"github.com/google/uuid"
)

type ItemRepo interface {
	List(ctx context.Context) ([]domain.Item, error)
	FindById(ctx context.Context, id uuid.UUID) (*domain.Item, error)
	CreateItem(ctx context.Context, tx *sql.Tx, item *domain.Item) error
	UpdateItem(ctx context.Context, tx *sql.Tx, item *domain.Item) error
	// UpdateProviderRefs persists the external catalog references outside any
	// caller transaction; provider sync is deliberately not transactional.
	UpdateProviderRefs(ctx context.Context, id uuid.UUID, productID, priceID string) error
}

type itemRepo struct {
	db *sql.DB
}

func NewItemRepo(db *sql.DB) ItemRepo {
	return &itemRepo{db: db}
}

const itemColumns = `id, name, description, price, currency, provider_product_id, provider_price_id, created_at, updated_at`

func scanItem(row interface{ Scan(...any) error }, item *domain.Item) error {
	var productID, priceID sql.NullString
	err := row.Scan(
		&item.ID,
		&item.Name,
		&item.Description,
		&item.Price,
		&item.Currency,
		&productID,
		&priceID,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return err
	}
	item.ProviderProductID = productID.String
	item.ProviderPriceID = priceID.String
	return nil
}

func (r *itemRepo) List(ctx context.Context) ([]domain.Item, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+itemColumns+` FROM items ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		var item domain.Item
		if err := scanItem(rows, &item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *itemRepo) FindById(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	var item domain.Item
	err := scanItem(r.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id), &item)
	if err == sql.ErrNoRows {
		return nil, nil // not found
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepo) CreateItem(ctx context.Context, tx *sql.Tx, item *domain.Item) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO items (id, name, description, price, currency, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		item.ID, item.Name, item.Description, item.Price, item.Currency, item.CreatedAt, item.UpdatedAt,
	)
	return err
}

func (r *itemRepo) UpdateItem(ctx context.Context, tx *sql.Tx, item *domain.Item) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE items SET name = $2, description = $3, price = $4, currency = $5, updated_at = $6 WHERE id = $1`,
		item.ID, item.Name, item.Description, item.Price, item.Currency, item.UpdatedAt,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

func (r *itemRepo) UpdateProviderRefs(ctx context.Context, id uuid.UUID, productID, priceID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE items SET provider_product_id = $2, provider_price_id = $3, updated_at = now() WHERE id = $1`,
		id, productID, priceID,
	)
	return err
}
