package repo

import (
	"context"
	"database/sql"
	"errors"
	"storefront/internal/domain"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

type OrderRepo interface {
	FindById(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	FindPendingBySessionKey(ctx context.Context, sessionKey string) (*domain.Order, error)
	FindByCheckoutSession(ctx context.Context, sessionID string) (*domain.Order, error)
	CreateOrder(ctx context.Context, tx *sql.Tx, order *domain.Order) error
	// UpsertLine inserts a line or increments the quantity of the existing
	// line for the same item.
	UpsertLine(ctx context.Context, tx *sql.Tx, line *domain.OrderLine) error
	DeleteLine(ctx context.Context, tx *sql.Tx, orderID, lineID uuid.UUID) error
	SetCheckoutSession(ctx context.Context, tx *sql.Tx, orderID uuid.UUID, sessionID string) error
	UpdatePaymentStatus(ctx context.Context, tx *sql.Tx, order *domain.Order) error
	FindStalePendingCheckouts(ctx context.Context, olderThan time.Duration) ([]domain.Order, error)
}

type orderRepo struct {
	db *sql.DB
}

func NewOrderRepo(db *sql.DB) OrderRepo {
	return &orderRepo{db: db}
}

// IsUniqueViolation reports whether an error is a Postgres unique constraint
// violation, used to detect the lost race on concurrent pending-order creates.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

const orderColumns = `id, session_key, payment_status, checkout_session_id, payment_intent_id, created_at, updated_at`

func (r *orderRepo) scanOrder(ctx context.Context, row *sql.Row) (*domain.Order, error) {
	var order domain.Order
	var checkoutID, intentID sql.NullString
	err := row.Scan(
		&order.ID,
		&order.SessionKey,
		&order.PaymentStatus,
		&checkoutID,
		&intentID,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil // not found
	}
	if err != nil {
		return nil, err
	}
	order.CheckoutSessionID = checkoutID.String
	order.PaymentIntentID = intentID.String

	if err := r.loadLines(ctx, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepo) loadLines(ctx context.Context, order *domain.Order) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT l.id, l.order_id, l.quantity, `+prefixedItemColumns("i")+`
		FROM order_lines l
		JOIN items i ON i.id = l.item_id
		WHERE l.order_id = $1
		ORDER BY l.created_at, l.id`,
		order.ID,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.OrderLine
		var productID, priceID sql.NullString
		if err := rows.Scan(
			&line.ID,
			&line.OrderID,
			&line.Quantity,
			&line.Item.ID,
			&line.Item.Name,
			&line.Item.Description,
			&line.Item.Price,
			&line.Item.Currency,
			&productID,
			&priceID,
			&line.Item.CreatedAt,
			&line.Item.UpdatedAt,
		); err != nil {
			return err
		}
		line.Item.ProviderProductID = productID.String
		line.Item.ProviderPriceID = priceID.String
		order.Lines = append(order.Lines, line)
	}
	return rows.Err()
}

func prefixedItemColumns(alias string) string {
	return alias + `.id, ` + alias + `.name, ` + alias + `.description, ` + alias + `.price, ` +
		alias + `.currency, ` + alias + `.provider_product_id, ` + alias + `.provider_price_id, ` +
		alias + `.created_at, ` + alias + `.updated_at`
}

func (r *orderRepo) FindById(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	return r.scanOrder(ctx, row)
}

func (r *orderRepo) FindPendingBySessionKey(ctx context.Context, sessionKey string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE session_key = $1 AND payment_status = $2`,
		sessionKey, domain.PaymentPending,
	)
	return r.scanOrder(ctx, row)
}

func (r *orderRepo) FindByCheckoutSession(ctx context.Context, sessionID string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE checkout_session_id = $1`, sessionID,
	)
	return r.scanOrder(ctx, row)
}

func (r *orderRepo) CreateOrder(ctx context.Context, tx *sql.Tx, order *domain.Order) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO orders (id, session_key, payment_status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		order.ID, order.SessionKey, order.PaymentStatus, order.CreatedAt, order.UpdatedAt,
	)
	return err
}

func (r *orderRepo) UpsertLine(ctx context.Context, tx *sql.Tx, line *domain.OrderLine) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO order_lines (id, order_id, item_id, quantity, created_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (order_id, item_id)
		DO UPDATE SET quantity = order_lines.quantity + EXCLUDED.quantity`,
		line.ID, line.OrderID, line.Item.ID, line.Quantity,
	)
	return err
}

func (r *orderRepo) DeleteLine(ctx context.Context, tx *sql.Tx, orderID, lineID uuid.UUID) error {
	// Deleting an absent line is a no-op, matching the cart semantics.
	_, err := tx.ExecContext(ctx,
		`DELETE FROM order_lines WHERE id = $1 AND order_id = $2`, lineID, orderID,
	)
	return err
}

func (r *orderRepo) SetCheckoutSession(ctx context.Context, tx *sql.Tx, orderID uuid.UUID, sessionID string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE orders SET checkout_session_id = $2, updated_at = now() WHERE id = $1`,
		orderID, sessionID,
	)
	return err
}

func (r *orderRepo) UpdatePaymentStatus(ctx context.Context, tx *sql.Tx, order *domain.Order) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET payment_status = $2,
		    payment_intent_id = COALESCE(NULLIF($3, ''), payment_intent_id),
		    updated_at = $4
		WHERE id = $1`,
		order.ID, order.PaymentStatus, order.PaymentIntentID, order.UpdatedAt,
	)
	return err
}

func (r *orderRepo) FindStalePendingCheckouts(ctx context.Context, olderThan time.Duration) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE payment_status = $1
		AND checkout_session_id IS NOT NULL
		AND updated_at < $2`,
		domain.PaymentPending, time.Now().Add(-olderThan),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var order domain.Order
		var checkoutID, intentID sql.NullString
		if err := rows.Scan(
			&order.ID,
			&order.SessionKey,
			&order.PaymentStatus,
			&checkoutID,
			&intentID,
			&order.CreatedAt,
			&order.UpdatedAt,
		); err != nil {
			return nil, err
		}
		order.CheckoutSessionID = checkoutID.String
		order.PaymentIntentID = intentID.String
		orders = append(orders, order)
	}
	return orders, rows.Err()
}
