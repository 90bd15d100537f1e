package repo

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"storefront/internal/domain"
	"storefront/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPendingOrder(sessionKey string) *domain.Order {
	now := time.Now().UTC()
	return &domain.Order{
		ID:            uuid.New(),
		SessionKey:    sessionKey,
		PaymentStatus: domain.PaymentPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func createOrder(t *testing.T, db *sql.DB, orders OrderRepo, order *domain.Order) error {
	t.Helper()
	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback()
	if err := orders.CreateOrder(ctx, tx, order); err != nil {
		return err
	}
	return tx.Commit()
}

func TestOnePendingOrderPerSession(t *testing.T) {
	db := testutil.NewTestDB(t)
	orders := NewOrderRepo(db)
	ctx := context.Background()

	first := newPendingOrder("session-1")
	require.NoError(t, createOrder(t, db, orders, first))

	// A second pending order for the same session trips the partial unique
	// index; the loser re-reads the winner.
	err := createOrder(t, db, orders, newPendingOrder("session-1"))
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))

	winner, err := orders.FindPendingBySessionKey(ctx, "session-1")
	require.NoError(t, err)
	require.NotNil(t, winner)
	assert.Equal(t, first.ID, winner.ID)

	// Once the order leaves pending the session can open a new one.
	require.NoError(t, first.Transition(domain.PaymentPaid))
	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, orders.UpdatePaymentStatus(ctx, tx, first))
	require.NoError(t, tx.Commit())

	require.NoError(t, createOrder(t, db, orders, newPendingOrder("session-1")))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, IsUniqueViolation(nil))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
	assert.False(t, IsUniqueViolation(sql.ErrNoRows))
}

func TestFindPendingBySessionKeyMissesAreNil(t *testing.T) {
	db := testutil.NewTestDB(t)
	orders := NewOrderRepo(db)
	ctx := context.Background()

	order, err := orders.FindPendingBySessionKey(ctx, "no-such-session")
	require.NoError(t, err)
	assert.Nil(t, order)

	order, err = orders.FindByCheckoutSession(ctx, "cs_missing")
	require.NoError(t, err)
	assert.Nil(t, order)
}
