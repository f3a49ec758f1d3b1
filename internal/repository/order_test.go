package repository

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltcart/storefront-api/internal/model"
)

func placeTestOrder(t *testing.T, db *sql.DB, userID int64, items []model.OrderItem, total string) *model.Order {
	t.Helper()
	order := &model.Order{
		UserID:          userID,
		Status:          model.OrderStatusPending,
		TotalAmount:     decimal.RequireFromString(total),
		DeliveryAddress: "1 Test Street",
		Items:           items,
		Payment: &model.Payment{
			Amount:    decimal.RequireFromString(total),
			Method:    "card",
			Status:    model.PaymentStatusPending,
			Reference: "ref-" + total,
		},
	}
	require.NoError(t, NewOrderRepository(db).Create(context.Background(), order))
	return order
}

func TestOrderRepo_CreateAndGetByID(t *testing.T) {
	db := newTestDB(t)
	repo := NewOrderRepository(db)
	productRepo := NewProductRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db, "buyer@example.com")
	p1 := createTestProduct(t, db, "keyboard", 49.99, 10)
	p2 := createTestProduct(t, db, "mouse", 19.99, 5)

	order := placeTestOrder(t, db, user.ID, []model.OrderItem{
		{ProductID: p1.ID, Quantity: 2, Price: decimal.RequireFromString("49.99")},
		{ProductID: p2.ID, Quantity: 1, Price: decimal.RequireFromString("19.99")},
	}, "129.96")

	found, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, user.ID, found.UserID)
	assert.Equal(t, model.OrderStatusPending, found.Status)
	assert.True(t, found.TotalAmount.Equal(decimal.RequireFromString("129.96")))

	require.Len(t, found.Items, 2)
	assert.Equal(t, p1.ID, found.Items[0].ProductID)
	assert.Equal(t, "keyboard", found.Items[0].Name)
	assert.Equal(t, 2, found.Items[0].Quantity)
	assert.Equal(t, p2.ID, found.Items[1].ProductID)

	require.NotNil(t, found.Payment)
	assert.Equal(t, model.PaymentStatusPending, found.Payment.Status)
	assert.Nil(t, found.Payment.PaidAt)

	// Stock came down inside the same transaction.
	p, err := productRepo.GetByID(ctx, p1.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, p.Stock)
	p, err = productRepo.GetByID(ctx, p2.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, p.Stock)

	missing, err := repo.GetByID(ctx, 99999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestOrderRepo_ListByUserIDFold(t *testing.T) {
	db := newTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db, "fold@example.com")
	other := createTestUser(t, db, "other@example.com")
	p1 := createTestProduct(t, db, "lamp", 10.00, 100)
	p2 := createTestProduct(t, db, "desk", 80.00, 100)
	p3 := createTestProduct(t, db, "chair", 60.00, 100)

	first := placeTestOrder(t, db, user.ID, []model.OrderItem{
		{ProductID: p1.ID, Quantity: 1, Price: decimal.RequireFromString("10.00")},
		{ProductID: p2.ID, Quantity: 1, Price: decimal.RequireFromString("80.00")},
		{ProductID: p3.ID, Quantity: 2, Price: decimal.RequireFromString("60.00")},
	}, "210.00")
	second := placeTestOrder(t, db, user.ID, []model.OrderItem{
		{ProductID: p3.ID, Quantity: 1, Price: decimal.RequireFromString("60.00")},
	}, "69.99")
	placeTestOrder(t, db, other.ID, []model.OrderItem{
		{ProductID: p1.ID, Quantity: 1, Price: decimal.RequireFromString("10.00")},
	}, "19.99")

	orders, err := repo.ListByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, orders, 2, "one entry per order, not per join row")

	// Newest first; items keep insertion order within each order.
	assert.Equal(t, second.ID, orders[0].ID)
	require.Len(t, orders[0].Items, 1)
	assert.Equal(t, first.ID, orders[1].ID)
	require.Len(t, orders[1].Items, 3)
	assert.Equal(t, p1.ID, orders[1].Items[0].ProductID)
	assert.Equal(t, p2.ID, orders[1].Items[1].ProductID)
	assert.Equal(t, p3.ID, orders[1].Items[2].ProductID)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestOrderRepo_InsufficientStockRollsBack(t *testing.T) {
	db := newTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db, "rollback@example.com")
	ok := createTestProduct(t, db, "plenty", 5.00, 50)
	scarce := createTestProduct(t, db, "scarce", 5.00, 3)

	order := &model.Order{
		UserID:      user.ID,
		Status:      model.OrderStatusPending,
		TotalAmount: decimal.RequireFromString("49.99"),
		Items: []model.OrderItem{
			{ProductID: ok.ID, Quantity: 2, Price: decimal.RequireFromString("5.00")},
			{ProductID: scarce.ID, Quantity: 5, Price: decimal.RequireFromString("5.00")},
		},
		Payment: &model.Payment{Amount: decimal.RequireFromString("49.99"), Method: "card", Status: model.PaymentStatusPending},
	}
	err := repo.Create(ctx, order)
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, scarce.ID, stockErr.ProductID)
	assert.Equal(t, 3, stockErr.Available)
	assert.Equal(t, 5, stockErr.Requested)

	// Nothing committed: no order rows, no payment, stock untouched even for
	// the line that would have succeeded.
	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM orders`).Scan(&count))
	assert.Zero(t, count)
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM order_items`).Scan(&count))
	assert.Zero(t, count)
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM payments`).Scan(&count))
	assert.Zero(t, count)

	p, err := NewProductRepository(db).GetByID(ctx, ok.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, p.Stock)
}

func TestOrderRepo_ConcurrentPlacementNeverOversells(t *testing.T) {
	db := newTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db, "race@example.com")
	product := createTestProduct(t, db, "limited", 25.00, 5)

	const attempts = 12
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			order := &model.Order{
				UserID:      user.ID,
				Status:      model.OrderStatusPending,
				TotalAmount: decimal.RequireFromString("34.99"),
				Items: []model.OrderItem{
					{ProductID: product.ID, Quantity: 1, Price: decimal.RequireFromString("25.00")},
				},
			}
			if err := repo.Create(ctx, order); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, succeeded, 5, "at most one success per unit of stock")
	assert.Greater(t, succeeded, 0)

	p, err := NewProductRepository(db).GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 5-succeeded, p.Stock)

	var itemCount int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM order_items`).Scan(&itemCount))
	assert.Equal(t, succeeded, itemCount)
}

func TestOrderRepo_UpdateStatusReasonColumns(t *testing.T) {
	db := newTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db, "status@example.com")
	product := createTestProduct(t, db, "widget", 12.00, 20)

	order := placeTestOrder(t, db, user.ID, []model.OrderItem{
		{ProductID: product.ID, Quantity: 1, Price: decimal.RequireFromString("12.00")},
	}, "21.99")

	require.NoError(t, repo.UpdateStatus(ctx, order.ID, model.OrderStatusPending, model.OrderStatusProcessing, ""))

	status, err := repo.GetStatus(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusProcessing, status)

	// Stale "from" status matches no row.
	err = repo.UpdateStatus(ctx, order.ID, model.OrderStatusPending, model.OrderStatusProcessing, "")
	assert.ErrorIs(t, err, ErrStatusConflict)

	require.NoError(t, repo.UpdateStatus(ctx, order.ID, model.OrderStatusProcessing, model.OrderStatusCancelled, "changed my mind"))
	found, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, found.Status)
	assert.Equal(t, "changed my mind", found.CancellationReason)
	assert.Empty(t, found.RefundReason)
}

func TestOrderRepo_UpdateStatusRefundReason(t *testing.T) {
	db := newTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db, "refund@example.com")
	product := createTestProduct(t, db, "gadget", 30.00, 20)

	order := placeTestOrder(t, db, user.ID, []model.OrderItem{
		{ProductID: product.ID, Quantity: 2, Price: decimal.RequireFromString("30.00")},
	}, "69.99")

	require.NoError(t, repo.UpdateStatus(ctx, order.ID, model.OrderStatusPending, model.OrderStatusProcessing, ""))
	require.NoError(t, repo.UpdateStatus(ctx, order.ID, model.OrderStatusProcessing, model.OrderStatusShipped, ""))
	require.NoError(t, repo.UpdateStatus(ctx, order.ID, model.OrderStatusShipped, model.OrderStatusCompleted, ""))
	require.NoError(t, repo.UpdateStatus(ctx, order.ID, model.OrderStatusCompleted, model.OrderStatusRefunded, "item arrived broken"))

	found, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusRefunded, found.Status)
	assert.Equal(t, "item arrived broken", found.RefundReason)
	assert.Empty(t, found.CancellationReason)
}

func TestOrderRepo_GetStatusMissingOrder(t *testing.T) {
	db := newTestDB(t)
	repo := NewOrderRepository(db)

	_, err := repo.GetStatus(context.Background(), 424242)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestOrderRepo_ConfirmPayment(t *testing.T) {
	db := newTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db, "pay@example.com")
	product := createTestProduct(t, db, "book", 15.00, 20)

	order := placeTestOrder(t, db, user.ID, []model.OrderItem{
		{ProductID: product.ID, Quantity: 1, Price: decimal.RequireFromString("15.00")},
	}, "24.99")

	require.NoError(t, repo.ConfirmPayment(ctx, order.ID))

	payment, err := repo.GetPayment(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, payment)
	assert.Equal(t, model.PaymentStatusPaid, payment.Status)
	require.NotNil(t, payment.PaidAt)

	// Confirming twice matches no pending row.
	err = repo.ConfirmPayment(ctx, order.ID)
	assert.ErrorIs(t, err, ErrStatusConflict)

	missing, err := repo.GetPayment(ctx, 99999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}
