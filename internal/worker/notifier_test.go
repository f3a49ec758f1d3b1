package worker

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltcart/storefront-api/internal/config"
	"github.com/voltcart/storefront-api/internal/model"
)

type stubOrderRepo struct {
	orders map[int64]*model.Order
	gets   int
}

func (s *stubOrderRepo) Create(_ context.Context, _ *model.Order) error { return nil }

func (s *stubOrderRepo) GetByID(_ context.Context, id int64) (*model.Order, error) {
	s.gets++
	return s.orders[id], nil
}

func (s *stubOrderRepo) ListByUserID(_ context.Context, _ int64) ([]model.Order, error) {
	return nil, nil
}

func (s *stubOrderRepo) ListAll(_ context.Context) ([]model.Order, error) { return nil, nil }

func (s *stubOrderRepo) GetStatus(_ context.Context, _ int64) (model.OrderStatus, error) {
	return "", nil
}

func (s *stubOrderRepo) UpdateStatus(_ context.Context, _ int64, _, _ model.OrderStatus, _ string) error {
	return nil
}

func (s *stubOrderRepo) ConfirmPayment(_ context.Context, _ int64) error { return nil }

func (s *stubOrderRepo) GetPayment(_ context.Context, _ int64) (*model.Payment, error) {
	return nil, nil
}

type stubUserRepo struct {
	users map[int64]*model.User
}

func (s *stubUserRepo) Create(_ context.Context, _ *model.User) error { return nil }

func (s *stubUserRepo) GetByID(_ context.Context, id int64) (*model.User, error) {
	return s.users[id], nil
}

func (s *stubUserRepo) GetByEmail(_ context.Context, _ string) (*model.User, error) {
	return nil, nil
}

func (s *stubUserRepo) UpdateProfile(_ context.Context, _ int64, _, _, _ string) error {
	return nil
}

func newTestNotifier(t *testing.T, orders *stubOrderRepo, users *stubUserRepo) (*Notifier, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewNotifier(nil, orders, users, client, config.SMTPConfig{}, log), mr
}

func orderEvent(t *testing.T, orderID, userID int64) amqp.Delivery {
	t.Helper()
	body, err := json.Marshal(model.OrderPlacedEvent{OrderID: orderID, UserID: userID})
	require.NoError(t, err)
	return amqp.Delivery{Body: body}
}

func TestNotifier_MarksNotifiedAfterSuccess(t *testing.T) {
	orders := &stubOrderRepo{orders: map[int64]*model.Order{
		77: {ID: 77, UserID: 5, TotalAmount: decimal.RequireFromString("29.99")},
	}}
	users := &stubUserRepo{users: map[int64]*model.User{
		5: {ID: 5, Email: "buyer@example.com", Name: "Buyer"},
	}}
	n, mr := newTestNotifier(t, orders, users)

	n.processMessage(context.Background(), orderEvent(t, 77, 5))

	assert.True(t, mr.Exists("order_notified:77"))
}

func TestNotifier_FailedNotifyLeavesEventEligible(t *testing.T) {
	// No such order: notify fails and the message dead-letters. The dedupe
	// key must not be written, or a redriven event would be skipped without
	// a receipt ever going out.
	n, mr := newTestNotifier(t, &stubOrderRepo{orders: map[int64]*model.Order{}},
		&stubUserRepo{users: map[int64]*model.User{}})

	n.processMessage(context.Background(), orderEvent(t, 77, 5))

	assert.False(t, mr.Exists("order_notified:77"))
}

func TestNotifier_SkipsAlreadyNotified(t *testing.T) {
	// Pre-existing key means a redelivery after a successful send; the order
	// is never fetched again.
	orders := &stubOrderRepo{orders: map[int64]*model.Order{}}
	n, mr := newTestNotifier(t, orders, &stubUserRepo{users: map[int64]*model.User{}})
	require.NoError(t, mr.Set("order_notified:77", "1"))

	n.processMessage(context.Background(), orderEvent(t, 77, 5))

	assert.Zero(t, orders.gets)
}
