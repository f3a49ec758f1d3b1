package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"

	"github.com/voltcart/storefront-api/internal/dto"
	"github.com/voltcart/storefront-api/internal/model"
	"github.com/voltcart/storefront-api/internal/repository"
)

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrOrderNotFound      = errors.New("order not found")
	ErrTotalMismatch      = errors.New("order total does not match server total")
	ErrReasonRequired     = errors.New("a reason is required for this status")
	ErrUnknownStatus      = errors.New("unknown order status")
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrPaymentAlreadyPaid = errors.New("payment already confirmed")
)

// TransitionError reports a status change the transition table forbids.
type TransitionError struct {
	From model.OrderStatus
	To   model.OrderStatus
}

func (e *TransitionError) Error() string {
	if e.From.Terminal() {
		return fmt.Sprintf("order is %s and cannot change status", e.From)
	}
	return fmt.Sprintf("cannot transition order from %s to %s", e.From, e.To)
}

// Shipping is waived only when the subtotal strictly exceeds the threshold.
var (
	freeShippingThreshold = decimal.NewFromInt(50)
	shippingFee           = decimal.RequireFromString("9.99")
	totalEpsilon          = decimal.RequireFromString("0.01")
)

const orderQueueName = "orders"

type OrderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	amqpCh      *amqp.Channel
}

func NewOrderService(orderRepo repository.OrderRepository, productRepo repository.ProductRepository, amqpCh *amqp.Channel) *OrderService {
	return &OrderService{orderRepo: orderRepo, productRepo: productRepo, amqpCh: amqpCh}
}

// PlaceOrder validates the cart snapshot against current stock, prices every
// line from the products table, and persists order, items, payment, and
// stock decrements atomically.
func (s *OrderService) PlaceOrder(ctx context.Context, req dto.PlaceOrderRequest) (*model.Order, error) {
	if len(req.CartItems) == 0 {
		return nil, ErrEmptyCart
	}

	ids := make([]int64, 0, len(req.CartItems))
	seen := make(map[int64]bool, len(req.CartItems))
	for _, line := range req.CartItems {
		if !seen[line.ProductID] {
			seen[line.ProductID] = true
			ids = append(ids, line.ProductID)
		}
	}

	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("check stock: %w", err)
	}

	// An unknown product id counts as zero stock. The whole order is
	// rejected on the first offending line; nothing has been written yet.
	subtotal := decimal.Zero
	items := make([]model.OrderItem, 0, len(req.CartItems))
	for _, line := range req.CartItems {
		product, ok := products[line.ProductID]
		available := 0
		if ok {
			available = product.Stock
		}
		if line.Quantity > available {
			return nil, &repository.InsufficientStockError{
				ProductID: line.ProductID,
				Available: available,
				Requested: line.Quantity,
			}
		}

		subtotal = subtotal.Add(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		items = append(items, model.OrderItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Price:     product.Price,
		})
	}

	shipping := shippingFee
	if subtotal.GreaterThan(freeShippingThreshold) {
		shipping = decimal.Zero
	}
	total := subtotal.Add(shipping)

	// The client total is advisory: unit prices are server-side, so a
	// mismatch means a stale cart, not a tampering attempt.
	if req.Total != nil && total.Sub(*req.Total).Abs().GreaterThan(totalEpsilon) {
		return nil, fmt.Errorf("%w: server %s, client %s", ErrTotalMismatch, total, *req.Total)
	}

	order := &model.Order{
		UserID:          req.UserID,
		Status:          model.OrderStatusPending,
		TotalAmount:     total,
		DeliveryAddress: req.DeliveryAddress,
		Items:           items,
		Payment: &model.Payment{
			Amount:    total,
			Method:    req.PaymentMethod,
			Status:    model.PaymentStatusPending,
			Reference: uuid.NewString(),
		},
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		var stockErr *repository.InsufficientStockError
		if errors.As(err, &stockErr) {
			return nil, err
		}
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.publishOrderPlaced(ctx, order)
	return order, nil
}

// publishOrderPlaced hands the order to the notification pipeline. Failures
// are swallowed: the order is already committed.
func (s *OrderService) publishOrderPlaced(ctx context.Context, order *model.Order) {
	if s.amqpCh == nil {
		return
	}
	msg, err := json.Marshal(model.OrderPlacedEvent{OrderID: order.ID, UserID: order.UserID})
	if err != nil {
		return
	}
	_ = s.amqpCh.PublishWithContext(ctx, "", orderQueueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         msg,
		DeliveryMode: amqp.Persistent,
	})
}

func (s *OrderService) GetByID(ctx context.Context, orderID int64) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *OrderService) ListByUserID(ctx context.Context, userID int64) ([]model.Order, error) {
	return s.orderRepo.ListByUserID(ctx, userID)
}

func (s *OrderService) ListAll(ctx context.Context) ([]model.Order, error) {
	return s.orderRepo.ListAll(ctx)
}

// UpdateStatus applies one transition of the order status machine. Reasons
// are mandatory for Cancelled and Refunded and each lands only in its own
// column.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID int64, req dto.UpdateOrderStatusRequest) error {
	target, err := model.ParseOrderStatus(req.Status)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, req.Status)
	}

	var reason string
	switch target {
	case model.OrderStatusCancelled:
		reason = strings.TrimSpace(req.CancellationReason)
	case model.OrderStatusRefunded:
		reason = strings.TrimSpace(req.RefundReason)
	}
	if target.RequiresReason() && reason == "" {
		return ErrReasonRequired
	}

	current, err := s.orderRepo.GetStatus(ctx, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("get order status: %w", err)
	}

	if !current.CanTransition(target) {
		return &TransitionError{From: current, To: target}
	}

	if err := s.orderRepo.UpdateStatus(ctx, orderID, current, target, reason); err != nil {
		return err
	}
	return nil
}

func (s *OrderService) ConfirmPayment(ctx context.Context, orderID int64) error {
	payment, err := s.orderRepo.GetPayment(ctx, orderID)
	if err != nil {
		return fmt.Errorf("get payment: %w", err)
	}
	if payment == nil {
		return ErrPaymentNotFound
	}
	if payment.Status == model.PaymentStatusPaid {
		return ErrPaymentAlreadyPaid
	}

	if err := s.orderRepo.ConfirmPayment(ctx, orderID); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return ErrPaymentAlreadyPaid
		}
		return fmt.Errorf("confirm payment: %w", err)
	}
	return nil
}
