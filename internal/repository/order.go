package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/voltcart/storefront-api/internal/model"
)

// ErrStatusConflict is returned when a conditional status update matched no
// row, meaning the order moved to another status concurrently.
var ErrStatusConflict = errors.New("order status changed concurrently")

// InsufficientStockError reports a cart line whose quantity exceeds the
// available stock of its product.
type InsufficientStockError struct {
	ProductID int64
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for product %d: available %d, requested %d",
		e.ProductID, e.Available, e.Requested)
}

type OrderRepository interface {
	// Create persists the order header, its items, its payment row, and the
	// matching stock decrements in a single transaction. Either everything
	// commits or nothing does.
	Create(ctx context.Context, order *model.Order) error
	GetByID(ctx context.Context, id int64) (*model.Order, error)
	ListByUserID(ctx context.Context, userID int64) ([]model.Order, error)
	ListAll(ctx context.Context) ([]model.Order, error)
	GetStatus(ctx context.Context, id int64) (model.OrderStatus, error)
	UpdateStatus(ctx context.Context, id int64, from, to model.OrderStatus, reason string) error
	ConfirmPayment(ctx context.Context, orderID int64) error
	GetPayment(ctx context.Context, orderID int64) (*model.Payment, error)
}

type sqliteOrderRepo struct{ db *sql.DB }

func NewOrderRepository(db *sql.DB) OrderRepository {
	return &sqliteOrderRepo{db: db}
}

func (r *sqliteOrderRepo) Create(ctx context.Context, order *model.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO orders (user_id, status, total_amount, delivery_address) VALUES (?, ?, ?, ?)`,
		order.UserID, order.Status, order.TotalAmount, order.DeliveryAddress,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	order.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID

		res, err := tx.ExecContext(ctx,
			`INSERT INTO order_items (order_id, product_id, quantity, price) VALUES (?, ?, ?, ?)`,
			item.OrderID, item.ProductID, item.Quantity, item.Price,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
		item.ID, _ = res.LastInsertId()

		// Conditional decrement: a concurrent order that drained the stock
		// between the pre-check and now makes this match zero rows.
		ct, err := tx.ExecContext(ctx,
			`UPDATE products SET stock = stock - ? WHERE product_id = ? AND stock >= ?`,
			item.Quantity, item.ProductID, item.Quantity,
		)
		if err != nil {
			return fmt.Errorf("decrement stock: %w", err)
		}
		n, err := ct.RowsAffected()
		if err != nil {
			return fmt.Errorf("decrement stock: %w", err)
		}
		if n == 0 {
			var available int
			_ = tx.QueryRowContext(ctx,
				`SELECT COALESCE((SELECT stock FROM products WHERE product_id = ?), 0)`,
				item.ProductID,
			).Scan(&available)
			return &InsufficientStockError{
				ProductID: item.ProductID,
				Available: available,
				Requested: item.Quantity,
			}
		}
	}

	if order.Payment != nil {
		order.Payment.OrderID = order.ID
		res, err := tx.ExecContext(ctx,
			`INSERT INTO payments (order_id, amount, method, status, reference) VALUES (?, ?, ?, ?, ?)`,
			order.Payment.OrderID, order.Payment.Amount, order.Payment.Method,
			order.Payment.Status, order.Payment.Reference,
		)
		if err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}
		order.Payment.ID, _ = res.LastInsertId()
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit order: %w", err)
	}
	return nil
}

const orderJoinQuery = `
	SELECT o.order_id, o.user_id, o.status, o.total_amount,
	       COALESCE(o.delivery_address, ''), COALESCE(o.cancellation_reason, ''),
	       COALESCE(o.refund_reason, ''), o.created_at,
	       oi.order_item_id, oi.product_id, oi.quantity, oi.price,
	       COALESCE(p.name, ''), COALESCE(p.image, '')
	FROM orders o
	JOIN order_items oi ON o.order_id = oi.order_id
	LEFT JOIN products p ON oi.product_id = p.product_id`

func (r *sqliteOrderRepo) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	orders, err := r.queryOrders(ctx, orderJoinQuery+`
		WHERE o.order_id = ?
		ORDER BY oi.order_item_id`, id)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, nil
	}
	order := &orders[0]
	order.Payment, err = r.GetPayment(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *sqliteOrderRepo) ListByUserID(ctx context.Context, userID int64) ([]model.Order, error) {
	return r.queryOrders(ctx, orderJoinQuery+`
		WHERE o.user_id = ?
		ORDER BY o.created_at DESC, o.order_id DESC, oi.order_item_id`, userID)
}

func (r *sqliteOrderRepo) ListAll(ctx context.Context) ([]model.Order, error) {
	return r.queryOrders(ctx, orderJoinQuery+`
		ORDER BY o.created_at DESC, o.order_id DESC, oi.order_item_id`)
}

// queryOrders folds the flat join rows into one order per order id,
// preserving the first-seen order of ids and appending items in row order.
func (r *sqliteOrderRepo) queryOrders(ctx context.Context, query string, args ...any) ([]model.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	index := make(map[int64]int)
	for rows.Next() {
		var (
			o    model.Order
			item model.OrderItem
		)
		err := rows.Scan(
			&o.ID, &o.UserID, &o.Status, &o.TotalAmount,
			&o.DeliveryAddress, &o.CancellationReason, &o.RefundReason, &o.CreatedAt,
			&item.ID, &item.ProductID, &item.Quantity, &item.Price,
			&item.Name, &item.Image,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		item.OrderID = o.ID

		i, seen := index[o.ID]
		if !seen {
			i = len(orders)
			index[o.ID] = i
			orders = append(orders, o)
		}
		orders[i].Items = append(orders[i].Items, item)
	}
	return orders, rows.Err()
}

func (r *sqliteOrderRepo) GetStatus(ctx context.Context, id int64) (model.OrderStatus, error) {
	var status model.OrderStatus
	err := r.db.QueryRowContext(ctx,
		`SELECT status FROM orders WHERE order_id = ?`, id,
	).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", sql.ErrNoRows
		}
		return "", fmt.Errorf("get order status: %w", err)
	}
	return status, nil
}

// UpdateStatus moves an order from one status to another. The reason lands
// in cancellation_reason or refund_reason depending on the target; the other
// reason column is left untouched. The update is conditional on the current
// status so a concurrent transition cannot be overwritten silently.
func (r *sqliteOrderRepo) UpdateStatus(ctx context.Context, id int64, from, to model.OrderStatus, reason string) error {
	var (
		res sql.Result
		err error
	)
	switch to {
	case model.OrderStatusCancelled:
		res, err = r.db.ExecContext(ctx,
			`UPDATE orders SET status = ?, cancellation_reason = ? WHERE order_id = ? AND status = ?`,
			to, reason, id, from,
		)
	case model.OrderStatusRefunded:
		res, err = r.db.ExecContext(ctx,
			`UPDATE orders SET status = ?, refund_reason = ? WHERE order_id = ? AND status = ?`,
			to, reason, id, from,
		)
	default:
		res, err = r.db.ExecContext(ctx,
			`UPDATE orders SET status = ? WHERE order_id = ? AND status = ?`,
			to, id, from,
		)
	}
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if n == 0 {
		return ErrStatusConflict
	}
	return nil
}

func (r *sqliteOrderRepo) ConfirmPayment(ctx context.Context, orderID int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE payments SET status = ?, paid_at = ? WHERE order_id = ? AND status = ?`,
		model.PaymentStatusPaid, time.Now().UTC(), orderID, model.PaymentStatusPending,
	)
	if err != nil {
		return fmt.Errorf("confirm payment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("confirm payment: %w", err)
	}
	if n == 0 {
		return ErrStatusConflict
	}
	return nil
}

func (r *sqliteOrderRepo) GetPayment(ctx context.Context, orderID int64) (*model.Payment, error) {
	p := &model.Payment{}
	err := r.db.QueryRowContext(ctx,
		`SELECT payment_id, order_id, amount, method, status, COALESCE(reference, ''), paid_at
		 FROM payments WHERE order_id = ?`, orderID,
	).Scan(&p.ID, &p.OrderID, &p.Amount, &p.Method, &p.Status, &p.Reference, &p.PaidAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return p, nil
}
