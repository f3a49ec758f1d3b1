package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID        int64
	Email     string
	Password  string
	Name      string
	Address   string
	Role      string
	CreatedAt time.Time
}

type Category struct {
	ID   int64
	Name string
}

type Product struct {
	ID          int64
	CategoryID  *int64
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	Image       string
	ReviewCount int
	Rating      float64
}

type Order struct {
	ID                 int64
	UserID             int64
	Status             OrderStatus
	TotalAmount        decimal.Decimal
	DeliveryAddress    string
	CancellationReason string
	RefundReason       string
	Items              []OrderItem
	Payment            *Payment
	CreatedAt          time.Time
}

type OrderItem struct {
	ID        int64
	OrderID   int64
	ProductID int64
	Quantity  int
	// Price is the unit price captured at order time. It is a snapshot and
	// stays fixed even if the product is repriced later.
	Price decimal.Decimal

	// Joined from products for order views.
	Name  string
	Image string
}

type Payment struct {
	ID        int64
	OrderID   int64
	Amount    decimal.Decimal
	Method    string
	Status    string
	Reference string
	PaidAt    *time.Time
}

const (
	PaymentStatusPending = "Pending"
	PaymentStatusPaid    = "Paid"
)

type WishlistItem struct {
	ID        int64
	UserID    int64
	ProductID int64
	Name      string
	Price     decimal.Decimal
	Image     string
	CreatedAt time.Time
}

type OrderPlacedEvent struct {
	OrderID int64 `json:"order_id"`
	UserID  int64 `json:"user_id"`
}
