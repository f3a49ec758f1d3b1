package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// --- Auth ---

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
	Token   string       `json:"token"`
}

type UserResponse struct {
	ID      int64  `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	IsAdmin bool   `json:"isAdmin"`
}

type ProfileResponse struct {
	ID      int64  `json:"user_id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

type UpdateProfileRequest struct {
	Name     string `json:"name" binding:"required"`
	Address  string `json:"address"`
	Password string `json:"password"`
}

// --- Product ---

type CreateProductRequest struct {
	CategoryID  *int64          `json:"category_id"`
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" binding:"required"`
	Stock       *int            `json:"stock" binding:"required,min=0"`
	Image       string          `json:"image"`
	ReviewCount int             `json:"review_count"`
	Rating      float64         `json:"rating"`
}

type UpdateProductRequest struct {
	CategoryID  *int64           `json:"category_id"`
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"`
	Image       *string          `json:"image"`
	ReviewCount *int             `json:"review_count"`
	Rating      *float64         `json:"rating"`
}

type ListProductsRequest struct {
	Page   int    `form:"page,default=1" binding:"min=1"`
	Limit  int    `form:"limit,default=20" binding:"min=1,max=100"`
	Search string `form:"search"`
	Sort   string `form:"sort,default=product_id" binding:"oneof=name price rating product_id"`
	Order  string `form:"order,default=asc" binding:"oneof=asc desc"`
}

type ProductResponse struct {
	ID          int64           `json:"product_id"`
	CategoryID  *int64          `json:"category_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Image       string          `json:"image"`
	ReviewCount int             `json:"review_count"`
	Rating      float64         `json:"rating"`
}

type ProductListResponse struct {
	Products []ProductResponse `json:"products"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}

type CategoryResponse struct {
	ID   int64  `json:"category_id"`
	Name string `json:"name"`
}

// --- Order ---

// CartLine is one entry of the client-held cart snapshot. The price field is
// accepted for compatibility with older clients but never trusted: the
// server prices every line from its own products table.
type CartLine struct {
	ProductID int64            `json:"product_id" binding:"required"`
	Quantity  int              `json:"quantity" binding:"required,min=1"`
	Price     *decimal.Decimal `json:"price"`
}

type PlaceOrderRequest struct {
	UserID          int64            `json:"userId" binding:"required"`
	CartItems       []CartLine       `json:"cartItems" binding:"required,min=1,dive"`
	DeliveryAddress string           `json:"deliveryAddress"`
	PaymentMethod   string           `json:"paymentMethod" binding:"required"`
	Total           *decimal.Decimal `json:"total"`
}

type PlaceOrderResponse struct {
	Success bool  `json:"success"`
	OrderID int64 `json:"orderId"`
}

type OrderItemResponse struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type PaymentResponse struct {
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Status    string          `json:"status"`
	Reference string          `json:"reference"`
	PaidAt    *time.Time      `json:"paid_at,omitempty"`
}

type OrderResponse struct {
	OrderID            int64               `json:"order_id"`
	UserID             int64               `json:"user_id"`
	Status             string              `json:"status"`
	TotalAmount        decimal.Decimal     `json:"total_amount"`
	DeliveryAddress    string              `json:"delivery_address"`
	CancellationReason string              `json:"cancellation_reason,omitempty"`
	RefundReason       string              `json:"refund_reason,omitempty"`
	Items              []OrderItemResponse `json:"items"`
	Payment            *PaymentResponse    `json:"payment,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
}

type UpdateOrderStatusRequest struct {
	Status             string `json:"status" binding:"required"`
	CancellationReason string `json:"cancellation_reason"`
	RefundReason       string `json:"refund_reason"`
}

type UpdateOrderStatusResponse struct {
	Message            string `json:"message"`
	OrderID            int64  `json:"orderId"`
	Status             string `json:"status"`
	CancellationReason string `json:"cancellation_reason,omitempty"`
	RefundReason       string `json:"refund_reason,omitempty"`
}

type ConfirmPaymentResponse struct {
	Message string `json:"message"`
	OrderID int64  `json:"orderId"`
}

// --- Wishlist ---

type AddWishlistRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
}

type WishlistItemResponse struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
	AddedAt   time.Time       `json:"added_at"`
}
