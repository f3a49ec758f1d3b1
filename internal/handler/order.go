package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/voltcart/storefront-api/internal/dto"
	"github.com/voltcart/storefront-api/internal/model"
	"github.com/voltcart/storefront-api/internal/repository"
	"github.com/voltcart/storefront-api/internal/service"
)

type OrderHandler struct {
	orderService *service.OrderService
}

func NewOrderHandler(orderService *service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	var req dto.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// Binding fills the struct before validating, so the parsed fields
		// tell apart a missing cart from some other bad field.
		if req.UserID == 0 || len(req.CartItems) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing userId or cartItems"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.orderService.PlaceOrder(c.Request.Context(), req)
	if err != nil {
		var stockErr *repository.InsufficientStockError
		switch {
		case errors.Is(err, service.ErrEmptyCart):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing userId or cartItems"})
		case errors.As(err, &stockErr):
			c.JSON(http.StatusBadRequest, gin.H{"error": stockErr.Error()})
		case errors.Is(err, service.ErrTotalMismatch):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	c.JSON(http.StatusCreated, dto.PlaceOrderResponse{Success: true, OrderID: order.ID})
}

// ListUserOrders returns every order of one user, items nested.
func (h *OrderHandler) ListUserOrders(c *gin.Context) {
	userID, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user ID"})
		return
	}

	orders, err := h.orderService.ListByUserID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, toOrderResponses(orders))
}

// ListAllOrders is the admin view across all users.
func (h *OrderHandler) ListAllOrders(c *gin.Context) {
	orders, err := h.orderService.ListAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, toOrderResponses(orders))
}

func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	orderID, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
		return
	}

	var req dto.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.orderService.UpdateStatus(c.Request.Context(), orderID, req); err != nil {
		var transitionErr *service.TransitionError
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		case errors.Is(err, service.ErrUnknownStatus),
			errors.Is(err, service.ErrReasonRequired):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.As(err, &transitionErr):
			c.JSON(http.StatusBadRequest, gin.H{"error": transitionErr.Error()})
		case errors.Is(err, repository.ErrStatusConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "order status changed, retry"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.UpdateOrderStatusResponse{
		Message:            "Order status updated",
		OrderID:            orderID,
		Status:             req.Status,
		CancellationReason: req.CancellationReason,
		RefundReason:       req.RefundReason,
	})
}

func (h *OrderHandler) ConfirmPayment(c *gin.Context) {
	orderID, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
		return
	}

	if err := h.orderService.ConfirmPayment(c.Request.Context(), orderID); err != nil {
		switch {
		case errors.Is(err, service.ErrPaymentNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
		case errors.Is(err, service.ErrPaymentAlreadyPaid):
			c.JSON(http.StatusConflict, gin.H{"error": "payment already confirmed"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ConfirmPaymentResponse{Message: "Payment confirmed", OrderID: orderID})
}

func pathID(c *gin.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

func toOrderResponses(orders []model.Order) []dto.OrderResponse {
	resp := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		resp = append(resp, toOrderResponse(&orders[i]))
	}
	return resp
}

func toOrderResponse(order *model.Order) dto.OrderResponse {
	items := make([]dto.OrderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, dto.OrderItemResponse{
			ProductID: item.ProductID,
			Name:      item.Name,
			Image:     item.Image,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}

	resp := dto.OrderResponse{
		OrderID:            order.ID,
		UserID:             order.UserID,
		Status:             string(order.Status),
		TotalAmount:        order.TotalAmount,
		DeliveryAddress:    order.DeliveryAddress,
		CancellationReason: order.CancellationReason,
		RefundReason:       order.RefundReason,
		Items:              items,
		CreatedAt:          order.CreatedAt,
	}
	if order.Payment != nil {
		resp.Payment = &dto.PaymentResponse{
			Amount:    order.Payment.Amount,
			Method:    order.Payment.Method,
			Status:    order.Payment.Status,
			Reference: order.Payment.Reference,
			PaidAt:    order.Payment.PaidAt,
		}
	}
	return resp
}
