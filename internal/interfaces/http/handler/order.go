package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apporder "github.com/shopcart/backend/internal/application/order"
	"github.com/shopcart/backend/internal/domain/order"
	"github.com/shopcart/backend/internal/interfaces/http/dto"
	"github.com/shopcart/backend/internal/interfaces/http/middleware"
)

// OrderService places and lists orders
type OrderService interface {
	PlaceOrder(ctx context.Context, userID uuid.UUID, input apporder.PlaceOrderInput) (*apporder.PlaceOrderResult, error)
	ListOrders(ctx context.Context, userID uuid.UUID) ([]*order.Order, error)
}

// OrderHandler handles the order routes
type OrderHandler struct {
	BaseHandler
	orders OrderService
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orders OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// List godoc
// @Summary      List the user's orders, oldest first
// @Tags         order
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} dto.OrderResponse
// @Router       /api/user/order [get]
func (h *OrderHandler) List(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		h.Unauthorized(c)
		return
	}

	orders, err := h.orders.ListOrders(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, dto.NewOrderResponses(orders))
}

// Place godoc
// @Summary      Place an order and empty the cart
// @Description  Repeating a request with the same Idempotency-Key returns the first order
// @Tags         order
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key header string false "Client retry key"
// @Param        request body dto.PlaceOrderRequest true "Order"
// @Success      200 {object} dto.OrderPlacedResponse
// @Failure      400 {object} dto.ErrorResponse
// @Failure      503 {object} dto.ErrorResponse
// @Router       /api/user/order [post]
func (h *OrderHandler) Place(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		h.Unauthorized(c)
		return
	}

	var req dto.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(c, err)
		return
	}

	key := strings.TrimSpace(c.GetHeader(dto.IdempotencyKeyHeader))
	result, err := h.orders.PlaceOrder(c.Request.Context(), userID, req.ToInput(key))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if result.Replayed {
		c.Header(dto.IdempotentReplayedHeader, "true")
	}
	h.OK(c, dto.OrderPlacedResponse{
		Message: "Order placed successfully",
		Order:   dto.NewOrderResponse(result.Order),
	})
}
