package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appaccount "github.com/shopcart/backend/internal/application/account"
	"github.com/shopcart/backend/internal/domain/account"
	"github.com/shopcart/backend/internal/interfaces/http/dto"
	"github.com/shopcart/backend/internal/interfaces/http/middleware"
)

// CartService changes and lists a user's cart
type CartService interface {
	AddToCart(ctx context.Context, userID uuid.UUID, input appaccount.AddToCartInput) (*account.User, error)
	RemoveFromCart(ctx context.Context, userID uuid.UUID, input appaccount.RemoveFromCartInput) (*account.User, error)
	ListCart(ctx context.Context, userID uuid.UUID) ([]appaccount.CartItem, error)
}

// CartHandler handles the cart routes
type CartHandler struct {
	BaseHandler
	carts CartService
}

// NewCartHandler creates a new cart handler
func NewCartHandler(carts CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

// List godoc
// @Summary      List cart lines with their products
// @Tags         cart
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} dto.CartItemResponse
// @Failure      401 {object} dto.ErrorResponse
// @Router       /api/user/cart [get]
func (h *CartHandler) List(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		h.Unauthorized(c)
		return
	}

	items, err := h.carts.ListCart(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, dto.NewCartItemResponses(items))
}

// Add godoc
// @Summary      Add a product to the cart
// @Description  Adds quantity to an existing line or appends a new one
// @Tags         cart
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.AddToCartRequest true "Product and quantity"
// @Success      200 {object} dto.MessageResponse
// @Failure      400 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Router       /api/user/cart [post]
func (h *CartHandler) Add(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		h.Unauthorized(c)
		return
	}

	var req dto.AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(c, err)
		return
	}

	user, err := h.carts.AddToCart(c.Request.Context(), userID, appaccount.AddToCartInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, dto.NewMessageResponse("Product added to cart successfully", user))
}

// Remove godoc
// @Summary      Remove a product from the cart
// @Description  Without a quantity the whole line is removed
// @Tags         cart
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.RemoveFromCartRequest true "Product and optional quantity"
// @Success      200 {object} dto.MessageResponse
// @Failure      404 {object} dto.ErrorResponse
// @Router       /api/user/cart [patch]
func (h *CartHandler) Remove(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		h.Unauthorized(c)
		return
	}

	var req dto.RemoveFromCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(c, err)
		return
	}

	user, err := h.carts.RemoveFromCart(c.Request.Context(), userID, appaccount.RemoveFromCartInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, dto.NewMessageResponse("Product quantity updated in cart successfully", user))
}
