package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopcart/backend/internal/domain/account"
	"github.com/shopcart/backend/internal/domain/catalog"
	"github.com/shopcart/backend/internal/interfaces/http/dto"
	"github.com/shopcart/backend/internal/interfaces/http/middleware"
)

// FavouriteService changes and lists a user's favourites
type FavouriteService interface {
	AddFavourite(ctx context.Context, userID uuid.UUID, productID string) (*account.User, error)
	RemoveFavourite(ctx context.Context, userID uuid.UUID, productID string) (*account.User, error)
	ListFavourites(ctx context.Context, userID uuid.UUID) ([]*catalog.Product, error)
}

// FavouriteHandler handles the favourite routes
type FavouriteHandler struct {
	BaseHandler
	favourites FavouriteService
}

// NewFavouriteHandler creates a new favourite handler
func NewFavouriteHandler(favourites FavouriteService) *FavouriteHandler {
	return &FavouriteHandler{favourites: favourites}
}

// List godoc
// @Summary      List favourite products
// @Tags         favourite
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} dto.ProductResponse
// @Router       /api/user/favourite [get]
func (h *FavouriteHandler) List(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		h.Unauthorized(c)
		return
	}

	products, err := h.favourites.ListFavourites(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, dto.NewProductResponses(products))
}

// Add godoc
// @Summary      Add a product to the favourites
// @Tags         favourite
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.FavouriteRequest true "Product"
// @Success      200 {object} dto.MessageResponse
// @Router       /api/user/favourite [post]
func (h *FavouriteHandler) Add(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		h.Unauthorized(c)
		return
	}

	var req dto.FavouriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(c, err)
		return
	}

	user, err := h.favourites.AddFavourite(c.Request.Context(), userID, req.ProductID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, dto.NewMessageResponse("Product added to favourites successfully", user))
}

// Remove godoc
// @Summary      Remove a product from the favourites
// @Tags         favourite
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.FavouriteRequest true "Product"
// @Success      200 {object} dto.MessageResponse
// @Router       /api/user/favourite [patch]
func (h *FavouriteHandler) Remove(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		h.Unauthorized(c)
		return
	}

	var req dto.FavouriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(c, err)
		return
	}
	h.remove(c, userID, req.ProductID)
}

// RemoveByPath godoc
// @Summary      Remove a product from the favourites
// @Tags         favourite
// @Produce      json
// @Security     BearerAuth
// @Param        productId path string true "Product ID"
// @Success      200 {object} dto.MessageResponse
// @Router       /api/user/favourite/{productId} [delete]
func (h *FavouriteHandler) RemoveByPath(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		h.Unauthorized(c)
		return
	}
	h.remove(c, userID, c.Param("productId"))
}

func (h *FavouriteHandler) remove(c *gin.Context, userID uuid.UUID, productID string) {
	user, err := h.favourites.RemoveFavourite(c.Request.Context(), userID, productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, dto.NewMessageResponse("Product removed from favourites successfully", user))
}
