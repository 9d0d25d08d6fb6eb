package dto

import (
	"time"

	"github.com/google/uuid"
	appaccount "github.com/shopcart/backend/internal/application/account"
	"github.com/shopcart/backend/internal/domain/account"
	"github.com/shopcart/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// =====================
// Account Request DTOs
// =====================

// SignupRequest represents the request body for registration
type SignupRequest struct {
	Email    string `json:"email" binding:"required,email,max=200"`
	Password string `json:"password" binding:"required,min=6,max=72"`
	Name     string `json:"name" binding:"required,max=100"`
	Img      string `json:"img" binding:"omitempty,max=500"`
}

// SigninRequest represents the request body for login
type SigninRequest struct {
	Email    string `json:"email" binding:"required,max=200"`
	Password string `json:"password" binding:"required,max=72"`
}

// AddToCartRequest represents the request body for adding to the cart
type AddToCartRequest struct {
	ProductID string `json:"productId" binding:"required,productref"`
	Quantity  int    `json:"quantity" binding:"required,min=1,max=10000"`
}

// RemoveFromCartRequest represents the request body for removing from the
// cart. Without a quantity the whole line is removed.
type RemoveFromCartRequest struct {
	ProductID string `json:"productId" binding:"required,productref"`
	Quantity  *int   `json:"quantity" binding:"omitempty"`
}

// FavouriteRequest represents the request body for favourite changes
type FavouriteRequest struct {
	ProductID string `json:"productId" binding:"required,productref"`
}

// =====================
// Account Response DTOs
// =====================

// AuthResponse is returned by signup and signin
type AuthResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expiresAt"`
	User      *UserResponse `json:"user"`
}

// UserResponse is the public view of a user. It never carries the password hash.
type UserResponse struct {
	ID         uuid.UUID          `json:"id" swaggertype:"string" format:"uuid"`
	Email      string             `json:"email"`
	Name       string             `json:"name"`
	Img        string             `json:"img"`
	Cart       []CartLineResponse `json:"cart"`
	Favourites []string           `json:"favourites"`
	CreatedAt  time.Time          `json:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt"`
}

// CartLineResponse is a cart line held by reference
type CartLineResponse struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// CartItemResponse is a cart line with its product resolved
type CartItemResponse struct {
	Product  *ProductResponse `json:"product"`
	Quantity int              `json:"quantity"`
}

// ProductResponse is a catalog product. Missing is set when the catalog no
// longer knows a product still referenced by a cart.
type ProductResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name,omitempty"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price" swaggertype:"string" example:"19.99"`
	Image       string          `json:"img,omitempty"`
	Category    string          `json:"category,omitempty"`
	Missing     bool            `json:"missing,omitempty"`
}

// NewAuthResponse converts a register or login result
func NewAuthResponse(result *appaccount.AuthResult) *AuthResponse {
	return &AuthResponse{
		Token:     result.Token.AccessToken,
		ExpiresAt: result.Token.ExpiresAt,
		User:      NewUserResponse(result.User),
	}
}

// NewUserResponse converts a user aggregate
func NewUserResponse(u *account.User) *UserResponse {
	cart := make([]CartLineResponse, len(u.Cart))
	for i, line := range u.Cart {
		cart[i] = CartLineResponse{ProductID: line.ProductID.String(), Quantity: line.Quantity}
	}
	favourites := make([]string, len(u.Favourites))
	for i, id := range u.Favourites {
		favourites[i] = id.String()
	}
	return &UserResponse{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		Img:        u.Avatar,
		Cart:       cart,
		Favourites: favourites,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

// NewMessageResponse pairs a confirmation message with the updated user
func NewMessageResponse(message string, u *account.User) MessageResponse {
	return MessageResponse{Message: message, User: NewUserResponse(u)}
}

// NewProductResponse converts a catalog product
func NewProductResponse(p *catalog.Product) *ProductResponse {
	return &ProductResponse{
		ID:          p.ID.String(),
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Image:       p.Image,
		Category:    p.Category,
	}
}

// NewProductResponses converts a list of catalog products
func NewProductResponses(products []*catalog.Product) []*ProductResponse {
	out := make([]*ProductResponse, len(products))
	for i, p := range products {
		out[i] = NewProductResponse(p)
	}
	return out
}

// NewCartItemResponses converts resolved cart items
func NewCartItemResponses(items []appaccount.CartItem) []CartItemResponse {
	out := make([]CartItemResponse, len(items))
	for i, item := range items {
		product := NewProductResponse(item.Product)
		product.Missing = item.Missing
		out[i] = CartItemResponse{Product: product, Quantity: item.Quantity}
	}
	return out
}
