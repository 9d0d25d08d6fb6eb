package account

import (
	"github.com/shopcart/backend/internal/domain/account"
	"github.com/shopcart/backend/internal/domain/catalog"
	"github.com/shopcart/backend/internal/infrastructure/auth"
)

// RegisterInput contains the input for signing up
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Avatar   string
}

// LoginInput contains the input for signing in
type LoginInput struct {
	Email    string
	Password string
}

// AuthResult is returned by a successful register or login
type AuthResult struct {
	Token *auth.Token
	User  *account.User
}

// AddToCartInput contains the input for adding to the cart
type AddToCartInput struct {
	ProductID string
	Quantity  int
}

// RemoveFromCartInput contains the input for removing from the cart.
// A nil Quantity removes the whole line.
type RemoveFromCartInput struct {
	ProductID string
	Quantity  *int
}

// CartItem is a cart line with its product resolved through the catalog.
// Missing is set when the catalog no longer knows the product; Product then
// carries only the ID.
type CartItem struct {
	Product  *catalog.Product
	Quantity int
	Missing  bool
}
