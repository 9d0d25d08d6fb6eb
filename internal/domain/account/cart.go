package account

import (
	"github.com/shopcart/backend/internal/domain/catalog"
	"github.com/shopcart/backend/internal/domain/shared"
)

// ProductRef is a product held by reference in a cart or favourites list
type ProductRef = catalog.ProductID

// CartLine is one product and its quantity in a cart. Quantity is always
// positive; a line that would drop to zero is removed instead.
type CartLine struct {
	ProductID ProductRef `json:"productId"`
	Quantity  int        `json:"quantity"`
}

// AddToCart merges quantity into the line for productID, appending a new
// line when the product is not yet in the cart.
func (u *User) AddToCart(productID ProductRef, quantity int) error {
	if productID == "" {
		return shared.NewValidationError("Product ID cannot be empty")
	}
	if quantity <= 0 {
		return shared.NewValidationError("Quantity must be greater than zero")
	}

	if i := u.cartIndex(productID); i >= 0 {
		u.Cart[i].Quantity += quantity
	} else {
		u.Cart = append(u.Cart, CartLine{ProductID: productID, Quantity: quantity})
	}
	u.touch()
	return nil
}

// RemoveFromCart removes quantity from the line for productID.
// A nil or non-positive quantity removes the whole line, as does a quantity
// that reaches or exceeds what is in the cart.
func (u *User) RemoveFromCart(productID ProductRef, quantity *int) error {
	i := u.cartIndex(productID)
	if i < 0 {
		return shared.NewNotFoundError("Product in cart")
	}

	if quantity == nil || *quantity <= 0 || u.Cart[i].Quantity-*quantity <= 0 {
		u.Cart = append(u.Cart[:i], u.Cart[i+1:]...)
	} else {
		u.Cart[i].Quantity -= *quantity
	}
	u.touch()
	return nil
}

// ClearCart empties the cart
func (u *User) ClearCart() {
	u.Cart = make([]CartLine, 0)
	u.touch()
}

// CartQuantity returns the quantity of productID in the cart, or zero
func (u *User) CartQuantity(productID ProductRef) int {
	if i := u.cartIndex(productID); i >= 0 {
		return u.Cart[i].Quantity
	}
	return 0
}

// CartProductIDs returns the products in cart order
func (u *User) CartProductIDs() []ProductRef {
	ids := make([]ProductRef, len(u.Cart))
	for i, line := range u.Cart {
		ids[i] = line.ProductID
	}
	return ids
}

func (u *User) cartIndex(productID ProductRef) int {
	for i, line := range u.Cart {
		if line.ProductID == productID {
			return i
		}
	}
	return -1
}
