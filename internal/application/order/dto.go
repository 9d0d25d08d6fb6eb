package order

import (
	"github.com/shopcart/backend/internal/domain/order"
	"github.com/shopspring/decimal"
)

// LineInput is one product line supplied by the client
type LineInput struct {
	ProductID string
	Name      string
	Quantity  int
	Price     decimal.Decimal
}

// PlaceOrderInput contains the input for placing an order.
// Products and TotalAmount are ignored when orders are priced from the cart.
type PlaceOrderInput struct {
	Products       []LineInput
	Address        string
	TotalAmount    decimal.Decimal
	IdempotencyKey string
}

// PlaceOrderResult is the placed order. Replayed is set when an earlier
// order with the same idempotency key was returned instead.
type PlaceOrderResult struct {
	Order    *order.Order
	Replayed bool
}
