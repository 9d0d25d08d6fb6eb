package dto

import (
	"time"

	"github.com/google/uuid"
	apporder "github.com/shopcart/backend/internal/application/order"
	"github.com/shopcart/backend/internal/domain/order"
	"github.com/shopspring/decimal"
)

// IdempotencyKeyHeader carries the client's retry key on order placement
const IdempotencyKeyHeader = "Idempotency-Key"

// IdempotentReplayedHeader is set on responses that returned an earlier order
const IdempotentReplayedHeader = "Idempotent-Replayed"

// OrderLineRequest is one product line of an order request
type OrderLineRequest struct {
	ProductID string          `json:"productId" binding:"required,productref"`
	Name      string          `json:"name" binding:"omitempty,max=200"`
	Quantity  int             `json:"quantity" binding:"required,min=1,max=10000"`
	Price     decimal.Decimal `json:"price" swaggertype:"string" example:"4.50"`
}

// PlaceOrderRequest represents the request body for placing an order.
// Products and TotalAmount may be omitted when orders are priced from the cart.
type PlaceOrderRequest struct {
	Products    []OrderLineRequest `json:"products" binding:"omitempty,max=200,dive"`
	Address     string             `json:"address" binding:"required,max=500"`
	TotalAmount decimal.Decimal    `json:"totalAmount" swaggertype:"string" example:"19.00"`
}

// ToInput converts the request into the service input
func (r *PlaceOrderRequest) ToInput(idempotencyKey string) apporder.PlaceOrderInput {
	lines := make([]apporder.LineInput, len(r.Products))
	for i, p := range r.Products {
		lines[i] = apporder.LineInput{
			ProductID: p.ProductID,
			Name:      p.Name,
			Quantity:  p.Quantity,
			Price:     p.Price,
		}
	}
	return apporder.PlaceOrderInput{
		Products:       lines,
		Address:        r.Address,
		TotalAmount:    r.TotalAmount,
		IdempotencyKey: idempotencyKey,
	}
}

// OrderResponse is the public view of an order
type OrderResponse struct {
	ID          uuid.UUID           `json:"id" swaggertype:"string" format:"uuid"`
	UserID      uuid.UUID           `json:"user" swaggertype:"string" format:"uuid"`
	Products    []OrderLineResponse `json:"products"`
	TotalAmount decimal.Decimal     `json:"totalAmount" swaggertype:"string" example:"19.00"`
	Address     string              `json:"address"`
	CreatedAt   time.Time           `json:"createdAt"`
}

// OrderLineResponse is a product snapshot inside an order
type OrderLineResponse struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name,omitempty"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price" swaggertype:"string" example:"4.50"`
}

// NewOrderResponse converts an order aggregate
func NewOrderResponse(o *order.Order) *OrderResponse {
	lines := make([]OrderLineResponse, len(o.Lines))
	for i, l := range o.Lines {
		lines[i] = OrderLineResponse{
			ProductID: l.ProductID.String(),
			Name:      l.Name,
			Quantity:  l.Quantity,
			Price:     l.Price,
		}
	}
	return &OrderResponse{
		ID:          o.ID,
		UserID:      o.UserID,
		Products:    lines,
		TotalAmount: o.TotalAmount,
		Address:     o.Address,
		CreatedAt:   o.CreatedAt,
	}
}

// NewOrderResponses converts a list of orders, keeping their order
func NewOrderResponses(orders []*order.Order) []*OrderResponse {
	out := make([]*OrderResponse, len(orders))
	for i, o := range orders {
		out[i] = NewOrderResponse(o)
	}
	return out
}
