package order

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopcart/backend/internal/domain/catalog"
	"github.com/shopcart/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Limits on order input
const (
	MaxAddressLength        = 500
	MaxIdempotencyKeyLength = 128
	MaxLines                = 200
)

// Line is a product, quantity and price snapshot taken when the order is placed
type Line struct {
	ProductID catalog.ProductID `json:"productId"`
	Name      string            `json:"name,omitempty"`
	Quantity  int               `json:"quantity"`
	Price     decimal.Decimal   `json:"price"`
}

// Subtotal returns Price * Quantity
func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Order is an immutable purchase record. Once constructed there is no
// method that changes it.
type Order struct {
	shared.BaseAggregateRoot
	UserID         uuid.UUID
	Lines          []Line
	TotalAmount    decimal.Decimal
	Address        string
	IdempotencyKey string
}

// NewOrder validates the snapshot and creates an order owned by userID.
// An OrderPlacedEvent is recorded on the aggregate.
func NewOrder(userID uuid.UUID, lines []Line, address string, total decimal.Decimal, idempotencyKey string) (*Order, error) {
	if userID == uuid.Nil {
		return nil, shared.NewValidationError("User ID cannot be empty")
	}
	if err := validateLines(lines); err != nil {
		return nil, err
	}
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, shared.NewValidationError("Address cannot be empty")
	}
	if len(address) > MaxAddressLength {
		return nil, shared.NewValidationError("Address cannot exceed 500 characters")
	}
	if total.IsNegative() {
		return nil, shared.NewValidationError("Total amount cannot be negative")
	}
	if !catalog.FitsPriceScale(total) {
		return nil, shared.NewValidationError("Total amount cannot have more than 2 decimal places")
	}
	if err := ValidateIdempotencyKey(idempotencyKey); err != nil {
		return nil, err
	}

	snapshot := make([]Line, len(lines))
	copy(snapshot, lines)

	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		UserID:            userID,
		Lines:             snapshot,
		TotalAmount:       total,
		Address:           address,
		IdempotencyKey:    idempotencyKey,
	}
	o.AddDomainEvent(NewOrderPlacedEvent(o))
	return o, nil
}

// LinesTotal returns the sum of line subtotals
func (o *Order) LinesTotal() decimal.Decimal {
	return SumLines(o.Lines)
}

// PlacedAt returns the creation time
func (o *Order) PlacedAt() time.Time {
	return o.CreatedAt
}

// SumLines returns the sum of line subtotals
func SumLines(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// ValidateIdempotencyKey checks an optional client supplied key
func ValidateIdempotencyKey(key string) error {
	if len(key) > MaxIdempotencyKeyLength {
		return shared.NewValidationError("Idempotency key cannot exceed 128 characters")
	}
	for _, r := range key {
		if r < 0x21 || r > 0x7e {
			return shared.NewValidationError("Idempotency key must be printable ASCII")
		}
	}
	return nil
}

func validateLines(lines []Line) error {
	if len(lines) == 0 {
		return shared.NewValidationError("Order must contain at least one product")
	}
	if len(lines) > MaxLines {
		return shared.NewValidationError("Order cannot contain more than 200 lines")
	}
	for _, l := range lines {
		if l.ProductID == "" {
			return shared.NewValidationError("Order line product ID cannot be empty")
		}
		if l.Quantity <= 0 {
			return shared.NewValidationError("Order line quantity must be greater than zero")
		}
		if l.Price.IsNegative() {
			return shared.NewValidationError("Order line price cannot be negative")
		}
		if !catalog.FitsPriceScale(l.Price) {
			return shared.NewValidationError("Order line price cannot have more than 2 decimal places")
		}
	}
	return nil
}
