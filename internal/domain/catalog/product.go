package catalog

import (
	"strings"

	"github.com/shopcart/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MaxProductIDLength bounds product references accepted from clients
const MaxProductIDLength = 64

// ProductID is an opaque reference to a product owned by the catalog.
// Carts, favourites and orders hold products by reference only.
type ProductID string

// String returns the raw reference
func (id ProductID) String() string {
	return string(id)
}

// ParseProductID validates and normalizes a client supplied reference
func ParseProductID(raw string) (ProductID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", shared.NewValidationError("Product ID cannot be empty")
	}
	if len(raw) > MaxProductIDLength {
		return "", shared.NewValidationError("Product ID cannot exceed 64 characters")
	}
	for _, r := range raw {
		if !((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return "", shared.NewValidationError("Product ID can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return ProductID(raw), nil
}

// PriceScale is the number of decimal places prices and order amounts keep
const PriceScale = 2

// FitsPriceScale reports whether d has no digits beyond PriceScale
func FitsPriceScale(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(PriceScale))
}

// Product is the read model of a catalog product as seen by carts,
// favourites and orders. Writes to products belong to the catalog service.
type Product struct {
	ID          ProductID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image,omitempty"`
	Category    string          `json:"category,omitempty"`
}
