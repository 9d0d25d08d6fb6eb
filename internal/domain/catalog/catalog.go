package catalog

import "context"

// ProductCatalog resolves product references to product details.
// Implementations return shared.ErrNotFound from Get when the product does
// not exist; GetMany silently omits missing products.
type ProductCatalog interface {
	// Get returns a single product
	Get(ctx context.Context, id ProductID) (*Product, error)

	// GetMany returns the products that exist, keyed by ID
	GetMany(ctx context.Context, ids []ProductID) (map[ProductID]*Product, error)
}

// UniqueIDs returns ids with duplicates removed, keeping first-seen order
func UniqueIDs(ids []ProductID) []ProductID {
	seen := make(map[ProductID]struct{}, len(ids))
	out := make([]ProductID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
