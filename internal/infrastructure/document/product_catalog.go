package document

import (
	"context"
	"time"

	"github.com/shopcart/backend/internal/domain/catalog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ProductCatalog reads the products collection owned by the catalog service
type ProductCatalog struct {
	coll    *mongo.Collection
	timeout time.Duration
}

// NewProductCatalog creates a new ProductCatalog
func NewProductCatalog(db *mongo.Database, timeout time.Duration) *ProductCatalog {
	return &ProductCatalog{coll: db.Collection(ProductsCollection), timeout: timeout}
}

// Get returns a single product
func (c *ProductCatalog) Get(ctx context.Context, id catalog.ProductID) (*catalog.Product, error) {
	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	var doc productDocument
	if err := c.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc); err != nil {
		return nil, translateError(ctx, err, "Product")
	}
	return doc.toDomain()
}

// GetMany returns the products that exist, keyed by ID
func (c *ProductCatalog) GetMany(ctx context.Context, ids []catalog.ProductID) (map[catalog.ProductID]*catalog.Product, error) {
	result := make(map[catalog.ProductID]*catalog.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	raw := make([]string, 0, len(ids))
	for _, id := range catalog.UniqueIDs(ids) {
		raw = append(raw, id.String())
	}
	cursor, err := c.coll.Find(ctx, bson.M{"_id": bson.M{"$in": raw}})
	if err != nil {
		return nil, translateError(ctx, err, "Product")
	}
	var docs []productDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, translateError(ctx, err, "Product")
	}
	for i := range docs {
		p, err := docs[i].toDomain()
		if err != nil {
			return nil, err
		}
		result[p.ID] = p
	}
	return result, nil
}

// Upsert inserts or replaces products. It seeds development databases.
func (c *ProductCatalog) Upsert(ctx context.Context, products ...*catalog.Product) error {
	if len(products) == 0 {
		return nil
	}
	models := make([]mongo.WriteModel, 0, len(products))
	for _, p := range products {
		doc, err := newProductDocument(p)
		if err != nil {
			return err
		}
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": doc.ID}).
			SetReplacement(doc).
			SetUpsert(true))
	}

	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()
	_, err := c.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	return translateError(ctx, err, "Product")
}

// Ensure ProductCatalog implements catalog.ProductCatalog
var _ catalog.ProductCatalog = (*ProductCatalog)(nil)
