package persistence

import (
	"context"
	"time"

	"github.com/shopcart/backend/internal/domain/catalog"
	"github.com/shopcart/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProductCatalog reads the products table owned by the catalog service
type GormProductCatalog struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewGormProductCatalog creates a new GormProductCatalog
func NewGormProductCatalog(db *gorm.DB, timeout time.Duration) *GormProductCatalog {
	return &GormProductCatalog{db: db, timeout: timeout}
}

// Get returns a single product
func (c *GormProductCatalog) Get(ctx context.Context, id catalog.ProductID) (*catalog.Product, error) {
	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	var model models.ProductModel
	if err := c.db.WithContext(ctx).First(&model, "id = ?", id.String()).Error; err != nil {
		return nil, translateError(ctx, err, "Product")
	}
	return model.ToDomain(), nil
}

// GetMany returns the products that exist, keyed by ID
func (c *GormProductCatalog) GetMany(ctx context.Context, ids []catalog.ProductID) (map[catalog.ProductID]*catalog.Product, error) {
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

	var productModels []models.ProductModel
	if err := c.db.WithContext(ctx).Where("id IN ?", raw).Find(&productModels).Error; err != nil {
		return nil, translateError(ctx, err, "Product")
	}
	for i := range productModels {
		p := productModels[i].ToDomain()
		result[p.ID] = p
	}
	return result, nil
}

// Upsert inserts or replaces products. It is used to seed development
// databases; production writes belong to the catalog service.
func (c *GormProductCatalog) Upsert(ctx context.Context, products ...*catalog.Product) error {
	if len(products) == 0 {
		return nil
	}
	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	productModels := make([]*models.ProductModel, len(products))
	for i, p := range products {
		productModels[i] = models.ProductModelFromDomain(p)
	}
	err := c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "description", "price", "image", "category", "updated_at"}),
	}).Create(productModels).Error
	return translateError(ctx, err, "Product")
}

// Ensure GormProductCatalog implements catalog.ProductCatalog
var _ catalog.ProductCatalog = (*GormProductCatalog)(nil)
