package account

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopcart/backend/internal/application/retry"
	"github.com/shopcart/backend/internal/domain/account"
	"github.com/shopcart/backend/internal/domain/catalog"
	"github.com/shopcart/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ServiceConfig tunes the cart and favourites services
type ServiceConfig struct {
	// VerifyProducts checks that a product exists in the catalog before
	// it is added to a cart or favourites
	VerifyProducts bool
	Retry          retry.Policy
}

// DefaultServiceConfig returns the default configuration
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		VerifyProducts: true,
		Retry:          retry.DefaultPolicy(),
	}
}

// CartService manages a user's cart
type CartService struct {
	users   account.UserRepository
	catalog catalog.ProductCatalog
	mutator userMutator
	verify  bool
	logger  *zap.Logger
}

// NewCartService creates a new cart service
func NewCartService(
	users account.UserRepository,
	products catalog.ProductCatalog,
	config ServiceConfig,
	logger *zap.Logger,
) *CartService {
	return &CartService{
		users:   users,
		catalog: products,
		mutator: userMutator{users: users, policy: config.Retry},
		verify:  config.VerifyProducts,
		logger:  logger,
	}
}

// AddToCart adds quantity of a product, merging with an existing line
func (s *CartService) AddToCart(ctx context.Context, userID uuid.UUID, input AddToCartInput) (*account.User, error) {
	productID, err := catalog.ParseProductID(input.ProductID)
	if err != nil {
		return nil, err
	}
	if input.Quantity <= 0 {
		return nil, shared.NewValidationError("Quantity must be greater than zero")
	}
	if s.verify {
		if err := ensureProduct(ctx, s.catalog, productID); err != nil {
			return nil, err
		}
	}

	user, err := s.mutator.mutate(ctx, "cart", "add", userID, productID, func(u *account.User) (bool, error) {
		return true, u.AddToCart(productID, input.Quantity)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Product added to cart",
		zap.String("user_id", userID.String()),
		zap.String("product_id", productID.String()),
		zap.Int("quantity", input.Quantity))
	return user, nil
}

// RemoveFromCart removes some or all of a product from the cart
func (s *CartService) RemoveFromCart(ctx context.Context, userID uuid.UUID, input RemoveFromCartInput) (*account.User, error) {
	productID, err := catalog.ParseProductID(input.ProductID)
	if err != nil {
		return nil, err
	}

	return s.mutator.mutate(ctx, "cart", "remove", userID, productID, func(u *account.User) (bool, error) {
		return true, u.RemoveFromCart(productID, input.Quantity)
	})
}

// ListCart returns the cart lines with their products resolved
func (s *CartService) ListCart(ctx context.Context, userID uuid.UUID) ([]CartItem, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(user.Cart) == 0 {
		return []CartItem{}, nil
	}

	products, err := s.catalog.GetMany(ctx, user.CartProductIDs())
	if err != nil {
		return nil, err
	}

	items := make([]CartItem, 0, len(user.Cart))
	for _, line := range user.Cart {
		item := CartItem{Quantity: line.Quantity}
		if p, ok := products[line.ProductID]; ok {
			item.Product = p
		} else {
			item.Product = &catalog.Product{ID: line.ProductID}
			item.Missing = true
		}
		items = append(items, item)
	}
	return items, nil
}

func ensureProduct(ctx context.Context, products catalog.ProductCatalog, id catalog.ProductID) error {
	if _, err := products.Get(ctx, id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewNotFoundError("Product")
		}
		return err
	}
	return nil
}
