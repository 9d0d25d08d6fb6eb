package account

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopcart/backend/internal/domain/account"
	"github.com/shopcart/backend/internal/domain/catalog"
	"go.uber.org/zap"
)

// FavouriteService manages a user's favourite products
type FavouriteService struct {
	users   account.UserRepository
	catalog catalog.ProductCatalog
	mutator userMutator
	verify  bool
	logger  *zap.Logger
}

// NewFavouriteService creates a new favourites service
func NewFavouriteService(
	users account.UserRepository,
	products catalog.ProductCatalog,
	config ServiceConfig,
	logger *zap.Logger,
) *FavouriteService {
	return &FavouriteService{
		users:   users,
		catalog: products,
		mutator: userMutator{users: users, policy: config.Retry},
		verify:  config.VerifyProducts,
		logger:  logger,
	}
}

// AddFavourite adds a product to the favourites. Adding a product that is
// already a favourite leaves the user untouched.
func (s *FavouriteService) AddFavourite(ctx context.Context, userID uuid.UUID, rawProductID string) (*account.User, error) {
	productID, err := catalog.ParseProductID(rawProductID)
	if err != nil {
		return nil, err
	}
	if s.verify {
		if err := ensureProduct(ctx, s.catalog, productID); err != nil {
			return nil, err
		}
	}

	return s.mutator.mutate(ctx, "favourite", "add", userID, productID, func(u *account.User) (bool, error) {
		return u.AddFavourite(productID), nil
	})
}

// RemoveFavourite removes a product from the favourites. Removing a product
// that is not a favourite leaves the user untouched.
func (s *FavouriteService) RemoveFavourite(ctx context.Context, userID uuid.UUID, rawProductID string) (*account.User, error) {
	productID, err := catalog.ParseProductID(rawProductID)
	if err != nil {
		return nil, err
	}

	return s.mutator.mutate(ctx, "favourite", "remove", userID, productID, func(u *account.User) (bool, error) {
		return u.RemoveFavourite(productID), nil
	})
}

// ListFavourites returns the favourite products that the catalog still knows
func (s *FavouriteService) ListFavourites(ctx context.Context, userID uuid.UUID) ([]*catalog.Product, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(user.Favourites) == 0 {
		return []*catalog.Product{}, nil
	}

	products, err := s.catalog.GetMany(ctx, user.Favourites)
	if err != nil {
		return nil, err
	}

	result := make([]*catalog.Product, 0, len(user.Favourites))
	for _, id := range user.Favourites {
		if p, ok := products[id]; ok {
			result = append(result, p)
		} else {
			s.logger.Debug("Skipping unresolved favourite", zap.String("product_id", id.String()))
		}
	}
	return result, nil
}
