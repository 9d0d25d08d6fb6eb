package account

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopcart/backend/internal/application/retry"
	"github.com/shopcart/backend/internal/domain/account"
	"github.com/shopcart/backend/internal/domain/catalog"
	"github.com/shopcart/backend/internal/infrastructure/telemetry"
)

// userMutator runs read-modify-write cycles against the versioned user
// record, retrying the whole cycle when another writer wins the race.
type userMutator struct {
	users  account.UserRepository
	policy retry.Policy
}

// mutate loads the user, applies fn and writes it back if fn reports a
// change. fn is re-run on a fresh copy after every conflict. The cycle is
// traced as a span named {service}.{method}.
func (m userMutator) mutate(
	ctx context.Context,
	service, method string,
	userID uuid.UUID,
	productID catalog.ProductID,
	fn func(*account.User) (bool, error),
) (*account.User, error) {
	ctx, span := telemetry.StartSpan(ctx, service, method,
		telemetry.AttrUserID.String(userID.String()),
		telemetry.AttrProductID.String(productID.String()))
	var result *account.User
	err := m.policy.OnConflict(ctx, func() error {
		user, err := m.users.FindByID(ctx, userID)
		if err != nil {
			return err
		}
		changed, err := fn(user)
		if err != nil {
			return err
		}
		if changed {
			if err := m.users.Update(ctx, user); err != nil {
				return err
			}
		}
		result = user
		return nil
	})
	telemetry.End(span, err)
	if err != nil {
		return nil, err
	}
	return result, nil
}
