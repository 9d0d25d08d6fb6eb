package account

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopcart/backend/internal/domain/account"
	"github.com/shopcart/backend/internal/domain/catalog"
	"github.com/shopcart/backend/internal/domain/shared"
	"github.com/shopcart/backend/internal/infrastructure/auth"
	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of account.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *account.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *account.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*account.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*account.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.User), args.Error(1)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

// MockCatalog is a mock implementation of catalog.ProductCatalog
type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) Get(ctx context.Context, id catalog.ProductID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockCatalog) GetMany(ctx context.Context, ids []catalog.ProductID) (map[catalog.ProductID]*catalog.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[catalog.ProductID]*catalog.Product), args.Error(1)
}

// MockTokenIssuer is a mock implementation of TokenIssuer
type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) IssueToken(userID uuid.UUID, email string) (*auth.Token, error) {
	args := m.Called(userID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Token), args.Error(1)
}

// memoryUserRepository stores users by value and enforces the version check
// so concurrent mutations can be exercised without a database.
type memoryUserRepository struct {
	mu    sync.Mutex
	users map[uuid.UUID]account.User
}

func newMemoryUserRepository(users ...*account.User) *memoryUserRepository {
	r := &memoryUserRepository{users: make(map[uuid.UUID]account.User)}
	for _, u := range users {
		r.users[u.ID] = cloneUser(*u)
	}
	return r
}

func (r *memoryUserRepository) Create(_ context.Context, user *account.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return shared.ErrAlreadyExists
		}
	}
	r.users[user.ID] = cloneUser(*user)
	return nil
}

func (r *memoryUserRepository) Update(_ context.Context, user *account.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.users[user.ID]
	if !ok {
		return shared.NewNotFoundError("User")
	}
	if stored.Version != user.Version {
		return shared.ErrConcurrencyConflict
	}
	user.Version++
	r.users[user.ID] = cloneUser(*user)
	return nil
}

func (r *memoryUserRepository) FindByID(_ context.Context, id uuid.UUID) (*account.User, error) {
	r.mu.Lock()
	u, ok := r.users[id]
	r.mu.Unlock()
	if !ok {
		return nil, shared.NewNotFoundError("User")
	}
	c := cloneUser(u)
	// widen the read-modify-write window so writers interleave
	time.Sleep(time.Millisecond)
	return &c, nil
}

func (r *memoryUserRepository) FindByEmail(_ context.Context, email string) (*account.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			c := cloneUser(u)
			return &c, nil
		}
	}
	return nil, shared.NewNotFoundError("User")
}

func (r *memoryUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	return err == nil, nil
}

func (r *memoryUserRepository) get(id uuid.UUID) account.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneUser(r.users[id])
}

func cloneUser(u account.User) account.User {
	u.Cart = append([]account.CartLine(nil), u.Cart...)
	u.Favourites = append([]account.ProductRef(nil), u.Favourites...)
	return u
}
