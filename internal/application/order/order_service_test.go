package order

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopcart/backend/internal/application/retry"
	"github.com/shopcart/backend/internal/domain/account"
	"github.com/shopcart/backend/internal/domain/catalog"
	"github.com/shopcart/backend/internal/domain/order"
	"github.com/shopcart/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// memoryStore is a single-lock store whose transactions snapshot state and
// restore it when fn fails.
type memoryStore struct {
	mu     sync.Mutex
	users  map[uuid.UUID]account.User
	orders []*order.Order
	events []shared.DomainEvent

	// orders created by the running transaction, dropped on rollback
	created []*order.Order

	beforeTx       func()
	failOutbox     error
	conflictsLeft  int
	createHook     func()
	transactionRun int
}

func newMemoryStore(users ...*account.User) *memoryStore {
	s := &memoryStore{users: make(map[uuid.UUID]account.User)}
	for _, u := range users {
		s.users[u.ID] = cloneUser(*u)
	}
	return s
}

func (s *memoryStore) Execute(ctx context.Context, fn func(ctx context.Context, repos TransactionalRepositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactionRun++
	if s.beforeTx != nil {
		s.beforeTx()
		s.beforeTx = nil
	}

	users := make(map[uuid.UUID]account.User, len(s.users))
	for k, v := range s.users {
		users[k] = cloneUser(v)
	}
	events := append([]shared.DomainEvent(nil), s.events...)
	s.created = nil

	if err := fn(ctx, memoryRepos{s}); err != nil {
		s.users, s.events = users, events
		kept := s.orders[:0]
		for _, o := range s.orders {
			if !containsOrder(s.created, o) {
				kept = append(kept, o)
			}
		}
		s.orders = kept
		return err
	}
	return nil
}

type memoryRepos struct{ s *memoryStore }

func (r memoryRepos) UserRepo() account.UserRepository { return memoryUsers{r.s} }
func (r memoryRepos) OrderRepo() order.OrderRepository { return memoryOrders{r.s} }
func (r memoryRepos) Outbox() shared.OutboxEventSaver  { return memoryOutbox{r.s} }

type memoryUsers struct{ s *memoryStore }

func (m memoryUsers) Create(_ context.Context, u *account.User) error {
	m.s.users[u.ID] = cloneUser(*u)
	return nil
}

func (m memoryUsers) Update(_ context.Context, u *account.User) error {
	if m.s.conflictsLeft > 0 {
		m.s.conflictsLeft--
		return shared.ErrConcurrencyConflict
	}
	stored, ok := m.s.users[u.ID]
	if !ok {
		return shared.NewNotFoundError("User")
	}
	if stored.Version != u.Version {
		return shared.ErrConcurrencyConflict
	}
	u.Version++
	m.s.users[u.ID] = cloneUser(*u)
	return nil
}

func (m memoryUsers) FindByID(_ context.Context, id uuid.UUID) (*account.User, error) {
	u, ok := m.s.users[id]
	if !ok {
		return nil, shared.NewNotFoundError("User")
	}
	c := cloneUser(u)
	return &c, nil
}

func (m memoryUsers) FindByEmail(context.Context, string) (*account.User, error) {
	return nil, shared.ErrNotFound
}

func (m memoryUsers) ExistsByEmail(context.Context, string) (bool, error) { return false, nil }

type memoryOrders struct{ s *memoryStore }

func (m memoryOrders) Create(_ context.Context, o *order.Order) error {
	if m.s.createHook != nil {
		m.s.createHook()
	}
	for _, existing := range m.s.orders {
		if o.IdempotencyKey != "" && existing.UserID == o.UserID && existing.IdempotencyKey == o.IdempotencyKey {
			return shared.ErrAlreadyExists
		}
	}
	m.s.orders = append(m.s.orders, o)
	m.s.created = append(m.s.created, o)
	return nil
}

func containsOrder(orders []*order.Order, o *order.Order) bool {
	for _, c := range orders {
		if c == o {
			return true
		}
	}
	return false
}

func (m memoryOrders) FindByUser(_ context.Context, userID uuid.UUID) ([]*order.Order, error) {
	var out []*order.Order
	for _, o := range m.s.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m memoryOrders) FindByIdempotencyKey(_ context.Context, userID uuid.UUID, key string) (*order.Order, error) {
	for _, o := range m.s.orders {
		if o.UserID == userID && o.IdempotencyKey == key {
			return o, nil
		}
	}
	return nil, shared.NewNotFoundError("Order")
}

type memoryOutbox struct{ s *memoryStore }

func (m memoryOutbox) SaveEvents(_ context.Context, events ...shared.DomainEvent) error {
	if m.s.failOutbox != nil {
		return m.s.failOutbox
	}
	m.s.events = append(m.s.events, events...)
	return nil
}

// lockedUsers reads users outside a transaction
type lockedUsers struct{ s *memoryStore }

func (l lockedUsers) Create(ctx context.Context, u *account.User) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return memoryUsers(l).Create(ctx, u)
}

func (l lockedUsers) Update(ctx context.Context, u *account.User) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return memoryUsers(l).Update(ctx, u)
}

func (l lockedUsers) FindByID(ctx context.Context, id uuid.UUID) (*account.User, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return memoryUsers(l).FindByID(ctx, id)
}

func (l lockedUsers) FindByEmail(ctx context.Context, email string) (*account.User, error) {
	return memoryUsers(l).FindByEmail(ctx, email)
}

func (l lockedUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return memoryUsers(l).ExistsByEmail(ctx, email)
}

// lockedOrders reads orders outside a transaction
type lockedOrders struct{ s *memoryStore }

func (l lockedOrders) Create(ctx context.Context, o *order.Order) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return memoryOrders(l).Create(ctx, o)
}

func (l lockedOrders) FindByUser(ctx context.Context, userID uuid.UUID) ([]*order.Order, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return memoryOrders(l).FindByUser(ctx, userID)
}

func (l lockedOrders) FindByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*order.Order, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return memoryOrders(l).FindByIdempotencyKey(ctx, userID, key)
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

func cloneUser(u account.User) account.User {
	u.Cart = append([]account.CartLine(nil), u.Cart...)
	u.Favourites = append([]account.ProductRef(nil), u.Favourites...)
	return u
}

func newShopper(t *testing.T) *account.User {
	t.Helper()
	u, err := account.NewUser("buyer@x.com", "secret1", "Buyer", "", bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, u.AddToCart("p1", 2))
	require.NoError(t, u.AddToCart("p2", 1))
	return u
}

func testConfig(mode string) ServiceConfig {
	return ServiceConfig{
		PricingMode: mode,
		Retry:       retry.Policy{MaxRetries: 3, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond},
	}
}

func clientInput() PlaceOrderInput {
	return PlaceOrderInput{
		Products: []LineInput{
			{ProductID: "p1", Quantity: 2, Price: decimal.RequireFromString("4.50")},
			{ProductID: "p2", Quantity: 1, Price: decimal.RequireFromString("10")},
		},
		Address:     "1 Main St",
		TotalAmount: decimal.RequireFromString("19"),
	}
}

type fakeRecorder struct {
	placed   []string
	replayed int
}

func (r *fakeRecorder) OrderPlaced(_ context.Context, mode string, total decimal.Decimal) {
	r.placed = append(r.placed, mode+" "+total.String())
}

func (r *fakeRecorder) OrderReplayed(context.Context) { r.replayed++ }

func newTestService(store *memoryStore, products catalog.ProductCatalog, mode string) *OrderService {
	return NewOrderService(store, lockedUsers{store}, lockedOrders{store}, products, testConfig(mode), zap.NewNop())
}

func TestOrderService_PlaceOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("creates one order and empties the cart", func(t *testing.T) {
		user := newShopper(t)
		store := newMemoryStore(user)
		svc := newTestService(store, new(MockCatalog), PricingClient)

		result, err := svc.PlaceOrder(ctx, user.ID, clientInput())

		require.NoError(t, err)
		assert.False(t, result.Replayed)
		assert.Equal(t, user.ID, result.Order.UserID)
		assert.True(t, result.Order.TotalAmount.Equal(decimal.NewFromInt(19)))
		assert.Empty(t, store.users[user.ID].Cart)
		assert.Equal(t, user.Version+1, store.users[user.ID].Version)
		require.Len(t, store.orders, 1)
		require.Len(t, store.events, 1)
		assert.Equal(t, order.EventTypeOrderPlaced, store.events[0].EventType())
		assert.Empty(t, result.Order.GetDomainEvents())
	})

	t.Run("cart pricing uses catalog prices", func(t *testing.T) {
		user := newShopper(t)
		store := newMemoryStore(user)
		products := new(MockCatalog)
		products.On("GetMany", mock.Anything, []catalog.ProductID{"p1", "p2"}).Return(map[catalog.ProductID]*catalog.Product{
			"p1": {ID: "p1", Name: "Mug", Price: decimal.RequireFromString("3.25")},
			"p2": {ID: "p2", Name: "Pen", Price: decimal.RequireFromString("1.50")},
		}, nil)
		svc := newTestService(store, products, PricingCart)

		input := clientInput()
		input.TotalAmount = decimal.NewFromInt(1)
		result, err := svc.PlaceOrder(ctx, user.ID, input)

		require.NoError(t, err)
		assert.True(t, result.Order.TotalAmount.Equal(decimal.RequireFromString("8")))
		assert.Equal(t, "Mug", result.Order.Lines[0].Name)
		assert.Empty(t, store.users[user.ID].Cart)
	})

	t.Run("cart pricing retries when the cart changes after pricing", func(t *testing.T) {
		user := newShopper(t)
		store := newMemoryStore(user)
		products := new(MockCatalog)
		products.On("GetMany", mock.Anything, []catalog.ProductID{"p1", "p2"}).Return(map[catalog.ProductID]*catalog.Product{
			"p1": {ID: "p1", Price: decimal.NewFromInt(1)},
			"p2": {ID: "p2", Price: decimal.NewFromInt(2)},
		}, nil)
		products.On("GetMany", mock.Anything, []catalog.ProductID{"p1", "p2", "p3"}).Return(map[catalog.ProductID]*catalog.Product{
			"p1": {ID: "p1", Price: decimal.NewFromInt(1)},
			"p2": {ID: "p2", Price: decimal.NewFromInt(2)},
			"p3": {ID: "p3", Price: decimal.NewFromInt(3)},
		}, nil)
		// a concurrent add lands between pricing and the transaction
		store.beforeTx = func() {
			u := store.users[user.ID]
			require.NoError(t, u.AddToCart("p3", 1))
			store.users[user.ID] = u
		}
		svc := newTestService(store, products, PricingCart)

		result, err := svc.PlaceOrder(ctx, user.ID, clientInput())

		require.NoError(t, err)
		assert.Equal(t, 2, store.transactionRun)
		assert.Len(t, result.Order.Lines, 3)
		assert.True(t, result.Order.TotalAmount.Equal(decimal.NewFromInt(7)))
	})

	t.Run("cart pricing rejects an empty cart", func(t *testing.T) {
		user, err := account.NewUser("empty@x.com", "secret1", "E", "", bcrypt.MinCost)
		require.NoError(t, err)
		store := newMemoryStore(user)
		svc := newTestService(store, new(MockCatalog), PricingCart)

		_, err = svc.PlaceOrder(ctx, user.ID, clientInput())

		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
		assert.Empty(t, store.orders)
	})

	t.Run("invalid input changes nothing", func(t *testing.T) {
		user := newShopper(t)
		store := newMemoryStore(user)
		svc := newTestService(store, new(MockCatalog), PricingClient)

		input := clientInput()
		input.Address = ""
		_, err := svc.PlaceOrder(ctx, user.ID, input)

		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
		assert.Empty(t, store.orders)
		assert.Len(t, store.users[user.ID].Cart, 2)
	})

	t.Run("unknown user is not found", func(t *testing.T) {
		store := newMemoryStore()
		svc := newTestService(store, new(MockCatalog), PricingClient)

		_, err := svc.PlaceOrder(ctx, uuid.New(), clientInput())

		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})

	t.Run("outbox failure rolls back order and cart", func(t *testing.T) {
		user := newShopper(t)
		store := newMemoryStore(user)
		store.failOutbox = shared.ErrTransient
		svc := newTestService(store, new(MockCatalog), PricingClient)

		_, err := svc.PlaceOrder(ctx, user.ID, clientInput())

		assert.True(t, errors.Is(err, shared.ErrTransient))
		assert.Empty(t, store.orders)
		assert.Len(t, store.users[user.ID].Cart, 2)
		assert.Equal(t, user.Version, store.users[user.ID].Version)
	})

	t.Run("version conflict retries the whole transaction", func(t *testing.T) {
		user := newShopper(t)
		store := newMemoryStore(user)
		store.conflictsLeft = 2
		svc := newTestService(store, new(MockCatalog), PricingClient)

		_, err := svc.PlaceOrder(ctx, user.ID, clientInput())

		require.NoError(t, err)
		assert.Equal(t, 3, store.transactionRun)
		assert.Len(t, store.orders, 1)
	})

	t.Run("exhausted conflicts are transient", func(t *testing.T) {
		user := newShopper(t)
		store := newMemoryStore(user)
		store.conflictsLeft = 100
		svc := newTestService(store, new(MockCatalog), PricingClient)

		_, err := svc.PlaceOrder(ctx, user.ID, clientInput())

		assert.True(t, errors.Is(err, shared.ErrTransient))
		assert.Empty(t, store.orders)
	})

	t.Run("same idempotency key replays the first order", func(t *testing.T) {
		user := newShopper(t)
		store := newMemoryStore(user)
		svc := newTestService(store, new(MockCatalog), PricingClient)

		input := clientInput()
		input.IdempotencyKey = "checkout-42"
		first, err := svc.PlaceOrder(ctx, user.ID, input)
		require.NoError(t, err)
		second, err := svc.PlaceOrder(ctx, user.ID, input)
		require.NoError(t, err)

		assert.False(t, first.Replayed)
		assert.True(t, second.Replayed)
		assert.Equal(t, first.Order.ID, second.Order.ID)
		assert.Len(t, store.orders, 1)
		assert.Len(t, store.events, 1)
	})

	t.Run("duplicate from a concurrent request returns the winner", func(t *testing.T) {
		user := newShopper(t)
		store := newMemoryStore(user)
		winner, err := order.NewOrder(user.ID, []order.Line{{ProductID: "p1", Quantity: 1}}, "x", decimal.Zero, "race")
		require.NoError(t, err)
		// the winner commits between our key lookup and our insert
		store.createHook = func() {
			store.createHook = nil
			store.orders = append(store.orders, winner)
		}
		svc := newTestService(store, new(MockCatalog), PricingClient)

		input := clientInput()
		input.IdempotencyKey = "race"
		result, err := svc.PlaceOrder(ctx, user.ID, input)

		require.NoError(t, err)
		assert.True(t, result.Replayed)
		assert.Equal(t, winner.ID, result.Order.ID)
	})

	t.Run("records placed and replayed orders", func(t *testing.T) {
		user := newShopper(t)
		store := newMemoryStore(user)
		rec := &fakeRecorder{}
		cfg := testConfig(PricingClient)
		cfg.Metrics = rec
		svc := NewOrderService(store, lockedUsers{store}, lockedOrders{store}, new(MockCatalog), cfg, zap.NewNop())

		input := clientInput()
		input.IdempotencyKey = "checkout-7"
		_, err := svc.PlaceOrder(ctx, user.ID, input)
		require.NoError(t, err)
		_, err = svc.PlaceOrder(ctx, user.ID, input)
		require.NoError(t, err)

		input.TotalAmount = decimal.RequireFromString("-1")
		input.IdempotencyKey = ""
		_, err = svc.PlaceOrder(ctx, user.ID, input)
		require.Error(t, err)

		assert.Equal(t, []string{"client 19"}, rec.placed)
		assert.Equal(t, 1, rec.replayed)
	})

	t.Run("rejects malformed idempotency key", func(t *testing.T) {
		svc := newTestService(newMemoryStore(), new(MockCatalog), PricingClient)

		input := clientInput()
		input.IdempotencyKey = "has space"
		_, err := svc.PlaceOrder(ctx, uuid.New(), input)

		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})
}

func TestOrderService_ListOrders(t *testing.T) {
	ctx := context.Background()
	user := newShopper(t)
	store := newMemoryStore(user)
	svc := newTestService(store, new(MockCatalog), PricingClient)

	orders, err := svc.ListOrders(ctx, user.ID)
	require.NoError(t, err)
	assert.NotNil(t, orders)
	assert.Empty(t, orders)

	first, err := svc.PlaceOrder(ctx, user.ID, clientInput())
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	second, err := svc.PlaceOrder(ctx, user.ID, clientInput())
	require.NoError(t, err)

	orders, err = svc.ListOrders(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, first.Order.ID, orders[0].ID)
	assert.Equal(t, second.Order.ID, orders[1].ID)
}
