package order

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/shopcart/backend/internal/application/retry"
	"github.com/shopcart/backend/internal/domain/account"
	"github.com/shopcart/backend/internal/domain/catalog"
	"github.com/shopcart/backend/internal/domain/order"
	"github.com/shopcart/backend/internal/domain/shared"
	"github.com/shopcart/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Pricing modes
const (
	// PricingClient trusts the line snapshot and total sent by the client
	PricingClient = "client"
	// PricingCart builds the order from the stored cart and catalog prices
	PricingCart = "cart"
)

// Recorder counts placed and replayed orders
type Recorder interface {
	OrderPlaced(ctx context.Context, pricingMode string, total decimal.Decimal)
	OrderReplayed(ctx context.Context)
}

// ServiceConfig tunes order placement
type ServiceConfig struct {
	PricingMode string
	Retry       retry.Policy
	Metrics     Recorder // optional
}

// OrderService places and lists orders
type OrderService struct {
	scope   TransactionScope
	users   account.UserRepository
	orders  order.OrderRepository
	catalog catalog.ProductCatalog
	config  ServiceConfig
	logger  *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(
	scope TransactionScope,
	users account.UserRepository,
	orders order.OrderRepository,
	products catalog.ProductCatalog,
	config ServiceConfig,
	logger *zap.Logger,
) *OrderService {
	if config.PricingMode == "" {
		config.PricingMode = PricingClient
	}
	return &OrderService{
		scope:   scope,
		users:   users,
		orders:  orders,
		catalog: products,
		config:  config,
		logger:  logger,
	}
}

// PlaceOrder records an order and clears the cart in one transaction.
// The OrderPlaced event is written to the outbox in the same transaction.
// With an idempotency key, repeating the request returns the first order.
func (s *OrderService) PlaceOrder(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*PlaceOrderResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "order", "place",
		telemetry.AttrUserID.String(userID.String()),
		telemetry.AttrPricingMode.String(s.config.PricingMode))
	result, err := s.placeOrder(ctx, userID, input)
	if result != nil {
		span.SetAttributes(
			telemetry.AttrOrderID.String(result.Order.ID.String()),
			telemetry.AttrLineCount.Int(len(result.Order.Lines)),
			telemetry.AttrReplayed.Bool(result.Replayed))
	}
	telemetry.End(span, err)
	return result, err
}

func (s *OrderService) placeOrder(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*PlaceOrderResult, error) {
	key := strings.TrimSpace(input.IdempotencyKey)
	if err := order.ValidateIdempotencyKey(key); err != nil {
		return nil, err
	}

	var clientLines []order.Line
	if s.config.PricingMode == PricingClient {
		lines, err := linesFromInput(input.Products)
		if err != nil {
			return nil, err
		}
		clientLines = lines
	}

	var result *PlaceOrderResult
	err := s.config.Retry.OnConflict(ctx, func() error {
		result = nil

		// Catalog lookups stay outside the transaction
		var prices *cartPrices
		if s.config.PricingMode == PricingCart {
			p, err := s.priceCart(ctx, userID)
			if err != nil {
				return err
			}
			prices = p
		}

		return s.scope.Execute(ctx, func(ctx context.Context, repos TransactionalRepositories) error {
			user, err := repos.UserRepo().FindByID(ctx, userID)
			if err != nil {
				return err
			}

			if key != "" {
				existing, err := repos.OrderRepo().FindByIdempotencyKey(ctx, userID, key)
				if err == nil {
					result = &PlaceOrderResult{Order: existing, Replayed: true}
					return nil
				}
				if !errors.Is(err, shared.ErrNotFound) {
					return err
				}
			}

			lines, total := clientLines, input.TotalAmount
			if s.config.PricingMode == PricingCart {
				lines, err = prices.lines(user)
				if err != nil {
					return err
				}
				total = order.SumLines(lines)
			}

			o, err := order.NewOrder(user.ID, lines, input.Address, total, key)
			if err != nil {
				return err
			}
			if err := repos.OrderRepo().Create(ctx, o); err != nil {
				return err
			}

			user.ClearCart()
			if err := repos.UserRepo().Update(ctx, user); err != nil {
				return err
			}

			if err := repos.Outbox().SaveEvents(ctx, o.GetDomainEvents()...); err != nil {
				return err
			}
			o.ClearDomainEvents()

			result = &PlaceOrderResult{Order: o}
			return nil
		})
	})
	if err != nil {
		// A concurrent request with the same key committed first
		if key != "" && errors.Is(err, shared.ErrAlreadyExists) {
			existing, findErr := s.orders.FindByIdempotencyKey(ctx, userID, key)
			if findErr != nil {
				return nil, findErr
			}
			result = &PlaceOrderResult{Order: existing, Replayed: true}
		} else {
			return nil, err
		}
	}

	if result.Replayed {
		s.logger.Info("Order replayed",
			zap.String("user_id", userID.String()),
			zap.String("order_id", result.Order.ID.String()))
		if s.config.Metrics != nil {
			s.config.Metrics.OrderReplayed(ctx)
		}
	} else {
		s.logger.Info("Order placed",
			zap.String("user_id", userID.String()),
			zap.String("order_id", result.Order.ID.String()),
			zap.Int("lines", len(result.Order.Lines)),
			zap.String("total", result.Order.TotalAmount.String()))
		if s.config.Metrics != nil {
			s.config.Metrics.OrderPlaced(ctx, s.config.PricingMode, result.Order.TotalAmount)
		}
	}
	return result, nil
}

// ListOrders returns the user's orders, oldest first
func (s *OrderService) ListOrders(ctx context.Context, userID uuid.UUID) ([]*order.Order, error) {
	ctx, span := telemetry.StartSpan(ctx, "order", "list", telemetry.AttrUserID.String(userID.String()))
	orders, err := s.orders.FindByUser(ctx, userID)
	telemetry.End(span, err)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []*order.Order{}
	}
	return orders, nil
}

// cartPrices holds catalog products looked up for a cart before the
// transaction started
type cartPrices struct {
	requested map[catalog.ProductID]bool
	products  map[catalog.ProductID]*catalog.Product
}

func (s *OrderService) priceCart(ctx context.Context, userID uuid.UUID) (*cartPrices, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	prices := &cartPrices{
		requested: make(map[catalog.ProductID]bool, len(user.Cart)),
		products:  map[catalog.ProductID]*catalog.Product{},
	}
	if len(user.Cart) == 0 {
		return prices, nil
	}

	ids := user.CartProductIDs()
	for _, id := range ids {
		prices.requested[id] = true
	}
	prices.products, err = s.catalog.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	return prices, nil
}

// lines snapshots the cart as read inside the transaction. A product that
// was not priced means the cart changed in between, which is retried like
// any other conflict.
func (c *cartPrices) lines(user *account.User) ([]order.Line, error) {
	if len(user.Cart) == 0 {
		return nil, shared.NewValidationError("Cart is empty")
	}

	lines := make([]order.Line, 0, len(user.Cart))
	for _, cl := range user.Cart {
		if !c.requested[cl.ProductID] {
			return nil, shared.ErrConcurrencyConflict
		}
		p, ok := c.products[cl.ProductID]
		if !ok {
			return nil, shared.NewNotFoundError("Product " + cl.ProductID.String())
		}
		lines = append(lines, order.Line{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  cl.Quantity,
			Price:     p.Price,
		})
	}
	return lines, nil
}

func linesFromInput(input []LineInput) ([]order.Line, error) {
	lines := make([]order.Line, 0, len(input))
	for _, in := range input {
		id, err := catalog.ParseProductID(in.ProductID)
		if err != nil {
			return nil, err
		}
		lines = append(lines, order.Line{
			ProductID: id,
			Name:      strings.TrimSpace(in.Name),
			Quantity:  in.Quantity,
			Price:     in.Price,
		})
	}
	return lines, nil
}
