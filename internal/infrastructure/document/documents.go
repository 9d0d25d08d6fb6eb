package document

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopcart/backend/internal/domain/account"
	"github.com/shopcart/backend/internal/domain/catalog"
	"github.com/shopcart/backend/internal/domain/order"
	"github.com/shopcart/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type cartLineDocument struct {
	ProductID string `bson:"product_id"`
	Quantity  int    `bson:"quantity"`
}

// userDocument embeds the cart and favourites so that one versioned
// update covers every change to the user
type userDocument struct {
	ID           string             `bson:"_id"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password_hash"`
	Name         string             `bson:"name"`
	Avatar       string             `bson:"avatar"`
	Cart         []cartLineDocument `bson:"cart"`
	Favourites   []string           `bson:"favourites"`
	Version      int                `bson:"version"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

func newUserDocument(u *account.User) *userDocument {
	cart := make([]cartLineDocument, len(u.Cart))
	for i, l := range u.Cart {
		cart[i] = cartLineDocument{ProductID: l.ProductID.String(), Quantity: l.Quantity}
	}
	favourites := make([]string, len(u.Favourites))
	for i, id := range u.Favourites {
		favourites[i] = id.String()
	}
	return &userDocument{
		ID:           u.ID.String(),
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Name:         u.Name,
		Avatar:       u.Avatar,
		Cart:         cart,
		Favourites:   favourites,
		Version:      u.Version,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (d *userDocument) toDomain() (*account.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("user document %q: %w", d.ID, err)
	}
	cart := make([]account.CartLine, len(d.Cart))
	for i, l := range d.Cart {
		cart[i] = account.CartLine{ProductID: catalog.ProductID(l.ProductID), Quantity: l.Quantity}
	}
	favourites := make([]account.ProductRef, len(d.Favourites))
	for i, f := range d.Favourites {
		favourites[i] = catalog.ProductID(f)
	}
	return &account.User{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{ID: id, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt},
			Version:    d.Version,
		},
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Name:         d.Name,
		Avatar:       d.Avatar,
		Cart:         cart,
		Favourites:   favourites,
	}, nil
}

type orderLineDocument struct {
	ProductID string               `bson:"product_id"`
	Name      string               `bson:"name,omitempty"`
	Quantity  int                  `bson:"quantity"`
	Price     primitive.Decimal128 `bson:"price"`
}

type orderDocument struct {
	ID             string               `bson:"_id"`
	UserID         string               `bson:"user_id"`
	Lines          []orderLineDocument  `bson:"lines"`
	TotalAmount    primitive.Decimal128 `bson:"total_amount"`
	Address        string               `bson:"address"`
	IdempotencyKey *string              `bson:"idempotency_key,omitempty"`
	Version        int                  `bson:"version"`
	CreatedAt      time.Time            `bson:"created_at"`
	UpdatedAt      time.Time            `bson:"updated_at"`
}

func newOrderDocument(o *order.Order) (*orderDocument, error) {
	lines := make([]orderLineDocument, len(o.Lines))
	for i, l := range o.Lines {
		price, err := toDecimal128(l.Price)
		if err != nil {
			return nil, err
		}
		lines[i] = orderLineDocument{ProductID: l.ProductID.String(), Name: l.Name, Quantity: l.Quantity, Price: price}
	}
	total, err := toDecimal128(o.TotalAmount)
	if err != nil {
		return nil, err
	}
	doc := &orderDocument{
		ID:          o.ID.String(),
		UserID:      o.UserID.String(),
		Lines:       lines,
		TotalAmount: total,
		Address:     o.Address,
		Version:     o.Version,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
	// a missing key stays out of the partial unique index
	if o.IdempotencyKey != "" {
		key := o.IdempotencyKey
		doc.IdempotencyKey = &key
	}
	return doc, nil
}

func (d *orderDocument) toDomain() (*order.Order, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("order document %q: %w", d.ID, err)
	}
	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return nil, fmt.Errorf("order document %q user: %w", d.ID, err)
	}
	lines := make([]order.Line, len(d.Lines))
	for i, l := range d.Lines {
		price, err := fromDecimal128(l.Price)
		if err != nil {
			return nil, err
		}
		lines[i] = order.Line{ProductID: catalog.ProductID(l.ProductID), Name: l.Name, Quantity: l.Quantity, Price: price}
	}
	total, err := fromDecimal128(d.TotalAmount)
	if err != nil {
		return nil, err
	}
	o := &order.Order{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{ID: id, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt},
			Version:    d.Version,
		},
		UserID:      userID,
		Lines:       lines,
		TotalAmount: total,
		Address:     d.Address,
	}
	if d.IdempotencyKey != nil {
		o.IdempotencyKey = *d.IdempotencyKey
	}
	return o, nil
}

type productDocument struct {
	ID          string               `bson:"_id"`
	Name        string               `bson:"name"`
	Description string               `bson:"description,omitempty"`
	Price       primitive.Decimal128 `bson:"price"`
	Image       string               `bson:"image,omitempty"`
	Category    string               `bson:"category,omitempty"`
	UpdatedAt   time.Time            `bson:"updated_at"`
}

func newProductDocument(p *catalog.Product) (*productDocument, error) {
	price, err := toDecimal128(p.Price)
	if err != nil {
		return nil, err
	}
	return &productDocument{
		ID:          p.ID.String(),
		Name:        p.Name,
		Description: p.Description,
		Price:       price,
		Image:       p.Image,
		Category:    p.Category,
		UpdatedAt:   time.Now(),
	}, nil
}

func (d *productDocument) toDomain() (*catalog.Product, error) {
	price, err := fromDecimal128(d.Price)
	if err != nil {
		return nil, err
	}
	return &catalog.Product{
		ID:          catalog.ProductID(d.ID),
		Name:        d.Name,
		Description: d.Description,
		Price:       price,
		Image:       d.Image,
		Category:    d.Category,
	}, nil
}

type outboxDocument struct {
	ID            string              `bson:"_id"`
	EventID       string              `bson:"event_id"`
	EventType     string              `bson:"event_type"`
	AggregateID   string              `bson:"aggregate_id"`
	AggregateType string              `bson:"aggregate_type"`
	Payload       string              `bson:"payload"`
	Status        shared.OutboxStatus `bson:"status"`
	RetryCount    int                 `bson:"retry_count"`
	MaxRetries    int                 `bson:"max_retries"`
	LastError     string              `bson:"last_error,omitempty"`
	NextRetryAt   *time.Time          `bson:"next_retry_at,omitempty"`
	ProcessedAt   *time.Time          `bson:"processed_at,omitempty"`
	CreatedAt     time.Time           `bson:"created_at"`
	UpdatedAt     time.Time           `bson:"updated_at"`
}

func newOutboxDocument(e *shared.OutboxEntry) *outboxDocument {
	return &outboxDocument{
		ID:            e.ID.String(),
		EventID:       e.EventID.String(),
		EventType:     e.EventType,
		AggregateID:   e.AggregateID.String(),
		AggregateType: e.AggregateType,
		Payload:       string(e.Payload),
		Status:        e.Status,
		RetryCount:    e.RetryCount,
		MaxRetries:    e.MaxRetries,
		LastError:     e.LastError,
		NextRetryAt:   e.NextRetryAt,
		ProcessedAt:   e.ProcessedAt,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

func (d *outboxDocument) toDomain() (*shared.OutboxEntry, error) {
	ids := make([]uuid.UUID, 3)
	for i, raw := range []string{d.ID, d.EventID, d.AggregateID} {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("outbox document %q: %w", d.ID, err)
		}
		ids[i] = id
	}
	return &shared.OutboxEntry{
		ID:            ids[0],
		EventID:       ids[1],
		EventType:     d.EventType,
		AggregateID:   ids[2],
		AggregateType: d.AggregateType,
		Payload:       []byte(d.Payload),
		Status:        d.Status,
		RetryCount:    d.RetryCount,
		MaxRetries:    d.MaxRetries,
		LastError:     d.LastError,
		NextRetryAt:   d.NextRetryAt,
		ProcessedAt:   d.ProcessedAt,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}, nil
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("decimal %s: %w", d.String(), err)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("decimal128 %s: %w", v.String(), err)
	}
	return d, nil
}
