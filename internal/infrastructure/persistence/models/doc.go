// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Structure:
// - base.go: columns shared by aggregate tables (AggregateModel)
// - identity.go: users with their embedded cart and favourites
// - trade.go: orders with their line snapshot
// - catalog.go: the product read model
// - outbox.go: outbox pattern model for event delivery
// - json.go: JSON column types shared by the models above
package models
