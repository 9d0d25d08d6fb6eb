package models

import (
	"github.com/shopcart/backend/internal/domain/account"
)

// UserModel is the persistence model for the User aggregate.
// The cart and favourites live in JSON columns on the same row so that a
// single versioned UPDATE covers every change to the aggregate.
type UserModel struct {
	AggregateModel
	Email        string     `gorm:"type:varchar(200);not null;uniqueIndex:idx_users_email"`
	PasswordHash string     `gorm:"type:varchar(100);not null"`
	Name         string     `gorm:"type:varchar(100);not null"`
	Avatar       string     `gorm:"type:varchar(500);not null;default:''"`
	Cart         CartLines  `gorm:"type:jsonb;not null"`
	Favourites   ProductIDs `gorm:"type:jsonb;not null"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User
func (m *UserModel) ToDomain() *account.User {
	cart := make([]account.CartLine, len(m.Cart))
	copy(cart, m.Cart)
	favourites := make([]account.ProductRef, len(m.Favourites))
	copy(favourites, m.Favourites)

	return &account.User{
		BaseAggregateRoot: m.aggregateRoot(),
		Email:             m.Email,
		PasswordHash:      m.PasswordHash,
		Name:              m.Name,
		Avatar:            m.Avatar,
		Cart:              cart,
		Favourites:        favourites,
	}
}

// FromDomain populates the persistence model from a domain User
func (m *UserModel) FromDomain(u *account.User) {
	m.AggregateModel = aggregateModel(u.BaseAggregateRoot)
	m.Email = u.Email
	m.PasswordHash = u.PasswordHash
	m.Name = u.Name
	m.Avatar = u.Avatar
	m.Cart = CartLines(u.Cart)
	m.Favourites = ProductIDs(u.Favourites)
}

// UserModelFromDomain creates a new persistence model from a domain User
func UserModelFromDomain(u *account.User) *UserModel {
	m := &UserModel{}
	m.FromDomain(u)
	return m
}
