package account

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopcart/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the work factor used when none is configured
const DefaultBcryptCost = 10

// bcrypt ignores input beyond 72 bytes
const maxPasswordBytes = 72

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// User is the aggregate root for a shopper. The cart and favourites are
// embedded in the user document and are only changed through its methods.
type User struct {
	shared.BaseAggregateRoot
	Email        string
	PasswordHash string
	Name         string
	Avatar       string
	Cart         []CartLine
	Favourites   []ProductRef
}

// NewUser creates a user with a hashed password.
// cost below bcrypt.MinCost falls back to DefaultBcryptCost.
func NewUser(email, password, name, avatar string, cost int) (*User, error) {
	email = NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return nil, err
	}
	if len(avatar) > 500 {
		return nil, shared.NewValidationError("Avatar URL cannot exceed 500 characters")
	}

	hash, err := hashPassword(password, cost)
	if err != nil {
		return nil, shared.WrapDomainError(shared.CodeInternal, "Failed to hash password", err)
	}

	return &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Email:             email,
		PasswordHash:      hash,
		Name:              name,
		Avatar:            strings.TrimSpace(avatar),
		Cart:              make([]CartLine, 0),
		Favourites:        make([]ProductRef, 0),
	}, nil
}

// VerifyPassword compares password against the stored hash
func (u *User) VerifyPassword(password string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// NormalizeEmail lower-cases and trims an email for storage and lookup
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (u *User) touch() {
	u.UpdatedAt = time.Now()
}

func validateEmail(email string) error {
	if email == "" {
		return shared.NewValidationError("Email cannot be empty")
	}
	if len(email) > 200 {
		return shared.NewValidationError("Email cannot exceed 200 characters")
	}
	if !emailRegex.MatchString(email) {
		return shared.NewValidationError("Invalid email format")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 6 {
		return shared.NewValidationError("Password must be at least 6 characters")
	}
	if len(password) > maxPasswordBytes {
		return shared.NewValidationError("Password cannot exceed 72 bytes")
	}
	return nil
}

func validateName(name string) error {
	if name == "" {
		return shared.NewValidationError("Name cannot be empty")
	}
	if len(name) > 100 {
		return shared.NewValidationError("Name cannot exceed 100 characters")
	}
	return nil
}

func hashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
