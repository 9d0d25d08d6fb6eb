package account

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopcart/backend/internal/domain/account"
	"github.com/shopcart/backend/internal/domain/shared"
	"github.com/shopcart/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// TokenIssuer signs access tokens for authenticated users
type TokenIssuer interface {
	IssueToken(userID uuid.UUID, email string) (*auth.Token, error)
}

// CredentialService handles sign-up and sign-in
type CredentialService struct {
	users      account.UserRepository
	tokens     TokenIssuer
	bcryptCost int
	logger     *zap.Logger
}

// NewCredentialService creates a new credential service
func NewCredentialService(
	users account.UserRepository,
	tokens TokenIssuer,
	bcryptCost int,
	logger *zap.Logger,
) *CredentialService {
	return &CredentialService{
		users:      users,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// Register creates a user and signs them in
func (s *CredentialService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	email := account.NormalizeEmail(input.Email)

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, emailTaken()
	}

	user, err := account.NewUser(email, input.Password, input.Name, input.Avatar, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	// The unique index settles races between concurrent sign-ups
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, emailTaken()
		}
		s.logger.Error("Failed to create user", zap.Error(err))
		return nil, err
	}

	token, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User registered", zap.String("user_id", user.ID.String()))
	return &AuthResult{Token: token, User: user}, nil
}

// Login verifies credentials and issues a token
func (s *CredentialService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, account.NormalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewNotFoundError("User")
		}
		return nil, err
	}

	if !user.VerifyPassword(input.Password) {
		s.logger.Warn("Invalid password attempt", zap.String("user_id", user.ID.String()))
		return nil, shared.NewDomainError(shared.CodeInvalidCredentials, "Invalid credentials")
	}

	token, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User logged in", zap.String("user_id", user.ID.String()))
	return &AuthResult{Token: token, User: user}, nil
}

func (s *CredentialService) issue(user *account.User) (*auth.Token, error) {
	token, err := s.tokens.IssueToken(user.ID, user.Email)
	if err != nil {
		s.logger.Error("Failed to issue token", zap.Error(err))
		return nil, shared.WrapDomainError(shared.CodeInternal, "Failed to generate authentication token", err)
	}
	return token, nil
}

func emailTaken() error {
	return shared.NewDomainError(shared.CodeAlreadyExists, "Email is already registered")
}
