package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopcart/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:     "test-secret-key-at-least-32-chars",
		Issuer:     "test-issuer",
		Expiration: time.Hour,
	})
}

func TestNewJWTService_DefaultsExpiration(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{Secret: "s"})
	assert.Equal(t, time.Hour, svc.Expiration())
}

func TestIssueToken(t *testing.T) {
	svc := newTestJWTService()
	userID := uuid.New()

	token, err := svc.IssueToken(userID, "a@x.com")

	require.NoError(t, err)
	assert.NotEmpty(t, token.AccessToken)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.WithinDuration(t, time.Now().Add(time.Hour), token.ExpiresAt, 5*time.Second)

	claims, err := svc.VerifyToken(token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserUUID())
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, "test-issuer", claims.Issuer)
}

func TestIssueToken_RequiresSecretAndUser(t *testing.T) {
	_, err := NewJWTService(config.JWTConfig{}).IssueToken(uuid.New(), "")
	assert.ErrorIs(t, err, ErrMissingSecret)

	_, err = newTestJWTService().IssueToken(uuid.Nil, "")
	assert.ErrorIs(t, err, ErrMissingUserID)
}

func TestVerifyToken_ValidForOneHour(t *testing.T) {
	svc := newTestJWTService()
	issuedAt := time.Now()
	svc.now = func() time.Time { return issuedAt }

	token, err := svc.IssueToken(uuid.New(), "")
	require.NoError(t, err)

	t.Run("valid just before expiry", func(t *testing.T) {
		svc.now = func() time.Time { return issuedAt.Add(59 * time.Minute) }
		_, err := svc.VerifyToken(token.AccessToken)
		assert.NoError(t, err)
	})

	t.Run("expired after one hour", func(t *testing.T) {
		svc.now = func() time.Time { return issuedAt.Add(61 * time.Minute) }
		_, err := svc.VerifyToken(token.AccessToken)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})
}

func TestVerifyToken_Rejects(t *testing.T) {
	svc := newTestJWTService()
	userID := uuid.New()

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{Secret: "another-secret-key-at-least-32-ch", Issuer: "test-issuer"})
		token, err := other.IssueToken(userID, "")
		require.NoError(t, err)

		_, err = svc.VerifyToken(token.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{Secret: "test-secret-key-at-least-32-chars", Issuer: "someone-else"})
		token, err := other.IssueToken(userID, "")
		require.NoError(t, err)

		_, err = svc.VerifyToken(token.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("none algorithm", func(t *testing.T) {
		claims := &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "test-issuer",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
			UserID: userID.String(),
		}
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = svc.VerifyToken(unsigned)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing expiry", func(t *testing.T) {
		claims := &Claims{
			RegisteredClaims: jwt.RegisteredClaims{Issuer: "test-issuer"},
			UserID:           userID.String(),
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(svc.secret)
		require.NoError(t, err)

		_, err = svc.VerifyToken(signed)
		assert.Error(t, err)
	})

	t.Run("non uuid user id", func(t *testing.T) {
		claims := &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "test-issuer",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
			UserID: "not-a-uuid",
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(svc.secret)
		require.NoError(t, err)

		_, err = svc.VerifyToken(signed)
		assert.ErrorIs(t, err, ErrInvalidClaims)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.VerifyToken("not.a.jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
