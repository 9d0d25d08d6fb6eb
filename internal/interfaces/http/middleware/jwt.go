package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopcart/backend/internal/infrastructure/auth"
	"github.com/shopcart/backend/internal/infrastructure/logger"
	"github.com/shopcart/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// JWT context keys
const (
	JWTClaimsKey  = "jwt_claims"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// UnauthorizedMessage is the only message the gate ever returns
const UnauthorizedMessage = "unauthorized"

// TokenVerifier verifies a bearer token and returns its claims
type TokenVerifier interface {
	VerifyToken(tokenString string) (*auth.Claims, error)
}

// JWTMiddlewareConfig holds configuration for JWT middleware
type JWTMiddlewareConfig struct {
	// Verifier is required for token validation
	Verifier TokenVerifier
	// Logger for middleware logging
	Logger *zap.Logger
}

// JWTAuthMiddleware creates the access gate for authenticated routes
func JWTAuthMiddleware(verifier TokenVerifier, log *zap.Logger) gin.HandlerFunc {
	return JWTAuthMiddlewareWithConfig(JWTMiddlewareConfig{Verifier: verifier, Logger: log})
}

// JWTAuthMiddlewareWithConfig creates the access gate with custom config.
// Every failure gets the same 401 body so callers cannot tell a missing
// token from an expired or forged one; the reason is only logged.
func JWTAuthMiddlewareWithConfig(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthHeaderKey)
		if authHeader == "" {
			rejectUnauthorized(c, log, "missing authorization header", nil)
			return
		}

		if len(authHeader) < len(BearerPrefix) || !strings.EqualFold(authHeader[:len(BearerPrefix)], BearerPrefix) {
			rejectUnauthorized(c, log, "invalid authorization header format", nil)
			return
		}

		tokenString := strings.TrimSpace(authHeader[len(BearerPrefix):])
		if tokenString == "" {
			rejectUnauthorized(c, log, "missing token", nil)
			return
		}

		claims, err := cfg.Verifier.VerifyToken(tokenString)
		if err != nil {
			rejectUnauthorized(c, log, "token validation failed", err)
			return
		}
		userID := claims.UserUUID()
		if userID == uuid.Nil {
			rejectUnauthorized(c, log, "token has no subject", nil)
			return
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(logger.GinUserIDKey, userID.String())

		ctx := logger.WithUserID(c.Request.Context(), userID.String())
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func rejectUnauthorized(c *gin.Context, log *zap.Logger, reason string, err error) {
	fields := []zap.Field{
		zap.String("reason", reason),
		zap.String("path", c.Request.URL.Path),
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	log.Debug("JWT authentication failed", fields...)

	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeUnauthorized,
		UnauthorizedMessage,
		c.GetString(logger.GinRequestIDKey),
	))
}

// GetJWTClaims retrieves JWT claims from gin.Context
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if claims, exists := c.Get(JWTClaimsKey); exists {
		if jwtClaims, ok := claims.(*auth.Claims); ok {
			return jwtClaims
		}
	}
	return nil
}

// GetJWTUserID retrieves the authenticated user's ID, or uuid.Nil outside the gate
func GetJWTUserID(c *gin.Context) uuid.UUID {
	if claims := GetJWTClaims(c); claims != nil {
		return claims.UserUUID()
	}
	return uuid.Nil
}
