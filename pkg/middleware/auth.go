package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/weiawesome/wes-io-social/pkg/jwt"
	"github.com/weiawesome/wes-io-social/pkg/log"
	"github.com/weiawesome/wes-io-social/pkg/response"
)

const (
	UserIDKey     = "user_id"
	ClaimsKey     = "claims"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// TokenValidator validates a session token and returns its claims.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (*jwt.Claims, error)
}

// CallerStore reports whether the user a token was issued to still exists.
type CallerStore interface {
	Exists(ctx context.Context, userID string) (bool, error)
}

var errUnknownCaller = errors.New("token owner no longer exists")

// AuthMiddleware resolves the caller from the session cookie or a bearer
// header.
type AuthMiddleware struct {
	validator  TokenValidator
	callers    CallerStore
	cookieName string
}

// NewAuthMiddleware creates a new auth middleware. When callers is nil the
// token alone identifies the caller.
func NewAuthMiddleware(validator TokenValidator, callers CallerStore, cookieName string) *AuthMiddleware {
	if cookieName == "" {
		cookieName = "token"
	}
	return &AuthMiddleware{
		validator:  validator,
		callers:    callers,
		cookieName: cookieName,
	}
}

// TokenFromRequest returns the session token carried by the request, the
// cookie taking precedence over the Authorization header.
func (m *AuthMiddleware) TokenFromRequest(c *gin.Context) string {
	if token, err := c.Cookie(m.cookieName); err == nil && token != "" {
		return token
	}
	if authHeader := c.GetHeader(AuthHeaderKey); strings.HasPrefix(authHeader, BearerPrefix) {
		return strings.TrimPrefix(authHeader, BearerPrefix)
	}
	return ""
}

// RequireAuth aborts with 401 unless the request carries a valid token.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := m.TokenFromRequest(c)
		if token == "" {
			abort(c, "Please login first")
			return
		}

		claims, err := m.resolve(c.Request.Context(), token)
		if err != nil {
			l := log.Ctx(c.Request.Context())
			switch {
			case errors.Is(err, jwt.ErrExpiredToken):
				abort(c, "Session expired, please login again")
			case errors.Is(err, jwt.ErrRevokedToken), errors.Is(err, jwt.ErrInvalidToken), errors.Is(err, errUnknownCaller):
				abort(c, "Please login first")
			default:
				l.Error().Err(err).Msg("token validation failed")
				c.Abort()
				response.InternalError(c, "failed to validate session")
			}
			return
		}

		m.setCaller(c, claims)
		c.Next()
	}
}

// OptionalAuth resolves the caller when a valid token is present and lets
// the request through either way.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := m.TokenFromRequest(c); token != "" {
			if claims, err := m.resolve(c.Request.Context(), token); err == nil {
				m.setCaller(c, claims)
			}
		}
		c.Next()
	}
}

// resolve validates token and checks that its user is still stored.
func (m *AuthMiddleware) resolve(ctx context.Context, token string) (*jwt.Claims, error) {
	claims, err := m.validator.Validate(ctx, token)
	if err != nil {
		return nil, err
	}
	if m.callers == nil {
		return claims, nil
	}
	ok, err := m.callers.Exists(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("resolve caller: %w", err)
	}
	if !ok {
		return nil, errUnknownCaller
	}
	return claims, nil
}

func (m *AuthMiddleware) setCaller(c *gin.Context, claims *jwt.Claims) {
	c.Set(UserIDKey, claims.UserID)
	c.Set(ClaimsKey, claims)
	c.Request = c.Request.WithContext(log.WithStr(c.Request.Context(), log.FieldUserID, claims.UserID))
}

func abort(c *gin.Context, message string) {
	c.Abort()
	response.Error(c, http.StatusUnauthorized, message)
}

// GetUserID extracts the caller's user ID from the Gin context.
func GetUserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

// GetClaims extracts the caller's token claims from the Gin context.
func GetClaims(c *gin.Context) *jwt.Claims {
	if v, ok := c.Get(ClaimsKey); ok {
		if claims, ok := v.(*jwt.Claims); ok {
			return claims
		}
	}
	return nil
}
