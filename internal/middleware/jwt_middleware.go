package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/shelf_api/internal/utils"
)

// Context keys set by the auth middlewares.
const (
	ContextUserID = "user_id"
	ContextEmail  = "email"
	ContextShop   = "shop"
)

// JWTMiddleware authenticates shop owners by bearer token.
type JWTMiddleware struct {
	tokens      *utils.TokenIssuer
	rateLimiter *InvalidAuthRateLimiter
}

// NewJWTMiddleware creates a JWTMiddleware.
func NewJWTMiddleware(tokens *utils.TokenIssuer, rateLimiter *InvalidAuthRateLimiter) *JWTMiddleware {
	return &JWTMiddleware{tokens: tokens, rateLimiter: rateLimiter}
}

// Handle accepts "Authorization: Bearer <jwt>". Streaming endpoints may pass
// the token as ?token= because EventSource cannot set headers.
func (m *JWTMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := ""
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				m.handleAuthError(c, "UNAUTHORIZED", "Invalid authorization header")
				return
			}
			raw = parts[1]
		} else {
			raw = c.Query("token")
		}
		if raw == "" {
			m.handleAuthError(c, "UNAUTHORIZED", "Missing authorization header")
			return
		}

		claims, err := m.tokens.Validate(raw)
		if err != nil {
			m.handleAuthError(c, "INVALID_TOKEN", "Invalid or expired token")
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextEmail, claims.Email)
		c.Next()
	}
}

func (m *JWTMiddleware) handleAuthError(c *gin.Context, code, message string) {
	// Apply rate limit for invalid auth attempts
	if m.rateLimiter != nil && !m.rateLimiter.Allow(c.ClientIP()) {
		utils.Error(c, 429, "TOO_MANY_REQUESTS", "Too many invalid authentication attempts")
		c.Abort()
		return
	}

	utils.Error(c, 401, code, message)
	c.Abort()
}

// GetUserID returns the authenticated user id from context.
func GetUserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}
