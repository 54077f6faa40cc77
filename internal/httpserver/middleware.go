package httpserver

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
)

const (
	authHeader        = "auth-token"
	idempotencyHeader = "Idempotency-Key"
	userCtxKey        = "storefront.user"
)

// Authenticator resolves a bearer credential to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

// authMiddleware rejects the request with 401 unless it carries a valid
// credential in the auth-token header or as an Authorization bearer token.
func authMiddleware(auth Authenticator, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := credentialFrom(c.Request)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Access denied. No token provided."})
			return
		}
		user, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidToken) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
				return
			}
			logger.Printf("httpserver: authenticate err=%v", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.Set(userCtxKey, user)
		c.Next()
	}
}

func credentialFrom(r *http.Request) string {
	if token := strings.TrimSpace(r.Header.Get(authHeader)); token != "" {
		return token
	}
	authz := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(authz) > 7 && strings.EqualFold(authz[:7], "bearer ") {
		return strings.TrimSpace(authz[7:])
	}
	return ""
}

// currentUser returns the user stored by authMiddleware.
func currentUser(c *gin.Context) *domain.User {
	v, ok := c.Get(userCtxKey)
	if !ok {
		return nil
	}
	u, _ := v.(*domain.User)
	return u
}
