package router

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oakline/storefront/internal/identity"
	"github.com/oakline/storefront/pkg/global"
	"github.com/oakline/storefront/pkg/models"
)

const userContextKey = "user"

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// currentUser returns the resolved user, or nil for guest requests.
func currentUser(c *gin.Context) *models.User {
	value, exists := c.Get(userContextKey)
	if !exists {
		return nil
	}
	user, ok := value.(*models.User)
	if !ok {
		return nil
	}
	return user
}

// Protect rejects requests without a valid bearer token and injects the
// resolved local user into the request context.
func Protect(bridge *identity.Bridge) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := bridge.Resolve(c.Request.Context(), bearerToken(c))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				global.ErrorResponse("Not authorized to access this route", nil))
			return
		}
		c.Set(userContextKey, user)
		c.Next()
	}
}

// OptionalProtect resolves the caller when a token is present but lets the
// request through as a guest otherwise. Guest checkout depends on this.
func OptionalProtect(bridge *identity.Bridge) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			if user, err := bridge.Resolve(c.Request.Context(), token); err == nil {
				c.Set(userContextKey, user)
			}
		}
		c.Next()
	}
}

// AdminOnly must run after Protect.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if user == nil || !user.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden,
				global.ErrorResponse("Access denied. Admin only.", nil))
			return
		}
		c.Next()
	}
}
