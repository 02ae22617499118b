package middlewares

import (
	"CityHealth/utils"
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// contextKey is a custom context key type for user details stored in the
// request context.
type contextKey string

const (
	userIDKey   contextKey = "userID"
	userRoleKey contextKey = "userRole"
)

// Clinic staff roles accepted by the token middleware.
var staffRoles = []string{"Admin", "Doctor", "Receptionist"}

// TokenAuthMiddleware validates the session token and adds the staff
// identity to the request context. Downstream handlers use it to stamp the
// clinician onto prescriptions.
func TokenAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.DefaultQuery("accessToken", "")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing access token"})
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(token, staffRoles...)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		ctx := context.WithValue(c.Request.Context(), userIDKey, claims.UserID)
		ctx = context.WithValue(ctx, userRoleKey, claims.Role)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RoleAuthMiddleware restricts access to users with the specified role.
func RoleAuthMiddleware(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, err := ExtractUserRoleFromContext(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User role not found in context"})
			c.Abort()
			return
		}

		if role != requiredRole {
			c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden: insufficient privileges"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// ExtractUserIDFromContext retrieves the staff user ID from the context.
func ExtractUserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDKey).(string)
	if !ok {
		return "", errors.New("user ID not found in context")
	}
	return userID, nil
}

// ExtractUserRoleFromContext retrieves the staff role from the context.
func ExtractUserRoleFromContext(ctx context.Context) (string, error) {
	userRole, ok := ctx.Value(userRoleKey).(string)
	if !ok {
		return "", errors.New("user role not found in context")
	}
	return userRole, nil
}
