package middleware

import (
	"net/http"
	"strings"

	"github.com/NTEKIMJOHN/Genesis-WMS-DIY-sub000/pkg/utils"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware creates a Gin middleware for JWT authentication. Tokens are
// issued by the identity service; the engine only validates and scopes.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format. Use Bearer <token>"})
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token: " + err.Error()})
			c.Abort()
			return
		}

		// Set caller identity in the context for downstream handlers.
		c.Set("userID", claims.UserID)
		c.Set("tenantID", claims.TenantID)
		c.Set("userRole", claims.Role)

		c.Next()
	}
}

// TenantScopeMiddleware rejects requests whose :tenantId path parameter does
// not match the token's tenant claim. Operators with the "platform_admin"
// role may act across tenants.
func TenantScopeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requested := c.Param("tenantId")
		if requested == "" {
			c.Next()
			return
		}
		if c.GetString("userRole") == "platform_admin" {
			c.Next()
			return
		}
		if requested != c.GetString("tenantID") {
			c.JSON(http.StatusForbidden, gin.H{"error": "Token is not scoped to the requested tenant"})
			c.Abort()
			return
		}
		c.Next()
	}
}
