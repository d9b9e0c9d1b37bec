package middleware

import (
	"net/http"
	"strings"

	"ahub-backend/utils"

	"github.com/gin-gonic/gin"
)

func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		token := parts[1]
		claims, err := utils.ValidateToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set("member_id", claims.MemberID)
		c.Set("member_role", claims.Role)
		if claims.KyoskID != nil {
			c.Set("kyosk_id", *claims.KyoskID)
		}
		c.Next()
	}
}

func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("member_role")
		if !exists || role != "admin" {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// KyoskMiddleware requires a kiosk terminal account: role "kyosk" with a
// kyosk_id bound in the token.
func KyoskMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("member_role")
		if !exists || role != "kyosk" {
			c.JSON(http.StatusForbidden, gin.H{"error": "Kiosk access required"})
			c.Abort()
			return
		}

		if _, exists := c.Get("kyosk_id"); !exists {
			c.JSON(http.StatusForbidden, gin.H{"error": "No kiosk associated with this account"})
			c.Abort()
			return
		}

		c.Next()
	}
}
