package auth

import (
	"log"
	"net/http"
	"strings"

	"event-escrow/internal/models"

	"github.com/gin-gonic/gin"
)

const walletAddressKey = "wallet_address"

// AuthMiddleware validates JWT tokens and protects routes
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")

		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header required",
			})
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>" format
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid authorization header format. Expected: Bearer <token>",
			})
			c.Abort()
			return
		}

		claims, err := ValidateToken(parts[1])
		if err != nil {
			log.Printf("[Auth] Token validation failed: %v", err)
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		c.Set(walletAddressKey, claims.WalletAddress)

		c.Next()
	}
}

// GetWalletAddress retrieves the wallet address from the context
func GetWalletAddress(c *gin.Context) (string, bool) {
	addr, exists := c.Get(walletAddressKey)
	if !exists {
		return "", false
	}

	address, ok := addr.(string)
	return address, ok
}

// GetIdentity retrieves the authenticated caller's identity
func GetIdentity(c *gin.Context) (models.Identity, bool) {
	address, ok := GetWalletAddress(c)
	if !ok || address == "" {
		return "", false
	}
	return models.Identity(address), true
}
