package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Vankh007/tv4u-sub002/internal/config"
	"github.com/Vankh007/tv4u-sub002/internal/security"
)

// Auth validates the bearer token minted by the identity provider and
// attaches the account identity to the request. Accounts themselves are
// external; there is no user table to consult here.
func Auth(cfg *config.AppConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := security.ParseAccessToken(tokenStr, cfg.Security.JWTAccessSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
			return
		}
		if claims.AccountID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}

		c.Set("account_id", claims.AccountID)
		c.Set("access_claims", *claims)

		c.Next()
	}
}

// AccountID returns the authenticated account attached by Auth.
func AccountID(c *gin.Context) string {
	return c.GetString("account_id")
}

// DeviceID returns the device claim from the access token, empty when the
// token carries none.
func DeviceID(c *gin.Context) string {
	claimsVal, ok := c.Get("access_claims")
	if !ok {
		return ""
	}
	claims, ok := claimsVal.(security.AccessClaims)
	if !ok {
		return ""
	}
	return claims.DeviceID
}
