package middleware

import (
	"net/http"
	"strings"

	"github.com/SAP-F-2025/exam-service/internal/config"
	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"
)

// InitCasdoor configures the Casdoor SDK once at startup.
func InitCasdoor(cfg *config.Config) {
	casdoorsdk.InitConfig(
		cfg.CasdoorEndpoint,
		cfg.CasdoorClientID,
		cfg.CasdoorClientSecret,
		cfg.CasdoorCertificate,
		cfg.CasdoorOrganization,
		cfg.CasdoorApplication,
	)
}

// AuthRequired validates the bearer token with Casdoor and stores the
// principal on the request context. Authorization beyond identity (role,
// ownership, group access) is the services' job.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Missing or malformed Authorization header",
			})
			return
		}

		claims, err := casdoorsdk.ParseJwtToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Invalid or expired token",
			})
			return
		}

		c.Set("user_id", claims.Id)
		c.Set("user_name", claims.Name)
		c.Next()
	}
}
