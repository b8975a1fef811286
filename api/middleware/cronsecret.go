package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lokario/backoffice/internal/logger"
)

const CronSecretHeader = "X-Cron-Secret"

// CronSecretMiddleware guards the scheduler endpoints. The secret comes in
// the "secret" query parameter or the X-Cron-Secret header. An empty
// configured secret is dev mode: requests pass with a warning.
func CronSecretMiddleware(log logger.Logger, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			log.Warnf("CRON_SECRET is empty, accepting unauthenticated cron call to %s", c.FullPath())
			c.Next()
			return
		}

		provided := c.Query("secret")
		if provided == "" {
			provided = strings.TrimSpace(c.GetHeader(CronSecretHeader))
		}

		if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Invalid cron secret",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
