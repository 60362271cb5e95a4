package cors

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// New builds a CORS middleware from the configured origin allow-list. An
// empty list allows every origin.
func New(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[strings.TrimRight(origin, "/")] = struct{}{}
	}
	allowAll := len(allowed) == 0

	return func(c *gin.Context) {
		header := c.Writer.Header()

		if origin := c.GetHeader("Origin"); origin != "" {
			_, ok := allowed[strings.TrimRight(origin, "/")]
			if ok || allowAll {
				header.Set("Access-Control-Allow-Origin", origin)
			}
		} else if allowAll {
			header.Set("Access-Control-Allow-Origin", "*")
		}

		header.Set("Vary", "Origin")
		header.Set("Access-Control-Allow-Credentials", "true")
		header.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With, X-Request-ID")
		header.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		header.Set("Access-Control-Max-Age", "600")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
