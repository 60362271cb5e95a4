package requestid

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	headerKey  = "X-Request-ID"
	contextKey = "request_id"
)

// Middleware propagates the caller's X-Request-ID header, minting a fresh ID
// when the header is absent. The ID lands on the Gin context and is echoed
// back on the response.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerKey)
		if id == "" {
			id = newID()
		}

		c.Set(contextKey, id)
		c.Writer.Header().Set(headerKey, id)

		c.Next()
	}
}

// Value returns the request ID stored in the Gin context, or "" outside the
// middleware chain.
func Value(c *gin.Context) string {
	if v, exists := c.Get(contextKey); exists {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

func newID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err == nil {
		return hex.EncodeToString(buf)
	}

	return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
}
