package middleware

import (
	"github.com/gin-gonic/gin"
)

const (
	InitDataHeader = "X-Telegram-Init-Data"
	InitDataKey    = "init_data"
)

// InitData copies the raw Telegram init-data into the context. A missing
// value is not an error: the page may be opened in a plain browser.
func InitData() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(InitDataHeader)
		if raw == "" {
			raw = c.Query(InitDataKey)
		}
		c.Set(InitDataKey, raw)
		c.Next()
	}
}

// GetInitData returns what InitData stored, or an empty string.
func GetInitData(c *gin.Context) string {
	return c.GetString(InitDataKey)
}
