package middleware

import (
	"github.com/gin-gonic/gin"
)

// NoStore keeps clients and proxies from caching API responses. Every
// response depends on the caller's token.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Header("Pragma", "no-cache")
		c.Next()
	}
}
