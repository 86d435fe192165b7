package middleware

import "github.com/gin-gonic/gin"

const cacheHeader = "X-Cache"

// SetCacheHit reports through X-Cache whether the response was served from cache.
func SetCacheHit(c *gin.Context, hit bool) {
	if hit {
		c.Header(cacheHeader, "HIT")
		return
	}
	c.Header(cacheHeader, "MISS")
}
