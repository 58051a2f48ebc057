package middleware

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// CacheConfig represents cache control configuration
type CacheConfig struct {
	MaxAge  int
	Private bool
	NoStore bool
	Vary    []string
}

// NoStoreConfig is used for anything carrying patient data.
func NoStoreConfig() CacheConfig {
	return CacheConfig{NoStore: true, Vary: []string{"Authorization"}}
}

// Cache adds cache control headers to responses. Non-GET requests are
// never cacheable.
func Cache(config CacheConfig) gin.HandlerFunc {
	value := cacheControl(config)
	vary := strings.Join(config.Vary, ", ")

	return func(c *gin.Context) {
		if c.Request.Method != "GET" {
			c.Header("Cache-Control", "no-store")
		} else {
			c.Header("Cache-Control", value)
		}
		if config.NoStore {
			c.Header("Pragma", "no-cache")
		}
		if vary != "" {
			c.Header("Vary", vary)
		}
		c.Next()
	}
}

func cacheControl(config CacheConfig) string {
	if config.NoStore {
		return "no-store"
	}
	directives := []string{"public"}
	if config.Private {
		directives[0] = "private"
	}
	directives = append(directives, "max-age="+strconv.Itoa(config.MaxAge))
	return strings.Join(directives, ", ")
}
