package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
)

// TimeoutConfig bounds how long a request may spend in handlers.
type TimeoutConfig struct {
	Duration time.Duration
	// Skip lists route patterns (as in c.FullPath) that run unbounded,
	// such as long-lived event streams.
	Skip []string
}

func DefaultTimeoutConfig() TimeoutConfig {
	return TimeoutConfig{
		Duration: 30 * time.Second,
	}
}

// Timeout puts a deadline on the request context. Storage calls made with
// that context fail with context.DeadlineExceeded, which ErrorHandler turns
// into a 503.
func Timeout(config TimeoutConfig) gin.HandlerFunc {
	skip := make(map[string]bool, len(config.Skip))
	for _, p := range config.Skip {
		skip[p] = true
	}
	return func(c *gin.Context) {
		if config.Duration <= 0 || skip[c.FullPath()] {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), config.Duration)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
