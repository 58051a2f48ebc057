package middleware

import (
	"fmt"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/dental-api/internal/handler"
)

// VersionConfig represents version middleware configuration
type VersionConfig struct {
	// RequestHeader lets clients pin a version, e.g. "Accept-Version: 1.0".
	RequestHeader  string
	ResponseHeader string
	Current        string
	Supported      []string
}

func DefaultVersionConfig() VersionConfig {
	return VersionConfig{
		RequestHeader:  "Accept-Version",
		ResponseHeader: "X-API-Version",
		Current:        "1.0",
		Supported:      []string{"1.0"},
	}
}

var versionRegex = regexp.MustCompile(`^(\d+)\.(\d+)$`)

// Version stamps every response with the API version and rejects requests
// pinned to a version this server does not speak.
func Version(config VersionConfig) gin.HandlerFunc {
	supported := make(map[string]bool, len(config.Supported))
	for _, v := range config.Supported {
		supported[v] = true
	}

	return func(c *gin.Context) {
		c.Header(config.ResponseHeader, config.Current)

		requested := c.GetHeader(config.RequestHeader)
		if requested == "" {
			c.Next()
			return
		}
		if !versionRegex.MatchString(requested) {
			c.AbortWithStatusJSON(http.StatusBadRequest, handler.NewErrorResponse("invalid version format, use major.minor"))
			return
		}
		if !supported[requested] {
			c.AbortWithStatusJSON(http.StatusNotAcceptable, handler.NewErrorResponse(fmt.Sprintf("API version %s not supported", requested)))
			return
		}
		c.Next()
	}
}
