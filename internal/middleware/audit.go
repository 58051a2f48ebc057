package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/dental-api/internal/handler"
)

// AuditMiddleware records who touched which patient records.
type AuditMiddleware struct {
	logger zerolog.Logger
}

func NewAuditMiddleware(logger zerolog.Logger) *AuditMiddleware {
	return &AuditMiddleware{logger: logger.With().Str("component", "audit").Logger()}
}

// Action names what a request method does to a record.
func Action(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	}
	return "read"
}

// AuditLog writes one audit line per request once the handler has run.
func (m *AuditMiddleware) AuditLog(entityType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		event := m.logger.Info().
			Str("action", Action(c.Request.Method)).
			Str("entity_type", entityType).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Str("client_ip", c.ClientIP()).
			Str("request_id", c.GetString(ContextRequestID))
		if id := c.Param("id"); id != "" {
			event = event.Str("entity_id", id)
		}
		if s := handler.SessionFrom(c); s != nil {
			event = event.Int64("user_id", s.ID).Str("role", s.Role.String())
		}
		event.Msg("record access")
	}
}
