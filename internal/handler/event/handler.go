package event

import (
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/dental-api/internal/handler"
	"github.com/jwalitptl/dental-api/internal/store"
)

// Source is where change notifications come from.
type Source interface {
	Subscribe(buffer int) (<-chan store.Change, func())
}

type Handler struct {
	source    Source
	heartbeat time.Duration
	done      chan struct{}
	closeOnce sync.Once
}

func NewHandler(source Source, heartbeat time.Duration) *Handler {
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}
	return &Handler{source: source, heartbeat: heartbeat, done: make(chan struct{})}
}

// Shutdown ends every open stream and rejects new ones.
func (h *Handler) Shutdown() {
	h.closeOnce.Do(func() { close(h.done) })
}

// Stream sends every committed store change as a server-sent event until
// the client goes away or Shutdown is called.
func (h *Handler) Stream(c *gin.Context) {
	select {
	case <-h.done:
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, handler.NewErrorResponse("server is shutting down"))
		return
	default:
	}

	changes, cancel := h.source.Subscribe(32)
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	var userID int64
	if session := handler.SessionFrom(c); session != nil {
		userID = session.ID
	}
	log.Debug().Int64("user_id", userID).Msg("event stream opened")

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-h.done:
			return false
		case ch, ok := <-changes:
			if !ok {
				return false
			}
			c.SSEvent(string(ch.Collection), ch)
			return true
		case <-ticker.C:
			c.SSEvent("ping", time.Now().UTC().Unix())
			return true
		}
	})
	log.Debug().Int64("user_id", userID).Msg("event stream closed")
}
