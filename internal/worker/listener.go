package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/dental-api/internal/store"
	"github.com/jwalitptl/dental-api/pkg/metrics"
)

type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// Event is a change as received from the broker.
type Event struct {
	Type    string       `json:"type"`
	Payload store.Change `json:"payload"`
}

// ChangeListener consumes change events published by the API and hands
// each one to a callback.
type ChangeListener struct {
	broker  Subscriber
	channel string
	handle  func(Event)
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

func NewChangeListener(broker Subscriber, channel string, handle func(Event), logger zerolog.Logger, m *metrics.Metrics) *ChangeListener {
	if m == nil {
		m = metrics.NewNop()
	}
	if handle == nil {
		handle = func(Event) {}
	}
	return &ChangeListener{
		broker:  broker,
		channel: channel,
		handle:  handle,
		logger:  logger.With().Str("worker", "listener").Str("channel", channel).Logger(),
		metrics: m,
	}
}

// Run blocks until ctx is done or the subscription ends.
func (l *ChangeListener) Run(ctx context.Context) error {
	messages, err := l.broker.Subscribe(ctx, l.channel)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	l.logger.Info().Msg("listening for changes")

	for {
		select {
		case <-ctx.Done():
			return nil
		case payload, ok := <-messages:
			if !ok {
				return nil
			}
			var ev Event
			if err := json.Unmarshal(payload, &ev); err != nil {
				l.metrics.EventsConsumed.WithLabelValues("unknown", "error").Inc()
				l.logger.Warn().Err(err).Msg("dropping malformed event")
				continue
			}
			label := ev.Type
			if !store.KnownChangeType(label) {
				label = "unknown"
			}
			l.metrics.EventsConsumed.WithLabelValues(label, "success").Inc()
			l.logger.Debug().
				Str("type", ev.Type).
				Int64("id", ev.Payload.ID).
				Time("at", ev.Payload.At).
				Msg("change received")
			l.handle(ev)
		}
	}
}
