package store

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/dental-api/internal/model"
	"github.com/jwalitptl/dental-api/pkg/messaging"
	"github.com/jwalitptl/dental-api/pkg/metrics"
)

type ChangeKind string

const (
	ChangeCreated  ChangeKind = "created"
	ChangeUpdated  ChangeKind = "updated"
	ChangeDeleted  ChangeKind = "deleted"
	ChangeReplaced ChangeKind = "replaced"
)

// Change describes one committed mutation. ID is zero for whole-collection
// changes such as login, logout and import.
type Change struct {
	Kind       ChangeKind       `json:"kind"`
	Collection model.Collection `json:"collection"`
	ID         int64            `json:"id,omitempty"`
	At         time.Time        `json:"at"`
}

// Type is the broker event name, "<collection>.<kind>".
func (c Change) Type() string {
	return string(c.Collection) + "." + string(c.Kind)
}

// KnownChangeType reports whether t names a collection and kind the store
// can emit.
func KnownChangeType(t string) bool {
	switch t {
	case "session.created", "session.updated", "session.deleted", "session.replaced",
		"patients.created", "patients.updated", "patients.deleted", "patients.replaced",
		"appointments.created", "appointments.updated", "appointments.deleted", "appointments.replaced":
		return true
	}
	return false
}

// Observer is called synchronously, outside the store lock, for each change.
type Observer func(Change)

// Subscribe returns a channel of committed changes. Slow readers miss
// changes rather than block the store. Call cancel to release the channel.
func (s *Store) Subscribe(buffer int) (<-chan Change, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Change, buffer)

	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()

	cancel := func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if _, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

func (s *Store) emit(changes []Change) {
	if len(changes) == 0 {
		return
	}
	s.subMu.Lock()
	for _, c := range changes {
		for _, ch := range s.subs {
			select {
			case ch <- c:
			default:
			}
		}
	}
	s.subMu.Unlock()

	for _, c := range changes {
		for _, obs := range s.observers {
			obs(c)
		}
	}
}

// PublishTo returns an Observer that forwards changes to a broker channel.
func PublishTo(p messaging.Publisher, channel string, timeout time.Duration, logger zerolog.Logger, m *metrics.Metrics) Observer {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return func(c Change) {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		msg := messaging.Message{Type: c.Type(), Payload: c}
		if err := p.Publish(ctx, channel, msg); err != nil {
			logger.Warn().Err(err).Str("channel", channel).Str("type", msg.Type).Msg("failed to publish change")
			m.EventsPublished.WithLabelValues("error").Inc()
			return
		}
		m.EventsPublished.WithLabelValues("success").Inc()
	}
}
