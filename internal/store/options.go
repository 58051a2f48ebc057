package store

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/dental-api/internal/model"
	"github.com/jwalitptl/dental-api/pkg/metrics"
)

// Directory checks credentials. It is consulted on every login.
type Directory interface {
	Verify(email, password string) (model.Session, bool)
}

type Option func(*Store)

func WithDirectory(d Directory) Option {
	return func(s *Store) { s.directory = d }
}

func WithIDs(ids IDGenerator) Option {
	return func(s *Store) { s.ids = ids }
}

// WithClock replaces time.Now for creation stamps and seeding.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithTokenIDs replaces the generator of per-login token ids.
func WithTokenIDs(next func() string) Option {
	return func(s *Store) { s.newTokenID = next }
}

// WithSeed replaces the sample data written when a collection is missing.
func WithSeed(patients func(time.Time) []model.Patient, appointments func(time.Time) []model.Appointment) Option {
	return func(s *Store) {
		s.seedPatients = patients
		s.seedAppointments = appointments
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithObserver registers fn to be called after every committed change.
func WithObserver(fn Observer) Option {
	return func(s *Store) { s.observers = append(s.observers, fn) }
}
