package repository

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Load when nothing is stored under the key.
	ErrNotFound = errors.New("key not found")
	// ErrCorrupt is returned when a stored payload cannot be decoded.
	ErrCorrupt = errors.New("stored payload is corrupt")
)

// Storage keys, one per collection. They match the keys the browser
// client used in local storage so exported dumps can be imported as-is.
const (
	KeySession      = "dentalUser"
	KeyPatients     = "dentalPatients"
	KeyAppointments = "dentalAppointments"
)

// Keys lists every key the store persists.
var Keys = []string{KeySession, KeyPatients, KeyAppointments}

type (
	// KeyValueRepository stores whole serialized collections by key.
	// There are no partial updates: Save replaces whatever was there.
	KeyValueRepository interface {
		Load(ctx context.Context, key string) ([]byte, error)
		Save(ctx context.Context, key string, payload []byte) error
		Remove(ctx context.Context, key string) error
		Close() error
	}

	// Pinger is implemented by backends with a remote dependency.
	Pinger interface {
		Ping(ctx context.Context) error
	}

	// Driver names the backend, for metrics and logs.
	Driver interface {
		Driver() string
	}
)

// DriverName returns repo's driver name or "unknown".
func DriverName(repo KeyValueRepository) string {
	if d, ok := repo.(Driver); ok {
		return d.Driver()
	}
	return "unknown"
}

// Ping pings repo when it supports it.
func Ping(ctx context.Context, repo KeyValueRepository) error {
	if p, ok := repo.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
