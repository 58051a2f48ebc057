package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Snapshots encodes collections as JSON on top of a KeyValueRepository.
type Snapshots struct {
	repo   KeyValueRepository
	prefix string
}

func NewSnapshots(repo KeyValueRepository, prefix string) *Snapshots {
	return &Snapshots{repo: repo, prefix: prefix}
}

func (s *Snapshots) key(key string) string {
	return s.prefix + key
}

// Load decodes the value stored under key into dst. It reports false when
// nothing is stored, and wraps ErrCorrupt when the payload does not decode.
func (s *Snapshots) Load(ctx context.Context, key string, dst interface{}) (bool, error) {
	payload, err := s.repo.Load(ctx, s.key(key))
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load %s: %w", key, err)
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
	}
	return true, nil
}

// Save replaces the value stored under key.
func (s *Snapshots) Save(ctx context.Context, key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := s.repo.Save(ctx, s.key(key), payload); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// Remove deletes key. Removing an absent key is not an error.
func (s *Snapshots) Remove(ctx context.Context, key string) error {
	if err := s.repo.Remove(ctx, s.key(key)); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

func (s *Snapshots) Ping(ctx context.Context) error {
	return Ping(ctx, s.repo)
}

func (s *Snapshots) Driver() string {
	return DriverName(s.repo)
}
