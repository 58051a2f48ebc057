package memory

import (
	"context"

	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/dental-api/internal/repository"
)

// Store keeps payloads in process memory. Nothing survives a restart.
type Store struct {
	cache *cache.Cache
}

func NewStore() *Store {
	return &Store{cache: cache.New(cache.NoExpiration, 0)}
}

func (s *Store) Driver() string { return "memory" }

func (s *Store) Load(_ context.Context, key string) ([]byte, error) {
	v, ok := s.cache.Get(key)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clone(v.([]byte)), nil
}

func (s *Store) Save(_ context.Context, key string, payload []byte) error {
	s.cache.Set(key, clone(payload), cache.NoExpiration)
	return nil
}

func (s *Store) Remove(_ context.Context, key string) error {
	s.cache.Delete(key)
	return nil
}

func (s *Store) Close() error {
	s.cache.Flush()
	return nil
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
