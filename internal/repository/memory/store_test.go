package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/dental-api/internal/repository"
)

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	_, err := s.Load(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	payload := []byte(`[{"id":1}]`)
	require.NoError(t, s.Save(ctx, repository.KeyPatients, payload))
	payload[0] = 'x'

	got, err := s.Load(ctx, repository.KeyPatients)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1}]`, string(got))

	require.NoError(t, s.Remove(ctx, repository.KeyPatients))
	_, err = s.Load(ctx, repository.KeyPatients)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, s.Remove(ctx, repository.KeyPatients))
}
