package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/dental-api/internal/repository"
)

func TestStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "dental.db")

	s, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Ping(ctx))

	_, err = s.Load(ctx, repository.KeyPatients)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, s.Save(ctx, repository.KeyPatients, []byte(`[{"id":1}]`)))
	require.NoError(t, s.Save(ctx, repository.KeyPatients, []byte(`[{"id":2}]`)))
	require.NoError(t, s.Close())

	reopened, err := NewStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Load(ctx, repository.KeyPatients)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":2}]`, string(got))

	require.NoError(t, reopened.Remove(ctx, repository.KeyPatients))
	_, err = reopened.Load(ctx, repository.KeyPatients)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
