package credential

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/devtime/internal/db"
	"github.com/tOgg1/devtime/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, database.Migrate(context.Background()))
	return NewStore(db.NewSettingRepository(database))
}

func TestStore_Lifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, ok, err := store.Get(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Set(ctx, "  B63fJqXk2ZpL0aTw  "))
	key, ok, err := store.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "B63fJqXk2ZpL0aTw", key)

	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Clear(ctx))
	_, ok, err = store.Get(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStore_RejectsEmpty(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.ErrorIs(t, store.Set(ctx, "   "), ErrEmptyKey)
	_, ok, err := store.Get(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}

type failingBackend struct{ err error }

func (f failingBackend) Get(context.Context, string, string) (*models.Setting, error) {
	return nil, f.err
}
func (f failingBackend) Set(context.Context, string, string, string) error { return f.err }
func (f failingBackend) Delete(context.Context, string, string) error      { return f.err }

func TestStore_BackendErrors(t *testing.T) {
	boom := errors.New("disk full")
	store := NewStore(failingBackend{err: boom})
	ctx := context.Background()

	_, _, err := store.Get(ctx)
	require.ErrorIs(t, err, boom)
	require.ErrorIs(t, store.Set(ctx, "key"), boom)
	require.ErrorIs(t, store.Clear(ctx), boom)
}
