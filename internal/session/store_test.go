package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return &Store{R: client, TTL: time.Hour}, mr
}

func TestStoreCreateAndGet(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, "op-1", "CHF")
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	loaded, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "op-1", loaded.OperatorID)
	assert.Equal(t, "CHF", loaded.DisplayCurrency)
}

func TestStoreGetMissing(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreSaveRefreshesTTL(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, "op-1", "EUR")
	require.NoError(t, err)

	mr.FastForward(30 * time.Minute)
	_, err = store.Update(ctx, created.ID, func(s *State) error {
		s.AddItem("beer", 1)
		return nil
	})
	require.NoError(t, err)

	// The write slides the expiry: half the original TTL later the session
	// is still there.
	mr.FastForward(45 * time.Minute)
	_, err = store.Get(ctx, created.ID)
	require.NoError(t, err)
}

func TestStoreSessionExpires(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, "op-1", "EUR")
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)
	_, err = store.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreUpdateRoundTripsMutation(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, "op-1", "EUR")
	require.NoError(t, err)

	updated, err := store.Update(ctx, created.ID, func(s *State) error {
		s.AddItem("beer", 3)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, updated.Items, 1)

	loaded, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Items[0].Qty)
}

func TestStoreUpdateErrorLeavesStateUntouched(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, "op-1", "EUR")
	require.NoError(t, err)
	_, err = store.Update(ctx, created.ID, func(s *State) error {
		s.AddItem("beer", 1)
		return ErrInvalidOverride
	})
	require.ErrorIs(t, err, ErrInvalidOverride)

	loaded, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Empty(t, loaded.Items)
}

func TestStoreDelete(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, "op-1", "EUR")
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, created.ID))

	_, err = store.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
