package session

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemory()

	sess, err := store.Get(1)
	require.NoError(t, err)
	assert.Nil(t, sess)

	require.NoError(t, store.Set(1, &Session{
		State: StatePhone,
		Draft: Draft{RequestType: "pickup", Address: "Москва, Ленина 10"},
	}))

	sess, err = store.Get(1)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, StatePhone, sess.State)
	assert.Equal(t, "Москва, Ленина 10", sess.Draft.Address)

	// The returned session is a copy, not a live reference.
	sess.Draft.Address = "другой адрес"
	again, err := store.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "Москва, Ленина 10", again.Draft.Address)

	require.NoError(t, store.Clear(1))
	sess, err = store.Get(1)
	require.NoError(t, err)
	assert.Nil(t, sess)

	// Clearing a missing session is a no-op.
	require.NoError(t, store.Clear(99))
}

func TestSQLiteStore(t *testing.T) {
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)

	sess, err := store.Get(5)
	require.NoError(t, err)
	assert.Nil(t, sess)

	require.NoError(t, store.Set(5, &Session{
		State: StateConfirm,
		Draft: Draft{RequestType: "self_dropoff", RentDays: 45, SeasonalItems: []string{"лыжи"}},
	}))
	// Set on an existing row overwrites it.
	require.NoError(t, store.Set(5, &Session{
		State: StateConfirm,
		Draft: Draft{RequestType: "self_dropoff", RentDays: 60, SeasonalItems: []string{"лыжи"}},
	}))

	sess, err = store.Get(5)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, StateConfirm, sess.State)
	assert.Equal(t, 60, sess.Draft.RentDays)
	assert.Equal(t, []string{"лыжи"}, sess.Draft.SeasonalItems)

	require.NoError(t, store.Clear(5))
	sess, err = store.Get(5)
	require.NoError(t, err)
	assert.Nil(t, sess)
}
