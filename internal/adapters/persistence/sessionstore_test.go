package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/eapolsupd/internal/core/ports"
)

func openTestSessionStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_SaveEvent_ThenListEvents(t *testing.T) {
	store := openTestSessionStore(t)
	ctx := context.Background()

	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveEvent(ctx, ports.SessionEvent{
		Timestamp: ts,
		IfName:    "wlan0",
		Endpoint:  "aa:bb:cc:dd:ee:ff",
		Kind:      "created",
		State:     "Connecting",
	}))

	events, err := store.ListEvents(ctx, "wlan0", time.Time{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", events[0].Endpoint)
	assert.Equal(t, "created", events[0].Kind)
}

func TestStore_SaveEventsBatch(t *testing.T) {
	store := openTestSessionStore(t)
	ctx := context.Background()

	events := []ports.SessionEvent{
		{IfName: "wlan0", Endpoint: "aa:bb:cc:dd:ee:01", Kind: "created"},
		{IfName: "wlan0", Endpoint: "aa:bb:cc:dd:ee:02", Kind: "created"},
	}
	require.NoError(t, store.SaveEventsBatch(ctx, events))

	got, err := store.ListEvents(ctx, "wlan0", time.Time{})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestStore_SaveEventsBatch_EmptyIsNoop(t *testing.T) {
	store := openTestSessionStore(t)
	require.NoError(t, store.SaveEventsBatch(context.Background(), nil))
}

func TestStore_ListEvents_FiltersByInterface(t *testing.T) {
	store := openTestSessionStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveEvent(ctx, ports.SessionEvent{IfName: "wlan0", Endpoint: "a"}))
	require.NoError(t, store.SaveEvent(ctx, ports.SessionEvent{IfName: "eth0", Endpoint: "b"}))

	got, err := store.ListEvents(ctx, "wlan0", time.Time{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Endpoint)
}
