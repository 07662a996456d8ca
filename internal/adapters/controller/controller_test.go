package controller

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/eapolsupd/internal/core/domain"
)

func TestClient_Attach_ReturnsRunnableConfiguration(t *testing.T) {
	c := New(nil, nil)

	dict, err := c.Attach(context.Background(), "wlan0", func(bool) {})
	require.NoError(t, err)

	assert.Equal(t, domain.ControlCommandRun, dict["command"])
	assert.NotNil(t, dict["Configuration"])
}

func TestClient_NotifyServerDied_InvokesCallback(t *testing.T) {
	c := New(nil, nil)

	var died bool
	_, err := c.Attach(context.Background(), "wlan0", func(serverDied bool) {
		died = serverDied
	})
	require.NoError(t, err)

	c.NotifyServerDied()

	assert.True(t, died)
}

func TestClient_Detach_ClearsNotifier(t *testing.T) {
	c := New(nil, nil)

	called := false
	_, err := c.Attach(context.Background(), "wlan0", func(bool) { called = true })
	require.NoError(t, err)

	require.NoError(t, c.Detach(context.Background()))
	c.NotifyServerDied()

	assert.False(t, called)
}

func TestClient_ReportStatus_NeverErrors(t *testing.T) {
	c := New(nil, nil)
	_, err := c.Attach(context.Background(), "wlan0", func(bool) {})
	require.NoError(t, err)

	assert.NoError(t, c.ReportStatus(context.Background(), domain.StatusDict{"state": "Authenticated"}))
	assert.NoError(t, c.ReportStatus(context.Background(), domain.StatusDict{}))
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "Authenticated", statusLabel(domain.StatusDict{"state": "Authenticated"}))
	assert.Equal(t, "unknown", statusLabel(domain.StatusDict{}))
	assert.Equal(t, "unknown", statusLabel(domain.StatusDict{"state": 42}))
}
