//go:build linux

package runloop

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/eapolsupd/internal/core/domain"
)

func TestReadLinkState_KnownInterface(t *testing.T) {
	state, err := readLinkState("lo")
	require.NoError(t, err)
	assert.True(t, state.Active)
	assert.True(t, state.AdminUp)
}

func TestReadLinkState_UnknownInterface(t *testing.T) {
	_, err := readLinkState("does-not-exist-0")
	assert.Error(t, err)
}

func TestLinkWatcher_Subscribe_ReportsInitialState(t *testing.T) {
	l := New()
	go l.Run()
	defer l.Stop()

	w := NewLinkWatcher(l)
	w.interval = 10 * time.Millisecond

	states := make(chan domain.LinkState, 4)
	unsubscribe, err := w.Subscribe("lo", func(s domain.LinkState) {
		select {
		case states <- s:
		default:
		}
	})
	require.NoError(t, err)
	defer unsubscribe()

	select {
	case s := <-states:
		assert.True(t, s.Active)
	case <-time.After(2 * time.Second):
		t.Fatal("no link state reported")
	}
}
