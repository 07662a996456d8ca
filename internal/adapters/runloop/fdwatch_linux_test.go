//go:build linux

package runloop

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoop_WatchReadable_FiresOnPipeWrite(t *testing.T) {
	l := New()
	go l.Run()
	defer l.Stop()

	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	readable := make(chan struct{}, 1)
	cancel, err := l.WatchReadable(int(r.Fd()), func() {
		select {
		case readable <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)
	defer cancel()

	_, err = w.Write([]byte("x"))
	require.NoError(t, err)

	select {
	case <-readable:
	case <-time.After(2 * time.Second):
		t.Fatal("readable callback never fired")
	}
}

func TestLoop_WatchReadable_CancelStopsDelivery(t *testing.T) {
	l := New()
	go l.Run()
	defer l.Stop()

	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	var fired int
	cancel, err := l.WatchReadable(int(r.Fd()), func() { fired++ })
	require.NoError(t, err)
	cancel()

	_, err = w.Write([]byte("x"))
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, fired)
}
