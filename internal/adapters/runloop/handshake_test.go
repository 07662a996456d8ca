package runloop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandshakeNotifier_Subscribe_ReturnsNoopUnsubscribe(t *testing.T) {
	n := NewHandshakeNotifier()

	called := false
	unsubscribe, err := n.Subscribe("wlan0", func() { called = true })
	require.NoError(t, err)
	require.NotNil(t, unsubscribe)

	unsubscribe()
	assert.False(t, called)
}
