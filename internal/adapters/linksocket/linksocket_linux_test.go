//go:build linux

package linksocket

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHtons(t *testing.T) {
	assert.Equal(t, uint16(0x8E88), htons(0x888E))
	assert.Equal(t, uint16(0x0000), htons(0x0000))
}

func TestOpen_UnknownInterfaceFails(t *testing.T) {
	_, err := Open(Config{IfName: "does-not-exist-0"})
	assert.Error(t, err)
}
