package reporting

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/eapolsupd/internal/core/ports"
)

func TestGenerateSessionReport_WritesNonEmptyPDF(t *testing.T) {
	events := []ports.SessionEvent{
		{Timestamp: time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC), Endpoint: "aa:bb:cc:dd:ee:ff", Kind: "created", State: "Connecting"},
		{Timestamp: time.Date(2026, 1, 1, 10, 0, 5, 0, time.UTC), Endpoint: "aa:bb:cc:dd:ee:ff", Kind: "report_status", State: "Authenticated"},
	}

	pdf, err := GenerateSessionReport("wlan0", events)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))
	assert.NotEmpty(t, buf.Bytes())
	assert.Contains(t, buf.String(), "PDF-")
}

func TestGenerateSessionReport_EmptyEventsStillProducesValidPDF(t *testing.T) {
	pdf, err := GenerateSessionReport("wlan0", nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))
	assert.NotEmpty(t, buf.Bytes())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 40))
	assert.Equal(t, "0123456789...", truncate("0123456789abcdef", 10))
}
