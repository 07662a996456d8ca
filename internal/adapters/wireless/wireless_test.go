package wireless

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/eapolsupd/internal/core/domain"
)

type fakeExecutor struct {
	output map[string][]byte
	err    map[string]error
	calls  []string
}

func (f *fakeExecutor) Execute(ctx context.Context, name string, args ...string) ([]byte, error) {
	key := name
	for _, a := range args {
		key += " " + a
	}
	f.calls = append(f.calls, key)
	if f.err != nil {
		if err, ok := f.err[key]; ok {
			return nil, err
		}
	}
	return f.output[key], nil
}

func TestAdapter_Bind_RunsIwInfo(t *testing.T) {
	exec := &fakeExecutor{output: map[string][]byte{}}
	a := New(exec)

	require.NoError(t, a.Bind(context.Background(), "wlan0"))
	assert.Equal(t, []string{"iw dev wlan0 info"}, exec.calls)
}

func TestAdapter_APMac_ParsesConnectedTo(t *testing.T) {
	exec := &fakeExecutor{output: map[string][]byte{
		"iw dev wlan0 link": []byte("Connected to aa:bb:cc:dd:ee:ff (on wlan0)\n\tSSID: testnet\n"),
	}}
	a := New(exec)
	require.NoError(t, a.Bind(context.Background(), "wlan0"))

	ea, ok := a.APMac(context.Background())
	require.True(t, ok)
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", ea.String())
}

func TestAdapter_APMac_NotAssociated(t *testing.T) {
	exec := &fakeExecutor{output: map[string][]byte{
		"iw dev wlan0 link": []byte("Not connected.\n"),
	}}
	a := New(exec)
	require.NoError(t, a.Bind(context.Background(), "wlan0"))

	_, ok := a.APMac(context.Background())
	assert.False(t, ok)
}

func TestAdapter_CopySSID(t *testing.T) {
	exec := &fakeExecutor{output: map[string][]byte{
		"iw dev wlan0 link": []byte("Connected to aa:bb:cc:dd:ee:ff (on wlan0)\n\tSSID: testnet\n"),
	}}
	a := New(exec)
	require.NoError(t, a.Bind(context.Background(), "wlan0"))

	ssid, ok := a.CopySSID(context.Background())
	require.True(t, ok)
	assert.Equal(t, "testnet", ssid)
}

func TestAdapter_Scan_ParsesBSSBlocks(t *testing.T) {
	exec := &fakeExecutor{output: map[string][]byte{
		"iw dev wlan0 scan": []byte(
			"BSS aa:bb:cc:dd:ee:01(on wlan0)\n\tSSID: testnet\n" +
				"BSS aa:bb:cc:dd:ee:02(on wlan0)\n\tSSID: testnet\n",
		),
	}}
	a := New(exec)
	require.NoError(t, a.Bind(context.Background(), "wlan0"))

	var got []domain.EA
	var gotErr error
	a.Scan(context.Background(), "testnet", 1, func(bssids []domain.EA, err error) {
		got = bssids
		gotErr = err
	})

	require.NoError(t, gotErr)
	require.Len(t, got, 2)
	assert.Equal(t, "aa:bb:cc:dd:ee:01", got[0].String())
	assert.Equal(t, "aa:bb:cc:dd:ee:02", got[1].String())
}

func TestAdapter_Scan_RetriesOnError(t *testing.T) {
	calls := 0
	exec := &fakeExecutor{}
	a := New(exec)
	require.NoError(t, a.Bind(context.Background(), "wlan0"))

	exec.err = map[string]error{"iw dev wlan0 scan": errors.New("device busy")}

	var gotErr error
	a.Scan(context.Background(), "testnet", 3, func(bssids []domain.EA, err error) {
		gotErr = err
	})
	calls = len(exec.calls) - 1 // subtract the earlier Bind call
	assert.Error(t, gotErr)
	assert.Equal(t, 3, calls)
}

func TestAdapter_SetKey_RejectsEmpty(t *testing.T) {
	a := New(&fakeExecutor{})
	assert.Error(t, a.SetKey(0, 0, nil))
	assert.NoError(t, a.SetKey(0, 0, []byte{0x01}))
}

func TestAdapter_ScanCancel_NoopWithoutScan(t *testing.T) {
	a := New(&fakeExecutor{})
	assert.NotPanics(t, func() { a.ScanCancel() })
}
