package scan

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/eapolsupd/internal/core/domain"
	"github.com/lcalzada-xor/eapolsupd/internal/core/ports"
)

// fakeTimer is a synchronous stand-in for ports.Timer: Schedule only stores
// fn, which runs when the test calls fire(), and Stop just records that it
// was called.
type fakeTimer struct {
	mu      sync.Mutex
	stopped bool
	fn      func()
}

func (t *fakeTimer) Schedule(d time.Duration, fn func()) {
	t.mu.Lock()
	t.fn = fn
	t.mu.Unlock()
}

func (t *fakeTimer) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

func (t *fakeTimer) fire() {
	t.mu.Lock()
	fn := t.fn
	t.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// fakeWireless implements ports.WirelessAdapter, recording Scan/ScanCancel
// calls and letting the test control the result delivered to the callback.
type fakeWireless struct {
	mu         sync.Mutex
	scanned    []string
	cancelled  int
	bssids     []domain.EA
	err        error
}

func (f *fakeWireless) Bind(ctx context.Context, ifName string) error { return nil }
func (f *fakeWireless) Free()                                        {}
func (f *fakeWireless) APMac(ctx context.Context) (domain.EA, bool)   { return domain.EA{}, false }
func (f *fakeWireless) CopySSID(ctx context.Context) (string, bool)   { return "", false }
func (f *fakeWireless) IsWPAEnterprise(ctx context.Context) bool      { return false }
func (f *fakeWireless) SetKey(keyType int, index int, key []byte) error {
	return nil
}
func (f *fakeWireless) SetWPAPMK(bssid *domain.EA, key []byte) error { return nil }

func (f *fakeWireless) Scan(ctx context.Context, ssid string, count int, cb func(bssids []domain.EA, err error)) {
	f.mu.Lock()
	f.scanned = append(f.scanned, ssid)
	bssids, err := f.bssids, f.err
	f.mu.Unlock()
	cb(bssids, err)
}

func (f *fakeWireless) ScanCancel() {
	f.mu.Lock()
	f.cancelled++
	f.mu.Unlock()
}

// fakeTimers implements ports.TimerFactory by handing out fakeTimer
// instances directly (bypassing the real run loop entirely).
type fakeTimers struct {
	mu     sync.Mutex
	minted []*fakeTimer
}

func (f *fakeTimers) NewTimer() ports.Timer {
	t := &fakeTimer{}
	f.mu.Lock()
	f.minted = append(f.minted, t)
	f.mu.Unlock()
	return t
}

func TestOrchestrator_ScheduleScan_FiresWireless(t *testing.T) {
	wireless := &fakeWireless{bssids: []domain.EA{{0x01}}}
	timers := &fakeTimers{}
	var results [][]domain.EA
	var mu sync.Mutex

	o := NewOrchestrator(Config{IfName: "wlan0"}, wireless, timers, func(ctx context.Context, bssids []domain.EA) {
		mu.Lock()
		results = append(results, bssids)
		mu.Unlock()
	}, nil)

	o.ScheduleScan("my-ssid", 5*time.Second)
	require.Len(t, timers.minted, 1)
	timers.minted[0].fire()

	assert.Equal(t, []string{"my-ssid"}, wireless.scanned)
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, results, 1)
	assert.Equal(t, []domain.EA{{0x01}}, results[0])
}

func TestOrchestrator_ScheduleScan_NegativeDurationIsNoop(t *testing.T) {
	wireless := &fakeWireless{}
	timers := &fakeTimers{}
	o := NewOrchestrator(Config{IfName: "wlan0"}, wireless, timers, func(context.Context, []domain.EA) {}, nil)

	o.ScheduleScan("ssid", -1*time.Second)

	assert.Empty(t, timers.minted)
}

func TestOrchestrator_ScheduleScan_SupersedesPending(t *testing.T) {
	wireless := &fakeWireless{}
	timers := &fakeTimers{}
	o := NewOrchestrator(Config{IfName: "wlan0"}, wireless, timers, func(context.Context, []domain.EA) {}, nil)

	o.ScheduleScan("first", time.Second)
	o.ScheduleScan("second", time.Second)

	require.Len(t, timers.minted, 2)
	assert.True(t, timers.minted[0].stopped)
	assert.False(t, timers.minted[1].stopped)
}

func TestOrchestrator_CancelScan_StopsTimersAndDriver(t *testing.T) {
	wireless := &fakeWireless{}
	timers := &fakeTimers{}
	o := NewOrchestrator(Config{IfName: "wlan0"}, wireless, timers, func(context.Context, []domain.EA) {}, nil)

	o.ScheduleScan("ssid", time.Second)
	o.CancelScan()

	require.Len(t, timers.minted, 1)
	assert.True(t, timers.minted[0].stopped)
	assert.Equal(t, 1, wireless.cancelled)
}

func TestOrchestrator_PeriodicRescan(t *testing.T) {
	wireless := &fakeWireless{bssids: []domain.EA{{0x02}}}
	timers := &fakeTimers{}
	var calls int
	var mu sync.Mutex

	o := NewOrchestrator(Config{IfName: "wlan0", ScanPeriodSeconds: 30}, wireless, timers, func(context.Context, []domain.EA) {
		mu.Lock()
		calls++
		mu.Unlock()
	}, nil)

	o.ScheduleScan("ssid", time.Second)
	require.Len(t, timers.minted, 1)
	timers.minted[0].fire()

	require.Len(t, timers.minted, 2)
	timers.minted[1].fire()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, calls)
}

func TestOrchestrator_ScanError_DoesNotInvokeHandler(t *testing.T) {
	wireless := &fakeWireless{err: assertErr}
	timers := &fakeTimers{}
	var called bool

	o := NewOrchestrator(Config{IfName: "wlan0"}, wireless, timers, func(context.Context, []domain.EA) {
		called = true
	}, nil)

	o.ScheduleScan("ssid", time.Second)
	timers.minted[0].fire()

	assert.False(t, called)
}

var assertErr = assertError{}

type assertError struct{}

func (assertError) Error() string { return "scan failed" }
