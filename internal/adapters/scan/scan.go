// Package scan implements the scheduling half of scan & pre-auth
// orchestration (§4.5): arming and canceling scan timers and forwarding
// completed scans back to the socket source. Endpoint creation itself
// stays in the transport package, which owns the pre-auth endpoint set.
package scan

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lcalzada-xor/eapolsupd/internal/core/domain"
	"github.com/lcalzada-xor/eapolsupd/internal/core/ports"
	"github.com/lcalzada-xor/eapolsupd/internal/telemetry"
)

// Config mirrors the "Preauthentication" configuration table (§6) that
// the orchestrator itself consults.
type Config struct {
	ScanPeriodSeconds int
	NumberOfScans     int
	IfName            string
}

// ResultHandler is the callback invoked with every completed scan's
// BSSID list, normally transport.Source.HandleScanResult.
type ResultHandler func(ctx context.Context, bssids []domain.EA)

// Orchestrator arms and fires scan timers against a WirelessAdapter and
// reports results to a ResultHandler.
type Orchestrator struct {
	cfg      Config
	wireless ports.WirelessAdapter
	timers   ports.TimerFactory
	onResult ResultHandler
	log      *slog.Logger

	mu       sync.Mutex
	ssid     string
	timer    ports.Timer
	periodic ports.Timer
}

func NewOrchestrator(cfg Config, wireless ports.WirelessAdapter, timers ports.TimerFactory, onResult ResultHandler, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{cfg: cfg, wireless: wireless, timers: timers, onResult: onResult, log: logger}
}

// ScheduleScan arms a one-shot scan to run after d, keyed by ssid. A
// negative d is a no-op; a new call supersedes any earlier pending scan
// (§8).
func (o *Orchestrator) ScheduleScan(ssid string, d time.Duration) {
	if d < 0 {
		return
	}

	o.mu.Lock()
	if o.timer != nil {
		o.timer.Stop()
	}
	o.ssid = ssid
	t := o.timers.NewTimer()
	o.timer = t
	o.mu.Unlock()

	telemetry.ScansScheduled.WithLabelValues(o.cfg.IfName, "triggered").Inc()
	t.Schedule(d, o.fire)
}

// CancelScan stops any pending one-shot and periodic timer and cancels an
// in-flight driver scan.
func (o *Orchestrator) CancelScan() {
	o.mu.Lock()
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
	if o.periodic != nil {
		o.periodic.Stop()
		o.periodic = nil
	}
	o.mu.Unlock()
	o.wireless.ScanCancel()
}

func (o *Orchestrator) fire() {
	o.mu.Lock()
	ssid := o.ssid
	count := o.cfg.NumberOfScans
	o.mu.Unlock()

	ctx := context.Background()
	o.wireless.Scan(ctx, ssid, count, func(bssids []domain.EA, err error) {
		if err != nil {
			o.log.Debug("scan failed", "ssid", ssid, "err", err)
			return
		}
		o.onResult(ctx, bssids)
		if o.cfg.ScanPeriodSeconds > 0 {
			o.schedulePeriodic(ssid, time.Duration(o.cfg.ScanPeriodSeconds)*time.Second)
		}
	})
}

func (o *Orchestrator) schedulePeriodic(ssid string, d time.Duration) {
	o.mu.Lock()
	if o.periodic != nil {
		o.periodic.Stop()
	}
	o.ssid = ssid
	t := o.timers.NewTimer()
	o.periodic = t
	o.mu.Unlock()

	telemetry.ScansScheduled.WithLabelValues(o.cfg.IfName, "periodic").Inc()
	t.Schedule(d, o.fire)
}
