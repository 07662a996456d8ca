package transport

import "time"

// ScanController is the scheduling half of scan & pre-auth orchestration
// (§4.5), implemented by internal/adapters/scan and driven by the source
// on association changes. Kept as an interface so transport never imports
// the scan package; scan does not import transport either, and hands its
// results back through the ResultHandler callback it is constructed with.
type ScanController interface {
	// ScheduleScan arms a one-shot scan to run after d, keyed by ssid.
	// A negative d is a no-op; a new call cancels any earlier pending
	// scan (§8).
	ScheduleScan(ssid string, d time.Duration)

	// CancelScan cancels any pending or in-flight scan.
	CancelScan()
}
