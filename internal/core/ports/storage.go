package ports

import (
	"context"
	"time"
)

// SessionEvent is one append-only row in the session-history store: either
// an endpoint lifecycle transition or a report_status call (SPEC_FULL §B).
type SessionEvent struct {
	ID        uint
	Timestamp time.Time
	IfName    string
	Endpoint  string // "(main)" or a BSSID string, per Endpoint.Name()
	Kind      string // "created", "removed", "report_status"
	State     string
	Detail    string // for "report_status", the supplicant state name (or "disassociated")
}

// SessionStore is the append-only persistence port for post-mortem
// diagnostics: one row per endpoint lifecycle event and per report_status
// call. It intentionally has no update or delete operations.
type SessionStore interface {
	SaveEvent(ctx context.Context, event SessionEvent) error
	SaveEventsBatch(ctx context.Context, events []SessionEvent) error
	ListEvents(ctx context.Context, ifName string, since time.Time) ([]SessionEvent, error)
	Close() error
}
