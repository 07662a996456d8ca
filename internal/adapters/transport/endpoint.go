// Package transport implements the socket endpoint and socket source
// (§4.3, §4.4): the central demultiplexer between the raw link socket and
// the EAP supplicants.
package transport

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/lcalzada-xor/eapolsupd/internal/core/domain"
	"github.com/lcalzada-xor/eapolsupd/internal/core/ports"
)

// Endpoint is the object a single supplicant instance holds to send and
// receive EAPOL (§4.3). One main endpoint exists per source; zero or more
// pre-auth endpoints, each keyed by a neighbor BSSID, may coexist.
type Endpoint struct {
	source *Source

	bssid     domain.EA
	isPreAuth bool

	mu     sync.Mutex
	recvCB ports.ReceiveCallback
	ctx1   any
	ctx2   any
	supp   ports.Supplicant

	remove atomic.Bool
	stats  domain.EndpointStats
}

var _ ports.EndpointHandle = (*Endpoint)(nil)

func newEndpoint(source *Source, bssid domain.EA, isPreAuth bool) *Endpoint {
	return &Endpoint{source: source, bssid: bssid, isPreAuth: isPreAuth}
}

// EnableReceive atomically installs a receive callback and its two
// opaque contexts.
func (e *Endpoint) EnableReceive(cb ports.ReceiveCallback, ctx1, ctx2 any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.recvCB, e.ctx1, e.ctx2 = cb, ctx1, ctx2
}

// DisableReceive atomically clears the receive callback.
func (e *Endpoint) DisableReceive() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.recvCB, e.ctx1, e.ctx2 = nil, nil, nil
}

func (e *Endpoint) dispatch(view domain.RxView) bool {
	e.mu.Lock()
	cb, ctx1, ctx2 := e.recvCB, e.ctx1, e.ctx2
	e.mu.Unlock()

	if cb == nil {
		e.mu.Lock()
		e.stats.FramesDropped++
		e.mu.Unlock()
		return false
	}
	e.mu.Lock()
	e.stats.FramesReceived++
	e.mu.Unlock()
	cb(ctx1, ctx2, view)
	return true
}

// SetSupplicant binds the owning supplicant reference, freed along with
// the endpoint.
func (e *Endpoint) SetSupplicant(s ports.Supplicant) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.supp = s
}

func (e *Endpoint) supplicant() ports.Supplicant {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.supp
}

// Transmit delegates to the owning source (§4.4 outbound framing).
func (e *Endpoint) Transmit(ctx context.Context, ptype domain.PacketType, body []byte) error {
	return e.source.transmit(ctx, e, ptype, body)
}

// SetKey installs a group or pairwise key. Only meaningful on wireless
// interfaces; returns false otherwise.
func (e *Endpoint) SetKey(keyType int, index int, key []byte) bool {
	if !e.source.IsWireless() {
		return false
	}
	return e.source.wireless.SetKey(keyType, index, key) == nil
}

// SetPMK installs a PMK (§4.3). For the main endpoint, a non-empty PMK
// before authentication schedules a 4-way-handshake notification; an
// empty PMK, or one set after authentication, unschedules it. For a
// pre-auth endpoint, the PMK is bound to that endpoint's BSSID.
func (e *Endpoint) SetPMK(key []byte) bool {
	if !e.source.IsWireless() || !e.source.IsWPAEnterprise() {
		return false
	}

	if e.isPreAuth {
		bssid := e.bssid
		return e.source.wireless.SetWPAPMK(&bssid, key) == nil
	}

	nonEmpty := len(key) > 0
	if nonEmpty && !e.source.Authenticated() {
		e.source.scheduleHandshakeSubscription()
	} else {
		e.source.cancelHandshakeSubscription()
	}
	return e.source.wireless.SetWPAPMK(nil, key) == nil
}

// IsLinkActive reports the owning source's current link-active flag.
func (e *Endpoint) IsLinkActive() bool { return e.source.LinkActive() }

// IsWireless reports whether the owning source's interface is wireless.
func (e *Endpoint) IsWireless() bool { return e.source.IsWireless() }

// SSID returns the owning source's current SSID, if associated.
func (e *Endpoint) SSID() (string, bool) { return e.source.SSID() }

// MTU always returns the hard-coded transport MTU (§9 open question).
func (e *Endpoint) MTU() int { return domain.DefaultMTU }

// Mode returns the owning source's control mode.
func (e *Endpoint) Mode() domain.ControlMode { return e.source.mode }

// Name returns "(main)" for the main endpoint, or the BSSID string for a
// pre-auth endpoint.
func (e *Endpoint) Name() string {
	if !e.isPreAuth {
		return "(main)"
	}
	return e.bssid.String()
}

// BSSID returns the endpoint's bound BSSID; only meaningful for pre-auth
// endpoints.
func (e *Endpoint) BSSID() domain.EA { return e.bssid }

// IsPreAuth reports whether this is a pre-auth (vs. main) endpoint.
func (e *Endpoint) IsPreAuth() bool { return e.isPreAuth }

// ReportStatus forwards a supplicant status report to the owning source
// (§4.4).
func (e *Endpoint) ReportStatus(ctx context.Context, status domain.StatusDict) {
	e.source.reportStatus(ctx, e, status)
}

// Stats returns a snapshot of this endpoint's frame counters (SPEC_FULL §D.6).
func (e *Endpoint) Stats() domain.EndpointStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// MarkRemove flags the endpoint for deferred removal. The actual free is
// performed no later than the next idle tick, and never while a callback
// on this endpoint is on the stack (§4.4 deferred removal).
func (e *Endpoint) MarkRemove() {
	e.remove.Store(true)
	e.source.processRemovals.Store(true)
}

func (e *Endpoint) markedForRemoval() bool {
	return e.remove.Load()
}

func (e *Endpoint) free() {
	if supp := e.supplicant(); supp != nil {
		supp.Free()
	}
}
