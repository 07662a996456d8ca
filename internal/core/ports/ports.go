// Package ports defines the capability contracts the transport core
// consumes from, and exposes to, its surrounding collaborators (§6).
package ports

import (
	"context"
	"time"

	"github.com/lcalzada-xor/eapolsupd/internal/core/domain"
)

// EndpointHandle is the surface of a socket endpoint visible to a
// Supplicant: enough to transmit, install keys, and query association
// state, without exposing the endpoint's place in the source's lifecycle
// bookkeeping.
type EndpointHandle interface {
	EnableReceive(cb ReceiveCallback, ctx1, ctx2 any)
	DisableReceive()
	Transmit(ctx context.Context, ptype domain.PacketType, body []byte) error
	SetKey(keyType int, index int, key []byte) bool
	SetPMK(key []byte) bool
	IsLinkActive() bool
	IsWireless() bool
	SSID() (string, bool)
	MTU() int
	Mode() domain.ControlMode
	Name() string
	ReportStatus(ctx context.Context, status domain.StatusDict)
}

// ReceiveCallback is invoked with a borrowed RxView on every inbound frame
// routed to an endpoint. The view must not be retained past the call.
type ReceiveCallback func(ctx1, ctx2 any, view domain.RxView)

// Supplicant is the EAP method state machine. Only the operations the
// transport calls on it are specified; the method layer itself is out of
// scope (§1).
type Supplicant interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Free()
	GetState() (domain.SupplicantState, domain.EAPClientStatus)
	Control(ctx context.Context, cmd domain.ControlCommand, dict domain.ControlDict) (stop bool, err error)
	UpdateConfiguration(dict domain.ControlDict) error
	LinkStatusChanged(active bool)
	SetNoUI(noUI bool)
	Receive(view domain.RxView)
}

// SupplicantFactory creates Supplicant instances bound to an endpoint.
// CreateWithSupplicant clones the immutable authentication context of an
// existing supplicant for a sibling pre-auth instance (§4.5, §9).
type SupplicantFactory interface {
	Create(ctx context.Context, endpoint EndpointHandle, controlDict domain.ControlDict) (Supplicant, error)
	CreateWithSupplicant(ctx context.Context, endpoint EndpointHandle, other Supplicant) (Supplicant, error)
}

// ControllerClient is the system-wide EAPOL controller RPC client. Attach
// registers a callback invoked with serverDied=true if the controller
// process disappears.
type ControllerClient interface {
	Attach(ctx context.Context, ifName string, notify func(serverDied bool)) (domain.ControlDict, error)
	Detach(ctx context.Context) error
	ReportStatus(ctx context.Context, dict domain.StatusDict) error
	ForceRenew(ctx context.Context) error
}

// WirelessAdapter is the wireless driver collaborator: association query,
// key/PMK installation, and scan initiation.
type WirelessAdapter interface {
	Bind(ctx context.Context, ifName string) error
	Free()
	APMac(ctx context.Context) (domain.EA, bool)
	CopySSID(ctx context.Context) (string, bool)
	IsWPAEnterprise(ctx context.Context) bool
	SetKey(keyType int, index int, key []byte) error
	SetWPAPMK(bssid *domain.EA, key []byte) error
	Scan(ctx context.Context, ssid string, count int, cb func(bssids []domain.EA, err error))
	ScanCancel()
}

// Timer is a single one-shot timer instance, as would be supplied by an
// event-loop substrate. Schedule replaces any previous pending fire;
// Stop cancels it.
type Timer interface {
	Schedule(d time.Duration, fn func())
	Stop()
}

// TimerFactory mints fresh Timer instances. Socket source and scan
// orchestration never share one timer across unrelated schedules.
type TimerFactory interface {
	NewTimer() Timer
}

// LinkWatcher subscribes to carrier/administrative link-state changes for
// an interface.
type LinkWatcher interface {
	Subscribe(ifName string, cb func(domain.LinkState)) (unsubscribe func(), err error)
}

// HandshakeNotifier is the kernel "4-way handshake complete" notification
// channel (§4.5, non-embedded case).
type HandshakeNotifier interface {
	Subscribe(ifName string, cb func()) (unsubscribe func(), err error)
}

// RunLoopObserver invokes fn once per idle-before-wait tick of the host
// event loop — the point at which deferred removals are safe to sweep.
type RunLoopObserver interface {
	OnIdle(fn func())
}

// FDDispatcher watches a raw file descriptor for readability and invokes
// cb on each readable event, serialized with every other callback on the
// same run loop.
type FDDispatcher interface {
	WatchReadable(fd int, cb func()) (cancel func(), err error)
}

