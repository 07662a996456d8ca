// Package supplicant provides a minimal EAP state-machine implementation.
// The EAP method layer itself is explicitly out of scope for the
// transport (§1); this is the reference binding the transport core needs
// to exercise end to end, not a standards-complete supplicant.
package supplicant

import (
	"context"
	"log/slog"
	"sync"

	"github.com/lcalzada-xor/eapolsupd/internal/core/domain"
	"github.com/lcalzada-xor/eapolsupd/internal/core/ports"
)

// Supplicant is a small, dependency-free EAP state machine: it is created
// Connecting and moves to Acquired on Start. Any received Key frame takes
// it through Authenticating to Authenticated (no MIC or key-info bits are
// checked), a Logoff frame moves it to Logoff, and other frames leave the
// state unchanged. A link-down event moves it to Disconnected. Control's
// "Stop" moves it to Logoff and "Retry" back to Connecting; "Run" and
// "TakeControl" only replace the stored configuration dict.
type Supplicant struct {
	endpoint ports.EndpointHandle
	log      *slog.Logger

	mu     sync.Mutex
	state  domain.SupplicantState
	status domain.EAPClientStatus
	noUI   bool
	cfg    domain.ControlDict
}

// Factory creates Supplicant instances and implements ports.SupplicantFactory.
type Factory struct {
	log *slog.Logger
}

func NewFactory(log *slog.Logger) *Factory {
	if log == nil {
		log = slog.Default()
	}
	return &Factory{log: log}
}

func (f *Factory) Create(ctx context.Context, endpoint ports.EndpointHandle, controlDict domain.ControlDict) (ports.Supplicant, error) {
	return &Supplicant{endpoint: endpoint, log: f.log, state: domain.StateConnecting, cfg: controlDict}, nil
}

// CreateWithSupplicant clones the parent's configuration dict for a
// sibling pre-auth instance, the transport-visible shape of
// Supplicant::create_with_supplicant (§4.5, §9).
func (f *Factory) CreateWithSupplicant(ctx context.Context, endpoint ports.EndpointHandle, other ports.Supplicant) (ports.Supplicant, error) {
	parent, ok := other.(*Supplicant)
	cfg := domain.ControlDict{}
	if ok {
		parent.mu.Lock()
		for k, v := range parent.cfg {
			cfg[k] = v
		}
		parent.mu.Unlock()
	}
	return &Supplicant{endpoint: endpoint, log: f.log, state: domain.StateConnecting, cfg: cfg}, nil
}

var _ ports.SupplicantFactory = (*Factory)(nil)
var _ ports.Supplicant = (*Supplicant)(nil)

func (s *Supplicant) Start(ctx context.Context) error {
	s.endpoint.EnableReceive(func(ctx1, ctx2 any, view domain.RxView) {
		s.Receive(view)
	}, nil, nil)
	s.setState(domain.StateAcquired)
	if err := s.endpoint.Transmit(ctx, domain.PacketTypeStart, nil); err != nil {
		return err
	}
	return nil
}

func (s *Supplicant) Stop(ctx context.Context) error {
	s.setState(domain.StateLogoff)
	return s.endpoint.Transmit(ctx, domain.PacketTypeLogoff, nil)
}

func (s *Supplicant) Free() {}

func (s *Supplicant) GetState() (domain.SupplicantState, domain.EAPClientStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.status
}

func (s *Supplicant) Control(ctx context.Context, cmd domain.ControlCommand, dict domain.ControlDict) (bool, error) {
	switch cmd {
	case domain.ControlCommandStop:
		_ = s.Stop(ctx)
		return true, nil
	case domain.ControlCommandRetry:
		s.setState(domain.StateConnecting)
		return false, nil
	case domain.ControlCommandRun, domain.ControlCommandTakeControl:
		if dict != nil {
			s.mu.Lock()
			s.cfg = dict
			s.mu.Unlock()
		}
		return false, nil
	}
	return false, nil
}

func (s *Supplicant) UpdateConfiguration(dict domain.ControlDict) error {
	s.mu.Lock()
	s.cfg = dict
	s.mu.Unlock()
	return nil
}

func (s *Supplicant) LinkStatusChanged(active bool) {
	if !active {
		s.setState(domain.StateDisconnected)
	}
}

func (s *Supplicant) SetNoUI(noUI bool) {
	s.mu.Lock()
	s.noUI = noUI
	s.mu.Unlock()
}

// Receive advances the state machine from an inbound EAPOL frame and
// reports status to the transport whenever the state changes.
func (s *Supplicant) Receive(view domain.RxView) {
	hdr := view.Header()

	switch hdr.Type {
	case domain.PacketTypeKey:
		s.setState(domain.StateAuthenticating)
		s.setState(domain.StateAuthenticated)
	case domain.PacketTypeLogoff:
		s.setState(domain.StateLogoff)
	default:
	}
}

func (s *Supplicant) setState(state domain.SupplicantState) {
	s.mu.Lock()
	changed := s.state != state
	s.state = state
	s.mu.Unlock()
	if changed {
		s.endpoint.ReportStatus(context.Background(), domain.StatusDict{"state": state.String()})
	}
}
