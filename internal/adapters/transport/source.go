package transport

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lcalzada-xor/eapolsupd/internal/adapters/codec"
	"github.com/lcalzada-xor/eapolsupd/internal/adapters/linksocket"
	"github.com/lcalzada-xor/eapolsupd/internal/core/domain"
	"github.com/lcalzada-xor/eapolsupd/internal/core/ports"
	"github.com/lcalzada-xor/eapolsupd/internal/telemetry"
)

// Deps collects a Source's collaborators (§6 consumed interfaces). Socket,
// Controller and Factory are always required, and Wireless is required on
// a wireless source; every other field may be nil, and the Source then
// skips the corresponding registration or call.
type Deps struct {
	Socket       linksocket.Socket
	Wireless     ports.WirelessAdapter
	Controller   ports.ControllerClient
	Factory      ports.SupplicantFactory
	LinkWatcher  ports.LinkWatcher
	TimerFactory ports.TimerFactory
	RunLoop      ports.RunLoopObserver
	FDDispatcher ports.FDDispatcher
	Handshake    ports.HandshakeNotifier
	SessionStore ports.SessionStore
	ScanCtl      ScanController
}

// Source is the socket source (§4.4): the demultiplexer owning the raw
// link socket, the main endpoint, and the live pre-auth endpoint set.
type Source struct {
	ifName          string
	ether           domain.EA
	isWireless      bool
	isWPAEnterprise atomic.Bool
	linkActive      atomic.Bool
	authenticated   atomic.Bool
	mode            domain.ControlMode

	mu       sync.RWMutex
	ssid     *string
	bssid    *domain.EA
	main     *Endpoint
	preauth  map[domain.EA]*Endpoint
	unsubHS  func()
	unsubLW  func()
	unsubFD  func()

	socket     linksocket.Socket
	wireless   ports.WirelessAdapter
	controller ports.ControllerClient
	factory    ports.SupplicantFactory
	timers     ports.TimerFactory
	runLoop    ports.RunLoopObserver
	fdDisp     ports.FDDispatcher
	handshake  ports.HandshakeNotifier
	linkWatch  ports.LinkWatcher
	store      ports.SessionStore
	scanCtl    ScanController

	preauthEnabled    bool
	scanDelayAuthSecs int
	scanDelayRoamSecs int
	debug             bool

	processRemovals atomic.Bool
	inCallback      atomic.Int32

	notify func(endpoint, kind, detail string)

	log *slog.Logger
}

// SetNotifier registers a callback invoked alongside every recorded session
// event (endpoint created/removed/report_status), for live push to a
// monitoring surface. Pass nil to disable.
func (s *Source) SetNotifier(fn func(endpoint, kind, detail string)) {
	s.notify = fn
}

// Config carries the preauth knobs of the external configuration table
// (§6) that the source itself consults (the rest belong to the scan
// orchestrator).
type Config struct {
	EnablePreauthentication       bool
	ScanDelayAuthenticatedSeconds int
	ScanDelayRoamSeconds          int
	Debug                         bool
}

// Create builds the source around the already-open link socket in deps and
// returns it alongside the controller's initial control dict, mirroring EndpointSource::create
// (§6 exposed interface).
func Create(ctx context.Context, ifName string, ether domain.EA, isWireless bool, cfg Config, deps Deps, logger *slog.Logger) (*Source, domain.ControlDict, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Source{
		ifName:            ifName,
		ether:             ether,
		isWireless:        isWireless,
		mode:              domain.ModeNone,
		preauth:           make(map[domain.EA]*Endpoint),
		socket:            deps.Socket,
		wireless:          deps.Wireless,
		controller:        deps.Controller,
		factory:           deps.Factory,
		timers:            deps.TimerFactory,
		runLoop:           deps.RunLoop,
		fdDisp:            deps.FDDispatcher,
		handshake:         deps.Handshake,
		linkWatch:         deps.LinkWatcher,
		store:             deps.SessionStore,
		scanCtl:           deps.ScanCtl,
		preauthEnabled:    cfg.EnablePreauthentication,
		scanDelayAuthSecs: cfg.ScanDelayAuthenticatedSeconds,
		scanDelayRoamSecs: cfg.ScanDelayRoamSeconds,
		debug:             cfg.Debug,
		log:               logger,
	}
	s.linkActive.Store(true)

	if s.isWireless {
		if err := s.wireless.Bind(ctx, ifName); err != nil {
			return nil, nil, err
		}
	}

	controlDict, err := s.controller.Attach(ctx, ifName, s.onControllerNotify)
	if err != nil {
		return nil, nil, err
	}

	if s.runLoop != nil {
		s.runLoop.OnIdle(s.sweepRemovals)
	}
	if s.fdDisp != nil {
		cancel, err := s.fdDisp.WatchReadable(s.socket.Fd(), s.HandleReadable)
		if err != nil {
			return nil, nil, err
		}
		s.unsubFD = cancel
	}
	if s.runLoop != nil {
		// Link watcher subscription happens lazily on CreateMainSupplicant,
		// once the main endpoint that link_status_changed forwards to exists.
	}

	s.recordEvent(ctx, "(main)", "created", "")
	return s, controlDict, nil
}

// CreateMainSupplicant creates the main endpoint and its supplicant, and
// subscribes to link-state events (§6: source.create_supplicant).
func (s *Source) CreateMainSupplicant(ctx context.Context, controlDict domain.ControlDict, systemMode domain.ControlMode) (ports.Supplicant, error) {
	if controlDict == nil || !controlDict.HasConfiguration() {
		return nil, domain.ErrConfigEmpty
	}

	s.mode = systemMode

	s.mu.Lock()
	if s.main != nil {
		s.mu.Unlock()
		return nil, domain.ErrEndpointExists
	}
	ep := newEndpoint(s, domain.ZeroEA, false)
	s.main = ep
	s.mu.Unlock()

	supp, err := s.factory.Create(ctx, ep, controlDict)
	if err != nil {
		s.mu.Lock()
		s.main = nil
		s.mu.Unlock()
		return nil, err
	}
	ep.SetSupplicant(supp)

	if s.linkWatch != nil {
		unsub, err := s.linkWatch.Subscribe(s.ifName, s.onLinkStateChanged)
		if err == nil {
			s.mu.Lock()
			s.unsubLW = unsub
			s.mu.Unlock()
		}
	}

	if err := supp.Start(ctx); err != nil {
		return nil, err
	}
	return supp, nil
}

// Free stops the main supplicant, tears down every pre-auth endpoint, and
// releases the socket and subscriptions (§6: source.free()).
func (s *Source) Free(ctx context.Context) {
	s.cancelHandshakeSubscription()
	if s.scanCtl != nil {
		s.scanCtl.CancelScan()
	}

	s.mu.Lock()
	main := s.main
	s.main = nil
	preauth := s.preauth
	s.preauth = make(map[domain.EA]*Endpoint)
	unsubLW := s.unsubLW
	unsubFD := s.unsubFD
	s.mu.Unlock()

	for _, ep := range preauth {
		ep.free()
	}
	if main != nil {
		if supp := main.supplicant(); supp != nil {
			_ = supp.Stop(ctx)
		}
		main.free()
	}
	if unsubLW != nil {
		unsubLW()
	}
	if unsubFD != nil {
		unsubFD()
	}
	_ = s.controller.Detach(ctx)
	if s.wireless != nil && s.isWireless {
		s.wireless.Free()
	}
	_ = s.socket.Close()
}

func (s *Source) IfName() string          { return s.ifName }
func (s *Source) LinkActive() bool        { return s.linkActive.Load() }
func (s *Source) IsWireless() bool        { return s.isWireless }
func (s *Source) IsWPAEnterprise() bool   { return s.isWPAEnterprise.Load() }
func (s *Source) Authenticated() bool     { return s.authenticated.Load() }

func (s *Source) SSID() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ssid == nil {
		return "", false
	}
	return *s.ssid, true
}

func (s *Source) mainBSSID() (domain.EA, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.bssid == nil {
		return domain.ZeroEA, false
	}
	return *s.bssid, true
}

// EndpointSnapshot is a read-only view of one endpoint, for the control
// HTTP surface's /endpoints listing.
type EndpointSnapshot struct {
	Name     string
	BSSID    domain.EA
	IsPreAuth bool
	Stats    domain.EndpointStats
}

// Snapshot reports the source's interface and endpoint-set state for the
// control HTTP surface's /status and /endpoints routes.
func (s *Source) Snapshot() (ifName string, wireless, linkActive, authenticated bool, ssid string, endpoints []EndpointSnapshot) {
	s.mu.RLock()
	main := s.main
	preauth := make([]*Endpoint, 0, len(s.preauth))
	for _, ep := range s.preauth {
		preauth = append(preauth, ep)
	}
	if s.ssid != nil {
		ssid = *s.ssid
	}
	s.mu.RUnlock()

	if main != nil {
		endpoints = append(endpoints, EndpointSnapshot{Name: main.Name(), BSSID: main.BSSID(), IsPreAuth: false, Stats: main.Stats()})
	}
	for _, ep := range preauth {
		endpoints = append(endpoints, EndpointSnapshot{Name: ep.Name(), BSSID: ep.BSSID(), IsPreAuth: true, Stats: ep.Stats()})
	}

	return s.ifName, s.isWireless, s.linkActive.Load(), s.authenticated.Load(), ssid, endpoints
}

// HandleReadable services one readable event on the link socket: read,
// validate, and route one frame (§4.4 demultiplex).
func (s *Source) HandleReadable() {
	s.inCallback.Add(1)
	defer s.inCallback.Add(-1)

	buf := make([]byte, linksocket.MaxFrameLen)
	n, err := s.socket.Receive(buf)
	if err != nil {
		if !errors.Is(err, linksocket.ErrWouldBlock) {
			s.log.Error("link socket receive failed", "if", s.ifName, "err", err)
		}
		return
	}
	if n == 0 {
		return
	}
	frame := buf[:n]

	if s.debug {
		var dump strings.Builder
		codec.Dump(&dump, frame)
		s.log.Debug("frame received", "if", s.ifName, "dump", dump.String())
	}

	if !codec.EtherHeaderValid(frame) {
		s.log.Debug("short frame dropped", "if", s.ifName, "len", n)
		telemetry.FramesDropped.WithLabelValues(s.ifName, "short_ethernet_header").Inc()
		return
	}
	ethertype := codec.EtherType(frame)
	if !ethertype.Recognized() {
		telemetry.FramesDropped.WithLabelValues(s.ifName, "unrecognized_ethertype").Inc()
		return
	}

	body := frame[domain.EtherHeaderLen:]
	if !codec.EAPOLHeaderValid(body) {
		telemetry.FramesDropped.WithLabelValues(s.ifName, "short_eapol_header").Inc()
		return
	}
	hdr := domain.DecodeHeader(body)
	payload := body[domain.HeaderLen:]
	if err := codec.EAPOLBodyValid(hdr, payload); err != nil {
		s.log.Debug("invalid EAPOL body dropped", "if", s.ifName, "err", err)
		telemetry.FramesDropped.WithLabelValues(s.ifName, "invalid_body").Inc()
		return
	}

	srcMAC := codec.SourceMAC(frame)
	if s.isWireless && ethertype == domain.EtherTypeEAPOL {
		cur, ok := s.mainBSSID()
		if !ok || !cur.Equal(srcMAC) {
			s.wirelessRefresh(context.Background())
		}
	}

	view := domain.RxView{Data: body}

	var target *Endpoint
	switch ethertype {
	case domain.EtherTypeEAPOL:
		s.mu.RLock()
		target = s.main
		s.mu.RUnlock()
	case domain.EtherTypePreAuth:
		s.mu.RLock()
		target = s.preauth[srcMAC]
		s.mu.RUnlock()
	}
	if target == nil {
		telemetry.FramesDropped.WithLabelValues(s.ifName, "no_target_endpoint").Inc()
		return
	}
	telemetry.FramesDemuxed.WithLabelValues(s.ifName, ethertype.String()).Inc()
	target.dispatch(view)
}

// transmit frames and sends body per the per-endpoint addressing rules
// (§4.4 frame/outbound).
func (s *Source) transmit(ctx context.Context, e *Endpoint, ptype domain.PacketType, body []byte) error {
	dst, err := s.destinationFor(ctx, e)
	if err != nil {
		s.log.Error("unknown BSSID, dropping transmit", "if", s.ifName, "err", err)
		return err
	}

	ethertype := domain.EtherTypeEAPOL
	if e.IsPreAuth() {
		ethertype = domain.EtherTypePreAuth
	}

	frame := codec.EncodeEthernetFrame(dst, s.ether, ethertype, codec.EncodeFrame(ptype, body))
	if err := s.socket.Send(frame); err != nil {
		return err
	}
	e.mu.Lock()
	e.stats.FramesSent++
	e.mu.Unlock()
	telemetry.FramesSent.WithLabelValues(s.ifName, ptype.String()).Inc()
	return nil
}

func (s *Source) destinationFor(ctx context.Context, e *Endpoint) (domain.EA, error) {
	if e.IsPreAuth() {
		return e.BSSID(), nil
	}
	if !s.isWireless {
		return domain.EAPOLMulticast, nil
	}
	if bssid, ok := s.mainBSSID(); ok {
		return bssid, nil
	}
	s.wirelessRefresh(ctx)
	if bssid, ok := s.mainBSSID(); ok {
		return bssid, nil
	}
	return domain.ZeroEA, domain.ErrUnknownBSSID
}

// onLinkStateChanged is the link-state watcher callback (§4.4).
func (s *Source) onLinkStateChanged(state domain.LinkState) {
	s.inCallback.Add(1)
	defer s.inCallback.Add(-1)

	s.log.Debug("link state changed", "if", s.ifName, "active", state.Active, "admin_up", state.AdminUp)
	s.linkActive.Store(state.Active)
	if s.isWireless {
		s.wirelessRefresh(context.Background())
	}
	s.mu.RLock()
	main := s.main
	s.mu.RUnlock()
	if main != nil {
		if supp := main.supplicant(); supp != nil {
			supp.LinkStatusChanged(state.Active)
		}
	}
}

// onControllerNotify handles the controller's server_died/mode callback
// (§4.4 controller notifications).
func (s *Source) onControllerNotify(serverDied bool) {
	s.inCallback.Add(1)
	defer s.inCallback.Add(-1)

	if !serverDied {
		return
	}
	ctx := context.Background()
	s.mu.RLock()
	main := s.main
	s.mu.RUnlock()

	if s.mode == domain.ModeUser {
		if main != nil {
			if supp := main.supplicant(); supp != nil {
				_, _ = supp.Control(ctx, domain.ControlCommandStop, nil)
			}
		}
	}
	s.Free(ctx)
}

// HandleControl dispatches a controller-delivered command to the main
// supplicant (§4.4 controller notifications). When the dict carries a
// true "force" flag the supplicant is stopped and started again instead.
func (s *Source) HandleControl(ctx context.Context, cmd domain.ControlCommand, dict domain.ControlDict) error {
	s.mu.RLock()
	main := s.main
	s.mu.RUnlock()
	if main == nil {
		return domain.ErrEndpointNotFound
	}
	supp := main.supplicant()
	if supp == nil {
		return domain.ErrEndpointNotFound
	}
	if dict.Force() {
		_ = supp.Stop(ctx)
		return supp.Start(ctx)
	}
	stop, err := supp.Control(ctx, cmd, dict)
	if err != nil {
		return err
	}
	if stop {
		s.Free(ctx)
	}
	return nil
}

// reportStatus implements the main/pre-auth status tables of §4.4. The
// triggering state is read back from the reporting supplicant itself; the
// status dict is only the opaque payload forwarded to the controller.
func (s *Source) reportStatus(ctx context.Context, e *Endpoint, status domain.StatusDict) {
	supp := e.supplicant()
	if supp == nil {
		return
	}
	state, clientStatus := supp.GetState()

	if e.IsPreAuth() {
		s.reportPreAuthStatus(ctx, e, state, clientStatus)
		return
	}
	s.reportMainStatus(ctx, state)
	_ = s.controller.ReportStatus(ctx, status)
	s.recordEvent(ctx, e.Name(), "report_status", state.String())
}

func (s *Source) reportMainStatus(ctx context.Context, state domain.SupplicantState) {
	switch state {
	case domain.StateInactive:
		s.cancelHandshakeSubscription()
		s.authenticated.Store(false)
	case domain.StateAuthenticated:
		first := !s.authenticated.Swap(true)
		s.cancelHandshakeSubscription()
		if first {
			_ = s.controller.ForceRenew(ctx)
		}
	case domain.StateHeld:
		s.cancelHandshakeSubscription()
		s.authenticated.Store(false)
		_ = s.controller.ForceRenew(ctx)
	case domain.StateLogoff:
		if !s.isWireless {
			time.Sleep(500 * time.Millisecond)
		}
		_ = s.controller.ForceRenew(ctx)
	}

	if s.preauthEnabled && s.isWireless {
		if state == domain.StateAuthenticated {
			if ssid, ok := s.SSID(); ok && s.scanCtl != nil {
				s.scanCtl.ScheduleScan(ssid, time.Duration(s.scanDelayAuthSecs)*time.Second)
			}
		} else {
			if s.scanCtl != nil {
				s.scanCtl.CancelScan()
			}
			s.markAllPreAuthForRemoval()
		}
	}
}

func (s *Source) reportPreAuthStatus(ctx context.Context, e *Endpoint, state domain.SupplicantState, clientStatus domain.EAPClientStatus) {
	switch {
	case state == domain.StateHeld:
		s.log.Info("pre-auth endpoint held, removing", "bssid", e.Name())
		e.MarkRemove()
	case state == domain.StateAuthenticated:
		s.log.Info("pre-auth endpoint complete", "bssid", e.Name())
		e.MarkRemove()
	case state == domain.StateAuthenticating && clientStatus == domain.EAPClientStatusUserInputRequired:
		s.log.Info("pre-auth endpoint needs input, removing", "bssid", e.Name())
		e.MarkRemove()
	}
}

func (s *Source) markAllPreAuthForRemoval() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ep := range s.preauth {
		ep.MarkRemove()
	}
}

// sweepRemovals is the run-loop idle observer (§4.4 deferred removal).
func (s *Source) sweepRemovals() {
	if !s.processRemovals.CompareAndSwap(true, false) {
		return
	}
	if s.inCallback.Load() > 0 {
		s.processRemovals.Store(true)
		return
	}

	s.mu.Lock()
	var removed []domain.EA
	for bssid, ep := range s.preauth {
		if ep.markedForRemoval() {
			removed = append(removed, bssid)
		}
	}
	for _, bssid := range removed {
		ep := s.preauth[bssid]
		delete(s.preauth, bssid)
		s.mu.Unlock()
		ep.free()
		telemetry.EndpointsRemoved.WithLabelValues(s.ifName).Inc()
		s.recordEvent(context.Background(), ep.Name(), "removed", "")
		s.mu.Lock()
	}
	s.mu.Unlock()
}

// scheduleHandshakeSubscription registers (idempotently) for the kernel
// 4-way-handshake-complete notification (§4.5).
func (s *Source) scheduleHandshakeSubscription() {
	if s.handshake == nil {
		return
	}
	s.cancelHandshakeSubscription()
	unsub, err := s.handshake.Subscribe(s.ifName, s.onHandshakeComplete)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.unsubHS = unsub
	s.mu.Unlock()
}

func (s *Source) cancelHandshakeSubscription() {
	s.mu.Lock()
	unsub := s.unsubHS
	s.unsubHS = nil
	s.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

func (s *Source) onHandshakeComplete() {
	s.inCallback.Add(1)
	defer s.inCallback.Add(-1)

	s.mu.RLock()
	main := s.main
	s.mu.RUnlock()
	if main == nil {
		return
	}
	if supp := main.supplicant(); supp != nil {
		if state, _ := supp.GetState(); state == domain.StateAuthenticated {
			_ = s.controller.ForceRenew(context.Background())
		}
	}
	s.cancelHandshakeSubscription()
}

// wirelessRefresh re-queries association state and reacts to changes
// (§4.5 wireless refresh).
func (s *Source) wirelessRefresh(ctx context.Context) {
	ap, associated := s.wireless.APMac(ctx)

	s.mu.Lock()
	wasAssociated := s.bssid != nil
	prevBSSID := s.bssid
	prevSSID := s.ssid
	s.mu.Unlock()

	if !associated {
		s.mu.Lock()
		s.bssid = nil
		s.ssid = nil
		s.mu.Unlock()
		s.isWPAEnterprise.Store(false)
		if s.scanCtl != nil {
			s.scanCtl.CancelScan()
		}
		s.cancelHandshakeSubscription()
		s.authenticated.Store(false)
		if wasAssociated {
			s.reportDisassociated(ctx)
		}
		return
	}

	bssidChanged := !wasAssociated || !prevBSSID.Equal(ap)
	if bssidChanged {
		if s.preauthEnabled {
			s.mu.Lock()
			ep := s.preauth[ap]
			s.mu.Unlock()
			if ep != nil {
				ep.MarkRemove()
			}

			if wasAssociated && s.scanCtl != nil {
				if ssid, ok := s.SSID(); ok {
					s.scanCtl.ScheduleScan(ssid, time.Duration(s.scanDelayRoamSecs)*time.Second)
				}
			}
		}
	}

	newSSID, _ := s.wireless.CopySSID(ctx)
	newEnterprise := s.wireless.IsWPAEnterprise(ctx)

	s.mu.Lock()
	s.bssid = &ap
	s.ssid = &newSSID
	s.mu.Unlock()
	s.isWPAEnterprise.Store(newEnterprise)

	if prevSSID != nil && *prevSSID != newSSID {
		if s.scanCtl != nil {
			s.scanCtl.CancelScan()
		}
	}
}

func (s *Source) reportDisassociated(ctx context.Context) {
	s.recordEvent(ctx, "(main)", "report_status", "disassociated")
}

// HandleScanResult processes a completed scan (§4.5 scan callback),
// spawning a pre-auth endpoint and supplicant for each newly-seen BSSID.
func (s *Source) HandleScanResult(ctx context.Context, bssids []domain.EA) {
	if len(bssids) == 0 {
		s.log.Debug("scan returned no neighbors", "if", s.ifName)
		return
	}
	mainBSSID, ok := s.mainBSSID()
	if !ok {
		s.log.Debug("scan result ignored, no main BSSID", "if", s.ifName)
		return
	}

	s.mu.RLock()
	main := s.main
	s.mu.RUnlock()
	if main == nil {
		return
	}
	mainSupp := main.supplicant()
	if mainSupp == nil {
		return
	}

	for _, bssid := range bssids {
		if bssid.Equal(mainBSSID) {
			continue
		}
		s.mu.RLock()
		_, exists := s.preauth[bssid]
		s.mu.RUnlock()
		if exists {
			continue
		}

		ep := newEndpoint(s, bssid, true)
		supp, err := s.factory.CreateWithSupplicant(ctx, ep, mainSupp)
		if err != nil {
			s.log.Debug("pre-auth supplicant creation failed", "bssid", bssid, "err", err)
			continue
		}
		ep.SetSupplicant(supp)
		if err := supp.Start(ctx); err != nil {
			ep.free()
			continue
		}

		s.mu.Lock()
		s.preauth[bssid] = ep
		s.mu.Unlock()
		telemetry.EndpointsCreated.WithLabelValues(s.ifName).Inc()
		s.recordEvent(ctx, ep.Name(), "created", "")
	}
}

func (s *Source) recordEvent(ctx context.Context, endpoint, kind, detail string) {
	if s.notify != nil {
		s.notify(endpoint, kind, detail)
	}
	if s.store == nil {
		return
	}
	_ = s.store.SaveEvent(ctx, ports.SessionEvent{
		Timestamp: time.Now(),
		IfName:    s.ifName,
		Endpoint:  endpoint,
		Kind:      kind,
		Detail:    detail,
	})
}
