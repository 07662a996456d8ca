// Package app wires the EAPOL transport core's adapters together and runs
// the daemon end to end: link socket, wireless control, controller client,
// supplicant factory, scan orchestration, session/user storage, and the
// control HTTP surface.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"

	"github.com/lcalzada-xor/eapolsupd/internal/adapters/controller"
	"github.com/lcalzada-xor/eapolsupd/internal/adapters/linksocket"
	sessionstore "github.com/lcalzada-xor/eapolsupd/internal/adapters/persistence"
	"github.com/lcalzada-xor/eapolsupd/internal/adapters/runloop"
	"github.com/lcalzada-xor/eapolsupd/internal/adapters/scan"
	"github.com/lcalzada-xor/eapolsupd/internal/adapters/storage"
	"github.com/lcalzada-xor/eapolsupd/internal/adapters/supplicant"
	"github.com/lcalzada-xor/eapolsupd/internal/adapters/transport"
	webserver "github.com/lcalzada-xor/eapolsupd/internal/adapters/web/server"
	"github.com/lcalzada-xor/eapolsupd/internal/adapters/wireless"
	"github.com/lcalzada-xor/eapolsupd/internal/config"
	"github.com/lcalzada-xor/eapolsupd/internal/core/domain"
	"github.com/lcalzada-xor/eapolsupd/internal/core/services/auth"
	persistencesvc "github.com/lcalzada-xor/eapolsupd/internal/core/services/persistence"
	"github.com/lcalzada-xor/eapolsupd/internal/telemetry"
)

// Application bootstraps and owns every adapter for one transport source,
// mirroring the original daemon's single-process-per-interface model.
type Application struct {
	cfg *config.Config
	log *slog.Logger

	loop        *runloop.Loop
	socket      linksocket.Socket
	sessionDB   *sessionstore.Store
	userDB      *storage.UserStore
	persistence *persistencesvc.PersistenceManager
	source      *transport.Source
	scanOrch    *scan.Orchestrator
	controlSrv  *webserver.Server

	shutdownTracer func(context.Context) error
}

// New constructs the Application without starting anything; call Run to
// start the run loop and block.
func New(cfg *config.Config) (*Application, error) {
	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	ether, err := interfaceHardwareAddr(cfg.Interface)
	if err != nil {
		return nil, fmt.Errorf("resolve interface %s: %w", cfg.Interface, err)
	}

	telemetry.InitMetrics()
	shutdownTracer, err := telemetry.InitTracer()
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	sessionDB, err := sessionstore.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	persistence := persistencesvc.NewPersistenceManager(sessionDB, 4096)

	userDB, err := storage.Open(cfg.DBPath + ".users")
	if err != nil {
		return nil, fmt.Errorf("open user store: %w", err)
	}
	authService := auth.NewAuthService(userDB)

	if _, err := userDB.GetByUsername(context.Background(), "admin"); err != nil {
		log.Info("creating default admin operator account")
		if err := authService.CreateUser(context.Background(), domain.User{
			Username: "admin",
			Role:     domain.RoleAdmin,
		}, "changeit"); err != nil {
			log.Error("failed to create default admin account", "error", err)
		}
	}

	loop := runloop.New()
	linkWatcher := runloop.NewLinkWatcher(loop)
	handshake := runloop.NewHandshakeNotifier()

	sock, err := linksocket.Open(linksocket.Config{IfName: cfg.Interface, Wireless: cfg.IsWireless})
	if err != nil {
		return nil, fmt.Errorf("open link socket: %w", err)
	}

	wirelessAdapter := wireless.New(wireless.SystemCommandExecutor{})
	ctrlClient := controller.New(log, persistence)
	factory := supplicant.NewFactory(log)

	// scan.Orchestrator needs a result handler before the Source it targets
	// exists, and the Source needs the orchestrator (as its
	// transport.ScanController) before it can be constructed. Break the
	// cycle with a forward-declared source variable the closure captures;
	// nothing can schedule a scan before Create returns and the source
	// starts handling link/status events.
	var source *transport.Source
	scanOrch := scan.NewOrchestrator(scan.Config{
		ScanPeriodSeconds: cfg.Preauth.ScanPeriodSeconds,
		NumberOfScans:     cfg.Preauth.NumberOfScans,
		IfName:            cfg.Interface,
	}, wirelessAdapter, loop, func(ctx context.Context, bssids []domain.EA) {
		source.HandleScanResult(ctx, bssids)
	}, log)

	ctx := context.Background()
	source, controlDict, err := transport.Create(ctx, cfg.Interface, ether, cfg.IsWireless, transport.Config{
		EnablePreauthentication:       cfg.Preauth.EnablePreauthentication,
		ScanDelayAuthenticatedSeconds: cfg.Preauth.ScanDelayAuthenticatedSeconds,
		ScanDelayRoamSeconds:          cfg.Preauth.ScanDelayRoamSeconds,
		Debug:                         cfg.Debug,
	}, transport.Deps{
		Socket:       sock,
		Wireless:     wirelessAdapter,
		Controller:   ctrlClient,
		Factory:      factory,
		LinkWatcher:  linkWatcher,
		TimerFactory: loop,
		RunLoop:      loop,
		FDDispatcher: loop,
		Handshake:    handshake,
		SessionStore: persistence,
		ScanCtl:      scanOrch,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("create transport source: %w", err)
	}

	systemMode := parseControlMode(cfg.Mode)
	if _, err := source.CreateMainSupplicant(ctx, controlDict, systemMode); err != nil {
		return nil, fmt.Errorf("create main supplicant: %w", err)
	}

	controlSrv := webserver.NewServer(cfg.Addr, source, authService, persistence)

	return &Application{
		cfg:            cfg,
		log:            log,
		loop:           loop,
		socket:         sock,
		sessionDB:      sessionDB,
		userDB:         userDB,
		persistence:    persistence,
		source:         source,
		scanOrch:       scanOrch,
		controlSrv:     controlSrv,
		shutdownTracer: shutdownTracer,
	}, nil
}

// Run starts the persistence loop, the control HTTP server, and the run
// loop, blocking until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	a.persistence.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.controlSrv.Run(ctx)
	}()

	go func() {
		<-ctx.Done()
		a.loop.Stop()
	}()

	a.loop.Run()

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

// Close tears down every adapter in reverse order of acquisition.
func (a *Application) Close(ctx context.Context) error {
	if a.source != nil {
		a.source.Free(ctx)
	}
	a.scanOrch.CancelScan()
	_ = a.socket.Close()
	_ = a.userDB.Close()
	_ = a.sessionDB.Close()
	if a.shutdownTracer != nil {
		_ = a.shutdownTracer(ctx)
	}
	return nil
}

func parseControlMode(mode string) domain.ControlMode {
	switch mode {
	case "user":
		return domain.ModeUser
	case "login-window":
		return domain.ModeLoginWindow
	case "system":
		return domain.ModeSystem
	default:
		return domain.ModeSystem
	}
}

func interfaceHardwareAddr(ifName string) (domain.EA, error) {
	var ea domain.EA
	iface, err := net.InterfaceByName(ifName)
	if err != nil {
		return ea, err
	}
	if len(iface.HardwareAddr) != 6 {
		return ea, fmt.Errorf("interface %s has no 6-byte hardware address", ifName)
	}
	copy(ea[:], iface.HardwareAddr)
	return ea, nil
}
