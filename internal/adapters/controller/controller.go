// Package controller implements the system-wide EAPOL controller RPC
// client port (§6). No RPC wire protocol is specified by the transport
// itself (§1 places the controller's own transport out of scope), so this
// is a local, logging-only client: status reports and force-renew calls
// are written to the structured log rather than shipped over a network.
// The SessionStore passed to New is held but never written to.
package controller

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lcalzada-xor/eapolsupd/internal/core/domain"
	"github.com/lcalzada-xor/eapolsupd/internal/core/ports"
	"github.com/lcalzada-xor/eapolsupd/internal/telemetry"
)

// Client is a local stand-in for the controller RPC client: it always
// attaches successfully with an empty (but present) Configuration key, and
// logs every status report and force-renew instead of forwarding them to a
// remote controller process.
type Client struct {
	log    *slog.Logger
	store  ports.SessionStore
	ifName string

	notify func(serverDied bool)
}

func New(log *slog.Logger, store ports.SessionStore) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{log: log, store: store}
}

// Attach registers the death-notification callback and returns a minimal
// control dict carrying a Configuration key, so create_supplicant never
// fails with "configuration empty" against this default client.
func (c *Client) Attach(ctx context.Context, ifName string, notify func(serverDied bool)) (domain.ControlDict, error) {
	c.notify = notify
	c.ifName = ifName
	c.log.Info("controller attached", "if", ifName)
	return domain.ControlDict{
		"command":       domain.ControlCommandRun,
		"Configuration": map[string]any{},
	}, nil
}

func (c *Client) Detach(ctx context.Context) error {
	c.log.Info("controller detached")
	c.notify = nil
	return nil
}

func (c *Client) ReportStatus(ctx context.Context, dict domain.StatusDict) error {
	c.log.Info("report_status", "status", dict)
	telemetry.ControllerReports.WithLabelValues(c.ifName, statusLabel(dict)).Inc()
	return nil
}

// statusLabel pulls a low-cardinality "state" label out of an otherwise
// opaque status dict, falling back to "unknown" when the key is absent or
// neither a string nor a fmt.Stringer (the dict's shape is up to whatever
// supplicant built it).
func statusLabel(dict domain.StatusDict) string {
	if v, ok := dict["state"]; ok {
		if s, ok := v.(fmt.Stringer); ok {
			return s.String()
		}
		if s, ok := v.(string); ok {
			return s
		}
	}
	return "unknown"
}

func (c *Client) ForceRenew(ctx context.Context) error {
	c.log.Debug("force_renew")
	return nil
}

// NotifyServerDied is exposed for a host process to simulate the
// controller process disappearing (e.g. on SIGTERM of a supervising
// daemon), driving the transport's server_died handling (§4.4).
func (c *Client) NotifyServerDied() {
	if c.notify != nil {
		c.notify(true)
	}
}

var _ ports.ControllerClient = (*Client)(nil)
