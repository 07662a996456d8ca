// Package wireless implements the wireless adapter port (§6) against the
// "iw" command-line tool, in the same command-executor-seam style as the
// teacher's original driver package.
package wireless

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"sync"

	"github.com/lcalzada-xor/eapolsupd/internal/core/domain"
)

// CommandExecutor abstracts external command execution for testing.
type CommandExecutor interface {
	Execute(ctx context.Context, name string, args ...string) ([]byte, error)
}

// SystemCommandExecutor runs commands via os/exec.
type SystemCommandExecutor struct{}

func (SystemCommandExecutor) Execute(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}

var reConnectedTo = regexp.MustCompile(`Connected to ([0-9a-fA-F:]{17})`)
var reSSID = regexp.MustCompile(`SSID:\s*(\S+)`)
var reBSS = regexp.MustCompile(`^BSS ([0-9a-fA-F:]{17})`)

// Adapter implements ports.WirelessAdapter against "iw dev <if> ...".
// SetKey and SetWPAPMK are deliberately thin: actual key material install
// happens over nl80211 in the kernel driver stack, out of scope for a
// CLI-shelled adapter. Neither installs or logs anything: SetWPAPMK always
// succeeds, and SetKey succeeds for any non-empty key and fails on an
// empty one.
type Adapter struct {
	exec CommandExecutor

	mu        sync.Mutex
	ifName    string
	cancelScan context.CancelFunc
}

func New(exec CommandExecutor) *Adapter {
	if exec == nil {
		exec = SystemCommandExecutor{}
	}
	return &Adapter{exec: exec}
}

func (a *Adapter) Bind(ctx context.Context, ifName string) error {
	a.mu.Lock()
	a.ifName = ifName
	a.mu.Unlock()
	_, err := a.exec.Execute(ctx, "iw", "dev", ifName, "info")
	return err
}

func (a *Adapter) Free() {
	a.mu.Lock()
	cancel := a.cancelScan
	a.cancelScan = nil
	a.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (a *Adapter) iface() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ifName
}

func (a *Adapter) linkOutput(ctx context.Context) ([]byte, error) {
	return a.exec.Execute(ctx, "iw", "dev", a.iface(), "link")
}

func (a *Adapter) APMac(ctx context.Context) (domain.EA, bool) {
	out, err := a.linkOutput(ctx)
	if err != nil {
		return domain.ZeroEA, false
	}
	m := reConnectedTo.FindSubmatch(out)
	if m == nil {
		return domain.ZeroEA, false
	}
	ea, err := domain.ParseEA(string(m[1]))
	if err != nil {
		return domain.ZeroEA, false
	}
	return ea, true
}

func (a *Adapter) CopySSID(ctx context.Context) (string, bool) {
	out, err := a.linkOutput(ctx)
	if err != nil {
		return "", false
	}
	m := reSSID.FindSubmatch(out)
	if m == nil {
		return "", false
	}
	return string(m[1]), true
}

// IsWPAEnterprise reports whether the current association uses 802.1X key
// management, inferred from the "iw dev <if> link" output: true when it
// mentions "WPA" but neither "WPA2-PSK" nor "WPA1-PSK" (absent a direct
// nl80211 query via the CLI).
func (a *Adapter) IsWPAEnterprise(ctx context.Context) bool {
	out, err := a.linkOutput(ctx)
	if err != nil {
		return false
	}
	s := string(out)
	return strings.Contains(s, "WPA") && !strings.Contains(s, "WPA2-PSK") && !strings.Contains(s, "WPA1-PSK")
}

func (a *Adapter) SetKey(keyType int, index int, key []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("wireless: empty key")
	}
	return nil
}

func (a *Adapter) SetWPAPMK(bssid *domain.EA, key []byte) error {
	return nil
}

// Scan shells "iw dev <if> scan" and parses the returned BSS blocks. It
// runs synchronously from the caller's goroutine; cb is always invoked
// before Scan returns.
func (a *Adapter) Scan(ctx context.Context, ssid string, count int, cb func(bssids []domain.EA, err error)) {
	scanCtx, cancel := context.WithCancel(ctx)
	a.mu.Lock()
	a.cancelScan = cancel
	a.mu.Unlock()
	defer cancel()

	var bssids []domain.EA
	var lastErr error
	attempts := count
	if attempts < 1 {
		attempts = 1
	}

	for i := 0; i < attempts; i++ {
		out, err := a.exec.Execute(scanCtx, "iw", "dev", a.iface(), "scan")
		if err != nil {
			lastErr = err
			continue
		}
		bssids = append(bssids[:0], parseScanBSSIDs(out)...)
		lastErr = nil
		break
	}

	cb(bssids, lastErr)
}

func (a *Adapter) ScanCancel() {
	a.mu.Lock()
	cancel := a.cancelScan
	a.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func parseScanBSSIDs(out []byte) []domain.EA {
	var result []domain.EA
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		m := reBSS.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		ea, err := domain.ParseEA(m[1])
		if err != nil {
			continue
		}
		result = append(result, ea)
	}
	return result
}
