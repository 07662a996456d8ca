//go:build linux

package runloop

import (
	"net"
	"sync"
	"time"

	"github.com/lcalzada-xor/eapolsupd/internal/core/domain"
	"github.com/lcalzada-xor/eapolsupd/internal/core/ports"
)

// LinkWatcher polls an interface's running (carrier) and up
// (administrative) flags through net.InterfaceByName once per interval,
// posting changes onto a Loop. It polls instead of subscribing to
// rtnetlink, and uses only the standard library.
type LinkWatcher struct {
	loop     *Loop
	interval time.Duration
}

func NewLinkWatcher(loop *Loop) *LinkWatcher {
	return &LinkWatcher{loop: loop, interval: time.Second}
}

func (w *LinkWatcher) Subscribe(ifName string, cb func(domain.LinkState)) (func(), error) {
	stop := make(chan struct{})
	var mu sync.Mutex
	var last domain.LinkState
	have := false

	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				state, err := readLinkState(ifName)
				if err != nil {
					continue
				}
				mu.Lock()
				changed := !have || state != last
				last = state
				have = true
				mu.Unlock()
				if changed {
					w.loop.Post(func() { cb(state) })
				}
			}
		}
	}()

	return func() { close(stop) }, nil
}

func readLinkState(ifName string) (domain.LinkState, error) {
	iface, err := net.InterfaceByName(ifName)
	if err != nil {
		return domain.LinkState{}, err
	}
	// FlagRunning tracks carrier; FlagUp tracks the administrative state.
	return domain.LinkState{
		Active:  iface.Flags&net.FlagRunning != 0,
		AdminUp: iface.Flags&net.FlagUp != 0,
	}, nil
}

var _ ports.LinkWatcher = (*LinkWatcher)(nil)
