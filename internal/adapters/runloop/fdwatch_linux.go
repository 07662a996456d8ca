//go:build linux

package runloop

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/lcalzada-xor/eapolsupd/internal/core/ports"
)

// fdWatcher runs one epoll instance per Loop on a dedicated goroutine,
// posting each readable fd's callback back onto the loop so it still runs
// serialized with timers and the idle sweep.
type fdWatcher struct {
	mu     sync.Mutex
	epfd   int
	cbs    map[int]func()
	loop   *Loop
	closed chan struct{}
}

func newFDWatcher(l *Loop) (*fdWatcher, error) {
	epfd, err := unix.EpollCreate1(0)
	if err != nil {
		return nil, fmt.Errorf("runloop: epoll_create1: %w", err)
	}
	w := &fdWatcher{epfd: epfd, cbs: make(map[int]func()), loop: l, closed: make(chan struct{})}
	go w.poll()
	return w, nil
}

func (w *fdWatcher) poll() {
	events := make([]unix.EpollEvent, 32)
	for {
		select {
		case <-w.closed:
			return
		default:
		}
		n, err := unix.EpollWait(w.epfd, events, 250)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return
		}
		for i := 0; i < n; i++ {
			fd := int(events[i].Fd)
			w.mu.Lock()
			cb := w.cbs[fd]
			w.mu.Unlock()
			if cb != nil {
				w.loop.Post(cb)
			}
		}
	}
}

func (w *fdWatcher) watch(fd int, cb func()) (func(), error) {
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
	if err := unix.EpollCtl(w.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return nil, fmt.Errorf("runloop: epoll_ctl add: %w", err)
	}
	w.mu.Lock()
	w.cbs[fd] = cb
	w.mu.Unlock()

	return func() {
		w.mu.Lock()
		delete(w.cbs, fd)
		w.mu.Unlock()
		_ = unix.EpollCtl(w.epfd, unix.EPOLL_CTL_DEL, fd, nil)
	}, nil
}

func (w *fdWatcher) close() {
	close(w.closed)
	_ = unix.Close(w.epfd)
}

// WatchReadable implements ports.FDDispatcher, lazily starting the
// loop's epoll goroutine on first use.
func (l *Loop) WatchReadable(fd int, cb func()) (func(), error) {
	l.mu.Lock()
	if l.fdw == nil {
		w, err := newFDWatcher(l)
		if err != nil {
			l.mu.Unlock()
			return nil, err
		}
		l.fdw = w
	}
	fdw := l.fdw
	l.mu.Unlock()
	return fdw.watch(fd, cb)
}

var _ ports.FDDispatcher = (*Loop)(nil)
