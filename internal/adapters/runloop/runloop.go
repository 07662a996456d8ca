//go:build linux

// Package runloop implements the single-threaded cooperative event loop
// the transport core assumes (§5): one goroutine serializes every
// callback (FD readability, timers, idle sweep), exactly as the original
// run-loop substrate does. Timer, RunLoopObserver and FDDispatcher are
// the contracts the transport holds this loop through. FD watching uses
// Linux epoll (fdwatch_linux.go), like the rest of the raw-socket path.
package runloop

import (
	"sync"
	"time"

	"github.com/lcalzada-xor/eapolsupd/internal/core/ports"
)

// Loop is the single goroutine all callbacks are serialized onto. Every
// port method just enqueues work; Run drains the queue and never calls
// back into itself concurrently.
type Loop struct {
	mu      sync.Mutex
	idle    []func()
	actions chan func()
	done    chan struct{}
	fdw     *fdWatcher
}

func New() *Loop {
	return &Loop{
		actions: make(chan func(), 256),
		done:    make(chan struct{}),
	}
}

// Run drains queued actions until Stop is called, invoking the idle
// observers between each batch — the run-loop's "idle-before-wait" point
// (§4.4 deferred removal).
func (l *Loop) Run() {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case fn := <-l.actions:
			fn()
			l.runIdle()
		case <-ticker.C:
			l.runIdle()
		}
	}
}

func (l *Loop) Stop() {
	close(l.done)
}

func (l *Loop) runIdle() {
	l.mu.Lock()
	fns := append([]func(){}, l.idle...)
	l.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Post enqueues fn to run on the loop goroutine. Safe to call from any
// goroutine (e.g. an OS thread blocked in a blocking driver call).
func (l *Loop) Post(fn func()) {
	select {
	case l.actions <- fn:
	case <-l.done:
	}
}

// OnIdle implements ports.RunLoopObserver.
func (l *Loop) OnIdle(fn func()) {
	l.mu.Lock()
	l.idle = append(l.idle, fn)
	l.mu.Unlock()
}

// timer implements ports.Timer over time.AfterFunc, posting its fire back
// onto the loop so it still runs serialized with everything else.
type timer struct {
	loop *Loop
	mu   sync.Mutex
	t    *time.Timer
}

func (l *Loop) NewTimer() ports.Timer { return &timer{loop: l} }

var _ ports.TimerFactory = (*Loop)(nil)
var _ ports.RunLoopObserver = (*Loop)(nil)

func (t *timer) Schedule(d time.Duration, fn func()) {
	t.mu.Lock()
	if t.t != nil {
		t.t.Stop()
	}
	t.t = time.AfterFunc(d, func() {
		t.loop.Post(fn)
	})
	t.mu.Unlock()
}

func (t *timer) Stop() {
	t.mu.Lock()
	if t.t != nil {
		t.t.Stop()
		t.t = nil
	}
	t.mu.Unlock()
}
