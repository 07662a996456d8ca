package persistence

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lcalzada-xor/eapolsupd/internal/core/ports"
)

// PersistenceManager handles background batch writing of session events to
// storage, decoupling the transport's hot path from SQLite write latency.
type PersistenceManager struct {
	store       ports.SessionStore
	persistChan chan ports.SessionEvent
	batchSize   int
	interval    time.Duration
	enabled     bool
	mu          sync.RWMutex
}

// NewPersistenceManager creates a new manager.
func NewPersistenceManager(store ports.SessionStore, bufferSize int) *PersistenceManager {
	return &PersistenceManager{
		store:       store,
		persistChan: make(chan ports.SessionEvent, bufferSize),
		batchSize:   100,
		interval:    5 * time.Second,
		enabled:     true,
	}
}

// Persist queues a session event for persistence if enabled.
func (p *PersistenceManager) Persist(event ports.SessionEvent) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.enabled {
		return
	}
	select {
	case p.persistChan <- event:
	default:
		// Queue full; drop rather than block the run loop.
	}
}

// IsEnabled returns the current persistence status.
func (p *PersistenceManager) IsEnabled() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.enabled
}

// SetEnabled toggles the persistence logic.
func (p *PersistenceManager) SetEnabled(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = enabled
}

// SetStore updates the store adapter used for persistence.
func (p *PersistenceManager) SetStore(store ports.SessionStore) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.store = store
}

// Start begins the persistence loop.
func (p *PersistenceManager) Start(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	buffer := make([]ports.SessionEvent, 0, p.batchSize)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				p.flushBuffer(buffer)
				return
			case evt := <-p.persistChan:
				buffer = append(buffer, evt)
				if len(buffer) >= p.batchSize {
					p.flushBuffer(buffer)
					buffer = make([]ports.SessionEvent, 0, p.batchSize)
				}
			case <-ticker.C:
				if len(buffer) > 0 {
					p.flushBuffer(buffer)
					buffer = make([]ports.SessionEvent, 0, p.batchSize)
				}
			}
		}
	}()
}

func (p *PersistenceManager) flushBuffer(buffer []ports.SessionEvent) {
	if len(buffer) == 0 || p.store == nil {
		return
	}
	if err := p.store.SaveEventsBatch(context.Background(), buffer); err != nil {
		fmt.Printf("[DB-ERR] failed to batch save session events: %v\n", err)
	}
}

// SaveEvent implements ports.SessionStore by queuing the event for batched
// persistence rather than writing synchronously.
func (p *PersistenceManager) SaveEvent(ctx context.Context, event ports.SessionEvent) error {
	p.Persist(event)
	return nil
}

// SaveEventsBatch implements ports.SessionStore by writing straight through
// to the underlying store, bypassing the buffer.
func (p *PersistenceManager) SaveEventsBatch(ctx context.Context, events []ports.SessionEvent) error {
	p.mu.RLock()
	store := p.store
	p.mu.RUnlock()
	if store == nil {
		return nil
	}
	return store.SaveEventsBatch(ctx, events)
}

// ListEvents implements ports.SessionStore by delegating to the underlying
// store; the manager itself holds no events once flushed.
func (p *PersistenceManager) ListEvents(ctx context.Context, ifName string, since time.Time) ([]ports.SessionEvent, error) {
	p.mu.RLock()
	store := p.store
	p.mu.RUnlock()
	if store == nil {
		return nil, nil
	}
	return store.ListEvents(ctx, ifName, since)
}

// Close flushes nothing (the caller should cancel the context passed to
// Start first) and closes the underlying store.
func (p *PersistenceManager) Close() error {
	p.mu.RLock()
	store := p.store
	p.mu.RUnlock()
	if store == nil {
		return nil
	}
	return store.Close()
}

var _ ports.SessionStore = (*PersistenceManager)(nil)
