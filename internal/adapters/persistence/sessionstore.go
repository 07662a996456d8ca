// Package persistence implements the append-only session-event store
// (SPEC_FULL §B) using GORM and SQLite, adapted from the same
// WAL/busy-timeout/batched-upsert pattern the teacher's device storage
// adapter uses, minus the upsert: session events are insert-only.
package persistence

import (
	"context"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/lcalzada-xor/eapolsupd/internal/core/ports"
)

// eventModel is the GORM row for a SessionEvent.
type eventModel struct {
	ID        uint `gorm:"primaryKey"`
	Timestamp time.Time `gorm:"index"`
	IfName    string    `gorm:"index"`
	Endpoint  string
	Kind      string
	State     string
	Detail    string
}

func (eventModel) TableName() string { return "session_events" }

// Store implements ports.SessionStore.
type Store struct {
	db *gorm.DB
}

// Open migrates the schema and tunes SQLite for a single-writer,
// many-reader append-only workload.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&eventModel{}); err != nil {
		return nil, err
	}
	if err := db.Use(tracing.NewPlugin()); err != nil {
		return nil, err
	}

	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA busy_timeout=5000;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_session_events_if_ts ON session_events(if_name, timestamp)")

	return &Store{db: db}, nil
}

func (s *Store) SaveEvent(ctx context.Context, event ports.SessionEvent) error {
	model := toModel(event)
	return s.db.WithContext(ctx).Create(&model).Error
}

func (s *Store) SaveEventsBatch(ctx context.Context, events []ports.SessionEvent) error {
	if len(events) == 0 {
		return nil
	}
	models := make([]eventModel, len(events))
	for i, e := range events {
		models[i] = toModel(e)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(models, 100).Error
	})
}

func (s *Store) ListEvents(ctx context.Context, ifName string, since time.Time) ([]ports.SessionEvent, error) {
	var models []eventModel
	q := s.db.WithContext(ctx).Order("timestamp asc")
	if ifName != "" {
		q = q.Where("if_name = ?", ifName)
	}
	if !since.IsZero() {
		q = q.Where("timestamp >= ?", since)
	}
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}

	events := make([]ports.SessionEvent, len(models))
	for i, m := range models {
		events[i] = ports.SessionEvent{
			ID:        m.ID,
			Timestamp: m.Timestamp,
			IfName:    m.IfName,
			Endpoint:  m.Endpoint,
			Kind:      m.Kind,
			State:     m.State,
			Detail:    m.Detail,
		}
	}
	return events, nil
}

func (s *Store) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}

func toModel(e ports.SessionEvent) eventModel {
	return eventModel{
		Timestamp: e.Timestamp,
		IfName:    e.IfName,
		Endpoint:  e.Endpoint,
		Kind:      e.Kind,
		State:     e.State,
		Detail:    e.Detail,
	}
}

var _ ports.SessionStore = (*Store)(nil)
