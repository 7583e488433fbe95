// Package journal keeps a durable log of every navigation notice so
// journeys can be reviewed after the run.
package journal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/opd-ai/go-autopilot/pkg/config"
	"github.com/opd-ai/go-autopilot/pkg/event"
	"github.com/opd-ai/go-autopilot/pkg/logging"
)

// ErrClosed is returned by a store after Close.
var ErrClosed = errors.New("journal closed")

// Entry is one recorded notice.
type Entry struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	VesselID   uint64    `gorm:"index" json:"vesselId"`
	JourneyID  string    `gorm:"index;size:32" json:"journeyId"`
	Kind       string    `gorm:"size:64" json:"kind"`
	ObstacleID uint64    `json:"obstacleId,omitempty"`
	Message    string    `json:"message"`
	Tick       uint64    `json:"tick"`
	RecordedAt time.Time `json:"recordedAt"`
}

// TableName overrides the gorm default.
func (Entry) TableName() string {
	return "journal_entries"
}

// Store writes entries to SQLite through gorm.
type Store struct {
	db     *gorm.DB
	logger *logging.Logger

	mu     sync.Mutex
	subs   []*event.Subscription
	closed bool
}

// Open connects to the journal database at cfg.Path, or to a private
// in-memory database when the path is empty, and migrates the schema.
func Open(cfg config.JournalConfig, logger *logging.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.Discard()
	}

	dsn := cfg.Path
	if dsn == "" {
		dsn = fmt.Sprintf("file:journal-%s?mode=memory&cache=shared", logging.GenerateCorrelationID())
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open journal %q: %w", dsn, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access journal connection: %w", err)
	}
	// SQLite serializes writers; one connection keeps a memory database alive.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&Entry{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate journal schema: %w", err)
	}

	logger.Info(context.Background(), "journal opened", "path", cfg.Path)
	return &Store{db: db, logger: logger}, nil
}

// Attach records every navigation event published on bus until Close.
func (s *Store) Attach(bus *event.Bus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, typ := range event.NavigationTypes {
		s.subs = append(s.subs, bus.Subscribe(typ, s.handleEvent))
	}
}

func (s *Store) handleEvent(e event.Event) {
	ev, ok := e.(*event.NavigationEvent)
	if !ok {
		return
	}
	if err := s.Record(ev); err != nil {
		ctx := logging.WithCorrelationID(context.Background(), ev.JourneyID)
		s.logger.Error(ctx, "failed to record navigation event", err,
			"vessel_id", ev.VesselID,
			"type", string(ev.GetType()),
		)
	}
}

// Record stores one navigation event.
func (s *Store) Record(ev *event.NavigationEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	recordedAt := ev.Time
	if recordedAt.IsZero() {
		recordedAt = time.Now()
	}
	entry := Entry{
		VesselID:   ev.VesselID,
		JourneyID:  ev.JourneyID,
		Kind:       string(ev.GetType()),
		ObstacleID: ev.ObstacleID,
		Message:    ev.Message,
		Tick:       ev.Tick,
		RecordedAt: recordedAt.UTC(),
	}
	if err := s.db.Create(&entry).Error; err != nil {
		return fmt.Errorf("insert journal entry: %w", err)
	}
	return nil
}

// History returns a vessel's entries, oldest first.
func (s *Store) History(vesselID uint64) ([]Entry, error) {
	return s.find("vessel_id = ?", vesselID)
}

// Journey returns the entries of one journey, oldest first.
func (s *Store) Journey(journeyID string) ([]Entry, error) {
	return s.find("journey_id = ?", journeyID)
}

func (s *Store) find(query string, arg any) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	var entries []Entry
	if err := s.db.Where(query, arg).Order("id").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	return entries, nil
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrClosed
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close detaches from the bus and closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	for _, sub := range s.subs {
		sub.Cancel()
	}
	s.subs = nil

	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
