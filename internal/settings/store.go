package settings

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// ErrNoRecord is returned by a Persistence that has never been written.
var ErrNoRecord = errors.New("no stored record")

// Persistence is the byte-level storage collaborator.
type Persistence interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, record []byte) error
}

// Store keeps the in-memory Configuration in step with persistence.
type Store struct {
	persistence Persistence
	logger      *zap.Logger

	mu      sync.RWMutex
	current Configuration
}

func NewStore(persistence Persistence, logger *zap.Logger) *Store {
	return &Store{
		persistence: persistence,
		logger:      logger,
		current:     Default(),
	}
}

// Load reads the stored record and falls back to Default when it is absent,
// unreadable or invalid. First boot and a corrupt record are handled the same
// way, so Load never fails.
func (s *Store) Load(ctx context.Context) Configuration {
	cfg, err := s.read(ctx)
	if err != nil {
		s.logger.Warn("Stored configuration unusable, using defaults", zap.Error(err))
		cfg = Default()
	}

	s.mu.Lock()
	s.current = cfg
	s.mu.Unlock()

	s.logger.Info("Configuration loaded",
		zap.String("mode", cfg.Mode.String()),
		zap.Bool("invert_logic", cfg.InvertLogic),
		zap.Int("sensor_max_brightness", cfg.SensorMaxBrightness),
		zap.String("language", cfg.Language.String()))

	return cfg
}

func (s *Store) read(ctx context.Context) (Configuration, error) {
	data, err := s.persistence.Read(ctx)
	if err != nil {
		return Configuration{}, fmt.Errorf("failed to read record: %w", err)
	}

	cfg, err := DecodeRecord(data)
	if err != nil {
		return Configuration{}, fmt.Errorf("failed to decode record: %w", err)
	}

	if !cfg.Valid() {
		return Configuration{}, fmt.Errorf("invalid record: mode=%d language=%d sensor_max=%d",
			int32(cfg.Mode), int32(cfg.Language), cfg.SensorMaxBrightness)
	}

	return cfg, nil
}

// Save writes cfg synchronously. The in-memory copy is replaced only after
// the write succeeded, so both always hold the same record.
func (s *Store) Save(ctx context.Context, cfg Configuration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persistence.Write(ctx, EncodeRecord(cfg)); err != nil {
		s.logger.Error("Failed to persist configuration", zap.Error(err))
		return fmt.Errorf("failed to persist configuration: %w", err)
	}

	s.current = cfg
	return nil
}

// Get returns a copy of the current record.
func (s *Store) Get() Configuration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Apply merges a partial update into the current record and saves it.
func (s *Store) Apply(ctx context.Context, u Update) (Configuration, error) {
	next := u.ApplyTo(s.Get())
	if err := s.Save(ctx, next); err != nil {
		return s.Get(), err
	}
	return next, nil
}
