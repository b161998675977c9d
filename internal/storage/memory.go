package storage

import (
	"context"
	"sync"

	"github.com/KevinKickass/OpenDimmer/internal/settings"
)

// Memory keeps the record in RAM. Nothing survives a restart.
type Memory struct {
	mu   sync.RWMutex
	data []byte
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Read(ctx context.Context) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.data == nil {
		return nil, settings.ErrNoRecord
	}
	return append([]byte(nil), m.data...), nil
}

func (m *Memory) Write(ctx context.Context, record []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data = append([]byte(nil), record...)
	return nil
}
