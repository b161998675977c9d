package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/KevinKickass/OpenDimmer/internal/settings"
)

// EEPROM emulates a byte-addressable non-volatile memory with an image
// file. The settings record lives at a fixed offset; bytes around it are
// left untouched.
type EEPROM struct {
	path   string
	offset int64

	mu sync.Mutex
}

func NewEEPROM(path string, offset int64) *EEPROM {
	return &EEPROM{path: path, offset: offset}
}

// Read returns the RecordSize bytes at the configured offset. A missing or
// too short image reports settings.ErrNoRecord; whatever bytes are present
// are returned as-is otherwise, garbage included.
func (e *EEPROM) Read(ctx context.Context) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	f, err := os.Open(e.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, settings.ErrNoRecord
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open eeprom image: %w", err)
	}
	defer f.Close()

	buf := make([]byte, settings.RecordSize)
	n, err := f.ReadAt(buf, e.offset)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read eeprom image: %w", err)
	}
	if n < settings.RecordSize {
		return nil, settings.ErrNoRecord
	}

	return buf, nil
}

// Write stores record at the configured offset and syncs the file before
// returning.
func (e *EEPROM) Write(ctx context.Context, record []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(e.path), 0o755); err != nil {
		return fmt.Errorf("failed to create eeprom directory: %w", err)
	}

	f, err := os.OpenFile(e.path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open eeprom image: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteAt(record, e.offset); err != nil {
		return fmt.Errorf("failed to write eeprom image: %w", err)
	}

	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to commit eeprom image: %w", err)
	}

	return nil
}
