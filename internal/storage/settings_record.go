package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KevinKickass/OpenDimmer/internal/settings"
	"github.com/jackc/pgx/v5"
)

// SettingsRecord mirrors one row of controller_settings.
type SettingsRecord struct {
	Slot      int       `json:"slot"`
	Record    []byte    `json:"record"` // BYTEA, settings.RecordSize bytes
	UpdatedAt time.Time `json:"updated_at"`
}

// RecordTable stores the settings record as an opaque blob in PostgreSQL.
// Each slot holds one controller's record.
type RecordTable struct {
	client *PostgresClient
	slot   int
}

func NewRecordTable(client *PostgresClient, slot int) *RecordTable {
	return &RecordTable{client: client, slot: slot}
}

// EnsureSchema creates the backing table if it does not exist yet.
func (t *RecordTable) EnsureSchema(ctx context.Context) error {
	_, err := t.client.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS controller_settings (
			slot       INTEGER PRIMARY KEY,
			record     BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create controller_settings: %w", err)
	}
	return nil
}

func (t *RecordTable) Read(ctx context.Context) ([]byte, error) {
	var rec SettingsRecord
	err := t.client.pool.QueryRow(ctx, `
		SELECT slot, record, updated_at
		FROM controller_settings
		WHERE slot = $1
	`, t.slot).Scan(&rec.Slot, &rec.Record, &rec.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, settings.ErrNoRecord
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query settings record: %w", err)
	}

	return rec.Record, nil
}

// Write upserts the record inside a transaction; it returns after commit.
func (t *RecordTable) Write(ctx context.Context, record []byte) error {
	tx, err := t.client.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO controller_settings (slot, record, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (slot) DO UPDATE
		SET record = EXCLUDED.record, updated_at = EXCLUDED.updated_at
	`, t.slot, record)
	if err != nil {
		return fmt.Errorf("failed to upsert settings record: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
