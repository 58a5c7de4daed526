package device

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// SnapshotStore defines the interface for catalogue snapshot persistence.
// This abstraction allows for different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
//
// The snapshot is not event history: it holds only the current catalogue
// so a restart can warm the registry before the device source answers.
type SnapshotStore interface {
	// Save replaces the stored snapshot with the given records.
	Save(ctx context.Context, records []DeviceRecord) error

	// Load retrieves the stored snapshot. An empty slice means no
	// snapshot has been taken yet.
	Load(ctx context.Context) ([]DeviceRecord, error)
}

// SQLiteSnapshotStore implements SnapshotStore using SQLite.
type SQLiteSnapshotStore struct {
	db *sql.DB
}

// NewSQLiteSnapshotStore creates a SQLite-backed snapshot store and
// ensures its table exists.
func NewSQLiteSnapshotStore(db *sql.DB) (*SQLiteSnapshotStore, error) {
	const schema = `
		CREATE TABLE IF NOT EXISTS device_snapshot (
			id           TEXT PRIMARY KEY,
			name         TEXT NOT NULL,
			room         TEXT NOT NULL DEFAULT '',
			capabilities TEXT NOT NULL DEFAULT '[]',
			online       INTEGER NOT NULL DEFAULT 0,
			last_seen    TEXT NOT NULL,
			manufacturer TEXT NOT NULL DEFAULT '',
			model        TEXT NOT NULL DEFAULT ''
		)`

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("creating snapshot table: %w", err)
	}
	return &SQLiteSnapshotStore{db: db}, nil
}

// Save replaces the stored snapshot with the given records in a single
// transaction, mirroring the registry's wholesale-replacement semantics.
func (s *SQLiteSnapshotStore) Save(ctx context.Context, records []DeviceRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting snapshot transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // No-op if committed

	if _, err := tx.ExecContext(ctx, `DELETE FROM device_snapshot`); err != nil {
		return fmt.Errorf("clearing snapshot: %w", err)
	}

	const insert = `
		INSERT INTO device_snapshot
			(id, name, room, capabilities, online, last_seen, manufacturer, model)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	for _, rec := range records {
		caps, err := json.Marshal(rec.Capabilities)
		if err != nil {
			return fmt.Errorf("marshalling capabilities for %s: %w", rec.ID, err)
		}

		online := 0
		if rec.Online {
			online = 1
		}

		if _, err := tx.ExecContext(ctx, insert,
			rec.ID, rec.Name, rec.Room, string(caps), online,
			rec.LastSeen.UTC().Format(time.RFC3339Nano),
			rec.Manufacturer, rec.Model,
		); err != nil {
			return fmt.Errorf("inserting snapshot row %s: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing snapshot: %w", err)
	}
	return nil
}

// Load retrieves the stored snapshot.
func (s *SQLiteSnapshotStore) Load(ctx context.Context) ([]DeviceRecord, error) {
	const query = `
		SELECT id, name, room, capabilities, online, last_seen, manufacturer, model
		FROM device_snapshot
		ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying snapshot: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only rows

	var records []DeviceRecord
	for rows.Next() {
		var (
			rec      DeviceRecord
			caps     string
			online   int
			lastSeen string
		)
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Room, &caps, &online,
			&lastSeen, &rec.Manufacturer, &rec.Model); err != nil {
			return nil, fmt.Errorf("scanning snapshot row: %w", err)
		}

		if err := json.Unmarshal([]byte(caps), &rec.Capabilities); err != nil {
			return nil, fmt.Errorf("unmarshalling capabilities for %s: %w", rec.ID, err)
		}
		rec.Online = online == 1
		if ts, err := time.Parse(time.RFC3339Nano, lastSeen); err == nil {
			rec.LastSeen = ts
		}

		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshot rows: %w", err)
	}

	return records, nil
}
