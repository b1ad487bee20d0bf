package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/activitystats/internal/telemetry/tracing"

	_ "modernc.org/sqlite"
)

type SqliteStore struct {
	db *sql.DB
}

func OpenSqliteStore(path string) (*SqliteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// a single writer keeps sqlite from returning SQLITE_BUSY on concurrent ingests
	db.SetMaxOpenConns(1)
	return &SqliteStore{db: db}, nil
}

func (s *SqliteStore) Close() error {
	return s.db.Close()
}

func (s *SqliteStore) InitSchema(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS activity_snapshot (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	data TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create snapshot table: %w", err)
	}
	return nil
}

func (s *SqliteStore) Load(ctx context.Context) (_ Snapshot, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "snapshot.sqlite.load")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var data string
	err = s.db.QueryRowContext(ctx, `SELECT data FROM activity_snapshot WHERE id = 1`).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Snapshot{}, ErrNotFound
		}
		return Snapshot{}, fmt.Errorf("snapshot [query row]: %w", err)
	}

	return Unmarshal([]byte(data))
}

func (s *SqliteStore) Save(ctx context.Context, snap Snapshot) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "snapshot.sqlite.save")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	data, err := Marshal(snap)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO activity_snapshot (id, data, updated_at)
VALUES (1, ?, ?)
ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		string(data), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("snapshot [upsert]: %w", err)
	}
	return nil
}
