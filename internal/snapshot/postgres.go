package snapshot

import (
	"context"
	"errors"
	"fmt"

	"github.com/2beens/activitystats/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PsqlSchema creates the single-row snapshot table.
const PsqlSchema = `
	CREATE TABLE IF NOT EXISTS activity_snapshot (
		id         SMALLINT PRIMARY KEY CHECK (id = 1),
		data       JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
`

type PsqlStore struct {
	db *pgxpool.Pool
}

func NewPsqlStore(db *pgxpool.Pool) *PsqlStore {
	return &PsqlStore{
		db: db,
	}
}

func (s *PsqlStore) InitSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, PsqlSchema); err != nil {
		return fmt.Errorf("create snapshot table: %w", err)
	}
	return nil
}

func (s *PsqlStore) Load(ctx context.Context) (_ Snapshot, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.snapshot.load")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var data []byte
	err = s.db.QueryRow(ctx, `SELECT data FROM activity_snapshot WHERE id = 1`).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Snapshot{}, ErrNotFound
		}
		return Snapshot{}, fmt.Errorf("snapshot [query row]: %w", err)
	}

	return Unmarshal(data)
}

func (s *PsqlStore) Save(ctx context.Context, snap Snapshot) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.snapshot.save")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	data, err := Marshal(snap)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO activity_snapshot (id, data, updated_at)
		VALUES (1, $1, now())
		ON CONFLICT (id) DO UPDATE
		SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at
	`, string(data))
	if err != nil {
		return fmt.Errorf("snapshot [upsert]: %w", err)
	}
	return nil
}
