package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/2beens/activitystats/internal/telemetry/tracing"

	"go.opentelemetry.io/otel/attribute"
)

// DiskStore keeps the snapshot in a single JSON file. Writes go to a temp
// file in the same directory which is then renamed over the target.
type DiskStore struct {
	path string
}

func NewDiskStore(path string) *DiskStore {
	return &DiskStore{
		path: path,
	}
}

func (s *DiskStore) Path() string {
	return s.path
}

func (s *DiskStore) Load(ctx context.Context) (_ Snapshot, err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "snapshot.disk.load")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("path", s.path))

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Snapshot{}, ErrNotFound
		}
		return Snapshot{}, fmt.Errorf("read snapshot file: %w", err)
	}

	return Unmarshal(data)
}

func (s *DiskStore) Save(ctx context.Context, snap Snapshot) (err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "snapshot.disk.save")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.String("path", s.path),
		attribute.Int("activities", len(snap.Activities)),
	)

	data, err := Marshal(snap)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("replace snapshot file: %w", err)
	}

	return nil
}
