package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/2beens/activitystats/internal/activities"

	log "github.com/sirupsen/logrus"
)

var ErrNotFound = errors.New("snapshot not found")

// Store keeps exactly one live snapshot. Save replaces it wholesale.
type Store interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, s Snapshot) error
}

type Snapshot struct {
	Activities []activities.Record `json:"activities"`
}

func Empty() Snapshot {
	return Snapshot{Activities: []activities.Record{}}
}

// Marshal renders the snapshot in its persisted form: pretty printed,
// with an empty list instead of null.
func Marshal(s Snapshot) ([]byte, error) {
	if s.Activities == nil {
		s.Activities = []activities.Record{}
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return data, nil
}

func Unmarshal(data []byte) (Snapshot, error) {
	var doc struct {
		Activities json.RawMessage `json:"activities"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	records, skipped, err := activities.DecodeList(doc.Activities)
	if err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if skipped > 0 {
		log.Warnf("snapshot: skipped %d non-object activities", skipped)
	}

	return Snapshot{Activities: records}, nil
}
