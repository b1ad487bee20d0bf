package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/2beens/activitystats/internal/activities"

	log "github.com/sirupsen/logrus"
)

var ErrInvalidPayload = errors.New("payload is not json")

// n8n wraps the spreadsheet rows under "Activities"
type n8nItem struct {
	Activities json.RawMessage `json:"Activities"`
}

// ExtractActivities pulls the activity list out of an n8n payload, which is
// either [{"Activities": [...]}, ...] or {"Activities": [...]}. Anything
// missing or of the wrong shape yields an empty list. Only a body that is
// not JSON at all is an error.
func ExtractActivities(body []byte) ([]activities.Record, error) {
	if !json.Valid(body) {
		return nil, ErrInvalidPayload
	}

	var raw json.RawMessage
	switch firstToken(body) {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, fmt.Errorf("unmarshal payload: %w", err)
		}
		if len(items) > 0 {
			raw = activitiesField(items[0])
		}
	case '{':
		raw = activitiesField(body)
	}

	records, skipped, err := activities.DecodeList(raw)
	if err != nil {
		log.Warnf("ingest payload: %s, storing an empty list", err)
		return []activities.Record{}, nil
	}
	if skipped > 0 {
		log.Warnf("ingest payload: skipped %d non-object activities", skipped)
	}
	return records, nil
}

func activitiesField(data []byte) json.RawMessage {
	var item n8nItem
	if err := json.Unmarshal(data, &item); err != nil {
		return nil
	}
	return item.Activities
}

func firstToken(data []byte) byte {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		default:
			return b
		}
	}
	return 0
}
