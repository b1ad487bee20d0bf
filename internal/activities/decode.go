package activities

import (
	"encoding/json"
	"fmt"
)

// DecodeList decodes a JSON array of activity objects. Elements that are not
// objects (null, numbers, nested arrays) are dropped and counted in skipped.
// A null or empty raw value yields an empty, non-nil list.
func DecodeList(raw json.RawMessage) (records []Record, skipped int, err error) {
	records = []Record{}
	if len(raw) == 0 || string(raw) == "null" {
		return records, 0, nil
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		return records, 0, fmt.Errorf("activities is not a list: %w", err)
	}

	for _, el := range elements {
		var r Record
		if err := json.Unmarshal(el, &r); err != nil || r == nil {
			skipped++
			continue
		}
		records = append(records, r)
	}

	return records, skipped, nil
}
