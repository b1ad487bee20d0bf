package activities

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// NormalizeRecord cleans up every value of the record and returns a new one:
// formula strings ("=12.345") become rounded numbers, numbers are rounded to
// 2 decimals, everything else is kept as is. The input is not modified.
func NormalizeRecord(r Record) Record {
	if r == nil {
		return nil
	}
	normalized := make(Record, len(r))
	for k, v := range r {
		normalized[k] = normalizeValue(v)
	}
	return normalized
}

func normalizeValue(value any) any {
	switch v := value.(type) {
	case string:
		if !strings.HasPrefix(v, "=") {
			return v
		}
		// strip all of them, so a second pass has nothing left to do
		trimmed := strings.TrimLeft(v, "=")
		if num, ok := parseNumber(trimmed); ok {
			return round2(num)
		}
		return trimmed
	case float64:
		return round2(v)
	case float32:
		return round2(float64(v))
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return value
	}
}

// Normalize is NormalizeRecord followed by coercion into the structured form.
func Normalize(r Record, loc *time.Location) Activity {
	return FromRecord(NormalizeRecord(r), loc)
}

func NormalizeAll(records []Record, loc *time.Location) []Activity {
	normalized := make([]Activity, 0, len(records))
	for _, r := range records {
		normalized = append(normalized, Normalize(r, loc))
	}
	return normalized
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	num, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(num) || math.IsInf(num, 0) {
		return 0, false
	}
	return num, true
}

const maxRoundable = 1 << 45

func round2(v float64) float64 {
	// from 2^45 on v*100 loses the cent digit, rounding would no longer be stable
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) >= maxRoundable {
		return v
	}
	return math.Round(v*100) / 100
}
