package activities

import (
	"fmt"
	"strings"
	"time"
)

// field keys, as sent by the n8n workflow
const (
	KeyName         = "Name"
	KeyDistance     = "Distance"
	KeyMovingTime   = "Moving Time"
	KeyAvgHeartRate = "Average Heart Rate"
	KeyAvgPace      = "Average Pace"
	KeyDate         = "Date"
	KeyType         = "Type"
)

type Type string

const (
	TypeRun  Type = "Run"
	TypeHike Type = "Hike"
	TypeWalk Type = "Walk"
	TypeSwim Type = "Swim"
	TypeRide Type = "Ride"
)

// AllTypes is the fixed tab order of the dashboard.
var AllTypes = []Type{TypeRun, TypeHike, TypeWalk, TypeSwim, TypeRide}

func ParseType(s string) (Type, error) {
	for _, t := range AllTypes {
		if strings.EqualFold(string(t), s) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown activity type: %q", s)
}

// Record is a single activity exactly as it arrived from the workflow.
// Values are whatever encoding/json produced: float64, string, bool, nil,
// []any or map[string]any.
type Record map[string]any

// Type returns the raw type field of the record, if it is textual.
func (r Record) Type() (Type, bool) {
	s, ok := r[KeyType].(string)
	if !ok {
		return "", false
	}
	return Type(s), true
}

// Pace is either a "MM:SS" text or a number of seconds.
type Pace struct {
	Text    string
	Seconds float64
	IsText  bool
}

// Activity is the structured view of a normalized Record.
// A nil field means the value was absent or unusable.
type Activity struct {
	Name         *string
	Distance     *float64 // km
	MovingTime   *float64 // minutes
	AvgHeartRate *float64 // bpm
	AvgPace      *Pace
	Date         *time.Time
	RawDate      string
	Type         *Type
}

func (a Activity) DistanceOrZero() float64 {
	if a.Distance == nil {
		return 0
	}
	return *a.Distance
}

func (a Activity) IsOfType(t Type) bool {
	return a.Type != nil && *a.Type == t
}

// FilterByType keeps records whose raw Type field equals t, preserving order.
func FilterByType(records []Record, t Type) []Record {
	filtered := make([]Record, 0, len(records))
	for _, r := range records {
		if rt, ok := r.Type(); ok && rt == t {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// CountByType returns the number of records per known type; all types are present.
func CountByType(records []Record) map[Type]int {
	counts := make(map[Type]int, len(AllTypes))
	for _, t := range AllTypes {
		counts[t] = 0
	}
	for _, r := range records {
		if rt, ok := r.Type(); ok {
			if _, known := counts[rt]; known {
				counts[rt]++
			}
		}
	}
	return counts
}
