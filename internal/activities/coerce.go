package activities

import (
	"strings"
	"time"
)

var dateLayouts = []struct {
	layout string
	local  bool
}{
	{layout: time.RFC3339Nano},
	{layout: "2006-01-02T15:04:05.999999999", local: true},
	{layout: "2006-01-02T15:04", local: true},
	{layout: "2006-01-02 15:04:05", local: true},
	{layout: "2006-01-02", local: true},
}

// ParseDate parses the ISO-8601 flavours the workflow emits. Values without
// an offset are read in loc.
func ParseDate(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, dl := range dateLayouts {
		var (
			t   time.Time
			err error
		)
		if dl.local {
			t, err = time.ParseInLocation(dl.layout, s, loc)
		} else {
			t, err = time.Parse(dl.layout, s)
		}
		if err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FromRecord coerces a (normalized) record into an Activity. Values of the
// wrong type are dropped instead of failing.
func FromRecord(r Record, loc *time.Location) Activity {
	var a Activity

	if name, ok := r[KeyName].(string); ok {
		a.Name = &name
	}
	a.Distance = numberField(r, KeyDistance)
	a.MovingTime = numberField(r, KeyMovingTime)
	a.AvgHeartRate = numberField(r, KeyAvgHeartRate)

	switch pace := r[KeyAvgPace].(type) {
	case string:
		a.AvgPace = &Pace{Text: pace, IsText: true}
	case float64:
		a.AvgPace = &Pace{Seconds: pace}
	}

	if rawDate, ok := r[KeyDate].(string); ok {
		a.RawDate = rawDate
		if d, ok := ParseDate(rawDate, loc); ok {
			a.Date = &d
		}
	}

	if t, ok := r.Type(); ok {
		a.Type = &t
	}

	return a
}

func numberField(r Record, key string) *float64 {
	switch v := r[key].(type) {
	case float64:
		return &v
	case string:
		if num, ok := parseNumber(v); ok {
			return &num
		}
	}
	return nil
}
