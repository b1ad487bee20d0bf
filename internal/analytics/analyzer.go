package analytics

import (
	"time"

	"github.com/2beens/activitystats/internal/activities"
)

const DefaultMaxHeartRate = 195

// Metrics is everything the analytics panel of a single activity type shows.
type Metrics struct {
	Type                 activities.Type `json:"type"`
	Count                int             `json:"count"`
	WeeklyVolume         []WeekVolume    `json:"weeklyVolume"`
	PaceTrend            []PacePoint     `json:"paceTrend"`
	Intensity            []Bucket        `json:"intensity"`
	DistanceDistribution []Bucket        `json:"distanceDistribution"`
	Streak               int             `json:"streak"`
}

// Bucket is a labeled count, used for pie charts.
type Bucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type Analyzer struct {
	maxHeartRate float64
	loc          *time.Location
	now          func() time.Time
}

// NewAnalyzer creates an analyzer working in the given time zone. A nil clock
// means time.Now.
func NewAnalyzer(maxHeartRate float64, loc *time.Location, now func() time.Time) *Analyzer {
	if maxHeartRate <= 0 {
		maxHeartRate = DefaultMaxHeartRate
	}
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Analyzer{
		maxHeartRate: maxHeartRate,
		loc:          loc,
		now:          now,
	}
}

func (a *Analyzer) Location() *time.Location {
	return a.loc
}

func (a *Analyzer) Now() time.Time {
	return a.now().In(a.loc)
}

// Derive computes the metrics for already normalized activities of type typ.
// The computations are independent of each other and do not touch the input.
func (a *Analyzer) Derive(acts []activities.Activity, typ activities.Type) Metrics {
	return Metrics{
		Type:                 typ,
		Count:                len(acts),
		WeeklyVolume:         WeeklyVolume(acts, a.loc),
		PaceTrend:            PaceTrend(acts, a.loc),
		Intensity:            IntensityBuckets(acts, typ, a.maxHeartRate),
		DistanceDistribution: DistanceDistribution(acts),
		Streak:               WeeklyStreak(acts, a.now(), a.loc),
	}
}

// DeriveForType filters raw records by type, normalizes them and derives the metrics.
func (a *Analyzer) DeriveForType(records []activities.Record, typ activities.Type) Metrics {
	filtered := activities.FilterByType(records, typ)
	return a.Derive(activities.NormalizeAll(filtered, a.loc), typ)
}
