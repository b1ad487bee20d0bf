package fitimport

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/2beens/activitystats/internal/activities"
	"github.com/2beens/activitystats/internal/analytics"

	"github.com/tormoder/fit"
)

var (
	ErrNoSession        = errors.New("activity file has no session message")
	ErrUnsupportedSport = errors.New("unsupported sport")
)

var sportTypes = map[fit.Sport]activities.Type{
	fit.SportRunning:  activities.TypeRun,
	fit.SportHiking:   activities.TypeHike,
	fit.SportWalking:  activities.TypeWalk,
	fit.SportSwimming: activities.TypeSwim,
	fit.SportCycling:  activities.TypeRide,
}

// TypeForSport maps a FIT sport onto one of the dashboard activity types.
func TypeForSport(sport fit.Sport) (activities.Type, bool) {
	t, ok := sportTypes[sport]
	return t, ok
}

// FromFile decodes the activity FIT file at path into a Record shaped like
// the rows the n8n workflow sends. The file name becomes the activity name.
func FromFile(path string) (activities.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open FIT file: %w", err)
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return FromReader(f, name)
}

func FromReader(r io.Reader, name string) (activities.Record, error) {
	decoded, err := fit.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode FIT file: %w", err)
	}

	activity, err := decoded.Activity()
	if err != nil {
		return nil, fmt.Errorf("activity FIT expected: %w", err)
	}
	if len(activity.Sessions) == 0 {
		return nil, ErrNoSession
	}

	return sessionRecord(activity.Sessions[0], name)
}

func sessionRecord(session *fit.SessionMsg, name string) (activities.Record, error) {
	typ, ok := TypeForSport(session.Sport)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedSport, session.Sport)
	}

	record := activities.Record{
		activities.KeyType: string(typ),
	}
	if name != "" {
		record[activities.KeyName] = name
	}

	distanceKm := positiveOrZero(session.GetTotalDistanceScaled()) / 1000
	if distanceKm > 0 {
		record[activities.KeyDistance] = round2(distanceKm)
	}

	movingSeconds := positiveOrZero(session.GetTotalMovingTimeScaled())
	if movingSeconds == 0 {
		movingSeconds = positiveOrZero(session.GetTotalTimerTimeScaled())
	}
	if movingSeconds > 0 {
		record[activities.KeyMovingTime] = round2(movingSeconds / 60)
	}

	if session.AvgHeartRate != math.MaxUint8 && session.AvgHeartRate > 0 {
		record[activities.KeyAvgHeartRate] = float64(session.AvgHeartRate)
	}

	if hasPace(typ) && distanceKm > 0 && movingSeconds > 0 {
		record[activities.KeyAvgPace] = analytics.FormatPace(int(math.Round(movingSeconds / distanceKm)))
	}

	if start := session.StartTime; !start.IsZero() && !fit.IsBaseTime(start) {
		record[activities.KeyDate] = start.UTC().Format(time.RFC3339)
	}

	return record, nil
}

// pace per km only makes sense on foot
func hasPace(t activities.Type) bool {
	return t == activities.TypeRun || t == activities.TypeWalk || t == activities.TypeHike
}

func positiveOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
