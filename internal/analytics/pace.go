package analytics

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/2beens/activitystats/internal/activities"
)

const paceTrendPoints = 10

type PacePoint struct {
	Date        string    `json:"date"`
	Timestamp   time.Time `json:"timestamp"`
	Pace        int       `json:"pace"` // seconds per km
	PaceDisplay string    `json:"paceDisplay"`
}

// PaceTrend returns up to the 10 most recent activities with a usable pace,
// oldest first.
func PaceTrend(acts []activities.Activity, loc *time.Location) []PacePoint {
	withPace := make([]activities.Activity, 0, len(acts))
	for _, a := range acts {
		if a.Date != nil && a.AvgPace != nil {
			withPace = append(withPace, a)
		}
	}
	sort.SliceStable(withPace, func(i, j int) bool {
		return withPace[i].Date.Before(*withPace[j].Date)
	})
	if len(withPace) > paceTrendPoints {
		withPace = withPace[len(withPace)-paceTrendPoints:]
	}

	trend := make([]PacePoint, 0, len(withPace))
	for _, a := range withPace {
		seconds, display, ok := PaceSeconds(*a.AvgPace)
		if !ok || seconds <= 0 {
			continue
		}
		trend = append(trend, PacePoint{
			Date:        a.Date.In(loc).Format("Jan 2"),
			Timestamp:   *a.Date,
			Pace:        seconds,
			PaceDisplay: display,
		})
	}
	return trend
}

// PaceSeconds converts a pace to whole seconds plus its display form.
// Text paces are "MM:SS" where the minutes must be numeric and unparseable
// seconds count as 0.
func PaceSeconds(p activities.Pace) (int, string, bool) {
	if !p.IsText {
		total := int(math.Round(p.Seconds))
		return total, FormatPace(total), true
	}

	parts := strings.Split(p.Text, ":")
	minutes, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil || math.IsNaN(minutes) || math.IsInf(minutes, 0) {
		return 0, "", false
	}
	var seconds float64
	if len(parts) > 1 {
		if s, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64); err == nil && !math.IsNaN(s) && !math.IsInf(s, 0) {
			seconds = s
		}
	}
	return int(math.Round(minutes*60 + seconds)), p.Text, true
}

func FormatPace(totalSeconds int) string {
	sign := ""
	if totalSeconds < 0 {
		sign = "-"
		totalSeconds = -totalSeconds
	}
	return fmt.Sprintf("%s%d:%02d", sign, totalSeconds/60, totalSeconds%60)
}
