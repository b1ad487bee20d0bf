package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/2beens/activitystats/internal/activities"
)

const volumeWeeksKept = 8

type WeekVolume struct {
	WeekStart string  `json:"weekStart"` // Monday, YYYY-MM-DD
	Label     string  `json:"label"`
	Distance  float64 `json:"distance"`
}

// WeeklyVolume sums distances per Monday-start week and returns the last 8
// weeks that have data, oldest first.
func WeeklyVolume(acts []activities.Activity, loc *time.Location) []WeekVolume {
	byWeek := make(map[string]float64)
	weekStarts := make(map[string]time.Time)
	for _, a := range acts {
		if a.Date == nil || a.Distance == nil || *a.Distance == 0 {
			continue
		}
		ws := weekStart(*a.Date, loc)
		key := ws.Format(time.DateOnly)
		byWeek[key] += *a.Distance
		weekStarts[key] = ws
	}

	keys := make([]string, 0, len(byWeek))
	for k := range byWeek {
		keys = append(keys, k)
	}
	// YYYY-MM-DD sorts chronologically
	sort.Strings(keys)
	if len(keys) > volumeWeeksKept {
		keys = keys[len(keys)-volumeWeeksKept:]
	}

	volume := make([]WeekVolume, 0, len(keys))
	for _, k := range keys {
		volume = append(volume, WeekVolume{
			WeekStart: k,
			Label:     weekStarts[k].Format("Jan 2"),
			Distance:  math.Round(byWeek[k]*10) / 10,
		})
	}
	return volume
}

// WeeklyStreak counts the distinct weekdays with an activity less than a
// whole week before today. The scan runs newest first and stops at the first
// activity a full week or more in the past.
func WeeklyStreak(acts []activities.Activity, now time.Time, loc *time.Location) int {
	dated := make([]time.Time, 0, len(acts))
	for _, a := range acts {
		if a.Date != nil {
			dated = append(dated, *a.Date)
		}
	}
	sort.SliceStable(dated, func(i, j int) bool {
		return dated[i].After(dated[j])
	})

	today := now.In(loc)
	weekDays := make(map[time.Weekday]struct{})
	for _, d := range dated {
		local := d.In(loc)
		diffWeeks := floorDiv(daysBetween(local, today), 7)
		if diffWeeks > 0 {
			break
		}
		if diffWeeks == 0 {
			weekDays[local.Weekday()] = struct{}{}
		}
	}
	return len(weekDays)
}

func weekStart(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	day := int(local.Weekday())
	if day == 0 {
		// sunday closes the week
		day = 7
	}
	y, m, d := local.Date()
	return time.Date(y, m, d-day+1, 0, 0, 0, 0, loc)
}

// daysBetween returns the number of calendar days from a to b, ignoring
// the time of day and DST shifts.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	from := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	to := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
