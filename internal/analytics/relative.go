package analytics

import (
	"fmt"
	"time"
)

// RelativeDay labels a date the way the history list shows it: Today,
// Yesterday, "N days ago" within the last week, the full date otherwise.
func RelativeDay(date, now time.Time, loc *time.Location) string {
	local := date.In(loc)
	switch days := daysBetween(local, now.In(loc)); {
	case days == 0:
		return "Today"
	case days == 1:
		return "Yesterday"
	case days > 1 && days < 7:
		return fmt.Sprintf("%d days ago", days)
	default:
		return local.Format("Jan 2, 2006")
	}
}
