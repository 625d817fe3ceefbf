package stats

import (
	"fmt"
	"strings"
	"time"
)

// DayLayout is the date format accepted for since/until filters.
const DayLayout = "2006-01-02"

// ParseDateBounds parses optional YYYY-MM-DD bounds in loc. Since is the
// start of its day; until is the last millisecond of its day.
func ParseDateBounds(since, until string, loc *time.Location) (*time.Time, *time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	var start, end *time.Time
	if s := strings.TrimSpace(since); s != "" {
		parsed, err := time.ParseInLocation(DayLayout, s, loc)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid since date %q (expected YYYY-MM-DD)", s)
		}
		start = &parsed
	}
	if s := strings.TrimSpace(until); s != "" {
		parsed, err := time.ParseInLocation(DayLayout, s, loc)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid until date %q (expected YYYY-MM-DD)", s)
		}
		last := parsed.AddDate(0, 0, 1).Add(-time.Millisecond)
		end = &last
	}
	if start != nil && end != nil && start.After(*end) {
		return nil, nil, fmt.Errorf("since %s is after until %s", since, until)
	}
	return start, end, nil
}
