// Package analytics computes study streaks, period buckets and score roll-ups.
//
// All functions are pure: they read already-materialized records, never
// mutate their input and hold no state between calls.
package analytics

import (
	"errors"
	"fmt"
	"time"

	"github.com/versequiz/quizstats/internal/model"
)

const (
	// DefaultPeriodCount is used when a request leaves the count unset.
	DefaultPeriodCount = 12
	// MaxPeriodCount bounds the count derived from an explicit range.
	MaxPeriodCount = 24

	weeklyLabelLayout  = "Jan 02"
	monthlyLabelLayout = "Jan 2006"
)

// PeriodRequest describes the periods to compute. Nil bounds are open.
type PeriodRequest struct {
	Timeframe    model.Timeframe
	Start        *time.Time
	End          *time.Time
	DefaultCount int
}

// ComputePeriods partitions time into weekly (Sunday-Saturday) or calendar-month
// periods in loc, ordered oldest to newest.
//
// Without bounds it returns the DefaultCount periods ending with the one
// containing now. With both bounds the count is the number of periods the range
// touches, clamped to [1, MaxPeriodCount] and anchored at End. Periods wholly
// outside the range are dropped; partial overlaps are returned whole.
func ComputePeriods(req PeriodRequest, now time.Time, loc *time.Location) ([]model.DatePeriod, error) {
	if loc == nil {
		return nil, errors.New("location is required")
	}
	if req.Timeframe != model.Weekly && req.Timeframe != model.Monthly {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTimeframe, req.Timeframe)
	}

	count := req.DefaultCount
	if count <= 0 {
		count = DefaultPeriodCount
	}
	start, end := req.Start, req.End
	if start != nil && end == nil {
		end = &now
	}
	anchor := now
	if end != nil {
		anchor = *end
	}
	if start != nil {
		if start.After(*end) {
			return nil, fmt.Errorf("%w: start %s is after end %s", ErrInvalidRange,
				start.Format(time.RFC3339), end.Format(time.RFC3339))
		}
		count = clampCount(periodsSpanned(req.Timeframe, *start, *end, loc))
	}

	last := startOfPeriod(req.Timeframe, anchor, loc)
	periods := make([]model.DatePeriod, 0, count)
	for i := count - 1; i >= 0; i-- {
		ps := shiftPeriod(req.Timeframe, last, -i)
		pe := shiftPeriod(req.Timeframe, ps, 1)
		if start != nil && !pe.After(*start) {
			continue
		}
		if end != nil && ps.After(*end) {
			continue
		}
		periods = append(periods, model.DatePeriod{
			Start: ps,
			End:   pe,
			Label: periodLabel(req.Timeframe, ps),
		})
	}
	return periods, nil
}

func clampCount(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxPeriodCount {
		return MaxPeriodCount
	}
	return n
}

func periodsSpanned(tf model.Timeframe, start, end time.Time, loc *time.Location) int {
	first := startOfPeriod(tf, start, loc)
	last := startOfPeriod(tf, end, loc)
	if tf == model.Monthly {
		return (last.Year()-first.Year())*12 + int(last.Month()-first.Month()) + 1
	}
	return int(civilDay(last, loc)-civilDay(first, loc))/7 + 1
}

func startOfPeriod(tf model.Timeframe, t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	if tf == model.Monthly {
		return time.Date(y, m, 1, 0, 0, 0, 0, loc)
	}
	day := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// shiftPeriod moves a period start by n periods, keeping wall-clock midnight
// across DST changes.
func shiftPeriod(tf model.Timeframe, start time.Time, n int) time.Time {
	if tf == model.Monthly {
		return time.Date(start.Year(), start.Month()+time.Month(n), 1, 0, 0, 0, 0, start.Location())
	}
	return start.AddDate(0, 0, 7*n)
}

func periodLabel(tf model.Timeframe, start time.Time) string {
	if tf == model.Monthly {
		return start.Format(monthlyLabelLayout)
	}
	return "Week of " + start.Format(weeklyLabelLayout)
}
