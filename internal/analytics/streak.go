package analytics

import (
	"sort"
	"time"

	"github.com/versequiz/quizstats/internal/model"
)

const secondsPerDay = 24 * 60 * 60

// StreakPolicy fixes the reference zone for day boundaries and how many
// days a current streak survives without activity today.
type StreakPolicy struct {
	Location  *time.Location
	GraceDays int
}

// DefaultStreakPolicy keeps a streak alive through yesterday.
func DefaultStreakPolicy(loc *time.Location) StreakPolicy {
	return StreakPolicy{Location: loc, GraceDays: 1}
}

func (p StreakPolicy) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

// civilDay returns the day number since the Unix epoch of t's calendar date in loc.
func civilDay(t time.Time, loc *time.Location) int64 {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / secondsPerDay
}

// StudyDays returns the unique calendar days with a completion, ascending.
func StudyDays(completions []model.CompletionRecord, loc *time.Location) []int64 {
	seen := make(map[int64]struct{}, len(completions))
	days := make([]int64, 0, len(completions))
	for _, c := range completions {
		d := civilDay(c.CompletedAt, loc)
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	return days
}

// CurrentStreak counts consecutive study days ending today, or ending within
// the policy's grace window when today has no activity yet.
func CurrentStreak(completions []model.CompletionRecord, now time.Time, policy StreakPolicy) int {
	loc := policy.location()
	return currentRun(StudyDays(completions, loc), civilDay(now, loc), policy.GraceDays)
}

// LongestStreak returns the longest run of consecutive study days.
func LongestStreak(completions []model.CompletionRecord, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}
	return longestRun(StudyDays(completions, loc))
}

// Streaks computes current and longest streaks in one pass over the days.
func Streaks(completions []model.CompletionRecord, now time.Time, policy StreakPolicy) model.StreakInfo {
	loc := policy.location()
	days := StudyDays(completions, loc)
	return model.StreakInfo{
		Current:   currentRun(days, civilDay(now, loc), policy.GraceDays),
		Longest:   longestRun(days),
		StudyDays: len(days),
	}
}

func currentRun(days []int64, today int64, grace int) int {
	if len(days) == 0 {
		return 0
	}
	if grace < 0 {
		grace = 0
	}
	set := make(map[int64]struct{}, len(days))
	for _, d := range days {
		set[d] = struct{}{}
	}
	start, found := today, false
	for offset := 0; offset <= grace; offset++ {
		if _, ok := set[today-int64(offset)]; ok {
			start, found = today-int64(offset), true
			break
		}
	}
	if !found {
		return 0
	}
	run := 0
	for d := start; ; d-- {
		if _, ok := set[d]; !ok {
			break
		}
		run++
	}
	return run
}

func longestRun(days []int64) int {
	if len(days) == 0 {
		return 0
	}
	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		if days[i] == days[i-1]+1 {
			run++
			if run > longest {
				longest = run
			}
			continue
		}
		run = 1
	}
	return longest
}
