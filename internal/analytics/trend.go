package analytics

import (
	"sort"
	"time"

	"github.com/versequiz/quizstats/internal/model"
)

// RollupByPeriod sums completions and question logs into the given periods,
// which must be ordered and non-overlapping as returned by ComputePeriods.
// Records outside every period are ignored.
func RollupByPeriod(periods []model.DatePeriod, completions []model.CompletionRecord, logs []model.QuestionLog) []model.PeriodSummary {
	out := make([]model.PeriodSummary, len(periods))
	for i, p := range periods {
		out[i].Period = p
	}
	for _, c := range completions {
		if i := periodIndex(periods, c.CompletedAt); i >= 0 {
			out[i].Completions++
		}
	}
	for _, l := range logs {
		i := periodIndex(periods, l.AnsweredAt)
		if i < 0 {
			continue
		}
		s := &out[i]
		s.Attempts++
		if l.IsCorrect {
			s.Correct++
		}
		s.PointsEarned += l.PointsEarned
		s.PointsPossible += l.PointsPossible
		s.TimeSpentSeconds += l.TimeSpentSeconds
	}
	for i := range out {
		out[i].AverageScorePercent = ScorePercent(out[i].PointsEarned, out[i].PointsPossible)
	}
	return out
}

func periodIndex(periods []model.DatePeriod, t time.Time) int {
	idx := sort.Search(len(periods), func(i int) bool {
		return periods[i].End.After(t)
	})
	if idx < len(periods) && periods[idx].Contains(t) {
		return idx
	}
	return -1
}
