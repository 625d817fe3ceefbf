package analytics

import (
	"math"
	"sort"

	"github.com/versequiz/quizstats/internal/model"
)

// GapPolicy selects which groups count as knowledge gaps.
type GapPolicy struct {
	MinAttempts     int
	MaxScorePercent float64
	Limit           int
}

// DefaultGapPolicy needs at least 3 attempts below 90% and keeps the worst 10.
func DefaultGapPolicy() GapPolicy {
	return GapPolicy{MinAttempts: 3, MaxScorePercent: 90, Limit: 10}
}

// KnowledgeGaps returns groups with enough attempts and a score under the
// threshold, worst first. A non-positive Limit keeps every match.
func KnowledgeGaps(groups map[string]model.AggregateResult, policy GapPolicy) []model.AggregateResult {
	gaps := make([]model.AggregateResult, 0, len(groups))
	for _, r := range groups {
		if r.TotalAttempts < policy.MinAttempts {
			continue
		}
		if r.AverageScorePercent >= policy.MaxScorePercent {
			continue
		}
		gaps = append(gaps, r)
	}
	sort.Slice(gaps, func(i, j int) bool {
		if gaps[i].AverageScorePercent == gaps[j].AverageScorePercent {
			return gaps[i].Key < gaps[j].Key
		}
		return gaps[i].AverageScorePercent < gaps[j].AverageScorePercent
	})
	if policy.Limit > 0 && len(gaps) > policy.Limit {
		gaps = gaps[:policy.Limit]
	}
	return gaps
}

// QuestionPerformanceOf computes per-question accuracy and average time,
// lowest accuracy first.
func QuestionPerformanceOf(logs []model.QuestionLog) []model.QuestionPerformance {
	groups := AggregateByKey(logs, ByQuestion)
	out := make([]model.QuestionPerformance, 0, len(groups))
	for _, r := range groups {
		avgTime := 0
		if r.TotalAttempts > 0 {
			avgTime = roundDiv(r.TotalTimeSpentSeconds, r.TotalAttempts)
		}
		out = append(out, model.QuestionPerformance{
			QuestionID:         r.Key,
			Attempts:           r.TotalAttempts,
			Correct:            r.CorrectAttempts,
			AccuracyPercent:    roundPercent(r.CorrectAttempts, r.TotalAttempts),
			AverageTimeSeconds: avgTime,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AccuracyPercent == out[j].AccuracyPercent {
			return out[i].QuestionID < out[j].QuestionID
		}
		return out[i].AccuracyPercent < out[j].AccuracyPercent
	})
	return out
}

func roundDiv(num, den int) int {
	return int(math.Round(float64(num) / float64(den)))
}
