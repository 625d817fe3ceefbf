package analytics

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/versequiz/quizstats/internal/model"
)

// KeyFunc extracts the grouping key of a question log.
type KeyFunc func(model.QuestionLog) string

// ByBook groups by book name.
func ByBook(l model.QuestionLog) string { return l.Book }

// ByChapter groups by book and chapter, e.g. "John 3".
func ByChapter(l model.QuestionLog) string {
	if l.Chapter <= 0 {
		return l.Book
	}
	return l.Book + " " + strconv.Itoa(l.Chapter)
}

// ByTier groups by difficulty tier.
func ByTier(l model.QuestionLog) string { return l.Tier }

// ByUser groups by user.
func ByUser(l model.QuestionLog) string { return l.UserID }

// ByQuestion groups by question.
func ByQuestion(l model.QuestionLog) string { return l.QuestionID }

// KeyFuncFor resolves a grouping name used on the command line.
func KeyFuncFor(name string) (KeyFunc, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "book", "":
		return ByBook, nil
	case "chapter":
		return ByChapter, nil
	case "tier":
		return ByTier, nil
	case "user":
		return ByUser, nil
	case "question":
		return ByQuestion, nil
	}
	return nil, fmt.Errorf("unknown grouping %q (use book, chapter, tier, user or question)", name)
}

// ScorePercent returns earned/possible as a percentage, or 0 when nothing was possible.
func ScorePercent(earned, possible int) float64 {
	if possible == 0 {
		return 0
	}
	return float64(earned) / float64(possible) * 100
}

// roundPercent returns round(part/total*100), or 0 for an empty total.
func roundPercent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

// AggregateByKey groups logs by key and sums attempts, points and time.
// The score is computed from summed points, not averaged per attempt.
func AggregateByKey(logs []model.QuestionLog, key KeyFunc) map[string]model.AggregateResult {
	out := make(map[string]model.AggregateResult)
	for _, l := range logs {
		k := key(l)
		r := out[k]
		r.Key = k
		r.TotalAttempts++
		if l.IsCorrect {
			r.CorrectAttempts++
		}
		r.TotalPointsEarned += l.PointsEarned
		r.TotalPointsPossible += l.PointsPossible
		r.TotalTimeSpentSeconds += l.TimeSpentSeconds
		out[k] = r
	}
	for k, r := range out {
		r.AverageScorePercent = ScorePercent(r.TotalPointsEarned, r.TotalPointsPossible)
		out[k] = r
	}
	return out
}

// Overall rolls every log into a single result keyed "all".
func Overall(logs []model.QuestionLog) model.AggregateResult {
	r, ok := AggregateByKey(logs, func(model.QuestionLog) string { return "all" })["all"]
	if !ok {
		return model.AggregateResult{Key: "all"}
	}
	return r
}

// SortedResults returns the groups ordered by key.
func SortedResults(groups map[string]model.AggregateResult) []model.AggregateResult {
	out := make([]model.AggregateResult, 0, len(groups))
	for _, r := range groups {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Leaderboard ranks users by points earned, then accuracy, then id.
// A non-positive limit returns every user.
func Leaderboard(logs []model.QuestionLog, limit int) []model.LeaderboardEntry {
	groups := AggregateByKey(logs, ByUser)
	entries := make([]model.LeaderboardEntry, 0, len(groups))
	for _, r := range groups {
		entries = append(entries, model.LeaderboardEntry{
			UserID:          r.Key,
			Points:          r.TotalPointsEarned,
			Attempts:        r.TotalAttempts,
			AccuracyPercent: roundPercent(r.CorrectAttempts, r.TotalAttempts),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.AccuracyPercent != b.AccuracyPercent {
			return a.AccuracyPercent > b.AccuracyPercent
		}
		return a.UserID < b.UserID
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}
