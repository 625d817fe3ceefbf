package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/versequiz/quizstats/internal/model"
)

func logFor(key string, earned, possible int, correct bool) model.QuestionLog {
	return model.QuestionLog{
		QuestionID:     key + "-q",
		Book:           key,
		PointsEarned:   earned,
		PointsPossible: possible,
		IsCorrect:      correct,
		AnsweredAt:     testNow,
	}
}

func TestAggregateByKeyScoresFromSummedPoints(t *testing.T) {
	logs := []model.QuestionLog{
		logFor("A", 5, 10, true),
		logFor("A", 0, 10, false),
	}
	groups := AggregateByKey(logs, ByBook)
	require.Len(t, groups, 1)
	a := groups["A"]
	assert.Equal(t, "A", a.Key)
	assert.Equal(t, 2, a.TotalAttempts)
	assert.Equal(t, 1, a.CorrectAttempts)
	assert.Equal(t, 5, a.TotalPointsEarned)
	assert.Equal(t, 20, a.TotalPointsPossible)
	assert.InDelta(t, 25.0, a.AverageScorePercent, 1e-9)
}

func TestAggregateByKeyZeroPossible(t *testing.T) {
	logs := []model.QuestionLog{
		logFor("A", 0, 0, true),
		logFor("B", 3, 0, false),
		logFor("B", 0, 0, false),
	}
	for key, r := range AggregateByKey(logs, ByBook) {
		assert.False(t, math.IsNaN(r.AverageScorePercent), key)
		assert.Zero(t, r.AverageScorePercent, key)
	}
}

func TestAggregateByKeyGroupsAndTime(t *testing.T) {
	logs := []model.QuestionLog{
		{Book: "John", Chapter: 3, Tier: "gold", UserID: "u1", TimeSpentSeconds: 12, PointsEarned: 10, PointsPossible: 10, IsCorrect: true},
		{Book: "John", Chapter: 3, Tier: "silver", UserID: "u2", TimeSpentSeconds: 8, PointsPossible: 10},
		{Book: "John", Chapter: 4, Tier: "gold", UserID: "u1", TimeSpentSeconds: 5, PointsEarned: 20, PointsPossible: 20, IsCorrect: true},
	}
	byChapter := AggregateByKey(logs, ByChapter)
	require.Len(t, byChapter, 2)
	assert.Equal(t, 20, byChapter["John 3"].TotalTimeSpentSeconds)
	assert.InDelta(t, 50.0, byChapter["John 3"].AverageScorePercent, 1e-9)

	byTier := AggregateByKey(logs, ByTier)
	assert.Equal(t, 2, byTier["gold"].TotalAttempts)
	assert.Equal(t, 1, byTier["silver"].TotalAttempts)

	sorted := SortedResults(AggregateByKey(logs, ByUser))
	require.Len(t, sorted, 2)
	assert.Equal(t, "u1", sorted[0].Key)
	assert.Equal(t, "u2", sorted[1].Key)
}

func TestByChapterWithoutChapter(t *testing.T) {
	assert.Equal(t, "Ruth", ByChapter(model.QuestionLog{Book: "Ruth"}))
	assert.Equal(t, "Ruth 2", ByChapter(model.QuestionLog{Book: "Ruth", Chapter: 2}))
}

func TestKeyFuncFor(t *testing.T) {
	for _, name := range []string{"book", "Chapter", " tier ", "user", "question", ""} {
		fn, err := KeyFuncFor(name)
		require.NoError(t, err, name)
		require.NotNil(t, fn, name)
	}
	_, err := KeyFuncFor("verse")
	require.Error(t, err)
}

func TestOverall(t *testing.T) {
	assert.Equal(t, model.AggregateResult{Key: "all"}, Overall(nil))

	r := Overall([]model.QuestionLog{logFor("A", 3, 4, true), logFor("B", 1, 4, false)})
	assert.Equal(t, 2, r.TotalAttempts)
	assert.InDelta(t, 50.0, r.AverageScorePercent, 1e-9)
}

func TestLeaderboard(t *testing.T) {
	logs := []model.QuestionLog{
		{UserID: "carol", PointsEarned: 30, PointsPossible: 30, IsCorrect: true},
		{UserID: "alice", PointsEarned: 20, PointsPossible: 20, IsCorrect: true},
		{UserID: "alice", PointsEarned: 10, PointsPossible: 20},
		{UserID: "bob", PointsEarned: 5, PointsPossible: 10, IsCorrect: true},
	}
	board := Leaderboard(logs, 0)
	require.Len(t, board, 3)
	assert.Equal(t, model.LeaderboardEntry{Rank: 1, UserID: "carol", Points: 30, Attempts: 1, AccuracyPercent: 100}, board[0])
	assert.Equal(t, model.LeaderboardEntry{Rank: 2, UserID: "alice", Points: 30, Attempts: 2, AccuracyPercent: 50}, board[1])
	assert.Equal(t, "bob", board[2].UserID)
	assert.Equal(t, 3, board[2].Rank)

	assert.Len(t, Leaderboard(logs, 2), 2)
}

func TestAggregateByKeyIdempotent(t *testing.T) {
	logs := []model.QuestionLog{logFor("A", 1, 2, true), logFor("B", 2, 2, true), logFor("A", 0, 2, false)}
	before := append([]model.QuestionLog(nil), logs...)
	assert.Equal(t, AggregateByKey(logs, ByBook), AggregateByKey(logs, ByBook))
	assert.Equal(t, before, logs)
}
