package stats

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/versequiz/quizstats/internal/model"
)

func sampleReport() Report {
	start := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	period := model.DatePeriod{Start: start, End: start.AddDate(0, 0, 7), Label: "Week of Mar 10"}
	return Report{
		Config:      model.StatsConfig{TeamID: "t1", Timeframe: model.Weekly},
		Periods:     []model.DatePeriod{period},
		Completions: 1200,
		Streak:      model.StreakInfo{Current: 1, Longest: 5, StudyDays: 9},
		Overall: model.AggregateResult{
			Key:                   "all",
			TotalAttempts:         2500,
			CorrectAttempts:       2000,
			TotalPointsEarned:     40000,
			TotalPointsPossible:   50000,
			TotalTimeSpentSeconds: 3725,
			AverageScorePercent:   80,
		},
	}
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderSummary(&buf, sampleReport()); err != nil {
		t.Fatalf("render summary: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Scope: team t1, user all",
		"Window: 2024-03-10 to 2024-03-16 (1 weekly periods)",
		"Completions: 1,200",
		"Attempts: 2,500 (2,000 correct)",
		"Points: 40,000 / 50,000 (80.0%)",
		"Time spent: 1h 02m",
		"Streak: 1 day (longest 5 days, 9 study days)",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestRenderTrendAndPeriods(t *testing.T) {
	r := sampleReport()
	trend := []model.PeriodSummary{{
		Period:              r.Periods[0],
		Completions:         3,
		Attempts:            4,
		Correct:             3,
		PointsEarned:        30,
		PointsPossible:      40,
		TimeSpentSeconds:    95,
		AverageScorePercent: 75,
	}}
	var buf bytes.Buffer
	if err := RenderTrend(&buf, trend, 60, false); err != nil {
		t.Fatalf("render trend: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Week of Mar 10") || !strings.Contains(out, "75.0%") || !strings.Contains(out, "1m 35s") {
		t.Fatalf("unexpected trend output:\n%s", out)
	}
	if !strings.Contains(out, "Score by period") {
		t.Fatalf("expected chart in trend output:\n%s", out)
	}

	buf.Reset()
	if err := RenderPeriods(&buf, r.Periods); err != nil {
		t.Fatalf("render periods: %v", err)
	}
	if !strings.Contains(buf.String(), "Week of Mar 10  2024-03-10  2024-03-16") {
		t.Fatalf("unexpected periods output:\n%s", buf.String())
	}
}

func TestRenderTablesAndEmptyStates(t *testing.T) {
	var buf bytes.Buffer
	gaps := []model.AggregateResult{{Key: "Acts 2", TotalAttempts: 4, CorrectAttempts: 1,
		TotalPointsEarned: 10, TotalPointsPossible: 40, TotalTimeSpentSeconds: 50, AverageScorePercent: 25}}
	if err := RenderGaps(&buf, "chapter", gaps); err != nil {
		t.Fatalf("render gaps: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "Knowledge gaps by Chapter\nChapter") || !strings.Contains(out, "10/40") {
		t.Fatalf("unexpected gaps output:\n%s", out)
	}

	buf.Reset()
	entries := []model.LeaderboardEntry{
		{Rank: 1, UserID: "ana", Points: 1500, Attempts: 60, AccuracyPercent: 90},
		{Rank: 2, UserID: "ben", Points: 900, Attempts: 40, AccuracyPercent: 75},
	}
	if err := RenderLeaderboard(&buf, entries); err != nil {
		t.Fatalf("render leaderboard: %v", err)
	}
	if !strings.Contains(buf.String(), "1st  ana    1,500") || !strings.Contains(buf.String(), "2nd  ben") {
		t.Fatalf("unexpected leaderboard output:\n%s", buf.String())
	}

	buf.Reset()
	if err := RenderGaps(&buf, "book", nil); err != nil {
		t.Fatalf("render empty gaps: %v", err)
	}
	if buf.String() != "No knowledge gaps found.\n" {
		t.Fatalf("unexpected empty gaps output %q", buf.String())
	}

	buf.Reset()
	questions := []model.QuestionPerformance{
		{QuestionID: "q1", Attempts: 3, Correct: 0, AccuracyPercent: 0, AverageTimeSeconds: 20},
		{QuestionID: "q2", Attempts: 3, Correct: 3, AccuracyPercent: 100, AverageTimeSeconds: 5},
	}
	if err := RenderQuestions(&buf, questions, 1); err != nil {
		t.Fatalf("render questions: %v", err)
	}
	if strings.Contains(buf.String(), "q2") {
		t.Fatalf("expected limit to drop q2:\n%s", buf.String())
	}
}

func TestFormatSeconds(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "0s"},
		{59, "59s"},
		{61, "1m 01s"},
		{3600, "1h 00m"},
		{3_600_000, "1,000h 00m"},
		{-5, "0s"},
	}
	for _, tt := range tests {
		if got := FormatSeconds(tt.in); got != tt.want {
			t.Fatalf("FormatSeconds(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGroupLabel(t *testing.T) {
	if GroupLabel("") != "Book" || GroupLabel("TIER") != "Tier" {
		t.Fatalf("unexpected group labels")
	}
}
