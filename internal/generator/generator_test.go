package generator

import (
	"testing"
	"time"

	"github.com/versequiz/quizstats/internal/analytics"
)

func sampleOptions() Options {
	return Options{
		TeamID:          "team-1",
		Users:           []string{"ana", "ben", "cy"},
		Days:            30,
		End:             time.Date(2024, 3, 13, 23, 59, 0, 0, time.UTC),
		QuestionsPerDay: 20,
		StudyRate:       1,
		WeakBooks:       map[string]struct{}{"Ruth": {}},
		WeakFactor:      2,
	}
}

func TestGenerateIsReproducible(t *testing.T) {
	c1, l1 := New(42).Generate(sampleOptions())
	c2, l2 := New(42).Generate(sampleOptions())
	if len(c1) != len(c2) || len(l1) != len(l2) {
		t.Fatalf("expected identical sizes, got %d/%d and %d/%d", len(c1), len(l1), len(c2), len(l2))
	}
	for i := range l1 {
		if l1[i] != l2[i] {
			t.Fatalf("log %d differs: %+v vs %+v", i, l1[i], l2[i])
		}
	}
	if c1[0].ID != c2[0].ID {
		t.Fatalf("expected ids to follow the seed")
	}
}

func TestGenerateShape(t *testing.T) {
	opts := sampleOptions()
	completions, logs := New(7).Generate(opts)
	if len(completions) != opts.Days*len(opts.Users) {
		t.Fatalf("expected one completion per user per day, got %d", len(completions))
	}
	if len(logs) != len(completions)*opts.QuestionsPerDay {
		t.Fatalf("expected %d logs, got %d", len(completions)*opts.QuestionsPerDay, len(logs))
	}
	if err := analytics.ValidateCompletions(completions); err != nil {
		t.Fatalf("invalid completion: %v", err)
	}
	if err := analytics.ValidateQuestionLogs(logs); err != nil {
		t.Fatalf("invalid log: %v", err)
	}

	first := opts.End.AddDate(0, 0, -opts.Days+1)
	firstDay := time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, time.UTC)
	for _, l := range logs {
		if l.AnsweredAt.Before(firstDay) || !l.AnsweredAt.Before(opts.End) {
			t.Fatalf("log outside window: %v", l.AnsweredAt)
		}
	}

	days := analytics.StudyDays(completions, time.UTC)
	if len(days) != opts.Days {
		t.Fatalf("expected %d study days, got %d", opts.Days, len(days))
	}
}

func TestGenerateWeakBooksScoreLower(t *testing.T) {
	_, logs := New(3).Generate(sampleOptions())
	groups := analytics.AggregateByKey(logs, analytics.ByBook)
	weak, ok := groups["Ruth"]
	if !ok {
		t.Fatalf("expected weak book in sample")
	}
	strong := groups["John"]
	if weak.TotalAttempts <= strong.TotalAttempts {
		t.Fatalf("expected weak book to be drawn more often: %d vs %d", weak.TotalAttempts, strong.TotalAttempts)
	}
	if weak.AverageScorePercent >= strong.AverageScorePercent {
		t.Fatalf("expected weak book to score lower: %.1f vs %.1f", weak.AverageScorePercent, strong.AverageScorePercent)
	}
}

func TestGenerateSkipsFuture(t *testing.T) {
	opts := sampleOptions()
	opts.Days = 1
	opts.End = time.Date(2024, 3, 13, 6, 0, 0, 0, time.UTC)
	completions, logs := New(1).Generate(opts)
	if len(completions) != 0 || len(logs) != 0 {
		t.Fatalf("expected nothing before 06:00, got %d completions and %d logs", len(completions), len(logs))
	}
}
