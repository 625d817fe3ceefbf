package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/versequiz/quizstats/internal/analytics"
	"github.com/versequiz/quizstats/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "nested", "quizstats.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func TestInsertAndListCompletions(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

	completions := []model.CompletionRecord{
		{ID: "c1", TeamID: "t1", UserID: "u1", Activity: "reading", CompletedAt: base},
		{ID: "c2", TeamID: "t1", UserID: "u2", Activity: "quiz", CompletedAt: base.Add(24 * time.Hour)},
		{TeamID: "t2", UserID: "u3", Activity: "quiz", CompletedAt: base.Add(48 * time.Hour)},
	}
	n, err := st.InsertCompletions(ctx, completions)
	if err != nil {
		t.Fatalf("insert completions: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 inserted, got %d", n)
	}

	n, err = st.InsertCompletions(ctx, completions[:2])
	if err != nil {
		t.Fatalf("reinsert completions: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected duplicate ids to be skipped, got %d inserted", n)
	}

	all, err := st.ListCompletions(ctx, model.RecordFilter{})
	if err != nil {
		t.Fatalf("list completions: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 completions, got %d", len(all))
	}
	if !all[0].CompletedAt.Equal(base) || all[0].ID != "c1" {
		t.Fatalf("unexpected first completion: %+v", all[0])
	}
	if all[2].ID == "" {
		t.Fatalf("expected generated id for record without id")
	}

	team, err := st.ListCompletions(ctx, model.RecordFilter{TeamID: "t1"})
	if err != nil {
		t.Fatalf("list team completions: %v", err)
	}
	if len(team) != 2 {
		t.Fatalf("expected 2 team completions, got %d", len(team))
	}

	since := base.Add(time.Hour)
	until := base.Add(48 * time.Hour)
	window, err := st.ListCompletions(ctx, model.RecordFilter{Since: &since, Until: &until})
	if err != nil {
		t.Fatalf("list window completions: %v", err)
	}
	if len(window) != 1 || window[0].ID != "c2" {
		t.Fatalf("expected only c2 in window, got %+v", window)
	}
}

func TestInsertAndListQuestionLogs(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	at := time.Date(2024, 3, 2, 18, 0, 0, 0, time.UTC)

	logs := []model.QuestionLog{
		{ID: "l1", TeamID: "t1", UserID: "u1", QuestionID: "q1", Book: "Acts", Chapter: 2, Tier: "gold",
			PointsEarned: 10, PointsPossible: 20, TimeSpentSeconds: 14, IsCorrect: true, AnsweredAt: at},
		{ID: "l2", TeamID: "t1", UserID: "u2", QuestionID: "q2", Book: "Acts", Chapter: 3, Tier: "silver",
			PointsPossible: 20, TimeSpentSeconds: 40, AnsweredAt: at.Add(time.Minute)},
	}
	if _, err := st.InsertQuestionLogs(ctx, logs); err != nil {
		t.Fatalf("insert logs: %v", err)
	}

	got, err := st.ListQuestionLogs(ctx, model.RecordFilter{UserID: "u1"})
	if err != nil {
		t.Fatalf("list logs: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 log, got %d", len(got))
	}
	want := logs[0]
	if !got[0].AnsweredAt.Equal(want.AnsweredAt) {
		t.Fatalf("answered_at mismatch: got %v, want %v", got[0].AnsweredAt, want.AnsweredAt)
	}
	got[0].AnsweredAt = want.AnsweredAt
	if got[0] != want {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got[0], want)
	}

	completions, logCount, err := st.Counts(ctx)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if completions != 0 || logCount != 2 {
		t.Fatalf("unexpected counts: %d completions, %d logs", completions, logCount)
	}
}

func TestInsertRejectsInvalidRecords(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	_, err := st.InsertQuestionLogs(ctx, []model.QuestionLog{{ID: "bad", QuestionID: "q1", Book: "Acts"}})
	if !errors.Is(err, analytics.ErrInvalidRecord) {
		t.Fatalf("expected invalid record error, got %v", err)
	}
	_, logs, err := st.Counts(ctx)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if logs != 0 {
		t.Fatalf("expected nothing stored, got %d logs", logs)
	}
}
