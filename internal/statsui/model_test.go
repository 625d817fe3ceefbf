package statsui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/versequiz/quizstats/internal/model"
	"github.com/versequiz/quizstats/internal/stats"
)

var uiNow = time.Date(2024, 3, 13, 15, 0, 0, 0, time.UTC)

type memorySource struct {
	completions []model.CompletionRecord
	logs        []model.QuestionLog
	loads       int
}

func (s *memorySource) ListCompletions(_ context.Context, f model.RecordFilter) ([]model.CompletionRecord, error) {
	s.loads++
	var out []model.CompletionRecord
	for _, c := range s.completions {
		if f.UserID != "" && c.UserID != f.UserID {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *memorySource) ListQuestionLogs(_ context.Context, f model.RecordFilter) ([]model.QuestionLog, error) {
	var out []model.QuestionLog
	for _, l := range s.logs {
		if f.UserID != "" && l.UserID != f.UserID {
			continue
		}
		if f.Since != nil && l.AnsweredAt.Before(*f.Since) {
			continue
		}
		if f.Until != nil && !l.AnsweredAt.Before(*f.Until) {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func newTestModel(t *testing.T) (*Model, *memorySource) {
	t.Helper()
	at := time.Date(2024, 3, 12, 9, 0, 0, 0, time.UTC)
	src := &memorySource{
		completions: []model.CompletionRecord{{ID: "c1", UserID: "ana", CompletedAt: at}},
		logs: []model.QuestionLog{
			{ID: "l1", UserID: "ana", QuestionID: "acts-1", Book: "Acts", Chapter: 1, PointsPossible: 10, TimeSpentSeconds: 9, AnsweredAt: at},
			{ID: "l2", UserID: "ana", QuestionID: "acts-1", Book: "Acts", Chapter: 1, PointsPossible: 10, TimeSpentSeconds: 9, AnsweredAt: at},
			{ID: "l3", UserID: "ben", QuestionID: "acts-2", Book: "Acts", Chapter: 2, PointsPossible: 10, TimeSpentSeconds: 9, AnsweredAt: at},
			{ID: "l4", UserID: "ben", QuestionID: "ruth-1", Book: "Ruth", Chapter: 1, PointsEarned: 10, PointsPossible: 10,
				TimeSpentSeconds: 9, IsCorrect: true, AnsweredAt: at},
		},
	}
	acfg := model.AnalyticsConfig{
		Location:        time.UTC,
		Timeframe:       model.Weekly,
		Periods:         4,
		StreakGraceDays: 1,
		GapMinAttempts:  3,
		GapMaxScore:     90,
		GapLimit:        10,
	}
	m := newModel(src, stats.NewReportCache(8, time.Hour), model.StatsConfig{}, acfg, func() time.Time { return uiNow })
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m, src
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModelLoadsReport(t *testing.T) {
	m, _ := newTestModel(t)
	if m.errMsg != "" {
		t.Fatalf("unexpected error: %s", m.errMsg)
	}
	if m.report.Overall.TotalAttempts != 4 {
		t.Fatalf("expected 4 attempts, got %d", m.report.Overall.TotalAttempts)
	}
	if len(m.report.Gaps) != 1 || m.report.Gaps[0].Key != "Acts" {
		t.Fatalf("unexpected gaps: %+v", m.report.Gaps)
	}
	view := m.View()
	if !strings.Contains(view, "Overview") || !strings.Contains(view, "weekly x4") {
		t.Fatalf("unexpected view:\n%s", view)
	}
	if lines := strings.Split(view, "\n"); len(lines) != 30 {
		t.Fatalf("expected view to fill 30 lines, got %d", len(lines))
	}
}

func TestModelTabNavigation(t *testing.T) {
	m, _ := newTestModel(t)
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if m.activeTab != tabLeaderboard {
		t.Fatalf("expected wrap to last tab, got %d", m.activeTab)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.activeTab != tabGaps {
		t.Fatalf("expected gaps tab, got %d", m.activeTab)
	}
	if !m.tables[tabGaps].table.Focused() {
		t.Fatalf("expected gaps table to be focused")
	}
	if !strings.Contains(m.View(), "Acts") {
		t.Fatalf("expected gap row in view")
	}
}

func TestModelToggles(t *testing.T) {
	m, src := newTestModel(t)
	loads := src.loads

	m.Update(keyRunes("t"))
	if m.report.Config.Timeframe != model.Monthly || m.report.Periods[0].Label != "Dec 2023" {
		t.Fatalf("expected monthly periods, got %+v", m.report.Periods)
	}
	m.Update(keyRunes("t"))
	if m.report.Config.Timeframe != model.Weekly {
		t.Fatalf("expected weekly after second toggle")
	}
	if !m.cached {
		t.Fatalf("expected weekly report to come from cache")
	}

	m.Update(keyRunes("b"))
	if m.cfg.GroupBy != "chapter" || len(m.report.Gaps) != 0 {
		t.Fatalf("expected chapter grouping without gaps, got %q %+v", m.cfg.GroupBy, m.report.Gaps)
	}

	m.Update(keyRunes("-"))
	if m.report.Config.Periods != 3 {
		t.Fatalf("expected 3 periods, got %d", m.report.Config.Periods)
	}

	m.Update(keyRunes("r"))
	if m.cached {
		t.Fatalf("expected reload to bypass cache")
	}
	if src.loads <= loads {
		t.Fatalf("expected new loads after reload")
	}
}

func TestModelFilterForm(t *testing.T) {
	m, _ := newTestModel(t)
	m.Update(keyRunes("/"))
	if !m.filterMode {
		t.Fatalf("expected filter mode")
	}

	m.filterInputs[filterSince].SetValue("2024-13-01")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.filterMode || m.filterError == "" {
		t.Fatalf("expected invalid date to keep the form open")
	}

	m.filterInputs[filterSince].SetValue("")
	m.filterInputs[filterPeriods].SetValue("99")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.filterError == "" {
		t.Fatalf("expected period range error")
	}

	m.filterInputs[filterPeriods].SetValue("2")
	m.filterInputs[filterUser].SetValue("ben")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.filterMode {
		t.Fatalf("expected form to close: %s", m.filterError)
	}
	if m.report.Overall.TotalAttempts != 2 || len(m.report.Periods) != 2 {
		t.Fatalf("unexpected filtered report: %+v", m.report.Overall)
	}

	m.Update(keyRunes("/"))
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.filterMode {
		t.Fatalf("expected esc to cancel")
	}
}

func TestFitLines(t *testing.T) {
	got := fitLines("ab\ncdef\nxyz", 4, 2)
	if got != "ab  \ncdef" {
		t.Fatalf("unexpected fit: %q", got)
	}
	got = fitLines("a", 2, 3)
	if got != "a \n  \n  " {
		t.Fatalf("unexpected padding: %q", got)
	}
}

func TestTruncateLine(t *testing.T) {
	if got := truncateLine("abcdefgh", 6); got != "abc..." {
		t.Fatalf("unexpected truncation %q", got)
	}
	if got := truncateLine("abc", 6); got != "abc" {
		t.Fatalf("unexpected short line %q", got)
	}
	if got := truncateLine("abcdef", 2); got != "ab" {
		t.Fatalf("unexpected narrow truncation %q", got)
	}
}
