package stats

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/versequiz/quizstats/internal/model"
)

const dateLayout = "2006-01-02"

// RenderSummary prints the overall figures and streak for a report.
func RenderSummary(w io.Writer, r Report) error {
	o := r.Overall
	lines := []string{
		"Summary",
		fmt.Sprintf("Scope: %s", ScopeLabel(r.Config)),
		fmt.Sprintf("Window: %s (%d %s periods)", WindowLabel(r.Periods), len(r.Periods), r.Config.Timeframe),
		fmt.Sprintf("Completions: %s", humanize.Comma(int64(r.Completions))),
		fmt.Sprintf("Attempts: %s (%s correct)", humanize.Comma(int64(o.TotalAttempts)), humanize.Comma(int64(o.CorrectAttempts))),
		fmt.Sprintf("Points: %s / %s (%s)", humanize.Comma(int64(o.TotalPointsEarned)),
			humanize.Comma(int64(o.TotalPointsPossible)), FormatPercent(o.AverageScorePercent)),
		fmt.Sprintf("Time spent: %s", FormatSeconds(o.TotalTimeSpentSeconds)),
		fmt.Sprintf("Streak: %s (longest %s, %d study days)",
			pluralDays(r.Streak.Current), pluralDays(r.Streak.Longest), r.Streak.StudyDays),
		"",
	}
	return writeLines(w, lines)
}

// RenderStreak prints the streak figures only.
func RenderStreak(w io.Writer, info model.StreakInfo) error {
	return writeLines(w, []string{
		fmt.Sprintf("Current streak: %s", pluralDays(info.Current)),
		fmt.Sprintf("Longest streak: %s", pluralDays(info.Longest)),
		fmt.Sprintf("Study days: %d", info.StudyDays),
	})
}

// RenderPeriods prints the period boundaries with inclusive end dates.
func RenderPeriods(w io.Writer, periods []model.DatePeriod) error {
	rows := make([][]string, 0, len(periods))
	for _, p := range periods {
		rows = append(rows, []string{p.Label, p.Start.Format(dateLayout), p.InclusiveEnd().Format(dateLayout)})
	}
	return writeLines(w, formatTable([]string{"Period", "Start", "End"}, rows, nil))
}

// RenderTrend prints one row per period followed by a score chart.
func RenderTrend(w io.Writer, trend []model.PeriodSummary, width int, useColor bool) error {
	if len(trend) == 0 {
		_, err := fmt.Fprintln(w, "No periods in range.")
		return err
	}
	headers := []string{"Period", "Completions", "Attempts", "Correct", "Points", "Score", "Time"}
	rows := make([][]string, 0, len(trend))
	bars := make([]Bar, 0, len(trend))
	for _, s := range trend {
		rows = append(rows, []string{
			s.Period.Label,
			humanize.Comma(int64(s.Completions)),
			humanize.Comma(int64(s.Attempts)),
			humanize.Comma(int64(s.Correct)),
			humanize.Comma(int64(s.PointsEarned)),
			FormatPercent(s.AverageScorePercent),
			FormatSeconds(s.TimeSpentSeconds),
		})
		note := FormatPercent(s.AverageScorePercent)
		if s.Attempts == 0 {
			note = "-"
		}
		bars = append(bars, Bar{Label: s.Period.Label, Value: s.AverageScorePercent, Note: note})
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true, 6: true}
	lines := formatTable(headers, rows, rightAlign)
	lines = append(lines, "")
	if err := writeLines(w, lines); err != nil {
		return err
	}
	return RenderBars(w, "Score by period", bars, 100, width, useColor)
}

// RenderGroups prints every aggregate group, ordered by key.
func RenderGroups(w io.Writer, groupBy string, groups []model.AggregateResult) error {
	if len(groups) == 0 {
		_, err := fmt.Fprintln(w, "No answers in range.")
		return err
	}
	return writeLines(w, aggregateTable(groupBy, groups))
}

// RenderGaps prints knowledge gaps, worst first.
func RenderGaps(w io.Writer, groupBy string, gaps []model.AggregateResult) error {
	if len(gaps) == 0 {
		_, err := fmt.Fprintln(w, "No knowledge gaps found.")
		return err
	}
	lines := append([]string{fmt.Sprintf("Knowledge gaps by %s", GroupLabel(groupBy))}, aggregateTable(groupBy, gaps)...)
	return writeLines(w, lines)
}

// RenderQuestions prints per-question accuracy, lowest first. A positive
// limit keeps that many rows.
func RenderQuestions(w io.Writer, questions []model.QuestionPerformance, limit int) error {
	if len(questions) == 0 {
		_, err := fmt.Fprintln(w, "No answers in range.")
		return err
	}
	if limit > 0 && len(questions) > limit {
		questions = questions[:limit]
	}
	rows := make([][]string, 0, len(questions))
	for _, q := range questions {
		rows = append(rows, []string{
			q.QuestionID,
			humanize.Comma(int64(q.Attempts)),
			humanize.Comma(int64(q.Correct)),
			fmt.Sprintf("%d%%", q.AccuracyPercent),
			FormatSeconds(q.AverageTimeSeconds),
		})
	}
	headers := []string{"Question", "Attempts", "Correct", "Accuracy", "Avg Time"}
	return writeLines(w, formatTable(headers, rows, map[int]bool{1: true, 2: true, 3: true, 4: true}))
}

// RenderLeaderboard prints ranked users.
func RenderLeaderboard(w io.Writer, entries []model.LeaderboardEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No answers in range.")
		return err
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			humanize.Ordinal(e.Rank),
			e.UserID,
			humanize.Comma(int64(e.Points)),
			humanize.Comma(int64(e.Attempts)),
			fmt.Sprintf("%d%%", e.AccuracyPercent),
		})
	}
	headers := []string{"Rank", "User", "Points", "Attempts", "Accuracy"}
	return writeLines(w, formatTable(headers, rows, map[int]bool{0: true, 2: true, 3: true, 4: true}))
}

func aggregateTable(groupBy string, groups []model.AggregateResult) []string {
	rows := make([][]string, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, []string{
			g.Key,
			humanize.Comma(int64(g.TotalAttempts)),
			humanize.Comma(int64(g.CorrectAttempts)),
			fmt.Sprintf("%s/%s", humanize.Comma(int64(g.TotalPointsEarned)), humanize.Comma(int64(g.TotalPointsPossible))),
			FormatPercent(g.AverageScorePercent),
			FormatSeconds(g.TotalTimeSpentSeconds),
		})
	}
	headers := []string{GroupLabel(groupBy), "Attempts", "Correct", "Points", "Score", "Time"}
	return formatTable(headers, rows, map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true})
}

// GroupLabel returns the column title for a grouping name.
func GroupLabel(groupBy string) string {
	name := strings.ToLower(strings.TrimSpace(groupBy))
	if name == "" {
		name = "book"
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// ScopeLabel describes the team and user filters.
func ScopeLabel(cfg model.StatsConfig) string {
	team, user := cfg.TeamID, cfg.UserID
	if team == "" {
		team = "all"
	}
	if user == "" {
		user = "all"
	}
	return fmt.Sprintf("team %s, user %s", team, user)
}

// WindowLabel returns the first and last day covered by periods.
func WindowLabel(periods []model.DatePeriod) string {
	if len(periods) == 0 {
		return "empty"
	}
	return periods[0].Start.Format(dateLayout) + " to " + periods[len(periods)-1].InclusiveEnd().Format(dateLayout)
}

// FormatPercent formats a score with one decimal.
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

// FormatSeconds renders a duration as "1h 05m", "4m 10s" or "12s".
func FormatSeconds(total int) string {
	if total < 0 {
		total = 0
	}
	h, m, s := total/3600, (total%3600)/60, total%60
	switch {
	case h > 0:
		return fmt.Sprintf("%sh %02dm", humanize.Comma(int64(h)), m)
	case m > 0:
		return fmt.Sprintf("%dm %02ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
