// Package stats builds quiz reports and renders them as text.
package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/versequiz/quizstats/internal/analytics"
	"github.com/versequiz/quizstats/internal/config"
	"github.com/versequiz/quizstats/internal/model"
)

// Source loads the records a report is built from.
type Source interface {
	ListCompletions(ctx context.Context, filter model.RecordFilter) ([]model.CompletionRecord, error)
	ListQuestionLogs(ctx context.Context, filter model.RecordFilter) ([]model.QuestionLog, error)
}

// Report contains precomputed data for stats rendering.
type Report struct {
	Config      model.StatsConfig
	Location    *time.Location
	Periods     []model.DatePeriod
	Trend       []model.PeriodSummary
	Streak      model.StreakInfo
	Overall     model.AggregateResult
	Groups      []model.AggregateResult
	Gaps        []model.AggregateResult
	Questions   []model.QuestionPerformance
	Leaderboard []model.LeaderboardEntry
	Completions int
	GeneratedAt time.Time
}

// BuildReport loads records for the filter and runs every roll-up.
//
// Streaks look at all completions up to the window end; the other roll-ups
// cover only the window spanned by the computed periods (or the explicit
// since/until bounds when given).
func BuildReport(ctx context.Context, src Source, cfg model.StatsConfig, acfg model.AnalyticsConfig, now time.Time) (Report, error) {
	if cfg.Timeframe == "" {
		cfg.Timeframe = acfg.Timeframe
	}
	if cfg.Periods <= 0 {
		cfg.Periods = acfg.Periods
	}
	key, err := analytics.KeyFuncFor(cfg.GroupBy)
	if err != nil {
		return Report{}, err
	}

	periods, err := analytics.ComputePeriods(analytics.PeriodRequest{
		Timeframe:    cfg.Timeframe,
		Start:        cfg.Since,
		End:          cfg.Until,
		DefaultCount: cfg.Periods,
	}, now, acfg.Location)
	if err != nil {
		return Report{}, fmt.Errorf("failed to compute periods: %w", err)
	}

	window := windowFilter(cfg, periods)
	completions, err := src.ListCompletions(ctx, model.RecordFilter{
		TeamID: cfg.TeamID,
		UserID: cfg.UserID,
		Until:  window.Until,
	})
	if err != nil {
		return Report{}, fmt.Errorf("failed to load completions: %w", err)
	}
	logs, err := src.ListQuestionLogs(ctx, window)
	if err != nil {
		return Report{}, fmt.Errorf("failed to load question logs: %w", err)
	}

	streakNow := now
	if cfg.Until != nil && cfg.Until.Before(now) {
		streakNow = *cfg.Until
	}
	groups := analytics.AggregateByKey(logs, key)
	return Report{
		Config:      cfg,
		Location:    acfg.Location,
		Periods:     periods,
		Trend:       analytics.RollupByPeriod(periods, completions, logs),
		Streak:      analytics.Streaks(completions, streakNow, config.StreakPolicy(acfg)),
		Overall:     analytics.Overall(logs),
		Groups:      analytics.SortedResults(groups),
		Gaps:        analytics.KnowledgeGaps(groups, config.GapPolicy(acfg)),
		Questions:   analytics.QuestionPerformanceOf(logs),
		Leaderboard: analytics.Leaderboard(logs, cfg.Top),
		Completions: countInWindow(completions, window),
		GeneratedAt: now,
	}, nil
}

func windowFilter(cfg model.StatsConfig, periods []model.DatePeriod) model.RecordFilter {
	filter := model.RecordFilter{TeamID: cfg.TeamID, UserID: cfg.UserID}
	if cfg.Since != nil {
		since := *cfg.Since
		filter.Since = &since
	} else if len(periods) > 0 {
		since := periods[0].Start
		filter.Since = &since
	}
	if cfg.Until != nil {
		until := cfg.Until.Add(time.Millisecond)
		filter.Until = &until
	} else if len(periods) > 0 {
		until := periods[len(periods)-1].End
		filter.Until = &until
	}
	return filter
}

func countInWindow(completions []model.CompletionRecord, window model.RecordFilter) int {
	n := 0
	for _, c := range completions {
		if window.Since != nil && c.CompletedAt.Before(*window.Since) {
			continue
		}
		if window.Until != nil && !c.CompletedAt.Before(*window.Until) {
			continue
		}
		n++
	}
	return n
}
