package stats

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/versequiz/quizstats/internal/model"
)

// ReportCache keeps recently built reports keyed by filter and policy. It is
// owned by its caller; nothing in this package holds one globally.
type ReportCache struct {
	reports *expirable.LRU[string, Report]
}

// NewReportCache returns a cache holding up to size reports for ttl each.
func NewReportCache(size int, ttl time.Duration) *ReportCache {
	if size <= 0 {
		size = 16
	}
	return &ReportCache{reports: expirable.NewLRU[string, Report](size, nil, ttl)}
}

// Report returns a cached report for the same inputs or builds a new one.
// The second result reports whether the cache was hit.
func (c *ReportCache) Report(ctx context.Context, src Source, cfg model.StatsConfig, acfg model.AnalyticsConfig, now time.Time) (Report, bool, error) {
	key := cacheKey(cfg, acfg)
	if r, ok := c.reports.Get(key); ok {
		return r, true, nil
	}
	r, err := BuildReport(ctx, src, cfg, acfg, now)
	if err != nil {
		return Report{}, false, err
	}
	c.reports.Add(key, r)
	return r, false, nil
}

// Invalidate drops every cached report, e.g. after new records are stored.
func (c *ReportCache) Invalidate() {
	c.reports.Purge()
}

// Len returns the number of live entries.
func (c *ReportCache) Len() int {
	return c.reports.Len()
}

func cacheKey(cfg model.StatsConfig, acfg model.AnalyticsConfig) string {
	if cfg.Timeframe == "" {
		cfg.Timeframe = acfg.Timeframe
	}
	if cfg.Periods <= 0 {
		cfg.Periods = acfg.Periods
	}
	parts := []string{
		cfg.TeamID,
		cfg.UserID,
		timeKey(cfg.Since),
		timeKey(cfg.Until),
		string(cfg.Timeframe),
		fmt.Sprint(cfg.Periods),
		strings.ToLower(cfg.GroupBy),
		fmt.Sprint(cfg.Top),
		locationKey(acfg.Location),
		string(acfg.Timeframe),
		fmt.Sprint(acfg.Periods, acfg.StreakGraceDays, acfg.GapMinAttempts, acfg.GapMaxScore, acfg.GapLimit),
	}
	return strings.Join(parts, "|")
}

func timeKey(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return fmt.Sprint(t.UnixMilli())
}

func locationKey(loc *time.Location) string {
	if loc == nil {
		return "-"
	}
	return loc.String()
}
