// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/versequiz/quizstats/internal/analytics"
	"github.com/versequiz/quizstats/internal/model"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Analytics AnalyticsConfig `toml:"analytics"`
	Store     StoreConfig     `toml:"store"`
}

// AnalyticsConfig maps analytics policy settings. Nil fields are unset.
type AnalyticsConfig struct {
	Timezone        *string  `toml:"timezone"`
	Timeframe       *string  `toml:"timeframe"`
	Periods         *int     `toml:"periods"`
	StreakGraceDays *int     `toml:"streak-grace-days"`
	GapMinAttempts  *int     `toml:"gap-min-attempts"`
	GapMaxScore     *float64 `toml:"gap-max-score"`
	GapLimit        *int     `toml:"gap-limit"`
}

// StoreConfig maps local cache settings.
type StoreConfig struct {
	Path *string `toml:"path"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return FileConfig{}, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	return cfg, nil
}

// DefaultAnalytics returns the built-in policy values.
func DefaultAnalytics() model.AnalyticsConfig {
	gaps := analytics.DefaultGapPolicy()
	return model.AnalyticsConfig{
		Location:        time.Local,
		Timeframe:       model.Weekly,
		Periods:         analytics.DefaultPeriodCount,
		StreakGraceDays: 1,
		GapMinAttempts:  gaps.MinAttempts,
		GapMaxScore:     gaps.MaxScorePercent,
		GapLimit:        gaps.Limit,
	}
}

// Resolve overlays file values on the defaults and validates the result.
func (c AnalyticsConfig) Resolve() (model.AnalyticsConfig, error) {
	out := DefaultAnalytics()
	if c.Timezone != nil {
		loc, err := LoadLocation(*c.Timezone)
		if err != nil {
			return out, err
		}
		out.Location = loc
	}
	if c.Timeframe != nil {
		tf, err := model.ParseTimeframe(*c.Timeframe)
		if err != nil {
			return out, err
		}
		out.Timeframe = tf
	}
	if c.Periods != nil {
		out.Periods = *c.Periods
	}
	if c.StreakGraceDays != nil {
		out.StreakGraceDays = *c.StreakGraceDays
	}
	if c.GapMinAttempts != nil {
		out.GapMinAttempts = *c.GapMinAttempts
	}
	if c.GapMaxScore != nil {
		out.GapMaxScore = *c.GapMaxScore
	}
	if c.GapLimit != nil {
		out.GapLimit = *c.GapLimit
	}
	return out, ValidateAnalytics(out)
}

// LoadLocation resolves a zone name; "" and "Local" mean the system zone.
func LoadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return loc, nil
}

// ValidateAnalytics checks policy values for range errors.
func ValidateAnalytics(cfg model.AnalyticsConfig) error {
	if cfg.Location == nil {
		return fmt.Errorf("timezone must be set")
	}
	if cfg.Periods < 1 || cfg.Periods > analytics.MaxPeriodCount {
		return fmt.Errorf("periods must be between 1 and %d", analytics.MaxPeriodCount)
	}
	if cfg.StreakGraceDays < 0 {
		return fmt.Errorf("streak-grace-days must be >= 0")
	}
	if cfg.GapMinAttempts < 1 {
		return fmt.Errorf("gap-min-attempts must be >= 1")
	}
	if cfg.GapMaxScore < 0 || cfg.GapMaxScore > 100 {
		return fmt.Errorf("gap-max-score must be between 0 and 100")
	}
	if cfg.GapLimit < 0 {
		return fmt.Errorf("gap-limit must be >= 0")
	}
	return nil
}

// GapPolicy converts the resolved config to the analytics policy.
func GapPolicy(cfg model.AnalyticsConfig) analytics.GapPolicy {
	return analytics.GapPolicy{
		MinAttempts:     cfg.GapMinAttempts,
		MaxScorePercent: cfg.GapMaxScore,
		Limit:           cfg.GapLimit,
	}
}

// StreakPolicy converts the resolved config to the analytics policy.
func StreakPolicy(cfg model.AnalyticsConfig) analytics.StreakPolicy {
	return analytics.StreakPolicy{Location: cfg.Location, GraceDays: cfg.StreakGraceDays}
}
