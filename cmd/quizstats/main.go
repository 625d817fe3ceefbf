// Package main provides the CLI entrypoint for quizstats.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/versequiz/quizstats/internal/analytics"
	"github.com/versequiz/quizstats/internal/config"
	"github.com/versequiz/quizstats/internal/model"
	"github.com/versequiz/quizstats/internal/stats"
	"github.com/versequiz/quizstats/internal/statsui"
	"github.com/versequiz/quizstats/internal/store"
)

const (
	defaultCacheSize = 16
	defaultCacheTTL  = 5 * time.Minute
)

// options holds every flag value for one command tree. Report commands share
// the filter and policy fields.
type options struct {
	dbPath     string
	configPath string
	verbose    bool

	team      string
	user      string
	since     string
	until     string
	timezone  string
	timeframe string
	periods   int
	groupBy   string
	top       int
	limit     int
	all       bool

	graceDays   int
	minAttempts int
	maxScore    float64
	gapLimit    int

	logger *slog.Logger
	now    func() time.Time
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
	stop()
}

func newRootCmd() *cobra.Command {
	defaults := config.DefaultAnalytics()
	opts := &options{
		timezone:    "Local",
		timeframe:   string(defaults.Timeframe),
		periods:     defaults.Periods,
		groupBy:     "book",
		top:         10,
		limit:       20,
		graceDays:   defaults.StreakGraceDays,
		minAttempts: defaults.GapMinAttempts,
		maxScore:    defaults.GapMaxScore,
		gapLimit:    defaults.GapLimit,
		now:         time.Now,
	}

	rootCmd := &cobra.Command{
		Use:           "quizstats",
		Short:         "Study and quiz analytics for teams",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			opts.logger = newLogger(cmd.ErrOrStderr(), opts.verbose)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDashboardCmd(cmd, opts)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.dbPath, "db", "", "database path (default: $XDG_DATA_HOME/quizstats/quizstats.db)")
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config path (default: $XDG_CONFIG_HOME/quizstats/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	addReportFlags(rootCmd, opts)
	rootCmd.Flags().StringVar(&opts.groupBy, "by", opts.groupBy, "grouping for gap tables: book, chapter, tier, user, question")

	rootCmd.AddCommand(newImportCmd(opts))
	rootCmd.AddCommand(newSeedCmd(opts))
	rootCmd.AddCommand(newSummaryCmd(opts))
	rootCmd.AddCommand(newPeriodsCmd(opts))
	rootCmd.AddCommand(newStreakCmd(opts))
	rootCmd.AddCommand(newTrendCmd(opts))
	rootCmd.AddCommand(newGapsCmd(opts))
	rootCmd.AddCommand(newQuestionsCmd(opts))
	rootCmd.AddCommand(newLeaderboardCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))

	return rootCmd
}

// addReportFlags registers the filter and policy flags shared by every
// command that builds a report.
func addReportFlags(cmd *cobra.Command, opts *options) {
	flags := cmd.Flags()
	flags.StringVar(&opts.team, "team", "", "only include records for this team")
	flags.StringVar(&opts.user, "user", "", "only include records for this user")
	flags.StringVar(&opts.since, "since", "", "first included day (YYYY-MM-DD)")
	flags.StringVar(&opts.until, "until", "", "last included day (YYYY-MM-DD)")
	flags.StringVar(&opts.timezone, "timezone", opts.timezone, "IANA time zone for day boundaries")
	flags.StringVar(&opts.timeframe, "timeframe", opts.timeframe, "trend bucket: weekly or monthly")
	flags.IntVar(&opts.periods, "periods", opts.periods, fmt.Sprintf("number of periods (1-%d)", analytics.MaxPeriodCount))
	flags.IntVar(&opts.graceDays, "grace-days", opts.graceDays, "days a streak survives without study")
	flags.IntVar(&opts.minAttempts, "min-attempts", opts.minAttempts, "attempts needed before a group can be a gap")
	flags.Float64Var(&opts.maxScore, "max-score", opts.maxScore, "score percent below which a group is a gap")
	flags.IntVar(&opts.gapLimit, "gap-limit", opts.gapLimit, "maximum gaps to report (0 = all)")
}

func runDashboardCmd(cmd *cobra.Command, opts *options) error {
	env, err := openReportEnv(cmd, opts)
	if err != nil {
		return err
	}
	defer env.close()

	cache := stats.NewReportCache(defaultCacheSize, defaultCacheTTL)
	m := statsui.NewModel(env.store, cache, env.cfg, env.acfg)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run dashboard: %w", err)
	}
	return nil
}

// reportEnv is the resolved configuration and open store for a report command.
type reportEnv struct {
	store  *store.Store
	cfg    model.StatsConfig
	acfg   model.AnalyticsConfig
	logger *slog.Logger
}

func (e *reportEnv) close() {
	closeStore(e.logger, e.store)
}

func openReportEnv(cmd *cobra.Command, opts *options) (*reportEnv, error) {
	fileCfg, err := loadFileConfig(opts)
	if err != nil {
		return nil, err
	}
	acfg, err := resolveAnalytics(cmd, opts, fileCfg)
	if err != nil {
		return nil, err
	}
	cfg, err := statsConfig(opts, acfg)
	if err != nil {
		return nil, err
	}
	st, err := openStore(opts, fileCfg)
	if err != nil {
		return nil, err
	}
	return &reportEnv{store: st, cfg: cfg, acfg: acfg, logger: opts.logger}, nil
}

func loadFileConfig(opts *options) (config.FileConfig, error) {
	path := opts.configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	fileCfg, err := config.LoadConfig(path)
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	opts.logger.Debug("loaded config", "path", path)
	return fileCfg, nil
}

// resolveAnalytics fills unchanged flags from the config file and validates
// the combined policy.
func resolveAnalytics(cmd *cobra.Command, opts *options, fileCfg config.FileConfig) (model.AnalyticsConfig, error) {
	fa := fileCfg.Analytics
	applyStringConfig(cmd, "timezone", &opts.timezone, fa.Timezone)
	applyStringConfig(cmd, "timeframe", &opts.timeframe, fa.Timeframe)
	applyIntConfig(cmd, "periods", &opts.periods, fa.Periods)
	applyIntConfig(cmd, "grace-days", &opts.graceDays, fa.StreakGraceDays)
	applyIntConfig(cmd, "min-attempts", &opts.minAttempts, fa.GapMinAttempts)
	applyFloatConfig(cmd, "max-score", &opts.maxScore, fa.GapMaxScore)
	applyIntConfig(cmd, "gap-limit", &opts.gapLimit, fa.GapLimit)

	merged := config.AnalyticsConfig{
		Timezone:        &opts.timezone,
		Timeframe:       &opts.timeframe,
		Periods:         &opts.periods,
		StreakGraceDays: &opts.graceDays,
		GapMinAttempts:  &opts.minAttempts,
		GapMaxScore:     &opts.maxScore,
		GapLimit:        &opts.gapLimit,
	}
	acfg, err := merged.Resolve()
	if err != nil {
		return model.AnalyticsConfig{}, fmt.Errorf("invalid analytics settings: %w", err)
	}
	return acfg, nil
}

func statsConfig(opts *options, acfg model.AnalyticsConfig) (model.StatsConfig, error) {
	since, until, err := stats.ParseDateBounds(opts.since, opts.until, acfg.Location)
	if err != nil {
		return model.StatsConfig{}, err
	}
	if _, err := analytics.KeyFuncFor(opts.groupBy); err != nil {
		return model.StatsConfig{}, err
	}
	if opts.top < 0 {
		return model.StatsConfig{}, fmt.Errorf("--top must be >= 0")
	}
	return model.StatsConfig{
		TeamID:    strings.TrimSpace(opts.team),
		UserID:    strings.TrimSpace(opts.user),
		Since:     since,
		Until:     until,
		Timeframe: acfg.Timeframe,
		Periods:   acfg.Periods,
		GroupBy:   opts.groupBy,
		Top:       opts.top,
	}, nil
}

func openStore(opts *options, fileCfg config.FileConfig) (*store.Store, error) {
	dbPath := config.ResolveDBPath(opts.dbPath, fileCfg.Store)
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	opts.logger.Debug("opened store", "path", dbPath)
	return st, nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func newConfigCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Open the config file in $EDITOR",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigCmd(cmd, opts)
		},
	}
}

func runConfigCmd(cmd *cobra.Command, opts *options) error {
	path := opts.configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		opts.logger.Info("created config", "path", path)
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	parts = append(parts, path)
	c := exec.CommandContext(cmd.Context(), parts[0], parts[1:]...)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	if err := c.Run(); err != nil {
		return fmt.Errorf("failed to run editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	defaults := config.DefaultAnalytics()
	return fmt.Sprintf(`# quizstats configuration
# Uncomment a value to enable it. CLI flags override config values.

[analytics]
# timezone = "Local"           # IANA zone used for day and period boundaries
# timeframe = %q          # Trend bucket: weekly or monthly
# periods = %d                 # Number of periods (1-%d)
# streak-grace-days = %d        # Missed days a streak survives
# gap-min-attempts = %d         # Attempts needed before a group can be a gap
# gap-max-score = %.1f          # Score percent below which a group is a gap
# gap-limit = %d               # Maximum gaps to report (0 = all)

[store]
# path = %q
`,
		defaults.Timeframe,
		defaults.Periods,
		analytics.MaxPeriodCount,
		defaults.StreakGraceDays,
		defaults.GapMinAttempts,
		defaults.GapMaxScore,
		defaults.GapLimit,
		config.DefaultDBPath(),
	)
}
