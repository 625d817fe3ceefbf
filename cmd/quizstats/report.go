package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/versequiz/quizstats/internal/analytics"
	"github.com/versequiz/quizstats/internal/stats"
)

type renderFunc func(w io.Writer, r stats.Report) error

// reportCmd builds a command that loads one report and renders it to stdout.
func reportCmd(opts *options, use, short string, render renderFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := openReportEnv(cmd, opts)
			if err != nil {
				return err
			}
			defer env.close()

			report, err := stats.BuildReport(cmd.Context(), env.store, env.cfg, env.acfg, opts.now())
			if err != nil {
				return fmt.Errorf("failed to build report: %w", err)
			}
			opts.logger.Debug("built report",
				"periods", len(report.Periods),
				"attempts", report.Overall.TotalAttempts,
				"completions", report.Completions,
			)
			return render(cmd.OutOrStdout(), report)
		},
	}
	addReportFlags(cmd, opts)
	return cmd
}

func newSummaryCmd(opts *options) *cobra.Command {
	return reportCmd(opts, "summary", "Show totals, streaks and the weakest groups", stats.RenderSummary)
}

func newStreakCmd(opts *options) *cobra.Command {
	return reportCmd(opts, "streak", "Show current and longest study streaks", func(w io.Writer, r stats.Report) error {
		return stats.RenderStreak(w, r.Streak)
	})
}

func newTrendCmd(opts *options) *cobra.Command {
	var width int
	var color bool
	cmd := reportCmd(opts, "trend", "Show scores per period", func(w io.Writer, r stats.Report) error {
		return stats.RenderTrend(w, r.Trend, width, color)
	})
	cmd.Flags().IntVar(&width, "width", 0, "chart width (default: terminal width)")
	cmd.Flags().BoolVar(&color, "color", false, "force colored bars")
	return cmd
}

func newGapsCmd(opts *options) *cobra.Command {
	cmd := reportCmd(opts, "gaps", "Show knowledge gaps", func(w io.Writer, r stats.Report) error {
		if opts.all {
			return stats.RenderGroups(w, r.Config.GroupBy, r.Groups)
		}
		return stats.RenderGaps(w, r.Config.GroupBy, r.Gaps)
	})
	cmd.Flags().StringVar(&opts.groupBy, "by", opts.groupBy, "grouping: book, chapter, tier, user, question")
	cmd.Flags().BoolVar(&opts.all, "all", false, "show every group instead of only gaps")
	return cmd
}

func newQuestionsCmd(opts *options) *cobra.Command {
	cmd := reportCmd(opts, "questions", "Show per-question accuracy, weakest first", func(w io.Writer, r stats.Report) error {
		return stats.RenderQuestions(w, r.Questions, opts.limit)
	})
	cmd.Flags().IntVar(&opts.limit, "limit", opts.limit, "maximum questions to show (0 = all)")
	return cmd
}

func newLeaderboardCmd(opts *options) *cobra.Command {
	cmd := reportCmd(opts, "leaderboard", "Rank users by points earned", func(w io.Writer, r stats.Report) error {
		return stats.RenderLeaderboard(w, r.Leaderboard)
	})
	cmd.Flags().IntVar(&opts.top, "top", opts.top, "number of users to show (0 = all)")
	return cmd
}

func newPeriodsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "periods",
		Short: "List the date periods a report would cover",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fileCfg, err := loadFileConfig(opts)
			if err != nil {
				return err
			}
			acfg, err := resolveAnalytics(cmd, opts, fileCfg)
			if err != nil {
				return err
			}
			cfg, err := statsConfig(opts, acfg)
			if err != nil {
				return err
			}
			periods, err := analytics.ComputePeriods(analytics.PeriodRequest{
				Timeframe:    cfg.Timeframe,
				Start:        cfg.Since,
				End:          cfg.Until,
				DefaultCount: cfg.Periods,
			}, opts.now(), acfg.Location)
			if err != nil {
				return fmt.Errorf("failed to compute periods: %w", err)
			}
			return stats.RenderPeriods(cmd.OutOrStdout(), periods)
		},
	}
	addReportFlags(cmd, opts)
	return cmd
}
