package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/versequiz/quizstats/internal/generator"
	"github.com/versequiz/quizstats/internal/ingest"
	"github.com/versequiz/quizstats/internal/store"
)

func newImportCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>...",
		Short: "Import completions and question logs from JSON or YAML files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Every file is decoded and validated before anything is stored.
			batches := make([]ingest.Batch, len(args))
			for i, path := range args {
				batch, err := ingest.LoadFile(path)
				if err != nil {
					return fmt.Errorf("failed to import: %w", err)
				}
				opts.logger.Debug("decoded file", "path", path, "records", batch.Len())
				batches[i] = batch
			}

			fileCfg, err := loadFileConfig(opts)
			if err != nil {
				return err
			}
			st, err := openStore(opts, fileCfg)
			if err != nil {
				return err
			}
			defer closeStore(opts.logger, st)

			for i, batch := range batches {
				completions, err := st.InsertCompletions(cmd.Context(), batch.Completions)
				if err != nil {
					return fmt.Errorf("%s: %w", args[i], err)
				}
				logs, err := st.InsertQuestionLogs(cmd.Context(), batch.QuestionLogs)
				if err != nil {
					return fmt.Errorf("%s: %w", args[i], err)
				}
				opts.logger.Info("imported",
					"path", args[i],
					"completions", completions,
					"question_logs", logs,
					"duplicates", batch.Len()-completions-logs,
				)
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s: %s completions, %s question logs\n",
					args[i], humanize.Comma(int64(completions)), humanize.Comma(int64(logs))); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newSeedCmd(opts *options) *cobra.Command {
	var (
		team      string
		users     string
		days      int
		questions int
		rate      float64
		weak      string
		factor    float64
		seed      int64
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Store generated sample activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			userList := splitList(users)
			if len(userList) == 0 {
				return fmt.Errorf("--users must not be empty")
			}
			if days <= 0 {
				return fmt.Errorf("--days must be > 0")
			}
			if questions < 0 {
				return fmt.Errorf("--questions must be >= 0")
			}
			if rate < 0 || rate > 1 {
				return fmt.Errorf("--rate must be between 0 and 1")
			}
			weakBooks := make(map[string]struct{})
			for _, b := range splitList(weak) {
				weakBooks[b] = struct{}{}
			}

			completions, logs := generator.New(seed).Generate(generator.Options{
				TeamID:          team,
				Users:           userList,
				Days:            days,
				End:             opts.now(),
				QuestionsPerDay: questions,
				StudyRate:       rate,
				WeakBooks:       weakBooks,
				WeakFactor:      factor,
			})

			fileCfg, err := loadFileConfig(opts)
			if err != nil {
				return err
			}
			st, err := openStore(opts, fileCfg)
			if err != nil {
				return err
			}
			defer closeStore(opts.logger, st)

			nc, err := st.InsertCompletions(cmd.Context(), completions)
			if err != nil {
				return err
			}
			nl, err := st.InsertQuestionLogs(cmd.Context(), logs)
			if err != nil {
				return err
			}
			opts.logger.Info("seeded", "team", team, "users", len(userList), "completions", nc, "question_logs", nl)
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Seeded %s completions and %s question logs for team %s\n",
				humanize.Comma(int64(nc)), humanize.Comma(int64(nl)), team)
			return err
		},
	}
	cmd.Flags().StringVar(&team, "team", "demo", "team id")
	cmd.Flags().StringVar(&users, "users", "ana,ben,cy,dee", "comma-separated user ids")
	cmd.Flags().IntVar(&days, "days", 90, "days of activity ending today")
	cmd.Flags().IntVar(&questions, "questions", 15, "questions answered per study day")
	cmd.Flags().Float64Var(&rate, "rate", 0.7, "chance a user studies on a given day (0-1)")
	cmd.Flags().StringVar(&weak, "weak", "Ruth,Hebrews", "comma-separated books answered poorly")
	cmd.Flags().Float64Var(&factor, "weak-factor", 1.0, "extra draw weight for weak books")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 = time based)")
	return cmd
}

func closeStore(logger *slog.Logger, st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logger.Warn("failed to close db", "err", cerr)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
