// Package store handles SQLite persistence of imported quiz records.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/versequiz/quizstats/internal/analytics"
	"github.com/versequiz/quizstats/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for completions and question logs.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS completions (
			id TEXT PRIMARY KEY,
			team_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			activity TEXT NOT NULL,
			completed_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS question_logs (
			id TEXT PRIMARY KEY,
			team_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			question_id TEXT NOT NULL,
			book TEXT NOT NULL,
			chapter INTEGER NOT NULL,
			tier TEXT NOT NULL,
			points_earned INTEGER NOT NULL,
			points_possible INTEGER NOT NULL,
			time_spent_seconds INTEGER NOT NULL,
			is_correct INTEGER NOT NULL,
			answered_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_completions_completed_at ON completions(completed_at);`,
		`CREATE INDEX IF NOT EXISTS idx_completions_team_user ON completions(team_id, user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_question_logs_answered_at ON question_logs(answered_at);`,
		`CREATE INDEX IF NOT EXISTS idx_question_logs_team_user ON question_logs(team_id, user_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertCompletions stores completions, skipping ids already present, and
// returns the number of new rows. Records without an id get a UUID.
func (s *Store) InsertCompletions(ctx context.Context, completions []model.CompletionRecord) (int, error) {
	if err := analytics.ValidateCompletions(completions); err != nil {
		return 0, err
	}
	return s.insertBatch(ctx,
		`INSERT OR IGNORE INTO completions (id, team_id, user_id, activity, completed_at)
		 VALUES (?, ?, ?, ?, ?)`,
		len(completions),
		func(i int) []any {
			c := completions[i]
			return []any{recordID(c.ID), c.TeamID, c.UserID, c.Activity, toMillis(c.CompletedAt)}
		})
}

// InsertQuestionLogs stores question logs, skipping ids already present, and
// returns the number of new rows. Records without an id get a UUID.
func (s *Store) InsertQuestionLogs(ctx context.Context, logs []model.QuestionLog) (int, error) {
	if err := analytics.ValidateQuestionLogs(logs); err != nil {
		return 0, err
	}
	return s.insertBatch(ctx,
		`INSERT OR IGNORE INTO question_logs (id, team_id, user_id, question_id, book, chapter, tier,
			points_earned, points_possible, time_spent_seconds, is_correct, answered_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		len(logs),
		func(i int) []any {
			l := logs[i]
			return []any{
				recordID(l.ID), l.TeamID, l.UserID, l.QuestionID, l.Book, l.Chapter, l.Tier,
				l.PointsEarned, l.PointsPossible, l.TimeSpentSeconds, l.IsCorrect, toMillis(l.AnsweredAt),
			}
		})
}

func (s *Store) insertBatch(ctx context.Context, query string, n int, args func(int) []any) (inserted int, err error) {
	if n == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	for i := 0; i < n; i++ {
		res, execErr := stmt.ExecContext(ctx, args(i)...)
		if execErr != nil {
			err = execErr
			return 0, err
		}
		affected, affErr := res.RowsAffected()
		if affErr != nil {
			err = affErr
			return 0, err
		}
		inserted += int(affected)
	}
	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

// ListCompletions returns completions matching the filter, oldest first.
func (s *Store) ListCompletions(ctx context.Context, filter model.RecordFilter) ([]model.CompletionRecord, error) {
	where, args := filterClause(filter, "completed_at")
	query := fmt.Sprintf(`SELECT id, team_id, user_id, activity, completed_at
		FROM completions
		WHERE %s
		ORDER BY completed_at ASC, id ASC`, where)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.CompletionRecord
	for rows.Next() {
		var c model.CompletionRecord
		var completedAt int64
		if err := rows.Scan(&c.ID, &c.TeamID, &c.UserID, &c.Activity, &completedAt); err != nil {
			return nil, err
		}
		c.CompletedAt = fromMillis(completedAt)
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListQuestionLogs returns question logs matching the filter, oldest first.
func (s *Store) ListQuestionLogs(ctx context.Context, filter model.RecordFilter) ([]model.QuestionLog, error) {
	where, args := filterClause(filter, "answered_at")
	query := fmt.Sprintf(`SELECT id, team_id, user_id, question_id, book, chapter, tier,
			points_earned, points_possible, time_spent_seconds, is_correct, answered_at
		FROM question_logs
		WHERE %s
		ORDER BY answered_at ASC, id ASC`, where)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.QuestionLog
	for rows.Next() {
		var l model.QuestionLog
		var answeredAt int64
		if err := rows.Scan(&l.ID, &l.TeamID, &l.UserID, &l.QuestionID, &l.Book, &l.Chapter, &l.Tier,
			&l.PointsEarned, &l.PointsPossible, &l.TimeSpentSeconds, &l.IsCorrect, &answeredAt); err != nil {
			return nil, err
		}
		l.AnsweredAt = fromMillis(answeredAt)
		result = append(result, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Counts returns the number of stored completions and question logs.
func (s *Store) Counts(ctx context.Context) (completions, logs int, err error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM completions), (SELECT COUNT(*) FROM question_logs)`)
	if err := row.Scan(&completions, &logs); err != nil {
		return 0, 0, err
	}
	return completions, logs, nil
}

func filterClause(filter model.RecordFilter, timeColumn string) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.TeamID != "" {
		clauses = append(clauses, "team_id = ?")
		args = append(args, filter.TeamID)
	}
	if filter.UserID != "" {
		clauses = append(clauses, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.Since != nil {
		clauses = append(clauses, timeColumn+" >= ?")
		args = append(args, toMillis(*filter.Since))
	}
	if filter.Until != nil {
		clauses = append(clauses, timeColumn+" < ?")
		args = append(args, toMillis(*filter.Until))
	}
	return strings.Join(clauses, " AND "), args
}

func recordID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
