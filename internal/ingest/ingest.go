// Package ingest loads exported quiz records from JSON or YAML files.
package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/versequiz/quizstats/internal/analytics"
	"github.com/versequiz/quizstats/internal/model"
)

// Format identifies an import file encoding.
type Format int

// Supported formats.
const (
	JSON Format = iota
	YAML
)

// Batch holds the records read from one import file.
type Batch struct {
	Completions  []model.CompletionRecord
	QuestionLogs []model.QuestionLog
}

// Len returns the total number of records.
func (b Batch) Len() int {
	return len(b.Completions) + len(b.QuestionLogs)
}

type fileBatch struct {
	Completions  []rawCompletion  `json:"completions" yaml:"completions"`
	QuestionLogs []rawQuestionLog `json:"question_logs" yaml:"question_logs"`
}

type rawCompletion struct {
	ID          string  `json:"id" yaml:"id"`
	TeamID      string  `json:"team_id" yaml:"team_id"`
	UserID      string  `json:"user_id" yaml:"user_id"`
	Activity    string  `json:"activity" yaml:"activity"`
	CompletedAt *string `json:"completed_at" yaml:"completed_at"`
}

type rawQuestionLog struct {
	ID               string  `json:"id" yaml:"id"`
	TeamID           string  `json:"team_id" yaml:"team_id"`
	UserID           string  `json:"user_id" yaml:"user_id"`
	QuestionID       string  `json:"question_id" yaml:"question_id"`
	Book             string  `json:"book" yaml:"book"`
	Chapter          int     `json:"chapter" yaml:"chapter"`
	Tier             string  `json:"tier" yaml:"tier"`
	PointsEarned     *int    `json:"points_earned" yaml:"points_earned"`
	PointsPossible   *int    `json:"points_possible" yaml:"points_possible"`
	TimeSpentSeconds *int    `json:"time_spent_seconds" yaml:"time_spent_seconds"`
	IsCorrect        *bool   `json:"is_correct" yaml:"is_correct"`
	AnsweredAt       *string `json:"answered_at" yaml:"answered_at"`
}

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON, nil
	case ".yaml", ".yml":
		return YAML, nil
	}
	return 0, fmt.Errorf("unsupported import file %q (use .json, .yaml or .yml)", path)
}

// LoadFile reads and validates one import file.
func LoadFile(path string) (Batch, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return Batch{}, err
	}
	file, err := os.Open(path)
	if err != nil {
		return Batch{}, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only import file.
			_ = cerr
		}
	}()
	batch, err := Decode(file, format)
	if err != nil {
		return Batch{}, fmt.Errorf("%s: %w", path, err)
	}
	return batch, nil
}

// Decode parses records and rejects unknown fields, missing required fields
// and values the analytics core cannot accept.
func Decode(r io.Reader, format Format) (Batch, error) {
	var raw fileBatch
	switch format {
	case JSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return Batch{}, fmt.Errorf("import file is empty")
			}
			return Batch{}, fmt.Errorf("failed to decode json: %w", err)
		}
	case YAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return Batch{}, fmt.Errorf("import file is empty")
			}
			return Batch{}, fmt.Errorf("failed to decode yaml: %w", err)
		}
	default:
		return Batch{}, fmt.Errorf("unknown import format %d", format)
	}

	batch := Batch{
		Completions:  make([]model.CompletionRecord, 0, len(raw.Completions)),
		QuestionLogs: make([]model.QuestionLog, 0, len(raw.QuestionLogs)),
	}
	for i, rc := range raw.Completions {
		c, err := rc.toModel()
		if err != nil {
			return Batch{}, fmt.Errorf("completion %d (%s): %w", i, rc.ID, err)
		}
		batch.Completions = append(batch.Completions, c)
	}
	for i, rl := range raw.QuestionLogs {
		l, err := rl.toModel()
		if err != nil {
			return Batch{}, fmt.Errorf("question log %d (%s): %w", i, rl.ID, err)
		}
		batch.QuestionLogs = append(batch.QuestionLogs, l)
	}
	if err := analytics.ValidateCompletions(batch.Completions); err != nil {
		return Batch{}, err
	}
	if err := analytics.ValidateQuestionLogs(batch.QuestionLogs); err != nil {
		return Batch{}, err
	}
	return batch, nil
}

func (rc rawCompletion) toModel() (model.CompletionRecord, error) {
	completedAt, err := requireTime("completed_at", rc.CompletedAt)
	if err != nil {
		return model.CompletionRecord{}, err
	}
	return model.CompletionRecord{
		ID:          rc.ID,
		TeamID:      rc.TeamID,
		UserID:      rc.UserID,
		Activity:    rc.Activity,
		CompletedAt: completedAt,
	}, nil
}

func (rl rawQuestionLog) toModel() (model.QuestionLog, error) {
	answeredAt, err := requireTime("answered_at", rl.AnsweredAt)
	if err != nil {
		return model.QuestionLog{}, err
	}
	l := model.QuestionLog{
		ID:         rl.ID,
		TeamID:     rl.TeamID,
		UserID:     rl.UserID,
		QuestionID: rl.QuestionID,
		Book:       rl.Book,
		Chapter:    rl.Chapter,
		Tier:       rl.Tier,
		AnsweredAt: answeredAt,
	}
	fields := []struct {
		name   string
		value  *int
		target *int
	}{
		{"points_earned", rl.PointsEarned, &l.PointsEarned},
		{"points_possible", rl.PointsPossible, &l.PointsPossible},
		{"time_spent_seconds", rl.TimeSpentSeconds, &l.TimeSpentSeconds},
	}
	for _, f := range fields {
		if f.value == nil {
			return model.QuestionLog{}, missing(f.name)
		}
		*f.target = *f.value
	}
	if rl.IsCorrect == nil {
		return model.QuestionLog{}, missing("is_correct")
	}
	l.IsCorrect = *rl.IsCorrect
	return l, nil
}

func requireTime(field string, value *string) (time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return time.Time{}, missing(field)
	}
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(*value))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be RFC 3339: %v", analytics.ErrInvalidRecord, field, err)
	}
	return t, nil
}

func missing(field string) error {
	return fmt.Errorf("%w: %s is required", analytics.ErrInvalidRecord, field)
}
