package analytics

import (
	"errors"
	"fmt"

	"github.com/versequiz/quizstats/internal/model"
)

var (
	// ErrInvalidRecord marks a structurally invalid completion or question log.
	ErrInvalidRecord = errors.New("invalid record")
	// ErrUnknownTimeframe marks a timeframe other than weekly or monthly.
	ErrUnknownTimeframe = errors.New("unknown timeframe")
	// ErrInvalidRange marks a period request whose start is after its end.
	ErrInvalidRange = errors.New("invalid range")
)

// ValidateCompletion checks a completion before it enters the core.
func ValidateCompletion(c model.CompletionRecord) error {
	if c.CompletedAt.IsZero() {
		return fmt.Errorf("%w: completed_at is required", ErrInvalidRecord)
	}
	return nil
}

// ValidateQuestionLog checks a question log before it enters the core.
func ValidateQuestionLog(l model.QuestionLog) error {
	switch {
	case l.AnsweredAt.IsZero():
		return fmt.Errorf("%w: answered_at is required", ErrInvalidRecord)
	case l.QuestionID == "":
		return fmt.Errorf("%w: question_id is required", ErrInvalidRecord)
	case l.Book == "":
		return fmt.Errorf("%w: book is required", ErrInvalidRecord)
	case l.Chapter < 0:
		return fmt.Errorf("%w: chapter must be >= 0, got %d", ErrInvalidRecord, l.Chapter)
	case l.PointsEarned < 0:
		return fmt.Errorf("%w: points_earned must be >= 0, got %d", ErrInvalidRecord, l.PointsEarned)
	case l.PointsPossible < 0:
		return fmt.Errorf("%w: points_possible must be >= 0, got %d", ErrInvalidRecord, l.PointsPossible)
	case l.TimeSpentSeconds < 0:
		return fmt.Errorf("%w: time_spent_seconds must be >= 0, got %d", ErrInvalidRecord, l.TimeSpentSeconds)
	}
	return nil
}

// ValidateCompletions stops at the first invalid completion.
func ValidateCompletions(cs []model.CompletionRecord) error {
	for i, c := range cs {
		if err := ValidateCompletion(c); err != nil {
			return fmt.Errorf("completion %d (%s): %w", i, c.ID, err)
		}
	}
	return nil
}

// ValidateQuestionLogs stops at the first invalid question log.
func ValidateQuestionLogs(logs []model.QuestionLog) error {
	for i, l := range logs {
		if err := ValidateQuestionLog(l); err != nil {
			return fmt.Errorf("question log %d (%s): %w", i, l.ID, err)
		}
	}
	return nil
}
