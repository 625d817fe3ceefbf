// Package model defines shared data structures.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Timeframe selects the bucket length for trend periods.
type Timeframe string

// Supported timeframes.
const (
	Weekly  Timeframe = "weekly"
	Monthly Timeframe = "monthly"
)

// ParseTimeframe normalizes a user-supplied timeframe.
func ParseTimeframe(s string) (Timeframe, error) {
	switch Timeframe(strings.ToLower(strings.TrimSpace(s))) {
	case Weekly, "week", "w":
		return Weekly, nil
	case Monthly, "month", "m":
		return Monthly, nil
	}
	return "", fmt.Errorf("unknown timeframe %q (use weekly or monthly)", s)
}

// CompletionRecord is one completed study activity.
type CompletionRecord struct {
	ID          string
	TeamID      string
	UserID      string
	Activity    string
	CompletedAt time.Time
}

// QuestionLog is one answered quiz question.
type QuestionLog struct {
	ID               string
	TeamID           string
	UserID           string
	QuestionID       string
	Book             string
	Chapter          int
	Tier             string
	PointsEarned     int
	PointsPossible   int
	TimeSpentSeconds int
	IsCorrect        bool
	AnsweredAt       time.Time
}

// DatePeriod is the half-open interval [Start, End) with a display label.
type DatePeriod struct {
	Start time.Time
	End   time.Time
	Label string
}

// Contains reports whether t falls inside the period.
func (p DatePeriod) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// InclusiveEnd returns the last millisecond of the period.
func (p DatePeriod) InclusiveEnd() time.Time {
	return p.End.Add(-time.Millisecond)
}

// AggregateResult rolls up question logs sharing a grouping key.
type AggregateResult struct {
	Key                   string
	TotalAttempts         int
	CorrectAttempts       int
	TotalPointsEarned     int
	TotalPointsPossible   int
	TotalTimeSpentSeconds int
	AverageScorePercent   float64
}

// QuestionPerformance summarizes how a single question is answered.
type QuestionPerformance struct {
	QuestionID         string
	Attempts           int
	Correct            int
	AccuracyPercent    int
	AverageTimeSeconds int
}

// PeriodSummary aggregates activity inside one DatePeriod.
type PeriodSummary struct {
	Period              DatePeriod
	Completions         int
	Attempts            int
	Correct             int
	PointsEarned        int
	PointsPossible      int
	TimeSpentSeconds    int
	AverageScorePercent float64
}

// StreakInfo holds current and longest study streaks.
type StreakInfo struct {
	Current   int
	Longest   int
	StudyDays int
}

// LeaderboardEntry ranks one user by points earned.
type LeaderboardEntry struct {
	Rank            int
	UserID          string
	Points          int
	Attempts        int
	AccuracyPercent int
}

// AnalyticsConfig holds policy values for the analytics core.
type AnalyticsConfig struct {
	Location        *time.Location
	Timeframe       Timeframe
	Periods         int
	StreakGraceDays int
	GapMinAttempts  int
	GapMaxScore     float64
	GapLimit        int
}

// StatsConfig defines filters and options for report output. Until is the
// last included instant; zero Timeframe or Periods fall back to configuration.
type StatsConfig struct {
	TeamID    string
	UserID    string
	Since     *time.Time
	Until     *time.Time
	Timeframe Timeframe
	Periods   int
	// GroupBy names the grouping for the breakdown and gap tables.
	GroupBy string
	// Top limits the leaderboard; zero keeps every user.
	Top int
}

// RecordFilter narrows store queries. Until is exclusive.
type RecordFilter struct {
	TeamID string
	UserID string
	Since  *time.Time
	Until  *time.Time
}
