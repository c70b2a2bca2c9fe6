package domain

import (
	"strings"
	"time"
)

// Option is one of the four answer letters a question offers.
type Option string

const (
	OptionA Option = "A"
	OptionB Option = "B"
	OptionC Option = "C"
	OptionD Option = "D"
)

// Options lists the answer letters in display order.
var Options = []Option{OptionA, OptionB, OptionC, OptionD}

// ParseOption normalises a client supplied letter. ok is false for anything outside A-D.
func ParseOption(raw string) (Option, bool) {
	opt := Option(strings.ToUpper(strings.TrimSpace(raw)))
	switch opt {
	case OptionA, OptionB, OptionC, OptionD:
		return opt, true
	}
	return "", false
}

// Question is an immutable multiple choice record from the question bank.
type Question struct {
	ID      int64             `json:"id"`
	Text    string            `json:"text"`
	Options map[Option]string `json:"options"`
	Correct Option            `json:"correct"`
}

// IsCorrect compares the selected letter with the correct one, ignoring case.
func (q Question) IsCorrect(selected Option) bool {
	return strings.EqualFold(string(q.Correct), string(selected))
}

// SessionState is the lifecycle of a quiz session. Transitions only move forward.
type SessionState int

const (
	StatePending SessionState = iota
	StateActive
	StateFinished
)

func (s SessionState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateActive:
		return "active"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Participant represents one connected player and their accumulated results.
type Participant struct {
	ConnectionID    string
	DisplayName     string
	Score           int
	CorrectCount    int
	AnsweredCount   int
	TotalAnswerTime time.Duration
}

// LeaderboardEntry is a snapshot-friendly view of a participant.
type LeaderboardEntry struct {
	Name     string `json:"name"`
	Score    int    `json:"score"`
	Correct  int    `json:"correct"`
	Answered int    `json:"answered"`
}

// QuestionView is the public form of the current question; the correct letter is never exposed.
type QuestionView struct {
	Index   int               `json:"index"`
	Total   int               `json:"total"`
	ID      int64             `json:"id"`
	Text    string            `json:"text"`
	Options map[Option]string `json:"options"`
}

// StateSnapshot is the full state pushed to a quiz room after every change.
type StateSnapshot struct {
	QuizID      string             `json:"-"`
	Started     bool               `json:"started"`
	Finished    bool               `json:"finished"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
	Question    *QuestionView      `json:"question"`
	Deadline    *float64           `json:"deadline"`
	TimeLimit   int                `json:"time_limit"`
}
