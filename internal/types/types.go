package types

import (
	"time"

	"numberbaseball/internal/baseball"
)

// LogKind classifies a round log line.
type LogKind string

const (
	LogGuess   LogKind = "guess"
	LogHomerun LogKind = "homerun"
	LogOut     LogKind = "out"
	LogTimeout LogKind = "timeout"
)

// LogEntry is one line of the round log shown to the player.
type LogEntry struct {
	Kind              LogKind   `json:"kind"`
	Guess             string    `json:"guess,omitempty"`
	Strikes           int       `json:"strikes"`
	Balls             int       `json:"balls"`
	Secret            string    `json:"secret,omitempty"`
	RemainingAttempts int       `json:"remainingAttempts"`
	AttemptsBounded   bool      `json:"attemptsBounded"`
	At                time.Time `json:"at"`
}

// Terminal reports whether the entry closed its round.
func (e LogEntry) Terminal() bool { return e.Kind != LogGuess }

// SessionSnapshot is the on-disk form of an in-progress session.
type SessionSnapshot struct {
	RoundID        string             `json:"roundId"`
	Config         baseball.Candidate `json:"config"`
	Secret         string             `json:"secret"`
	AttemptsUsed   int                `json:"attemptsUsed"`
	Status         baseball.Status    `json:"status"`
	Deadline       time.Time          `json:"deadline,omitzero"`
	Log            []LogEntry         `json:"log"`
	LastAccessTime time.Time          `json:"lastAccessTime"`
}
