package main

import "numberbaseball/internal/baseball"

type contextKey string

// GameView is what the game-content template renders.
type GameView struct {
	Status          string
	InProgress      bool
	Finished        bool
	Won             bool
	Length          int
	Placeholder     string
	AttemptsLabel   string
	AttemptsLevel   string
	TimeBounded     bool
	ClockLabel      string
	TimeLevel       string
	RemainingMillis int64
	Secret          string
	Log             []LogLine
}

// LogLine is one rendered round log entry.
type LogLine struct {
	Class    string `json:"kind"`
	Headline string `json:"headline,omitempty"`
	Text     string `json:"text"`
}

// APIState is the JSON body of GET /api/state.
type APIState struct {
	RoundID           string             `json:"roundId"`
	Status            baseball.Status    `json:"status"`
	Config            baseball.Candidate `json:"config"`
	AttemptsUsed      int                `json:"attemptsUsed"`
	RemainingAttempts *int               `json:"remainingAttempts"`
	RemainingSeconds  *int               `json:"remainingSeconds"`
	Secret            string             `json:"secret,omitempty"`
	Log               []LogLine          `json:"log"`
}
