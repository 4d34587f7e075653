package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/samber/lo"

	"numberbaseball/internal/baseball"
	"numberbaseball/internal/session"
	"numberbaseball/internal/timer"
	"numberbaseball/internal/types"
)

// buildGameView turns a session snapshot into template data.
func buildGameView(snap session.Snapshot) GameView {
	view := GameView{
		Status:        snap.Status.String(),
		InProgress:    snap.Status == baseball.StatusInProgress,
		Finished:      snap.Status.Terminal(),
		Won:           snap.Status == baseball.StatusWon,
		Length:        snap.Config.Length(),
		Placeholder:   fmt.Sprintf("Enter a %d-digit number", snap.Config.Length()),
		AttemptsLabel: attemptsLabel(snap.RemainingAttempts, snap.AttemptsBounded),
		TimeBounded:   snap.TimeBounded,
		Secret:        snap.Secret,
		Log:           lo.Map(snap.Log, func(e types.LogEntry, _ int) LogLine { return logLine(e) }),
	}
	if snap.AttemptsBounded {
		view.AttemptsLevel = timer.AttemptsLevel(snap.RemainingAttempts)
	}
	if snap.TimeBounded {
		view.ClockLabel = timer.FormatClock(snap.Remaining)
		view.TimeLevel = timer.Level(snap.Remaining)
		view.RemainingMillis = snap.Remaining.Milliseconds()
	}
	return view
}

func attemptsLabel(remaining int, bounded bool) string {
	if !bounded {
		return "∞"
	}
	return strconv.Itoa(remaining)
}

// logLine renders one round log entry.
func logLine(e types.LogEntry) LogLine {
	line := LogLine{Class: string(e.Kind)}
	switch e.Kind {
	case types.LogHomerun:
		line.Headline = "Home run! 🎉"
		line.Text = e.Guess + " is correct!"
	case types.LogOut:
		line.Headline = "Out! 😢"
		line.Text = "Answer: " + e.Secret
	case types.LogTimeout:
		line.Headline = "Time's up! ⏰"
		line.Text = "Answer: " + e.Secret
	default:
		line.Text = baseball.ScoreLine(e.Guess, baseball.Result{Strikes: e.Strikes, Balls: e.Balls})
	}
	return line
}

// buildAPIState is the JSON counterpart of buildGameView.
func buildAPIState(snap session.Snapshot) APIState {
	state := APIState{
		RoundID:      snap.RoundID,
		Status:       snap.Status,
		Config:       snap.Config.Candidate(),
		AttemptsUsed: snap.AttemptsUsed,
		Secret:       snap.Secret,
		Log:          lo.Map(snap.Log, func(e types.LogEntry, _ int) LogLine { return logLine(e) }),
	}
	if snap.AttemptsBounded {
		state.RemainingAttempts = lo.ToPtr(snap.RemainingAttempts)
	}
	if snap.TimeBounded {
		state.RemainingSeconds = lo.ToPtr(int((snap.Remaining + time.Second - 1) / time.Second))
	}
	return state
}
