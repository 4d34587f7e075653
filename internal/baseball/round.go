package baseball

import (
	"fmt"
)

// Status is the lifecycle position of a Round.
type Status int

const (
	StatusIdle Status = iota
	StatusInProgress
	StatusWon
	StatusLostByAttempts
	StatusLostByTimeout
)

var statusNames = map[Status]string{
	StatusIdle:           "idle",
	StatusInProgress:     "in_progress",
	StatusWon:            "won",
	StatusLostByAttempts: "lost_by_attempts",
	StatusLostByTimeout:  "lost_by_timeout",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Terminal reports whether no more guesses can change the round.
func (s Status) Terminal() bool {
	return s == StatusWon || s == StatusLostByAttempts || s == StatusLostByTimeout
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Status) UnmarshalText(text []byte) error {
	for k, v := range statusNames {
		if v == string(text) {
			*s = k
			return nil
		}
	}
	return fmt.Errorf("unknown round status %q", text)
}

// OutcomeKind tells the caller what a scored guess did to the round.
type OutcomeKind int

const (
	OutcomeContinue OutcomeKind = iota
	OutcomeWon
	OutcomeLost
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeWon:
		return "won"
	case OutcomeLost:
		return "lost"
	default:
		return "continue"
	}
}

// Outcome is returned for every accepted guess.
type Outcome struct {
	Kind   OutcomeKind
	Result Result
}

// State is a copy of the round's mutable fields.
type State struct {
	AttemptsUsed int
	Status       Status
	Secret       Secret
}

// Round is the state machine for a single game: Idle, then InProgress until
// a homerun, the attempt limit or a timeout ends it. It is not safe for
// concurrent use; callers serialize access.
type Round struct {
	gen      *Generator
	cfg      Config
	secret   Secret
	attempts int
	status   Status
}

// NewRound returns an Idle round drawing secrets from gen.
func NewRound(gen *Generator) *Round {
	if gen == nil {
		gen = NewGenerator(nil)
	}
	return &Round{gen: gen, status: StatusIdle}
}

// Start begins a new round with cfg, discarding any previous one. A zero
// cfg means DefaultConfig.
func (r *Round) Start(cfg Config) State {
	if cfg.IsZero() {
		cfg = DefaultConfig()
	}
	r.cfg = cfg
	r.secret = r.gen.Generate(cfg)
	r.attempts = 0
	r.status = StatusInProgress
	return r.State()
}

// SubmitGuess validates and scores raw. Invalid input leaves the round
// untouched and does not use up an attempt.
func (r *Round) SubmitGuess(raw string) (Outcome, error) {
	if r.status != StatusInProgress {
		return Outcome{}, ErrRoundNotActive
	}
	if err := ValidateGuess(raw, r.cfg); err != nil {
		return Outcome{}, err
	}

	r.attempts++
	res := Score(ParseDigits(raw), r.secret)

	if res.Homerun(r.cfg.Length()) {
		r.status = StatusWon
		return Outcome{Kind: OutcomeWon, Result: res}, nil
	}
	if limit, bounded := r.cfg.MaxAttempts(); bounded && r.attempts >= limit {
		r.status = StatusLostByAttempts
		return Outcome{Kind: OutcomeLost, Result: res}, nil
	}
	return Outcome{Kind: OutcomeContinue, Result: res}, nil
}

// SignalTimeout ends an in-progress round. Any other state returns
// ErrRoundNotActive and changes nothing.
func (r *Round) SignalTimeout() error {
	if r.status != StatusInProgress {
		return ErrRoundNotActive
	}
	r.status = StatusLostByTimeout
	return nil
}

func (r *Round) Status() Status { return r.status }

func (r *Round) AttemptsUsed() int { return r.attempts }

func (r *Round) Config() Config { return r.cfg }

// RemainingAttempts returns attempts left and false when attempts are unlimited.
func (r *Round) RemainingAttempts() (int, bool) {
	limit, bounded := r.cfg.MaxAttempts()
	if !bounded {
		return 0, false
	}
	return max(limit-r.attempts, 0), true
}

// RevealSecret returns the secret once the round is terminal.
func (r *Round) RevealSecret() (Secret, bool) {
	if !r.status.Terminal() {
		return nil, false
	}
	return r.secret.clone(), true
}

func (r *Round) State() State {
	return State{AttemptsUsed: r.attempts, Status: r.status, Secret: r.secret.clone()}
}

// Restore rebuilds a round from saved fields. It rejects a secret that does
// not fit cfg and attempt counts the limit would already have ended.
func Restore(gen *Generator, cfg Config, secret Secret, attempts int, status Status) (*Round, error) {
	if cfg.IsZero() {
		return nil, fmt.Errorf("restore round: %w", newValidationError(ErrOutOfRange, "config", "Configuration is missing."))
	}
	if err := ValidateGuess(secret.String(), cfg); err != nil || len(secret) != cfg.Length() {
		return nil, fmt.Errorf("restore round: secret %q does not fit configuration", secret.String())
	}
	if attempts < 0 {
		return nil, fmt.Errorf("restore round: negative attempts %d", attempts)
	}
	if limit, bounded := cfg.MaxAttempts(); bounded && status == StatusInProgress && attempts >= limit {
		return nil, fmt.Errorf("restore round: %d attempts exhaust limit %d", attempts, limit)
	}
	if status == StatusIdle {
		return nil, fmt.Errorf("restore round: idle rounds have no state")
	}
	r := NewRound(gen)
	r.cfg = cfg
	r.secret = secret.clone()
	r.attempts = attempts
	r.status = status
	return r, nil
}
