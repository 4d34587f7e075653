// Package session owns one player's active configuration, round, countdown
// and round log, and serializes every change to them.
package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"numberbaseball/internal/baseball"
	"numberbaseball/internal/timer"
	"numberbaseball/internal/types"
)

// Entry is a line of the round log.
type Entry = types.LogEntry

// Sink receives round events as they happen. Methods are called without
// the session lock held, in the order the events occurred.
type Sink interface {
	RoundStarted(roundID string, cfg baseball.Config)
	GuessScored(roundID string, e Entry)
	RoundEnded(roundID string, e Entry)
}

// Snapshot is a read-only view of a session.
type Snapshot struct {
	RoundID           string
	Config            baseball.Config
	Status            baseball.Status
	AttemptsUsed      int
	RemainingAttempts int
	AttemptsBounded   bool
	TimeBounded       bool
	Remaining         time.Duration
	Deadline          time.Time
	Secret            string
	Log               []Entry
}

// Session is safe for concurrent use.
type Session struct {
	mu     sync.Mutex
	clock  quartz.Clock
	logger zerolog.Logger
	sink   Sink
	src    baseball.RandomSource
	gen    *baseball.Generator
	cfg    baseball.Config
	round  *baseball.Round
	timer  *timer.Controller

	roundID string
	log     []Entry
}

// New returns an idle session. Call Start or Apply to begin a round.
func New(opts ...Option) *Session {
	s := &Session{
		clock:  quartz.NewReal(),
		logger: zerolog.Nop(),
		cfg:    baseball.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.gen = baseball.NewGenerator(s.src)
	s.round = baseball.NewRound(s.gen)
	s.timer = timer.New(s.clock)
	return s
}

// Config returns the active configuration.
func (s *Session) Config() baseball.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Start begins a new round with the active configuration, abandoning any
// round in progress.
func (s *Session) Start() Snapshot {
	s.mu.Lock()
	notify := s.startLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	notify()
	return snap
}

// Apply validates c and, only if it passes, makes it the active
// configuration and starts a new round.
func (s *Session) Apply(c baseball.Candidate) (baseball.Config, error) {
	cfg, err := baseball.Validate(c)
	if err != nil {
		s.logger.Debug().Err(err).Msg("rejected configuration")
		return baseball.Config{}, err
	}

	s.mu.Lock()
	s.cfg = cfg
	notify := s.startLocked()
	s.mu.Unlock()

	notify()
	return cfg, nil
}

func (s *Session) startLocked() func() {
	s.timer.Stop()
	s.round.Start(s.cfg)
	s.roundID = uuid.NewString()
	s.log = nil

	roundID, cfg := s.roundID, s.cfg
	if d, timed := cfg.TimeLimit(); timed {
		s.armLocked(roundID, d)
	}

	limit, _ := cfg.MaxAttempts()
	s.logger.Info().
		Str("round", roundID).
		Int("length", cfg.Length()).
		Bool("duplicates", cfg.AllowDuplicates()).
		Int("max_attempts", limit).
		Msg("round started")

	return func() {
		if s.sink != nil {
			s.sink.RoundStarted(roundID, cfg)
		}
	}
}

func (s *Session) armLocked(roundID string, d time.Duration) {
	s.timer.Start(d, func() { s.expire(roundID) })
}

// Submit scores a guess. Surrounding whitespace is ignored. Validation
// errors leave the session unchanged; a guess on a finished round fails
// with baseball.ErrRoundNotActive.
func (s *Session) Submit(raw string) (Entry, error) {
	guess := strings.TrimSpace(raw)

	s.mu.Lock()
	entry, pending, err := s.submitLocked(guess)
	s.mu.Unlock()

	run(pending)
	if err != nil && !errors.Is(err, baseball.ErrRoundNotActive) {
		s.logger.Debug().Err(err).Str("guess", guess).Msg("invalid guess")
	}
	return entry, err
}

// submitLocked applies guess and returns the sink calls to make once the
// lock is released.
func (s *Session) submitLocked(guess string) (Entry, []func(), error) {
	var pending []func()
	if s.round.Status() == baseball.StatusInProgress && s.timer.Expired() {
		// The deadline passed before this guess arrived, even if the
		// countdown callback is still waiting for the lock.
		pending = append(pending, s.timeoutLocked())
	}

	out, err := s.round.SubmitGuess(guess)
	if err != nil {
		return Entry{}, pending, err
	}

	roundID := s.roundID
	remaining, bounded := s.round.RemainingAttempts()
	entry := Entry{
		Kind:              types.LogGuess,
		Guess:             guess,
		Strikes:           out.Result.Strikes,
		Balls:             out.Result.Balls,
		RemainingAttempts: remaining,
		AttemptsBounded:   bounded,
		At:                s.clock.Now(),
	}

	switch out.Kind {
	case baseball.OutcomeWon:
		s.timer.Stop()
		entry.Kind = types.LogHomerun
		entry.Secret = s.secretLocked()
		s.log = append(s.log, entry)
		pending = append(pending, s.ended(roundID, entry))
	case baseball.OutcomeLost:
		s.timer.Stop()
		s.log = append(s.log, entry)
		pending = append(pending, s.scored(roundID, entry))
		end := entry
		end.Kind = types.LogOut
		end.Guess = ""
		end.Secret = s.secretLocked()
		s.log = append(s.log, end)
		pending = append(pending, s.ended(roundID, end))
	default:
		s.log = append(s.log, entry)
		pending = append(pending, s.scored(roundID, entry))
	}

	s.logger.Info().
		Str("round", roundID).
		Str("guess", guess).
		Int("attempt", s.round.AttemptsUsed()).
		Int("strikes", entry.Strikes).
		Int("balls", entry.Balls).
		Stringer("outcome", out.Kind).
		Msg("guess scored")
	return entry, pending, nil
}

// Timeout ends the round in progress as if its countdown had run out.
func (s *Session) Timeout() error {
	s.mu.Lock()
	if s.round.Status() != baseball.StatusInProgress {
		s.mu.Unlock()
		return baseball.ErrRoundNotActive
	}
	notify := s.timeoutLocked()
	s.mu.Unlock()

	notify()
	return nil
}

// expire is the countdown callback for roundID.
func (s *Session) expire(roundID string) {
	s.mu.Lock()
	if roundID != s.roundID || s.round.Status() != baseball.StatusInProgress {
		s.mu.Unlock()
		return
	}
	notify := s.timeoutLocked()
	s.mu.Unlock()

	notify()
}

func (s *Session) timeoutLocked() func() {
	_ = s.round.SignalTimeout()
	s.timer.Stop()

	remaining, bounded := s.round.RemainingAttempts()
	entry := Entry{
		Kind:              types.LogTimeout,
		Secret:            s.secretLocked(),
		RemainingAttempts: remaining,
		AttemptsBounded:   bounded,
		At:                s.clock.Now(),
	}
	s.log = append(s.log, entry)
	s.logger.Info().Str("round", s.roundID).Int("attempts", s.round.AttemptsUsed()).Msg("round timed out")
	return s.ended(s.roundID, entry)
}

func (s *Session) secretLocked() string {
	secret, _ := s.round.RevealSecret()
	return secret.String()
}

func (s *Session) scored(roundID string, e Entry) func() {
	return func() {
		if s.sink != nil {
			s.sink.GuessScored(roundID, e)
		}
	}
}

func (s *Session) ended(roundID string, e Entry) func() {
	return func() {
		if s.sink != nil {
			s.sink.RoundEnded(roundID, e)
		}
	}
}

func run(fns []func()) {
	for _, fn := range fns {
		fn()
	}
}

// Snapshot returns the current state of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	cfg := s.round.Config()
	if cfg.IsZero() {
		cfg = s.cfg
	}
	remaining, bounded := cfg.MaxAttempts()
	if s.round.Status() != baseball.StatusIdle {
		remaining, bounded = s.round.RemainingAttempts()
	}
	limit, timed := cfg.TimeLimit()

	snap := Snapshot{
		RoundID:           s.roundID,
		Config:            cfg,
		Status:            s.round.Status(),
		AttemptsUsed:      s.round.AttemptsUsed(),
		RemainingAttempts: remaining,
		AttemptsBounded:   bounded,
		TimeBounded:       timed,
		Log:               append([]Entry(nil), s.log...),
	}
	switch {
	case s.timer.Running():
		snap.Remaining = s.timer.Remaining()
		snap.Deadline = s.timer.Deadline()
	case timed && s.round.Status() == baseball.StatusIdle:
		snap.Remaining = limit
	}
	if s.round.Status().Terminal() {
		snap.Secret = s.secretLocked()
	}
	return snap
}

// Export returns the persistable form of an in-progress session. ok is
// false when there is nothing worth keeping.
func (s *Session) Export() (types.SessionSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.round.Status() != baseball.StatusInProgress {
		return types.SessionSnapshot{}, false
	}
	st := s.round.State()
	return types.SessionSnapshot{
		RoundID:        s.roundID,
		Config:         s.round.Config().Candidate(),
		Secret:         st.Secret.String(),
		AttemptsUsed:   st.AttemptsUsed,
		Status:         st.Status,
		Deadline:       s.timer.Deadline(),
		Log:            append([]Entry(nil), s.log...),
		LastAccessTime: s.clock.Now(),
	}, true
}

// Import replaces the session state with a saved one. A countdown whose
// deadline has already passed ends the round immediately.
func (s *Session) Import(snap types.SessionSnapshot) error {
	cfg, err := baseball.Validate(snap.Config)
	if err != nil {
		return fmt.Errorf("import session: %w", err)
	}
	secret, err := baseball.ParseSecret(snap.Secret)
	if err != nil {
		return fmt.Errorf("import session: %w", err)
	}
	round, err := baseball.Restore(s.gen, cfg, secret, snap.AttemptsUsed, snap.Status)
	if err != nil {
		return fmt.Errorf("import session: %w", err)
	}
	if _, timed := cfg.TimeLimit(); timed && snap.Status == baseball.StatusInProgress && snap.Deadline.IsZero() {
		return fmt.Errorf("import session: timed round %s has no deadline", snap.RoundID)
	}

	s.mu.Lock()
	s.timer.Stop()
	s.cfg = cfg
	s.round = round
	s.roundID = snap.RoundID
	if s.roundID == "" {
		s.roundID = uuid.NewString()
	}
	s.log = append([]Entry(nil), snap.Log...)

	var pending []func()
	if round.Status() == baseball.StatusInProgress && !snap.Deadline.IsZero() {
		left := snap.Deadline.Sub(s.clock.Now())
		if left <= 0 {
			pending = append(pending, s.timeoutLocked())
		} else {
			s.armLocked(s.roundID, left)
		}
	}
	s.mu.Unlock()

	run(pending)
	return nil
}

// Close stops the countdown. The session stays readable.
func (s *Session) Close() {
	s.timer.Stop()
}
