package baseball

import (
	"strconv"
	"strings"
	"time"
)

// Limits accepted by Validate.
const (
	MinSequenceLength       = 2
	MaxSequenceLength       = 10
	MaxUniqueSequenceLength = 9
	MinAttempts             = 1
	MaxAttempts             = 999
	MinTimeLimitSeconds     = 10
	MaxTimeLimitSeconds     = 999
)

// Defaults applied on first start and to raw values that do not parse.
const (
	DefaultSequenceLength   = 4
	DefaultMaxAttempts      = 10
	DefaultTimeLimitSeconds = 60
)

// Candidate is an unvalidated set of game parameters.
type Candidate struct {
	SequenceLength    int  `json:"sequenceLength"`
	AllowDuplicates   bool `json:"allowDuplicates"`
	MaxAttempts       int  `json:"maxAttempts"`
	UnlimitedAttempts bool `json:"unlimitedAttempts"`
	TimeLimitSeconds  int  `json:"timeLimitSeconds"`
	UnlimitedTime     bool `json:"unlimitedTime"`
}

// RawCandidate holds configuration values the way a form submits them.
type RawCandidate struct {
	SequenceLength    string
	AllowDuplicates   bool
	MaxAttempts       string
	UnlimitedAttempts bool
	TimeLimitSeconds  string
	UnlimitedTime     bool
}

// Config is a validated Candidate. The zero value is not valid; obtain one
// from Validate or DefaultConfig.
type Config struct {
	c     Candidate
	valid bool
}

// DefaultCandidate returns the parameters a fresh session starts with.
func DefaultCandidate() Candidate {
	return Candidate{
		SequenceLength:    DefaultSequenceLength,
		AllowDuplicates:   false,
		MaxAttempts:       DefaultMaxAttempts,
		UnlimitedAttempts: false,
		TimeLimitSeconds:  DefaultTimeLimitSeconds,
		UnlimitedTime:     true,
	}
}

// DefaultConfig returns DefaultCandidate as a Config.
func DefaultConfig() Config {
	return Config{c: DefaultCandidate(), valid: true}
}

// ParseCandidate converts raw form values. A value that is not an integer,
// or is zero, takes the default for its field.
func ParseCandidate(raw RawCandidate) Candidate {
	return Candidate{
		SequenceLength:    parseOr(raw.SequenceLength, DefaultSequenceLength),
		AllowDuplicates:   raw.AllowDuplicates,
		MaxAttempts:       parseOr(raw.MaxAttempts, DefaultMaxAttempts),
		UnlimitedAttempts: raw.UnlimitedAttempts,
		TimeLimitSeconds:  parseOr(raw.TimeLimitSeconds, DefaultTimeLimitSeconds),
		UnlimitedTime:     raw.UnlimitedTime,
	}
}

func parseOr(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n == 0 {
		return fallback
	}
	return n
}

// Validate checks every field of c and returns a Config only if all pass.
func Validate(c Candidate) (Config, error) {
	if c.SequenceLength < MinSequenceLength || c.SequenceLength > MaxSequenceLength {
		return Config{}, newValidationError(ErrOutOfRange, "sequenceLength",
			"Sequence length must be between %d and %d.", MinSequenceLength, MaxSequenceLength)
	}
	if !c.UnlimitedAttempts && (c.MaxAttempts < MinAttempts || c.MaxAttempts > MaxAttempts) {
		return Config{}, newValidationError(ErrOutOfRange, "maxAttempts",
			"Attempts must be between %d and %d.", MinAttempts, MaxAttempts)
	}
	if !c.UnlimitedTime && (c.TimeLimitSeconds < MinTimeLimitSeconds || c.TimeLimitSeconds > MaxTimeLimitSeconds) {
		return Config{}, newValidationError(ErrOutOfRange, "timeLimitSeconds",
			"Time limit must be between %d and %d seconds.", MinTimeLimitSeconds, MaxTimeLimitSeconds)
	}
	if !c.AllowDuplicates && c.SequenceLength > MaxUniqueSequenceLength {
		return Config{}, newValidationError(ErrIncompatibleConstraint, "sequenceLength",
			"Without duplicate digits the sequence length is at most %d.", MaxUniqueSequenceLength)
	}
	return Config{c: c, valid: true}, nil
}

// IsZero reports whether cfg was never validated.
func (cfg Config) IsZero() bool { return !cfg.valid }

// Candidate returns the parameters cfg was validated from.
func (cfg Config) Candidate() Candidate { return cfg.c }

func (cfg Config) Length() int { return cfg.c.SequenceLength }

func (cfg Config) AllowDuplicates() bool { return cfg.c.AllowDuplicates }

// MaxAttempts returns the attempt limit and whether attempts are bounded.
func (cfg Config) MaxAttempts() (int, bool) {
	if cfg.c.UnlimitedAttempts {
		return 0, false
	}
	return cfg.c.MaxAttempts, true
}

// TimeLimit returns the round duration and whether time is bounded.
func (cfg Config) TimeLimit() (time.Duration, bool) {
	if cfg.c.UnlimitedTime {
		return 0, false
	}
	return time.Duration(cfg.c.TimeLimitSeconds) * time.Second, true
}
