package session

import (
	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"numberbaseball/internal/baseball"
)

type Option func(*Session)

func WithClock(c quartz.Clock) Option {
	return func(s *Session) {
		if c != nil {
			s.clock = c
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

func WithSink(sink Sink) Option {
	return func(s *Session) {
		s.sink = sink
	}
}

// WithRandomSource sets where secrets come from. The default is crypto/rand.
func WithRandomSource(r baseball.RandomSource) Option {
	return func(s *Session) {
		s.src = r
	}
}

// WithConfig sets the configuration used by Start. A zero cfg is ignored.
func WithConfig(cfg baseball.Config) Option {
	return func(s *Session) {
		if !cfg.IsZero() {
			s.cfg = cfg
		}
	}
}
