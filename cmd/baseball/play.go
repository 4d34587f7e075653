package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"numberbaseball/internal/baseball"
	"numberbaseball/internal/logging"
	"numberbaseball/internal/session"
	"numberbaseball/internal/settings"
	"numberbaseball/internal/tui"
)

type PlayCmd struct {
	Preset            string `short:"p" help:"Start from a named preset"`
	Length            int    `short:"n" help:"Number of digits (2-10)"`
	Duplicates        bool   `short:"d" help:"Allow repeated digits"`
	Attempts          int    `short:"a" help:"Attempts per round (1-999)"`
	UnlimitedAttempts bool   `help:"No attempt limit"`
	TimeLimit         int    `short:"t" help:"Seconds per round (10-999)"`
	UnlimitedTime     bool   `help:"No countdown"`
	Settings          string `default:"settings.hcl" type:"path" help:"HCL settings file"`
	Seed              uint64 `help:"Seed for reproducible secrets (0 uses crypto/rand)"`
	LogFile           string `type:"path" help:"Write debug logs here"`
	LogLevel          string `default:"debug" enum:"debug,info,warn,error" help:"Log level for --log-file"`
}

// candidate resolves the starting configuration: settings defaults, then
// the preset, then individual flags.
func (c *PlayCmd) candidate(st *settings.Settings) (baseball.Candidate, error) {
	cand := st.Defaults().Candidate()
	if c.Preset != "" {
		p, err := st.Preset(c.Preset)
		if err != nil {
			return baseball.Candidate{}, err
		}
		cand = p.Config.Candidate()
	}

	if c.Length != 0 {
		cand.SequenceLength = c.Length
	}
	if c.Duplicates {
		cand.AllowDuplicates = true
	}
	if c.Attempts != 0 {
		cand.MaxAttempts = c.Attempts
		cand.UnlimitedAttempts = false
	}
	if c.UnlimitedAttempts {
		cand.UnlimitedAttempts = true
	}
	if c.TimeLimit != 0 {
		cand.TimeLimitSeconds = c.TimeLimit
		cand.UnlimitedTime = false
	}
	if c.UnlimitedTime {
		cand.UnlimitedTime = true
	}
	return cand, nil
}

// logger writes to --log-file. The terminal belongs to the UI, so without a
// file nothing is logged.
func (c *PlayCmd) logger() (zerolog.Logger, func(), error) {
	if c.LogFile == "" {
		return zerolog.Nop(), func() {}, nil
	}
	f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("open log file: %w", err)
	}
	return logging.Setup(logging.Options{Level: c.LogLevel, Output: f}), func() { _ = f.Close() }, nil
}

func (c *PlayCmd) Run() error {
	st, err := settings.Load(c.Settings)
	if err != nil {
		return err
	}
	cand, err := c.candidate(st)
	if err != nil {
		return err
	}
	cfg, err := baseball.Validate(cand)
	if err != nil {
		return fmt.Errorf("invalid settings: %s", baseball.Message(err))
	}

	logger, closeLog, err := c.logger()
	if err != nil {
		return err
	}
	defer closeLog()

	opts := []session.Option{
		session.WithLogger(logger),
		session.WithConfig(cfg),
	}
	if c.Seed != 0 {
		opts = append(opts, session.WithRandomSource(baseball.NewSeededSource(c.Seed)))
	}
	game := session.New(opts...)
	defer game.Close()

	game.Start()
	return tui.Run(game)
}
