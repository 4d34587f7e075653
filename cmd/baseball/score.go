package main

import (
	"fmt"
	"io"
	"os"

	"numberbaseball/internal/baseball"
)

type ScoreCmd struct {
	Secret     string `arg:"" help:"The hidden number"`
	Guess      string `arg:"" help:"The guess to score"`
	Duplicates bool   `short:"d" help:"Allow repeated digits"`
}

func (c *ScoreCmd) Run() error {
	return c.run(os.Stdout)
}

func (c *ScoreCmd) run(w io.Writer) error {
	secret, err := baseball.ParseSecret(c.Secret)
	if err != nil {
		return fmt.Errorf("secret: %s", baseball.Message(err))
	}
	cfg, err := baseball.Validate(baseball.Candidate{
		SequenceLength:    len(secret),
		AllowDuplicates:   c.Duplicates,
		UnlimitedAttempts: true,
		UnlimitedTime:     true,
	})
	if err != nil {
		return fmt.Errorf("secret: %s", baseball.Message(err))
	}
	if err := baseball.ValidateGuess(secret.String(), cfg); err != nil {
		return fmt.Errorf("secret: %s", baseball.Message(err))
	}
	if err := baseball.ValidateGuess(c.Guess, cfg); err != nil {
		return fmt.Errorf("guess: %s", baseball.Message(err))
	}

	result := baseball.Score(baseball.ParseDigits(c.Guess), secret)
	if result.Homerun(len(secret)) {
		_, err = fmt.Fprintf(w, "%s : home run!\n", c.Guess)
		return err
	}
	_, err = fmt.Fprintln(w, baseball.ScoreLine(c.Guess, result))
	return err
}
