package baseball

import (
	"fmt"
	"unicode/utf8"

	"github.com/samber/lo"
)

// Result is the score of one guess.
type Result struct {
	Strikes int `json:"strikes"`
	Balls   int `json:"balls"`
}

// Homerun reports whether r is a full match for a sequence of length n.
func (r Result) Homerun(n int) bool { return r.Strikes == n }

// ScoreLine renders a scored guess as the round log shows it, for example
// "1243 : 2 strikes, 2 balls".
func ScoreLine(guess string, r Result) string {
	return fmt.Sprintf("%s : %s, %s", guess, count(r.Strikes, "strike"), count(r.Balls, "ball"))
}

func count(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// ValidateGuess checks input against cfg. Checks run in a fixed order:
// length, digits, then the zero and repeat rules when duplicates are off.
func ValidateGuess(input string, cfg Config) error {
	n := cfg.Length()
	if utf8.RuneCountInString(input) != n {
		return newValidationError(ErrWrongLength, "guess", "Enter a %d-digit number.", n)
	}
	if !isDigits(input) {
		return newValidationError(ErrNonDigit, "guess", "Digits only, please.")
	}
	if cfg.AllowDuplicates() {
		return nil
	}
	if lo.Contains([]rune(input), '0') {
		return newValidationError(ErrZeroNotAllowed, "guess", "Use digits 1-9 only.")
	}
	if len(lo.Uniq([]rune(input))) != n {
		return newValidationError(ErrDuplicateDigit, "guess", "Enter %d digits without repeats.", n)
	}
	return nil
}

// ParseDigits converts a validated digit string to integers.
func ParseDigits(input string) []int {
	return lo.Map([]rune(input), func(r rune, _ int) int { return int(r - '0') })
}

// Score counts strikes and balls of guess against secret.
//
// A ball is any mismatched position whose guess digit appears somewhere in
// the secret. Secret digits are not consumed, so a repeated guess digit can
// score several balls off a single secret digit. This differs from
// multiset bulls-and-cows when duplicates are allowed.
func Score(guess []int, secret Secret) Result {
	var r Result
	for i, d := range guess {
		if i >= len(secret) {
			break
		}
		switch {
		case d == secret[i]:
			r.Strikes++
		case secret.Contains(d):
			r.Balls++
		}
	}
	return r
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
