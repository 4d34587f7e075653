package baseball

import (
	"crypto/rand"
	"math/big"
	mathrand "math/rand/v2"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// RandomSource yields uniform integers in [0, n). *math/rand/v2.Rand satisfies it.
type RandomSource interface {
	IntN(n int) int
}

// CryptoSource draws from crypto/rand.
type CryptoSource struct{}

func (CryptoSource) IntN(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return mathrand.IntN(n)
	}
	return int(v.Int64())
}

// NewSeededSource returns a deterministic source for reproducible rounds.
func NewSeededSource(seed uint64) RandomSource {
	return mathrand.New(mathrand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Secret is the digit sequence a round is played against.
type Secret []int

func (s Secret) String() string {
	return strings.Join(lo.Map(s, func(d int, _ int) string { return strconv.Itoa(d) }), "")
}

// Contains reports whether d occurs anywhere in s.
func (s Secret) Contains(d int) bool { return lo.Contains(s, d) }

func (s Secret) clone() Secret { return append(Secret(nil), s...) }

// ParseSecret reads a digit string such as "0123". It performs no
// configuration checks.
func ParseSecret(s string) (Secret, error) {
	if s == "" || !isDigits(s) {
		return nil, newValidationError(ErrNonDigit, "secret", "Secret must contain digits only.")
	}
	return Secret(ParseDigits(s)), nil
}

// Generator produces secrets for a configuration.
type Generator struct {
	src RandomSource
}

// NewGenerator wraps src. A nil src uses CryptoSource.
func NewGenerator(src RandomSource) *Generator {
	if src == nil {
		src = CryptoSource{}
	}
	return &Generator{src: src}
}

// Generate returns a fresh secret for cfg.
//
// Without duplicates digits come from 1-9 by rejection sampling and keep the
// order in which they were first accepted. With duplicates each position is
// an independent draw from 0-9.
func (g *Generator) Generate(cfg Config) Secret {
	n := cfg.Length()
	if cfg.AllowDuplicates() {
		return lo.Times(n, func(_ int) int { return g.src.IntN(10) })
	}

	secret := make(Secret, 0, n)
	seen := make(map[int]struct{}, n)
	for len(secret) < n {
		d := g.src.IntN(9) + 1
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		secret = append(secret, d)
	}
	return secret
}
