package baseball

// scriptedSource replays fixed draws, wrapping around when exhausted.
type scriptedSource struct {
	draws []int
	next  int
}

func (s *scriptedSource) IntN(n int) int {
	d := s.draws[s.next%len(s.draws)]
	s.next++
	return d % n
}

func mustConfig(c Candidate) Config {
	cfg, err := Validate(c)
	if err != nil {
		panic(err)
	}
	return cfg
}

func fourNoDup() Config {
	return mustConfig(Candidate{SequenceLength: 4, MaxAttempts: 10, UnlimitedTime: true})
}

// roundWithSecret starts a round whose generator yields secret.
func roundWithSecret(cfg Config, secret Secret) *Round {
	draws := make([]int, len(secret))
	for i, d := range secret {
		if cfg.AllowDuplicates() {
			draws[i] = d
		} else {
			draws[i] = d - 1
		}
	}
	r := NewRound(NewGenerator(&scriptedSource{draws: draws}))
	r.Start(cfg)
	return r
}
