package testgames

import (
	"math/rand/v2"
	"slices"

	"github.com/okian/courtside/internal/domain/model"
)

// Probabilities of the simulated possession outcomes.
const (
	pMake          = 0.42
	pMiss          = 0.78
	pTurnover      = 0.90
	pThree         = 0.33
	pAndOne        = 0.08
	pOffRebound    = 0.27
	pFreeThrowMade = 0.76
)

type genConfig struct {
	periods     int
	possessions int
	subRate     float64
}

// GenOption customises Generate.
type GenOption func(*genConfig)

// WithPeriods sets the number of periods played.
func WithPeriods(n int) GenOption {
	return func(c *genConfig) {
		if n > 0 {
			c.periods = n
		}
	}
}

// WithPossessions sets the number of possessions simulated per period.
func WithPossessions(n int) GenOption {
	return func(c *genConfig) {
		if n > 0 {
			c.possessions = n
		}
	}
}

// WithSubstitutionRate sets the chance of a substitution stoppage before
// each possession.
func WithSubstitutionRate(r float64) GenOption {
	return func(c *genConfig) {
		if r >= 0 && r <= 1 {
			c.subRate = r
		}
	}
}

// Generate simulates a complete, internally consistent game. The same seed
// always yields the same game.
func Generate(gameID string, seed uint64, opts ...GenOption) model.Game {
	cfg := genConfig{periods: model.RegulationPeriods, possessions: 24, subRate: 0.15}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &sim{
		b:   NewBuilder(gameID),
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		court: map[string][]int{
			Home: {1, 2, 3, 4, 5},
			Away: {1, 2, 3, 4, 5},
		},
	}
	for p := 1; p <= cfg.periods; p++ {
		s.b.StartPeriod(p)
		offense := Home
		if p%2 == 0 {
			offense = Away
		}
		for range cfg.possessions {
			if s.rng.Float64() < cfg.subRate {
				s.substitute()
			}
			offense = s.possession(offense)
		}
		s.b.EndPeriod()
	}
	return s.b.Build()
}

type sim struct {
	b     *Builder
	rng   *rand.Rand
	court map[string][]int
}

func other(team string) string {
	if team == Home {
		return Away
	}
	return Home
}

func (s *sim) player(team string) int {
	on := s.court[team]
	return on[s.rng.IntN(len(on))]
}

// possession plays one possession of offense and returns the team that gets
// the ball next.
func (s *sim) possession(offense string) string {
	defense := other(offense)
	for {
		r := s.rng.Float64()
		switch {
		case r < pMake:
			pts := 2
			if s.rng.Float64() < pThree {
				pts = 3
			}
			shooter := s.player(offense)
			s.b.Shot(offense, shooter, pts, true)
			if s.rng.Float64() < pAndOne {
				s.b.Foul(defense, s.player(defense), "shooting")
				if s.rng.Float64() < pFreeThrowMade {
					s.b.FreeThrow(offense, shooter, true, 1, 1)
				} else {
					s.b.FreeThrow(offense, shooter, false, 1, 1)
					s.b.Rebound(defense, s.player(defense), false)
				}
			}
			return defense

		case r < pMiss:
			s.b.Shot(offense, s.player(offense), 2, false)
			if s.rng.Float64() < pOffRebound {
				s.b.Rebound(offense, s.player(offense), true)
				continue
			}
			s.b.Rebound(defense, s.player(defense), false)
			return defense

		case r < pTurnover:
			s.b.Turnover(offense, s.player(offense))
			return defense

		default:
			shooter := s.player(offense)
			s.b.Shot(offense, shooter, 2, false)
			s.b.Foul(defense, s.player(defense), "shooting")
			s.b.FreeThrow(offense, shooter, s.rng.Float64() < pFreeThrowMade, 1, 2)
			if s.rng.Float64() < pFreeThrowMade {
				s.b.FreeThrow(offense, shooter, true, 2, 2)
				return defense
			}
			s.b.FreeThrow(offense, shooter, false, 2, 2)
			s.b.Rebound(defense, s.player(defense), false)
			return defense
		}
	}
}

// substitute swaps one or two players of a random team in a single stoppage.
func (s *sim) substitute() {
	team := Home
	if s.rng.IntN(2) == 1 {
		team = Away
	}
	on := s.court[team]
	var bench []int
	for n := 1; n <= 5+benchSize; n++ {
		if !slices.Contains(on, n) {
			bench = append(bench, n)
		}
	}
	swaps := 1 + s.rng.IntN(2)
	for range swaps {
		i := s.rng.IntN(len(on))
		j := s.rng.IntN(len(bench))
		in, out := bench[j], on[i]
		s.b.Sub(team, in, out)
		on[i] = in
		bench[j] = out
	}
	s.court[team] = on
}
