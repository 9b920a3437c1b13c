package testmatches

import (
	"encoding/binary"
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/okian/standings/internal/domain/model"
)

// Constants for strength generation.
const (
	strengthMin   = 0.1
	strengthRange = 9.9
	nameLength    = 8
	namePrefix    = "team-"
)

// Team is a generated competitor with a hidden playing strength.
type Team struct {
	Name     string
	Strength float64
}

// Tournament is a generated season: the teams and the decided matches.
type Tournament struct {
	Teams   []Team
	Matches []model.Match
}

// Generate builds a deterministic tournament for seed. Every match pairs two
// distinct teams; the stronger team wins with probability proportional to
// its share of the pair's combined strength.
func Generate(teams, matches int, seed uint64) (Tournament, error) {
	if teams < 2 {
		return Tournament{}, fmt.Errorf("%w: need at least 2 teams, got %d", ErrInvalidConfig, teams)
	}
	if matches < 0 {
		return Tournament{}, fmt.Errorf("%w: negative match count %d", ErrInvalidConfig, matches)
	}

	var key [32]byte
	binary.LittleEndian.PutUint64(key[:], seed)
	src := rand.NewChaCha8(key)
	rng := rand.New(src)

	t := Tournament{
		Teams:   make([]Team, teams),
		Matches: make([]model.Match, matches),
	}

	seen := make(map[string]struct{}, teams)
	for i := range t.Teams {
		for {
			id, err := uuid.NewRandomFromReader(src)
			if err != nil {
				return Tournament{}, fmt.Errorf("generate team name: %w", err)
			}
			name := namePrefix + id.String()[:nameLength]
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			t.Teams[i] = Team{Name: name, Strength: strengthMin + rng.Float64()*strengthRange}
			break
		}
	}

	for i := range t.Matches {
		a := rng.IntN(teams)
		b := rng.IntN(teams - 1)
		if b >= a {
			b++
		}
		x, y := t.Teams[a], t.Teams[b]
		if rng.Float64()*(x.Strength+y.Strength) < x.Strength {
			t.Matches[i] = model.Match{Winner: x.Name, Loser: y.Name}
		} else {
			t.Matches[i] = model.Match{Winner: y.Name, Loser: x.Name}
		}
	}
	return t, nil
}
