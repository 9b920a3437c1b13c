package repository

import (
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/okian/standings/internal/domain/model"
)

// Digest fingerprints a match list. Order matters since replays are
// order-dependent; surrounding whitespace of identifiers does not.
func Digest(matches []model.Match) uint64 {
	d := xxhash.New()
	for _, m := range matches {
		_, _ = d.WriteString(strings.TrimSpace(m.Winner))
		_, _ = d.Write([]byte{0})
		_, _ = d.WriteString(strings.TrimSpace(m.Loser))
		_, _ = d.Write([]byte{'\n'})
	}
	return d.Sum64()
}
