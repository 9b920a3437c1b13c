// Package defeat builds the defeat graph: every loser points at the distinct
// competitors who beat them at least once.
package defeat

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dominikbraun/graph"

	"github.com/okian/standings/internal/domain/model"
)

// Graph is an immutable snapshot of a defeat graph and its competitor set.
type Graph struct {
	competitors []string
	winners     map[string][]string // loser -> distinct winners, sorted
	losers      map[string][]string // winner -> distinct losers, sorted
	edges       int
}

// Builder accumulates matches into a directed loser -> winner graph.
// A Builder is not safe for concurrent use; the Graph it produces is.
type Builder struct {
	g       graph.Graph[string, string]
	matches int
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		g: graph.New(graph.StringHash, graph.Directed()),
	}
}

// AddCompetitor registers a competitor that may have no recorded matches.
func (b *Builder) AddCompetitor(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return &RecordError{Index: -1, Reason: ReasonEmptyCompetitor}
	}
	return b.addVertex(id)
}

// AddMatch records that m.Winner beat m.Loser. Repeating a pair has no effect.
func (b *Builder) AddMatch(m model.Match) error {
	idx := b.matches
	b.matches++

	n := m.Normalized()
	switch {
	case n.Winner == "":
		return &RecordError{Index: idx, Winner: m.Winner, Loser: m.Loser, Reason: ReasonEmptyWinner}
	case n.Loser == "":
		return &RecordError{Index: idx, Winner: m.Winner, Loser: m.Loser, Reason: ReasonEmptyLoser}
	case n.Winner == n.Loser:
		return &RecordError{Index: idx, Winner: m.Winner, Loser: m.Loser, Reason: ReasonSelfMatch}
	}

	if err := b.addVertex(n.Winner); err != nil {
		return err
	}
	if err := b.addVertex(n.Loser); err != nil {
		return err
	}
	if err := b.g.AddEdge(n.Loser, n.Winner); err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
		return fmt.Errorf("add defeat %s: %w", n, err)
	}
	return nil
}

func (b *Builder) addVertex(id string) error {
	if err := b.g.AddVertex(id); err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
		return fmt.Errorf("add competitor %q: %w", id, err)
	}
	return nil
}

// Graph returns a snapshot of everything added so far.
func (b *Builder) Graph() (*Graph, error) {
	adjacency, err := b.g.AdjacencyMap()
	if err != nil {
		return nil, fmt.Errorf("defeat adjacency: %w", err)
	}
	predecessors, err := b.g.PredecessorMap()
	if err != nil {
		return nil, fmt.Errorf("defeat predecessors: %w", err)
	}

	out := &Graph{
		competitors: make([]string, 0, len(adjacency)),
		winners:     make(map[string][]string),
		losers:      make(map[string][]string),
	}
	for id, beatenBy := range adjacency {
		out.competitors = append(out.competitors, id)
		if len(beatenBy) > 0 {
			out.winners[id] = sortedKeys(beatenBy)
			out.edges += len(beatenBy)
		}
	}
	for id, beat := range predecessors {
		if len(beat) > 0 {
			out.losers[id] = sortedKeys(beat)
		}
	}
	slices.Sort(out.competitors)
	return out, nil
}

func sortedKeys(m map[string]graph.Edge[string]) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Build constructs the defeat graph for matches plus any extra competitors.
// The first malformed record aborts the build.
func Build(matches []model.Match, competitors ...string) (*Graph, error) {
	b := NewBuilder()
	for _, c := range competitors {
		if err := b.AddCompetitor(c); err != nil {
			return nil, err
		}
	}
	for _, m := range matches {
		if err := b.AddMatch(m); err != nil {
			return nil, err
		}
	}
	return b.Graph()
}

// Len returns the number of competitors.
func (g *Graph) Len() int { return len(g.competitors) }

// Edges returns the number of distinct (winner, loser) pairs.
func (g *Graph) Edges() int { return g.edges }

// Competitors returns all competitors in ascending order.
func (g *Graph) Competitors() []string { return slices.Clone(g.competitors) }

// Winners returns the distinct competitors who beat loser, ascending.
func (g *Graph) Winners(loser string) []string { return slices.Clone(g.winners[loser]) }

// Losers returns the distinct competitors beaten by winner, ascending.
func (g *Graph) Losers(winner string) []string { return slices.Clone(g.losers[winner]) }

// OutDegree is the number of distinct winners recorded against loser.
func (g *Graph) OutDegree(loser string) int { return len(g.winners[loser]) }

// Dangling reports whether id never lost a recorded match.
func (g *Graph) Dangling(id string) bool { return len(g.winners[id]) == 0 }

// Matches returns one match per distinct (winner, loser) pair, ordered by loser then winner.
func (g *Graph) Matches() []model.Match {
	out := make([]model.Match, 0, g.edges)
	for _, loser := range g.competitors {
		for _, winner := range g.winners[loser] {
			out = append(out, model.Match{Winner: winner, Loser: loser})
		}
	}
	return out
}

// Equal reports structural equality of two graphs.
func (g *Graph) Equal(o *Graph) bool {
	if g == nil || o == nil {
		return g == o
	}
	if !slices.Equal(g.competitors, o.competitors) || len(g.winners) != len(o.winners) {
		return false
	}
	for loser, ws := range g.winners {
		if !slices.Equal(ws, o.winners[loser]) {
			return false
		}
	}
	return true
}
