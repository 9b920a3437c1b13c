package ranking_test

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/okian/standings/internal/domain/defeat"
	"github.com/okian/standings/internal/domain/model"
	"github.com/okian/standings/internal/domain/ranking"
	. "github.com/smartystreets/goconvey/convey"
)

const tolerance = 1e-9

func m(w, l string) model.Match { return model.Match{Winner: w, Loser: l} }

func mustGraph(matches []model.Match, competitors ...string) *defeat.Graph {
	g, err := defeat.Build(matches, competitors...)
	if err != nil {
		panic(err)
	}
	return g
}

func mustSolver(opts ...ranking.Option) *ranking.Solver {
	s, err := ranking.NewSolver(opts...)
	if err != nil {
		panic(err)
	}
	return s
}

func sum(scores map[string]float64) float64 {
	var total float64
	for _, v := range scores {
		total += v
	}
	return total
}

// randomMatches draws matches among n competitors named by name(i).
func randomMatches(seed int64, n, count int, name func(int) string) []model.Match {
	rng := rand.New(rand.NewSource(seed))
	out := make([]model.Match, 0, count)
	for len(out) < count {
		w, l := rng.Intn(n), rng.Intn(n)
		if w == l {
			continue
		}
		out = append(out, m(name(w), name(l)))
	}
	return out
}

func team(i int) string { return fmt.Sprintf("team-%04d", i) }

var policies = map[string]ranking.Policy{
	"fixed":       ranking.DefaultFixed(),
	"convergence": ranking.DefaultConvergence(),
}

func TestSolverConfiguration(t *testing.T) {
	Convey("Given solver options", t, func() {
		Convey("When no options are supplied", func() {
			s, err := ranking.NewSolver()

			Convey("Then defaults should apply", func() {
				So(err, ShouldBeNil)
				So(s.Damping(), ShouldEqual, 0.85)
				So(s.Policy().Mode(), ShouldEqual, ranking.ModeFixed)
				So(s.Policy().Iterations(), ShouldEqual, 100)
			})
		})

		Convey("When the damping factor is outside (0, 1)", func() {
			for _, d := range []float64{0, 1, -0.2, 1.5, math.NaN()} {
				_, err := ranking.NewSolver(ranking.WithDamping(d))
				So(errors.Is(err, ranking.ErrInvalidConfiguration), ShouldBeTrue)

				var ce *ranking.ConfigError
				So(errors.As(err, &ce), ShouldBeTrue)
				So(ce.Option, ShouldEqual, "damping")
			}
		})

		Convey("When the convergence epsilon is not positive", func() {
			_, err := ranking.NewSolver(ranking.WithPolicy(ranking.Convergence(0, 100)))

			Convey("Then the solver should be rejected before iterating", func() {
				var ce *ranking.ConfigError
				So(errors.As(err, &ce), ShouldBeTrue)
				So(ce.Option, ShouldEqual, "epsilon")
				So(err.Error(), ShouldContainSubstring, "epsilon=0")
			})
		})

		Convey("When the convergence cap is missing", func() {
			_, err := ranking.NewSolver(ranking.WithPolicy(ranking.Convergence(1e-8, 0)))
			So(errors.Is(err, ranking.ErrInvalidConfiguration), ShouldBeTrue)
		})

		Convey("When a fixed policy asks for no iterations", func() {
			_, err := ranking.NewSolver(ranking.WithPolicy(ranking.FixedCount(0)))
			So(errors.Is(err, ranking.ErrInvalidConfiguration), ShouldBeTrue)
		})

		Convey("When parsing policy modes", func() {
			mode, err := ranking.ParseMode("Convergence")
			So(err, ShouldBeNil)
			So(mode, ShouldEqual, ranking.ModeConvergence)

			mode, err = ranking.ParseMode("fixed")
			So(err, ShouldBeNil)
			So(mode, ShouldEqual, ranking.ModeFixed)

			_, err = ranking.ParseMode("forever")
			So(errors.Is(err, ranking.ErrInvalidConfiguration), ShouldBeTrue)
		})
	})
}

func TestSolveEdgeCases(t *testing.T) {
	Convey("Given degenerate graphs", t, func() {
		s := mustSolver(ranking.WithPolicy(ranking.DefaultConvergence()))

		Convey("When there are no competitors", func() {
			res := s.Solve(mustGraph(nil))

			Convey("Then the result should be empty", func() {
				So(res.Scores, ShouldBeEmpty)
				So(res.Iterations, ShouldEqual, 0)
			})
		})

		Convey("When there is a single competitor", func() {
			res := s.Solve(mustGraph(nil, "solo"))

			Convey("Then it should hold the whole distribution", func() {
				So(res.Scores["solo"], ShouldAlmostEqual, 1.0, tolerance)
			})
		})

		Convey("When competitors are known but nobody has played", func() {
			for _, policy := range policies {
				res := mustSolver(ranking.WithPolicy(policy)).Solve(mustGraph(nil, "a", "b", "c", "d", "e"))
				So(len(res.Scores), ShouldEqual, 5)
				for _, v := range res.Scores {
					So(v, ShouldAlmostEqual, 0.2, 1e-15)
				}
			}
		})
	})
}

func TestSolveScenarios(t *testing.T) {
	Convey("Given a three-way cycle", t, func() {
		g := mustGraph([]model.Match{m("A", "B"), m("B", "C"), m("C", "A")})

		for name, policy := range policies {
			Convey("When solving with the "+name+" policy", func() {
				res := mustSolver(ranking.WithPolicy(policy)).Solve(g)

				Convey("Then nobody should be favoured", func() {
					for _, id := range []string{"A", "B", "C"} {
						So(res.Scores[id], ShouldAlmostEqual, 1.0/3, tolerance)
					}
				})
			})
		}
	})

	Convey("Given a transitive order", t, func() {
		g := mustGraph([]model.Match{m("A", "B"), m("A", "C"), m("B", "C")})

		for name, policy := range policies {
			Convey("When solving with the "+name+" policy", func() {
				res := mustSolver(ranking.WithPolicy(policy)).Solve(g)

				Convey("Then scores should follow the order", func() {
					So(res.Scores["A"], ShouldBeGreaterThan, res.Scores["B"])
					So(res.Scores["B"], ShouldBeGreaterThan, res.Scores["C"])
				})
			})
		}
	})

	Convey("Given the same win recorded three times", t, func() {
		s := mustSolver(ranking.WithPolicy(ranking.DefaultConvergence()))
		once := s.Solve(mustGraph([]model.Match{m("A", "B")}))
		thrice := s.Solve(mustGraph([]model.Match{m("A", "B"), m("A", "B"), m("A", "B")}))

		Convey("Then the result should match a single win exactly", func() {
			So(thrice.Scores, ShouldResemble, once.Scores)
			So(thrice.Iterations, ShouldEqual, once.Iterations)
		})

		Convey("And the winner should hold the closed-form share", func() {
			// b = (1-d)/2 + d*a/2 with a = 1-b gives b = 0.5/1.425.
			So(once.Scores["B"], ShouldAlmostEqual, 0.5/1.425, 1e-7)
			So(once.Scores["A"], ShouldAlmostEqual, 1-0.5/1.425, 1e-7)
			So(once.Scores["A"], ShouldBeGreaterThan, once.Scores["B"])
		})
	})

	Convey("Given four competitors in a clear chain", t, func() {
		g := mustGraph([]model.Match{
			m("A", "B"), m("A", "C"), m("A", "D"),
			m("B", "C"), m("B", "D"), m("C", "D"),
		})

		Convey("When comparing fixed-count and convergence", func() {
			fixed := mustSolver(ranking.WithPolicy(ranking.FixedCount(100))).Solve(g)
			conv := mustSolver(ranking.WithPolicy(ranking.Convergence(1e-8, 1000))).Solve(g)

			Convey("Then both should agree on every score", func() {
				for id, v := range fixed.Scores {
					So(conv.Scores[id], ShouldAlmostEqual, v, 1e-4)
				}
			})

			Convey("And only the convergence run should report convergence", func() {
				So(fixed.Iterations, ShouldEqual, 100)
				So(fixed.Converged, ShouldBeFalse)
				So(conv.Converged, ShouldBeTrue)
				So(conv.Iterations, ShouldBeLessThan, 1000)
				So(conv.Delta, ShouldBeLessThan, 1e-8)
			})
		})
	})
}

func TestSolveProperties(t *testing.T) {
	Convey("Given a random tournament", t, func() {
		matches := randomMatches(7, 60, 400, team)
		g := mustGraph(matches)

		Convey("Then scores should sum to one under both policies", func() {
			for _, policy := range policies {
				res := mustSolver(ranking.WithPolicy(policy)).Solve(g)
				So(len(res.Scores), ShouldEqual, g.Len())
				So(sum(res.Scores), ShouldAlmostEqual, 1.0, tolerance)
				for _, v := range res.Scores {
					So(v, ShouldBeGreaterThan, 0)
				}
			}
		})

		Convey("When every identifier is relabelled", func() {
			relabel := func(i int) string { return fmt.Sprintf("z%03d-renamed", 999-i) }
			renamed := mustGraph(randomMatches(7, 60, 400, relabel))

			s := mustSolver(ranking.WithPolicy(ranking.DefaultConvergence()))
			a, b := s.Solve(g), s.Solve(renamed)

			Convey("Then each competitor should keep its score", func() {
				for i := 0; i < 60; i++ {
					if _, ok := a.Scores[team(i)]; !ok {
						continue
					}
					So(b.Scores[relabel(i)], ShouldAlmostEqual, a.Scores[team(i)], tolerance)
				}
			})
		})

		Convey("When the same matches arrive in another order", func() {
			shuffled := append([]model.Match(nil), matches...)
			rand.New(rand.NewSource(99)).Shuffle(len(shuffled), func(i, j int) {
				shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
			})
			s := mustSolver()
			a, b := s.Solve(g), s.Solve(mustGraph(shuffled))

			Convey("Then the scores should not change", func() {
				for id, v := range a.Scores {
					So(b.Scores[id], ShouldAlmostEqual, v, tolerance)
				}
			})
		})

		Convey("When iterating longer", func() {
			short := mustSolver(ranking.WithPolicy(ranking.FixedCount(20))).Solve(g)
			long := mustSolver(ranking.WithPolicy(ranking.FixedCount(60))).Solve(g)

			Convey("Then the step-to-step change should shrink", func() {
				So(long.Delta, ShouldBeLessThan, short.Delta)
			})
		})
	})

	Convey("Given a thousand competitors", t, func() {
		g := mustGraph(randomMatches(11, 1000, 5000, team))

		Convey("When solving to convergence with the default epsilon", func() {
			res := mustSolver(ranking.WithPolicy(ranking.DefaultConvergence())).Solve(g)

			Convey("Then it should stop before the cap", func() {
				So(res.Converged, ShouldBeTrue)
				So(res.Iterations, ShouldBeLessThan, ranking.DefaultMaxIterations)
				So(sum(res.Scores), ShouldAlmostEqual, 1.0, tolerance)
			})
		})
	})

	Convey("Given a graph large enough to split across goroutines", t, func() {
		g := mustGraph(randomMatches(3, 3000, 12000, team))
		policy := ranking.WithPolicy(ranking.FixedCount(50))

		serial := mustSolver(policy).Solve(g)
		parallel := mustSolver(policy, ranking.WithParallelism(4)).Solve(g)

		Convey("Then the parallel solve should match the serial one", func() {
			So(parallel.Iterations, ShouldEqual, serial.Iterations)
			for id, v := range serial.Scores {
				So(parallel.Scores[id], ShouldAlmostEqual, v, 1e-12)
			}
		})
	})

	Convey("Given a solver shared by concurrent callers", t, func() {
		s := mustSolver(ranking.WithPolicy(ranking.DefaultConvergence()))
		g := mustGraph(randomMatches(5, 40, 200, team))
		want := s.Solve(g)

		results := make(chan ranking.Result, 8)
		for i := 0; i < cap(results); i++ {
			go func() { results <- s.Solve(g) }()
		}

		Convey("Then every call should produce the same scores", func() {
			for i := 0; i < cap(results); i++ {
				got := <-results
				So(got.Scores, ShouldResemble, want.Scores)
			}
		})
	})
}

func TestRank(t *testing.T) {
	Convey("Given the one-shot helper", t, func() {
		Convey("When the matches are valid", func() {
			res, err := ranking.Rank([]model.Match{m("A", "B")}, ranking.WithDamping(0.5))

			Convey("Then it should return scores", func() {
				So(err, ShouldBeNil)
				So(res.Scores["A"], ShouldBeGreaterThan, res.Scores["B"])
			})
		})

		Convey("When a record is malformed", func() {
			_, err := ranking.Rank([]model.Match{m("A", "A")})
			So(errors.Is(err, defeat.ErrMalformedRecord), ShouldBeTrue)
		})

		Convey("When the configuration is invalid", func() {
			_, err := ranking.Rank([]model.Match{m("A", "B")}, ranking.WithDamping(2))
			So(errors.Is(err, ranking.ErrInvalidConfiguration), ShouldBeTrue)
		})
	})
}
