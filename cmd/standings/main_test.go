package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/standings/internal/adapters/http/api"
	"github.com/okian/standings/internal/adapters/matchfile"
	service "github.com/okian/standings/internal/app"
	"github.com/okian/standings/internal/domain/model"
	"github.com/okian/standings/internal/domain/types"
	"github.com/smartystreets/goconvey/convey"
)

const chain = "winner,loser\nA,B\nB,C\nA,C\n"

func writeMatches(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "matches.csv")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(args ...string) (string, error) {
	var out bytes.Buffer
	err := run(context.Background(), args, &out)
	return out.String(), err
}

func TestRankCommand(t *testing.T) {
	convey.Convey("Given a match file", t, func() {
		path := writeMatches(t, chain)

		convey.Convey("When ranking it as a table", func() {
			out, err := runCLI("rank", path)

			convey.Convey("Then the standings should be printed best first", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldStartWith, "=== FINAL TOURNAMENT STANDINGS ===\n")
				convey.So(out, convey.ShouldContainSubstring, "Team                 | Rating")
				a, b, c := strings.Index(out, "\nA "), strings.Index(out, "\nB "), strings.Index(out, "\nC ")
				convey.So(a, convey.ShouldBeGreaterThan, 0)
				convey.So(a, convey.ShouldBeLessThan, b)
				convey.So(b, convey.ShouldBeLessThan, c)
			})
		})

		convey.Convey("When ranking it as JSON with an extra competitor", func() {
			out, err := runCLI("rank", path, "--json", "--competitors=D", "--policy=fixed", "--iterations=50")
			convey.So(err, convey.ShouldBeNil)

			var res types.Standings
			convey.So(json.Unmarshal([]byte(out), &res), convey.ShouldBeNil)

			convey.Convey("Then the diagnostics should follow the flags", func() {
				convey.So(res.Competitors, convey.ShouldEqual, 4)
				convey.So(res.Matches, convey.ShouldEqual, 3)
				convey.So(res.Iterations, convey.ShouldEqual, 50)
				convey.So(res.Policy, convey.ShouldEqual, "fixed(50)")
				convey.So(res.Entries[0].Competitor, convey.ShouldEqual, "A")
			})
		})

		convey.Convey("When the damping is invalid", func() {
			_, err := runCLI("rank", path, "--damping=1")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})

	convey.Convey("Given a malformed match file", t, func() {
		path := writeMatches(t, "A B C\n")
		_, err := runCLI("rank", path)
		convey.So(err, convey.ShouldNotBeNil)
	})
}

func TestReplayCommand(t *testing.T) {
	convey.Convey("Given a match file", t, func() {
		path := writeMatches(t, chain)

		convey.Convey("When replaying it", func() {
			out, err := runCLI("replay", path, "--top=2")
			convey.So(err, convey.ShouldBeNil)
			lines := strings.Split(strings.TrimSpace(out), "\n")

			convey.Convey("Then one line per match should be printed in order", func() {
				convey.So(lines, convey.ShouldHaveLength, 3)
				convey.So(lines[0], convey.ShouldStartWith, "step 1  A>B  leader=A")
				convey.So(lines[2], convey.ShouldStartWith, "step 3  A>C  leader=A")
			})
		})

		convey.Convey("When replaying it as JSON lines", func() {
			out, err := runCLI("replay", path, "--json")
			convey.So(err, convey.ShouldBeNil)
			lines := strings.Split(strings.TrimSpace(out), "\n")
			convey.So(lines, convey.ShouldHaveLength, 3)

			var f model.Frame
			convey.So(json.Unmarshal([]byte(lines[1]), &f), convey.ShouldBeNil)
			convey.So(f.Step, convey.ShouldEqual, 2)
			convey.So(f.Competitors, convey.ShouldEqual, 3)
		})
	})
}

func TestBenchCommand(t *testing.T) {
	convey.Convey("Given a match file", t, func() {
		path := writeMatches(t, chain)

		convey.Convey("Benchmarking should compare both policies", func() {
			out, err := runCLI("bench", path)
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, "Teams loaded: 3")
			convey.So(out, convey.ShouldContainSubstring, "fixed(100)")
			convey.So(out, convey.ShouldContainSubstring, "convergence(")
			convey.So(out, convey.ShouldContainSubstring, "Max score difference:")
		})
	})
}

func TestGenerateCommand(t *testing.T) {
	convey.Convey("Given the generate command", t, func() {
		convey.Convey("Writing to standard output should produce a readable match table", func() {
			out, err := runCLI("generate", "--teams=5", "--matches=30", "--seed=9")
			convey.So(err, convey.ShouldBeNil)
			matches, err := matchfile.Read(strings.NewReader(out))
			convey.So(err, convey.ShouldBeNil)
			convey.So(matches, convey.ShouldHaveLength, 30)

			convey.Convey("And the same seed should give the same table", func() {
				again, err := runCLI("generate", "--teams=5", "--matches=30", "--seed=9")
				convey.So(err, convey.ShouldBeNil)
				convey.So(again, convey.ShouldEqual, out)
			})
		})

		convey.Convey("Writing to a file should create it", func() {
			path := filepath.Join(t.TempDir(), "out.csv")
			_, err := runCLI("generate", "--teams=3", "--matches=4", "-o", path)
			convey.So(err, convey.ShouldBeNil)
			matches, err := matchfile.ReadFile(path)
			convey.So(err, convey.ShouldBeNil)
			convey.So(matches, convey.ShouldHaveLength, 4)
		})

		convey.Convey("Too few teams should fail", func() {
			_, err := runCLI("generate", "--teams=1")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestCheckCommand(t *testing.T) {
	convey.Convey("Given a running service", t, func() {
		ctx := context.Background()
		svc, err := service.New()
		convey.So(err, convey.ShouldBeNil)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		mux := http.NewServeMux()
		api.NewServer(svc, 20).Register(ctx, mux)
		srv := httptest.NewServer(mux)
		defer srv.Close()

		convey.Convey("The check command should report a clean run", func() {
			out, err := runCLI("check", "--url="+srv.URL, "--teams=6", "--matches=25", "--requests=5", "--workers=2", "--top=4")
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, "requests 5 ok 5 failed 0 mismatched 0")
			convey.So(out, convey.ShouldContainSubstring, "frames 25 leaderboard 4")
		})
	})
}

func TestUnknownCommand(t *testing.T) {
	convey.Convey("An unknown command should be rejected", t, func() {
		_, err := runCLI("explode")
		convey.So(err, convey.ShouldNotBeNil)
	})
}
