package testmatches

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/standings/internal/adapters/http/api"
	"github.com/okian/standings/internal/adapters/matchfile"
	service "github.com/okian/standings/internal/app"
	"github.com/okian/standings/internal/domain/ranking"
	"github.com/okian/standings/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func newTestServer(ctx context.Context) (*httptest.Server, *service.Service) {
	svc, err := service.New(service.WithPolicy(ranking.DefaultConvergence()))
	So(err, ShouldBeNil)
	So(svc.Start(ctx), ShouldBeNil)

	mux := http.NewServeMux()
	api.NewServer(svc, 50).Register(ctx, mux)
	return httptest.NewServer(mux), svc
}

func testConfig(baseURL string) *Config {
	return &Config{
		BaseURL:    baseURL,
		Teams:      8,
		Matches:    40,
		Seed:       7,
		Requests:   10,
		Workers:    3,
		Timeout:    5 * time.Second,
		TopN:       5,
		Damping:    ranking.DefaultDamping,
		Iterations: ranking.DefaultIterations,
	}
}

func TestRun(t *testing.T) {
	if err := logger.InitWithWriter(io.Discard, logger.FormatText); err != nil {
		t.Fatal(err)
	}

	Convey("Given a running standings service", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		srv, svc := newTestServer(ctx)
		defer srv.Close()
		defer svc.Stop()

		Convey("When running a load check", func() {
			cfg := testConfig(srv.URL)
			cfg.OutputFile = filepath.Join(t.TempDir(), "matches.csv")
			stats, err := Run(ctx, cfg)

			Convey("Then every request should agree with the local solve", func() {
				So(err, ShouldBeNil)
				So(stats.MatchesGenerated, ShouldEqual, 40)
				So(stats.RequestsSubmitted, ShouldEqual, 10)
				So(stats.RequestsSuccessful, ShouldEqual, 10)
				So(stats.RequestsFailed, ShouldEqual, 0)
				So(stats.Mismatches, ShouldEqual, 0)
				So(stats.ReplayID, ShouldNotBeEmpty)
				So(stats.ReplayFrames, ShouldEqual, 40)
				So(stats.LeaderboardEntries, ShouldEqual, 5)
			})

			Convey("And the generated matches should be saved", func() {
				saved, err := matchfile.ReadFile(cfg.OutputFile)
				So(err, ShouldBeNil)
				So(len(saved), ShouldEqual, 40)
			})
		})

		Convey("When the configuration is unusable", func() {
			cfg := testConfig(srv.URL)
			cfg.Workers = 0
			_, err := Run(ctx, cfg)
			So(errors.Is(err, ErrInvalidConfig), ShouldBeTrue)
		})
	})

	Convey("Given no service at the address", t, func() {
		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()

		_, err := Run(context.Background(), testConfig(srv.URL))
		So(errors.Is(err, ErrUnexpectedStatus), ShouldBeTrue)
	})
}

func TestPrefixLen(t *testing.T) {
	Convey("Request prefixes should grow to the full list", t, func() {
		So(prefixLen(0, 10, 40), ShouldEqual, 4)
		So(prefixLen(9, 10, 40), ShouldEqual, 40)
		So(prefixLen(0, 100, 5), ShouldEqual, 1)
	})
}
