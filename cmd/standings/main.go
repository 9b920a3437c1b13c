// Command standings ranks tournaments from match files and drives a running
// standings service.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/okian/standings/internal/config"
	"github.com/okian/standings/internal/domain/ranking"
	"github.com/okian/standings/pkg/logger"
)

// Globals are the flags shared by every command.
type Globals struct {
	Debug     bool   `help:"Enable debug logging."`
	LogFormat string `help:"Log format on stderr." default:"${log_format}" enum:"text,json"`
}

// env carries what commands need beyond their flags.
type env struct {
	ctx context.Context
	out io.Writer
}

// solverFlags are shared by every command that solves locally. Defaults come
// from the service configuration so the CLI and the server agree.
type solverFlags struct {
	Damping       float64 `help:"Share of score passed along defeat edges." default:"${damping}"`
	Policy        string  `help:"Stopping policy." default:"${policy}" enum:"fixed,convergence"`
	Iterations    int     `help:"Step count of the fixed policy." default:"${iterations}"`
	Epsilon       float64 `help:"L1 threshold of the convergence policy." default:"${epsilon}"`
	MaxIterations int     `help:"Step cap of the convergence policy." default:"${max_iterations}"`
	Parallelism   int     `help:"Goroutines per solve." default:"${parallelism}"`
}

func (f solverFlags) options() ([]ranking.Option, error) {
	c := config.New()
	c.Damping = f.Damping
	c.Policy = f.Policy
	c.Iterations = f.Iterations
	c.Epsilon = f.Epsilon
	c.MaxIterations = f.MaxIterations
	c.Parallelism = f.Parallelism
	return c.SolverOptions()
}

func (f solverFlags) solver() (*ranking.Solver, error) {
	opts, err := f.options()
	if err != nil {
		return nil, err
	}
	return ranking.NewSolver(opts...)
}

type cli struct {
	Globals

	Rank     rankCmd     `cmd:"" help:"Print the final standings of a match file."`
	Replay   replayCmd   `cmd:"" help:"Print the standings after every revealed match."`
	Bench    benchCmd    `cmd:"" help:"Compare the fixed and convergence policies on a match file."`
	Generate generateCmd `cmd:"" help:"Write a random match table."`
	Check    checkCmd    `cmd:"" help:"Drive a running service with generated matches and verify its answers."`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		stop()
		os.Exit(1)
	}
}

// run parses args and executes the selected command, printing results to out.
func run(ctx context.Context, args []string, out io.Writer) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	var c cli
	parser, err := kong.New(&c,
		kong.Name("standings"),
		kong.Description("PageRank-style tournament standings."),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
		kong.Vars(vars(cfg)),
	)
	if err != nil {
		return err
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	if err := logger.InitWithWriter(os.Stderr, c.LogFormat); err != nil {
		return err
	}
	level := cfg.LogLevel
	if c.Debug {
		level = "debug"
	}
	if err := logger.SetLevelString(level); err != nil {
		return err
	}

	return kctx.Run(&c.Globals, &env{ctx: ctx, out: out})
}

func vars(cfg *config.Config) kong.Vars {
	return kong.Vars{
		"log_format":     cfg.LogFormat,
		"damping":        strconv.FormatFloat(cfg.Damping, 'g', -1, 64),
		"policy":         cfg.Policy,
		"iterations":     strconv.Itoa(cfg.Iterations),
		"epsilon":        strconv.FormatFloat(cfg.Epsilon, 'g', -1, 64),
		"max_iterations": strconv.Itoa(cfg.MaxIterations),
		"parallelism":    strconv.Itoa(cfg.Parallelism),
		"replay_workers": strconv.Itoa(cfg.ReplayWorkers),
		"check_workers":  strconv.Itoa(runtime.NumCPU() * 2),
	}
}
