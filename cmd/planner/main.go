// Command planner is the CLI front end of spec.md §6.1: it parses a PDDL
// domain/problem pair, runs as much of the parse -> normalize -> preprocess
// -> plan chain as -m asks for, and prints either a plan or a diagnostic.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"satplan/internal/config"
	"satplan/internal/engine"
	"satplan/internal/ground"
	"satplan/internal/logging"
	"satplan/internal/model"
	"satplan/internal/pddl"
	"satplan/internal/pipeline"
	"satplan/internal/planerr"
)

func withOptionalDeadline(deadline time.Time) (context.Context, context.CancelFunc) {
	if deadline.IsZero() {
		return context.Background(), func() {}
	}
	return context.WithDeadline(context.Background(), deadline)
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg := config.Default()
	fs := flag.NewFlagSet("planner", flag.ContinueOnError)

	// Flag defaults are sentinel zero values, not cfg's compiled-in
	// defaults: fs.Visit below applies only the flags the user actually
	// passed, so the layering is compiled-in defaults -> YAML -> explicit
	// flags, in that order, rather than flags unconditionally clobbering
	// whatever LoadYAML just set.
	mode := fs.String("m", "", "planning mode: parse, normalize, preprocess, plan")
	timeout := fs.Float64("t", 0, "overall wall-clock timeout in seconds (0 = unlimited)")
	outputPath := fs.String("o", "", "write plan to path (default stdout)")
	strategy := fs.String("c", "", "preprocess parameter-selection strategy")
	progress := fs.Float64("r", 0, "preprocess progress target in [0,1]")
	encodingName := fs.String("e", "", "encoding: sequential, foreach, exists")
	solverName := fs.String("s", "", "SAT solver adapter name")
	stepFactor := fs.Float64("f", 0, "horizon growth factor (> 1)")
	maxSteps := fs.Int("l", 0, "max horizon")
	numAttempts := fs.Int("i", 0, "number of solver attempts in interrupt mode (>= 2 enables it)")
	solverTimeout := fs.Float64("u", 0, "per-solver timeout in seconds (0 = unlimited)")
	workers := fs.Int("j", 0, "worker thread count (parallel grounder mode)")
	dnfThreshold := fs.Int("d", 0, "DNF-explosion helper-variable threshold")
	verbose := fs.Bool("v", false, "verbose logging")
	configPath := fs.String("config", "", "optional YAML config file layered under compiled-in defaults")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *configPath != "" {
		if err := cfg.LoadYAML(*configPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "usage: planner <domain> <problem> [options]")
		return 2
	}
	domainPath, problemPath := fs.Arg(0), fs.Arg(1)

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "m":
			cfg.Mode = config.Mode(*mode)
		case "t":
			cfg.Timeout = time.Duration(*timeout * float64(time.Second))
		case "o":
			cfg.OutputPath = *outputPath
		case "c":
			cfg.Strategy = config.GroundingStrategy(*strategy)
		case "r":
			cfg.ProgressTarget = *progress
		case "e":
			cfg.Encoding = config.Encoding(*encodingName)
		case "s":
			cfg.SolverName = *solverName
		case "f":
			cfg.StepFactor = *stepFactor
		case "l":
			cfg.MaxSteps = *maxSteps
		case "i":
			cfg.NumSolverAttempts = *numAttempts
		case "u":
			cfg.SolverTimeout = time.Duration(*solverTimeout * float64(time.Second))
		case "j":
			cfg.Workers = *workers
		case "d":
			cfg.DNFThreshold = *dnfThreshold
		case "v":
			cfg.Verbose = *verbose
		}
	})
	if cfg.NumSolverAttempts >= 2 {
		cfg.EngineMode = config.EngineInterrupt
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	logger := logging.New(cfg.Verbose)
	defer logger.Sync()

	var deadline time.Time
	if cfg.Timeout > 0 {
		deadline = time.Now().Add(cfg.Timeout)
	}

	st := &state{cfg: cfg, domainPath: domainPath, problemPath: problemPath, logger: logger}
	pl := pipeline.New(
		&parseStage{st},
		&normalizeStage{st},
		&preprocessStage{st, deadline},
		&planStage{st, deadline},
	)
	ctx := &pipeline.Context{}
	pl.Run(ctx)

	if ctx.Err != nil {
		fmt.Fprintln(os.Stderr, ctx.Err)
		return planerr.Classify(ctx.Err).ExitCode()
	}

	switch cfg.Mode {
	case config.ModePlan:
		if st.plan == nil {
			fmt.Fprintln(os.Stderr, "planner: no plan (unreachable state)")
			return 2
		}
		if err := writePlan(st.normalized, st.plan, cfg.OutputPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
	case config.ModePreprocess:
		fmt.Printf("groundness: %.4f\n", st.groundness)
	}
	return 0
}

// state is the shared, mutable artifact bag the pipeline stages thread
// through; pipeline.Context itself only carries Err/Trace, so the domain
// values a later stage needs live here instead.
type state struct {
	cfg         *config.Config
	domainPath  string
	problemPath string
	logger      *zap.Logger

	domain     *pddl.Domain
	problem    *pddl.Problem
	normalized *model.Problem

	groundProblem *model.Problem
	groundness    float64

	plan *model.Plan
}

type parseStage struct{ st *state }

func (s *parseStage) Name() string { return "parse" }
func (s *parseStage) Process(ctx *pipeline.Context) {
	domainSrc, err := os.ReadFile(s.st.domainPath)
	if err != nil {
		ctx.Fail(fmt.Errorf("%w: reading domain: %v", planerr.ErrParse, err))
		return
	}
	problemSrc, err := os.ReadFile(s.st.problemPath)
	if err != nil {
		ctx.Fail(fmt.Errorf("%w: reading problem: %v", planerr.ErrParse, err))
		return
	}

	d, err := pddl.NewParser(string(domainSrc)).ParseDomain()
	if err != nil {
		ctx.Fail(err)
		return
	}
	p, err := pddl.NewParser(string(problemSrc)).ParseProblem()
	if err != nil {
		ctx.Fail(err)
		return
	}
	s.st.domain, s.st.problem = d, p
}

type normalizeStage struct{ st *state }

func (s *normalizeStage) Name() string { return "normalize" }
func (s *normalizeStage) Process(ctx *pipeline.Context) {
	if ctx.Done() || s.st.cfg.Mode == config.ModeParse {
		return
	}
	prob, err := pddl.Normalize(s.st.domain, s.st.problem)
	if err != nil {
		ctx.Fail(err)
		return
	}
	s.st.normalized = prob
}

type preprocessStage struct {
	st       *state
	deadline time.Time
}

// Process runs the grounder and reports the resulting groundness; it only
// actually executes in -m preprocess. In -m plan the Engine owns grounding
// itself (Oneshot/Interrupt/Fixed each refine on their own schedule, not a
// single upfront pass to -r), so this stage would otherwise duplicate work
// for no benefit.
func (s *preprocessStage) Name() string { return "preprocess" }
func (s *preprocessStage) Process(ctx *pipeline.Context) {
	if ctx.Done() || s.st.cfg.Mode != config.ModePreprocess {
		return
	}
	g := ground.New(s.st.normalized, s.st.cfg)
	groundCtx, cancel := withOptionalDeadline(s.deadline)
	defer cancel()
	if err := g.Refine(groundCtx, s.st.cfg.ProgressTarget); err != nil && !errors.Is(err, planerr.ErrTimeout) {
		ctx.Fail(err)
		return
	}
	extracted, err := g.ExtractProblem()
	if err != nil {
		ctx.Fail(err)
		return
	}
	s.st.groundProblem = extracted
	s.st.groundness = g.Groundness()
	s.st.logger.Debug("preprocessed", zap.Float64("groundness", s.st.groundness))
}

type planStage struct {
	st       *state
	deadline time.Time
}

func (s *planStage) Name() string { return "plan" }
func (s *planStage) Process(ctx *pipeline.Context) {
	if ctx.Done() || s.st.cfg.Mode != config.ModePlan {
		return
	}
	e := engine.New(s.st.normalized, s.st.cfg, nil, s.st.logger)
	out := e.Run(context.Background(), s.deadline)
	if out.Kind != planerr.OutcomeSuccess {
		ctx.Fail(out.Err)
		return
	}
	s.st.plan = out.Plan
}

func writePlan(p *model.Problem, plan *model.Plan, outputPath string) error {
	w := os.Stdout
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("planner: writing plan: %w", err)
		}
		defer f.Close()
		for i, step := range plan.Steps {
			fmt.Fprintf(f, "%d: %s\n", i, step.Format(p))
		}
		return nil
	}
	for i, step := range plan.Steps {
		fmt.Fprintf(w, "%d: %s\n", i, step.Format(p))
	}
	return nil
}
