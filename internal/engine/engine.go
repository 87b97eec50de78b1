// Package engine implements the three orchestration modes of spec.md §4.7:
// Oneshot, Interrupt and Fixed all share the pattern of refining the
// grounder toward a progress target and handing the residual problem to a
// planner attempt. Only Interrupt retries with further refinement after a
// failed attempt; Oneshot and Fixed make a single attempt.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"satplan/internal/config"
	"satplan/internal/encode"
	"satplan/internal/ground"
	"satplan/internal/model"
	"satplan/internal/planerr"
	"satplan/internal/satdriver"
	"satplan/internal/satsolver"
	"satplan/internal/support"
)

// Outcome is the three-way result of a Run call, per spec.md §4.7.
type Outcome struct {
	Kind planerr.Outcome
	Plan *model.Plan
	Err  error
}

// NewSolver builds a fresh satsolver.Solver for one planner attempt. A nil
// NewSolver passed to New (as the CLI does) means the internal DPLL
// reference solver; tests may substitute a stub.
type NewSolver func() satsolver.Solver

// Engine orchestrates grounder refinement and SAT-driver attempts per
// config.Config's Mode-independent Oneshot/Interrupt/Fixed selection
// (spec.md §4.7; the engine's mode itself is config.Config.EngineMode).
type Engine struct {
	problem   *model.Problem
	cfg       *config.Config
	newSolver NewSolver
	logger    *zap.Logger
}

// New builds an Engine over a normalized problem.
func New(problem *model.Problem, cfg *config.Config, newSolver NewSolver, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if newSolver == nil {
		newSolver = func() satsolver.Solver { return satsolver.NewDPLLSolver() }
	}
	return &Engine{problem: problem, cfg: cfg, newSolver: newSolver, logger: logger}
}

// runLogger stamps a fresh run id onto e.logger so every log line emitted by
// this Run call's grounder/driver attempts can be correlated, including
// across the goroutines of a parallel grounder (spec.md §5).
func (e *Engine) runLogger() *zap.Logger {
	return e.logger.With(zap.String("run_id", uuid.NewString()))
}

// attempt grounds problem to targetGroundness (best effort within ctx) and
// runs one satdriver.Run against the extracted residual problem, budgeted by
// perSolveDeadline (zero means unbounded).
func (e *Engine) attempt(ctx context.Context, g *ground.Grounder, targetGroundness float64, perSolveDeadline time.Time, logger *zap.Logger) (*model.Plan, error) {
	refineCtx := ctx
	if !perSolveDeadline.IsZero() {
		var cancel context.CancelFunc
		refineCtx, cancel = context.WithDeadline(ctx, perSolveDeadline)
		defer cancel()
	}
	// A refinement timeout is not fatal here: the engine still tries to plan
	// against whatever partially-ground residual problem it has, per
	// spec.md §5's "extract_problem() on a timed-out grounder is still
	// well-defined" cancellation semantics.
	if err := g.Refine(refineCtx, targetGroundness); err != nil && !errors.Is(err, planerr.ErrTimeout) {
		return nil, err
	}
	extracted, err := g.ExtractProblem()
	if err != nil {
		return nil, err
	}

	idx := support.Build(extracted)
	layout := encode.BuildLayout(extracted, idx, e.cfg)
	enc := encode.New(extracted, idx, e.cfg.RequireParamImpliesAction, layout)
	solver := e.newSolver()
	drv := satdriver.New(enc, solver, e.cfg, logger)
	return drv.Run(perSolveDeadline)
}

func classify(err error) Outcome {
	kind := planerr.Classify(err)
	return Outcome{Kind: kind, Err: err}
}

// RunOneshot refines until groundness >= cfg.ProgressTarget (or no further
// refinement is possible), then makes a single planner attempt with the
// remaining deadline.
func (e *Engine) RunOneshot(ctx context.Context, deadline time.Time) Outcome {
	g := ground.New(e.problem, e.cfg)
	plan, err := e.attempt(ctx, g, e.cfg.ProgressTarget, deadline, e.runLogger())
	if err != nil {
		return classify(err)
	}
	return Outcome{Kind: planerr.OutcomeSuccess, Plan: plan}
}

// RunInterrupt implements spec.md §4.7's Interrupt mode: with one solver
// slot it behaves like Oneshot at full groundness; with more, it steps
// preprocessing progress in NumSolverAttempts-1 equal increments, giving
// every attempt but the last cfg.SolverTimeout and the last the residual
// budget.
func (e *Engine) RunInterrupt(ctx context.Context, deadline time.Time) Outcome {
	g := ground.New(e.problem, e.cfg)
	logger := e.runLogger()

	if e.cfg.NumSolverAttempts <= 1 {
		plan, err := e.attempt(ctx, g, 1.0, deadline, logger)
		if err != nil {
			return classify(err)
		}
		return Outcome{Kind: planerr.OutcomeSuccess, Plan: plan}
	}

	increments := e.cfg.NumSolverAttempts - 1
	for i := 1; i <= increments; i++ {
		target := float64(i) / float64(increments)
		attemptDeadline := deadline
		if e.cfg.SolverTimeout > 0 {
			byTimeout := time.Now().Add(e.cfg.SolverTimeout)
			if attemptDeadline.IsZero() || byTimeout.Before(attemptDeadline) {
				attemptDeadline = byTimeout
			}
		}
		plan, err := e.attempt(ctx, g, target, attemptDeadline, logger)
		if err == nil {
			return Outcome{Kind: planerr.OutcomeSuccess, Plan: plan}
		}
		if planerr.Classify(err) == planerr.OutcomeError {
			return classify(err)
		}
	}

	// Final attempt: full groundness, residual budget.
	plan, err := e.attempt(ctx, g, 1.0, deadline, logger)
	if err != nil {
		return classify(err)
	}
	return Outcome{Kind: planerr.OutcomeSuccess, Plan: plan}
}

// RunFixed refines to cfg.TargetGroundness and solves with no deadline.
func (e *Engine) RunFixed(ctx context.Context) Outcome {
	g := ground.New(e.problem, e.cfg)
	plan, err := e.attempt(ctx, g, e.cfg.TargetGroundness, time.Time{}, e.runLogger())
	if err != nil {
		return classify(err)
	}
	return Outcome{Kind: planerr.OutcomeSuccess, Plan: plan}
}

// Run dispatches on cfg.EngineMode.
func (e *Engine) Run(ctx context.Context, deadline time.Time) Outcome {
	switch e.cfg.EngineMode {
	case config.EngineInterrupt:
		return e.RunInterrupt(ctx, deadline)
	case config.EngineFixed:
		return e.RunFixed(ctx)
	default:
		return e.RunOneshot(ctx, deadline)
	}
}
