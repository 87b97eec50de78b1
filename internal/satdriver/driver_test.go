package satdriver

import (
	"context"
	"errors"
	"testing"
	"time"

	"satplan/internal/config"
	"satplan/internal/encode"
	"satplan/internal/ground"
	"satplan/internal/logging"
	"satplan/internal/pddl"
	"satplan/internal/planerr"
	"satplan/internal/satsolver"
	"satplan/internal/support"
)

func buildDriver(t *testing.T, domainSrc, problemSrc string, cfg *config.Config) *Driver {
	t.Helper()
	d, err := pddl.NewParser(domainSrc).ParseDomain()
	if err != nil {
		t.Fatalf("ParseDomain: %v", err)
	}
	p, err := pddl.NewParser(problemSrc).ParseProblem()
	if err != nil {
		t.Fatalf("ParseProblem: %v", err)
	}
	prob, err := pddl.Normalize(d, p)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	g := ground.New(prob, cfg)
	if err := g.Refine(context.Background(), 1.0); err != nil {
		t.Fatalf("Refine: %v", err)
	}
	extracted, err := g.ExtractProblem()
	if err != nil {
		t.Fatalf("ExtractProblem: %v", err)
	}
	idx := support.Build(extracted)
	layout := encode.BuildLayout(extracted, idx, cfg)
	enc := encode.New(extracted, idx, cfg.RequireParamImpliesAction, layout)
	solver := satsolver.NewDPLLSolver()
	return New(enc, solver, cfg, logging.Noop())
}

const swapDomainSrc = `(define (domain swap)
  (:types block)
  (:predicates (on ?x ?y - block))
  (:action move
    :parameters (?x ?y ?z - block)
    :precondition (on ?x ?y)
    :effect (and (on ?x ?z) (not (on ?x ?y)))))
`

func TestDriverFindsSingleSwapPlan(t *testing.T) {
	problemSrc := `(define (problem swap1)
  (:domain swap)
  (:objects a b c - block)
  (:init (on a b))
  (:goal (on a c)))
`
	cfg := config.Default()
	drv := buildDriver(t, swapDomainSrc, problemSrc, cfg)

	plan, err := drv.Run(time.Time{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(plan.Steps) != 1 {
		t.Fatalf("plan length = %d, want 1; steps=%v", len(plan.Steps), plan.Steps)
	}
	if plan.Steps[0].SchemaName != "move" {
		t.Errorf("plan step schema = %q, want move", plan.Steps[0].SchemaName)
	}
}

func TestDriverUnreachableGoalHitsMaxSteps(t *testing.T) {
	problemSrc := `(define (problem swap2)
  (:domain swap)
  (:objects a b - block)
  (:init (on a b))
  (:goal (on b a)))
`
	cfg := config.Default()
	cfg.MaxSteps = 3
	drv := buildDriver(t, swapDomainSrc, problemSrc, cfg)

	_, err := drv.Run(time.Time{})
	if !errors.Is(err, planerr.ErrMaxStepsExceeded) {
		t.Fatalf("err = %v, want ErrMaxStepsExceeded", err)
	}
}

// countingSolver always reports Unsat and counts Solve invocations. The
// horizon itself is too indirect to assert on, so the test checks the
// count against the known ceil(s*step_factor) schedule starting from
// horizon 1.
type countingSolver struct {
	satsolver.Solver
	solves int
}

func (c *countingSolver) Solve(deadline time.Time) (satsolver.Result, error) {
	c.solves++
	return satsolver.Unsat, nil
}

func TestDriverHorizonScheduleMatchesStepFactor(t *testing.T) {
	cfg := config.Default()
	cfg.StepFactor = 1.5
	cfg.MaxSteps = 18
	drv := buildDriver(t, swapDomainSrc, `(define (problem swap3)
  (:domain swap)
  (:objects a b - block)
  (:init (on a b))
  (:goal (on b a)))
`, cfg)
	cs := &countingSolver{Solver: drv.solver}
	drv.solver = cs

	_, err := drv.Run(time.Time{})
	if !errors.Is(err, planerr.ErrMaxStepsExceeded) {
		t.Fatalf("err = %v, want ErrMaxStepsExceeded", err)
	}

	// Horizons 1,2,3,5,8,12,18 are each solved once before s(=18) reaches
	// MaxSteps(=18) and the driver bails before a further solve.
	if cs.solves != 7 {
		t.Errorf("solve calls = %d, want 7 (horizons 1,2,3,5,8,12,18)", cs.solves)
	}
}
