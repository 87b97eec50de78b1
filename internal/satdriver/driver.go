// Package satdriver implements the outer solve loop of spec.md §4.6: the
// geometric horizon schedule that grows the encoded transition system step
// by step, assumes the goal at the current horizon, and dispatches on the
// SAT solver's result.
package satdriver

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"satplan/internal/config"
	"satplan/internal/encode"
	"satplan/internal/model"
	"satplan/internal/planerr"
	"satplan/internal/satsolver"
)

// Driver owns one Encoder/Solver pair for the lifetime of a single horizon
// search. It is one-shot: build a fresh Driver (and fresh Solver) per
// Engine solve call.
type Driver struct {
	enc    *encode.Encoder
	solver satsolver.Solver
	cfg    *config.Config
	logger *zap.Logger
}

// New builds a Driver over enc and solver. solver must be unused (only the
// pinned SAT-true/SAT-false unit clauses installed).
func New(enc *encode.Encoder, solver satsolver.Solver, cfg *config.Config, logger *zap.Logger) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{enc: enc, solver: solver, cfg: cfg, logger: logger}
}

// clauseWriter adapts a satsolver.Solver's one-literal-at-a-time API to
// encode.ClauseWriter's variadic one.
type clauseWriter struct{ solver satsolver.Solver }

func (w clauseWriter) Clause(lits ...int32) {
	for _, l := range lits {
		w.solver.AddLiteral(l)
	}
	w.solver.AddLiteral(0)
}

// Run executes the horizon schedule of spec.md §4.6 against deadline (the
// zero Time means unbounded), returning the decoded plan on success or one
// of planerr.ErrTimeout / planerr.ErrMaxStepsExceeded / planerr.ErrSolver.
func (d *Driver) Run(deadline time.Time) (*model.Plan, error) {
	w := clauseWriter{d.solver}
	d.enc.EmitInit(w)
	d.enc.EmitUniversal(w, 0)

	s := 0
	target := 1
	for {
		if s >= d.cfg.MaxSteps {
			return nil, fmt.Errorf("satdriver: horizon %d: %w", s, planerr.ErrMaxStepsExceeded)
		}

		for s < target {
			d.enc.EmitTransition(w, s)
			s++
			d.enc.EmitUniversal(w, s)
		}

		for _, lit := range d.enc.GoalAssumptions(s) {
			d.solver.Assume(lit)
		}

		solveDeadline := deadline
		if d.cfg.SolverTimeout > 0 {
			perSolve := time.Now().Add(d.cfg.SolverTimeout)
			if solveDeadline.IsZero() || perSolve.Before(solveDeadline) {
				solveDeadline = perSolve
			}
		}
		d.solver.SetTerminate(solveDeadline)

		d.logger.Debug("solving", zap.Int("horizon", s), zap.Int("target", target))
		res, err := d.solver.Solve(solveDeadline)
		if err != nil {
			return nil, fmt.Errorf("satdriver: %w: %v", planerr.ErrSolver, err)
		}

		switch res {
		case satsolver.Sat:
			return d.enc.DecodePlan(d.solver.Value, s), nil
		case satsolver.Timeout:
			return nil, fmt.Errorf("satdriver: horizon %d: %w", s, planerr.ErrTimeout)
		case satsolver.Unsat:
			// Re-target to ceil(s * step_factor): snapping to the integer
			// horizon actually reached (rather than continuing to multiply
			// a fractional counter) guarantees the next outer iteration
			// grows the horizon by at least one step instead of re-solving
			// an unchanged instance.
			target = int(math.Ceil(float64(s) * d.cfg.StepFactor))
			if target <= s {
				target = s + 1
			}
			continue
		default:
			return nil, fmt.Errorf("satdriver: %w: unexpected result %v", planerr.ErrSolver, res)
		}
	}
}
