// Package planerr defines the error kinds of spec.md §7 as sentinel values,
// wrapped with fmt.Errorf("...: %w", ...) at the point they occur so
// errors.Is still classifies them once they bubble up to the engine. No
// third-party error-wrapping library is introduced: stdlib errors.Is/As over
// %w-wrapped causes is the idiom the teacher repo and the rest of the
// retrieval pack use throughout for this concern.
package planerr

import "errors"

// Sentinel errors. Internal invariant failures (e.g. an out-of-range
// parameter reference) are programming errors and are left to panic, per
// spec.md §7's closing note, rather than classified here.
var (
	// ErrTimeout means the wall-clock deadline installed on the current
	// phase (grounder refinement, encoding, or SAT solve) was exceeded.
	ErrTimeout = errors.New("planner: timeout")

	// ErrMaxStepsExceeded means the SAT driver reached its configured
	// maximum horizon without finding a model. The engine conflates this
	// with ErrTimeout in its user-visible outcome, per spec.md §7.
	ErrMaxStepsExceeded = errors.New("planner: max steps exceeded")

	// ErrSolver means the SAT solver adapter reported an internal error
	// (as opposed to Unsat or Timeout, which are ordinary outcomes).
	ErrSolver = errors.New("planner: solver error")

	// ErrParse means a PDDL lexing/parsing/model-validation error was
	// found; callers should abort with exit code 2 per spec.md §6.4.
	ErrParse = errors.New("planner: parse error")

	// ErrContradictoryInit means the initial state asserts both polarities
	// of the same ground atom after normalization.
	ErrContradictoryInit = errors.New("planner: contradictory initial state")

	// ErrSymbol means a missing or duplicate type/constant/predicate/
	// parameter symbol was found during validation.
	ErrSymbol = errors.New("planner: symbol error")
)

// Outcome is the three-way user-visible result of an engine run.
type Outcome int

const (
	// OutcomeSuccess means a plan was found.
	OutcomeSuccess Outcome = iota
	// OutcomeTimeout covers both ErrTimeout and ErrMaxStepsExceeded.
	OutcomeTimeout
	// OutcomeError covers ErrSolver, ErrParse, ErrContradictoryInit and
	// ErrSymbol; the engine never retries on this outcome.
	OutcomeError
)

// Classify maps an error produced anywhere in the pipeline to the
// three-way outcome the engine and the CLI report, per spec.md §7's
// propagation rule.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrTimeout), errors.Is(err, ErrMaxStepsExceeded):
		return OutcomeTimeout
	default:
		return OutcomeError
	}
}

// ExitCode maps an Outcome to the process exit code of spec.md §6.1:
// 0 = plan found, 1 = no plan within limits, 2 = error.
func (o Outcome) ExitCode() int {
	switch o {
	case OutcomeSuccess:
		return 0
	case OutcomeTimeout:
		return 1
	default:
		return 2
	}
}

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeTimeout:
		return "timeout"
	default:
		return "error"
	}
}
