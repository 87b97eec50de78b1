package satsolver

import (
	"time"
)

// DPLLSolver is a small in-process reference implementation of Solver:
// plain unit-propagation DPLL with chronological backtracking, no clause
// learning. It exists so the driver and its tests have a real Solver to
// exercise without depending on an external ipasir binding; it is not
// meant to compete with a production incremental SAT solver on anything
// but the small instances this planner's own test suite builds.
type DPLLSolver struct {
	clauses     [][]int32
	building    []int32
	assumptions []int32
	numVars     int32
	deadline    time.Time
	model       map[int32]bool
	nodes       int
}

// NewDPLLSolver builds a solver with variables 1 (SAT-true) and 2
// (SAT-false) pinned by unit clauses, per spec.md §6.7.
func NewDPLLSolver() *DPLLSolver {
	s := &DPLLSolver{model: map[int32]bool{}}
	s.clauses = append(s.clauses, []int32{1}, []int32{-2})
	s.numVars = 2
	return s
}

func litVar(lit int32) int32 {
	if lit < 0 {
		return -lit
	}
	return lit
}

func (s *DPLLSolver) AddLiteral(lit int32) {
	if lit == 0 {
		if len(s.building) > 0 {
			s.clauses = append(s.clauses, s.building)
			s.building = nil
		}
		return
	}
	if v := litVar(lit); v > s.numVars {
		s.numVars = v
	}
	s.building = append(s.building, lit)
}

func (s *DPLLSolver) Assume(lit int32) {
	s.assumptions = append(s.assumptions, lit)
}

func (s *DPLLSolver) SetTerminate(deadline time.Time) {
	s.deadline = deadline
}

func (s *DPLLSolver) Value(v uint32) bool {
	return s.model[int32(v)]
}

// Solve runs the search against the accumulated clauses plus the pending
// one-shot assumptions, which are cleared regardless of outcome.
func (s *DPLLSolver) Solve(deadline time.Time) (Result, error) {
	if !deadline.IsZero() {
		s.deadline = deadline
	}
	assumed := s.assumptions
	s.assumptions = nil

	clauses := make([][]int32, 0, len(s.clauses)+len(assumed))
	clauses = append(clauses, s.clauses...)
	for _, a := range assumed {
		clauses = append(clauses, []int32{a})
	}

	assign := map[int32]bool{}
	s.nodes = 0
	sat, timedOut := s.search(clauses, assign)
	if timedOut {
		return Timeout, nil
	}
	if !sat {
		return Unsat, nil
	}
	s.model = assign
	return Sat, nil
}

func (s *DPLLSolver) deadlineExceeded() bool {
	s.nodes++
	if s.deadline.IsZero() {
		return false
	}
	return time.Now().After(s.deadline)
}

// search is plain recursive unit-propagation DPLL. assign is mutated along
// the current branch; assignments made on a branch that fails are undone on
// backtrack, and on success they are kept so Solve can read the model.
func (s *DPLLSolver) search(clauses [][]int32, assign map[int32]bool) (sat bool, timedOut bool) {
	if s.deadlineExceeded() {
		return false, true
	}

	trail, ok := propagateUnits(clauses, assign)
	defer func() {
		if sat {
			return
		}
		for _, v := range trail {
			delete(assign, v)
		}
	}()
	if !ok {
		return false, false
	}

	allSat := true
	for _, c := range clauses {
		sat, unresolved := evalClause(c, assign)
		if sat {
			continue
		}
		if len(unresolved) == 0 {
			return false, false
		}
		allSat = false
	}
	if allSat {
		return true, false
	}

	branchVar := pickUnassigned(clauses, assign, s.numVars)
	if branchVar == 0 {
		return true, false
	}

	for _, v := range []bool{true, false} {
		assign[branchVar] = v
		sat, timedOut := s.search(clauses, assign)
		if timedOut {
			return false, true
		}
		if sat {
			return true, false
		}
		delete(assign, branchVar)
	}
	return false, false
}

// propagateUnits repeatedly finds unit clauses and assigns their forced
// literal, returning the list of variables it newly assigned (so the
// caller can undo them) and false if a conflict was reached.
func propagateUnits(clauses [][]int32, assign map[int32]bool) ([]int32, bool) {
	var trail []int32
	changed := true
	for changed {
		changed = false
		for _, c := range clauses {
			sat, unresolved := evalClause(c, assign)
			if sat {
				continue
			}
			if len(unresolved) == 0 {
				return trail, false
			}
			if len(unresolved) == 1 {
				lit := unresolved[0]
				v := litVar(lit)
				if _, already := assign[v]; !already {
					assign[v] = lit > 0
					trail = append(trail, v)
					changed = true
				}
			}
		}
	}
	return trail, true
}

func evalClause(clause []int32, assign map[int32]bool) (sat bool, unresolved []int32) {
	for _, lit := range clause {
		v := litVar(lit)
		val, ok := assign[v]
		if !ok {
			unresolved = append(unresolved, lit)
			continue
		}
		if (lit > 0) == val {
			return true, nil
		}
	}
	return false, unresolved
}

func pickUnassigned(clauses [][]int32, assign map[int32]bool, numVars int32) int32 {
	for _, c := range clauses {
		for _, lit := range c {
			v := litVar(lit)
			if _, ok := assign[v]; !ok {
				return v
			}
		}
	}
	return 0
}
