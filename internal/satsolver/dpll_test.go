package satsolver

import (
	"testing"
	"time"
)

func clause(s *DPLLSolver, lits ...int32) {
	for _, l := range lits {
		s.AddLiteral(l)
	}
	s.AddLiteral(0)
}

func TestDPLLSolvesSimpleSat(t *testing.T) {
	s := NewDPLLSolver()
	clause(s, 3, 4)
	clause(s, -3, 4)
	res, err := s.Solve(time.Time{})
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if res != Sat {
		t.Fatalf("result = %v, want Sat", res)
	}
	if !s.Value(4) {
		t.Errorf("expected var 4 true")
	}
}

func TestDPLLDetectsUnsat(t *testing.T) {
	s := NewDPLLSolver()
	clause(s, 3)
	clause(s, -3)
	res, err := s.Solve(time.Time{})
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if res != Unsat {
		t.Fatalf("result = %v, want Unsat", res)
	}
}

func TestDPLLAssumptionsAreOneShot(t *testing.T) {
	s := NewDPLLSolver()
	clause(s, 3, 4)
	s.Assume(-3)
	s.Assume(-4)
	res, err := s.Solve(time.Time{})
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if res != Unsat {
		t.Fatalf("result with assumptions = %v, want Unsat", res)
	}

	res, err = s.Solve(time.Time{})
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if res != Sat {
		t.Fatalf("result without assumptions = %v, want Sat (assumptions should not persist)", res)
	}
}

func TestDPLLPinnedVariables(t *testing.T) {
	s := NewDPLLSolver()
	clause(s, 1)
	res, err := s.Solve(time.Time{})
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if res != Sat {
		t.Fatalf("result = %v, want Sat", res)
	}
	if !s.Value(1) {
		t.Errorf("pinned SAT-true variable 1 must be true")
	}
	if s.Value(2) {
		t.Errorf("pinned SAT-false variable 2 must be false")
	}
}

func TestDPLLRespectsDeadline(t *testing.T) {
	s := NewDPLLSolver()
	res, err := s.Solve(time.Now().Add(-time.Second))
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if res != Timeout {
		t.Fatalf("result = %v, want Timeout", res)
	}
}
