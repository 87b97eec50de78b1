package pddl

import "testing"

func parseBlocksworld(t *testing.T) (*Domain, *Problem) {
	t.Helper()
	d, err := NewParser(blocksDomainSrc).ParseDomain()
	if err != nil {
		t.Fatalf("ParseDomain: %v", err)
	}
	p, err := NewParser(blocksProblemSrc).ParseProblem()
	if err != nil {
		t.Fatalf("ParseProblem: %v", err)
	}
	return d, p
}

func TestNormalizeBlocksworld(t *testing.T) {
	d, p := parseBlocksworld(t)
	prob, err := Normalize(d, p)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(prob.Constants) != 2 {
		t.Errorf("constants = %+v", prob.Constants)
	}
	// 4 declared predicates + the implicit equality predicate.
	if len(prob.Predicates) != 5 {
		t.Errorf("predicates = %+v", prob.Predicates)
	}
	if len(prob.Schemata) != 2 {
		t.Fatalf("schemata = %+v", prob.Schemata)
	}
	if len(prob.Init) != 3 {
		t.Errorf("init = %+v", prob.Init)
	}
	if len(prob.Goal) != 1 {
		t.Errorf("goal = %+v", prob.Goal)
	}
}

func TestNormalizeSplitsDisjunctivePrecondition(t *testing.T) {
	src := `(define (domain d)
  (:types block)
  (:predicates (p ?x - block) (q ?x - block) (r ?x - block))
  (:action act
    :parameters (?x - block)
    :precondition (or (p ?x) (q ?x))
    :effect (r ?x)))
`
	d, err := NewParser(src).ParseDomain()
	if err != nil {
		t.Fatalf("ParseDomain: %v", err)
	}
	probSrc := `(define (problem d1)
  (:domain d)
  (:objects a - block)
  (:init (p a))
  (:goal (r a)))
`
	p, err := NewParser(probSrc).ParseProblem()
	if err != nil {
		t.Fatalf("ParseProblem: %v", err)
	}
	prob, err := Normalize(d, p)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(prob.Schemata) != 2 {
		t.Fatalf("expected 2 split schemata, got %d: %+v", len(prob.Schemata), prob.Schemata)
	}
	for _, s := range prob.Schemata {
		if len(s.Preconditions) != 1 {
			t.Errorf("schema %q preconditions = %+v, want exactly 1", s.Name, s.Preconditions)
		}
	}
}

func TestNormalizeDropsEmptyEffectAction(t *testing.T) {
	src := `(define (domain d)
  (:predicates (p))
  (:action noop
    :precondition (p)
    :effect (and)))
`
	d, err := NewParser(src).ParseDomain()
	if err != nil {
		t.Fatalf("ParseDomain: %v", err)
	}
	probSrc := `(define (problem d1)
  (:domain d)
  (:init (p))
  (:goal (p)))
`
	p, err := NewParser(probSrc).ParseProblem()
	if err != nil {
		t.Fatalf("ParseProblem: %v", err)
	}
	prob, err := Normalize(d, p)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(prob.Schemata) != 0 {
		t.Errorf("expected empty-effect action to be dropped, got %+v", prob.Schemata)
	}
}

func TestNormalizeContradictoryInit(t *testing.T) {
	src := `(define (domain d)
  (:predicates (p)))
`
	d, err := NewParser(src).ParseDomain()
	if err != nil {
		t.Fatalf("ParseDomain: %v", err)
	}
	probSrc := `(define (problem d1)
  (:domain d)
  (:init (p) (not (p)))
  (:goal (p)))
`
	p, err := NewParser(probSrc).ParseProblem()
	if err != nil {
		t.Fatalf("ParseProblem: %v", err)
	}
	if _, err := Normalize(d, p); err == nil {
		t.Fatal("expected contradictory-init error")
	}
}

func TestNormalizeUndeclaredPredicateError(t *testing.T) {
	src := `(define (domain d) (:predicates (p)))`
	d, err := NewParser(src).ParseDomain()
	if err != nil {
		t.Fatalf("ParseDomain: %v", err)
	}
	probSrc := `(define (problem d1) (:domain d) (:init (q)) (:goal (p)))`
	p, err := NewParser(probSrc).ParseProblem()
	if err != nil {
		t.Fatalf("ParseProblem: %v", err)
	}
	if _, err := Normalize(d, p); err == nil {
		t.Fatal("expected undeclared-predicate error")
	}
}
