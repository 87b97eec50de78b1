package ground

import (
	"context"
	"testing"

	"satplan/internal/config"
	"satplan/internal/pddl"
)

func blocksworldModel(t *testing.T) (*pddl.Domain, *pddl.Problem) {
	t.Helper()
	domainSrc := `(define (domain blocksworld)
  (:types block)
  (:predicates (on ?x - block ?y - block) (clear ?x - block))
  (:action move
    :parameters (?x - block ?y - block ?z - block)
    :precondition (and (on ?x ?y) (clear ?x) (clear ?z))
    :effect (and (on ?x ?z) (clear ?y) (not (on ?x ?y)) (not (clear ?z)))))
`
	problemSrc := `(define (problem bw)
  (:domain blocksworld)
  (:objects a b c - block)
  (:init (on a b) (clear a) (clear c))
  (:goal (on a c)))
`
	d, err := pddl.NewParser(domainSrc).ParseDomain()
	if err != nil {
		t.Fatalf("ParseDomain: %v", err)
	}
	p, err := pddl.NewParser(problemSrc).ParseProblem()
	if err != nil {
		t.Fatalf("ParseProblem: %v", err)
	}
	return d, p
}

func TestGrounderFullyGroundsBlocksworld(t *testing.T) {
	d, p := blocksworldModel(t)
	prob, err := pddl.Normalize(d, p)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	cfg := config.Default()
	g := New(prob, cfg)
	if err := g.Refine(context.Background(), 1.0); err != nil {
		t.Fatalf("Refine: %v", err)
	}
	if g.Groundness() < 1.0 {
		t.Errorf("groundness = %v, want >= 1.0", g.Groundness())
	}

	extracted, err := g.ExtractProblem()
	if err != nil {
		t.Fatalf("ExtractProblem: %v", err)
	}
	for _, s := range extracted.Schemata {
		if !s.IsGround() {
			t.Errorf("schema %q is not fully ground after Refine(1.0)", s.Name)
		}
	}
	// 3 blocks, move has 3 distinct free params of type block: up to 3*2*1=6
	// instantiations exist before pruning (x!=y, x!=z are not structurally
	// enforced by the grounder, only by preconditions), so just assert the
	// schema count is positive and bounded by the naive upper bound.
	if len(extracted.Schemata) == 0 || len(extracted.Schemata) > 27 {
		t.Errorf("unexpected ground schema count: %d", len(extracted.Schemata))
	}
}

func TestGrounderParallelMatchesSequential(t *testing.T) {
	d, p := blocksworldModel(t)
	prob, err := pddl.Normalize(d, p)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	seqCfg := config.Default()
	seq := New(prob, seqCfg)
	if err := seq.Refine(context.Background(), 1.0); err != nil {
		t.Fatalf("Refine (sequential): %v", err)
	}
	seqExtracted, err := seq.ExtractProblem()
	if err != nil {
		t.Fatalf("ExtractProblem (sequential): %v", err)
	}

	parCfg := config.Default()
	parCfg.Workers = 4
	par := New(prob, parCfg)
	if err := par.Refine(context.Background(), 1.0); err != nil {
		t.Fatalf("Refine (parallel): %v", err)
	}
	parExtracted, err := par.ExtractProblem()
	if err != nil {
		t.Fatalf("ExtractProblem (parallel): %v", err)
	}

	// Workers > 1 only changes how origins are expanded concurrently, never
	// which ground schemata survive: the two runs must agree on count.
	if len(seqExtracted.Schemata) != len(parExtracted.Schemata) {
		t.Errorf("schema count mismatch: sequential=%d parallel=%d", len(seqExtracted.Schemata), len(parExtracted.Schemata))
	}
	if seq.Groundness() != par.Groundness() {
		t.Errorf("groundness mismatch: sequential=%v parallel=%v", seq.Groundness(), par.Groundness())
	}
}

func TestGrounderPrunesUnreachableAction(t *testing.T) {
	domainSrc := `(define (domain d)
  (:types block)
  (:predicates (p ?x - block) (q ?x - block))
  (:action act
    :parameters (?x - block)
    :precondition (p ?x)
    :effect (q ?x)))
`
	problemSrc := `(define (problem d1)
  (:domain d)
  (:objects a - block)
  (:init)
  (:goal (q a)))
`
	d, err := pddl.NewParser(domainSrc).ParseDomain()
	if err != nil {
		t.Fatalf("ParseDomain: %v", err)
	}
	pr, err := pddl.NewParser(problemSrc).ParseProblem()
	if err != nil {
		t.Fatalf("ParseProblem: %v", err)
	}
	prob, err := pddl.Normalize(d, pr)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	g := New(prob, config.Default())
	if err := g.Refine(context.Background(), 1.0); err != nil {
		t.Fatalf("Refine: %v", err)
	}
	extracted, err := g.ExtractProblem()
	if err != nil {
		t.Fatalf("ExtractProblem: %v", err)
	}
	// p(a) is never true (not in init, never effected) so act is never
	// reachable and should be pruned away entirely.
	if len(extracted.Schemata) != 0 {
		t.Errorf("expected all schemata pruned, got %+v", extracted.Schemata)
	}
}
