package support

import (
	"context"
	"testing"

	"satplan/internal/config"
	"satplan/internal/ground"
	"satplan/internal/pddl"
)

func buildBlocksworld(t *testing.T) (*pddl.Domain, *pddl.Problem) {
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

func TestBuildIndexCoversGoalAtom(t *testing.T) {
	d, p := buildBlocksworld(t)
	prob, err := pddl.Normalize(d, p)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	g := ground.New(prob, config.Default())
	if err := g.Refine(context.Background(), 1.0); err != nil {
		t.Fatalf("Refine: %v", err)
	}
	extracted, err := g.ExtractProblem()
	if err != nil {
		t.Fatalf("ExtractProblem: %v", err)
	}

	idx := Build(extracted)
	goalID := extracted.GroundAtomID(extracted.Goal[0].Atom)
	occs := idx.PosEff(goalID)
	if len(occs) == 0 {
		t.Fatalf("goal atom %v has no effect support", extracted.Goal[0].Atom)
	}
	for _, occ := range occs {
		if len(occ.Assignment) == 0 {
			t.Errorf("occurrence %+v has no parameter assignment though move is not fully ground by schema index alone", occ)
		}
	}
}

func TestIsRigidMatchesNeverEffected(t *testing.T) {
	domainSrc := `(define (domain d)
  (:predicates (p) (q))
  (:action act :precondition (p) :effect (q)))
`
	problemSrc := `(define (problem d1)
  (:domain d)
  (:init (p))
  (:goal (q)))
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
	idx := Build(prob)
	pID := prob.GroundAtomID(prob.Init[0])
	if !idx.IsRigid(pID, true) {
		t.Errorf("p should be rigidly true: never effected, true in init")
	}
}
