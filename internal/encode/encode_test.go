package encode

import (
	"context"
	"testing"

	"satplan/internal/config"
	"satplan/internal/ground"
	"satplan/internal/model"
	"satplan/internal/pddl"
	"satplan/internal/support"
)

type recorder struct {
	clauses [][]int32
}

func (r *recorder) Clause(lits ...int32) {
	cp := append([]int32(nil), lits...)
	r.clauses = append(r.clauses, cp)
}

func buildEncoder(t *testing.T, domainSrc, problemSrc string, cfg *config.Config) (*Encoder, *Layout) {
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
	layout := BuildLayout(extracted, idx, cfg)
	return New(extracted, idx, cfg.RequireParamImpliesAction, layout), layout
}

const paramDomainSrc = `(define (domain d)
  (:types t)
  (:predicates (p ?x - t) (q ?x - t))
  (:action act
    :parameters (?x - t)
    :precondition (p ?x)
    :effect (q ?x)))
`

const paramProblemSrc = `(define (problem d1)
  (:domain d)
  (:objects o1 o2 o3 - t)
  (:init (p o1) (p o2) (p o3))
  (:goal (q o1)))
`

func TestUniversalParamAtMostOneCount(t *testing.T) {
	cfg := config.Default()
	e, layout := buildEncoder(t, paramDomainSrc, paramProblemSrc, cfg)

	var paramVars []int32
	for c := 0; c < 3; c++ {
		paramVars = append(paramVars, layout.ParamVar(0, 0, c, 0))
	}
	isParamVar := func(v int32) bool {
		for _, pv := range paramVars {
			if v == pv {
				return true
			}
		}
		return false
	}
	abs := func(v int32) int32 {
		if v < 0 {
			return -v
		}
		return v
	}

	rec := &recorder{}
	e.EmitUniversal(rec, 0)

	atLeastOne, atMostOne := 0, 0
	for _, c := range rec.clauses {
		allParamOrAction := true
		paramCount := 0
		for _, lit := range c {
			if isParamVar(abs(lit)) {
				paramCount++
				continue
			}
			if abs(lit) == layout.ActionVar(0, 0) {
				continue
			}
			allParamOrAction = false
		}
		if !allParamOrAction || paramCount == 0 {
			continue
		}
		switch len(c) {
		case 4:
			atLeastOne++
		case 2:
			atMostOne++
		}
	}

	if atLeastOne != 1 {
		t.Errorf("at-least-one clauses = %d, want 1", atLeastOne)
	}
	if atMostOne != 3 {
		t.Errorf("at-most-one clauses = %d, want 3 (C(3,2))", atMostOne)
	}
}

func TestDNFThresholdUsesHelperVariables(t *testing.T) {
	domainSrc := `(define (domain d)
  (:predicates (g) (a1) (a2) (a3))
  (:action act1 :precondition (a1) :effect (g))
  (:action act2 :precondition (a2) :effect (g))
  (:action act3 :precondition (a3) :effect (g)))
`
	problemSrc := `(define (problem d1)
  (:domain d)
  (:init (a1) (a2) (a3))
  (:goal (g)))
`
	cfg := config.Default()
	cfg.DNFThreshold = 2
	_, layout := buildEncoder(t, domainSrc, problemSrc, cfg)

	gID := findGroundAtomID(t, layout)
	info, ok := layout.frameSupport[helperKeyBase{atom: gID, flipTo: true}]
	if !ok {
		t.Fatalf("no frame-support entry for g flipping true")
	}
	if !info.usesHelper {
		t.Fatalf("expected DNFThreshold=2 with 3 supporting actions to trigger helper variables")
	}
	if len(info.support) != 3 {
		t.Fatalf("support count = %d, want 3", len(info.support))
	}
}

// findGroundAtomID returns the sole tracked (non-rigid) ground atom in
// layout; the fixture above only ever produces one.
func findGroundAtomID(t *testing.T, layout *Layout) model.GroundAtomID {
	t.Helper()
	for id := range layout.atomHoldsOffset {
		return id
	}
	t.Fatalf("no tracked atoms in layout")
	return 0
}
