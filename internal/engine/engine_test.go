package engine

import (
	"context"
	"testing"
	"time"

	"satplan/internal/config"
	"satplan/internal/pddl"
	"satplan/internal/planerr"
)

const swapDomainSrc = `(define (domain swap)
  (:types block)
  (:predicates (on ?x ?y - block))
  (:action move
    :parameters (?x ?y ?z - block)
    :precondition (on ?x ?y)
    :effect (and (on ?x ?z) (not (on ?x ?y)))))
`

func TestEngineOneshotFindsPlan(t *testing.T) {
	d, err := pddl.NewParser(swapDomainSrc).ParseDomain()
	if err != nil {
		t.Fatalf("ParseDomain: %v", err)
	}
	p, err := pddl.NewParser(`(define (problem swap1)
  (:domain swap)
  (:objects a b c - block)
  (:init (on a b))
  (:goal (on a c)))
`).ParseProblem()
	if err != nil {
		t.Fatalf("ParseProblem: %v", err)
	}
	prob, err := pddl.Normalize(d, p)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	cfg := config.Default()
	e := New(prob, cfg, nil, nil)
	out := e.Run(context.Background(), time.Time{})
	if out.Kind != planerr.OutcomeSuccess {
		t.Fatalf("outcome = %v, err = %v", out.Kind, out.Err)
	}
	if len(out.Plan.Steps) != 1 {
		t.Fatalf("plan length = %d, want 1", len(out.Plan.Steps))
	}
}

func TestEngineFixedUnreachableGoalTimesOut(t *testing.T) {
	d, err := pddl.NewParser(swapDomainSrc).ParseDomain()
	if err != nil {
		t.Fatalf("ParseDomain: %v", err)
	}
	p, err := pddl.NewParser(`(define (problem swap2)
  (:domain swap)
  (:objects a b - block)
  (:init (on a b))
  (:goal (on b a)))
`).ParseProblem()
	if err != nil {
		t.Fatalf("ParseProblem: %v", err)
	}
	prob, err := pddl.Normalize(d, p)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	cfg := config.Default()
	cfg.EngineMode = config.EngineFixed
	cfg.TargetGroundness = 1.0
	cfg.MaxSteps = 4
	e := New(prob, cfg, nil, nil)
	out := e.Run(context.Background(), time.Time{})
	if out.Kind != planerr.OutcomeTimeout {
		t.Fatalf("outcome = %v, err = %v, want OutcomeTimeout", out.Kind, out.Err)
	}
}
