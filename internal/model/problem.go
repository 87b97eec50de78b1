package model

import "fmt"

// Problem owns every table a planning problem is built from: types,
// constants, predicates, the current action schemata, the initial state and
// the goal. The grounder borrows a Problem and produces refined schemata;
// the encoder borrows both the Problem and a support index. Nothing holds a
// back-pointer into Problem — callers pass it explicitly, matching the
// "cycle-free ownership" design note in spec.md §9.
type Problem struct {
	Name       string
	Types      []Type
	Constants  []Constant
	Predicates []Predicate
	Schemata   []*ActionSchema

	// Init lists the positive ground atoms true in the initial state;
	// closed-world assumption means everything else is false. Invariant: no
	// duplicates (checked by NewProblem). Init holds only positive atoms;
	// contradictory negated init entries are rejected by pddl.Normalize.
	Init []GroundAtom

	// Goal is a conjunction of (possibly negated) ground conditions.
	Goal []GroundCondition

	constantsOfType []([]ConstantID)
	constantIndex   []map[ConstantID]int
	predicateOffset []uint64
	predicateCount  []uint64
}

// NewProblem builds the derived per-type and per-predicate tables (constants
// grouped by declared-or-subtype, and disjoint id ranges per predicate). It
// rejects a cyclic supertype chain and a duplicate init atom; it does not
// check that schema parameter references are in range.
func NewProblem(name string, types []Type, constants []Constant, predicates []Predicate,
	schemata []*ActionSchema, init []GroundAtom, goal []GroundCondition) (*Problem, error) {

	p := &Problem{
		Name:       name,
		Types:      types,
		Constants:  constants,
		Predicates: predicates,
		Schemata:   schemata,
		Init:       init,
		Goal:       goal,
	}

	if err := p.validateTypes(); err != nil {
		return nil, err
	}

	p.buildConstantTables()
	p.buildPredicateOffsets()

	if err := p.validateInit(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Problem) validateTypes() error {
	for i, t := range p.Types {
		seen := map[TypeID]bool{}
		cur := TypeID(i)
		for {
			if seen[cur] {
				return fmt.Errorf("model: type %q (%d) has a cyclic supertype chain", t.Name, i)
			}
			seen[cur] = true
			if cur == RootType {
				break
			}
			cur = p.Types[cur].Supertype
		}
	}
	return nil
}

func (p *Problem) buildConstantTables() {
	p.constantsOfType = make([][]ConstantID, len(p.Types))
	p.constantIndex = make([]map[ConstantID]int, len(p.Types))
	for t := range p.Types {
		p.constantIndex[t] = map[ConstantID]int{}
	}
	for ci, c := range p.Constants {
		for t := range p.Types {
			if p.IsSubtype(c.Type, TypeID(t)) {
				p.constantIndex[t][ConstantID(ci)] = len(p.constantsOfType[t])
				p.constantsOfType[t] = append(p.constantsOfType[t], ConstantID(ci))
			}
		}
	}
}

func (p *Problem) buildPredicateOffsets() {
	p.predicateOffset = make([]uint64, len(p.Predicates))
	p.predicateCount = make([]uint64, len(p.Predicates))
	var offset uint64
	for i, pred := range p.Predicates {
		count := uint64(1)
		for _, pt := range pred.ParamTypes {
			count *= uint64(len(p.constantsOfType[pt]))
		}
		p.predicateOffset[i] = offset
		p.predicateCount[i] = count
		offset += count
	}
}

func (p *Problem) validateInit() error {
	seen := map[GroundAtomID]bool{}
	for _, ga := range p.Init {
		id := p.GroundAtomID(ga)
		if seen[id] {
			return fmt.Errorf("model: duplicate init atom (predicate %d)", ga.Predicate)
		}
		seen[id] = true
	}
	return nil
}

// IsInit reports whether id names a ground atom listed (positively) in Init.
func (p *Problem) IsInit(id GroundAtomID) bool {
	for _, ga := range p.Init {
		if p.GroundAtomID(ga) == id {
			return true
		}
	}
	return false
}

// PlanStep is one action of a produced plan: the schema's name plus the full
// constant vector, in the schema's declared parameter order.
type PlanStep struct {
	SchemaName string
	Constants  []ConstantID
}

// Plan is a totally ordered sequence of ground actions, one entry per action
// that fired, in step order. Its length is not tied to the horizon of the SAT
// query that produced it: a step may contribute several actions or none.
type Plan struct {
	Steps []PlanStep
}
