package model

import "testing"

// blocksworldProblem builds the trivial blocksworld problem from spec.md §8
// scenario 1: two blocks, predicate on(block,block), init on(a,b), goal
// on(a,b).
func blocksworldProblem(t *testing.T) *Problem {
	t.Helper()
	types := []Type{
		{Name: "object", Supertype: RootType},
		{Name: "block", Supertype: RootType},
	}
	constants := []Constant{
		{Name: "a", Type: TypeID(1)},
		{Name: "b", Type: TypeID(1)},
	}
	predicates := []Predicate{
		{Name: "=", ParamTypes: []TypeID{RootType, RootType}},
		{Name: "on", ParamTypes: []TypeID{TypeID(1), TypeID(1)}},
	}
	init := []GroundAtom{{Predicate: 1, Constants: []ConstantID{0, 1}}}
	goal := []GroundCondition{{Atom: GroundAtom{Predicate: 1, Constants: []ConstantID{0, 1}}, Positive: true}}

	p, err := NewProblem("blocksworld", types, constants, predicates, nil, init, goal)
	if err != nil {
		t.Fatalf("NewProblem: %v", err)
	}
	return p
}

func TestGroundAtomIDArityZero(t *testing.T) {
	types := []Type{{Name: "object", Supertype: RootType}}
	predicates := []Predicate{
		{Name: "=", ParamTypes: []TypeID{RootType, RootType}},
		{Name: "handempty", ParamTypes: nil},
	}
	p, err := NewProblem("p", types, nil, predicates, nil, nil, nil)
	if err != nil {
		t.Fatalf("NewProblem: %v", err)
	}
	id := p.GroundAtomID(GroundAtom{Predicate: 1})
	if uint64(id) != p.PredicateOffset(1) {
		t.Fatalf("arity-0 predicate should produce exactly its offset as id, got %d want %d", id, p.PredicateOffset(1))
	}
	if p.PredicateCount(1) != 1 {
		t.Fatalf("arity-0 predicate should have exactly one ground atom, got %d", p.PredicateCount(1))
	}
}

func TestGroundAtomIDBijection(t *testing.T) {
	p := blocksworldProblem(t)
	seen := map[GroundAtomID]GroundAtom{}
	for _, x := range p.ConstantsOfType(RootType) {
		for _, y := range p.ConstantsOfType(RootType) {
			ga := GroundAtom{Predicate: EqualityPredicate, Constants: []ConstantID{x, y}}
			id := p.GroundAtomID(ga)
			if prior, ok := seen[id]; ok {
				t.Fatalf("id collision: %v and %v both map to %d", prior, ga, id)
			}
			seen[id] = ga
		}
	}
	for _, x := range p.ConstantsOfType(TypeID(1)) {
		for _, y := range p.ConstantsOfType(TypeID(1)) {
			ga := GroundAtom{Predicate: 1, Constants: []ConstantID{x, y}}
			id := p.GroundAtomID(ga)
			if prior, ok := seen[id]; ok {
				t.Fatalf("id collision across predicates: %v and %v both map to %d", prior, ga, id)
			}
			seen[id] = ga
		}
	}
	if uint64(len(seen)) != p.NumGroundAtoms() {
		t.Fatalf("NumGroundAtoms() = %d, want %d", p.NumGroundAtoms(), len(seen))
	}
}

func TestIsInit(t *testing.T) {
	p := blocksworldProblem(t)
	onAB := GroundAtom{Predicate: 1, Constants: []ConstantID{0, 1}}
	onBA := GroundAtom{Predicate: 1, Constants: []ConstantID{1, 0}}
	if !p.IsInit(p.GroundAtomID(onAB)) {
		t.Fatalf("on(a,b) should be in init")
	}
	if p.IsInit(p.GroundAtomID(onBA)) {
		t.Fatalf("on(b,a) should not be in init")
	}
}

func TestDuplicateInitRejected(t *testing.T) {
	types := []Type{{Name: "block", Supertype: RootType}}
	constants := []Constant{{Name: "a", Type: RootType}}
	predicates := []Predicate{
		{Name: "=", ParamTypes: []TypeID{RootType, RootType}},
		{Name: "p", ParamTypes: []TypeID{RootType}},
	}
	init := []GroundAtom{
		{Predicate: 1, Constants: []ConstantID{0}},
		{Predicate: 1, Constants: []ConstantID{0}},
	}
	if _, err := NewProblem("dup", types, constants, predicates, nil, init, nil); err == nil {
		t.Fatalf("expected duplicate init atom to be rejected")
	}
}

func TestSubtypeChain(t *testing.T) {
	types := []Type{
		{Name: "object", Supertype: RootType},
		{Name: "block", Supertype: 0},
		{Name: "small-block", Supertype: 1},
	}
	p, err := NewProblem("t", types, nil, []Predicate{{Name: "=", ParamTypes: []TypeID{RootType, RootType}}}, nil, nil, nil)
	if err != nil {
		t.Fatalf("NewProblem: %v", err)
	}
	if !p.IsSubtype(2, 0) {
		t.Fatalf("small-block should be a subtype of object")
	}
	if p.IsSubtype(0, 2) {
		t.Fatalf("object should not be a subtype of small-block")
	}
}
