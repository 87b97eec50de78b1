package model

// GroundAtom is a predicate applied to a tuple of constants. Equality is
// structural (two GroundAtoms with the same Predicate and Constants are the
// same atom), which is why Problem hands out a canonical integer id for each
// one instead of comparing structs throughout the rest of the system.
type GroundAtom struct {
	Predicate PredicateID
	Constants []ConstantID
}

// GroundCondition is a (possibly negated) ground atom.
type GroundCondition struct {
	Atom     GroundAtom
	Positive bool
}

// GroundAtomID is the dense, disjoint-across-predicates 64-bit id described
// in spec.md §3/§4.4: for a predicate p with parameter types t_1..t_k and
// constants-of-type tables of size n_1..n_k, the ids of p's ground atoms
// occupy the half-open range [offset(p), offset(p)+n_1*...*n_k). Within that
// range an atom's id is the mixed-radix positional encoding of each
// argument's index in its parameter's constants-of-type table, least
// significant in the last argument (matching combin.Product's
// last-index-fastest order, so support-index construction and encoder
// iteration agree on the same enumeration without re-deriving it).
type GroundAtomID uint64

// GroundAtomID computes the canonical id of ga under this problem's constant
// tables. Panics if any constant is not an instance of the corresponding
// declared parameter type — a caller bug, not a runtime condition.
func (p *Problem) GroundAtomID(ga GroundAtom) GroundAtomID {
	pred := p.Predicates[ga.Predicate]
	id := uint64(0)
	for i, pt := range pred.ParamTypes {
		table := p.constantsOfType[pt]
		idx, ok := p.constantIndex[pt][ga.Constants[i]]
		if !ok {
			panic("model: constant is not an instance of the declared parameter type")
		}
		id = id*uint64(len(table)) + uint64(idx)
	}
	return GroundAtomID(p.predicateOffset[ga.Predicate]) + GroundAtomID(id)
}

// NumGroundAtoms is the total number of distinct ground atom ids across all
// predicates: Σ_p |constants-of-type|^arity(p), per spec.md §4.4.
func (p *Problem) NumGroundAtoms() uint64 {
	if len(p.predicateOffset) == 0 {
		return 0
	}
	last := len(p.Predicates) - 1
	return p.predicateOffset[last] + p.predicateCount[last]
}

// PredicateOffset returns the base id of the given predicate's range.
func (p *Problem) PredicateOffset(pred PredicateID) uint64 {
	return p.predicateOffset[pred]
}

// PredicateCount returns the number of ground atoms of the given predicate.
func (p *Problem) PredicateCount(pred PredicateID) uint64 {
	return p.predicateCount[pred]
}

// ConstantsOfType returns every constant whose declared type is t or a
// subtype of t, in a stable order fixed at Problem construction time.
func (p *Problem) ConstantsOfType(t TypeID) []ConstantID {
	return p.constantsOfType[t]
}

// IsSubtype reports whether t equals of, or is a transitive subtype of it.
func (p *Problem) IsSubtype(t, of TypeID) bool {
	for {
		if t == of {
			return true
		}
		if t == RootType {
			return false
		}
		t = p.Types[t].Supertype
	}
}
