package encode

import "satplan/internal/model"

// Literal is an abstract literal per spec.md §4.5: a SAT variable, a
// polarity, and whether it refers to the current step or the next one. Var
// is either a pinned constant (VarSATTrue/VarSATFalse) or a within-step
// offset resolved against a Layout and a concrete step.
type Literal struct {
	pinned   bool
	pinnedID int32
	offset   int32
	positive bool
	nextStep bool
}

// ToSAT translates l into a signed 1-based SAT literal at step s; s+1 is
// used instead when l refers to the next step.
func (l Literal) ToSAT(s int, width int32) int32 {
	if l.pinned {
		if l.positive {
			return l.pinnedID
		}
		return -l.pinnedID
	}
	if l.nextStep {
		s = s + 1
	}
	v := stepBase(s, width) + l.offset
	if l.positive {
		return v
	}
	return -v
}

func pinnedLiteral(id int32, positive bool) Literal {
	return Literal{pinned: true, pinnedID: id, positive: positive}
}

func offsetLiteral(offset int32, positive bool) Literal {
	return Literal{offset: offset, positive: positive}
}

// atomLiteral builds the literal for ground atom id holding with the given
// polarity: pinned to the SAT-true/SAT-false constant if the atom is rigid
// (rigidTruth then gives its fixed value), otherwise its allocated
// per-step boolean.
func (l *Layout) atomLiteral(id model.GroundAtomID, positive bool, rigidTruth bool) Literal {
	if offset, ok := l.atomHoldsOffset[id]; ok {
		return offsetLiteral(offset, positive)
	}
	if rigidTruth {
		return pinnedLiteral(VarSATTrue, positive)
	}
	return pinnedLiteral(VarSATFalse, positive)
}

// ActionLiteral builds the literal for "schema si fires".
func (l *Layout) ActionLiteral(si int, positive bool) Literal {
	return offsetLiteral(l.schemaFireOffset[si], positive)
}

// ParamLiteral builds the literal for "schema si's parameter pi takes its
// constantIdx-th value".
func (l *Layout) ParamLiteral(si, pi, constantIdx int, positive bool) Literal {
	return offsetLiteral(l.paramTakeOffset[si][pi]+int32(constantIdx), positive)
}

// HelperLiteral builds the literal for a DNF-explosion helper variable.
func (l *Layout) HelperLiteral(atom model.GroundAtomID, flipTo bool, entry int, positive bool) Literal {
	return offsetLiteral(l.helperOffset[helperKey{atom: atom, flipTo: flipTo, entry: entry}], positive)
}
