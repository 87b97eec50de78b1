package encode

import (
	"satplan/internal/model"
	"satplan/internal/support"
)

// ClauseWriter receives finished clauses as signed 1-based SAT literals.
// The satdriver package adapts a satsolver.Solver to this interface so the
// encoder never depends on the solver package directly.
type ClauseWriter interface {
	Clause(lits ...int32)
}

// Encoder is the foreach variant (spec.md §4.5): it allocates the fixed
// per-step variable Layout once and emits the init/universal/transition/
// goal clause groups for whatever step the driver asks for.
type Encoder struct {
	problem *model.Problem
	idx     *support.Index
	layout  *Layout

	requireParamImpliesAction bool
}

// New builds an Encoder over problem and its support index.
func New(problem *model.Problem, idx *support.Index, requireParamImpliesAction bool, layout *Layout) *Encoder {
	return &Encoder{problem: problem, idx: idx, layout: layout, requireParamImpliesAction: requireParamImpliesAction}
}

// Width reports the fixed per-step variable count.
func (e *Encoder) Width() int32 { return e.layout.Width }

func (e *Encoder) emit(w ClauseWriter, s int, lits ...Literal) {
	out := make([]int32, len(lits))
	for i, l := range lits {
		out[i] = l.ToSAT(s, e.layout.Width)
	}
	w.Clause(out...)
}

func (e *Encoder) atomLiteral(id model.GroundAtomID, positive bool) Literal {
	return e.layout.atomLiteral(id, positive, e.idx.IsInit(id))
}

// EmitInit emits the unit clauses asserting every tracked ground atom's
// initial polarity, at step 0.
func (e *Encoder) EmitInit(w ClauseWriter) {
	for id := range e.layout.atomHoldsOffset {
		e.emit(w, 0, e.atomLiteral(id, e.idx.IsInit(id)))
	}
}

// assignmentLiterals converts a support.Occurrence's parameter assignment
// into the param(a,p,c) literals a clause needs, negated (for the "¬param"
// disjunct forms) or not depending on caller.
func (e *Encoder) assignmentLiterals(si int, assignment []support.ParamAssignment, positive bool) []Literal {
	out := make([]Literal, len(assignment))
	for i, a := range assignment {
		constIdx := constantIndexOf(e.problem, e.problem.Constants[a.Constant].Type, a.Constant)
		out[i] = e.layout.ParamLiteral(si, a.ParamIndex, constIdx, positive)
	}
	return out
}

func constantIndexOf(p *model.Problem, t model.TypeID, c model.ConstantID) int {
	for i, cid := range p.ConstantsOfType(t) {
		if cid == c {
			return i
		}
	}
	return -1
}

// EmitUniversal emits the per-step clause group for step s: per-schema
// parameter-domain and at-most-one constraints, and precondition-support
// implications.
func (e *Encoder) EmitUniversal(w ClauseWriter, s int) {
	for si, schema := range e.problem.Schemata {
		for pi, p := range schema.Parameters {
			if !p.IsFree() {
				continue
			}
			n := len(e.problem.ConstantsOfType(p.Type))
			// (a) action(a) -> OR_c param(a,p,c)
			atLeastOne := make([]Literal, 0, n+1)
			atLeastOne = append(atLeastOne, e.layout.ActionLiteral(si, false))
			for c := 0; c < n; c++ {
				atLeastOne = append(atLeastOne, e.layout.ParamLiteral(si, pi, c, true))
			}
			e.emit(w, s, atLeastOne...)

			// (b) at-most-one
			for c1 := 0; c1 < n; c1++ {
				for c2 := c1 + 1; c2 < n; c2++ {
					e.emit(w, s,
						e.layout.ParamLiteral(si, pi, c1, false),
						e.layout.ParamLiteral(si, pi, c2, false))
				}
			}

			// (c) optional param(a,p,c) -> action(a)
			if e.requireParamImpliesAction {
				for c := 0; c < n; c++ {
					e.emit(w, s,
						e.layout.ParamLiteral(si, pi, c, false),
						e.layout.ActionLiteral(si, true))
				}
			}
		}
	}

	for id := range e.layout.atomHoldsOffset {
		for _, positive := range []bool{true, false} {
			var bucket []support.Occurrence
			if positive {
				bucket = e.idx.PosPre(id)
			} else {
				bucket = e.idx.NegPre(id)
			}
			for _, occ := range bucket {
				lits := []Literal{e.layout.ActionLiteral(occ.SchemaIndex, false)}
				if len(occ.Assignment) > 0 || e.requireParamImpliesAction {
					lits = append(lits, e.assignmentLiterals(occ.SchemaIndex, occ.Assignment, false)...)
				}
				lits = append(lits, e.atomLiteral(id, positive))
				e.emit(w, s, lits...)
			}
		}
	}
}

// EmitTransition emits the clause group for the boundary between step s and
// s+1: the same parameter-implies-effect construction (using the next-step
// atom literal), interference clauses, and frame axioms.
func (e *Encoder) EmitTransition(w ClauseWriter, s int) {
	for id := range e.layout.atomHoldsOffset {
		for _, positive := range []bool{true, false} {
			var bucket []support.Occurrence
			if positive {
				bucket = e.idx.PosEff(id)
			} else {
				bucket = e.idx.NegEff(id)
			}
			for _, occ := range bucket {
				lits := []Literal{e.layout.ActionLiteral(occ.SchemaIndex, false)}
				if len(occ.Assignment) > 0 || e.requireParamImpliesAction {
					lits = append(lits, e.assignmentLiterals(occ.SchemaIndex, occ.Assignment, false)...)
				}
				lits = append(lits, nextStepLiteral(e.atomLiteral(id, positive)))
				e.emit(w, s, lits...)
			}
		}

		e.emitInterference(w, s, id)
		e.emitFrameAxioms(w, s, id)
	}
}

func (e *Encoder) emitInterference(w ClauseWriter, s int, id model.GroundAtomID) {
	for _, positive := range []bool{true, false} {
		var preBucket, effBucket []support.Occurrence
		if positive {
			preBucket = e.idx.PosPre(id)
			effBucket = e.idx.NegEff(id)
		} else {
			preBucket = e.idx.NegPre(id)
			effBucket = e.idx.PosEff(id)
		}
		for _, p := range preBucket {
			for _, ef := range effBucket {
				if p.SchemaIndex == ef.SchemaIndex {
					continue
				}
				lits := []Literal{e.layout.ActionLiteral(p.SchemaIndex, false)}
				lits = append(lits, e.assignmentLiterals(p.SchemaIndex, p.Assignment, false)...)
				lits = append(lits, e.layout.ActionLiteral(ef.SchemaIndex, false))
				lits = append(lits, e.assignmentLiterals(ef.SchemaIndex, ef.Assignment, false)...)
				e.emit(w, s, lits...)
			}
		}
	}
}

// emitFrameAxioms emits, for each polarity flip direction, the DNF-to-CNF
// distributed (or helper-variable collapsed) explanatory frame axiom for
// atom id across the step s -> s+1 boundary.
func (e *Encoder) emitFrameAxioms(w ClauseWriter, s int, id model.GroundAtomID) {
	for _, flipTo := range []bool{true, false} {
		info := e.layout.frameSupport[helperKeyBase{atom: id, flipTo: flipTo}]

		// No flip into flipTo: the atom already had polarity flipTo at s, or
		// it still has polarity !flipTo at s+1.
		d1 := e.atomLiteral(id, flipTo)
		d2 := nextStepLiteral(e.atomLiteral(id, !flipTo))

		// The action and its parameter assignment fire at step s (the step
		// that causes the s -> s+1 transition), so these literals, unlike
		// d2, stay this-step.
		cliques := [][]Literal{{d1}, {d2}}
		if info.usesHelper {
			for entry, occ := range info.support {
				h := e.layout.HelperLiteral(id, flipTo, entry, true)
				e.emit(w, s, invert(h), e.layout.ActionLiteral(occ.SchemaIndex, true))
				for _, a := range occ.Assignment {
					constIdx := constantIndexOf(e.problem, e.problem.Constants[a.Constant].Type, a.Constant)
					e.emit(w, s, invert(h), e.layout.ParamLiteral(occ.SchemaIndex, a.ParamIndex, constIdx, true))
				}
				cliques = append(cliques, []Literal{h})
			}
		} else {
			for _, occ := range info.support {
				clique := []Literal{e.layout.ActionLiteral(occ.SchemaIndex, true)}
				for _, a := range occ.Assignment {
					constIdx := constantIndexOf(e.problem, e.problem.Constants[a.Constant].Type, a.Constant)
					clique = append(clique, e.layout.ParamLiteral(occ.SchemaIndex, a.ParamIndex, constIdx, true))
				}
				cliques = append(cliques, clique)
			}
		}

		distributeCNF(cliques, func(clause []Literal) {
			e.emit(w, s, clause...)
		})
	}
}

func invert(l Literal) Literal {
	l.positive = !l.positive
	return l
}

// nextStepLiteral marks a this-step literal as referring to step s+1
// instead; pinned literals are unaffected since rigid truth doesn't depend
// on step.
func nextStepLiteral(l Literal) Literal {
	if l.pinned {
		return l
	}
	l.nextStep = true
	return l
}

// distributeCNF converts an OR-of-ANDs (cliques, each an AND of literals,
// the whole a disjunction across cliques) into CNF by cartesian
// distribution: one output clause per combination choosing one literal
// from each clique.
func distributeCNF(cliques [][]Literal, emit func(clause []Literal)) {
	combos := [][]Literal{nil}
	for _, clique := range cliques {
		var next [][]Literal
		for _, existing := range combos {
			for _, lit := range clique {
				merged := make([]Literal, 0, len(existing)+1)
				merged = append(merged, existing...)
				merged = append(merged, lit)
				next = append(next, merged)
			}
		}
		combos = next
	}
	for _, c := range combos {
		emit(c)
	}
}

// GoalAssumptions returns the goal literals to assume at step s.
func (e *Encoder) GoalAssumptions(s int) []int32 {
	out := make([]int32, 0, len(e.problem.Goal))
	for _, gc := range e.problem.Goal {
		id := e.problem.GroundAtomID(gc.Atom)
		out = append(out, e.atomLiteral(id, gc.Positive).ToSAT(s, e.layout.Width))
	}
	return out
}
