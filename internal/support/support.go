// Package support builds the support index the encoder queries: for every
// ground atom reachable from some schema's precondition or effect, which
// (schema, partial substitution) pairs can produce or consume it, and in
// what polarity.
package support

import (
	"sort"

	"satplan/internal/combin"
	"satplan/internal/model"
)

// ParamAssignment is one (parameter_index_in_schema, constant) pair: a
// parameter that became constant by virtue of a particular ground atom
// being realized through a particular schema occurrence.
type ParamAssignment struct {
	ParamIndex int
	Constant   model.ConstantID
}

// Occurrence is one (schema index, parameter assignment) support entry.
type Occurrence struct {
	SchemaIndex int
	Assignment  []ParamAssignment
}

// Index is the built support index, built once per encoder call over the
// grounder's current (possibly partially ground) schemata.
type Index struct {
	problem *model.Problem

	posPre map[model.GroundAtomID][]Occurrence
	negPre map[model.GroundAtomID][]Occurrence
	posEff map[model.GroundAtomID][]Occurrence
	negEff map[model.GroundAtomID][]Occurrence

	initSet map[model.GroundAtomID]bool
}

// Build constructs an Index over problem's schemata.
func Build(problem *model.Problem) *Index {
	idx := &Index{
		problem: problem,
		posPre:  map[model.GroundAtomID][]Occurrence{},
		negPre:  map[model.GroundAtomID][]Occurrence{},
		posEff:  map[model.GroundAtomID][]Occurrence{},
		negEff:  map[model.GroundAtomID][]Occurrence{},
		initSet: map[model.GroundAtomID]bool{},
	}
	for _, ga := range problem.Init {
		idx.initSet[problem.GroundAtomID(ga)] = true
	}

	for si, s := range problem.Schemata {
		for _, c := range s.Preconditions {
			idx.index(si, s, c, c.Positive, true)
		}
		for _, pic := range s.PreInstantiated {
			idx.indexGround(si, pic.Atom, pic.Positive, true)
		}
		for _, c := range s.Effects {
			idx.index(si, s, c, c.Positive, false)
		}
		for _, eic := range s.EffInstantiated {
			idx.indexGround(si, eic.Atom, eic.Positive, false)
		}
	}
	return idx
}

func (idx *Index) index(si int, s *model.ActionSchema, c model.Condition, positive bool, isPre bool) {
	free := freeParamsOf(s, c.Atom)
	if len(free) == 0 {
		ga, ok := resolveGround(s, c.Atom)
		if !ok {
			return
		}
		idx.add(idx.problem.GroundAtomID(ga), Occurrence{SchemaIndex: si}, positive, isPre)
		return
	}

	sizes := make([]int, len(free))
	domains := make([][]model.ConstantID, len(free))
	for i, pi := range free {
		domains[i] = idx.problem.ConstantsOfType(s.Parameters[pi].Type)
		sizes[i] = len(domains[i])
	}
	combin.Product(sizes, func(combo []int) bool {
		assignment := make([]ParamAssignment, len(free))
		trial := s.Clone()
		for i, pi := range free {
			cid := domains[i][combo[i]]
			trial.Parameters[pi] = model.BoundParam(cid, s.Parameters[pi].Type)
			assignment[i] = ParamAssignment{ParamIndex: pi, Constant: cid}
		}
		ga, ok := resolveGround(trial, c.Atom)
		if ok {
			idx.add(idx.problem.GroundAtomID(ga), Occurrence{SchemaIndex: si, Assignment: assignment}, positive, isPre)
		}
		return true
	})
}

func (idx *Index) indexGround(si int, ga model.GroundAtom, positive bool, isPre bool) {
	idx.add(idx.problem.GroundAtomID(ga), Occurrence{SchemaIndex: si}, positive, isPre)
}

func (idx *Index) add(id model.GroundAtomID, occ Occurrence, positive, isPre bool) {
	switch {
	case isPre && positive:
		idx.posPre[id] = append(idx.posPre[id], occ)
	case isPre && !positive:
		idx.negPre[id] = append(idx.negPre[id], occ)
	case !isPre && positive:
		idx.posEff[id] = append(idx.posEff[id], occ)
	default:
		idx.negEff[id] = append(idx.negEff[id], occ)
	}
}

// PosPre, NegPre, PosEff, NegEff return the bucket for ground atom id.
func (idx *Index) PosPre(id model.GroundAtomID) []Occurrence { return idx.posPre[id] }
func (idx *Index) NegPre(id model.GroundAtomID) []Occurrence { return idx.negPre[id] }
func (idx *Index) PosEff(id model.GroundAtomID) []Occurrence { return idx.posEff[id] }
func (idx *Index) NegEff(id model.GroundAtomID) []Occurrence { return idx.negEff[id] }

// IsInit reports whether ground atom id is a positive initial atom.
func (idx *Index) IsInit(id model.GroundAtomID) bool { return idx.initSet[id] }

// IsRigid reports whether the atom with id is rigid in the given polarity:
// no effect supports the opposite polarity, and its initial truth matches.
func (idx *Index) IsRigid(id model.GroundAtomID, positive bool) bool {
	if positive {
		return len(idx.negEff[id]) == 0 && idx.initSet[id]
	}
	return len(idx.posEff[id]) == 0 && !idx.initSet[id]
}

// AllGroundAtomIDs returns every ground atom id that appears in any bucket
// or in the initial state, sorted ascending, for deterministic iteration by callers (the encoder).
func (idx *Index) AllGroundAtomIDs() []model.GroundAtomID {
	seen := map[model.GroundAtomID]bool{}
	for _, m := range []map[model.GroundAtomID][]Occurrence{idx.posPre, idx.negPre, idx.posEff, idx.negEff} {
		for id := range m {
			seen[id] = true
		}
	}
	for id := range idx.initSet {
		seen[id] = true
	}
	out := make([]model.GroundAtomID, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func freeParamsOf(s *model.ActionSchema, atom model.Atom) []int {
	var out []int
	seen := map[int]bool{}
	for _, arg := range atom.Args {
		if arg.Kind != model.ArgParameterRef {
			continue
		}
		if s.Parameters[arg.ParamIndex].IsFree() && !seen[arg.ParamIndex] {
			seen[arg.ParamIndex] = true
			out = append(out, arg.ParamIndex)
		}
	}
	return out
}

func resolveGround(s *model.ActionSchema, atom model.Atom) (model.GroundAtom, bool) {
	consts := make([]model.ConstantID, len(atom.Args))
	for i, arg := range atom.Args {
		switch arg.Kind {
		case model.ArgConstant:
			consts[i] = arg.Constant
		case model.ArgParameterRef:
			p := s.Parameters[arg.ParamIndex]
			if p.IsFree() {
				return model.GroundAtom{}, false
			}
			consts[i] = p.Value
		}
	}
	return model.GroundAtom{Predicate: atom.Predicate, Constants: consts}, true
}
