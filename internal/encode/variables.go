// Package encode implements the foreach encoder (spec.md §4.5): per-step
// propositional variable allocation and the init/universal/transition/goal
// clause groups, plus plan extraction from a satisfying assignment.
package encode

import (
	"sort"

	"satplan/internal/config"
	"satplan/internal/model"
	"satplan/internal/support"
)

// Reserved low SAT variable indices. 1 and 2 are the pinned SAT-true /
// SAT-false constants spec.md §6.7 fixes by unit clause; 0 is never used as
// a variable index (the "placeholder" spec.md §4.5 reserves alongside
// them), so the first real per-step variable is 3.
const (
	VarSATTrue  int32 = 1
	VarSATFalse int32 = 2
	firstStepVarBase int32 = 3
)

// helperKey identifies one frame-axiom DNF-explosion helper variable slot:
// the entryIdx-th effect-support entry used when explaining a flip of atom
// into polarity flipTo.
type helperKey struct {
	atom    model.GroundAtomID
	flipTo  bool
	entry   int
}

// Layout is the fixed, horizon-independent per-step variable assignment.
// Step s's variables occupy [firstStepVarBase+s*Width, firstStepVarBase+(s+1)*Width).
type Layout struct {
	Width int32

	schemaFireOffset []int32 // by schema index
	paramTakeOffset  []map[int]int32 // [schemaIdx][paramIdx] -> offset of constant 0 of that parameter's type
	atomHoldsOffset  map[model.GroundAtomID]int32
	helperOffset     map[helperKey]int32

	// frameSupport caches, per (atom, flipTo), the effect-support list used
	// to build that polarity's frame axiom, and whether it was large enough
	// to have been collapsed into helper variables.
	frameSupport map[helperKeyBase]frameInfo
}

type helperKeyBase struct {
	atom   model.GroundAtomID
	flipTo bool
}

type frameInfo struct {
	support   []support.Occurrence
	usesHelper bool
}

// BuildLayout computes the fixed per-step variable layout for problem given
// the support index and configuration (in particular DNFThreshold).
func BuildLayout(problem *model.Problem, idx *support.Index, cfg *config.Config) *Layout {
	l := &Layout{
		atomHoldsOffset: map[model.GroundAtomID]int32{},
		helperOffset:    map[helperKey]int32{},
		frameSupport:    map[helperKeyBase]frameInfo{},
	}

	var cursor int32
	l.schemaFireOffset = make([]int32, len(problem.Schemata))
	for i := range problem.Schemata {
		l.schemaFireOffset[i] = cursor
		cursor++
	}

	l.paramTakeOffset = make([]map[int]int32, len(problem.Schemata))
	for si, s := range problem.Schemata {
		l.paramTakeOffset[si] = map[int]int32{}
		for pi, p := range s.Parameters {
			if !p.IsFree() {
				continue
			}
			l.paramTakeOffset[si][pi] = cursor
			cursor += int32(len(problem.ConstantsOfType(p.Type)))
		}
	}

	nonRigid := nonRigidAtoms(problem, idx)
	for _, id := range nonRigid {
		l.atomHoldsOffset[id] = cursor
		cursor++
	}

	for _, id := range nonRigid {
		for _, flipTo := range []bool{true, false} {
			var sup []support.Occurrence
			if flipTo {
				sup = idx.PosEff(id)
			} else {
				sup = idx.NegEff(id)
			}
			info := frameInfo{support: sup, usesHelper: len(sup) > cfg.DNFThreshold}
			l.frameSupport[helperKeyBase{atom: id, flipTo: flipTo}] = info
			if info.usesHelper {
				for i := range sup {
					l.helperOffset[helperKey{atom: id, flipTo: flipTo, entry: i}] = cursor
					cursor++
				}
			}
		}
	}

	l.Width = cursor
	return l
}

// nonRigidAtoms returns, in ascending id order, every ground atom the
// support index reaches that is not rigid in its own initial polarity.
func nonRigidAtoms(problem *model.Problem, idx *support.Index) []model.GroundAtomID {
	all := idx.AllGroundAtomIDs()
	var out []model.GroundAtomID
	for _, id := range all {
		initPolarity := idx.IsInit(id)
		if idx.IsRigid(id, initPolarity) {
			continue
		}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// stepBase returns the first global variable index of step s.
func stepBase(s int, width int32) int32 {
	return firstStepVarBase + int32(s)*width
}

// ActionVar returns the global variable for "schema si fires at step s".
func (l *Layout) ActionVar(si int, s int) int32 {
	return stepBase(s, l.Width) + l.schemaFireOffset[si]
}

// ParamVar returns the global variable for "schema si's parameter pi takes
// its constantIdx-th value (in problem.ConstantsOfType order) at step s".
func (l *Layout) ParamVar(si, pi, constantIdx int, s int) int32 {
	return stepBase(s, l.Width) + l.paramTakeOffset[si][pi] + int32(constantIdx)
}

// HelperVar returns the global variable for the DNF-explosion helper at
// (atom, flipTo, entry) at step s.
func (l *Layout) HelperVar(atom model.GroundAtomID, flipTo bool, entry int, s int) int32 {
	return stepBase(s, l.Width) + l.helperOffset[helperKey{atom: atom, flipTo: flipTo, entry: entry}]
}
