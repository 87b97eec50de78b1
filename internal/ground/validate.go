package ground

import (
	"satplan/internal/combin"
	"satplan/internal/config"
	"satplan/internal/model"
)

// referencedFreeParams returns the indices of schema parameters that (a)
// are still free and (b) are referenced as an argument of atom.
func referencedFreeParams(schema *model.ActionSchema, atom model.Atom) []int {
	var out []int
	seen := map[int]bool{}
	for _, arg := range atom.Args {
		if arg.Kind != model.ArgParameterRef {
			continue
		}
		idx := arg.ParamIndex
		if schema.Parameters[idx].IsFree() && !seen[idx] {
			seen[idx] = true
			out = append(out, idx)
		}
	}
	return out
}

// groundInstantiations enumerates every model.GroundAtom atom can take once
// its still-free referenced parameters range over their types' constants;
// a fully ground atom yields exactly one instantiation.
func (g *Grounder) groundInstantiations(schema *model.ActionSchema, atom model.Atom) []model.GroundAtom {
	free := referencedFreeParams(schema, atom)
	if len(free) == 0 {
		ga, ok := g.resolveGround(schema, atom)
		if !ok {
			return nil
		}
		return []model.GroundAtom{ga}
	}
	sizes := make([]int, len(free))
	domains := make([][]model.ConstantID, len(free))
	for i, pi := range free {
		domains[i] = g.problem.ConstantsOfType(schema.Parameters[pi].Type)
		sizes[i] = len(domains[i])
	}
	var out []model.GroundAtom
	combin.Product(sizes, func(idx []int) bool {
		trial := schema.Clone()
		for i, pi := range free {
			trial.Parameters[pi] = model.BoundParam(domains[i][idx[i]], schema.Parameters[pi].Type)
		}
		ga, ok := g.resolveGround(trial, atom)
		if ok {
			out = append(out, ga)
		}
		return true
	})
	return out
}

// resolveGround resolves atom's arguments against schema's (possibly
// partially bound) parameters into a GroundAtom; ok is false only if some
// referenced parameter is still free.
func (g *Grounder) resolveGround(schema *model.ActionSchema, atom model.Atom) (model.GroundAtom, bool) {
	consts := make([]model.ConstantID, len(atom.Args))
	for i, arg := range atom.Args {
		switch arg.Kind {
		case model.ArgConstant:
			consts[i] = arg.Constant
		case model.ArgParameterRef:
			p := schema.Parameters[arg.ParamIndex]
			if p.IsFree() {
				return model.GroundAtom{}, false
			}
			consts[i] = p.Value
		}
	}
	return model.GroundAtom{Predicate: atom.Predicate, Constants: consts}, true
}

// isRigid reports whether ga's truth equals positive in every reachable
// state: init_contains(ga) == positive, AND (trivially rigid for its
// predicate, OR no current schema has an effect that could produce
// ¬positive for ga).
func (g *Grounder) isRigid(ga model.GroundAtom, positive bool) bool {
	id := g.problem.GroundAtomID(ga)
	successful, unsuccessful := g.successfulNegRigid, g.unsuccessfulNegRigid
	if positive {
		successful, unsuccessful = g.successfulPosRigid, g.unsuccessfulPosRigid
	}
	g.cacheMu.Lock()
	if g.cfg.CachePolicy != config.CacheNone {
		if successful[id] {
			g.cacheMu.Unlock()
			return true
		}
		if g.cfg.CachePolicy == config.CacheUnsuccessful && unsuccessful[id] {
			g.cacheMu.Unlock()
			return false
		}
	}
	g.cacheMu.Unlock()

	result := g.computeRigid(ga, positive)

	g.cacheMu.Lock()
	if g.cfg.CachePolicy != config.CacheNone {
		if result {
			successful[id] = true
		} else if g.cfg.CachePolicy == config.CacheUnsuccessful {
			unsuccessful[id] = true
		}
	}
	g.cacheMu.Unlock()
	return result
}

func (g *Grounder) computeRigid(ga model.GroundAtom, positive bool) bool {
	if g.problem.IsInit(g.problem.GroundAtomID(ga)) != positive {
		return false
	}
	if g.triviallyRigid[ga.Predicate] {
		return true
	}
	g.cacheMu.Lock()
	defer g.cacheMu.Unlock()
	for _, schemas := range g.schemataByOrigin {
		for _, s := range schemas {
			for _, eff := range s.Effects {
				if eff.Atom.Predicate != ga.Predicate || eff.Positive == positive {
					continue
				}
				if g.effectCanProduce(s, eff.Atom, ga) {
					return false
				}
			}
		}
	}
	return true
}

// effectCanProduce reports whether eff, considering subtype compatibility
// and any already-bound parameters, is instantiatable to exactly ga.
func (g *Grounder) effectCanProduce(schema *model.ActionSchema, eff model.Atom, ga model.GroundAtom) bool {
	for i, arg := range eff.Args {
		switch arg.Kind {
		case model.ArgConstant:
			if arg.Constant != ga.Constants[i] {
				return false
			}
		case model.ArgParameterRef:
			p := schema.Parameters[arg.ParamIndex]
			if !p.IsFree() {
				if p.Value != ga.Constants[i] {
					return false
				}
				continue
			}
			if !g.problem.IsSubtype(g.constantType(ga.Constants[i]), p.Type) {
				return false
			}
		}
	}
	return true
}

func (g *Grounder) constantType(c model.ConstantID) model.TypeID {
	return g.problem.Constants[c].Type
}

// isUseless reports whether ga appears in no current schema's precondition
// and is not a goal atom.
func (g *Grounder) isUseless(ga model.GroundAtom) bool {
	id := g.problem.GroundAtomID(ga)
	g.cacheMu.Lock()
	if g.cfg.CachePolicy != config.CacheNone {
		if g.successfulUseless[id] {
			g.cacheMu.Unlock()
			return true
		}
		if g.cfg.CachePolicy == config.CacheUnsuccessful && g.unsuccessfulUseless[id] {
			g.cacheMu.Unlock()
			return false
		}
	}
	g.cacheMu.Unlock()

	result := g.computeUseless(ga)

	g.cacheMu.Lock()
	if g.cfg.CachePolicy != config.CacheNone {
		if result {
			g.successfulUseless[id] = true
		} else if g.cfg.CachePolicy == config.CacheUnsuccessful {
			g.unsuccessfulUseless[id] = true
		}
	}
	g.cacheMu.Unlock()
	return result
}

// computeUseless reads schemataByOrigin under cacheMu since a parallel
// Refine round may still be replacing another origin's slot.
func (g *Grounder) computeUseless(ga model.GroundAtom) bool {
	if g.triviallyUseless[ga.Predicate] {
		return !g.posGoalIDs[g.problem.GroundAtomID(ga)] && !g.negGoalIDs[g.problem.GroundAtomID(ga)]
	}
	id := g.problem.GroundAtomID(ga)
	if g.posGoalIDs[id] || g.negGoalIDs[id] {
		return false
	}
	g.cacheMu.Lock()
	defer g.cacheMu.Unlock()
	for _, schemas := range g.schemataByOrigin {
		for _, s := range schemas {
			for _, pre := range s.Preconditions {
				if pre.Atom.Predicate != ga.Predicate {
					continue
				}
				if g.effectCanProduce(s, pre.Atom, ga) {
					return false
				}
			}
		}
	}
	return true
}

// validate reports whether schema is still reachable: neither are all of
// some precondition's instantiations rigid-refuted, nor are all of its
// effects' instantiations no-ops-or-useless.
func (g *Grounder) validate(schema *model.ActionSchema) bool {
	for _, pre := range schema.Preconditions {
		ground := referencedFreeParams(schema, pre.Atom)
		if len(ground) > 0 && g.cfg.ValidationPolicy == config.ValidationTrivial {
			continue
		}
		instances := g.groundInstantiations(schema, pre.Atom)
		if len(instances) == 0 {
			continue
		}
		allRefuted := true
		for _, ga := range instances {
			if !g.isRigid(ga, !pre.Positive) {
				allRefuted = false
				break
			}
		}
		if allRefuted {
			return false
		}
	}

	if len(schema.Effects) == 0 {
		return false
	}
	allNoopOrUseless := true
	for _, eff := range schema.Effects {
		instances := g.groundInstantiations(schema, eff.Atom)
		if len(instances) == 0 {
			allNoopOrUseless = false
			break
		}
		for _, ga := range instances {
			if g.isRigid(ga, eff.Positive) || g.isUseless(ga) {
				continue
			}
			allNoopOrUseless = false
			break
		}
		if !allNoopOrUseless {
			break
		}
	}
	return !allNoopOrUseless
}

// simplify drops preconditions/effects whose single ground instance is
// already settled (trivially satisfied, or a no-op / unread), reporting
// whether it changed schema.
func (g *Grounder) simplify(schema *model.ActionSchema) bool {
	changed := false

	keptPre := schema.Preconditions[:0:0]
	for _, pre := range schema.Preconditions {
		if len(referencedFreeParams(schema, pre.Atom)) == 0 {
			ga, ok := g.resolveGround(schema, pre.Atom)
			if ok && g.isRigid(ga, pre.Positive) {
				changed = true
				continue
			}
		}
		keptPre = append(keptPre, pre)
	}
	schema.Preconditions = keptPre

	keptEff := schema.Effects[:0:0]
	for _, eff := range schema.Effects {
		if len(referencedFreeParams(schema, eff.Atom)) == 0 {
			ga, ok := g.resolveGround(schema, eff.Atom)
			if ok && (g.isRigid(ga, eff.Positive) || g.isUseless(ga)) {
				changed = true
				continue
			}
		}
		keptEff = append(keptEff, eff)
	}
	schema.Effects = keptEff

	return changed
}
