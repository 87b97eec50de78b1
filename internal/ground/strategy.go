package ground

import (
	"satplan/internal/config"
	"satplan/internal/model"
)

// selectParams picks which free parameter(s) of schema to instantiate next,
// per the configured strategy (spec.md §4.3). An empty result means schema
// is already a ground leaf for this round.
func (g *Grounder) selectParams(schema *model.ActionSchema) []int {
	if len(schema.FreeParamIndices()) == 0 {
		return nil
	}
	switch g.cfg.Strategy {
	case config.StrategyMostFrequent:
		return g.selectMostFrequent(schema)
	case config.StrategyFirstEffect:
		return g.selectFirstEffect(schema)
	case config.StrategyMinNew:
		return g.selectByPrecondition(schema, true, false)
	case config.StrategyMaxRigid:
		return g.selectByPrecondition(schema, false, false)
	case config.StrategyApproxMinNew:
		return g.selectByPrecondition(schema, true, true)
	case config.StrategyApproxMaxRigid:
		return g.selectByPrecondition(schema, false, true)
	default:
		return g.selectMostFrequent(schema)
	}
}

func (g *Grounder) selectMostFrequent(schema *model.ActionSchema) []int {
	counts := map[int]int{}
	tally := func(atoms []model.Condition) {
		for _, c := range atoms {
			for _, idx := range referencedFreeParams(schema, c.Atom) {
				counts[idx]++
			}
		}
	}
	tally(schema.Preconditions)
	tally(schema.Effects)

	best, bestIdx := -1, -1
	for _, idx := range schema.FreeParamIndices() {
		if counts[idx] > best {
			best, bestIdx = counts[idx], idx
		}
	}
	if bestIdx < 0 {
		return nil
	}
	return []int{bestIdx}
}

func (g *Grounder) selectFirstEffect(schema *model.ActionSchema) []int {
	for _, eff := range schema.Effects {
		if free := referencedFreeParams(schema, eff.Atom); len(free) > 0 {
			return free
		}
	}
	return g.selectMostFrequent(schema)
}

// selectByPrecondition picks the precondition atom (with at least one free
// referenced parameter) minimizing new-ground-atom count (MinNew) or
// maximizing rigid-refuted count (MaxRigid), and returns its referenced
// free parameters. When approx is true it uses the cheaper proxy of the
// referenced parameters' type-size product instead of enumerating ground
// atoms.
func (g *Grounder) selectByPrecondition(schema *model.ActionSchema, minNew, approx bool) []int {
	var bestFree []int
	bestScore := -1
	found := false
	for _, pre := range schema.Preconditions {
		free := referencedFreeParams(schema, pre.Atom)
		if len(free) == 0 {
			continue
		}
		var score int
		if approx {
			score = 1
			for _, idx := range free {
				score *= len(g.problem.ConstantsOfType(schema.Parameters[idx].Type))
			}
			if minNew {
				score = -score
			}
		} else {
			instances := g.groundInstantiations(schema, pre.Atom)
			if minNew {
				n := 0
				for _, ga := range instances {
					if !g.isRigid(ga, !pre.Positive) {
						n++
					}
				}
				score = -n
			} else {
				n := 0
				for _, ga := range instances {
					if g.isRigid(ga, !pre.Positive) {
						n++
					}
				}
				score = n
			}
		}
		if !found || score > bestScore {
			found = true
			bestScore = score
			bestFree = free
		}
	}
	if !found {
		return g.selectMostFrequent(schema)
	}
	return bestFree
}
