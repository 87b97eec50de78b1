// Package ground implements the partial-instantiation engine: the
// combinatorial heart that turns a lifted problem's action schemata into a
// progressively more ground set of schemata an encoder can compile into a
// compact SAT formula. It borrows the problem it operates on and owns its
// own working copy of schemata, organized by originating schema index, the
// same ownership shape the teacher's own staged transforms use (borrow
// upstream data, own a derived working set).
package ground

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"satplan/internal/combin"
	"satplan/internal/config"
	"satplan/internal/model"
	"satplan/internal/planerr"
)

// Grounder refines a problem's action schemata by partial instantiation,
// pruning with rigidity and uselessness analyses as it goes.
type Grounder struct {
	problem *model.Problem
	cfg     *config.Config

	schemataByOrigin [][]*model.ActionSchema

	triviallyRigid   map[model.PredicateID]bool
	triviallyUseless map[model.PredicateID]bool

	posGoalIDs map[model.GroundAtomID]bool
	negGoalIDs map[model.GroundAtomID]bool

	successfulPosRigid   map[model.GroundAtomID]bool
	successfulNegRigid   map[model.GroundAtomID]bool
	successfulUseless    map[model.GroundAtomID]bool
	unsuccessfulPosRigid map[model.GroundAtomID]bool
	unsuccessfulNegRigid map[model.GroundAtomID]bool
	unsuccessfulUseless  map[model.GroundAtomID]bool

	numOriginalInstantiations int
	numPruned                 int

	// cacheMu guards the rigid/useless cache maps and numPruned when
	// cfg.Workers > 1 lets Refine expand origins concurrently (spec.md §5's
	// "optional parallelism" note). Held unconditionally, even with a single
	// worker, since an uncontended mutex costs nothing worth special-casing.
	cacheMu sync.Mutex
}

// New builds a Grounder over problem's original schemata, computing the
// structural trivial-rigid/trivial-useless predicate sets and the
// groundness denominator up front.
func New(problem *model.Problem, cfg *config.Config) *Grounder {
	g := &Grounder{
		problem:              problem,
		cfg:                  cfg,
		triviallyRigid:       map[model.PredicateID]bool{},
		triviallyUseless:     map[model.PredicateID]bool{},
		posGoalIDs:           map[model.GroundAtomID]bool{},
		negGoalIDs:           map[model.GroundAtomID]bool{},
		successfulPosRigid:   map[model.GroundAtomID]bool{},
		successfulNegRigid:   map[model.GroundAtomID]bool{},
		successfulUseless:    map[model.GroundAtomID]bool{},
		unsuccessfulPosRigid: map[model.GroundAtomID]bool{},
		unsuccessfulNegRigid: map[model.GroundAtomID]bool{},
		unsuccessfulUseless:  map[model.GroundAtomID]bool{},
	}

	effectPreds := map[model.PredicateID]bool{}
	precondPreds := map[model.PredicateID]bool{}
	for _, s := range problem.Schemata {
		for _, e := range s.Effects {
			effectPreds[e.Atom.Predicate] = true
		}
		for _, c := range s.Preconditions {
			precondPreds[c.Atom.Predicate] = true
		}
	}
	for i := range problem.Predicates {
		pid := model.PredicateID(i)
		if !effectPreds[pid] {
			g.triviallyRigid[pid] = true
		}
		if !precondPreds[pid] {
			g.triviallyUseless[pid] = true
		}
	}

	for _, gc := range problem.Goal {
		id := problem.GroundAtomID(gc.Atom)
		if gc.Positive {
			g.posGoalIDs[id] = true
		} else {
			g.negGoalIDs[id] = true
		}
	}

	g.schemataByOrigin = make([][]*model.ActionSchema, len(problem.Schemata))
	total := 0
	for i, s := range problem.Schemata {
		g.schemataByOrigin[i] = []*model.ActionSchema{s.Clone()}
		total += virtualCount(problem, s.Parameters)
	}
	g.numOriginalInstantiations = total
	if g.numOriginalInstantiations == 0 {
		g.numOriginalInstantiations = 1
	}
	return g
}

// atomicBool is a minimal flag set concurrently by expandOrigin's worker
// goroutines and read once after errgroup.Wait returns.
type atomicBool struct {
	mu  sync.Mutex
	val bool
}

func (b *atomicBool) set()      { b.mu.Lock(); b.val = true; b.mu.Unlock() }
func (b *atomicBool) get() bool { b.mu.Lock(); defer b.mu.Unlock(); return b.val }

// virtualCount is the number of full ground instantiations a (possibly
// partial) schema still represents: the product of the type's constant
// count over every still-free parameter.
func virtualCount(p *model.Problem, params []model.Parameter) int {
	count := 1
	for _, param := range params {
		if param.IsFree() {
			count *= len(p.ConstantsOfType(param.Type))
		}
	}
	return count
}

// Groundness reports the current (schemata after full-virtual-expansion +
// pruned) / original-instantiations ratio described in spec.md §4.3.
func (g *Grounder) Groundness() float64 {
	sum := g.numPruned
	for _, schemas := range g.schemataByOrigin {
		for _, s := range schemas {
			sum += virtualCount(g.problem, s.Parameters)
		}
	}
	return float64(sum) / float64(g.numOriginalInstantiations)
}

// Refine drives the grounder towards targetGroundness, honoring ctx's
// deadline. It returns planerr.ErrTimeout if the deadline is exceeded
// mid-refinement.
func (g *Grounder) Refine(ctx context.Context, targetGroundness float64) error {
	for {
		if g.Groundness() >= targetGroundness {
			return nil
		}
		select {
		case <-ctx.Done():
			return planerr.ErrTimeout
		default:
		}

		var anyExpanded atomicBool
		expandOrigin := func(origin int) {
			schemas := g.schemataByOrigin[origin]
			var next []*model.ActionSchema
			for _, s := range schemas {
				sel := g.selectParams(s)
				if len(sel) == 0 {
					next = append(next, s)
					continue
				}
				anyExpanded.set()
				sizes := make([]int, len(sel))
				for i, pi := range sel {
					sizes[i] = len(g.problem.ConstantsOfType(s.Parameters[pi].Type))
				}
				combin.Product(sizes, func(idx []int) bool {
					cand := s.Clone()
					for i, pi := range sel {
						constants := g.problem.ConstantsOfType(s.Parameters[pi].Type)
						cand.Parameters[pi] = model.BoundParam(constants[idx[i]], s.Parameters[pi].Type)
					}
					if !g.validate(cand) {
						g.cacheMu.Lock()
						g.numPruned++
						g.cacheMu.Unlock()
						return true
					}
					g.simplify(cand)
					next = append(next, cand)
					return true
				})
			}
			g.cacheMu.Lock()
			g.schemataByOrigin[origin] = next
			g.cacheMu.Unlock()
		}

		if g.cfg.Workers > 1 {
			// Each origin's schema family expands independently; only the
			// shared rigid/useless caches, numPruned, and the schemataByOrigin
			// slots themselves are contended (computeRigid/computeUseless
			// range over every origin while another worker may be replacing
			// one), and cacheMu covers all three.
			grp, _ := errgroup.WithContext(ctx)
			grp.SetLimit(g.cfg.Workers)
			for origin := range g.schemataByOrigin {
				origin := origin
				grp.Go(func() error {
					expandOrigin(origin)
					return nil
				})
			}
			grp.Wait()
		} else {
			for origin := range g.schemataByOrigin {
				expandOrigin(origin)
			}
		}
		if !anyExpanded.get() {
			return nil
		}

		if err := g.prune(ctx); err != nil {
			return err
		}
	}
}

// prune repeatedly removes invalid schemata and simplifies survivors until
// a fixed point, clearing the Unsuccessful caches first under that policy
// since new prunings can convert previously-non-rigid atoms into rigid
// ones.
func (g *Grounder) prune(ctx context.Context) error {
	if g.cfg.CachePolicy == config.CacheUnsuccessful {
		g.unsuccessfulPosRigid = map[model.GroundAtomID]bool{}
		g.unsuccessfulNegRigid = map[model.GroundAtomID]bool{}
		g.unsuccessfulUseless = map[model.GroundAtomID]bool{}
	}
	for {
		select {
		case <-ctx.Done():
			return planerr.ErrTimeout
		default:
		}
		changed := false
		for origin, schemas := range g.schemataByOrigin {
			var next []*model.ActionSchema
			for _, s := range schemas {
				if !g.validate(s) {
					g.numPruned += virtualCount(g.problem, s.Parameters)
					changed = true
					continue
				}
				if g.simplify(s) {
					changed = true
				}
				next = append(next, s)
			}
			g.schemataByOrigin[origin] = next
		}
		if !changed {
			return nil
		}
	}
}

// ExtractProblem snapshots the original tables plus the grounder's current
// schemata (flattened across origins, preserving origin order), dropping
// goal conditions that are already rigidly satisfied.
func (g *Grounder) ExtractProblem() (*model.Problem, error) {
	var schemata []*model.ActionSchema
	for _, schemas := range g.schemataByOrigin {
		schemata = append(schemata, schemas...)
	}
	var goal []model.GroundCondition
	for _, gc := range g.problem.Goal {
		if g.isRigid(gc.Atom, gc.Positive) {
			continue
		}
		goal = append(goal, gc)
	}
	return model.NewProblem(g.problem.Name, g.problem.Types, g.problem.Constants, g.problem.Predicates, schemata, g.problem.Init, goal)
}

// Problem returns the original (un-refined) problem the grounder borrows.
func (g *Grounder) Problem() *model.Problem { return g.problem }

// WithDeadline builds a context.Context bounded by timeout (0 means no
// deadline), matching the single shared wall-clock timer spec.md §5
// describes.
func WithDeadline(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), timeout)
}
