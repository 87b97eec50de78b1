package pddl

import (
	"fmt"

	"satplan/internal/model"
	"satplan/internal/planerr"
)

// NormalizeError pairs a sentinel from planerr with a source location, so a
// caller can both errors.Is-match the failure class and print where it came
// from, matching spec.md §6.4.
type NormalizeError struct {
	Pos     Pos
	Wrapped error
	Detail  string
}

func (e *NormalizeError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Pos, e.Wrapped, e.Detail)
}

func (e *NormalizeError) Unwrap() error { return e.Wrapped }

func normErr(pos Pos, sentinel error, format string, args ...any) error {
	return &NormalizeError{Pos: pos, Wrapped: sentinel, Detail: fmt.Sprintf(format, args...)}
}

// symtab accumulates the name -> id tables built while normalizing a single
// Domain+Problem pair into a model.Problem, realizing spec.md §4.1's
// "Normalization contract" (the lifted, still-variable PDDL side of the
// boundary) against the grounder's required model.Problem shape (the other
// side of that contract).
type symtab struct {
	typeIndex     map[string]model.TypeID
	types         []model.Type
	constIndex    map[string]model.ConstantID
	constants     []model.Constant
	predIndex     map[string]model.PredicateID
	predicates    []model.Predicate
}

// Normalize lowers a parsed Domain and Problem into a model.Problem: types
// and constants are collected into dense index tables, :predicates (plus the
// implicit equality predicate) become model.Predicate entries, each :action
// becomes one or more ground-free model.ActionSchema values (disjunctive
// preconditions are split into separate schemata, one per DNF disjunct, per
// spec.md §4.1's "eliminate disjunction via schema-splitting"), and :init /
// :goal become ground atoms and conditions.
func Normalize(d *Domain, pr *Problem) (*model.Problem, error) {
	st := &symtab{
		typeIndex:  map[string]model.TypeID{},
		constIndex: map[string]model.ConstantID{},
		predIndex:  map[string]model.PredicateID{},
	}

	st.addType("object", "")
	for _, t := range d.Types {
		super := t.Type
		if super == "" {
			super = "object"
		}
		st.addType(t.Name, super)
	}

	st.predIndex["="] = model.EqualityPredicate
	st.predicates = append(st.predicates, model.Predicate{Name: "=", ParamTypes: []model.TypeID{model.RootType, model.RootType}})
	for _, pd := range d.Predicates {
		paramTypes := make([]model.TypeID, len(pd.Params))
		for i, p := range pd.Params {
			tid, err := st.resolveType(p)
			if err != nil {
				return nil, err
			}
			paramTypes[i] = tid
		}
		st.predIndex[normalizeLower(pd.Name)] = model.PredicateID(len(st.predicates))
		st.predicates = append(st.predicates, model.Predicate{Name: pd.Name, ParamTypes: paramTypes})
	}

	for _, c := range d.Constants {
		if err := st.addConstant(c); err != nil {
			return nil, err
		}
	}
	for _, o := range pr.Objects {
		if err := st.addConstant(o); err != nil {
			return nil, err
		}
	}

	var schemata []*model.ActionSchema
	for origin, ad := range d.Actions {
		built, err := st.buildSchemata(ad, origin)
		if err != nil {
			return nil, err
		}
		schemata = append(schemata, built...)
	}

	init, err := st.buildInit(pr)
	if err != nil {
		return nil, err
	}

	goal, err := st.buildGoal(pr)
	if err != nil {
		return nil, err
	}

	return model.NewProblem(pr.Name, st.types, st.constants, st.predicates, schemata, init, goal)
}

func (st *symtab) addType(name, super string) model.TypeID {
	if id, ok := st.typeIndex[name]; ok {
		return id
	}
	var superID model.TypeID
	if name != "object" {
		if id, ok := st.typeIndex[super]; ok {
			superID = id
		} else {
			superID = st.addType(super, "object")
		}
	}
	id := model.TypeID(len(st.types))
	st.typeIndex[name] = id
	st.types = append(st.types, model.Type{Name: name, Supertype: superID})
	return id
}

func (st *symtab) resolveType(tn TypedName) (model.TypeID, error) {
	name := tn.Type
	if name == "" {
		name = "object"
	}
	id, ok := st.typeIndex[name]
	if !ok {
		return 0, normErr(tn.Pos, planerr.ErrSymbol, "undeclared type %q", name)
	}
	return id, nil
}

func (st *symtab) addConstant(tn TypedName) error {
	if _, exists := st.constIndex[tn.Name]; exists {
		return nil
	}
	tid, err := st.resolveType(tn)
	if err != nil {
		return err
	}
	id := model.ConstantID(len(st.constants))
	st.constIndex[tn.Name] = id
	st.constants = append(st.constants, model.Constant{Name: tn.Name, Type: tid})
	return nil
}

// lit is a single literal of a DNF conjunction: a possibly-negated atom.
type lit struct {
	atom     *AtomExpr
	positive bool
}

// toDNF pushes negation to the atom level and expands Or into a list of
// conjunctions (spec.md §4.1: disjunctive preconditions are split by
// schema-splitting at the caller).
func toDNF(e Expr, neg bool) [][]lit {
	switch v := e.(type) {
	case *AtomExpr:
		return [][]lit{{{atom: v, positive: !neg}}}
	case *NotExpr:
		return toDNF(v.Arg, !neg)
	case *AndExpr:
		if !neg {
			return crossProduct(v.Args, false)
		}
		return unionOf(v.Args, true)
	case *OrExpr:
		if !neg {
			return unionOf(v.Args, false)
		}
		return crossProduct(v.Args, true)
	default:
		return nil
	}
}

func unionOf(args []Expr, neg bool) [][]lit {
	var out [][]lit
	for _, a := range args {
		out = append(out, toDNF(a, neg)...)
	}
	return out
}

func crossProduct(args []Expr, neg bool) [][]lit {
	result := [][]lit{{}}
	for _, a := range args {
		childDNF := toDNF(a, neg)
		var next [][]lit
		for _, existing := range result {
			for _, conj := range childDNF {
				merged := make([]lit, 0, len(existing)+len(conj))
				merged = append(merged, existing...)
				merged = append(merged, conj...)
				next = append(next, merged)
			}
		}
		result = next
	}
	return result
}

// buildSchemata lowers one :action def into one model.ActionSchema per DNF
// disjunct of its precondition (a single schema if the precondition has no
// top-level disjunction).
func (st *symtab) buildSchemata(ad ActionDef, origin int) ([]*model.ActionSchema, error) {
	paramIndex := map[string]int{}
	params := make([]model.Parameter, len(ad.Params))
	for i, p := range ad.Params {
		tid, err := st.resolveType(p)
		if err != nil {
			return nil, err
		}
		params[i] = model.FreeParam(tid)
		paramIndex[p.Name] = i
	}

	var preDisjuncts [][]lit
	if ad.Precondition == nil {
		preDisjuncts = [][]lit{nil}
	} else {
		preDisjuncts = toDNF(ad.Precondition, false)
	}

	var effLits []lit
	if ad.Effect != nil {
		effDisjuncts := toDNF(ad.Effect, false)
		if len(effDisjuncts) != 1 {
			return nil, normErr(ad.Pos, planerr.ErrParse, "action %q: disjunctive effects are not supported", ad.Name)
		}
		effLits = effDisjuncts[0]
	}
	effects, err := st.litsToConditions(effLits, paramIndex)
	if err != nil {
		return nil, err
	}
	if len(effects) == 0 {
		// No effect: this action can never change the world and is dropped,
		// per spec.md §4.1's "drop actions with empty effects."
		return nil, nil
	}

	var out []*model.ActionSchema
	for _, conj := range preDisjuncts {
		pre, err := st.litsToConditions(conj, paramIndex)
		if err != nil {
			return nil, err
		}
		// Every disjunct keeps the source action's own name: spec.md §6.2
		// requires plan output to echo action names exactly as declared in
		// the PDDL, and nothing downstream keys off schema name uniqueness
		// (OriginIndex plus the schema's own slice index already identify
		// it internally).
		out = append(out, &model.ActionSchema{
			Name:          ad.Name,
			OriginIndex:   origin,
			Parameters:    append([]model.Parameter(nil), params...),
			Preconditions: pre,
			Effects:       append([]model.Condition(nil), effects...),
		})
	}
	return out, nil
}

func (st *symtab) litsToConditions(lits []lit, paramIndex map[string]int) ([]model.Condition, error) {
	out := make([]model.Condition, 0, len(lits))
	for _, l := range lits {
		atom, err := st.resolveAtom(l.atom, paramIndex)
		if err != nil {
			return nil, err
		}
		out = append(out, model.Condition{Atom: atom, Positive: l.positive})
	}
	return out, nil
}

func (st *symtab) resolveAtom(a *AtomExpr, paramIndex map[string]int) (model.Atom, error) {
	predName := normalizeLower(a.Name)
	predID, ok := st.predIndex[predName]
	if !ok {
		return model.Atom{}, normErr(a.Pos, planerr.ErrSymbol, "undeclared predicate %q", a.Name)
	}
	args := make([]model.Argument, len(a.Args))
	for i, t := range a.Args {
		if t.IsVariable {
			idx, ok := paramIndex[t.Name]
			if !ok {
				return model.Atom{}, normErr(t.Pos, planerr.ErrSymbol, "unbound variable ?%s", t.Name)
			}
			args[i] = model.ParamRefArg(idx)
			continue
		}
		cid, ok := st.constIndex[t.Name]
		if !ok {
			return model.Atom{}, normErr(t.Pos, planerr.ErrSymbol, "undeclared constant %q", t.Name)
		}
		args[i] = model.ConstArg(cid)
	}
	return model.Atom{Predicate: predID, Args: args}, nil
}

func (st *symtab) resolveGroundAtom(a *AtomExpr) (model.GroundAtom, error) {
	predName := normalizeLower(a.Name)
	predID, ok := st.predIndex[predName]
	if !ok {
		return model.GroundAtom{}, normErr(a.Pos, planerr.ErrSymbol, "undeclared predicate %q", a.Name)
	}
	consts := make([]model.ConstantID, len(a.Args))
	for i, t := range a.Args {
		if t.IsVariable {
			return model.GroundAtom{}, normErr(t.Pos, planerr.ErrParse, "variable ?%s is not allowed in :init", t.Name)
		}
		cid, ok := st.constIndex[t.Name]
		if !ok {
			return model.GroundAtom{}, normErr(t.Pos, planerr.ErrSymbol, "undeclared constant %q", t.Name)
		}
		consts[i] = cid
	}
	return model.GroundAtom{Predicate: predID, Constants: consts}, nil
}

func (st *symtab) buildInit(pr *Problem) ([]model.GroundAtom, error) {
	seen := map[model.GroundAtomID]bool{}
	negated := map[model.GroundAtomID]bool{}
	for _, neg := range pr.InitNeg {
		ga, err := st.resolveGroundAtom(neg)
		if err != nil {
			return nil, err
		}
		id := groundAtomKey(ga)
		negated[id] = true
	}
	var out []model.GroundAtom
	for _, a := range pr.Init {
		ga, err := st.resolveGroundAtom(a)
		if err != nil {
			return nil, err
		}
		id := groundAtomKey(ga)
		if negated[id] {
			return nil, normErr(a.Pos, planerr.ErrContradictoryInit, "%s appears both asserted and negated in :init", a.Name)
		}
		if !seen[id] {
			seen[id] = true
			out = append(out, ga)
		}
	}
	return out, nil
}

// groundAtomKey is a stable, collision-free key for deduplicating ground
// atoms before a model.Problem (and therefore its predicate offset table)
// exists yet; it does not need to match model.Problem.GroundAtomID.
func groundAtomKey(ga model.GroundAtom) model.GroundAtomID {
	var id model.GroundAtomID
	id = model.GroundAtomID(ga.Predicate)
	for _, c := range ga.Constants {
		id = id*1_000_003 + model.GroundAtomID(c)
	}
	return id
}

func (st *symtab) buildGoal(pr *Problem) ([]model.GroundCondition, error) {
	if pr.Goal == nil {
		return nil, nil
	}
	disjuncts := toDNF(pr.Goal, false)
	if len(disjuncts) != 1 {
		return nil, normErr(pr.Pos, planerr.ErrParse, "disjunctive goals are not supported")
	}
	out := make([]model.GroundCondition, 0, len(disjuncts[0]))
	for _, l := range disjuncts[0] {
		ga, err := st.resolveGroundAtom(l.atom)
		if err != nil {
			return nil, err
		}
		out = append(out, model.GroundCondition{Atom: ga, Positive: l.positive})
	}
	return out, nil
}
