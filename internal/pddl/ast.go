package pddl

// The PDDL AST is a sum type implemented the way the teacher's own AST is:
// a small interface with an unexported marker method per node kind (here,
// exprNode()) tagging which branch of the union a value belongs to. Unlike
// the teacher, which pairs that with an Accept(Visitor) double-dispatch
// method, condition/effect trees here are walked with a plain recursive
// type switch — spec.md §9's own design note calls for exactly that ("a
// recursive function over a sum-type AST — no inheritance hierarchy
// required"), so the extra Visitor machinery is dropped even though the
// teacher carries it.

// Term is an argument inside an atom: either a bound object/constant name
// or a reference to a still-lifted "?x" variable.
type Term struct {
	IsVariable bool
	Name       string
	Pos        Pos
}

// TypedName is one entry of a typed list: "?x - block", "a - block", or a
// bare "block" (untyped, defaulting to the root type) depending on context.
type TypedName struct {
	Name string
	Type string // "" means the default (root) type
	Pos  Pos
}

// Expr is a (possibly negated, possibly compound) condition or effect
// expression: an atom, (and ...), (or ...), or (not ...).
type Expr interface {
	exprNode()
	SourcePos() Pos
}

// AtomExpr is "(name arg1 arg2 ...)", including the "(= a b)" equality form.
type AtomExpr struct {
	Name string
	Args []Term
	Pos  Pos
}

func (e *AtomExpr) exprNode()       {}
func (e *AtomExpr) SourcePos() Pos  { return e.Pos }

// AndExpr is "(and e1 e2 ...)".
type AndExpr struct {
	Args []Expr
	Pos  Pos
}

func (e *AndExpr) exprNode()      {}
func (e *AndExpr) SourcePos() Pos { return e.Pos }

// OrExpr is "(or e1 e2 ...)"; only legal in preconditions.
type OrExpr struct {
	Args []Expr
	Pos  Pos
}

func (e *OrExpr) exprNode()      {}
func (e *OrExpr) SourcePos() Pos { return e.Pos }

// NotExpr is "(not e)".
type NotExpr struct {
	Arg Expr
	Pos Pos
}

func (e *NotExpr) exprNode()      {}
func (e *NotExpr) SourcePos() Pos { return e.Pos }

// PredicateDef is one "(name ?p1 - t1 ?p2 - t2 ...)" entry of :predicates.
type PredicateDef struct {
	Name   string
	Params []TypedName
	Pos    Pos
}

// ActionDef is one :action block.
type ActionDef struct {
	Name          string
	Params        []TypedName
	Precondition  Expr // nil means "(and)", trivially true
	Effect        Expr
	Pos           Pos
}

// Domain is the parsed (define (domain ...) ...) form.
type Domain struct {
	Name         string
	Requirements []string
	Types        []TypedName // Type holds the declared supertype name
	Constants    []TypedName
	Predicates   []PredicateDef
	Actions      []ActionDef
	Pos          Pos
}

// Problem is the parsed (define (problem ...) ...) form.
type Problem struct {
	Name       string
	DomainName string
	Objects    []TypedName
	Init       []*AtomExpr // plain atoms asserted in :init
	InitNeg    []*AtomExpr // "(not (atom ...))" entries found in :init; Normalize rejects an atom listed both here and in Init
	Goal       Expr
	Pos        Pos
}
