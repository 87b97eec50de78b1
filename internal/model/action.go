package model

// ParamKind tags a Parameter as still-free or already-bound. Implemented as a
// two-branch tagged union (kind + payload fields), the same shape the teacher
// uses for its Argument/Pattern sum types, rather than an interface — the
// payload is small and fixed, so a tag byte is cheaper than a vtable.
type ParamKind uint8

const (
	// ParamFree means the parameter still ranges over constants of Type.
	ParamFree ParamKind = iota
	// ParamBound means the parameter has been instantiated to Value.
	ParamBound
)

// Parameter is one formal parameter of an action schema: either Free(type)
// or Bound(constant). A schema's parameter list may mix both.
type Parameter struct {
	Kind  ParamKind
	Type  TypeID     // declared type; always set, even when Bound
	Value ConstantID // meaningful only when Kind == ParamBound
}

// FreeParam builds a still-lifted parameter of the given type.
func FreeParam(t TypeID) Parameter { return Parameter{Kind: ParamFree, Type: t} }

// BoundParam builds a parameter already fixed to a constant.
func BoundParam(c ConstantID, t TypeID) Parameter {
	return Parameter{Kind: ParamBound, Type: t, Value: c}
}

// IsFree reports whether the parameter is still lifted.
func (p Parameter) IsFree() bool { return p.Kind == ParamFree }

// ArgKind tags an Argument as a literal constant or a reference to an
// enclosing action's parameter.
type ArgKind uint8

const (
	// ArgConstant is a literal constant argument.
	ArgConstant ArgKind = iota
	// ArgParameterRef refers to ParamIndex of the enclosing schema's parameters.
	ArgParameterRef
)

// Argument is one argument of an Atom appearing inside an action schema.
type Argument struct {
	Kind       ArgKind
	Constant   ConstantID // meaningful when Kind == ArgConstant
	ParamIndex int        // meaningful when Kind == ArgParameterRef
}

// ConstArg builds a literal-constant argument.
func ConstArg(c ConstantID) Argument { return Argument{Kind: ArgConstant, Constant: c} }

// ParamRefArg builds an argument referring to the i-th parameter of the
// enclosing schema.
func ParamRefArg(i int) Argument { return Argument{Kind: ArgParameterRef, ParamIndex: i} }

// Atom is a predicate applied to a (possibly still lifted) argument list.
// len(Args) must equal the predicate's arity.
type Atom struct {
	Predicate PredicateID
	Args      []Argument
}

// Condition is a (possibly negated) atom appearing in a precondition or
// effect list.
type Condition struct {
	Atom     Atom
	Positive bool
}

// ActionSchema is a parameterized action template, or a partial/full
// instantiation of one produced by the grounder. OriginIndex identifies
// which original (pre-grounding) schema this one descends from; it is
// preserved across every refinement step so plan extraction and the support
// index can report action identity consistently.
type ActionSchema struct {
	Name        string
	OriginIndex int
	Parameters  []Parameter

	// Preconditions/Effects still reference Parameters by ParamIndex where
	// the referenced parameter is Free; once a parameter becomes Bound its
	// occurrences are left in place (the argument list still type-checks)
	// but refer to a now-constant parameter.
	Preconditions []Condition
	Effects       []Condition

	// PreInstantiated/EffInstantiated hold conditions already given as
	// ground atoms; the support index reads them alongside Preconditions and
	// Effects. The grounder does not fill them: conditions whose parameters
	// become bound stay in Preconditions/Effects.
	PreInstantiated []GroundCondition
	EffInstantiated []GroundCondition
}

// FreeParamIndices returns the indices of this schema's still-lifted
// parameters, in declaration order.
func (s *ActionSchema) FreeParamIndices() []int {
	var out []int
	for i, p := range s.Parameters {
		if p.IsFree() {
			out = append(out, i)
		}
	}
	return out
}

// IsGround reports whether every parameter of the schema is bound.
func (s *ActionSchema) IsGround() bool {
	for _, p := range s.Parameters {
		if p.IsFree() {
			return false
		}
	}
	return true
}

// Clone returns a deep copy suitable for independent mutation by the
// grounder (the refinement loop never mutates a schema shared by more than
// one entry of schemata_by_origin in place).
func (s *ActionSchema) Clone() *ActionSchema {
	c := &ActionSchema{
		Name:        s.Name,
		OriginIndex: s.OriginIndex,
	}
	c.Parameters = append(c.Parameters, s.Parameters...)
	c.Preconditions = append(c.Preconditions, s.Preconditions...)
	c.Effects = append(c.Effects, s.Effects...)
	c.PreInstantiated = append(c.PreInstantiated, s.PreInstantiated...)
	c.EffInstantiated = append(c.EffInstantiated, s.EffInstantiated...)
	return c
}
