// Package model is the immutable data model of a normalized planning problem:
// types, constants, predicates, action schemata, the initial state and the
// goal. All cross-entity references are dense integer indices, never
// pointers, so the model stays trivially copyable.
package model

// TypeID indexes into Problem.Types. Index 0 is the root type.
type TypeID int

// RootType is the universal type; every other type is (transitively) its
// subtype, and RootType's own Supertype is itself.
const RootType TypeID = 0

// ConstantID indexes into Problem.Constants.
type ConstantID int

// PredicateID indexes into Problem.Predicates. Index 0 is the built-in
// equality predicate, arity 2 over RootType.
type PredicateID int

// EqualityPredicate is predicate index 0.
const EqualityPredicate PredicateID = 0

// ActionID indexes into Problem.Schemata.
type ActionID int

// Type is an entry in the type table. Supertype must terminate at RootType.
type Type struct {
	Name      string
	Supertype TypeID
}

// Constant has a declared Type; Type must exist in the owning Problem.
type Constant struct {
	Name string
	Type TypeID
}

// Predicate is an ordered list of parameter type indices.
type Predicate struct {
	Name        string
	ParamTypes  []TypeID
}

// Arity is the number of parameters the predicate takes.
func (p Predicate) Arity() int { return len(p.ParamTypes) }
