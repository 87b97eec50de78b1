package model

import "strings"

// FormatGroundAtom renders a ground atom as "(name arg1 arg2 ...)", using
// names exactly as declared in the source PDDL (case preserved), matching
// spec.md §6.2's plan output format.
func (p *Problem) FormatGroundAtom(ga GroundAtom) string {
	var b strings.Builder
	b.WriteByte('(')
	b.WriteString(p.Predicates[ga.Predicate].Name)
	for _, c := range ga.Constants {
		b.WriteByte(' ')
		b.WriteString(p.Constants[c].Name)
	}
	b.WriteByte(')')
	return b.String()
}

// Format renders one plan step as "(action-name arg1 arg2 ...)".
func (s PlanStep) Format(p *Problem) string {
	var b strings.Builder
	b.WriteByte('(')
	b.WriteString(s.SchemaName)
	for _, c := range s.Constants {
		b.WriteByte(' ')
		b.WriteString(p.Constants[c].Name)
	}
	b.WriteByte(')')
	return b.String()
}
