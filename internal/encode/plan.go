package encode

import "satplan/internal/model"

// ValueFunc reads a satisfying assignment, matching satsolver.Solver.Value's
// signature so callers can pass a solver's method directly without this
// package importing satsolver.
type ValueFunc func(v uint32) bool

// DecodePlan reconstructs a Plan from a satisfying assignment over horizon
// steps 0..horizon-1, per spec.md §4.5's final paragraph: for each step, for
// each schema whose action variable is true, read off each free parameter's
// true "takes value" variable and concatenate with the schema's already-bound
// constants in declaration order.
func (e *Encoder) DecodePlan(value ValueFunc, horizon int) *model.Plan {
	plan := &model.Plan{}
	for s := 0; s < horizon; s++ {
		for si, schema := range e.problem.Schemata {
			actionVar := e.layout.ActionVar(si, s)
			if !value(uint32(actionVar)) {
				continue
			}
			constants := make([]model.ConstantID, len(schema.Parameters))
			for pi, p := range schema.Parameters {
				if !p.IsFree() {
					constants[pi] = p.Value
					continue
				}
				constants[pi] = e.decodeParam(value, si, pi, p.Type, s)
			}
			plan.Steps = append(plan.Steps, model.PlanStep{
				SchemaName: schema.Name,
				Constants:  constants,
			})
		}
	}
	return plan
}

// decodeParam finds the unique constant c such that param(si,pi,c)'s
// variable is true at step s.
func (e *Encoder) decodeParam(value ValueFunc, si, pi int, t model.TypeID, s int) model.ConstantID {
	constants := e.problem.ConstantsOfType(t)
	for c, cid := range constants {
		v := e.layout.ParamVar(si, pi, c, s)
		if value(uint32(v)) {
			return cid
		}
	}
	return 0
}
