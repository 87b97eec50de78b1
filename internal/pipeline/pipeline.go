// Package pipeline is the staged-run pattern the CLI uses to run only as
// much of the parse -> normalize -> ground -> plan chain as the configured
// Mode calls for (spec.md §6.1 -m). It is adapted from the teacher's own
// internal/pipeline.Pipeline/Processor: a Pipeline holds an ordered list of
// Processors, Run threads a single context through all of them, and a
// failed stage does not abort the run — later stages see the error and can
// decide whether they can still proceed or must no-op, so a "parse"-mode
// invocation and a "plan"-mode invocation share the exact same stage list.
package pipeline

// Context is the value threaded through every Processor. It is intentionally
// a single mutable struct (rather than each stage returning a new typed
// value) because later stages need to see earlier stages' diagnostics even
// when an earlier stage failed, matching the teacher's own rationale
// ("LSP needs both parse and semantic errors").
type Context struct {
	Err   error
	Trace []string
}

// Done reports whether a prior stage recorded an error. Processors should
// consult this before doing expensive work, but err on the side of still
// running if they can report additional diagnostics cheaply.
func (c *Context) Done() bool { return c.Err != nil }

// Fail records the first error seen; later Fail calls are no-ops so the
// earliest failure is always the one reported.
func (c *Context) Fail(err error) {
	if c.Err == nil {
		c.Err = err
	}
}

// Processor is one stage of the pipeline.
type Processor interface {
	// Name identifies the stage for tracing/logging.
	Name() string
	// Process runs the stage against ctx, mutating it in place.
	Process(ctx *Context)
}

// Pipeline is an ordered sequence of stages.
type Pipeline struct {
	stages []Processor
}

// New builds a Pipeline running stages in the given order.
func New(stages ...Processor) *Pipeline {
	return &Pipeline{stages: stages}
}

// Run executes every stage in order, recording each stage's name in
// ctx.Trace whether or not it succeeds.
func (p *Pipeline) Run(ctx *Context) *Context {
	for _, stage := range p.stages {
		stage.Process(ctx)
		ctx.Trace = append(ctx.Trace, stage.Name())
	}
	return ctx
}
