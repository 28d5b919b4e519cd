package engine

import (
	"math/rand"
	"time"

	"github.com/rdforge/srl/funcs"
)

// EvalContext carries the per-iteration evaluation environment.
//
// NOW() is captured once per fixpoint iteration so that comparisons
// are stable within a round; tests inject a fixed clock through
// Options.Now.
type EvalContext struct {
	Now   time.Time
	Funcs *funcs.Registry

	rng *rand.Rand

	// bnodeSeq numbers BNODE() allocations made through this context.
	// The engine builds a new context, and so restarts the numbering,
	// for every fixpoint iteration.
	bnodeSeq int

	diagnostics []Diagnostic
}

// NewEvalContext makes a context with the given clock.  A zero time
// means "use the wall clock".
func NewEvalContext(now time.Time) *EvalContext {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	return &EvalContext{
		Now: now,
		rng: rand.New(rand.NewSource(now.UnixNano())),
	}
}

func (ctx *EvalContext) random() float64 {
	if ctx.rng == nil {
		ctx.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return ctx.rng.Float64()
}

func (ctx *EvalContext) diag(d Diagnostic) {
	ctx.diagnostics = append(ctx.diagnostics, d)
}
