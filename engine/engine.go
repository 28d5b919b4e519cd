/* Copyright 2024 RDForge Contributors
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package engine evaluates SRL rule sets against RDF graphs.
//
// Evaluation is layered: the rule set is stratified once, then each
// stratum runs to a fixpoint.  Within one iteration every rule sees
// the same snapshot of the working graph; newly derived triples become
// visible in the next iteration.
package engine

import (
	"errors"
	"time"

	"github.com/rdforge/srl/ast"
	"github.com/rdforge/srl/funcs"
	"github.com/rdforge/srl/rdf"
)

// DefaultMaxIterations bounds the fixpoint loop of a single stratum
// when Options.MaxIterations is zero.
var DefaultMaxIterations = 1000

// Options configure one evaluation.
type Options struct {
	// InPlace mutates the input graph.  When false the input is
	// left untouched and the result is a new graph.
	InPlace bool

	// ResultsOnly returns only the derived triples.  Requires
	// InPlace to be false.
	ResultsOnly bool

	// MaxIterations caps fixpoint iterations per stratum.  Zero
	// means DefaultMaxIterations.
	MaxIterations int

	// MaxDerived caps the total number of derived triples.  Zero
	// means unlimited.
	MaxDerived int

	// Now fixes the NOW() clock.  Zero means wall clock, captured
	// once per fixpoint iteration.
	Now time.Time

	// Funcs resolves custom function IRIs.
	Funcs *funcs.Registry
}

// Diagnostic kinds.
const (
	DiagInvalidTriple = "invalid-triple-construction"
	DiagRebind        = "bind-already-bound"
)

// Diagnostic is a non-fatal issue observed during evaluation.
type Diagnostic struct {
	Kind    string
	Rule    int
	Message string
}

// StratumStats describes one stratum's fixpoint run.
type StratumStats struct {
	Rules      int
	Iterations int
	Derived    int
}

// Stats describes a whole evaluation.
type Stats struct {
	Strata   []StratumStats
	Derived  int
	Duration time.Duration
}

// Provenance records which rule derived a triple, and in which
// stratum.
type Provenance struct {
	Triple  rdf.Triple
	Rule    int
	Stratum int
}

// Result is what Evaluate returns: the output graph, run statistics,
// and any non-fatal diagnostics.
type Result struct {
	Graph       *rdf.MemGraph
	Stats       Stats
	Diagnostics []Diagnostic
	Provenance  []Provenance
}

// Engine evaluates one rule set.  The stratification is computed at
// construction and cached; an Engine may be reused across graphs.
type Engine struct {
	rules *ast.RuleSet
	strat *Stratification
}

// New stratifies the rule set and builds an engine.  It fails with
// *UnsafeNegation or *UnsafeRule when the rule set cannot be safely
// evaluated.
func New(rs *ast.RuleSet) (*Engine, error) {
	strat, err := Stratify(rs)
	if err != nil {
		return nil, err
	}
	return &Engine{rules: rs, strat: strat}, nil
}

// Stratification returns the cached analysis.
func (e *Engine) Stratification() *Stratification {
	return e.strat
}

// RuleSet returns the rule set under evaluation.
func (e *Engine) RuleSet() *ast.RuleSet {
	return e.rules
}

// Evaluate runs the rule set against the graph to fixpoint.
//
// On budget exhaustion the returned error is *BudgetExhausted and the
// Result still carries the partial graph and stats.
func (e *Engine) Evaluate(g *rdf.MemGraph, opts Options) (*Result, error) {
	return e.run(g, opts, false)
}

// EvaluateWithProvenance is Evaluate, additionally recording the rule
// and stratum that produced each derived triple.
func (e *Engine) EvaluateWithProvenance(g *rdf.MemGraph, opts Options) (*Result, error) {
	return e.run(g, opts, true)
}

func (e *Engine) run(input *rdf.MemGraph, opts Options, withProvenance bool) (*Result, error) {
	if opts.InPlace && opts.ResultsOnly {
		return nil, errors.New("ResultsOnly requires InPlace to be false")
	}
	start := time.Now()

	working := input
	if !opts.InPlace {
		working = input.Clone()
	}

	maxIterations := opts.MaxIterations
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}

	res := &Result{Graph: working}
	res.Stats.Strata = make([]StratumStats, len(e.strat.Strata))

	for si, stratum := range e.strat.Strata {
		ss := &res.Stats.Strata[si]
		ss.Rules = len(stratum)

		for {
			if ss.Iterations >= maxIterations {
				res.Stats.Duration = time.Since(start)
				return res, &BudgetExhausted{
					Stratum:   si,
					Iteration: ss.Iterations,
					Derived:   res.Stats.Derived,
					Reason:    "iteration cap reached",
				}
			}
			ss.Iterations++

			// NOW() is stable within one iteration.
			ctx := NewEvalContext(opts.Now)
			ctx.Funcs = opts.Funcs

			// All rules in the round see the same snapshot:
			// candidates accumulate aside and are only folded
			// into the working graph after the round.
			var delta []rdf.Triple
			inDelta := make(map[rdf.Triple]struct{})

			for _, ri := range stratum {
				rule := e.rules.Rules[ri]
				omega := EvalBody(rule.Body, working, ctx)
				for _, mu := range omega {
					for _, t := range instantiateHead(ri, rule.Head, mu, ctx) {
						if working.Contains(t) {
							continue
						}
						if _, have := inDelta[t]; have {
							continue
						}
						inDelta[t] = struct{}{}
						delta = append(delta, t)
						if withProvenance {
							res.Provenance = append(res.Provenance, Provenance{
								Triple:  t,
								Rule:    ri,
								Stratum: si,
							})
						}
					}
				}
			}

			res.Diagnostics = append(res.Diagnostics, ctx.diagnostics...)

			if len(delta) == 0 {
				break
			}

			for _, t := range delta {
				working.Insert(t)
			}
			ss.Derived += len(delta)
			res.Stats.Derived += len(delta)

			if opts.MaxDerived > 0 && res.Stats.Derived > opts.MaxDerived {
				res.Stats.Duration = time.Since(start)
				return res, &BudgetExhausted{
					Stratum:   si,
					Iteration: ss.Iterations,
					Derived:   res.Stats.Derived,
					Reason:    "derived-triple cap reached",
				}
			}
		}
	}

	if opts.ResultsOnly && !opts.InPlace {
		res.Graph = working.Minus(input)
	}
	res.Stats.Duration = time.Since(start)
	return res, nil
}

// Evaluate is the convenience entry point: stratify the rule set,
// insert its DATA triples, and run it against the graph.  DATA triples
// count as input, not as derivations.
func Evaluate(rs *ast.RuleSet, g *rdf.MemGraph, opts Options) (*Result, error) {
	e, err := New(rs)
	if err != nil {
		return nil, err
	}
	if len(rs.Data) == 0 {
		return e.Evaluate(g, opts)
	}
	if opts.InPlace {
		for _, t := range rs.Data {
			g.Insert(t)
		}
		return e.Evaluate(g, opts)
	}
	seeded := g.Clone()
	for _, t := range rs.Data {
		seeded.Insert(t)
	}
	resultsOnly := opts.ResultsOnly
	opts.ResultsOnly = false
	opts.InPlace = true
	var base *rdf.MemGraph
	if resultsOnly {
		base = seeded.Clone()
	}
	res, err := e.Evaluate(seeded, opts)
	if res != nil && resultsOnly {
		res.Graph = res.Graph.Minus(base)
	}
	return res, err
}
