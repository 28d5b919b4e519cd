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

package engine

import (
	"github.com/rdforge/srl/ast"
	"github.com/rdforge/srl/rdf"
)

// EvalBody evaluates a body pattern against a graph, left to right,
// and returns the resulting multiset of solution mappings.
//
// An empty body yields {∅}.  The result never contains a binding to an
// error or unbound value, and is deterministic for a fixed graph and
// pattern.
func EvalBody(body []ast.BodyElement, g rdf.Graph, ctx *EvalContext) Omega {
	return evalBodySeeded(body, g, ctx, seed())
}

// evalBodySeeded is EvalBody with an explicit seed multiset.  NOT
// sub-patterns are seeded with the current Ω rather than {∅}, so that
// the anti-join shares variables correctly.
func evalBodySeeded(body []ast.BodyElement, g rdf.Graph, ctx *EvalContext, omega Omega) Omega {
	for _, el := range body {
		switch e := el.(type) {
		case ast.TriplePattern:
			omega = evalTriplePattern(e, g, omega)
		case ast.Filter:
			omega = evalFilter(e, omega, ctx)
		case ast.Bind:
			omega = evalBind(e, omega, ctx)
		case ast.Not:
			neg := evalBodySeeded(e.Body, g, ctx, omega)
			omega = Minus(omega, neg)
		}
		if len(omega) == 0 {
			break
		}
	}
	return omega
}

// evalTriplePattern joins the current Ω against the graph matches of
// one triple pattern.  Already-bound variables narrow the graph lookup
// instead of being rechecked afterwards.
func evalTriplePattern(p ast.TriplePattern, g rdf.Graph, omega Omega) Omega {
	var acc Omega
	for _, mu := range omega {
		s := resolveSlot(p.S, mu)
		pr := resolveSlot(p.P, mu)
		o := resolveSlot(p.O, mu)
		for _, t := range g.Match(s, pr, o) {
			if ext, ok := bindTriple(p, t, mu); ok {
				acc = append(acc, ext)
			}
		}
	}
	return acc
}

// resolveSlot turns a slot into a concrete term for graph lookup, or
// nil when the slot is an unbound variable.
func resolveSlot(s ast.Slot, mu Mapping) rdf.Term {
	switch ss := s.(type) {
	case ast.Const:
		return ss.Term
	case ast.Var:
		if t, ok := mu.Get(ss.Name); ok {
			return t
		}
		return nil
	default:
		// Body blank nodes are rewritten to variables by the
		// parser, so only heads carry ast.Blank.
		return nil
	}
}

// bindTriple extends mu with the bindings the triple induces for the
// pattern's variable slots.  Repeated variables within the pattern
// must agree.
func bindTriple(p ast.TriplePattern, t rdf.Triple, mu Mapping) (Mapping, bool) {
	for _, pair := range [3]struct {
		slot ast.Slot
		term rdf.Term
	}{{p.S, t.S}, {p.P, t.P}, {p.O, t.O}} {
		v, is := pair.slot.(ast.Var)
		if !is {
			continue
		}
		if bound, ok := mu.Get(v.Name); ok {
			if bound != pair.term {
				return Mapping{}, false
			}
			continue
		}
		mu = mu.Extend(v.Name, pair.term)
	}
	return mu, true
}

// evalFilter keeps mappings whose filter expression has EBV true.
// False and error both drop the mapping.
func evalFilter(f ast.Filter, omega Omega, ctx *EvalContext) Omega {
	var acc Omega
	for _, mu := range omega {
		if b, err := evalEBV(f.Expr, mu, ctx); err == nil && b {
			acc = append(acc, mu)
		}
	}
	return acc
}

// evalBind extends each mapping with the bound variable.
//
// If the expression errors or is unbound, the mapping passes through
// unchanged with the variable left unbound.  Binding an already-bound
// variable drops the mapping and records a diagnostic.
func evalBind(b ast.Bind, omega Omega, ctx *EvalContext) Omega {
	var acc Omega
	for _, mu := range omega {
		if mu.Bound(b.Var.Name) {
			ctx.diag(Diagnostic{
				Kind:    DiagRebind,
				Message: "BIND to already-bound variable ?" + b.Var.Name,
			})
			continue
		}
		t, err := Eval(b.Expr, mu, ctx)
		if err != nil {
			acc = append(acc, mu)
			continue
		}
		acc = append(acc, mu.Extend(b.Var.Name, t))
	}
	return acc
}
