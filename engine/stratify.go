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
	"sort"

	"github.com/rdforge/srl/ast"
	"github.com/rdforge/srl/rdf"
)

// Wildcard is the dependency-graph node standing for "any predicate".
// A variable in predicate position reads or produces every predicate,
// so it is modeled as this single node that overlaps all others.
const Wildcard = "*"

// DepGraph is the predicate dependency graph built for stratification.
// Nodes are predicate IRIs (plus Wildcard); an edge p -> q means some
// rule with head predicate q references p in its body.  Negative edges
// come from NOT sub-patterns.
type DepGraph struct {
	Nodes []string
	// Edges maps a source node to its targets; true marks a
	// negative edge (negative wins if a pair is both).
	Edges map[string]map[string]bool
}

func (g *DepGraph) addEdge(from, to string, negative bool) {
	m, have := g.Edges[from]
	if !have {
		m = make(map[string]bool)
		g.Edges[from] = m
	}
	if neg, have := m[to]; !have || (!neg && negative) {
		m[to] = negative
	}
}

func (g *DepGraph) addNode(n string) {
	if _, have := g.Edges[n]; !have {
		g.Edges[n] = make(map[string]bool)
		g.Nodes = append(g.Nodes, n)
	}
}

// Stratification is the cached result of analyzing a rule set: the
// dependency graph, the stratum level of every predicate, and the
// rules grouped by stratum in evaluation order.
type Stratification struct {
	Graph  *DepGraph
	Levels map[string]int

	// Strata holds rule indices, grouped by level, in order.
	Strata [][]int
}

// NumStrata returns the number of evaluation layers.
func (s *Stratification) NumStrata() int {
	return len(s.Strata)
}

// Stratify analyzes a rule set: it checks rule safety, builds the
// predicate dependency graph, rejects cycles through negation, and
// layers the rules.
func Stratify(rs *ast.RuleSet) (*Stratification, error) {
	for i, r := range rs.Rules {
		if len(r.Body) == 0 {
			return nil, &EmptyBody{Rule: i}
		}
		positive := r.PositiveVars()
		for v := range r.HeadVars() {
			if !positive[v] {
				return nil, &UnsafeRule{Rule: i, Variable: v}
			}
		}
	}

	g := buildDepGraph(rs)
	sccs := tarjan(g)

	// A cycle through negation is a negative edge inside one SCC.
	compOf := make(map[string]int, len(g.Nodes))
	for ci, comp := range sccs {
		for _, n := range comp {
			compOf[n] = ci
		}
	}
	for from, tos := range g.Edges {
		for to, negative := range tos {
			if negative && compOf[from] == compOf[to] {
				return nil, &UnsafeNegation{From: from, To: to}
			}
		}
	}

	// Level assignment on the condensation: positive edges may stay
	// level, negative edges step up.  Tarjan emits components in
	// reverse topological order, so walking them backwards sees all
	// predecessors first.
	compLevel := make([]int, len(sccs))
	for ci := len(sccs) - 1; ci >= 0; ci-- {
		level := 0
		for _, n := range sccs[ci] {
			for from, tos := range g.Edges {
				neg, have := tos[n]
				if !have || compOf[from] == ci {
					continue
				}
				required := compLevel[compOf[from]]
				if neg {
					required++
				}
				if required > level {
					level = required
				}
			}
		}
		compLevel[ci] = level
	}

	levels := make(map[string]int, len(g.Nodes))
	for n, ci := range compOf {
		levels[n] = compLevel[ci]
	}

	// A rule evaluates at the max level of its head predicates.
	ruleLevel := make([]int, len(rs.Rules))
	maxLevel := 0
	for i, r := range rs.Rules {
		level := 0
		for _, p := range headPredicates(r) {
			if l := levels[p]; l > level {
				level = l
			}
		}
		ruleLevel[i] = level
		if level > maxLevel {
			maxLevel = level
		}
	}

	// Layers with no rules still count as strata; they converge in
	// one empty iteration.
	strata := make([][]int, maxLevel+1)
	for i := range rs.Rules {
		strata[ruleLevel[i]] = append(strata[ruleLevel[i]], i)
	}

	return &Stratification{Graph: g, Levels: levels, Strata: strata}, nil
}

func buildDepGraph(rs *ast.RuleSet) *DepGraph {
	g := &DepGraph{Edges: make(map[string]map[string]bool)}
	for _, r := range rs.Rules {
		for _, p := range headPredicates(r) {
			g.addNode(p)
		}
		pos, neg := bodyPredicates(r.Body, false)
		for _, p := range pos {
			g.addNode(p)
		}
		for _, p := range neg {
			g.addNode(p)
		}
		for _, q := range headPredicates(r) {
			for _, p := range pos {
				g.addEdge(p, q, false)
			}
			for _, p := range neg {
				g.addEdge(p, q, true)
			}
		}
	}
	// Wildcard overlaps every predicate, in both directions.
	if _, have := g.Edges[Wildcard]; have {
		for _, n := range g.Nodes {
			if n == Wildcard {
				continue
			}
			g.addEdge(n, Wildcard, false)
			g.addEdge(Wildcard, n, false)
		}
	}
	sort.Strings(g.Nodes)
	return g
}

func headPredicates(r *ast.Rule) []string {
	var acc []string
	seen := make(map[string]bool, len(r.Head))
	for _, t := range r.Head {
		p := predicateName(t.P)
		if !seen[p] {
			seen[p] = true
			acc = append(acc, p)
		}
	}
	return acc
}

// bodyPredicates collects the predicates referenced by the body,
// separated into positive and negative occurrences.  Everything under
// NOT is negative, at any nesting depth.
func bodyPredicates(body []ast.BodyElement, negated bool) (pos, neg []string) {
	for _, el := range body {
		switch e := el.(type) {
		case ast.TriplePattern:
			p := predicateName(e.P)
			if negated {
				neg = append(neg, p)
			} else {
				pos = append(pos, p)
			}
		case ast.Not:
			subPos, subNeg := bodyPredicates(e.Body, true)
			neg = append(neg, subPos...)
			neg = append(neg, subNeg...)
		}
	}
	return pos, neg
}

func predicateName(s ast.Slot) string {
	if c, is := s.(ast.Const); is {
		if iri, is := c.Term.(rdf.IRI); is {
			return string(iri)
		}
	}
	return Wildcard
}

// tarjan computes strongly connected components.  Components are
// emitted in reverse topological order of the condensation.
func tarjan(g *DepGraph) [][]string {
	index := make(map[string]int, len(g.Nodes))
	low := make(map[string]int, len(g.Nodes))
	onStack := make(map[string]bool, len(g.Nodes))
	var stack []string
	var sccs [][]string
	next := 0

	var strongConnect func(n string)
	strongConnect = func(n string) {
		index[n] = next
		low[n] = next
		next++
		stack = append(stack, n)
		onStack[n] = true

		// Deterministic edge order keeps component order stable.
		targets := make([]string, 0, len(g.Edges[n]))
		for to := range g.Edges[n] {
			targets = append(targets, to)
		}
		sort.Strings(targets)

		for _, to := range targets {
			if _, visited := index[to]; !visited {
				strongConnect(to)
				if low[to] < low[n] {
					low[n] = low[to]
				}
			} else if onStack[to] && index[to] < low[n] {
				low[n] = index[to]
			}
		}

		if low[n] == index[n] {
			var comp []string
			for {
				m := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[m] = false
				comp = append(comp, m)
				if m == n {
					break
				}
			}
			sccs = append(sccs, comp)
		}
	}

	for _, n := range g.Nodes {
		if _, visited := index[n]; !visited {
			strongConnect(n)
		}
	}
	return sccs
}
