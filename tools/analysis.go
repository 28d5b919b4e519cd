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

// Package tools analyzes and renders rule sets: structural analysis,
// Graphviz and Mermaid views of the predicate dependency graph, and
// HTML documentation.
package tools

import (
	"fmt"
	"sort"

	"github.com/rdforge/srl/ast"
	"github.com/rdforge/srl/engine"
)

// RuleSetAnalysis collects structural observations about a rule set.
type RuleSetAnalysis struct {
	rs *ast.RuleSet

	Errors []string

	RuleCount     int
	TemplateCount int
	PatternCount  int
	FilterCount   int
	BindCount     int
	NotCount      int

	// Derived holds predicates produced by some rule head; Base
	// holds predicates only ever read.
	Derived []string
	Base    []string

	// Strata maps stratum index to the number of rules in it;
	// empty when stratification failed.
	Strata []int
}

// Analyze inspects a rule set and, when it stratifies, its layering.
func Analyze(rs *ast.RuleSet) *RuleSetAnalysis {
	a := &RuleSetAnalysis{
		rs:        rs,
		RuleCount: len(rs.Rules),
	}

	derived := make(map[string]bool)
	read := make(map[string]bool)
	for _, r := range rs.Rules {
		a.TemplateCount += len(r.Head)
		for _, t := range r.Head {
			derived[slotPredicate(t.P)] = true
		}
		countBody(a, r.Body, read)
	}

	for p := range derived {
		a.Derived = append(a.Derived, p)
	}
	for p := range read {
		if !derived[p] {
			a.Base = append(a.Base, p)
		}
	}
	sort.Strings(a.Derived)
	sort.Strings(a.Base)

	strat, err := engine.Stratify(rs)
	if err != nil {
		a.Errors = append(a.Errors, err.Error())
		return a
	}
	for _, stratum := range strat.Strata {
		a.Strata = append(a.Strata, len(stratum))
	}
	return a
}

func countBody(a *RuleSetAnalysis, body []ast.BodyElement, read map[string]bool) {
	for _, el := range body {
		switch e := el.(type) {
		case ast.TriplePattern:
			a.PatternCount++
			read[slotPredicate(e.P)] = true
		case ast.Filter:
			a.FilterCount++
		case ast.Bind:
			a.BindCount++
		case ast.Not:
			a.NotCount++
			countBody(a, e.Body, read)
		}
	}
}

func slotPredicate(s ast.Slot) string {
	if c, is := s.(ast.Const); is {
		return c.Term.String()
	}
	return engine.Wildcard
}

// Summary renders a short plain-text report.
func (a *RuleSetAnalysis) Summary() string {
	s := fmt.Sprintf("%d rules, %d head templates, %d patterns, %d filters, %d binds, %d negations\n",
		a.RuleCount, a.TemplateCount, a.PatternCount, a.FilterCount, a.BindCount, a.NotCount)
	s += fmt.Sprintf("derived predicates: %d, base predicates: %d\n", len(a.Derived), len(a.Base))
	for _, e := range a.Errors {
		s += "error: " + e + "\n"
	}
	if len(a.Errors) > 0 {
		return s
	}
	s += fmt.Sprintf("strata: %d", len(a.Strata))
	for i, n := range a.Strata {
		s += fmt.Sprintf(" [%d]=%d", i, n)
	}
	return s + "\n"
}
