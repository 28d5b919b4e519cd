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

// Package testutil has small helpers shared by package tests.
package testutil

import (
	"testing"

	"github.com/rdforge/srl/ast"
	"github.com/rdforge/srl/parser"
	"github.com/rdforge/srl/rdf"
)

// EX is the example namespace most tests use.
const EX = "http://example.org/"

// IRI makes an example-namespace IRI from a local name.
func IRI(local string) rdf.IRI {
	return rdf.IRI(EX + local)
}

// T makes a triple of example-namespace IRIs.
func T(s, p, o string) rdf.Triple {
	return rdf.Triple{S: IRI(s), P: IRI(p), O: IRI(o)}
}

// Graph builds a MemGraph from triples.
func Graph(triples ...rdf.Triple) *rdf.MemGraph {
	g := rdf.NewMemGraph()
	for _, t := range triples {
		g.Insert(t)
	}
	return g
}

// Rules parses SRL source, failing the test on error.
func Rules(t *testing.T, src string) *ast.RuleSet {
	t.Helper()
	rs, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return rs
}

// ContainsAll fails the test unless g contains every triple.
func ContainsAll(t *testing.T, g rdf.Graph, triples ...rdf.Triple) {
	t.Helper()
	for _, tr := range triples {
		if !g.Contains(tr) {
			t.Fatalf("missing triple %s", tr)
		}
	}
}

// ContainsNone fails the test if g contains any of the triples.
func ContainsNone(t *testing.T, g rdf.Graph, triples ...rdf.Triple) {
	t.Helper()
	for _, tr := range triples {
		if g.Contains(tr) {
			t.Fatalf("unexpected triple %s", tr)
		}
	}
}
