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
	"crypto/sha1"
	"encoding/hex"

	"github.com/rdforge/srl/ast"
	"github.com/rdforge/srl/rdf"
)

// instantiateHead substitutes one solution mapping into a rule's head
// templates.
//
// Head blank-node labels are Skolemized: the fresh node for a given
// (rule, label, mapping) is deterministic, so re-deriving the same
// mapping in a later iteration yields the same node.  Without this,
// recursive rules with existential heads would mint new blank nodes
// forever and the fixpoint would never be reached.
//
// A template whose variable is unbound in mu is skipped; the other
// templates still emit.  Ill-formed triples are discarded with a
// diagnostic.
func instantiateHead(rule int, head []ast.TripleTemplate, mu Mapping, ctx *EvalContext) []rdf.Triple {
	var fresh map[string]rdf.Blank
	var acc []rdf.Triple

	for _, tpl := range head {
		var t rdf.Triple
		ok := true
		for i, slot := range [3]ast.Slot{tpl.S, tpl.P, tpl.O} {
			var term rdf.Term
			switch s := slot.(type) {
			case ast.Const:
				term = s.Term
			case ast.Var:
				bound, have := mu.Get(s.Name)
				if !have {
					ok = false
				}
				term = bound
			case ast.Blank:
				if fresh == nil {
					fresh = make(map[string]rdf.Blank, 1)
				}
				b, have := fresh[s.Label]
				if !have {
					b = skolem(rule, s.Label, mu)
					fresh[s.Label] = b
				}
				term = b
			}
			if !ok {
				break
			}
			switch i {
			case 0:
				t.S = term
			case 1:
				t.P = term
			case 2:
				t.O = term
			}
		}
		if !ok {
			continue
		}
		if !t.Valid() {
			ctx.diag(Diagnostic{
				Kind:    DiagInvalidTriple,
				Rule:    rule,
				Message: "discarded ill-formed triple " + t.String(),
			})
			continue
		}
		acc = append(acc, t)
	}
	return acc
}

// skolem allocates the deterministic fresh blank node for a head
// blank-node label under one solution mapping.
func skolem(rule int, label string, mu Mapping) rdf.Blank {
	h := sha1.New()
	h.Write([]byte{byte(rule), byte(rule >> 8)})
	h.Write([]byte(label))
	h.Write([]byte{0})
	h.Write([]byte(mu.Signature()))
	return rdf.Blank("sk" + hex.EncodeToString(h.Sum(nil))[:16])
}
