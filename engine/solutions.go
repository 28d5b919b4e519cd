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
	"strings"

	"github.com/rdforge/srl/rdf"
)

// A Mapping is a solution mapping: a partial function from variable
// names to RDF terms.  Mappings are value types; once emitted they are
// never mutated.  Bindings are kept sorted by variable name, which
// makes most operations a simple merge and gives every mapping a
// canonical form.
type Mapping struct {
	bs []binding
}

type binding struct {
	v string
	t rdf.Term
}

// EmptyMapping is the mapping with empty domain.
var EmptyMapping = Mapping{}

// Get returns the term bound to the variable, if any.
func (m Mapping) Get(v string) (rdf.Term, bool) {
	i := sort.Search(len(m.bs), func(i int) bool { return m.bs[i].v >= v })
	if i < len(m.bs) && m.bs[i].v == v {
		return m.bs[i].t, true
	}
	return nil, false
}

// Bound reports whether the variable is in the mapping's domain.
func (m Mapping) Bound(v string) bool {
	_, have := m.Get(v)
	return have
}

// Len returns the size of the mapping's domain.
func (m Mapping) Len() int {
	return len(m.bs)
}

// Domain returns the sorted variable names of the mapping.
func (m Mapping) Domain() []string {
	acc := make([]string, len(m.bs))
	for i, b := range m.bs {
		acc[i] = b.v
	}
	return acc
}

// Extend returns a new mapping with the additional binding.  The
// receiver is not modified.  Extending an already-bound variable is a
// programming error; callers check Bound first.
func (m Mapping) Extend(v string, t rdf.Term) Mapping {
	i := sort.Search(len(m.bs), func(i int) bool { return m.bs[i].v >= v })
	bs := make([]binding, 0, len(m.bs)+1)
	bs = append(bs, m.bs[:i]...)
	bs = append(bs, binding{v: v, t: t})
	bs = append(bs, m.bs[i:]...)
	return Mapping{bs: bs}
}

// Compatible reports whether two mappings agree on every variable in
// the intersection of their domains.
func Compatible(a, b Mapping) bool {
	i, j := 0, 0
	for i < len(a.bs) && j < len(b.bs) {
		switch {
		case a.bs[i].v < b.bs[j].v:
			i++
		case a.bs[i].v > b.bs[j].v:
			j++
		default:
			if a.bs[i].t != b.bs[j].t {
				return false
			}
			i++
			j++
		}
	}
	return true
}

// sharesVar reports whether the two domains intersect.
func sharesVar(a, b Mapping) bool {
	i, j := 0, 0
	for i < len(a.bs) && j < len(b.bs) {
		switch {
		case a.bs[i].v < b.bs[j].v:
			i++
		case a.bs[i].v > b.bs[j].v:
			j++
		default:
			return true
		}
	}
	return false
}

// Merge unions two compatible mappings.  The second result is false if
// the mappings are incompatible.
func Merge(a, b Mapping) (Mapping, bool) {
	if !Compatible(a, b) {
		return Mapping{}, false
	}
	bs := make([]binding, 0, len(a.bs)+len(b.bs))
	i, j := 0, 0
	for i < len(a.bs) && j < len(b.bs) {
		switch {
		case a.bs[i].v < b.bs[j].v:
			bs = append(bs, a.bs[i])
			i++
		case a.bs[i].v > b.bs[j].v:
			bs = append(bs, b.bs[j])
			j++
		default:
			bs = append(bs, a.bs[i])
			i++
			j++
		}
	}
	bs = append(bs, a.bs[i:]...)
	bs = append(bs, b.bs[j:]...)
	return Mapping{bs: bs}, true
}

// Signature returns a canonical string form of the mapping, used to
// Skolemize head blank nodes.  Equal mappings have equal signatures.
func (m Mapping) Signature() string {
	var sb strings.Builder
	for _, b := range m.bs {
		sb.WriteString(b.v)
		sb.WriteByte('=')
		sb.WriteString(b.t.String())
		sb.WriteByte(';')
	}
	return sb.String()
}

func (m Mapping) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, b := range m.bs {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('?')
		sb.WriteString(b.v)
		sb.WriteString(" -> ")
		sb.WriteString(b.t.String())
	}
	sb.WriteByte('}')
	return sb.String()
}

// Omega is an ordered multiset of solution mappings.  Duplicates carry
// multiplicity; ordering is stable for a fixed graph and pattern.
type Omega []Mapping

// seed is the multiset {∅}: the seed of body evaluation.
func seed() Omega {
	return Omega{EmptyMapping}
}

// Join returns the multiset of all compatible merges of pairs drawn
// from the two operands.
func Join(o1, o2 Omega) Omega {
	var acc Omega
	for _, m1 := range o1 {
		for _, m2 := range o2 {
			if merged, ok := Merge(m1, m2); ok {
				acc = append(acc, merged)
			}
		}
	}
	return acc
}

// Minus implements SPARQL MINUS semantics: keep μ₁ unless some μ₂ is
// compatible with it and shares at least one variable.
func Minus(o1, o2 Omega) Omega {
	var acc Omega
	for _, m1 := range o1 {
		excluded := false
		for _, m2 := range o2 {
			if sharesVar(m1, m2) && Compatible(m1, m2) {
				excluded = true
				break
			}
		}
		if !excluded {
			acc = append(acc, m1)
		}
	}
	return acc
}
