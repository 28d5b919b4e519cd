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

// Package funcs provides the registry for custom expression functions.
//
// A rule body may call a function by IRI.  The engine resolves the IRI
// through a Registry at evaluation time; an unregistered IRI is a type
// error local to the solution mapping being evaluated.  New functions
// never touch the engine core.
package funcs

import "github.com/rdforge/srl/rdf"

// A Func is a custom function callable from rule expressions.
// Arguments arrive fully evaluated.  A Func returns a term or an
// error; errors are treated as expression type errors.
type Func interface {
	Call(args []rdf.Term) (rdf.Term, error)
}

// FuncOf adapts a plain function to the Func interface.
type FuncOf func(args []rdf.Term) (rdf.Term, error)

func (f FuncOf) Call(args []rdf.Term) (rdf.Term, error) {
	return f(args)
}

// Registry maps function IRIs to implementations.
type Registry struct {
	m map[rdf.IRI]Func
}

// NewRegistry makes an empty registry.
func NewRegistry() *Registry {
	return &Registry{m: make(map[rdf.IRI]Func)}
}

// Register adds (or replaces) a function.
func (r *Registry) Register(iri rdf.IRI, f Func) {
	r.m[iri] = f
}

// Lookup resolves an IRI.
func (r *Registry) Lookup(iri rdf.IRI) (Func, bool) {
	if r == nil {
		return nil, false
	}
	f, have := r.m[iri]
	return f, have
}
