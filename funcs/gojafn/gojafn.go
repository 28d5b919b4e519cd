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

// Package gojafn implements custom expression functions in
// ECMAScript using Goja, a Go implementation of ECMAScript 5.1+.
//
// A function source must evaluate to a function value, for example
//
//	function (a, b) { return a + "/" + b; }
//
// The source is compiled once; each invocation runs in a fresh
// runtime, so functions cannot accumulate state across solution
// mappings.
//
// See https://github.com/dop251/goja.
package gojafn

import (
	"errors"
	"fmt"
	"math"

	"github.com/dop251/goja"

	"github.com/rdforge/srl/funcs"
	"github.com/rdforge/srl/rdf"
)

// Function is a compiled ECMAScript custom function.
type Function struct {
	name string
	prog *goja.Program
}

// Compile compiles a function source.  The name is used in error
// messages and stack traces.
func Compile(name, src string) (*Function, error) {
	prog, err := goja.Compile(name, "("+src+")", true)
	if err != nil {
		return nil, err
	}
	return &Function{name: name, prog: prog}, nil
}

// Register compiles src and registers it under the given IRI.
func Register(reg *funcs.Registry, iri rdf.IRI, src string) error {
	f, err := Compile(string(iri), src)
	if err != nil {
		return err
	}
	reg.Register(iri, f)
	return nil
}

// Call invokes the function with the arguments converted to native
// ECMAScript values and converts the result back to an RDF term.
func (f *Function) Call(args []rdf.Term) (rdf.Term, error) {
	vm := goja.New()
	v, err := vm.RunProgram(f.prog)
	if err != nil {
		return nil, err
	}
	callable, ok := goja.AssertFunction(v)
	if !ok {
		return nil, fmt.Errorf("%s does not evaluate to a function", f.name)
	}
	vals := make([]goja.Value, len(args))
	for i, a := range args {
		vals[i] = vm.ToValue(nativeOf(a))
	}
	res, err := callable(goja.Undefined(), vals...)
	if err != nil {
		return nil, err
	}
	return termOf(res.Export())
}

// nativeOf converts a term to the value the script sees: literals
// become native booleans, numbers, or strings; IRIs and blank nodes
// become strings.
func nativeOf(t rdf.Term) interface{} {
	switch tt := t.(type) {
	case rdf.IRI:
		return string(tt)
	case rdf.Blank:
		return "_:" + string(tt)
	case rdf.Literal:
		switch tt.Datatype {
		case rdf.XSDBoolean:
			return tt.Lexical == "true" || tt.Lexical == "1"
		case rdf.XSDInteger, rdf.XSDInt, rdf.XSDLong, rdf.XSDShort, rdf.XSDByte,
			rdf.XSDDecimal, rdf.XSDFloat, rdf.XSDDouble:
			var fv float64
			if _, err := fmt.Sscanf(tt.Lexical, "%g", &fv); err == nil {
				return fv
			}
		}
		return tt.Lexical
	}
	return nil
}

func termOf(x interface{}) (rdf.Term, error) {
	switch v := x.(type) {
	case nil:
		return nil, errors.New("function returned no value")
	case bool:
		return rdf.NewBoolean(v), nil
	case string:
		return rdf.NewString(v), nil
	case int64:
		return rdf.NewInteger(v), nil
	case float64:
		if v == math.Trunc(v) && !math.IsInf(v, 0) {
			return rdf.NewInteger(int64(v)), nil
		}
		return rdf.NewDouble(v), nil
	default:
		return nil, fmt.Errorf("function returned unsupported value %T", x)
	}
}
