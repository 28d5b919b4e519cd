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
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rdforge/srl/ast"
	"github.com/rdforge/srl/rdf"
)

// Eval evaluates an expression against a solution mapping.
//
// The result is a term, an unbound (errUnbound), or a *TypeError.
// Unbound and type errors are in-band values: they propagate to the
// nearest FILTER or BIND boundary, never out of the engine.
func Eval(e ast.Expr, mu Mapping, ctx *EvalContext) (rdf.Term, error) {
	switch ee := e.(type) {
	case ast.Const:
		return ee.Term, nil
	case ast.Var:
		if t, ok := mu.Get(ee.Name); ok {
			return t, nil
		}
		return nil, errUnbound
	case ast.BinaryExpr:
		return evalBinary(ee, mu, ctx)
	case ast.UnaryExpr:
		return evalUnary(ee, mu, ctx)
	case ast.Call:
		return evalCall(ee, mu, ctx)
	case ast.FuncCall:
		return evalFuncCall(ee, mu, ctx)
	default:
		return nil, typeErrorf("unknown expression %T", e)
	}
}

// EBV computes the effective boolean value of a term.
//
// Booleans give their value, numerics are false iff zero or NaN,
// strings are false iff empty.  Everything else, including IRIs and
// blank nodes, is a type error, not false.
func EBV(t rdf.Term) (bool, error) {
	l, is := t.(rdf.Literal)
	if !is {
		return false, typeErrorf("no boolean value for %s", t)
	}
	switch {
	case l.Datatype == rdf.XSDBoolean:
		switch l.Lexical {
		case "true", "1":
			return true, nil
		case "false", "0":
			return false, nil
		}
		return false, typeErrorf("malformed boolean %q", l.Lexical)
	case isNumericDatatype(l.Datatype):
		n, ok := numericOf(l)
		if !ok {
			return false, typeErrorf("malformed numeric %q", l.Lexical)
		}
		if n.kind == numInteger {
			return n.i != 0, nil
		}
		return n.f != 0 && !math.IsNaN(n.f), nil
	case l.Datatype == "" || l.Datatype == rdf.XSDString:
		return l.Lexical != "", nil
	}
	return false, typeErrorf("no boolean value for %s", t)
}

// evalEBV evaluates an expression and takes its EBV, folding
// evaluation errors in.
func evalEBV(e ast.Expr, mu Mapping, ctx *EvalContext) (bool, error) {
	t, err := Eval(e, mu, ctx)
	if err != nil {
		return false, err
	}
	return EBV(t)
}

func evalBinary(e ast.BinaryExpr, mu Mapping, ctx *EvalContext) (rdf.Term, error) {
	switch e.Op {
	case ast.OpAnd:
		// Three-valued: false wins over error.
		lb, lerr := evalEBV(e.LHS, mu, ctx)
		if lerr == nil && !lb {
			return rdf.NewBoolean(false), nil
		}
		rb, rerr := evalEBV(e.RHS, mu, ctx)
		if rerr == nil && !rb {
			return rdf.NewBoolean(false), nil
		}
		if lerr != nil {
			return nil, lerr
		}
		if rerr != nil {
			return nil, rerr
		}
		return rdf.NewBoolean(true), nil
	case ast.OpOr:
		// Three-valued: true wins over error.
		lb, lerr := evalEBV(e.LHS, mu, ctx)
		if lerr == nil && lb {
			return rdf.NewBoolean(true), nil
		}
		rb, rerr := evalEBV(e.RHS, mu, ctx)
		if rerr == nil && rb {
			return rdf.NewBoolean(true), nil
		}
		if lerr != nil {
			return nil, lerr
		}
		if rerr != nil {
			return nil, rerr
		}
		return rdf.NewBoolean(false), nil
	}

	lhs, err := Eval(e.LHS, mu, ctx)
	if err != nil {
		return nil, err
	}
	rhs, err := Eval(e.RHS, mu, ctx)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case ast.OpEq:
		eq, err := equalTerms(lhs, rhs)
		if err != nil {
			return nil, err
		}
		return rdf.NewBoolean(eq), nil
	case ast.OpNe:
		eq, err := equalTerms(lhs, rhs)
		if err != nil {
			return nil, err
		}
		return rdf.NewBoolean(!eq), nil
	case ast.OpLt, ast.OpGt, ast.OpLe, ast.OpGe:
		c, err := compareTerms(lhs, rhs)
		if err != nil {
			return nil, err
		}
		var b bool
		switch e.Op {
		case ast.OpLt:
			b = c < 0
		case ast.OpGt:
			b = c > 0
		case ast.OpLe:
			b = c <= 0
		case ast.OpGe:
			b = c >= 0
		}
		return rdf.NewBoolean(b), nil
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv:
		return arith(e.Op, lhs, rhs)
	default:
		return nil, typeErrorf("unknown operator %q", e.Op)
	}
}

func evalUnary(e ast.UnaryExpr, mu Mapping, ctx *EvalContext) (rdf.Term, error) {
	switch e.Op {
	case ast.OpNot:
		b, err := evalEBV(e.Arg, mu, ctx)
		if err != nil {
			return nil, err
		}
		return rdf.NewBoolean(!b), nil
	case ast.OpPlus, ast.OpMinus:
		t, err := Eval(e.Arg, mu, ctx)
		if err != nil {
			return nil, err
		}
		n, ok := asNumeric(t)
		if !ok {
			return nil, typeErrorf("unary %q needs a numeric, got %s", e.Op, t)
		}
		if e.Op == ast.OpMinus {
			n.i = -n.i
			n.f = -n.f
		}
		return n.literal(), nil
	default:
		return nil, typeErrorf("unknown unary operator %q", e.Op)
	}
}

// Special-form built-ins control the evaluation of their own
// arguments; everything else goes through the registry with arguments
// evaluated eagerly.
func evalCall(e ast.Call, mu Mapping, ctx *EvalContext) (rdf.Term, error) {
	switch e.Name {
	case "BOUND":
		// BOUND is the only built-in that sees unbound without
		// turning it into an error.
		if len(e.Args) != 1 {
			return nil, typeErrorf("BOUND takes 1 argument")
		}
		v, is := e.Args[0].(ast.Var)
		if !is {
			return nil, typeErrorf("BOUND takes a variable")
		}
		return rdf.NewBoolean(mu.Bound(v.Name)), nil
	case "IF":
		if len(e.Args) != 3 {
			return nil, typeErrorf("IF takes 3 arguments")
		}
		b, err := evalEBV(e.Args[0], mu, ctx)
		if err != nil {
			return nil, err
		}
		if b {
			return Eval(e.Args[1], mu, ctx)
		}
		return Eval(e.Args[2], mu, ctx)
	case "COALESCE":
		for _, a := range e.Args {
			if t, err := Eval(a, mu, ctx); err == nil {
				return t, nil
			}
		}
		return nil, typeErrorf("COALESCE: no argument evaluated")
	case "IN", "NOT IN":
		if len(e.Args) < 1 {
			return nil, typeErrorf("%s takes at least 1 argument", e.Name)
		}
		probe, err := Eval(e.Args[0], mu, ctx)
		if err != nil {
			return nil, err
		}
		found := false
		for _, a := range e.Args[1:] {
			t, err := Eval(a, mu, ctx)
			if err != nil {
				continue
			}
			if eq, err := equalTerms(probe, t); err == nil && eq {
				found = true
				break
			}
		}
		if e.Name == "NOT IN" {
			found = !found
		}
		return rdf.NewBoolean(found), nil
	}

	b, have := builtins[e.Name]
	if !have {
		return nil, typeErrorf("unknown built-in %s", e.Name)
	}
	if len(e.Args) < b.MinArgs || (b.MaxArgs >= 0 && len(e.Args) > b.MaxArgs) {
		return nil, typeErrorf("%s: wrong arity %d", e.Name, len(e.Args))
	}
	args := make([]rdf.Term, len(e.Args))
	for i, a := range e.Args {
		t, err := Eval(a, mu, ctx)
		if err != nil {
			return nil, err
		}
		args[i] = t
	}
	return b.Fn(ctx, args)
}

func evalFuncCall(e ast.FuncCall, mu Mapping, ctx *EvalContext) (rdf.Term, error) {
	f, have := ctx.Funcs.Lookup(e.IRI)
	if !have {
		return nil, typeErrorf("unknown function %s", e.IRI)
	}
	args := make([]rdf.Term, len(e.Args))
	for i, a := range e.Args {
		t, err := Eval(a, mu, ctx)
		if err != nil {
			return nil, err
		}
		args[i] = t
	}
	t, err := f.Call(args)
	if err != nil {
		return nil, typeErrorf("%s: %v", e.IRI, err)
	}
	return t, nil
}

// equalTerms implements the '=' operator: value comparison over
// numerics, booleans, strings, and dateTimes; term equality for IRIs
// and blank nodes.  Literals with incomparable datatypes are a type
// error; terms of different kinds are simply unequal.
func equalTerms(a, b rdf.Term) (bool, error) {
	if a == b {
		return true, nil
	}
	la, aIsLit := a.(rdf.Literal)
	lb, bIsLit := b.(rdf.Literal)
	if !aIsLit || !bIsLit {
		return false, nil
	}
	if na, ok := numericOf(la); ok {
		if nb, ok := numericOf(lb); ok {
			return numCompare(na, nb) == 0, nil
		}
	}
	if la.Datatype == rdf.XSDBoolean && lb.Datatype == rdf.XSDBoolean {
		return la.Lexical == lb.Lexical, nil
	}
	if isStringLiteral(la) && isStringLiteral(lb) {
		return la.Lexical == lb.Lexical && la.Lang == lb.Lang, nil
	}
	if la.Datatype == rdf.XSDDateTime && lb.Datatype == rdf.XSDDateTime {
		ta, err := parseDateTime(la.Lexical)
		if err != nil {
			return false, err
		}
		tb, err := parseDateTime(lb.Lexical)
		if err != nil {
			return false, err
		}
		return ta.Equal(tb), nil
	}
	if la.Datatype == lb.Datatype {
		return false, nil
	}
	return false, typeErrorf("cannot compare %s and %s", a, b)
}

// compareTerms implements the ordering operators over numerics,
// booleans, strings, and dateTimes.
func compareTerms(a, b rdf.Term) (int, error) {
	la, aIsLit := a.(rdf.Literal)
	lb, bIsLit := b.(rdf.Literal)
	if !aIsLit || !bIsLit {
		return 0, typeErrorf("cannot order %s and %s", a, b)
	}
	if na, ok := numericOf(la); ok {
		if nb, ok := numericOf(lb); ok {
			return numCompare(na, nb), nil
		}
	}
	if isStringLiteral(la) && isStringLiteral(lb) {
		return strings.Compare(la.Lexical, lb.Lexical), nil
	}
	if la.Datatype == rdf.XSDBoolean && lb.Datatype == rdf.XSDBoolean {
		return strings.Compare(boolRank(la.Lexical), boolRank(lb.Lexical)), nil
	}
	if la.Datatype == rdf.XSDDateTime && lb.Datatype == rdf.XSDDateTime {
		ta, err := parseDateTime(la.Lexical)
		if err != nil {
			return 0, err
		}
		tb, err := parseDateTime(lb.Lexical)
		if err != nil {
			return 0, err
		}
		switch {
		case ta.Before(tb):
			return -1, nil
		case ta.After(tb):
			return 1, nil
		}
		return 0, nil
	}
	return 0, typeErrorf("cannot order %s and %s", a, b)
}

func boolRank(lex string) string {
	if lex == "true" || lex == "1" {
		return "1"
	}
	return "0"
}

func isStringLiteral(l rdf.Literal) bool {
	return l.Datatype == "" || l.Datatype == rdf.XSDString
}

// Numeric promotion lattice: integer ⊂ decimal ⊂ float ⊂ double.

type numKind int

const (
	numInteger numKind = iota
	numDecimal
	numFloat
	numDouble
)

type numeric struct {
	kind numKind
	i    int64
	f    float64
}

func isNumericDatatype(dt rdf.IRI) bool {
	switch dt {
	case rdf.XSDInteger, rdf.XSDDecimal, rdf.XSDFloat, rdf.XSDDouble,
		rdf.XSDInt, rdf.XSDLong, rdf.XSDShort, rdf.XSDByte,
		rdf.XSDNonNegativeInteger, rdf.XSDPositiveInteger, rdf.XSDNegativeInteger:
		return true
	}
	return false
}

func numericOf(l rdf.Literal) (numeric, bool) {
	switch l.Datatype {
	case rdf.XSDInteger, rdf.XSDInt, rdf.XSDLong, rdf.XSDShort, rdf.XSDByte,
		rdf.XSDNonNegativeInteger, rdf.XSDPositiveInteger, rdf.XSDNegativeInteger:
		i, err := strconv.ParseInt(l.Lexical, 10, 64)
		if err != nil {
			return numeric{}, false
		}
		return numeric{kind: numInteger, i: i, f: float64(i)}, true
	case rdf.XSDDecimal:
		f, err := strconv.ParseFloat(l.Lexical, 64)
		if err != nil {
			return numeric{}, false
		}
		return numeric{kind: numDecimal, f: f}, true
	case rdf.XSDFloat:
		f, err := strconv.ParseFloat(l.Lexical, 64)
		if err != nil {
			return numeric{}, false
		}
		return numeric{kind: numFloat, f: f}, true
	case rdf.XSDDouble:
		f, err := strconv.ParseFloat(l.Lexical, 64)
		if err != nil {
			return numeric{}, false
		}
		return numeric{kind: numDouble, f: f}, true
	}
	return numeric{}, false
}

func asNumeric(t rdf.Term) (numeric, bool) {
	l, is := t.(rdf.Literal)
	if !is {
		return numeric{}, false
	}
	return numericOf(l)
}

func (n numeric) literal() rdf.Literal {
	switch n.kind {
	case numInteger:
		return rdf.NewInteger(n.i)
	case numDecimal:
		return rdf.NewDecimal(n.f)
	case numFloat:
		return rdf.NewTyped(strconv.FormatFloat(n.f, 'g', -1, 64), rdf.XSDFloat)
	default:
		return rdf.NewDouble(n.f)
	}
}

func promote(a, b numKind) numKind {
	if a > b {
		return a
	}
	return b
}

func numCompare(a, b numeric) int {
	if a.kind == numInteger && b.kind == numInteger {
		switch {
		case a.i < b.i:
			return -1
		case a.i > b.i:
			return 1
		}
		return 0
	}
	switch {
	case a.f < b.f:
		return -1
	case a.f > b.f:
		return 1
	}
	return 0
}

func arith(op string, lhs, rhs rdf.Term) (rdf.Term, error) {
	a, okA := asNumeric(lhs)
	b, okB := asNumeric(rhs)
	if !okA || !okB {
		return nil, typeErrorf("%q needs numeric operands, got %s and %s", op, lhs, rhs)
	}
	kind := promote(a.kind, b.kind)
	if op == ast.OpDiv {
		if (b.kind == numInteger && b.i == 0) || (b.kind != numInteger && b.f == 0) {
			return nil, typeErrorf("division by zero")
		}
		// Integer division yields a decimal.
		if kind == numInteger {
			kind = numDecimal
		}
		return numeric{kind: kind, f: a.f / b.f}.literal(), nil
	}
	if kind == numInteger {
		var i int64
		switch op {
		case ast.OpAdd:
			i = a.i + b.i
		case ast.OpSub:
			i = a.i - b.i
		case ast.OpMul:
			i = a.i * b.i
		}
		return rdf.NewInteger(i), nil
	}
	var f float64
	switch op {
	case ast.OpAdd:
		f = a.f + b.f
	case ast.OpSub:
		f = a.f - b.f
	case ast.OpMul:
		f = a.f * b.f
	}
	return numeric{kind: kind, f: f}.literal(), nil
}

func parseDateTime(lex string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, lex); err == nil {
			return t, nil
		}
	}
	return time.Time{}, typeErrorf("malformed dateTime %q", lex)
}
