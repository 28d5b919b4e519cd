package engine

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rdforge/srl/ast"
	"github.com/rdforge/srl/rdf"
)

func lit(t rdf.Term) ast.Expr {
	return ast.Const{Term: t}
}

func call(name string, args ...ast.Expr) ast.Expr {
	return ast.Call{Name: name, Args: args}
}

func evalT(t *testing.T, e ast.Expr, mu Mapping) rdf.Term {
	t.Helper()
	got, err := Eval(e, mu, NewEvalContext(time.Time{}))
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	return got
}

func evalErr(t *testing.T, e ast.Expr, mu Mapping) error {
	t.Helper()
	_, err := Eval(e, mu, NewEvalContext(time.Time{}))
	if err == nil {
		t.Fatal("expected an error")
	}
	return err
}

func TestEBV(t *testing.T) {
	tests := []struct {
		term rdf.Term
		want bool
		err  bool
	}{
		{rdf.NewBoolean(true), true, false},
		{rdf.NewBoolean(false), false, false},
		{rdf.NewInteger(0), false, false},
		{rdf.NewInteger(7), true, false},
		{rdf.NewDouble(0), false, false},
		{rdf.NewTyped("NaN", rdf.XSDDouble), false, false},
		{rdf.NewString(""), false, false},
		{rdf.NewString("x"), true, false},
		{rdf.IRI("http://example.org/x"), false, true},
		{rdf.Blank("b"), false, true},
		{rdf.NewTyped("2024-01-01", rdf.XSDDateTime), false, true},
	}
	for i, test := range tests {
		got, err := EBV(test.term)
		if test.err {
			if err == nil {
				t.Fatalf("case %d: expected an error", i)
			}
			continue
		}
		if err != nil {
			t.Fatalf("case %d: %v", i, err)
		}
		if got != test.want {
			t.Fatalf("case %d: EBV = %v", i, got)
		}
	}
}

// erroring is an expression guaranteed to produce a type error.
var erroring = ast.BinaryExpr{Op: ast.OpDiv, LHS: lit(rdf.NewInteger(1)), RHS: lit(rdf.NewInteger(0))}

func TestThreeValuedLogic(t *testing.T) {
	boolean := func(b bool) ast.Expr { return lit(rdf.NewBoolean(b)) }

	// False wins over error for &&.
	got := evalT(t, ast.BinaryExpr{Op: ast.OpAnd, LHS: erroring, RHS: boolean(false)}, EmptyMapping)
	if got != rdf.NewBoolean(false) {
		t.Fatalf("error && false = %s", got)
	}
	// True wins over error for ||.
	got = evalT(t, ast.BinaryExpr{Op: ast.OpOr, LHS: erroring, RHS: boolean(true)}, EmptyMapping)
	if got != rdf.NewBoolean(true) {
		t.Fatalf("error || true = %s", got)
	}
	// Otherwise the error propagates.
	evalErr(t, ast.BinaryExpr{Op: ast.OpAnd, LHS: erroring, RHS: boolean(true)}, EmptyMapping)
	evalErr(t, ast.BinaryExpr{Op: ast.OpOr, LHS: erroring, RHS: boolean(false)}, EmptyMapping)

	// Plain truth table still works.
	got = evalT(t, ast.BinaryExpr{Op: ast.OpAnd, LHS: boolean(true), RHS: boolean(true)}, EmptyMapping)
	if got != rdf.NewBoolean(true) {
		t.Fatalf("true && true = %s", got)
	}
	got = evalT(t, ast.UnaryExpr{Op: ast.OpNot, Arg: boolean(false)}, EmptyMapping)
	if got != rdf.NewBoolean(true) {
		t.Fatalf("!false = %s", got)
	}
}

func TestArithmeticPromotion(t *testing.T) {
	tests := []struct {
		op   string
		lhs  rdf.Term
		rhs  rdf.Term
		want rdf.Term
	}{
		{ast.OpAdd, rdf.NewInteger(2), rdf.NewInteger(3), rdf.NewInteger(5)},
		{ast.OpSub, rdf.NewInteger(2), rdf.NewInteger(3), rdf.NewInteger(-1)},
		{ast.OpMul, rdf.NewInteger(4), rdf.NewInteger(3), rdf.NewInteger(12)},
		{ast.OpAdd, rdf.NewInteger(1), rdf.NewTyped("0.5", rdf.XSDDecimal), rdf.NewDecimal(1.5)},
		{ast.OpMul, rdf.NewTyped("2", rdf.XSDDouble), rdf.NewInteger(3), rdf.NewDouble(6)},
		// Integer division promotes to decimal.
		{ast.OpDiv, rdf.NewInteger(7), rdf.NewInteger(2), rdf.NewDecimal(3.5)},
	}
	for i, test := range tests {
		got := evalT(t, ast.BinaryExpr{Op: test.op, LHS: lit(test.lhs), RHS: lit(test.rhs)}, EmptyMapping)
		if got != test.want {
			t.Fatalf("case %d: got %s, want %s", i, got, test.want)
		}
	}

	evalErr(t, ast.BinaryExpr{Op: ast.OpDiv, LHS: lit(rdf.NewInteger(1)), RHS: lit(rdf.NewInteger(0))}, EmptyMapping)
	evalErr(t, ast.BinaryExpr{Op: ast.OpAdd, LHS: lit(rdf.NewString("x")), RHS: lit(rdf.NewInteger(1))}, EmptyMapping)

	got := evalT(t, ast.UnaryExpr{Op: ast.OpMinus, Arg: lit(rdf.NewInteger(5))}, EmptyMapping)
	if got != rdf.NewInteger(-5) {
		t.Fatalf("unary minus = %s", got)
	}
}

func TestComparisons(t *testing.T) {
	tests := []struct {
		op   string
		lhs  rdf.Term
		rhs  rdf.Term
		want bool
	}{
		{ast.OpEq, rdf.NewInteger(2), rdf.NewInteger(2), true},
		// Value equality across numeric datatypes.
		{ast.OpEq, rdf.NewInteger(2), rdf.NewTyped("2.0", rdf.XSDDecimal), true},
		{ast.OpNe, rdf.NewInteger(2), rdf.NewInteger(3), true},
		{ast.OpLt, rdf.NewInteger(2), rdf.NewInteger(3), true},
		{ast.OpGe, rdf.NewInteger(3), rdf.NewInteger(3), true},
		{ast.OpLt, rdf.NewString("a"), rdf.NewString("b"), true},
		{ast.OpEq, iri("x"), iri("x"), true},
		{ast.OpNe, iri("x"), iri("y"), true},
		// Different kinds are unequal, not an error.
		{ast.OpNe, iri("x"), rdf.NewString("x"), true},
		{ast.OpLt,
			rdf.NewTyped("2024-01-01T00:00:00Z", rdf.XSDDateTime),
			rdf.NewTyped("2024-06-01T00:00:00Z", rdf.XSDDateTime), true},
	}
	for i, test := range tests {
		got := evalT(t, ast.BinaryExpr{Op: test.op, LHS: lit(test.lhs), RHS: lit(test.rhs)}, EmptyMapping)
		if got != rdf.NewBoolean(test.want) {
			t.Fatalf("case %d: got %s", i, got)
		}
	}

	// Ordering IRIs is a type error.
	evalErr(t, ast.BinaryExpr{Op: ast.OpLt, LHS: lit(iri("x")), RHS: lit(iri("y"))}, EmptyMapping)
}

func TestBoundAndUnbound(t *testing.T) {
	mu := EmptyMapping.Extend("x", iri("a"))

	if got := evalT(t, call("BOUND", ast.Var{Name: "x"}), mu); got != rdf.NewBoolean(true) {
		t.Fatalf("BOUND(?x) = %s", got)
	}
	if got := evalT(t, call("BOUND", ast.Var{Name: "nope"}), mu); got != rdf.NewBoolean(false) {
		t.Fatalf("BOUND(?nope) = %s", got)
	}

	// A bare unbound variable is Unbound, not a TypeError.
	err := evalErr(t, ast.Var{Name: "nope"}, mu)
	if !errors.Is(err, errUnbound) {
		t.Fatalf("unbound variable: %v", err)
	}
}

func TestStringBuiltins(t *testing.T) {
	str := func(s string) ast.Expr { return lit(rdf.NewString(s)) }
	tests := []struct {
		expr ast.Expr
		want rdf.Term
	}{
		{call("CONCAT", str("John"), str(" "), str("Doe")), rdf.NewString("John Doe")},
		{call("STRLEN", str("chat")), rdf.NewInteger(4)},
		{call("SUBSTR", str("foobar"), lit(rdf.NewInteger(4))), rdf.NewString("bar")},
		{call("SUBSTR", str("foobar"), lit(rdf.NewInteger(1)), lit(rdf.NewInteger(3))), rdf.NewString("foo")},
		{call("UCASE", str("foo")), rdf.NewString("FOO")},
		{call("LCASE", str("BAR")), rdf.NewString("bar")},
		{call("STRSTARTS", str("foobar"), str("foo")), rdf.NewBoolean(true)},
		{call("STRENDS", str("foobar"), str("bar")), rdf.NewBoolean(true)},
		{call("CONTAINS", str("foobar"), str("oba")), rdf.NewBoolean(true)},
		{call("STRBEFORE", str("abc"), str("b")), rdf.NewString("a")},
		{call("STRAFTER", str("abc"), str("b")), rdf.NewString("c")},
		{call("REPLACE", str("abcabc"), str("b"), str("Z")), rdf.NewString("aZcaZc")},
		{call("REPLACE", str("ABC"), str("b"), str("x"), str("i")), rdf.NewString("AxC")},
		{call("REGEX", str("foobar"), str("^foo")), rdf.NewBoolean(true)},
		{call("REGEX", str("FOO"), str("foo"), str("i")), rdf.NewBoolean(true)},
		{call("ENCODE_FOR_URI", str("a b/c")), rdf.NewString("a%20b%2Fc")},
	}
	for i, test := range tests {
		got := evalT(t, test.expr, EmptyMapping)
		if got != test.want {
			t.Fatalf("case %d: got %s, want %s", i, got, test.want)
		}
	}

	// STRLEN of an IRI violates the argument contract.
	evalErr(t, call("STRLEN", lit(iri("x"))), EmptyMapping)
	// Wrong arity.
	evalErr(t, call("STRLEN"), EmptyMapping)
}

func TestTermBuiltinsAndRoundTripLaws(t *testing.T) {
	// STR(IRI(s)) = s
	got := evalT(t, call("STR", call("IRI", lit(rdf.NewString("http://example.org/x")))), EmptyMapping)
	if got != rdf.NewString("http://example.org/x") {
		t.Fatalf("STR(IRI(s)) = %s", got)
	}

	// DATATYPE(STRDT(lex, dt)) = dt
	got = evalT(t, call("DATATYPE", call("STRDT", lit(rdf.NewString("5")), lit(rdf.XSDInteger))), EmptyMapping)
	if got != rdf.XSDInteger {
		t.Fatalf("DATATYPE(STRDT) = %s", got)
	}

	// LANG(STRLANG(lex, tag)) = lowercase(tag)
	got = evalT(t, call("LANG", call("STRLANG", lit(rdf.NewString("chat")), lit(rdf.NewString("EN")))), EmptyMapping)
	if got != rdf.NewString("en") {
		t.Fatalf("LANG(STRLANG) = %s", got)
	}

	if got := evalT(t, call("DATATYPE", lit(rdf.NewLangString("x", "en"))), EmptyMapping); got != rdf.RDFLangString {
		t.Fatalf("DATATYPE of lang literal = %s", got)
	}

	if got := evalT(t, call("ISIRI", lit(iri("x"))), EmptyMapping); got != rdf.NewBoolean(true) {
		t.Fatalf("ISIRI = %s", got)
	}
	if got := evalT(t, call("ISLITERAL", lit(iri("x"))), EmptyMapping); got != rdf.NewBoolean(false) {
		t.Fatalf("ISLITERAL = %s", got)
	}
	if got := evalT(t, call("ISNUMERIC", lit(rdf.NewInteger(1))), EmptyMapping); got != rdf.NewBoolean(true) {
		t.Fatalf("ISNUMERIC = %s", got)
	}
	if got := evalT(t, call("ISBLANK", lit(rdf.Blank("b"))), EmptyMapping); got != rdf.NewBoolean(true) {
		t.Fatalf("ISBLANK = %s", got)
	}
	if got := evalT(t, call("SAMETERM", lit(iri("x")), lit(iri("x"))), EmptyMapping); got != rdf.NewBoolean(true) {
		t.Fatalf("SAMETERM = %s", got)
	}
}

func TestNumericBuiltins(t *testing.T) {
	tests := []struct {
		expr ast.Expr
		want rdf.Term
	}{
		{call("ABS", lit(rdf.NewInteger(-3))), rdf.NewInteger(3)},
		{call("ROUND", lit(rdf.NewTyped("2.5", rdf.XSDDecimal))), rdf.NewInteger(3)},
		{call("CEIL", lit(rdf.NewTyped("2.1", rdf.XSDDecimal))), rdf.NewInteger(3)},
		{call("FLOOR", lit(rdf.NewTyped("2.9", rdf.XSDDecimal))), rdf.NewInteger(2)},
	}
	for i, test := range tests {
		got := evalT(t, test.expr, EmptyMapping)
		if got != test.want {
			t.Fatalf("case %d: got %s, want %s", i, got, test.want)
		}
	}

	// RAND draws in [0, 1).
	got := evalT(t, call("RAND"), EmptyMapping)
	l, is := got.(rdf.Literal)
	if !is || l.Datatype != rdf.XSDDouble {
		t.Fatalf("RAND = %s", got)
	}
}

func TestDateTimeBuiltins(t *testing.T) {
	dt := lit(rdf.NewTyped("2024-03-05T14:30:45Z", rdf.XSDDateTime))
	tests := []struct {
		name string
		want rdf.Term
	}{
		{"YEAR", rdf.NewInteger(2024)},
		{"MONTH", rdf.NewInteger(3)},
		{"DAY", rdf.NewInteger(5)},
		{"HOURS", rdf.NewInteger(14)},
		{"MINUTES", rdf.NewInteger(30)},
		{"SECONDS", rdf.NewDecimal(45)},
	}
	for _, test := range tests {
		got := evalT(t, call(test.name, dt), EmptyMapping)
		if got != test.want {
			t.Fatalf("%s = %s, want %s", test.name, got, test.want)
		}
	}

	if got := evalT(t, call("TZ", dt), EmptyMapping); got != rdf.NewString("Z") {
		t.Fatalf("TZ = %s", got)
	}
	if got := evalT(t, call("TIMEZONE", dt), EmptyMapping); got != rdf.NewTyped("PT0S", rdf.XSDDayTimeDuration) {
		t.Fatalf("TIMEZONE = %s", got)
	}

	evalErr(t, call("YEAR", lit(rdf.NewString("not a date"))), EmptyMapping)
}

func TestNowIsStableWithinContext(t *testing.T) {
	fixed := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	ctx := NewEvalContext(fixed)

	a, err := Eval(call("NOW"), EmptyMapping, ctx)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Eval(call("NOW"), EmptyMapping, ctx)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatalf("NOW should be stable: %s vs %s", a, b)
	}
	if a != rdf.NewTyped("2024-03-05T12:00:00Z", rdf.XSDDateTime) {
		t.Fatalf("NOW = %s", a)
	}
}

func TestHashBuiltins(t *testing.T) {
	abc := lit(rdf.NewString("abc"))
	tests := []struct {
		name string
		want string
	}{
		{"MD5", "900150983cd24fb0d6963f7d28e17f72"},
		{"SHA1", "a9993e364706816aba3e25717850c26c9cd0d89d"},
		{"SHA256", "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
	}
	for _, test := range tests {
		got := evalT(t, call(test.name, abc), EmptyMapping)
		if got != rdf.NewString(test.want) {
			t.Fatalf("%s = %s", test.name, got)
		}
	}
	// The longer digests at least have the right size.
	for name, length := range map[string]int{"SHA384": 96, "SHA512": 128} {
		got := evalT(t, call(name, abc), EmptyMapping)
		if l := got.(rdf.Literal); len(l.Lexical) != length {
			t.Fatalf("%s digest length = %d", name, len(l.Lexical))
		}
	}
}

func TestSpecialForms(t *testing.T) {
	// IF evaluates only the taken branch.
	got := evalT(t, call("IF", lit(rdf.NewBoolean(true)), lit(iri("yes")), erroring), EmptyMapping)
	if got != iri("yes") {
		t.Fatalf("IF = %s", got)
	}
	// COALESCE skips errors.
	got = evalT(t, call("COALESCE", erroring, ast.Var{Name: "unbound"}, lit(iri("fallback"))), EmptyMapping)
	if got != iri("fallback") {
		t.Fatalf("COALESCE = %s", got)
	}
	// IN compares by value.
	got = evalT(t, call("IN", lit(rdf.NewInteger(2)), lit(rdf.NewInteger(1)), lit(rdf.NewInteger(2))), EmptyMapping)
	if got != rdf.NewBoolean(true) {
		t.Fatalf("IN = %s", got)
	}
}

func TestUUIDBuiltins(t *testing.T) {
	got := evalT(t, call("UUID"), EmptyMapping)
	u, is := got.(rdf.IRI)
	if !is || !strings.HasPrefix(string(u), "urn:uuid:") {
		t.Fatalf("UUID = %s", got)
	}
	a := evalT(t, call("STRUUID"), EmptyMapping)
	b := evalT(t, call("STRUUID"), EmptyMapping)
	if a == b {
		t.Fatal("STRUUID should draw fresh values")
	}
}
