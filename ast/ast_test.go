package ast

import (
	"testing"

	"github.com/rdforge/srl/rdf"
)

func TestHeadAndPositiveVars(t *testing.T) {
	p := Const{Term: rdf.IRI("http://example.org/p")}
	r := &Rule{
		Head: []TripleTemplate{{S: Var{Name: "x"}, P: p, O: Var{Name: "n"}}},
		Body: []BodyElement{
			TriplePattern{S: Var{Name: "x"}, P: p, O: Var{Name: "y"}},
			Bind{Var: Var{Name: "n"}, Expr: Var{Name: "y"}},
			Not{Body: []BodyElement{
				TriplePattern{S: Var{Name: "x"}, P: p, O: Var{Name: "hidden"}},
			}},
		},
	}

	head := r.HeadVars()
	if !head["x"] || !head["n"] || len(head) != 2 {
		t.Fatalf("HeadVars = %v", head)
	}

	pos := r.PositiveVars()
	if !pos["x"] || !pos["y"] || !pos["n"] {
		t.Fatalf("PositiveVars = %v", pos)
	}
	// Variables inside NOT do not bind.
	if pos["hidden"] {
		t.Fatal("NOT-scoped variables must not count as positive")
	}
}

func TestFormatExpr(t *testing.T) {
	e := BinaryExpr{
		Op:  OpAnd,
		LHS: Call{Name: "BOUND", Args: []Expr{Var{Name: "x"}}},
		RHS: UnaryExpr{Op: OpNot, Arg: Var{Name: "y"}},
	}
	want := "(BOUND(?x) && !?y)"
	if got := FormatExpr(e); got != want {
		t.Fatalf("FormatExpr = %q, want %q", got, want)
	}
}
