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

// Package ast defines the abstract syntax of SRL rule sets: terms,
// expressions, body elements, and rules.  All nodes are immutable
// after parsing.
package ast

import (
	"strings"

	"github.com/rdforge/srl/rdf"
)

// A Slot is a position in a triple pattern or template: a ground RDF
// term, a variable, or a blank-node label.
type Slot interface {
	isSlot()
	String() string
}

// Const is a ground RDF term used as a slot or expression.
type Const struct {
	Term rdf.Term
}

func (c Const) isSlot() {}
func (c Const) isExpr() {}

func (c Const) String() string { return c.Term.String() }

// Var is a variable.  Identity is by name.
type Var struct {
	Name string
}

func (v Var) isSlot() {}
func (v Var) isExpr() {}

func (v Var) String() string { return "?" + v.Name }

// Blank is a blank-node label.  In a rule head it denotes a fresh node
// per solution mapping; the parser rewrites body occurrences into
// pattern-scoped variables, so the engine only sees Blank in heads.
type Blank struct {
	Label string
}

func (b Blank) isSlot() {}

func (b Blank) String() string { return "_:" + b.Label }

// An Expr is an expression tree evaluated against a solution mapping.
type Expr interface {
	isExpr()
}

// Binary and unary operator names use their surface syntax.
const (
	OpOr  = "||"
	OpAnd = "&&"
	OpEq  = "="
	OpNe  = "!="
	OpLt  = "<"
	OpGt  = ">"
	OpLe  = "<="
	OpGe  = ">="
	OpAdd = "+"
	OpSub = "-"
	OpMul = "*"
	OpDiv = "/"

	OpNot   = "!"
	OpPlus  = "+"
	OpMinus = "-"
)

// BinaryExpr is a binary operation.
type BinaryExpr struct {
	Op  string
	LHS Expr
	RHS Expr
}

func (BinaryExpr) isExpr() {}

// UnaryExpr is a unary operation.
type UnaryExpr struct {
	Op  string
	Arg Expr
}

func (UnaryExpr) isExpr() {}

// Call is an invocation of a built-in function by name (CONCAT,
// STRLEN, ...).  Names are stored uppercased.
type Call struct {
	Name string
	Args []Expr
}

func (Call) isExpr() {}

// FuncCall is an invocation of a custom function identified by IRI.
// Custom functions are resolved through a funcs.Registry at evaluation
// time.
type FuncCall struct {
	IRI  rdf.IRI
	Args []Expr
}

func (FuncCall) isExpr() {}

// A BodyElement is one element of a rule body, processed left to
// right.
type BodyElement interface {
	isBodyElement()
}

// TriplePattern matches triples in the working graph.
type TriplePattern struct {
	S, P, O Slot
}

func (TriplePattern) isBodyElement() {}

func (p TriplePattern) String() string {
	return p.S.String() + " " + p.P.String() + " " + p.O.String() + " ."
}

// Filter keeps only solution mappings whose expression has an
// effective boolean value of true.
type Filter struct {
	Expr Expr
}

func (Filter) isBodyElement() {}

// Bind extends each solution mapping with a binding for Var.
type Bind struct {
	Var  Var
	Expr Expr
}

func (Bind) isBodyElement() {}

// Not removes solution mappings for which the nested body matches.
type Not struct {
	Body []BodyElement
}

func (Not) isBodyElement() {}

// TripleTemplate is one triple of a rule head.
type TripleTemplate struct {
	S, P, O Slot
}

func (t TripleTemplate) String() string {
	return t.S.String() + " " + t.P.String() + " " + t.O.String() + " ."
}

// Rule is a single rule: a non-empty head of triple templates and a
// non-empty body.
type Rule struct {
	// Doc holds documentation comments immediately preceding the
	// rule in the source, if any.  Markdown.
	Doc string

	Head []TripleTemplate
	Body []BodyElement
}

// HeadVars returns the set of variable names used in the head.
func (r *Rule) HeadVars() map[string]bool {
	vars := make(map[string]bool)
	for _, t := range r.Head {
		for _, s := range []Slot{t.S, t.P, t.O} {
			if v, is := s.(Var); is {
				vars[v.Name] = true
			}
		}
	}
	return vars
}

// PositiveVars returns the variable names bound by a positive body
// element: a top-level triple pattern or a BIND target.  Variables
// inside NOT or on the right-hand side of BIND do not count.
func (r *Rule) PositiveVars() map[string]bool {
	vars := make(map[string]bool)
	for _, el := range r.Body {
		switch e := el.(type) {
		case TriplePattern:
			for _, s := range []Slot{e.S, e.P, e.O} {
				if v, is := s.(Var); is {
					vars[v.Name] = true
				}
			}
		case Bind:
			vars[e.Var.Name] = true
		}
	}
	return vars
}

// RuleSet is the unit of evaluation: an ordered list of rules plus the
// prologue's prefix map and any ground DATA triples from the source.
type RuleSet struct {
	Base     string
	Prefixes map[string]string
	Rules    []*Rule

	// Data holds ground triples from DATA blocks, inserted into
	// the working graph before evaluation.
	Data []rdf.Triple
}

// Namespaces builds a namespace manager from the rule set's prefixes.
func (rs *RuleSet) Namespaces() *rdf.Namespaces {
	ns := rdf.NewNamespaces()
	for p, n := range rs.Prefixes {
		ns.Register(p, n)
	}
	return ns
}

// FormatExpr renders an expression roughly in source syntax.  Used by
// diagnostics and documentation tools; not a pretty-printer.
func FormatExpr(e Expr) string {
	switch ee := e.(type) {
	case Const:
		return ee.Term.String()
	case Var:
		return ee.String()
	case BinaryExpr:
		return "(" + FormatExpr(ee.LHS) + " " + ee.Op + " " + FormatExpr(ee.RHS) + ")"
	case UnaryExpr:
		return ee.Op + FormatExpr(ee.Arg)
	case Call:
		args := make([]string, len(ee.Args))
		for i, a := range ee.Args {
			args[i] = FormatExpr(a)
		}
		return ee.Name + "(" + strings.Join(args, ", ") + ")"
	case FuncCall:
		args := make([]string, len(ee.Args))
		for i, a := range ee.Args {
			args[i] = FormatExpr(a)
		}
		return ee.IRI.String() + "(" + strings.Join(args, ", ") + ")"
	default:
		return "?"
	}
}
