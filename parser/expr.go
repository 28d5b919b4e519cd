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

package parser

import (
	"strings"

	"github.com/rdforge/srl/ast"
	"github.com/rdforge/srl/engine"
	"github.com/rdforge/srl/rdf"
)

// parseConstraint parses a FILTER constraint: a bracketted expression
// or a (built-in or custom) function call.
func (p *parser) parseConstraint() (ast.Expr, error) {
	t := p.cur()
	if p.isPunct(t, "(") {
		p.next()
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return expr, nil
	}
	if t.kind == tokName || t.kind == tokIRIRef || t.kind == tokPName {
		return p.parsePrimary()
	}
	return nil, p.errorf(t, "expected a FILTER constraint")
}

// Precedence, loosest first: || && (comparison) (+ -) (* /) unary.

func (p *parser) parseExpr() (ast.Expr, error) {
	return p.parseOr()
}

func (p *parser) parseOr() (ast.Expr, error) {
	lhs, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isPunct(p.cur(), "||") {
		p.next()
		rhs, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		lhs = ast.BinaryExpr{Op: ast.OpOr, LHS: lhs, RHS: rhs}
	}
	return lhs, nil
}

func (p *parser) parseAnd() (ast.Expr, error) {
	lhs, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for p.isPunct(p.cur(), "&&") {
		p.next()
		rhs, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		lhs = ast.BinaryExpr{Op: ast.OpAnd, LHS: lhs, RHS: rhs}
	}
	return lhs, nil
}

func (p *parser) parseRelational() (ast.Expr, error) {
	lhs, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	t := p.cur()
	if t.kind == tokPunct {
		switch t.text {
		case "=", "!=", "<", ">", "<=", ">=":
			p.next()
			rhs, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			return ast.BinaryExpr{Op: t.text, LHS: lhs, RHS: rhs}, nil
		}
	}
	return lhs, nil
}

func (p *parser) parseAdditive() (ast.Expr, error) {
	lhs, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		t := p.cur()
		if !p.isPunct(t, "+") && !p.isPunct(t, "-") {
			return lhs, nil
		}
		p.next()
		rhs, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		lhs = ast.BinaryExpr{Op: t.text, LHS: lhs, RHS: rhs}
	}
}

func (p *parser) parseMultiplicative() (ast.Expr, error) {
	lhs, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.cur()
		if !p.isPunct(t, "*") && !p.isPunct(t, "/") {
			return lhs, nil
		}
		p.next()
		rhs, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		lhs = ast.BinaryExpr{Op: t.text, LHS: lhs, RHS: rhs}
	}
}

func (p *parser) parseUnary() (ast.Expr, error) {
	t := p.cur()
	if t.kind == tokPunct {
		switch t.text {
		case "!", "+", "-":
			p.next()
			arg, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			return ast.UnaryExpr{Op: t.text, Arg: arg}, nil
		}
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (ast.Expr, error) {
	t := p.next()
	switch t.kind {
	case tokPunct:
		if t.text == "(" {
			expr, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			return expr, nil
		}
	case tokVar:
		return ast.Var{Name: t.text}, nil
	case tokString:
		return ast.Const{Term: p.literalOf(t)}, nil
	case tokInteger:
		return ast.Const{Term: rdf.NewTyped(t.text, rdf.XSDInteger)}, nil
	case tokDecimal:
		return ast.Const{Term: rdf.NewTyped(t.text, rdf.XSDDecimal)}, nil
	case tokDouble:
		return ast.Const{Term: rdf.NewTyped(t.text, rdf.XSDDouble)}, nil
	case tokName:
		switch {
		case strings.EqualFold(t.text, "true"):
			return ast.Const{Term: rdf.NewBoolean(true)}, nil
		case strings.EqualFold(t.text, "false"):
			return ast.Const{Term: rdf.NewBoolean(false)}, nil
		}
		name := strings.ToUpper(t.text)
		if !engine.IsBuiltin(name) {
			return nil, p.errorf(t, "unknown function %q", t.text)
		}
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		return ast.Call{Name: name, Args: args}, nil
	case tokIRIRef, tokPName:
		var iri rdf.IRI
		if t.kind == tokIRIRef {
			iri = p.resolveIRI(t.text)
		} else {
			resolved, ok := p.ns.Expand(t.text)
			if !ok {
				return nil, p.errorf(t, "unknown prefix in %q", t.text)
			}
			iri = resolved
		}
		if p.isPunct(p.cur(), "(") {
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			return ast.FuncCall{IRI: iri, Args: args}, nil
		}
		return ast.Const{Term: iri}, nil
	}
	return nil, p.errorf(t, "expected an expression, got %q", t.text)
}

func (p *parser) parseArgs() ([]ast.Expr, error) {
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var args []ast.Expr
	if p.isPunct(p.cur(), ")") {
		p.next()
		return args, nil
	}
	for {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		t := p.next()
		if p.isPunct(t, ")") {
			return args, nil
		}
		if !p.isPunct(t, ",") {
			return nil, p.errorf(t, "expected ',' or ')' in argument list")
		}
	}
}
