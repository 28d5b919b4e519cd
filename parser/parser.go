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

// Package parser parses SRL source text into an ast.RuleSet.
//
// Three equivalent rule forms are accepted:
//
//	RULE { head } WHERE { body }
//	IF { body } THEN { head }
//	{ head } :- { body }
//
// plus PREFIX/BASE declarations, DATA blocks of ground triples, and
// the property declarations TRANSITIVE, SYMMETRIC, and INVERSE, which
// desugar into ordinary rules.
package parser

import (
	"fmt"
	"os"
	"strings"

	"github.com/rdforge/srl/ast"
	"github.com/rdforge/srl/rdf"
)

// ParseError is a syntax error with a source position.
type ParseError struct {
	Line int
	Col  int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d, column %d: %s", e.Line, e.Col, e.Msg)
}

// Parse parses SRL source text.
func Parse(src string) (*ast.RuleSet, error) {
	toks, err := newLexer(src).tokens()
	if err != nil {
		return nil, err
	}
	p := &parser{
		toks: toks,
		ns:   rdf.NewNamespaces(),
		rs: &ast.RuleSet{
			Prefixes: map[string]string{},
		},
	}
	if err := p.parseRuleSet(); err != nil {
		return nil, err
	}
	return p.rs, nil
}

// ParseFile parses an SRL file.
func ParseFile(path string) (*ast.RuleSet, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(bs))
}

type parser struct {
	toks []token
	pos  int

	ns *rdf.Namespaces
	rs *ast.RuleSet

	// bodyBlanks maps blank labels to pattern-scoped variables
	// while a rule body is being parsed.
	bodyBlanks map[string]ast.Var
}

func (p *parser) cur() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) errorf(t token, format string, args ...interface{}) error {
	return &ParseError{Line: t.line, Col: t.col, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) isName(t token, kw string) bool {
	return t.kind == tokName && strings.EqualFold(t.text, kw)
}

func (p *parser) isPunct(t token, s string) bool {
	return t.kind == tokPunct && t.text == s
}

func (p *parser) expectPunct(s string) error {
	t := p.next()
	if !p.isPunct(t, s) {
		return p.errorf(t, "expected %q", s)
	}
	return nil
}

func (p *parser) parseRuleSet() error {
	for {
		t := p.cur()
		switch {
		case t.kind == tokEOF:
			return nil
		case p.isName(t, "PREFIX"):
			if err := p.parsePrefix(); err != nil {
				return err
			}
		case p.isName(t, "BASE"):
			if err := p.parseBase(); err != nil {
				return err
			}
		case p.isName(t, "RULE"):
			if err := p.parseRuleHeadFirst(t.doc); err != nil {
				return err
			}
		case p.isName(t, "IF"):
			if err := p.parseRuleBodyFirst(t.doc); err != nil {
				return err
			}
		case p.isPunct(t, "{"):
			if err := p.parseRuleDatalog(t.doc); err != nil {
				return err
			}
		case p.isName(t, "DATA"):
			if err := p.parseData(); err != nil {
				return err
			}
		case p.isName(t, "TRANSITIVE"), p.isName(t, "SYMMETRIC"), p.isName(t, "INVERSE"):
			if err := p.parseDeclaration(); err != nil {
				return err
			}
		default:
			return p.errorf(t, "expected a rule, declaration, or prologue, got %q", t.text)
		}
	}
}

func (p *parser) parsePrefix() error {
	p.next() // PREFIX
	t := p.next()
	if t.kind != tokPName || !strings.HasSuffix(t.text, ":") {
		return p.errorf(t, "expected a prefix label like \"ex:\"")
	}
	label := strings.TrimSuffix(t.text, ":")
	iri := p.next()
	if iri.kind != tokIRIRef {
		return p.errorf(iri, "expected an IRI after PREFIX %s:", label)
	}
	ns := p.resolveIRI(iri.text)
	p.ns.Register(label, string(ns))
	p.rs.Prefixes[label] = string(ns)
	return nil
}

func (p *parser) parseBase() error {
	p.next() // BASE
	iri := p.next()
	if iri.kind != tokIRIRef {
		return p.errorf(iri, "expected an IRI after BASE")
	}
	p.rs.Base = iri.text
	return nil
}

// resolveIRI resolves a (possibly relative) IRI reference against the
// BASE declaration.
func (p *parser) resolveIRI(ref string) rdf.IRI {
	if p.rs.Base == "" || strings.Contains(ref, "://") || strings.HasPrefix(ref, "urn:") {
		return rdf.IRI(ref)
	}
	return rdf.IRI(p.rs.Base + ref)
}

func (p *parser) parseRuleHeadFirst(doc string) error {
	p.next() // RULE
	head, err := p.parseTemplateBlock()
	if err != nil {
		return err
	}
	t := p.next()
	if !p.isName(t, "WHERE") {
		return p.errorf(t, "expected WHERE")
	}
	body, err := p.parseBodyBlock()
	if err != nil {
		return err
	}
	return p.addRule(doc, head, body)
}

func (p *parser) parseRuleBodyFirst(doc string) error {
	p.next() // IF
	body, err := p.parseBodyBlock()
	if err != nil {
		return err
	}
	t := p.next()
	if !p.isName(t, "THEN") {
		return p.errorf(t, "expected THEN")
	}
	head, err := p.parseTemplateBlock()
	if err != nil {
		return err
	}
	return p.addRule(doc, head, body)
}

func (p *parser) parseRuleDatalog(doc string) error {
	head, err := p.parseTemplateBlock()
	if err != nil {
		return err
	}
	t := p.next()
	if !p.isPunct(t, ":-") {
		return p.errorf(t, "expected :- after head template")
	}
	body, err := p.parseBodyBlock()
	if err != nil {
		return err
	}
	return p.addRule(doc, head, body)
}

func (p *parser) addRule(doc string, head []ast.TripleTemplate, body []ast.BodyElement) error {
	if len(head) == 0 {
		return p.errorf(p.cur(), "rule head must not be empty")
	}
	if len(body) == 0 {
		return p.errorf(p.cur(), "rule body must not be empty")
	}
	p.rs.Rules = append(p.rs.Rules, &ast.Rule{Doc: doc, Head: head, Body: body})
	return nil
}

// parseDeclaration desugars TRANSITIVE/SYMMETRIC/INVERSE into rules.
func (p *parser) parseDeclaration() error {
	kw := p.next()
	pred, err := p.parsePredicateIRI()
	if err != nil {
		return err
	}
	x, y, z := ast.Var{Name: "x"}, ast.Var{Name: "y"}, ast.Var{Name: "z"}
	pc := ast.Const{Term: pred}
	switch strings.ToUpper(kw.text) {
	case "TRANSITIVE":
		p.rs.Rules = append(p.rs.Rules, &ast.Rule{
			Doc:  kw.doc,
			Head: []ast.TripleTemplate{{S: x, P: pc, O: z}},
			Body: []ast.BodyElement{
				ast.TriplePattern{S: x, P: pc, O: y},
				ast.TriplePattern{S: y, P: pc, O: z},
			},
		})
	case "SYMMETRIC":
		p.rs.Rules = append(p.rs.Rules, &ast.Rule{
			Doc:  kw.doc,
			Head: []ast.TripleTemplate{{S: y, P: pc, O: x}},
			Body: []ast.BodyElement{ast.TriplePattern{S: x, P: pc, O: y}},
		})
	case "INVERSE":
		other, err := p.parsePredicateIRI()
		if err != nil {
			return err
		}
		oc := ast.Const{Term: other}
		p.rs.Rules = append(p.rs.Rules,
			&ast.Rule{
				Doc:  kw.doc,
				Head: []ast.TripleTemplate{{S: y, P: oc, O: x}},
				Body: []ast.BodyElement{ast.TriplePattern{S: x, P: pc, O: y}},
			},
			&ast.Rule{
				Head: []ast.TripleTemplate{{S: y, P: pc, O: x}},
				Body: []ast.BodyElement{ast.TriplePattern{S: x, P: oc, O: y}},
			})
	}
	if p.isPunct(p.cur(), ".") {
		p.next()
	}
	return nil
}

func (p *parser) parsePredicateIRI() (rdf.IRI, error) {
	t := p.next()
	switch t.kind {
	case tokIRIRef:
		return p.resolveIRI(t.text), nil
	case tokPName:
		iri, ok := p.ns.Expand(t.text)
		if !ok {
			return "", p.errorf(t, "unknown prefix in %q", t.text)
		}
		return iri, nil
	}
	return "", p.errorf(t, "expected a predicate IRI")
}

// parseData reads a DATA block of ground triples.
func (p *parser) parseData() error {
	p.next() // DATA
	if err := p.expectPunct("{"); err != nil {
		return err
	}
	for !p.isPunct(p.cur(), "}") {
		triples, err := p.parseSameSubject(slotGround)
		if err != nil {
			return err
		}
		for _, tp := range triples {
			t := rdf.Triple{
				S: tp.S.(ast.Const).Term,
				P: tp.P.(ast.Const).Term,
				O: tp.O.(ast.Const).Term,
			}
			if !t.Valid() {
				return p.errorf(p.cur(), "ill-formed DATA triple %s", t)
			}
			p.rs.Data = append(p.rs.Data, t)
		}
		if p.isPunct(p.cur(), ".") {
			p.next()
		} else {
			break
		}
	}
	return p.expectPunct("}")
}

// Slot modes control what a triple position may contain.
type slotMode int

const (
	slotGround slotMode = iota // DATA: ground terms only
	slotBody                   // body patterns: vars, blanks-as-vars
	slotHead                   // head templates: vars, fresh blanks
)

func (p *parser) parseTemplateBlock() ([]ast.TripleTemplate, error) {
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	var acc []ast.TripleTemplate
	for !p.isPunct(p.cur(), "}") {
		patterns, err := p.parseSameSubject(slotHead)
		if err != nil {
			return nil, err
		}
		for _, tp := range patterns {
			acc = append(acc, ast.TripleTemplate(tp))
		}
		if p.isPunct(p.cur(), ".") {
			p.next()
		} else {
			break
		}
	}
	if err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	return acc, nil
}

func (p *parser) parseBodyBlock() ([]ast.BodyElement, error) {
	// Blank labels are scoped to one rule body, including its NOT
	// sub-patterns.
	p.bodyBlanks = map[string]ast.Var{}
	defer func() { p.bodyBlanks = nil }()
	return p.parseBodyElements()
}

func (p *parser) parseBodyElements() ([]ast.BodyElement, error) {
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	var acc []ast.BodyElement
	for !p.isPunct(p.cur(), "}") {
		t := p.cur()
		switch {
		case p.isName(t, "FILTER"):
			p.next()
			expr, err := p.parseConstraint()
			if err != nil {
				return nil, err
			}
			acc = append(acc, ast.Filter{Expr: expr})
		case p.isName(t, "BIND"):
			p.next()
			if err := p.expectPunct("("); err != nil {
				return nil, err
			}
			expr, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			as := p.next()
			if !p.isName(as, "AS") {
				return nil, p.errorf(as, "expected AS in BIND")
			}
			v := p.next()
			if v.kind != tokVar {
				return nil, p.errorf(v, "expected a variable after AS")
			}
			if err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			acc = append(acc, ast.Bind{Var: ast.Var{Name: v.text}, Expr: expr})
		case p.isName(t, "NOT"):
			p.next()
			sub, err := p.parseBodyElements()
			if err != nil {
				return nil, err
			}
			acc = append(acc, ast.Not{Body: sub})
		default:
			patterns, err := p.parseSameSubject(slotBody)
			if err != nil {
				return nil, err
			}
			for _, tp := range patterns {
				acc = append(acc, tp)
			}
			if p.isPunct(p.cur(), ".") {
				p.next()
			}
		}
	}
	if err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	return acc, nil
}

// parseSameSubject parses one subject with its predicate-object list:
// s p o (, o)* (; p o ...)*
func (p *parser) parseSameSubject(mode slotMode) ([]ast.TriplePattern, error) {
	subj, err := p.parseSlot(mode)
	if err != nil {
		return nil, err
	}
	var acc []ast.TriplePattern
	for {
		pred, err := p.parseVerb(mode)
		if err != nil {
			return nil, err
		}
		for {
			obj, err := p.parseSlot(mode)
			if err != nil {
				return nil, err
			}
			acc = append(acc, ast.TriplePattern{S: subj, P: pred, O: obj})
			if p.isPunct(p.cur(), ",") {
				p.next()
				continue
			}
			break
		}
		if p.isPunct(p.cur(), ";") {
			p.next()
			// Allow a dangling ';' before '.' or '}'.
			if p.isPunct(p.cur(), ".") || p.isPunct(p.cur(), "}") {
				break
			}
			continue
		}
		break
	}
	return acc, nil
}

func (p *parser) parseVerb(mode slotMode) (ast.Slot, error) {
	t := p.cur()
	if p.isName(t, "a") {
		p.next()
		return ast.Const{Term: rdf.RDFType}, nil
	}
	slot, err := p.parseSlot(mode)
	if err != nil {
		return nil, err
	}
	switch s := slot.(type) {
	case ast.Blank:
		return nil, p.errorf(t, "a blank node cannot be a predicate")
	case ast.Const:
		if _, is := s.Term.(rdf.IRI); !is {
			return nil, p.errorf(t, "a predicate must be an IRI or a variable")
		}
	}
	return slot, nil
}

func (p *parser) parseSlot(mode slotMode) (ast.Slot, error) {
	t := p.next()
	switch t.kind {
	case tokIRIRef:
		return ast.Const{Term: p.resolveIRI(t.text)}, nil
	case tokPName:
		iri, ok := p.ns.Expand(t.text)
		if !ok {
			return nil, p.errorf(t, "unknown prefix in %q", t.text)
		}
		return ast.Const{Term: iri}, nil
	case tokVar:
		if mode == slotGround {
			return nil, p.errorf(t, "variables are not allowed in DATA")
		}
		return ast.Var{Name: t.text}, nil
	case tokBlank:
		switch mode {
		case slotHead:
			return ast.Blank{Label: t.text}, nil
		case slotBody:
			// Same label, same variable, scoped to the body.
			if v, have := p.bodyBlanks[t.text]; have {
				return v, nil
			}
			v := ast.Var{Name: "_:" + t.text}
			p.bodyBlanks[t.text] = v
			return v, nil
		default:
			return ast.Const{Term: rdf.Blank(t.text)}, nil
		}
	case tokString:
		return ast.Const{Term: p.literalOf(t)}, nil
	case tokInteger:
		return ast.Const{Term: rdf.NewTyped(t.text, rdf.XSDInteger)}, nil
	case tokDecimal:
		return ast.Const{Term: rdf.NewTyped(t.text, rdf.XSDDecimal)}, nil
	case tokDouble:
		return ast.Const{Term: rdf.NewTyped(t.text, rdf.XSDDouble)}, nil
	case tokName:
		if strings.EqualFold(t.text, "true") {
			return ast.Const{Term: rdf.NewBoolean(true)}, nil
		}
		if strings.EqualFold(t.text, "false") {
			return ast.Const{Term: rdf.NewBoolean(false)}, nil
		}
	}
	return nil, p.errorf(t, "expected a term, got %q", t.text)
}

func (p *parser) literalOf(t token) rdf.Literal {
	switch {
	case t.lang != "":
		return rdf.NewLangString(t.text, t.lang)
	case t.dtIRI != "":
		return rdf.NewTyped(t.text, p.resolveIRI(t.dtIRI))
	case t.dtPName != "":
		if iri, ok := p.ns.Expand(t.dtPName); ok {
			return rdf.NewTyped(t.text, iri)
		}
		return rdf.NewTyped(t.text, rdf.IRI(t.dtPName))
	default:
		return rdf.NewString(t.text)
	}
}
