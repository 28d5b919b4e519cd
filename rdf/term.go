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

// Package rdf provides the RDF term model and graphs used by the rule
// engine: IRIs, blank nodes, literals, triples, and an in-memory graph
// with pattern-indexed lookup.
package rdf

import (
	"strconv"
	"strings"
)

// A Term is an RDF term: an IRI, a blank node, or a literal.
//
// The set of term kinds is closed.  Code that consumes terms should
// switch over the three concrete types exhaustively.
type Term interface {
	// String renders the term in N-Triples syntax.
	String() string

	isTerm()
}

// IRI is an absolute IRI.
type IRI string

func (i IRI) isTerm() {}

func (i IRI) String() string {
	return "<" + string(i) + ">"
}

// Blank is a blank node.  Two blank nodes are the same node iff their
// identifiers are equal within one graph.
type Blank string

func (b Blank) isTerm() {}

func (b Blank) String() string {
	return "_:" + string(b)
}

// Literal is an RDF literal: a lexical form with an optional language
// tag and a datatype IRI.  Two literals are term-equal iff all three
// components are equal.
type Literal struct {
	Lexical  string
	Lang     string
	Datatype IRI
}

func (l Literal) isTerm() {}

func (l Literal) String() string {
	s := strconv.Quote(l.Lexical)
	if l.Lang != "" {
		return s + "@" + l.Lang
	}
	if l.Datatype != "" && l.Datatype != XSDString {
		return s + "^^" + l.Datatype.String()
	}
	return s
}

// NewString makes a plain string literal (datatype xsd:string).
func NewString(s string) Literal {
	return Literal{Lexical: s, Datatype: XSDString}
}

// NewLangString makes a language-tagged literal.  The language tag is
// lowercased, following the usual normalization rules.
func NewLangString(s, lang string) Literal {
	return Literal{Lexical: s, Lang: strings.ToLower(lang), Datatype: XSDString}
}

// NewTyped makes a literal with an explicit datatype.
func NewTyped(lex string, dt IRI) Literal {
	if dt == "" {
		dt = XSDString
	}
	return Literal{Lexical: lex, Datatype: dt}
}

// NewBoolean makes an xsd:boolean literal.
func NewBoolean(b bool) Literal {
	if b {
		return Literal{Lexical: "true", Datatype: XSDBoolean}
	}
	return Literal{Lexical: "false", Datatype: XSDBoolean}
}

// NewInteger makes an xsd:integer literal.
func NewInteger(n int64) Literal {
	return Literal{Lexical: strconv.FormatInt(n, 10), Datatype: XSDInteger}
}

// NewDecimal makes an xsd:decimal literal.
func NewDecimal(f float64) Literal {
	return Literal{Lexical: strconv.FormatFloat(f, 'f', -1, 64), Datatype: XSDDecimal}
}

// NewDouble makes an xsd:double literal.
func NewDouble(f float64) Literal {
	return Literal{Lexical: strconv.FormatFloat(f, 'g', -1, 64), Datatype: XSDDouble}
}

// Triple is an RDF triple.
//
// A well-formed triple has an IRI or blank subject, an IRI predicate,
// and any term as object.  See Triple.Valid.
type Triple struct {
	S Term
	P Term
	O Term
}

func (t Triple) String() string {
	return t.S.String() + " " + t.P.String() + " " + t.O.String() + " ."
}

// Valid reports whether the triple is well-formed RDF.
func (t Triple) Valid() bool {
	if t.S == nil || t.P == nil || t.O == nil {
		return false
	}
	switch t.S.(type) {
	case IRI, Blank:
	default:
		return false
	}
	if _, is := t.P.(IRI); !is {
		return false
	}
	return true
}
