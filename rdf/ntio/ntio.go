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

// Package ntio reads and writes graphs as N-Triples / N-Quads.
//
// The codec itself comes from github.com/cayleygraph/quad; this
// package converts between that library's term representation and
// ours.  Quad labels (the fourth position) are ignored on input.
package ntio

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/cayleygraph/quad"
	"github.com/cayleygraph/quad/nquads"

	"github.com/rdforge/srl/rdf"
)

// Read decodes N-Triples (or N-Quads) from r into g.
func Read(r io.Reader, g *rdf.MemGraph) error {
	qr := nquads.NewReader(r, false)
	for {
		q, err := qr.ReadQuad()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		t, err := tripleOf(q)
		if err != nil {
			return err
		}
		g.Insert(t)
	}
}

// Write encodes g to w as N-Triples.
func Write(w io.Writer, g rdf.Graph) error {
	qw := nquads.NewWriter(w)
	for _, t := range g.Iter() {
		q := quad.Quad{
			Subject:   valueOf(t.S),
			Predicate: valueOf(t.P),
			Object:    valueOf(t.O),
		}
		if err := qw.WriteQuad(q); err != nil {
			return err
		}
	}
	return qw.Close()
}

func tripleOf(q quad.Quad) (rdf.Triple, error) {
	s, err := termOf(q.Subject)
	if err != nil {
		return rdf.Triple{}, err
	}
	p, err := termOf(q.Predicate)
	if err != nil {
		return rdf.Triple{}, err
	}
	o, err := termOf(q.Object)
	if err != nil {
		return rdf.Triple{}, err
	}
	t := rdf.Triple{S: s, P: p, O: o}
	if !t.Valid() {
		return rdf.Triple{}, fmt.Errorf("ill-formed triple %s", t)
	}
	return t, nil
}

func termOf(v quad.Value) (rdf.Term, error) {
	switch vv := v.(type) {
	case quad.IRI:
		return rdf.IRI(vv), nil
	case quad.BNode:
		return rdf.Blank(vv), nil
	case quad.String:
		return rdf.NewString(string(vv)), nil
	case quad.LangString:
		return rdf.NewLangString(string(vv.Value), vv.Lang), nil
	case quad.TypedString:
		return rdf.NewTyped(string(vv.Value), rdf.IRI(vv.Type)), nil
	case quad.Int:
		return rdf.NewInteger(int64(vv)), nil
	case quad.Float:
		return rdf.NewDouble(float64(vv)), nil
	case quad.Bool:
		return rdf.NewBoolean(bool(vv)), nil
	case quad.Time:
		return rdf.NewTyped(time.Time(vv).Format(time.RFC3339), rdf.XSDDateTime), nil
	default:
		return nil, fmt.Errorf("unsupported term %v (%T)", v, v)
	}
}

func valueOf(t rdf.Term) quad.Value {
	switch tt := t.(type) {
	case rdf.IRI:
		return quad.IRI(tt)
	case rdf.Blank:
		return quad.BNode(tt)
	case rdf.Literal:
		switch {
		case tt.Lang != "":
			return quad.LangString{Value: quad.String(tt.Lexical), Lang: tt.Lang}
		case tt.Datatype == "" || tt.Datatype == rdf.XSDString:
			return quad.String(tt.Lexical)
		default:
			return quad.TypedString{Value: quad.String(tt.Lexical), Type: quad.IRI(tt.Datatype)}
		}
	default:
		// Can't happen: the term variant is closed.
		return quad.String(strconv.Quote(fmt.Sprint(t)))
	}
}
