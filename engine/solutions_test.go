package engine

import (
	"testing"

	"github.com/rdforge/srl/rdf"
)

func iri(s string) rdf.IRI {
	return rdf.IRI("http://example.org/" + s)
}

func TestMappingBasics(t *testing.T) {
	mu := EmptyMapping
	if mu.Len() != 0 {
		t.Fatal("empty mapping should have empty domain")
	}

	mu = mu.Extend("x", iri("a")).Extend("y", iri("b"))
	if mu.Len() != 2 {
		t.Fatalf("Len = %d", mu.Len())
	}
	if got, ok := mu.Get("x"); !ok || got != iri("a") {
		t.Fatalf("Get(x) = %v, %v", got, ok)
	}
	if mu.Bound("z") {
		t.Fatal("z should be unbound")
	}
	if d := mu.Domain(); len(d) != 2 || d[0] != "x" || d[1] != "y" {
		t.Fatalf("Domain = %v", d)
	}

	// Extension copies; the original is unchanged.
	mu2 := mu.Extend("z", iri("c"))
	if mu.Bound("z") || !mu2.Bound("z") {
		t.Fatal("Extend should not mutate the receiver")
	}
}

func TestCompatibleAndMerge(t *testing.T) {
	a := EmptyMapping.Extend("x", iri("a")).Extend("y", iri("b"))
	b := EmptyMapping.Extend("y", iri("b")).Extend("z", iri("c"))
	c := EmptyMapping.Extend("y", iri("OTHER"))

	if !Compatible(a, b) {
		t.Fatal("a and b agree on y")
	}
	if Compatible(a, c) {
		t.Fatal("a and c disagree on y")
	}
	if !Compatible(a, EmptyMapping) || !Compatible(EmptyMapping, a) {
		t.Fatal("the empty mapping is compatible with everything")
	}

	m, ok := Merge(a, b)
	if !ok || m.Len() != 3 {
		t.Fatalf("Merge = %v, %v", m, ok)
	}
	if _, ok := Merge(a, c); ok {
		t.Fatal("incompatible mappings should not merge")
	}
}

func TestJoin(t *testing.T) {
	left := Omega{
		EmptyMapping.Extend("x", iri("a")),
		EmptyMapping.Extend("x", iri("b")),
	}
	right := Omega{
		EmptyMapping.Extend("x", iri("a")).Extend("y", iri("1")),
		EmptyMapping.Extend("y", iri("2")),
	}

	got := Join(left, right)
	// (x=a) joins both right rows; (x=b) joins only the second.
	if len(got) != 3 {
		t.Fatalf("join produced %d mappings", len(got))
	}

	// Join with the seed {∅} is the identity.
	if got := Join(seed(), left); len(got) != 2 {
		t.Fatalf("seed join: %d", len(got))
	}
	// Join with the empty multiset is empty.
	if got := Join(left, Omega{}); len(got) != 0 {
		t.Fatalf("empty join: %d", len(got))
	}
}

func TestMinusRequiresSharedVariable(t *testing.T) {
	left := Omega{
		EmptyMapping.Extend("x", iri("a")),
		EmptyMapping.Extend("x", iri("b")),
	}

	// Compatible and sharing x: excluded.
	if got := Minus(left, Omega{EmptyMapping.Extend("x", iri("a"))}); len(got) != 1 {
		t.Fatalf("minus: %d", len(got))
	}
	// Compatible but disjoint domains: kept (MINUS semantics).
	if got := Minus(left, Omega{EmptyMapping.Extend("y", iri("a"))}); len(got) != 2 {
		t.Fatalf("disjoint minus: %d", len(got))
	}
	// Incompatible on the shared variable: kept.
	if got := Minus(left, Omega{EmptyMapping.Extend("x", iri("z"))}); len(got) != 2 {
		t.Fatalf("incompatible minus: %d", len(got))
	}
}

func TestSignature(t *testing.T) {
	a := EmptyMapping.Extend("x", iri("a")).Extend("y", iri("b"))
	b := EmptyMapping.Extend("y", iri("b")).Extend("x", iri("a"))
	if a.Signature() != b.Signature() {
		t.Fatal("signatures should not depend on extension order")
	}
	c := EmptyMapping.Extend("x", iri("a"))
	if a.Signature() == c.Signature() {
		t.Fatal("different mappings should have different signatures")
	}
}
