package engine_test

import (
	"errors"
	"testing"

	"github.com/rdforge/srl/engine"
	"github.com/rdforge/srl/rdf"
	"github.com/rdforge/srl/util/testutil"
)

const prefix = "PREFIX ex: <http://example.org/>\n"

func evaluate(t *testing.T, rules string, g *rdf.MemGraph) *engine.Result {
	t.Helper()
	rs := testutil.Rules(t, prefix+rules)
	res, err := engine.Evaluate(rs, g, engine.Options{})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	return res
}

func TestSimpleInference(t *testing.T) {
	g := testutil.Graph(
		testutil.T("Alice", "parent", "Bob"),
		testutil.T("Bob", "parent", "Charlie"),
	)
	res := evaluate(t, `RULE { ?x ex:ancestor ?y . } WHERE { ?x ex:parent ?y . }`, g)

	testutil.ContainsAll(t, res.Graph,
		testutil.T("Alice", "ancestor", "Bob"),
		testutil.T("Bob", "ancestor", "Charlie"),
	)
	if res.Stats.Derived != 2 {
		t.Fatalf("derived %d triples, want 2", res.Stats.Derived)
	}
	// The input graph is untouched without InPlace.
	if g.Len() != 2 {
		t.Fatalf("input graph mutated: %d triples", g.Len())
	}
}

func TestTransitiveClosure(t *testing.T) {
	g := testutil.Graph(
		testutil.T("A", "parent", "B"),
		testutil.T("B", "parent", "C"),
		testutil.T("C", "parent", "D"),
	)
	res := evaluate(t, `
RULE { ?x ex:anc ?y . } WHERE { ?x ex:parent ?y . }
RULE { ?x ex:anc ?z . } WHERE { ?x ex:anc ?y . ?y ex:anc ?z . }
`, g)

	if res.Stats.Derived != 6 {
		t.Fatalf("derived %d triples, want 6", res.Stats.Derived)
	}
	testutil.ContainsAll(t, res.Graph,
		testutil.T("A", "anc", "B"), testutil.T("A", "anc", "C"), testutil.T("A", "anc", "D"),
		testutil.T("B", "anc", "C"), testutil.T("B", "anc", "D"),
		testutil.T("C", "anc", "D"),
	)
	// Three productive rounds plus the round that confirms the
	// fixpoint.
	for _, s := range res.Stats.Strata {
		if s.Iterations > 4 {
			t.Fatalf("too many iterations: %d", s.Iterations)
		}
	}
}

func TestFilterScenario(t *testing.T) {
	g := rdf.NewMemGraph()
	ages := map[string]int64{"p1": 25, "p2": 16, "p3": 30, "p4": 12}
	for name, age := range ages {
		g.Insert(rdf.Triple{S: testutil.IRI(name), P: testutil.IRI("age"), O: rdf.NewInteger(age)})
	}
	res := evaluate(t, `RULE { ?p ex:isAdult true . } WHERE { ?p ex:age ?a . FILTER(?a >= 18) }`, g)

	if res.Stats.Derived != 2 {
		t.Fatalf("derived %d triples, want 2", res.Stats.Derived)
	}
	adult := rdf.NewBoolean(true)
	testutil.ContainsAll(t, res.Graph,
		rdf.Triple{S: testutil.IRI("p1"), P: testutil.IRI("isAdult"), O: adult},
		rdf.Triple{S: testutil.IRI("p3"), P: testutil.IRI("isAdult"), O: adult},
	)
}

func TestBindConcat(t *testing.T) {
	g := rdf.NewMemGraph()
	g.Insert(rdf.Triple{S: testutil.IRI("P1"), P: testutil.IRI("first"), O: rdf.NewString("John")})
	g.Insert(rdf.Triple{S: testutil.IRI("P1"), P: testutil.IRI("last"), O: rdf.NewString("Doe")})

	res := evaluate(t, `
RULE { ?p ex:fullName ?n . } WHERE {
  ?p ex:first ?f .
  ?p ex:last ?l .
  BIND(CONCAT(?f, " ", ?l) AS ?n)
}
`, g)
	testutil.ContainsAll(t, res.Graph,
		rdf.Triple{S: testutil.IRI("P1"), P: testutil.IRI("fullName"), O: rdf.NewString("John Doe")})
}

func TestStratifiedNegation(t *testing.T) {
	g := testutil.Graph(
		testutil.T("P1", "type", "Person"),
		testutil.T("P2", "type", "Person"),
		testutil.T("P1", "hasChild", "K"),
	)
	rs := testutil.Rules(t, prefix+`
RULE { ?p ex:childless true . } WHERE {
  ?p ex:type ex:Person .
  NOT { ?p ex:hasChild ?c . }
}
`)
	e, err := engine.New(rs)
	if err != nil {
		t.Fatal(err)
	}
	if got := e.Stratification().NumStrata(); got != 2 {
		t.Fatalf("strata = %d, want 2", got)
	}

	res, err := e.Evaluate(g, engine.Options{})
	if err != nil {
		t.Fatal(err)
	}
	childless := rdf.Triple{S: testutil.IRI("P2"), P: testutil.IRI("childless"), O: rdf.NewBoolean(true)}
	testutil.ContainsAll(t, res.Graph, childless)
	testutil.ContainsNone(t, res.Graph,
		rdf.Triple{S: testutil.IRI("P1"), P: testutil.IRI("childless"), O: rdf.NewBoolean(true)})
}

func TestUnsafeNegationRejected(t *testing.T) {
	rs := testutil.Rules(t, prefix+`
RULE { ?x ex:a ex:yes . } WHERE { ?x ex:node ex:n . NOT { ?x ex:b ex:yes . } }
RULE { ?x ex:b ex:yes . } WHERE { ?x ex:node ex:n . NOT { ?x ex:a ex:yes . } }
`)
	_, err := engine.New(rs)
	var unsafe *engine.UnsafeNegation
	if !errors.As(err, &unsafe) {
		t.Fatalf("expected UnsafeNegation, got %v", err)
	}
}

func TestUnsafeRuleRejected(t *testing.T) {
	rs := testutil.Rules(t, prefix+`
RULE { ?x ex:p ?y . } WHERE { ?x ex:q ex:z . }
`)
	_, err := engine.New(rs)
	var unsafe *engine.UnsafeRule
	if !errors.As(err, &unsafe) {
		t.Fatalf("expected UnsafeRule, got %v", err)
	}
	if unsafe.Variable != "y" {
		t.Fatalf("variable = %q", unsafe.Variable)
	}
}

func TestEmptyRuleSet(t *testing.T) {
	g := testutil.Graph(testutil.T("a", "p", "b"))
	res := evaluate(t, ``, g)
	if res.Graph.Len() != 1 || res.Stats.Derived != 0 {
		t.Fatalf("empty rule set should be identity: %d triples, %d derived",
			res.Graph.Len(), res.Stats.Derived)
	}
}

func TestIdempotence(t *testing.T) {
	g := testutil.Graph(
		testutil.T("A", "parent", "B"),
		testutil.T("B", "parent", "C"),
	)
	rules := `
RULE { ?x ex:anc ?y . } WHERE { ?x ex:parent ?y . }
RULE { ?x ex:anc ?z . } WHERE { ?x ex:anc ?y . ?y ex:anc ?z . }
`
	first := evaluate(t, rules, g)
	second := evaluate(t, rules, first.Graph)
	if second.Stats.Derived != 0 {
		t.Fatalf("second run derived %d triples", second.Stats.Derived)
	}
	if second.Graph.Len() != first.Graph.Len() {
		t.Fatal("second run changed the graph")
	}
}

func TestMonotonicity(t *testing.T) {
	g := testutil.Graph(
		testutil.T("A", "parent", "B"),
		testutil.T("B", "parent", "C"),
	)
	res := evaluate(t, `RULE { ?x ex:anc ?y . } WHERE { ?x ex:parent ?y . }`, g)
	for _, tr := range g.Iter() {
		if !res.Graph.Contains(tr) {
			t.Fatalf("output lost input triple %s", tr)
		}
	}
}

func TestRuleOrderWithinStratumIrrelevant(t *testing.T) {
	g := func() *rdf.MemGraph {
		return testutil.Graph(
			testutil.T("A", "parent", "B"),
			testutil.T("B", "parent", "C"),
		)
	}
	a := evaluate(t, `
RULE { ?x ex:anc ?y . } WHERE { ?x ex:parent ?y . }
RULE { ?x ex:anc ?z . } WHERE { ?x ex:anc ?y . ?y ex:anc ?z . }
`, g())
	b := evaluate(t, `
RULE { ?x ex:anc ?z . } WHERE { ?x ex:anc ?y . ?y ex:anc ?z . }
RULE { ?x ex:anc ?y . } WHERE { ?x ex:parent ?y . }
`, g())
	if a.Graph.Len() != b.Graph.Len() {
		t.Fatalf("rule order changed the result: %d vs %d", a.Graph.Len(), b.Graph.Len())
	}
	for _, tr := range a.Graph.Iter() {
		if !b.Graph.Contains(tr) {
			t.Fatalf("permuted run is missing %s", tr)
		}
	}
}

func TestInPlace(t *testing.T) {
	g := testutil.Graph(testutil.T("A", "parent", "B"))
	rs := testutil.Rules(t, prefix+`RULE { ?x ex:anc ?y . } WHERE { ?x ex:parent ?y . }`)
	if _, err := engine.Evaluate(rs, g, engine.Options{InPlace: true}); err != nil {
		t.Fatal(err)
	}
	if !g.Contains(testutil.T("A", "anc", "B")) {
		t.Fatal("in-place evaluation should mutate the input")
	}
}

func TestResultsOnly(t *testing.T) {
	g := testutil.Graph(testutil.T("A", "parent", "B"))
	rs := testutil.Rules(t, prefix+`RULE { ?x ex:anc ?y . } WHERE { ?x ex:parent ?y . }`)
	res, err := engine.Evaluate(rs, g, engine.Options{ResultsOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.Graph.Len() != 1 || !res.Graph.Contains(testutil.T("A", "anc", "B")) {
		t.Fatalf("results-only graph: %v", res.Graph.Iter())
	}
}

func TestIterationBudget(t *testing.T) {
	g := testutil.Graph(
		testutil.T("A", "parent", "B"),
		testutil.T("B", "parent", "C"),
		testutil.T("C", "parent", "D"),
	)
	rs := testutil.Rules(t, prefix+`
RULE { ?x ex:anc ?y . } WHERE { ?x ex:parent ?y . }
RULE { ?x ex:anc ?z . } WHERE { ?x ex:anc ?y . ?y ex:anc ?z . }
`)
	res, err := engine.Evaluate(rs, g, engine.Options{MaxIterations: 1})
	var budget *engine.BudgetExhausted
	if !errors.As(err, &budget) {
		t.Fatalf("expected BudgetExhausted, got %v", err)
	}
	// The partial graph has the first round's derivations.
	if res == nil || !res.Graph.Contains(testutil.T("A", "anc", "B")) {
		t.Fatal("partial graph should be returned")
	}
}

func TestDerivedBudget(t *testing.T) {
	g := testutil.Graph(
		testutil.T("A", "parent", "B"),
		testutil.T("B", "parent", "C"),
		testutil.T("C", "parent", "D"),
	)
	rs := testutil.Rules(t, prefix+`
RULE { ?x ex:anc ?y . } WHERE { ?x ex:parent ?y . }
RULE { ?x ex:anc ?z . } WHERE { ?x ex:anc ?y . ?y ex:anc ?z . }
`)
	_, err := engine.Evaluate(rs, g, engine.Options{MaxDerived: 2})
	var budget *engine.BudgetExhausted
	if !errors.As(err, &budget) {
		t.Fatalf("expected BudgetExhausted, got %v", err)
	}
}

func TestRecursiveExistentialHeadTerminates(t *testing.T) {
	// Without deterministic head blank nodes this would mint fresh
	// nodes forever.
	g := testutil.Graph(testutil.T("A", "parent", "B"))
	rs := testutil.Rules(t, prefix+`
RULE { ?x ex:hasEvent _:e . _:e ex:about ?y . } WHERE { ?x ex:parent ?y . }
`)
	res, err := engine.Evaluate(rs, g, engine.Options{MaxIterations: 50})
	if err != nil {
		t.Fatalf("existential head should terminate: %v", err)
	}
	if res.Stats.Derived != 2 {
		t.Fatalf("derived %d triples, want 2", res.Stats.Derived)
	}
	events := res.Graph.Match(testutil.IRI("A"), testutil.IRI("hasEvent"), nil)
	if len(events) != 1 {
		t.Fatalf("events: %v", events)
	}
	if _, is := events[0].O.(rdf.Blank); !is {
		t.Fatalf("event should be a blank node: %s", events[0].O)
	}
}

func TestDataBlocks(t *testing.T) {
	g := rdf.NewMemGraph()
	rs := testutil.Rules(t, prefix+`
DATA { ex:Alice ex:parent ex:Bob . }
RULE { ?x ex:anc ?y . } WHERE { ?x ex:parent ?y . }
`)
	res, err := engine.Evaluate(rs, g, engine.Options{})
	if err != nil {
		t.Fatal(err)
	}
	testutil.ContainsAll(t, res.Graph,
		testutil.T("Alice", "parent", "Bob"),
		testutil.T("Alice", "anc", "Bob"),
	)
	if g.Len() != 0 {
		t.Fatal("input graph should stay untouched")
	}

	// DATA triples are input, not derivations.
	res, err = engine.Evaluate(rs, rdf.NewMemGraph(), engine.Options{ResultsOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.Graph.Len() != 1 || !res.Graph.Contains(testutil.T("Alice", "anc", "Bob")) {
		t.Fatalf("results-only with DATA: %v", res.Graph.Iter())
	}
}

func TestProvenance(t *testing.T) {
	g := testutil.Graph(testutil.T("A", "parent", "B"))
	rs := testutil.Rules(t, prefix+`RULE { ?x ex:anc ?y . } WHERE { ?x ex:parent ?y . }`)
	e, err := engine.New(rs)
	if err != nil {
		t.Fatal(err)
	}
	res, err := e.EvaluateWithProvenance(g, engine.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Provenance) != 1 {
		t.Fatalf("provenance: %v", res.Provenance)
	}
	p := res.Provenance[0]
	if p.Rule != 0 || p.Triple != testutil.T("A", "anc", "B") {
		t.Fatalf("provenance entry: %+v", p)
	}
}

func TestDeclarationsDesugar(t *testing.T) {
	g := testutil.Graph(
		testutil.T("A", "anc", "B"),
		testutil.T("B", "anc", "C"),
		testutil.T("A", "spouse", "B2"),
		testutil.T("A", "childOf", "P"),
	)
	res := evaluate(t, `
TRANSITIVE ex:anc
SYMMETRIC ex:spouse
INVERSE ex:childOf ex:parentOf
`, g)
	testutil.ContainsAll(t, res.Graph,
		testutil.T("A", "anc", "C"),
		testutil.T("B2", "spouse", "A"),
		testutil.T("P", "parentOf", "A"),
	)
}
