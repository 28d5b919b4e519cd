package manifest

import (
	"os"
	"path/filepath"
	"testing"
)

const suite = `
name: ancestors
cases:
  - name: base
    rules: |
      PREFIX ex: <http://example.org/>
      RULE { ?x ex:anc ?y . } WHERE { ?x ex:parent ?y . }
    data: |
      <http://example.org/a> <http://example.org/parent> <http://example.org/b> .
    expected: |
      <http://example.org/a> <http://example.org/anc> <http://example.org/b> .
    derivedOnly: true
  - name: unsafe
    rules: |
      PREFIX ex: <http://example.org/>
      RULE { ?x ex:a ex:y . } WHERE { ?x ex:n ex:m . NOT { ?x ex:b ex:y . } }
      RULE { ?x ex:b ex:y . } WHERE { ?x ex:n ex:m . NOT { ?x ex:a ex:y . } }
    error: unsafe negation
`

func writeManifest(t *testing.T, text string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "suite.yaml")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunSuite(t *testing.T) {
	m, err := Load(writeManifest(t, suite))
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Validate(); err != nil {
		t.Fatal(err)
	}
	if m.Name != "ancestors" || len(m.Cases) != 2 {
		t.Fatalf("manifest = %+v", m)
	}

	results := m.Run()
	for _, r := range results {
		if !r.Passed {
			t.Fatalf("case %s failed: %s", r.Name, r.Detail)
		}
	}
}

func TestFailureDetail(t *testing.T) {
	bad := `
name: failing
cases:
  - name: wrong-expectation
    rules: |
      PREFIX ex: <http://example.org/>
      RULE { ?x ex:anc ?y . } WHERE { ?x ex:parent ?y . }
    data: |
      <http://example.org/a> <http://example.org/parent> <http://example.org/b> .
    expected: |
      <http://example.org/a> <http://example.org/anc> <http://example.org/WRONG> .
    derivedOnly: true
`
	m, err := Load(writeManifest(t, bad))
	if err != nil {
		t.Fatal(err)
	}
	results := m.Run()
	if len(results) != 1 || results[0].Passed {
		t.Fatalf("results = %+v", results)
	}
	if results[0].Detail == "" {
		t.Fatal("failing case should explain itself")
	}
}

func TestRulesFile(t *testing.T) {
	dir := t.TempDir()
	rules := "PREFIX ex: <http://example.org/>\nRULE { ?x ex:anc ?y . } WHERE { ?x ex:parent ?y . }\n"
	if err := os.WriteFile(filepath.Join(dir, "rules.srl"), []byte(rules), 0o644); err != nil {
		t.Fatal(err)
	}
	text := `
name: files
cases:
  - name: from-file
    rulesFile: rules.srl
    data: |
      <http://example.org/a> <http://example.org/parent> <http://example.org/b> .
    expected: |
      <http://example.org/a> <http://example.org/anc> <http://example.org/b> .
    derivedOnly: true
`
	path := filepath.Join(dir, "suite.yaml")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	results := m.Run()
	if !results[0].Passed {
		t.Fatalf("case failed: %s", results[0].Detail)
	}
}

func TestValidate(t *testing.T) {
	m := &Manifest{}
	if err := m.Validate(); err != ErrNoCases {
		t.Fatalf("Validate = %v", err)
	}
	m = &Manifest{Cases: []Case{{Name: "x"}}}
	if err := m.Validate(); err == nil {
		t.Fatal("case without rules should not validate")
	}
}
