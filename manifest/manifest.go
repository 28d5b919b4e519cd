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

// Package manifest runs YAML-described evaluation suites: each case
// pairs a rule set with input data and the expected output.
//
// A manifest looks like
//
//	name: ancestors
//	cases:
//	  - name: base
//	    rules: |
//	      PREFIX ex: <http://example.org/>
//	      RULE { ?x ex:ancestor ?y . } WHERE { ?x ex:parent ?y . }
//	    data: |
//	      <http://example.org/a> <http://example.org/parent> <http://example.org/b> .
//	    expected: |
//	      <http://example.org/a> <http://example.org/ancestor> <http://example.org/b> .
//	    derivedOnly: true
//
// Inline data and expectations are N-Triples; the *File variants name
// files relative to the manifest.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/rdforge/srl/engine"
	"github.com/rdforge/srl/parser"
	"github.com/rdforge/srl/rdf"
	"github.com/rdforge/srl/rdf/ntio"
)

// Manifest is a suite of evaluation cases.
type Manifest struct {
	Name  string `yaml:"name"`
	Cases []Case `yaml:"cases"`

	// dir resolves *File fields.
	dir string
}

// Case is one evaluation case.
type Case struct {
	Name string `yaml:"name"`

	Rules     string `yaml:"rules,omitempty"`
	RulesFile string `yaml:"rulesFile,omitempty"`

	Data     string `yaml:"data,omitempty"`
	DataFile string `yaml:"dataFile,omitempty"`

	Expected     string `yaml:"expected,omitempty"`
	ExpectedFile string `yaml:"expectedFile,omitempty"`

	// DerivedOnly compares only the derived triples instead of the
	// whole output graph.
	DerivedOnly bool `yaml:"derivedOnly,omitempty"`

	// Error expects evaluation to fail; its value must be a
	// substring of the error message.
	Error string `yaml:"error,omitempty"`
}

// CaseResult is the outcome of one case.
type CaseResult struct {
	Name   string
	Passed bool
	Detail string
}

// Load reads a manifest file.
func Load(path string) (*Manifest, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(bs, &m); err != nil {
		return nil, err
	}
	m.dir = filepath.Dir(path)
	return &m, nil
}

func (m *Manifest) text(inline, file string) (string, error) {
	if inline != "" {
		return inline, nil
	}
	if file == "" {
		return "", nil
	}
	bs, err := os.ReadFile(filepath.Join(m.dir, file))
	if err != nil {
		return "", err
	}
	return string(bs), nil
}

// Run evaluates every case and reports the results.
func (m *Manifest) Run() []CaseResult {
	results := make([]CaseResult, 0, len(m.Cases))
	for _, c := range m.Cases {
		results = append(results, m.runCase(c))
	}
	return results
}

func (m *Manifest) runCase(c Case) CaseResult {
	fail := func(format string, args ...interface{}) CaseResult {
		return CaseResult{Name: c.Name, Detail: fmt.Sprintf(format, args...)}
	}

	rulesText, err := m.text(c.Rules, c.RulesFile)
	if err != nil {
		return fail("reading rules: %v", err)
	}
	dataText, err := m.text(c.Data, c.DataFile)
	if err != nil {
		return fail("reading data: %v", err)
	}
	expectedText, err := m.text(c.Expected, c.ExpectedFile)
	if err != nil {
		return fail("reading expectation: %v", err)
	}

	rs, err := parser.Parse(rulesText)
	if err == nil {
		g := rdf.NewMemGraph()
		if derr := ntio.Read(strings.NewReader(dataText), g); derr != nil {
			return fail("reading data graph: %v", derr)
		}
		var res *engine.Result
		res, err = engine.Evaluate(rs, g, engine.Options{
			ResultsOnly: c.DerivedOnly,
		})
		if err == nil {
			if c.Error != "" {
				return fail("expected error containing %q, got none", c.Error)
			}
			expected := rdf.NewMemGraph()
			if eerr := ntio.Read(strings.NewReader(expectedText), expected); eerr != nil {
				return fail("reading expected graph: %v", eerr)
			}
			if detail := diffGraphs(expected, res.Graph); detail != "" {
				return fail("%s", detail)
			}
			return CaseResult{Name: c.Name, Passed: true}
		}
	}
	if c.Error == "" {
		return fail("%v", err)
	}
	if !strings.Contains(err.Error(), c.Error) {
		return fail("expected error containing %q, got %v", c.Error, err)
	}
	return CaseResult{Name: c.Name, Passed: true}
}

// diffGraphs reports missing and unexpected triples, or "" when the
// graphs are equal as sets.
func diffGraphs(expected, got rdf.Graph) string {
	var sb strings.Builder
	for _, t := range expected.Iter() {
		if !got.Contains(t) {
			fmt.Fprintf(&sb, "missing: %s\n", t)
		}
	}
	for _, t := range got.Iter() {
		if !expected.Contains(t) {
			fmt.Fprintf(&sb, "unexpected: %s\n", t)
		}
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// ErrNoCases is returned by Validate for an empty manifest.
var ErrNoCases = errors.New("manifest has no cases")

// Validate checks the manifest's shape before running it.
func (m *Manifest) Validate() error {
	if len(m.Cases) == 0 {
		return ErrNoCases
	}
	for _, c := range m.Cases {
		if c.Name == "" {
			return errors.New("case without a name")
		}
		if c.Rules == "" && c.RulesFile == "" {
			return fmt.Errorf("case %q has no rules", c.Name)
		}
	}
	return nil
}
