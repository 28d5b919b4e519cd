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

package rdf

import "strings"

// Well-known vocabulary IRIs.
const (
	NSRDF = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	NSXSD = "http://www.w3.org/2001/XMLSchema#"

	RDFType       IRI = NSRDF + "type"
	RDFLangString IRI = NSRDF + "langString"

	XSDString             IRI = NSXSD + "string"
	XSDBoolean            IRI = NSXSD + "boolean"
	XSDInteger            IRI = NSXSD + "integer"
	XSDDecimal            IRI = NSXSD + "decimal"
	XSDFloat              IRI = NSXSD + "float"
	XSDDouble             IRI = NSXSD + "double"
	XSDDateTime           IRI = NSXSD + "dateTime"
	XSDInt                IRI = NSXSD + "int"
	XSDLong               IRI = NSXSD + "long"
	XSDShort              IRI = NSXSD + "short"
	XSDByte               IRI = NSXSD + "byte"
	XSDNonNegativeInteger IRI = NSXSD + "nonNegativeInteger"
	XSDPositiveInteger    IRI = NSXSD + "positiveInteger"
	XSDNegativeInteger    IRI = NSXSD + "negativeInteger"
	XSDDayTimeDuration    IRI = NSXSD + "dayTimeDuration"
)

// WellKnownPrefixes are preloaded into every Namespaces.
var WellKnownPrefixes = map[string]string{
	"rdf":     NSRDF,
	"rdfs":    "http://www.w3.org/2000/01/rdf-schema#",
	"xsd":     NSXSD,
	"sh":      "http://www.w3.org/ns/shacl#",
	"owl":     "http://www.w3.org/2002/07/owl#",
	"dc":      "http://purl.org/dc/elements/1.1/",
	"dcterms": "http://purl.org/dc/terms/",
	"foaf":    "http://xmlns.com/foaf/0.1/",
	"skos":    "http://www.w3.org/2004/02/skos/core#",
}

// Namespaces manages prefix-to-namespace mappings: expansion of
// prefixed names and abbreviation of full IRIs.
type Namespaces struct {
	prefixes map[string]string
}

// NewNamespaces makes a Namespaces preloaded with WellKnownPrefixes.
func NewNamespaces() *Namespaces {
	ns := &Namespaces{prefixes: make(map[string]string, len(WellKnownPrefixes)+4)}
	for p, n := range WellKnownPrefixes {
		ns.prefixes[p] = n
	}
	return ns
}

// Register adds (or replaces) a prefix mapping.
func (ns *Namespaces) Register(prefix, namespace string) {
	ns.prefixes[prefix] = namespace
}

// Expand resolves a prefixed name like "ex:Person" to a full IRI.
func (ns *Namespaces) Expand(pname string) (IRI, bool) {
	i := strings.Index(pname, ":")
	if i < 0 {
		return "", false
	}
	base, have := ns.prefixes[pname[:i]]
	if !have {
		return "", false
	}
	return IRI(base + pname[i+1:]), true
}

// Abbreviate turns a full IRI into a prefixed name if some registered
// namespace is a prefix of it.
func (ns *Namespaces) Abbreviate(iri IRI) (string, bool) {
	for p, n := range ns.prefixes {
		if strings.HasPrefix(string(iri), n) {
			return p + ":" + string(iri)[len(n):], true
		}
	}
	return "", false
}

// Prefixes returns a copy of the current prefix map.
func (ns *Namespaces) Prefixes() map[string]string {
	m := make(map[string]string, len(ns.prefixes))
	for p, n := range ns.prefixes {
		m[p] = n
	}
	return m
}
