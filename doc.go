// Package srl provides a rule engine for RDF graphs based on the
// Shape Rule Language: declarative rules whose bodies are graph
// patterns and whose heads are triple templates, evaluated to a
// fixpoint with stratified negation.
//
// The engine lives in package 'engine', the term model in 'rdf', the
// concrete syntax in 'parser', and a command-line tool in 'cmd/srl'.
package srl
