package tools

// dot -Tpng deps.dot > deps.png

import (
	"fmt"
	"io"
	"sort"

	"github.com/rdforge/srl/engine"
)

// Dot writes a Graphviz dot file for a predicate dependency graph.
// Negative edges are dashed and red; they are the edges that force a
// predicate into a later stratum.
func Dot(strat *engine.Stratification, w io.Writer) error {
	fmt.Fprintf(w, "digraph dependencies {\n")
	fmt.Fprintf(w, `  graph [rankdir=LR,nodesep=0.3,ranksep=0.6]
  node [shape="box" style="rounded,filled" fillcolor="#99ddc8"]
  edge [fontsize="10"]
`)

	nodes := append([]string(nil), strat.Graph.Nodes...)
	sort.Strings(nodes)
	for _, n := range nodes {
		fmt.Fprintf(w, "  %q [label=%q];\n", n, fmt.Sprintf("%s\\nstratum %d", n, strat.Levels[n]))
	}
	for _, from := range nodes {
		targets := strat.Graph.Edges[from]
		tos := make([]string, 0, len(targets))
		for to := range targets {
			tos = append(tos, to)
		}
		sort.Strings(tos)
		for _, to := range tos {
			if targets[to] {
				fmt.Fprintf(w, "  %q -> %q [style=dashed,color=red,label=\"not\"];\n", from, to)
			} else {
				fmt.Fprintf(w, "  %q -> %q;\n", from, to)
			}
		}
	}
	_, err := fmt.Fprintf(w, "}\n")
	return err
}
