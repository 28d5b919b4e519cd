package tools

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/rdforge/srl/engine"
)

// Mermaid writes a Mermaid flowchart of the predicate dependency
// graph, grouped into subgraphs by stratum.  Handy for embedding in
// Markdown documentation.
func Mermaid(strat *engine.Stratification, w io.Writer) error {
	fmt.Fprintf(w, "flowchart LR\n")

	byLevel := make(map[int][]string)
	for n, l := range strat.Levels {
		byLevel[l] = append(byLevel[l], n)
	}
	levels := make([]int, 0, len(byLevel))
	for l := range byLevel {
		levels = append(levels, l)
	}
	sort.Ints(levels)

	id := func(n string) string {
		r := strings.NewReplacer("://", "_", "/", "_", "#", "_", ":", "_", ".", "_", "*", "any")
		return "n_" + r.Replace(n)
	}

	for _, l := range levels {
		nodes := byLevel[l]
		sort.Strings(nodes)
		fmt.Fprintf(w, "  subgraph stratum%d [stratum %d]\n", l, l)
		for _, n := range nodes {
			fmt.Fprintf(w, "    %s[%q]\n", id(n), n)
		}
		fmt.Fprintf(w, "  end\n")
	}

	froms := append([]string(nil), strat.Graph.Nodes...)
	sort.Strings(froms)
	for _, from := range froms {
		targets := strat.Graph.Edges[from]
		tos := make([]string, 0, len(targets))
		for to := range targets {
			tos = append(tos, to)
		}
		sort.Strings(tos)
		for _, to := range tos {
			if targets[to] {
				fmt.Fprintf(w, "  %s -. not .-> %s\n", id(from), id(to))
			} else {
				fmt.Fprintf(w, "  %s --> %s\n", id(from), id(to))
			}
		}
	}
	return nil
}
