// Package diag implements the debug dumpers of spec §4.6: a textual
// listing of leaves and their derived priorities, a dump of the optimized
// state graph including the rope/fork/lookup-table choice made for each
// state, and DOT/Mermaid exporters. "These artifacts are the authoritative
// debugging surface" (spec §4.6) — nothing else in the core renders the
// graph for humans.
//
// No example repo ships a DOT/Mermaid writer; this package is new code in
// the teacher's documentation voice, built directly against plain
// fmt.Fprintf into an io.Writer — a text/DOT/Mermaid dumper has no use for
// a third-party templating or graph-drawing library here.
package diag

import (
	"fmt"
	"io"
	"sort"

	"github.com/maciejhirsz/logos/graph"
	"github.com/maciejhirsz/logos/leaf"
)

// WriteListing renders every leaf (id, priority, explicit/derived, shape)
// followed by every state, noting whether a Fork compiles to a lookup
// table or a range chain (spec §4.4's density heuristic) and whether it
// was marked Early (spec §4.3).
func WriteListing(w io.Writer, g *graph.Graph) error {
	ids := make([]leaf.ID, 0, len(g.Leaves))
	for id := range g.Leaves {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	if _, err := fmt.Fprintln(w, "leaves:"); err != nil {
		return err
	}
	for _, id := range ids {
		l := g.Leaves[id]
		if _, err := fmt.Fprintf(w, "  %s\n", l.String()); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "states (%d):\n", g.NumStates()); err != nil {
		return err
	}
	for _, s := range g.States() {
		line := s.String()
		if s.Kind == graph.ForkKind {
			line += fmt.Sprintf(" [%s]", dispatchFormFor(&s))
		}
		if _, err := fmt.Fprintf(w, "  %s\n", line); err != nil {
			return err
		}
	}
	return nil
}

// dispatchFormFor reports the same table-vs-chain choice codegen.lower
// makes, recomputed here purely for display (package diag has no
// dependency on package codegen's internal types).
func dispatchFormFor(s *graph.State) string {
	covered := 0
	for _, t := range s.Transitions {
		covered += int(t.Hi) - int(t.Lo) + 1
	}
	if covered >= 64 || len(s.Transitions) >= 4 {
		return "table"
	}
	return "chain"
}

// WriteDOT renders g as a Graphviz DOT digraph, one node per state and one
// edge per transition, for use with `dot -Tsvg`.
func WriteDOT(w io.Writer, g *graph.Graph) error {
	if _, err := fmt.Fprintln(w, "digraph lexer {"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "  rankdir=LR;\n  %d [shape=point];\n  %d -> %d;\n", -1, -1, g.Root); err != nil {
		return err
	}
	for _, s := range g.States() {
		shape := "box"
		label := s.String()
		if s.Kind == graph.LeafKind {
			shape = "doublecircle"
		}
		if _, err := fmt.Fprintf(w, "  %d [shape=%s, label=%q];\n", s.ID, shape, label); err != nil {
			return err
		}
		switch s.Kind {
		case graph.RopeKind:
			if _, err := fmt.Fprintf(w, "  %d -> %d [label=%q];\n", s.ID, s.Then, s.Bytes); err != nil {
				return err
			}
		default:
			for _, t := range s.Transitions {
				if _, err := fmt.Fprintf(w, "  %d -> %d [label=%q];\n", s.ID, t.Target, rangeLabel(t.Lo, t.Hi)); err != nil {
					return err
				}
			}
		}
	}
	_, err := fmt.Fprintln(w, "}")
	return err
}

// WriteMermaid renders g as a Mermaid flowchart, the alternative debug
// export format named alongside DOT in spec §4.6.
func WriteMermaid(w io.Writer, g *graph.Graph) error {
	if _, err := fmt.Fprintln(w, "flowchart LR"); err != nil {
		return err
	}
	for _, s := range g.States() {
		if _, err := fmt.Fprintf(w, "  s%d[%q]\n", s.ID, s.String()); err != nil {
			return err
		}
		switch s.Kind {
		case graph.RopeKind:
			if _, err := fmt.Fprintf(w, "  s%d -->|%q| s%d\n", s.ID, s.Bytes, s.Then); err != nil {
				return err
			}
		default:
			for _, t := range s.Transitions {
				if _, err := fmt.Fprintf(w, "  s%d -->|%q| s%d\n", s.ID, rangeLabel(t.Lo, t.Hi), t.Target); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func rangeLabel(lo, hi byte) string {
	if lo == hi {
		return fmt.Sprintf("%02x", lo)
	}
	return fmt.Sprintf("%02x-%02x", lo, hi)
}
