package leaf

import "github.com/maciejhirsz/logos/mir"

// Derive computes a pattern's structural priority from its MIR, per spec
// §4.2:
//
//   - each consecutive, non-repeating single-byte literal adds 2;
//   - each byte-range or class transition adds 1;
//   - a Repeat node contributes 0; the mandatory copies of a repetition
//     with minimum >= 1 are plain Concat children (mir.NewRepeat produces
//     them for unbounded repeats, mir.ExpandBounded for bounded ones) and
//     count like any other node;
//   - an alternation contributes the minimum of its branches' contributions.
//
// This is pure arithmetic over the MIR tree; no teacher or pack library
// implements pattern-specificity scoring (it is unique to lexer
// generators), so it is implemented directly against the spec.
func Derive(n *mir.Node) int {
	switch n.Kind {
	case mir.Empty:
		return 0

	case mir.ByteRange:
		if n.Lo == n.Hi {
			return 2
		}
		return 1

	case mir.Concat:
		total := 0
		for _, c := range n.Children {
			total += Derive(c)
		}
		return total

	case mir.Alt:
		if len(n.Children) == 0 {
			return 0
		}
		min := Derive(n.Children[0])
		for _, c := range n.Children[1:] {
			if v := Derive(c); v < min {
				min = v
			}
		}
		return min

	case mir.Repeat:
		// mir.NewRepeat normalizes every unbounded repeat with a nonzero
		// minimum into mandatory copies + a zero-or-more loop, and
		// mir.ExpandBounded does the same for bounded repeats, so on an
		// expanded MIR any Repeat node reaching here has Min == 0 (its
		// body's contribution is captured by the mandatory copies). A
		// Repeat node contributes nothing whatever its Min.
		return 0

	default:
		return 0
	}
}
