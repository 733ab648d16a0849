// Package mir defines the medium intermediate representation that every
// user pattern is lowered into before it is merged with the other patterns
// of a token set (see package graph).
//
// A Node is a tagged variant over Empty, ByteRange, Concat, Alt and Repeat,
// mirroring the way the teacher package's nfa.State represents its own
// tagged variants: one struct, one Kind enum, and only the fields that
// apply to that Kind are populated.
package mir

import (
	"fmt"
	"sort"
	"strings"
)

// Kind identifies which variant a Node holds.
type Kind uint8

const (
	// Empty matches the empty string. It only ever appears as an
	// intermediate value while lowering optional branches; a top-level
	// pattern that reduces to Empty is rejected (spec §4.1(i)).
	Empty Kind = iota
	// ByteRange matches a single byte in [Lo, Hi] inclusive.
	ByteRange
	// Concat matches its children in sequence. Conceptually
	// right-associative: Concat(a, b, c) means a then Concat(b, c).
	Concat
	// Alt matches any one of its children (all trying the same input
	// position). Children are de-duplicated and sorted by fingerprint.
	Alt
	// Repeat matches its Sub node between Min and Max times (Max == -1
	// means unbounded). Greedy is always true post-lowering: the spec
	// rejects non-greedy repetitions it cannot express (§4.1).
	Repeat
)

// Unbounded is the sentinel Max value for an unbounded repetition.
const Unbounded = -1

// Node is one node of the MIR tree. See Kind for which fields are valid.
type Node struct {
	Kind Kind

	// ByteRange
	Lo, Hi byte

	// Concat, Alt
	Children []*Node

	// Repeat
	Sub    *Node
	Min    int
	Max    int
	Greedy bool
}

// NewEmpty returns the Empty node.
func NewEmpty() *Node { return &Node{Kind: Empty} }

// NewByteRange returns a Node matching a single inclusive byte range.
// The caller must ensure lo <= hi; no canonicalization is performed here.
func NewByteRange(lo, hi byte) *Node {
	return &Node{Kind: ByteRange, Lo: lo, Hi: hi}
}

// NewByte returns a Node matching exactly one byte value.
func NewByte(b byte) *Node { return NewByteRange(b, b) }

// NewConcat returns a Node matching its children in sequence. Empty
// children are dropped; a Concat of zero remaining children collapses to
// Empty; a Concat of one child collapses to that child.
func NewConcat(children ...*Node) *Node {
	flat := make([]*Node, 0, len(children))
	for _, c := range children {
		if c == nil || c.Kind == Empty {
			continue
		}
		if c.Kind == Concat {
			flat = append(flat, c.Children...)
			continue
		}
		flat = append(flat, c)
	}
	switch len(flat) {
	case 0:
		return NewEmpty()
	case 1:
		return flat[0]
	default:
		return &Node{Kind: Concat, Children: flat}
	}
}

// NewAlt returns a Node matching any one of its children. Children are
// de-duplicated by fingerprint and sorted so that two structurally
// identical alternations always produce the same Node shape (a
// prerequisite for content-addressing in package graph).
func NewAlt(children ...*Node) *Node {
	flat := make([]*Node, 0, len(children))
	for _, c := range children {
		if c == nil {
			continue
		}
		if c.Kind == Alt {
			flat = append(flat, c.Children...)
			continue
		}
		flat = append(flat, c)
	}
	seen := make(map[string]*Node, len(flat))
	order := make([]string, 0, len(flat))
	for _, c := range flat {
		key := c.Fingerprint()
		if _, ok := seen[key]; !ok {
			seen[key] = c
			order = append(order, key)
		}
	}
	sort.Strings(order)
	deduped := make([]*Node, len(order))
	for i, key := range order {
		deduped[i] = seen[key]
	}
	if len(deduped) == 1 {
		return deduped[0]
	}
	return &Node{Kind: Alt, Children: deduped}
}

// NewRepeat returns a Node matching Sub between min and max times
// (max == Unbounded for an unbounded repetition).
//
// An unbounded repeat with a nonzero minimum is normalized at
// construction time into `min` mandatory copies of Sub followed by a
// zero-or-more loop, e.g. "+" (min=1) becomes Concat(Sub, Repeat(Sub,0,∞)).
// This mirrors logos-codegen's Mir::Loop, which is always a bare
// zero-or-more node — "+" and "{n,}" are desugared into a Concat before
// priority derivation ever sees them (see leaf.Derive) — so every Repeat
// node that survives into the graph builder has Min == 0.
func NewRepeat(sub *Node, min, max int, greedy bool) *Node {
	if max == Unbounded && min > 0 {
		copies := make([]*Node, min+1)
		for i := 0; i < min; i++ {
			copies[i] = sub
		}
		copies[min] = &Node{Kind: Repeat, Sub: sub, Min: 0, Max: Unbounded, Greedy: greedy}
		return NewConcat(copies...)
	}
	return &Node{Kind: Repeat, Sub: sub, Min: min, Max: max, Greedy: greedy}
}

// IsEmptyMatch reports whether this node accepts the empty string, i.e.
// whether it can match without consuming any byte. Used to enforce the
// "every MIR accepts a non-empty language" invariant (spec §4.1(i)).
func (n *Node) IsEmptyMatch() bool {
	switch n.Kind {
	case Empty:
		return true
	case ByteRange:
		return false
	case Concat:
		for _, c := range n.Children {
			if !c.IsEmptyMatch() {
				return false
			}
		}
		return true
	case Alt:
		for _, c := range n.Children {
			if c.IsEmptyMatch() {
				return true
			}
		}
		return false
	case Repeat:
		return n.Min == 0 || n.Sub.IsEmptyMatch()
	default:
		return false
	}
}

// Fingerprint returns a canonical string encoding of the node, used both
// as a de-duplication key for Alt children and as the seed for the
// content-addressed state hashing in package graph.
func (n *Node) Fingerprint() string {
	var b strings.Builder
	n.writeFingerprint(&b)
	return b.String()
}

func (n *Node) writeFingerprint(b *strings.Builder) {
	switch n.Kind {
	case Empty:
		b.WriteString("E")
	case ByteRange:
		fmt.Fprintf(b, "R%02x-%02x", n.Lo, n.Hi)
	case Concat:
		b.WriteString("C(")
		for _, c := range n.Children {
			c.writeFingerprint(b)
			b.WriteByte(',')
		}
		b.WriteByte(')')
	case Alt:
		b.WriteString("A(")
		for _, c := range n.Children {
			c.writeFingerprint(b)
			b.WriteByte(',')
		}
		b.WriteByte(')')
	case Repeat:
		fmt.Fprintf(b, "P{%d,%d,%v}(", n.Min, n.Max, n.Greedy)
		n.Sub.writeFingerprint(b)
		b.WriteByte(')')
	}
}

// String renders the node as a debug-friendly regex-like expression, used
// by the diagnostics dumpers in package diag.
func (n *Node) String() string {
	switch n.Kind {
	case Empty:
		return ""
	case ByteRange:
		if n.Lo == n.Hi {
			return fmt.Sprintf("%q", rune(n.Lo))
		}
		return fmt.Sprintf("[\\x%02x-\\x%02x]", n.Lo, n.Hi)
	case Concat:
		parts := make([]string, len(n.Children))
		for i, c := range n.Children {
			parts[i] = c.String()
		}
		return strings.Join(parts, "")
	case Alt:
		parts := make([]string, len(n.Children))
		for i, c := range n.Children {
			parts[i] = c.String()
		}
		return "(" + strings.Join(parts, "|") + ")"
	case Repeat:
		suffix := fmt.Sprintf("{%d,%s}", n.Min, maxStr(n.Max))
		if n.Min == 0 && n.Max == 1 {
			suffix = "?"
		} else if n.Min == 0 && n.Max == Unbounded {
			suffix = "*"
		} else if n.Min == 1 && n.Max == Unbounded {
			suffix = "+"
		}
		return n.Sub.String() + suffix
	default:
		return "?"
	}
}

func maxStr(max int) string {
	if max == Unbounded {
		return ""
	}
	return fmt.Sprintf("%d", max)
}
