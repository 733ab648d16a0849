package mir

// ExpandBounded rewrites every bounded repetition ({m,n} with n finite) into
// an explicit Concat of mandatory copies followed by a right-nested chain
// of optional ("?") repeats. Only truly unbounded repetitions ({m,}, *, +)
// survive as Repeat nodes with Max == Unbounded.
//
// This is what makes "cycles only exist where a repetition requires them"
// (spec §3) literally true in package graph: the graph builder only ever
// has to synthesize a back-edge for an unbounded Repeat; a bounded one,
// after this pass, is either gone (folded into Concat) or reduced to the
// simplest possible optional form (Min=0, Max=1), which the builder can
// compile as a plain union with no loop at all.
func ExpandBounded(n *Node) *Node {
	switch n.Kind {
	case Empty, ByteRange:
		return n

	case Concat:
		children := make([]*Node, len(n.Children))
		for i, c := range n.Children {
			children[i] = ExpandBounded(c)
		}
		return NewConcat(children...)

	case Alt:
		children := make([]*Node, len(n.Children))
		for i, c := range n.Children {
			children[i] = ExpandBounded(c)
		}
		return NewAlt(children...)

	case Repeat:
		sub := ExpandBounded(n.Sub)
		if n.Max == Unbounded {
			return NewRepeat(sub, n.Min, Unbounded, true)
		}
		return expandBoundedRepeat(sub, n.Min, n.Max)

	default:
		return n
	}
}

func expandBoundedRepeat(sub *Node, min, max int) *Node {
	if min == max {
		copies := make([]*Node, min)
		for i := range copies {
			copies[i] = sub
		}
		return NewConcat(copies...)
	}

	mandatory := make([]*Node, min)
	for i := range mandatory {
		mandatory[i] = sub
	}
	optional := nestedQuest(sub, max-min)
	return NewConcat(append(mandatory, optional)...)
}

// nestedQuest builds a right-nested chain of `count` optional copies of
// sub: one copy of sub followed optionally by the rest, so that matching
// stops greedily as soon as one optional layer is skipped.
func nestedQuest(sub *Node, count int) *Node {
	if count <= 0 {
		return NewEmpty()
	}
	inner := nestedQuest(sub, count-1)
	return NewRepeat(NewConcat(sub, inner), 0, 1, true)
}
