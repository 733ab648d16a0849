package codegen

import "github.com/maciejhirsz/logos/leaf"

// DispatchProgram is the dispatch-loop backend (spec §4.5): one tagged
// variant per state in a flat slice, and a single loop that reads the
// current state and, via a switch over its Kind, executes the state's
// body. Transitioning means reassigning the loop's state index and
// continuing, exactly as a hand-written "state enum + dispatch loop"
// lexer would.
type DispatchProgram struct {
	states []compiledState
	root   int32
}

func newDispatchProgram(states []compiledState, root int32) *DispatchProgram {
	return &DispatchProgram{states: states, root: root}
}

// Run implements Program. It is the single authoritative implementation of
// spec §4.3's "longest match with priority": walk forward recording the
// most recent accepting leaf and position (the "last accepted leaf"), and
// stop the instant no outgoing transition applies, returning that record.
func (p *DispatchProgram) Run(data []byte, pos int) (leaf.ID, int, bool) {
	state := p.root
	cur := pos

	var lastLeaf leaf.ID
	var lastPos int
	haveLast := false

	for {
		cs := &p.states[state]
		switch cs.Kind {
		case lowerLeaf:
			// A bare Leaf state has no outgoing transitions by
			// construction (package graph never attaches transitions to
			// one); reaching it is always a final, maximal match.
			return cs.LeafID, cur, true

		case lowerRope:
			n := len(cs.Bytes)
			if cur+n > len(data) || !bytesEqual(data[cur:cur+n], cs.Bytes) {
				return lastLeaf, lastPos, haveLast
			}
			cur += n
			state = cs.Then

		case lowerAccel:
			if id, n, ok := cs.Accel.MatchAt(data, cur); ok {
				return id, cur + n, true
			}
			if cs.AccelMiss.HasLeaf {
				return cs.AccelMiss.LeafID, cur, true
			}
			return lastLeaf, lastPos, haveLast

		case lowerFork:
			if cs.Miss.HasLeaf {
				lastLeaf, lastPos, haveLast = cs.Miss.LeafID, cur, true
				if cs.Early {
					return lastLeaf, lastPos, true
				}
			}
			if cur >= len(data) {
				return lastLeaf, lastPos, haveLast
			}
			target, ok := cs.targetFor(data[cur])
			if !ok {
				return lastLeaf, lastPos, haveLast
			}
			state = target
			cur++

		default:
			return lastLeaf, lastPos, haveLast
		}
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
