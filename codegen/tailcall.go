package codegen

import "github.com/maciejhirsz/logos/leaf"

// stateFunc is the tail-call backend's per-state body (spec §4.5): a
// transition is a call to the next state's function, in tail position.
// Go's compiler does not guarantee tail-call elimination, so instead of
// calling the next function directly (risking stack growth proportional
// to match length), each stateFunc *returns* the next function to invoke
// and the driver below trampolines over the chain. This preserves the
// "one function per state" structure of the backend without the stack
// risk.
type stateFunc func(f *tailFrame) stateFunc

// tailFrame carries the bookkeeping a hand-written tail-call lexer would
// otherwise thread through call arguments: the input, the current
// position, and the longest-match-with-priority "last accepted leaf"
// register (spec §4.3).
type tailFrame struct {
	data []byte
	pos  int

	lastLeaf leaf.ID
	lastPos  int
	haveLast bool
}

// TailCallProgram is the tail-call backend (spec §4.5): one stateFunc per
// compiled state, built once at Compile time and trampolined over by Run.
type TailCallProgram struct {
	fns  []stateFunc
	root int32
}

func newTailCallProgram(states []compiledState, root int32) *TailCallProgram {
	fns := make([]stateFunc, len(states))
	for i, cs := range states {
		fns[i] = buildStateFunc(cs, fns)
	}
	return &TailCallProgram{fns: fns, root: root}
}

func buildStateFunc(cs compiledState, fns []stateFunc) stateFunc {
	switch cs.Kind {
	case lowerLeaf:
		leafID := cs.LeafID
		return func(f *tailFrame) stateFunc {
			f.lastLeaf, f.lastPos, f.haveLast = leafID, f.pos, true
			return nil
		}

	case lowerRope:
		bytes := cs.Bytes
		then := cs.Then
		return func(f *tailFrame) stateFunc {
			n := len(bytes)
			if f.pos+n > len(f.data) || !bytesEqual(f.data[f.pos:f.pos+n], bytes) {
				return nil
			}
			f.pos += n
			return fns[then]
		}

	case lowerAccel:
		accelSet := cs.Accel
		miss := cs.AccelMiss
		return func(f *tailFrame) stateFunc {
			if id, n, ok := accelSet.MatchAt(f.data, f.pos); ok {
				f.lastLeaf, f.lastPos, f.haveLast = id, f.pos+n, true
				return nil
			}
			if miss.HasLeaf {
				f.lastLeaf, f.lastPos, f.haveLast = miss.LeafID, f.pos, true
			}
			return nil
		}

	case lowerFork:
		state := cs
		return func(f *tailFrame) stateFunc {
			if state.Miss.HasLeaf {
				f.lastLeaf, f.lastPos, f.haveLast = state.Miss.LeafID, f.pos, true
				if state.Early {
					return nil
				}
			}
			if f.pos >= len(f.data) {
				return nil
			}
			target, ok := state.targetFor(f.data[f.pos])
			if !ok {
				return nil
			}
			f.pos++
			return fns[target]
		}

	default:
		return func(f *tailFrame) stateFunc { return nil }
	}
}

// Run implements Program by trampolining over the closures returned from
// the root state's function until one returns nil.
func (p *TailCallProgram) Run(data []byte, pos int) (leaf.ID, int, bool) {
	f := &tailFrame{data: data, pos: pos}
	for fn := p.fns[p.root]; fn != nil; {
		fn = fn(f)
	}
	return f.lastLeaf, f.lastPos, f.haveLast
}
