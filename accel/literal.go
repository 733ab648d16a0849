// Package accel accelerates the parts of a recognition graph that are
// dominated by plain literal keywords (spec §4.4's rope collapsing already
// turns a single literal into one comparison; accel goes one step further
// when a token set has many literals competing at the same graph position,
// the way a keyword table typically does).
//
// Grounded on meta/compile.go and meta/meta.go's "large literal
// alternations" strategy: once a pattern set carries enough plain-text
// alternatives, the teacher package builds one github.com/coregx/ahocorasick
// automaton and searches it directly instead of walking its own NFA/DFA
// byte by byte. codegen adopts the exact same trade-off for a Fork whose
// every early child is a Rope terminating in a Leaf.
package accel

import (
	"errors"

	"github.com/coregx/ahocorasick"

	"github.com/maciejhirsz/logos/leaf"
)

// ErrEmptySet is returned by NewLiteralSet when given no literals.
var ErrEmptySet = errors.New("accel: literal set has no entries")

// ErrDuplicateLiteral is returned when the same literal text is registered
// under two different leaves; codegen should never construct such a set,
// since two rope chains sharing identical bytes would already have been
// merged into one state by package graph.
var ErrDuplicateLiteral = errors.New("accel: duplicate literal text")

// Entry pairs a literal's exact bytes with the leaf it resolves to.
type Entry struct {
	Bytes []byte
	Leaf  leaf.ID
}

// LiteralSet accelerates matching against a fixed set of literal keywords
// sharing a common starting position, via a single Aho-Corasick automaton.
type LiteralSet struct {
	automaton *ahocorasick.Automaton
	byText    map[string]leaf.ID
	maxLen    int
}

// NewLiteralSet builds the automaton once, at graph-build time; codegen
// calls MatchAt for every candidate scan position afterward.
func NewLiteralSet(entries []Entry) (*LiteralSet, error) {
	if len(entries) == 0 {
		return nil, ErrEmptySet
	}
	byText := make(map[string]leaf.ID, len(entries))
	builder := ahocorasick.NewBuilder()
	maxLen := 0
	for _, e := range entries {
		key := string(e.Bytes)
		if existing, ok := byText[key]; ok && existing != e.Leaf {
			return nil, ErrDuplicateLiteral
		}
		byText[key] = e.Leaf
		builder.AddPattern(e.Bytes)
		if len(e.Bytes) > maxLen {
			maxLen = len(e.Bytes)
		}
	}
	automaton, err := builder.Build()
	if err != nil {
		return nil, err
	}
	return &LiteralSet{automaton: automaton, byText: byText, maxLen: maxLen}, nil
}

// MatchAt reports the leaf and length of the literal starting exactly at
// position `at` in haystack, if any of the set's literals do. Only a match
// anchored at `at` counts: the automaton itself finds the first match
// anywhere at or after `at`, which is filtered down to "starts here" since
// a lexer scan never wants to skip input looking for a keyword.
func (s *LiteralSet) MatchAt(haystack []byte, at int) (leaf.ID, int, bool) {
	if at >= len(haystack) {
		return 0, 0, false
	}
	m := s.automaton.Find(haystack, at)
	if m == nil || m.Start != at {
		return 0, 0, false
	}
	id, ok := s.byText[string(haystack[m.Start:m.End])]
	if !ok {
		return 0, 0, false
	}
	return id, m.End - m.Start, true
}

// ContainsAt is a zero-allocation boolean form of MatchAt, for callers
// (such as a Fork's dispatch loop) that only need to know whether to take
// the accelerated path before committing to it.
func (s *LiteralSet) ContainsAt(haystack []byte, at int) bool {
	_, _, ok := s.MatchAt(haystack, at)
	return ok
}

// MaxLiteralLen returns the longest literal registered, used by codegen to
// decide whether the remaining input is even long enough to bother trying
// the accelerated path.
func (s *LiteralSet) MaxLiteralLen() int { return s.maxLen }
