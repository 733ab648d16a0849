// Package runtime drives the compiled state machine (package codegen) over
// an input source, implementing the lexer iterator the spec exposes to the
// host-language binding (spec §3 "Lexer state (runtime)", §6 "Surface
// exposed by the core").
//
// Invoking the actual user callback attached to a matched leaf is
// explicitly out of scope for the core (spec §1): Lexer only records which
// leaf matched and its declared CallbackShape, then hands both to a
// Dispatcher the host binding supplies. This mirrors dfa/lazy.DFA's
// search-loop shape (coregx-coregex/dfa/lazy/lazy.go) — a compiled
// automaton driven byte-by-byte with a "last match" register — generalized
// here to longest-match-with-priority over leaves instead of a single
// regex match.
package runtime

import (
	"fmt"
	"unicode/utf8"

	"github.com/maciejhirsz/logos/classify"
	"github.com/maciejhirsz/logos/codegen"
	"github.com/maciejhirsz/logos/leaf"
)

// SourceKind selects how the lexer advances past an unmatched input unit
// when recovering from an error (spec §6 "Global flags: source-kind").
type SourceKind uint8

const (
	// UTF8Text treats the source as well-formed UTF-8 text: error
	// recovery advances by one code point.
	UTF8Text SourceKind = iota
	// RawBytes treats the source as an opaque byte buffer: error
	// recovery advances by one byte.
	RawBytes
)

// Span is a half-open byte range [Start, End) into the source (spec §6).
type Span struct {
	Start, End int
}

// Len reports the number of bytes the span covers.
func (s Span) Len() int { return s.End - s.Start }

// Action is the Dispatcher's verdict for a matched leaf, modeling the
// "reject" behavior of the Bool/Option/Filter callback shapes (spec §3)
// without the core ever calling the callback itself.
type Action uint8

const (
	// Emit yields the matched leaf as a token.
	Emit Action = iota
	// Skip resets token-start to the current position and resumes
	// scanning without yielding a token (spec §4.5 "skip" leaves).
	Skip
	// Reject declines the match "as if it had not happened"; the lexer
	// reports an error at this position instead (spec §3's Bool/Option
	// callback-shape semantics).
	Reject
)

// Dispatcher is the external collaborator that actually runs a token's
// user callback (spec §1 non-goal: "user-defined callbacks invoked on
// match"). Given the matched leaf's identity, declared shape, and raw
// slice, it decides whether to Emit, Skip, or Reject, and may return an
// error that propagates as the token's error (the Result/Filter/
// SkipResult shapes' failure case, spec §7 "Callback-produced errors
// propagate as lexer errors via the declared return-shape").
type Dispatcher interface {
	Dispatch(id leaf.ID, shape leaf.CallbackShape, slice []byte) (Action, error)
}

// ErrorConstructor builds the user-visible error value for a "no pattern
// matched" token (spec §6 "error-value constructor identity"). Identity of
// the constructed error type is a host-binding concern; DefaultError is
// used when none is supplied.
type ErrorConstructor func(span Span) error

// DefaultError is the ErrorConstructor used when a Config does not supply
// one: a plain *RuntimeError wrapping the sentinel ErrNoMatch.
func DefaultError(span Span) error {
	return &RuntimeError{Span: span, Err: ErrNoMatch}
}

// Config bundles everything a Lexer needs beyond the source bytes
// themselves, grounded on meta/config.go's plain-struct-plus-defaults
// convention rather than functional options.
type Config struct {
	Program    codegen.Program
	Leaves     map[leaf.ID]*leaf.Leaf
	Dispatcher Dispatcher
	SourceKind SourceKind
	// NewError builds the error value for an unmatched position. Defaults
	// to DefaultError if nil.
	NewError ErrorConstructor
	// SkipTable, if non-nil, is a fixed byte-class membership table for
	// the configured DefaultSkip convenience token (spec §6): runs of
	// bytes in the table are consumed with classify.FirstIndexNotInTable
	// instead of walking the full compiled program one byte at a time.
	// Only safe when DefaultSkip's pattern is exactly "one or more bytes
	// from a fixed class" — package lexgen only sets this when that
	// holds.
	SkipTable *[256]bool
}

// Result is one step of the lexer iterator (spec §6 "iterator-of
// (result-of token-or-error, span)"). Done is true once the source is
// exhausted and no further token remains.
type Result struct {
	LeafID leaf.ID
	Span   Span
	Err    error
	Done   bool
}

// Lexer drives a compiled Program over a source buffer, owning the
// per-instance state the spec's data model assigns it: source reference,
// current position, token-start position, and user extras (spec §3).
type Lexer struct {
	data []byte

	pos        int
	tokenStart int

	program    codegen.Program
	leaves     map[leaf.ID]*leaf.Leaf
	dispatcher Dispatcher
	newError   ErrorConstructor
	sourceKind SourceKind
	skipTable  *[256]bool

	currentSpan Span
	extras      any
}

// New creates a Lexer over data using cfg, positioned at byte offset 0;
// Morph sets the position afterwards to resume mid-source.
func New(data []byte, cfg Config) *Lexer {
	newErr := cfg.NewError
	if newErr == nil {
		newErr = DefaultError
	}
	return &Lexer{
		data:       data,
		program:    cfg.Program,
		leaves:     cfg.Leaves,
		dispatcher: cfg.Dispatcher,
		newError:   newErr,
		sourceKind: cfg.SourceKind,
		skipTable:  cfg.SkipTable,
	}
}

// Extras returns the per-instance user value carried across Morph calls.
func (l *Lexer) Extras() any { return l.extras }

// SetExtras installs the per-instance user value.
func (l *Lexer) SetExtras(v any) { l.extras = v }

// Pos reports the lexer's current byte offset into the source.
func (l *Lexer) Pos() int { return l.pos }

// Slice returns the byte sub-range of the most recently returned token
// (spec §6 "slice() returning the byte sub-range of the current token").
func (l *Lexer) Slice() []byte { return l.data[l.currentSpan.Start:l.currentSpan.End] }

// Span returns the span of the most recently returned token.
func (l *Lexer) Span() Span { return l.currentSpan }

// Remainder returns the tail of the source beyond the current position
// (spec §6).
func (l *Lexer) Remainder() []byte { return l.data[l.pos:] }

// Bump advances the position by n units without emitting a token (spec
// §6). The caller is responsible for only bumping by an amount that keeps
// the position on a boundary it actually wants to resume scanning from.
func (l *Lexer) Bump(n int) { l.pos += n }

// Morph returns a Lexer for a different token set that shares this
// lexer's source, current position, and user extras (spec §6 "morph<T>()
// ... provided the extras are convertible"). The caller supplies the new
// token set's compiled program, leaf table, and dispatcher; extras are
// carried over as-is — converting them to the target token set's extras
// type, if different, is the caller's responsibility before or after the
// call.
func (l *Lexer) Morph(cfg Config) *Lexer {
	m := New(l.data, cfg)
	m.pos = l.pos
	m.tokenStart = l.pos
	m.extras = l.extras
	return m
}

// advanceUnit returns the position immediately past one "input unit" at
// at, for the error-recovery guarantee of spec §4.5: "when current-position
// equals token-start, the error span is extended by exactly one input unit
// so progress is guaranteed."
func (l *Lexer) advanceUnit(at int) int {
	if at >= len(l.data) {
		return at
	}
	if l.sourceKind == RawBytes {
		return at + 1
	}
	_, size := utf8.DecodeRune(l.data[at:])
	if size <= 0 {
		size = 1
	}
	return at + size
}

// Next advances the lexer by exactly one token (or error token), per spec
// §4.5 and §7. Skip leaves (Action Skip, or CallbackShape.IsSkip() when no
// Dispatcher is installed) are consumed internally and never surface as a
// Result.
func (l *Lexer) Next() Result {
	for {
		if l.skipTable != nil && l.pos < len(l.data) && l.skipTable[l.data[l.pos]] {
			idx := classify.FirstIndexNotInTable(l.data[l.pos:], l.skipTable)
			if idx < 0 {
				l.pos = len(l.data)
			} else {
				l.pos += idx
			}
		}

		if l.pos >= len(l.data) {
			l.currentSpan = Span{l.pos, l.pos}
			return Result{Done: true}
		}

		l.tokenStart = l.pos

		id, newPos, ok := l.program.Run(l.data, l.pos)
		if !ok {
			end := l.pos
			if end == l.tokenStart {
				end = l.advanceUnit(l.tokenStart)
			}
			span := Span{l.tokenStart, end}
			l.pos = end
			l.currentSpan = span
			return Result{Span: span, Err: l.newError(span)}
		}

		lf := l.leaves[id]
		slice := l.data[l.tokenStart:newPos]

		action := Emit
		var err error
		if l.dispatcher != nil {
			action, err = l.dispatcher.Dispatch(id, lf.CallbackShape, slice)
		} else if lf.CallbackShape.IsSkip() {
			action = Skip
		}

		span := Span{l.tokenStart, newPos}
		l.pos = newPos

		if err != nil {
			l.currentSpan = span
			return Result{LeafID: id, Span: span, Err: err}
		}

		switch action {
		case Skip:
			continue
		case Reject:
			l.currentSpan = span
			return Result{LeafID: id, Span: span, Err: l.newError(span)}
		default:
			l.currentSpan = span
			return Result{LeafID: id, Span: span}
		}
	}
}

// RuntimeError is the typed error constructed by DefaultError, carrying
// the span of the unmatched input (spec §7), grounded on
// dfa/lazy/error.go's sentinel-plus-typed-wrapper convention.
type RuntimeError struct {
	Span Span
	Err  error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime: %v at [%d, %d)", e.Err, e.Span.Start, e.Span.End)
}

func (e *RuntimeError) Unwrap() error { return e.Err }
