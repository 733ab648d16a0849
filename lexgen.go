// Package lexgen is the entry point of the core described by spec.md: it
// takes a vector of PatternDescriptor values and the global flags of spec
// §6, and runs the full pipeline — pattern parser → MIR (package mir),
// leaf assignment (package leaf), graph construction and optimization
// (package graph), codegen (package codegen) — to produce a Built value
// that can mint runtime.Lexer instances over arbitrary sources.
//
// Build is a pure function of its inputs (spec §5): no I/O beyond the
// optional debug export, no shared mutable state, no asynchrony.
package lexgen

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/maciejhirsz/logos/classify"
	"github.com/maciejhirsz/logos/codegen"
	"github.com/maciejhirsz/logos/diag"
	"github.com/maciejhirsz/logos/graph"
	"github.com/maciejhirsz/logos/leaf"
	"github.com/maciejhirsz/logos/mir"
	"github.com/maciejhirsz/logos/runtime"
)

// Config carries the "Global flags" of spec §6, grounded on
// meta/config.go's plain Config-struct-plus-defaults convention.
type Config struct {
	// SourceKind selects utf8-text or raw-bytes (spec §6).
	SourceKind runtime.SourceKind

	// DefaultSkip, if non-empty, is a convenience skip token's regex
	// (spec §6 "default-skip regex"), added to the pattern set as an
	// extra leaf with CallbackShape == leaf.Skip.
	DefaultSkip string

	// NewError builds the runtime error value for an unmatched position
	// (spec §6 "error-value constructor identity"). Defaults to
	// runtime.DefaultError.
	NewError runtime.ErrorConstructor

	// Backend selects dispatch-loop or tail-call codegen (spec §6, §4.5).
	Backend codegen.Backend

	// AllowGreedyDot disables the greedy-dot guard (spec §4.4) for every
	// pattern in the set; individual descriptors may also opt in alone
	// via PatternDescriptor.AllowGreedyDot.
	AllowGreedyDot bool

	// Debug enables writing the diagnostics of spec §4.6 to ExportDir.
	Debug bool
	// ExportDir is the directory debug artifacts are written to when
	// Debug is true: listing.txt, graph.dot, graph.mmd.
	ExportDir string
}

// Built is the immutable result of Build: a compiled program plus the
// leaf table codegen and runtime need to interpret it (spec §3
// "Lifecycles: ... the graph is built once and consumed by codegen; the
// generated state machine is static").
type Built struct {
	Graph   *graph.Graph
	Program codegen.Program
	Leaves  map[leaf.ID]*leaf.Leaf

	sourceKind runtime.SourceKind
	newError   runtime.ErrorConstructor
	skipTable  *[256]bool
}

// NewLexer mints a runtime.Lexer over data, wired to this Built's compiled
// program and leaf table (spec §6 "lexer(source) → iterator-of
// (result-of token-or-error, span)").
func (b *Built) NewLexer(data []byte, dispatcher runtime.Dispatcher) *runtime.Lexer {
	return runtime.New(data, runtime.Config{
		Program:    b.Program,
		Leaves:     b.Leaves,
		Dispatcher: dispatcher,
		SourceKind: b.sourceKind,
		NewError:   b.newError,
		SkipTable:  b.skipTable,
	})
}

// RuntimeConfig returns the runtime.Config this Built would hand NewLexer,
// for callers (e.g. Morph targets) that want to adjust a field such as
// Dispatcher before constructing the Lexer themselves.
func (b *Built) RuntimeConfig(dispatcher runtime.Dispatcher) runtime.Config {
	return runtime.Config{
		Program:    b.Program,
		Leaves:     b.Leaves,
		Dispatcher: dispatcher,
		SourceKind: b.sourceKind,
		NewError:   b.newError,
		SkipTable:  b.skipTable,
	}
}

// Build runs the full pipeline over patterns and cfg (spec §2's six-stage
// pipeline, minus diagnostics which Build performs as a side effect when
// cfg.Debug is set).
func Build(patterns []PatternDescriptor, cfg Config) (*Built, error) {
	all := patterns
	if cfg.DefaultSkip != "" {
		all = append(append([]PatternDescriptor{}, patterns...), PatternDescriptor{
			Kind: Regex,
			Pattern: cfg.DefaultSkip,
			Skip:    true,
		})
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("lexgen: no patterns to build")
	}

	inputs := make([]graph.PatternInput, len(all))
	var skipTable *[256]bool

	for i := range all {
		d := &all[i]
		node, err := lowerDescriptor(d, cfg)
		if err != nil {
			return nil, fmt.Errorf("lexgen: pattern %d: %w", i, err)
		}
		node = mir.ExpandBounded(node)

		priority := leaf.Derive(node)
		explicit := false
		if d.Priority != nil {
			priority = *d.Priority
			explicit = true
		}

		l := &leaf.Leaf{
			ID:               leaf.ID(i),
			Priority:         priority,
			ExplicitPriority: explicit,
			CallbackShape:    d.effectiveShape(),
			IgnoreCase:       d.IgnoreCase,
			Span:             leaf.SourceSpan{File: d.Span.File, Line: d.Span.Line},
		}
		inputs[i] = graph.PatternInput{MIR: node, Leaf: l}

		if d.Skip && skipTable == nil && i == len(all)-1 && cfg.DefaultSkip != "" {
			if ranges, ok := simpleSkipClass(node); ok {
				skipTable = classify.NewByteTable(ranges)
			}
		}
	}

	g, err := graph.Build(inputs)
	if err != nil {
		return nil, err
	}

	program, err := codegen.Compile(g, cfg.Backend)
	if err != nil {
		return nil, err
	}

	if cfg.Debug {
		if err := exportDebug(g, cfg.ExportDir); err != nil {
			return nil, fmt.Errorf("lexgen: debug export: %w", err)
		}
	}

	newErr := cfg.NewError
	if newErr == nil {
		newErr = runtime.DefaultError
	}

	return &Built{
		Graph:      g,
		Program:    program,
		Leaves:     g.Leaves,
		sourceKind: cfg.SourceKind,
		newError:   newErr,
		skipTable:  skipTable,
	}, nil
}

func lowerDescriptor(d *PatternDescriptor, cfg Config) (*mir.Node, error) {
	allowGreedy := cfg.AllowGreedyDot || d.AllowGreedyDot

	switch d.Kind {
	case Literal:
		return mir.LowerLiteral(d.Pattern, mir.Flags{IgnoreCase: d.IgnoreCase, Unicode: true})

	case Regex:
		pattern := d.Pattern
		if len(d.Subpatterns) > 0 {
			expanded, err := mir.ExpandSubpatterns(pattern, d.Subpatterns)
			if err != nil {
				return nil, err
			}
			pattern = expanded
		}
		return mir.LowerRegex(pattern, mir.Flags{IgnoreCase: d.IgnoreCase, Unicode: true, AllowGreedyDot: allowGreedy})

	case RawByteRanges:
		if cfg.SourceKind != runtime.RawBytes {
			return nil, fmt.Errorf("%w: raw byte-range pattern requires Config.SourceKind == RawBytes", mir.ErrInvalidUTF8)
		}
		if len(d.RawRanges) == 0 {
			return nil, mir.ErrEmptyMatch
		}
		alts := make([]*mir.Node, len(d.RawRanges))
		for i, r := range d.RawRanges {
			alts[i] = mir.NewByteRange(r[0], r[1])
		}
		return mir.NewAlt(alts...), nil

	default:
		return nil, fmt.Errorf("lexgen: unknown pattern kind %d", d.Kind)
	}
}

// simpleSkipClass reports whether n is exactly the shape mir.NewRepeat
// produces for a "+"-repeated fixed byte class — Concat(class,
// Repeat(class, 0, Unbounded)) — and if so returns the class as a list of
// inclusive byte ranges. Only this shape is safe to fast-path with
// classify's byte-table scan (spec SPEC_FULL.md's [DOMAIN] wiring of
// golang.org/x/sys/cpu via package classify).
func simpleSkipClass(n *mir.Node) ([][2]byte, bool) {
	if n.Kind != mir.Concat || len(n.Children) != 2 {
		return nil, false
	}
	class, ok := byteClassOf(n.Children[0])
	if !ok {
		return nil, false
	}
	rep := n.Children[1]
	if rep.Kind != mir.Repeat || rep.Min != 0 || rep.Max != mir.Unbounded {
		return nil, false
	}
	repClass, ok := byteClassOf(rep.Sub)
	if !ok || !sameClass(class, repClass) {
		return nil, false
	}
	return class, true
}

func byteClassOf(n *mir.Node) ([][2]byte, bool) {
	switch n.Kind {
	case mir.ByteRange:
		return [][2]byte{{n.Lo, n.Hi}}, true
	case mir.Alt:
		ranges := make([][2]byte, 0, len(n.Children))
		for _, c := range n.Children {
			if c.Kind != mir.ByteRange {
				return nil, false
			}
			ranges = append(ranges, [2]byte{c.Lo, c.Hi})
		}
		return ranges, true
	default:
		return nil, false
	}
}

func sameClass(a, bb [][2]byte) bool {
	if len(a) != len(bb) {
		return false
	}
	for i := range a {
		if a[i] != bb[i] {
			return false
		}
	}
	return true
}

func exportDebug(g *graph.Graph, dir string) error {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	listing, err := os.Create(filepath.Join(dir, "listing.txt"))
	if err != nil {
		return err
	}
	defer listing.Close()
	if err := diag.WriteListing(listing, g); err != nil {
		return err
	}

	dot, err := os.Create(filepath.Join(dir, "graph.dot"))
	if err != nil {
		return err
	}
	defer dot.Close()
	if err := diag.WriteDOT(dot, g); err != nil {
		return err
	}

	mmd, err := os.Create(filepath.Join(dir, "graph.mmd"))
	if err != nil {
		return err
	}
	defer mmd.Close()
	return diag.WriteMermaid(mmd, g)
}
