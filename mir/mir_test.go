package mir

import "testing"

func TestNewConcatFlattensAndDropsEmpty(t *testing.T) {
	n := NewConcat(NewEmpty(), NewByte('a'), NewConcat(NewByte('b'), NewByte('c')))
	if n.Kind != Concat || len(n.Children) != 3 {
		t.Fatalf("expected flattened 3-child concat, got %#v", n)
	}
}

func TestNewConcatSingleChildCollapses(t *testing.T) {
	n := NewConcat(NewByte('a'))
	if n.Kind != ByteRange {
		t.Fatalf("expected single child to collapse to ByteRange, got kind %v", n.Kind)
	}
}

func TestNewAltDeduplicates(t *testing.T) {
	n := NewAlt(NewByte('a'), NewByte('a'), NewByte('b'))
	if n.Kind != Alt || len(n.Children) != 2 {
		t.Fatalf("expected deduplicated 2-child alt, got %#v", n)
	}
}

func TestNewAltIsOrderIndependent(t *testing.T) {
	a := NewAlt(NewByte('a'), NewByte('b'))
	b := NewAlt(NewByte('b'), NewByte('a'))
	if a.Fingerprint() != b.Fingerprint() {
		t.Fatalf("expected order-independent fingerprint: %q vs %q", a.Fingerprint(), b.Fingerprint())
	}
}

func TestIsEmptyMatch(t *testing.T) {
	cases := []struct {
		name string
		n    *Node
		want bool
	}{
		{"empty", NewEmpty(), true},
		{"byte", NewByte('a'), false},
		{"concat-of-byte", NewConcat(NewByte('a'), NewByte('b')), false},
		{"star", NewRepeat(NewByte('a'), 0, Unbounded, true), true},
		{"plus", NewRepeat(NewByte('a'), 1, Unbounded, true), false},
		{"alt-with-empty-branch", NewAlt(NewEmpty(), NewByte('a')), true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.n.IsEmptyMatch(); got != c.want {
				t.Errorf("IsEmptyMatch() = %v, want %v", got, c.want)
			}
		})
	}
}

func TestFingerprintDistinguishesStructure(t *testing.T) {
	a := NewConcat(NewByte('a'), NewByte('b'))
	b := NewAlt(NewByte('a'), NewByte('b'))
	if a.Fingerprint() == b.Fingerprint() {
		t.Fatalf("expected distinct fingerprints for Concat vs Alt, got %q", a.Fingerprint())
	}
}
