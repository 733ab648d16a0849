package accel

import "testing"

func TestLiteralSetMatchAt(t *testing.T) {
	set, err := NewLiteralSet([]Entry{
		{Bytes: []byte("fast"), Leaf: 1},
		{Bytes: []byte("for"), Leaf: 2},
		{Bytes: []byte("if"), Leaf: 3},
	})
	if err != nil {
		t.Fatalf("NewLiteralSet: %v", err)
	}

	id, n, ok := set.MatchAt([]byte("fast food"), 0)
	if !ok || id != 1 || n != 4 {
		t.Fatalf("MatchAt(fast food, 0) = (%d,%d,%v), want (1,4,true)", id, n, ok)
	}

	id, n, ok = set.MatchAt([]byte("xxforyy"), 2)
	if !ok || id != 2 || n != 3 {
		t.Fatalf("MatchAt(xxforyy, 2) = (%d,%d,%v), want (2,3,true)", id, n, ok)
	}

	if _, _, ok := set.MatchAt([]byte("xxforyy"), 0); ok {
		t.Fatalf("expected no anchored match at position 0")
	}
}

func TestLiteralSetEmptyRejected(t *testing.T) {
	if _, err := NewLiteralSet(nil); err != ErrEmptySet {
		t.Fatalf("expected ErrEmptySet, got %v", err)
	}
}

func TestLiteralSetContainsAt(t *testing.T) {
	set, err := NewLiteralSet([]Entry{{Bytes: []byte("true"), Leaf: 1}})
	if err != nil {
		t.Fatalf("NewLiteralSet: %v", err)
	}
	if !set.ContainsAt([]byte("true"), 0) {
		t.Fatalf("expected ContainsAt to find literal at 0")
	}
	if set.ContainsAt([]byte("truex"), 1) {
		t.Fatalf("expected no match starting mid-literal")
	}
}
