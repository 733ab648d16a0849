package classify

import "testing"

func TestIsASCII(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"", true},
		{"hello", true},
		{"hello world this is a longer ascii-only string", true},
		{"héllo", false},
		{"世界", false},
		{string([]byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}), true},
		{string([]byte{'a', 'b', 'c', 'd', 'e', 'f', 'g', 0x80}), false},
	}
	for _, c := range cases {
		if got := IsASCII([]byte(c.in)); got != c.want {
			t.Errorf("IsASCII(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestIsASCIILongRunsBothLaneWidths(t *testing.T) {
	ascii := make([]byte, 300)
	for i := range ascii {
		ascii[i] = byte('a' + i%26)
	}
	if !IsASCII(ascii) {
		t.Fatalf("expected long ASCII run to classify as ASCII")
	}
	ascii[299] = 0xFF
	if IsASCII(ascii) {
		t.Fatalf("expected trailing non-ASCII byte to be detected")
	}
	ascii[299] = 'z'
	ascii[150] = 0xFF
	if IsASCII(ascii) {
		t.Fatalf("expected mid-buffer non-ASCII byte to be detected")
	}
}

func TestFirstIndexNotInTable(t *testing.T) {
	table := NewByteTable([][2]byte{{' ', ' '}, {'\t', '\t'}, {'\n', '\n'}})
	if got := FirstIndexNotInTable([]byte("   \t\nx"), table); got != 5 {
		t.Errorf("FirstIndexNotInTable = %d, want 5", got)
	}
	if got := FirstIndexNotInTable([]byte("   "), table); got != -1 {
		t.Errorf("FirstIndexNotInTable = %d, want -1", got)
	}
}

func TestFirstIndexInTable(t *testing.T) {
	table := NewByteTable([][2]byte{{'0', '9'}})
	if got := FirstIndexInTable([]byte("abc123"), table); got != 3 {
		t.Errorf("FirstIndexInTable = %d, want 3", got)
	}
}
