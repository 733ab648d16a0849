// Package classify provides byte classification helpers: IsASCII checks
// whether a run of input is plain ASCII with a wide-word pass, and the
// byte-table scans (FirstIndexNotInTable, used by the runtime scanner's
// DefaultSkip fast path, spec §7) look up one byte at a time.
//
// Grounded on simd/ascii_generic.go and simd/memchr_class_generic.go's SWAR
// (SIMD-within-a-register) technique: 8 bytes read as one uint64, checked
// with a single bitwise AND against a magic 0x8080... mask instead of a
// per-byte branch. golang.org/x/sys/cpu gates between two pure-Go chunk
// widths (4 registers per iteration on capable CPUs, 1 otherwise) instead
// of between Go and assembly: the pack's actual AVX2 paths are backed by
// .s files this pack's retrieval doesn't carry, and this build does not
// fabricate the assembly they'd need.
package classify

import (
	"encoding/binary"

	"golang.org/x/sys/cpu"
)

// wideLanes is how many uint64 lanes are processed per loop iteration.
// CPUs wide enough to plausibly have deep out-of-order execution windows
// (approximated here by AVX2 availability, the same signal the teacher
// gates its real SIMD path on) get a 4-lane unrolled loop; everything else
// gets the plain single-lane SWAR loop.
var wideLanes = func() int {
	if cpu.X86.HasAVX2 {
		return 4
	}
	return 1
}()

const highBitMask = uint64(0x8080808080808080)

// IsASCII reports whether every byte in data has its high bit clear.
func IsASCII(data []byte) bool {
	n := len(data)
	if n < 8 {
		for _, b := range data {
			if b >= 0x80 {
				return false
			}
		}
		return true
	}

	stride := 8 * wideLanes
	i := 0
	for i+stride <= n {
		var acc uint64
		for lane := 0; lane < wideLanes; lane++ {
			acc |= binary.LittleEndian.Uint64(data[i+lane*8:])
		}
		if acc&highBitMask != 0 {
			return false
		}
		i += stride
	}
	for i+8 <= n {
		if binary.LittleEndian.Uint64(data[i:])&highBitMask != 0 {
			return false
		}
		i += 8
	}
	for ; i < n; i++ {
		if data[i] >= 0x80 {
			return false
		}
	}
	return true
}

// FirstIndexNotInTable returns the index of the first byte in haystack for
// which table[b] is false, or -1 if every byte is in the table. Used by
// the runtime's DefaultSkip fast-skip: a whitespace run is a maximal
// prefix of bytes in a small fixed table.
func FirstIndexNotInTable(haystack []byte, table *[256]bool) int {
	for i, b := range haystack {
		if !table[b] {
			return i
		}
	}
	return -1
}

// FirstIndexInTable returns the index of the first byte in haystack for
// which table[b] is true, or -1 if none is.
func FirstIndexInTable(haystack []byte, table *[256]bool) int {
	for i, b := range haystack {
		if table[b] {
			return i
		}
	}
	return -1
}

// NewByteTable builds a [256]bool membership table from a list of
// inclusive byte ranges, the same shape codegen already produces for a
// Fork's Transitions, so DefaultSkip and generated dispatch code can share
// one table representation.
func NewByteTable(ranges [][2]byte) *[256]bool {
	var table [256]bool
	for _, r := range ranges {
		for b := int(r[0]); b <= int(r[1]); b++ {
			table[b] = true
		}
	}
	return &table
}
