// Package cbuf implements the two-phase "query length / fill buffer"
// convention shared by every boundary call that returns variable-length
// data.
//
// A caller first invokes the boundary function with a nil (or
// zero-length) buffer to learn the required size in bytes, including
// the trailing NUL, then invokes it again with a buffer of at least
// that size. The fill never writes past the supplied buffer and always
// terminates it, so a short buffer yields a truncated but valid C
// string. The required size is returned in both phases, which lets the
// caller detect truncation by comparing it to the buffer length it
// supplied.
package cbuf

// Fill copies s into dst as a NUL-terminated C string and returns the
// size dst would need to hold all of s, terminator included.
//
// A nil or empty dst writes nothing (the length-query phase). A
// non-empty dst receives at most len(dst)-1 bytes of s followed by a
// NUL at the end of whatever was copied.
func Fill(dst []byte, s string) int {
	need := len(s) + 1
	if len(dst) == 0 {
		return need
	}
	n := len(dst) - 1
	if n > len(s) {
		n = len(s)
	}
	copy(dst, s[:n])
	dst[n] = 0
	return need
}
