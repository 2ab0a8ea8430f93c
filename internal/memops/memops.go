// Package memops provides the low-level memory primitives the kernel core
// uses on page-sized buffers: block zeroing and byte fill.
package memops

// Zero clears every byte of b. The range form compiles down to a single
// memclr, so this covers whole multi-page blocks without chunking.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Fill sets every byte of b to v using copy-doubling.
func Fill(b []byte, v byte) {
	if len(b) == 0 {
		return
	}
	b[0] = v
	for filled := 1; filled < len(b); filled *= 2 {
		copy(b[filled:], b[:filled])
	}
}
