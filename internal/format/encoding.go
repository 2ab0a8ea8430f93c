package format

import "encoding/binary"

// ReadU64 reads a little-endian uint64 at off.
func ReadU64(data []byte, off int) uint64 {
	return binary.LittleEndian.Uint64(data[off : off+8])
}

// PutU64 writes a little-endian uint64 at off.
func PutU64(data []byte, off int, v uint64) {
	binary.LittleEndian.PutUint64(data[off:off+8], v)
}
