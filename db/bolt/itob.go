package bolt

import "encoding/binary"

// itob encodes v as a big-endian 8-byte key, so that bucket keys sort in
// height order and support cursor range scans.
func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// binaryToHeight decodes a key produced by itob back to a height.
func binaryToHeight(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}
