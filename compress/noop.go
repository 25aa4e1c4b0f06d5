package compress

import "fmt"

// NoOpCodec bypasses compression for uncompressed cache files.
type NoOpCodec struct{}

var _ Codec = NoOpCodec{}

// NewNoOpCodec creates a pass-through codec.
func NewNoOpCodec() NoOpCodec {
	return NoOpCodec{}
}

// Compress returns the input as-is without copying.
//
// Note: the returned slice shares the input's memory.
func (c NoOpCodec) Compress(data []byte) ([]byte, error) {
	return data, nil
}

// Decompress returns the input as-is without copying.
func (c NoOpCodec) Decompress(data []byte) ([]byte, error) {
	return data, nil
}

// DecompressInto copies the input into dst, which must be the same length.
func (c NoOpCodec) DecompressInto(dst, data []byte) error {
	if len(dst) != len(data) {
		return fmt.Errorf("uncompressed data is %d bytes, expected %d", len(data), len(dst))
	}
	copy(dst, data)
	return nil
}
