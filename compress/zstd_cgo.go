//go:build cgo_zstd

package compress

import (
	"fmt"

	"github.com/valyala/gozstd"
)

// Compress compresses the input data using Zstandard compression.
func (c ZstdCodec) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	return gozstd.CompressLevel(nil, data, 3), nil
}

// Decompress decompresses Zstandard data.
func (c ZstdCodec) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	return gozstd.Decompress(nil, data)
}

// DecompressInto decompresses Zstandard data into dst exactly.
func (c ZstdCodec) DecompressInto(dst, data []byte) error {
	out, err := gozstd.Decompress(dst[:0], data)
	if err != nil {
		return err
	}
	if len(out) != len(dst) {
		return fmt.Errorf("zstd data decompressed to %d bytes, expected %d", len(out), len(dst))
	}
	return nil
}
