package compress

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/flate"
)

// flateWriterPool pools flate writers; they carry large internal state that
// benefits from reuse.
var flateWriterPool = sync.Pool{
	New: func() any {
		w, err := flate.NewWriter(nil, flate.BestCompression)
		if err != nil {
			panic(fmt.Sprintf("failed to create flate writer for pool: %v", err))
		}
		return w
	},
}

// DeflateCodec implements raw DEFLATE, the scheme used by compressed cache
// files.
type DeflateCodec struct{}

var _ Codec = DeflateCodec{}

// NewDeflateCodec creates a deflate codec.
func NewDeflateCodec() DeflateCodec {
	return DeflateCodec{}
}

// Compress compresses the input with raw DEFLATE at best compression.
func (c DeflateCodec) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	w, _ := flateWriterPool.Get().(*flate.Writer)
	defer flateWriterPool.Put(w)
	w.Reset(&buf)

	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decompress decompresses a raw DEFLATE stream of unknown output size.
func (c DeflateCodec) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()
	return io.ReadAll(r)
}

// DecompressInto decompresses a raw DEFLATE stream into dst, requiring the
// output to fill dst exactly.
func (c DeflateCodec) DecompressInto(dst, data []byte) error {
	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()

	if _, err := io.ReadFull(r, dst); err != nil {
		return fmt.Errorf("deflate stream shorter than expected: %w", err)
	}

	// Trailing output means the size header lied.
	var probe [1]byte
	if n, _ := r.Read(probe[:]); n != 0 {
		return fmt.Errorf("deflate stream longer than expected %d bytes", len(dst))
	}
	return nil
}
