package compress

// ZstdCodec implements Zstandard compression. The implementation is selected
// at build time: cgo builds use gozstd, pure-Go builds use klauspost zstd.
type ZstdCodec struct{}

var _ Codec = ZstdCodec{}

// NewZstdCodec creates a new Zstandard codec.
func NewZstdCodec() ZstdCodec {
	return ZstdCodec{}
}
