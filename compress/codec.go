// Package compress implements the compression codecs used by cache files.
//
// Retail-era cache files are either uncompressed or deflate-compressed; the
// registry also carries zstd and LZ4 codecs for engines that adopt them.
package compress

import (
	"fmt"
)

// Type identifies a compression algorithm.
type Type uint8

const (
	TypeNone Type = iota
	TypeDeflate
	TypeZstd
	TypeLZ4
)

func (t Type) String() string {
	switch t {
	case TypeNone:
		return "uncompressed"
	case TypeDeflate:
		return "deflate"
	case TypeZstd:
		return "zstd"
	case TypeLZ4:
		return "lz4"
	default:
		return "unknown"
	}
}

// TypeFromName parses the name used by the engine table.
func TypeFromName(name string) (Type, error) {
	switch name {
	case "", "uncompressed":
		return TypeNone, nil
	case "deflate":
		return TypeDeflate, nil
	case "zstd":
		return TypeZstd, nil
	case "lz4":
		return TypeLZ4, nil
	default:
		return TypeNone, fmt.Errorf("unknown compression type %q", name)
	}
}

// Compressor compresses byte payloads.
type Compressor interface {
	// Compress compresses the input and returns a newly allocated result.
	// The input slice is not modified.
	Compress(data []byte) ([]byte, error)
}

// Decompressor decompresses byte payloads.
type Decompressor interface {
	// Decompress decompresses the input into a newly allocated buffer.
	Decompress(data []byte) ([]byte, error)

	// DecompressInto decompresses the input into dst, which must be sized to
	// exactly the expected decompressed length.
	DecompressInto(dst, data []byte) error
}

// Codec combines both directions.
type Codec interface {
	Compressor
	Decompressor
}

var builtinCodecs = map[Type]Codec{
	TypeNone:    NewNoOpCodec(),
	TypeDeflate: NewDeflateCodec(),
	TypeZstd:    NewZstdCodec(),
	TypeLZ4:     NewLZ4Codec(),
}

// GetCodec retrieves a built-in Codec for the specified compression type.
func GetCodec(compressionType Type) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}
	return nil, fmt.Errorf("unsupported compression type: %s", compressionType)
}
