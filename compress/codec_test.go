package compress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func testPayload() []byte {
	var buf bytes.Buffer
	for i := 0; i < 4096; i++ {
		buf.WriteByte(byte(i % 37))
	}
	return buf.Bytes()
}

func TestCodecRoundTrip(t *testing.T) {
	payload := testPayload()

	for _, compressionType := range []Type{TypeNone, TypeDeflate, TypeZstd, TypeLZ4} {
		t.Run(compressionType.String(), func(t *testing.T) {
			codec, err := GetCodec(compressionType)
			require.NoError(t, err)

			compressed, err := codec.Compress(payload)
			require.NoError(t, err)

			decompressed, err := codec.Decompress(compressed)
			require.NoError(t, err)
			require.Equal(t, payload, decompressed)

			dst := make([]byte, len(payload))
			require.NoError(t, codec.DecompressInto(dst, compressed))
			require.Equal(t, payload, dst)
		})
	}
}

func TestDeflateSizedDecompression(t *testing.T) {
	payload := testPayload()
	codec := NewDeflateCodec()

	compressed, err := codec.Compress(payload)
	require.NoError(t, err)

	t.Run("Too-small destination", func(t *testing.T) {
		dst := make([]byte, len(payload)-1)
		require.Error(t, codec.DecompressInto(dst, compressed))
	})

	t.Run("Too-large destination", func(t *testing.T) {
		dst := make([]byte, len(payload)+1)
		require.Error(t, codec.DecompressInto(dst, compressed))
	})
}

func TestTypeFromName(t *testing.T) {
	for name, expected := range map[string]Type{
		"":             TypeNone,
		"uncompressed": TypeNone,
		"deflate":      TypeDeflate,
		"zstd":         TypeZstd,
		"lz4":          TypeLZ4,
	} {
		parsed, err := TypeFromName(name)
		require.NoError(t, err)
		require.Equal(t, expected, parsed)
	}

	_, err := TypeFromName("brotli")
	require.Error(t, err)
}
