package tagfile

import (
	"encoding/binary"
	"hash/crc32"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/require"

	"github.com/FishAndRips/ringhopper-sub000/errs"
	"github.com/FishAndRips/ringhopper-sub000/primitive"
)

func utf16LEBytes(s string) []byte {
	var out []byte
	for _, unit := range utf16.Encode([]rune(s + "\x00")) {
		out = binary.LittleEndian.AppendUint16(out, unit)
	}
	return out
}

var testStrings = []string{
	"This is a test string.",
	"This is another test string.\r\nAnd it has multiple lines!",
	"And this is one final test string.",
	"",
	"Okay, this is the actual test string. I wanted to add an empty one, too.",
}

func makeStringListTag(t *testing.T) *Tag {
	tag, err := NewTag(primitive.TagGroupUnicodeStringList)
	require.NoError(t, err)

	strings, ok := tag.Data.GetReflexive("strings")
	require.True(t, ok)
	for i, s := range testStrings {
		strings.InsertDefault(i)
		blob, _ := strings.At(i).GetData("string")
		blob.Bytes = utf16LEBytes(s)
	}
	return tag
}

func TestTagFileRoundTrip(t *testing.T) {
	tag := makeStringListTag(t)

	data, err := Write(tag)
	require.NoError(t, err)

	file, err := Read(data, Strict)
	require.NoError(t, err)
	require.Equal(t, primitive.TagGroupUnicodeStringList, file.Tag.Group)

	// Parsed strings match the expected sequence.
	strings, _ := file.Tag.Data.GetReflexive("strings")
	require.Equal(t, len(testStrings), strings.Len())
	for i, expected := range testStrings {
		blob, _ := strings.At(i).GetData("string")
		require.Equal(t, utf16LEBytes(expected), blob.Bytes, "string %d", i)
	}

	// Writing the parsed tag reproduces the file byte-for-byte.
	rewritten, err := Write(file.Tag)
	require.NoError(t, err)
	require.Equal(t, data, rewritten)
}

func TestCRC32Sentinel(t *testing.T) {
	tag := makeStringListTag(t)
	data, err := Write(tag)
	require.NoError(t, err)

	corrupt := func(crc uint32) []byte {
		out := make([]byte, len(data))
		copy(out, data)
		binary.BigEndian.PutUint32(out[0x28:], crc)
		return out
	}

	t.Run("Sentinel parses under both modes", func(t *testing.T) {
		sentinel := corrupt(IgnoredCRC32)
		for _, strictness := range []ParseStrictness{Strict, Relaxed} {
			file, err := Read(sentinel, strictness)
			require.NoError(t, err)
			require.False(t, file.CRC32Computed)
			_, ok := file.CRC32Matches()
			require.False(t, ok)
		}
	})

	t.Run("Wrong CRC fails strict", func(t *testing.T) {
		_, err := Read(corrupt(0x12345678), Strict)
		require.ErrorIs(t, err, errs.ErrChecksumMismatch)
	})

	t.Run("Wrong CRC passes relaxed and reports the actual CRC", func(t *testing.T) {
		file, err := Read(corrupt(0x12345678), Relaxed)
		require.NoError(t, err)
		require.True(t, file.CRC32Computed)
		require.Equal(t, crc32.ChecksumIEEE(data[HeaderSize:]), file.ActualCRC32)
		matches, ok := file.CRC32Matches()
		require.True(t, ok)
		require.False(t, matches)
	})
}

func TestHeaderValidation(t *testing.T) {
	tag := makeStringListTag(t)
	data, err := Write(tag)
	require.NoError(t, err)

	t.Run("Wrong group", func(t *testing.T) {
		_, err := ReadExpect(data, primitive.TagGroupBitmap, Strict)
		require.ErrorIs(t, err, errs.ErrTagHeaderGroupTypeMismatch)
	})

	t.Run("Expected group", func(t *testing.T) {
		_, err := ReadExpect(data, primitive.TagGroupUnicodeStringList, Strict)
		require.NoError(t, err)
	})

	t.Run("Wrong version", func(t *testing.T) {
		bad := make([]byte, len(data))
		copy(bad, data)
		binary.BigEndian.PutUint16(bad[0x38:], 99)
		_, err := Read(bad, Strict)
		require.ErrorIs(t, err, errs.ErrTagHeaderGroupVersionMismatch)
	})

	t.Run("Missing blam FourCC", func(t *testing.T) {
		bad := make([]byte, len(data))
		copy(bad, data)
		binary.BigEndian.PutUint32(bad[0x3C:], 0)
		_, err := Read(bad, Strict)
		require.ErrorIs(t, err, errs.ErrTagParseFailure)
	})

	t.Run("Byte-swapped 255 constant accepted", func(t *testing.T) {
		// Some writers store the constant as a single 0xFF byte.
		swapped := make([]byte, len(data))
		copy(swapped, data)
		binary.BigEndian.PutUint16(swapped[0x3A:], 0xFF00)
		_, err := Read(swapped, Strict)
		require.NoError(t, err)
	})

	t.Run("Unimplemented group", func(t *testing.T) {
		bad := make([]byte, len(data))
		copy(bad, data)
		binary.BigEndian.PutUint32(bad[0x24:], uint32(primitive.TagGroupGlobals.FourCC()))
		_, err := Read(bad, Strict)
		require.ErrorIs(t, err, errs.ErrTagGroupUnimplemented)
	})

	t.Run("Truncated file", func(t *testing.T) {
		_, err := Read(data[:16], Strict)
		require.ErrorIs(t, err, errs.ErrTagParseFailure)
	})
}
