package primitive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FishAndRips/ringhopper-sub000/endian"
	"github.com/FishAndRips/ringhopper-sub000/errs"
)

func TestID(t *testing.T) {
	t.Run("Index and salt round-trip", func(t *testing.T) {
		id := IDFromIndex(0x1234, 0x5678)
		index, ok := id.Index()
		require.True(t, ok)
		require.Equal(t, Index(0x1234), index)

		salt, ok := id.Salt()
		require.True(t, ok)
		require.Equal(t, uint16(0x5678), salt)
	})

	t.Run("Null", func(t *testing.T) {
		require.True(t, NullID.IsNull())
		_, ok := NullID.Index()
		require.False(t, ok)
		_, ok = NullID.Salt()
		require.False(t, ok)
	})
}

func TestTagPath(t *testing.T) {
	t.Run("Parse with extension", func(t *testing.T) {
		path, err := TagPathFromPath(`weapons\myweapon\myweapon.weapon`)
		require.NoError(t, err)
		require.Equal(t, `weapons\myweapon\myweapon`, path.Path())
		require.Equal(t, TagGroupWeapon, path.Group())
	})

	t.Run("Multiple dots use the last extension", func(t *testing.T) {
		path, err := TagPathFromPath(`weapons\myweapon\myweapon.isthebest.weapon`)
		require.NoError(t, err)
		require.Equal(t, `weapons\myweapon\myweapon.isthebest`, path.Path())
		require.Equal(t, TagGroupWeapon, path.Group())
	})

	t.Run("Internal path round-trip", func(t *testing.T) {
		path, err := NewTagPath(`levels\test\tutorial`, TagGroupScenario)
		require.NoError(t, err)

		reparsed, err := TagPathFromPath(path.ToInternalPath())
		require.NoError(t, err)
		require.Equal(t, path, reparsed)
	})

	t.Run("Rejected characters", func(t *testing.T) {
		for _, bad := range []string{"a:b", "a*b", "a?b", `a"b`, "a<b", "a>b", "a|b", "a\x01b", ""} {
			_, err := NewTagPath(bad, TagGroupBitmap)
			require.ErrorIs(t, err, errs.ErrInvalidTagPath, "path %q", bad)
		}
	})

	t.Run("No extension", func(t *testing.T) {
		_, err := TagPathFromPath(`weapons\myweapon\myweapon`)
		require.ErrorIs(t, err, errs.ErrInvalidTagPath)
	})
}

func TestTagGroup(t *testing.T) {
	t.Run("Name and FourCC round-trip", func(t *testing.T) {
		for _, group := range AllTagGroups() {
			byName, err := TagGroupFromName(group.String())
			require.NoError(t, err)
			require.Equal(t, group, byName)

			byFourCC, err := TagGroupFromFourCC(group.FourCC())
			require.NoError(t, err)
			require.Equal(t, group, byFourCC)
		}
	})

	t.Run("Supergroup chain", func(t *testing.T) {
		require.Equal(t, [3]TagGroup{TagGroupWeapon, TagGroupItem, TagGroupObject}, TagGroupWeapon.SupergroupChain())
		require.Equal(t, [3]TagGroup{TagGroupBiped, TagGroupUnit, TagGroupObject}, TagGroupBiped.SupergroupChain())
		require.Equal(t, [3]TagGroup{TagGroupBitmap, TagGroupUnset, TagGroupUnset}, TagGroupBitmap.SupergroupChain())
		require.True(t, TagGroupWeapon.MatchesGroup(TagGroupObject))
		require.False(t, TagGroupBitmap.MatchesGroup(TagGroupObject))
	})

	t.Run("Unset FourCC", func(t *testing.T) {
		group, err := TagGroupFromFourCC(0xFFFFFFFF)
		require.NoError(t, err)
		require.Equal(t, TagGroupUnset, group)
	})
}

func TestString32(t *testing.T) {
	t.Run("Round-trip", func(t *testing.T) {
		s, err := String32FromString("beavercreek")
		require.NoError(t, err)
		require.Equal(t, "beavercreek", s.String())

		data := make([]byte, String32Size)
		s.Write(endian.GetBigEndianEngine(), data, 0, String32Size)

		var reread String32
		require.NoError(t, reread.Read(endian.GetBigEndianEngine(), data, 0, String32Size))
		require.Equal(t, "beavercreek", reread.String())
	})

	t.Run("Too long", func(t *testing.T) {
		_, err := String32FromString("this string is far too long to fit in here")
		require.ErrorIs(t, err, errs.ErrString32SizeLimitExceeded)
	})

	t.Run("Lossy conversion", func(t *testing.T) {
		var raw [String32Size]byte
		copy(raw[:], "bad\xFFbytes")
		s := String32FromBytesLossy(&raw)
		require.Equal(t, "bad_bytes", s.String())
	})

	t.Run("Unterminated input", func(t *testing.T) {
		var raw [String32Size]byte
		for i := range raw {
			raw[i] = 'a'
		}
		s := String32FromBytesLossy(&raw)
		require.Len(t, s.String(), String32Size-1)

		bytes := s.Bytes()
		require.Equal(t, byte(0), bytes[String32Size-1])
	})
}

func TestCompressedFloat(t *testing.T) {
	t.Run("Pinned codes", func(t *testing.T) {
		require.Equal(t, float32(0), CompressedFloat(0).Decompress())
		require.Equal(t, float32(1), CompressedFloat(0x7FFF).Decompress())
		require.Equal(t, float32(-1), CompressedFloat(0x8000).Decompress())
	})

	t.Run("Strictly increasing on positive codes", func(t *testing.T) {
		previous := CompressedFloat(0x0001).Decompress()
		for code := 0x0002; code <= 0x7FFF; code++ {
			value := CompressedFloat(code).Decompress()
			require.Greater(t, value, previous, "code 0x%04X", code)
			previous = value
		}
	})

	t.Run("Strictly increasing on negative codes", func(t *testing.T) {
		previous := CompressedFloat(0x8001).Decompress()
		for code := 0x8002; code <= 0xFFFF; code++ {
			value := CompressedFloat(code).Decompress()
			require.Greater(t, value, previous, "code 0x%04X", code)
			previous = value
		}
	})

	t.Run("Round-trip through codes", func(t *testing.T) {
		// 0xFFFF is excluded: it decodes to 0, which canonically encodes as
		// 0x0000.
		for _, code := range []CompressedFloat{0x0000, 0x0001, 0x3FFF, 0x7FFF, 0x8000, 0x8001, 0xC000} {
			value := code.Decompress()
			require.Equal(t, code, CompressFloat(value), "code 0x%04X", code)
		}
	})
}

func TestCompressedVectors(t *testing.T) {
	t.Run("3D axis vectors", func(t *testing.T) {
		for _, v := range []Vector3D{{X: 1}, {Y: 1}, {Z: 1}, {X: -1}, {Y: -1}, {Z: -1}} {
			out := CompressVector3D(v).Decompress()
			assert.InDelta(t, v.X, out.X, 0.005)
			assert.InDelta(t, v.Y, out.Y, 0.005)
			assert.InDelta(t, v.Z, out.Z, 0.005)
		}
	})

	t.Run("2D round-trip precision", func(t *testing.T) {
		v := Vector2D{X: 0.25, Y: -0.75}
		out := CompressVector2D(v).Decompress()
		assert.InDelta(t, v.X, out.X, 0.0001)
		assert.InDelta(t, v.Y, out.Y, 0.0001)
	})
}

func TestCodecBounds(t *testing.T) {
	t.Run("Read past end of struct", func(t *testing.T) {
		data := make([]byte, 8)
		_, err := ReadU32(endian.GetBigEndianEngine(), data, 6, 8)
		require.ErrorIs(t, err, errs.ErrTagParseFailure)
	})

	t.Run("Read inside struct", func(t *testing.T) {
		data := []byte{0x12, 0x34, 0x56, 0x78}
		v, err := ReadU32(endian.GetBigEndianEngine(), data, 0, 4)
		require.NoError(t, err)
		require.Equal(t, uint32(0x12345678), v)

		little, err := ReadU32(endian.GetLittleEndianEngine(), data, 0, 4)
		require.NoError(t, err)
		require.Equal(t, uint32(0x78563412), little)
	})

	t.Run("Write out of bounds panics", func(t *testing.T) {
		data := make([]byte, 4)
		require.Panics(t, func() {
			WriteU32(endian.GetBigEndianEngine(), 1, data, 2, 4)
		})
	})

	t.Run("Size limit", func(t *testing.T) {
		data := make([]byte, 4)
		err := WriteSize(endian.GetBigEndianEngine(), MaxArrayLength+1, data, 0, 4)
		require.ErrorIs(t, err, errs.ErrArrayLimitExceeded)
		require.NoError(t, WriteSize(endian.GetBigEndianEngine(), MaxArrayLength, data, 0, 4))
	})
}

func TestDescriptors(t *testing.T) {
	e := endian.GetBigEndianEngine()

	t.Run("Reflexive descriptor", func(t *testing.T) {
		data := make([]byte, ReflexiveDescriptorSize)
		ReflexiveDescriptor{Count: 3, Address: 0xDEADBEEF}.Write(e, data, 0, len(data))

		var desc ReflexiveDescriptor
		require.NoError(t, desc.Read(e, data, 0, len(data)))
		require.Equal(t, uint32(3), desc.Count)
		require.Equal(t, Address(0xDEADBEEF), desc.Address)
	})

	t.Run("Data descriptor", func(t *testing.T) {
		data := make([]byte, DataDescriptorSize)
		DataDescriptor{Size: 0x100, External: 1, FileOffset: 0x8000, Address: 0x1234}.Write(e, data, 0, len(data))

		var desc DataDescriptor
		require.NoError(t, desc.Read(e, data, 0, len(data)))
		require.Equal(t, uint32(0x100), desc.Size)
		require.Equal(t, uint32(1), desc.External)
		require.Equal(t, uint32(0x8000), desc.FileOffset)
		require.Equal(t, Address(0x1234), desc.Address)
	})

	t.Run("Tag reference descriptor nulls a zero ID", func(t *testing.T) {
		data := make([]byte, TagReferenceDescriptorSize)
		TagGroupWeapon.FourCC().Write(e, data, 0, len(data))

		var desc TagReferenceDescriptor
		require.NoError(t, desc.Read(e, data, 0, len(data)))
		require.Equal(t, TagGroupWeapon.FourCC(), desc.TagGroup)
		require.True(t, desc.TagID.IsNull())
	})
}
