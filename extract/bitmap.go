package extract

import (
	"github.com/FishAndRips/ringhopper-sub000/errs"
	"github.com/FishAndRips/ringhopper-sub000/primitive"
	"github.com/FishAndRips/ringhopper-sub000/tagfile"
)

// bitmapTypeSprites is the sprites option of the BitmapType enum.
const bitmapTypeSprites = 3

// Formats the compressed flag must agree with (dxt1/dxt3/dxt5).
func bitmapFormatIsCompressed(format uint16) bool {
	return format >= 12 && format <= 14
}

// fixBitmap concatenates pixel data back into the tag, patches each bitmap
// data entry's offset into the rebuilt buffer, validates flag/format
// consistency, and restores sprite sequence conventions.
func fixBitmap(tag *tagfile.Tag, ctx *Context) error {
	if err := rebuildPixelData(tag, ctx); err != nil {
		return err
	}
	return fixSpriteSequences(tag)
}

func rebuildPixelData(tag *tagfile.Tag, ctx *Context) error {
	processed, ok := tag.Data.GetData("processed_pixel_data")
	if !ok {
		return nil
	}
	bitmapData, _ := tag.Data.GetReflexive("bitmap_data")

	var rebuilt []byte
	for i, entry := range bitmapData.Items() {
		flagsValue, _ := entry.Get("flags")
		flags := uint32(flagsValue.(uint32))
		flagsDef, _ := entry.FieldDef("flags")
		externalBit, _ := flagsDef.BitfieldDef().Bit("external")
		compressedBit, _ := flagsDef.BitfieldDef().Bit("compressed")

		formatValue, _ := entry.Get("format")
		format := formatValue.(uint16)
		if bitmapFormatIsCompressed(format) != (flags&(1<<compressedBit) != 0) {
			return errs.InvalidTagDataf("bitmap data #%d compression flag disagrees with its format", i)
		}

		offsetValue, _ := entry.Get("pixel_data_offset")
		sizeValue, _ := entry.Get("pixel_data_size")
		offset := int(offsetValue.(uint32))
		size := int(sizeValue.(uint32))

		var source primitive.Domain
		if flags&(1<<externalBit) != 0 {
			source = primitive.Domain{Kind: primitive.DomainResourceMapFile, Resource: primitive.ResourceMapBitmaps}
		} else {
			source = primitive.MapDataDomain
		}
		pixels, ok := ctx.Map.DataAtAddress(offset, source, size)
		if !ok {
			return errs.MapDataOutOfBoundsf("bitmap data #%d pixel data 0x%08X[0x%08X] unavailable in %v", i, offset, size, source)
		}

		entry.Set("pixel_data_offset", uint32(len(rebuilt))) //nolint:errcheck
		rebuilt = append(rebuilt, pixels...)

		// The external bit is meaningless in tag form.
		entry.Set("flags", flags&^(1<<externalBit)) //nolint:errcheck
	}

	processed.Bytes = rebuilt
	processed.External = 0
	processed.FileOffset = 0
	processed.Size = len(rebuilt)
	return nil
}

// fixSpriteSequences restores the tag-form sequence conventions for sprite
// sheets: first_bitmap_index becomes the minimum sprite bitmap index, and
// bitmap_count becomes 1 for single-sprite sequences and 0 otherwise. The
// single-sprite rule is empirical; it is not generalized further.
func fixSpriteSequences(tag *tagfile.Tag) error {
	typeValue, _ := tag.Data.Get("type")
	if typeValue.(uint16) != bitmapTypeSprites {
		return nil
	}

	sequences, _ := tag.Data.GetReflexive("sequences")
	for _, sequence := range sequences.Items() {
		sprites, _ := sequence.GetReflexive("sprites")

		first := primitive.NullIndex
		for _, sprite := range sprites.Items() {
			indexValue, _ := sprite.Get("bitmap_index")
			index := indexValue.(uint16)
			if index != primitive.NullIndex && (first == primitive.NullIndex || index < first) {
				first = index
			}
		}
		sequence.Set("first_bitmap_index", first) //nolint:errcheck

		var count uint16
		if sprites.Len() == 1 {
			count = 1
		}
		sequence.Set("bitmap_count", count) //nolint:errcheck
	}
	return nil
}
