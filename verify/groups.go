package verify

import (
	"encoding/binary"
	"math"

	"github.com/FishAndRips/ringhopper-sub000/primitive"
	"github.com/FishAndRips/ringhopper-sub000/tagfile"
)

// bspRenderedVertexSize is the byte size of one uncompressed rendered vertex
// in a BSP material: position, normal, binormal, tangent, and texture
// coordinates.
const bspRenderedVertexSize = 56

// verifyGroup dispatches per-group cross-tag checks. A true return means a
// dependency was busy and the tag must be retried.
func verifyGroup(v *Verifier, tag *tagfile.Tag, path primitive.TagPath, result *Result) bool {
	switch tag.Group {
	case primitive.TagGroupSound:
		verifySound(tag, result)
	case primitive.TagGroupBitmap:
		verifyBitmap(tag, result)
	case primitive.TagGroupUnicodeStringList:
		verifyUnicodeStringList(tag, result)
	case primitive.TagGroupScenarioStructureBSP:
		verifyScenarioStructureBSP(tag, result)
	}
	return false
}

// verifySound checks that 16-bit PCM permutation payloads hold whole sample
// frames, that permutation counts and next-permutation indices are in range,
// and that next-permutation chains terminate without cycles. Payloads in other
// formats are not size-checked.
func verifySound(tag *tagfile.Tag, result *Result) {
	channelValue, _ := tag.Data.Get("encoding")
	channels := int(channelValue.(uint16)) + 1

	pitchRanges, _ := tag.Data.GetReflexive("pitch_ranges")
	for rangeIndex, pitchRange := range pitchRanges.Items() {
		permutations, _ := pitchRange.GetReflexive("permutations")
		count := permutations.Len()

		actualValue, _ := pitchRange.Get("actual_permutation_count")
		actual := int(actualValue.(uint16))
		if actual > count {
			result.errorf("pitch range #%d claims %d actual permutations but has %d", rangeIndex, actual, count)
		}

		for permutationIndex, permutation := range permutations.Items() {
			formatValue, _ := permutation.Get("format")
			samples, _ := permutation.GetData("samples")

			// 16-bit PCM payloads must be whole samples across every
			// channel.
			if formatValue.(uint16) == 0 {
				frameSize := 2 * channels
				if len(samples.Bytes)%frameSize != 0 {
					result.errorf("pitch range #%d permutation #%d has %d sample bytes, not a multiple of the %d-byte frame", rangeIndex, permutationIndex, len(samples.Bytes), frameSize)
				}
			}

			nextValue, _ := permutation.Get("next_permutation_index")
			next := nextValue.(uint16)
			if next != primitive.NullIndex && int(next) >= count {
				result.errorf("pitch range #%d permutation #%d chains to out-of-range permutation %d", rangeIndex, permutationIndex, next)
			}
		}

		// Chains must terminate: walk each starting permutation with a step
		// budget of the permutation count.
		for start := 0; start < actual; start++ {
			steps := 0
			current := start
			for current != int(primitive.NullIndex) && steps <= count {
				nextValue, _ := permutations.At(current).Get("next_permutation_index")
				next := nextValue.(uint16)
				if next == primitive.NullIndex {
					break
				}
				if int(next) >= count {
					break
				}
				current = int(next)
				steps++
			}
			if steps > count {
				result.errorf("pitch range #%d permutation chain starting at #%d does not terminate", rangeIndex, start)
				break
			}
		}
	}
}

// verifyBitmap checks that sequence and sprite indices stay inside the
// bitmap data array.
func verifyBitmap(tag *tagfile.Tag, result *Result) {
	bitmapData, _ := tag.Data.GetReflexive("bitmap_data")
	dataCount := bitmapData.Len()

	sequences, _ := tag.Data.GetReflexive("sequences")
	for sequenceIndex, sequence := range sequences.Items() {
		firstValue, _ := sequence.Get("first_bitmap_index")
		first := firstValue.(uint16)
		countValue, _ := sequence.Get("bitmap_count")
		count := int(countValue.(uint16))

		if first != primitive.NullIndex && int(first)+count > dataCount {
			result.errorf("sequence #%d spans bitmaps %d..%d but only %d exist", sequenceIndex, first, int(first)+count-1, dataCount)
		}

		sprites, _ := sequence.GetReflexive("sprites")
		for spriteIndex, sprite := range sprites.Items() {
			indexValue, _ := sprite.Get("bitmap_index")
			index := indexValue.(uint16)
			if index != primitive.NullIndex && int(index) >= dataCount {
				result.errorf("sequence #%d sprite #%d references bitmap %d of %d", sequenceIndex, spriteIndex, index, dataCount)
			}
		}
	}
}

// verifyUnicodeStringList checks every string is valid UTF-16 LE with a
// terminating NUL.
func verifyUnicodeStringList(tag *tagfile.Tag, result *Result) {
	strings, _ := tag.Data.GetReflexive("strings")
	for i, entry := range strings.Items() {
		blob, _ := entry.GetData("string")
		data := blob.Bytes
		if len(data)%2 != 0 {
			result.errorf("string #%d has an odd byte count", i)
			continue
		}
		if len(data) < 2 || binary.LittleEndian.Uint16(data[len(data)-2:]) != 0 {
			result.errorf("string #%d is not NUL-terminated", i)
		}
	}
}

// verifyScenarioStructureBSP checks material vertex buffer consistency and,
// when uncompressed vertices are present, that stored normals are unit
// length.
func verifyScenarioStructureBSP(tag *tagfile.Tag, result *Result) {
	lightmaps, _ := tag.Data.GetReflexive("lightmaps")
	for lightmapIndex, lightmap := range lightmaps.Items() {
		materials, _ := lightmap.GetReflexive("materials")
		for materialIndex, material := range materials.Items() {
			renderedValue, _ := material.Get("rendered_vertices_count")
			rendered := int(renderedValue.(uint32))
			uncompressed, _ := material.GetData("uncompressed_vertices")

			if len(uncompressed.Bytes) == 0 {
				continue
			}
			if rendered*bspRenderedVertexSize > len(uncompressed.Bytes) {
				result.errorf("lightmap #%d material #%d declares %d rendered vertices but stores %d bytes", lightmapIndex, materialIndex, rendered, len(uncompressed.Bytes))
				continue
			}

			for i := 0; i < rendered; i++ {
				vertex := uncompressed.Bytes[i*bspRenderedVertexSize:]
				normal := primitive.Vector3D{
					X: f32le(vertex[12:]),
					Y: f32le(vertex[16:]),
					Z: f32le(vertex[20:]),
				}
				if !normal.IsUnitVector(0.01) {
					result.errorf("lightmap #%d material #%d vertex #%d normal is not unit length", lightmapIndex, materialIndex, i)
					break
				}
			}
		}
	}
}

func f32le(data []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(data[:4]))
}
