package extract

import (
	"github.com/FishAndRips/ringhopper-sub000/errs"
	"github.com/FishAndRips/ringhopper-sub000/primitive"
	"github.com/FishAndRips/ringhopper-sub000/tagfile"
)

// soundFormat16BitPCM is the 16_bit_pcm option of the SoundFormat enum.
const soundFormat16BitPCM = 0

// fixSound materializes externally stored sample payloads, byte-swaps 16-bit
// PCM samples back to tag-form (big-endian) order, and nudges the one float
// that suffers rounding.
func fixSound(tag *tagfile.Tag, ctx *Context) error {
	nudgeField(tag.Data, "maximum_bend_per_second")

	pitchRanges, ok := tag.Data.GetReflexive("pitch_ranges")
	if !ok {
		return nil
	}

	for _, pitchRange := range pitchRanges.Items() {
		permutations, _ := pitchRange.GetReflexive("permutations")
		for i, permutation := range permutations.Items() {
			samples, _ := permutation.GetData("samples")

			if samples.External != 0 && len(samples.Bytes) == 0 && samples.Size > 0 {
				source := primitive.Domain{Kind: primitive.DomainResourceMapFile, Resource: primitive.ResourceMapSounds}
				bytes, ok := ctx.Map.DataAtAddress(int(samples.FileOffset), source, samples.Size)
				if !ok {
					return errs.MapDataOutOfBoundsf("sound permutation #%d samples 0x%08X[0x%08X] unavailable in %v", i, samples.FileOffset, samples.Size, source)
				}
				samples.Bytes = append([]byte(nil), bytes...)
				samples.External = 0
				samples.FileOffset = 0
			}

			formatValue, _ := permutation.Get("format")
			if formatValue.(uint16) == soundFormat16BitPCM {
				swap16(samples.Bytes)
			}
		}
	}
	return nil
}

// swap16 byte-swaps an array of 16-bit samples in place. A trailing odd byte
// is left alone.
func swap16(data []byte) {
	for i := 0; i+1 < len(data); i += 2 {
		data[i], data[i+1] = data[i+1], data[i]
	}
}
