package extract

import (
	"github.com/FishAndRips/ringhopper-sub000/errs"
	"github.com/FishAndRips/ringhopper-sub000/tagfile"
)

// Per-node frame record sizes: rotation is four 16-bit components, transform
// three floats, scale one float.
const (
	rotationFrameSize  = 8
	transformFrameSize = 12
	scaleFrameSize     = 4
	maxAnimationNodes  = 64
)

// nodeFlags packs the three 64-bit per-node flag words of an animation.
type nodeFlags struct {
	rotation  uint64
	transform uint64
	scale     uint64
}

func (f nodeFlags) rotated(node int) bool     { return f.rotation&(1<<node) != 0 }
func (f nodeFlags) transformed(node int) bool { return f.transform&(1<<node) != 0 }
func (f nodeFlags) scaled(node int) bool      { return f.scale&(1<<node) != 0 }

func animationNodeFlags(animation interface {
	Get(string) (any, bool)
}) nodeFlags {
	word := func(name string) uint64 {
		value, _ := animation.Get(name)
		elements := value.([]any)
		return uint64(elements[0].(uint32)) | uint64(elements[1].(uint32))<<32
	}
	return nodeFlags{
		rotation:  word("node_rotation_flag_data"),
		transform: word("node_transform_flag_data"),
		scale:     word("node_scale_flag_data"),
	}
}

// fixModelAnimations converts per-frame node data from cache to tag byte
// order, synthesizes default-data buffers for nodes without animated
// channels, and pads compressed animation data out to its offset field.
func fixModelAnimations(tag *tagfile.Tag) error {
	animations, ok := tag.Data.GetReflexive("animations")
	if !ok {
		return nil
	}

	for i, animation := range animations.Items() {
		nodeCountValue, _ := animation.Get("node_count")
		nodeCount := int(nodeCountValue.(uint16))
		if nodeCount > maxAnimationNodes {
			return errs.InvalidTagDataf("animation #%d claims %d nodes", i, nodeCount)
		}
		frameCountValue, _ := animation.Get("frame_count")
		frameCount := int(frameCountValue.(uint16))

		flagsValue, _ := animation.Get("flags")
		flags := flagsValue.(uint32)
		flagsDef, _ := animation.FieldDef("flags")
		compressedBit, _ := flagsDef.BitfieldDef().Bit("compressed_data")
		compressed := flags&(1<<compressedBit) != 0

		nodes := animationNodeFlags(animation)

		frameData, _ := animation.GetData("frame_data")
		if compressed {
			// Compressed data is opaque; it is padded with zeros so the
			// compressed stream sits at the recorded offset.
			offsetValue, _ := animation.Get("offset_to_compressed_data")
			offset := int(offsetValue.(uint32))
			if offset > len(frameData.Bytes) {
				padded := make([]byte, offset)
				copy(padded, frameData.Bytes)
				frameData.Bytes = padded
			}
		} else {
			swapFrameData(frameData.Bytes, nodes, nodeCount, frameCount)
		}

		defaultData, _ := animation.GetData("default_data")
		if len(defaultData.Bytes) == 0 {
			defaultData.Bytes = make([]byte, defaultDataSize(nodes, nodeCount))
		} else {
			swapDefaultData(defaultData.Bytes, nodes, nodeCount)
		}
	}
	return nil
}

// frameEntrySize is the per-frame byte count across all animated channels.
func frameEntrySize(flags nodeFlags, nodeCount int) int {
	size := 0
	for node := 0; node < nodeCount; node++ {
		if flags.rotated(node) {
			size += rotationFrameSize
		}
		if flags.transformed(node) {
			size += transformFrameSize
		}
		if flags.scaled(node) {
			size += scaleFrameSize
		}
	}
	return size
}

// defaultDataSize is the byte count of the default-value channels: one entry
// per node for every channel the animation does not animate.
func defaultDataSize(flags nodeFlags, nodeCount int) int {
	size := 0
	for node := 0; node < nodeCount; node++ {
		if !flags.rotated(node) {
			size += rotationFrameSize
		}
		if !flags.transformed(node) {
			size += transformFrameSize
		}
		if !flags.scaled(node) {
			size += scaleFrameSize
		}
	}
	return size
}

// swapFrameData converts every animated channel of every frame: rotations are
// 16-bit swaps, transforms and scales 32-bit swaps.
func swapFrameData(data []byte, flags nodeFlags, nodeCount, frameCount int) {
	entrySize := frameEntrySize(flags, nodeCount)
	offset := 0
	for frame := 0; frame < frameCount; frame++ {
		if offset+entrySize > len(data) {
			return
		}
		offset = swapChannels(data, offset, flags, nodeCount, true)
	}
}

// swapDefaultData converts the default channels (the complement of the
// animated set).
func swapDefaultData(data []byte, flags nodeFlags, nodeCount int) {
	swapChannels(data, 0, flags, nodeCount, false)
}

func swapChannels(data []byte, offset int, flags nodeFlags, nodeCount int, animated bool) int {
	advance := func(size int) ([]byte, bool) {
		if offset+size > len(data) {
			return nil, false
		}
		window := data[offset : offset+size]
		offset += size
		return window, true
	}

	for node := 0; node < nodeCount; node++ {
		if flags.rotated(node) == animated {
			window, ok := advance(rotationFrameSize)
			if !ok {
				return offset
			}
			swap16(window)
		}
		if flags.transformed(node) == animated {
			window, ok := advance(transformFrameSize)
			if !ok {
				return offset
			}
			swap32(window)
		}
		if flags.scaled(node) == animated {
			window, ok := advance(scaleFrameSize)
			if !ok {
				return offset
			}
			swap32(window)
		}
	}
	return offset
}

// swap32 byte-swaps an array of 32-bit values in place.
func swap32(data []byte) {
	for i := 0; i+3 < len(data); i += 4 {
		data[i], data[i+1], data[i+2], data[i+3] = data[i+3], data[i+2], data[i+1], data[i]
	}
}
