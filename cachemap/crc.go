package cachemap

import (
	"hash/crc32"

	"github.com/FishAndRips/ringhopper-sub000/primitive"
)

// CalculateCRC32 computes the checksum the engine compares against the
// header: every BSP's vertices (on engines storing them outside the BSP
// body), every BSP body, model vertex data, model triangle data, and finally
// tag data, in that order.
func (m *CacheFile) CalculateCRC32() uint32 {
	checksum := uint32(0)

	for index := range m.bsps {
		if m.engine.ExternalBSPs {
			if vertices, _, ok := m.Domain(primitive.Domain{Kind: primitive.DomainBSPVertices, Index: index}); ok {
				checksum = crc32.Update(checksum, crc32.IEEETable, vertices)
			}
		}
		bsp := m.bsps[index]
		checksum = crc32.Update(checksum, crc32.IEEETable, m.data[bsp.Start:bsp.End])
	}

	checksum = crc32.Update(checksum, crc32.IEEETable, m.data[m.vertexDataStart:m.vertexDataEnd])
	checksum = crc32.Update(checksum, crc32.IEEETable, m.data[m.triangleDataStart:m.triangleDataEnd])
	checksum = crc32.Update(checksum, crc32.IEEETable, m.data[m.tagDataStart:m.tagDataEnd])
	return checksum
}

// CRC32Matches reports whether the calculated checksum equals the header's.
func (m *CacheFile) CRC32Matches() bool {
	return m.CalculateCRC32() == m.header.CRC32
}
