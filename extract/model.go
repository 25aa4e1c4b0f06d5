package extract

import (
	"github.com/FishAndRips/ringhopper-sub000/endian"
	"github.com/FishAndRips/ringhopper-sub000/errs"
	"github.com/FishAndRips/ringhopper-sub000/primitive"
	"github.com/FishAndRips/ringhopper-sub000/schema"
	"github.com/FishAndRips/ringhopper-sub000/tagfile"
)

// fixModel restores a model/gbxmodel to authoring form: vertex and triangle
// payloads are pulled back out of the model data regions, compressed vertices
// are expanded, the triangle strip index stream is regrouped into triangle
// records, and per-part local node indices are resolved to global ones.
func fixModel(tag *tagfile.Tag, ctx *Context) error {
	gbx := tag.Group == primitive.TagGroupGBXModel

	flagsValue, _ := tag.Data.Get("flags")
	flags := flagsValue.(uint32)
	flagsDef, _ := tag.Data.FieldDef("flags")
	localNodesBit, _ := flagsDef.BitfieldDef().Bit("parts_have_local_nodes")
	hasLocalNodes := gbx && flags&(1<<localNodesBit) != 0

	geometries, ok := tag.Data.GetReflexive("geometries")
	if !ok {
		return nil
	}
	for _, geometry := range geometries.Items() {
		parts, _ := geometry.GetReflexive("parts")
		for _, partEntry := range parts.Items() {
			part := partEntry
			var localNodes []primitive.Index
			if gbx {
				part, _ = partEntry.GetStruct("part")
				if hasLocalNodes {
					localNodes = localNodeTable(partEntry)
				}
			}
			if err := fixModelPart(part, localNodes, ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

func localNodeTable(gbxPart *schema.Struct) []primitive.Index {
	countValue, _ := gbxPart.Get("local_node_count")
	count := int(countValue.(uint16))
	indicesValue, _ := gbxPart.Get("local_node_indices")
	elements := indicesValue.([]any)
	if count > len(elements) {
		count = len(elements)
	}
	table := make([]primitive.Index, count)
	for i := 0; i < count; i++ {
		table[i] = primitive.Index(elements[i].(uint8))
	}
	return table
}

func fixModelPart(part *schema.Struct, localNodes []primitive.Index, ctx *Context) error {
	getU32 := func(name string) int {
		v, _ := part.Get(name)
		return int(v.(uint32))
	}

	vertexCount := getU32("vertex_count")
	vertexOffset := getU32("vertex_offset")
	triangleCount := getU32("triangle_count")
	triangleOffset := getU32("triangle_offset")

	uncompressed, _ := part.GetReflexive("uncompressed_vertices")
	compressed, _ := part.GetReflexive("compressed_vertices")
	triangles, _ := part.GetReflexive("triangles")
	if uncompressed.Len() > 0 || triangles.Len() > 0 {
		// Already in authoring form.
		return nil
	}

	vertexDomain := primitive.Domain{Kind: primitive.DomainModelVertexData}
	if ctx.CompressedModels {
		if err := readVertexRecords(compressed, ctx.Map, vertexDomain, vertexOffset, vertexCount); err != nil {
			return err
		}
		decompressVertices(compressed, uncompressed, localNodes)
	} else {
		if err := readVertexRecords(uncompressed, ctx.Map, vertexDomain, vertexOffset, vertexCount); err != nil {
			return err
		}
		resolveLocalNodes(uncompressed, localNodes)
	}

	return rebuildTriangles(triangles, ctx.Map, triangleOffset, triangleCount)
}

func readVertexRecords(out *schema.Reflexive, m primitive.Map, domain primitive.Domain, offset, count int) error {
	def := out.ElementDef()
	total, err := errs.MulCheck(count, def.Size)
	if err != nil {
		return err
	}
	data, ok := m.DataAtAddress(offset, domain, total)
	if !ok {
		return errs.MapDataOutOfBoundsf("can't read %d vertices at 0x%08X in %v", count, offset, domain)
	}

	e := endian.GetLittleEndianEngine()
	for i := 0; i < count; i++ {
		chunk := data[i*def.Size : (i+1)*def.Size]
		item, err := readRawStruct(def, e, chunk)
		if err != nil {
			return err
		}
		out.InsertMoved(out.Len(), item)
	}
	return nil
}

// readRawStruct parses a struct with no out-of-line payloads from a raw
// chunk.
func readRawStruct(def *schema.StructDef, e endian.EndianEngine, chunk []byte) (*schema.Struct, error) {
	if endian.IsLittleEndian(e) {
		return schema.ReadStructFromMap(def, rawChunkMap{chunk}, 0, primitive.MapDataDomain)
	}
	extra := def.Size
	return schema.ReadStructFromTagFile(def, chunk, 0, def.Size, &extra)
}

// rawChunkMap adapts a raw byte chunk to the Map interface so fixed-layout
// structs can be parsed little-endian outside a real map.
type rawChunkMap struct {
	chunk []byte
}

func (r rawChunkMap) Name() string { return "" }
func (r rawChunkMap) Domain(domain primitive.Domain) ([]byte, int, bool) {
	if domain.Kind == primitive.DomainMapData {
		return r.chunk, 0, true
	}
	return nil, 0, false
}
func (r rawChunkMap) DataAtAddress(address int, domain primitive.Domain, size int) ([]byte, bool) {
	return primitive.DataAtAddress(r, address, domain, size)
}
func (r rawChunkMap) CStringAtAddress(address int, domain primitive.Domain) (string, bool) {
	return primitive.CStringAtAddress(r, address, domain)
}
func (r rawChunkMap) TagPathForID(primitive.ID) (primitive.TagPath, bool) {
	return primitive.TagPath{}, false
}

// decompressVertices expands compressed vertex records into uncompressed
// form: 11/11/10-bit vectors become unit vectors, 16-bit UVs become floats,
// byte node indices widen with the 0xFF-as-none convention, and the packed
// node weight splits into a complementary pair.
func decompressVertices(compressed, uncompressed *schema.Reflexive, localNodes []primitive.Index) {
	for _, in := range compressed.Items() {
		out := schema.NewStruct(uncompressed.ElementDef())

		position, _ := in.Get("position")
		out.Set("position", position) //nolint:errcheck

		for _, field := range []string{"normal", "binormal", "tangent"} {
			packed, _ := in.Get(field)
			out.Set(field, primitive.CompressedVector3D(packed.(uint32)).Decompress()) //nolint:errcheck
		}

		u, _ := in.Get("texture_coordinate_u")
		v, _ := in.Get("texture_coordinate_v")
		out.Set("texture_coords", primitive.Vector2D{ //nolint:errcheck
			X: float32(u.(int16)) / 32767.0,
			Y: float32(v.(int16)) / 32767.0,
		})

		node0Raw, _ := in.Get("node0_index")
		node1Raw, _ := in.Get("node1_index")
		out.Set("node0_index", widenNodeIndex(node0Raw.(uint8), localNodes)) //nolint:errcheck
		out.Set("node1_index", widenNodeIndex(node1Raw.(uint8), localNodes)) //nolint:errcheck

		weightRaw, _ := in.Get("node0_weight")
		weight := float32(weightRaw.(uint16)) / 32767.0
		out.Set("node0_weight", weight)   //nolint:errcheck
		out.Set("node1_weight", 1-weight) //nolint:errcheck

		uncompressed.InsertMoved(uncompressed.Len(), out)
	}
	compressed.Truncate(0)
}

// widenNodeIndex maps a byte node index to a 16-bit one, translating 0xFF to
// the null index and resolving local tables when present.
func widenNodeIndex(raw uint8, localNodes []primitive.Index) primitive.Index {
	if raw == 0xFF {
		return primitive.NullIndex
	}
	index := primitive.Index(raw)
	if localNodes != nil && int(raw) < len(localNodes) {
		index = localNodes[raw]
	}
	return index
}

// resolveLocalNodes rewrites local node indices on uncompressed vertices back
// to global indices.
func resolveLocalNodes(vertices *schema.Reflexive, localNodes []primitive.Index) {
	if localNodes == nil {
		return
	}
	for _, vertex := range vertices.Items() {
		for _, field := range []string{"node0_index", "node1_index"} {
			raw, _ := vertex.Get(field)
			index := raw.(uint16)
			if index != primitive.NullIndex && int(index) < len(localNodes) {
				vertex.Set(field, localNodes[index]) //nolint:errcheck
			}
		}
	}
}

// rebuildTriangles regroups the map's index stream into triangle records.
// The stream holds strip indices; every three consecutive indices form one
// record, with the tail padded using the null index.
func rebuildTriangles(out *schema.Reflexive, m primitive.Map, offset, indexCount int) error {
	domain := primitive.Domain{Kind: primitive.DomainModelTriangleData}
	total, err := errs.MulCheck(indexCount, 2)
	if err != nil {
		return err
	}
	data, ok := m.DataAtAddress(offset, domain, total)
	if !ok {
		return errs.MapDataOutOfBoundsf("can't read %d triangle indices at 0x%08X", indexCount, offset)
	}

	e := endian.GetLittleEndianEngine()
	index := func(i int) primitive.Index {
		if i >= indexCount {
			return primitive.NullIndex
		}
		return e.Uint16(data[i*2 : i*2+2])
	}

	for i := 0; i < indexCount; i += 3 {
		record := schema.NewStruct(out.ElementDef())
		record.Set("vertex0_index", index(i))   //nolint:errcheck
		record.Set("vertex1_index", index(i+1)) //nolint:errcheck
		record.Set("vertex2_index", index(i+2)) //nolint:errcheck
		out.InsertMoved(out.Len(), record)
	}
	return nil
}
