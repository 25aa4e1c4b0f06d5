package cachemap

import (
	"github.com/FishAndRips/ringhopper-sub000/compress"
	"github.com/FishAndRips/ringhopper-sub000/endian"
	"github.com/FishAndRips/ringhopper-sub000/engines"
	"github.com/FishAndRips/ringhopper-sub000/errs"
	"github.com/FishAndRips/ringhopper-sub000/internal/options"
	"github.com/FishAndRips/ringhopper-sub000/primitive"
	"github.com/FishAndRips/ringhopper-sub000/schema"
)

// Tag is one resolved tag inside a map: its path plus where its struct lives.
type Tag struct {
	Path    primitive.TagPath
	Address int
	Domain  primitive.Domain
}

// BSPDomain is one BSP's carved region.
type BSPDomain struct {
	// Start/End bound the region within MapData.
	Start int
	End   int

	// BaseAddress is the region's in-memory base.
	BaseAddress int

	// TagAddress is where the BSP's principal struct lives.
	TagAddress int

	// Path is the owning BSP tag, when the scenario names one.
	Path *primitive.TagPath
}

// CacheFile is a loaded Gearbox-lineage cache file. It implements
// primitive.Map and is exposed as a read-only tag tree through MapTagTree.
type CacheFile struct {
	name   string
	engine *engines.Engine
	header *ParsedCacheFileHeader
	data   []byte

	tagDataStart int
	tagDataEnd   int

	vertexDataStart   int
	vertexDataEnd     int
	triangleDataStart int
	triangleDataEnd   int

	baseMemoryAddress int

	bsps []BSPDomain

	tags        []*Tag
	ids         map[primitive.TagPath]primitive.ID
	scenarioTag primitive.ID

	// mergedSoundResources holds synthesized buffers for Custom Edition
	// sounds whose base struct is split across tags.map and sounds.map.
	mergedSoundResources map[primitive.Domain][]byte

	bitmaps *ResourceMap
	sounds  *ResourceMap
	loc     *ResourceMap

	scenarioData *schema.Struct
}

type loadConfig struct {
	bitmaps []byte
	sounds  []byte
	loc     []byte
}

// LoadOption configures Load.
type LoadOption = options.Option[*loadConfig]

// WithBitmaps attaches the companion bitmaps resource file.
func WithBitmaps(data []byte) LoadOption {
	return options.NoError(func(c *loadConfig) { c.bitmaps = data })
}

// WithSounds attaches the companion sounds resource file.
func WithSounds(data []byte) LoadOption {
	return options.NoError(func(c *loadConfig) { c.sounds = data })
}

// WithLoc attaches the companion loc resource file.
func WithLoc(data []byte) LoadOption {
	return options.NoError(func(c *loadConfig) { c.loc = data })
}

// Load reads a cache file: identify, decompress, carve domains, decode the
// tag index, bind external resources, and resolve BSP regions.
func Load(data []byte, opts ...LoadOption) (*CacheFile, error) {
	var config loadConfig
	if err := options.Apply(&config, opts...); err != nil {
		return nil, err
	}

	header, err := ReadCacheFileHeader(data)
	if err != nil {
		return nil, err
	}
	engine, err := header.MatchEngine()
	if err != nil {
		return nil, err
	}

	if data, err = decompressMap(data, header, engine); err != nil {
		return nil, err
	}

	m := &CacheFile{
		name:                 header.Name.String(),
		engine:               engine,
		header:               header,
		data:                 data,
		baseMemoryAddress:    int(engine.BaseMemoryAddress.Address),
		mergedSoundResources: map[primitive.Domain][]byte{},
		ids:                  map[primitive.TagPath]primitive.ID{},
	}

	if config.bitmaps != nil {
		if m.bitmaps, err = ReadResourceMap(config.bitmaps); err != nil {
			return nil, err
		}
	}
	if config.sounds != nil {
		if m.sounds, err = ReadResourceMap(config.sounds); err != nil {
			return nil, err
		}
	}
	if config.loc != nil {
		if m.loc, err = ReadResourceMap(config.loc); err != nil {
			return nil, err
		}
	}

	// Tag data domain.
	end, err := errs.AddCheck(header.TagDataOffset, header.TagDataSize)
	if err != nil || header.TagDataOffset < 0 || end > len(data) {
		return nil, errs.MapParseFailuref("tag data region out of bounds 0x%08X[0x%08X]", header.TagDataOffset, header.TagDataSize)
	}
	m.tagDataStart = header.TagDataOffset
	m.tagDataEnd = end

	// Tag data header, possibly inferring the base address.
	tagDataHeaderBytes, ok := m.DataAtAddress(m.baseMemoryAddress, primitive.TagDataDomain, TagDataHeaderSize)
	if !ok && engine.BaseMemoryAddress.Inferred {
		// With an inferred base the header is definitionally at the region's
		// start.
		tagDataHeaderBytes = data[m.tagDataStart : m.tagDataStart+min(TagDataHeaderSize, header.TagDataSize)]
	}
	if len(tagDataHeaderBytes) < TagDataHeaderSize {
		return nil, errs.MapParseFailuref("tag data region too small for the tag data header")
	}
	var tagDataHeader TagDataHeader
	if err := tagDataHeader.Parse(tagDataHeaderBytes); err != nil {
		return nil, err
	}

	tagArrayAddress := int(tagDataHeader.TagArrayAddress)
	if engine.BaseMemoryAddress.Inferred {
		m.baseMemoryAddress = tagArrayAddress - TagDataHeaderSize
		if m.baseMemoryAddress < 0 {
			return nil, errs.MapParseFailuref("inferred base memory address underflows (tag array at 0x%08X)", tagArrayAddress)
		}
	}
	m.scenarioTag = tagDataHeader.ScenarioTag

	cachedTags, err := m.readTagIndex(&tagDataHeader, tagArrayAddress)
	if err != nil {
		return nil, err
	}
	if err := m.handleExternalTags(cachedTags); err != nil {
		return nil, err
	}
	if err := m.loadModelData(&tagDataHeader); err != nil {
		return nil, err
	}
	if err := m.loadScenarioInfo(); err != nil {
		return nil, err
	}
	return m, nil
}

// decompressMap expands the body when the engine compresses it: bytes
// [0, 0x800) are preserved, bytes [0x800, len - padding) are decompressed to
// the header's declared size.
func decompressMap(data []byte, header *ParsedCacheFileHeader, engine *engines.Engine) ([]byte, error) {
	compressionType := engine.CompressionType()
	if compressionType == compress.TypeNone {
		return data, nil
	}

	codec, err := compress.GetCodec(compressionType)
	if err != nil {
		return nil, errs.MapParseFailuref("%v", err)
	}

	bodyEnd := len(data) - header.CompressionPadding
	if bodyEnd < CacheFileHeaderSize {
		return nil, errs.MapParseFailuref("compression padding 0x%X leaves no body", header.CompressionPadding)
	}
	if header.DecompressedSize < CacheFileHeaderSize {
		return nil, errs.MapParseFailuref("decompressed size 0x%X is smaller than the header", header.DecompressedSize)
	}

	out := make([]byte, header.DecompressedSize)
	copy(out, data[:CacheFileHeaderSize])
	if err := codec.DecompressInto(out[CacheFileHeaderSize:], data[CacheFileHeaderSize:bodyEnd]); err != nil {
		return nil, errs.MapParseFailuref("failed to decompress the cache file: %v", err)
	}
	return out, nil
}

// readTagIndex decodes the tag array, validates IDs, resolves paths, and
// builds the path index.
func (m *CacheFile) readTagIndex(header *TagDataHeader, tagArrayAddress int) ([]CacheFileTag, error) {
	tagCount := int(header.TagCount)
	if tagCount > 65535 {
		return nil, errs.MapParseFailuref("maximum tag count exceeded (map claims to have %d tags)", tagCount)
	}

	totalSize, err := errs.MulCheck(tagCount, CacheFileTagSize)
	if err != nil {
		return nil, err
	}
	arrayBytes, ok := m.DataAtAddress(tagArrayAddress, primitive.TagDataDomain, totalSize)
	if !ok {
		return nil, errs.MapParseFailuref("unable to read the tag array; the cache file is likely corrupted/protected")
	}

	cachedTags := make([]CacheFileTag, tagCount)
	m.tags = make([]*Tag, tagCount)

	for i := 0; i < tagCount; i++ {
		entry := &cachedTags[i]
		if err := entry.Parse(arrayBytes[i*CacheFileTagSize : (i+1)*CacheFileTagSize]); err != nil {
			return nil, err
		}

		group, err := entry.Group()
		if err != nil {
			return nil, errs.MapParseFailuref("tag #%d has an unknown group FourCC %v; the cache file is likely corrupted/protected", i, entry.PrimaryGroup)
		}
		if group == primitive.TagGroupUnset {
			continue
		}

		index, hasIndex := entry.ID.Index()
		if !hasIndex || int(index) != i {
			return nil, errs.MapParseFailuref("tag #%d has an invalid tag ID", i)
		}

		rawPath, ok := m.CStringAtAddress(int(entry.PathAddress), primitive.TagDataDomain)
		if !ok {
			return nil, errs.MapParseFailuref("unable to get the tag path for tag #%d due to a bad address 0x%08X", i, uint32(entry.PathAddress))
		}
		path, err := primitive.NewTagPath(rawPath, group)
		if err != nil {
			return nil, errs.MapParseFailuref("unable to get the tag path for tag #%d (%s): %v", i, rawPath, err)
		}

		if _, dup := m.ids[path]; dup {
			return nil, errs.MapParseFailuref("multiple instances of tag %v detected", path)
		}
		m.ids[path] = entry.ID

		m.tags[i] = &Tag{
			Path:    path,
			Address: int(entry.DataAddress),
			Domain:  primitive.TagDataDomain,
		}
	}
	return cachedTags, nil
}

// handleExternalTags rebinds tags whose payload lives in companion resource
// maps.
func (m *CacheFile) handleExternalTags(cachedTags []CacheFileTag) error {
	for i := range cachedTags {
		entry := &cachedTags[i]
		tag := m.tags[i]
		if tag == nil || entry.External == 0 {
			continue
		}

		if m.engine.ResourceMaps == nil || !m.engine.ResourceMaps.ExternallyIndexedTags {
			return errs.MapParseFailuref("`%v` marked as external when engine %s doesn't allow it", tag.Path, m.engine.Name)
		}

		matchIndexed := func(resource *ResourceMap, kind primitive.ResourceMapKind) error {
			item, ok := resource.Get(tag.Address)
			if !ok {
				return errs.MapParseFailuref("mismatched resource maps; `%v` not found in %v", tag.Path, kind)
			}
			if item.Path() != tag.Path.Path() {
				return errs.MapParseFailuref("mismatched resource maps; `%v` was actually `%s` in %v", tag.Path, item.Path(), kind)
			}
			return nil
		}

		switch tag.Path.Group() {
		case primitive.TagGroupBitmap:
			if m.bitmaps != nil {
				if err := matchIndexed(m.bitmaps, primitive.ResourceMapBitmaps); err != nil {
					return err
				}
			}
			tag.Domain = primitive.Domain{
				Kind:     primitive.DomainResourceMapEntry,
				Resource: primitive.ResourceMapBitmaps,
				Path:     tag.Path.Path(),
			}
			tag.Address = 0

		case primitive.TagGroupSound:
			if err := m.mergeExternalSoundTag(tag); err != nil {
				return err
			}

		default:
			if m.loc != nil {
				if err := matchIndexed(m.loc, primitive.ResourceMapLoc); err != nil {
					return err
				}
			}
			tag.Domain = primitive.Domain{
				Kind:     primitive.DomainResourceMapEntry,
				Resource: primitive.ResourceMapLoc,
				Path:     tag.Path.Path(),
			}
			tag.Address = 0
		}
	}
	return nil
}

// mergeExternalSoundTag synthesizes a single buffer for a sound tag whose
// base struct is split between the map and sounds.map: the pitch-range
// payload from sounds.map at address 0, then the in-map base struct with the
// pitch-range address zeroed and the sample rate, channel count, and format
// copied over from the sounds.map struct.
func (m *CacheFile) mergeExternalSoundTag(tag *Tag) error {
	if m.sounds == nil {
		return nil
	}

	object, ok := m.sounds.GetByPath(tag.Path.Path())
	if !ok {
		return errs.MapParseFailuref("mismatched resource maps; `%v` not found in %v", tag.Path, primitive.ResourceMapSounds)
	}

	baseStructSize := schema.MustStruct("Sound").Size
	dataInSounds := object.Data()
	if len(dataInSounds) < baseStructSize {
		return errs.MapParseFailuref("mismatched resource maps; `%v` is corrupt in sounds.map", tag.Path)
	}
	baseStructInSounds := dataInSounds[:baseStructSize]
	pitchRanges := dataInSounds[baseStructSize:]

	baseStructInTags, ok := m.DataAtAddress(tag.Address, tag.Domain, baseStructSize)
	if !ok {
		return errs.MapParseFailuref("corrupted map; `%v` has no base struct data", tag.Path)
	}

	// Pitch range data onwards starts at address 0.
	merged := make([]byte, 0, len(pitchRanges)+baseStructSize)
	merged = append(merged, pitchRanges...)

	baseOffset := len(merged)
	merged = append(merged, baseStructInTags...)
	base := merged[baseOffset:]

	e := endian.GetLittleEndianEngine()

	// Pitch ranges: take the count from sounds.map, address 0.
	var pitchRangeReflexive primitive.ReflexiveDescriptor
	if err := pitchRangeReflexive.Read(e, baseStructInSounds, soundPitchRangesOffset, baseStructSize); err != nil {
		return err
	}
	pitchRangeReflexive.Address = 0
	pitchRangeReflexive.Write(e, base, soundPitchRangesOffset, baseStructSize)

	// Sample rate.
	copy(base[soundSampleRateOffset:soundSampleRateOffset+2], baseStructInSounds[soundSampleRateOffset:soundSampleRateOffset+2])
	// Channel count and format.
	copy(base[soundEncodingOffset:soundEncodingOffset+4], baseStructInSounds[soundEncodingOffset:soundEncodingOffset+4])

	tag.Domain = primitive.Domain{
		Kind:     primitive.DomainResourceMapEntry,
		Resource: primitive.ResourceMapSounds,
		Path:     tag.Path.Path(),
	}
	tag.Address = baseOffset
	m.mergedSoundResources[tag.Domain] = merged
	return nil
}

// Byte offsets into the Sound principal struct used by the merge.
const (
	soundSampleRateOffset  = 6
	soundEncodingOffset    = 108
	soundPitchRangesOffset = 152
)

// loadModelData carves the model vertex and triangle regions.
func (m *CacheFile) loadModelData(header *TagDataHeader) error {
	start := int(header.ModelDataFileOffset)
	size := int(header.ModelDataSize)
	end, err := errs.AddCheck(start, size)
	if err != nil || start < 0 || end > len(m.data) {
		return errs.MapParseFailuref("model data region is out of bounds 0x%08X - 0x%08X", start, end)
	}

	triangleOffset := int(header.ModelTriangleOffset)
	if triangleOffset > size {
		return errs.MapParseFailuref("model data triangle offset is out of bounds 0x%08X > 0x%08X", triangleOffset, size)
	}

	m.vertexDataStart = start
	m.vertexDataEnd = start + triangleOffset
	m.triangleDataStart = start + triangleOffset
	m.triangleDataEnd = end
	return nil
}

// loadScenarioInfo reads the scenario tag, validates it, and registers
// per-BSP domains.
func (m *CacheFile) loadScenarioInfo() error {
	scenario, ok := m.tagByID(m.scenarioTag)
	if !ok {
		return errs.MapParseFailuref("the map has no scenario tag")
	}
	if scenario.Path.Group() != primitive.TagGroupScenario {
		return errs.MapParseFailuref("scenario tag is marked as a %v tag; likely protected/corrupted map", scenario.Path.Group())
	}
	for _, tag := range m.tags {
		if tag != nil && tag.Path.Group() == primitive.TagGroupScenario && tag.Path != scenario.Path {
			return errs.MapParseFailuref("extraneous scenario tag %v in the map (map likely protected/corrupted)", tag.Path)
		}
	}

	scenarioData, err := schema.ReadStructFromMap(schema.MustStruct("Scenario"), m, scenario.Address, scenario.Domain)
	if err != nil {
		return err
	}
	m.scenarioData = scenarioData

	bsps, _ := scenarioData.GetReflexive("structure_bsps")
	for index, entry := range bsps.Items() {
		get := func(name string) int {
			v, _ := entry.Get(name)
			return int(v.(uint32))
		}
		start := get("bsp_start")
		length := get("bsp_size")
		end, err := errs.AddCheck(start, length)
		if err != nil || start < 0 || end > len(m.data) {
			return errs.MapParseFailuref("BSP #%d has an invalid range 0x%08X[0x%08X]", index, start, length)
		}

		domain := BSPDomain{
			Start:       start,
			End:         end,
			BaseAddress: get("bsp_address"),
		}

		reference, _ := entry.GetReference("structure_bsp")
		if path, set := reference.TagPath(); set {
			for _, prior := range m.bsps {
				if prior.Path != nil && *prior.Path == path {
					return errs.MapParseFailuref("BSP tag %v has ambiguous data", path)
				}
			}
			domain.Path = &path
		}
		for _, prior := range m.bsps {
			if start < prior.End && prior.Start < end {
				return errs.MapParseFailuref("BSP #%d range collides with another BSP", index)
			}
		}

		if length < BSPCompiledHeaderSize {
			return errs.MapParseFailuref("BSP #%d region too small for its compiled header", index)
		}
		var compiled BSPCompiledHeader
		if err := compiled.Parse(m.data[start : start+BSPCompiledHeaderSize]); err != nil {
			return err
		}
		domain.TagAddress = int(compiled.Pointer)

		m.bsps = append(m.bsps, domain)
	}

	return m.fixupBSPAddresses()
}

// fixupBSPAddresses patches BSP tag entries to point into their BSP domains,
// then verifies every BSP tag got one.
func (m *CacheFile) fixupBSPAddresses() error {
	for index := range m.bsps {
		bsp := &m.bsps[index]
		if bsp.Path == nil {
			continue
		}
		id, ok := m.ids[*bsp.Path]
		if !ok {
			continue
		}
		tagIndex, _ := id.Index()
		tag := m.tags[tagIndex]
		tag.Address = bsp.TagAddress
		tag.Domain = primitive.Domain{Kind: primitive.DomainBSP, Index: index}
	}

	for _, tag := range m.tags {
		if tag != nil && tag.Path.Group() == primitive.TagGroupScenarioStructureBSP && tag.Domain.Kind != primitive.DomainBSP {
			return errs.MapParseFailuref("BSP tag %v has no corresponding data in the scenario tag", tag.Path)
		}
	}
	return nil
}

func (m *CacheFile) tagByID(id primitive.ID) (*Tag, bool) {
	index, ok := id.Index()
	if !ok || int(index) >= len(m.tags) {
		return nil, false
	}
	tag := m.tags[index]
	if tag == nil {
		return nil, false
	}
	return tag, true
}

// Name returns the scenario name from the header.
func (m *CacheFile) Name() string { return m.name }

// Engine returns the matched engine descriptor.
func (m *CacheFile) Engine() *engines.Engine { return m.engine }

// Header returns the parsed cache file header.
func (m *CacheFile) Header() *ParsedCacheFileHeader { return m.header }

// ScenarioType returns the declared scenario type.
func (m *CacheFile) ScenarioType() ScenarioType { return m.header.MapType }

// ScenarioData returns the parsed scenario principal struct.
func (m *CacheFile) ScenarioData() *schema.Struct { return m.scenarioData }

// ScenarioTag returns the scenario's tag entry.
func (m *CacheFile) ScenarioTag() *Tag {
	tag, _ := m.tagByID(m.scenarioTag)
	return tag
}

// GetTag returns the tag entry at a path.
func (m *CacheFile) GetTag(path primitive.TagPath) (*Tag, bool) {
	id, ok := m.ids[path]
	if !ok {
		return nil, false
	}
	return m.tagByID(id)
}

// AllTags returns every tag path in the map.
func (m *CacheFile) AllTags() []primitive.TagPath {
	paths := make([]primitive.TagPath, 0, len(m.ids))
	for path := range m.ids {
		paths = append(paths, path)
	}
	return paths
}

// Domain implements primitive.Map.
func (m *CacheFile) Domain(domain primitive.Domain) (data []byte, base int, ok bool) {
	if merged, found := m.mergedSoundResources[domain]; found {
		return merged, 0, true
	}

	switch domain.Kind {
	case primitive.DomainMapData:
		return m.data, 0, true
	case primitive.DomainTagData:
		return m.data[m.tagDataStart:m.tagDataEnd], m.baseMemoryAddress, true
	case primitive.DomainModelVertexData:
		return m.data[m.vertexDataStart:m.vertexDataEnd], 0, true
	case primitive.DomainModelTriangleData:
		return m.data[m.triangleDataStart:m.triangleDataEnd], 0, true
	case primitive.DomainBSP:
		if domain.Index < 0 || domain.Index >= len(m.bsps) {
			return nil, 0, false
		}
		bsp := m.bsps[domain.Index]
		return m.data[bsp.Start:bsp.End], bsp.BaseAddress, true
	case primitive.DomainResourceMapFile:
		if resource := m.resourceMap(domain.Resource); resource != nil {
			return resource.Data(), 0, true
		}
		return nil, 0, false
	case primitive.DomainResourceMapEntry:
		if resource := m.resourceMap(domain.Resource); resource != nil {
			if entry, found := resource.GetByPath(domain.Path); found {
				return entry.Data(), 0, true
			}
		}
		return nil, 0, false
	default:
		return nil, 0, false
	}
}

func (m *CacheFile) resourceMap(kind primitive.ResourceMapKind) *ResourceMap {
	switch kind {
	case primitive.ResourceMapBitmaps:
		return m.bitmaps
	case primitive.ResourceMapSounds:
		return m.sounds
	case primitive.ResourceMapLoc:
		return m.loc
	default:
		return nil
	}
}

// DataAtAddress implements primitive.Map.
func (m *CacheFile) DataAtAddress(address int, domain primitive.Domain, size int) ([]byte, bool) {
	return primitive.DataAtAddress(m, address, domain, size)
}

// CStringAtAddress implements primitive.Map.
func (m *CacheFile) CStringAtAddress(address int, domain primitive.Domain) (string, bool) {
	return primitive.CStringAtAddress(m, address, domain)
}

// TagPathForID implements primitive.Map.
func (m *CacheFile) TagPathForID(id primitive.ID) (primitive.TagPath, bool) {
	tag, ok := m.tagByID(id)
	if !ok {
		return primitive.TagPath{}, false
	}
	return tag.Path, true
}

// BSPCount returns the number of registered BSP domains.
func (m *CacheFile) BSPCount() int { return len(m.bsps) }
