// Package schema holds the declarative layout data that drives the tag codec:
// struct, enum, and bitfield definitions plus the binding of tag groups to
// their principal structs.
//
// Definitions live in embedded TOML files and are loaded once at package init.
// The loader resolves cross-references, validates each struct's declared size
// against the sum of its field sizes, and builds the lookup tables used by the
// codec, the reflection API, and reference validation. A definition error is a
// build defect, so the loader panics rather than returning an error.
package schema

import (
	"embed"
	"fmt"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/FishAndRips/ringhopper-sub000/primitive"
)

//go:embed defs/*.toml
var defsFS embed.FS

// FieldKind is the resolved type of a field.
type FieldKind int

const (
	KindU8 FieldKind = iota
	KindI8
	KindU16
	KindI16
	KindU32
	KindI32
	KindF32
	KindAngle
	KindVector2D
	KindVector3D
	KindEuler2D
	KindEuler3D
	KindPlane2D
	KindPlane3D
	KindQuaternion
	KindMatrix3x3
	KindColorARGBFloat
	KindColorRGBFloat
	KindColorARGBInt
	KindString32
	KindIndex
	KindID
	KindTagGroup
	KindAddress
	KindPad
	KindStruct
	KindReflexive
	KindReference
	KindData
	KindEnum
	KindBitfield
)

var kindNames = map[string]FieldKind{
	"u8":               KindU8,
	"i8":               KindI8,
	"u16":              KindU16,
	"i16":              KindI16,
	"u32":              KindU32,
	"i32":              KindI32,
	"f32":              KindF32,
	"angle":            KindAngle,
	"vector2d":         KindVector2D,
	"vector3d":         KindVector3D,
	"euler2d":          KindEuler2D,
	"euler3d":          KindEuler3D,
	"plane2d":          KindPlane2D,
	"plane3d":          KindPlane3D,
	"quaternion":       KindQuaternion,
	"matrix3x3":        KindMatrix3x3,
	"color_argb_float": KindColorARGBFloat,
	"color_rgb_float":  KindColorRGBFloat,
	"color_argb_int":   KindColorARGBInt,
	"string32":         KindString32,
	"index":            KindIndex,
	"id":               KindID,
	"tag_group":        KindTagGroup,
	"address":          KindAddress,
	"pad":              KindPad,
	"struct":           KindStruct,
	"reflexive":        KindReflexive,
	"reference":        KindReference,
	"data":             KindData,
	"enum":             KindEnum,
	"bitfield":         KindBitfield,
}

var simpleKindSizes = map[FieldKind]int{
	KindU8:             1,
	KindI8:             1,
	KindU16:            2,
	KindI16:            2,
	KindU32:            4,
	KindI32:            4,
	KindF32:            4,
	KindAngle:          primitive.AngleSize,
	KindVector2D:       primitive.Vector2DSize,
	KindVector3D:       primitive.Vector3DSize,
	KindEuler2D:        primitive.Euler2DSize,
	KindEuler3D:        primitive.Euler3DSize,
	KindPlane2D:        primitive.Plane2DSize,
	KindPlane3D:        primitive.Plane3DSize,
	KindQuaternion:     primitive.QuaternionSize,
	KindMatrix3x3:      primitive.Matrix3x3Size,
	KindColorARGBFloat: primitive.ColorARGBFloatSize,
	KindColorRGBFloat:  primitive.ColorRGBFloatSize,
	KindColorARGBInt:   primitive.ColorARGBIntSize,
	KindString32:       primitive.String32Size,
	KindIndex:          2,
	KindID:             primitive.IDSize,
	KindTagGroup:       primitive.TagGroupSize,
	KindAddress:        primitive.AddressSize,
	KindReflexive:      primitive.ReflexiveDescriptorSize,
	KindReference:      primitive.TagReferenceDescriptorSize,
	KindData:           primitive.DataDescriptorSize,
	KindEnum:           2,
}

// StructDef describes one struct layout.
type StructDef struct {
	Name   string      `toml:"name"`
	Size   int         `toml:"size"`
	Fields []*FieldDef `toml:"fields"`
}

// FieldDef describes one field of a struct.
type FieldDef struct {
	Name     string `toml:"name"`
	Type     string `toml:"type"`
	Struct   string `toml:"struct"`
	Enum     string `toml:"enum"`
	Bitfield string `toml:"bitfield"`

	// Groups is the reference allow-list; "*" permits every group.
	Groups []string `toml:"groups"`

	// Count > 1 declares an inline array; Bounds declares a lower/upper pair.
	Count  int  `toml:"count"`
	Bounds bool `toml:"bounds"`

	// Size is the byte size for pad fields.
	Size int `toml:"size"`

	// Limit caps reflexive element counts.
	Limit int `toml:"limit"`

	Default []float64 `toml:"default"`
	Min     *float64  `toml:"min"`
	Max     *float64  `toml:"max"`

	CacheOnly    bool   `toml:"cache_only"`
	NonCached    bool   `toml:"non_cached"`
	ReadOnly     bool   `toml:"read_only"`
	Hidden       bool   `toml:"hidden"`
	Excluded     bool   `toml:"excluded"`
	LittleEndian bool   `toml:"little_endian"`
	ShiftedByOne bool   `toml:"shifted_by_one"`
	NonNull      bool   `toml:"non_null"`
	Comment      string `toml:"comment"`

	kind          FieldKind
	structDef     *StructDef
	enumDef       *EnumDef
	bitfieldDef   *BitfieldDef
	allowedGroups []primitive.TagGroup // nil means wildcard
}

// Kind returns the resolved field kind.
func (f *FieldDef) Kind() FieldKind { return f.kind }

// StructDef returns the element or block struct for struct/reflexive fields.
func (f *FieldDef) StructDef() *StructDef { return f.structDef }

// EnumDef returns the enum definition for enum fields.
func (f *FieldDef) EnumDef() *EnumDef { return f.enumDef }

// BitfieldDef returns the bitfield definition for bitfield fields.
func (f *FieldDef) BitfieldDef() *BitfieldDef { return f.bitfieldDef }

// AllowedGroups returns the reference allow-list, or nil for the wildcard.
func (f *FieldDef) AllowedGroups() []primitive.TagGroup { return f.allowedGroups }

// AllowsGroup reports whether a reference field may point at the given group,
// honoring the wildcard and supergroup matching.
func (f *FieldDef) AllowsGroup(group primitive.TagGroup) bool {
	if f.allowedGroups == nil {
		return true
	}
	for _, allowed := range f.allowedGroups {
		if group == allowed || group.MatchesGroup(allowed) {
			return true
		}
	}
	return false
}

// elementCount returns how many consecutive elements the field occupies.
func (f *FieldDef) elementCount() int {
	if f.Bounds {
		return 2
	}
	if f.Count > 1 {
		return f.Count
	}
	return 1
}

// elementSize returns the byte size of one element of the field.
func (f *FieldDef) elementSize() int {
	switch f.kind {
	case KindPad:
		return f.Size
	case KindStruct:
		return f.structDef.Size
	case KindBitfield:
		return f.bitfieldDef.Width / 8
	default:
		return simpleKindSizes[f.kind]
	}
}

// byteSize returns the total byte size of the field.
func (f *FieldDef) byteSize() int {
	return f.elementSize() * f.elementCount()
}

// EnumDef describes an enum stored as a u16 of ordered options.
type EnumDef struct {
	Name    string   `toml:"name"`
	Options []string `toml:"options"`
}

// Option returns the index of the named option.
func (e *EnumDef) Option(name string) (uint16, bool) {
	for i, option := range e.Options {
		if option == name {
			return uint16(i), true
		}
	}
	return 0, false
}

// BitfieldDef describes a bitfield of width 8, 16, or 32 bits. Fields are
// named in bit order from bit 0; unlisted bits are padding and survive
// round-trips untouched.
type BitfieldDef struct {
	Name   string   `toml:"name"`
	Width  int      `toml:"width"`
	Fields []string `toml:"fields"`
}

// Bit returns the bit position of the named flag.
func (b *BitfieldDef) Bit(name string) (uint, bool) {
	for i, field := range b.Fields {
		if field == name {
			return uint(i), true
		}
	}
	return 0, false
}

// GroupDef binds a tag group to its principal struct.
type GroupDef struct {
	Group   primitive.TagGroup
	Struct  *StructDef
	Version uint16
}

type groupDecl struct {
	Name    string `toml:"name"`
	Struct  string `toml:"struct"`
	Version int    `toml:"version"`
}

type schemaFile struct {
	Structs   []*StructDef   `toml:"structs"`
	Enums     []*EnumDef     `toml:"enums"`
	Bitfields []*BitfieldDef `toml:"bitfields"`
	Groups    []*groupDecl   `toml:"groups"`
}

var (
	structsByName   = map[string]*StructDef{}
	enumsByName     = map[string]*EnumDef{}
	bitfieldsByName = map[string]*BitfieldDef{}
	groupDefs       = map[primitive.TagGroup]*GroupDef{}
)

// StructByName looks up a struct definition.
func StructByName(name string) (*StructDef, bool) {
	def, ok := structsByName[name]
	return def, ok
}

// MustStruct looks up a struct definition and panics if it is missing. For
// structs the code depends on unconditionally.
func MustStruct(name string) *StructDef {
	def, ok := structsByName[name]
	if !ok {
		panic("schema: no such struct " + name)
	}
	return def
}

// Lookup returns the group definition for a tag group, or ok=false if the
// group has no schema (its tags cannot be parsed).
func Lookup(group primitive.TagGroup) (*GroupDef, bool) {
	def, ok := groupDefs[group]
	return def, ok
}

// ImplementedGroups returns every group with a schema, sorted by name.
func ImplementedGroups() []primitive.TagGroup {
	groups := make([]primitive.TagGroup, 0, len(groupDefs))
	for group := range groupDefs {
		groups = append(groups, group)
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].String() < groups[j].String()
	})
	return groups
}

func init() {
	entries, err := defsFS.ReadDir("defs")
	if err != nil {
		panic(fmt.Sprintf("schema: reading embedded definitions: %v", err))
	}

	var files []schemaFile
	for _, entry := range entries {
		raw, err := defsFS.ReadFile("defs/" + entry.Name())
		if err != nil {
			panic(fmt.Sprintf("schema: reading %s: %v", entry.Name(), err))
		}
		var file schemaFile
		if err := toml.Unmarshal(raw, &file); err != nil {
			panic(fmt.Sprintf("schema: parsing %s: %v", entry.Name(), err))
		}
		files = append(files, file)
	}

	// First pass: register names so cross-file references resolve.
	for _, file := range files {
		for _, s := range file.Structs {
			if _, dup := structsByName[s.Name]; dup {
				panic("schema: duplicate struct " + s.Name)
			}
			structsByName[s.Name] = s
		}
		for _, e := range file.Enums {
			enumsByName[e.Name] = e
		}
		for _, b := range file.Bitfields {
			if b.Width != 8 && b.Width != 16 && b.Width != 32 {
				panic("schema: bitfield " + b.Name + " has invalid width")
			}
			if len(b.Fields) > b.Width {
				panic("schema: bitfield " + b.Name + " has more fields than bits")
			}
			bitfieldsByName[b.Name] = b
		}
	}

	// Second pass: resolve field types and validate sizes.
	for _, file := range files {
		for _, s := range file.Structs {
			resolveStruct(s)
		}
	}
	for name, s := range structsByName {
		total := 0
		for _, f := range s.Fields {
			total += f.byteSize()
		}
		if total != s.Size {
			panic(fmt.Sprintf("schema: struct %s declares size %d but fields total %d", name, s.Size, total))
		}
	}

	// Third pass: bind groups.
	for _, file := range files {
		for _, g := range file.Groups {
			group, err := primitive.TagGroupFromName(g.Name)
			if err != nil {
				panic("schema: unknown tag group " + g.Name)
			}
			s, ok := structsByName[g.Struct]
			if !ok {
				panic("schema: group " + g.Name + " references unknown struct " + g.Struct)
			}
			groupDefs[group] = &GroupDef{Group: group, Struct: s, Version: uint16(g.Version)}
		}
	}
}

func resolveStruct(s *StructDef) {
	for _, f := range s.Fields {
		kind, ok := kindNames[f.Type]
		if !ok {
			panic(fmt.Sprintf("schema: struct %s field %s has unknown type %q", s.Name, f.Name, f.Type))
		}
		f.kind = kind

		switch kind {
		case KindStruct, KindReflexive:
			def, ok := structsByName[f.Struct]
			if !ok {
				panic(fmt.Sprintf("schema: struct %s field %s references unknown struct %q", s.Name, f.Name, f.Struct))
			}
			f.structDef = def
		case KindEnum:
			def, ok := enumsByName[f.Enum]
			if !ok {
				panic(fmt.Sprintf("schema: struct %s field %s references unknown enum %q", s.Name, f.Name, f.Enum))
			}
			f.enumDef = def
		case KindBitfield:
			def, ok := bitfieldsByName[f.Bitfield]
			if !ok {
				panic(fmt.Sprintf("schema: struct %s field %s references unknown bitfield %q", s.Name, f.Name, f.Bitfield))
			}
			f.bitfieldDef = def
		case KindPad:
			if f.Size <= 0 {
				panic(fmt.Sprintf("schema: struct %s pad field has no size", s.Name))
			}
		case KindReference:
			if len(f.Groups) == 1 && f.Groups[0] == "*" {
				f.allowedGroups = nil
				break
			}
			if len(f.Groups) == 0 {
				panic(fmt.Sprintf("schema: struct %s field %s declares no allowed groups", s.Name, f.Name))
			}
			for _, name := range f.Groups {
				group, err := primitive.TagGroupFromName(name)
				if err != nil {
					panic(fmt.Sprintf("schema: struct %s field %s allows unknown group %q", s.Name, f.Name, name))
				}
				f.allowedGroups = append(f.allowedGroups, group)
			}
		}
	}
}
