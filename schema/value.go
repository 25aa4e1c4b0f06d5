package schema

import (
	"fmt"

	"github.com/FishAndRips/ringhopper-sub000/primitive"
)

// DataType is the reflection-level discriminator of a dynamic value.
type DataType int

const (
	DataTypeReflexive DataType = iota
	DataTypeArray
	DataTypeBlock
	DataTypeData
	DataTypeTagReference
	DataTypeEnum
	DataTypeSimplePrimitive
)

// Struct is a dynamically typed instance of a StructDef. Field values are
// stored in definition order and accessed by name through the reflection API
// or positionally by the codec.
type Struct struct {
	def    *StructDef
	values []any
}

// Reflexive is a sized, owned sequence of homogeneous records.
type Reflexive struct {
	elem  *StructDef
	items []*Struct
}

// Data is an owned byte buffer. External, FileOffset, and Size carry the
// descriptor fields observed when parsing a cache image so extraction fixups
// can locate payloads stored out-of-line; all are zero for tag files.
type Data struct {
	Bytes      []byte
	External   uint32
	FileOffset uint32
	Size       int
}

// NewStruct creates a struct instance with every field zeroed and declared
// defaults applied.
func NewStruct(def *StructDef) *Struct {
	s := &Struct{def: def, values: make([]any, len(def.Fields))}
	for i, f := range def.Fields {
		s.values[i] = newFieldValue(f)
	}
	return s
}

func newFieldValue(f *FieldDef) any {
	count := f.elementCount()
	if count > 1 {
		elements := make([]any, count)
		for i := range elements {
			elements[i] = newElementValue(f, i)
		}
		return elements
	}
	return newElementValue(f, 0)
}

func newElementValue(f *FieldDef, index int) any {
	defaultAt := func(i int) float64 {
		if i < len(f.Default) {
			return f.Default[i]
		}
		if len(f.Default) == 1 {
			return f.Default[0]
		}
		return 0
	}

	switch f.kind {
	case KindU8:
		return uint8(defaultAt(index))
	case KindI8:
		return int8(defaultAt(index))
	case KindU16:
		return uint16(defaultAt(index))
	case KindI16:
		return int16(defaultAt(index))
	case KindU32:
		return uint32(defaultAt(index))
	case KindI32:
		return int32(defaultAt(index))
	case KindF32:
		return float32(defaultAt(index))
	case KindAngle:
		return primitive.Angle(defaultAt(index))
	case KindVector2D:
		return primitive.Vector2D{}
	case KindVector3D:
		return primitive.Vector3D{}
	case KindEuler2D:
		return primitive.Euler2D{}
	case KindEuler3D:
		return primitive.Euler3D{}
	case KindPlane2D:
		return primitive.Plane2D{}
	case KindPlane3D:
		return primitive.Plane3D{}
	case KindQuaternion:
		return primitive.Quaternion{}
	case KindMatrix3x3:
		return primitive.Matrix3x3{}
	case KindColorARGBFloat:
		return primitive.ColorARGBFloat{}
	case KindColorRGBFloat:
		return primitive.ColorRGBFloat{}
	case KindColorARGBInt:
		return primitive.ColorARGBInt{}
	case KindString32:
		return primitive.String32{}
	case KindIndex:
		return primitive.NullIndex
	case KindID:
		return primitive.NullID
	case KindTagGroup:
		return primitive.TagGroupUnset
	case KindAddress:
		return primitive.Address(0)
	case KindPad:
		return make([]byte, f.Size)
	case KindStruct:
		return NewStruct(f.structDef)
	case KindReflexive:
		return &Reflexive{elem: f.structDef}
	case KindReference:
		group := primitive.TagGroupUnset
		if len(f.allowedGroups) == 1 {
			group = f.allowedGroups[0]
		}
		return primitive.NullReference(group)
	case KindData:
		return &Data{}
	case KindEnum:
		return uint16(defaultAt(index))
	case KindBitfield:
		return uint32(defaultAt(index))
	default:
		panic(fmt.Sprintf("schema: unhandled kind %d", f.kind))
	}
}

// Def returns the struct definition.
func (s *Struct) Def() *StructDef { return s.def }

// FieldNames returns the ordered names of addressable fields (padding is
// anonymous and omitted).
func (s *Struct) FieldNames() []string {
	names := make([]string, 0, len(s.def.Fields))
	for _, f := range s.def.Fields {
		if f.kind != KindPad {
			names = append(names, f.Name)
		}
	}
	return names
}

func (s *Struct) fieldIndex(name string) (int, bool) {
	for i, f := range s.def.Fields {
		if f.kind != KindPad && f.Name == name {
			return i, true
		}
	}
	return 0, false
}

// FieldDef returns the definition of a named field.
func (s *Struct) FieldDef(name string) (*FieldDef, bool) {
	i, ok := s.fieldIndex(name)
	if !ok {
		return nil, false
	}
	return s.def.Fields[i], true
}

// Get returns a field value by name. Composite values (*Reflexive, *Data,
// *Struct) are returned by reference; simple values are copies that must be
// stored back with Set.
func (s *Struct) Get(name string) (any, bool) {
	i, ok := s.fieldIndex(name)
	if !ok {
		return nil, false
	}
	return s.values[i], true
}

// Set stores a field value by name. The value's dynamic type must match what
// Get would return for the field.
func (s *Struct) Set(name string, value any) error {
	i, ok := s.fieldIndex(name)
	if !ok {
		return fmt.Errorf("no such field %q in %s", name, s.def.Name)
	}
	if fmt.Sprintf("%T", s.values[i]) != fmt.Sprintf("%T", value) {
		return fmt.Errorf("field %q of %s holds %T, not %T", name, s.def.Name, s.values[i], value)
	}
	s.values[i] = value
	return nil
}

// GetReflexive returns a named reflexive field.
func (s *Struct) GetReflexive(name string) (*Reflexive, bool) {
	v, ok := s.Get(name)
	if !ok {
		return nil, false
	}
	r, ok := v.(*Reflexive)
	return r, ok
}

// GetData returns a named data field.
func (s *Struct) GetData(name string) (*Data, bool) {
	v, ok := s.Get(name)
	if !ok {
		return nil, false
	}
	d, ok := v.(*Data)
	return d, ok
}

// GetReference returns a named tag reference field.
func (s *Struct) GetReference(name string) (primitive.TagReference, bool) {
	v, ok := s.Get(name)
	if !ok {
		return primitive.TagReference{}, false
	}
	r, ok := v.(primitive.TagReference)
	return r, ok
}

// GetStruct returns a named inline block field.
func (s *Struct) GetStruct(name string) (*Struct, bool) {
	v, ok := s.Get(name)
	if !ok {
		return nil, false
	}
	b, ok := v.(*Struct)
	return b, ok
}

// EnumValue returns the option index and definition of a named enum field.
func (s *Struct) EnumValue(name string) (uint16, *EnumDef, bool) {
	f, ok := s.FieldDef(name)
	if !ok || f.kind != KindEnum {
		return 0, nil, false
	}
	value, _ := s.Get(name)
	return value.(uint16), f.enumDef, true
}

// SetEnumByName stores an enum field by option name.
func (s *Struct) SetEnumByName(name, option string) error {
	f, ok := s.FieldDef(name)
	if !ok || f.kind != KindEnum {
		return fmt.Errorf("no enum field %q in %s", name, s.def.Name)
	}
	index, ok := f.enumDef.Option(option)
	if !ok {
		return fmt.Errorf("enum %s has no option %q", f.enumDef.Name, option)
	}
	return s.Set(name, index)
}

// DataTypeOf returns the reflection discriminator for a field.
func (s *Struct) DataTypeOf(name string) (DataType, bool) {
	f, ok := s.FieldDef(name)
	if !ok {
		return 0, false
	}
	return f.DataType(), true
}

// DataType returns the reflection discriminator for the field's values.
func (f *FieldDef) DataType() DataType {
	if f.elementCount() > 1 {
		return DataTypeArray
	}
	switch f.kind {
	case KindReflexive:
		return DataTypeReflexive
	case KindStruct:
		return DataTypeBlock
	case KindData:
		return DataTypeData
	case KindReference:
		return DataTypeTagReference
	case KindEnum:
		return DataTypeEnum
	default:
		return DataTypeSimplePrimitive
	}
}

// Clone deep-copies the struct.
func (s *Struct) Clone() *Struct {
	out := &Struct{def: s.def, values: make([]any, len(s.values))}
	for i, v := range s.values {
		out.values[i] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch value := v.(type) {
	case *Struct:
		return value.Clone()
	case *Reflexive:
		return value.Clone()
	case *Data:
		bytes := make([]byte, len(value.Bytes))
		copy(bytes, value.Bytes)
		return &Data{Bytes: bytes, External: value.External, FileOffset: value.FileOffset, Size: value.Size}
	case []byte:
		out := make([]byte, len(value))
		copy(out, value)
		return out
	case []any:
		out := make([]any, len(value))
		for i, e := range value {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// NewReflexive creates an empty reflexive of the given element definition.
func NewReflexive(elem *StructDef) *Reflexive {
	return &Reflexive{elem: elem}
}

// ElementDef returns the element struct definition.
func (r *Reflexive) ElementDef() *StructDef { return r.elem }

// Len returns the element count.
func (r *Reflexive) Len() int { return len(r.items) }

// At returns the element at index, or nil if out of range.
func (r *Reflexive) At(index int) *Struct {
	if index < 0 || index >= len(r.items) {
		return nil
	}
	return r.items[index]
}

// Items returns the backing slice; callers must not reorder it while other
// views exist.
func (r *Reflexive) Items() []*Struct { return r.items }

// Clone deep-copies the reflexive.
func (r *Reflexive) Clone() *Reflexive {
	out := &Reflexive{elem: r.elem, items: make([]*Struct, len(r.items))}
	for i, item := range r.items {
		out.items[i] = item.Clone()
	}
	return out
}

func (r *Reflexive) insertAt(index int, item *Struct) {
	if index < 0 || index > len(r.items) {
		panic(fmt.Sprintf("reflexive insert index %d out of range 0..%d", index, len(r.items)))
	}
	if item.def != r.elem {
		panic("reflexive insert of mismatched struct type")
	}
	r.items = append(r.items, nil)
	copy(r.items[index+1:], r.items[index:])
	r.items[index] = item
}

// InsertDefault inserts a default-valued element at index. index may equal
// Len to append.
func (r *Reflexive) InsertDefault(index int) {
	r.insertAt(index, NewStruct(r.elem))
}

// InsertCopy inserts a deep copy of item at index.
func (r *Reflexive) InsertCopy(index int, item *Struct) {
	r.insertAt(index, item.Clone())
}

// InsertMoved inserts item itself at index, resetting the source variable's
// obligations to the caller: the reflexive takes ownership.
func (r *Reflexive) InsertMoved(index int, item *Struct) {
	r.insertAt(index, item)
}

// Remove deletes the element at index.
func (r *Reflexive) Remove(index int) {
	if index < 0 || index >= len(r.items) {
		panic(fmt.Sprintf("reflexive remove index %d out of range", index))
	}
	r.items = append(r.items[:index], r.items[index+1:]...)
}

// Truncate clips the reflexive to at most n elements.
func (r *Reflexive) Truncate(n int) {
	if n < len(r.items) {
		r.items = r.items[:n]
	}
}
