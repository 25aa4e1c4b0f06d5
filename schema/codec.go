package schema

import (
	"unicode/utf8"

	"github.com/FishAndRips/ringhopper-sub000/endian"
	"github.com/FishAndRips/ringhopper-sub000/errs"
	"github.com/FishAndRips/ringhopper-sub000/primitive"
)

// ReadStructFromTagFile parses a struct from big-endian tag file data using
// the two-cursor protocol: `at` walks the fixed layout inside
// [at, structEnd), while *extra tracks where the next variable-length payload
// begins and advances as reflexives, data blobs, and reference paths are
// consumed.
func ReadStructFromTagFile(def *StructDef, data []byte, at, structEnd int, extra *int) (*Struct, error) {
	s := &Struct{def: def, values: make([]any, len(def.Fields))}
	offset := at
	for i, f := range def.Fields {
		value, err := readFieldFromTagFile(f, data, offset, structEnd, extra)
		if err != nil {
			return nil, err
		}
		s.values[i] = value
		offset += f.byteSize()
	}
	return s, nil
}

func readFieldFromTagFile(f *FieldDef, data []byte, at, structEnd int, extra *int) (any, error) {
	count := f.elementCount()
	if count == 1 {
		return readElementFromTagFile(f, data, at, structEnd, extra)
	}
	elements := make([]any, count)
	size := f.elementSize()
	for i := range elements {
		value, err := readElementFromTagFile(f, data, at+i*size, structEnd, extra)
		if err != nil {
			return nil, err
		}
		elements[i] = value
	}
	return elements, nil
}

func (f *FieldDef) tagFileEngine() endian.EndianEngine {
	if f.LittleEndian {
		return endian.GetLittleEndianEngine()
	}
	return endian.GetBigEndianEngine()
}

func readElementFromTagFile(f *FieldDef, data []byte, at, structEnd int, extra *int) (any, error) {
	e := f.tagFileEngine()

	switch f.kind {
	case KindPad:
		if err := primitive.ReadPadding(f.Size, data, at, structEnd); err != nil {
			return nil, err
		}
		pad := make([]byte, f.Size)
		copy(pad, data[at:at+f.Size])
		return pad, nil

	case KindStruct:
		return ReadStructFromTagFile(f.structDef, data, at, at+f.structDef.Size, extra)

	case KindReflexive:
		var desc primitive.ReflexiveDescriptor
		if err := desc.Read(e, data, at, structEnd); err != nil {
			return nil, err
		}
		count := int(desc.Count)
		if f.Limit > 0 && count > f.Limit {
			return nil, errs.ErrArrayLimitExceeded
		}
		elemSize := f.structDef.Size
		total, err := errs.MulCheck(count, elemSize)
		if err != nil {
			return nil, err
		}
		itemOffset := *extra
		next, err := errs.AddCheck(itemOffset, total)
		if err != nil {
			return nil, err
		}
		if _, err := primitive.Fits(total, itemOffset, len(data)); err != nil {
			return nil, err
		}
		*extra = next

		reflexive := &Reflexive{elem: f.structDef, items: make([]*Struct, 0, count)}
		for i := 0; i < count; i++ {
			item, err := ReadStructFromTagFile(f.structDef, data, itemOffset, itemOffset+elemSize, extra)
			if err != nil {
				return nil, err
			}
			reflexive.items = append(reflexive.items, item)
			itemOffset += elemSize
		}
		return reflexive, nil

	case KindData:
		var desc primitive.DataDescriptor
		if err := desc.Read(e, data, at, structEnd); err != nil {
			return nil, err
		}
		size := int(desc.Size)
		start := *extra
		if _, err := primitive.Fits(size, start, len(data)); err != nil {
			return nil, err
		}
		*extra = start + size
		bytes := make([]byte, size)
		copy(bytes, data[start:start+size])
		return &Data{Bytes: bytes}, nil

	case KindReference:
		var desc primitive.TagReferenceDescriptor
		if err := desc.Read(e, data, at, structEnd); err != nil {
			return nil, err
		}
		group, err := primitive.TagGroupFromFourCC(desc.TagGroup)
		if err != nil {
			return nil, err
		}
		length := int(desc.PathLength)
		if length == 0 {
			return primitive.NullReference(group), nil
		}
		// length excludes the required trailing NUL.
		realLength, err := errs.AddCheck(length, 1)
		if err != nil {
			return nil, err
		}
		start := *extra
		end, err := primitive.Fits(realLength, start, len(data))
		if err != nil {
			return nil, err
		}
		if data[end-1] != 0 {
			return nil, errs.ErrInvalidTagPath
		}
		if !utf8.Valid(data[start : end-1]) {
			return nil, errs.ErrInvalidTagPath
		}
		*extra = end
		path, err := primitive.NewTagPath(string(data[start:end-1]), group)
		if err != nil {
			return nil, err
		}
		return primitive.SetReference(path), nil

	case KindEnum:
		raw, err := primitive.ReadU16(e, data, at, structEnd)
		if err != nil {
			return nil, err
		}
		return decodeEnum(f, raw)

	case KindBitfield:
		return readBitfield(f, e, data, at, structEnd)

	default:
		return readSimple(f.kind, e, data, at, structEnd)
	}
}

func decodeEnum(f *FieldDef, raw uint16) (uint16, error) {
	if f.ShiftedByOne {
		if raw == 0 {
			return 0, errs.ErrInvalidEnum
		}
		raw--
	}
	if int(raw) >= len(f.enumDef.Options) {
		return 0, errs.ErrInvalidEnum
	}
	return raw, nil
}

func encodeEnum(f *FieldDef, value uint16) uint16 {
	if f.ShiftedByOne {
		return value + 1
	}
	return value
}

func readBitfield(f *FieldDef, e endian.EndianEngine, data []byte, at, structEnd int) (uint32, error) {
	switch f.bitfieldDef.Width {
	case 8:
		v, err := primitive.ReadU8(e, data, at, structEnd)
		return uint32(v), err
	case 16:
		v, err := primitive.ReadU16(e, data, at, structEnd)
		return uint32(v), err
	default:
		return primitive.ReadU32(e, data, at, structEnd)
	}
}

func writeBitfield(f *FieldDef, e endian.EndianEngine, value uint32, data []byte, at, structEnd int) {
	switch f.bitfieldDef.Width {
	case 8:
		primitive.WriteU8(e, uint8(value), data, at, structEnd)
	case 16:
		primitive.WriteU16(e, uint16(value), data, at, structEnd)
	default:
		primitive.WriteU32(e, value, data, at, structEnd)
	}
}

func readSimple(kind FieldKind, e endian.EndianEngine, data []byte, at, structEnd int) (any, error) {
	switch kind {
	case KindU8:
		return primitive.ReadU8(e, data, at, structEnd)
	case KindI8:
		return primitive.ReadI8(e, data, at, structEnd)
	case KindU16:
		return primitive.ReadU16(e, data, at, structEnd)
	case KindI16:
		return primitive.ReadI16(e, data, at, structEnd)
	case KindU32:
		return primitive.ReadU32(e, data, at, structEnd)
	case KindI32:
		return primitive.ReadI32(e, data, at, structEnd)
	case KindF32:
		return primitive.ReadF32(e, data, at, structEnd)
	case KindIndex:
		return primitive.ReadU16(e, data, at, structEnd)
	case KindAngle:
		var v primitive.Angle
		err := v.Read(e, data, at, structEnd)
		return v, err
	case KindVector2D:
		var v primitive.Vector2D
		err := v.Read(e, data, at, structEnd)
		return v, err
	case KindVector3D:
		var v primitive.Vector3D
		err := v.Read(e, data, at, structEnd)
		return v, err
	case KindEuler2D:
		var v primitive.Euler2D
		err := v.Read(e, data, at, structEnd)
		return v, err
	case KindEuler3D:
		var v primitive.Euler3D
		err := v.Read(e, data, at, structEnd)
		return v, err
	case KindPlane2D:
		var v primitive.Plane2D
		err := v.Read(e, data, at, structEnd)
		return v, err
	case KindPlane3D:
		var v primitive.Plane3D
		err := v.Read(e, data, at, structEnd)
		return v, err
	case KindQuaternion:
		var v primitive.Quaternion
		err := v.Read(e, data, at, structEnd)
		return v, err
	case KindMatrix3x3:
		var v primitive.Matrix3x3
		err := v.Read(e, data, at, structEnd)
		return v, err
	case KindColorARGBFloat:
		var v primitive.ColorARGBFloat
		err := v.Read(e, data, at, structEnd)
		return v, err
	case KindColorRGBFloat:
		var v primitive.ColorRGBFloat
		err := v.Read(e, data, at, structEnd)
		return v, err
	case KindColorARGBInt:
		var v primitive.ColorARGBInt
		err := v.Read(e, data, at, structEnd)
		return v, err
	case KindString32:
		var v primitive.String32
		err := v.Read(e, data, at, structEnd)
		return v, err
	case KindID:
		var v primitive.ID
		err := v.Read(e, data, at, structEnd)
		return v, err
	case KindTagGroup:
		var v primitive.TagGroup
		err := v.Read(e, data, at, structEnd)
		return v, err
	case KindAddress:
		var v primitive.Address
		err := v.Read(e, data, at, structEnd)
		return v, err
	default:
		return nil, errs.TagParseFailuref("unhandled simple kind %d", kind)
	}
}

func writeSimple(kind FieldKind, e endian.EndianEngine, value any, data []byte, at, structEnd int) {
	switch kind {
	case KindU8:
		primitive.WriteU8(e, value.(uint8), data, at, structEnd)
	case KindI8:
		primitive.WriteI8(e, value.(int8), data, at, structEnd)
	case KindU16, KindIndex:
		primitive.WriteU16(e, value.(uint16), data, at, structEnd)
	case KindI16:
		primitive.WriteI16(e, value.(int16), data, at, structEnd)
	case KindU32:
		primitive.WriteU32(e, value.(uint32), data, at, structEnd)
	case KindI32:
		primitive.WriteI32(e, value.(int32), data, at, structEnd)
	case KindF32:
		primitive.WriteF32(e, value.(float32), data, at, structEnd)
	case KindAngle:
		value.(primitive.Angle).Write(e, data, at, structEnd)
	case KindVector2D:
		value.(primitive.Vector2D).Write(e, data, at, structEnd)
	case KindVector3D:
		value.(primitive.Vector3D).Write(e, data, at, structEnd)
	case KindEuler2D:
		value.(primitive.Euler2D).Write(e, data, at, structEnd)
	case KindEuler3D:
		value.(primitive.Euler3D).Write(e, data, at, structEnd)
	case KindPlane2D:
		value.(primitive.Plane2D).Write(e, data, at, structEnd)
	case KindPlane3D:
		value.(primitive.Plane3D).Write(e, data, at, structEnd)
	case KindQuaternion:
		value.(primitive.Quaternion).Write(e, data, at, structEnd)
	case KindMatrix3x3:
		value.(primitive.Matrix3x3).Write(e, data, at, structEnd)
	case KindColorARGBFloat:
		value.(primitive.ColorARGBFloat).Write(e, data, at, structEnd)
	case KindColorRGBFloat:
		value.(primitive.ColorRGBFloat).Write(e, data, at, structEnd)
	case KindColorARGBInt:
		value.(primitive.ColorARGBInt).Write(e, data, at, structEnd)
	case KindString32:
		s := value.(primitive.String32)
		s.Write(e, data, at, structEnd)
	case KindID:
		value.(primitive.ID).Write(e, data, at, structEnd)
	case KindTagGroup:
		value.(primitive.TagGroup).Write(e, data, at, structEnd)
	case KindAddress:
		value.(primitive.Address).Write(e, data, at, structEnd)
	default:
		panic("unhandled simple kind")
	}
}

// WriteStructToTagFile serializes a struct into big-endian tag file form. The
// fixed layout must already be reserved in *data at [at, structEnd); variable
// payloads are appended to *data in depth-first field order.
func WriteStructToTagFile(s *Struct, data *[]byte, at, structEnd int) error {
	offset := at
	for i, f := range s.def.Fields {
		if err := writeFieldToTagFile(f, s.values[i], data, offset, structEnd); err != nil {
			return err
		}
		offset += f.byteSize()
	}
	return nil
}

func writeFieldToTagFile(f *FieldDef, value any, data *[]byte, at, structEnd int) error {
	count := f.elementCount()
	if count == 1 {
		return writeElementToTagFile(f, value, data, at, structEnd)
	}
	elements := value.([]any)
	size := f.elementSize()
	for i, element := range elements {
		if err := writeElementToTagFile(f, element, data, at+i*size, structEnd); err != nil {
			return err
		}
	}
	return nil
}

func writeElementToTagFile(f *FieldDef, value any, data *[]byte, at, structEnd int) error {
	e := f.tagFileEngine()

	switch f.kind {
	case KindPad:
		pad := value.([]byte)
		copy((*data)[at:at+f.Size], pad)
		return nil

	case KindStruct:
		return WriteStructToTagFile(value.(*Struct), data, at, at+f.structDef.Size)

	case KindReflexive:
		reflexive := value.(*Reflexive)
		if len(reflexive.items) > primitive.MaxArrayLength {
			return errs.ErrArrayLimitExceeded
		}
		desc := primitive.ReflexiveDescriptor{Count: uint32(len(reflexive.items))}
		desc.Write(e, *data, at, structEnd)

		elemSize := f.structDef.Size
		writeOffset := len(*data)
		total, err := errs.MulCheck(len(reflexive.items), elemSize)
		if err != nil {
			return err
		}
		*data = append(*data, make([]byte, total)...)
		for _, item := range reflexive.items {
			if err := WriteStructToTagFile(item, data, writeOffset, writeOffset+elemSize); err != nil {
				return err
			}
			writeOffset += elemSize
		}
		return nil

	case KindData:
		blob := value.(*Data)
		if len(blob.Bytes) > primitive.MaxArrayLength {
			return errs.ErrArrayLimitExceeded
		}
		desc := primitive.DataDescriptor{Size: uint32(len(blob.Bytes))}
		desc.Write(e, *data, at, structEnd)
		*data = append(*data, blob.Bytes...)
		return nil

	case KindReference:
		reference := value.(primitive.TagReference)
		desc := primitive.TagReferenceDescriptor{TagID: primitive.NullID}
		if path, ok := reference.TagPath(); ok {
			if len(path.Path()) > primitive.MaxArrayLength {
				return errs.ErrArrayLimitExceeded
			}
			*data = append(*data, path.Path()...)
			*data = append(*data, 0)
			desc.TagGroup = path.Group().FourCC()
			desc.PathLength = uint32(len(path.Path()))
		} else {
			desc.TagGroup = reference.Group().FourCC()
		}
		desc.Write(e, *data, at, structEnd)
		return nil

	case KindEnum:
		primitive.WriteU16(e, encodeEnum(f, value.(uint16)), *data, at, structEnd)
		return nil

	case KindBitfield:
		writeBitfield(f, e, value.(uint32), *data, at, structEnd)
		return nil

	default:
		writeSimple(f.kind, e, value, *data, at, structEnd)
		return nil
	}
}

// ReadStructFromMap parses a struct from a cache image. Addresses stored in
// descriptors are absolute within the given domain; the fixed layout and all
// payloads are little-endian.
func ReadStructFromMap(def *StructDef, m primitive.Map, address int, domain primitive.Domain) (*Struct, error) {
	data, ok := m.DataAtAddress(address, domain, def.Size)
	if !ok {
		return nil, errs.MapDataOutOfBoundsf("cannot read 0x%08X[0x%04X] from %v", address, def.Size, domain)
	}

	e := endian.GetLittleEndianEngine()
	s := &Struct{def: def, values: make([]any, len(def.Fields))}
	offset := 0
	for i, f := range def.Fields {
		value, err := readFieldFromMap(f, e, data, offset, m, domain)
		if err != nil {
			return nil, err
		}
		s.values[i] = value
		offset += f.byteSize()
	}
	return s, nil
}

func readFieldFromMap(f *FieldDef, e endian.EndianEngine, data []byte, at int, m primitive.Map, domain primitive.Domain) (any, error) {
	count := f.elementCount()
	if count == 1 {
		return readElementFromMap(f, e, data, at, m, domain)
	}
	elements := make([]any, count)
	size := f.elementSize()
	for i := range elements {
		value, err := readElementFromMap(f, e, data, at+i*size, m, domain)
		if err != nil {
			return nil, err
		}
		elements[i] = value
	}
	return elements, nil
}

func readElementFromMap(f *FieldDef, e endian.EndianEngine, data []byte, at int, m primitive.Map, domain primitive.Domain) (any, error) {
	structEnd := len(data)

	switch f.kind {
	case KindPad:
		pad := make([]byte, f.Size)
		if err := primitive.ReadPadding(f.Size, data, at, structEnd); err != nil {
			return nil, err
		}
		copy(pad, data[at:at+f.Size])
		return pad, nil

	case KindStruct:
		inner := &Struct{def: f.structDef, values: make([]any, len(f.structDef.Fields))}
		offset := at
		for i, innerField := range f.structDef.Fields {
			value, err := readFieldFromMap(innerField, e, data, offset, m, domain)
			if err != nil {
				return nil, err
			}
			inner.values[i] = value
			offset += innerField.byteSize()
		}
		return inner, nil

	case KindReflexive:
		var desc primitive.ReflexiveDescriptor
		if err := desc.Read(e, data, at, structEnd); err != nil {
			return nil, err
		}
		count := int(desc.Count)
		if f.Limit > 0 && count > f.Limit {
			return nil, errs.ErrArrayLimitExceeded
		}
		if f.NonCached {
			// The payload lives outside tag space (e.g. model vertex
			// regions); the per-group fixups repopulate it.
			return &Reflexive{elem: f.structDef}, nil
		}
		reflexive := &Reflexive{elem: f.structDef, items: make([]*Struct, 0, count)}
		elemAddress := int(desc.Address)
		for i := 0; i < count; i++ {
			item, err := ReadStructFromMap(f.structDef, m, elemAddress, domain)
			if err != nil {
				return nil, err
			}
			reflexive.items = append(reflexive.items, item)
			elemAddress += f.structDef.Size
		}
		return reflexive, nil

	case KindData:
		var desc primitive.DataDescriptor
		if err := desc.Read(e, data, at, structEnd); err != nil {
			return nil, err
		}
		blob := &Data{External: desc.External, FileOffset: desc.FileOffset, Size: int(desc.Size)}
		size := int(desc.Size)
		if size > 0 && desc.External == 0 && !f.NonCached {
			bytes, ok := m.DataAtAddress(int(desc.Address), domain, size)
			if !ok {
				return nil, errs.MapDataOutOfBoundsf("cannot read data blob 0x%08X[0x%04X] from %v", desc.Address, size, domain)
			}
			blob.Bytes = make([]byte, size)
			copy(blob.Bytes, bytes)
		}
		// Externally stored and non-cached payloads are resolved later by the
		// per-group extraction fixups; Size keeps the descriptor observable.
		return blob, nil

	case KindReference:
		var desc primitive.TagReferenceDescriptor
		if err := desc.Read(e, data, at, structEnd); err != nil {
			return nil, err
		}
		group, err := primitive.TagGroupFromFourCC(desc.TagGroup)
		if err != nil {
			return nil, err
		}
		if path, ok := m.TagPathForID(desc.TagID); ok {
			return primitive.SetReference(path), nil
		}
		if desc.PathAddress != 0 {
			if raw, ok := m.CStringAtAddress(int(desc.PathAddress), domain); ok && raw != "" {
				path, err := primitive.NewTagPath(raw, group)
				if err != nil {
					return nil, err
				}
				return primitive.SetReference(path), nil
			}
		}
		return primitive.NullReference(group), nil

	case KindEnum:
		raw, err := primitive.ReadU16(e, data, at, structEnd)
		if err != nil {
			return nil, err
		}
		return decodeEnum(f, raw)

	case KindBitfield:
		return readBitfield(f, e, data, at, structEnd)

	default:
		return readSimple(f.kind, e, data, at, structEnd)
	}
}
