// Copyright 2024 The gojvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classfile

import "encoding/json"

// Constant-pool tag wire values, spec.md §6.
const (
	TagUtf8               uint8 = 1
	TagInteger            uint8 = 3
	TagFloat              uint8 = 4
	TagLong               uint8 = 5
	TagDouble             uint8 = 6
	TagClass              uint8 = 7
	TagString             uint8 = 8
	TagFieldref           uint8 = 9
	TagMethodref          uint8 = 10
	TagInterfaceMethodref uint8 = 11
	TagNameAndType        uint8 = 12
	TagMethodHandle       uint8 = 15
	TagMethodType         uint8 = 16
	TagInvokeDynamic      uint8 = 18
	TagModule             uint8 = 19
	TagPackage            uint8 = 20
)

// Method handle reference_kind values, spec.md §6.
const (
	RefGetField         uint8 = 1
	RefGetStatic        uint8 = 2
	RefPutField         uint8 = 3
	RefPutStatic        uint8 = 4
	RefInvokeVirtual    uint8 = 5
	RefInvokeStatic     uint8 = 6
	RefInvokeSpecial    uint8 = 7
	RefNewInvokeSpecial uint8 = 8
	RefInvokeInterface  uint8 = 9
)

// ConstantPoolEntry is the tagged-union interface every decoded
// constant-pool structure satisfies (spec.md §3's constant pool table,
// §9's "tagged-union payloads" design note). One concrete type per tag,
// grounded on other_examples/daimatz-gojvm's constant_pool.go decoder.
type ConstantPoolEntry interface {
	Tag() uint8
}

type ConstantUtf8 struct{ Value string }
type ConstantInteger struct{ Value int32 }
type ConstantFloat struct{ Value float32 }
type ConstantLong struct{ Value int64 }
type ConstantDouble struct{ Value float64 }
type ConstantClass struct{ NameIndex uint16 }
type ConstantString struct{ StringIndex uint16 }
type ConstantFieldref struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}
type ConstantMethodref struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}
type ConstantInterfaceMethodref struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}
type ConstantNameAndType struct {
	NameIndex       uint16
	DescriptorIndex uint16
}
type ConstantMethodHandle struct {
	ReferenceKind  uint8
	ReferenceIndex uint16
}
type ConstantMethodType struct{ DescriptorIndex uint16 }
type ConstantInvokeDynamic struct {
	BootstrapMethodAttrIndex uint16
	NameAndTypeIndex         uint16
}
type ConstantModule struct{ NameIndex uint16 }
type ConstantPackage struct{ NameIndex uint16 }

func (ConstantUtf8) Tag() uint8               { return TagUtf8 }
func (ConstantInteger) Tag() uint8            { return TagInteger }
func (ConstantFloat) Tag() uint8              { return TagFloat }
func (ConstantLong) Tag() uint8               { return TagLong }
func (ConstantDouble) Tag() uint8             { return TagDouble }
func (ConstantClass) Tag() uint8              { return TagClass }
func (ConstantString) Tag() uint8             { return TagString }
func (ConstantFieldref) Tag() uint8           { return TagFieldref }
func (ConstantMethodref) Tag() uint8          { return TagMethodref }
func (ConstantInterfaceMethodref) Tag() uint8 { return TagInterfaceMethodref }
func (ConstantNameAndType) Tag() uint8        { return TagNameAndType }
func (ConstantMethodHandle) Tag() uint8       { return TagMethodHandle }
func (ConstantMethodType) Tag() uint8         { return TagMethodType }
func (ConstantInvokeDynamic) Tag() uint8      { return TagInvokeDynamic }
func (ConstantModule) Tag() uint8             { return TagModule }
func (ConstantPackage) Tag() uint8            { return TagPackage }

// ConstantPool is the 1-indexed, possibly-sparse (long/double continuation
// slots are nil) table of decoded entries.
type ConstantPool struct {
	entries  []ConstantPoolEntry // index 0 and continuation slots are nil
	metadata *cpMetadata
}

// Count returns constant_pool_count.
func (cp *ConstantPool) Count() uint16 {
	return cp.metadata.count()
}

// At returns the entry at index, or nil if the slot is empty/continuation.
func (cp *ConstantPool) At(index uint16) ConstantPoolEntry {
	if int(index) >= len(cp.entries) {
		return nil
	}
	return cp.entries[index]
}

// MarshalJSON renders the pool as a 1-indexed array of entries (index 0 and
// long/double continuation slots render as null), since the internal
// entries/metadata fields are unexported.
func (cp *ConstantPool) MarshalJSON() ([]byte, error) {
	return json.Marshal(cp.entries)
}

// parseConstantPool reads constant_pool_count and then constant_pool_count-1
// entries, dispatching per tag (spec.md §4.2). Long/double entries occupy
// two slots; the decoder advances i by 2 and leaves the continuation slot
// nil in both the entries array and the metadata sidecar.
func parseConstantPool(r *byteReader, ctx *contextStack) (*ConstantPool, error) {
	count, err := r.u2("constant_pool_count")
	if err != nil {
		return nil, err
	}
	if count < 1 {
		return nil, r.fail("constant_pool_count", ErrConstantPoolCount)
	}

	cp := &ConstantPool{
		entries:  make([]ConstantPoolEntry, count),
		metadata: newCPMetadata(count),
	}

	for i := uint16(1); i < count; i++ {
		ctx.push("constant_pool", int(i))
		tag, err := r.u1("tag")
		if err != nil {
			ctx.pop()
			return nil, err
		}

		switch tag {
		case TagUtf8:
			s, err := r.utf8String("bytes")
			if err != nil {
				ctx.pop()
				return nil, err
			}
			cp.entries[i] = ConstantUtf8{Value: s}
			cp.metadata.putUtf8(i, s)

		case TagInteger:
			v, err := r.s4("bytes")
			if err != nil {
				ctx.pop()
				return nil, err
			}
			cp.entries[i] = ConstantInteger{Value: v}
			cp.metadata.putTag(i, tag)

		case TagFloat:
			v, err := r.float32v("bytes")
			if err != nil {
				ctx.pop()
				return nil, err
			}
			cp.entries[i] = ConstantFloat{Value: v}
			cp.metadata.putTag(i, tag)

		case TagLong:
			v, err := r.long("bytes")
			if err != nil {
				ctx.pop()
				return nil, err
			}
			cp.entries[i] = ConstantLong{Value: v}
			cp.metadata.putTag(i, tag)
			i++ // occupies the next slot too

		case TagDouble:
			v, err := r.float64v("bytes")
			if err != nil {
				ctx.pop()
				return nil, err
			}
			cp.entries[i] = ConstantDouble{Value: v}
			cp.metadata.putTag(i, tag)
			i++ // occupies the next slot too

		case TagClass:
			nameIndex, err := readCPRef(r, count, "name_index")
			if err != nil {
				ctx.pop()
				return nil, err
			}
			cp.entries[i] = ConstantClass{NameIndex: nameIndex}
			cp.metadata.putTag(i, tag)

		case TagString:
			strIndex, err := readCPRef(r, count, "string_index")
			if err != nil {
				ctx.pop()
				return nil, err
			}
			cp.entries[i] = ConstantString{StringIndex: strIndex}
			cp.metadata.putTag(i, tag)

		case TagFieldref, TagMethodref, TagInterfaceMethodref:
			classIndex, err := readCPRef(r, count, "class_index")
			if err != nil {
				ctx.pop()
				return nil, err
			}
			natIndex, err := readCPRef(r, count, "name_and_type_index")
			if err != nil {
				ctx.pop()
				return nil, err
			}
			switch tag {
			case TagFieldref:
				cp.entries[i] = ConstantFieldref{ClassIndex: classIndex, NameAndTypeIndex: natIndex}
			case TagMethodref:
				cp.entries[i] = ConstantMethodref{ClassIndex: classIndex, NameAndTypeIndex: natIndex}
			case TagInterfaceMethodref:
				cp.entries[i] = ConstantInterfaceMethodref{ClassIndex: classIndex, NameAndTypeIndex: natIndex}
			}
			cp.metadata.putTag(i, tag)

		case TagNameAndType:
			nameIndex, err := readCPRef(r, count, "name_index")
			if err != nil {
				ctx.pop()
				return nil, err
			}
			descIndex, err := readCPRef(r, count, "descriptor_index")
			if err != nil {
				ctx.pop()
				return nil, err
			}
			cp.entries[i] = ConstantNameAndType{NameIndex: nameIndex, DescriptorIndex: descIndex}
			cp.metadata.putTag(i, tag)

		case TagMethodHandle:
			kind, err := r.u1("reference_kind")
			if err != nil {
				ctx.pop()
				return nil, err
			}
			if kind < RefGetField || kind > RefInvokeInterface {
				ctx.pop()
				return nil, r.fail("reference_kind", ErrUnknownMethodHandleKind)
			}
			refIndex, err := readCPRef(r, count, "reference_index")
			if err != nil {
				ctx.pop()
				return nil, err
			}
			cp.entries[i] = ConstantMethodHandle{ReferenceKind: kind, ReferenceIndex: refIndex}
			cp.metadata.putTag(i, tag)

		case TagMethodType:
			descIndex, err := readCPRef(r, count, "descriptor_index")
			if err != nil {
				ctx.pop()
				return nil, err
			}
			cp.entries[i] = ConstantMethodType{DescriptorIndex: descIndex}
			cp.metadata.putTag(i, tag)

		case TagInvokeDynamic:
			bootstrapIndex, err := r.u2("bootstrap_method_attr_index")
			if err != nil {
				ctx.pop()
				return nil, err
			}
			natIndex, err := readCPRef(r, count, "name_and_type_index")
			if err != nil {
				ctx.pop()
				return nil, err
			}
			cp.entries[i] = ConstantInvokeDynamic{BootstrapMethodAttrIndex: bootstrapIndex, NameAndTypeIndex: natIndex}
			cp.metadata.putTag(i, tag)

		case TagModule:
			nameIndex, err := readCPRef(r, count, "name_index")
			if err != nil {
				ctx.pop()
				return nil, err
			}
			cp.entries[i] = ConstantModule{NameIndex: nameIndex}
			cp.metadata.putTag(i, tag)

		case TagPackage:
			nameIndex, err := readCPRef(r, count, "name_index")
			if err != nil {
				ctx.pop()
				return nil, err
			}
			cp.entries[i] = ConstantPackage{NameIndex: nameIndex}
			cp.metadata.putTag(i, tag)

		default:
			ctx.pop()
			return nil, r.fail("tag", ErrUnknownTag)
		}

		ctx.pop()
	}

	return cp, nil
}

// readCPRef reads a u2 internal constant-pool reference field and validates
// it is within [1, count) per spec.md §4.2; forward references are legal
// and are not further validated until the referenced entry is consulted.
func readCPRef(r *byteReader, count uint16, field string) (uint16, error) {
	idx, err := r.u2(field)
	if err != nil {
		return 0, err
	}
	if idx < 1 || idx >= count {
		return 0, r.fail(field, ErrConstantPoolIndexRange)
	}
	return idx, nil
}
