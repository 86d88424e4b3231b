// Copyright 2024 The gojvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classfile

// ConstPoolIndex is a 1-based index into a ClassFile's constant pool. The
// dedicated type (rather than a bare uint16) exists so call sites are
// self-documenting about which u2 fields are indices, mirroring
// other_examples/I321172-jclass's ConstPoolIndex.
type ConstPoolIndex uint16

// ClassFile is the fully parsed, immutable document the orchestrator
// produces: magic, version, constant pool, access flags, this/super class,
// interfaces, fields, methods, and attributes, in wire order (spec.md §3).
type ClassFile struct {
	Magic        uint32
	Version      ClassFileVersion
	ConstantPool *ConstantPool
	AccessFlags  uint16
	ThisClass    ConstPoolIndex
	SuperClass   ConstPoolIndex
	Interfaces   []ConstPoolIndex
	Fields       []*Member
	Methods      []*Member
	Attributes   []*Attribute
}

// Member is a field_info or method_info structure: an access-flags field,
// name and descriptor indices, and nested attributes (spec.md §3).
type Member struct {
	AccessFlags     uint16
	NameIndex       ConstPoolIndex
	DescriptorIndex ConstPoolIndex
	Attributes      []*Attribute
}

// Attribute is a named, length-prefixed payload (spec.md §3). Type is
// UnknownAttr for any name not in the predefined table, in which case
// Payload is a RawAttribute holding the raw bytes.
type Attribute struct {
	NameIndex ConstPoolIndex
	Type      AttributeType
	Length    uint32
	Payload   interface{}
}

// RawAttribute is the payload for an attribute whose name the metadata
// engine did not recognize as a predefined attribute name (spec.md §3).
type RawAttribute struct {
	Bytes []byte
}
