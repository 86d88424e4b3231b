// Copyright 2024 The gojvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classfile

import "fmt"

// AttributeType enumerates the predefined attribute names the metadata
// engine can recognize a Utf8 entry as (spec.md §4.3, §4.5). UnknownAttr is
// returned for any Utf8 string that is not one of these, or whose legal
// context mask does not intersect the caller's.
type AttributeType int

const (
	UnknownAttr AttributeType = iota
	AttrConstantValue
	AttrCode
	AttrStackMapTable
	AttrExceptions
	AttrInnerClasses
	AttrEnclosingMethod
	AttrSynthetic
	AttrSignature
	AttrSourceFile
	AttrSourceDebugExtension
	AttrLineNumberTable
	AttrLocalVariableTable
	AttrLocalVariableTypeTable
	AttrDeprecated
	AttrRuntimeVisibleAnnotations
	AttrRuntimeInvisibleAnnotations
	AttrRuntimeVisibleParameterAnnotations
	AttrRuntimeInvisibleParameterAnnotations
	AttrRuntimeVisibleTypeAnnotations
	AttrRuntimeInvisibleTypeAnnotations
	AttrAnnotationDefault
	AttrBootstrapMethods
	AttrMethodParameters
	AttrModule
	AttrModulePackages
	AttrModuleMainClass
)

// AttributeContext is a bitmask of the entities an attribute may legally
// appear on (spec.md §3, §4.3's "bitmask-intersection contract" decision,
// spec.md §9 open question 3).
type AttributeContext uint8

const (
	ContextClassFile AttributeContext = 1 << iota
	ContextField
	ContextMethod
	ContextCode
	ContextRecordComponent

	ContextAny = ContextClassFile | ContextField | ContextMethod | ContextCode | ContextRecordComponent
)

type predefinedAttribute struct {
	name AttributeType
	ctx  AttributeContext
}

// predefinedAttributeNames maps the known attribute name strings to their
// type and legal-context mask. Exhaustive per spec.md §4.3.
var predefinedAttributeNames = map[string]predefinedAttribute{
	"ConstantValue":                         {AttrConstantValue, ContextField},
	"Code":                                  {AttrCode, ContextMethod},
	"StackMapTable":                         {AttrStackMapTable, ContextCode},
	"Exceptions":                            {AttrExceptions, ContextMethod},
	"InnerClasses":                          {AttrInnerClasses, ContextClassFile},
	"EnclosingMethod":                       {AttrEnclosingMethod, ContextClassFile},
	"Synthetic":                             {AttrSynthetic, ContextAny},
	"Signature":                             {AttrSignature, ContextClassFile | ContextField | ContextMethod | ContextRecordComponent},
	"SourceFile":                            {AttrSourceFile, ContextClassFile},
	"SourceDebugExtension":                  {AttrSourceDebugExtension, ContextClassFile},
	"LineNumberTable":                       {AttrLineNumberTable, ContextCode},
	"LocalVariableTable":                    {AttrLocalVariableTable, ContextCode},
	"LocalVariableTypeTable":                {AttrLocalVariableTypeTable, ContextCode},
	"Deprecated":                            {AttrDeprecated, ContextAny},
	"RuntimeVisibleAnnotations":             {AttrRuntimeVisibleAnnotations, ContextClassFile | ContextField | ContextMethod | ContextRecordComponent},
	"RuntimeInvisibleAnnotations":           {AttrRuntimeInvisibleAnnotations, ContextClassFile | ContextField | ContextMethod | ContextRecordComponent},
	"RuntimeVisibleParameterAnnotations":    {AttrRuntimeVisibleParameterAnnotations, ContextMethod},
	"RuntimeInvisibleParameterAnnotations":  {AttrRuntimeInvisibleParameterAnnotations, ContextMethod},
	"RuntimeVisibleTypeAnnotations":         {AttrRuntimeVisibleTypeAnnotations, ContextClassFile | ContextField | ContextMethod | ContextCode | ContextRecordComponent},
	"RuntimeInvisibleTypeAnnotations":       {AttrRuntimeInvisibleTypeAnnotations, ContextClassFile | ContextField | ContextMethod | ContextCode | ContextRecordComponent},
	"AnnotationDefault":                     {AttrAnnotationDefault, ContextMethod},
	"BootstrapMethods":                      {AttrBootstrapMethods, ContextClassFile},
	"MethodParameters":                      {AttrMethodParameters, ContextMethod},
	"Module":                                {AttrModule, ContextClassFile},
	"ModulePackages":                        {AttrModulePackages, ContextClassFile},
	"ModuleMainClass":                       {AttrModuleMainClass, ContextClassFile},
}

// classifyAttributeName looks up s in the predefined-attribute-name table.
// Dispatch is first keyed by string length (spec.md §4.3's "dispatched on
// string length modulo 64" design, simplified here to a direct length-keyed
// map of maps, which gives the same O(1)-by-length behavior with a simpler,
// equally exhaustive implementation than a hand-written switch per length).
var attributeNamesByLength = buildAttributeNamesByLength()

func buildAttributeNamesByLength() map[int]map[string]predefinedAttribute {
	out := make(map[int]map[string]predefinedAttribute)
	for name, info := range predefinedAttributeNames {
		bucket := out[len(name)]
		if bucket == nil {
			bucket = make(map[string]predefinedAttribute)
			out[len(name)] = bucket
		}
		bucket[name] = info
		attributeContextByType[info.name] = info.ctx
	}
	return out
}

// attributeContextByType is the reverse index from attribute type to its
// legal-context mask, built alongside attributeNamesByLength.
var attributeContextByType = make(map[AttributeType]AttributeContext)

func classifyAttributeName(s string) (predefinedAttribute, bool) {
	bucket := attributeNamesByLength[len(s)]
	if bucket == nil {
		return predefinedAttribute{}, false
	}
	info, ok := bucket[s]
	return info, ok
}

// cpMetadata is the per-slot sidecar index built during constant-pool
// parsing (spec.md §3, §4.3): one signed byte per index encoding "empty"
// (0), a tag ordinal (negative), or a predefined-attribute-type ordinal
// (positive), so tag lookups and attribute-name classification never touch
// the full decoded entry.
type cpMetadata struct {
	slots []int8 // index 0 unused
}

func newCPMetadata(count uint16) *cpMetadata {
	return &cpMetadata{slots: make([]int8, count)}
}

func (m *cpMetadata) count() uint16 {
	return uint16(len(m.slots))
}

// putTag records a non-Utf8 entry's tag at index.
func (m *cpMetadata) putTag(index uint16, tag uint8) {
	m.slots[index] = -int8(tag + 1)
}

// putUtf8 records a Utf8 entry, classifying its decoded value against the
// predefined attribute-name table. Known names get their attribute-type
// ordinal (+1); anything else gets the "Utf8 but not a known attribute
// name" sentinel, which is the negative encoding of the Utf8 tag itself so
// tagAt still reports TagUtf8 for it.
func (m *cpMetadata) putUtf8(index uint16, s string) {
	if info, ok := classifyAttributeName(s); ok {
		m.slots[index] = int8(info.name) + 1
		return
	}
	m.putTag(index, TagUtf8)
}

// tagAt returns the tag stored at index, failing for empty slots,
// long/double continuation slots, and out-of-range indices.
func (m *cpMetadata) tagAt(index uint16) (uint8, error) {
	if index < 1 {
		return 0, fmt.Errorf("%w: index %d is less than 1", ErrConstantPoolIndexRange, index)
	}
	if int(index) >= len(m.slots) {
		return 0, fmt.Errorf("%w: index %d is not less than count %d", ErrConstantPoolIndexRange, index, len(m.slots))
	}
	v := m.slots[index]
	switch {
	case v == 0:
		return 0, fmt.Errorf("%w: index %d is empty (second slot of LONG or DOUBLE)", ErrConstantPoolSecondSlot, index)
	case v < 0:
		return uint8(-v - 1), nil
	default:
		// A positive slot is a classified Utf8 attribute name; its tag is
		// still Utf8.
		return TagUtf8, nil
	}
}

// requireTag fails with ErrWrongTag (naming the actually-held tag) unless
// the entry at index holds want.
func (m *cpMetadata) requireTag(index uint16, want uint8) error {
	got, err := m.tagAt(index)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("%w: wanted tag %d, found tag %d at index %d", ErrWrongTag, want, got, index)
	}
	return nil
}

// attributeTypeAt interprets the slot as a Utf8 entry intended as an
// attribute name. If the slot holds a known predefined attribute whose
// legal-context mask intersects ctxMask, that attribute type is returned;
// otherwise UnknownAttr. If the slot does not hold Utf8 at all, a typed
// error names the actually-held tag.
func (m *cpMetadata) attributeTypeAt(index uint16, ctxMask AttributeContext) (AttributeType, error) {
	tag, err := m.tagAt(index)
	if err != nil {
		return UnknownAttr, err
	}
	if tag != TagUtf8 {
		return UnknownAttr, fmt.Errorf("%w: attribute name index %d holds tag %d, not Utf8", ErrWrongTag, index, tag)
	}
	v := m.slots[index]
	if v <= 0 {
		// Classified as Utf8-but-not-a-known-name.
		return UnknownAttr, nil
	}
	name := AttributeType(v - 1)
	if attributeContextByType[name]&ctxMask == 0 {
		return UnknownAttr, nil
	}
	return name, nil
}
