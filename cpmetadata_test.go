// Copyright 2024 The gojvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classfile

import (
	"errors"
	"testing"
)

func TestCPMetadataTagAt(t *testing.T) {
	m := newCPMetadata(4)
	m.putTag(1, TagInteger)
	m.putUtf8(2, "not a predefined name")
	m.putTag(3, TagLong)
	// count is 4, so index 3 is the last slot; the LONG's continuation slot
	// would be index 4, which is outside the pool.

	tag, err := m.tagAt(1)
	if err != nil || tag != TagInteger {
		t.Fatalf("tagAt(1) = %v, %v; want TagInteger, nil", tag, err)
	}
	tag, err = m.tagAt(2)
	if err != nil || tag != TagUtf8 {
		t.Fatalf("tagAt(2) = %v, %v; want TagUtf8, nil", tag, err)
	}
	if _, err := m.tagAt(0); !errors.Is(err, ErrConstantPoolIndexRange) {
		t.Fatalf("tagAt(0) err = %v; want ErrConstantPoolIndexRange", err)
	}
	if _, err := m.tagAt(99); !errors.Is(err, ErrConstantPoolIndexRange) {
		t.Fatalf("tagAt(99) err = %v; want ErrConstantPoolIndexRange", err)
	}
}

func TestCPMetadataSecondSlotOfLongIsEmpty(t *testing.T) {
	m := newCPMetadata(3)
	m.putTag(1, TagLong)
	// Slot 2 is the continuation slot of the LONG at index 1; parseConstantPool
	// never calls put* for it, so it stays at the zero value.
	if _, err := m.tagAt(2); !errors.Is(err, ErrConstantPoolSecondSlot) {
		t.Fatalf("tagAt(2) err = %v; want ErrConstantPoolSecondSlot", err)
	}
}

func TestCPMetadataRequireTag(t *testing.T) {
	m := newCPMetadata(2)
	m.putTag(1, TagClass)
	if err := m.requireTag(1, TagClass); err != nil {
		t.Fatalf("requireTag(Class) = %v; want nil", err)
	}
	if err := m.requireTag(1, TagUtf8); !errors.Is(err, ErrWrongTag) {
		t.Fatalf("requireTag(Utf8) = %v; want ErrWrongTag", err)
	}
}

func TestCPMetadataAttributeTypeAt(t *testing.T) {
	m := newCPMetadata(4)
	m.putUtf8(1, "Code")
	m.putUtf8(2, "Signature")
	m.putUtf8(3, "not a known name")
	m.putTag(0, TagUtf8) // slot 0 is written here but never queried below

	at, err := m.attributeTypeAt(1, ContextMethod)
	if err != nil || at != AttrCode {
		t.Fatalf("attributeTypeAt(Code, Method) = %v, %v; want AttrCode, nil", at, err)
	}

	at, err = m.attributeTypeAt(1, ContextField)
	if err != nil || at != UnknownAttr {
		t.Fatalf("attributeTypeAt(Code, Field) = %v, %v; want UnknownAttr, nil", at, err)
	}

	at, err = m.attributeTypeAt(2, ContextField)
	if err != nil || at != AttrSignature {
		t.Fatalf("attributeTypeAt(Signature, Field) = %v, %v; want AttrSignature, nil", at, err)
	}

	at, err = m.attributeTypeAt(3, ContextAny)
	if err != nil || at != UnknownAttr {
		t.Fatalf("attributeTypeAt(unknown name) = %v, %v; want UnknownAttr, nil", at, err)
	}
}

func TestCPMetadataAttributeTypeAtWrongTag(t *testing.T) {
	m := newCPMetadata(2)
	m.putTag(1, TagInteger)
	if _, err := m.attributeTypeAt(1, ContextAny); !errors.Is(err, ErrWrongTag) {
		t.Fatalf("err = %v; want ErrWrongTag", err)
	}
}

func TestClassifyAttributeNameExhaustive(t *testing.T) {
	names := []string{
		"ConstantValue", "Code", "StackMapTable", "Exceptions", "InnerClasses",
		"EnclosingMethod", "Synthetic", "Signature", "SourceFile",
		"SourceDebugExtension", "LineNumberTable", "LocalVariableTable",
		"LocalVariableTypeTable", "Deprecated", "RuntimeVisibleAnnotations",
		"RuntimeInvisibleAnnotations", "RuntimeVisibleParameterAnnotations",
		"RuntimeInvisibleParameterAnnotations", "RuntimeVisibleTypeAnnotations",
		"RuntimeInvisibleTypeAnnotations", "AnnotationDefault",
		"BootstrapMethods", "MethodParameters", "Module", "ModulePackages",
		"ModuleMainClass",
	}
	for _, name := range names {
		if _, ok := classifyAttributeName(name); !ok {
			t.Errorf("classifyAttributeName(%q) not found", name)
		}
	}
	if _, ok := classifyAttributeName("TotallyMadeUp"); ok {
		t.Errorf("classifyAttributeName(TotallyMadeUp) unexpectedly found")
	}
}
