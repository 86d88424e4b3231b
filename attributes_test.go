// Copyright 2024 The gojvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classfile

import (
	"errors"
	"testing"
)

func newTestState(cpCount uint16) *parseState {
	ctx := newContextStack(8)
	return &parseState{
		opts:      NewOptions(),
		cpCount:   cpCount,
		cpMeta:    newCPMetadata(cpCount),
		ctx:       ctx,
		bcScratch: newBytecodeScratch(),
	}
}

// utf8CPMeta builds a cpMetadata where each index in names holds its Utf8 name, pre-classified
// against the predefined attribute table, for attribute-name dispatch tests.
func utf8CPMeta(count uint16, names map[uint16]string) *cpMetadata {
	m := newCPMetadata(count)
	for idx, name := range names {
		m.putUtf8(idx, name)
	}
	return m
}

func TestParseOneAttributeSourceFile(t *testing.T) {
	st := newTestState(3)
	st.cpMeta = utf8CPMeta(3, map[uint16]string{1: "SourceFile"})

	// attribute_name_index=1, attribute_length=2, sourcefile_index=2
	data := []byte{0x00, 0x01, 0x00, 0x00, 0x00, 0x02, 0x00, 0x02}
	r := newTestReader(data)
	attr, err := parseOneAttribute(r, st, ContextClassFile)
	if err != nil {
		t.Fatalf("parseOneAttribute: %v", err)
	}
	if attr.Type != AttrSourceFile {
		t.Fatalf("Type = %v; want AttrSourceFile", attr.Type)
	}
	sf, ok := attr.Payload.(SourceFileAttribute)
	if !ok || sf.SourceFileIndex != 2 {
		t.Fatalf("Payload = %#v; want SourceFileAttribute{2}", attr.Payload)
	}
}

func TestParseOneAttributeWrongContextFallsBackToUnknown(t *testing.T) {
	st := newTestState(3)
	st.cpMeta = utf8CPMeta(3, map[uint16]string{1: "ConstantValue"}) // field-only

	// Declared in a method context, where ConstantValue isn't legal; the
	// bitmask-intersection contract falls back to UnknownAttr rather than
	// erroring, and the raw bytes are still captured.
	data := []byte{0x00, 0x01, 0x00, 0x00, 0x00, 0x02, 0xAB, 0xCD}
	r := newTestReader(data)
	attr, err := parseOneAttribute(r, st, ContextMethod)
	if err != nil {
		t.Fatalf("parseOneAttribute: %v", err)
	}
	if attr.Type != UnknownAttr {
		t.Fatalf("Type = %v; want UnknownAttr", attr.Type)
	}
	raw, ok := attr.Payload.(RawAttribute)
	if !ok || len(raw.Bytes) != 2 {
		t.Fatalf("Payload = %#v; want RawAttribute of length 2", attr.Payload)
	}
}

func TestParseOneAttributeLengthMismatch(t *testing.T) {
	st := newTestState(3)
	st.cpMeta = utf8CPMeta(3, map[uint16]string{1: "SourceFile"})

	// Declares length 4 but SourceFile's payload is only 2 bytes.
	data := []byte{0x00, 0x01, 0x00, 0x00, 0x00, 0x04, 0x00, 0x02, 0x00, 0x00}
	r := newTestReader(data)
	_, err := parseOneAttribute(r, st, ContextClassFile)
	if !errors.Is(err, ErrAttributeLengthMismatch) {
		t.Fatalf("err = %v; want ErrAttributeLengthMismatch", err)
	}
}

func TestReadCodeAttributeWiresBytecodeValidation(t *testing.T) {
	st := newTestState(2)
	// Code attribute body: max_stack=1, max_locals=1, code_length=1,
	// code=[return], exception_table_length=0, attributes_count=0.
	data := []byte{
		0x00, 0x01, // max_stack
		0x00, 0x01, // max_locals
		0x00, 0x00, 0x00, 0x01, // code_length
		0xb1,       // return
		0x00, 0x00, // exception_table_length
		0x00, 0x00, // attributes_count
	}
	r := newTestReader(data)
	payload, err := readCodeAttribute(r, st)
	if err != nil {
		t.Fatalf("readCodeAttribute: %v", err)
	}
	code, ok := payload.(*CodeAttribute)
	if !ok {
		t.Fatalf("payload type = %T; want *CodeAttribute", payload)
	}
	if code.MaxStack != 1 || code.MaxLocals != 1 || len(code.Code) != 1 {
		t.Fatalf("unexpected CodeAttribute: %#v", code)
	}
}

func TestReadCodeAttributePropagatesBytecodeError(t *testing.T) {
	st := newTestState(2)
	data := []byte{
		0x00, 0x01,
		0x00, 0x01,
		0x00, 0x00, 0x00, 0x01,
		0xcb, // unassigned opcode
		0x00, 0x00,
		0x00, 0x00,
	}
	r := newTestReader(data)
	_, err := readCodeAttribute(r, st)
	if !errors.Is(err, ErrUnassignedOpcode) {
		t.Fatalf("err = %v; want ErrUnassignedOpcode", err)
	}
}

func TestReadInnerClasses(t *testing.T) {
	st := newTestState(5)
	data := []byte{
		0x00, 0x01, // number_of_classes
		0x00, 0x01, // inner_class_info_index
		0x00, 0x02, // outer_class_info_index
		0x00, 0x00, // inner_name_index (anonymous)
		0x00, 0x01, // access_flags = public
	}
	r := newTestReader(data)
	payload, err := readInnerClasses(r, st)
	if err != nil {
		t.Fatalf("readInnerClasses: %v", err)
	}
	ic := payload.(InnerClassesAttribute)
	if len(ic.Classes) != 1 || ic.Classes[0].InnerClassInfoIndex != 1 {
		t.Fatalf("unexpected InnerClassesAttribute: %#v", ic)
	}
}

func TestReadBootstrapMethods(t *testing.T) {
	st := newTestState(5)
	data := []byte{
		0x00, 0x01, // num_bootstrap_methods
		0x00, 0x01, // bootstrap_method_ref
		0x00, 0x01, // num_bootstrap_arguments
		0x00, 0x02, // arguments[0]
	}
	r := newTestReader(data)
	payload, err := readBootstrapMethods(r, st)
	if err != nil {
		t.Fatalf("readBootstrapMethods: %v", err)
	}
	bm := payload.(BootstrapMethodsAttribute)
	if len(bm.Methods) != 1 || len(bm.Methods[0].Arguments) != 1 {
		t.Fatalf("unexpected BootstrapMethodsAttribute: %#v", bm)
	}
}

func TestReadMethodParametersValidatesFlags(t *testing.T) {
	st := newTestState(3)
	// parameters_count=1, name_index=0 (no name), access_flags=AccStatic
	// (not permitted for a method parameter).
	data := []byte{0x01, 0x00, 0x00, 0x00, 0x08}
	r := newTestReader(data)
	_, err := readMethodParameters(r, st)
	if !errors.Is(err, ErrFlagMix) {
		t.Fatalf("err = %v; want ErrFlagMix", err)
	}
}
