// Copyright 2024 The gojvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classfile

import (
	"errors"
	"testing"
)

func TestParseElementValuePrimitive(t *testing.T) {
	st := newTestState(3)
	data := []byte{'I', 0x00, 0x02} // tag 'I', const_value_index=2
	r := newTestReader(data)
	ev, err := parseElementValue(r, st, 0)
	if err != nil {
		t.Fatalf("parseElementValue: %v", err)
	}
	if ev.Tag != 'I' || ev.ConstValueIndex != 2 {
		t.Fatalf("unexpected ElementValue: %#v", ev)
	}
}

func TestParseElementValueEnumConstant(t *testing.T) {
	st := newTestState(4)
	data := []byte{'e', 0x00, 0x01, 0x00, 0x02}
	r := newTestReader(data)
	ev, err := parseElementValue(r, st, 0)
	if err != nil {
		t.Fatalf("parseElementValue: %v", err)
	}
	if ev.Tag != 'e' || ev.EnumTypeNameIndex != 1 || ev.EnumConstNameIndex != 2 {
		t.Fatalf("unexpected ElementValue: %#v", ev)
	}
}

func TestParseElementValueNestedAnnotation(t *testing.T) {
	st := newTestState(5)
	// tag '@', then an Annotation: type_index=1, num_element_value_pairs=1,
	// element_name_index=2, value: tag 'I' const_value_index=3.
	data := []byte{
		'@',
		0x00, 0x01,
		0x00, 0x01,
		0x00, 0x02,
		'I', 0x00, 0x03,
	}
	r := newTestReader(data)
	ev, err := parseElementValue(r, st, 0)
	if err != nil {
		t.Fatalf("parseElementValue: %v", err)
	}
	if ev.Tag != '@' || ev.Annotation == nil {
		t.Fatalf("unexpected ElementValue: %#v", ev)
	}
	if ev.Annotation.TypeIndex != 1 || len(ev.Annotation.Elements) != 1 {
		t.Fatalf("unexpected nested Annotation: %#v", ev.Annotation)
	}
}

func TestParseElementValueArray(t *testing.T) {
	st := newTestState(4)
	// tag '[', num_values=2, each an 'I' const_value_index.
	data := []byte{
		'[',
		0x00, 0x02,
		'I', 0x00, 0x01,
		'I', 0x00, 0x02,
	}
	r := newTestReader(data)
	ev, err := parseElementValue(r, st, 0)
	if err != nil {
		t.Fatalf("parseElementValue: %v", err)
	}
	if len(ev.Array) != 2 {
		t.Fatalf("Array len = %d; want 2", len(ev.Array))
	}
}

func TestParseElementValueUnknownTag(t *testing.T) {
	st := newTestState(2)
	data := []byte{'!'}
	r := newTestReader(data)
	_, err := parseElementValue(r, st, 0)
	if !errors.Is(err, ErrUnknownElementValueTag) {
		t.Fatalf("err = %v; want ErrUnknownElementValueTag", err)
	}
}

func TestParseElementValueTooDeep(t *testing.T) {
	st := newTestState(2)
	st.opts = NewOptions()
	st.opts.MaxAnnotationDepth = 2

	data := []byte{'I', 0x00, 0x01}
	r := newTestReader(data)
	_, err := parseElementValue(r, st, 3)
	if !errors.Is(err, ErrAnnotationTooDeep) {
		t.Fatalf("err = %v; want ErrAnnotationTooDeep", err)
	}
}

func TestReadAnnotationsAttribute(t *testing.T) {
	st := newTestState(4)
	data := []byte{
		0x00, 0x01, // num_annotations
		0x00, 0x01, // type_index
		0x00, 0x01, // num_element_value_pairs
		0x00, 0x02, // element_name_index
		'I', 0x00, 0x03, // value
	}
	r := newTestReader(data)
	payload, err := readAnnotationsAttribute(r, st)
	if err != nil {
		t.Fatalf("readAnnotationsAttribute: %v", err)
	}
	aa := payload.(AnnotationsAttribute)
	if len(aa.Annotations) != 1 {
		t.Fatalf("Annotations len = %d; want 1", len(aa.Annotations))
	}
}

func TestReadParameterAnnotationsAttribute(t *testing.T) {
	st := newTestState(4)
	data := []byte{
		0x01,       // num_parameters
		0x00, 0x00, // num_annotations for parameter 0
	}
	r := newTestReader(data)
	payload, err := readParameterAnnotationsAttribute(r, st)
	if err != nil {
		t.Fatalf("readParameterAnnotationsAttribute: %v", err)
	}
	pa := payload.(ParameterAnnotationsAttribute)
	if len(pa.Parameters) != 1 || len(pa.Parameters[0]) != 0 {
		t.Fatalf("unexpected ParameterAnnotationsAttribute: %#v", pa)
	}
}
