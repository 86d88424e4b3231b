// Copyright 2024 The gojvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classfile

import (
	"errors"
	"testing"
)

func TestParseTargetInfoTypeParameter(t *testing.T) {
	r := newTestReader([]byte{0x02})
	target, err := parseTargetInfo(r, ttClassTypeParameter)
	if err != nil {
		t.Fatalf("parseTargetInfo: %v", err)
	}
	if !target.HasTypeParameterIndex || target.TypeParameterIndex != 2 {
		t.Fatalf("unexpected TargetInfo: %#v", target)
	}
}

func TestParseTargetInfoEmptyTarget(t *testing.T) {
	r := newTestReader(nil)
	target, err := parseTargetInfo(r, ttField)
	if err != nil {
		t.Fatalf("parseTargetInfo: %v", err)
	}
	if target != (TargetInfo{}) {
		t.Fatalf("empty_target should decode to the zero TargetInfo, got %#v", target)
	}
}

func TestParseTargetInfoLocalvarTable(t *testing.T) {
	data := []byte{
		0x00, 0x01, // table_length
		0x00, 0x00, // start_pc
		0x00, 0x05, // length
		0x00, 0x01, // index
	}
	r := newTestReader(data)
	target, err := parseTargetInfo(r, ttLocalVariable)
	if err != nil {
		t.Fatalf("parseTargetInfo: %v", err)
	}
	if !target.HasLocalvarTable || len(target.LocalvarTable) != 1 {
		t.Fatalf("unexpected TargetInfo: %#v", target)
	}
}

func TestParseTargetInfoTypeArgument(t *testing.T) {
	data := []byte{0x00, 0x03, 0x01} // offset=3, type_argument_index=1
	r := newTestReader(data)
	target, err := parseTargetInfo(r, ttCast)
	if err != nil {
		t.Fatalf("parseTargetInfo: %v", err)
	}
	if !target.HasTypeArgumentIndex || target.TypeArgumentOffset != 3 || target.TypeArgumentIndex != 1 {
		t.Fatalf("unexpected TargetInfo: %#v", target)
	}
}

func TestParseTargetInfoUnknownTargetType(t *testing.T) {
	r := newTestReader(nil)
	_, err := parseTargetInfo(r, 0x99)
	if !errors.Is(err, ErrUnknownTargetType) {
		t.Fatalf("err = %v; want ErrUnknownTargetType", err)
	}
}

func TestParseTypePath(t *testing.T) {
	data := []byte{
		0x01, // path_length
		0x01, // type_path_kind
		0x00, // type_argument_index
	}
	r := newTestReader(data)
	path, err := parseTypePath(r)
	if err != nil {
		t.Fatalf("parseTypePath: %v", err)
	}
	if len(path) != 1 || path[0].Kind != 1 {
		t.Fatalf("unexpected TypePath: %#v", path)
	}
}

func TestParseTypePathUnknownKind(t *testing.T) {
	data := []byte{0x01, 0x07, 0x00}
	r := newTestReader(data)
	_, err := parseTypePath(r)
	if !errors.Is(err, ErrUnknownTypePathKind) {
		t.Fatalf("err = %v; want ErrUnknownTypePathKind", err)
	}
}

func TestParseTypeAnnotationEndToEnd(t *testing.T) {
	st := newTestState(4)
	data := []byte{
		byte(ttField), // target_type, empty_target
		0x00,          // path_length = 0
		0x00, 0x01,    // type_index
		0x00, 0x00, // num_element_value_pairs
	}
	r := newTestReader(data)
	ta, err := parseTypeAnnotation(r, st)
	if err != nil {
		t.Fatalf("parseTypeAnnotation: %v", err)
	}
	if ta.TargetType != ttField || ta.TypeIndex != 1 {
		t.Fatalf("unexpected TypeAnnotation: %#v", ta)
	}
}
