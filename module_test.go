// Copyright 2024 The gojvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classfile

import (
	"errors"
	"testing"
)

func TestReadModuleAttributeMinimal(t *testing.T) {
	st := newTestState(3)
	data := []byte{
		0x00, 0x01, // module_name_index
		0x00, 0x00, // module_flags
		0x00, 0x00, // module_version_index (none)
		0x00, 0x00, // requires_count
		0x00, 0x00, // exports_count
		0x00, 0x00, // opens_count
		0x00, 0x00, // uses_count
		0x00, 0x00, // provides_count
	}
	r := newTestReader(data)
	payload, err := readModuleAttribute(r, st)
	if err != nil {
		t.Fatalf("readModuleAttribute: %v", err)
	}
	mod := payload.(*ModuleAttribute)
	if mod.NameIndex != 1 {
		t.Fatalf("NameIndex = %d; want 1", mod.NameIndex)
	}
}

func TestReadModuleAttributeRequiresAndExports(t *testing.T) {
	st := newTestState(5)
	data := []byte{
		0x00, 0x01, // module_name_index
		0x00, 0x00, // module_flags
		0x00, 0x00, // module_version_index
		0x00, 0x01, // requires_count = 1
		0x00, 0x02, 0x00, 0x00, 0x00, 0x00, // requires[0]: index=2, flags=0, version=0
		0x00, 0x01, // exports_count = 1
		0x00, 0x03, 0x00, 0x00, 0x00, 0x00, // exports[0]: index=3, flags=0, to_count=0
		0x00, 0x00, // opens_count
		0x00, 0x01, // uses_count = 1
		0x00, 0x04, // uses[0]
		0x00, 0x00, // provides_count
	}
	r := newTestReader(data)
	payload, err := readModuleAttribute(r, st)
	if err != nil {
		t.Fatalf("readModuleAttribute: %v", err)
	}
	mod := payload.(*ModuleAttribute)
	if len(mod.Requires) != 1 || mod.Requires[0].Index != 2 {
		t.Fatalf("unexpected Requires: %#v", mod.Requires)
	}
	if len(mod.Exports) != 1 || mod.Exports[0].Index != 3 {
		t.Fatalf("unexpected Exports: %#v", mod.Exports)
	}
	if len(mod.Uses) != 1 || mod.Uses[0].Index != 4 {
		t.Fatalf("unexpected Uses: %#v", mod.Uses)
	}
}

func TestReadModuleAttributeProvides(t *testing.T) {
	st := newTestState(6)
	data := []byte{
		0x00, 0x01,
		0x00, 0x00,
		0x00, 0x00,
		0x00, 0x00, // requires_count
		0x00, 0x00, // exports_count
		0x00, 0x00, // opens_count
		0x00, 0x00, // uses_count
		0x00, 0x01, // provides_count = 1
		0x00, 0x02, // provides[0].index
		0x00, 0x01, // with_count = 1
		0x00, 0x03, // with[0]
	}
	r := newTestReader(data)
	payload, err := readModuleAttribute(r, st)
	if err != nil {
		t.Fatalf("readModuleAttribute: %v", err)
	}
	mod := payload.(*ModuleAttribute)
	if len(mod.Provides) != 1 || mod.Provides[0].Index != 2 || len(mod.Provides[0].WithIndex) != 1 {
		t.Fatalf("unexpected Provides: %#v", mod.Provides)
	}
}

func TestReadModuleAttributeInvalidFlags(t *testing.T) {
	st := newTestState(3)
	// module_flags = AccStatic(0x0008), not in {open, synthetic, mandated}.
	data := []byte{
		0x00, 0x01,
		0x00, 0x08,
		0x00, 0x00,
		0x00, 0x00,
		0x00, 0x00,
		0x00, 0x00,
		0x00, 0x00,
		0x00, 0x00,
	}
	r := newTestReader(data)
	_, err := readModuleAttribute(r, st)
	if !errors.Is(err, ErrFlagMix) {
		t.Fatalf("err = %v; want ErrFlagMix", err)
	}
}
