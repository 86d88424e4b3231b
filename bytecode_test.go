// Copyright 2024 The gojvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classfile

import (
	"errors"
	"testing"
)

func runBytecode(t *testing.T, code []byte, cpCount, maxLocals uint16, opts *Options) error {
	t.Helper()
	if opts == nil {
		opts = NewOptions()
	}
	return validateBytecode(code, cpCount, maxLocals, opts, newContextStack(8), newBytecodeScratch())
}

func TestValidateBytecodeSimpleReturn(t *testing.T) {
	code := []byte{0xb1} // return
	if err := runBytecode(t, code, 1, 0, nil); err != nil {
		t.Fatalf("return: %v", err)
	}
}

func TestValidateBytecodeUnassignedOpcode(t *testing.T) {
	code := []byte{0xcb} // unassigned
	err := runBytecode(t, code, 1, 0, nil)
	if !errors.Is(err, ErrUnassignedOpcode) {
		t.Fatalf("err = %v; want ErrUnassignedOpcode", err)
	}
}

func TestValidateBytecodeReservedOpcode(t *testing.T) {
	code := []byte{0xca} // breakpoint
	err := runBytecode(t, code, 1, 0, nil)
	if !errors.Is(err, ErrReservedOpcode) {
		t.Fatalf("err = %v; want ErrReservedOpcode", err)
	}
}

func TestValidateBytecodeGotoValidTarget(t *testing.T) {
	// goto +3 (to pc=3, the nop), then nop, then return.
	code := []byte{0xa7, 0x00, 0x03, 0x00, 0xb1}
	if err := runBytecode(t, code, 1, 0, nil); err != nil {
		t.Fatalf("goto with valid target: %v", err)
	}
}

func TestValidateBytecodeGotoInvalidTarget(t *testing.T) {
	// goto +10 targets an offset past the end of the code array.
	code := []byte{0xa7, 0x00, 0x0a} // goto +10, well past len(code)=3
	err := runBytecode(t, code, 1, 0, nil)
	if !errors.Is(err, ErrBranchTarget) {
		t.Fatalf("err = %v; want ErrBranchTarget", err)
	}
}

func TestValidateBytecodeGotoMidInstruction(t *testing.T) {
	// goto +1 targets pc=1, which is inside the goto's own operand bytes,
	// not a recorded instruction boundary.
	code := []byte{0xa7, 0x00, 0x01}
	err := runBytecode(t, code, 1, 0, nil)
	if !errors.Is(err, ErrBranchTarget) {
		t.Fatalf("err = %v; want ErrBranchTarget", err)
	}
}

func TestValidateBytecodeLocalVariableIndexRange(t *testing.T) {
	// iload_... via iload with explicit index 5, maxLocals=1.
	code := []byte{0x15, 0x05, 0xb1} // iload 5; return
	err := runBytecode(t, code, 1, 1, nil)
	if !errors.Is(err, ErrLocalVariableIndexRange) {
		t.Fatalf("err = %v; want ErrLocalVariableIndexRange", err)
	}
}

func TestValidateBytecodeConstantPoolIndexRange(t *testing.T) {
	// new with CP index 9, but constant_pool_count is 2.
	code := []byte{0xbb, 0x00, 0x09, 0x00}
	err := runBytecode(t, code, 2, 0, nil)
	if !errors.Is(err, ErrConstantPoolIndexRange) {
		t.Fatalf("err = %v; want ErrConstantPoolIndexRange", err)
	}
}

func TestValidateBytecodeNewarrayInvalidAtype(t *testing.T) {
	code := []byte{0xbc, 0x02} // newarray, atype=2 (invalid; valid range is 4..11)
	err := runBytecode(t, code, 1, 0, nil)
	if !errors.Is(err, ErrInvalidAtype) {
		t.Fatalf("err = %v; want ErrInvalidAtype", err)
	}
}

func TestValidateBytecodeIincWide(t *testing.T) {
	// wide iinc #300, +1: c4 84 01 2c 00 01
	code := []byte{0xc4, 0x84, 0x01, 0x2c, 0x00, 0x01, 0xb1}
	if err := runBytecode(t, code, 1, 400, nil); err != nil {
		t.Fatalf("wide iinc: %v", err)
	}
}

func TestValidateBytecodeWideBadWrappedOpcode(t *testing.T) {
	// wide wrapping `return` (0xb1), which is not wide-eligible.
	code := []byte{0xc4, 0xb1, 0x00, 0x01}
	err := runBytecode(t, code, 1, 10, nil)
	if !errors.Is(err, ErrBadWideOpcode) {
		t.Fatalf("err = %v; want ErrBadWideOpcode", err)
	}
}

func TestValidateBytecodeTableswitch(t *testing.T) {
	// tableswitch at pc=0: padding to align to 4-byte boundary from pc+1=1,
	// so 3 pad bytes; default=24, low=0, high=1, two offsets.
	code := []byte{
		0xaa,             // tableswitch
		0x00, 0x00, 0x00, // 3 pad bytes
		0x00, 0x00, 0x00, 0x18, // default -> pc 24
		0x00, 0x00, 0x00, 0x00, // low = 0
		0x00, 0x00, 0x00, 0x01, // high = 1
		0x00, 0x00, 0x00, 0x18, // offset[0] -> pc 24
		0x00, 0x00, 0x00, 0x18, // offset[1] -> pc 24
		0xb1, // return at pc 24
	}
	if err := runBytecode(t, code, 1, 0, nil); err != nil {
		t.Fatalf("tableswitch: %v", err)
	}
}

func TestValidateBytecodeTableswitchRangeError(t *testing.T) {
	code := []byte{
		0xaa,
		0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, // default
		0x00, 0x00, 0x00, 0x05, // low = 5
		0x00, 0x00, 0x00, 0x01, // high = 1 < low
	}
	err := runBytecode(t, code, 1, 0, nil)
	if !errors.Is(err, ErrTableswitchRange) {
		t.Fatalf("err = %v; want ErrTableswitchRange", err)
	}
}

func TestValidateBytecodeLookupswitchOrder(t *testing.T) {
	code := []byte{
		0xab,
		0x00, 0x00, 0x00, // pad
		0x00, 0x00, 0x00, 0x00, // default
		0x00, 0x00, 0x00, 0x02, // npairs = 2
		0x00, 0x00, 0x00, 0x05, 0x00, 0x00, 0x00, 0x00, // match=5 -> pc0
		0x00, 0x00, 0x00, 0x03, 0x00, 0x00, 0x00, 0x00, // match=3 (out of order)
	}
	err := runBytecode(t, code, 1, 0, nil)
	if !errors.Is(err, ErrLookupswitchOrder) {
		t.Fatalf("err = %v; want ErrLookupswitchOrder", err)
	}
}

func TestValidateBytecodeLookupswitchNegativeNpairs(t *testing.T) {
	code := []byte{
		0xab,
		0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, // default
		0xff, 0xff, 0xff, 0xff, // npairs = -1
	}
	err := runBytecode(t, code, 1, 0, nil)
	if !errors.Is(err, ErrNegativeNpairs) {
		t.Fatalf("err = %v; want ErrNegativeNpairs", err)
	}
}

func TestValidateBytecodeSwitchPaddingLenientByDefault(t *testing.T) {
	code := []byte{
		0xaa,
		0x01, 0x02, 0x03, // non-zero padding, allowed by default
		0x00, 0x00, 0x00, 0x14, // default -> pc 20
		0x00, 0x00, 0x00, 0x00, // low
		0x00, 0x00, 0x00, 0x00, // high
		0x00, 0x00, 0x00, 0x14, // offset[0] -> pc 20
		0xb1,
	}
	if err := runBytecode(t, code, 1, 0, nil); err != nil {
		t.Fatalf("lenient padding should not fail: %v", err)
	}
}

func TestValidateBytecodeSwitchPaddingStrictRejectsNonZero(t *testing.T) {
	code := []byte{
		0xaa,
		0x01, 0x02, 0x03,
		0x00, 0x00, 0x00, 0x04,
		0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x04,
		0xb1,
	}
	opts := NewOptions()
	opts.RejectNonZeroSwitchPadding = true
	err := runBytecode(t, code, 1, 0, opts)
	if !errors.Is(err, ErrSwitchPadding) {
		t.Fatalf("err = %v; want ErrSwitchPadding", err)
	}
}

func TestSwitchPadding(t *testing.T) {
	tests := []struct {
		pc   int
		want int
	}{
		{0, 3},
		{1, 2},
		{2, 1},
		{3, 0},
		{4, 3},
	}
	for _, tt := range tests {
		if got := switchPadding(tt.pc); got != tt.want {
			t.Errorf("switchPadding(%d) = %d; want %d", tt.pc, got, tt.want)
		}
	}
}

func TestBytecodeScratchResetReusesCapacity(t *testing.T) {
	s := newBytecodeScratch()
	s.reset(10)
	s.target[3] = true
	s.pairs = append(s.pairs, jumpPair{source: 1, offset: 2})

	oldCap := cap(s.target)
	s.reset(5)
	if cap(s.target) != oldCap {
		t.Fatalf("reset should reuse capacity when shrinking, got new cap %d, had %d", cap(s.target), oldCap)
	}
	if s.target[3] {
		t.Fatalf("reset should clear stale target bits")
	}
	if len(s.pairs) != 0 {
		t.Fatalf("reset should truncate pairs to zero length")
	}
}
