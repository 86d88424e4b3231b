// Copyright 2024 The gojvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classfile

import (
	"encoding/binary"
	"fmt"
)

// jumpPair is a recorded (source_pc, signed offset) branch to resolve in
// pass 2 (spec.md §4.6). The spec suggests packing this into a 64-bit word;
// a plain struct is used here since Go pays no boxing cost for it and the
// packed form exists only to save memory in languages without value
// structs.
type jumpPair struct {
	source int32
	offset int32
}

// bytecodeScratch holds the jump-target bitmap and jump-pair list across
// Code attributes within one Parse call, grown on demand rather than
// reallocated per method (spec.md §5).
type bytecodeScratch struct {
	target []bool
	pairs  []jumpPair
}

func newBytecodeScratch() *bytecodeScratch {
	return &bytecodeScratch{}
}

func (s *bytecodeScratch) reset(codeLen int) {
	if cap(s.target) < codeLen {
		s.target = make([]bool, codeLen)
	} else {
		s.target = s.target[:codeLen]
		for i := range s.target {
			s.target[i] = false
		}
	}
	s.pairs = s.pairs[:0]
}

// bytecodeError labels a bytecode-validator failure with a byte offset
// equal to its program counter within the code array; the context path
// carries the enclosing method/attribute location.
func bytecodeError(ctx *contextStack, pc int, field string, cause error) error {
	return newError(int64(pc), ctx.path(), field, cause)
}

// validateBytecode runs the two-pass validator over code (spec.md §4.6):
// pass 1 decodes every instruction, recording jump sources into
// scratch.pairs and instruction starts into scratch.target; pass 2 resolves
// every jump pair against the target bitmap.
func validateBytecode(code []byte, cpCount uint16, maxLocals uint16, opts *Options, ctx *contextStack, scratch *bytecodeScratch) error {
	scratch.reset(len(code))
	ctx.push("code", -1)
	defer ctx.pop()

	pc := 0
	for pc < len(code) {
		op := code[pc]
		info := opcodeAt(op)
		if info == nil {
			return bytecodeError(ctx, pc, "opcode", ErrUnassignedOpcode)
		}
		if info.reserved {
			return bytecodeError(ctx, pc, info.mnemonic, ErrReservedOpcode)
		}

		scratch.target[pc] = true

		var size int
		var err error
		switch {
		case op == 0xaa: // tableswitch
			size, err = decodeTableswitch(code, pc, opts, ctx, scratch)
		case op == 0xab: // lookupswitch
			size, err = decodeLookupswitch(code, pc, opts, ctx, scratch)
		case op == 0xc4: // wide
			size, err = decodeWide(code, pc, maxLocals, ctx)
		case info.shape == ShapeNone:
			size = 1
		case info.shape == ShapeOne:
			size, err = decodeOneOperand(code, pc, info, cpCount, maxLocals, scratch, ctx)
		case info.shape == ShapeTwo:
			size, err = decodeTwoOperand(code, pc, info, cpCount, ctx)
		default:
			return bytecodeError(ctx, pc, info.mnemonic, fmt.Errorf("unhandled operand shape"))
		}
		if err != nil {
			return err
		}
		pc += size
	}

	return resolveJumps(code, ctx, scratch)
}

func decodeOneOperand(code []byte, pc int, info *opcodeInfo, cpCount, maxLocals uint16, scratch *bytecodeScratch, ctx *contextStack) (int, error) {
	t := info.operands[0]
	ti := operandTypeTable[t]
	size := 1 + ti.size

	switch t {
	case BranchOffsetShort:
		if pc+3 > len(code) {
			return 0, bytecodeError(ctx, pc, info.mnemonic, ErrUnexpectedEOF)
		}
		off := int32(int16(binary.BigEndian.Uint16(code[pc+1 : pc+3])))
		scratch.pairs = append(scratch.pairs, jumpPair{source: int32(pc), offset: off})

	case BranchOffsetInt:
		if pc+5 > len(code) {
			return 0, bytecodeError(ctx, pc, info.mnemonic, ErrUnexpectedEOF)
		}
		off := int32(binary.BigEndian.Uint32(code[pc+1 : pc+5]))
		scratch.pairs = append(scratch.pairs, jumpPair{source: int32(pc), offset: off})

	case LocalVariableIndexByte:
		if pc+2 > len(code) {
			return 0, bytecodeError(ctx, pc, info.mnemonic, ErrUnexpectedEOF)
		}
		idx := uint16(code[pc+1])
		if idx >= maxLocals {
			return 0, bytecodeError(ctx, pc, info.mnemonic, ErrLocalVariableIndexRange)
		}

	case ConstantPoolIndexByte, ConstantPoolIndexShort, ConstantPoolIndexShortClass:
		if pc+1+ti.size > len(code) {
			return 0, bytecodeError(ctx, pc, info.mnemonic, ErrUnexpectedEOF)
		}
		var idx uint16
		if ti.size == 1 {
			idx = uint16(code[pc+1])
		} else {
			idx = binary.BigEndian.Uint16(code[pc+1 : pc+3])
		}
		if idx < 1 || idx >= cpCount {
			return 0, bytecodeError(ctx, pc, info.mnemonic, ErrConstantPoolIndexRange)
		}

	case AtypeByte:
		if pc+2 > len(code) {
			return 0, bytecodeError(ctx, pc, info.mnemonic, ErrUnexpectedEOF)
		}
		if !isValidAtype(code[pc+1]) {
			return 0, bytecodeError(ctx, pc, info.mnemonic, ErrInvalidAtype)
		}

	default:
		if pc+size > len(code) {
			return 0, bytecodeError(ctx, pc, info.mnemonic, ErrUnexpectedEOF)
		}
	}

	if info.trailingZeroBytes > 0 {
		size += info.trailingZeroBytes
		if pc+size > len(code) {
			return 0, bytecodeError(ctx, pc, info.mnemonic, ErrUnexpectedEOF)
		}
	}
	return size, nil
}

// decodeTwoOperand handles iinc, invokeinterface, and multianewarray.
func decodeTwoOperand(code []byte, pc int, info *opcodeInfo, cpCount uint16, ctx *contextStack) (int, error) {
	size := 1
	for _, t := range info.operands {
		ti := operandTypeTable[t]
		if pc+size+ti.size > len(code) {
			return 0, bytecodeError(ctx, pc, info.mnemonic, ErrUnexpectedEOF)
		}
		var v uint16
		if ti.size == 1 {
			v = uint16(code[pc+size])
		} else {
			v = binary.BigEndian.Uint16(code[pc+size : pc+size+2])
		}
		if ti.isConstantIndex && (v < 1 || v >= cpCount) {
			return 0, bytecodeError(ctx, pc, info.mnemonic, ErrConstantPoolIndexRange)
		}
		size += ti.size
	}
	if info.requiresTrailingZero {
		if pc+size+1 > len(code) {
			return 0, bytecodeError(ctx, pc, info.mnemonic, ErrUnexpectedEOF)
		}
		if code[pc+size] != 0 {
			return 0, bytecodeError(ctx, pc, info.mnemonic, fmt.Errorf("invokeinterface count/zero byte mismatch"))
		}
		size++
	}
	return size, nil
}

// switchPadding computes the 0-3 zero-padding bytes following a switch
// opcode so the next field aligns to a 4-byte boundary measured from the
// start of the code array (spec.md §4.6(d): padding is computed from pc+1
// modulo 4).
func switchPadding(pc int) int {
	return (4 - (pc+1)%4) % 4
}

func checkPadding(code []byte, start, n int, opts *Options, ctx *contextStack, mnemonic string) error {
	if opts == nil || !opts.RejectNonZeroSwitchPadding {
		return nil
	}
	for i := 0; i < n; i++ {
		if code[start+i] != 0 {
			return bytecodeError(ctx, start, mnemonic, ErrSwitchPadding)
		}
	}
	return nil
}

func decodeTableswitch(code []byte, pc int, opts *Options, ctx *contextStack, scratch *bytecodeScratch) (int, error) {
	pad := switchPadding(pc)
	cursor := pc + 1
	if cursor+pad > len(code) {
		return 0, bytecodeError(ctx, pc, "tableswitch", ErrUnexpectedEOF)
	}
	if err := checkPadding(code, cursor, pad, opts, ctx, "tableswitch"); err != nil {
		return 0, err
	}
	cursor += pad

	if cursor+12 > len(code) {
		return 0, bytecodeError(ctx, pc, "tableswitch", ErrUnexpectedEOF)
	}
	def := int32(binary.BigEndian.Uint32(code[cursor : cursor+4]))
	low := int32(binary.BigEndian.Uint32(code[cursor+4 : cursor+8]))
	high := int32(binary.BigEndian.Uint32(code[cursor+8 : cursor+12]))
	cursor += 12

	if high < low {
		return 0, bytecodeError(ctx, pc, "tableswitch", ErrTableswitchRange)
	}

	scratch.pairs = append(scratch.pairs, jumpPair{source: int32(pc), offset: def})

	n := int(high-low) + 1
	if cursor+n*4 > len(code) {
		return 0, bytecodeError(ctx, pc, "tableswitch", ErrUnexpectedEOF)
	}
	for i := 0; i < n; i++ {
		off := int32(binary.BigEndian.Uint32(code[cursor : cursor+4]))
		scratch.pairs = append(scratch.pairs, jumpPair{source: int32(pc), offset: off})
		cursor += 4
	}
	return cursor - pc, nil
}

func decodeLookupswitch(code []byte, pc int, opts *Options, ctx *contextStack, scratch *bytecodeScratch) (int, error) {
	pad := switchPadding(pc)
	cursor := pc + 1
	if cursor+pad > len(code) {
		return 0, bytecodeError(ctx, pc, "lookupswitch", ErrUnexpectedEOF)
	}
	if err := checkPadding(code, cursor, pad, opts, ctx, "lookupswitch"); err != nil {
		return 0, err
	}
	cursor += pad

	if cursor+8 > len(code) {
		return 0, bytecodeError(ctx, pc, "lookupswitch", ErrUnexpectedEOF)
	}
	def := int32(binary.BigEndian.Uint32(code[cursor : cursor+4]))
	npairs := int32(binary.BigEndian.Uint32(code[cursor+4 : cursor+8]))
	cursor += 8

	if npairs < 0 {
		return 0, bytecodeError(ctx, pc, "lookupswitch", ErrNegativeNpairs)
	}

	scratch.pairs = append(scratch.pairs, jumpPair{source: int32(pc), offset: def})

	if cursor+int(npairs)*8 > len(code) {
		return 0, bytecodeError(ctx, pc, "lookupswitch", ErrUnexpectedEOF)
	}
	prevMatch := int32(0)
	for i := int32(0); i < npairs; i++ {
		match := int32(binary.BigEndian.Uint32(code[cursor : cursor+4]))
		off := int32(binary.BigEndian.Uint32(code[cursor+4 : cursor+8]))
		if i > 0 && match <= prevMatch {
			return 0, bytecodeError(ctx, pc, "lookupswitch", ErrLookupswitchOrder)
		}
		prevMatch = match
		scratch.pairs = append(scratch.pairs, jumpPair{source: int32(pc), offset: off})
		cursor += 8
	}
	return cursor - pc, nil
}

func decodeWide(code []byte, pc int, maxLocals uint16, ctx *contextStack) (int, error) {
	if pc+2 > len(code) {
		return 0, bytecodeError(ctx, pc, "wide", ErrUnexpectedEOF)
	}
	wrapped := code[pc+1]
	if !wideEligible[wrapped] {
		return 0, bytecodeError(ctx, pc, "wide", ErrBadWideOpcode)
	}

	if pc+4 > len(code) {
		return 0, bytecodeError(ctx, pc, "wide", ErrUnexpectedEOF)
	}
	idx := binary.BigEndian.Uint16(code[pc+2 : pc+4])
	if idx >= maxLocals {
		return 0, bytecodeError(ctx, pc, "wide", ErrLocalVariableIndexRange)
	}

	if wrapped == 0x84 { // iinc
		if pc+6 > len(code) {
			return 0, bytecodeError(ctx, pc, "wide", ErrUnexpectedEOF)
		}
		return 6, nil
	}
	return 4, nil
}

// resolveJumps is pass 2: every recorded jump pair's target must land
// inside the code array and on a recorded instruction boundary (spec.md
// §4.6).
func resolveJumps(code []byte, ctx *contextStack, scratch *bytecodeScratch) error {
	for _, jp := range scratch.pairs {
		target := jp.source + jp.offset
		if target < 0 || int(target) >= len(code) {
			return bytecodeError(ctx, int(jp.source), "branch target", ErrBranchTarget)
		}
		if !scratch.target[target] {
			return bytecodeError(ctx, int(jp.source), "branch target", ErrBranchTarget)
		}
	}
	return nil
}
