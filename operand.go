// Copyright 2024 The gojvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classfile

// OperandType enumerates the closed set of operand kinds an instruction's
// operands may take, per spec.md §3. Names are the spec's own canonical
// spellings (spec.md §9 open question 2): OPTIONAL_SIGNED_VALUE_SHORT and
// MATCH_OFFSET_PAIR_TABLE, not the alternate spellings the original source
// used inconsistently.
type OperandType int

const (
	// ZeroOperand is used by no-operand opcodes; present for uniformity,
	// never appears in a non-empty operand list.
	ZeroOperand OperandType = iota

	SignedValueByte
	SignedValueShort
	SignedValueInt
	UnsignedValueByte

	BranchOffsetShort
	BranchOffsetInt

	LocalVariableIndexByte
	LocalVariableIndexShort

	ConstantPoolIndexByte       // ldc: u1 index
	ConstantPoolIndexShort      // most CP-referencing opcodes: u2 index
	ConstantPoolIndexShortClass // anewarray, checkcast, instanceof, new: u2 index to CLASS

	AtypeByte

	// OptionalSignedValueShort is present only when the wrapped opcode is
	// iinc under wide; absent (zero-sized) otherwise.
	OptionalSignedValueShort

	// Opcode is the wrapped-opcode byte operand of `wide` itself.
	Opcode

	// Padding is 0-3 zero bytes aligning the next field to a 4-byte
	// boundary measured from the start of the code array.
	Padding

	// MatchOffsetPairTable is lookupswitch's (match, offset) s4 pair list.
	MatchOffsetPairTable

	// JumpOffsetTable is tableswitch's contiguous offset list.
	JumpOffsetTable
)

// operandTypeInfo carries fixed size information for an OperandType. Size
// -1 denotes a variable-size operand whose size can only be determined by
// decoding it (Padding, MatchOffsetPairTable, JumpOffsetTable,
// OptionalSignedValueShort is 0 or 2 depending on context).
type operandTypeInfo struct {
	size            int
	isConstantIndex bool
}

var operandTypeTable = map[OperandType]operandTypeInfo{
	ZeroOperand:                 {size: 0},
	SignedValueByte:             {size: 1},
	SignedValueShort:            {size: 2},
	SignedValueInt:              {size: 4},
	UnsignedValueByte:           {size: 1},
	BranchOffsetShort:           {size: 2},
	BranchOffsetInt:             {size: 4},
	LocalVariableIndexByte:      {size: 1},
	LocalVariableIndexShort:     {size: 2},
	ConstantPoolIndexByte:       {size: 1, isConstantIndex: true},
	ConstantPoolIndexShort:      {size: 2, isConstantIndex: true},
	ConstantPoolIndexShortClass: {size: 2, isConstantIndex: true},
	AtypeByte:                   {size: 1},
	OptionalSignedValueShort:    {size: 2},
	Opcode:                      {size: 1},
	Padding:                     {size: -1},
	MatchOffsetPairTable:        {size: -1},
	JumpOffsetTable:             {size: -1},
}

// isValidAtype reports whether v is one of the eight primitive array type
// codes (spec.md §6, §8 invariant 7), checked via the bit trick the spec
// calls out: values 4..11 all satisfy ((v-4) & ~7) == 0, and nothing
// outside that range does.
func isValidAtype(v uint8) bool {
	return (int(v)-4)&^7 == 0
}

// Array-type codes, spec.md §6.
const (
	TBoolean uint8 = 4
	TChar    uint8 = 5
	TFloat   uint8 = 6
	TDouble  uint8 = 7
	TByte    uint8 = 8
	TShort   uint8 = 9
	TInt     uint8 = 10
	TLong    uint8 = 11
)
