// Copyright 2024 The gojvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classfile

// OperandShape classifies how many (and what kind of) operands follow an
// opcode byte (spec.md §3, §9's "single enum over all 205 defined opcodes
// plus a per-opcode metadata record" guidance).
type OperandShape int

const (
	ShapeNone OperandShape = iota
	ShapeOne
	ShapeTwo
	ShapeVariable
)

// opcodeInfo is the per-opcode metadata record the 256-entry table maps
// each byte value to. A nil entry (the zero value of *opcodeInfo in the
// table) means the byte is unassigned.
type opcodeInfo struct {
	mnemonic string
	shape    OperandShape
	operands [2]OperandType

	// reserved opcodes (breakpoint, impdep1, impdep2) decode successfully
	// as no-operand instructions but are rejected with ErrReservedOpcode.
	reserved bool

	// trailingZeroBytes is the count of required-zero bytes following the
	// opcode's normal operands (invokedynamic: 2).
	trailingZeroBytes int

	// requiresTrailingZero marks invokeinterface's mandatory zero byte
	// after its count operand.
	requiresTrailingZero bool

	firstVersion ClassFileVersion
	lastVersion  ClassFileVersion // zero value: no upper bound
}

func one(mnemonic string, t OperandType) opcodeInfo {
	return opcodeInfo{mnemonic: mnemonic, shape: ShapeOne, operands: [2]OperandType{t}, firstVersion: Java1}
}

func none(mnemonic string) opcodeInfo {
	return opcodeInfo{mnemonic: mnemonic, shape: ShapeNone, firstVersion: Java1}
}

func two(mnemonic string, a, b OperandType) opcodeInfo {
	return opcodeInfo{mnemonic: mnemonic, shape: ShapeTwo, operands: [2]OperandType{a, b}, firstVersion: Java1}
}

// opcodeTable is the 256-entry byte -> opcode metadata table, populated
// once at package load; every field is a literal, so no runtime
// initialization work competes with the per-instance parser state.
var opcodeTable = buildOpcodeTable()

func buildOpcodeTable() [256]*opcodeInfo {
	var t [256]*opcodeInfo
	set := func(b byte, info opcodeInfo) {
		info2 := info
		t[b] = &info2
	}

	set(0x00, none("nop"))
	set(0x01, none("aconst_null"))
	set(0x02, none("iconst_m1"))
	set(0x03, none("iconst_0"))
	set(0x04, none("iconst_1"))
	set(0x05, none("iconst_2"))
	set(0x06, none("iconst_3"))
	set(0x07, none("iconst_4"))
	set(0x08, none("iconst_5"))
	set(0x09, none("lconst_0"))
	set(0x0a, none("lconst_1"))
	set(0x0b, none("fconst_0"))
	set(0x0c, none("fconst_1"))
	set(0x0d, none("fconst_2"))
	set(0x0e, none("dconst_0"))
	set(0x0f, none("dconst_1"))
	set(0x10, one("bipush", SignedValueByte))
	set(0x11, one("sipush", SignedValueShort))
	set(0x12, one("ldc", ConstantPoolIndexByte))
	set(0x13, one("ldc_w", ConstantPoolIndexShort))
	set(0x14, one("ldc2_w", ConstantPoolIndexShort))
	set(0x15, one("iload", LocalVariableIndexByte))
	set(0x16, one("lload", LocalVariableIndexByte))
	set(0x17, one("fload", LocalVariableIndexByte))
	set(0x18, one("dload", LocalVariableIndexByte))
	set(0x19, one("aload", LocalVariableIndexByte))
	set(0x1a, none("iload_0"))
	set(0x1b, none("iload_1"))
	set(0x1c, none("iload_2"))
	set(0x1d, none("iload_3"))
	set(0x1e, none("lload_0"))
	set(0x1f, none("lload_1"))
	set(0x20, none("lload_2"))
	set(0x21, none("lload_3"))
	set(0x22, none("fload_0"))
	set(0x23, none("fload_1"))
	set(0x24, none("fload_2"))
	set(0x25, none("fload_3"))
	set(0x26, none("dload_0"))
	set(0x27, none("dload_1"))
	set(0x28, none("dload_2"))
	set(0x29, none("dload_3"))
	set(0x2a, none("aload_0"))
	set(0x2b, none("aload_1"))
	set(0x2c, none("aload_2"))
	set(0x2d, none("aload_3"))
	set(0x2e, none("iaload"))
	set(0x2f, none("laload"))
	set(0x30, none("faload"))
	set(0x31, none("daload"))
	set(0x32, none("aaload"))
	set(0x33, none("baload"))
	set(0x34, none("caload"))
	set(0x35, none("saload"))
	set(0x36, one("istore", LocalVariableIndexByte))
	set(0x37, one("lstore", LocalVariableIndexByte))
	set(0x38, one("fstore", LocalVariableIndexByte))
	set(0x39, one("dstore", LocalVariableIndexByte))
	set(0x3a, one("astore", LocalVariableIndexByte))
	set(0x3b, none("istore_0"))
	set(0x3c, none("istore_1"))
	set(0x3d, none("istore_2"))
	set(0x3e, none("istore_3"))
	set(0x3f, none("lstore_0"))
	set(0x40, none("lstore_1"))
	set(0x41, none("lstore_2"))
	set(0x42, none("lstore_3"))
	set(0x43, none("fstore_0"))
	set(0x44, none("fstore_1"))
	set(0x45, none("fstore_2"))
	set(0x46, none("fstore_3"))
	set(0x47, none("dstore_0"))
	set(0x48, none("dstore_1"))
	set(0x49, none("dstore_2"))
	set(0x4a, none("dstore_3"))
	set(0x4b, none("astore_0"))
	set(0x4c, none("astore_1"))
	set(0x4d, none("astore_2"))
	set(0x4e, none("astore_3"))
	set(0x4f, none("iastore"))
	set(0x50, none("lastore"))
	set(0x51, none("fastore"))
	set(0x52, none("dastore"))
	set(0x53, none("aastore"))
	set(0x54, none("bastore"))
	set(0x55, none("castore"))
	set(0x56, none("sastore"))
	set(0x57, none("pop"))
	set(0x58, none("pop2"))
	set(0x59, none("dup"))
	set(0x5a, none("dup_x1"))
	set(0x5b, none("dup_x2"))
	set(0x5c, none("dup2"))
	set(0x5d, none("dup2_x1"))
	set(0x5e, none("dup2_x2"))
	set(0x5f, none("swap"))
	set(0x60, none("iadd"))
	set(0x61, none("ladd"))
	set(0x62, none("fadd"))
	set(0x63, none("dadd"))
	set(0x64, none("isub"))
	set(0x65, none("lsub"))
	set(0x66, none("fsub"))
	set(0x67, none("dsub"))
	set(0x68, none("imul"))
	set(0x69, none("lmul"))
	set(0x6a, none("fmul"))
	set(0x6b, none("dmul"))
	set(0x6c, none("idiv"))
	set(0x6d, none("ldiv"))
	set(0x6e, none("fdiv"))
	set(0x6f, none("ddiv"))
	set(0x70, none("irem"))
	set(0x71, none("lrem"))
	set(0x72, none("frem"))
	set(0x73, none("drem"))
	set(0x74, none("ineg"))
	set(0x75, none("lneg"))
	set(0x76, none("fneg"))
	set(0x77, none("dneg"))
	set(0x78, none("ishl"))
	set(0x79, none("lshl"))
	set(0x7a, none("ishr"))
	set(0x7b, none("lshr"))
	set(0x7c, none("iushr"))
	set(0x7d, none("lushr"))
	set(0x7e, none("iand"))
	set(0x7f, none("land"))
	set(0x80, none("ior"))
	set(0x81, none("lor"))
	set(0x82, none("ixor"))
	set(0x83, none("lxor"))
	set(0x84, two("iinc", LocalVariableIndexByte, SignedValueByte))
	set(0x85, none("i2l"))
	set(0x86, none("i2f"))
	set(0x87, none("i2d"))
	set(0x88, none("l2i"))
	set(0x89, none("l2f"))
	set(0x8a, none("l2d"))
	set(0x8b, none("f2i"))
	set(0x8c, none("f2l"))
	set(0x8d, none("f2d"))
	set(0x8e, none("d2i"))
	set(0x8f, none("d2l"))
	set(0x90, none("d2f"))
	set(0x91, none("i2b"))
	set(0x92, none("i2c"))
	set(0x93, none("i2s"))
	set(0x94, none("lcmp"))
	set(0x95, none("fcmpl"))
	set(0x96, none("fcmpg"))
	set(0x97, none("dcmpl"))
	set(0x98, none("dcmpg"))
	set(0x99, one("ifeq", BranchOffsetShort))
	set(0x9a, one("ifne", BranchOffsetShort))
	set(0x9b, one("iflt", BranchOffsetShort))
	set(0x9c, one("ifge", BranchOffsetShort))
	set(0x9d, one("ifgt", BranchOffsetShort))
	set(0x9e, one("ifle", BranchOffsetShort))
	set(0x9f, one("if_icmpeq", BranchOffsetShort))
	set(0xa0, one("if_icmpne", BranchOffsetShort))
	set(0xa1, one("if_icmplt", BranchOffsetShort))
	set(0xa2, one("if_icmpge", BranchOffsetShort))
	set(0xa3, one("if_icmpgt", BranchOffsetShort))
	set(0xa4, one("if_icmple", BranchOffsetShort))
	set(0xa5, one("if_acmpeq", BranchOffsetShort))
	set(0xa6, one("if_acmpne", BranchOffsetShort))
	set(0xa7, one("goto", BranchOffsetShort))
	set(0xa8, one("jsr", BranchOffsetShort))
	set(0xa9, one("ret", LocalVariableIndexByte))
	set(0xaa, opcodeInfo{mnemonic: "tableswitch", shape: ShapeVariable, firstVersion: Java1})
	set(0xab, opcodeInfo{mnemonic: "lookupswitch", shape: ShapeVariable, firstVersion: Java1})
	set(0xac, none("ireturn"))
	set(0xad, none("lreturn"))
	set(0xae, none("freturn"))
	set(0xaf, none("dreturn"))
	set(0xb0, none("areturn"))
	set(0xb1, none("return"))
	set(0xb2, one("getstatic", ConstantPoolIndexShort))
	set(0xb3, one("putstatic", ConstantPoolIndexShort))
	set(0xb4, one("getfield", ConstantPoolIndexShort))
	set(0xb5, one("putfield", ConstantPoolIndexShort))
	set(0xb6, one("invokevirtual", ConstantPoolIndexShort))
	set(0xb7, one("invokespecial", ConstantPoolIndexShort))
	set(0xb8, one("invokestatic", ConstantPoolIndexShort))
	set(0xb9, opcodeInfo{
		mnemonic: "invokeinterface", shape: ShapeTwo,
		operands:             [2]OperandType{ConstantPoolIndexShort, UnsignedValueByte},
		requiresTrailingZero: true,
		firstVersion:         Java1,
	})
	set(0xba, opcodeInfo{
		mnemonic: "invokedynamic", shape: ShapeOne,
		operands:          [2]OperandType{ConstantPoolIndexShort},
		trailingZeroBytes: 2,
		firstVersion:      Java7,
	})
	set(0xbb, one("new", ConstantPoolIndexShortClass))
	set(0xbc, one("newarray", AtypeByte))
	set(0xbd, one("anewarray", ConstantPoolIndexShortClass))
	set(0xbe, none("arraylength"))
	set(0xbf, none("athrow"))
	set(0xc0, one("checkcast", ConstantPoolIndexShortClass))
	set(0xc1, one("instanceof", ConstantPoolIndexShortClass))
	set(0xc2, none("monitorenter"))
	set(0xc3, none("monitorexit"))
	set(0xc4, opcodeInfo{mnemonic: "wide", shape: ShapeVariable, firstVersion: Java1})
	set(0xc5, two("multianewarray", ConstantPoolIndexShortClass, UnsignedValueByte))
	set(0xc6, one("ifnull", BranchOffsetShort))
	set(0xc7, one("ifnonnull", BranchOffsetShort))
	set(0xc8, one("goto_w", BranchOffsetInt))
	set(0xc9, one("jsr_w", BranchOffsetInt))
	set(0xca, opcodeInfo{mnemonic: "breakpoint", shape: ShapeNone, reserved: true, firstVersion: Java1})
	set(0xfe, opcodeInfo{mnemonic: "impdep1", shape: ShapeNone, reserved: true, firstVersion: Java1})
	set(0xff, opcodeInfo{mnemonic: "impdep2", shape: ShapeNone, reserved: true, firstVersion: Java1})

	// jsr/jsr_w/ret were deprecated by JSR 202 and are rejected by the
	// verifier from version 51.0 on; recorded here for completeness even
	// though this module does not enforce verifier-level rules.
	t[0xa8].lastVersion = Java6
	t[0xa9].lastVersion = Java6
	t[0xc9].lastVersion = Java6

	// 0xcb..0xfd (51 byte values) are unassigned: left nil.

	return t
}

// opcodeAt returns the metadata for opcode b, or nil if b is unassigned.
func opcodeAt(b byte) *opcodeInfo {
	return opcodeTable[b]
}

// Well-known wide constants that validate which opcodes wide may wrap.
var wideEligible = map[byte]bool{
	0x15: true, // iload
	0x17: true, // fload
	0x19: true, // aload
	0x16: true, // lload
	0x18: true, // dload
	0x36: true, // istore
	0x38: true, // fstore
	0x3a: true, // astore
	0x37: true, // lstore
	0x39: true, // dstore
	0x84: true, // iinc
}
