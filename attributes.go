// Copyright 2024 The gojvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classfile

import "fmt"

// Fixed-shape attribute payloads (spec.md §4.5).
type ConstantValueAttribute struct{ ValueIndex ConstPoolIndex }
type SignatureAttribute struct{ SignatureIndex ConstPoolIndex }
type SourceFileAttribute struct{ SourceFileIndex ConstPoolIndex }
type ModuleMainClassAttribute struct{ MainClassIndex ConstPoolIndex }
type SyntheticAttribute struct{}
type DeprecatedAttribute struct{}
type EnclosingMethodAttribute struct {
	ClassIndex  ConstPoolIndex
	MethodIndex ConstPoolIndex // 0 if the enclosing context is not a method
}
type SourceDebugExtensionAttribute struct{ Bytes []byte }

type ExceptionsAttribute struct{ IndexTable []ConstPoolIndex }

type InnerClassEntry struct {
	InnerClassInfoIndex ConstPoolIndex
	OuterClassInfoIndex ConstPoolIndex // 0 if not a member
	InnerNameIndex      ConstPoolIndex // 0 if anonymous
	InnerClassAccess    uint16
}
type InnerClassesAttribute struct{ Classes []InnerClassEntry }

type LineNumberEntry struct {
	StartPC    uint16
	LineNumber uint16
}
type LineNumberTableAttribute struct{ Entries []LineNumberEntry }

type LocalVariableEntry struct {
	StartPC         uint16
	Length          uint16
	NameIndex       ConstPoolIndex
	DescriptorIndex ConstPoolIndex
	Index           uint16
}
type LocalVariableTableAttribute struct{ Entries []LocalVariableEntry }

type LocalVariableTypeEntry struct {
	StartPC        uint16
	Length         uint16
	NameIndex      ConstPoolIndex
	SignatureIndex ConstPoolIndex
	Index          uint16
}
type LocalVariableTypeTableAttribute struct{ Entries []LocalVariableTypeEntry }

type BootstrapMethodEntry struct {
	MethodRef ConstPoolIndex
	Arguments []ConstPoolIndex
}
type BootstrapMethodsAttribute struct{ Methods []BootstrapMethodEntry }

type MethodParameterEntry struct {
	NameIndex   ConstPoolIndex // 0: no name
	AccessFlags uint16
}
type MethodParametersAttribute struct{ Parameters []MethodParameterEntry }

type ModulePackagesAttribute struct{ Packages []ConstPoolIndex }

type ExceptionTableEntry struct {
	StartPC   uint16
	EndPC     uint16
	HandlerPC uint16
	CatchType ConstPoolIndex // 0: catches any exception
}

type CodeAttribute struct {
	MaxStack   uint16
	MaxLocals  uint16
	Code       []byte
	Exceptions []ExceptionTableEntry
	Attributes []*Attribute
}

// parseAttributes reads an attributes_count-prefixed table (spec.md §3,
// §4.5), dispatching each entry's payload reader via the metadata engine
// and verifying that the reader consumed exactly attribute_length bytes.
func parseAttributes(r *byteReader, st *parseState, ctxMask AttributeContext, arrayName string) ([]*Attribute, error) {
	count, err := r.u2(arrayName + "_count")
	if err != nil {
		return nil, err
	}
	out := make([]*Attribute, count)

	for i := uint16(0); i < count; i++ {
		st.ctx.push(arrayName, int(i))
		attr, err := parseOneAttribute(r, st, ctxMask)
		if err != nil {
			st.ctx.pop()
			return nil, err
		}
		out[i] = attr
		st.ctx.pop()
	}
	return out, nil
}

func parseOneAttribute(r *byteReader, st *parseState, ctxMask AttributeContext) (*Attribute, error) {
	nameIndex, err := readCPRef(r, st.cpCount, "attribute_name_index")
	if err != nil {
		return nil, err
	}
	length, err := r.u4("attribute_length")
	if err != nil {
		return nil, err
	}
	// attributeTypeAt only errors when the name index is not Utf8 at all; an
	// unrecognized or wrong-context name falls back to UnknownAttr rather
	// than erroring (spec.md §9's bitmask-intersection decision), so the
	// attribute is still read, just not specially interpreted.
	attrType, err := st.cpMeta.attributeTypeAt(nameIndex, ctxMask)
	if err != nil {
		return nil, newError(r.pos(), st.ctx.path(), "attribute_name_index", err)
	}

	start := r.pos()
	payload, err := readAttributePayload(r, st, attrType, length, ctxMask)
	if err != nil {
		return nil, err
	}
	consumed := r.pos() - start
	if uint32(consumed) != length {
		return nil, newError(r.pos(), st.ctx.path(), "attribute_length",
			fmt.Errorf("%w: declared %d, consumed %d", ErrAttributeLengthMismatch, length, consumed))
	}

	return &Attribute{
		NameIndex: ConstPoolIndex(nameIndex),
		Type:      attrType,
		Length:    length,
		Payload:   payload,
	}, nil
}

func readAttributePayload(r *byteReader, st *parseState, t AttributeType, length uint32, ctxMask AttributeContext) (interface{}, error) {
	switch t {
	case AttrConstantValue:
		idx, err := readCPRef(r, st.cpCount, "constantvalue_index")
		if err != nil {
			return nil, err
		}
		return ConstantValueAttribute{ValueIndex: ConstPoolIndex(idx)}, nil

	case AttrSignature:
		idx, err := readCPRef(r, st.cpCount, "signature_index")
		if err != nil {
			return nil, err
		}
		return SignatureAttribute{SignatureIndex: ConstPoolIndex(idx)}, nil

	case AttrSourceFile:
		idx, err := readCPRef(r, st.cpCount, "sourcefile_index")
		if err != nil {
			return nil, err
		}
		return SourceFileAttribute{SourceFileIndex: ConstPoolIndex(idx)}, nil

	case AttrModuleMainClass:
		idx, err := readCPRef(r, st.cpCount, "main_class_index")
		if err != nil {
			return nil, err
		}
		return ModuleMainClassAttribute{MainClassIndex: ConstPoolIndex(idx)}, nil

	case AttrSynthetic:
		return SyntheticAttribute{}, nil

	case AttrDeprecated:
		return DeprecatedAttribute{}, nil

	case AttrEnclosingMethod:
		classIdx, err := readCPRef(r, st.cpCount, "class_index")
		if err != nil {
			return nil, err
		}
		methodIdx, err := r.u2("method_index")
		if err != nil {
			return nil, err
		}
		if methodIdx != 0 && methodIdx >= st.cpCount {
			return nil, r.fail("method_index", ErrConstantPoolIndexRange)
		}
		return EnclosingMethodAttribute{ClassIndex: ConstPoolIndex(classIdx), MethodIndex: ConstPoolIndex(methodIdx)}, nil

	case AttrSourceDebugExtension:
		b, err := r.raw("debug_extension", int(length))
		if err != nil {
			return nil, err
		}
		return SourceDebugExtensionAttribute{Bytes: b}, nil

	case AttrExceptions:
		return readIndexTable(r, st, "number_of_exceptions", "exception_index_table",
			func(idx uint16) (ConstPoolIndex, error) {
				return ConstPoolIndex(idx), nil
			}, func(list []ConstPoolIndex) interface{} { return ExceptionsAttribute{IndexTable: list} })

	case AttrInnerClasses:
		return readInnerClasses(r, st)

	case AttrLineNumberTable:
		return readLineNumberTable(r)

	case AttrLocalVariableTable:
		return readLocalVariableTable(r, st)

	case AttrLocalVariableTypeTable:
		return readLocalVariableTypeTable(r, st)

	case AttrBootstrapMethods:
		return readBootstrapMethods(r, st)

	case AttrMethodParameters:
		return readMethodParameters(r, st)

	case AttrModulePackages:
		return readIndexTable(r, st, "package_count", "package_index",
			func(idx uint16) (ConstPoolIndex, error) { return ConstPoolIndex(idx), nil },
			func(list []ConstPoolIndex) interface{} { return ModulePackagesAttribute{Packages: list} })

	case AttrCode:
		return readCodeAttribute(r, st)

	case AttrStackMapTable:
		return readStackMapTable(r, st)

	case AttrRuntimeVisibleAnnotations, AttrRuntimeInvisibleAnnotations:
		return readAnnotationsAttribute(r, st)

	case AttrRuntimeVisibleParameterAnnotations, AttrRuntimeInvisibleParameterAnnotations:
		return readParameterAnnotationsAttribute(r, st)

	case AttrRuntimeVisibleTypeAnnotations, AttrRuntimeInvisibleTypeAnnotations:
		return readTypeAnnotationsAttribute(r, st)

	case AttrAnnotationDefault:
		ev, err := parseElementValue(r, st, 0)
		if err != nil {
			return nil, err
		}
		return AnnotationDefaultAttribute{Value: ev}, nil

	case AttrModule:
		return readModuleAttribute(r, st)

	default: // UnknownAttr
		b, err := r.raw("bytes", int(length))
		if err != nil {
			return nil, err
		}
		return RawAttribute{Bytes: b}, nil
	}
}

// readIndexTable reads a u2 count followed by that many u2 constant-pool
// indices, a shape shared by Exceptions and ModulePackages.
func readIndexTable[T any](
	r *byteReader, st *parseState, countField, field string,
	conv func(uint16) (T, error),
	wrap func([]T) interface{},
) (interface{}, error) {
	count, err := r.u2(countField)
	if err != nil {
		return nil, err
	}
	out := make([]T, count)
	for i := uint16(0); i < count; i++ {
		idx, err := readCPRef(r, st.cpCount, field)
		if err != nil {
			return nil, err
		}
		v, err := conv(idx)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return wrap(out), nil
}

func readInnerClasses(r *byteReader, st *parseState) (interface{}, error) {
	count, err := r.u2("number_of_classes")
	if err != nil {
		return nil, err
	}
	out := make([]InnerClassEntry, count)
	for i := range out {
		innerIdx, err := readCPRef(r, st.cpCount, "inner_class_info_index")
		if err != nil {
			return nil, err
		}
		outerIdx, err := r.u2("outer_class_info_index")
		if err != nil {
			return nil, err
		}
		nameIdx, err := r.u2("inner_name_index")
		if err != nil {
			return nil, err
		}
		flags, err := r.u2("inner_class_access_flags")
		if err != nil {
			return nil, err
		}
		if err := defaultFlagRuleSet().Validate(FlagKindInnerClass, flags, Java1); err != nil {
			return nil, newError(r.pos(), st.ctx.path(), "inner_class_access_flags", err)
		}
		out[i] = InnerClassEntry{
			InnerClassInfoIndex: ConstPoolIndex(innerIdx),
			OuterClassInfoIndex: ConstPoolIndex(outerIdx),
			InnerNameIndex:      ConstPoolIndex(nameIdx),
			InnerClassAccess:    flags,
		}
	}
	return InnerClassesAttribute{Classes: out}, nil
}

func readLineNumberTable(r *byteReader) (interface{}, error) {
	count, err := r.u2("line_number_table_length")
	if err != nil {
		return nil, err
	}
	out := make([]LineNumberEntry, count)
	for i := range out {
		startPC, err := r.u2("start_pc")
		if err != nil {
			return nil, err
		}
		line, err := r.u2("line_number")
		if err != nil {
			return nil, err
		}
		out[i] = LineNumberEntry{StartPC: startPC, LineNumber: line}
	}
	return LineNumberTableAttribute{Entries: out}, nil
}

func readLocalVariableTable(r *byteReader, st *parseState) (interface{}, error) {
	count, err := r.u2("local_variable_table_length")
	if err != nil {
		return nil, err
	}
	out := make([]LocalVariableEntry, count)
	for i := range out {
		startPC, err := r.u2("start_pc")
		if err != nil {
			return nil, err
		}
		length, err := r.u2("length")
		if err != nil {
			return nil, err
		}
		nameIdx, err := readCPRef(r, st.cpCount, "name_index")
		if err != nil {
			return nil, err
		}
		descIdx, err := readCPRef(r, st.cpCount, "descriptor_index")
		if err != nil {
			return nil, err
		}
		index, err := r.u2("index")
		if err != nil {
			return nil, err
		}
		out[i] = LocalVariableEntry{
			StartPC: startPC, Length: length,
			NameIndex: ConstPoolIndex(nameIdx), DescriptorIndex: ConstPoolIndex(descIdx),
			Index: index,
		}
	}
	return LocalVariableTableAttribute{Entries: out}, nil
}

func readLocalVariableTypeTable(r *byteReader, st *parseState) (interface{}, error) {
	count, err := r.u2("local_variable_type_table_length")
	if err != nil {
		return nil, err
	}
	out := make([]LocalVariableTypeEntry, count)
	for i := range out {
		startPC, err := r.u2("start_pc")
		if err != nil {
			return nil, err
		}
		length, err := r.u2("length")
		if err != nil {
			return nil, err
		}
		nameIdx, err := readCPRef(r, st.cpCount, "name_index")
		if err != nil {
			return nil, err
		}
		sigIdx, err := readCPRef(r, st.cpCount, "signature_index")
		if err != nil {
			return nil, err
		}
		index, err := r.u2("index")
		if err != nil {
			return nil, err
		}
		out[i] = LocalVariableTypeEntry{
			StartPC: startPC, Length: length,
			NameIndex: ConstPoolIndex(nameIdx), SignatureIndex: ConstPoolIndex(sigIdx),
			Index: index,
		}
	}
	return LocalVariableTypeTableAttribute{Entries: out}, nil
}

func readBootstrapMethods(r *byteReader, st *parseState) (interface{}, error) {
	count, err := r.u2("num_bootstrap_methods")
	if err != nil {
		return nil, err
	}
	out := make([]BootstrapMethodEntry, count)
	for i := range out {
		ref, err := readCPRef(r, st.cpCount, "bootstrap_method_ref")
		if err != nil {
			return nil, err
		}
		argCount, err := r.u2("num_bootstrap_arguments")
		if err != nil {
			return nil, err
		}
		args := make([]ConstPoolIndex, argCount)
		for j := range args {
			idx, err := readCPRef(r, st.cpCount, "bootstrap_arguments")
			if err != nil {
				return nil, err
			}
			args[j] = ConstPoolIndex(idx)
		}
		out[i] = BootstrapMethodEntry{MethodRef: ConstPoolIndex(ref), Arguments: args}
	}
	return BootstrapMethodsAttribute{Methods: out}, nil
}

func readMethodParameters(r *byteReader, st *parseState) (interface{}, error) {
	count, err := r.u1("parameters_count")
	if err != nil {
		return nil, err
	}
	out := make([]MethodParameterEntry, count)
	for i := range out {
		nameIdx, err := r.u2("name_index")
		if err != nil {
			return nil, err
		}
		if nameIdx != 0 && nameIdx >= st.cpCount {
			return nil, r.fail("name_index", ErrConstantPoolIndexRange)
		}
		flags, err := r.u2("access_flags")
		if err != nil {
			return nil, err
		}
		if err := defaultFlagRuleSet().Validate(FlagKindMethodParameter, flags, Java8); err != nil {
			return nil, newError(r.pos(), st.ctx.path(), "access_flags", err)
		}
		out[i] = MethodParameterEntry{NameIndex: ConstPoolIndex(nameIdx), AccessFlags: flags}
	}
	return MethodParametersAttribute{Parameters: out}, nil
}

func readCodeAttribute(r *byteReader, st *parseState) (interface{}, error) {
	maxStack, err := r.u2("max_stack")
	if err != nil {
		return nil, err
	}
	maxLocals, err := r.u2("max_locals")
	if err != nil {
		return nil, err
	}
	codeLength, err := r.u4("code_length")
	if err != nil {
		return nil, err
	}
	code, err := r.raw("code", int(codeLength))
	if err != nil {
		return nil, err
	}

	if err := validateBytecode(code, st.cpCount, maxLocals, st.opts, st.ctx, st.bcScratch); err != nil {
		return nil, err
	}

	excCount, err := r.u2("exception_table_length")
	if err != nil {
		return nil, err
	}
	exceptions := make([]ExceptionTableEntry, excCount)
	for i := range exceptions {
		startPC, err := r.u2("start_pc")
		if err != nil {
			return nil, err
		}
		endPC, err := r.u2("end_pc")
		if err != nil {
			return nil, err
		}
		handlerPC, err := r.u2("handler_pc")
		if err != nil {
			return nil, err
		}
		catchType, err := r.u2("catch_type")
		if err != nil {
			return nil, err
		}
		if catchType != 0 && catchType >= st.cpCount {
			return nil, r.fail("catch_type", ErrConstantPoolIndexRange)
		}
		exceptions[i] = ExceptionTableEntry{
			StartPC: startPC, EndPC: endPC, HandlerPC: handlerPC,
			CatchType: ConstPoolIndex(catchType),
		}
	}

	st.ctx.push("Code", -1)
	attrs, err := parseAttributes(r, st, ContextCode, "attributes")
	st.ctx.pop()
	if err != nil {
		return nil, err
	}

	return &CodeAttribute{
		MaxStack:   maxStack,
		MaxLocals:  maxLocals,
		Code:       code,
		Exceptions: exceptions,
		Attributes: attrs,
	}, nil
}
