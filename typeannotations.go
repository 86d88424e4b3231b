// Copyright 2024 The gojvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classfile

import "fmt"

// target_type values and the target_info shape they select (spec.md §4.5).
// All 22 values are listed, each annotated with its target_info shape.
const (
	ttClassTypeParameter          = 0x00 // type_parameter_target
	ttMethodTypeParameter         = 0x01 // type_parameter_target
	ttClassExtends                = 0x10 // supertype_target
	ttClassTypeParameterBound     = 0x11 // type_parameter_bound_target
	ttMethodTypeParameterBound    = 0x12 // type_parameter_bound_target
	ttField                       = 0x13 // empty_target
	ttMethodReturn                = 0x14 // empty_target
	ttMethodReceiver              = 0x15 // empty_target
	ttMethodFormalParameter       = 0x16 // formal_parameter_target
	ttThrows                      = 0x17 // throws_target
	ttLocalVariable                = 0x40 // localvar_target
	ttResourceVariable             = 0x41 // localvar_target
	ttExceptionParameter            = 0x42 // catch_target
	ttInstanceof                  = 0x43 // offset_target
	ttNew                         = 0x44 // offset_target
	ttConstructorReference        = 0x45 // offset_target
	ttMethodReference             = 0x46 // offset_target
	ttCast                        = 0x47 // type_argument_target
	ttConstructorInvocationTypeArgument = 0x48 // type_argument_target
	ttMethodInvocationTypeArgument      = 0x49 // type_argument_target
	ttConstructorReferenceTypeArgument  = 0x4A // type_argument_target
	ttMethodReferenceTypeArgument       = 0x4B // type_argument_target
)

// TargetInfo is the tagged union of the ten target_info shapes (spec.md
// §4.5). Exactly the fields relevant to TargetType are populated.
type TargetInfo struct {
	// type_parameter_target
	HasTypeParameterIndex bool
	TypeParameterIndex    uint8

	// supertype_target
	HasSupertypeIndex bool
	SupertypeIndex    uint16

	// type_parameter_bound_target
	HasBound     bool
	BoundParamIndex uint8
	BoundIndex      uint8

	// formal_parameter_target
	HasFormalParameterIndex bool
	FormalParameterIndex    uint8

	// throws_target
	HasThrowsTypeIndex bool
	ThrowsTypeIndex    uint16

	// localvar_target
	HasLocalvarTable bool
	LocalvarTable    []LocalvarTargetEntry

	// catch_target
	HasExceptionTableIndex bool
	ExceptionTableIndex    uint16

	// offset_target
	HasOffset bool
	Offset    uint16

	// type_argument_target
	HasTypeArgumentIndex bool
	TypeArgumentOffset   uint16
	TypeArgumentIndex    uint8
}

type LocalvarTargetEntry struct {
	StartPC uint16
	Length  uint16
	Index   uint16
}

// TypePathEntry is one (type_path_kind, type_argument_index) pair.
type TypePathEntry struct {
	Kind              uint8
	TypeArgumentIndex uint8
}

// TypeAnnotation is a type annotation occurrence: a target_type byte, its
// target_info, a type_path, and the same (type_index, elements) shape as a
// plain Annotation (spec.md §4.5).
type TypeAnnotation struct {
	TargetType uint8
	Target     TargetInfo
	TypePath   []TypePathEntry
	TypeIndex  ConstPoolIndex
	Elements   []AnnotationElement
}

type TypeAnnotationsAttribute struct{ Annotations []TypeAnnotation }

func readTypeAnnotationsAttribute(r *byteReader, st *parseState) (interface{}, error) {
	count, err := r.u2("num_annotations")
	if err != nil {
		return nil, err
	}
	out := make([]TypeAnnotation, count)
	for i := range out {
		ta, err := parseTypeAnnotation(r, st)
		if err != nil {
			return nil, err
		}
		out[i] = ta
	}
	return TypeAnnotationsAttribute{Annotations: out}, nil
}

func parseTypeAnnotation(r *byteReader, st *parseState) (TypeAnnotation, error) {
	targetType, err := r.u1("target_type")
	if err != nil {
		return TypeAnnotation{}, err
	}
	target, err := parseTargetInfo(r, targetType)
	if err != nil {
		return TypeAnnotation{}, err
	}
	path, err := parseTypePath(r)
	if err != nil {
		return TypeAnnotation{}, err
	}
	typeIdx, err := readCPRef(r, st.cpCount, "type_index")
	if err != nil {
		return TypeAnnotation{}, err
	}
	pairCount, err := r.u2("num_element_value_pairs")
	if err != nil {
		return TypeAnnotation{}, err
	}
	elems := make([]AnnotationElement, pairCount)
	for i := range elems {
		nameIdx, err := readCPRef(r, st.cpCount, "element_name_index")
		if err != nil {
			return TypeAnnotation{}, err
		}
		val, err := parseElementValue(r, st, 0)
		if err != nil {
			return TypeAnnotation{}, err
		}
		elems[i] = AnnotationElement{NameIndex: ConstPoolIndex(nameIdx), Value: val}
	}
	return TypeAnnotation{
		TargetType: targetType,
		Target:     target,
		TypePath:   path,
		TypeIndex:  ConstPoolIndex(typeIdx),
		Elements:   elems,
	}, nil
}

func parseTargetInfo(r *byteReader, targetType uint8) (TargetInfo, error) {
	switch targetType {
	case ttClassTypeParameter, ttMethodTypeParameter:
		v, err := r.u1("type_parameter_index")
		if err != nil {
			return TargetInfo{}, err
		}
		return TargetInfo{HasTypeParameterIndex: true, TypeParameterIndex: v}, nil

	case ttClassExtends:
		v, err := r.u2("supertype_index")
		if err != nil {
			return TargetInfo{}, err
		}
		return TargetInfo{HasSupertypeIndex: true, SupertypeIndex: v}, nil

	case ttClassTypeParameterBound, ttMethodTypeParameterBound:
		p, err := r.u1("type_parameter_index")
		if err != nil {
			return TargetInfo{}, err
		}
		b, err := r.u1("bound_index")
		if err != nil {
			return TargetInfo{}, err
		}
		return TargetInfo{HasBound: true, BoundParamIndex: p, BoundIndex: b}, nil

	case ttField, ttMethodReturn, ttMethodReceiver:
		return TargetInfo{}, nil

	case ttMethodFormalParameter:
		v, err := r.u1("formal_parameter_index")
		if err != nil {
			return TargetInfo{}, err
		}
		return TargetInfo{HasFormalParameterIndex: true, FormalParameterIndex: v}, nil

	case ttThrows:
		v, err := r.u2("throws_type_index")
		if err != nil {
			return TargetInfo{}, err
		}
		return TargetInfo{HasThrowsTypeIndex: true, ThrowsTypeIndex: v}, nil

	case ttLocalVariable, ttResourceVariable:
		count, err := r.u2("table_length")
		if err != nil {
			return TargetInfo{}, err
		}
		table := make([]LocalvarTargetEntry, count)
		for i := range table {
			startPC, err := r.u2("start_pc")
			if err != nil {
				return TargetInfo{}, err
			}
			length, err := r.u2("length")
			if err != nil {
				return TargetInfo{}, err
			}
			index, err := r.u2("index")
			if err != nil {
				return TargetInfo{}, err
			}
			table[i] = LocalvarTargetEntry{StartPC: startPC, Length: length, Index: index}
		}
		return TargetInfo{HasLocalvarTable: true, LocalvarTable: table}, nil

	case ttExceptionParameter:
		v, err := r.u2("exception_table_index")
		if err != nil {
			return TargetInfo{}, err
		}
		return TargetInfo{HasExceptionTableIndex: true, ExceptionTableIndex: v}, nil

	case ttInstanceof, ttNew, ttConstructorReference, ttMethodReference:
		v, err := r.u2("offset")
		if err != nil {
			return TargetInfo{}, err
		}
		return TargetInfo{HasOffset: true, Offset: v}, nil

	case ttCast, ttConstructorInvocationTypeArgument, ttMethodInvocationTypeArgument,
		ttConstructorReferenceTypeArgument, ttMethodReferenceTypeArgument:
		off, err := r.u2("offset")
		if err != nil {
			return TargetInfo{}, err
		}
		idx, err := r.u1("type_argument_index")
		if err != nil {
			return TargetInfo{}, err
		}
		return TargetInfo{HasTypeArgumentIndex: true, TypeArgumentOffset: off, TypeArgumentIndex: idx}, nil

	default:
		return TargetInfo{}, r.fail("target_type", fmt.Errorf("%w: 0x%02x", ErrUnknownTargetType, targetType))
	}
}

func parseTypePath(r *byteReader) ([]TypePathEntry, error) {
	count, err := r.u1("path_length")
	if err != nil {
		return nil, err
	}
	out := make([]TypePathEntry, count)
	for i := range out {
		kind, err := r.u1("type_path_kind")
		if err != nil {
			return nil, err
		}
		if kind > 3 {
			return nil, r.fail("type_path_kind", fmt.Errorf("%w: %d", ErrUnknownTypePathKind, kind))
		}
		argIdx, err := r.u1("type_argument_index")
		if err != nil {
			return nil, err
		}
		out[i] = TypePathEntry{Kind: kind, TypeArgumentIndex: argIdx}
	}
	return out, nil
}
