// Copyright 2024 The gojvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classfile

import "fmt"

// verification_type_info tag values (spec.md §4.5).
const (
	vtTop               uint8 = 0
	vtInteger           uint8 = 1
	vtFloat             uint8 = 2
	vtDouble            uint8 = 3
	vtLong              uint8 = 4
	vtNull              uint8 = 5
	vtUninitializedThis uint8 = 6
	vtObject            uint8 = 7
	vtUninitialized     uint8 = 8
)

// VerificationTypeInfo is one verification_type_info entry (spec.md §4.5).
// CPIndex is meaningful only for vtObject; Offset only for vtUninitialized.
type VerificationTypeInfo struct {
	Tag     uint8
	CPIndex ConstPoolIndex
	Offset  uint16
}

// StackMapFrame is one stack_map_frame (spec.md §4.5). FrameType selects
// which of OffsetDelta/Locals/Stack/ChopCount are meaningful.
type StackMapFrame struct {
	FrameType  uint8
	OffsetDelta uint16
	Locals      []VerificationTypeInfo
	Stack       []VerificationTypeInfo
	ChopCount   int // meaningful for CHOP frames (248..250): 251 - frame_type
}

type StackMapTableAttribute struct{ Frames []StackMapFrame }

func readStackMapTable(r *byteReader, st *parseState) (interface{}, error) {
	count, err := r.u2("number_of_entries")
	if err != nil {
		return nil, err
	}
	out := make([]StackMapFrame, count)
	for i := range out {
		f, err := parseStackMapFrame(r, st)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return StackMapTableAttribute{Frames: out}, nil
}

func parseStackMapFrame(r *byteReader, st *parseState) (StackMapFrame, error) {
	frameType, err := r.u1("frame_type")
	if err != nil {
		return StackMapFrame{}, err
	}

	switch {
	case frameType <= 63: // SAME
		return StackMapFrame{FrameType: frameType, OffsetDelta: uint16(frameType)}, nil

	case frameType <= 127: // SAME_LOCALS_1_STACK_ITEM
		vt, err := parseVerificationType(r, st)
		if err != nil {
			return StackMapFrame{}, err
		}
		return StackMapFrame{
			FrameType:   frameType,
			OffsetDelta: uint16(frameType - 64),
			Stack:       []VerificationTypeInfo{vt},
		}, nil

	case frameType >= 128 && frameType <= 246: // reserved
		return StackMapFrame{}, r.fail("frame_type", fmt.Errorf("%w: %d", ErrReservedFrameType, frameType))

	case frameType == 247: // SAME_LOCALS_1_STACK_ITEM_EXTENDED
		delta, err := r.u2("offset_delta")
		if err != nil {
			return StackMapFrame{}, err
		}
		vt, err := parseVerificationType(r, st)
		if err != nil {
			return StackMapFrame{}, err
		}
		return StackMapFrame{FrameType: frameType, OffsetDelta: delta, Stack: []VerificationTypeInfo{vt}}, nil

	case frameType >= 248 && frameType <= 250: // CHOP
		delta, err := r.u2("offset_delta")
		if err != nil {
			return StackMapFrame{}, err
		}
		return StackMapFrame{FrameType: frameType, OffsetDelta: delta, ChopCount: int(251 - frameType)}, nil

	case frameType == 251: // SAME_FRAME_EXTENDED
		delta, err := r.u2("offset_delta")
		if err != nil {
			return StackMapFrame{}, err
		}
		return StackMapFrame{FrameType: frameType, OffsetDelta: delta}, nil

	case frameType >= 252 && frameType <= 254: // APPEND
		delta, err := r.u2("offset_delta")
		if err != nil {
			return StackMapFrame{}, err
		}
		n := int(frameType - 251)
		locals := make([]VerificationTypeInfo, n)
		for i := range locals {
			vt, err := parseVerificationType(r, st)
			if err != nil {
				return StackMapFrame{}, err
			}
			locals[i] = vt
		}
		return StackMapFrame{FrameType: frameType, OffsetDelta: delta, Locals: locals}, nil

	default: // 255: FULL_FRAME
		delta, err := r.u2("offset_delta")
		if err != nil {
			return StackMapFrame{}, err
		}
		localsCount, err := r.u2("number_of_locals")
		if err != nil {
			return StackMapFrame{}, err
		}
		locals := make([]VerificationTypeInfo, localsCount)
		for i := range locals {
			vt, err := parseVerificationType(r, st)
			if err != nil {
				return StackMapFrame{}, err
			}
			locals[i] = vt
		}
		stackCount, err := r.u2("number_of_stack_items")
		if err != nil {
			return StackMapFrame{}, err
		}
		stack := make([]VerificationTypeInfo, stackCount)
		for i := range stack {
			vt, err := parseVerificationType(r, st)
			if err != nil {
				return StackMapFrame{}, err
			}
			stack[i] = vt
		}
		return StackMapFrame{FrameType: frameType, OffsetDelta: delta, Locals: locals, Stack: stack}, nil
	}
}

func parseVerificationType(r *byteReader, st *parseState) (VerificationTypeInfo, error) {
	tag, err := r.u1("tag")
	if err != nil {
		return VerificationTypeInfo{}, err
	}
	switch tag {
	case vtTop, vtInteger, vtFloat, vtDouble, vtLong, vtNull, vtUninitializedThis:
		return VerificationTypeInfo{Tag: tag}, nil
	case vtObject:
		idx, err := readCPRef(r, st.cpCount, "cpool_index")
		if err != nil {
			return VerificationTypeInfo{}, err
		}
		return VerificationTypeInfo{Tag: tag, CPIndex: ConstPoolIndex(idx)}, nil
	case vtUninitialized:
		off, err := r.u2("offset")
		if err != nil {
			return VerificationTypeInfo{}, err
		}
		return VerificationTypeInfo{Tag: tag, Offset: off}, nil
	default:
		return VerificationTypeInfo{}, r.fail("tag", fmt.Errorf("%w: %d", ErrUnknownVerificationType, tag))
	}
}
