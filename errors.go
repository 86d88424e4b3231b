// Copyright 2024 The gojvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classfile

import (
	"errors"
	"fmt"
)

// Sentinel reasons wrapped by ClassFormatError. Callers that need to
// distinguish failure categories should use errors.Is against these rather
// than matching on ClassFormatError.Message.
var (
	// ErrBadMagic is returned when the first four bytes of the stream are
	// not 0xCAFEBABE.
	ErrBadMagic = errors.New("invalid magic number")

	// ErrUnexpectedEOF is returned when the stream ends in the middle of a
	// typed read.
	ErrUnexpectedEOF = errors.New("unexpected end of stream")

	// ErrMalformedUtf8 is returned when a modified-UTF-8 byte sequence does
	// not decode.
	ErrMalformedUtf8 = errors.New("malformed Utf8")

	// ErrU4TooLarge is returned when a u4 field's wire value has its high
	// bit set.
	ErrU4TooLarge = errors.New("u4 value exceeds 2^31-1")

	// ErrConstantPoolCount is returned when constant_pool_count < 1.
	ErrConstantPoolCount = errors.New("constant_pool_count must be at least 1")

	// ErrConstantPoolIndexRange is returned when a constant-pool index is
	// less than 1 or greater than or equal to constant_pool_count.
	ErrConstantPoolIndexRange = errors.New("constant pool index out of range")

	// ErrConstantPoolSecondSlot is returned when an index refers to the
	// second slot of a LONG or DOUBLE entry.
	ErrConstantPoolSecondSlot = errors.New("index refers to second slot of LONG or DOUBLE")

	// ErrUnknownTag is returned for an unrecognized constant-pool tag byte.
	ErrUnknownTag = errors.New("invalid constant pool tag")

	// ErrUnknownMethodHandleKind is returned for a method handle
	// reference_kind outside 1..9.
	ErrUnknownMethodHandleKind = errors.New("unknown method handle reference_kind")

	// ErrWrongTag is returned by the metadata engine when a caller asks for
	// a constant-pool entry expecting one tag but finds another.
	ErrWrongTag = errors.New("constant pool entry has unexpected tag")

	// ErrLocalVariableIndexRange is returned when a local-variable index is
	// not less than max_locals.
	ErrLocalVariableIndexRange = errors.New("local variable index out of range")

	// ErrInvalidAtype is returned for an array-type byte outside 4..11.
	ErrInvalidAtype = errors.New("invalid atype value")

	// ErrReservedOpcode is returned for breakpoint/impdep1/impdep2.
	ErrReservedOpcode = errors.New("opcode not permitted in class file")

	// ErrUnassignedOpcode is returned for the unassigned 0xCB..0xFD range.
	ErrUnassignedOpcode = errors.New("unassigned opcode")

	// ErrBadWideOpcode is returned when the opcode wrapped by wide is not
	// one of the eleven permitted opcodes (the ten loads/stores and iinc).
	ErrBadWideOpcode = errors.New("opcode not permitted under wide")

	// ErrSwitchPadding is returned when Options.RejectNonZeroSwitchPadding
	// is set and a tableswitch/lookupswitch padding byte is non-zero.
	ErrSwitchPadding = errors.New("non-zero switch padding byte")

	// ErrLookupswitchOrder is returned when a lookupswitch's match table is
	// not strictly increasing.
	ErrLookupswitchOrder = errors.New("out-of-order match-offset pair")

	// ErrTableswitchRange is returned when a tableswitch's high is less
	// than its low.
	ErrTableswitchRange = errors.New("tableswitch high less than low")

	// ErrNegativeNpairs is returned when a lookupswitch's npairs is
	// negative.
	ErrNegativeNpairs = errors.New("lookupswitch npairs is negative")

	// ErrBranchTarget is returned when a jump target lands outside the code
	// array or between instruction boundaries.
	ErrBranchTarget = errors.New("branch target is not a valid instruction boundary")

	// ErrAttributeLengthMismatch is returned when an attribute's declared
	// length does not match its consumed payload size.
	ErrAttributeLengthMismatch = errors.New("attribute length mismatch")

	// ErrAttributeWrongContext names an attribute found in a context its
	// type does not permit. The parser does not return it: such an
	// attribute is read as UnknownAttr with a RawAttribute payload.
	ErrAttributeWrongContext = errors.New("attribute not legal in this context")

	// ErrUnknownElementValueTag is returned for an element_value tag
	// outside the defined set.
	ErrUnknownElementValueTag = errors.New("unknown element_value tag")

	// ErrUnknownTargetType is returned for a type-annotation target_type
	// byte outside the defined set.
	ErrUnknownTargetType = errors.New("unknown type annotation target_type")

	// ErrUnknownTypePathKind is returned for a type_path_kind outside 0..3.
	ErrUnknownTypePathKind = errors.New("unknown type_path_kind")

	// ErrUnknownVerificationType is returned for a verification_type_info
	// tag outside 0..8.
	ErrUnknownVerificationType = errors.New("unknown verification_type_info tag")

	// ErrReservedFrameType is returned for a stack map frame_type in the
	// reserved 128..246 range.
	ErrReservedFrameType = errors.New("reserved stack map frame_type")

	// ErrFlagMix is returned when an access-flags field violates a
	// version-sensitive rule.
	ErrFlagMix = errors.New("invalid flag mix")

	// ErrAnnotationTooDeep is returned when nested element_value arrays and
	// annotations exceed Options.MaxAnnotationDepth.
	ErrAnnotationTooDeep = errors.New("annotation nesting too deep")
)

// ClassFormatError is the single error type every exported parse failure
// surfaces as. It names a byte offset into the input stream, a
// dot-separated context path describing where in the class file the
// failure occurred, and optionally wraps a lower-level cause.
type ClassFormatError struct {
	// Offset is the byte position in the input stream the error was
	// detected at.
	Offset int64

	// Context is a dot-separated path, e.g. "methods[2].Code.code".
	Context string

	// Message is a human-readable description of the failure.
	Message string

	// Cause is the wrapped lower-level error, if any (typically one of the
	// sentinels above).
	Cause error
}

func (e *ClassFormatError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: %s (offset %d): %v", e.Context, e.Message, e.Offset, e.Cause)
	}
	return fmt.Sprintf("%s (offset %d): %v", e.Message, e.Offset, e.Cause)
}

func (e *ClassFormatError) Unwrap() error {
	return e.Cause
}

// newError builds a ClassFormatError, wrapping cause and labelling it with
// the current context path and field name.
func newError(offset int64, context, field string, cause error) *ClassFormatError {
	ctx := context
	if field != "" {
		if ctx != "" {
			ctx += "." + field
		} else {
			ctx = field
		}
	}
	return &ClassFormatError{
		Offset:  offset,
		Context: ctx,
		Message: cause.Error(),
		Cause:   cause,
	}
}
