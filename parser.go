// Copyright 2024 The gojvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classfile

import (
	"fmt"
	"io"

	"github.com/gojvm/classfile/log"
)

// magicNumber is the mandatory first four bytes of every class file.
const magicNumber uint32 = 0xCAFEBABE

// Options configures a Parser (spec.md §2, §4.6, §7). The zero value is not
// ready to use; call NewOptions for sensible defaults.
type Options struct {
	// MaxAnnotationDepth bounds recursive element_value nesting ('[' arrays
	// and '@' nested annotations).
	// Default 64.
	MaxAnnotationDepth int

	// RejectNonZeroSwitchPadding rejects a tableswitch/lookupswitch whose
	// padding bytes are not all zero. Default false (lenient): padding is
	// skipped without inspection, matching most production JVMs' tolerance.
	RejectNonZeroSwitchPadding bool

	// ContextStackDepth is the pre-allocated depth of the diagnostic context
	// stack (spec.md §4.7). Default 8.
	ContextStackDepth int

	// Logger receives structured progress and anomaly messages. Default
	// log.NewStdLogger(io.Discard).
	Logger log.Logger
}

// NewOptions returns the default Options (spec.md §2).
func NewOptions() *Options {
	return &Options{
		MaxAnnotationDepth: 64,
		ContextStackDepth:  8,
		Logger:             log.NewStdLogger(io.Discard),
	}
}

func (o *Options) helper() *log.Helper {
	if o == nil || o.Logger == nil {
		return log.NewHelper(log.NewFilter(log.NewStdLogger(io.Discard), log.FilterLevel(log.LevelError)))
	}
	return log.NewHelper(o.Logger)
}

// contextStack is the small explicit stack of (array-name, array-index)
// frames the orchestrator maintains so every leaf-field error can be
// labelled with a path like "methods[3].Code.attributes[1]" (spec.md §4.7).
type contextStack struct {
	frames []frame
}

type frame struct {
	name  string
	index int // -1 for a frame with no index (e.g. "Code")
}

func newContextStack(depth int) *contextStack {
	if depth <= 0 {
		depth = 8
	}
	return &contextStack{frames: make([]frame, 0, depth)}
}

// push adds a frame. index -1 renders as just the bare name (e.g. "Code");
// otherwise it renders as "name[index]".
func (c *contextStack) push(name string, index int) {
	c.frames = append(c.frames, frame{name: name, index: index})
}

func (c *contextStack) pop() {
	c.frames = c.frames[:len(c.frames)-1]
}

// path renders the current stack as a dot-separated string.
func (c *contextStack) path() string {
	if len(c.frames) == 0 {
		return ""
	}
	s := ""
	for i, f := range c.frames {
		if i > 0 {
			s += "."
		}
		if f.index < 0 {
			s += f.name
		} else {
			s += fmt.Sprintf("%s[%d]", f.name, f.index)
		}
	}
	return s
}

// parseState threads the read-only configuration and mutable scratch space
// every sub-parser needs, so function signatures stay small as the decoder
// family grows (spec.md §5's guidance that the bytecode validator's
// jump-target bitmap and jump-pair array are retained across methods).
type parseState struct {
	opts      *Options
	cpCount   uint16
	cpMeta    *cpMetadata
	ctx       *contextStack
	bcScratch *bytecodeScratch
}

// Parser parses a single class file. It is not safe for concurrent use by
// multiple goroutines; create one Parser per class file (spec.md §5).
type Parser struct {
	opts *Options
}

// NewParser creates a Parser. A nil opts uses NewOptions().
func NewParser(opts *Options) *Parser {
	if opts == nil {
		opts = NewOptions()
	}
	return &Parser{opts: opts}
}

// Parse reads a complete class file from r (spec.md §4, §6). On success it
// returns the fully decoded document; on failure it returns a
// *ClassFormatError.
func (p *Parser) Parse(r io.Reader) (*ClassFile, error) {
	ctx := newContextStack(p.opts.ContextStackDepth)
	br := newByteReader(r, ctx)
	helper := p.opts.helper()

	magic, err := br.u4("magic")
	if err != nil {
		return nil, err
	}
	if magic != magicNumber {
		return nil, br.fail("magic", ErrBadMagic)
	}

	minor, err := br.u2("minor_version")
	if err != nil {
		return nil, err
	}
	major, err := br.u2("major_version")
	if err != nil {
		return nil, err
	}
	version := ClassFileVersion{Major: major, Minor: minor}
	helper.Debugf("parsed class file version %s", version)

	cp, err := parseConstantPool(br, ctx)
	if err != nil {
		return nil, err
	}

	st := &parseState{
		opts:      p.opts,
		cpCount:   cp.Count(),
		cpMeta:    cp.metadata,
		ctx:       ctx,
		bcScratch: newBytecodeScratch(),
	}

	accessFlags, err := br.u2("access_flags")
	if err != nil {
		return nil, err
	}
	if err := defaultFlagRuleSet().Validate(FlagKindClass, accessFlags, version); err != nil {
		return nil, newError(br.pos(), ctx.path(), "access_flags", err)
	}

	thisClass, err := readCPRef(br, st.cpCount, "this_class")
	if err != nil {
		return nil, err
	}
	// super_class is 0 only for java/lang/Object.
	superClass, err := br.u2("super_class")
	if err != nil {
		return nil, err
	}
	if superClass != 0 {
		if superClass >= st.cpCount {
			return nil, br.fail("super_class", ErrConstantPoolIndexRange)
		}
	}

	interfacesCount, err := br.u2("interfaces_count")
	if err != nil {
		return nil, err
	}
	interfaces := make([]ConstPoolIndex, interfacesCount)
	for i := uint16(0); i < interfacesCount; i++ {
		idx, err := readCPRef(br, st.cpCount, fmt.Sprintf("interfaces[%d]", i))
		if err != nil {
			return nil, err
		}
		interfaces[i] = ConstPoolIndex(idx)
	}

	fields, err := parseMembers(br, st, "fields", accessFlags, FlagKindField, version,
		func(classFlags, memberFlags uint16) error { return interfaceFieldFlagCheck(classFlags, memberFlags) })
	if err != nil {
		return nil, err
	}

	methods, err := parseMembers(br, st, "methods", accessFlags, FlagKindMethod, version,
		func(classFlags, memberFlags uint16) error {
			return interfaceMethodFlagCheck(classFlags, memberFlags, version)
		})
	if err != nil {
		return nil, err
	}

	attrs, err := parseAttributes(br, st, ContextClassFile, "attributes")
	if err != nil {
		return nil, err
	}

	helper.Infof("parsed class file: %d constant pool entries, %d fields, %d methods, %d attributes",
		cp.Count(), len(fields), len(methods), len(attrs))

	return &ClassFile{
		Magic:        magicNumber,
		Version:      version,
		ConstantPool: cp,
		AccessFlags:  accessFlags,
		ThisClass:    ConstPoolIndex(thisClass),
		SuperClass:   ConstPoolIndex(superClass),
		Interfaces:   interfaces,
		Fields:       fields,
		Methods:      methods,
		Attributes:   attrs,
	}, nil
}

// Parse is a package-level convenience wrapper around NewParser(nil).Parse.
func Parse(r io.Reader) (*ClassFile, error) {
	return NewParser(nil).Parse(r)
}

// parseMembers reads a field_info/method_info table: a u2 count followed by
// that many access_flags/name_index/descriptor_index/attributes groups
// (spec.md §3, §6), applying both the flat per-kind flagRule table and the
// interface-dependent check supplied by the caller.
func parseMembers(
	r *byteReader,
	st *parseState,
	arrayName string,
	classFlags uint16,
	kind FlagKind,
	version ClassFileVersion,
	interfaceCheck func(classFlags, memberFlags uint16) error,
) ([]*Member, error) {
	count, err := r.u2(arrayName + "_count")
	if err != nil {
		return nil, err
	}
	members := make([]*Member, count)

	for i := uint16(0); i < count; i++ {
		st.ctx.push(arrayName, int(i))

		flags, err := r.u2("access_flags")
		if err != nil {
			st.ctx.pop()
			return nil, err
		}
		if err := defaultFlagRuleSet().Validate(kind, flags, version); err != nil {
			st.ctx.pop()
			return nil, newError(r.pos(), st.ctx.path(), "access_flags", err)
		}
		if err := interfaceCheck(classFlags, flags); err != nil {
			st.ctx.pop()
			return nil, newError(r.pos(), st.ctx.path(), "access_flags", err)
		}

		nameIndex, err := readCPRef(r, st.cpCount, "name_index")
		if err != nil {
			st.ctx.pop()
			return nil, err
		}
		if err := st.cpMeta.requireTag(nameIndex, TagUtf8); err != nil {
			st.ctx.pop()
			return nil, newError(r.pos(), st.ctx.path(), "name_index", err)
		}
		descIndex, err := readCPRef(r, st.cpCount, "descriptor_index")
		if err != nil {
			st.ctx.pop()
			return nil, err
		}

		memberCtx := ContextField
		if kind == FlagKindMethod {
			memberCtx = ContextMethod
		}
		attrs, err := parseAttributes(r, st, memberCtx, "attributes")
		if err != nil {
			st.ctx.pop()
			return nil, err
		}

		members[i] = &Member{
			AccessFlags:     flags,
			NameIndex:       ConstPoolIndex(nameIndex),
			DescriptorIndex: ConstPoolIndex(descIndex),
			Attributes:      attrs,
		}
		st.ctx.pop()
	}
	return members, nil
}
