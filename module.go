// Copyright 2024 The gojvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classfile

// RequiresEntry is one entry of the Module attribute's requires table.
type RequiresEntry struct {
	Index   ConstPoolIndex
	Flags   uint16
	Version ConstPoolIndex // 0: no version
}

// ExportsEntry is one entry of the exports or opens table (same shape).
type ExportsEntry struct {
	Index   ConstPoolIndex
	Flags   uint16
	ToIndex []ConstPoolIndex
}

type UsesEntry struct {
	Index ConstPoolIndex
}

type ProvidesEntry struct {
	Index     ConstPoolIndex
	WithIndex []ConstPoolIndex
}

// ModuleAttribute is the Module attribute's payload: the module's own
// name/flags/version, plus five nested tables (spec.md §4.5).
type ModuleAttribute struct {
	NameIndex    ConstPoolIndex
	Flags        uint16
	VersionIndex ConstPoolIndex // 0: no version

	Requires []RequiresEntry
	Exports  []ExportsEntry
	Opens    []ExportsEntry
	Uses     []UsesEntry
	Provides []ProvidesEntry
}

func readModuleAttribute(r *byteReader, st *parseState) (interface{}, error) {
	nameIdx, err := readCPRef(r, st.cpCount, "module_name_index")
	if err != nil {
		return nil, err
	}
	flags, err := r.u2("module_flags")
	if err != nil {
		return nil, err
	}
	if err := defaultFlagRuleSet().Validate(FlagKindModule, flags, Java9); err != nil {
		return nil, newError(r.pos(), st.ctx.path(), "module_flags", err)
	}
	versionIdx, err := r.u2("module_version_index")
	if err != nil {
		return nil, err
	}
	if versionIdx != 0 && versionIdx >= st.cpCount {
		return nil, r.fail("module_version_index", ErrConstantPoolIndexRange)
	}

	requiresCount, err := r.u2("requires_count")
	if err != nil {
		return nil, err
	}
	requires := make([]RequiresEntry, requiresCount)
	for i := range requires {
		idx, err := readCPRef(r, st.cpCount, "requires_index")
		if err != nil {
			return nil, err
		}
		f, err := r.u2("requires_flags")
		if err != nil {
			return nil, err
		}
		if err := defaultFlagRuleSet().Validate(FlagKindModuleRequires, f, Java9); err != nil {
			return nil, newError(r.pos(), st.ctx.path(), "requires_flags", err)
		}
		ver, err := r.u2("requires_version_index")
		if err != nil {
			return nil, err
		}
		if ver != 0 && ver >= st.cpCount {
			return nil, r.fail("requires_version_index", ErrConstantPoolIndexRange)
		}
		requires[i] = RequiresEntry{Index: ConstPoolIndex(idx), Flags: f, Version: ConstPoolIndex(ver)}
	}

	exports, err := readExportsOrOpens(r, st, "exports")
	if err != nil {
		return nil, err
	}
	opens, err := readExportsOrOpens(r, st, "opens")
	if err != nil {
		return nil, err
	}

	usesCount, err := r.u2("uses_count")
	if err != nil {
		return nil, err
	}
	uses := make([]UsesEntry, usesCount)
	for i := range uses {
		idx, err := readCPRef(r, st.cpCount, "uses_index")
		if err != nil {
			return nil, err
		}
		uses[i] = UsesEntry{Index: ConstPoolIndex(idx)}
	}

	providesCount, err := r.u2("provides_count")
	if err != nil {
		return nil, err
	}
	provides := make([]ProvidesEntry, providesCount)
	for i := range provides {
		idx, err := readCPRef(r, st.cpCount, "provides_index")
		if err != nil {
			return nil, err
		}
		withCount, err := r.u2("provides_with_count")
		if err != nil {
			return nil, err
		}
		with := make([]ConstPoolIndex, withCount)
		for j := range with {
			wIdx, err := readCPRef(r, st.cpCount, "provides_with_index")
			if err != nil {
				return nil, err
			}
			with[j] = ConstPoolIndex(wIdx)
		}
		provides[i] = ProvidesEntry{Index: ConstPoolIndex(idx), WithIndex: with}
	}

	return &ModuleAttribute{
		NameIndex:    ConstPoolIndex(nameIdx),
		Flags:        flags,
		VersionIndex: ConstPoolIndex(versionIdx),
		Requires:     requires,
		Exports:      exports,
		Opens:        opens,
		Uses:         uses,
		Provides:     provides,
	}, nil
}

func readExportsOrOpens(r *byteReader, st *parseState, kind string) ([]ExportsEntry, error) {
	count, err := r.u2(kind + "_count")
	if err != nil {
		return nil, err
	}
	out := make([]ExportsEntry, count)
	for i := range out {
		idx, err := readCPRef(r, st.cpCount, kind+"_index")
		if err != nil {
			return nil, err
		}
		flags, err := r.u2(kind + "_flags")
		if err != nil {
			return nil, err
		}
		if err := defaultFlagRuleSet().Validate(FlagKindModuleExportsOpens, flags, Java9); err != nil {
			return nil, newError(r.pos(), st.ctx.path(), kind+"_flags", err)
		}
		toCount, err := r.u2(kind + "_to_count")
		if err != nil {
			return nil, err
		}
		to := make([]ConstPoolIndex, toCount)
		for j := range to {
			toIdx, err := readCPRef(r, st.cpCount, kind+"_to_index")
			if err != nil {
				return nil, err
			}
			to[j] = ConstPoolIndex(toIdx)
		}
		out[i] = ExportsEntry{Index: ConstPoolIndex(idx), Flags: flags, ToIndex: to}
	}
	return out, nil
}
