// Copyright 2024 The gojvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classfile

import (
	"fmt"
	"sync"
)

// FlagKind identifies which entity's flag field is being validated, since
// the same bit position means different things (or nothing) depending on
// the entity (spec.md §4.4).
type FlagKind int

const (
	FlagKindClass FlagKind = iota
	FlagKindField
	FlagKindMethod
	FlagKindInnerClass
	FlagKindMethodParameter
	FlagKindModule
	FlagKindModuleRequires
	FlagKindModuleExportsOpens
)

// Class access flag bits.
const (
	AccPublic     uint16 = 0x0001
	AccPrivate    uint16 = 0x0002
	AccProtected  uint16 = 0x0004
	AccStatic     uint16 = 0x0008
	AccFinal      uint16 = 0x0010
	AccSuper      uint16 = 0x0020
	AccSynchron   uint16 = 0x0020 // method: synchronized (same bit as super)
	AccOpen       uint16 = 0x0020 // module: open (same bit as super)
	AccTransitive uint16 = 0x0020 // module requires: transitive (same bit)
	AccVolatile   uint16 = 0x0040
	AccBridge     uint16 = 0x0040
	AccStaticPh   uint16 = 0x0040 // module requires: static phase
	AccTransient  uint16 = 0x0080
	AccVarargs    uint16 = 0x0080
	AccNative     uint16 = 0x0100
	AccInterface  uint16 = 0x0200
	AccAbstract   uint16 = 0x0400
	AccStrict     uint16 = 0x0800
	AccSynthetic  uint16 = 0x1000
	AccAnnotation uint16 = 0x2000
	AccEnum       uint16 = 0x4000
	AccModule     uint16 = 0x8000
	AccMandated   uint16 = 0x8000
)

// flagRule is a single named predicate over a flag set, applicable to one
// entity kind within a version range (spec.md §4.4).
type flagRule struct {
	reason string
	kind   FlagKind
	first  ClassFileVersion
	last   ClassFileVersion // zero value: no upper bound
	check  func(flags uint16) bool
}

func (r flagRule) appliesAt(v ClassFileVersion) bool {
	return v.InRange(r.first, r.last)
}

// Rule primitives (spec.md §4.4). Each returns a predicate over the parsed
// flag set; "satisfied" means the rule holds, i.e. there is no violation.

func exactlyOneOf(bits ...uint16) func(uint16) bool {
	return func(flags uint16) bool {
		n := 0
		for _, b := range bits {
			if flags&b != 0 {
				n++
			}
		}
		return n == 1
	}
}

func atMostOneOf(bits ...uint16) func(uint16) bool {
	return func(flags uint16) bool {
		n := 0
		for _, b := range bits {
			if flags&b != 0 {
				n++
			}
		}
		return n <= 1
	}
}

func implies(a, b uint16) func(uint16) bool {
	return func(flags uint16) bool {
		if flags&a == 0 {
			return true
		}
		return flags&b != 0
	}
}

func excludes(a uint16, others ...uint16) func(uint16) bool {
	return func(flags uint16) bool {
		if flags&a == 0 {
			return true
		}
		for _, o := range others {
			if flags&o != 0 {
				return false
			}
		}
		return true
	}
}

func noneOf(bits ...uint16) func(uint16) bool {
	return func(flags uint16) bool {
		for _, b := range bits {
			if flags&b != 0 {
				return false
			}
		}
		return true
	}
}

func allOf(bits ...uint16) func(uint16) bool {
	return func(flags uint16) bool {
		for _, b := range bits {
			if flags&b == 0 {
				return false
			}
		}
		return true
	}
}

func onlyTheseOf(allowed uint16) func(uint16) bool {
	return func(flags uint16) bool {
		return flags&^allowed == 0
	}
}

// FlagRuleSet validates a flag field of the given kind at the given
// class-file version (spec.md §2's "treated as a pluggable validation
// table"). The default table is complete and runnable; callers may supply
// their own.
type FlagRuleSet interface {
	Validate(kind FlagKind, flags uint16, version ClassFileVersion) error
}

type tableFlagRuleSet struct {
	rules []flagRule
}

func (t *tableFlagRuleSet) Validate(kind FlagKind, flags uint16, version ClassFileVersion) error {
	for _, rule := range t.rules {
		if rule.kind != kind {
			continue
		}
		if !rule.appliesAt(version) {
			continue
		}
		if !rule.check(flags) {
			return fmt.Errorf("%w: %s (flags=0x%04x)", ErrFlagMix, rule.reason, flags)
		}
	}
	return nil
}

var (
	defaultFlagRuleSetOnce sync.Once
	defaultFlagRuleSetPtr  *tableFlagRuleSet
)

// defaultFlagRuleSet lazily builds the process-wide default rule table. The
// build is idempotent, so concurrent first calls racing to build it are
// benign (spec.md §5, §9): every build produces an equivalent table and
// sync.Once guarantees only one is ever published.
func defaultFlagRuleSet() *tableFlagRuleSet {
	defaultFlagRuleSetOnce.Do(func() {
		defaultFlagRuleSetPtr = &tableFlagRuleSet{rules: buildDefaultFlagRules()}
	})
	return defaultFlagRuleSetPtr
}

func buildDefaultFlagRules() []flagRule {
	var rules []flagRule

	// --- Class flags ---
	rules = append(rules,
		flagRule{
			reason: "interface must also set abstract",
			kind:   FlagKindClass,
			first:  Java1,
			check:  implies(AccInterface, AccAbstract),
		},
		flagRule{
			reason: "interface must not set final",
			kind:   FlagKindClass,
			first:  Java1,
			check:  excludes(AccInterface, AccFinal),
		},
		flagRule{
			reason: "class must not set both final and abstract",
			kind:   FlagKindClass,
			first:  Java1,
			check:  func(f uint16) bool { return !(f&AccFinal != 0 && f&AccAbstract != 0) },
		},
		flagRule{
			reason: "annotation type must also set interface",
			kind:   FlagKindClass,
			first:  Java5,
			check:  implies(AccAnnotation, AccInterface),
		},
		flagRule{
			reason: "enum must not set interface",
			kind:   FlagKindClass,
			first:  Java5,
			check:  excludes(AccEnum, AccInterface),
		},
		flagRule{
			reason: "module class file must set no other flag bits",
			kind:   FlagKindClass,
			first:  Java9,
			check: func(f uint16) bool {
				if f&AccModule == 0 {
					return true
				}
				return f == AccModule
			},
		},
	)

	// --- Field flags ---
	rules = append(rules,
		flagRule{
			reason: "at most one of public, private, protected",
			kind:   FlagKindField,
			first:  Java1,
			check:  atMostOneOf(AccPublic, AccPrivate, AccProtected),
		},
		flagRule{
			reason: "final and volatile are mutually exclusive",
			kind:   FlagKindField,
			first:  Java1,
			check:  func(f uint16) bool { return !(f&AccFinal != 0 && f&AccVolatile != 0) },
		},
	)
	// Interface fields (must be public, static, final) are checked by
	// interfaceFieldFlagCheck below, which needs the enclosing class's
	// flags and so cannot be expressed as a per-kind flagRule.

	// --- Method flags ---
	rules = append(rules,
		flagRule{
			reason: "at most one of public, private, protected",
			kind:   FlagKindMethod,
			first:  Java1,
			check:  atMostOneOf(AccPublic, AccPrivate, AccProtected),
		},
		flagRule{
			reason: "abstract method must not also be final, native, private, static, synchronized, or strictfp",
			kind:   FlagKindMethod,
			first:  Java1,
			check:  excludes(AccAbstract, AccFinal, AccNative, AccPrivate, AccStatic, AccSynchron, AccStrict),
		},
	)
	// The interface-method public/private/abstract bifurcation at Java 8
	// (spec.md §4.4) needs the enclosing class's flags and is checked by
	// interfaceMethodFlagCheck below rather than as a per-kind flagRule.

	// --- Inner class flags ---
	rules = append(rules,
		flagRule{
			reason: "at most one of public, private, protected",
			kind:   FlagKindInnerClass,
			first:  Java1,
			check:  atMostOneOf(AccPublic, AccPrivate, AccProtected),
		},
		flagRule{
			reason: "interface must also set abstract",
			kind:   FlagKindInnerClass,
			first:  Java1,
			check:  implies(AccInterface, AccAbstract),
		},
	)

	// --- Method parameter flags ---
	rules = append(rules, flagRule{
		reason: "method parameter flags are limited to final, synthetic, mandated",
		kind:   FlagKindMethodParameter,
		first:  Java8,
		check:  onlyTheseOf(AccFinal | AccSynthetic | AccMandated),
	})

	// --- Module flags ---
	rules = append(rules, flagRule{
		reason: "module flags are limited to open, synthetic, mandated",
		kind:   FlagKindModule,
		first:  Java9,
		check:  onlyTheseOf(AccOpen | AccSynthetic | AccMandated),
	})

	// --- Module requires flags ---
	rules = append(rules, flagRule{
		reason: "module requires flags are limited to transitive, static-phase, synthetic, mandated",
		kind:   FlagKindModuleRequires,
		first:  Java9,
		check:  onlyTheseOf(AccTransitive | AccStaticPh | AccSynthetic | AccMandated),
	})

	// --- Module exports/opens flags ---
	rules = append(rules, flagRule{
		reason: "module exports/opens flags are limited to synthetic, mandated",
		kind:   FlagKindModuleExportsOpens,
		first:  Java9,
		check:  onlyTheseOf(AccSynthetic | AccMandated),
	})

	return rules
}

// interfaceFieldFlagCheck enforces that fields declared on an interface are
// public, static, and final (spec.md §4.4), information only available
// once the enclosing class's flags are known.
func interfaceFieldFlagCheck(classFlags, fieldFlags uint16) error {
	if classFlags&AccInterface == 0 {
		return nil
	}
	if fieldFlags&(AccPublic|AccStatic|AccFinal) != AccPublic|AccStatic|AccFinal {
		return fmt.Errorf("%w: interface field must set public, static, and final (flags=0x%04x)",
			ErrFlagMix, fieldFlags)
	}
	return nil
}

// interfaceMethodFlagCheck implements the version-bifurcated rule spec.md
// §4.4 calls out by name: pre-Java-8 interface methods require exactly
// public+abstract; Java 8+ requires exactly one of public/private. It takes
// the enclosing class's flags because the rule depends on "is this class an
// interface", information the method-level flagRule table does not carry.
func interfaceMethodFlagCheck(classFlags, methodFlags uint16, version ClassFileVersion) error {
	if classFlags&AccInterface == 0 {
		return nil
	}
	if version.Before(Java8) {
		if methodFlags&(AccPublic|AccAbstract) != AccPublic|AccAbstract || methodFlags&AccPrivate != 0 {
			return fmt.Errorf("%w: pre-Java-8 interface method must set exactly public and abstract (flags=0x%04x)",
				ErrFlagMix, methodFlags)
		}
		return nil
	}
	if !exactlyOneOf(AccPublic, AccPrivate)(methodFlags) {
		return fmt.Errorf("%w: Java 8+ interface method must set exactly one of public or private (flags=0x%04x)",
			ErrFlagMix, methodFlags)
	}
	return nil
}
