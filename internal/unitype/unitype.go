// Copyright 2026 The perlmacrogen Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package unitype is the unified type representation shared by the C
// parser, the macro analyzer, the inference engine, and the code generator.
// It abstracts over both C spellings ("unsigned long", "HV *") and Go/cgo
// spellings ("C.ulong", "*C.HV") of the same type, so that inference can
// compare a type recovered from C source against a type declared in an
// existing cgo bindings file without caring which side produced the
// spelling.
package unitype

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind discriminates the cases of Type.
type Kind int

const (
	Unknown Kind = iota
	Void
	Bool
	Char
	Int
	Float
	Double
	LongDouble
	Pointer
	Array
	Named
)

// IntSize is the width of an integer type, independent of signedness.
type IntSize int

const (
	SizeUnspecified IntSize = iota
	SizeShort
	SizeInt
	SizeLong
	SizeLongLong
)

// Type is the unified representation. Only the fields relevant to Kind are
// meaningful; the zero Type is Unknown.
type Type struct {
	Kind Kind

	// Char, Int
	Signed bool // meaningless for Char unless explicitly "signed char"/"unsigned char"
	// Int
	Size IntSize

	// Pointer, Array
	Inner   *Type
	IsConst bool
	// Array
	ArrayLen int // -1 if unspecified ("T x[]")

	// Named
	Name string
}

// Equals compares two types exactly, including const-qualification and
// name case.
func (t Type) Equals(other Type) bool {
	return t.equals(other, false, false)
}

// EqualsIgnoringConst compares two types treating "const T" and "T" as the
// same type. Used when matching a recovered parameter type against a
// bindings declaration that may or may not repeat a const qualifier.
func (t Type) EqualsIgnoringConst(other Type) bool {
	return t.equals(other, true, false)
}

// EqualsIgnoringCase compares Named types case-insensitively, since C type
// names and their cgo-generated counterparts sometimes differ only in
// case (e.g. "SV" vs "Sv").
func (t Type) EqualsIgnoringCase(other Type) bool {
	return t.equals(other, false, true)
}

func (t Type) equals(other Type, ignoreConst, ignoreCase bool) bool {
	if t.Kind != other.Kind {
		return false
	}
	switch t.Kind {
	case Void, Bool, Double, LongDouble, Unknown:
		return true
	case Char:
		return t.Signed == other.Signed
	case Int:
		return t.Signed == other.Signed && t.Size == other.Size
	case Float:
		return true
	case Pointer:
		if !ignoreConst && t.IsConst != other.IsConst {
			return false
		}
		return t.Inner.equals(*other.Inner, ignoreConst, ignoreCase)
	case Array:
		if t.ArrayLen != other.ArrayLen {
			return false
		}
		return t.Inner.equals(*other.Inner, ignoreConst, ignoreCase)
	case Named:
		if ignoreCase {
			return strings.EqualFold(t.Name, other.Name)
		}
		return t.Name == other.Name
	}
	return false
}

// IsPointer reports whether t is a Pointer type.
func (t Type) IsPointer() bool { return t.Kind == Pointer }

// IsNamed reports whether t is a Named (opaque struct/typedef) type.
func (t Type) IsNamed() bool { return t.Kind == Named }

// AsNamed returns (name, true) if t is Named.
func (t Type) AsNamed() (string, bool) {
	if t.Kind == Named {
		return t.Name, true
	}
	return "", false
}

// InnerType returns the pointee/element type for Pointer and Array types.
func (t Type) InnerType() (Type, bool) {
	if (t.Kind == Pointer || t.Kind == Array) && t.Inner != nil {
		return *t.Inner, true
	}
	return Type{}, false
}

func ptr(inner Type, isConst bool) Type {
	return Type{Kind: Pointer, Inner: &inner, IsConst: isConst}
}

func arr(inner Type, n int) Type {
	return Type{Kind: Array, Inner: &inner, ArrayLen: n}
}

// FromCString parses a C type spelling, e.g. "const char *", "unsigned long",
// "HV *", "SV **", "int[4]". Unrecognized spellings become Named so that
// opaque Perl types (SV, HV, AV, CV, PerlInterpreter, ...) round-trip
// through inference even though this package has no built-in knowledge of
// Perl's type names.
func FromCString(s string) Type {
	s = strings.TrimSpace(s)
	if s == "" {
		return Type{Kind: Unknown}
	}

	// Trailing array suffix, e.g. "char[8]" or "char buf[]".
	if idx := strings.IndexByte(s, '['); idx >= 0 && strings.HasSuffix(s, "]") {
		inner := FromCString(s[:idx])
		lenStr := strings.TrimSpace(s[idx+1 : len(s)-1])
		n := -1
		if lenStr != "" {
			if v, err := strconv.Atoi(lenStr); err == nil {
				n = v
			}
		}
		return arr(inner, n)
	}

	// Trailing pointer stars.
	if strings.HasSuffix(strings.TrimRight(s, " "), "*") {
		// Walk back from the end counting '*' while skipping spaces.
		end := len(s)
		count := 0
		for end > 0 {
			c := s[end-1]
			if c == '*' {
				count++
				end--
			} else if c == ' ' {
				end--
			} else {
				break
			}
		}
		if count > 0 {
			base := strings.TrimSpace(s[:end])
			isConst := false
			if strings.HasPrefix(base, "const ") {
				isConst = true
				base = strings.TrimSpace(strings.TrimPrefix(base, "const "))
			}
			inner := FromCString(base)
			result := inner
			for i := 0; i < count; i++ {
				result = ptr(result, isConst && i == 0)
				isConst = false
			}
			return result
		}
	}

	fields := strings.Fields(s)
	isConst := false
	var kept []string
	for _, f := range fields {
		switch f {
		case "const", "volatile", "struct", "union", "enum":
			if f == "const" {
				isConst = true
			}
		default:
			kept = append(kept, f)
		}
	}
	base := strings.Join(kept, " ")
	_ = isConst

	switch base {
	case "void":
		return Type{Kind: Void}
	case "_Bool", "bool":
		return Type{Kind: Bool}
	case "char":
		return Type{Kind: Char, Signed: true}
	case "signed char":
		return Type{Kind: Char, Signed: true}
	case "unsigned char":
		return Type{Kind: Char, Signed: false}
	case "float":
		return Type{Kind: Float}
	case "double":
		return Type{Kind: Double}
	case "long double":
		return Type{Kind: LongDouble}
	case "short", "short int", "signed short", "signed short int":
		return Type{Kind: Int, Signed: true, Size: SizeShort}
	case "unsigned short", "unsigned short int":
		return Type{Kind: Int, Signed: false, Size: SizeShort}
	case "int", "signed", "signed int":
		return Type{Kind: Int, Signed: true, Size: SizeInt}
	case "unsigned", "unsigned int":
		return Type{Kind: Int, Signed: false, Size: SizeInt}
	case "long", "long int", "signed long", "signed long int":
		return Type{Kind: Int, Signed: true, Size: SizeLong}
	case "unsigned long", "unsigned long int":
		return Type{Kind: Int, Signed: false, Size: SizeLong}
	case "long long", "long long int", "signed long long", "signed long long int":
		return Type{Kind: Int, Signed: true, Size: SizeLongLong}
	case "unsigned long long", "unsigned long long int":
		return Type{Kind: Int, Signed: false, Size: SizeLongLong}
	case "":
		return Type{Kind: Unknown}
	default:
		return Type{Kind: Named, Name: base}
	}
}

// ToCString renders t back to its canonical C spelling.
func (t Type) ToCString() string {
	switch t.Kind {
	case Unknown:
		return ""
	case Void:
		return "void"
	case Bool:
		return "_Bool"
	case Char:
		if t.Signed {
			return "char"
		}
		return "unsigned char"
	case Float:
		return "float"
	case Double:
		return "double"
	case LongDouble:
		return "long double"
	case Int:
		return cIntSpelling(t.Signed, t.Size)
	case Pointer:
		inner := t.Inner.ToCString()
		if t.IsConst {
			return "const " + inner + " *"
		}
		return inner + " *"
	case Array:
		inner := t.Inner.ToCString()
		if t.ArrayLen < 0 {
			return inner + "[]"
		}
		return fmt.Sprintf("%s[%d]", inner, t.ArrayLen)
	case Named:
		return t.Name
	}
	return ""
}

func cIntSpelling(signed bool, size IntSize) string {
	var base string
	switch size {
	case SizeShort:
		base = "short"
	case SizeLong:
		base = "long"
	case SizeLongLong:
		base = "long long"
	default:
		base = "int"
	}
	if !signed {
		return "unsigned " + base
	}
	return base
}

// ToGoString renders t in the spelling the code generator emits in
// wrapper function signatures: cgo C.* names for C primitives and opaque
// Perl struct types, *T for pointers, [N]T for arrays.
func (t Type) ToGoString() string {
	switch t.Kind {
	case Unknown:
		return "any"
	case Void:
		return ""
	case Bool:
		return "C._Bool"
	case Char:
		if t.Signed {
			return "C.char"
		}
		return "C.uchar"
	case Float:
		return "C.float"
	case Double:
		return "C.double"
	case LongDouble:
		return "C.longdouble"
	case Int:
		return goIntSpelling(t.Signed, t.Size)
	case Pointer:
		inner := t.Inner.ToGoString()
		if inner == "" {
			return "unsafe.Pointer"
		}
		return "*" + inner
	case Array:
		inner := t.Inner.ToGoString()
		if t.ArrayLen < 0 {
			return "[]" + inner
		}
		return fmt.Sprintf("[%d]%s", t.ArrayLen, inner)
	case Named:
		return "C." + t.Name
	}
	return "any"
}

func goIntSpelling(signed bool, size IntSize) string {
	switch size {
	case SizeShort:
		if signed {
			return "C.short"
		}
		return "C.ushort"
	case SizeLong:
		if signed {
			return "C.long"
		}
		return "C.ulong"
	case SizeLongLong:
		if signed {
			return "C.longlong"
		}
		return "C.ulonglong"
	default:
		if signed {
			return "C.int"
		}
		return "C.uint"
	}
}

// String implements fmt.Stringer using the C spelling, since that is the
// form most diagnostics and log messages are shown in.
func (t Type) String() string {
	return t.ToCString()
}
