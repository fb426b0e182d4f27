// Package ir defines the typed Intermediate Representation the middle end
// produces: types, values, instructions, basic blocks, functions, and the
// module structure handed off to a backend.
package ir

import (
	"strconv"
	"strings"
)

// TypeKind enumerates IR type kinds.
type TypeKind int

const (
	TypeNone TypeKind = iota
	TypeS8
	TypeU8
	TypeS16
	TypeU16
	TypeS32
	TypeU32
	TypeS64
	TypeU64
	TypeF32
	TypeF64
	TypeBoolean
	TypePointer
	TypeStructure
	TypeFixedArray
	TypeFuncPtr
	TypeVoid
	TypeUnknownEnum
)

// Type is an IR type. Types are allocated per module; identity is pointer
// identity within that module.
type Type struct {
	Kind TypeKind

	// Elem is the pointee for TypePointer and the element for TypeFixedArray.
	Elem   *Type
	Length uint64

	// Structure fields.
	Fields   []*Type
	IsPacked bool

	// StructName names the composite a structure type was built from.
	StructName string

	// Function pointer signature.
	FuncArgs   []*Type
	FuncRet    *Type
	FuncVararg bool

	// EnumKindName is the transient name of an unresolved enum kind.
	EnumKindName string
}

// PointerTo makes a pointer type to the given element.
func PointerTo(elem *Type) *Type {
	return &Type{Kind: TypePointer, Elem: elem}
}

// FixedArrayOf makes a fixed-array type.
func FixedArrayOf(length uint64, elem *Type) *Type {
	return &Type{Kind: TypeFixedArray, Elem: elem, Length: length}
}

// IsInteger reports whether the type is an integer kind.
func (t *Type) IsInteger() bool {
	switch t.Kind {
	case TypeS8, TypeU8, TypeS16, TypeU16, TypeS32, TypeU32, TypeS64, TypeU64:
		return true
	}
	return false
}

// IsSigned reports whether the type is a signed integer kind.
func (t *Type) IsSigned() bool {
	switch t.Kind {
	case TypeS8, TypeS16, TypeS32, TypeS64:
		return true
	}
	return false
}

// IsFloat reports whether the type is a floating-point kind.
func (t *Type) IsFloat() bool {
	return t.Kind == TypeF32 || t.Kind == TypeF64
}

// Bits returns the bit width of an integer or float kind, else 0.
func (t *Type) Bits() int {
	switch t.Kind {
	case TypeS8, TypeU8:
		return 8
	case TypeS16, TypeU16:
		return 16
	case TypeS32, TypeU32, TypeF32:
		return 32
	case TypeS64, TypeU64, TypeF64:
		return 64
	case TypeBoolean:
		return 1
	}
	return 0
}

// String renders the type for dumps and diagnostics.
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}

	switch t.Kind {
	case TypeS8:
		return "s8"
	case TypeU8:
		return "u8"
	case TypeS16:
		return "s16"
	case TypeU16:
		return "u16"
	case TypeS32:
		return "s32"
	case TypeU32:
		return "u32"
	case TypeS64:
		return "s64"
	case TypeU64:
		return "u64"
	case TypeF32:
		return "f32"
	case TypeF64:
		return "f64"
	case TypeBoolean:
		return "bool"
	case TypeVoid:
		return "void"
	case TypePointer:
		return "*" + t.Elem.String()
	case TypeFixedArray:
		return "[" + strconv.FormatUint(t.Length, 10) + "]" + t.Elem.String()
	case TypeStructure:
		if t.StructName != "" {
			return "%" + t.StructName
		}
		parts := make([]string, len(t.Fields))
		for i, field := range t.Fields {
			parts[i] = field.String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case TypeFuncPtr:
		parts := make([]string, len(t.FuncArgs))
		for i, arg := range t.FuncArgs {
			parts[i] = arg.String()
		}
		sig := "fn(" + strings.Join(parts, ", ")
		if t.FuncVararg {
			sig += ", ..."
		}
		return sig + ") " + t.FuncRet.String()
	case TypeUnknownEnum:
		return "enum?" + t.EnumKindName
	}

	return "?"
}
