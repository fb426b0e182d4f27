package ir

import (
	"fmt"
	"strings"
)

// ValueKind enumerates IR value kinds.
type ValueKind int

const (
	ValNone ValueKind = iota
	ValLiteral
	ValNullPtr
	ValNullPtrOfType
	ValArrayLiteral
	ValStructLiteral
	ValConstStructLiteral
	ValStructConstruction
	ValOffsetOf
	ValConstSizeof
	ValConstAlignof
	ValConstAdd
	ValFuncAddr
	ValFuncAddrByName
	ValCStrOfLen
	ValUnknownEnum
	ValAnonGlobal
	ValConstAnonGlobal
	ValResult

	// Constant cast family; pure numeric folding on the literal payload.
	ValConstBitcast
	ValConstZext
	ValConstSext
	ValConstFext
	ValConstTrunc
	ValConstFtrunc
	ValConstInttoptr
	ValConstPtrtoint
	ValConstReinterpret
)

// Value is an IR value. Every value knows its IR type.
type Value struct {
	Kind ValueKind
	Type *Type

	// Literal holds the payload of ValLiteral values: uint64, int64,
	// float64, or bool. RTTI placeholders are usize literals patched
	// in place during finalization.
	Literal any

	// Values holds array/struct literal members and const-add operands.
	Values []*Value

	// Str holds cstring payloads, by-name function references, and
	// unknown-enum member names.
	Str    string
	Length int // cstring length

	FuncID       FuncID
	AnonGlobalID int

	// Index is the field index for offsetof values.
	Index int

	// Result coordinates: the output of instruction Instr in block Block.
	Block int
	Instr int

	// On is the operand of const-cast values.
	On *Value

	// Of is the measured type of sizeof/alignof values.
	Of *Type
}

// Literal constructors.

// LiteralUsize makes a usize literal of the given type.
func LiteralUsize(usizeType *Type, v uint64) *Value {
	return &Value{Kind: ValLiteral, Type: usizeType, Literal: v}
}

// LiteralBool makes a boolean literal.
func LiteralBool(boolType *Type, v bool) *Value {
	return &Value{Kind: ValLiteral, Type: boolType, Literal: v}
}

// IsConstant reports whether the value can appear in a global initializer.
func (v *Value) IsConstant() bool {
	switch v.Kind {
	case ValLiteral, ValNullPtr, ValNullPtrOfType, ValConstSizeof, ValConstAlignof,
		ValConstAdd, ValFuncAddr, ValFuncAddrByName, ValCStrOfLen, ValConstStructLiteral,
		ValConstAnonGlobal, ValOffsetOf,
		ValConstBitcast, ValConstZext, ValConstSext, ValConstFext, ValConstTrunc,
		ValConstFtrunc, ValConstInttoptr, ValConstPtrtoint, ValConstReinterpret:
		return true
	case ValArrayLiteral:
		for _, member := range v.Values {
			if !member.IsConstant() {
				return false
			}
		}
		return true
	}
	return false
}

// FoldConstCast folds a const-cast kind applied to a literal value into a
// new literal of the target type. Non-literal operands produce an unfolded
// const-cast value instead.
func FoldConstCast(kind ValueKind, on *Value, to *Type) *Value {
	if on.Kind != ValLiteral {
		return &Value{Kind: kind, Type: to, On: on}
	}

	switch kind {
	case ValConstZext, ValConstBitcast, ValConstReinterpret:
		return &Value{Kind: ValLiteral, Type: to, Literal: on.Literal}
	case ValConstSext:
		if v, ok := on.Literal.(int64); ok {
			return &Value{Kind: ValLiteral, Type: to, Literal: v}
		}
		return &Value{Kind: ValLiteral, Type: to, Literal: on.Literal}
	case ValConstTrunc:
		switch v := on.Literal.(type) {
		case uint64:
			return &Value{Kind: ValLiteral, Type: to, Literal: truncUint(v, to.Bits())}
		case int64:
			return &Value{Kind: ValLiteral, Type: to, Literal: int64(truncUint(uint64(v), to.Bits()))}
		}
	case ValConstFext, ValConstFtrunc:
		if v, ok := on.Literal.(float64); ok {
			if to.Kind == TypeF32 {
				return &Value{Kind: ValLiteral, Type: to, Literal: float64(float32(v))}
			}
			return &Value{Kind: ValLiteral, Type: to, Literal: v}
		}
	case ValConstInttoptr, ValConstPtrtoint:
		return &Value{Kind: ValLiteral, Type: to, Literal: on.Literal}
	}

	return &Value{Kind: kind, Type: to, On: on}
}

func truncUint(v uint64, bits int) uint64 {
	if bits <= 0 || bits >= 64 {
		return v
	}
	return v & ((1 << uint(bits)) - 1)
}

// String renders the value for dumps.
func (v *Value) String() string {
	if v == nil {
		return "<nil>"
	}

	switch v.Kind {
	case ValLiteral:
		return fmt.Sprintf("%s %v", v.Type, v.Literal)
	case ValNullPtr, ValNullPtrOfType:
		return "null"
	case ValArrayLiteral, ValStructLiteral, ValConstStructLiteral, ValStructConstruction:
		parts := make([]string, len(v.Values))
		for i, member := range v.Values {
			parts[i] = member.String()
		}
		return v.Type.String() + " {" + strings.Join(parts, ", ") + "}"
	case ValOffsetOf:
		return fmt.Sprintf("offsetof %s #%d", v.Type, v.Index)
	case ValConstSizeof:
		return "sizeof " + v.Of.String()
	case ValConstAlignof:
		return "alignof " + v.Of.String()
	case ValConstAdd:
		parts := make([]string, len(v.Values))
		for i, member := range v.Values {
			parts[i] = member.String()
		}
		return "(" + strings.Join(parts, " + ") + ")"
	case ValFuncAddr:
		return fmt.Sprintf("&fn%d", v.FuncID)
	case ValFuncAddrByName:
		return "&" + v.Str
	case ValCStrOfLen:
		return fmt.Sprintf("%q", v.Str)
	case ValUnknownEnum:
		return "::" + v.Str
	case ValAnonGlobal, ValConstAnonGlobal:
		return fmt.Sprintf("anon%d", v.AnonGlobalID)
	case ValResult:
		return fmt.Sprintf("%s %%%d.%d", v.Type, v.Block, v.Instr)
	case ValConstBitcast, ValConstZext, ValConstSext, ValConstFext, ValConstTrunc,
		ValConstFtrunc, ValConstInttoptr, ValConstPtrtoint, ValConstReinterpret:
		return fmt.Sprintf("cast %s (%s)", v.Type, v.On)
	}

	return "?"
}
