package irgen

import (
	"github.com/adeptlang/go-adept/internal/ast"
	"github.com/adeptlang/go-adept/internal/ir"
)

// ConformMode selects which implicit conversions argument conformation
// may apply.
type ConformMode uint32

const (
	// ConformPrimitives admits generic literals into their concrete
	// class: an unsuffixed integer into any integer type, an unsuffixed
	// float into any float type, and unknown enum values into a known
	// enum. Together with ConformVariadic, this is the whole of strict
	// mode.
	ConformPrimitives ConformMode = 1 << iota

	// ConformWidening admits lossless widening of concrete integers and
	// floats.
	ConformWidening

	// ConformIntFloat admits integer-to-float conversion, including
	// generic integer literals into float types.
	ConformIntFloat

	// ConformPointers admits pointer-to-ptr and ptr-to-pointer erasure,
	// and null into any pointer type.
	ConformPointers

	// ConformVariadic admits surplus arguments for variadic functions.
	ConformVariadic

	// ConformUserCasts admits user-defined conversion functions.
	ConformUserCasts
)

// conformModeNotApplicable is used by rigid queries, which never convert.
const conformModeNotApplicable ConformMode = 0

// The two sweep modes of conforming procedure queries. A strict match
// always wins over a loose one regardless of definition order.
const (
	conformModeCallArguments = ConformPrimitives | ConformVariadic

	conformModeCallArgumentsLoose = ConformPrimitives | ConformWidening |
		ConformIntFloat | ConformPointers | ConformVariadic | ConformUserCasts

	conformModeCallArgumentsLooseNoUser = conformModeCallArgumentsLoose &^ ConformUserCasts

	// conformModeAssigning is used for declarations, assignments, and
	// return values.
	conformModeAssigning = ConformPrimitives | ConformWidening |
		ConformIntFloat | ConformPointers
)

// conform coerces a value of type from into type to under the given mode,
// rewriting the value (and from, on success) in place.
func (b *Builder) conform(value **ir.Value, from *ast.Type, to ast.Type, mode ConformMode) bool {
	if ast.TypesIdentical(*from, to) {
		return true
	}

	if b.conformGenericLiteral(value, from, to, mode) {
		*from = to.Clone()
		return true
	}

	if b.conformConcrete(value, from, to, mode) {
		*from = to.Clone()
		return true
	}

	return false
}

// conformGenericLiteral handles generic int/float literals and transient
// unknown enum values.
func (b *Builder) conformGenericLiteral(value **ir.Value, from *ast.Type, to ast.Type, mode ConformMode) bool {
	switch {
	case from.IsGenericInt():
		if !to.IsBase() {
			return false
		}
		name := to.Elements[0].(*ast.BaseElem).Name
		kind, isPrimitive := primitiveKinds[name]
		if !isPrimitive {
			return false
		}

		target := &ir.Type{Kind: kind}
		if target.IsInteger() {
			if mode&ConformPrimitives == 0 {
				return false
			}
			*value = b.rewriteLiteral(*value, target)
			return true
		}
		if target.IsFloat() {
			if mode&ConformIntFloat == 0 {
				return false
			}
			*value = b.rewriteLiteralToFloat(*value, target)
			return true
		}
		return false

	case from.IsGenericFloat():
		if mode&ConformPrimitives == 0 || !to.IsBase() {
			return false
		}
		name := to.Elements[0].(*ast.BaseElem).Name
		kind, isPrimitive := primitiveKinds[name]
		if !isPrimitive {
			return false
		}
		target := &ir.Type{Kind: kind}
		if !target.IsFloat() {
			return false
		}
		*value = b.rewriteLiteralToFloat(*value, target)
		return true
	}

	// Unknown enum values resolve against a known enum target
	if len(from.Elements) == 1 {
		if unknown, ok := from.Elements[0].(*ast.UnknownEnumElem); ok {
			if mode&ConformPrimitives == 0 || !to.IsBase() {
				return false
			}
			enumName := to.Elements[0].(*ast.BaseElem).Name
			enum := b.g.tree.FindEnum(enumName)
			if enum == nil {
				return false
			}
			index := enum.MemberIndex(unknown.KindName)
			if index < 0 {
				return false
			}
			*value = &ir.Value{
				Kind:    ir.ValLiteral,
				Type:    &ir.Type{Kind: ir.TypeU64},
				Literal: uint64(index),
			}
			return true
		}
	}

	return false
}

// conformConcrete handles conversions between concrete types.
func (b *Builder) conformConcrete(value **ir.Value, from *ast.Type, to ast.Type, mode ConformMode) bool {
	// Null into any pointer type
	if (*value).Kind == ir.ValNullPtr && (to.IsPointer() || to.IsBaseOf("ptr")) {
		if mode&ConformPointers == 0 {
			return false
		}
		target, err := b.g.resolveType(to)
		if err != nil {
			return false
		}
		*value = &ir.Value{Kind: ir.ValNullPtrOfType, Type: target}
		return true
	}

	// Pointer erasure both directions
	if mode&ConformPointers != 0 {
		fromIsPtr := from.IsPointer() || from.IsBaseOf("ptr")
		toIsPtr := to.IsPointer() || to.IsBaseOf("ptr")
		if fromIsPtr && toIsPtr && (from.IsBaseOf("ptr") || to.IsBaseOf("ptr")) {
			target, err := b.g.resolveType(to)
			if err != nil {
				return false
			}
			*value = b.BuildCast(ir.InstrBitcast, *value, target)
			return true
		}
	}

	if !from.IsBase() || !to.IsBase() {
		return false
	}

	fromKind, fromPrimitive := primitiveKinds[from.Elements[0].(*ast.BaseElem).Name]
	toKind, toPrimitive := primitiveKinds[to.Elements[0].(*ast.BaseElem).Name]
	if !fromPrimitive || !toPrimitive {
		return false
	}

	source := &ir.Type{Kind: fromKind}
	target := &ir.Type{Kind: toKind}

	// Integer widening
	if source.IsInteger() && target.IsInteger() {
		if mode&ConformWidening == 0 || target.Bits() < source.Bits() {
			return false
		}
		kind := ir.InstrZext
		if source.IsSigned() {
			kind = ir.InstrSext
		}
		*value = b.BuildCast(kind, *value, target)
		return true
	}

	// Float widening
	if source.IsFloat() && target.IsFloat() {
		if mode&ConformWidening == 0 || target.Bits() < source.Bits() {
			return false
		}
		*value = b.BuildCast(ir.InstrFext, *value, target)
		return true
	}

	// Integer to float
	if source.IsInteger() && target.IsFloat() {
		if mode&ConformIntFloat == 0 {
			return false
		}
		kind := ir.InstrUitofp
		if source.IsSigned() {
			kind = ir.InstrSitofp
		}
		*value = b.BuildCast(kind, *value, target)
		return true
	}

	return false
}

// rewriteLiteral retypes a generic literal value in place when possible,
// falling back to a width-adjusting cast for non-literal values.
func (b *Builder) rewriteLiteral(value *ir.Value, target *ir.Type) *ir.Value {
	if value.Kind == ir.ValLiteral {
		return &ir.Value{Kind: ir.ValLiteral, Type: target, Literal: value.Literal}
	}

	switch {
	case target.Bits() < value.Type.Bits():
		return b.BuildCast(ir.InstrTrunc, value, target)
	case target.Bits() > value.Type.Bits():
		if value.Type.IsSigned() {
			return b.BuildCast(ir.InstrSext, value, target)
		}
		return b.BuildCast(ir.InstrZext, value, target)
	}
	return b.BuildCast(ir.InstrBitcast, value, target)
}

func (b *Builder) rewriteLiteralToFloat(value *ir.Value, target *ir.Type) *ir.Value {
	if value.Kind == ir.ValLiteral {
		switch v := value.Literal.(type) {
		case int64:
			return &ir.Value{Kind: ir.ValLiteral, Type: target, Literal: float64(v)}
		case uint64:
			return &ir.Value{Kind: ir.ValLiteral, Type: target, Literal: float64(v)}
		case float64:
			return &ir.Value{Kind: ir.ValLiteral, Type: target, Literal: v}
		}
	}
	return b.BuildCast(ir.InstrSitofp, value, target)
}

// funcArgsMatch is the rigid check: exact arity (vararg functions accept
// more) and pointwise identical argument types.
func funcArgsMatch(f *ast.Func, argTypes []ast.Type) bool {
	arity := f.Arity()

	if f.Traits&ast.FuncVararg != 0 {
		if len(argTypes) < arity {
			return false
		}
	} else if len(argTypes) != arity {
		return false
	}

	return ast.TypeListsIdentical(f.ArgTypes[:arity], argTypes[:min(arity, len(argTypes))])
}

// funcArgsConform attempts to conform the given argument values to a
// non-polymorphic candidate under the given mode. On failure, all
// speculative emission is rolled back and the argument values restored.
func (b *Builder) funcArgsConform(f *ast.Func, argValues []*ir.Value, argTypes []ast.Type, gives *ast.Type, mode ConformMode) bool {
	requiredArity := f.Arity()

	// More arguments than declared is only valid for vararg/variadic
	if requiredArity < len(argTypes) {
		if f.Traits&ast.FuncVararg == 0 {
			if mode&ConformVariadic == 0 || f.Traits&ast.FuncVariadic == 0 {
				return false
			}
		}
	}

	// Ensure return type matches if provided
	if gives != nil && !gives.IsEmpty() && !ast.TypesIdentical(*gives, f.ReturnType) {
		return false
	}

	if requiredArity > len(argTypes) && !defaultsCanCover(f, len(argTypes)) {
		return false
	}

	snapshot := b.CaptureSnapshot()
	unmodifiedValues := append([]*ir.Value(nil), argValues...)
	unmodifiedTypes := ast.CloneTypes(argTypes)

	conformCount := min(requiredArity, len(argTypes))

	for i := 0; i < conformCount; i++ {
		if !b.conform(&argValues[i], &argTypes[i], f.ArgTypes[i], mode) {
			b.RestoreSnapshot(snapshot)
			copy(argValues, unmodifiedValues)
			copy(argTypes, unmodifiedTypes)
			return false
		}
	}

	return true
}

// defaultsCanCover reports whether every missing trailing argument has a
// default expression available.
func defaultsCanCover(f *ast.Func, provided int) bool {
	if f.ArgDefaults == nil {
		return false
	}
	for i := provided; i < f.Arity(); i++ {
		if i >= len(f.ArgDefaults) || f.ArgDefaults[i] == nil {
			return false
		}
	}
	return true
}
