package irgen

import (
	"github.com/adeptlang/go-adept/internal/ast"
	"github.com/adeptlang/go-adept/internal/ir"
)

// genCast lowers an explicit "cast Type (value)" expression through the
// primitive conversion matrix.
func (b *Builder) genCast(e *ast.CastExpr) (*ir.Value, ast.Type, error) {
	value, fromType, err := b.genExpr(e.From, false)
	if err != nil {
		return nil, ast.Type{}, err
	}

	// Conformation covers generic literals and identity
	if b.conform(&value, &fromType, e.To, conformModeAssigning) {
		return value, e.To.Clone(), nil
	}

	target, err := b.g.resolveType(e.To)
	if err != nil {
		return nil, ast.Type{}, err
	}

	source := value.Type

	switch {
	case source.IsInteger() && target.IsInteger():
		kind := ir.InstrBitcast
		if target.Bits() < source.Bits() {
			kind = ir.InstrTrunc
		} else if target.Bits() > source.Bits() {
			kind = ir.InstrZext
			if source.IsSigned() {
				kind = ir.InstrSext
			}
		}
		return b.castValue(kind, value, target), e.To.Clone(), nil

	case source.IsInteger() && target.IsFloat():
		kind := ir.InstrUitofp
		if source.IsSigned() {
			kind = ir.InstrSitofp
		}
		return b.castValue(kind, value, target), e.To.Clone(), nil

	case source.IsFloat() && target.IsInteger():
		kind := ir.InstrFptoui
		if target.IsSigned() {
			kind = ir.InstrFptosi
		}
		return b.castValue(kind, value, target), e.To.Clone(), nil

	case source.IsFloat() && target.IsFloat():
		kind := ir.InstrFext
		if target.Bits() < source.Bits() {
			kind = ir.InstrFtrunc
		}
		return b.castValue(kind, value, target), e.To.Clone(), nil

	case source.Kind == ir.TypePointer && target.Kind == ir.TypePointer:
		return b.castValue(ir.InstrBitcast, value, target), e.To.Clone(), nil

	case source.Kind == ir.TypePointer && target.IsInteger():
		return b.castValue(ir.InstrPtrtoint, value, target), e.To.Clone(), nil

	case source.IsInteger() && target.Kind == ir.TypePointer:
		return b.castValue(ir.InstrInttoptr, value, target), e.To.Clone(), nil

	case source.Kind == ir.TypeBoolean && target.IsInteger():
		return b.castValue(ir.InstrZext, value, target), e.To.Clone(), nil

	case source.IsInteger() && target.Kind == ir.TypeBoolean:
		zero := &ir.Value{Kind: ir.ValLiteral, Type: source, Literal: int64(0)}
		isZero := b.BuildEquals(value, zero)
		return b.BuildUnaryMath(ir.InstrIsZero, isZero, b.g.module.Common.Bool), e.To.Clone(), nil
	}

	b.g.compiler.Panicf(e.Source, "Cannot cast value of type '%s' to type '%s'", fromType, e.To)
	return nil, ast.Type{}, errAborted
}

// castValue folds constant casts on literal values and emits an
// instruction otherwise.
func (b *Builder) castValue(kind ir.InstrKind, value *ir.Value, target *ir.Type) *ir.Value {
	if value.Kind == ir.ValLiteral {
		if constKind, ok := instrToConstCast[kind]; ok {
			return ir.FoldConstCast(constKind, value, target)
		}
	}
	return b.BuildCast(kind, value, target)
}

var instrToConstCast = map[ir.InstrKind]ir.ValueKind{
	ir.InstrBitcast:  ir.ValConstBitcast,
	ir.InstrZext:     ir.ValConstZext,
	ir.InstrSext:     ir.ValConstSext,
	ir.InstrFext:     ir.ValConstFext,
	ir.InstrTrunc:    ir.ValConstTrunc,
	ir.InstrFtrunc:   ir.ValConstFtrunc,
	ir.InstrInttoptr: ir.ValConstInttoptr,
	ir.InstrPtrtoint: ir.ValConstPtrtoint,
}
