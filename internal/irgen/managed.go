package irgen

import (
	"github.com/adeptlang/go-adept/internal/ast"
	"github.com/adeptlang/go-adept/internal/compiler"
	"github.com/adeptlang/go-adept/internal/ir"
	"github.com/adeptlang/go-adept/pkg/token"
)

// Management-call lowering: deference, pass, assign, math overloads, and
// access overloads, all resolved through the special-function engine.

// handleSingleDeference invokes __defer__ on the value behind ptr when its
// type supports deference. Failure means deference is trivial.
func (b *Builder) handleSingleDeference(astType ast.Type, ptr *ir.Value) compiler.Errorcode {
	var result optionalEndpoint

	errorcode := b.g.findDeferFunc(astType, &result)
	if errorcode == altFailure {
		return altFailure
	}
	if errorcode == failure || !result.Has {
		return failure
	}

	callee := b.g.module.Func(result.Endpoint.IRFuncID)
	b.BuildCall(callee.ID, []*ir.Value{ptr}, callee.ReturnType, token.NullSource)
	return success
}

// handleSinglePass replaces the value behind ref with the result of its
// __pass__ function. Failure means bitwise pass suffices.
func (b *Builder) handleSinglePass(astType ast.Type, ref *ir.Value) compiler.Errorcode {
	loaded := b.BuildLoad(ref, token.NullSource)
	args := []*ir.Value{loaded}

	var result optionalEndpoint
	errorcode := b.findPassFunc(args, astType, &result)
	if errorcode == altFailure {
		return altFailure
	}
	if errorcode == failure || !result.Has {
		return failure
	}

	callee := b.g.module.Func(result.Endpoint.IRFuncID)
	passed := b.BuildCall(callee.ID, args, callee.ReturnType, token.NullSource)
	b.BuildStore(ref, passed, token.NullSource)
	return success
}

// handlePassValue runs a by-value argument through its __pass__ management
// routine before it crosses a call boundary. POD arguments and trivially
// passable types flow through untouched.
func (b *Builder) handlePassValue(astType ast.Type, value *ir.Value) (*ir.Value, compiler.Errorcode) {
	if !b.g.typeNeedsPass(astType) {
		return value, success
	}

	args := []*ir.Value{value}

	var result optionalEndpoint
	errorcode := b.findPassFunc(args, astType, &result)
	if errorcode == altFailure {
		return nil, altFailure
	}
	if errorcode == failure || !result.Has {
		return value, success
	}

	callee := b.g.module.Func(result.Endpoint.IRFuncID)
	return b.BuildCall(callee.ID, args, callee.ReturnType, token.NullSource), success
}

// handleSingleAssign invokes __assign__ with a destination pointer and the
// incoming value. Failure means bitwise store suffices.
func (b *Builder) handleSingleAssign(astType ast.Type, destination, value *ir.Value) compiler.Errorcode {
	var result optionalEndpoint

	errorcode := b.g.findAssignFunc(astType, &result)
	if errorcode == altFailure {
		return altFailure
	}
	if errorcode == failure || !result.Has {
		return failure
	}

	callee := b.g.module.Func(result.Endpoint.IRFuncID)
	b.BuildCall(callee.ID, []*ir.Value{destination, value}, callee.ReturnType, token.NullSource)
	return success
}

// tryMathOverload resolves a binary operator against its management
// function (__add__, __equals__, ...) for composite operands.
func (b *Builder) tryMathOverload(op ast.BinaryOp, lhs, rhs *ir.Value, lhsType, rhsType ast.Type, source token.Source) (*ir.Value, ast.Type, bool, error) {
	name := op.OverloadName()
	if name == "" {
		return nil, ast.Type{}, false, nil
	}

	argValues := []*ir.Value{lhs, rhs}
	argTypes := []ast.Type{lhsType.Clone(), rhsType.Clone()}

	var result optionalEndpoint
	argValues, _, errorcode := b.findFuncConforming(name, argValues, argTypes, nil, true, source, &result)
	if errorcode == altFailure {
		return nil, ast.Type{}, false, errAborted
	}
	if errorcode == failure || !result.Has {
		return nil, ast.Type{}, false, nil
	}

	astCallee := b.g.tree.Func(result.Endpoint.AstFuncID)
	if b.g.ensureNotViolatingDisallow(source, astCallee) != success {
		return nil, ast.Type{}, false, errAborted
	}

	callee := b.g.module.Func(result.Endpoint.IRFuncID)
	value := b.BuildCall(callee.ID, argValues, callee.ReturnType, source)
	return value, astCallee.ReturnType.Clone(), true, nil
}

// tryAccessOverload resolves an array access against a subject's
// __access__ method, which yields a pointer to the element.
func (b *Builder) tryAccessOverload(subjectPtr, index *ir.Value, subjectType, indexType ast.Type, source token.Source) (*ir.Value, ast.Type, bool, error) {
	structName, ok := subjectType.StructLikeName()
	if !ok {
		return nil, ast.Type{}, false, nil
	}

	argValues := []*ir.Value{subjectPtr, index}
	argTypes := []ast.Type{ast.TypePointerTo(subjectType), indexType.Clone()}

	var result optionalEndpoint
	argValues, _, errorcode := b.findMethodConforming(structName, "__access__", argValues, argTypes, nil, source, &result)
	if errorcode == altFailure {
		return nil, ast.Type{}, false, errAborted
	}
	if errorcode == failure || !result.Has {
		return nil, ast.Type{}, false, nil
	}

	astCallee := b.g.tree.Func(result.Endpoint.AstFuncID)
	callee := b.g.module.Func(result.Endpoint.IRFuncID)
	value := b.BuildCall(callee.ID, argValues, callee.ReturnType, source)
	return value, astCallee.ReturnType.Clone(), true, nil
}
