package irgen

import (
	"github.com/adeptlang/go-adept/internal/ast"
	"github.com/adeptlang/go-adept/internal/compiler"
	"github.com/adeptlang/go-adept/internal/ir"
	"github.com/adeptlang/go-adept/pkg/token"
)

// findPassFunc finds the correct __pass__ function for a type, consulting
// the special-function cache first. Returns Success when a function was
// found, Failure when none exists, and AltFailure when something goes
// wrong. The argument value may be rewritten by conformation.
func (b *Builder) findPassFunc(argument []*ir.Value, argType ast.Type, result *optionalEndpoint) compiler.Errorcode {
	entry := b.g.sfCache.LocateOrInsert(argType)

	if cached, ok := readCached(entry.HasPass, entry.Pass); ok {
		*result = cached
		if cached.Has {
			return success
		}
		return failure
	}

	argTypes := []ast.Type{argType.Clone()}
	errorcode := b.findFuncConformingWithoutDefaults("__pass__", argument, argTypes, nil, true, token.NullSource, result)

	if errorcode == success && result.Has {
		entry.Pass = result.Endpoint
		entry.HasPass = compiler.True
	} else {
		entry.HasPass = compiler.False
	}

	return errorcode
}

// findDeferFunc finds the correct __defer__ function for a type.
func (g *Generator) findDeferFunc(argType ast.Type, result *optionalEndpoint) compiler.Errorcode {
	entry := g.sfCache.LocateOrInsert(argType)

	if cached, ok := readCached(entry.HasDefer, entry.Defer); ok {
		*result = cached
		if cached.Has {
			return success
		}
		return failure
	}

	structName, ok := argType.StructLikeName()

	var errorcode compiler.Errorcode
	if ok && len(argType.Elements) == 1 {
		subjectPtr := ast.TypePointerTo(argType)
		errorcode = g.findMethod(structName, "__defer__", []ast.Type{subjectPtr}, token.NullSource, result)
	} else {
		errorcode = failure
	}

	if errorcode == success && result.Has {
		entry.Defer = result.Endpoint
		entry.HasDefer = compiler.True
	} else {
		entry.HasDefer = compiler.False
	}

	return errorcode
}

// findAssignFunc finds the correct __assign__ function for a type.
func (g *Generator) findAssignFunc(argType ast.Type, result *optionalEndpoint) compiler.Errorcode {
	entry := g.sfCache.LocateOrInsert(argType)

	if cached, ok := readCached(entry.HasAssign, entry.Assign); ok {
		*result = cached
		if cached.Has {
			return success
		}
		return failure
	}

	structName, ok := argType.StructLikeName()

	var errorcode compiler.Errorcode
	if ok && len(argType.Elements) == 1 {
		subjectPtr := ast.TypePointerTo(argType)
		args := []ast.Type{subjectPtr, argType.Clone()}
		errorcode = g.findMethod(structName, "__assign__", args, token.NullSource, result)
	} else {
		errorcode = failure
	}

	if errorcode == success && result.Has {
		entry.Assign = result.Endpoint
		entry.HasAssign = compiler.True
	} else {
		entry.HasAssign = compiler.False
	}

	return errorcode
}
