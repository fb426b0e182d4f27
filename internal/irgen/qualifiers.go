package irgen

import (
	"github.com/adeptlang/go-adept/internal/ast"
	"github.com/adeptlang/go-adept/internal/compiler"
	"github.com/adeptlang/go-adept/pkg/token"
)

// ensureNotViolatingNoDiscard rejects discarding the return value of a
// callee marked no_discard.
func (g *Generator) ensureNotViolatingNoDiscard(noDiscardActive bool, callSource token.Source, callee *ast.Func) compiler.Errorcode {
	if noDiscardActive && callee.Traits&ast.FuncNoDiscard != 0 {
		g.compiler.Panicf(callSource, "Not allowed to discard value returned from '%s'", callee.Head())
		return compiler.AltFailure
	}

	return compiler.Success
}

// ensureNotViolatingDisallow rejects any call to a callee marked disallow.
func (g *Generator) ensureNotViolatingDisallow(callSource token.Source, callee *ast.Func) compiler.Errorcode {
	if callee.Traits&ast.FuncDisallow != 0 {
		g.compiler.Panicf(callSource, "Cannot use disallowed '%s'", callee.Head())
		return compiler.AltFailure
	}

	return compiler.Success
}
