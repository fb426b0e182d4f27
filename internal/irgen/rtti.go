package irgen

import (
	"github.com/adeptlang/go-adept/internal/ast"
	"github.com/adeptlang/go-adept/internal/compiler"
	"github.com/adeptlang/go-adept/internal/ir"
	"github.com/adeptlang/go-adept/pkg/token"
)

// rttiFor materializes a runtime type descriptor pointer for an AST type:
// a load from the __types__ array through a placeholder index that a
// later relocation pass patches.
func (b *Builder) rttiFor(astType ast.Type, sourceOnFailure token.Source) (*ir.Value, error) {
	if b.g.compiler.Traits&compiler.NoTypeinfo != 0 {
		b.g.compiler.Panicf(sourceOnFailure, "Unable to use runtime type info when runtime type information is disabled")
		return nil, errAborted
	}

	b.g.module.Collector.Mention(astType)

	typesGlobal := b.g.module.FindGlobal("__types__")
	if typesGlobal < 0 {
		b.g.compiler.Panicf(sourceOnFailure, "Unable to find __types__ global variable")
		return nil, errAborted
	}

	// Placeholder index; filled in during RTTI finalization
	placeholder := b.BuildLiteralUsize(0)

	arrayType := b.g.module.Globals[typesGlobal].Type
	array := b.BuildLoad(b.BuildGVarptr(ir.PointerTo(arrayType), typesGlobal), token.NullSource)

	b.g.module.AddRTTIRelocation(astType.String(), placeholder, sourceOnFailure)

	return b.BuildLoad(b.BuildArrayAccess(array, placeholder, token.NullSource), token.NullSource), nil
}

// finalizeRTTI enumerates the collector's set into the __types__ order and
// patches every pending relocation's placeholder slot with the index its
// human-notation key appears at.
func (g *Generator) finalizeRTTI() compiler.Errorcode {
	if len(g.module.RTTIRelocations) == 0 {
		return success
	}

	indexes := make(map[string]int, g.module.Collector.Len())
	for i, t := range g.module.Collector.Types() {
		indexes[t.String()] = i
	}

	for _, relocation := range g.module.RTTIRelocations {
		index, ok := indexes[relocation.HumanNotation]
		if !ok {
			g.compiler.Panicf(relocation.SourceOnFailure,
				"INTERNAL ERROR: Failed to find info for type '%s', which should exist", relocation.HumanNotation)
			return failure
		}

		relocation.Placeholder.Literal = uint64(index)
	}

	return success
}
