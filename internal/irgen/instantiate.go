package irgen

import (
	"github.com/adeptlang/go-adept/internal/ast"
	"github.com/adeptlang/go-adept/internal/compiler"
	"github.com/adeptlang/go-adept/internal/ir"
	"github.com/adeptlang/go-adept/pkg/token"
)

// instantiationDepthLimit guards against runaway polymorph recursion.
const instantiationDepthLimit = 64

// instKey memoizes instantiations on the template id and the catalog's
// rendered bindings, so repeated calls with the same substitutions reuse
// the same concrete function.
type instKey struct {
	origin    ast.FuncID
	signature string
}

// instantiatePolyFunc produces a concrete function from a polymorphic
// template and a solved catalog: cloned and resolved signature and body, a
// fresh IR function skeleton, a procedure-map entry, and a queued body job.
func (g *Generator) instantiatePolyFunc(from token.Source, originID ast.FuncID, catalog *ast.PolyCatalog, depth int) (ir.Endpoint, compiler.Errorcode) {
	if depth > instantiationDepthLimit {
		g.compiler.Panicf(from, "Maximum polymorphic instantiation depth of %d exceeded", instantiationDepthLimit)
		return ir.Endpoint{}, altFailure
	}

	key := instKey{origin: originID, signature: catalog.Signature()}
	if memoized, ok := g.instantiations[key]; ok {
		if g.module.Func(memoized.IRFuncID).Traits&ir.FuncErrored != 0 {
			return ir.Endpoint{}, failure
		}
		return memoized, success
	}

	template := g.tree.Func(originID)

	concrete := template.Clone()
	concrete.Traits &^= ast.FuncPolymorphic
	concrete.Origin = originID

	var err error
	if concrete.ArgTypes, err = ast.ResolveTypes(catalog, concrete.ArgTypes); err != nil {
		g.compiler.Panicf(from, "%s", err.Error())
		return ir.Endpoint{}, failure
	}
	if concrete.ReturnType, err = ast.ResolveType(catalog, concrete.ReturnType); err != nil {
		g.compiler.Panicf(from, "%s", err.Error())
		return ir.Endpoint{}, failure
	}
	if err = ast.ResolveStmts(catalog, concrete.Statements); err != nil {
		g.compiler.Panicf(from, "%s", err.Error())
		return ir.Endpoint{}, failure
	}

	// Defaults may still reference the catalog; resolve what is resolvable
	for i, def := range concrete.ArgDefaults {
		if def == nil {
			continue
		}
		resolved, resolveErr := ast.ResolveExpr(catalog, def)
		if resolveErr != nil {
			g.compiler.Panicf(from, "%s", resolveErr.Error())
			return ir.Endpoint{}, failure
		}
		concrete.ArgDefaults[i] = resolved
	}

	concreteID := g.tree.AddFunc(concrete)

	irFunc, declErr := g.declareIRFunc(concreteID, concrete)
	if declErr != nil {
		return ir.Endpoint{}, altFailure
	}

	endpoint := ir.Endpoint{AstFuncID: concreteID, IRFuncID: irFunc.ID}
	g.module.CreateFuncMapping(concrete.Name, endpoint, true)

	if subject, ok := concrete.SubjectName(); ok {
		g.module.CreateMethodMapping(subject, concrete.Name, endpoint)
	}

	g.instantiations[key] = endpoint
	return endpoint, success
}

// markInstantiationErrored flags a concrete endpoint whose body emission
// failed; later calls through the memo table fail instead of reusing it.
func (g *Generator) markInstantiationErrored(endpoint ir.Endpoint) {
	if endpoint.IRFuncID != ir.InvalidFuncID {
		g.module.Func(endpoint.IRFuncID).Traits |= ir.FuncErrored
	}
}
