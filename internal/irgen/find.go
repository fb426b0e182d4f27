package irgen

import (
	"github.com/adeptlang/go-adept/internal/ast"
	"github.com/adeptlang/go-adept/internal/compiler"
	"github.com/adeptlang/go-adept/internal/ir"
	"github.com/adeptlang/go-adept/pkg/token"
)

// normalForbiddenTraits excludes virtual and override entries from normal
// resolution; only the dispatcher generator looks those up directly.
const normalForbiddenTraits = ast.FuncVirtual | ast.FuncOverride

// ProcQuery is a configured procedure search. Rigid queries carry concrete
// argument types and permit no conversions; conform queries carry argument
// values a builder may rewrite, and optionally fill default arguments.
// Never create one directly; use the newFind* constructors.
type ProcQuery struct {
	conform bool

	// Conform parameters.
	builder            *Builder
	noUserCasts        bool
	allowDefaultValues bool

	argValues []*ir.Value
	argTypes  []ast.Type

	procName   string
	structName string // "" for function queries

	traitsMask   ast.FuncTraits
	traitsMatch  ast.FuncTraits
	forbidTraits ast.FuncTraits

	optionalGives *ast.Type
	fromSource    token.Source
}

// newFindFuncRegular configures a rigid function search.
func (g *Generator) newFindFuncRegular(name string, argTypes []ast.Type, mask, match, forbid ast.FuncTraits, from token.Source) *ProcQuery {
	return &ProcQuery{
		procName:     name,
		argTypes:     argTypes,
		traitsMask:   mask,
		traitsMatch:  match,
		forbidTraits: forbid,
		fromSource:   from,
	}
}

// newFindMethodRegular configures a rigid method search.
func (g *Generator) newFindMethodRegular(structName, name string, argTypes []ast.Type, forbid ast.FuncTraits, from token.Source) *ProcQuery {
	query := g.newFindFuncRegular(name, argTypes, 0, 0, forbid, from)
	query.structName = structName
	return query
}

// newFindFuncConforming configures a conforming function search with
// default-argument filling.
func (b *Builder) newFindFuncConforming(name string, argValues []*ir.Value, argTypes []ast.Type, gives *ast.Type, noUserCasts bool, forbid ast.FuncTraits, from token.Source) *ProcQuery {
	return &ProcQuery{
		conform:            true,
		builder:            b,
		noUserCasts:        noUserCasts,
		allowDefaultValues: true,
		argValues:          argValues,
		argTypes:           argTypes,
		procName:           name,
		forbidTraits:       forbid,
		optionalGives:      gives,
		fromSource:         from,
	}
}

// newFindMethodConforming configures a conforming method search.
func (b *Builder) newFindMethodConforming(structName, name string, argValues []*ir.Value, argTypes []ast.Type, gives *ast.Type, forbid ast.FuncTraits, from token.Source) *ProcQuery {
	query := b.newFindFuncConforming(name, argValues, argTypes, gives, false, forbid, from)
	query.structName = structName
	return query
}

// withoutDefaults disables default-argument filling for this query.
func (q *ProcQuery) withoutDefaults() *ProcQuery {
	q.allowDefaultValues = false
	return q
}

func (q *ProcQuery) isMethod() bool {
	return q.structName != ""
}

// findProc resolves a query to an endpoint. Conform queries sweep twice:
// first strict, then loose; a strict match wins over any loose match
// regardless of definition order.
func (g *Generator) findProc(query *ProcQuery, result *optionalEndpoint) compiler.Errorcode {
	if query.optionalGives != nil && query.optionalGives.IsEmpty() {
		query.optionalGives = nil
	}

	if query.conform {
		strictMode := conformModeCallArguments
		looseMode := conformModeCallArgumentsLoose
		if query.noUserCasts {
			looseMode = conformModeCallArgumentsLooseNoUser
		}

		if errorcode := g.findProcSweep(query, result, strictMode); errorcode != failure {
			return errorcode
		}
		return g.findProcSweep(query, result, looseMode)
	}

	return g.findProcSweep(query, result, conformModeNotApplicable)
}

func (g *Generator) findProcSweep(query *ProcQuery, result *optionalEndpoint, mode ConformMode) compiler.Errorcode {
	if query.isMethod() {
		// Search the method procedure map first; methods on
		// unconventional subject types fall back to the function map
		endpoints := g.module.FindMethodEndpoints(query.structName, query.procName)
		if errorcode := g.findProcSweepEndpointList(query, result, mode, endpoints); errorcode != failure {
			return errorcode
		}
	}

	endpoints := g.module.FindFuncEndpoints(query.procName)
	if errorcode := g.findProcSweepEndpointList(query, result, mode, endpoints); errorcode != failure {
		return errorcode
	}

	return g.tryAutogenToFillQuery(query, result)
}

func (g *Generator) findProcSweepEndpointList(query *ProcQuery, result *optionalEndpoint, mode ConformMode, endpoints *ir.EndpointList) compiler.Errorcode {
	if endpoints == nil {
		return failure
	}

	for _, endpoint := range endpoints.Endpoints {
		if errorcode := g.findProcSweepPartial(query, result, mode, endpoint); errorcode != failure {
			return errorcode
		}
	}

	return failure
}

func (g *Generator) findProcSweepPartial(query *ProcQuery, result *optionalEndpoint, mode ConformMode, endpoint ir.Endpoint) compiler.Errorcode {
	astFunc := g.tree.Func(endpoint.AstFuncID)

	// Trait restrictions
	if astFunc.Traits&query.traitsMask != query.traitsMatch || astFunc.Traits&query.forbidTraits != 0 {
		return failure
	}

	// Method queries only match methods
	if query.isMethod() && !astFunc.IsMethod() {
		return failure
	}

	if astFunc.Traits&ast.FuncPolymorphic != 0 {
		catalog := ast.NewPolyCatalog()

		var errorcode compiler.Errorcode
		if query.conform {
			errorcode = query.builder.funcArgsPolymorphable(astFunc, query.argValues, query.argTypes, catalog, query.optionalGives, mode)
		} else {
			errorcode = g.funcArgsPolymorphableNoConform(astFunc, query.argTypes, catalog)
		}

		switch errorcode {
		case success:
			return g.actualizeSuitablePolymorphic(query, result, catalog, endpoint)
		case altFailure:
			return altFailure
		}
		return failure
	}

	// No polymorphism
	var successful bool
	if query.conform {
		successful = query.builder.funcArgsConform(astFunc, query.argValues, query.argTypes, query.optionalGives, mode)
	} else {
		successful = funcArgsMatch(astFunc, query.argTypes)
	}

	if successful {
		return g.actualizeSuitableNonpolymorphic(query, result, endpoint)
	}

	return failure
}

func (g *Generator) actualizeSuitableNonpolymorphic(query *ProcQuery, result *optionalEndpoint, endpoint ir.Endpoint) compiler.Errorcode {
	if errorcode := g.fillInDefaultArguments(query, g.tree.Func(endpoint.AstFuncID), nil); errorcode != success {
		return errorcode
	}

	*result = optionalEndpoint{Has: true, Endpoint: endpoint}
	return success
}

func (g *Generator) actualizeSuitablePolymorphic(query *ProcQuery, result *optionalEndpoint, catalog *ast.PolyCatalog, endpoint ir.Endpoint) compiler.Errorcode {
	astFunc := g.tree.Func(endpoint.AstFuncID)

	if astFunc.Traits&ast.FuncDisallow != 0 {
		g.compiler.Panicf(query.fromSource, "Cannot call disallowed '%s'", astFunc.Head())
		return altFailure
	}

	if errorcode := g.fillInDefaultArguments(query, astFunc, catalog); errorcode != success {
		return errorcode
	}

	instance, errorcode := g.instantiatePolyFunc(query.fromSource, endpoint.AstFuncID, catalog, 0)
	if errorcode != success {
		if errorcode == failure {
			g.compiler.Panicf(query.fromSource, "Could not instantiate '%s' due to errors", astFunc.Head())
		}
		return altFailure
	}

	*result = optionalEndpoint{Has: true, Endpoint: instance}
	return success
}

// fillInDefaultArguments evaluates default expressions for missing
// trailing arguments under the caller's builder and appends them to the
// query's argument vector.
func (g *Generator) fillInDefaultArguments(query *ProcQuery, astFunc *ast.Func, optionalCatalog *ast.PolyCatalog) compiler.Errorcode {
	if !query.conform || !query.allowDefaultValues {
		return success
	}

	targetArity := astFunc.Arity()
	providedArity := len(query.argTypes)

	if astFunc.ArgDefaults == nil || providedArity >= targetArity {
		return success
	}

	b := query.builder

	for i := providedArity; i < targetArity; i++ {
		defaultExpr := astFunc.ArgDefaults[i]
		if defaultExpr == nil {
			g.compiler.Panicf(astFunc.Source, "INTERNAL ERROR: Failed to fill in default value for argument %d", i)
			return altFailure
		}

		// Defaults may reference the instantiation catalog, so they are
		// generated lazily at resolution time
		expectedType := astFunc.ArgTypes[i]

		value, valueType, err := b.genExpr(defaultExpr, false)
		if err != nil {
			return altFailure
		}

		if optionalCatalog != nil && expectedType.HasPolymorph() {
			errorcode := g.polymorphable(expectedType, valueType, optionalCatalog, true)
			if errorcode == altFailure {
				return altFailure
			}
			if errorcode == failure {
				g.compiler.Panicf(expectedType.Source,
					"Received value of type '%s' for default argument which expects type '%s'",
					valueType, expectedType)
				return altFailure
			}
			query.argValues = append(query.argValues, value)
			query.argTypes = append(query.argTypes, valueType)
			continue
		}

		if !b.conform(&value, &valueType, expectedType, conformModeCallArgumentsLoose) {
			g.compiler.Panicf(expectedType.Source,
				"Received value of type '%s' for default argument which expects type '%s'",
				valueType, expectedType)
			return altFailure
		}

		query.argValues = append(query.argValues, value)
		query.argTypes = append(query.argTypes, expectedType.Clone())
	}

	return success
}

// funcArgsPolymorphable unifies a conforming call's arguments against a
// polymorphic template, conforming non-polymorphic parameters and binding
// polymorphic ones. On mismatch, speculative emission is rolled back.
func (b *Builder) funcArgsPolymorphable(template *ast.Func, argValues []*ir.Value, argTypes []ast.Type, catalog *ast.PolyCatalog, gives *ast.Type, mode ConformMode) compiler.Errorcode {
	requiredArity := template.Arity()

	if requiredArity < len(argTypes) {
		if template.Traits&ast.FuncVararg == 0 {
			if mode&ConformVariadic == 0 || template.Traits&ast.FuncVariadic == 0 {
				return failure
			}
		}
	}

	if requiredArity > len(argTypes) && !defaultsCanCover(template, len(argTypes)) {
		return failure
	}

	snapshot := b.CaptureSnapshot()
	unmodifiedValues := append([]*ir.Value(nil), argValues...)
	unmodifiedTypes := ast.CloneTypes(argTypes)

	restore := func() {
		b.RestoreSnapshot(snapshot)
		copy(argValues, unmodifiedValues)
		copy(argTypes, unmodifiedTypes)
	}

	conformCount := min(requiredArity, len(argTypes))

	for i := 0; i < conformCount; i++ {
		var errorcode compiler.Errorcode

		if template.ArgTypes[i].HasPolymorph() {
			errorcode = b.g.polymorphable(template.ArgTypes[i], argTypes[i], catalog, true)
		} else if b.conform(&argValues[i], &argTypes[i], template.ArgTypes[i], mode) {
			errorcode = success
		} else {
			errorcode = failure
		}

		if errorcode != success {
			restore()
			return errorcode
		}
	}

	// Ensure return type matches if provided
	if gives != nil && !gives.IsEmpty() {
		if errorcode := b.g.polymorphable(template.ReturnType, *gives, catalog, false); errorcode != success {
			restore()
			return errorcode
		}

		concreteReturn, err := ast.ResolveType(catalog, template.ReturnType)
		if err != nil {
			restore()
			return failure
		}

		if !ast.TypesIdentical(*gives, concreteReturn) {
			b.g.compiler.Panicf(gives.Source, "Unable to match requested return type with callee's return type")
			restore()
			return failure
		}
	}

	return success
}

// funcArgsPolymorphableNoConform is the rigid variant: exact arity and
// identity for non-polymorphic parameters.
func (g *Generator) funcArgsPolymorphableNoConform(template *ast.Func, argTypes []ast.Type, catalog *ast.PolyCatalog) compiler.Errorcode {
	if len(argTypes) != template.Arity() {
		return failure
	}

	for i := range argTypes {
		var errorcode compiler.Errorcode

		if template.ArgTypes[i].HasPolymorph() {
			errorcode = g.polymorphable(template.ArgTypes[i], argTypes[i], catalog, false)
		} else if ast.TypesIdentical(argTypes[i], template.ArgTypes[i]) {
			errorcode = success
		} else {
			errorcode = failure
		}

		if errorcode != success {
			return errorcode
		}
	}

	return success
}

// tryAutogenToFillQuery attempts to auto-generate a lifecycle procedure to
// fill an otherwise-unmatched query.
func (g *Generator) tryAutogenToFillQuery(query *ProcQuery, result *optionalEndpoint) compiler.Errorcode {
	switch query.procName {
	case "__defer__":
		return g.attemptAutogenDefer(query.argTypes, result)
	case "__assign__":
		return g.attemptAutogenAssign(query.argTypes, result)
	case "__pass__":
		if !query.isMethod() {
			return g.attemptAutogenPass(query.argTypes, result)
		}
	}

	return failure
}

// ---------------------------------------------------------------------------
// Convenience finders
// ---------------------------------------------------------------------------

// findFuncNamed returns the first endpoint for a bare name, skipping
// polymorphic endpoints unless allowed. The second result reports whether
// the match was unique.
func (g *Generator) findFuncNamed(name string, allowPolymorphic bool) (ir.Endpoint, bool, bool) {
	endpoints := g.module.FindFuncEndpoints(name)
	if endpoints == nil || len(endpoints.Endpoints) == 0 {
		return ir.Endpoint{}, false, false
	}

	if allowPolymorphic {
		return endpoints.Endpoints[0], len(endpoints.Endpoints) == 1, true
	}

	for _, endpoint := range endpoints.Endpoints {
		if g.tree.Func(endpoint.AstFuncID).Traits&ast.FuncPolymorphic == 0 {
			return endpoint, len(endpoints.Endpoints) == 1, true
		}
	}

	return ir.Endpoint{}, false, false
}

// findFuncRegular resolves a rigid function query.
func (g *Generator) findFuncRegular(name string, argTypes []ast.Type, mask, match ast.FuncTraits, from token.Source, result *optionalEndpoint) compiler.Errorcode {
	return g.findProc(g.newFindFuncRegular(name, argTypes, mask, match, 0, from), result)
}

// findMethod resolves a rigid method query.
func (g *Generator) findMethod(structName, methodName string, argTypes []ast.Type, from token.Source, result *optionalEndpoint) compiler.Errorcode {
	return g.findProc(g.newFindMethodRegular(structName, methodName, argTypes, normalForbiddenTraits, from), result)
}

// findFuncConforming resolves a conforming function query, allowing
// argument rewriting and default filling.
func (b *Builder) findFuncConforming(name string, argValues []*ir.Value, argTypes []ast.Type, gives *ast.Type, noUserCasts bool, from token.Source, result *optionalEndpoint) ([]*ir.Value, []ast.Type, compiler.Errorcode) {
	query := b.newFindFuncConforming(name, argValues, argTypes, gives, noUserCasts, normalForbiddenTraits, from)
	errorcode := b.g.findProc(query, result)
	return query.argValues, query.argTypes, errorcode
}

// findFuncConformingWithoutDefaults is the same search without default
// argument filling.
func (b *Builder) findFuncConformingWithoutDefaults(name string, argValues []*ir.Value, argTypes []ast.Type, gives *ast.Type, noUserCasts bool, from token.Source, result *optionalEndpoint) compiler.Errorcode {
	query := b.newFindFuncConforming(name, argValues, argTypes, gives, noUserCasts, normalForbiddenTraits, from).withoutDefaults()
	return b.g.findProc(query, result)
}

// findMethodConforming resolves a conforming method query.
func (b *Builder) findMethodConforming(structName, name string, argValues []*ir.Value, argTypes []ast.Type, gives *ast.Type, from token.Source, result *optionalEndpoint) ([]*ir.Value, []ast.Type, compiler.Errorcode) {
	query := b.newFindMethodConforming(structName, name, argValues, argTypes, gives, normalForbiddenTraits, from)
	errorcode := b.g.findProc(query, result)
	return query.argValues, query.argTypes, errorcode
}
