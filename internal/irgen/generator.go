// Package irgen is the middle end of the compiler: it consumes a parsed
// AST and produces a typed IR module through a strict sequence of passes:
// type pre-registration, function declaration, virtual declaration, vtree
// construction, body emission, vtable emission, RTTI finalization, and
// module init/deinit synthesis.
package irgen

import (
	"fmt"

	"github.com/adeptlang/go-adept/internal/ast"
	"github.com/adeptlang/go-adept/internal/compiler"
	"github.com/adeptlang/go-adept/internal/ir"
	"github.com/adeptlang/go-adept/pkg/token"
)

// Generator owns all middle-end state for one compilation.
type Generator struct {
	compiler *compiler.Compiler
	tree     *ast.Ast
	module   *ir.Module

	sfCache *SFCache

	vtrees      []*VTree
	dispatchers map[ast.FuncID]*dispatcherInfo

	// classUsages records concrete polymorphic-class signatures seen
	// during declaration lowering, for vtree construction.
	classUsages []ast.Type

	instantiations map[instKey]ir.Endpoint
}

// Generate lowers a fully parsed AST into an IR module. On failure it
// returns the diagnostics recorded on the compiler sink.
func Generate(c *compiler.Compiler, tree *ast.Ast) (*ir.Module, error) {
	g := newGenerator(c, tree)
	if err := g.run(); err != nil {
		return nil, err
	}
	return g.module, nil
}

func newGenerator(c *compiler.Compiler, tree *ast.Ast) *Generator {
	g := &Generator{
		compiler:       c,
		tree:           tree,
		module:         ir.NewModule(),
		sfCache:        NewSFCache(),
		dispatchers:    make(map[ast.FuncID]*dispatcherInfo),
		instantiations: make(map[instKey]ir.Endpoint),
	}

	c.Filenames = tree.Filenames
	c.Sources = tree.Sources
	return g
}

// run executes the pass pipeline in its mandated order.
func (g *Generator) run() error {
	passes := []func() compiler.Errorcode{
		g.registerTypes,
		g.declareGlobals,
		g.declareFunctions,
		g.declareVirtualDispatchers,
		g.buildVTrees,
		g.processJobs,
		g.emitVTables,
		g.finalizeRTTI,
		g.buildModuleInitDeinit,
	}

	for _, pass := range passes {
		if errorcode := pass(); errorcode != success || g.compiler.HasErrors() {
			return g.firstError()
		}
	}

	return nil
}

func (g *Generator) firstError() error {
	if len(g.compiler.Errors) != 0 {
		return g.compiler.Errors[0]
	}
	return fmt.Errorf("compilation failed")
}

// ---------------------------------------------------------------------------
// Pass 1: type pre-registration
// ---------------------------------------------------------------------------

// registerTypes creates IR type skeletons for every concrete composite,
// then fills their field lists. Pointer fields late-bind through the
// skeletons, so mutually recursive composites resolve cleanly.
func (g *Generator) registerTypes() compiler.Errorcode {
	for _, composite := range g.tree.Composites {
		if composite.IsPolymorphic {
			continue
		}
		skeleton := &ir.Type{Kind: ir.TypeStructure, StructName: composite.Name}
		skeleton.IsPacked = composite.Traits&ast.CompositePacked != 0
		g.module.TypeMap.Register(composite.Name, skeleton)
	}

	for _, composite := range g.tree.Composites {
		if composite.IsPolymorphic {
			continue
		}

		fields, err := g.compositeFieldIRTypes(composite, ast.NewPolyCatalog())
		if err != nil {
			return altFailure
		}

		g.module.TypeMap.Find(composite.Name).Fields = fields
	}

	return success
}

// ---------------------------------------------------------------------------
// Pass 1b: globals
// ---------------------------------------------------------------------------

func (g *Generator) declareGlobals() compiler.Errorcode {
	for _, global := range g.tree.Globals {
		irType, err := g.resolveType(global.Type)
		if err != nil {
			return altFailure
		}

		g.module.Globals = append(g.module.Globals, &ir.Global{
			Name:       global.Name,
			Type:       irType,
			AstType:    global.Type.Clone(),
			IsExternal: global.IsExternal,
			Source:     global.Source,
		})
	}

	return success
}

// ---------------------------------------------------------------------------
// Pass 2: function declaration
// ---------------------------------------------------------------------------

// declareFunctions allocates an IR function skeleton for every concrete
// AST function and inserts procedure-map entries. Polymorphic functions
// contribute only a polymorphic endpoint.
func (g *Generator) declareFunctions() compiler.Errorcode {
	for id, astFunc := range g.tree.Funcs {
		astFuncID := ast.FuncID(id)

		if astFunc.Traits&ast.FuncPolymorphic != 0 {
			endpoint := ir.Endpoint{AstFuncID: astFuncID, IRFuncID: ir.InvalidFuncID}
			g.module.CreateFuncMapping(astFunc.Name, endpoint, false)
			if subject, ok := astFunc.SubjectName(); ok {
				g.module.CreateMethodMapping(subject, astFunc.Name, endpoint)
			}
			continue
		}

		irFunc, err := g.declareIRFunc(astFuncID, astFunc)
		if err != nil {
			return altFailure
		}

		endpoint := ir.Endpoint{AstFuncID: astFuncID, IRFuncID: irFunc.ID}
		addToJobs := astFunc.Traits&ast.FuncForeign == 0
		g.module.CreateFuncMapping(astFunc.Name, endpoint, addToJobs)

		if subject, ok := astFunc.SubjectName(); ok {
			g.module.CreateMethodMapping(subject, astFunc.Name, endpoint)
		}
	}

	return success
}

// declareIRFunc resolves a function's signature into an IR skeleton.
func (g *Generator) declareIRFunc(astFuncID ast.FuncID, astFunc *ast.Func) (*ir.Func, error) {
	argTypes := make([]*ir.Type, astFunc.Arity())
	for i := range astFunc.ArgTypes {
		resolved, err := g.resolveType(astFunc.ArgTypes[i])
		if err != nil {
			return nil, err
		}
		argTypes[i] = resolved
	}

	returnType, err := g.resolveType(astFunc.ReturnType)
	if err != nil {
		return nil, err
	}

	var traits ir.FuncTraits
	if astFunc.Traits&ast.FuncForeign != 0 {
		traits |= ir.FuncIsForeign
	}
	if astFunc.Traits&ast.FuncMain != 0 {
		traits |= ir.FuncIsMain
	}
	if astFunc.Traits&ast.FuncStdcall != 0 {
		traits |= ir.FuncStdcall
	}
	if astFunc.Traits&ast.FuncVararg != 0 {
		traits |= ir.FuncVararg
	}
	if g.compiler.Checks&compiler.NullChecks != 0 && astFunc.Traits&ast.FuncDispatcher != 0 {
		traits |= ir.FuncValidateVtable
	}

	irFunc := g.module.AddFunc(&ir.Func{
		AstFuncID:    astFuncID,
		Name:         astFunc.Name,
		ArgTypes:     argTypes,
		ReturnType:   returnType,
		Traits:       traits,
		ExportAsName: astFunc.ExportAsName,
	})

	return irFunc, nil
}

// noteClassUsage records a concrete polymorphic-class signature for the
// vtree pass.
func (g *Generator) noteClassUsage(signature ast.Type) {
	for _, existing := range g.classUsages {
		if ast.TypesIdentical(existing, signature) {
			return
		}
	}
	g.classUsages = append(g.classUsages, signature.Clone())
}

// ---------------------------------------------------------------------------
// Pass 3: virtual declaration
// ---------------------------------------------------------------------------

// declareVirtualDispatchers allocates a dispatcher function for every
// method marked virtual and inserts both into the method map.
func (g *Generator) declareVirtualDispatchers() compiler.Errorcode {
	// The function table grows while dispatchers are appended; iterate a
	// stable prefix
	declared := len(g.tree.Funcs)

	for id := 0; id < declared; id++ {
		astFunc := g.tree.Funcs[id]
		if astFunc.Traits&ast.FuncVirtual == 0 {
			continue
		}
		if astFunc.Traits&ast.FuncPolymorphic != 0 {
			// Virtuals on polymorphic classes get their dispatchers when
			// the class instantiates
			continue
		}

		subject, ok := astFunc.SubjectName()
		if !ok {
			g.compiler.Panicf(astFunc.Source, "Virtual function '%s' must be a method", astFunc.Name)
			return altFailure
		}

		dispatcher := astFunc.Clone()
		dispatcher.Traits &^= ast.FuncVirtual | ast.FuncOverride
		dispatcher.Traits |= ast.FuncDispatcher | ast.FuncAutogen
		dispatcher.Statements = nil
		dispatcher.Origin = ast.FuncID(id)

		dispatcherID := g.tree.AddFunc(dispatcher)

		irFunc, err := g.declareIRFunc(dispatcherID, dispatcher)
		if err != nil {
			return altFailure
		}

		endpoint := ir.Endpoint{AstFuncID: dispatcherID, IRFuncID: irFunc.ID}
		g.module.CreateFuncMapping(dispatcher.Name, endpoint, true)
		g.module.CreateMethodMapping(subject, dispatcher.Name, endpoint)

		g.dispatchers[ast.FuncID(id)] = &dispatcherInfo{
			virtualAstID: ast.FuncID(id),
			slot:         -1,
			className:    subject,
		}
	}

	return success
}

// ---------------------------------------------------------------------------
// Pass 5: body emission
// ---------------------------------------------------------------------------

// processJobs drains the job list, generating function bodies. Body
// generation may queue new jobs (polymorph instantiation, autogen);
// memoization guarantees a fixed point.
func (g *Generator) processJobs() compiler.Errorcode {
	for {
		job, ok := g.module.PopJob()
		if !ok {
			return success
		}

		if err := g.genFuncBody(job); err != nil {
			g.markInstantiationErrored(job)
			return altFailure
		}
	}
}

// genFuncBody emits the body of one queued endpoint.
func (g *Generator) genFuncBody(endpoint ir.Endpoint) error {
	astFunc := g.tree.Func(endpoint.AstFuncID)
	irFunc := g.module.Func(endpoint.IRFuncID)

	if irFunc.Traits&ir.FuncIsForeign != 0 {
		return nil
	}
	if len(irFunc.Blocks) != 0 {
		// Body already generated (duplicate job)
		return nil
	}

	b := newBuilder(g, irFunc, astFunc)

	// Parameters occupy the first variable ids
	for i := range astFunc.ArgTypes {
		traits := VarTraits(0)
		if i < len(astFunc.ArgTypeTraits) && astFunc.ArgTypeTraits[i] == ast.ArgTypePOD {
			traits |= VarPOD
		}
		// The subject pointer never deferences on scope close
		if i == 0 && astFunc.IsMethod() {
			traits |= VarReference
		}
		b.addVariable(astFunc.ArgNames[i], astFunc.ArgTypes[i], irFunc.ArgTypes[i], traits)
	}

	if astFunc.Traits&ast.FuncAutogen != 0 && astFunc.Traits&ast.FuncDispatcher == 0 {
		return b.genAutogenBody()
	}

	if astFunc.Traits&ast.FuncDispatcher != 0 {
		return b.genDispatcherBody()
	}

	if err := b.genStmts(astFunc.Statements); err != nil {
		return err
	}

	return b.finishBody()
}

// finishBody terminates a fallthrough exit path: deference locals and
// return void, or report a missing return value.
func (b *Builder) finishBody() error {
	if b.Block().IsTerminated() {
		return nil
	}

	if b.astFunc.ReturnType.IsVoid() || b.astFunc.ReturnType.IsEmpty() {
		if err := b.closeScopesDownTo(b.rootScope); err != nil {
			return err
		}
		b.BuildRet(nil)
		return nil
	}

	if b.astFunc.Traits&ast.FuncMain != 0 {
		// main gets an implicit successful exit code
		if err := b.closeScopesDownTo(b.rootScope); err != nil {
			return err
		}
		b.BuildRet(&ir.Value{Kind: ir.ValLiteral, Type: b.f.ReturnType, Literal: int64(0)})
		return nil
	}

	b.g.compiler.Panicf(b.astFunc.Source, "Must return a value of type '%s' before exiting function '%s'",
		b.astFunc.ReturnType, b.astFunc.Name)
	return errAborted
}

// genDispatcherBody emits a dispatcher: load the receiver's vtable, index
// the method's slot, and call through it with the original arguments.
func (b *Builder) genDispatcherBody() error {
	info, ok := b.g.dispatchers[b.astFunc.Origin]
	if !ok || info.slot < 0 {
		b.g.compiler.Panicf(b.astFunc.Source, "INTERNAL ERROR: Dispatcher has no dispatch slot")
		return errAborted
	}

	common := b.g.module.Common

	this := b.BuildLoad(b.BuildLVarptr(ir.PointerTo(b.f.ArgTypes[0]), 0), b.astFunc.Source)

	// The hidden vtable pointer is field 0 of the root class layout
	vtablePtr := b.BuildLoad(b.BuildMember(this, 0, ir.PointerTo(common.Ptr), b.astFunc.Source), b.astFunc.Source)

	entries := b.BuildCast(ir.InstrBitcast, vtablePtr, ir.PointerTo(common.Ptr))
	slotPtr := b.BuildArrayAccess(entries, b.BuildLiteralUsize(uint64(info.slot)), b.astFunc.Source)
	target := b.BuildLoad(slotPtr, b.astFunc.Source)

	if b.f.Traits&ir.FuncValidateVtable != 0 {
		// Runtime check: a null slot means a misconstructed instance
		badBlock := b.NewBlock()
		goodBlock := b.NewBlock()

		isNull := b.BuildEquals(target, &ir.Value{Kind: ir.ValNullPtrOfType, Type: common.Ptr})
		b.BuildCondBreak(isNull, badBlock, goodBlock)

		b.UseBlock(badBlock)
		b.BuildUnreachable()

		b.UseBlock(goodBlock)
	}

	signature := &ir.Type{
		Kind:     ir.TypeFuncPtr,
		FuncArgs: b.f.ArgTypes,
		FuncRet:  b.f.ReturnType,
	}
	callee := b.BuildCast(ir.InstrBitcast, target, signature)

	args := make([]*ir.Value, len(b.f.ArgTypes))
	for i, argType := range b.f.ArgTypes {
		args[i] = b.BuildLoad(b.BuildLVarptr(ir.PointerTo(argType), i), token.NullSource)
	}

	result := b.BuildCallAddress(callee, args, b.f.ReturnType, b.astFunc.Source)

	b.g.module.VtableDispatches = append(b.g.module.VtableDispatches, ir.VtableDispatch{
		DispatcherID: b.f.ID,
		Slot:         info.slot,
	})

	if b.f.ReturnType.Kind == ir.TypeVoid {
		b.BuildRet(nil)
	} else {
		b.BuildRet(result)
	}

	return nil
}

// ---------------------------------------------------------------------------
// Pass 8: module init/deinit
// ---------------------------------------------------------------------------

// buildModuleInitDeinit synthesizes the module-init function (which stores
// initial values into globals) and the module-deinit function (which
// defers globals in reverse declaration order, then deinitializes
// statics).
func (g *Generator) buildModuleInitDeinit() compiler.Errorcode {
	initFunc := g.module.AddFunc(&ir.Func{
		AstFuncID:  -1,
		Name:       "__adept_module_init__",
		ReturnType: g.module.Common.Void,
	})
	g.module.InitFuncID = initFunc.ID

	initBuilder := newBuilder(g, initFunc, &ast.Func{Name: initFunc.Name, ReturnType: ast.TypeBase("void")})

	for i, astGlobal := range g.tree.Globals {
		if astGlobal.IsExternal {
			continue
		}

		irGlobal := g.module.Globals[i]
		destination := initBuilder.BuildGVarptr(ir.PointerTo(irGlobal.Type), i)

		if astGlobal.Initial == nil {
			initBuilder.BuildZeroinit(destination)
			continue
		}

		value, valueType, err := initBuilder.genExpr(astGlobal.Initial, false)
		if err != nil {
			return altFailure
		}

		if !initBuilder.conform(&value, &valueType, astGlobal.Type, conformModeAssigning) {
			g.compiler.Panicf(astGlobal.Source, "Cannot initialize global '%s' of type '%s' with value of type '%s'",
				astGlobal.Name, astGlobal.Type, valueType)
			return altFailure
		}

		initBuilder.BuildStore(destination, value, astGlobal.Source)
	}

	initBuilder.BuildRet(nil)

	deinitFunc := g.module.AddFunc(&ir.Func{
		AstFuncID:  -1,
		Name:       "__adept_module_deinit__",
		ReturnType: g.module.Common.Void,
	})
	g.module.DeinitFuncID = deinitFunc.ID

	deinitBuilder := newBuilder(g, deinitFunc, &ast.Func{Name: deinitFunc.Name, ReturnType: ast.TypeBase("void")})

	for i := len(g.tree.Globals) - 1; i >= 0; i-- {
		astGlobal := g.tree.Globals[i]
		if astGlobal.IsExternal {
			continue
		}

		irGlobal := g.module.Globals[i]
		ptr := deinitBuilder.BuildGVarptr(ir.PointerTo(irGlobal.Type), i)
		if errorcode := deinitBuilder.handleSingleDeference(astGlobal.Type, ptr); errorcode == altFailure {
			return altFailure
		}
	}

	deinitBuilder.BuildDeinitSvars()
	deinitBuilder.BuildRet(nil)

	// Any bodies queued by global initializers or deference still need
	// emitting
	return g.processJobs()
}
