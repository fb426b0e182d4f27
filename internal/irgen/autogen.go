package irgen

import (
	"github.com/adeptlang/go-adept/internal/ast"
	"github.com/adeptlang/go-adept/internal/compiler"
	"github.com/adeptlang/go-adept/internal/ir"
	"github.com/adeptlang/go-adept/pkg/token"
)

// The autogen engine synthesizes __defer__, __pass__, and __assign__ for
// simple-struct types whose fields make the operation non-trivial. Bodies
// are emitted field by field during the body-emission pass.

// compositeForType returns the composite behind a single base or generic
// base type, along with the catalog for its generics.
func (g *Generator) compositeForType(t ast.Type) (*ast.Composite, *ast.PolyCatalog) {
	if len(t.Elements) != 1 {
		return nil, nil
	}

	switch e := t.Elements[0].(type) {
	case *ast.BaseElem:
		composite := g.tree.FindComposite(e.Name)
		if composite == nil || composite.IsPolymorphic {
			return nil, nil
		}
		return composite, ast.NewPolyCatalog()
	case *ast.GenericBaseElem:
		template := g.tree.FindPolyComposite(e)
		if template == nil {
			return nil, nil
		}
		catalog := ast.NewPolyCatalog()
		catalog.AddTypes(template.Generics, e.Generics)
		return template, catalog
	}

	return nil, nil
}

// typeNeedsDefer reports whether deference of the type is non-trivial:
// a user __defer__ exists, or a field transitively needs one.
func (g *Generator) typeNeedsDefer(t ast.Type) bool {
	structName, ok := t.StructLikeName()
	if !ok || len(t.Elements) != 1 {
		return false
	}

	if g.userMethodExists(structName, "__defer__") {
		return true
	}

	composite, catalog := g.compositeForType(t)
	if composite == nil {
		return false
	}

	for i := range composite.FieldTypes {
		fieldType, err := ast.ResolveType(catalog, composite.FieldTypes[i])
		if err != nil {
			continue
		}
		if g.typeNeedsDefer(fieldType) {
			return true
		}
	}

	// Classes inherit their ancestors' deference needs
	if composite.IsClass && !composite.Parent.IsEmpty() {
		parentType, err := ast.ResolveType(catalog, composite.Parent)
		if err == nil && g.typeNeedsDefer(parentType) {
			return true
		}
	}

	return false
}

// typeNeedsPass reports whether passing the type by value is non-trivial.
func (g *Generator) typeNeedsPass(t ast.Type) bool {
	if len(t.Elements) != 1 {
		return false
	}

	if g.userPassExists(t) {
		return true
	}

	composite, catalog := g.compositeForType(t)
	if composite == nil {
		return false
	}

	for i := range composite.FieldTypes {
		fieldType, err := ast.ResolveType(catalog, composite.FieldTypes[i])
		if err != nil {
			continue
		}
		if g.typeNeedsPass(fieldType) {
			return true
		}
	}

	return false
}

// typeNeedsAssign reports whether assignment of the type is non-trivial.
func (g *Generator) typeNeedsAssign(t ast.Type) bool {
	structName, ok := t.StructLikeName()
	if !ok || len(t.Elements) != 1 {
		return false
	}

	if g.userMethodExists(structName, "__assign__") {
		return true
	}

	composite, catalog := g.compositeForType(t)
	if composite == nil {
		return false
	}

	for i := range composite.FieldTypes {
		fieldType, err := ast.ResolveType(catalog, composite.FieldTypes[i])
		if err != nil {
			continue
		}
		if g.typeNeedsAssign(fieldType) {
			return true
		}
	}

	return false
}

// userMethodExists reports whether any non-autogen method with the given
// name is declared on the subject.
func (g *Generator) userMethodExists(structName, methodName string) bool {
	endpoints := g.module.FindMethodEndpoints(structName, methodName)
	if endpoints == nil {
		return false
	}
	for _, endpoint := range endpoints.Endpoints {
		if g.tree.Func(endpoint.AstFuncID).Traits&ast.FuncAutogen == 0 {
			return true
		}
	}
	return false
}

// userPassExists reports whether a user __pass__ taking exactly this type
// is declared.
func (g *Generator) userPassExists(t ast.Type) bool {
	endpoints := g.module.FindFuncEndpoints("__pass__")
	if endpoints == nil {
		return false
	}
	for _, endpoint := range endpoints.Endpoints {
		f := g.tree.Func(endpoint.AstFuncID)
		if f.Traits&ast.FuncAutogen != 0 {
			continue
		}
		if f.Arity() == 1 && ast.TypesIdentical(f.ArgTypes[0], t) {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Autogen entry points (resolver fallback)
// ---------------------------------------------------------------------------

// attemptAutogenDefer synthesizes __defer__(this *S) when the argument
// shape matches and deference of S is non-trivial.
func (g *Generator) attemptAutogenDefer(argTypes []ast.Type, result *optionalEndpoint) compiler.Errorcode {
	if len(argTypes) != 1 || !argTypes[0].IsPointerToBaseLike() {
		return failure
	}

	subjectType, _ := argTypes[0].Dereferenced()
	composite, _ := g.compositeForType(subjectType)
	if composite == nil || !g.typeNeedsDefer(subjectType) {
		return failure
	}

	endpoint, errorcode := g.declareAutogenFunc(
		"__defer__",
		[]string{"this"},
		[]ast.Type{argTypes[0].Clone()},
		ast.TypeBase("void"),
		ast.FuncAutogen|ast.FuncDefer,
		subjectType,
	)
	if errorcode != success {
		return errorcode
	}

	*result = optionalEndpoint{Has: true, Endpoint: endpoint}
	return success
}

// attemptAutogenPass synthesizes __pass__(passed S) S when a field has a
// non-trivial pass; otherwise it declines and the caller uses bitwise pass.
func (g *Generator) attemptAutogenPass(argTypes []ast.Type, result *optionalEndpoint) compiler.Errorcode {
	if len(argTypes) != 1 || !argTypes[0].IsBaseLike() {
		return failure
	}

	subjectType := argTypes[0]
	composite, _ := g.compositeForType(subjectType)
	if composite == nil || !g.typeNeedsPass(subjectType) {
		return failure
	}

	endpoint, errorcode := g.declareAutogenFunc(
		"__pass__",
		[]string{"passed"},
		[]ast.Type{subjectType.Clone()},
		subjectType.Clone(),
		ast.FuncAutogen|ast.FuncPass,
		subjectType,
	)
	if errorcode != success {
		return errorcode
	}

	*result = optionalEndpoint{Has: true, Endpoint: endpoint}
	return success
}

// attemptAutogenAssign synthesizes __assign__(this *S, other S).
func (g *Generator) attemptAutogenAssign(argTypes []ast.Type, result *optionalEndpoint) compiler.Errorcode {
	if len(argTypes) != 2 || !argTypes[0].IsPointerToBaseLike() {
		return failure
	}

	subjectType, _ := argTypes[0].Dereferenced()
	if !ast.TypesIdentical(subjectType, argTypes[1]) {
		return failure
	}

	composite, _ := g.compositeForType(subjectType)
	if composite == nil || !g.typeNeedsAssign(subjectType) {
		return failure
	}

	endpoint, errorcode := g.declareAutogenFunc(
		"__assign__",
		[]string{"this", "other"},
		[]ast.Type{argTypes[0].Clone(), subjectType.Clone()},
		ast.TypeBase("void"),
		ast.FuncAutogen,
		subjectType,
	)
	if errorcode != success {
		return errorcode
	}

	*result = optionalEndpoint{Has: true, Endpoint: endpoint}
	return success
}

// declareAutogenFunc appends a synthetic AST function, declares its IR
// skeleton, inserts procedure-map entries, and queues its body.
func (g *Generator) declareAutogenFunc(name string, argNames []string, argTypes []ast.Type, returnType ast.Type, traits ast.FuncTraits, subjectType ast.Type) (ir.Endpoint, compiler.Errorcode) {
	astFunc := &ast.Func{
		Name:          name,
		ArgNames:      argNames,
		ArgTypes:      argTypes,
		ArgSources:    make([]token.Source, len(argTypes)),
		ArgFlows:      make([]ast.Flow, len(argTypes)),
		ArgTypeTraits: make([]ast.ArgTypeTrait, len(argTypes)),
		ReturnType:    returnType,
		Traits:        traits,
	}

	astFuncID := g.tree.AddFunc(astFunc)

	irFunc, err := g.declareIRFunc(astFuncID, astFunc)
	if err != nil {
		return ir.Endpoint{}, altFailure
	}

	endpoint := ir.Endpoint{AstFuncID: astFuncID, IRFuncID: irFunc.ID}
	g.module.CreateFuncMapping(name, endpoint, true)

	if structName, ok := subjectType.StructLikeName(); ok {
		g.module.CreateMethodMapping(structName, name, endpoint)
	}

	return endpoint, success
}

// ---------------------------------------------------------------------------
// Autogen body emission
// ---------------------------------------------------------------------------

// genAutogenBody emits the body of a synthesized lifecycle function.
func (b *Builder) genAutogenBody() error {
	f := b.astFunc

	switch f.Name {
	case "__defer__":
		return b.genAutogenDeferBody()
	case "__pass__":
		return b.genAutogenPassBody()
	case "__assign__":
		return b.genAutogenAssignBody()
	}

	b.g.compiler.Panicf(f.Source, "INTERNAL ERROR: Unknown autogen function '%s'", f.Name)
	return errAborted
}

func (b *Builder) genAutogenDeferBody() error {
	subjectType, _ := b.astFunc.ArgTypes[0].Dereferenced()

	composite, catalog := b.g.compositeForType(subjectType)
	if composite == nil {
		b.g.compiler.Panicf(b.astFunc.Source, "INTERNAL ERROR: Autogen __defer__ subject vanished")
		return errAborted
	}

	subjectIR, err := b.g.resolveType(subjectType)
	if err != nil {
		return err
	}

	this := b.BuildLoad(b.BuildLVarptr(ir.PointerTo(ir.PointerTo(subjectIR)), 0), token.NullSource)

	offset, err := b.g.classFieldOffset(composite, catalog)
	if err != nil {
		return err
	}

	// Fields are processed in declaration order
	for i := range composite.FieldTypes {
		fieldType, resolveErr := ast.ResolveType(catalog, composite.FieldTypes[i])
		if resolveErr != nil {
			b.g.compiler.Panicf(composite.Source, "%s", resolveErr.Error())
			return errAborted
		}

		if !b.g.typeNeedsDefer(fieldType) {
			continue
		}

		fieldIR, irErr := b.g.resolveType(fieldType)
		if irErr != nil {
			return irErr
		}

		fieldPtr := b.BuildMember(this, offset+i, ir.PointerTo(fieldIR), composite.Source)
		if errorcode := b.handleSingleDeference(fieldType, fieldPtr); errorcode == altFailure {
			return errAborted
		}
	}

	b.BuildRet(nil)
	return nil
}

func (b *Builder) genAutogenPassBody() error {
	subjectType := b.astFunc.ArgTypes[0]

	composite, catalog := b.g.compositeForType(subjectType)
	if composite == nil {
		b.g.compiler.Panicf(b.astFunc.Source, "INTERNAL ERROR: Autogen __pass__ subject vanished")
		return errAborted
	}

	subjectIR, err := b.g.resolveType(subjectType)
	if err != nil {
		return err
	}

	passed := b.BuildLVarptr(ir.PointerTo(subjectIR), 0)

	offset, err := b.g.classFieldOffset(composite, catalog)
	if err != nil {
		return err
	}

	for i := range composite.FieldTypes {
		fieldType, resolveErr := ast.ResolveType(catalog, composite.FieldTypes[i])
		if resolveErr != nil {
			b.g.compiler.Panicf(composite.Source, "%s", resolveErr.Error())
			return errAborted
		}

		if !b.g.typeNeedsPass(fieldType) {
			continue
		}

		fieldIR, irErr := b.g.resolveType(fieldType)
		if irErr != nil {
			return irErr
		}

		fieldPtr := b.BuildMember(passed, offset+i, ir.PointerTo(fieldIR), composite.Source)
		if errorcode := b.handleSinglePass(fieldType, fieldPtr); errorcode == altFailure {
			return errAborted
		}
	}

	b.BuildRet(b.BuildLoad(b.BuildLVarptr(ir.PointerTo(subjectIR), 0), token.NullSource))
	return nil
}

func (b *Builder) genAutogenAssignBody() error {
	subjectType, _ := b.astFunc.ArgTypes[0].Dereferenced()

	composite, catalog := b.g.compositeForType(subjectType)
	if composite == nil {
		b.g.compiler.Panicf(b.astFunc.Source, "INTERNAL ERROR: Autogen __assign__ subject vanished")
		return errAborted
	}

	subjectIR, err := b.g.resolveType(subjectType)
	if err != nil {
		return err
	}

	this := b.BuildLoad(b.BuildLVarptr(ir.PointerTo(ir.PointerTo(subjectIR)), 0), token.NullSource)
	other := b.BuildLVarptr(ir.PointerTo(subjectIR), 1)

	offset, err := b.g.classFieldOffset(composite, catalog)
	if err != nil {
		return err
	}

	for i := range composite.FieldTypes {
		fieldType, resolveErr := ast.ResolveType(catalog, composite.FieldTypes[i])
		if resolveErr != nil {
			b.g.compiler.Panicf(composite.Source, "%s", resolveErr.Error())
			return errAborted
		}

		fieldIR, irErr := b.g.resolveType(fieldType)
		if irErr != nil {
			return irErr
		}

		thisField := b.BuildMember(this, offset+i, ir.PointerTo(fieldIR), composite.Source)
		otherField := b.BuildMember(other, offset+i, ir.PointerTo(fieldIR), composite.Source)
		otherValue := b.BuildLoad(otherField, token.NullSource)

		if b.g.typeNeedsAssign(fieldType) {
			errorcode := b.handleSingleAssign(fieldType, thisField, otherValue)
			if errorcode == altFailure {
				return errAborted
			}
			if errorcode == success {
				continue
			}
		}

		b.BuildStore(thisField, otherValue, token.NullSource)
	}

	b.BuildRet(nil)
	return nil
}
