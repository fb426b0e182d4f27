package irgen

import (
	"github.com/adeptlang/go-adept/internal/ast"
	"github.com/adeptlang/go-adept/internal/compiler"
	"github.com/adeptlang/go-adept/internal/ir"
	"github.com/adeptlang/go-adept/pkg/token"
)

// VTree is one node of the class-hierarchy tree used to compute virtual
// dispatch tables. Each distinct class usage signature gets its own node;
// polymorphic classes get one node per concrete instantiation signature.
type VTree struct {
	Signature ast.Type
	Parent    *VTree
	Virtuals  ir.EndpointList
	Table     []ir.Endpoint
	Children  []*VTree

	// TableAnonGlobalID is the anonymous global that holds the finalized
	// table; its initializer is materialized during vtable emission.
	TableAnonGlobalID int

	composite *ast.Composite
	catalog   *ast.PolyCatalog
}

// dispatcherInfo links a generated dispatcher to its virtual's slot.
type dispatcherInfo struct {
	virtualAstID ast.FuncID
	slot         int
	className    string
}

// vtreeFindOrAppend finds the node with the given signature, creating one
// when absent.
func (g *Generator) vtreeFindOrAppend(signature ast.Type) *VTree {
	if found := g.vtreeFind(signature); found != nil {
		return found
	}

	node := &VTree{Signature: signature.Clone(), TableAnonGlobalID: -1}
	g.vtrees = append(g.vtrees, node)
	return node
}

// vtreeFind returns the node with an identical signature, or nil.
func (g *Generator) vtreeFind(signature ast.Type) *VTree {
	for _, node := range g.vtrees {
		if ast.TypesIdentical(node.Signature, signature) {
			return node
		}
	}
	return nil
}

// buildVTrees constructs the class hierarchy: one node per concrete class
// signature, linked child-under-parent, with virtuals appended and
// override resolution performed top-down.
func (g *Generator) buildVTrees() compiler.Errorcode {
	// Concrete classes declared directly
	for _, composite := range g.tree.Composites {
		if !composite.IsClass || composite.IsPolymorphic {
			continue
		}
		node := g.vtreeFindOrAppend(ast.TypeBase(composite.Name))
		node.composite = composite
		node.catalog = ast.NewPolyCatalog()
	}

	// Concrete instantiations of polymorphic classes discovered during
	// declaration lowering
	for _, usage := range g.classUsages {
		node := g.vtreeFindOrAppend(usage)
		if node.composite == nil {
			generic := usage.Elements[0].(*ast.GenericBaseElem)
			template := g.tree.FindPolyComposite(generic)
			if template == nil {
				continue
			}
			node.composite = template
			catalog := ast.NewPolyCatalog()
			catalog.AddTypes(template.Generics, generic.Generics)
			node.catalog = catalog
		}
	}

	// Link children under parents
	for _, node := range g.vtrees {
		if node.composite == nil || node.composite.Parent.IsEmpty() {
			continue
		}

		parentSignature, err := ast.ResolveType(node.catalog, node.composite.Parent)
		if err != nil {
			g.compiler.Panicf(node.composite.Source, "%s", err.Error())
			return altFailure
		}

		parent := g.vtreeFindOrAppend(parentSignature)
		if parent.composite == nil {
			parentName, ok := parentSignature.StructLikeName()
			if !ok {
				g.compiler.Panicf(node.composite.Source, "Cannot find parent class '%s'", parentSignature)
				return altFailure
			}
			parentComposite := g.tree.FindComposite(parentName)
			if parentComposite == nil || !parentComposite.IsClass {
				g.compiler.Panicf(node.composite.Source, "Cannot find parent class '%s' for type '%s'", parentName, node.Signature)
				return altFailure
			}
			parent.composite = parentComposite
			catalog := ast.NewPolyCatalog()
			if parentComposite.IsPolymorphic && parentSignature.IsGenericBase() {
				generic := parentSignature.Elements[0].(*ast.GenericBaseElem)
				catalog.AddTypes(parentComposite.Generics, generic.Generics)
			}
			parent.catalog = catalog
		}

		node.Parent = parent
		parent.Children = append(parent.Children, node)
	}

	// Append declared virtuals to their nodes
	for id, astFunc := range g.tree.Funcs {
		if astFunc.Traits&ast.FuncVirtual == 0 {
			continue
		}
		subjectName, ok := astFunc.SubjectName()
		if !ok {
			continue
		}
		for _, node := range g.vtrees {
			nodeName, nameOK := node.Signature.StructLikeName()
			if !nameOK || nodeName != subjectName || node.composite == nil {
				continue
			}
			endpoint, found := g.endpointForAstFunc(ast.FuncID(id))
			if !found {
				continue
			}
			node.Virtuals.Insert(endpoint)
		}
	}

	// Resolve overrides top-down from the roots
	for _, node := range g.vtrees {
		if node.Parent == nil {
			if errorcode := g.resolveOverridesTopDown(node); errorcode != success {
				return errorcode
			}
		}
	}

	// Reserve the anonymous global slot each table will occupy so bodies
	// can reference tables before they are materialized
	tableType := ir.FixedArrayOf(0, g.module.Common.Ptr)
	for _, node := range g.vtrees {
		if node.composite == nil {
			continue
		}
		anon := g.module.AddAnonGlobal(tableType, nil, true)
		node.TableAnonGlobalID = anon.ID

		className, _ := node.Signature.StructLikeName()
		g.module.VtableInits = append(g.module.VtableInits, ir.VtableInit{
			ClassName:   className,
			Signature:   node.Signature.String(),
			TableGlobal: anon.ID,
			TableType:   tableType,
		})
	}

	return success
}

// resolveOverridesTopDown computes a node's dispatch table from its
// parent's table plus its own virtuals, then recurses into children.
func (g *Generator) resolveOverridesTopDown(node *VTree) compiler.Errorcode {
	if node.Parent != nil {
		node.Table = append([]ir.Endpoint(nil), node.Parent.Table...)

		// Search this class's methods for overrides of inherited slots
		for slot := range node.Table {
			if errorcode := g.overrideSlot(node, slot); errorcode == altFailure {
				return altFailure
			}
		}
	} else {
		node.Table = nil
	}

	// Newly introduced virtuals extend the table
	for _, virtual := range node.Virtuals.Endpoints {
		slot := len(node.Table)
		node.Table = append(node.Table, virtual)

		if info, ok := g.dispatchers[virtual.AstFuncID]; ok {
			info.slot = slot
		}
	}

	for _, child := range node.Children {
		if errorcode := g.resolveOverridesTopDown(child); errorcode != success {
			return errorcode
		}
	}

	return success
}

// overrideSlot looks for a signature-compatible override of an inherited
// slot among the node's class methods. The first match in stable order
// wins; a second match is a compile error.
func (g *Generator) overrideSlot(node *VTree, slot int) compiler.Errorcode {
	inherited := g.tree.Func(node.Table[slot].AstFuncID)
	className, ok := node.Signature.StructLikeName()
	if !ok {
		return success
	}

	overridden := false

	for id, candidate := range g.tree.Funcs {
		if candidate.Traits&ast.FuncOverride == 0 || candidate.Name != inherited.Name {
			continue
		}
		subjectName, isMethod := candidate.SubjectName()
		if !isMethod || subjectName != className {
			continue
		}
		if !methodSignaturesCompatible(inherited, candidate) {
			continue
		}

		if overridden {
			g.compiler.Panicf(candidate.Source, "Multiple overrides of method '%s' in class '%s'", inherited.Name, className)
			return altFailure
		}

		endpoint, found := g.endpointForAstFunc(ast.FuncID(id))
		if !found {
			continue
		}
		node.Table[slot] = endpoint
		overridden = true
	}

	return success
}

// methodSignaturesCompatible compares two methods' parameter types modulo
// the subject pointer, plus their return types.
func methodSignaturesCompatible(a, b *ast.Func) bool {
	if a.Arity() != b.Arity() {
		return false
	}
	for i := 1; i < a.Arity(); i++ {
		if !ast.TypesIdentical(a.ArgTypes[i], b.ArgTypes[i]) {
			return false
		}
	}
	return ast.TypesIdentical(a.ReturnType, b.ReturnType)
}

// endpointForAstFunc finds the procedure-map endpoint of a declared
// function by its AST id.
func (g *Generator) endpointForAstFunc(id ast.FuncID) (ir.Endpoint, bool) {
	astFunc := g.tree.Func(id)
	endpoints := g.module.FindFuncEndpoints(astFunc.Name)
	if endpoints == nil {
		return ir.Endpoint{}, false
	}
	for _, endpoint := range endpoints.Endpoints {
		if endpoint.AstFuncID == id {
			return endpoint, true
		}
	}
	return ir.Endpoint{}, false
}

// emitVTables materializes every node's finalized table as a constant
// array of function addresses.
func (g *Generator) emitVTables() compiler.Errorcode {
	for _, node := range g.vtrees {
		if node.TableAnonGlobalID < 0 {
			continue
		}

		entries := make([]*ir.Value, len(node.Table))
		for i, endpoint := range node.Table {
			if endpoint.IRFuncID == ir.InvalidFuncID {
				g.compiler.Panicf(token.NullSource, "INTERNAL ERROR: Virtual dispatch table entry has no implementation")
				return altFailure
			}
			entries[i] = &ir.Value{Kind: ir.ValFuncAddr, Type: g.module.Common.Ptr, FuncID: endpoint.IRFuncID}
		}

		tableType := ir.FixedArrayOf(uint64(len(entries)), g.module.Common.Ptr)
		anon := g.module.AnonGlobals[node.TableAnonGlobalID]
		anon.Type = tableType
		anon.Initializer = &ir.Value{Kind: ir.ValArrayLiteral, Type: tableType, Values: entries}

		for i := range g.module.VtableInits {
			if g.module.VtableInits[i].TableGlobal == anon.ID {
				g.module.VtableInits[i].TableType = tableType
			}
		}
	}

	return success
}

// vtablePointerFor returns a *u8-typed pointer to the finalized table of a
// class signature, for storing into freshly constructed instances.
func (b *Builder) vtablePointerFor(signature ast.Type) (*ir.Value, bool) {
	node := b.g.vtreeFind(signature)
	if node == nil || node.TableAnonGlobalID < 0 {
		return nil, false
	}

	anon := b.g.module.AnonGlobals[node.TableAnonGlobalID]
	pointer := &ir.Value{Kind: ir.ValConstAnonGlobal, Type: ir.PointerTo(anon.Type), AnonGlobalID: anon.ID}
	return ir.FoldConstCast(ir.ValConstBitcast, pointer, b.g.module.Common.Ptr), true
}
