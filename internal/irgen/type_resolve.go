package irgen

import (
	"github.com/adeptlang/go-adept/internal/ast"
	"github.com/adeptlang/go-adept/internal/ir"
)

// primitiveKinds maps base type names to IR type kinds.
var primitiveKinds = map[string]ir.TypeKind{
	"byte":       ir.TypeS8,
	"ubyte":      ir.TypeU8,
	"short":      ir.TypeS16,
	"ushort":     ir.TypeU16,
	"int":        ir.TypeS32,
	"uint":       ir.TypeU32,
	"long":       ir.TypeS64,
	"ulong":      ir.TypeU64,
	"usize":      ir.TypeU64,
	"float":      ir.TypeF32,
	"double":     ir.TypeF64,
	"bool":       ir.TypeBoolean,
	"successful": ir.TypeBoolean,
	"void":       ir.TypeVoid,
}

// IsPrimitiveBase reports whether a base name is a builtin primitive.
func IsPrimitiveBase(name string) bool {
	_, ok := primitiveKinds[name]
	return ok
}

// resolveType lowers an AST type to its IR type. Composites resolve
// through the module type map; polymorphic composite usages are
// monomorphized on demand under their human-notation name.
func (g *Generator) resolveType(t ast.Type) (*ir.Type, error) {
	if t.IsEmpty() {
		return g.module.Common.Void, nil
	}
	return g.resolveTypeElems(t.Elements, t)
}

func (g *Generator) resolveTypeElems(elements []ast.Elem, whole ast.Type) (*ir.Type, error) {
	if len(elements) == 0 {
		g.compiler.Panicf(whole.Source, "Cannot resolve empty type")
		return nil, errAborted
	}

	switch e := elements[0].(type) {
	case *ast.PointerElem:
		// "*void"-style pointers and pointers to structures both lower
		// to plain IR pointers
		if len(elements) == 1 {
			return g.module.Common.Ptr, nil
		}
		inner, err := g.resolveTypeElems(elements[1:], whole)
		if err != nil {
			return nil, err
		}
		return ir.PointerTo(inner), nil

	case *ast.ArrayElem:
		inner, err := g.resolveTypeElems(elements[1:], whole)
		if err != nil {
			return nil, err
		}
		return ir.PointerTo(inner), nil

	case *ast.FixedArrayElem:
		inner, err := g.resolveTypeElems(elements[1:], whole)
		if err != nil {
			return nil, err
		}
		return ir.FixedArrayOf(e.Length, inner), nil

	case *ast.VarFixedArrayElem:
		g.compiler.Panicf(whole.Source, "Array length must be evaluated before IR generation")
		return nil, errAborted

	case *ast.BaseElem:
		return g.resolveBase(e, whole)

	case *ast.GenericBaseElem:
		return g.resolveGenericBaseType(e, whole)

	case *ast.FuncElem:
		args := make([]*ir.Type, len(e.ArgTypes))
		for i := range e.ArgTypes {
			arg, err := g.resolveType(e.ArgTypes[i])
			if err != nil {
				return nil, err
			}
			args[i] = arg
		}
		ret, err := g.resolveType(e.ReturnType)
		if err != nil {
			return nil, err
		}
		return &ir.Type{
			Kind:       ir.TypeFuncPtr,
			FuncArgs:   args,
			FuncRet:    ret,
			FuncVararg: e.Traits&ast.FuncElemVararg != 0,
		}, nil

	case *ast.GenericIntElem:
		// Unconformed integer literals default to int
		return &ir.Type{Kind: ir.TypeS32}, nil

	case *ast.GenericFloatElem:
		// Unconformed float literals default to double
		return &ir.Type{Kind: ir.TypeF64}, nil

	case *ast.UnknownEnumElem:
		g.compiler.Panicf(whole.Source, "Unresolved enum value '::%s'", e.KindName)
		return nil, errAborted

	case *ast.PolymorphElem:
		g.compiler.Panicf(whole.Source, "Undetermined polymorphic type variable '$%s'", e.Name)
		return nil, errAborted

	case *ast.PolyCountElem:
		g.compiler.Panicf(whole.Source, "Undetermined polymorphic count variable '$#%s'", e.Name)
		return nil, errAborted
	}

	g.compiler.Panicf(whole.Source, "Cannot resolve type '%s'", whole)
	return nil, errAborted
}

func (g *Generator) resolveBase(e *ast.BaseElem, whole ast.Type) (*ir.Type, error) {
	if kind, ok := primitiveKinds[e.Name]; ok {
		switch kind {
		case ir.TypeBoolean:
			return g.module.Common.Bool, nil
		case ir.TypeVoid:
			return g.module.Common.Void, nil
		}
		return &ir.Type{Kind: kind}, nil
	}

	if e.Name == "ptr" {
		return g.module.Common.Ptr, nil
	}

	if found := g.module.TypeMap.Find(e.Name); found != nil {
		return found, nil
	}

	// Aliases resolve by substitution
	if alias := g.tree.FindAlias(e.Name); alias != nil {
		return g.resolveType(alias.Type)
	}

	// Enums lower to their backing integer
	if enum := g.tree.FindEnum(e.Name); enum != nil {
		return &ir.Type{Kind: ir.TypeU64}, nil
	}

	g.compiler.Panicf(whole.Source, "Undeclared type '%s'", e.Name)
	return nil, errAborted
}

// resolveGenericBaseType monomorphizes a polymorphic composite usage,
// registering the concrete structure under its human-notation name.
func (g *Generator) resolveGenericBaseType(e *ast.GenericBaseElem, whole ast.Type) (*ir.Type, error) {
	usage := ast.Type{Elements: []ast.Elem{e}}
	name := usage.String()

	if found := g.module.TypeMap.Find(name); found != nil {
		return found, nil
	}

	template := g.tree.FindPolyComposite(e)
	if template == nil {
		g.compiler.Panicf(whole.Source, "Undeclared polymorphic type '%s'", e.Name)
		return nil, errAborted
	}

	// Register the skeleton first so recursive references see it
	skeleton := &ir.Type{Kind: ir.TypeStructure, StructName: name}
	g.module.TypeMap.Register(name, skeleton)

	if template.IsClass {
		g.noteClassUsage(usage)
	}

	catalog := ast.NewPolyCatalog()
	catalog.AddTypes(template.Generics, e.Generics)

	fields, err := g.compositeFieldIRTypes(template, catalog)
	if err != nil {
		return nil, err
	}

	skeleton.Fields = fields
	skeleton.IsPacked = template.Traits&ast.CompositePacked != 0
	return skeleton, nil
}

// compositeFieldIRTypes computes the IR field list of a composite,
// including the hidden vtable pointer and inherited fields for classes.
func (g *Generator) compositeFieldIRTypes(composite *ast.Composite, catalog *ast.PolyCatalog) ([]*ir.Type, error) {
	var fields []*ir.Type

	if composite.IsClass {
		parentFields, err := g.inheritedFieldIRTypes(composite, catalog)
		if err != nil {
			return nil, err
		}
		fields = append(fields, parentFields...)
	}

	for i := range composite.FieldTypes {
		fieldType := composite.FieldTypes[i]
		if catalog != nil {
			resolved, err := ast.ResolveType(catalog, fieldType)
			if err != nil {
				g.compiler.Panicf(fieldType.Source, "%s", err.Error())
				return nil, errAborted
			}
			fieldType = resolved
		}

		irType, err := g.resolveType(fieldType)
		if err != nil {
			return nil, err
		}
		fields = append(fields, irType)
	}

	return fields, nil
}

// inheritedFieldIRTypes returns the field prefix a class inherits: the
// hidden vtable pointer for root classes, or the parent's full field list.
func (g *Generator) inheritedFieldIRTypes(composite *ast.Composite, catalog *ast.PolyCatalog) ([]*ir.Type, error) {
	if composite.Parent.IsEmpty() {
		return []*ir.Type{g.module.Common.Ptr}, nil
	}

	parentType := composite.Parent
	if catalog != nil {
		resolved, err := ast.ResolveType(catalog, parentType)
		if err != nil {
			g.compiler.Panicf(composite.Source, "%s", err.Error())
			return nil, errAborted
		}
		parentType = resolved
	}

	parentName, ok := parentType.StructLikeName()
	if !ok {
		g.compiler.Panicf(composite.Source, "Cannot extend non-class type '%s'", parentType)
		return nil, errAborted
	}

	parent := g.tree.FindComposite(parentName)
	if parent == nil || !parent.IsClass {
		g.compiler.Panicf(composite.Source, "Cannot find parent class '%s'", parentName)
		return nil, errAborted
	}

	parentCatalog := ast.NewPolyCatalog()
	if parent.IsPolymorphic {
		if !parentType.IsGenericBase() {
			g.compiler.Panicf(composite.Source, "Parent class '%s' requires type parameters", parentName)
			return nil, errAborted
		}
		generic := parentType.Elements[0].(*ast.GenericBaseElem)
		parentCatalog.AddTypes(parent.Generics, generic.Generics)
	}

	return g.compositeFieldIRTypes(parent, parentCatalog)
}

// classFieldOffset returns the index of a composite's first own field
// within its flattened IR layout.
func (g *Generator) classFieldOffset(composite *ast.Composite, catalog *ast.PolyCatalog) (int, error) {
	if !composite.IsClass {
		return 0, nil
	}
	inherited, err := g.inheritedFieldIRTypes(composite, catalog)
	if err != nil {
		return 0, err
	}
	return len(inherited), nil
}

// findFieldIndex locates a named field within a composite's flattened
// layout, walking up the parent chain for classes. The returned catalog-
// resolved AST type is the field's declared type.
func (g *Generator) findFieldIndex(composite *ast.Composite, catalog *ast.PolyCatalog, name string) (int, ast.Type, bool) {
	if index := composite.FieldIndex(name); index >= 0 {
		offset, err := g.classFieldOffset(composite, catalog)
		if err != nil {
			return 0, ast.Type{}, false
		}

		fieldType := composite.FieldTypes[index]
		if catalog != nil {
			resolved, resolveErr := ast.ResolveType(catalog, fieldType)
			if resolveErr != nil {
				return 0, ast.Type{}, false
			}
			fieldType = resolved
		}
		return offset + index, fieldType, true
	}

	if !composite.IsClass || composite.Parent.IsEmpty() {
		return 0, ast.Type{}, false
	}

	parentType := composite.Parent
	if catalog != nil {
		resolved, err := ast.ResolveType(catalog, parentType)
		if err != nil {
			return 0, ast.Type{}, false
		}
		parentType = resolved
	}

	parentName, ok := parentType.StructLikeName()
	if !ok {
		return 0, ast.Type{}, false
	}

	parent := g.tree.FindComposite(parentName)
	if parent == nil {
		return 0, ast.Type{}, false
	}

	parentCatalog := ast.NewPolyCatalog()
	if parent.IsPolymorphic && parentType.IsGenericBase() {
		generic := parentType.Elements[0].(*ast.GenericBaseElem)
		parentCatalog.AddTypes(parent.Generics, generic.Generics)
	}

	return g.findFieldIndex(parent, parentCatalog, name)
}
