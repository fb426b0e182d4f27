package irgen

import (
	"github.com/adeptlang/go-adept/internal/ast"
	"github.com/adeptlang/go-adept/internal/compiler"
	"github.com/adeptlang/go-adept/internal/ir"
	"github.com/adeptlang/go-adept/pkg/token"
)

// polymorphable decides whether concrete unifies with template under some
// extension of the catalog, binding parameters as it goes.
//
// Returns Success on unification, Failure on a silent mismatch, and
// AltFailure on an invalid catalog state (which surfaces a diagnostic).
// When conformAllowed is set, builtin autoconversions such as a generic
// integer literal matching a concrete integer parameter are accepted.
// funcArgsPolymorphable sets it for every argument in both the strict and
// the loose sweep, so strict sweeps accept these autoconversions too.
func (g *Generator) polymorphable(template, concrete ast.Type, catalog *ast.PolyCatalog, conformAllowed bool) compiler.Errorcode {
	return g.unifyElems(template.Elements, concrete.Elements, catalog, conformAllowed)
}

func (g *Generator) unifyElems(template, concrete []ast.Elem, catalog *ast.PolyCatalog, conformAllowed bool) compiler.Errorcode {
	ti, ci := 0, 0

	for ti < len(template) {
		if ci >= len(concrete) {
			return failure
		}

		switch te := template[ti].(type) {
		case *ast.PolymorphElem:
			// A polymorph stands for the whole remaining tail
			tail := ast.Type{Elements: concrete[ci:]}
			return g.bindPolymorph(te.Name, tail, catalog, conformAllowed)

		case *ast.PolymorphPrereqElem:
			tail := ast.Type{Elements: concrete[ci:]}
			if errorcode := g.checkPrereq(te, tail, catalog); errorcode != success {
				return errorcode
			}
			return g.bindPolymorph(te.Name, tail, catalog, conformAllowed)

		case *ast.PolyCountElem:
			fixed, ok := concrete[ci].(*ast.FixedArrayElem)
			if !ok {
				return failure
			}
			if existing := catalog.FindCount(te.Name); existing != nil {
				if existing.Binding != fixed.Length {
					return failure
				}
			} else {
				catalog.AddCount(te.Name, fixed.Length)
			}
			ti++
			ci++

		case *ast.BaseElem:
			ce, ok := concrete[ci].(*ast.BaseElem)
			if !ok {
				if conformAllowed && g.autoconvertsToBase(concrete[ci], te.Name) {
					ti++
					ci++
					continue
				}
				return failure
			}
			if te.Name != ce.Name {
				return failure
			}
			ti++
			ci++

		case *ast.PointerElem:
			if _, ok := concrete[ci].(*ast.PointerElem); !ok {
				return failure
			}
			ti++
			ci++

		case *ast.ArrayElem:
			if _, ok := concrete[ci].(*ast.ArrayElem); !ok {
				return failure
			}
			ti++
			ci++

		case *ast.FixedArrayElem:
			ce, ok := concrete[ci].(*ast.FixedArrayElem)
			if !ok || ce.Length != te.Length {
				return failure
			}
			ti++
			ci++

		case *ast.FuncElem:
			ce, ok := concrete[ci].(*ast.FuncElem)
			if !ok || te.Traits != ce.Traits || len(te.ArgTypes) != len(ce.ArgTypes) {
				return failure
			}
			for i := range te.ArgTypes {
				if errorcode := g.polymorphable(te.ArgTypes[i], ce.ArgTypes[i], catalog, conformAllowed); errorcode != success {
					return errorcode
				}
			}
			if errorcode := g.polymorphable(te.ReturnType, ce.ReturnType, catalog, conformAllowed); errorcode != success {
				return errorcode
			}
			ti++
			ci++

		case *ast.GenericBaseElem:
			ce, ok := concrete[ci].(*ast.GenericBaseElem)
			if !ok || len(te.Generics) != len(ce.Generics) {
				return failure
			}
			if te.NameIsPolymorphic {
				if errorcode := g.bindPolymorph(te.Name, ast.TypeBase(ce.Name), catalog, false); errorcode != success {
					return errorcode
				}
			} else if te.Name != ce.Name {
				return failure
			}
			for i := range te.Generics {
				if errorcode := g.polymorphable(te.Generics[i], ce.Generics[i], catalog, conformAllowed); errorcode != success {
					return errorcode
				}
			}
			ti++
			ci++

		case *ast.GenericIntElem:
			if _, ok := concrete[ci].(*ast.GenericIntElem); !ok {
				return failure
			}
			ti++
			ci++

		case *ast.GenericFloatElem:
			if _, ok := concrete[ci].(*ast.GenericFloatElem); !ok {
				return failure
			}
			ti++
			ci++

		default:
			// VarFixedArray and UnknownEnum should have been erased
			g.compiler.Panicf(token.NullSource, "INTERNAL ERROR: Cannot unify against transient type element")
			return altFailure
		}
	}

	if ci != len(concrete) {
		return failure
	}

	return success
}

// bindPolymorph binds a name to a type, or verifies compatibility with the
// existing binding. Generic literal bindings upgrade to concrete types
// when a later argument supplies one.
func (g *Generator) bindPolymorph(name string, binding ast.Type, catalog *ast.PolyCatalog, conformAllowed bool) compiler.Errorcode {
	existing := catalog.FindType(name)
	if existing == nil {
		// Generic literals bind as their default concrete type so the
		// instantiated function has a callable concrete signature
		if conformAllowed {
			if binding.IsGenericInt() {
				binding = ast.TypeBase("int")
			} else if binding.IsGenericFloat() {
				binding = ast.TypeBase("double")
			}
		}
		catalog.AddType(name, binding)
		return success
	}

	if ast.TypesIdentical(existing.Binding, binding) {
		return success
	}

	if conformAllowed {
		// A previously-bound generic literal upgrades to a concrete type
		if existing.Binding.IsGenericInt() && isConcreteInteger(binding) {
			existing.Binding = binding.Clone()
			return success
		}
		if existing.Binding.IsGenericFloat() && isConcreteFloat(binding) {
			existing.Binding = binding.Clone()
			return success
		}
		// And a generic literal argument satisfies a concrete binding
		if binding.IsGenericInt() && isConcreteInteger(existing.Binding) {
			return success
		}
		if binding.IsGenericFloat() && isConcreteFloat(existing.Binding) {
			return success
		}
	}

	return failure
}

// checkPrereq verifies a similarity prerequisite: the concrete type must be
// a structural subtype of the named composite, or extend the resolved
// extends target.
func (g *Generator) checkPrereq(prereq *ast.PolymorphPrereqElem, concrete ast.Type, catalog *ast.PolyCatalog) compiler.Errorcode {
	if !prereq.Extends.IsEmpty() {
		extendsTarget, err := ast.ResolveType(catalog, prereq.Extends)
		if err != nil {
			extendsTarget = prereq.Extends
		}
		if g.classExtends(concrete, extendsTarget) {
			return success
		}
		return failure
	}

	if prereq.Similarity == "" {
		return success
	}

	similar := g.tree.FindComposite(prereq.Similarity)
	if similar == nil {
		g.compiler.Panicf(concrete.Source, "Unknown similarity prerequisite '%s'", prereq.Similarity)
		return altFailure
	}

	concreteName, ok := concrete.StructLikeName()
	if !ok {
		return failure
	}
	subject := g.tree.FindComposite(concreteName)
	if subject == nil {
		return failure
	}

	// Structural subtype: every field of the prerequisite must exist on
	// the subject with an identical type
	for i, fieldName := range similar.FieldNames {
		subjectIndex := subject.FieldIndex(fieldName)
		if subjectIndex < 0 {
			return failure
		}
		if !ast.TypesIdentical(similar.FieldTypes[i], subject.FieldTypes[subjectIndex]) {
			return failure
		}
	}

	return success
}

// classExtends reports whether the concrete type's class chain includes
// the target class type.
func (g *Generator) classExtends(concrete, target ast.Type) bool {
	name, ok := concrete.StructLikeName()
	if !ok {
		return false
	}

	for {
		composite := g.tree.FindComposite(name)
		if composite == nil || composite.Parent.IsEmpty() {
			return false
		}
		if ast.TypesIdentical(composite.Parent, target) {
			return true
		}
		parentName, parentOK := composite.Parent.StructLikeName()
		if !parentOK {
			return false
		}
		name = parentName
	}
}

// autoconvertsToBase reports whether a concrete element can implicitly
// become the named base type under loose conformation.
func (g *Generator) autoconvertsToBase(elem ast.Elem, baseName string) bool {
	kind, isPrimitive := primitiveKinds[baseName]
	if !isPrimitive {
		return false
	}
	target := &ir.Type{Kind: kind}

	switch elem.(type) {
	case *ast.GenericIntElem:
		return target.IsInteger() || target.IsFloat()
	case *ast.GenericFloatElem:
		return target.IsFloat()
	}
	return false
}

func isConcreteInteger(t ast.Type) bool {
	if !t.IsBase() {
		return false
	}
	switch t.Elements[0].(*ast.BaseElem).Name {
	case "byte", "ubyte", "short", "ushort", "int", "uint", "long", "ulong", "usize":
		return true
	}
	return false
}

func isConcreteFloat(t ast.Type) bool {
	if !t.IsBase() {
		return false
	}
	switch t.Elements[0].(*ast.BaseElem).Name {
	case "float", "double":
		return true
	}
	return false
}
