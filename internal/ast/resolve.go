package ast

import "fmt"

// UnresolvedPolymorphError reports a substitution that required a binding
// the catalog does not contain. Fatal for the current instantiation.
type UnresolvedPolymorphError struct {
	Name string
}

func (e *UnresolvedPolymorphError) Error() string {
	return fmt.Sprintf("Undetermined polymorphic type variable '$%s'", e.Name)
}

// PolymorphConflictError reports a name bound twice during unification.
type PolymorphConflictError struct {
	Name string
}

func (e *PolymorphConflictError) Error() string {
	return fmt.Sprintf("Polymorphic type variable '$%s' was bound twice with conflicting types", e.Name)
}

// ResolveType substitutes every polymorphic element of a type through the
// catalog, producing a new type. Resolving an already-concrete type yields
// an identical clone. A polymorph bound to a pointer splices its elements
// in place, so the output length need not equal the input length.
func ResolveType(catalog *PolyCatalog, t Type) (Type, error) {
	out := Type{Source: t.Source}

	for _, elem := range t.Elements {
		switch e := elem.(type) {
		case *PolymorphElem:
			binding := catalog.FindType(e.Name)
			if binding == nil {
				return Type{}, &UnresolvedPolymorphError{Name: e.Name}
			}
			cloned := binding.Binding.Clone()
			out.Elements = append(out.Elements, cloned.Elements...)

		case *PolymorphPrereqElem:
			// The prerequisite was verified at polymorphability time;
			// substitution treats this like a plain polymorph
			binding := catalog.FindType(e.Name)
			if binding == nil {
				return Type{}, &UnresolvedPolymorphError{Name: e.Name}
			}
			cloned := binding.Binding.Clone()
			out.Elements = append(out.Elements, cloned.Elements...)

		case *PolyCountElem:
			count := catalog.FindCount(e.Name)
			if count == nil {
				return Type{}, &UnresolvedPolymorphError{Name: "#" + e.Name}
			}
			out.Elements = append(out.Elements, &FixedArrayElem{Length: count.Binding})

		case *VarFixedArrayElem:
			resolved, err := resolveVarFixedArray(catalog, e)
			if err != nil {
				return Type{}, err
			}
			out.Elements = append(out.Elements, resolved)

		case *FuncElem:
			argTypes := make([]Type, len(e.ArgTypes))
			for i := range e.ArgTypes {
				resolved, err := ResolveType(catalog, e.ArgTypes[i])
				if err != nil {
					return Type{}, err
				}
				argTypes[i] = resolved
			}
			returnType, err := ResolveType(catalog, e.ReturnType)
			if err != nil {
				return Type{}, err
			}
			out.Elements = append(out.Elements, &FuncElem{
				ArgTypes:   argTypes,
				ReturnType: returnType,
				Traits:     e.Traits,
			})

		case *GenericBaseElem:
			resolved, err := resolveGenericBase(catalog, e)
			if err != nil {
				return Type{}, err
			}
			out.Elements = append(out.Elements, resolved)

		default:
			out.Elements = append(out.Elements, elem.CloneElem())
		}
	}

	return out, nil
}

func resolveVarFixedArray(catalog *PolyCatalog, e *VarFixedArrayElem) (Elem, error) {
	switch length := e.Length.(type) {
	case *PolyCountExpr:
		count := catalog.FindCount(length.Name)
		if count == nil {
			return nil, &UnresolvedPolymorphError{Name: "#" + length.Name}
		}
		return &FixedArrayElem{Length: count.Binding}, nil
	case *IntegerLit:
		return &FixedArrayElem{Length: uint64(length.Value)}, nil
	}
	return e.CloneElem(), nil
}

func resolveGenericBase(catalog *PolyCatalog, e *GenericBaseElem) (Elem, error) {
	generics := make([]Type, len(e.Generics))
	for i := range e.Generics {
		resolved, err := ResolveType(catalog, e.Generics[i])
		if err != nil {
			return nil, err
		}
		generics[i] = resolved
	}

	name := e.Name
	nameIsPolymorphic := e.NameIsPolymorphic

	if e.NameIsPolymorphic {
		binding := catalog.FindType(name)
		if binding == nil {
			return nil, &UnresolvedPolymorphError{Name: name}
		}
		if !binding.Binding.IsBase() {
			return nil, &UnresolvedPolymorphError{Name: name}
		}
		name = binding.Binding.Elements[0].(*BaseElem).Name
		nameIsPolymorphic = false
	}

	return &GenericBaseElem{
		Name:              name,
		NameIsPolymorphic: nameIsPolymorphic,
		Generics:          generics,
	}, nil
}

// ResolveTypes substitutes a list of types pointwise.
func ResolveTypes(catalog *PolyCatalog, types []Type) ([]Type, error) {
	resolved := make([]Type, len(types))
	for i := range types {
		out, err := ResolveType(catalog, types[i])
		if err != nil {
			return nil, err
		}
		resolved[i] = out
	}
	return resolved, nil
}
