package ast

import "github.com/adeptlang/go-adept/pkg/token"

// TypeBase makes a single-element base type such as "int".
func TypeBase(name string) Type {
	return Type{Elements: []Elem{&BaseElem{Name: name}}}
}

// TypeBaseAt makes a base type with a source location.
func TypeBaseAt(name string, source token.Source) Type {
	return Type{Elements: []Elem{&BaseElem{Name: name}}, Source: source}
}

// TypePolymorph makes a "$name" type.
func TypePolymorph(name string) Type {
	return Type{Elements: []Elem{&PolymorphElem{Name: name}}}
}

// TypePointerTo makes "*to" by prepending a pointer element to a clone of to.
func TypePointerTo(to Type) Type {
	cloned := to.Clone()
	elements := make([]Elem, 0, len(cloned.Elements)+1)
	elements = append(elements, &PointerElem{})
	elements = append(elements, cloned.Elements...)
	return Type{Elements: elements, Source: to.Source}
}

// TypeFixedArrayOf makes "[length] of" by prepending a fixed-array element.
func TypeFixedArrayOf(length uint64, of Type) Type {
	cloned := of.Clone()
	elements := make([]Elem, 0, len(cloned.Elements)+1)
	elements = append(elements, &FixedArrayElem{Length: length})
	elements = append(elements, cloned.Elements...)
	return Type{Elements: elements, Source: of.Source}
}

// TypeGenericBase makes "<generics...> name".
func TypeGenericBase(name string, generics []Type) Type {
	return Type{Elements: []Elem{&GenericBaseElem{
		Name:     name,
		Generics: CloneTypes(generics),
	}}}
}

// TypeFunc makes a function pointer type.
func TypeFunc(argTypes []Type, returnType Type, traits FuncElemTraits) Type {
	return Type{Elements: []Elem{&FuncElem{
		ArgTypes:   CloneTypes(argTypes),
		ReturnType: returnType.Clone(),
		Traits:     traits,
	}}}
}

// Dereferenced strips one leading pointer element, returning a view onto the
// same elements. The second result is false if the type is not a pointer.
func (t Type) Dereferenced() (Type, bool) {
	if len(t.Elements) < 2 {
		return Type{}, false
	}
	if _, ok := t.Elements[0].(*PointerElem); !ok {
		return Type{}, false
	}
	return Type{Elements: t.Elements[1:], Source: t.Source}, true
}

// Unwrapped strips the first element, returning a view onto the rest.
func (t Type) Unwrapped() Type {
	if len(t.Elements) == 0 {
		return Type{}
	}
	return Type{Elements: t.Elements[1:], Source: t.Source}
}
