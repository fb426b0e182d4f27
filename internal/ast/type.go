// Package ast defines the Abstract Syntax Tree model for the Adept compiler:
// element-sequence types, expressions, statements, functions, composites, and
// the polymorph substitution machinery the middle end is built on.
package ast

import (
	"github.com/adeptlang/go-adept/pkg/token"
)

// Type is a sequence of type elements read left to right.
// "*int" is [Pointer, Base("int")], "[4] *ubyte" is
// [FixedArray(4), Pointer, Base("ubyte")]. An empty element
// sequence means "no type".
type Type struct {
	Elements []Elem
	Source   token.Source
}

// Elem is a single element of a type's element sequence.
type Elem interface {
	// CloneElem returns a deep copy of the element.
	CloneElem() Elem

	elemNode()
}

// BaseElem names a concrete base type ("int", "ubyte", a struct name, ...).
type BaseElem struct {
	Name string
}

// PointerElem is a pointer to whatever the remaining elements describe.
type PointerElem struct{}

// ArrayElem is an unbounded array of the remaining elements.
type ArrayElem struct{}

// FixedArrayElem is an array with a compile-time-known length.
type FixedArrayElem struct {
	Length uint64
}

// VarFixedArrayElem is a fixed array whose length expression has not been
// evaluated yet. It must be erased to a FixedArrayElem before the type
// reaches any code path that demands identity or hashing.
type VarFixedArrayElem struct {
	Length Expr
}

// FuncElem is a function pointer type.
type FuncElem struct {
	ArgTypes   []Type
	ReturnType Type
	Traits     FuncElemTraits
}

// FuncElemTraits are the trait bits of a function pointer type element.
type FuncElemTraits uint8

const (
	FuncElemVararg FuncElemTraits = 1 << iota
	FuncElemStdcall
)

// PolymorphElem is a named type parameter such as "$T".
type PolymorphElem struct {
	Name string
}

// PolyCountElem is a named count parameter such as "$#N".
type PolyCountElem struct {
	Name string
}

// PolymorphPrereqElem is a type parameter constrained by a similarity
// prerequisite and an optional extends clause, e.g. "$T~Comparable".
type PolymorphPrereqElem struct {
	Name       string
	Similarity string
	Extends    Type // empty when absent
}

// GenericBaseElem is a usage of a polymorphic composite, e.g. "<int> List".
type GenericBaseElem struct {
	Name              string
	NameIsPolymorphic bool
	Generics          []Type
}

// GenericIntElem is the type of an unsuffixed integer literal.
type GenericIntElem struct{}

// GenericFloatElem is the type of an unsuffixed float literal.
type GenericFloatElem struct{}

// UnknownEnumElem is a transient element for "::VALUE" expressions whose
// enum is not yet known. It must be resolved before IR emission.
type UnknownEnumElem struct {
	KindName string
}

func (*BaseElem) elemNode()            {}
func (*PointerElem) elemNode()         {}
func (*ArrayElem) elemNode()           {}
func (*FixedArrayElem) elemNode()      {}
func (*VarFixedArrayElem) elemNode()   {}
func (*FuncElem) elemNode()            {}
func (*PolymorphElem) elemNode()       {}
func (*PolyCountElem) elemNode()       {}
func (*PolymorphPrereqElem) elemNode() {}
func (*GenericBaseElem) elemNode()     {}
func (*GenericIntElem) elemNode()      {}
func (*GenericFloatElem) elemNode()    {}
func (*UnknownEnumElem) elemNode()     {}

func (e *BaseElem) CloneElem() Elem          { return &BaseElem{Name: e.Name} }
func (e *PointerElem) CloneElem() Elem       { return &PointerElem{} }
func (e *ArrayElem) CloneElem() Elem         { return &ArrayElem{} }
func (e *FixedArrayElem) CloneElem() Elem    { return &FixedArrayElem{Length: e.Length} }
func (e *GenericIntElem) CloneElem() Elem    { return &GenericIntElem{} }
func (e *GenericFloatElem) CloneElem() Elem  { return &GenericFloatElem{} }
func (e *PolymorphElem) CloneElem() Elem     { return &PolymorphElem{Name: e.Name} }
func (e *PolyCountElem) CloneElem() Elem     { return &PolyCountElem{Name: e.Name} }
func (e *UnknownEnumElem) CloneElem() Elem   { return &UnknownEnumElem{KindName: e.KindName} }
func (e *VarFixedArrayElem) CloneElem() Elem { return &VarFixedArrayElem{Length: CloneExpr(e.Length)} }

func (e *FuncElem) CloneElem() Elem {
	return &FuncElem{
		ArgTypes:   CloneTypes(e.ArgTypes),
		ReturnType: e.ReturnType.Clone(),
		Traits:     e.Traits,
	}
}

func (e *PolymorphPrereqElem) CloneElem() Elem {
	return &PolymorphPrereqElem{
		Name:       e.Name,
		Similarity: e.Similarity,
		Extends:    e.Extends.Clone(),
	}
}

func (e *GenericBaseElem) CloneElem() Elem {
	return &GenericBaseElem{
		Name:              e.Name,
		NameIsPolymorphic: e.NameIsPolymorphic,
		Generics:          CloneTypes(e.Generics),
	}
}

// Clone returns a deep copy of the type.
func (t Type) Clone() Type {
	if len(t.Elements) == 0 {
		return Type{Source: t.Source}
	}

	elements := make([]Elem, len(t.Elements))
	for i, elem := range t.Elements {
		elements[i] = elem.CloneElem()
	}

	return Type{Elements: elements, Source: t.Source}
}

// CloneTypes deep-copies a slice of types.
func CloneTypes(types []Type) []Type {
	if types == nil {
		return nil
	}

	cloned := make([]Type, len(types))
	for i := range types {
		cloned[i] = types[i].Clone()
	}

	return cloned
}

// IsEmpty reports whether the type has no elements ("no type").
func (t Type) IsEmpty() bool {
	return len(t.Elements) == 0
}
