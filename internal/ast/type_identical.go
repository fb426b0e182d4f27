package ast

// TypesIdentical reports whether two types are structurally identical:
// equal element-sequence lengths with matching corresponding elements.
// VarFixedArray and UnknownEnum elements never compare identical across
// instances; both must be coerced away before comparison.
func TypesIdentical(a, b Type) bool {
	if len(a.Elements) != len(b.Elements) {
		return false
	}

	for i := range a.Elements {
		if !elemsIdentical(a.Elements[i], b.Elements[i]) {
			return false
		}
	}

	return true
}

// TypeListsIdentical reports whether two type lists are pointwise identical.
func TypeListsIdentical(a, b []Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !TypesIdentical(a[i], b[i]) {
			return false
		}
	}
	return true
}

func elemsIdentical(a, b Elem) bool {
	switch ae := a.(type) {
	case *BaseElem:
		be, ok := b.(*BaseElem)
		return ok && ae.Name == be.Name
	case *PointerElem:
		_, ok := b.(*PointerElem)
		return ok
	case *ArrayElem:
		_, ok := b.(*ArrayElem)
		return ok
	case *GenericIntElem:
		_, ok := b.(*GenericIntElem)
		return ok
	case *GenericFloatElem:
		_, ok := b.(*GenericFloatElem)
		return ok
	case *FixedArrayElem:
		be, ok := b.(*FixedArrayElem)
		return ok && ae.Length == be.Length
	case *FuncElem:
		be, ok := b.(*FuncElem)
		if !ok || ae.Traits != be.Traits {
			return false
		}
		if len(ae.ArgTypes) != len(be.ArgTypes) {
			return false
		}
		for i := range ae.ArgTypes {
			if !TypesIdentical(ae.ArgTypes[i], be.ArgTypes[i]) {
				return false
			}
		}
		return TypesIdentical(ae.ReturnType, be.ReturnType)
	case *PolymorphElem:
		be, ok := b.(*PolymorphElem)
		return ok && ae.Name == be.Name
	case *PolyCountElem:
		be, ok := b.(*PolyCountElem)
		return ok && ae.Name == be.Name
	case *PolymorphPrereqElem:
		be, ok := b.(*PolymorphPrereqElem)
		if !ok || ae.Similarity != be.Similarity || ae.Name != be.Name {
			return false
		}
		if ae.Extends.IsEmpty() != be.Extends.IsEmpty() {
			return false
		}
		if ae.Extends.IsEmpty() {
			return true
		}
		return TypesIdentical(ae.Extends, be.Extends)
	case *GenericBaseElem:
		be, ok := b.(*GenericBaseElem)
		if !ok || ae.Name != be.Name || ae.NameIsPolymorphic != be.NameIsPolymorphic {
			return false
		}
		if len(ae.Generics) != len(be.Generics) {
			return false
		}
		for i := range ae.Generics {
			if !TypesIdentical(ae.Generics[i], be.Generics[i]) {
				return false
			}
		}
		return true
	case *VarFixedArrayElem, *UnknownEnumElem:
		// Transient elements; never identical across instances
		return false
	}

	return false
}
