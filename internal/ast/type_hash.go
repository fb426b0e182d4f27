package ast

// TypeHash computes a structural hash of a type. Hashing mirrors identity:
// identical types always hash equal. Only the RTTI set and the special
// function cache may depend on these values.
//
// VarFixedArray elements cannot be hashed; they contribute only their kind,
// and must be erased to concrete fixed arrays before reaching any code path
// that demands identity.
func TypeHash(t Type) uint64 {
	var master uint64
	for _, elem := range t.Elements {
		master = hashCombine(master, elemHash(elem))
	}
	return master
}

// TypesHash hashes a list of types.
func TypesHash(types []Type) uint64 {
	var h uint64
	for i := range types {
		h = hashCombine(h, TypeHash(types[i]))
	}
	return h
}

func hashCombine(h, other uint64) uint64 {
	return h*31 + other
}

func hashString(s string) uint64 {
	var h uint64
	for i := 0; i < len(s); i++ {
		h = h*31 + uint64(s[i])
	}
	return h
}

const (
	elemKindBase uint64 = iota + 1
	elemKindPointer
	elemKindArray
	elemKindFixedArray
	elemKindVarFixedArray
	elemKindFunc
	elemKindPolymorph
	elemKindPolyCount
	elemKindPolymorphPrereq
	elemKindGenericBase
	elemKindGenericInt
	elemKindGenericFloat
	elemKindUnknownEnum
)

func elemHash(elem Elem) uint64 {
	switch e := elem.(type) {
	case *BaseElem:
		return hashCombine(elemKindBase, hashString(e.Name))
	case *PointerElem:
		return elemKindPointer
	case *ArrayElem:
		return elemKindArray
	case *GenericIntElem:
		return elemKindGenericInt
	case *GenericFloatElem:
		return elemKindGenericFloat
	case *FixedArrayElem:
		return hashCombine(elemKindFixedArray, e.Length)
	case *VarFixedArrayElem:
		// Cannot hash an unevaluated length; kind only
		return elemKindVarFixedArray
	case *FuncElem:
		h := hashCombine(elemKindFunc, TypesHash(e.ArgTypes))
		h = hashCombine(h, TypeHash(e.ReturnType))
		return hashCombine(h, uint64(e.Traits))
	case *PolymorphElem:
		return hashCombine(elemKindPolymorph, hashString(e.Name))
	case *PolyCountElem:
		return hashCombine(elemKindPolyCount, hashCombine(hashString("#"), hashString(e.Name)))
	case *PolymorphPrereqElem:
		h := hashCombine(elemKindPolymorphPrereq, hashString(e.Similarity))
		h = hashCombine(h, hashString(e.Name))
		if !e.Extends.IsEmpty() {
			h = hashCombine(h, TypeHash(e.Extends))
		}
		return h
	case *GenericBaseElem:
		h := elemKindGenericBase
		if e.NameIsPolymorphic {
			h = hashCombine(h, 1)
		}
		h = hashCombine(h, hashString(e.Name))
		return hashCombine(h, TypesHash(e.Generics))
	case *UnknownEnumElem:
		return hashCombine(elemKindUnknownEnum, hashString(e.KindName))
	}

	return 0
}
