package ast

import (
	"strconv"
	"strings"
)

// String renders the type in human notation: "*int", "10 ubyte",
// "<int> List", "func(int, int) int", "$T", "$#N". This notation is the
// key the RTTI resolver matches relocations against, so it must be stable.
func (t Type) String() string {
	var sb strings.Builder
	for _, elem := range t.Elements {
		writeElem(&sb, elem)
	}
	return sb.String()
}

func writeElem(sb *strings.Builder, elem Elem) {
	switch e := elem.(type) {
	case *BaseElem:
		sb.WriteString(e.Name)
	case *PointerElem:
		sb.WriteString("*")
	case *ArrayElem:
		sb.WriteString("[] ")
	case *FixedArrayElem:
		sb.WriteString(strconv.FormatUint(e.Length, 10))
		sb.WriteString(" ")
	case *VarFixedArrayElem:
		if e.Length != nil {
			sb.WriteString(e.Length.String())
		}
		sb.WriteString(" ")
	case *FuncElem:
		if e.Traits&FuncElemStdcall != 0 {
			sb.WriteString("stdcall ")
		}
		sb.WriteString("func(")
		for i := range e.ArgTypes {
			if i != 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(e.ArgTypes[i].String())
		}
		if e.Traits&FuncElemVararg != 0 {
			if len(e.ArgTypes) != 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("...")
		}
		sb.WriteString(") ")
		sb.WriteString(e.ReturnType.String())
	case *PolymorphElem:
		sb.WriteString("$")
		sb.WriteString(e.Name)
	case *PolyCountElem:
		sb.WriteString("$#")
		sb.WriteString(e.Name)
	case *PolymorphPrereqElem:
		sb.WriteString("$")
		sb.WriteString(e.Name)
		sb.WriteString("~")
		sb.WriteString(e.Similarity)
		if !e.Extends.IsEmpty() {
			sb.WriteString(" extends ")
			sb.WriteString(e.Extends.String())
		}
	case *GenericBaseElem:
		sb.WriteString("<")
		for i := range e.Generics {
			if i != 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(e.Generics[i].String())
		}
		sb.WriteString("> ")
		sb.WriteString(e.Name)
	case *GenericIntElem:
		sb.WriteString("int")
	case *GenericFloatElem:
		sb.WriteString("double")
	case *UnknownEnumElem:
		sb.WriteString("enum ")
		sb.WriteString(e.KindName)
	}
}

// TypesString renders a comma-separated list of types.
func TypesString(types []Type) string {
	parts := make([]string, len(types))
	for i := range types {
		parts[i] = types[i].String()
	}
	return strings.Join(parts, ", ")
}
