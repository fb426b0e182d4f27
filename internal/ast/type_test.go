package ast

import "testing"

func ptrTo(t Type) Type         { return TypePointerTo(t) }
func base(name string) Type     { return TypeBase(name) }
func polymorph(n string) Type   { return TypePolymorph(n) }
func fixedOf(n uint64, t Type) Type { return TypeFixedArrayOf(n, t) }

func TestTypesIdentical(t *testing.T) {
	tests := []struct {
		name string
		a    Type
		b    Type
		want bool
	}{
		{"same base", base("int"), base("int"), true},
		{"different base", base("int"), base("long"), false},
		{"pointer vs base", ptrTo(base("int")), base("int"), false},
		{"same pointer", ptrTo(base("ubyte")), ptrTo(base("ubyte")), true},
		{"fixed array same length", fixedOf(4, base("int")), fixedOf(4, base("int")), true},
		{"fixed array different length", fixedOf(4, base("int")), fixedOf(8, base("int")), false},
		{"same polymorph", polymorph("T"), polymorph("T"), true},
		{"different polymorph", polymorph("T"), polymorph("U"), false},
		{
			"generic base same",
			TypeGenericBase("List", []Type{base("int")}),
			TypeGenericBase("List", []Type{base("int")}),
			true,
		},
		{
			"generic base different args",
			TypeGenericBase("List", []Type{base("int")}),
			TypeGenericBase("List", []Type{base("double")}),
			false,
		},
		{
			"func type same",
			TypeFunc([]Type{base("int")}, base("void"), 0),
			TypeFunc([]Type{base("int")}, base("void"), 0),
			true,
		},
		{
			"func type different traits",
			TypeFunc([]Type{base("int")}, base("void"), 0),
			TypeFunc([]Type{base("int")}, base("void"), FuncElemVararg),
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TypesIdentical(tt.a, tt.b); got != tt.want {
				t.Errorf("TypesIdentical(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestVarFixedArrayNeverIdentical(t *testing.T) {
	a := Type{Elements: []Elem{&VarFixedArrayElem{Length: &IntegerLit{Value: 4}}, &BaseElem{Name: "int"}}}
	b := a.Clone()

	if TypesIdentical(a, b) {
		t.Error("VarFixedArray types must never compare identical across instances")
	}
}

func TestHashAgreesWithIdentity(t *testing.T) {
	types := []Type{
		base("int"),
		base("long"),
		ptrTo(base("int")),
		fixedOf(4, base("int")),
		fixedOf(8, base("int")),
		polymorph("T"),
		Type{Elements: []Elem{&PolyCountElem{Name: "N"}, &BaseElem{Name: "int"}}},
		TypeGenericBase("List", []Type{base("int")}),
		TypeGenericBase("List", []Type{base("double")}),
		TypeFunc([]Type{base("int"), base("int")}, base("int"), 0),
		Type{Elements: []Elem{&GenericIntElem{}}},
		Type{Elements: []Elem{&GenericFloatElem{}}},
	}

	for i := range types {
		for j := range types {
			identical := TypesIdentical(types[i], types[j])
			hashesEqual := TypeHash(types[i]) == TypeHash(types[j])

			if identical && !hashesEqual {
				t.Errorf("identical types %s and %s have different hashes", types[i], types[j])
			}
		}
	}
}

func TestCloneFidelity(t *testing.T) {
	original := TypeGenericBase("Pair", []Type{ptrTo(base("int")), fixedOf(3, base("double"))})
	cloned := original.Clone()

	if !TypesIdentical(original, cloned) {
		t.Fatalf("clone %s is not identical to original %s", cloned, original)
	}

	// Mutating the clone must not affect the original
	cloned.Elements[0].(*GenericBaseElem).Generics[0] = base("ulong")

	if TypesIdentical(original, cloned) {
		t.Error("mutating clone affected original")
	}
	if original.Elements[0].(*GenericBaseElem).Generics[0].String() != "*int" {
		t.Error("original was mutated through clone")
	}
}

func TestTypeString(t *testing.T) {
	tests := []struct {
		name string
		t    Type
		want string
	}{
		{"base", base("int"), "int"},
		{"pointer", ptrTo(base("ubyte")), "*ubyte"},
		{"fixed array", fixedOf(10, base("int")), "10 int"},
		{"double pointer", ptrTo(ptrTo(base("void"))), "**void"},
		{"polymorph", polymorph("T"), "$T"},
		{"generic base", TypeGenericBase("List", []Type{base("int")}), "<int> List"},
		{"func", TypeFunc([]Type{base("int"), base("int")}, base("int"), 0), "func(int, int) int"},
		{"vararg func", TypeFunc(nil, base("void"), FuncElemVararg), "func(...) void"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.t.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTypePredicates(t *testing.T) {
	if !base("void").IsVoid() {
		t.Error("void should be void")
	}
	if !ptrTo(base("int")).IsPointer() {
		t.Error("*int should be a pointer")
	}
	if !ptrTo(base("int")).IsBasePtrOf("int") {
		t.Error("*int should be a base pointer of int")
	}
	if !polymorph("T").HasPolymorph() {
		t.Error("$T should report polymorph")
	}
	if base("int").HasPolymorph() {
		t.Error("int should not report polymorph")
	}

	name, ok := ptrTo(base("Widget")).StructLikeName()
	if !ok || name != "Widget" {
		t.Errorf("StructLikeName(*Widget) = %q, %v", name, ok)
	}
}
