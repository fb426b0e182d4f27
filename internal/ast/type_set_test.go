package ast

import "testing"

func TestTypeSetInsertionOrder(t *testing.T) {
	set := NewTypeSet()

	if !set.Insert(base("int")) {
		t.Error("first insert of int should succeed")
	}
	if !set.Insert(ptrTo(base("ubyte"))) {
		t.Error("first insert of *ubyte should succeed")
	}
	if set.Insert(base("int")) {
		t.Error("duplicate insert of int should be rejected")
	}
	if !set.Insert(base("double")) {
		t.Error("first insert of double should succeed")
	}

	items := set.Items()
	want := []string{"int", "*ubyte", "double"}

	if len(items) != len(want) {
		t.Fatalf("set has %d items, want %d", len(items), len(want))
	}
	for i, notation := range want {
		if items[i].String() != notation {
			t.Errorf("items[%d] = %s, want %s", i, items[i], notation)
		}
	}
}

func TestTypeSetIndexOf(t *testing.T) {
	set := NewTypeSet()
	set.Insert(base("int"))
	set.Insert(ptrTo(base("ubyte")))

	if index := set.IndexOf(base("int")); index != 0 {
		t.Errorf("IndexOf(int) = %d, want 0", index)
	}
	if index := set.IndexOf(ptrTo(base("ubyte"))); index != 1 {
		t.Errorf("IndexOf(*ubyte) = %d, want 1", index)
	}
	if index := set.IndexOf(base("long")); index != -1 {
		t.Errorf("IndexOf(long) = %d, want -1", index)
	}
}

func TestTypeSetRejectsVarFixedArray(t *testing.T) {
	set := NewTypeSet()
	unevaluated := Type{Elements: []Elem{
		&VarFixedArrayElem{Length: &IntegerLit{Value: 3}},
		&BaseElem{Name: "int"},
	}}

	if set.Insert(unevaluated) {
		t.Error("types containing VarFixedArray must be rejected")
	}
	if set.Len() != 0 {
		t.Error("rejected insert must not grow the set")
	}
}

func TestTypeSetOwnsItsClones(t *testing.T) {
	set := NewTypeSet()
	original := ptrTo(base("int"))
	set.Insert(original)

	// Mutating the inserted type must not change the stored one
	original.Elements[1].(*BaseElem).Name = "long"

	if set.Items()[0].String() != "*int" {
		t.Error("set should store clones, not aliases")
	}
}
