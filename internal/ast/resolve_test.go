package ast

import (
	"errors"
	"testing"
)

func TestResolveTypeSubstitution(t *testing.T) {
	catalog := NewPolyCatalog()
	catalog.AddType("T", base("int"))
	catalog.AddType("P", ptrTo(base("ubyte")))
	catalog.AddCount("N", 8)

	tests := []struct {
		name  string
		input Type
		want  string
	}{
		{"plain polymorph", polymorph("T"), "int"},
		{
			"pointer to polymorph",
			ptrTo(polymorph("T")),
			"*int",
		},
		{
			// A polymorph bound to a pointer splices its elements, so the
			// output is longer than the input
			"polymorph bound to pointer",
			polymorph("P"),
			"*ubyte",
		},
		{
			"polycount becomes fixed array",
			Type{Elements: []Elem{&PolyCountElem{Name: "N"}, &BaseElem{Name: "int"}}},
			"8 int",
		},
		{
			"generic base recursion",
			TypeGenericBase("List", []Type{polymorph("T")}),
			"<int> List",
		},
		{
			"func recursion",
			TypeFunc([]Type{polymorph("T")}, polymorph("P"), 0),
			"func(int) *ubyte",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved, err := ResolveType(catalog, tt.input)
			if err != nil {
				t.Fatalf("ResolveType(%s) error: %v", tt.input, err)
			}
			if resolved.String() != tt.want {
				t.Errorf("ResolveType(%s) = %s, want %s", tt.input, resolved, tt.want)
			}
		})
	}
}

func TestResolveIdempotence(t *testing.T) {
	catalog := NewPolyCatalog()
	catalog.AddType("T", base("int"))

	concrete := []Type{
		base("int"),
		ptrTo(base("ubyte")),
		fixedOf(4, base("double")),
		TypeGenericBase("List", []Type{base("int")}),
		TypeFunc([]Type{base("int")}, base("void"), 0),
	}

	for _, input := range concrete {
		resolved, err := ResolveType(catalog, input)
		if err != nil {
			t.Fatalf("ResolveType(%s) error: %v", input, err)
		}
		if !TypesIdentical(input, resolved) {
			t.Errorf("resolving concrete type %s changed it to %s", input, resolved)
		}
	}
}

func TestResolveUnresolvedPolymorph(t *testing.T) {
	catalog := NewPolyCatalog()

	_, err := ResolveType(catalog, polymorph("Missing"))
	if err == nil {
		t.Fatal("expected error for unresolved polymorph")
	}

	var unresolved *UnresolvedPolymorphError
	if !errors.As(err, &unresolved) {
		t.Fatalf("expected UnresolvedPolymorphError, got %T", err)
	}
	if unresolved.Name != "Missing" {
		t.Errorf("offending name = %q, want %q", unresolved.Name, "Missing")
	}
}

func TestCatalogSignatureDeterminism(t *testing.T) {
	a := NewPolyCatalog()
	a.AddType("T", base("int"))
	a.AddCount("N", 4)

	b := NewPolyCatalog()
	b.AddType("T", base("int"))
	b.AddCount("N", 4)

	if a.Signature() != b.Signature() {
		t.Errorf("equal catalogs render different signatures: %q vs %q", a.Signature(), b.Signature())
	}

	c := NewPolyCatalog()
	c.AddType("T", base("double"))
	c.AddCount("N", 4)

	if a.Signature() == c.Signature() {
		t.Error("different catalogs render the same signature")
	}
}

func TestCatalogLookups(t *testing.T) {
	catalog := NewPolyCatalog()
	catalog.AddType("T", base("int"))
	catalog.AddCount("N", 2)

	if binding := catalog.FindType("T"); binding == nil || binding.Binding.String() != "int" {
		t.Error("FindType(T) should return the int binding")
	}
	if catalog.FindType("U") != nil {
		t.Error("FindType(U) should be nil")
	}
	if count := catalog.FindCount("N"); count == nil || count.Binding != 2 {
		t.Error("FindCount(N) should return 2")
	}
	if catalog.FindCount("M") != nil {
		t.Error("FindCount(M) should be nil")
	}
}

func TestResolveStmtsRewritesTypes(t *testing.T) {
	catalog := NewPolyCatalog()
	catalog.AddType("T", base("int"))

	stmts := []Stmt{
		&DeclareStmt{Name: "x", Type: polymorph("T")},
		&ReturnStmt{Value: &SizeofExpr{Type: ptrTo(polymorph("T"))}},
	}

	if err := ResolveStmts(catalog, stmts); err != nil {
		t.Fatalf("ResolveStmts error: %v", err)
	}

	declare := stmts[0].(*DeclareStmt)
	if declare.Type.String() != "int" {
		t.Errorf("declaration type = %s, want int", declare.Type)
	}

	sizeOf := stmts[1].(*ReturnStmt).Value.(*SizeofExpr)
	if sizeOf.Type.String() != "*int" {
		t.Errorf("sizeof type = %s, want *int", sizeOf.Type)
	}
}
