package ast

import "testing"

func TestExprCloneIsDeep(t *testing.T) {
	original := &BinaryExpr{
		Op:   BinaryAdd,
		Left: &IntegerLit{Value: 1},
		Right: &CallExpr{
			Name: "f",
			Args: []Expr{&VariableExpr{Name: "x"}},
		},
	}

	cloned := original.CloneExpr().(*BinaryExpr)

	if cloned.String() != original.String() {
		t.Fatalf("clone renders %q, original %q", cloned.String(), original.String())
	}

	cloned.Left.(*IntegerLit).Value = 99
	cloned.Right.(*CallExpr).Args[0].(*VariableExpr).Name = "mutated"

	if original.Left.(*IntegerLit).Value != 1 {
		t.Error("mutating clone's literal affected original")
	}
	if original.Right.(*CallExpr).Args[0].(*VariableExpr).Name != "x" {
		t.Error("mutating clone's call argument affected original")
	}
}

func TestStmtCloneIsDeep(t *testing.T) {
	original := &ConditionalStmt{
		Condition: &BoolLit{Value: true},
		Then: []Stmt{
			&DeclareStmt{Name: "x", Type: TypeBase("int"), Value: &IntegerLit{Value: 3}},
		},
	}

	cloned := original.CloneStmt().(*ConditionalStmt)
	cloned.Then[0].(*DeclareStmt).Name = "mutated"
	cloned.Then[0].(*DeclareStmt).Type.Elements[0].(*BaseElem).Name = "long"

	declare := original.Then[0].(*DeclareStmt)
	if declare.Name != "x" || declare.Type.String() != "int" {
		t.Error("mutating clone affected original statement")
	}
}

func TestBinaryOpOverloadNames(t *testing.T) {
	tests := []struct {
		op   BinaryOp
		want string
	}{
		{BinaryAdd, "__add__"},
		{BinarySubtract, "__subtract__"},
		{BinaryMultiply, "__multiply__"},
		{BinaryDivide, "__divide__"},
		{BinaryModulus, "__modulus__"},
		{BinaryEquals, "__equals__"},
		{BinaryNotEquals, "__not_equals__"},
		{BinaryLessThan, "__less_than__"},
		{BinaryGreaterThan, "__greater_than__"},
		{BinaryLessThanEq, "__less_than_or_equal__"},
		{BinaryGreaterThanEq, "__greater_than_or_equal__"},
		{BinaryAnd, ""},
		{BinaryBitXor, ""},
	}

	for _, tt := range tests {
		if got := tt.op.OverloadName(); got != tt.want {
			t.Errorf("OverloadName(%s) = %q, want %q", tt.op.Symbol(), got, tt.want)
		}
	}
}

func TestFuncHead(t *testing.T) {
	f := &Func{
		Name:     "sum",
		ArgNames: []string{"a", "b"},
		ArgTypes: []Type{TypeBase("int"), TypeBase("int")},
		ReturnType: TypeBase("int"),
	}

	if got := f.Head(); got != "sum(a int, b int) int" {
		t.Errorf("Head() = %q", got)
	}

	void := &Func{Name: "go", ReturnType: TypeBase("void")}
	if got := void.Head(); got != "go()" {
		t.Errorf("Head() = %q", got)
	}
}

func TestFuncIsMethod(t *testing.T) {
	method := &Func{
		Name:     "speak",
		ArgNames: []string{"this"},
		ArgTypes: []Type{TypePointerTo(TypeBase("Animal"))},
	}

	if !method.IsMethod() {
		t.Error("function with this *Animal should be a method")
	}

	subject, ok := method.SubjectName()
	if !ok || subject != "Animal" {
		t.Errorf("SubjectName() = %q, %v", subject, ok)
	}

	plain := &Func{Name: "f", ArgNames: []string{"x"}, ArgTypes: []Type{TypeBase("int")}}
	if plain.IsMethod() {
		t.Error("plain function should not be a method")
	}
}
