package parser

import (
	"testing"

	"github.com/adeptlang/go-adept/internal/ast"
	"github.com/adeptlang/go-adept/internal/compiler"
)

func parseSource(t *testing.T, source string) *ast.Ast {
	t.Helper()

	c := compiler.New()
	tree := &ast.Ast{}
	if err := Parse(c, tree, source, "test.adept"); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return tree
}

func TestParseFunction(t *testing.T) {
	tree := parseSource(t, `
func sum(a int, b int) int {
	return a + b
}
`)

	if len(tree.Funcs) != 1 {
		t.Fatalf("parsed %d functions, want 1", len(tree.Funcs))
	}

	f := tree.Funcs[0]
	if f.Name != "sum" {
		t.Errorf("name = %q", f.Name)
	}
	if f.Arity() != 2 || f.ArgNames[0] != "a" || f.ArgNames[1] != "b" {
		t.Errorf("unexpected params: %v", f.ArgNames)
	}
	if f.ArgTypes[0].String() != "int" || f.ReturnType.String() != "int" {
		t.Errorf("unexpected types: %s -> %s", f.ArgTypes[0], f.ReturnType)
	}
	if len(f.Statements) != 1 {
		t.Fatalf("parsed %d statements, want 1", len(f.Statements))
	}
	if _, ok := f.Statements[0].(*ast.ReturnStmt); !ok {
		t.Errorf("statement is %T, want ReturnStmt", f.Statements[0])
	}
}

func TestParseFunctionQualifiers(t *testing.T) {
	tree := parseSource(t, `
func no_discard compute() int {
	return 42
}
func disallow forbidden() void {}
`)

	if tree.Funcs[0].Traits&ast.FuncNoDiscard == 0 {
		t.Error("compute should carry the no_discard trait")
	}
	if tree.Funcs[1].Traits&ast.FuncDisallow == 0 {
		t.Error("forbidden should carry the disallow trait")
	}
}

func TestParsePolymorphicFunction(t *testing.T) {
	tree := parseSource(t, `
func id(x $T) $T {
	return x
}
`)

	f := tree.Funcs[0]
	if f.Traits&ast.FuncPolymorphic == 0 {
		t.Error("id should be polymorphic")
	}
	if f.ArgTypes[0].String() != "$T" || f.ReturnType.String() != "$T" {
		t.Errorf("types = %s -> %s", f.ArgTypes[0], f.ReturnType)
	}
}

func TestParseDefaultArguments(t *testing.T) {
	tree := parseSource(t, `
func greet(times int, loud bool = false) void {}
`)

	f := tree.Funcs[0]
	if f.ArgDefaults == nil || len(f.ArgDefaults) != 2 {
		t.Fatalf("defaults = %v", f.ArgDefaults)
	}
	if f.ArgDefaults[0] != nil {
		t.Error("first parameter should have no default")
	}
	if f.ArgDefaults[1] == nil {
		t.Error("second parameter should have a default")
	}
}

func TestParseStruct(t *testing.T) {
	tree := parseSource(t, `
struct Point (x int, y int)
struct <$T> Box (value $T)
`)

	if len(tree.Composites) != 2 {
		t.Fatalf("parsed %d composites, want 2", len(tree.Composites))
	}

	point := tree.Composites[0]
	if point.Name != "Point" || point.IsClass || point.IsPolymorphic {
		t.Errorf("unexpected composite: %+v", point)
	}
	if point.FieldCount() != 2 || point.FieldNames[0] != "x" {
		t.Errorf("fields = %v", point.FieldNames)
	}

	box := tree.Composites[1]
	if !box.IsPolymorphic || len(box.Generics) != 1 || box.Generics[0] != "T" {
		t.Errorf("box generics = %v", box.Generics)
	}
}

func TestParseClass(t *testing.T) {
	tree := parseSource(t, `
class Animal {
	name *ubyte

	func virtual speak() void {}
}

class Dog extends Animal {
	func override speak() void {}
}
`)

	animal := tree.Composites[0]
	if !animal.IsClass || animal.FieldCount() != 1 {
		t.Errorf("animal = %+v", animal)
	}

	dog := tree.Composites[1]
	if dog.Parent.String() != "Animal" {
		t.Errorf("dog parent = %s", dog.Parent)
	}

	if len(tree.Funcs) != 2 {
		t.Fatalf("parsed %d funcs, want 2", len(tree.Funcs))
	}

	speak := tree.Funcs[0]
	if speak.Traits&ast.FuncVirtual == 0 {
		t.Error("Animal.speak should be virtual")
	}
	if !speak.IsMethod() {
		t.Error("class methods should receive an implicit this")
	}
	if subject, _ := speak.SubjectName(); subject != "Animal" {
		t.Errorf("subject = %q", subject)
	}

	override := tree.Funcs[1]
	if override.Traits&ast.FuncOverride == 0 {
		t.Error("Dog.speak should be override")
	}
}

func TestParseEnumAliasGlobalConstant(t *testing.T) {
	tree := parseSource(t, `
enum Color (RED, GREEN, BLUE)
alias Id = ulong
counter int = 0
const LIMIT = 100
`)

	if len(tree.Enums) != 1 || len(tree.Enums[0].Members) != 3 {
		t.Fatalf("enums = %+v", tree.Enums)
	}
	if tree.Enums[0].MemberIndex("GREEN") != 1 {
		t.Error("GREEN should have index 1")
	}

	if len(tree.Aliases) != 1 || tree.Aliases[0].Type.String() != "ulong" {
		t.Errorf("aliases = %+v", tree.Aliases)
	}

	if len(tree.Globals) != 1 || tree.Globals[0].Name != "counter" {
		t.Errorf("globals = %+v", tree.Globals)
	}
	if tree.Globals[0].Initial == nil {
		t.Error("counter should have an initializer")
	}

	if len(tree.Constants) != 1 || tree.Constants[0].Name != "LIMIT" {
		t.Errorf("constants = %+v", tree.Constants)
	}
}

func TestParseForeign(t *testing.T) {
	tree := parseSource(t, `
foreign printf(*ubyte, ...) int
`)

	f := tree.Funcs[0]
	if f.Traits&ast.FuncForeign == 0 || f.Traits&ast.FuncVararg == 0 {
		t.Errorf("traits = %v", f.Traits)
	}
	if f.Arity() != 1 || f.ArgTypes[0].String() != "*ubyte" {
		t.Errorf("args = %v", f.ArgTypes)
	}
}

func TestParseExpressionPrecedence(t *testing.T) {
	tree := parseSource(t, `
func main {
	x int = 1 + 2 * 3
}
`)

	declare := tree.Funcs[0].Statements[0].(*ast.DeclareStmt)
	if declare.Value.String() != "(1 + (2 * 3))" {
		t.Errorf("parsed %s", declare.Value)
	}
}

func TestParseControlFlow(t *testing.T) {
	tree := parseSource(t, `
func main {
	x int = 0
	if x == 0 {
		x = 1
	} else {
		x = 2
	}
	unless x == 1 {
		x = 3
	}
	while x < 10 {
		x += 1
	}
	repeat 3 {
		x += idx
	}
	switch x {
	case 13
		x = 0
		fallthrough
	case 14
		break
	default
		x = 99
	}
	defer cleanup()
	return
}
func cleanup() void {}
`)

	stmts := tree.Funcs[0].Statements
	wantKinds := []string{
		"*ast.DeclareStmt", "*ast.ConditionalStmt", "*ast.ConditionalStmt",
		"*ast.WhileStmt", "*ast.RepeatStmt", "*ast.SwitchStmt",
		"*ast.DeferStmt", "*ast.ReturnStmt",
	}

	if len(stmts) != len(wantKinds) {
		t.Fatalf("parsed %d statements, want %d", len(stmts), len(wantKinds))
	}

	unless := stmts[2].(*ast.ConditionalStmt)
	if !unless.IsUnless {
		t.Error("third conditional should be an unless")
	}

	sw := stmts[5].(*ast.SwitchStmt)
	if len(sw.Cases) != 2 || sw.Default == nil {
		t.Errorf("switch has %d cases, default=%v", len(sw.Cases), sw.Default != nil)
	}
	if _, ok := sw.Cases[0].Body[1].(*ast.FallthroughStmt); !ok {
		t.Error("first case should end in fallthrough")
	}
}

func TestParseMethodCallsAndMembers(t *testing.T) {
	tree := parseSource(t, `
struct Point (x int, y int)

func main {
	p Point
	p.x = 3
	total int = p.x + p.y
	flip(&p)
	q *Point = &p
	(*q).y = 4
}
func flip(p *Point) void {}
`)

	stmts := tree.Funcs[0].Statements

	assign := stmts[1].(*ast.AssignStmt)
	if _, ok := assign.Destination.(*ast.MemberExpr); !ok {
		t.Errorf("destination is %T, want MemberExpr", assign.Destination)
	}

	call := stmts[3].(*ast.ExprStmt).Expr.(*ast.CallExpr)
	if call.Name != "flip" || len(call.Args) != 1 {
		t.Errorf("call = %s", call)
	}
	if _, ok := call.Args[0].(*ast.UnaryExpr); !ok {
		t.Errorf("argument is %T, want UnaryExpr", call.Args[0])
	}
}

func TestParsePragmaFolding(t *testing.T) {
	c := compiler.New()
	tree := &ast.Ast{}

	source := `
pragma project_name 'demo'
pragma optimization aggressive
`
	if err := Parse(c, tree, source, "test.adept"); err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if c.ProjectName != "demo" {
		t.Errorf("project name = %q", c.ProjectName)
	}
	if c.Optimization != 3 {
		t.Errorf("optimization = %d, want 3", c.Optimization)
	}
}
