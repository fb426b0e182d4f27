package irgen

import (
	"testing"

	"github.com/adeptlang/go-adept/internal/ast"
	"github.com/adeptlang/go-adept/internal/compiler"
	"github.com/adeptlang/go-adept/internal/ir"
	"github.com/adeptlang/go-adept/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// generateSource runs the front end and the full middle-end pipeline over
// one source file, returning the generator for inspection.
func generateSource(t *testing.T, source string) (*Generator, error) {
	t.Helper()

	c := compiler.New()
	tree := &ast.Ast{}
	require.NoError(t, parser.Parse(c, tree, source, "test.adept"))

	g := newGenerator(c, tree)
	return g, g.run()
}

// mustGenerate fails the test on any compile error.
func mustGenerate(t *testing.T, source string) *Generator {
	t.Helper()

	g, err := generateSource(t, source)
	require.NoError(t, err)
	return g
}

// irFuncByName returns the first IR function with the given name.
func irFuncByName(t *testing.T, g *Generator, name string) *ir.Func {
	t.Helper()

	for _, f := range g.module.Funcs {
		if f.Name == name {
			return f
		}
	}
	t.Fatalf("no IR function named %q", name)
	return nil
}

// callTargets collects the call targets of a function's body in emission
// order.
func callTargets(f *ir.Func) []ir.FuncID {
	var targets []ir.FuncID
	for _, block := range f.Blocks {
		for _, instr := range block.Instrs {
			if instr.Kind == ir.InstrCall {
				targets = append(targets, instr.FuncID)
			}
		}
	}
	return targets
}

func TestOverloadStrictPassWins(t *testing.T) {
	// The literal is a generic int: the strict pass must pick f(int) and
	// the loose pass (which would admit f(double)) is never consulted
	g := mustGenerate(t, `
func f(x int) void {}
func f(x double) void {}
func main {
	f(3)
}
`)

	targets := callTargets(irFuncByName(t, g, "main"))
	require.Len(t, targets, 1)

	callee := g.tree.Func(g.module.Func(targets[0]).AstFuncID)
	assert.Equal(t, "int", callee.ArgTypes[0].String())
}

func TestOverloadStrictWinsRegardlessOfOrder(t *testing.T) {
	g := mustGenerate(t, `
func f(x double) void {}
func f(x int) void {}
func main {
	f(3)
}
`)

	targets := callTargets(irFuncByName(t, g, "main"))
	require.Len(t, targets, 1)

	callee := g.tree.Func(g.module.Func(targets[0]).AstFuncID)
	assert.Equal(t, "int", callee.ArgTypes[0].String())
}

func TestPolymorphInstantiationMemoized(t *testing.T) {
	g := mustGenerate(t, `
func id(x $T) $T {
	return x
}
func main {
	id(3)
	id(3)
	id(3.0)
}
`)

	// Template plus exactly two concrete instantiations
	idFuncs := 0
	for _, f := range g.tree.Funcs {
		if f.Name == "id" {
			idFuncs++
		}
	}
	assert.Equal(t, 3, idFuncs, "expected template + two instantiations")
	assert.Len(t, g.instantiations, 2)

	targets := callTargets(irFuncByName(t, g, "main"))
	require.Len(t, targets, 3)
	assert.Equal(t, targets[0], targets[1], "repeated calls must share the concrete endpoint")
	assert.NotEqual(t, targets[0], targets[2], "distinct substitutions get distinct endpoints")
}

func TestAutogenDeferChain(t *testing.T) {
	g := mustGenerate(t, `
struct Handle (id int)
struct Inner (x *Handle)

func __defer__(this *Inner) void {}

struct Outer (a Inner, b Inner)

func main {
	o Outer
}
`)

	// The SF cache must know both types have deference
	inner := g.sfCache.LocateOrInsert(ast.TypeBase("Inner"))
	assert.Equal(t, compiler.True, inner.HasDefer)

	outer := g.sfCache.LocateOrInsert(ast.TypeBase("Outer"))
	assert.Equal(t, compiler.True, outer.HasDefer)

	// The synthesized __defer__(this *Outer) calls Inner's __defer__ once
	// per field, in declaration order
	outerDefer := g.tree.Func(outer.Defer.AstFuncID)
	require.NotNil(t, outerDefer)
	assert.NotZero(t, outerDefer.Traits&ast.FuncAutogen)

	userDefer := inner.Defer
	body := g.module.Func(outer.Defer.IRFuncID)
	targets := callTargets(body)
	require.Len(t, targets, 2)
	assert.Equal(t, userDefer.IRFuncID, targets[0])
	assert.Equal(t, userDefer.IRFuncID, targets[1])
}

func TestVtableOverride(t *testing.T) {
	g := mustGenerate(t, `
class Animal {
	func virtual speak() void {}
}

class Dog extends Animal {
	func override speak() void {}
}

func main {
	d Dog
	d.speak()
}
`)

	dogNode := g.vtreeFind(ast.TypeBase("Dog"))
	require.NotNil(t, dogNode)
	require.Len(t, dogNode.Table, 1)

	slotFunc := g.tree.Func(dogNode.Table[0].AstFuncID)
	subject, _ := slotFunc.SubjectName()
	assert.Equal(t, "Dog", subject, "Dog's slot must point at the override")
	assert.NotZero(t, slotFunc.Traits&ast.FuncOverride)

	// The finalized table holds Dog.speak's address
	anon := g.module.AnonGlobals[dogNode.TableAnonGlobalID]
	require.NotNil(t, anon.Initializer)
	require.Len(t, anon.Initializer.Values, 1)
	assert.Equal(t, dogNode.Table[0].IRFuncID, anon.Initializer.Values[0].FuncID)

	// The call site dispatches through the generated dispatcher
	targets := callTargets(irFuncByName(t, g, "main"))
	require.NotEmpty(t, targets)

	dispatched := false
	for _, target := range targets {
		callee := g.tree.Func(g.module.Func(target).AstFuncID)
		if callee.Traits&ast.FuncDispatcher != 0 {
			dispatched = true
		}
	}
	assert.True(t, dispatched, "method call must go through the dispatcher")
}

func TestRTTIOrdering(t *testing.T) {
	g := mustGenerate(t, `
__types__ *ptr

func main {
	a ptr = typeinfo int
	b ptr = typeinfo *ubyte
	c ptr = typeinfo int
}
`)

	require.Equal(t, 2, g.module.Collector.Len())
	types := g.module.Collector.Types()
	assert.Equal(t, "int", types[0].String())
	assert.Equal(t, "*ubyte", types[1].String())

	require.Len(t, g.module.RTTIRelocations, 3)
	want := []uint64{0, 1, 0}
	for i, relocation := range g.module.RTTIRelocations {
		assert.Equal(t, want[i], relocation.Placeholder.Literal, "relocation %d", i)
	}
}

func TestNoDiscardViolation(t *testing.T) {
	_, err := generateSource(t, `
func no_discard compute() int {
	return 42
}
func main {
	compute()
}
`)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Not allowed to discard value returned from")
}

func TestDisallowedCall(t *testing.T) {
	_, err := generateSource(t, `
func disallow forbidden() void {}
func main {
	forbidden()
}
`)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Cannot use disallowed")
}

func TestJobListExhaustion(t *testing.T) {
	g := mustGenerate(t, `
foreign printf(*ubyte, ...) int

func helper() int {
	return 7
}
func main {
	x int = helper()
}
`)

	assert.Empty(t, g.module.JobList, "job list must be drained")

	for _, f := range g.module.Funcs {
		if f.Traits&ir.FuncIsForeign != 0 {
			assert.Empty(t, f.Blocks, "foreign functions have no body")
			continue
		}
		assert.NotEmpty(t, f.Blocks, "function %s has no basic blocks", f.Name)
	}
}

func TestDefaultArgumentFilling(t *testing.T) {
	g := mustGenerate(t, `
func greet(times int, loud bool = false) void {}
func main {
	greet(2)
	greet(3, true)
}
`)

	main := irFuncByName(t, g, "main")

	var callArgCounts []int
	for _, block := range main.Blocks {
		for _, instr := range block.Instrs {
			if instr.Kind == ir.InstrCall {
				callArgCounts = append(callArgCounts, len(instr.Values))
			}
		}
	}

	require.Len(t, callArgCounts, 2)
	assert.Equal(t, 2, callArgCounts[0], "missing argument must be filled from its default")
	assert.Equal(t, 2, callArgCounts[1])
}

func TestResolverDeterminism(t *testing.T) {
	source := `
func f(x int) void {}
func f(x double) void {}
func f(x long) void {}
func main {
	f(3)
	f(3)
}
`
	first := mustGenerate(t, source)
	second := mustGenerate(t, source)

	assert.Equal(t, first.module.Dump(), second.module.Dump(),
		"identical input must produce identical modules")

	targets := callTargets(irFuncByName(t, first, "main"))
	require.Len(t, targets, 2)
	assert.Equal(t, targets[0], targets[1])
}

func TestUndeclaredFunctionSuggestion(t *testing.T) {
	_, err := generateSource(t, `
func length(x int) int {
	return x
}
func main {
	lenght(1)
}
`)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Undeclared function")
	assert.Contains(t, err.Error(), "length", "should suggest the closest name")
}

func TestUndeclaredVariableSuggestion(t *testing.T) {
	_, err := generateSource(t, `
func main {
	counter int = 0
	countr = 1
}
`)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Undeclared variable")
	assert.Contains(t, err.Error(), "counter")
}

func TestPolymorphMethodOnGenericComposite(t *testing.T) {
	g := mustGenerate(t, `
struct <$T> Box (value $T)

func get(this *<$T> Box) $T {
	return this.value
}

func main {
	b <int> Box
	x int = b.get()
}
`)

	// One concrete instantiation of the method
	gets := 0
	for _, f := range g.tree.Funcs {
		if f.Name == "get" {
			gets++
		}
	}
	assert.Equal(t, 2, gets, "template + one instantiation")

	assert.NotNil(t, g.module.TypeMap.Find("<int> Box"))
}
