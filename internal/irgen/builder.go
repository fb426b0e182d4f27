package irgen

import (
	"errors"

	"github.com/adeptlang/go-adept/internal/ast"
	"github.com/adeptlang/go-adept/internal/compiler"
	"github.com/adeptlang/go-adept/internal/ir"
	"github.com/adeptlang/go-adept/pkg/token"
)

const (
	success    = compiler.Success
	failure    = compiler.Failure
	altFailure = compiler.AltFailure
)

// errAborted signals a fatal failure whose diagnostic has already been
// recorded on the compiler sink.
var errAborted = errors.New("compilation aborted")

// Builder emits IR for one function body. It tracks the current basic
// block, the bridge scope tree, and the loop/label stack, and exposes
// one constructor per instruction kind.
type Builder struct {
	g       *Generator
	f       *ir.Func
	astFunc *ast.Func

	currentBlock int

	rootScope *Scope
	scope     *Scope

	loops []loopFrame

	// fallthroughBlock is the next case body of the enclosing switch,
	// or -1 when fallthrough is invalid here.
	fallthroughBlock int
}

// loopFrame records the break/continue targets of an active loop.
type loopFrame struct {
	label         string
	breakBlock    int
	continueBlock int
	scope         *Scope
}

func newBuilder(g *Generator, f *ir.Func, astFunc *ast.Func) *Builder {
	b := &Builder{g: g, f: f, astFunc: astFunc, fallthroughBlock: -1}
	b.rootScope = newScope(nil)
	b.scope = b.rootScope
	b.currentBlock = b.NewBlock()
	return b
}

// NewBlock appends an empty basic block and returns its id.
func (b *Builder) NewBlock() int {
	b.f.Blocks = append(b.f.Blocks, &ir.BasicBlock{})
	return len(b.f.Blocks) - 1
}

// UseBlock moves the builder's cursor to the given block.
func (b *Builder) UseBlock(id int) {
	b.currentBlock = id
}

// Block returns the block under the cursor.
func (b *Builder) Block() *ir.BasicBlock {
	return b.f.Blocks[b.currentBlock]
}

// emit appends an instruction to the current block and returns the value
// referring to its result (nil for resultless instructions).
func (b *Builder) emit(instr *ir.Instr) *ir.Value {
	block := b.Block()
	block.Instrs = append(block.Instrs, instr)

	if instr.Result == nil {
		return nil
	}

	return &ir.Value{
		Kind:  ir.ValResult,
		Type:  instr.Result,
		Block: b.currentBlock,
		Instr: len(block.Instrs) - 1,
	}
}

// ---------------------------------------------------------------------------
// Snapshots
// ---------------------------------------------------------------------------

// Snapshot captures the builder and module state for speculative emission.
type Snapshot struct {
	block      int
	instrCount int
	blockCount int
	funcCount  int
	jobCount   int
}

// CaptureSnapshot records the current emission position.
func (b *Builder) CaptureSnapshot() Snapshot {
	return Snapshot{
		block:      b.currentBlock,
		instrCount: len(b.Block().Instrs),
		blockCount: len(b.f.Blocks),
		funcCount:  len(b.g.module.Funcs),
		jobCount:   len(b.g.module.JobList),
	}
}

// RestoreSnapshot truncates emission back to a captured position,
// abandoning everything emitted since.
func (b *Builder) RestoreSnapshot(s Snapshot) {
	b.g.module.JobList = b.g.module.JobList[:s.jobCount]
	b.g.module.Funcs = b.g.module.Funcs[:s.funcCount]
	b.f.Blocks = b.f.Blocks[:s.blockCount]
	b.currentBlock = s.block
	block := b.Block()
	block.Instrs = block.Instrs[:s.instrCount]
}

// ---------------------------------------------------------------------------
// Instruction constructors
// ---------------------------------------------------------------------------

// BuildLVarptr takes the address of a local variable.
func (b *Builder) BuildLVarptr(ptrType *ir.Type, varID int) *ir.Value {
	return b.emit(&ir.Instr{Kind: ir.InstrVarptr, Result: ptrType, Index: varID})
}

// BuildGVarptr takes the address of a module global.
func (b *Builder) BuildGVarptr(ptrType *ir.Type, globalID int) *ir.Value {
	return b.emit(&ir.Instr{Kind: ir.InstrGlobalVarptr, Result: ptrType, Index: globalID})
}

// BuildSVarptr takes the address of a static variable.
func (b *Builder) BuildSVarptr(ptrType *ir.Type, staticID int) *ir.Value {
	return b.emit(&ir.Instr{Kind: ir.InstrStaticVarptr, Result: ptrType, Index: staticID})
}

// BuildVarptrFor dispatches to the local or static variant according to
// the variable's storage traits.
func (b *Builder) BuildVarptrFor(v *BridgeVar) *ir.Value {
	ptrType := ir.PointerTo(v.IRType)
	if v.Traits&VarStatic != 0 {
		return b.BuildSVarptr(ptrType, v.ID)
	}
	return b.BuildLVarptr(ptrType, v.ID)
}

// BuildMalloc heap-allocates count values of the given type.
func (b *Builder) BuildMalloc(elemType *ir.Type, count *ir.Value, isUndef bool) *ir.Value {
	instr := &ir.Instr{Kind: ir.InstrMalloc, Result: ir.PointerTo(elemType), A: count}
	if isUndef {
		instr.SideEffects = true // backend skips zero fill
	}
	return b.emit(instr)
}

// BuildZeroinit zero-fills the pointee of the destination.
func (b *Builder) BuildZeroinit(destination *ir.Value) {
	b.emit(&ir.Instr{Kind: ir.InstrZeroinit, A: destination})
}

// BuildMemcpy copies length bytes from source to destination.
func (b *Builder) BuildMemcpy(destination, source, length *ir.Value) {
	b.emit(&ir.Instr{Kind: ir.InstrMemcpy, A: destination, B: source, Values: []*ir.Value{length}})
}

// BuildLoad reads the pointee of a pointer value.
func (b *Builder) BuildLoad(ptr *ir.Value, source token.Source) *ir.Value {
	line, column := b.g.checkCoordinates(source)
	return b.emit(&ir.Instr{Kind: ir.InstrLoad, Result: ptr.Type.Elem, A: ptr, Line: line, Column: column})
}

// BuildStore writes a value through a pointer.
func (b *Builder) BuildStore(destination, value *ir.Value, source token.Source) {
	line, column := b.g.checkCoordinates(source)
	b.emit(&ir.Instr{Kind: ir.InstrStore, A: destination, B: value, Line: line, Column: column})
}

// BuildCall calls an IR function by id.
func (b *Builder) BuildCall(funcID ir.FuncID, args []*ir.Value, resultType *ir.Type, source token.Source) *ir.Value {
	line, column := b.g.checkCoordinates(source)
	result := b.emit(&ir.Instr{
		Kind:   ir.InstrCall,
		Result: resultType,
		FuncID: funcID,
		Values: args,
		Line:   line,
		Column: column,
	})
	if resultType == nil || resultType.Kind == ir.TypeVoid {
		return nil
	}
	return result
}

// BuildCallAddress calls through a function pointer value.
func (b *Builder) BuildCallAddress(address *ir.Value, args []*ir.Value, resultType *ir.Type, source token.Source) *ir.Value {
	line, column := b.g.checkCoordinates(source)
	result := b.emit(&ir.Instr{
		Kind:   ir.InstrCallAddress,
		Result: resultType,
		A:      address,
		Values: args,
		Line:   line,
		Column: column,
	})
	if resultType == nil || resultType.Kind == ir.TypeVoid {
		return nil
	}
	return result
}

// BuildBreak unconditionally branches to a block.
func (b *Builder) BuildBreak(block int) {
	b.emit(&ir.Instr{Kind: ir.InstrBreak, Block: block})
}

// BuildCondBreak branches on a boolean condition.
func (b *Builder) BuildCondBreak(condition *ir.Value, trueBlock, falseBlock int) {
	b.emit(&ir.Instr{Kind: ir.InstrCondBreak, A: condition, Block: trueBlock, BlockB: falseBlock})
}

// BuildRet returns from the function; value is nil for void returns.
func (b *Builder) BuildRet(value *ir.Value) {
	b.emit(&ir.Instr{Kind: ir.InstrRet, A: value})
}

// BuildUnreachable marks the current position as unreachable.
func (b *Builder) BuildUnreachable() {
	b.emit(&ir.Instr{Kind: ir.InstrUnreachable})
}

// BuildMath emits a binary math/comparison instruction.
func (b *Builder) BuildMath(kind ir.InstrKind, a, operandB *ir.Value, resultType *ir.Type) *ir.Value {
	return b.emit(&ir.Instr{Kind: kind, Result: resultType, A: a, B: operandB})
}

// BuildEquals compares two values for equality.
func (b *Builder) BuildEquals(a, operandB *ir.Value) *ir.Value {
	return b.BuildMath(ir.InstrEquals, a, operandB, b.g.module.Common.Bool)
}

// BuildUnaryMath emits a unary math instruction.
func (b *Builder) BuildUnaryMath(kind ir.InstrKind, value *ir.Value, resultType *ir.Type) *ir.Value {
	return b.emit(&ir.Instr{Kind: kind, Result: resultType, A: value})
}

// BuildArrayAccess takes the address of element index of an array pointer.
func (b *Builder) BuildArrayAccess(array, index *ir.Value, source token.Source) *ir.Value {
	line, column := b.g.checkCoordinates(source)
	return b.emit(&ir.Instr{
		Kind:   ir.InstrArrayAccess,
		Result: array.Type,
		A:      array,
		B:      index,
		Line:   line,
		Column: column,
	})
}

// BuildMember takes the address of a field of a composite pointer.
func (b *Builder) BuildMember(subject *ir.Value, fieldIndex int, resultPtrType *ir.Type, source token.Source) *ir.Value {
	line, column := b.g.checkCoordinates(source)
	return b.emit(&ir.Instr{
		Kind:   ir.InstrMember,
		Result: resultPtrType,
		A:      subject,
		Index:  fieldIndex,
		Line:   line,
		Column: column,
	})
}

// BuildPhi2 merges two incoming values.
func (b *Builder) BuildPhi2(a *ir.Value, blockA int, valueB *ir.Value, blockB int, resultType *ir.Type) *ir.Value {
	return b.emit(&ir.Instr{Kind: ir.InstrPhi2, Result: resultType, A: a, B: valueB, Block: blockA, BlockB: blockB})
}

// BuildStackSave captures the stack pointer.
func (b *Builder) BuildStackSave() *ir.Value {
	return b.emit(&ir.Instr{Kind: ir.InstrStackSave, Result: b.g.module.Common.Ptr})
}

// BuildStackRestore restores a captured stack pointer.
func (b *Builder) BuildStackRestore(saved *ir.Value) {
	b.emit(&ir.Instr{Kind: ir.InstrStackRestore, A: saved})
}

// BuildAsm emits inline assembly.
func (b *Builder) BuildAsm(assembly, constraints string, args []*ir.Value, sideEffects bool) {
	b.emit(&ir.Instr{
		Kind:        ir.InstrAsm,
		Assembly:    assembly,
		Constraints: constraints,
		Values:      args,
		SideEffects: sideEffects,
	})
}

// BuildDeinitSvars deinitializes the module's static variables.
func (b *Builder) BuildDeinitSvars() {
	b.emit(&ir.Instr{Kind: ir.InstrDeinitSvars})
}

// BuildCast emits a non-constant cast instruction.
func (b *Builder) BuildCast(kind ir.InstrKind, value *ir.Value, to *ir.Type) *ir.Value {
	return b.emit(&ir.Instr{Kind: kind, Result: to, A: value})
}

// ---------------------------------------------------------------------------
// Literal helpers
// ---------------------------------------------------------------------------

// BuildLiteralUsize makes a usize literal value.
func (b *Builder) BuildLiteralUsize(v uint64) *ir.Value {
	return ir.LiteralUsize(b.g.module.Common.Usize, v)
}

// BuildLiteralBool makes a boolean literal value.
func (b *Builder) BuildLiteralBool(v bool) *ir.Value {
	return ir.LiteralBool(b.g.module.Common.Bool, v)
}

// BuildAnonGlobal lowers an addressable constant into a module-scoped
// anonymous global and returns a pointer to it.
func (b *Builder) BuildAnonGlobal(t *ir.Type, initializer *ir.Value, isConstant bool) *ir.Value {
	anon := b.g.module.AddAnonGlobal(t, initializer, isConstant)
	kind := ir.ValAnonGlobal
	if isConstant {
		kind = ir.ValConstAnonGlobal
	}
	return &ir.Value{Kind: kind, Type: ir.PointerTo(t), AnonGlobalID: anon.ID}
}

// checkCoordinates captures line/column for runtime-check diagnostics when
// any runtime checks are enabled.
func (g *Generator) checkCoordinates(source token.Source) (int, int) {
	if g.compiler.Checks == 0 || source.IsNull() {
		return 0, 0
	}
	if source.Object < 0 || source.Object >= len(g.tree.Sources) {
		return 0, 0
	}

	text := g.tree.Sources[source.Object]
	line, column := 1, 1
	limit := source.Index
	if limit > len(text) {
		limit = len(text)
	}
	for i := 0; i < limit; i++ {
		if text[i] == '\n' {
			line++
			column = 1
		} else {
			column++
		}
	}
	return line, column
}
