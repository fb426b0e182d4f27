package irgen

import (
	"github.com/adeptlang/go-adept/internal/ast"
	"github.com/adeptlang/go-adept/internal/compiler"
	"github.com/adeptlang/go-adept/internal/ir"
)

// genStmts lowers a statement list into the current block, warning about
// code after a terminator.
func (b *Builder) genStmts(stmts []ast.Stmt) error {
	for _, stmt := range stmts {
		if b.Block().IsTerminated() {
			if b.g.compiler.Warnf(compiler.WarnUnreachableCode, stmt.Src(), "Statements after this point are unreachable") {
				return errAborted
			}
			return nil
		}

		if err := b.genStmt(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) genStmt(stmt ast.Stmt) error {
	switch s := stmt.(type) {
	case *ast.DeclareStmt:
		return b.genDeclare(s)
	case *ast.AssignStmt:
		return b.genAssign(s)
	case *ast.ReturnStmt:
		return b.genReturn(s)
	case *ast.ExprStmt:
		return b.genExprStmt(s)
	case *ast.DeleteStmt:
		return b.genDelete(s)
	case *ast.DeferStmt:
		b.scope.deferred = append(b.scope.deferred, s.Deferred)
		return nil
	case *ast.ConditionalStmt:
		return b.genConditional(s)
	case *ast.WhileStmt:
		return b.genWhile(s)
	case *ast.RepeatStmt:
		return b.genRepeat(s)
	case *ast.EachInStmt:
		return b.genEachIn(s)
	case *ast.ForStmt:
		return b.genFor(s)
	case *ast.SwitchStmt:
		return b.genSwitch(s)
	case *ast.BreakStmt:
		return b.genBreak(s)
	case *ast.ContinueStmt:
		return b.genContinue(s)
	case *ast.FallthroughStmt:
		return b.genFallthrough(s)
	case *ast.BlockStmt:
		b.openScope()
		if err := b.genStmts(s.Body); err != nil {
			return err
		}
		return b.closeScope()
	case *ast.VaStartStmt:
		list, _, err := b.genExpr(s.List, true)
		if err != nil {
			return err
		}
		b.emit(&ir.Instr{Kind: ir.InstrVaStart, A: list})
		return nil
	case *ast.VaEndStmt:
		list, _, err := b.genExpr(s.List, true)
		if err != nil {
			return err
		}
		b.emit(&ir.Instr{Kind: ir.InstrVaEnd, A: list})
		return nil
	case *ast.VaCopyStmt:
		destination, _, err := b.genExpr(s.Destination, true)
		if err != nil {
			return err
		}
		source, _, err := b.genExpr(s.Src_, true)
		if err != nil {
			return err
		}
		b.emit(&ir.Instr{Kind: ir.InstrVaCopy, A: destination, B: source})
		return nil
	case *ast.AsmStmt:
		args := make([]*ir.Value, len(s.Args))
		for i, arg := range s.Args {
			value, _, err := b.genExpr(arg, false)
			if err != nil {
				return err
			}
			args[i] = value
		}
		b.BuildAsm(s.Assembly, s.Constraints, args, s.HasSideEffects)
		return nil
	}

	b.g.compiler.Panicf(stmt.Src(), "INTERNAL ERROR: Cannot generate IR for statement '%s'", stmt)
	return errAborted
}

// eraseVarFixedArray evaluates unevaluated array lengths so the type can
// participate in identity-demanding paths.
func (b *Builder) eraseVarFixedArray(t ast.Type) (ast.Type, error) {
	if !t.HasVarFixedArray() {
		return t, nil
	}

	out := t.Clone()
	for i, elem := range out.Elements {
		varFixed, ok := elem.(*ast.VarFixedArrayElem)
		if !ok {
			continue
		}

		length, evalOK := b.constUsize(varFixed.Length)
		if !evalOK {
			b.g.compiler.Panicf(t.Source, "Array length must be a constant integer")
			return ast.Type{}, errAborted
		}
		out.Elements[i] = &ast.FixedArrayElem{Length: length}
	}

	return out, nil
}

// constUsize evaluates a compile-time integer expression.
func (b *Builder) constUsize(expr ast.Expr) (uint64, bool) {
	switch e := expr.(type) {
	case *ast.IntegerLit:
		if e.Value >= 0 {
			return uint64(e.Value), true
		}
	case *ast.TypedIntegerLit:
		if e.Value >= 0 {
			return uint64(e.Value), true
		}
	case *ast.VariableExpr:
		if constant := b.g.tree.FindConstant(e.Name); constant != nil {
			return b.constUsize(constant.Value)
		}
	}
	return 0, false
}

func (b *Builder) genDeclare(s *ast.DeclareStmt) error {
	declType, err := b.eraseVarFixedArray(s.Type)
	if err != nil {
		return err
	}

	irType, err := b.g.resolveType(declType)
	if err != nil {
		return err
	}

	var traits VarTraits
	if s.Traits&ast.DeclPOD != 0 {
		traits |= VarPOD
	}
	if s.Traits&ast.DeclUndef != 0 {
		traits |= VarUndef
	}

	var v *BridgeVar
	if s.Traits&ast.DeclStatic != 0 {
		staticID := b.g.module.AddStaticVariable(irType, nil)
		v = &BridgeVar{
			Name:    s.Name,
			AstType: declType.Clone(),
			IRType:  irType,
			Traits:  traits | VarStatic,
			ID:      staticID,
		}
		b.scope.vars = append(b.scope.vars, v)
	} else {
		v = b.addVariable(s.Name, declType, irType, traits)
	}

	destination := b.BuildVarptrFor(v)

	if s.Value == nil {
		if s.Traits&ast.DeclUndef == 0 {
			b.BuildZeroinit(destination)
		}
		return b.initializeDeclaredClass(declType, destination, s)
	}

	value, valueType, err := b.genExpr(s.Value, false)
	if err != nil {
		return err
	}

	if !b.conform(&value, &valueType, declType, conformModeAssigning) {
		b.g.compiler.Panicf(s.Source, "Cannot assign value of type '%s' to variable of type '%s'", valueType, declType)
		return errAborted
	}

	if s.Traits&ast.DeclPOD == 0 {
		passed, errorcode := b.handlePassValue(declType, value)
		if errorcode == altFailure {
			return errAborted
		}
		value = passed
	}

	// Constant-initialized statics initialize once, through the module's
	// static table rather than a per-entry store
	if v.Traits&VarStatic != 0 && value.IsConstant() {
		b.g.module.StaticVariables[v.ID].Initial = value
		return nil
	}

	b.BuildStore(destination, value, s.Source)
	return b.initializeDeclaredClass(declType, destination, s)
}

func (b *Builder) initializeDeclaredClass(declType ast.Type, destination *ir.Value, s *ast.DeclareStmt) error {
	if errorcode := b.initializeClassInstance(declType, destination, s.Source); errorcode == altFailure {
		return errAborted
	}
	return nil
}

func (b *Builder) genAssign(s *ast.AssignStmt) error {
	if !exprIsMutable(s.Destination) {
		b.g.compiler.Panicf(s.Source, "Cannot assign to immutable value '%s'", s.Destination)
		return errAborted
	}

	destination, destType, err := b.genExpr(s.Destination, true)
	if err != nil {
		return err
	}

	value, valueType, err := b.genExpr(s.Value, false)
	if err != nil {
		return err
	}

	if !s.IsPlain {
		// Compound assignment loads, operates, and stores back
		loaded := b.BuildLoad(destination, s.Source)

		if !b.conform(&value, &valueType, destType, conformModeAssigning) {
			b.g.compiler.Panicf(s.Source, "Incompatible types '%s' and '%s' for operator '%s='", destType, valueType, s.Op.Symbol())
			return errAborted
		}

		kind, ok := binaryInstrKinds[s.Op]
		if !ok {
			b.g.compiler.Panicf(s.Source, "INTERNAL ERROR: Unknown compound assignment operator")
			return errAborted
		}

		result := b.BuildMath(kind, loaded, value, loaded.Type)
		b.BuildStore(destination, result, s.Source)
		return nil
	}

	if !b.conform(&value, &valueType, destType, conformModeAssigning) {
		b.g.compiler.Panicf(s.Source, "Cannot assign value of type '%s' to destination of type '%s'", valueType, destType)
		return errAborted
	}

	if !s.IsPOD {
		passed, errorcode := b.handlePassValue(destType, value)
		if errorcode == altFailure {
			return errAborted
		}
		value = passed

		if b.g.typeNeedsAssign(destType) {
			errorcode := b.handleSingleAssign(destType, destination, value)
			if errorcode == altFailure {
				return errAborted
			}
			if errorcode == success {
				return nil
			}
		}
	}

	b.BuildStore(destination, value, s.Source)
	return nil
}

func (b *Builder) genReturn(s *ast.ReturnStmt) error {
	returnType := b.astFunc.ReturnType
	wantsValue := !returnType.IsEmpty() && !returnType.IsVoid()

	var value *ir.Value

	if s.Value != nil {
		if !wantsValue {
			b.g.compiler.Panicf(s.Source, "Function '%s' does not return a value", b.astFunc.Name)
			return errAborted
		}

		returned, returnedType, err := b.genExpr(s.Value, false)
		if err != nil {
			return err
		}

		if !b.conform(&returned, &returnedType, returnType, conformModeAssigning) {
			b.g.compiler.Panicf(s.Source, "Cannot return value of type '%s' from function returning '%s'", returnedType, returnType)
			return errAborted
		}

		value = returned
	} else if wantsValue {
		b.g.compiler.Panicf(s.Source, "Must return a value of type '%s' from function '%s'", returnType, b.astFunc.Name)
		return errAborted
	}

	// Deferred statements and scope deference run before control leaves
	if err := b.genStmts(s.Deferred); err != nil {
		return err
	}
	if err := b.closeScopesDownTo(b.rootScope); err != nil {
		return err
	}

	b.BuildRet(value)
	return nil
}

func (b *Builder) genExprStmt(s *ast.ExprStmt) error {
	switch e := s.Expr.(type) {
	case *ast.CallExpr:
		_, _, err := b.genCall(e, true)
		return err
	case *ast.MethodCallExpr:
		_, _, err := b.genMethodCall(e, true)
		return err
	}

	_, _, err := b.genExpr(s.Expr, false)
	return err
}

func (b *Builder) genDelete(s *ast.DeleteStmt) error {
	value, valueType, err := b.genExpr(s.Value, false)
	if err != nil {
		return err
	}

	if !valueType.IsPointer() && !valueType.IsBaseOf("ptr") {
		b.g.compiler.Panicf(s.Source, "Cannot delete non-pointer type '%s'", valueType)
		return errAborted
	}

	b.emit(&ir.Instr{Kind: ir.InstrFree, A: value})
	return nil
}

// genCondition lowers a conditional expression to a boolean, applying
// the optional inversion of unless/until.
func (b *Builder) genCondition(expr ast.Expr, inverted bool) (*ir.Value, error) {
	value, valueType, err := b.genExpr(expr, false)
	if err != nil {
		return nil, err
	}

	boolType := ast.TypeBase("bool")
	if !b.conform(&value, &valueType, boolType, conformModeAssigning) {
		b.g.compiler.Panicf(expr.Src(), "Condition must be a boolean, got '%s'", valueType)
		return nil, errAborted
	}

	if inverted {
		value = b.BuildUnaryMath(ir.InstrIsZero, value, b.g.module.Common.Bool)
	}

	return value, nil
}

func (b *Builder) genConditional(s *ast.ConditionalStmt) error {
	condition, err := b.genCondition(s.Condition, s.IsUnless)
	if err != nil {
		return err
	}

	thenBlock := b.NewBlock()
	endBlock := b.NewBlock()
	elseBlock := endBlock
	if s.Else != nil {
		elseBlock = b.NewBlock()
	}

	b.BuildCondBreak(condition, thenBlock, elseBlock)

	b.UseBlock(thenBlock)
	b.openScope()
	if err := b.genStmts(s.Then); err != nil {
		return err
	}
	if err := b.closeScope(); err != nil {
		return err
	}
	if !b.Block().IsTerminated() {
		b.BuildBreak(endBlock)
	}

	if s.Else != nil {
		b.UseBlock(elseBlock)
		b.openScope()
		if err := b.genStmts(s.Else); err != nil {
			return err
		}
		if err := b.closeScope(); err != nil {
			return err
		}
		if !b.Block().IsTerminated() {
			b.BuildBreak(endBlock)
		}
	}

	b.UseBlock(endBlock)
	return nil
}

func (b *Builder) genWhile(s *ast.WhileStmt) error {
	conditionBlock := b.NewBlock()
	bodyBlock := b.NewBlock()
	endBlock := b.NewBlock()

	b.BuildBreak(conditionBlock)

	b.UseBlock(conditionBlock)
	condition, err := b.genCondition(s.Condition, s.IsUntil)
	if err != nil {
		return err
	}
	b.BuildCondBreak(condition, bodyBlock, endBlock)

	b.UseBlock(bodyBlock)
	b.openScope()
	b.scope.label = s.Label
	b.loops = append(b.loops, loopFrame{
		label:         s.Label,
		breakBlock:    endBlock,
		continueBlock: conditionBlock,
		scope:         b.scope,
	})

	if err := b.genStmts(s.Body); err != nil {
		return err
	}

	b.loops = b.loops[:len(b.loops)-1]
	if err := b.closeScope(); err != nil {
		return err
	}
	if !b.Block().IsTerminated() {
		b.BuildBreak(conditionBlock)
	}

	b.UseBlock(endBlock)
	return nil
}

func (b *Builder) genRepeat(s *ast.RepeatStmt) error {
	times, timesType, err := b.genExpr(s.Times, false)
	if err != nil {
		return err
	}

	usizeType := ast.TypeBase("usize")
	if !b.conform(&times, &timesType, usizeType, conformModeAssigning) {
		b.g.compiler.Panicf(s.Source, "Repeat count must be an integer, got '%s'", timesType)
		return errAborted
	}

	b.openScope()

	// The loop index is exposed as "idx"
	idx := b.addVariable("idx", usizeType, b.g.module.Common.Usize, VarPOD)
	idxPtr := b.BuildVarptrFor(idx)
	b.BuildStore(idxPtr, b.BuildLiteralUsize(0), s.Source)

	conditionBlock := b.NewBlock()
	bodyBlock := b.NewBlock()
	stepBlock := b.NewBlock()
	endBlock := b.NewBlock()

	b.BuildBreak(conditionBlock)

	b.UseBlock(conditionBlock)
	idxValue := b.BuildLoad(b.BuildVarptrFor(idx), s.Source)
	condition := b.BuildMath(ir.InstrLessThan, idxValue, times, b.g.module.Common.Bool)
	b.BuildCondBreak(condition, bodyBlock, endBlock)

	b.UseBlock(bodyBlock)
	b.openScope()
	b.scope.label = s.Label
	b.loops = append(b.loops, loopFrame{
		label:         s.Label,
		breakBlock:    endBlock,
		continueBlock: stepBlock,
		scope:         b.scope,
	})

	if err := b.genStmts(s.Body); err != nil {
		return err
	}

	b.loops = b.loops[:len(b.loops)-1]
	if err := b.closeScope(); err != nil {
		return err
	}
	if !b.Block().IsTerminated() {
		b.BuildBreak(stepBlock)
	}

	b.UseBlock(stepBlock)
	current := b.BuildLoad(b.BuildVarptrFor(idx), s.Source)
	next := b.BuildMath(ir.InstrAdd, current, b.BuildLiteralUsize(1), b.g.module.Common.Usize)
	b.BuildStore(b.BuildVarptrFor(idx), next, s.Source)
	b.BuildBreak(conditionBlock)

	b.UseBlock(endBlock)
	return b.closeScope()
}

func (b *Builder) genEachIn(s *ast.EachInStmt) error {
	array, arrayType, err := b.genExpr(s.Array, false)
	if err != nil {
		return err
	}

	var length *ir.Value
	var elemType ast.Type

	usizeType := ast.TypeBase("usize")

	switch {
	case s.Length != nil && arrayType.IsPointer():
		lengthValue, lengthType, lengthErr := b.genExpr(s.Length, false)
		if lengthErr != nil {
			return lengthErr
		}
		if !b.conform(&lengthValue, &lengthType, usizeType, conformModeAssigning) {
			b.g.compiler.Panicf(s.Source, "Iteration length must be an integer, got '%s'", lengthType)
			return errAborted
		}
		length = lengthValue
		elemType, _ = arrayType.Dereferenced()
	default:
		b.g.compiler.Panicf(s.Source, "Cannot iterate over type '%s'", arrayType)
		return errAborted
	}

	if !s.ItType.IsEmpty() && !ast.TypesIdentical(s.ItType, elemType) {
		b.g.compiler.Panicf(s.Source, "Element type '%s' does not match array of '%s'", s.ItType, elemType)
		return errAborted
	}

	elemIR, err := b.g.resolveType(elemType)
	if err != nil {
		return err
	}

	b.openScope()

	idx := b.addVariable("idx", usizeType, b.g.module.Common.Usize, VarPOD)
	b.BuildStore(b.BuildVarptrFor(idx), b.BuildLiteralUsize(0), s.Source)

	itName := s.ItName
	if itName == "" {
		itName = "it"
	}
	it := b.addVariable(itName, elemType, elemIR, VarPOD|VarReference)

	conditionBlock := b.NewBlock()
	bodyBlock := b.NewBlock()
	stepBlock := b.NewBlock()
	endBlock := b.NewBlock()

	b.BuildBreak(conditionBlock)

	b.UseBlock(conditionBlock)
	idxValue := b.BuildLoad(b.BuildVarptrFor(idx), s.Source)
	condition := b.BuildMath(ir.InstrLessThan, idxValue, length, b.g.module.Common.Bool)
	b.BuildCondBreak(condition, bodyBlock, endBlock)

	b.UseBlock(bodyBlock)
	idxValue = b.BuildLoad(b.BuildVarptrFor(idx), s.Source)
	elemPtr := b.BuildArrayAccess(array, idxValue, s.Source)
	b.BuildStore(b.BuildVarptrFor(it), b.BuildLoad(elemPtr, s.Source), s.Source)

	b.openScope()
	b.scope.label = s.Label
	b.loops = append(b.loops, loopFrame{
		label:         s.Label,
		breakBlock:    endBlock,
		continueBlock: stepBlock,
		scope:         b.scope,
	})

	if err := b.genStmts(s.Body); err != nil {
		return err
	}

	b.loops = b.loops[:len(b.loops)-1]
	if err := b.closeScope(); err != nil {
		return err
	}
	if !b.Block().IsTerminated() {
		b.BuildBreak(stepBlock)
	}

	b.UseBlock(stepBlock)
	current := b.BuildLoad(b.BuildVarptrFor(idx), s.Source)
	next := b.BuildMath(ir.InstrAdd, current, b.BuildLiteralUsize(1), b.g.module.Common.Usize)
	b.BuildStore(b.BuildVarptrFor(idx), next, s.Source)
	b.BuildBreak(conditionBlock)

	b.UseBlock(endBlock)
	return b.closeScope()
}

func (b *Builder) genFor(s *ast.ForStmt) error {
	b.openScope()

	if err := b.genStmts(s.Init); err != nil {
		return err
	}

	conditionBlock := b.NewBlock()
	bodyBlock := b.NewBlock()
	stepBlock := b.NewBlock()
	endBlock := b.NewBlock()

	b.BuildBreak(conditionBlock)

	b.UseBlock(conditionBlock)
	if s.Condition != nil {
		condition, err := b.genCondition(s.Condition, false)
		if err != nil {
			return err
		}
		b.BuildCondBreak(condition, bodyBlock, endBlock)
	} else {
		b.BuildBreak(bodyBlock)
	}

	b.UseBlock(bodyBlock)
	b.openScope()
	b.scope.label = s.Label
	b.loops = append(b.loops, loopFrame{
		label:         s.Label,
		breakBlock:    endBlock,
		continueBlock: stepBlock,
		scope:         b.scope,
	})

	if err := b.genStmts(s.Body); err != nil {
		return err
	}

	b.loops = b.loops[:len(b.loops)-1]
	if err := b.closeScope(); err != nil {
		return err
	}
	if !b.Block().IsTerminated() {
		b.BuildBreak(stepBlock)
	}

	b.UseBlock(stepBlock)
	if err := b.genStmts(s.Step); err != nil {
		return err
	}
	b.BuildBreak(conditionBlock)

	b.UseBlock(endBlock)
	return b.closeScope()
}

func (b *Builder) genSwitch(s *ast.SwitchStmt) error {
	value, valueType, err := b.genExpr(s.Value, false)
	if err != nil {
		return err
	}

	endBlock := b.NewBlock()

	caseBlocks := make([]int, len(s.Cases))
	for i := range s.Cases {
		caseBlocks[i] = b.NewBlock()
	}

	defaultBlock := endBlock
	if s.Default != nil {
		defaultBlock = b.NewBlock()
	}

	// Comparison chain
	for i := range s.Cases {
		caseValue, caseType, caseErr := b.genExpr(s.Cases[i].Value, false)
		if caseErr != nil {
			return caseErr
		}
		if !b.conform(&caseValue, &caseType, valueType, conformModeAssigning) {
			b.g.compiler.Panicf(s.Cases[i].Source, "Case value of type '%s' does not match switch value of type '%s'", caseType, valueType)
			return errAborted
		}

		matches := b.BuildEquals(value, caseValue)

		nextCompare := defaultBlock
		if i+1 < len(s.Cases) {
			nextCompare = b.NewBlock()
		}

		b.BuildCondBreak(matches, caseBlocks[i], nextCompare)
		if i+1 < len(s.Cases) {
			b.UseBlock(nextCompare)
		}
	}

	if len(s.Cases) == 0 {
		b.BuildBreak(defaultBlock)
	}

	// Case bodies; fallthrough targets the next case's body
	savedFallthrough := b.fallthroughBlock
	for i := range s.Cases {
		b.UseBlock(caseBlocks[i])

		if i+1 < len(s.Cases) {
			b.fallthroughBlock = caseBlocks[i+1]
		} else if s.Default != nil {
			b.fallthroughBlock = defaultBlock
		} else {
			b.fallthroughBlock = -1
		}

		b.openScope()
		b.loops = append(b.loops, loopFrame{
			breakBlock:    endBlock,
			continueBlock: -1,
			scope:         b.scope,
		})

		if err := b.genStmts(s.Cases[i].Body); err != nil {
			return err
		}

		b.loops = b.loops[:len(b.loops)-1]
		if err := b.closeScope(); err != nil {
			return err
		}
		if !b.Block().IsTerminated() {
			b.BuildBreak(endBlock)
		}
	}
	b.fallthroughBlock = savedFallthrough

	if s.Default != nil {
		b.UseBlock(defaultBlock)
		b.openScope()
		if err := b.genStmts(s.Default); err != nil {
			return err
		}
		if err := b.closeScope(); err != nil {
			return err
		}
		if !b.Block().IsTerminated() {
			b.BuildBreak(endBlock)
		}
	}

	b.UseBlock(endBlock)
	return nil
}

// findLoopFrame locates the innermost frame matching the label; frames
// with no continue target are skipped when continuing.
func (b *Builder) findLoopFrame(label string, forContinue bool) *loopFrame {
	for i := len(b.loops) - 1; i >= 0; i-- {
		frame := &b.loops[i]
		if forContinue && frame.continueBlock < 0 {
			continue
		}
		if label == "" || frame.label == label {
			return frame
		}
	}
	return nil
}

func (b *Builder) genBreak(s *ast.BreakStmt) error {
	frame := b.findLoopFrame(s.Label, false)
	if frame == nil {
		if s.Label != "" {
			b.g.compiler.Panicf(s.Source, "Undeclared label '%s'", s.Label)
		} else {
			b.g.compiler.Panicf(s.Source, "Nothing to break out of")
		}
		return errAborted
	}

	if err := b.closeScopesDownTo(frame.scope); err != nil {
		return err
	}

	b.BuildBreak(frame.breakBlock)
	return nil
}

func (b *Builder) genContinue(s *ast.ContinueStmt) error {
	frame := b.findLoopFrame(s.Label, true)
	if frame == nil {
		if s.Label != "" {
			b.g.compiler.Panicf(s.Source, "Undeclared label '%s'", s.Label)
		} else {
			b.g.compiler.Panicf(s.Source, "Nothing to continue")
		}
		return errAborted
	}

	if err := b.closeScopesDownTo(frame.scope); err != nil {
		return err
	}

	b.BuildBreak(frame.continueBlock)
	return nil
}

func (b *Builder) genFallthrough(s *ast.FallthroughStmt) error {
	if b.fallthroughBlock < 0 {
		b.g.compiler.Panicf(s.Source, "Nothing to fall through to")
		return errAborted
	}

	b.BuildBreak(b.fallthroughBlock)
	return nil
}
