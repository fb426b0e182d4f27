package irgen

import (
	"github.com/adeptlang/go-adept/internal/ast"
	"github.com/adeptlang/go-adept/internal/compiler"
	"github.com/adeptlang/go-adept/internal/ir"
	"github.com/adeptlang/go-adept/pkg/token"
)

// genExpr lowers an expression to an IR value and its AST type. When
// leaveMutable is set and the expression designates storage, the returned
// value is a pointer to that storage while the reported AST type remains
// the value type.
func (b *Builder) genExpr(expr ast.Expr, leaveMutable bool) (*ir.Value, ast.Type, error) {
	switch e := expr.(type) {
	case *ast.IntegerLit:
		value := &ir.Value{Kind: ir.ValLiteral, Type: &ir.Type{Kind: ir.TypeS64}, Literal: e.Value}
		return value, ast.Type{Elements: []ast.Elem{&ast.GenericIntElem{}}, Source: e.Source}, nil

	case *ast.FloatLit:
		value := &ir.Value{Kind: ir.ValLiteral, Type: &ir.Type{Kind: ir.TypeF64}, Literal: e.Value}
		return value, ast.Type{Elements: []ast.Elem{&ast.GenericFloatElem{}}, Source: e.Source}, nil

	case *ast.TypedIntegerLit:
		kind := primitiveKinds[e.TypeName]
		target := &ir.Type{Kind: kind}
		var payload any = e.Value
		if !target.IsSigned() {
			payload = uint64(e.Value)
		}
		value := &ir.Value{Kind: ir.ValLiteral, Type: target, Literal: payload}
		return value, ast.TypeBaseAt(e.TypeName, e.Source), nil

	case *ast.TypedFloatLit:
		value := &ir.Value{Kind: ir.ValLiteral, Type: &ir.Type{Kind: primitiveKinds[e.TypeName]}, Literal: e.Value}
		return value, ast.TypeBaseAt(e.TypeName, e.Source), nil

	case *ast.BoolLit:
		return b.BuildLiteralBool(e.Value), ast.TypeBaseAt("bool", e.Source), nil

	case *ast.NullLit:
		value := &ir.Value{Kind: ir.ValNullPtr, Type: b.g.module.Common.Ptr}
		return value, ast.TypeBaseAt("ptr", e.Source), nil

	case *ast.CStringLit:
		value := &ir.Value{Kind: ir.ValCStrOfLen, Type: b.g.module.Common.Ptr, Str: e.Value, Length: len(e.Value)}
		return value, ast.TypePointerTo(ast.TypeBase("ubyte")), nil

	case *ast.StringLit:
		return b.genStringLiteral(e.Value, e.Source)

	case *ast.PolyCountExpr:
		b.g.compiler.Panicf(e.Source, "Undetermined polymorphic count variable '$#%s'", e.Name)
		return nil, ast.Type{}, errAborted

	case *ast.EnumValueExpr:
		return b.genEnumValue(e)

	case *ast.VariableExpr:
		return b.genVariable(e, leaveMutable)

	case *ast.UnaryExpr:
		return b.genUnary(e, leaveMutable)

	case *ast.BinaryExpr:
		return b.genBinary(e)

	case *ast.CallExpr:
		return b.genCall(e, false)

	case *ast.MethodCallExpr:
		return b.genMethodCall(e, false)

	case *ast.AddressCallExpr:
		return b.genAddressCall(e)

	case *ast.MemberExpr:
		return b.genMember(e, leaveMutable)

	case *ast.ArrayAccessExpr:
		return b.genArrayAccess(e, leaveMutable)

	case *ast.CastExpr:
		return b.genCast(e)

	case *ast.SizeofExpr:
		irType, err := b.g.resolveType(e.Type)
		if err != nil {
			return nil, ast.Type{}, err
		}
		value := &ir.Value{Kind: ir.ValConstSizeof, Type: b.g.module.Common.Usize, Of: irType}
		return value, ast.TypeBaseAt("usize", e.Source), nil

	case *ast.AlignofExpr:
		irType, err := b.g.resolveType(e.Type)
		if err != nil {
			return nil, ast.Type{}, err
		}
		value := &ir.Value{Kind: ir.ValConstAlignof, Type: b.g.module.Common.Usize, Of: irType}
		return value, ast.TypeBaseAt("usize", e.Source), nil

	case *ast.TypeinfoExpr:
		value, err := b.rttiFor(e.Type, e.Source)
		if err != nil {
			return nil, ast.Type{}, err
		}
		if b.g.tree.FindComposite("AnyType") != nil {
			return value, ast.TypePointerTo(ast.TypeBase("AnyType")), nil
		}
		return value, ast.TypeBaseAt("ptr", e.Source), nil

	case *ast.TypenameofExpr:
		return b.genStringLiteral(e.Type.String(), e.Source)

	case *ast.NewExpr:
		return b.genNew(e)

	case *ast.NewCstringExpr:
		return b.genNewCstring(e)

	case *ast.TernaryExpr:
		return b.genTernary(e)

	case *ast.InitializerListExpr:
		return b.genInitializerList(e)

	case *ast.VaArgExpr:
		list, _, err := b.genExpr(e.List, true)
		if err != nil {
			return nil, ast.Type{}, err
		}
		irType, err := b.g.resolveType(e.Type)
		if err != nil {
			return nil, ast.Type{}, err
		}
		value := b.emit(&ir.Instr{Kind: ir.InstrVaArg, Result: irType, A: list})
		return value, e.Type.Clone(), nil

	case *ast.FuncAddrExpr:
		return b.genFuncAddr(e)

	case *ast.EmbedExpr:
		b.g.compiler.Panicf(e.Source, "Embedded file '%s' was not inlined during parsing", e.Filename)
		return nil, ast.Type{}, errAborted
	}

	b.g.compiler.Panicf(expr.Src(), "INTERNAL ERROR: Cannot generate IR for expression '%s'", expr)
	return nil, ast.Type{}, errAborted
}

// genStringLiteral constructs a String composite value when the String
// type is known, holding the text and its length.
func (b *Builder) genStringLiteral(text string, source token.Source) (*ir.Value, ast.Type, error) {
	stringComposite := b.g.tree.FindComposite("String")
	if stringComposite == nil {
		b.g.compiler.Panicf(source, "Unable to use string literals without String type present")
		return nil, ast.Type{}, errAborted
	}

	stringType, err := b.g.resolveType(ast.TypeBase("String"))
	if err != nil {
		return nil, ast.Type{}, err
	}

	cstr := &ir.Value{Kind: ir.ValCStrOfLen, Type: b.g.module.Common.Ptr, Str: text, Length: len(text)}
	length := b.BuildLiteralUsize(uint64(len(text)))

	value := &ir.Value{
		Kind:   ir.ValConstStructLiteral,
		Type:   stringType,
		Values: []*ir.Value{cstr, length},
	}
	return value, ast.TypeBaseAt("String", source), nil
}

func (b *Builder) genEnumValue(e *ast.EnumValueExpr) (*ir.Value, ast.Type, error) {
	u64 := &ir.Type{Kind: ir.TypeU64}

	if e.EnumName != "" {
		enum := b.g.tree.FindEnum(e.EnumName)
		if enum == nil {
			b.g.compiler.Panicf(e.Source, "Undeclared enum '%s'", e.EnumName)
			return nil, ast.Type{}, errAborted
		}
		index := enum.MemberIndex(e.Value)
		if index < 0 {
			b.g.compiler.Panicf(e.Source, "Enum '%s' has no member '%s'", e.EnumName, e.Value)
			return nil, ast.Type{}, errAborted
		}
		value := &ir.Value{Kind: ir.ValLiteral, Type: u64, Literal: uint64(index)}
		return value, ast.TypeBaseAt(e.EnumName, e.Source), nil
	}

	// "::VALUE" without a named enum stays transient until conformation
	// pins it to a target enum type
	value := &ir.Value{Kind: ir.ValUnknownEnum, Type: u64, Str: e.Value}
	unknownType := ast.Type{Elements: []ast.Elem{&ast.UnknownEnumElem{KindName: e.Value}}, Source: e.Source}
	return value, unknownType, nil
}

func (b *Builder) genVariable(e *ast.VariableExpr, leaveMutable bool) (*ir.Value, ast.Type, error) {
	if v := b.scope.find(e.Name); v != nil {
		ptr := b.BuildVarptrFor(v)
		if leaveMutable {
			return ptr, v.AstType.Clone(), nil
		}
		return b.BuildLoad(ptr, e.Source), v.AstType.Clone(), nil
	}

	if astGlobal, index := b.g.tree.FindGlobal(e.Name); astGlobal != nil {
		irGlobal := b.g.module.Globals[index]
		ptr := b.BuildGVarptr(ir.PointerTo(irGlobal.Type), index)
		if leaveMutable {
			return ptr, astGlobal.Type.Clone(), nil
		}
		return b.BuildLoad(ptr, e.Source), astGlobal.Type.Clone(), nil
	}

	if constant := b.g.tree.FindConstant(e.Name); constant != nil {
		return b.genExpr(ast.CloneExpr(constant.Value), false)
	}

	message := "Undeclared variable '%s'"
	if suggestion := nearestName(e.Name, b.scope.names()); suggestion != "" {
		b.g.compiler.Panicf(e.Source, message+" (did you mean '%s'?)", e.Name, suggestion)
	} else {
		b.g.compiler.Panicf(e.Source, message, e.Name)
	}
	return nil, ast.Type{}, errAborted
}

func (b *Builder) genUnary(e *ast.UnaryExpr, leaveMutable bool) (*ir.Value, ast.Type, error) {
	switch e.Op {
	case ast.UnaryAddressOf:
		if !exprIsMutable(e.Value) {
			b.g.compiler.Panicf(e.Source, "Cannot take address of immutable value")
			return nil, ast.Type{}, errAborted
		}
		value, valueType, err := b.genExpr(e.Value, true)
		if err != nil {
			return nil, ast.Type{}, err
		}
		return value, ast.TypePointerTo(valueType), nil

	case ast.UnaryDereference:
		value, valueType, err := b.genExpr(e.Value, false)
		if err != nil {
			return nil, ast.Type{}, err
		}
		pointee, ok := valueType.Dereferenced()
		if !ok {
			b.g.compiler.Panicf(e.Source, "Cannot dereference non-pointer type '%s'", valueType)
			return nil, ast.Type{}, errAborted
		}
		if leaveMutable {
			return value, pointee.Clone(), nil
		}
		return b.BuildLoad(value, e.Source), pointee.Clone(), nil

	case ast.UnaryNegate:
		value, valueType, err := b.genExpr(e.Value, false)
		if err != nil {
			return nil, ast.Type{}, err
		}
		return b.BuildUnaryMath(ir.InstrNegate, value, value.Type), valueType, nil

	case ast.UnaryNot:
		value, _, err := b.genExpr(e.Value, false)
		if err != nil {
			return nil, ast.Type{}, err
		}
		return b.BuildUnaryMath(ir.InstrIsZero, value, b.g.module.Common.Bool), ast.TypeBase("bool"), nil

	case ast.UnaryBitComplement:
		value, valueType, err := b.genExpr(e.Value, false)
		if err != nil {
			return nil, ast.Type{}, err
		}
		return b.BuildUnaryMath(ir.InstrBitComplement, value, value.Type), valueType, nil
	}

	b.g.compiler.Panicf(e.Source, "INTERNAL ERROR: Unknown unary operator")
	return nil, ast.Type{}, errAborted
}

var binaryInstrKinds = map[ast.BinaryOp]ir.InstrKind{
	ast.BinaryAdd:           ir.InstrAdd,
	ast.BinarySubtract:      ir.InstrSubtract,
	ast.BinaryMultiply:      ir.InstrMultiply,
	ast.BinaryDivide:        ir.InstrDivide,
	ast.BinaryModulus:       ir.InstrModulus,
	ast.BinaryEquals:        ir.InstrEquals,
	ast.BinaryNotEquals:     ir.InstrNotEquals,
	ast.BinaryLessThan:      ir.InstrLessThan,
	ast.BinaryGreaterThan:   ir.InstrGreaterThan,
	ast.BinaryLessThanEq:    ir.InstrLessThanEq,
	ast.BinaryGreaterThanEq: ir.InstrGreaterThanEq,
	ast.BinaryBitAnd:        ir.InstrBitAnd,
	ast.BinaryBitOr:         ir.InstrBitOr,
	ast.BinaryBitXor:        ir.InstrBitXor,
	ast.BinaryLShift:        ir.InstrLShift,
	ast.BinaryRShift:        ir.InstrRShift,
}

func isComparison(op ast.BinaryOp) bool {
	switch op {
	case ast.BinaryEquals, ast.BinaryNotEquals, ast.BinaryLessThan,
		ast.BinaryGreaterThan, ast.BinaryLessThanEq, ast.BinaryGreaterThanEq:
		return true
	}
	return false
}

func (b *Builder) genBinary(e *ast.BinaryExpr) (*ir.Value, ast.Type, error) {
	if e.Op == ast.BinaryAnd || e.Op == ast.BinaryOr {
		return b.genShortCircuit(e)
	}

	lhs, lhsType, err := b.genExpr(e.Left, false)
	if err != nil {
		return nil, ast.Type{}, err
	}
	rhs, rhsType, err := b.genExpr(e.Right, false)
	if err != nil {
		return nil, ast.Type{}, err
	}

	// Composite operands dispatch to their math overload
	if composite, _ := b.g.compositeForType(lhsType); composite != nil {
		if value, valueType, found, overloadErr := b.tryMathOverload(e.Op, lhs, rhs, lhsType, rhsType, e.Source); overloadErr != nil {
			return nil, ast.Type{}, overloadErr
		} else if found {
			return value, valueType, nil
		}
	}

	// Conform operands to a common type
	if !ast.TypesIdentical(lhsType, rhsType) {
		if b.conform(&rhs, &rhsType, lhsType, conformModeAssigning) {
			// rhs adopted lhs's type
		} else if b.conform(&lhs, &lhsType, rhsType, conformModeAssigning) {
			// lhs adopted rhs's type
		} else {
			b.g.compiler.Panicf(e.Source, "Incompatible types '%s' and '%s' for operator '%s'",
				lhsType, rhsType, e.Op.Symbol())
			return nil, ast.Type{}, errAborted
		}
	}

	kind, ok := binaryInstrKinds[e.Op]
	if !ok {
		b.g.compiler.Panicf(e.Source, "INTERNAL ERROR: Unknown binary operator")
		return nil, ast.Type{}, errAborted
	}

	if isComparison(e.Op) {
		return b.BuildMath(kind, lhs, rhs, b.g.module.Common.Bool), ast.TypeBase("bool"), nil
	}

	return b.BuildMath(kind, lhs, rhs, lhs.Type), lhsType, nil
}

// genShortCircuit lowers "and"/"or" with a two-way phi merge.
func (b *Builder) genShortCircuit(e *ast.BinaryExpr) (*ir.Value, ast.Type, error) {
	boolType := ast.TypeBase("bool")

	lhs, lhsType, err := b.genExpr(e.Left, false)
	if err != nil {
		return nil, ast.Type{}, err
	}
	if !b.conform(&lhs, &lhsType, boolType, conformModeAssigning) {
		b.g.compiler.Panicf(e.Source, "Expected boolean operand, got '%s'", lhsType)
		return nil, ast.Type{}, errAborted
	}

	shortBlock := b.currentBlock
	rhsBlock := b.NewBlock()
	mergeBlock := b.NewBlock()

	if e.Op == ast.BinaryAnd {
		b.BuildCondBreak(lhs, rhsBlock, mergeBlock)
	} else {
		b.BuildCondBreak(lhs, mergeBlock, rhsBlock)
	}

	b.UseBlock(rhsBlock)
	rhs, rhsType, err := b.genExpr(e.Right, false)
	if err != nil {
		return nil, ast.Type{}, err
	}
	if !b.conform(&rhs, &rhsType, boolType, conformModeAssigning) {
		b.g.compiler.Panicf(e.Source, "Expected boolean operand, got '%s'", rhsType)
		return nil, ast.Type{}, errAborted
	}
	rhsExit := b.currentBlock
	b.BuildBreak(mergeBlock)

	b.UseBlock(mergeBlock)
	shortValue := b.BuildLiteralBool(e.Op == ast.BinaryOr)
	merged := b.BuildPhi2(shortValue, shortBlock, rhs, rhsExit, b.g.module.Common.Bool)
	return merged, boolType, nil
}

// genCallArgs evaluates call arguments, running by-value composites
// through their __pass__ management routine.
func (b *Builder) genCallArgs(args []ast.Expr) ([]*ir.Value, []ast.Type, error) {
	values := make([]*ir.Value, len(args))
	types := make([]ast.Type, len(args))

	for i, arg := range args {
		value, valueType, err := b.genExpr(arg, false)
		if err != nil {
			return nil, nil, err
		}

		passed, errorcode := b.handlePassValue(valueType, value)
		if errorcode == altFailure {
			return nil, nil, errAborted
		}

		values[i] = passed
		types[i] = valueType
	}

	return values, types, nil
}

func (b *Builder) genCall(e *ast.CallExpr, discardResult bool) (*ir.Value, ast.Type, error) {
	argValues, argTypes, err := b.genCallArgs(e.Args)
	if err != nil {
		return nil, ast.Type{}, err
	}

	var gives *ast.Type
	if !e.Gives.IsEmpty() {
		gives = &e.Gives
	}

	var result optionalEndpoint
	argValues, argTypes, errorcode := b.findFuncConforming(e.Name, argValues, argTypes, gives, false, e.Source, &result)
	if errorcode == altFailure {
		return nil, ast.Type{}, errAborted
	}

	if errorcode == failure || !result.Has {
		if e.IsTentative {
			return nil, ast.TypeBase("void"), nil
		}
		return nil, ast.Type{}, b.undeclaredFunction(e.Name, argTypes, e.Source)
	}

	b.conformArgsToCallee(argValues, argTypes, b.g.tree.Func(result.Endpoint.AstFuncID))
	return b.emitResolvedCall(result.Endpoint, argValues, discardResult, e.Source)
}

// conformArgsToCallee pins any still-generic argument values to the
// resolved callee's concrete parameter types. Arguments of polymorphic
// parameters are only unified, not conformed, during the sweep.
func (b *Builder) conformArgsToCallee(argValues []*ir.Value, argTypes []ast.Type, callee *ast.Func) {
	limit := min(len(argValues), callee.Arity())
	for i := 0; i < limit; i++ {
		b.conform(&argValues[i], &argTypes[i], callee.ArgTypes[i], conformModeCallArgumentsLoose)
	}
}

// exprIsMutable reports whether an expression designates storage that can
// be addressed in place.
func exprIsMutable(expr ast.Expr) bool {
	switch e := expr.(type) {
	case *ast.VariableExpr, *ast.MemberExpr, *ast.ArrayAccessExpr:
		return true
	case *ast.UnaryExpr:
		return e.Op == ast.UnaryDereference
	}
	return false
}

// genSubjectPointer produces a pointer to the subject of a member or
// method access: it auto-dereferences a single pointer level and spills
// rvalue subjects into a hidden temporary so they are addressable.
func (b *Builder) genSubjectPointer(expr ast.Expr, source token.Source) (*ir.Value, ast.Type, error) {
	if exprIsMutable(expr) {
		subject, subjectType, err := b.genExpr(expr, true)
		if err != nil {
			return nil, ast.Type{}, err
		}
		if subjectType.IsPointer() {
			if inner, ok := subjectType.Dereferenced(); ok && inner.IsBaseLike() {
				return b.BuildLoad(subject, source), inner.Clone(), nil
			}
		}
		return subject, subjectType, nil
	}

	value, valueType, err := b.genExpr(expr, false)
	if err != nil {
		return nil, ast.Type{}, err
	}

	if valueType.IsPointer() {
		if inner, ok := valueType.Dereferenced(); ok && inner.IsBaseLike() {
			return value, inner.Clone(), nil
		}
	}

	tmp := b.addVariable("", valueType, value.Type, VarPOD)
	ptr := b.BuildVarptrFor(tmp)
	b.BuildStore(ptr, value, source)
	return b.BuildVarptrFor(tmp), valueType.Clone(), nil
}

func (b *Builder) genMethodCall(e *ast.MethodCallExpr, discardResult bool) (*ir.Value, ast.Type, error) {
	subject, subjectType, err := b.genSubjectPointer(e.Subject, e.Source)
	if err != nil {
		return nil, ast.Type{}, err
	}

	structName, ok := subjectType.StructLikeName()
	if !ok {
		b.g.compiler.Panicf(e.Source, "Cannot call method '%s' on non-composite type '%s'", e.Name, subjectType)
		return nil, ast.Type{}, errAborted
	}

	callArgValues, callArgTypes, err := b.genCallArgs(e.Args)
	if err != nil {
		return nil, ast.Type{}, err
	}

	var gives *ast.Type
	if !e.Gives.IsEmpty() {
		gives = &e.Gives
	}

	// Methods resolve against the subject's class first, then walk up the
	// parent chain; a parent's layout is a prefix of the child's, so the
	// subject pointer simply re-types on the way up
	currentSubject := subject
	currentType := subjectType.Clone()

	for {
		argValues := append([]*ir.Value{currentSubject}, callArgValues...)
		argTypes := append([]ast.Type{ast.TypePointerTo(currentType)}, ast.CloneTypes(callArgTypes)...)

		var result optionalEndpoint
		argValues, argTypes, errorcode := b.findMethodConforming(structName, e.Name, argValues, argTypes, gives, e.Source, &result)
		if errorcode == altFailure {
			return nil, ast.Type{}, errAborted
		}

		if errorcode == success && result.Has {
			b.conformArgsToCallee(argValues, argTypes, b.g.tree.Func(result.Endpoint.AstFuncID))
			return b.emitResolvedCall(result.Endpoint, argValues, discardResult, e.Source)
		}

		composite := b.g.tree.FindComposite(structName)
		if composite == nil || !composite.IsClass || composite.Parent.IsEmpty() {
			break
		}

		parentName, parentOK := composite.Parent.StructLikeName()
		if !parentOK {
			break
		}

		parentIR, resolveErr := b.g.resolveType(composite.Parent)
		if resolveErr != nil {
			return nil, ast.Type{}, resolveErr
		}

		currentSubject = b.BuildCast(ir.InstrBitcast, currentSubject, ir.PointerTo(parentIR))
		currentType = composite.Parent.Clone()
		structName = parentName
	}

	if e.IsTentative {
		return nil, ast.TypeBase("void"), nil
	}
	return nil, ast.Type{}, b.undeclaredMethod(structName, e.Name, e.Source)
}

// emitResolvedCall enforces qualifiers and emits the call instruction for
// a resolved endpoint.
func (b *Builder) emitResolvedCall(endpoint ir.Endpoint, argValues []*ir.Value, discardResult bool, source token.Source) (*ir.Value, ast.Type, error) {
	astCallee := b.g.tree.Func(endpoint.AstFuncID)

	if b.g.ensureNotViolatingDisallow(source, astCallee) != success {
		return nil, ast.Type{}, errAborted
	}
	if b.g.ensureNotViolatingNoDiscard(discardResult, source, astCallee) != success {
		return nil, ast.Type{}, errAborted
	}

	callee := b.g.module.Func(endpoint.IRFuncID)
	value := b.BuildCall(callee.ID, argValues, callee.ReturnType, source)
	return value, astCallee.ReturnType.Clone(), nil
}

func (b *Builder) genAddressCall(e *ast.AddressCallExpr) (*ir.Value, ast.Type, error) {
	address, addressType, err := b.genExpr(e.Address, false)
	if err != nil {
		return nil, ast.Type{}, err
	}

	if !addressType.IsFunc() {
		b.g.compiler.Panicf(e.Source, "Cannot call non-function-pointer type '%s'", addressType)
		return nil, ast.Type{}, errAborted
	}

	funcElem := addressType.Elements[0].(*ast.FuncElem)

	argValues, argTypes, err := b.genCallArgs(e.Args)
	if err != nil {
		return nil, ast.Type{}, err
	}

	for i := range argValues {
		if i >= len(funcElem.ArgTypes) {
			break
		}
		if !b.conform(&argValues[i], &argTypes[i], funcElem.ArgTypes[i], conformModeCallArgumentsLoose) {
			b.g.compiler.Panicf(e.Source, "Argument %d has type '%s', expected '%s'", i+1, argTypes[i], funcElem.ArgTypes[i])
			return nil, ast.Type{}, errAborted
		}
	}

	returnType, err := b.g.resolveType(funcElem.ReturnType)
	if err != nil {
		return nil, ast.Type{}, err
	}

	value := b.BuildCallAddress(address, argValues, returnType, e.Source)
	return value, funcElem.ReturnType.Clone(), nil
}

func (b *Builder) genMember(e *ast.MemberExpr, leaveMutable bool) (*ir.Value, ast.Type, error) {
	subject, subjectType, err := b.genSubjectPointer(e.Subject, e.Source)
	if err != nil {
		return nil, ast.Type{}, err
	}

	composite, catalog := b.g.compositeForType(subjectType)
	if composite == nil {
		b.g.compiler.Panicf(e.Source, "Cannot access member '%s' of non-composite type '%s'", e.Member, subjectType)
		return nil, ast.Type{}, errAborted
	}

	index, fieldType, found := b.g.findFieldIndex(composite, catalog, e.Member)
	if !found {
		b.g.compiler.Panicf(e.Source, "Type '%s' has no member '%s'", subjectType, e.Member)
		return nil, ast.Type{}, errAborted
	}

	fieldIR, err := b.g.resolveType(fieldType)
	if err != nil {
		return nil, ast.Type{}, err
	}

	fieldPtr := b.BuildMember(subject, index, ir.PointerTo(fieldIR), e.Source)
	if leaveMutable {
		return fieldPtr, fieldType.Clone(), nil
	}
	return b.BuildLoad(fieldPtr, e.Source), fieldType.Clone(), nil
}

func (b *Builder) genArrayAccess(e *ast.ArrayAccessExpr, leaveMutable bool) (*ir.Value, ast.Type, error) {
	index, indexType, err := b.genExpr(e.Index, false)
	if err != nil {
		return nil, ast.Type{}, err
	}

	usizeType := ast.TypeBase("usize")
	if !b.conform(&index, &indexType, usizeType, conformModeAssigning) {
		b.g.compiler.Panicf(e.Source, "Array index must be an integer, got '%s'", indexType)
		return nil, ast.Type{}, errAborted
	}

	// Pointer subjects index through their value; fixed arrays and
	// composites need the subject's address
	mutable := exprIsMutable(e.Subject)

	subject, subjectType, err := b.genExpr(e.Subject, mutable)
	if err != nil {
		return nil, ast.Type{}, err
	}

	if subjectType.IsPointer() {
		pointer := subject
		if mutable {
			pointer = b.BuildLoad(subject, e.Source)
		}
		elemType, _ := subjectType.Dereferenced()
		elemPtr := b.BuildArrayAccess(pointer, index, e.Source)
		if leaveMutable {
			return elemPtr, elemType.Clone(), nil
		}
		return b.BuildLoad(elemPtr, e.Source), elemType.Clone(), nil
	}

	if !mutable {
		// Spill the rvalue so it is addressable
		tmp := b.addVariable("", subjectType, subject.Type, VarPOD)
		b.BuildStore(b.BuildVarptrFor(tmp), subject, e.Source)
		subject = b.BuildVarptrFor(tmp)
	}

	return b.genArrayAccessAddressable(e, subject, subjectType, index, leaveMutable)
}

// genArrayAccessAddressable indexes a subject through its address:
// fixed arrays decay to element pointers, composites dispatch to their
// __access__ overload.
func (b *Builder) genArrayAccessAddressable(e *ast.ArrayAccessExpr, subject *ir.Value, subjectType ast.Type, index *ir.Value, leaveMutable bool) (*ir.Value, ast.Type, error) {
	switch {
	case subjectType.IsFixedArray():
		elemType := subjectType.Unwrapped()
		elemIR, resolveErr := b.g.resolveType(elemType)
		if resolveErr != nil {
			return nil, ast.Type{}, resolveErr
		}
		decayed := b.BuildCast(ir.InstrBitcast, subject, ir.PointerTo(elemIR))
		elemPtr := b.BuildArrayAccess(decayed, index, e.Source)
		if leaveMutable {
			return elemPtr, elemType.Clone(), nil
		}
		return b.BuildLoad(elemPtr, e.Source), elemType.Clone(), nil
	}

	// Composite subjects dispatch to their __access__ overload; the index
	// was already conformed to usize
	value, valueType, found, overloadErr := b.tryAccessOverload(subject, index, subjectType, ast.TypeBase("usize"), e.Source)
	if overloadErr != nil {
		return nil, ast.Type{}, overloadErr
	}
	if found {
		pointee, isPtr := valueType.Dereferenced()
		if isPtr && !leaveMutable {
			return b.BuildLoad(value, e.Source), pointee.Clone(), nil
		}
		if isPtr {
			return value, pointee.Clone(), nil
		}
		return value, valueType, nil
	}

	b.g.compiler.Panicf(e.Source, "Cannot index into type '%s'", subjectType)
	return nil, ast.Type{}, errAborted
}

func (b *Builder) genNew(e *ast.NewExpr) (*ir.Value, ast.Type, error) {
	elemIR, err := b.g.resolveType(e.Type)
	if err != nil {
		return nil, ast.Type{}, err
	}

	count := b.BuildLiteralUsize(1)
	if e.Count != nil {
		value, valueType, countErr := b.genExpr(e.Count, false)
		if countErr != nil {
			return nil, ast.Type{}, countErr
		}
		usizeType := ast.TypeBase("usize")
		if !b.conform(&value, &valueType, usizeType, conformModeAssigning) {
			b.g.compiler.Panicf(e.Source, "Allocation count must be an integer, got '%s'", valueType)
			return nil, ast.Type{}, errAborted
		}
		count = value
	}

	allocation := b.BuildMalloc(elemIR, count, e.IsUndef)

	if !e.IsUndef {
		b.BuildZeroinit(allocation)
	}

	if errorcode := b.initializeClassInstance(e.Type, allocation, e.Source); errorcode == altFailure {
		return nil, ast.Type{}, errAborted
	}

	return allocation, ast.TypePointerTo(e.Type), nil
}

// initializeClassInstance stores the class's vtable pointer into a freshly
// allocated or declared instance.
func (b *Builder) initializeClassInstance(t ast.Type, instancePtr *ir.Value, source token.Source) compiler.Errorcode {
	name, ok := t.StructLikeName()
	if !ok || len(t.Elements) != 1 {
		return success
	}

	composite := b.g.tree.FindComposite(name)
	if composite == nil || !composite.IsClass {
		return success
	}

	table, found := b.vtablePointerFor(t)
	if !found {
		b.g.compiler.Panicf(source, "INTERNAL ERROR: No virtual dispatch table for class '%s'", t)
		return altFailure
	}

	vtableField := b.BuildMember(instancePtr, 0, ir.PointerTo(b.g.module.Common.Ptr), source)
	b.BuildStore(vtableField, table, source)
	return success
}

func (b *Builder) genNewCstring(e *ast.NewCstringExpr) (*ir.Value, ast.Type, error) {
	u8 := &ir.Type{Kind: ir.TypeU8}
	length := uint64(len(e.Value))

	allocation := b.BuildMalloc(u8, b.BuildLiteralUsize(length+1), true)
	literal := &ir.Value{Kind: ir.ValCStrOfLen, Type: b.g.module.Common.Ptr, Str: e.Value, Length: len(e.Value)}
	b.BuildMemcpy(allocation, literal, b.BuildLiteralUsize(length+1))

	return allocation, ast.TypePointerTo(ast.TypeBase("ubyte")), nil
}

func (b *Builder) genTernary(e *ast.TernaryExpr) (*ir.Value, ast.Type, error) {
	condition, conditionType, err := b.genExpr(e.Condition, false)
	if err != nil {
		return nil, ast.Type{}, err
	}

	boolType := ast.TypeBase("bool")
	if !b.conform(&condition, &conditionType, boolType, conformModeAssigning) {
		b.g.compiler.Panicf(e.Source, "Ternary condition must be a boolean, got '%s'", conditionType)
		return nil, ast.Type{}, errAborted
	}

	trueBlock := b.NewBlock()
	falseBlock := b.NewBlock()
	mergeBlock := b.NewBlock()

	b.BuildCondBreak(condition, trueBlock, falseBlock)

	b.UseBlock(trueBlock)
	trueValue, trueType, err := b.genExpr(e.IfTrue, false)
	if err != nil {
		return nil, ast.Type{}, err
	}
	trueExit := b.currentBlock

	b.UseBlock(falseBlock)
	falseValue, falseType, err := b.genExpr(e.IfFalse, false)
	if err != nil {
		return nil, ast.Type{}, err
	}
	falseExit := b.currentBlock

	// Unify branch types
	if !ast.TypesIdentical(trueType, falseType) {
		b.UseBlock(falseExit)
		if b.conform(&falseValue, &falseType, trueType, conformModeAssigning) {
			falseExit = b.currentBlock
		} else {
			b.UseBlock(trueExit)
			if !b.conform(&trueValue, &trueType, falseType, conformModeAssigning) {
				b.g.compiler.Panicf(e.Source, "Incompatible ternary branch types '%s' and '%s'", trueType, falseType)
				return nil, ast.Type{}, errAborted
			}
			trueExit = b.currentBlock
		}
	}

	b.UseBlock(trueExit)
	b.BuildBreak(mergeBlock)
	b.UseBlock(falseExit)
	b.BuildBreak(mergeBlock)

	b.UseBlock(mergeBlock)
	merged := b.BuildPhi2(trueValue, trueExit, falseValue, falseExit, trueValue.Type)
	return merged, trueType, nil
}

func (b *Builder) genInitializerList(e *ast.InitializerListExpr) (*ir.Value, ast.Type, error) {
	if len(e.Values) == 0 {
		b.g.compiler.Panicf(e.Source, "Cannot infer type of empty initializer list")
		return nil, ast.Type{}, errAborted
	}

	values := make([]*ir.Value, len(e.Values))
	var elemType ast.Type

	for i, member := range e.Values {
		value, valueType, err := b.genExpr(member, false)
		if err != nil {
			return nil, ast.Type{}, err
		}

		if i == 0 {
			elemType = valueType
		} else if !b.conform(&value, &valueType, elemType, conformModeAssigning) {
			b.g.compiler.Panicf(member.Src(), "Initializer list element has type '%s', expected '%s'", valueType, elemType)
			return nil, ast.Type{}, errAborted
		}

		values[i] = value
	}

	elemIR, err := b.g.resolveType(elemType)
	if err != nil {
		return nil, ast.Type{}, err
	}

	arrayType := ir.FixedArrayOf(uint64(len(values)), elemIR)
	value := &ir.Value{Kind: ir.ValArrayLiteral, Type: arrayType, Values: values}
	return value, ast.TypeFixedArrayOf(uint64(len(values)), elemType), nil
}

func (b *Builder) genFuncAddr(e *ast.FuncAddrExpr) (*ir.Value, ast.Type, error) {
	var endpoint ir.Endpoint
	found := false

	if e.MatchArgs != nil {
		var result optionalEndpoint
		errorcode := b.g.findFuncRegular(e.Name, e.MatchArgs, 0, 0, e.Source, &result)
		if errorcode == altFailure {
			return nil, ast.Type{}, errAborted
		}
		if errorcode == success && result.Has {
			endpoint = result.Endpoint
			found = true
		}
	} else {
		var isUnique bool
		endpoint, isUnique, found = b.g.findFuncNamed(e.Name, false)
		if found && !isUnique {
			if b.g.compiler.Warnf(compiler.WarnAll, e.Source, "Using this definition of '%s', but there are multiple possibilities", e.Name) {
				return nil, ast.Type{}, errAborted
			}
		}
	}

	if !found {
		return nil, ast.Type{}, b.undeclaredFunction(e.Name, e.MatchArgs, e.Source)
	}

	astCallee := b.g.tree.Func(endpoint.AstFuncID)

	var elemTraits ast.FuncElemTraits
	if astCallee.Traits&ast.FuncVararg != 0 {
		elemTraits |= ast.FuncElemVararg
	}
	if astCallee.Traits&ast.FuncStdcall != 0 {
		elemTraits |= ast.FuncElemStdcall
	}

	funcType := ast.TypeFunc(astCallee.ArgTypes, astCallee.ReturnType, elemTraits)

	irType, err := b.g.resolveType(funcType)
	if err != nil {
		return nil, ast.Type{}, err
	}

	value := &ir.Value{Kind: ir.ValFuncAddr, Type: irType, FuncID: endpoint.IRFuncID}
	return value, funcType, nil
}

// undeclaredFunction reports NO_MATCH with a candidate list and a
// did-you-mean suggestion.
func (b *Builder) undeclaredFunction(name string, argTypes []ast.Type, source token.Source) error {
	message := "Undeclared function '%s(%s)'"

	if endpoints := b.g.module.FindFuncEndpoints(name); endpoints != nil {
		candidates := ""
		for _, endpoint := range endpoints.Endpoints {
			candidates += "\n    " + b.g.tree.Func(endpoint.AstFuncID).Head()
		}
		b.g.compiler.Panicf(source, message+"\n  Potential candidates:%s", name, ast.TypesString(argTypes), candidates)
		return errAborted
	}

	if suggestion := nearestName(name, b.g.funcNameCorpus()); suggestion != "" {
		b.g.compiler.Panicf(source, message+" (did you mean '%s'?)", name, ast.TypesString(argTypes), suggestion)
		return errAborted
	}

	b.g.compiler.Panicf(source, message, name, ast.TypesString(argTypes))
	return errAborted
}

// undeclaredMethod reports a missing method with a did-you-mean hint.
func (b *Builder) undeclaredMethod(structName, name string, source token.Source) error {
	if suggestion := nearestName(name, b.g.methodNameCorpus(structName)); suggestion != "" {
		b.g.compiler.Panicf(source, "Undeclared method '%s' on type '%s' (did you mean '%s'?)", name, structName, suggestion)
		return errAborted
	}

	b.g.compiler.Panicf(source, "Undeclared method '%s' on type '%s'", name, structName)
	return errAborted
}
