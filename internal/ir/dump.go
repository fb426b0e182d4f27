package ir

import (
	"fmt"
	"strings"
)

// Dump renders a human-readable listing of the module for debugging and
// snapshot tests. Output order is deterministic: type map registration
// order, then globals, anonymous globals, static variables, and functions
// by index. Vtable data is not listed.
func (m *Module) Dump() string {
	var sb strings.Builder

	for _, name := range m.TypeMap.Names() {
		t := m.TypeMap.Find(name)
		fmt.Fprintf(&sb, "type %s = %s\n", name, describeType(t))
	}

	for _, g := range m.Globals {
		fmt.Fprintf(&sb, "global %s %s\n", g.Name, g.Type)
	}

	for _, anon := range m.AnonGlobals {
		keyword := "anon"
		if anon.IsConstant {
			keyword = "const anon"
		}
		fmt.Fprintf(&sb, "%s %d %s = %s\n", keyword, anon.ID, anon.Type, anon.Initializer)
	}

	for _, sv := range m.StaticVariables {
		fmt.Fprintf(&sb, "static %d %s\n", sv.ID, sv.Type)
	}

	for _, f := range m.Funcs {
		dumpFunc(&sb, f)
	}

	return sb.String()
}

func describeType(t *Type) string {
	if t.Kind == TypeStructure {
		parts := make([]string, len(t.Fields))
		for i, field := range t.Fields {
			parts[i] = field.String()
		}
		packed := ""
		if t.IsPacked {
			packed = "packed "
		}
		return packed + "{" + strings.Join(parts, ", ") + "}"
	}
	return t.String()
}

func dumpFunc(sb *strings.Builder, f *Func) {
	args := make([]string, len(f.ArgTypes))
	for i, arg := range f.ArgTypes {
		args[i] = arg.String()
	}

	keyword := "fn"
	if f.Traits&FuncIsForeign != 0 {
		keyword = "foreign fn"
	}

	fmt.Fprintf(sb, "%s %d %s(%s) %s\n", keyword, f.ID, f.Name, strings.Join(args, ", "), f.ReturnType)

	for blockID, block := range f.Blocks {
		fmt.Fprintf(sb, "  block %d:\n", blockID)
		for instrID, instr := range block.Instrs {
			fmt.Fprintf(sb, "    %%%d.%d = %s\n", blockID, instrID, dumpInstr(instr))
		}
	}
}

func dumpInstr(instr *Instr) string {
	switch instr.Kind {
	case InstrVarptr:
		return fmt.Sprintf("varptr %s #%d", instr.Result, instr.Index)
	case InstrGlobalVarptr:
		return fmt.Sprintf("gvarptr %s #%d", instr.Result, instr.Index)
	case InstrStaticVarptr:
		return fmt.Sprintf("svarptr %s #%d", instr.Result, instr.Index)
	case InstrMalloc:
		return fmt.Sprintf("malloc %s x (%s)", instr.Result.Elem, instr.A)
	case InstrFree:
		return fmt.Sprintf("free %s", instr.A)
	case InstrZeroinit:
		return fmt.Sprintf("zeroinit %s", instr.A)
	case InstrMemcpy:
		return fmt.Sprintf("memcpy %s, %s, %s", instr.A, instr.B, instr.Values[0])
	case InstrLoad:
		return fmt.Sprintf("load %s", instr.A)
	case InstrStore:
		return fmt.Sprintf("store %s -> %s", instr.B, instr.A)
	case InstrCall:
		return fmt.Sprintf("call fn%d (%s)", instr.FuncID, dumpValues(instr.Values))
	case InstrCallAddress:
		return fmt.Sprintf("call addr %s (%s)", instr.A, dumpValues(instr.Values))
	case InstrBreak:
		return fmt.Sprintf("br block %d", instr.Block)
	case InstrCondBreak:
		return fmt.Sprintf("condbr %s ? block %d : block %d", instr.A, instr.Block, instr.BlockB)
	case InstrRet:
		if instr.A == nil {
			return "ret"
		}
		return fmt.Sprintf("ret %s", instr.A)
	case InstrAlloc:
		return fmt.Sprintf("alloc %s", instr.Result.Elem)
	case InstrStackSave:
		return "stacksave"
	case InstrStackRestore:
		return fmt.Sprintf("stackrestore %s", instr.A)
	case InstrPhi2:
		return fmt.Sprintf("phi2 [%s, block %d], [%s, block %d]", instr.A, instr.Block, instr.B, instr.BlockB)
	case InstrAsm:
		return fmt.Sprintf("asm %q", instr.Assembly)
	case InstrDeinitSvars:
		return "deinit_svars"
	case InstrVaArg:
		return fmt.Sprintf("va_arg %s -> %s", instr.A, instr.Result)
	case InstrVaStart:
		return fmt.Sprintf("va_start %s", instr.A)
	case InstrVaEnd:
		return fmt.Sprintf("va_end %s", instr.A)
	case InstrVaCopy:
		return fmt.Sprintf("va_copy %s, %s", instr.A, instr.B)
	case InstrUnreachable:
		return "unreachable"
	case InstrArrayAccess:
		return fmt.Sprintf("access %s [%s]", instr.A, instr.B)
	case InstrMember:
		return fmt.Sprintf("member %s #%d", instr.A, instr.Index)
	case InstrBitcast, InstrZext, InstrSext, InstrFext, InstrTrunc, InstrFtrunc,
		InstrInttoptr, InstrPtrtoint, InstrFptoui, InstrFptosi, InstrUitofp, InstrSitofp:
		return fmt.Sprintf("%s %s -> %s", castName(instr.Kind), instr.A, instr.Result)
	}

	switch instr.Kind {
	case InstrNegate, InstrIsZero, InstrBitComplement:
		return fmt.Sprintf("%s %s", mathName(instr.Kind), instr.A)
	}

	if name := mathName(instr.Kind); name != "" {
		return fmt.Sprintf("%s %s, %s", name, instr.A, instr.B)
	}

	return fmt.Sprintf("instr(%d)", instr.Kind)
}

func dumpValues(values []*Value) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = v.String()
	}
	return strings.Join(parts, ", ")
}

func castName(kind InstrKind) string {
	switch kind {
	case InstrBitcast:
		return "bitcast"
	case InstrZext:
		return "zext"
	case InstrSext:
		return "sext"
	case InstrFext:
		return "fext"
	case InstrTrunc:
		return "trunc"
	case InstrFtrunc:
		return "ftrunc"
	case InstrInttoptr:
		return "inttoptr"
	case InstrPtrtoint:
		return "ptrtoint"
	case InstrFptoui:
		return "fptoui"
	case InstrFptosi:
		return "fptosi"
	case InstrUitofp:
		return "uitofp"
	case InstrSitofp:
		return "sitofp"
	}
	return ""
}

func mathName(kind InstrKind) string {
	switch kind {
	case InstrAdd:
		return "add"
	case InstrSubtract:
		return "sub"
	case InstrMultiply:
		return "mul"
	case InstrDivide:
		return "div"
	case InstrModulus:
		return "mod"
	case InstrEquals:
		return "eq"
	case InstrNotEquals:
		return "ne"
	case InstrLessThan:
		return "lt"
	case InstrGreaterThan:
		return "gt"
	case InstrLessThanEq:
		return "le"
	case InstrGreaterThanEq:
		return "ge"
	case InstrBitAnd:
		return "and"
	case InstrBitOr:
		return "or"
	case InstrBitXor:
		return "xor"
	case InstrLShift:
		return "shl"
	case InstrRShift:
		return "shr"
	case InstrNegate:
		return "neg"
	case InstrIsZero:
		return "iszero"
	case InstrBitComplement:
		return "compl"
	}
	return ""
}
