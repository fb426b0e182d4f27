package ast

import (
	"strings"

	"github.com/adeptlang/go-adept/pkg/token"
)

// FuncID indexes into the Ast's function table.
type FuncID int

// FuncTraits are the trait bits of a function declaration.
type FuncTraits uint32

const (
	FuncMain FuncTraits = 1 << iota
	FuncForeign
	FuncStdcall
	FuncVararg
	FuncVariadic
	FuncDefer   // the function is a __defer__ management routine
	FuncPass    // the function is a __pass__ management routine
	FuncAutogen // generated by the lifecycle autogen engine
	FuncPolymorphic
	FuncVirtual
	FuncOverride
	FuncDispatcher
	FuncNoDiscard
	FuncDisallow
	FuncImplicit
)

// Flow describes how an argument value flows into a function.
type Flow uint8

const (
	FlowIn Flow = iota
	FlowOut
	FlowInOut
)

// ArgTypeTrait marks special parameter handling.
type ArgTypeTrait uint8

const (
	ArgTypeRegular ArgTypeTrait = iota
	ArgTypePOD                  // skip management routines for this parameter
)

// VariadicInfo describes a "args ..." variadic tail.
type VariadicInfo struct {
	Name   string
	Source token.Source
}

// Func is a function or method declaration. Methods are functions whose
// first parameter is named "this" and typed as a pointer to their subject
// composite.
type Func struct {
	Name          string
	ArgNames      []string
	ArgTypes      []Type
	ArgSources    []token.Source
	ArgFlows      []Flow
	ArgTypeTraits []ArgTypeTrait
	ArgDefaults   []Expr // nil, or per-argument default expression (nil entry = none)
	ReturnType    Type
	Traits        FuncTraits
	Statements    []Stmt
	Variadic      *VariadicInfo
	Source        token.Source

	// Origin is the template this concrete function was instantiated from;
	// meaningful only when instantiated by the polymorph engine.
	Origin FuncID

	// ExportAsName is the foreign/exported symbol name when it differs
	// from Name.
	ExportAsName string
}

// Arity returns the number of declared parameters.
func (f *Func) Arity() int {
	return len(f.ArgTypes)
}

// IsMethod reports whether the function takes a "this" subject pointer.
func (f *Func) IsMethod() bool {
	return len(f.ArgNames) != 0 && f.ArgNames[0] == "this" && len(f.ArgTypes) != 0 && f.ArgTypes[0].IsPointer()
}

// SubjectName returns the composite name a method belongs to, or "".
func (f *Func) SubjectName() (string, bool) {
	if !f.IsMethod() {
		return "", false
	}
	subject, ok := f.ArgTypes[0].Dereferenced()
	if !ok {
		return "", false
	}
	return subject.StructLikeName()
}

// HasDefaults reports whether any parameter carries a default expression.
func (f *Func) HasDefaults() bool {
	for _, def := range f.ArgDefaults {
		if def != nil {
			return true
		}
	}
	return false
}

// Head renders the function's signature for diagnostics, e.g.
// "sum(a int, b int) int".
func (f *Func) Head() string {
	var sb strings.Builder
	sb.WriteString(f.Name)
	sb.WriteString("(")
	for i := range f.ArgTypes {
		if i != 0 {
			sb.WriteString(", ")
		}
		if i < len(f.ArgNames) && f.ArgNames[i] != "" {
			sb.WriteString(f.ArgNames[i])
			sb.WriteString(" ")
		}
		sb.WriteString(f.ArgTypes[i].String())
	}
	if f.Traits&FuncVararg != 0 || f.Traits&FuncVariadic != 0 {
		if len(f.ArgTypes) != 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("...")
	}
	sb.WriteString(")")
	if !f.ReturnType.IsEmpty() && !f.ReturnType.IsVoid() {
		sb.WriteString(" ")
		sb.WriteString(f.ReturnType.String())
	}
	return sb.String()
}

// Clone deep-copies the function declaration.
func (f *Func) Clone() *Func {
	cloned := &Func{
		Name:          f.Name,
		ArgNames:      append([]string(nil), f.ArgNames...),
		ArgTypes:      CloneTypes(f.ArgTypes),
		ArgSources:    append([]token.Source(nil), f.ArgSources...),
		ArgFlows:      append([]Flow(nil), f.ArgFlows...),
		ArgTypeTraits: append([]ArgTypeTrait(nil), f.ArgTypeTraits...),
		ReturnType:    f.ReturnType.Clone(),
		Traits:        f.Traits,
		Statements:    CloneStmts(f.Statements),
		Source:        f.Source,
		Origin:        f.Origin,
		ExportAsName:  f.ExportAsName,
	}

	if f.ArgDefaults != nil {
		cloned.ArgDefaults = make([]Expr, len(f.ArgDefaults))
		for i, def := range f.ArgDefaults {
			cloned.ArgDefaults[i] = CloneExpr(def)
		}
	}

	if f.Variadic != nil {
		variadic := *f.Variadic
		cloned.Variadic = &variadic
	}

	return cloned
}
