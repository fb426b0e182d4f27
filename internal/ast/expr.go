package ast

import (
	"strconv"
	"strings"

	"github.com/adeptlang/go-adept/pkg/token"
)

// Node is the base interface for AST expressions and statements.
type Node interface {
	// Src returns the node's location for error reporting.
	Src() token.Source

	// String returns a human notation of the node for diagnostics.
	String() string
}

// Expr represents any node that produces a value.
type Expr interface {
	Node
	CloneExpr() Expr
	exprNode()
}

// CloneExpr deep-copies an expression, tolerating nil.
func CloneExpr(expr Expr) Expr {
	if expr == nil {
		return nil
	}
	return expr.CloneExpr()
}

// CloneExprs deep-copies a slice of expressions.
func CloneExprs(exprs []Expr) []Expr {
	if exprs == nil {
		return nil
	}
	cloned := make([]Expr, len(exprs))
	for i, expr := range exprs {
		cloned[i] = CloneExpr(expr)
	}
	return cloned
}

// ---------------------------------------------------------------------------
// Literals
// ---------------------------------------------------------------------------

// IntegerLit is an unsuffixed integer literal; its type is "generic int"
// until conformation picks a concrete integer type.
type IntegerLit struct {
	Value  int64
	Source token.Source
}

// FloatLit is an unsuffixed float literal with "generic float" type.
type FloatLit struct {
	Value  float64
	Source token.Source
}

// TypedIntegerLit is a suffixed integer literal such as "8ub" or "0uz".
type TypedIntegerLit struct {
	TypeName string // "byte", "ubyte", ..., "usize"
	Value    int64
	Source   token.Source
}

// TypedFloatLit is a suffixed float literal such as "1.5f".
type TypedFloatLit struct {
	TypeName string // "float" or "double"
	Value    float64
	Source   token.Source
}

// BoolLit is "true" or "false".
type BoolLit struct {
	Value  bool
	Source token.Source
}

// StringLit is a length-prefixed String literal.
type StringLit struct {
	Value  string
	Source token.Source
}

// CStringLit is a null-terminated *ubyte literal.
type CStringLit struct {
	Value  string
	Source token.Source
}

// NullLit is the null pointer literal.
type NullLit struct {
	Source token.Source
}

// PolyCountExpr is a "$#N" count parameter used in expression position.
type PolyCountExpr struct {
	Name   string
	Source token.Source
}

func (e *IntegerLit) exprNode()      {}
func (e *FloatLit) exprNode()        {}
func (e *TypedIntegerLit) exprNode() {}
func (e *TypedFloatLit) exprNode()   {}
func (e *BoolLit) exprNode()         {}
func (e *StringLit) exprNode()       {}
func (e *CStringLit) exprNode()      {}
func (e *NullLit) exprNode()         {}
func (e *PolyCountExpr) exprNode()   {}

func (e *IntegerLit) Src() token.Source      { return e.Source }
func (e *FloatLit) Src() token.Source        { return e.Source }
func (e *TypedIntegerLit) Src() token.Source { return e.Source }
func (e *TypedFloatLit) Src() token.Source   { return e.Source }
func (e *BoolLit) Src() token.Source         { return e.Source }
func (e *StringLit) Src() token.Source       { return e.Source }
func (e *CStringLit) Src() token.Source      { return e.Source }
func (e *NullLit) Src() token.Source         { return e.Source }
func (e *PolyCountExpr) Src() token.Source   { return e.Source }

func (e *IntegerLit) String() string { return strconv.FormatInt(e.Value, 10) }
func (e *FloatLit) String() string   { return strconv.FormatFloat(e.Value, 'g', -1, 64) }
func (e *TypedIntegerLit) String() string {
	return strconv.FormatInt(e.Value, 10) + litSuffix(e.TypeName)
}
func (e *TypedFloatLit) String() string {
	return strconv.FormatFloat(e.Value, 'g', -1, 64) + litSuffix(e.TypeName)
}
func (e *BoolLit) String() string {
	if e.Value {
		return "true"
	}
	return "false"
}
func (e *StringLit) String() string    { return strconv.Quote(e.Value) }
func (e *CStringLit) String() string   { return "'" + e.Value + "'" }
func (e *NullLit) String() string      { return "null" }
func (e *PolyCountExpr) String() string { return "$#" + e.Name }

func (e *IntegerLit) CloneExpr() Expr      { c := *e; return &c }
func (e *FloatLit) CloneExpr() Expr        { c := *e; return &c }
func (e *TypedIntegerLit) CloneExpr() Expr { c := *e; return &c }
func (e *TypedFloatLit) CloneExpr() Expr   { c := *e; return &c }
func (e *BoolLit) CloneExpr() Expr         { c := *e; return &c }
func (e *StringLit) CloneExpr() Expr       { c := *e; return &c }
func (e *CStringLit) CloneExpr() Expr      { c := *e; return &c }
func (e *NullLit) CloneExpr() Expr         { c := *e; return &c }
func (e *PolyCountExpr) CloneExpr() Expr   { c := *e; return &c }

func litSuffix(typeName string) string {
	switch typeName {
	case "byte":
		return "sb"
	case "ubyte":
		return "ub"
	case "short":
		return "ss"
	case "ushort":
		return "us"
	case "int":
		return "si"
	case "uint":
		return "ui"
	case "long":
		return "sl"
	case "ulong":
		return "ul"
	case "usize":
		return "uz"
	case "float":
		return "f"
	case "double":
		return "d"
	}
	return ""
}

// ---------------------------------------------------------------------------
// Operators
// ---------------------------------------------------------------------------

// BinaryOp enumerates binary math and logic operators.
type BinaryOp int

const (
	BinaryAdd BinaryOp = iota
	BinarySubtract
	BinaryMultiply
	BinaryDivide
	BinaryModulus
	BinaryEquals
	BinaryNotEquals
	BinaryLessThan
	BinaryGreaterThan
	BinaryLessThanEq
	BinaryGreaterThanEq
	BinaryAnd
	BinaryOr
	BinaryBitAnd
	BinaryBitOr
	BinaryBitXor
	BinaryLShift
	BinaryRShift
)

// Symbol returns the operator's source notation.
func (op BinaryOp) Symbol() string {
	switch op {
	case BinaryAdd:
		return "+"
	case BinarySubtract:
		return "-"
	case BinaryMultiply:
		return "*"
	case BinaryDivide:
		return "/"
	case BinaryModulus:
		return "%"
	case BinaryEquals:
		return "=="
	case BinaryNotEquals:
		return "!="
	case BinaryLessThan:
		return "<"
	case BinaryGreaterThan:
		return ">"
	case BinaryLessThanEq:
		return "<="
	case BinaryGreaterThanEq:
		return ">="
	case BinaryAnd:
		return "&&"
	case BinaryOr:
		return "||"
	case BinaryBitAnd:
		return "&"
	case BinaryBitOr:
		return "|"
	case BinaryBitXor:
		return "^"
	case BinaryLShift:
		return "<<"
	case BinaryRShift:
		return ">>"
	}
	return "?"
}

// OverloadName returns the management function name used to overload the
// operator for composite operands, or "" when the operator cannot be
// overloaded.
func (op BinaryOp) OverloadName() string {
	switch op {
	case BinaryAdd:
		return "__add__"
	case BinarySubtract:
		return "__subtract__"
	case BinaryMultiply:
		return "__multiply__"
	case BinaryDivide:
		return "__divide__"
	case BinaryModulus:
		return "__modulus__"
	case BinaryEquals:
		return "__equals__"
	case BinaryNotEquals:
		return "__not_equals__"
	case BinaryLessThan:
		return "__less_than__"
	case BinaryGreaterThan:
		return "__greater_than__"
	case BinaryLessThanEq:
		return "__less_than_or_equal__"
	case BinaryGreaterThanEq:
		return "__greater_than_or_equal__"
	}
	return ""
}

// UnaryOp enumerates unary operators.
type UnaryOp int

const (
	UnaryNegate UnaryOp = iota
	UnaryNot
	UnaryBitComplement
	UnaryAddressOf
	UnaryDereference
)

func (op UnaryOp) Symbol() string {
	switch op {
	case UnaryNegate:
		return "-"
	case UnaryNot:
		return "!"
	case UnaryBitComplement:
		return "~"
	case UnaryAddressOf:
		return "&"
	case UnaryDereference:
		return "*"
	}
	return "?"
}

// BinaryExpr is a binary math or logic operation.
type BinaryExpr struct {
	Op     BinaryOp
	Left   Expr
	Right  Expr
	Source token.Source
}

// UnaryExpr is a unary operation.
type UnaryExpr struct {
	Op     UnaryOp
	Value  Expr
	Source token.Source
}

func (e *BinaryExpr) exprNode()         {}
func (e *UnaryExpr) exprNode()          {}
func (e *BinaryExpr) Src() token.Source { return e.Source }
func (e *UnaryExpr) Src() token.Source  { return e.Source }

func (e *BinaryExpr) String() string {
	return "(" + e.Left.String() + " " + e.Op.Symbol() + " " + e.Right.String() + ")"
}

func (e *UnaryExpr) String() string {
	return "(" + e.Op.Symbol() + e.Value.String() + ")"
}

func (e *BinaryExpr) CloneExpr() Expr {
	return &BinaryExpr{Op: e.Op, Left: CloneExpr(e.Left), Right: CloneExpr(e.Right), Source: e.Source}
}

func (e *UnaryExpr) CloneExpr() Expr {
	return &UnaryExpr{Op: e.Op, Value: CloneExpr(e.Value), Source: e.Source}
}

// ---------------------------------------------------------------------------
// Variables, calls, and access
// ---------------------------------------------------------------------------

// VariableExpr references a variable, constant, or global by name.
type VariableExpr struct {
	Name   string
	Source token.Source
}

// CallExpr calls a function by name.
type CallExpr struct {
	Name        string
	Args        []Expr
	Gives       Type // optional required return type ("~> T"); empty when absent
	IsTentative bool // tentative calls fail silently when no match exists
	Source      token.Source
}

// MethodCallExpr calls a method on a subject value.
type MethodCallExpr struct {
	Subject     Expr
	Name        string
	Args        []Expr
	Gives       Type
	IsTentative bool
	Source      token.Source
}

// AddressCallExpr calls through a function pointer value.
type AddressCallExpr struct {
	Address Expr
	Args    []Expr
	Source  token.Source
}

// MemberExpr accesses a field of a composite value.
type MemberExpr struct {
	Subject Expr
	Member  string
	Source  token.Source
}

// ArrayAccessExpr indexes into an array or pointer.
type ArrayAccessExpr struct {
	Subject Expr
	Index   Expr
	Source  token.Source
}

// FuncAddrExpr takes the address of a named function, optionally
// disambiguated by parameter types.
type FuncAddrExpr struct {
	Name      string
	MatchArgs []Type
	Source    token.Source
}

// EnumValueExpr is "EnumName::VALUE" or the transient "::VALUE" whose enum
// kind is inferred later.
type EnumValueExpr struct {
	EnumName string // empty for "::VALUE"
	Value    string
	Source   token.Source
}

func (e *VariableExpr) exprNode()    {}
func (e *CallExpr) exprNode()        {}
func (e *MethodCallExpr) exprNode()  {}
func (e *AddressCallExpr) exprNode() {}
func (e *MemberExpr) exprNode()      {}
func (e *ArrayAccessExpr) exprNode() {}
func (e *FuncAddrExpr) exprNode()    {}
func (e *EnumValueExpr) exprNode()   {}

func (e *VariableExpr) Src() token.Source    { return e.Source }
func (e *CallExpr) Src() token.Source        { return e.Source }
func (e *MethodCallExpr) Src() token.Source  { return e.Source }
func (e *AddressCallExpr) Src() token.Source { return e.Source }
func (e *MemberExpr) Src() token.Source      { return e.Source }
func (e *ArrayAccessExpr) Src() token.Source { return e.Source }
func (e *FuncAddrExpr) Src() token.Source    { return e.Source }
func (e *EnumValueExpr) Src() token.Source   { return e.Source }

func (e *VariableExpr) String() string { return e.Name }

func (e *CallExpr) String() string {
	return e.Name + "(" + exprsString(e.Args) + ")"
}

func (e *MethodCallExpr) String() string {
	return e.Subject.String() + "." + e.Name + "(" + exprsString(e.Args) + ")"
}

func (e *AddressCallExpr) String() string {
	return e.Address.String() + "(" + exprsString(e.Args) + ")"
}

func (e *MemberExpr) String() string {
	return e.Subject.String() + "." + e.Member
}

func (e *ArrayAccessExpr) String() string {
	return e.Subject.String() + "[" + e.Index.String() + "]"
}

func (e *FuncAddrExpr) String() string { return "func &" + e.Name }

func (e *EnumValueExpr) String() string {
	return e.EnumName + "::" + e.Value
}

func (e *VariableExpr) CloneExpr() Expr { c := *e; return &c }

func (e *CallExpr) CloneExpr() Expr {
	return &CallExpr{
		Name:        e.Name,
		Args:        CloneExprs(e.Args),
		Gives:       e.Gives.Clone(),
		IsTentative: e.IsTentative,
		Source:      e.Source,
	}
}

func (e *MethodCallExpr) CloneExpr() Expr {
	return &MethodCallExpr{
		Subject:     CloneExpr(e.Subject),
		Name:        e.Name,
		Args:        CloneExprs(e.Args),
		Gives:       e.Gives.Clone(),
		IsTentative: e.IsTentative,
		Source:      e.Source,
	}
}

func (e *AddressCallExpr) CloneExpr() Expr {
	return &AddressCallExpr{Address: CloneExpr(e.Address), Args: CloneExprs(e.Args), Source: e.Source}
}

func (e *MemberExpr) CloneExpr() Expr {
	return &MemberExpr{Subject: CloneExpr(e.Subject), Member: e.Member, Source: e.Source}
}

func (e *ArrayAccessExpr) CloneExpr() Expr {
	return &ArrayAccessExpr{Subject: CloneExpr(e.Subject), Index: CloneExpr(e.Index), Source: e.Source}
}

func (e *FuncAddrExpr) CloneExpr() Expr {
	return &FuncAddrExpr{Name: e.Name, MatchArgs: CloneTypes(e.MatchArgs), Source: e.Source}
}

func (e *EnumValueExpr) CloneExpr() Expr { c := *e; return &c }

// ---------------------------------------------------------------------------
// Type-bearing expressions
// ---------------------------------------------------------------------------

// CastExpr converts a value to a target type.
type CastExpr struct {
	To     Type
	From   Expr
	Source token.Source
}

// SizeofExpr is "sizeof Type".
type SizeofExpr struct {
	Type   Type
	Source token.Source
}

// AlignofExpr is "alignof Type".
type AlignofExpr struct {
	Type   Type
	Source token.Source
}

// TypeinfoExpr is "typeinfo Type"; it materializes a runtime type
// descriptor pointer through the __types__ array.
type TypeinfoExpr struct {
	Type   Type
	Source token.Source
}

// TypenameofExpr is "typenameof Type"; it materializes the type's human
// notation as a String.
type TypenameofExpr struct {
	Type   Type
	Source token.Source
}

// NewExpr heap-allocates one or more values of a type.
type NewExpr struct {
	Type     Type
	Count    Expr // optional; nil means 1
	IsUndef  bool // "new undef T" skips zero-initialization
	Source   token.Source
}

// NewCstringExpr heap-allocates a copy of a cstring literal.
type NewCstringExpr struct {
	Value  string
	Source token.Source
}

// TernaryExpr is "condition ? a : b".
type TernaryExpr struct {
	Condition Expr
	IfTrue    Expr
	IfFalse   Expr
	Source    token.Source
}

// InitializerListExpr is "{a, b, c}".
type InitializerListExpr struct {
	Values []Expr
	Source token.Source
}

// VaArgExpr is "va_arg(list, Type)".
type VaArgExpr struct {
	List   Expr
	Type   Type
	Source token.Source
}

// EmbedExpr embeds the contents of a file as a String literal.
type EmbedExpr struct {
	Filename string
	Source   token.Source
}

func (e *CastExpr) exprNode()            {}
func (e *SizeofExpr) exprNode()          {}
func (e *AlignofExpr) exprNode()         {}
func (e *TypeinfoExpr) exprNode()        {}
func (e *TypenameofExpr) exprNode()      {}
func (e *NewExpr) exprNode()             {}
func (e *NewCstringExpr) exprNode()      {}
func (e *TernaryExpr) exprNode()         {}
func (e *InitializerListExpr) exprNode() {}
func (e *VaArgExpr) exprNode()           {}
func (e *EmbedExpr) exprNode()           {}

func (e *CastExpr) Src() token.Source            { return e.Source }
func (e *SizeofExpr) Src() token.Source          { return e.Source }
func (e *AlignofExpr) Src() token.Source         { return e.Source }
func (e *TypeinfoExpr) Src() token.Source        { return e.Source }
func (e *TypenameofExpr) Src() token.Source      { return e.Source }
func (e *NewExpr) Src() token.Source             { return e.Source }
func (e *NewCstringExpr) Src() token.Source      { return e.Source }
func (e *TernaryExpr) Src() token.Source         { return e.Source }
func (e *InitializerListExpr) Src() token.Source { return e.Source }
func (e *VaArgExpr) Src() token.Source           { return e.Source }
func (e *EmbedExpr) Src() token.Source           { return e.Source }

func (e *CastExpr) String() string {
	return "cast " + e.To.String() + " (" + e.From.String() + ")"
}
func (e *SizeofExpr) String() string     { return "sizeof " + e.Type.String() }
func (e *AlignofExpr) String() string    { return "alignof " + e.Type.String() }
func (e *TypeinfoExpr) String() string   { return "typeinfo " + e.Type.String() }
func (e *TypenameofExpr) String() string { return "typenameof " + e.Type.String() }

func (e *NewExpr) String() string {
	out := "new "
	if e.IsUndef {
		out += "undef "
	}
	out += e.Type.String()
	if e.Count != nil {
		out += " * (" + e.Count.String() + ")"
	}
	return out
}

func (e *NewCstringExpr) String() string { return "new '" + e.Value + "'" }

func (e *TernaryExpr) String() string {
	return "(" + e.Condition.String() + " ? " + e.IfTrue.String() + " : " + e.IfFalse.String() + ")"
}

func (e *InitializerListExpr) String() string {
	return "{" + exprsString(e.Values) + "}"
}

func (e *VaArgExpr) String() string {
	return "va_arg(" + e.List.String() + ", " + e.Type.String() + ")"
}

func (e *EmbedExpr) String() string { return "embed " + strconv.Quote(e.Filename) }

func (e *CastExpr) CloneExpr() Expr {
	return &CastExpr{To: e.To.Clone(), From: CloneExpr(e.From), Source: e.Source}
}
func (e *SizeofExpr) CloneExpr() Expr {
	return &SizeofExpr{Type: e.Type.Clone(), Source: e.Source}
}
func (e *AlignofExpr) CloneExpr() Expr {
	return &AlignofExpr{Type: e.Type.Clone(), Source: e.Source}
}
func (e *TypeinfoExpr) CloneExpr() Expr {
	return &TypeinfoExpr{Type: e.Type.Clone(), Source: e.Source}
}
func (e *TypenameofExpr) CloneExpr() Expr {
	return &TypenameofExpr{Type: e.Type.Clone(), Source: e.Source}
}
func (e *NewExpr) CloneExpr() Expr {
	return &NewExpr{Type: e.Type.Clone(), Count: CloneExpr(e.Count), IsUndef: e.IsUndef, Source: e.Source}
}
func (e *NewCstringExpr) CloneExpr() Expr { c := *e; return &c }
func (e *TernaryExpr) CloneExpr() Expr {
	return &TernaryExpr{
		Condition: CloneExpr(e.Condition),
		IfTrue:    CloneExpr(e.IfTrue),
		IfFalse:   CloneExpr(e.IfFalse),
		Source:    e.Source,
	}
}
func (e *InitializerListExpr) CloneExpr() Expr {
	return &InitializerListExpr{Values: CloneExprs(e.Values), Source: e.Source}
}
func (e *VaArgExpr) CloneExpr() Expr {
	return &VaArgExpr{List: CloneExpr(e.List), Type: e.Type.Clone(), Source: e.Source}
}
func (e *EmbedExpr) CloneExpr() Expr { c := *e; return &c }

func exprsString(exprs []Expr) string {
	parts := make([]string, len(exprs))
	for i, expr := range exprs {
		parts[i] = expr.String()
	}
	return strings.Join(parts, ", ")
}
