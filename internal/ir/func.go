package ir

import "github.com/adeptlang/go-adept/internal/ast"

// FuncID indexes into a module's IR function table.
type FuncID int

// InvalidFuncID marks an endpoint with no IR function; such endpoints are
// polymorphic templates awaiting instantiation.
const InvalidFuncID FuncID = -1

// FuncTraits are the trait bits of an IR function.
type FuncTraits uint8

const (
	FuncIsForeign FuncTraits = 1 << iota
	FuncIsMain
	FuncStdcall
	FuncVararg
	FuncValidateVtable
	FuncErrored // instantiation failed during body emission
)

// Func is an IR function: a signature plus basic blocks.
type Func struct {
	ID        FuncID
	AstFuncID ast.FuncID
	Name      string

	ArgTypes   []*Type
	ReturnType *Type

	Blocks        []*BasicBlock
	VariableCount int

	Traits FuncTraits

	// ExportAsName is the linker-visible symbol when it differs from Name.
	ExportAsName string
}

// Endpoint identifies one callable as a pair of AST and IR function ids.
type Endpoint struct {
	AstFuncID ast.FuncID
	IRFuncID  FuncID
}

// IsPolymorphic reports whether the endpoint has no IR function yet.
func (e Endpoint) IsPolymorphic() bool {
	return e.IRFuncID == InvalidFuncID
}

// EndpointList is a sorted list of endpoints: non-polymorphic endpoints
// before polymorphic ones, then by ast function id ascending. This
// ordering is the tie-break policy for overload resolution.
type EndpointList struct {
	Endpoints []Endpoint
}

// Insert adds an endpoint at its sorted position.
func (l *EndpointList) Insert(endpoint Endpoint) {
	position := len(l.Endpoints)
	for i, existing := range l.Endpoints {
		if compareEndpoints(endpoint, existing) < 0 {
			position = i
			break
		}
	}

	l.Endpoints = append(l.Endpoints, Endpoint{})
	copy(l.Endpoints[position+1:], l.Endpoints[position:])
	l.Endpoints[position] = endpoint
}

func compareEndpoints(a, b Endpoint) int {
	if a.IsPolymorphic() != b.IsPolymorphic() {
		// Prefer non-polymorphic functions before polymorphic ones
		if a.IsPolymorphic() {
			return 1
		}
		return -1
	}

	if a.AstFuncID != b.AstFuncID {
		// Prefer functions in the order they were defined
		if a.AstFuncID < b.AstFuncID {
			return -1
		}
		return 1
	}

	return 0
}
