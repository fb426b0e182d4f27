package irgen

import (
	"github.com/adeptlang/go-adept/internal/ast"
	"github.com/adeptlang/go-adept/internal/ir"
)

// VarTraits are the trait bits of a bridge variable.
type VarTraits uint8

const (
	VarPOD VarTraits = 1 << iota
	VarUndef
	VarStatic
	VarReference
)

// BridgeVar is one declared variable inside a bridge scope, linking its
// AST type to its IR type and dense id.
type BridgeVar struct {
	Name    string
	AstType ast.Type
	IRType  *ir.Type
	Traits  VarTraits
	ID      int
}

// Scope is a lexical scope in the IR builder. Each scope owns its child
// scopes; the root scope holds function parameters. Variable ids are
// assigned densely per function.
type Scope struct {
	parent   *Scope
	children []*Scope
	vars     []*BridgeVar

	// deferred holds the statements scheduled by defer, run in reverse
	// order when the scope closes.
	deferred []ast.Stmt

	// label names this scope's enclosing loop for labeled break/continue.
	label string
}

func newScope(parent *Scope) *Scope {
	scope := &Scope{parent: parent}
	if parent != nil {
		parent.children = append(parent.children, scope)
	}
	return scope
}

// find walks this scope and its ancestors for a variable by name.
func (s *Scope) find(name string) *BridgeVar {
	for scope := s; scope != nil; scope = scope.parent {
		// Reverse order so shadowing declarations win
		for i := len(scope.vars) - 1; i >= 0; i-- {
			if scope.vars[i].Name == name {
				return scope.vars[i]
			}
		}
	}
	return nil
}

// names collects every visible variable name, for did-you-mean hints.
func (s *Scope) names() []string {
	var out []string
	for scope := s; scope != nil; scope = scope.parent {
		for _, v := range scope.vars {
			out = append(out, v.Name)
		}
	}
	return out
}

// addVariable appends a variable to the builder's current scope and
// assigns it the next dense id.
func (b *Builder) addVariable(name string, astType ast.Type, irType *ir.Type, traits VarTraits) *BridgeVar {
	v := &BridgeVar{
		Name:    name,
		AstType: astType.Clone(),
		IRType:  irType,
		Traits:  traits,
		ID:      b.f.VariableCount,
	}
	b.f.VariableCount++
	b.scope.vars = append(b.scope.vars, v)
	return v
}

// openScope pushes a child scope and makes it current.
func (b *Builder) openScope() {
	b.scope = newScope(b.scope)
}

// closeScope emits deference for the scope's variables and pops back to
// the parent. Deferred statements run first, then variables are
// deinitialized in reverse declaration order.
func (b *Builder) closeScope() error {
	if err := b.runDeferred(b.scope); err != nil {
		return err
	}
	if err := b.deferenceScopeVariables(b.scope); err != nil {
		return err
	}
	b.scope = b.scope.parent
	return nil
}

// closeScopesDownTo emits cleanup for every scope from the current one up to
// (and including) the target scope, without popping. Used for
// break/continue/return paths that leave multiple scopes at once.
func (b *Builder) closeScopesDownTo(target *Scope) error {
	for scope := b.scope; scope != nil; scope = scope.parent {
		if err := b.runDeferred(scope); err != nil {
			return err
		}
		if err := b.deferenceScopeVariables(scope); err != nil {
			return err
		}
		if scope == target {
			break
		}
	}
	return nil
}

func (b *Builder) runDeferred(scope *Scope) error {
	for i := len(scope.deferred) - 1; i >= 0; i-- {
		if err := b.genStmt(scope.deferred[i]); err != nil {
			return err
		}
	}
	return nil
}

// deferenceScopeVariables invokes __defer__ on each of the scope's
// variables whose type supports it, in reverse declaration order.
func (b *Builder) deferenceScopeVariables(scope *Scope) error {
	for i := len(scope.vars) - 1; i >= 0; i-- {
		v := scope.vars[i]
		if v.Traits&(VarPOD|VarReference) != 0 {
			continue
		}

		ptr := b.BuildVarptrFor(v)
		if errorcode := b.handleSingleDeference(v.AstType, ptr); errorcode == altFailure {
			return errAborted
		}
	}
	return nil
}
