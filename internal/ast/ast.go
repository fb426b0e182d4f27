package ast

// Ast is the root of a parsed object: every declaration the parser found,
// in declaration order. The middle end borrows it and, with the sole
// exception of polymorph instantiation (which appends new functions),
// never mutates parser-produced entries.
type Ast struct {
	Funcs      []*Func
	Composites []*Composite
	Enums      []*Enum
	Aliases    []*Alias
	Globals    []*Global
	Constants  []*Constant

	// Filenames of the object files that produced this AST, indexed by
	// Source.Object.
	Filenames []string

	// Sources of the object files, indexed by Source.Object; used for
	// caret diagnostics.
	Sources []string
}

// AddFunc appends a function and returns its id.
func (a *Ast) AddFunc(f *Func) FuncID {
	a.Funcs = append(a.Funcs, f)
	return FuncID(len(a.Funcs) - 1)
}

// Func returns the function with the given id.
func (a *Ast) Func(id FuncID) *Func {
	return a.Funcs[id]
}

// FindComposite returns the composite with the given name, or nil.
func (a *Ast) FindComposite(name string) *Composite {
	for _, composite := range a.Composites {
		if composite.Name == name {
			return composite
		}
	}
	return nil
}

// FindPolyComposite returns the polymorphic composite matching a generic
// base usage, or nil.
func (a *Ast) FindPolyComposite(genericBase *GenericBaseElem) *Composite {
	composite := a.FindComposite(genericBase.Name)
	if composite == nil || !composite.IsPolymorphic {
		return nil
	}
	if len(composite.Generics) != len(genericBase.Generics) {
		return nil
	}
	return composite
}

// FindEnum returns the enum with the given name, or nil.
func (a *Ast) FindEnum(name string) *Enum {
	for _, enum := range a.Enums {
		if enum.Name == name {
			return enum
		}
	}
	return nil
}

// FindEnumByMember returns the first enum declaring the given member name.
func (a *Ast) FindEnumByMember(member string) *Enum {
	for _, enum := range a.Enums {
		if enum.MemberIndex(member) >= 0 {
			return enum
		}
	}
	return nil
}

// FindAlias returns the alias with the given name, or nil.
func (a *Ast) FindAlias(name string) *Alias {
	for _, alias := range a.Aliases {
		if alias.Name == name {
			return alias
		}
	}
	return nil
}

// FindGlobal returns the global with the given name along with its index,
// or nil and -1.
func (a *Ast) FindGlobal(name string) (*Global, int) {
	for i, global := range a.Globals {
		if global.Name == name {
			return global, i
		}
	}
	return nil, -1
}

// FindConstant returns the constant with the given name, or nil.
func (a *Ast) FindConstant(name string) *Constant {
	for _, constant := range a.Constants {
		if constant.Name == name {
			return constant
		}
	}
	return nil
}
