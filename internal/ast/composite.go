package ast

import "github.com/adeptlang/go-adept/pkg/token"

// CompositeTraits are the trait bits of a composite declaration.
type CompositeTraits uint8

const (
	CompositePacked CompositeTraits = 1 << iota
)

// Composite is a struct or class declaration with a simple-struct layout
// (a flat sequence of named fields). Union and bitfield layouts are not
// part of this compiler's core.
type Composite struct {
	Name          string
	FieldNames    []string
	FieldTypes    []Type
	Traits        CompositeTraits
	Source        token.Source
	Parent        Type // optional "extends" clause; empty when absent
	IsClass       bool
	IsPolymorphic bool
	Generics      []string // type parameter names for polymorphic composites
}

// FieldCount returns the number of declared fields.
func (c *Composite) FieldCount() int {
	return len(c.FieldTypes)
}

// FieldIndex returns the declaration index of the named field, or -1.
func (c *Composite) FieldIndex(name string) int {
	for i, fieldName := range c.FieldNames {
		if fieldName == name {
			return i
		}
	}
	return -1
}

// Clone deep-copies the composite declaration.
func (c *Composite) Clone() *Composite {
	return &Composite{
		Name:          c.Name,
		FieldNames:    append([]string(nil), c.FieldNames...),
		FieldTypes:    CloneTypes(c.FieldTypes),
		Traits:        c.Traits,
		Source:        c.Source,
		Parent:        c.Parent.Clone(),
		IsClass:       c.IsClass,
		IsPolymorphic: c.IsPolymorphic,
		Generics:      append([]string(nil), c.Generics...),
	}
}

// Enum is an enum declaration; members are indexed in declaration order.
type Enum struct {
	Name    string
	Members []string
	Source  token.Source
}

// MemberIndex returns the declaration index of the named member, or -1.
func (e *Enum) MemberIndex(name string) int {
	for i, member := range e.Members {
		if member == name {
			return i
		}
	}
	return -1
}

// Alias binds a name to a type.
type Alias struct {
	Name   string
	Type   Type
	Source token.Source
}

// Global is a module-level variable declaration.
type Global struct {
	Name        string
	Type        Type
	Initial     Expr // nil means zero-initialize
	IsThreadLocal bool
	IsExternal  bool
	Source      token.Source
}

// Constant is a named compile-time expression; uses are substituted at
// resolution time.
type Constant struct {
	Name   string
	Value  Expr
	Source token.Source
}
