// Package rtti accumulates the set of AST types a program mentions at
// runtime. During finalization the collected types become the __types__
// runtime array, in first-insertion order.
package rtti

import "github.com/adeptlang/go-adept/internal/ast"

// Collector keeps track of what AST types have been mentioned to it.
type Collector struct {
	used *ast.TypeSet
}

// NewCollector makes an empty collector.
func NewCollector() *Collector {
	return &Collector{used: ast.NewTypeSet()}
}

// Mention records an AST type.
func (c *Collector) Mention(t ast.Type) {
	c.used.Insert(t)
}

// MentionBase records a simple base type by name. Used for mentioning
// built-in types. Reports whether the type was newly inserted.
func (c *Collector) MentionBase(name string) bool {
	return c.used.Insert(ast.TypeBase(name))
}

// Types returns the mentioned types in first-insertion order.
func (c *Collector) Types() []ast.Type {
	return c.used.Items()
}

// IndexOf returns the insertion index of a type, or -1.
func (c *Collector) IndexOf(t ast.Type) int {
	return c.used.IndexOf(t)
}

// Len returns the number of distinct mentioned types.
func (c *Collector) Len() int {
	return c.used.Len()
}
