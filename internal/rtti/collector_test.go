package rtti

import (
	"testing"

	"github.com/adeptlang/go-adept/internal/ast"
)

func TestCollectorInsertionOrder(t *testing.T) {
	c := NewCollector()

	c.Mention(ast.TypeBase("int"))
	c.Mention(ast.TypePointerTo(ast.TypeBase("ubyte")))
	c.Mention(ast.TypeBase("int")) // duplicate

	if c.Len() != 2 {
		t.Fatalf("collector has %d types, want 2", c.Len())
	}

	types := c.Types()
	if types[0].String() != "int" || types[1].String() != "*ubyte" {
		t.Errorf("order = [%s, %s]", types[0], types[1])
	}

	if c.IndexOf(ast.TypeBase("int")) != 0 {
		t.Error("int should keep its first-insertion index")
	}
}

func TestMentionBase(t *testing.T) {
	c := NewCollector()

	if !c.MentionBase("void") {
		t.Error("first mention should insert")
	}
	if c.MentionBase("void") {
		t.Error("second mention should be deduplicated")
	}
}
