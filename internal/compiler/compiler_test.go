package compiler

import (
	"strings"
	"testing"

	"github.com/adeptlang/go-adept/pkg/token"
)

func TestPanicfRecordsError(t *testing.T) {
	c := New()
	c.Filenames = []string{"main.adept"}
	c.Sources = []string{"func main {\n\tbroken\n}\n"}

	c.Panicf(token.Source{Object: 0, Index: 13, Stride: 6}, "Undeclared variable '%s'", "broken")

	if !c.HasErrors() {
		t.Fatal("expected an error to be recorded")
	}

	formatted := c.Errors[0].Format(false)
	if !strings.Contains(formatted, "main.adept:2:2") {
		t.Errorf("missing position in %q", formatted)
	}
	if !strings.Contains(formatted, "Undeclared variable 'broken'") {
		t.Errorf("missing message in %q", formatted)
	}
	if !strings.Contains(formatted, "^") {
		t.Errorf("missing caret in %q", formatted)
	}
}

func TestWarnfSuppression(t *testing.T) {
	c := New()
	c.Ignore = WarnDeprecation

	c.Warnf(WarnDeprecation, token.NullSource, "deprecated thing")
	if len(c.Warnings) != 0 {
		t.Error("suppressed warning class should not record")
	}

	c.Warnf(WarnUnusedVariable, token.NullSource, "unused thing")
	if len(c.Warnings) != 1 {
		t.Error("unsuppressed warning should record")
	}

	noWarn := New()
	noWarn.Traits |= NoWarn
	noWarn.Warnf(WarnUnusedVariable, token.NullSource, "anything")
	if len(noWarn.Warnings) != 0 {
		t.Error("NoWarn should suppress all warnings")
	}
}

func TestFussyPromotesWarnings(t *testing.T) {
	c := New()
	c.Traits |= Fussy

	aborted := c.Warnf(WarnUnreachableCode, token.NullSource, "unreachable")
	if !aborted {
		t.Error("fussy warnings should request an abort")
	}
	if !c.HasErrors() {
		t.Error("fussy warnings should become errors")
	}
}

func TestLineColumn(t *testing.T) {
	d := &Diagnostic{
		Text:   "one\ntwo\nthree",
		Source: token.Source{Index: 8},
	}

	line, column := d.LineColumn()
	if line != 3 || column != 1 {
		t.Errorf("LineColumn() = (%d, %d), want (3, 1)", line, column)
	}
}
