// Package compiler holds the compiler configuration the middle end consumes
// and the sink that collects diagnostics during a compilation.
package compiler

import (
	"fmt"

	"github.com/adeptlang/go-adept/pkg/token"
)

// Traits are the configuration trait bits of a compilation.
type Traits uint32

const (
	MakePackage Traits = 1 << iota
	DebugSymbols
	NoWarn
	NoUndef
	NoTypeinfo
	UnsafeMeta
	UnsafeNew
	Fussy
	ForceStdlib
)

// Checks selects the runtime checks emitted into generated code.
type Checks uint32

const (
	NullChecks Checks = 1 << iota
	LeakChecks
	BoundsChecks
)

// Warning bits allow suppressing individual warning classes.
type Warning uint32

const (
	WarnDeprecation Warning = 1 << iota
	WarnPartialSupport
	WarnObsolete
	WarnUnusedVariable
	WarnUnreachableCode
	WarnAll Warning = ^Warning(0)
)

// Target selects the cross-compilation target.
type Target int

const (
	TargetNone Target = iota
	TargetWindows
	TargetMacOS
	TargetLinux
)

// Compiler is the configuration and diagnostics context for one
// compilation. It is input-only to the middle end apart from the
// diagnostics it accumulates.
type Compiler struct {
	Traits       Traits
	Checks       Checks
	Ignore       Warning // suppressed warning classes
	Optimization int     // 0-3
	Target       Target

	// ProjectName and Version come from pragma directives.
	ProjectName string
	Version     string

	Errors   []*Diagnostic
	Warnings []*Diagnostic

	// Filenames and Sources index object files by Source.Object for
	// caret diagnostics.
	Filenames []string
	Sources   []string
}

// New makes a compiler configuration with default settings.
func New() *Compiler {
	return &Compiler{}
}

// Panicf records a fatal, user-visible error at the given location.
func (c *Compiler) Panicf(source token.Source, format string, args ...any) {
	c.Errors = append(c.Errors, c.diagnostic(source, fmt.Sprintf(format, args...)))
}

// Warnf records a warning at the given location, honoring the suppression
// mask and NoWarn. Under Fussy, warnings are promoted to errors and Warnf
// reports true so callers can abort.
func (c *Compiler) Warnf(class Warning, source token.Source, format string, args ...any) bool {
	if c.Traits&NoWarn != 0 || c.Ignore&class != 0 {
		return false
	}

	if c.Traits&Fussy != 0 {
		c.Panicf(source, format, args...)
		return true
	}

	c.Warnings = append(c.Warnings, c.diagnostic(source, fmt.Sprintf(format, args...)))
	return false
}

// HasErrors reports whether any fatal error was recorded.
func (c *Compiler) HasErrors() bool {
	return len(c.Errors) != 0
}

func (c *Compiler) diagnostic(source token.Source, message string) *Diagnostic {
	d := &Diagnostic{Message: message, Source: source}
	if source.Object >= 0 && source.Object < len(c.Filenames) {
		d.File = c.Filenames[source.Object]
	}
	if source.Object >= 0 && source.Object < len(c.Sources) {
		d.Text = c.Sources[source.Object]
	}
	return d
}
