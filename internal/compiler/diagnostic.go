package compiler

import (
	"fmt"
	"strings"

	"github.com/adeptlang/go-adept/pkg/token"
)

// Diagnostic is a single compilation error or warning with position
// and source context.
type Diagnostic struct {
	Message string
	Source  token.Source
	File    string
	Text    string // full source text of the object file, when available
}

// Error implements the error interface.
func (d *Diagnostic) Error() string {
	return d.Format(false)
}

// LineColumn computes the 1-indexed line and column of the diagnostic.
func (d *Diagnostic) LineColumn() (int, int) {
	line, column := 1, 1
	limit := d.Source.Index
	if limit > len(d.Text) {
		limit = len(d.Text)
	}
	for i := 0; i < limit; i++ {
		if d.Text[i] == '\n' {
			line++
			column = 1
		} else {
			column++
		}
	}
	return line, column
}

// Format renders the diagnostic with a caret pointing at the offending
// source. If color is true, ANSI color codes are used for terminal output.
func (d *Diagnostic) Format(color bool) string {
	var sb strings.Builder

	line, column := d.LineColumn()

	if d.File != "" {
		sb.WriteString(fmt.Sprintf("%s:%d:%d: ", d.File, line, column))
	} else if !d.Source.IsNull() {
		sb.WriteString(fmt.Sprintf("%d:%d: ", line, column))
	}

	if color {
		sb.WriteString("\033[1m")
	}
	sb.WriteString(d.Message)
	if color {
		sb.WriteString("\033[0m")
	}

	sourceLine := d.sourceLine(line)
	if sourceLine != "" {
		lineNum := fmt.Sprintf("%4d | ", line)
		sb.WriteString("\n")
		sb.WriteString(lineNum)
		sb.WriteString(sourceLine)
		sb.WriteString("\n")
		sb.WriteString(strings.Repeat(" ", len(lineNum)+column-1))
		if color {
			sb.WriteString("\033[1;31m")
		}
		sb.WriteString("^")
		if color {
			sb.WriteString("\033[0m")
		}
	}

	return sb.String()
}

// sourceLine extracts a 1-indexed line from the source text.
func (d *Diagnostic) sourceLine(lineNum int) string {
	if d.Text == "" {
		return ""
	}

	lines := strings.Split(d.Text, "\n")
	if lineNum < 1 || lineNum > len(lines) {
		return ""
	}

	return lines[lineNum-1]
}

// FormatDiagnostics renders multiple diagnostics for terminal output.
func FormatDiagnostics(diagnostics []*Diagnostic, color bool) string {
	if len(diagnostics) == 0 {
		return ""
	}

	parts := make([]string, len(diagnostics))
	for i, d := range diagnostics {
		parts[i] = d.Format(color)
	}

	return strings.Join(parts, "\n\n")
}
