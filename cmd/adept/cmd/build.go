package cmd

import (
	"fmt"
	"os"

	"github.com/adeptlang/go-adept/internal/ast"
	"github.com/adeptlang/go-adept/internal/compiler"
	"github.com/adeptlang/go-adept/internal/ir"
	"github.com/adeptlang/go-adept/internal/irgen"
	"github.com/adeptlang/go-adept/internal/parser"
	"github.com/spf13/cobra"
)

var (
	buildOptimization int
	buildTarget       string
	buildNoWarn       bool
	buildNoTypeinfo   bool
	buildFussy        bool
	buildNullChecks   bool
	buildBoundsChecks bool
)

var buildCmd = &cobra.Command{
	Use:   "build [file]",
	Short: "Compile an Adept source file to an IR module",
	Long: `Compile an Adept program down to its typed IR module.

The middle end runs the full pass pipeline: declarations, virtual
dispatch tables, body emission, vtable emission, and RTTI finalization.
A backend consumes the resulting module to produce machine code.

Examples:
  # Compile a program
  adept build program.adept

  # Compile with runtime null checks
  adept build program.adept --null-checks

  # Treat warnings as errors
  adept build program.adept --fussy`,
	Args: cobra.ExactArgs(1),
	RunE: buildModule,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().IntVarP(&buildOptimization, "optimization", "O", 0, "optimization level (0-3)")
	buildCmd.Flags().StringVar(&buildTarget, "target", "", "cross-compile target (windows, macos, linux)")
	buildCmd.Flags().BoolVar(&buildNoWarn, "no-warn", false, "suppress warnings")
	buildCmd.Flags().BoolVar(&buildNoTypeinfo, "no-typeinfo", false, "disable runtime type information")
	buildCmd.Flags().BoolVar(&buildFussy, "fussy", false, "treat warnings as errors")
	buildCmd.Flags().BoolVar(&buildNullChecks, "null-checks", false, "emit runtime null checks")
	buildCmd.Flags().BoolVar(&buildBoundsChecks, "bounds-checks", false, "emit runtime bounds checks")
}

func buildModule(_ *cobra.Command, args []string) error {
	_, c, err := compileFile(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, compiler.FormatDiagnostics(c.Errors, true))
		return err
	}

	if len(c.Warnings) != 0 {
		fmt.Fprintln(os.Stderr, compiler.FormatDiagnostics(c.Warnings, true))
	}

	fmt.Printf("Compiled %s\n", args[0])
	return nil
}

// compileFile runs the full front and middle end over one source file.
func compileFile(filename string) (*irgenResult, *compiler.Compiler, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, compiler.New(), fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	c := compiler.New()
	c.Optimization = buildOptimization
	if buildNoWarn {
		c.Traits |= compiler.NoWarn
	}
	if buildNoTypeinfo {
		c.Traits |= compiler.NoTypeinfo
	}
	if buildFussy {
		c.Traits |= compiler.Fussy
	}
	if buildNullChecks {
		c.Checks |= compiler.NullChecks
	}
	if buildBoundsChecks {
		c.Checks |= compiler.BoundsChecks
	}

	switch buildTarget {
	case "":
		c.Target = compiler.TargetNone
	case "windows":
		c.Target = compiler.TargetWindows
	case "macos":
		c.Target = compiler.TargetMacOS
	case "linux":
		c.Target = compiler.TargetLinux
	default:
		return nil, c, fmt.Errorf("unknown target %q", buildTarget)
	}

	tree := &ast.Ast{}
	if err := parser.Parse(c, tree, string(content), filename); err != nil {
		return nil, c, err
	}

	module, err := irgen.Generate(c, tree)
	if err != nil {
		return nil, c, err
	}

	return &irgenResult{tree: tree, module: module}, c, nil
}

type irgenResult struct {
	tree   *ast.Ast
	module *ir.Module
}
