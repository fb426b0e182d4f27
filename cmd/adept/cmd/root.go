package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags)
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "adept",
	Short: "Adept compiler middle end",
	Long: `go-adept is a Go implementation of the Adept compiler's middle end.

It lowers Adept source text through lex -> parse -> AST -> typed IR,
including overload resolution, polymorph instantiation, lifecycle-method
autogeneration, virtual dispatch tables, and runtime type information.
The produced IR module is handed off to a backend for code generation.`,
	Version: Version,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
`, GitCommit))
}

func exitWithError(msg string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+msg+"\n", args...)
	os.Exit(1)
}
