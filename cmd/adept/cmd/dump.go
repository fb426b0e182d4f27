package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var dumpCmd = &cobra.Command{
	Use:   "dump [file]",
	Short: "Compile a file and print its IR module",
	Long: `Compile an Adept program and print a human-readable listing of the
resulting IR module: registered types, globals, and every function's
basic blocks and instructions.

Examples:
  adept dump program.adept`,
	Args: cobra.ExactArgs(1),
	RunE: dumpModule,
}

func init() {
	rootCmd.AddCommand(dumpCmd)
}

func dumpModule(_ *cobra.Command, args []string) error {
	result, c, err := compileFile(args[0])
	if err != nil {
		if len(c.Errors) != 0 {
			exitWithError("%s", c.Errors[0].Format(true))
		}
		return err
	}

	fmt.Print(result.module.Dump())
	return nil
}
