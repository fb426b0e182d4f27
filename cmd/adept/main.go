package main

import (
	"os"

	"github.com/adeptlang/go-adept/cmd/adept/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
