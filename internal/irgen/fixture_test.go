package irgen

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adeptlang/go-adept/internal/ast"
	"github.com/adeptlang/go-adept/internal/compiler"
	"github.com/adeptlang/go-adept/internal/parser"
	"github.com/gkampitakis/go-snaps/snaps"
)

// TestIRFixtures compiles each fixture program and snapshots its IR dump.
// The dump is deterministic (type-map registration order, function order,
// stable block ids), so any change in lowering shows up as a diff.
func TestIRFixtures(t *testing.T) {
	fixtures, err := filepath.Glob("../../testdata/fixtures/*.adept")
	if err != nil {
		t.Fatal(err)
	}
	if len(fixtures) == 0 {
		t.Skip("no fixtures found")
	}

	for _, fixture := range fixtures {
		name := strings.TrimSuffix(filepath.Base(fixture), ".adept")

		t.Run(name, func(t *testing.T) {
			content, readErr := os.ReadFile(fixture)
			if readErr != nil {
				t.Fatal(readErr)
			}

			c := compiler.New()
			tree := &ast.Ast{}
			if parseErr := parser.Parse(c, tree, string(content), fixture); parseErr != nil {
				t.Fatalf("parse error: %v", parseErr)
			}

			module, genErr := Generate(c, tree)
			if genErr != nil {
				t.Fatalf("generate error: %v", genErr)
			}

			snaps.MatchSnapshot(t, module.Dump())
		})
	}
}

func TestMain(m *testing.M) {
	code := m.Run()
	snaps.Clean(m)
	os.Exit(code)
}
