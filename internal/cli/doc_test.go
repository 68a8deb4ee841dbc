package cli

import (
	"go/ast"
	"go/parser"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Exported config types show up in godoc for people writing .runorder.toml.
func TestExportedConfigTypesDocumented(t *testing.T) {
	file, err := parser.ParseFile(token.NewFileSet(), "config.go", nil, parser.ParseComments)
	require.NoError(t, err)

	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.TYPE {
			continue
		}
		for _, spec := range gen.Specs {
			ts := spec.(*ast.TypeSpec)
			if !ts.Name.IsExported() {
				continue
			}
			documented := ts.Doc != nil || (len(gen.Specs) == 1 && gen.Doc != nil)
			assert.True(t, documented, "%s has no doc comment", ts.Name.Name)
		}
	}
}
