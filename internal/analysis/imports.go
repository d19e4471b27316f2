package analysis

import (
	"fmt"
	"go/ast"
	"sort"
	"strconv"
	"strings"

	"github.com/hashicorp/hcl/v2"

	"github.com/goliatone/go-buildergen/pkg/schema"
)

// imports resolves the package qualifiers used by field types, type
// parameter constraints and directive references against the imports of the
// declaring file.
func (a *analyzer) imports(file *ast.File, s *schema.StructSchema, typeParams *ast.FieldList) ([]schema.Import, hcl.Diagnostics) {
	if file == nil {
		return nil, nil
	}
	available := fileImports(file)

	var (
		diags  hcl.Diagnostics
		needed = map[string]schema.Import{}
	)

	exprs := make([]ast.Expr, 0, len(s.Fields))
	if typeParams != nil {
		for _, param := range typeParams.List {
			exprs = append(exprs, param.Type)
		}
	}
	for _, field := range s.Fields {
		exprs = append(exprs, field.Expr)
	}

	for _, expr := range exprs {
		ast.Inspect(expr, func(n ast.Node) bool {
			sel, ok := n.(*ast.SelectorExpr)
			if !ok {
				return true
			}
			ident, ok := sel.X.(*ast.Ident)
			if !ok {
				return true
			}
			if imp, ok := available[ident.Name]; ok {
				needed[ident.Name] = imp
				return false
			}
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagWarning,
				Summary:  "Unresolved package qualifier",
				Detail:   fmt.Sprintf("No import in this file provides %q; the generated file may need the import added by hand.", ident.Name),
				Subject:  a.rangeOf(sel.Pos(), sel.End()).Ptr(),
			})
			return false
		})
	}

	refs := append(schema.Directives(nil), s.Directives...)
	for _, field := range s.Fields {
		refs = append(refs, field.Directives...)
	}
	for _, directive := range refs {
		root, _, dotted := strings.Cut(directive.Ref, ".")
		if !dotted {
			continue
		}
		if imp, ok := available[root]; ok {
			needed[root] = imp
		}
	}

	out := make([]schema.Import, 0, len(needed))
	for _, imp := range needed {
		out = append(out, imp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, diags
}

// fileImports maps the local name of every import to its spec. Blank and dot
// imports provide no qualifier and are left out.
func fileImports(file *ast.File) map[string]schema.Import {
	out := make(map[string]schema.Import, len(file.Imports))
	for _, spec := range file.Imports {
		path, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}
		if spec.Name != nil {
			switch spec.Name.Name {
			case "_", ".":
				continue
			}
			out[spec.Name.Name] = schema.Import{Name: spec.Name.Name, Path: path}
			continue
		}
		out[schema.ImportName(path)] = schema.Import{Path: path}
	}
	return out
}
