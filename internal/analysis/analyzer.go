package analysis

import (
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"reflect"
	"strconv"
	"strings"

	"github.com/hashicorp/hcl/v2"

	"github.com/goliatone/go-buildergen/internal/annotation"
	"github.com/goliatone/go-buildergen/pkg/schema"
	pkgsource "github.com/goliatone/go-buildergen/pkg/source"
)

// DefaultTagKey is the struct tag key and comment directive prefix read when
// Options.TagKey is empty.
const DefaultTagKey = "builder"

// Options tunes analysis.
type Options struct {
	TagKey string
}

type declaration struct {
	spec *ast.TypeSpec
	gen  *ast.GenDecl
	file *ast.File
}

type analyzer struct {
	pkg    pkgsource.Package
	tagKey string
	decls  map[string]declaration
}

// Analyze builds a schema for every requested type, in request order.
// Declarations that cannot have a builder produce diagnostics instead of a
// schema. A returned schema never carries declaration errors: its error
// diagnostics are annotation items that failed to parse and were left out,
// recorded on the struct and on the field they belong to.
func Analyze(pkg pkgsource.Package, typeNames []string, opts Options) ([]schema.StructSchema, hcl.Diagnostics) {
	a := &analyzer{
		pkg:    pkg,
		tagKey: opts.TagKey,
		decls:  indexDeclarations(pkg.Files),
	}
	if a.tagKey == "" {
		a.tagKey = DefaultTagKey
	}

	var (
		out   []schema.StructSchema
		diags hcl.Diagnostics
		seen  = map[string]bool{}
	)
	for _, name := range typeNames {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		decl, ok := a.decls[name]
		if !ok {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Type not found",
				Detail:   fmt.Sprintf("No type named %q is declared in package %s.", name, pkg.Name),
			})
			continue
		}

		structSchema, structDiags := a.analyze(decl)
		diags = append(diags, structDiags...)
		if structSchema != nil {
			out = append(out, *structSchema)
		}
	}
	return out, diags
}

// StructTypes lists the struct declarations of pkg carrying at least one
// builder annotation, in source order. It backs discovery when no type names
// are given.
func StructTypes(pkg pkgsource.Package, opts Options) []string {
	key := opts.TagKey
	if key == "" {
		key = DefaultTagKey
	}
	marker := "//" + key + ":"

	var names []string
	for _, file := range pkg.Files {
		for _, d := range file.Decls {
			gen, ok := d.(*ast.GenDecl)
			if !ok || gen.Tok != token.TYPE {
				continue
			}
			for _, s := range gen.Specs {
				spec := s.(*ast.TypeSpec)
				st, ok := spec.Type.(*ast.StructType)
				if !ok || spec.Assign.IsValid() {
					continue
				}
				if annotated(st, key, marker) || hasDirective(marker, spec.Doc, docFor(gen)) {
					names = append(names, spec.Name.Name)
				}
			}
		}
	}
	return names
}

func annotated(st *ast.StructType, key, marker string) bool {
	for _, field := range st.Fields.List {
		if hasTag(field.Tag, key) {
			return true
		}
		if hasDirective(marker, field.Doc, field.Comment) {
			return true
		}
	}
	return false
}

func hasTag(lit *ast.BasicLit, key string) bool {
	if lit == nil {
		return false
	}
	tag, err := strconv.Unquote(lit.Value)
	if err != nil {
		return false
	}
	_, ok := reflect.StructTag(tag).Lookup(key)
	return ok
}

func hasDirective(marker string, groups ...*ast.CommentGroup) bool {
	for _, group := range groups {
		if group == nil {
			continue
		}
		for _, c := range group.List {
			if strings.HasPrefix(c.Text, marker) {
				return true
			}
		}
	}
	return false
}

func indexDeclarations(files []*ast.File) map[string]declaration {
	out := make(map[string]declaration)
	for _, file := range files {
		for _, d := range file.Decls {
			gen, ok := d.(*ast.GenDecl)
			if !ok || gen.Tok != token.TYPE {
				continue
			}
			for _, s := range gen.Specs {
				spec := s.(*ast.TypeSpec)
				out[spec.Name.Name] = declaration{spec: spec, gen: gen, file: file}
			}
		}
	}
	return out
}

func (a *analyzer) analyze(decl declaration) (*schema.StructSchema, hcl.Diagnostics) {
	spec := decl.spec
	nameRange := a.rangeOf(spec.Name.Pos(), spec.Name.End())

	if kind, ok := rejectKind(spec); !ok {
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Cannot create Builder for " + kind,
			Detail:   fmt.Sprintf("Builders can only be generated for struct types with named fields; %s is not one.", spec.Name.Name),
			Subject:  nameRange.Ptr(),
		}}
	}

	st := spec.Type.(*ast.StructType)
	out := &schema.StructSchema{
		Package: a.pkg.Name,
		Name:    spec.Name.Name,
		Range:   nameRange,
	}
	out.TypeParams, out.TypeArgs = typeParameters(spec.TypeParams)

	for _, group := range []*ast.CommentGroup{docFor(decl.gen), spec.Doc} {
		directives, diags := a.directivesFromComments(group, annotation.ScopeStruct)
		out.Directives = append(out.Directives, directives...)
		out.Diagnostics = append(out.Diagnostics, diags...)
	}

	for _, field := range st.Fields.List {
		if len(field.Names) == 0 {
			out.Diagnostics = append(out.Diagnostics, &hcl.Diagnostic{
				Severity: hcl.DiagWarning,
				Summary:  "Embedded field skipped",
				Detail:   fmt.Sprintf("Embedded field %s has no builder method and keeps its zero value.", types.ExprString(field.Type)),
				Subject:  a.rangeOf(field.Type.Pos(), field.Type.End()).Ptr(),
			})
			continue
		}

		directives, diags := a.fieldDirectives(field)
		out.Diagnostics = append(out.Diagnostics, diags...)

		for _, ident := range field.Names {
			if ident.Name == "_" {
				continue
			}
			out.Fields = append(out.Fields, schema.FieldSchema{
				Name:        ident.Name,
				Type:        types.ExprString(field.Type),
				Expr:        field.Type,
				Shape:       schema.Classify(field.Type),
				Directives:  append(schema.Directives(nil), directives...),
				Diagnostics: append(hcl.Diagnostics(nil), diags...),
				Range:       a.rangeOf(ident.Pos(), ident.End()),
			})
		}
	}

	if len(out.Fields) == 0 {
		kind := "empty structs"
		if len(st.Fields.List) > 0 {
			kind = "structs without named fields"
		}
		return nil, append(out.Diagnostics, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Cannot create Builder for " + kind,
			Detail:   fmt.Sprintf("%s has no named fields to build.", spec.Name.Name),
			Subject:  nameRange.Ptr(),
		})
	}

	imports, importDiags := a.imports(decl.file, out, spec.TypeParams)
	out.Imports = imports
	out.Diagnostics = append(out.Diagnostics, importDiags...)

	return out, out.Diagnostics
}

// rejectKind reports the declaration kind and whether a builder is possible.
func rejectKind(spec *ast.TypeSpec) (string, bool) {
	if spec.Assign.IsValid() {
		return "type aliases", false
	}
	switch t := spec.Type.(type) {
	case *ast.StructType:
		return "structs", true
	case *ast.InterfaceType:
		return "interface types", false
	case *ast.FuncType:
		return "function types", false
	case *ast.MapType:
		return "map types", false
	case *ast.ChanType:
		return "channel types", false
	case *ast.ArrayType:
		if t.Len == nil {
			return "slice types", false
		}
		return "array types", false
	case *ast.StarExpr:
		return "pointer types", false
	default:
		return "non-struct types", false
	}
}

func (a *analyzer) fieldDirectives(field *ast.Field) (schema.Directives, hcl.Diagnostics) {
	var (
		out   schema.Directives
		diags hcl.Diagnostics
	)

	doc, docDiags := a.directivesFromComments(field.Doc, annotation.ScopeField)
	out = append(out, doc...)
	diags = append(diags, docDiags...)

	if field.Tag != nil {
		if block, ok := annotation.FromTag(a.filename(field.Tag.Pos()), a.pos(field.Tag.Pos()), field.Tag.Value, a.tagKey); ok {
			directives, tagDiags := annotation.Parse(block, annotation.ScopeField)
			out = append(out, directives...)
			diags = append(diags, tagDiags...)
		}
	}

	line, lineDiags := a.directivesFromComments(field.Comment, annotation.ScopeField)
	out = append(out, line...)
	diags = append(diags, lineDiags...)

	return out, diags
}

func (a *analyzer) directivesFromComments(group *ast.CommentGroup, scope annotation.Scope) (schema.Directives, hcl.Diagnostics) {
	if group == nil {
		return nil, nil
	}
	var (
		out   schema.Directives
		diags hcl.Diagnostics
	)
	for _, c := range group.List {
		block, ok := annotation.FromComment(a.filename(c.Pos()), a.pos(c.Pos()), c.Text, a.tagKey)
		if !ok {
			continue
		}
		directives, blockDiags := annotation.Parse(block, scope)
		out = append(out, directives...)
		diags = append(diags, blockDiags...)
	}
	return out, diags
}

// docFor returns the GenDecl doc when it documents a single unparenthesised
// spec; go/parser attaches `// doc` above `type X struct` to the GenDecl.
func docFor(gen *ast.GenDecl) *ast.CommentGroup {
	if gen == nil || gen.Lparen.IsValid() {
		return nil
	}
	return gen.Doc
}

func typeParameters(list *ast.FieldList) (string, string) {
	if list == nil || len(list.List) == 0 {
		return "", ""
	}
	var params, args []string
	for _, field := range list.List {
		names := make([]string, 0, len(field.Names))
		for _, ident := range field.Names {
			names = append(names, ident.Name)
		}
		params = append(params, strings.Join(names, ", ")+" "+types.ExprString(field.Type))
		args = append(args, names...)
	}
	return "[" + strings.Join(params, ", ") + "]", "[" + strings.Join(args, ", ") + "]"
}
