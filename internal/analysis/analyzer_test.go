package analysis_test

import (
	"go/ast"
	"go/parser"
	"go/token"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hashicorp/hcl/v2"

	"github.com/goliatone/go-buildergen/internal/analysis"
	"github.com/goliatone/go-buildergen/pkg/schema"
	pkgsource "github.com/goliatone/go-buildergen/pkg/source"
)

const fixture = `package command

import (
	"time"

	str "strings"
	"gopkg.in/yaml.v3"
	"example.com/checks"
)

// Command runs a program.
//
//builder:validate=ValidateCommand
type Command struct {
	Executable string
	User       string ` + "`json:\"user\" builder:\"validate=ValidateUser\"`" + `
	// Args are passed in order.
	//builder:each="Arg"
	Args       []string
	Env        []string ` + "`builder:\"each=Env\"`" + `
	CurrentDir *string
	Timeout    time.Duration ` + "`builder:\"default=DefaultTimeout\"`" + `
	Retries    int           //builder:default
	Node       *yaml.Node
	Name       string ` + "`builder:\"validate=checks.NotEmpty\"`" + `
	A, B       str.Builder
	_          int
}

type Pair[K comparable, V any] struct {
	Key   K
	Value V
}

type Runner interface{ Run() error }

type Alias = Command

type Level int

type Empty struct{}

type Wrapper struct {
	Command
}

type Broken struct {
	Field string ` + "`builder:\"valdate=Check, each=1\"`" + `
	Other []Missing ` + "`builder:\"each=Item\"`" + `
	Mystery pkg.Thing
}

type Lookalike struct {
	Name string ` + "`rebuilder:\"each=Name\" xbuilder:\"validate=Check\"`" + `
}
`

func loadFixture(t *testing.T) pkgsource.Package {
	t.Helper()
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "command.go", fixture, parser.ParseComments)
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return pkgsource.Package{
		Name:     "command",
		Fset:     fset,
		Files:    []*ast.File{file},
		Contents: map[string][]byte{"command.go": []byte(fixture)},
	}
}

type fieldSummary struct {
	Name       string
	Type       string
	Shape      schema.ShapeKind
	Elem       string
	Directives []string
}

func summarize(fields []schema.FieldSchema) []fieldSummary {
	out := make([]fieldSummary, 0, len(fields))
	for _, f := range fields {
		s := fieldSummary{Name: f.Name, Type: f.Type, Shape: f.Shape.Kind, Elem: f.Shape.Elem}
		for _, d := range f.Directives {
			value := d.Alias + d.Ref
			if d.Implicit {
				value = "<zero>"
			}
			s.Directives = append(s.Directives, d.Kind.String()+"="+value)
		}
		out = append(out, s)
	}
	return out
}

func TestAnalyzeCommand(t *testing.T) {
	structs, diags := analysis.Analyze(loadFixture(t), []string{"Command"}, analysis.Options{})
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %s", diags.Error())
	}
	if len(structs) != 1 {
		t.Fatalf("expected one schema, got %d", len(structs))
	}
	cmd := structs[0]

	want := []fieldSummary{
		{Name: "Executable", Type: "string", Shape: schema.ShapePlain},
		{Name: "User", Type: "string", Shape: schema.ShapePlain, Directives: []string{"validate=ValidateUser"}},
		{Name: "Args", Type: "[]string", Shape: schema.ShapeCollection, Elem: "string", Directives: []string{"each=Arg"}},
		{Name: "Env", Type: "[]string", Shape: schema.ShapeCollection, Elem: "string", Directives: []string{"each=Env"}},
		{Name: "CurrentDir", Type: "*string", Shape: schema.ShapeOptional, Elem: "string"},
		{Name: "Timeout", Type: "time.Duration", Shape: schema.ShapePlain, Directives: []string{"default=DefaultTimeout"}},
		{Name: "Retries", Type: "int", Shape: schema.ShapePlain, Directives: []string{"default=<zero>"}},
		{Name: "Node", Type: "*yaml.Node", Shape: schema.ShapeOptional, Elem: "yaml.Node"},
		{Name: "Name", Type: "string", Shape: schema.ShapePlain, Directives: []string{"validate=checks.NotEmpty"}},
		{Name: "A", Type: "str.Builder", Shape: schema.ShapePlain},
		{Name: "B", Type: "str.Builder", Shape: schema.ShapePlain},
	}
	if diff := cmp.Diff(want, summarize(cmd.Fields)); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}

	validator, ok := cmd.Validator()
	if !ok || validator.Ref != "ValidateCommand" {
		t.Fatalf("expected struct validator, got %+v", validator)
	}

	wantImports := []schema.Import{
		{Path: "example.com/checks"},
		{Path: "gopkg.in/yaml.v3"},
		{Name: "str", Path: "strings"},
		{Path: "time"},
	}
	if diff := cmp.Diff(wantImports, cmd.Imports); diff != "" {
		t.Fatalf("imports mismatch (-want +got):\n%s", diff)
	}

	if cmd.Range.Start.Line != 14 {
		t.Fatalf("expected range on line 14, got %d", cmd.Range.Start.Line)
	}
}

func TestAnalyzeGeneric(t *testing.T) {
	structs, diags := analysis.Analyze(loadFixture(t), []string{"Pair"}, analysis.Options{})
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %s", diags.Error())
	}
	pair := structs[0]
	if pair.TypeParams != "[K comparable, V any]" || pair.TypeArgs != "[K, V]" {
		t.Fatalf("unexpected type parameters %q %q", pair.TypeParams, pair.TypeArgs)
	}
	if pair.TypeName() != "Pair[K, V]" {
		t.Fatalf("unexpected type name %q", pair.TypeName())
	}
}

func TestAnalyzeRejections(t *testing.T) {
	tests := []struct {
		name    string
		summary string
	}{
		{name: "Runner", summary: "Cannot create Builder for interface types"},
		{name: "Alias", summary: "Cannot create Builder for type aliases"},
		{name: "Level", summary: "Cannot create Builder for non-struct types"},
		{name: "Empty", summary: "Cannot create Builder for empty structs"},
		{name: "Wrapper", summary: "Cannot create Builder for structs without named fields"},
		{name: "Missing", summary: "Type not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			structs, diags := analysis.Analyze(loadFixture(t), []string{tt.name}, analysis.Options{})
			if len(structs) != 0 {
				t.Fatalf("expected no schema, got %d", len(structs))
			}
			errs := errorsOnly(diags)
			if len(errs) != 1 {
				t.Fatalf("expected one error, got %v", diags)
			}
			if errs[0].Summary != tt.summary {
				t.Fatalf("summary = %q, want %q", errs[0].Summary, tt.summary)
			}
		})
	}
}

func TestAnalyzeKeepsGoingAfterAnnotationErrors(t *testing.T) {
	structs, diags := analysis.Analyze(loadFixture(t), []string{"Broken", "Command"}, analysis.Options{})
	if len(structs) != 2 {
		t.Fatalf("expected both schemas, got %d", len(structs))
	}
	if structs[0].Name != "Broken" || structs[1].Name != "Command" {
		t.Fatalf("unexpected order %s, %s", structs[0].Name, structs[1].Name)
	}

	broken := structs[0]
	if len(broken.Fields) != 3 {
		t.Fatalf("expected all fields to be kept, got %d", len(broken.Fields))
	}
	if len(broken.Fields[0].Directives) != 0 {
		t.Fatalf("expected failed directives to be dropped, got %+v", broken.Fields[0].Directives)
	}
	if _, ok := broken.Fields[1].Each(); !ok {
		t.Fatalf("expected each directive on Other")
	}
	if got := len(broken.Fields[0].Diagnostics); got != 2 {
		t.Fatalf("expected both failures recorded on Field, got %v", broken.Fields[0].Diagnostics)
	}
	if len(broken.Fields[1].Diagnostics) != 0 || len(broken.Fields[2].Diagnostics) != 0 {
		t.Fatalf("failures leaked onto other fields")
	}

	var summaries []string
	for _, d := range diags {
		summaries = append(summaries, d.Summary)
	}
	want := []string{"builder attribute not recognized", "Invalid method name", "Unresolved package qualifier"}
	if diff := cmp.Diff(want, summaries); diff != "" {
		t.Fatalf("diagnostics mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyzeEmbeddedWarning(t *testing.T) {
	src := `package p

type Base struct{ ID int }

type Item struct {
	Base
	Name string
}
`
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "p.go", src, parser.ParseComments)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	pkg := pkgsource.Package{Name: "p", Fset: fset, Files: []*ast.File{file}}

	structs, diags := analysis.Analyze(pkg, []string{"Item"}, analysis.Options{})
	if diags.HasErrors() || len(diags) != 1 || diags[0].Severity != hcl.DiagWarning {
		t.Fatalf("expected a single warning, got %v", diags)
	}
	if len(structs[0].Fields) != 1 || structs[0].Fields[0].Name != "Name" {
		t.Fatalf("unexpected fields %+v", structs[0].Fields)
	}
}

func TestStructTypes(t *testing.T) {
	got := analysis.StructTypes(loadFixture(t), analysis.Options{})
	want := []string{"Command", "Broken"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("discovered types mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyzeResolvesConstraintImports(t *testing.T) {
	src := "package p\n\nimport \"fmt\"\n\ntype Keyed[K fmt.Stringer] struct {\n\tKey K\n}\n"
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "p.go", src, parser.ParseComments)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	pkg := pkgsource.Package{Name: "p", Fset: fset, Files: []*ast.File{file}}

	structs, diags := analysis.Analyze(pkg, []string{"Keyed"}, analysis.Options{})
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics %v", diags)
	}
	if diff := cmp.Diff([]schema.Import{{Path: "fmt"}}, structs[0].Imports); diff != "" {
		t.Fatalf("imports mismatch (-want +got):\n%s", diff)
	}
}

func TestCustomTagKey(t *testing.T) {
	src := "package p\n\ntype Item struct {\n\tTags []string `build:\"each=Tag\"`\n}\n"
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "p.go", src, parser.ParseComments)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	pkg := pkgsource.Package{Name: "p", Fset: fset, Files: []*ast.File{file}}

	structs, _ := analysis.Analyze(pkg, []string{"Item"}, analysis.Options{TagKey: "build"})
	if each, ok := structs[0].Fields[0].Each(); !ok || each.Alias != "Tag" {
		t.Fatalf("expected each directive under custom key, got %+v", structs[0].Fields[0].Directives)
	}
}

func errorsOnly(diags hcl.Diagnostics) hcl.Diagnostics {
	var out hcl.Diagnostics
	for _, d := range diags {
		if d.Severity == hcl.DiagError {
			out = append(out, d)
		}
	}
	return out
}
