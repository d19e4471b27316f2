package model_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hashicorp/hcl/v2"

	"github.com/goliatone/go-buildergen/internal/model"
	"github.com/goliatone/go-buildergen/pkg/schema"
)

func commandSchema(t *testing.T) schema.StructSchema {
	var rng hcl.Range
	return schema.StructSchema{
		Package: "command",
		Name:    "Command",
		Fields: []schema.FieldSchema{
			field(t, "Executable", "string"),
			field(t, "User", "string", schema.Validate("ValidateUser", rng)),
			field(t, "Args", "[]string", schema.Each("Arg", rng)),
			field(t, "Timeout", "time.Duration", schema.Default("DefaultTimeout", rng)),
			field(t, "CurrentDir", "*string"),
		},
		Directives: schema.Directives{schema.Validate("ValidateCommand", rng)},
		Imports:    []schema.Import{{Path: "time"}},
	}
}

func TestSynthesize(t *testing.T) {
	synth := model.New(model.Options{})

	builder, diags := synth.Synthesize(commandSchema(t))
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}

	if builder.Name != "CommandBuilder" || builder.Constructor != "NewCommandBuilder" || builder.ErrorAlias != "CommandBuilderError" {
		t.Fatalf("unexpected names %+v", builder)
	}
	if builder.Runtime != "buildkit" || builder.Validator != "ValidateCommand" {
		t.Fatalf("unexpected runtime/validator %q %q", builder.Runtime, builder.Validator)
	}

	var methods []string
	for _, f := range builder.Fields {
		methods = append(methods, f.Method.Name)
	}
	if diff := cmp.Diff([]string{"Executable", "User", "Arg", "Timeout", "CurrentDir"}, methods); diff != "" {
		t.Fatalf("methods mismatch (-want +got):\n%s", diff)
	}

	var required []string
	for _, f := range builder.Fields {
		if f.Rule == model.RuleRequired {
			required = append(required, f.Field)
		}
	}
	if diff := cmp.Diff([]string{"Executable", "User", "Timeout"}, required); diff != "" {
		t.Fatalf("required mismatch (-want +got):\n%s", diff)
	}
}

func TestSynthesizeNames(t *testing.T) {
	synth := model.New(model.Options{})
	builder, _ := synth.Synthesize(schema.StructSchema{
		Name:       "pair",
		TypeParams: "[K comparable, V any]",
		TypeArgs:   "[K, V]",
		Fields:     []schema.FieldSchema{field(t, "key", "K")},
	})
	if builder.Name != "pairBuilder" || builder.Constructor != "newPairBuilder" {
		t.Fatalf("unexpected names %q %q", builder.Name, builder.Constructor)
	}
	if builder.TargetType != "pair[K, V]" {
		t.Fatalf("unexpected target type %q", builder.TargetType)
	}
}

func TestSynthesizeConflicts(t *testing.T) {
	var rng hcl.Range
	synth := model.New(model.Options{})

	_, diags := synth.Synthesize(schema.StructSchema{
		Name: "Job",
		Fields: []schema.FieldSchema{
			field(t, "Build", "string"),
			field(t, "Step", "string"),
			field(t, "Steps", "[]string", schema.Each("Step", rng)),
			field(t, "Owner", "string", schema.Validate("err", rng)),
		},
	})

	var got []string
	for _, d := range diags {
		if d.Severity == hcl.DiagError {
			got = append(got, d.Summary)
		}
	}
	want := []string{"Builder method name conflict", "Builder method name conflict", "Reference shadowed by generated code"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestSynthesizeFileImports(t *testing.T) {
	synth := model.New(model.Options{RuntimeImport: "example.com/rt/v2", RuntimeName: "rt"})

	other := commandSchema(t)
	other.Name = "Other"
	other.Imports = []schema.Import{{Path: "time"}, {Name: "y", Path: "gopkg.in/yaml.v3"}}

	file, diags := synth.SynthesizeFile("command", []schema.StructSchema{commandSchema(t), other})
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %s", diags.Error())
	}

	want := []schema.Import{
		{Path: "example.com/rt/v2"},
		{Path: "time"},
		{Name: "y", Path: "gopkg.in/yaml.v3"},
	}
	if diff := cmp.Diff(want, file.Imports); diff != "" {
		t.Fatalf("imports mismatch (-want +got):\n%s", diff)
	}
	if file.Header != model.DefaultHeader || len(file.Builders) != 2 {
		t.Fatalf("unexpected file %+v", file)
	}
	if file.Builders[0].Runtime != "rt" {
		t.Fatalf("runtime qualifier = %q", file.Builders[0].Runtime)
	}
}

func TestSynthesizeFileImportConflict(t *testing.T) {
	synth := model.New(model.Options{})
	in := commandSchema(t)
	in.Imports = []schema.Import{{Name: "buildkit", Path: "example.com/other"}}

	_, diags := synth.SynthesizeFile("command", []schema.StructSchema{in})
	if !diags.HasErrors() {
		t.Fatalf("expected import conflict")
	}
}
