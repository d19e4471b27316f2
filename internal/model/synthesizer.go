package model

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hashicorp/hcl/v2"

	"github.com/goliatone/go-buildergen/pkg/schema"
)

// reservedMethods are generated on every builder besides the field methods.
var reservedMethods = map[string]bool{
	"Build": true,
	"Clone": true,
	"slots": true,
}

// generatedLocals are identifiers declared inside generated method bodies; a
// reference with one of these roots would be shadowed.
var generatedLocals = map[string]bool{
	"b":       true,
	"c":       true,
	"value":   true,
	"missing": true,
	"out":     true,
	"v":       true,
	"ok":      true,
	"err":     true,
}

// Synthesizer turns struct schemas into builder models.
type Synthesizer struct {
	options Options
}

// New constructs a Synthesizer.
func New(options Options) *Synthesizer {
	return &Synthesizer{options: options.withDefaults()}
}

// Synthesize builds the model for one struct. Problems that would make the
// generated code fail to compile are reported as errors; the model is still
// returned so callers can inspect it.
func (s *Synthesizer) Synthesize(in schema.StructSchema) (Builder, hcl.Diagnostics) {
	out := Builder{
		Target:      in.Name,
		TargetType:  in.TypeName(),
		Name:        in.Name + "Builder",
		TypeParams:  in.TypeParams,
		TypeArgs:    in.TypeArgs,
		Constructor: constructorName(in.Name),
		ErrorAlias:  in.Name + "BuilderError",
		Runtime:     s.options.RuntimeName,
		Fields:      make([]FieldPlan, 0, len(in.Fields)),
	}

	var diags hcl.Diagnostics
	owners := make(map[string]string, len(in.Fields))

	for _, field := range in.Fields {
		plan, fieldDiags := SynthesizeField(field, s.options.RuntimeName)
		diags = append(diags, fieldDiags...)

		name := plan.Method.Name
		switch {
		case reservedMethods[name]:
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Builder method name conflict",
				Detail:   fmt.Sprintf("Field %s would generate a method named %s, which the builder already declares.", field.Name, name),
				Subject:  field.Range.Ptr(),
			})
		case owners[name] != "":
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Builder method name conflict",
				Detail:   fmt.Sprintf("Method %s is generated for both %s and %s.", name, owners[name], field.Name),
				Subject:  field.Range.Ptr(),
			})
		default:
			owners[name] = field.Name
		}

		diags = append(diags, shadowed(plan.Method.Validator, field.Range)...)
		if plan.Default != nil {
			diags = append(diags, shadowed(plan.Default.Provider, field.Range)...)
		}

		out.Fields = append(out.Fields, plan)
	}

	validators := in.Directives.All(schema.DirectiveValidate)
	if len(validators) > 0 {
		out.Validator = validators[0].Ref
		diags = append(diags, shadowed(out.Validator, validators[0].Range)...)
	}
	for _, extra := range validators[min(1, len(validators)):] {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagWarning,
			Summary:  "Duplicate builder attribute",
			Detail:   fmt.Sprintf("Only the first \"validate\" attribute on %s is applied.", in.Name),
			Subject:  extra.Range.Ptr(),
		})
	}

	return out, diags
}

// SynthesizeFile synthesizes every struct and merges the imports they need
// behind the runtime import.
func (s *Synthesizer) SynthesizeFile(pkg string, structs []schema.StructSchema) (File, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	builders := make([]Builder, 0, len(structs))
	for _, in := range structs {
		builder, builderDiags := s.Synthesize(in)
		diags = append(diags, builderDiags...)
		builders = append(builders, builder)
	}

	file, fileDiags := s.Assemble(pkg, structs, builders)
	return file, append(diags, fileDiags...)
}

// Assemble places already synthesized builders in one file. structs[i] must
// be the schema builders[i] was synthesized from; its imports are merged
// behind the runtime import.
func (s *Synthesizer) Assemble(pkg string, structs []schema.StructSchema, builders []Builder) (File, hcl.Diagnostics) {
	file := File{
		Package:  pkg,
		Header:   s.options.Header,
		Builders: append(make([]Builder, 0, len(builders)), builders...),
	}

	var diags hcl.Diagnostics
	imports := newImportSet(s.options.runtimeImport())
	for _, in := range structs {
		for _, imp := range in.Imports {
			if err := imports.add(imp); err != nil {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Import name conflict",
					Detail:   err.Error(),
					Subject:  in.Range.Ptr(),
				})
			}
		}
	}

	file.Imports = imports.list()
	return file, diags
}

func shadowed(ref string, rng hcl.Range) hcl.Diagnostics {
	root, _, _ := strings.Cut(ref, ".")
	if !generatedLocals[root] {
		return nil
	}
	return hcl.Diagnostics{{
		Severity: hcl.DiagError,
		Summary:  "Reference shadowed by generated code",
		Detail:   fmt.Sprintf("%q is declared inside generated methods; give the function a different name.", root),
		Subject:  rng.Ptr(),
	}}
}

func constructorName(target string) string {
	r, size := utf8.DecodeRuneInString(target)
	if unicode.IsUpper(r) {
		return "New" + target + "Builder"
	}
	return "new" + string(unicode.ToUpper(r)) + target[size:] + "Builder"
}

type importSet struct {
	byPath map[string]schema.Import
	byName map[string]string
	order  []string
}

func newImportSet(runtime schema.Import) *importSet {
	set := &importSet{
		byPath: map[string]schema.Import{},
		byName: map[string]string{},
	}
	_ = set.add(runtime)
	return set
}

func (s *importSet) add(imp schema.Import) error {
	if _, ok := s.byPath[imp.Path]; ok {
		return nil
	}
	name := imp.LocalName()
	if other, ok := s.byName[name]; ok {
		return fmt.Errorf("packages %s and %s are both imported as %s", other, imp.Path, name)
	}
	s.byPath[imp.Path] = imp
	s.byName[name] = imp.Path
	s.order = append(s.order, imp.Path)
	return nil
}

func (s *importSet) list() []schema.Import {
	out := make([]schema.Import, 0, len(s.order))
	for _, path := range s.order {
		out = append(out, s.byPath[path])
	}
	return out
}
