package buildergen_test

import (
	"context"
	"io/fs"
	"strings"
	"testing"

	"github.com/goliatone/go-buildergen"
	pkgsource "github.com/goliatone/go-buildergen/pkg/source"
)

const quickstart = `package demo

type Greeting struct {
	Text string ` + "`builder:\"default\"`" + `
}
`

func TestGenerateSource(t *testing.T) {
	out, err := buildergen.GenerateSource(context.Background(), pkgsource.SourceFromBytes("demo.go", []byte(quickstart)), nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(string(out), "func NewGreetingBuilder() *GreetingBuilder {") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestGenerateFromPackageWithLoader(t *testing.T) {
	loader := buildergen.NewLoader()
	pkg, err := loader.Load(context.Background(), pkgsource.SourceFromBytes("demo.go", []byte(quickstart)))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	result, err := buildergen.GenerateFromPackage(context.Background(), pkg, []string{"Greeting"}, "json")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(result.File.Builders) != 1 || result.File.Builders[0].Fields[0].Default == nil {
		t.Fatalf("expected one builder with a defaulted field, got %+v", result.File.Builders)
	}
}

func TestEmbeddedTemplates(t *testing.T) {
	if _, err := fs.Stat(buildergen.EmbeddedTemplates(), "builder.tmpl"); err != nil {
		t.Fatalf("builder template missing: %v", err)
	}
}
