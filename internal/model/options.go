package model

import "github.com/goliatone/go-buildergen/pkg/schema"

const (
	// DefaultRuntimeImport is the package generated builders depend on.
	DefaultRuntimeImport = "github.com/goliatone/go-buildergen/pkg/buildkit"
	// DefaultHeader marks generated files for tools and reviewers.
	DefaultHeader = "// Code generated by buildergen. DO NOT EDIT."
)

// Options configures synthesis. They are constructed by the public adapter in
// pkg/model and passed into New.
type Options struct {
	RuntimeImport string
	// RuntimeName is the qualifier generated code uses for RuntimeImport.
	// Empty derives it from the import path.
	RuntimeName string
	Header      string
}

func (o Options) withDefaults() Options {
	if o.RuntimeImport == "" {
		o.RuntimeImport = DefaultRuntimeImport
	}
	if o.RuntimeName == "" {
		o.RuntimeName = schema.ImportName(o.RuntimeImport)
	}
	if o.Header == "" {
		o.Header = DefaultHeader
	}
	return o
}

func (o Options) runtimeImport() schema.Import {
	imp := schema.Import{Path: o.RuntimeImport}
	if o.RuntimeName != schema.ImportName(o.RuntimeImport) {
		imp.Name = o.RuntimeName
	}
	return imp
}
