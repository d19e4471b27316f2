// Package buildergen generates fluent, validating builders for annotated Go
// structs. The root package re-exports the pieces most callers need; the
// pkg/ tree holds the full contracts.
package buildergen

import (
	"context"

	"github.com/goliatone/go-buildergen/pkg/orchestrator"
	"github.com/goliatone/go-buildergen/pkg/render"
	pkgsource "github.com/goliatone/go-buildergen/pkg/source"
)

// RenderOptions describes per-request renderer settings.
type RenderOptions = render.RenderOptions

// Request and Result alias the orchestrator contract.
type (
	Request = orchestrator.Request
	Result  = orchestrator.Result
)

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// GenerateSource loads the package behind source and renders Go builders for
// the named types, or for every annotated struct when types is empty. Error
// diagnostics are returned as an hcl.Diagnostics error.
func GenerateSource(ctx context.Context, source pkgsource.Source, types []string, options ...orchestrator.Option) ([]byte, error) {
	result, err := orchestrator.New(options...).Generate(ctx, orchestrator.Request{
		Source: source,
		Types:  types,
	})
	if err != nil {
		return nil, err
	}
	if result.Diagnostics.HasErrors() {
		return nil, result.Diagnostics
	}
	return result.Output, nil
}

// GenerateFromPackage renders builders for a package the caller already
// loaded, bypassing the loader stage.
func GenerateFromPackage(ctx context.Context, pkg pkgsource.Package, types []string, rendererName string, options ...orchestrator.Option) (Result, error) {
	return orchestrator.New(options...).Generate(ctx, orchestrator.Request{
		Package:  &pkg,
		Types:    types,
		Renderer: rendererName,
	})
}
