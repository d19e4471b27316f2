package buildergen

import (
	internalLoader "github.com/goliatone/go-buildergen/internal/source/loader"
	pkgsource "github.com/goliatone/go-buildergen/pkg/source"
)

// NewLoader constructs a loader using the internal implementation while keeping
// the concrete type hidden from consumers.
func NewLoader(options ...pkgsource.LoaderOption) pkgsource.Loader {
	cfg := pkgsource.NewLoaderOptions(options...)
	return internalLoader.New(cfg)
}
