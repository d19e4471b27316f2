package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-buildergen/internal/diag"
	"github.com/goliatone/go-buildergen/internal/watch"
	"github.com/goliatone/go-buildergen/pkg/config"
	"github.com/goliatone/go-buildergen/pkg/model"
	"github.com/goliatone/go-buildergen/pkg/orchestrator"
	"github.com/goliatone/go-buildergen/pkg/render"
	pkgsource "github.com/goliatone/go-buildergen/pkg/source"
)

type generateFlags struct {
	types         []string
	output        string
	renderer      string
	tagKey        string
	runtimeImport string
	stdout        bool
	watch         bool
	keepGoing     bool
	fixImports    bool
}

type cliGenerate struct {
	root  *cliRoot
	flags generateFlags
}

func newCLIGenerate(root *cliRoot) *cliGenerate {
	return &cliGenerate{root: root}
}

func (cli *cliGenerate) NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [package|file.go]",
		Short: "Write builders for the annotated structs of a package",
		Example: `buildergen generate
buildergen generate ./internal/command -t Command -t Env
buildergen generate user.go --stdout`,
		Args:              cobra.MaximumNArgs(1),
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.root.loadConfig(cmd)
			if err != nil {
				return err
			}
			cli.apply(cmd, &cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := cli.root.configure(cfg); err != nil {
				return err
			}
			return cli.run(cmd.Context(), cfg, target(args))
		},
	}

	flags := cmd.Flags()
	flags.StringSliceVarP(&cli.flags.types, "type", "t", nil, "struct to generate a builder for (repeatable; default: every annotated struct)")
	flags.StringVarP(&cli.flags.output, "output", "o", "", "output file (default: <first type>_builder.go in the package directory)")
	flags.StringVar(&cli.flags.renderer, "renderer", "", "renderer to use (go, json)")
	flags.StringVar(&cli.flags.tagKey, "tag-key", "", "struct tag key and comment directive prefix")
	flags.StringVar(&cli.flags.runtimeImport, "runtime-import", "", "import path of the buildkit runtime used by generated code")
	flags.BoolVar(&cli.flags.stdout, "stdout", false, "print the output instead of writing a file")
	flags.BoolVarP(&cli.flags.watch, "watch", "w", false, "regenerate when Go files in the package change")
	flags.BoolVar(&cli.flags.keepGoing, "keep-going", false, "write builders for healthy types even when others have errors")
	flags.BoolVar(&cli.flags.fixImports, "fix-imports", false, "let goimports add imports the declarations do not name")

	return cmd
}

// apply overlays explicitly set flags on cfg.
func (cli *cliGenerate) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("type") {
		cfg.Types = cli.flags.types
	}
	if flags.Changed("output") {
		cfg.Output = cli.flags.output
	}
	if flags.Changed("renderer") {
		cfg.Renderer = cli.flags.renderer
	}
	if flags.Changed("tag-key") {
		cfg.TagKey = cli.flags.tagKey
	}
	if flags.Changed("runtime-import") {
		cfg.RuntimeImport = cli.flags.runtimeImport
	}
	if flags.Changed("fix-imports") {
		cfg.FixImports = cli.flags.fixImports
	}
}

func (cli *cliGenerate) run(ctx context.Context, cfg config.Config, arg string) error {
	pkg, outPath, err := cli.generate(ctx, cfg, arg)
	if !cli.flags.watch {
		return err
	}
	if pkg.Dir == "" {
		if err != nil {
			return err
		}
		return fmt.Errorf("cannot watch %s: package directory unknown", arg)
	}

	return watch.Run(ctx, pkg.Dir, func(ctx context.Context) error {
		_, _, err := cli.generate(ctx, cfg, arg)
		if errors.Is(err, errDiagnostics) {
			return nil
		}
		return err
	}, watch.WithIgnore(outPath), watch.WithLogger(log.StandardLogger()))
}

// generate runs the pipeline once and writes the output. It returns the
// loaded package and the output path even when generation fails so watch
// mode can keep going.
func (cli *cliGenerate) generate(ctx context.Context, cfg config.Config, arg string) (pkgsource.Package, string, error) {
	result, err := newOrchestrator(cfg).Generate(ctx, orchestrator.Request{
		Source:        sourceFor(arg),
		Types:         cfg.Types,
		Renderer:      cfg.Renderer,
		RenderOptions: render.RenderOptions{Filename: cfg.OutputPath(""), FixImports: cfg.FixImports},
	})
	outPath := ""
	if result.Package.Dir != "" {
		outCfg := cfg
		if len(outCfg.Types) == 0 {
			outCfg.Types = builtTypes(result)
		}
		outPath = outCfg.OutputPath(result.Package.Dir)
	}
	if err != nil {
		return result.Package, outPath, err
	}

	if err := printDiagnostics(cfg, result); err != nil {
		return result.Package, outPath, err
	}
	failed := result.Diagnostics.HasErrors()
	if failed && !cli.flags.keepGoing {
		return result.Package, outPath, errDiagnostics
	}
	if result.Output == nil {
		if failed {
			return result.Package, outPath, errDiagnostics
		}
		return result.Package, outPath, fmt.Errorf("no builders generated")
	}

	if cli.flags.stdout {
		_, err = os.Stdout.Write(result.Output)
	} else {
		err = writeFile(outPath, result.Output)
	}
	if err != nil {
		return result.Package, outPath, err
	}
	if !cli.flags.stdout {
		log.WithFields(log.Fields{"file": outPath, "builders": len(result.File.Builders)}).Info("builders written")
	}
	if failed {
		return result.Package, outPath, errDiagnostics
	}
	return result.Package, outPath, nil
}

func builtTypes(result orchestrator.Result) []string {
	names := make([]string, 0, len(result.File.Builders))
	for _, b := range result.File.Builders {
		names = append(names, b.Target)
	}
	return names
}

func newOrchestrator(cfg config.Config) *orchestrator.Orchestrator {
	return orchestrator.New(
		orchestrator.WithTagKey(cfg.TagKey),
		orchestrator.WithSynthesizerOptions(headerOption(cfg), model.WithRuntimeImport(cfg.RuntimeImport, "")),
		orchestrator.WithLogger(log.StandardLogger()),
	)
}

func headerOption(cfg config.Config) model.SynthesizerOption {
	if cfg.Header == "" {
		return nil
	}
	return model.WithHeader(cfg.Header)
}

func printDiagnostics(cfg config.Config, result orchestrator.Result) error {
	if len(result.Diagnostics) == 0 {
		return nil
	}
	w := diag.NewWriter(os.Stderr, cfg.Color)
	w.AddSources(result.Package.Contents)
	return w.Write(result.Diagnostics)
}

func target(args []string) string {
	if len(args) == 0 {
		return "."
	}
	return args[0]
}

// sourceFor treats a .go argument as a single file and anything else as a
// package pattern.
func sourceFor(arg string) pkgsource.Source {
	if strings.HasSuffix(arg, ".go") {
		return pkgsource.SourceFromFile(arg)
	}
	return pkgsource.SourceFromPattern(arg)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
