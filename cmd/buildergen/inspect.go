package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-buildergen/pkg/orchestrator"
	"github.com/goliatone/go-buildergen/pkg/renderers/inspect"
)

type cliInspect struct {
	root  *cliRoot
	types []string
}

func newCLIInspect(root *cliRoot) *cliInspect {
	return &cliInspect{root: root}
}

func (cli *cliInspect) NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "inspect [package|file.go]",
		Short:             "Print the synthesized builder model as JSON",
		Long:              "inspect shows the setter rule, storage slot and method chosen for every field without generating code.",
		Args:              cobra.MaximumNArgs(1),
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.root.loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("type") {
				cfg.Types = cli.types
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := cli.root.configure(cfg); err != nil {
				return err
			}

			result, err := newOrchestrator(cfg).Generate(cmd.Context(), orchestrator.Request{
				Source:   sourceFor(target(args)),
				Types:    cfg.Types,
				Renderer: inspect.Name,
			})
			if err != nil {
				return err
			}
			if err := printDiagnostics(cfg, result); err != nil {
				return err
			}
			if result.Output != nil {
				if _, err := os.Stdout.Write(result.Output); err != nil {
					return err
				}
			}
			if result.Diagnostics.HasErrors() {
				return errDiagnostics
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&cli.types, "type", "t", nil, "struct to inspect (repeatable; default: every annotated struct)")

	return cmd
}
