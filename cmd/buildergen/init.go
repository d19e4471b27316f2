package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-buildergen/internal/analysis"
	"github.com/goliatone/go-buildergen/internal/source/loader"
	"github.com/goliatone/go-buildergen/pkg/config"
	"github.com/goliatone/go-buildergen/pkg/prompt"
	pkgsource "github.com/goliatone/go-buildergen/pkg/source"
)

type cliInit struct {
	root  *cliRoot
	force bool
}

func newCLIInit(root *cliRoot) *cliInit {
	return &cliInit{root: root}
}

func (cli *cliInit) NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "init [package]",
		Short:             "Create " + config.FileName + " interactively",
		Args:              cobra.MaximumNArgs(1),
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.root.loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cli.root.configure(cfg); err != nil {
				return err
			}
			return cli.run(cmd.Context(), cfg, cli.root.opts.configPath, target(args))
		},
	}

	cmd.Flags().BoolVar(&cli.force, "force", false, "overwrite an existing configuration file without asking")

	return cmd
}

func (cli *cliInit) run(ctx context.Context, base config.Config, path, pattern string) error {
	driver := prompt.NewSurveyDriver()

	if _, err := os.Stat(path); err == nil && !cli.force {
		overwrite, err := driver.Confirm(ctx, prompt.ConfirmConfig{
			Message: fmt.Sprintf("%s exists. Overwrite it?", path),
		})
		if err != nil {
			return err
		}
		if !overwrite {
			return nil
		}
	}

	discovered := discoverTypes(ctx, base, pattern)
	cfg, err := prompt.Interview(ctx, driver, base, discovered)
	if errors.Is(err, prompt.ErrInterrupted) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := cfg.Write(path); err != nil {
		return err
	}
	log.WithField("file", path).Info("configuration written")
	return nil
}

// discoverTypes lists annotated structs to offer in the interview. Loading
// failures only cost the suggestions.
func discoverTypes(ctx context.Context, cfg config.Config, pattern string) []string {
	pkg, err := loader.New(pkgsource.NewLoaderOptions()).Load(ctx, sourceFor(pattern))
	if err != nil {
		log.WithError(err).Debug("type discovery skipped")
		return nil
	}
	return analysis.StructTypes(pkg, analysis.Options{TagKey: cfg.TagKey})
}
