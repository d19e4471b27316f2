package main

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = ""

type cliVersion struct{}

func newCLIVersion() *cliVersion {
	return &cliVersion{}
}

func (cli *cliVersion) NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "version",
		Short:             "Display version and exit.",
		Args:              cobra.NoArgs,
		DisableAutoGenTag: true,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "buildergen %s (%s)\n", resolveVersion(), runtime.Version())
		},
	}
}

func resolveVersion() string {
	if version != "" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "devel"
}
