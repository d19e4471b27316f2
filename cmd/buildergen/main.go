package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/fatih/color"
	cc "github.com/ivanpirog/coloredcobra"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-buildergen/pkg/config"
)

// errDiagnostics signals that diagnostics were already printed and only the
// exit code is left to report.
var errDiagnostics = errors.New("builder declarations have errors")

type rootOptions struct {
	configPath string
	logLevel   string
	color      string
}

type cliRoot struct {
	opts rootOptions
}

// loadConfig layers the config file, BUILDERGEN_* variables and the
// persistent flags, in that order.
func (cli *cliRoot) loadConfig(cmd *cobra.Command) (config.Config, error) {
	path := cli.opts.configPath
	var (
		cfg config.Config
		err error
	)
	if cmd.Flags().Changed("config") {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadOptional(path)
	}
	if err != nil {
		return cfg, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = cli.opts.logLevel
	}
	if cmd.Flags().Changed("color") {
		cfg.Color = config.ColorMode(cli.opts.color)
	}
	return cfg, nil
}

func (cli *cliRoot) configure(cfg config.Config) error {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	log.SetLevel(level)

	switch cfg.Color {
	case config.ColorAlways:
		color.NoColor = false
	case config.ColorNever:
		color.NoColor = true
	}
	return nil
}

func (cli *cliRoot) NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "buildergen",
		Short: "Generate fluent builders for annotated Go structs",
		Long: `buildergen reads struct declarations annotated with builder tags or
//builder: comment directives and writes a companion Builder type with one
setter per field, aggregated missing-field errors and optional validators.`,
		DisableAutoGenTag: true,
		SilenceErrors:     true,
		SilenceUsage:      true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&cli.opts.configPath, "config", "c", config.FileName, "path to the configuration file")
	flags.StringVar(&cli.opts.logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	flags.StringVar(&cli.opts.color, "color", string(config.ColorAuto), "colour output: auto, always or never")

	cmd.AddCommand(newCLIGenerate(cli).NewCommand())
	cmd.AddCommand(newCLIInspect(cli).NewCommand())
	cmd.AddCommand(newCLIInit(cli).NewCommand())
	cmd.AddCommand(newCLIVersion().NewCommand())

	return cmd
}

func main() {
	log.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
	log.SetOutput(os.Stderr)

	root := (&cliRoot{}).NewCommand()
	cc.Init(&cc.Config{
		RootCmd:       root,
		Headings:      cc.Yellow,
		Commands:      cc.Green + cc.Bold,
		CmdShortDescr: cc.Cyan,
		Example:       cc.Italic,
		ExecName:      cc.Bold,
		FlagsDataType: cc.White,
		Flags:         cc.Green,
		FlagsDescr:    cc.Cyan,
	})
	root.SetOut(color.Output)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := root.ExecuteContext(ctx)
	stop()

	if err != nil {
		if !errors.Is(err, errDiagnostics) {
			log.Error(err)
		}
		os.Exit(1)
	}
}
