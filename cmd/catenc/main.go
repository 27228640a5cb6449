// Command catenc fits smoothed target encoders on CSV data and applies them.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/catenc/internal/config"
	"github.com/YuminosukeSato/catenc/pkg/log"
)

type app struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg *config.Config
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:               "catenc",
		Short:             "Smoothed target encoding for categorical columns",
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "", "", "path of a YAML configuration file")
	root.PersistentFlags().StringVarP(&a.logLevel, "log-level", "", "info", "Logging level: debug, info, warn or error")
	root.PersistentFlags().StringVarP(&a.logFormat, "log-format", "", "pretty", "Logging format: pretty or json")

	root.AddCommand(a.fitCommand())
	root.AddCommand(a.transformCommand())
	root.AddCommand(a.fitTransformCommand())
	root.AddCommand(a.inspectCommand())

	return root
}

// setup loads the configuration and installs the logger. Logging flags given
// on the command line win over the configuration file.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Logging.Level = a.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = a.logFormat
	}
	if err := log.SetupLoggerTo(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format); err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
