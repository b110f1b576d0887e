// Package cli implements the proctor command line.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/teslashibe/go-proctor/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	LogPath    string
	LogLevel   string
}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "proctor",
		Short: "Single-session exam proctoring monitor",
		Long: `proctor watches one exam candidate through the webcam, microphone and
window focus, and appends violations to a CSV event log.

Run "proctor monitor" for the session and "proctor dashboard" to view the log.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "YAML config file")
	cmd.PersistentFlags().StringVar(&opts.LogPath, "log-path", "", "event log path (default "+config.DefaultLogPath+")")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error)")

	cmd.AddCommand(NewMonitorCommand(opts))
	cmd.AddCommand(NewDashboardCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))

	return cmd
}

// loadConfig resolves defaults, file, environment and flags, in that order.
func loadConfig(opts *RootOptions, override func(*config.Config)) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return cfg, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}
	if opts.LogPath != "" {
		cfg.LogPath = opts.LogPath
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	if override != nil {
		override(&cfg)
	}
	return cfg, cfg.Validate()
}
