package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-proctor/internal/config"
	"github.com/teslashibe/go-proctor/internal/log"
	"github.com/teslashibe/go-proctor/pkg/web"
)

// DashboardOptions holds flags for the dashboard command.
type DashboardOptions struct {
	*RootOptions
	Addr string
}

// NewDashboardCommand creates the dashboard command.
func NewDashboardCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DashboardOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Serve the read-only event log viewer",
		Long: `Serve an HTML page and JSON API over the event log written by
"proctor monitor". The viewer only reads the log file.

Example:
  proctor dashboard --addr 127.0.0.1:5000 --log-path exam_log.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.RootOptions, func(c *config.Config) {
				if opts.Addr != "" {
					c.Dashboard.Addr = opts.Addr
				}
			})
			if err != nil {
				return err
			}
			log.Init(cfg.LogLevel)

			srv, err := web.NewServer(web.Config{
				Addr:         cfg.Dashboard.Addr,
				LogPath:      cfg.LogPath,
				PollInterval: cfg.Dashboard.PollInterval,
			}, log.L())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (default "+config.DefaultDashboardAddr+")")

	return cmd
}
