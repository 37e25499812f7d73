package cli

import (
	"os/signal"
	"syscall"

	"todo-tasks/app/server"

	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, cleanup, err := opts.setup()
			if err != nil {
				return err
			}
			defer cleanup()
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			st, err := server.OpenStore(ctx, cfg.Store, log)
			if err != nil {
				return err
			}
			return server.New(cfg, log, st).Run(ctx)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "override server.port")
	return cmd
}
