package cli

import (
	"fmt"

	"todo-tasks/app/server"

	"github.com/spf13/cobra"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the store schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, cleanup, err := opts.setup()
			if err != nil {
				return err
			}
			defer cleanup()

			st, err := server.OpenStore(cmd.Context(), cfg.Store, log)
			if err != nil {
				return err
			}
			if err := st.Close(cmd.Context()); err != nil {
				return fmt.Errorf("closing store: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s schema is up to date\n", cfg.Store.Driver)
			return nil
		},
	}
}
