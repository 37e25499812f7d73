// Package cli defines the todo-tasks command tree.
package cli

import (
	"todo-tasks/app/config"
	"todo-tasks/app/logger"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Version is stamped at build time with -ldflags "-X todo-tasks/app/cli.Version=...".
var Version = "dev"

type rootOptions struct {
	configPath string
}

// NewRootCmd creates the top-level "todo-tasks" command and registers all
// subcommands.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "todo-tasks",
		Short:         "Task management API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to a config file (default ./config.yaml when present)")

	root.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newVersionCmd(),
	)
	return root
}

// setup loads configuration and builds the logger. The returned cleanup
// must be called once the command finishes.
func (o *rootOptions) setup() (*config.Config, *logrus.Logger, func(), error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	log, cleanup, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, log, cleanup, nil
}
