// Package cli implements the orders-service command line.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/R3E-Network/orders_service/internal/config"
)

// Version is set at build time with -ldflags "-X .../internal/cli.Version=...".
var Version = "dev"

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

type rootOptions struct {
	envFiles []string
}

func (o *rootOptions) load() (*config.Config, error) {
	return config.Load(o.envFiles...)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:           "orders-service",
		Short:         "Order processing service with resilient user and product lookups",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", nil, "dotenv file(s) to load before reading the environment")

	rootCmd.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newConfigCmd(opts),
		newVersionCmd(),
	)
	return rootCmd
}
