package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/R3E-Network/orders_service/internal/config"
)

// effectiveConfig is the redacted view printed by the config command.
type effectiveConfig struct {
	Server   string                  `yaml:"server"`
	Store    string                  `yaml:"store"`
	Cache    string                  `yaml:"cache"`
	Users    config.DependencyConfig `yaml:"users"`
	Products config.DependencyConfig `yaml:"products"`
}

func newConfigCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Validate the configuration and print the effective dependency policies",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			view := effectiveConfig{
				Server:   cfg.Server.Addr,
				Store:    "memory",
				Cache:    cfg.Cache.Backend,
				Users:    cfg.Users,
				Products: cfg.Products,
			}
			if cfg.Database.DSN != "" {
				view.Store = "postgres"
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(view); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}
