package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/R3E-Network/orders_service/internal/app/runtime"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			out := NewPrinter(cmd.OutOrStdout())
			start := time.Now()
			applied, err := runtime.Migrate(cmd.Context(), cfg.Database)
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			for _, name := range applied {
				out.Info("%s", name)
			}
			out.Success("%d migrations applied in %s", len(applied), formatDuration(time.Since(start)))
			return nil
		},
	}
}
