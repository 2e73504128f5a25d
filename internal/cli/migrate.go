package cli

import (
	"github.com/spf13/cobra"

	"github.com/aura-meetings/backend/internal/output"
)

func NewMigrateCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply Postgres migrations or create Mongo indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := deps.App(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.Migrate(cmd.Context()); err != nil {
				return err
			}
			output.NewFormatter(cmd.OutOrStdout()).Success("store ready (" + deps.Config.Store.Driver + ")")
			return nil
		},
	}
}
