package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aura-meetings/backend/internal/output"
)

func NewQueueCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "queue",
		Short: "Show pending and dead-lettered status jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := deps.App(cmd.Context())
			if err != nil {
				return err
			}
			if a.Queue == nil {
				return errors.New("queue requires REDIS_ADDR")
			}
			pending, dead, err := a.Queue.Depth(cmd.Context())
			if err != nil {
				return err
			}
			output.NewFormatter(cmd.OutOrStdout()).Info(fmt.Sprintf("pending: %d\ndead-lettered: %d", pending, dead))
			return nil
		},
	}
}
