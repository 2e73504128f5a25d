package cli

import (
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aura-meetings/backend/internal/events"
	"github.com/aura-meetings/backend/internal/output"
)

func NewWatchCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <meeting-id>",
		Short: "Print a meeting's events as they are published",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := deps.App(cmd.Context())
			if err != nil {
				return err
			}
			if a.Events == nil {
				return errors.New("watch requires REDIS_ADDR")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			formatter := output.NewFormatter(cmd.OutOrStdout())
			formatter.Info("watching " + events.Channel(args[0]) + " (ctrl-c to stop)")
			return a.Events.Subscribe(ctx, args[0], formatter.Event)
		},
	}
}
