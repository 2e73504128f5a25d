package cli

import (
	"github.com/spf13/cobra"

	"github.com/aura-meetings/backend/internal/meetings"
	"github.com/aura-meetings/backend/internal/output"
)

func NewListCmd(deps *Dependencies) *cobra.Command {
	var host string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a host's meetings grouped by derived status",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := deps.App(cmd.Context())
			if err != nil {
				return err
			}
			formatter := output.NewFormatter(cmd.OutOrStdout())

			views, err := a.Meetings.ListArranged(cmd.Context(), meetings.Actor{Subject: host})
			if err != nil {
				return err
			}
			if len(views) == 0 {
				formatter.Info("No meetings found")
				return nil
			}
			loc, err := deps.Config.Meetings.Location()
			if err != nil {
				return err
			}
			formatter.MeetingTable(views, loc)
			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "host subject (required)")
	_ = cmd.MarkFlagRequired("host")
	return cmd
}
