package cli

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aura-meetings/backend/config"
	"github.com/aura-meetings/backend/internal/app"
)

// Dependencies is shared by every command. The app is opened on first use so
// commands that need no backend start without one.
type Dependencies struct {
	Config *config.Config
	Logger *zap.Logger

	app *app.App
}

// App opens the configured backends once.
func (d *Dependencies) App(ctx context.Context) (*app.App, error) {
	if d.app != nil {
		return d.app, nil
	}
	a, err := app.Open(ctx, d.Config, d.Logger)
	if err != nil {
		return nil, err
	}
	d.app = a
	return a, nil
}

// Close releases the app if it was opened.
func (d *Dependencies) Close() {
	if d.app != nil {
		d.app.Close()
	}
}

func NewRootCmd(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "meetingctl",
		Short:         "Administer the meeting service",
		Long:          "Operational commands for the meeting service: schema setup, development tokens, listings and event tails.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(NewMigrateCmd(deps))
	rootCmd.AddCommand(NewTokenCmd(deps))
	rootCmd.AddCommand(NewListCmd(deps))
	rootCmd.AddCommand(NewWatchCmd(deps))
	rootCmd.AddCommand(NewQueueCmd(deps))

	return rootCmd
}
