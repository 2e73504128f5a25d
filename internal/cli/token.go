package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aura-meetings/backend/internal/auth"
)

func NewTokenCmd(deps *Dependencies) *cobra.Command {
	var name, email string

	cmd := &cobra.Command{
		Use:   "token <subject>",
		Short: "Mint a development identity token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if deps.Config.JWT.Secret == "" {
				return errors.New("JWT_SECRET is not set")
			}
			svc := auth.NewJWTService(deps.Config.JWT.Secret, deps.Config.JWT.Issuer, deps.Config.JWT.ExpireHours)
			token, err := svc.Generate(args[0], name, email)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name claim")
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	return cmd
}
