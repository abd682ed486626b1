package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/iliyamo/smartstay/internal/model"
	"github.com/iliyamo/smartstay/internal/utils"
)

func newTokenCommand() *cobra.Command {
	var (
		subject string
		role    string
		ttl     int
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development access token signed with JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := os.Getenv("JWT_SECRET")
			if secret == "" {
				return errors.New("JWT_SECRET is not set")
			}
			if role != model.RoleStudent && role != model.RoleAdmin {
				return fmt.Errorf("invalid role %q: must be %s or %s", role, model.RoleStudent, model.RoleAdmin)
			}
			tok, err := utils.NewAccessToken(secret, subject, role, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok.Token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "sub", "", "caller id (required)")
	_ = cmd.MarkFlagRequired("sub")
	cmd.Flags().StringVar(&role, "role", model.RoleStudent, "student or admin")
	cmd.Flags().IntVar(&ttl, "ttl", 60, "lifetime in minutes")
	return cmd
}
