package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/yeremiapane/table-reservations/config"
	"github.com/yeremiapane/table-reservations/utils"
)

func newTokenCmd(configPath *string) *cobra.Command {
	var (
		userID uint
		role   string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a staff or admin API token signed with JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			if role != "staff" && role != "admin" {
				return fmt.Errorf("role must be staff or admin, got %q", role)
			}
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			utils.SetJWTSecret(cfg.JWTSecret)

			token, err := utils.GenerateToken(userID, role, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().UintVar(&userID, "user", 1, "user id carried in the token")
	cmd.Flags().StringVar(&role, "role", "staff", "staff or admin")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	return cmd
}
