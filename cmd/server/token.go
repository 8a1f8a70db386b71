package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/labconnect/medtest-booking/internal/middleware"
	"github.com/labconnect/medtest-booking/internal/utils"
)

// tokenCmd mints a development token signed with JWT_SECRET.
func tokenCmd() *cobra.Command {
	var sub, role string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a signed access token for local testing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			switch role {
			case middleware.RoleUser, middleware.RoleSuperadmin:
			default:
				return fmt.Errorf("role must be %s or %s", middleware.RoleUser, middleware.RoleSuperadmin)
			}
			if ttl <= 0 {
				ttl = cfg.TokenTTL
			}
			tok, err := utils.NewAccessToken(cfg.JWTSecret, sub, role, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok.Token)
			return err
		},
	}
	cmd.Flags().StringVar(&sub, "sub", "", "user id placed in the sub claim")
	cmd.Flags().StringVar(&role, "role", middleware.RoleUser, "USER or SUPERADMIN")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime, ACCESS_TOKEN_TTL when unset")
	_ = cmd.MarkFlagRequired("sub")
	return cmd
}
