package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	httpmiddleware "github.com/miz-art/Micro-narrativesxHarms-June25/internal/http/middleware"
)

func newTokenCmd() *cobra.Command {
	var (
		secret  string
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a researcher token for the admin API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if secret == "" {
				secret = os.Getenv("ADMIN_JWT_SECRET")
			}
			if secret == "" {
				return errors.New("a secret is required: pass --secret or set ADMIN_JWT_SECRET")
			}
			token, err := httpmiddleware.IssueAdminToken(secret, subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", "", "HMAC secret (defaults to ADMIN_JWT_SECRET)")
	cmd.Flags().StringVar(&subject, "subject", "researcher", "Token subject, usually the researcher's email")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "Token lifetime")
	return cmd
}
