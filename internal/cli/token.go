package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"quiz-generator-service/internal/auth"
	"quiz-generator-service/internal/config"
	"quiz-generator-service/internal/domain"
)

// NewTokenCmd issues a signed token for a user, for local clients and tests.
func NewTokenCmd(configPath *string) *cobra.Command {
	var userID, username string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(username) == "" {
				return fmt.Errorf("--username is required")
			}
			if userID == "" {
				userID = username
			}
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			var opts []auth.Option
			if cfg.Auth.Issuer != "" {
				opts = append(opts, auth.WithIssuer(cfg.Auth.Issuer))
			}
			authn, err := auth.New(cfg.Auth.Secret, config.TTLDuration(cfg.Auth.TTL, 24*time.Hour), opts...)
			if err != nil {
				return err
			}
			token, expires, err := authn.Issue(domain.User{ID: userID, Username: username})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expires.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "user name carried in the token")
	cmd.Flags().StringVar(&userID, "user-id", "", "user id (defaults to the username)")
	return cmd
}
