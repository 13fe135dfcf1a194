package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/larder/internal/auth"
	"github.com/dukerupert/larder/internal/push"
)

func vapidCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vapid",
		Short: "Web push key management",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "generate",
		Short: "Print a new VAPID key pair as environment variables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, priv, err := push.GenerateVAPIDKeys()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "LARDER_VAPID_PUBLIC_KEY=%s\n", pub)
			fmt.Fprintf(out, "LARDER_VAPID_PRIVATE_KEY=%s\n", priv)
			return nil
		},
	})
	return cmd
}

// tokenCmd signs a development identity token with LARDER_AUTH_SECRET.
func tokenCmd() *cobra.Command {
	var (
		id  auth.Identity
		ttl time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign an HS256 identity token for local testing",
		Long: `Signs a token the server accepts when it runs with LARDER_AUTH_SECRET.
The issuer is taken from LARDER_AUTH_ISSUER.

Example:
  larderctl token --subject alice --email alice@example.com --name Alice`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := os.Getenv("LARDER_AUTH_SECRET")
			if secret == "" {
				return errors.New("LARDER_AUTH_SECRET is not set")
			}
			token, err := auth.SignHMAC(secret, os.Getenv("LARDER_AUTH_ISSUER"), id, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&id.Subject, "subject", "", "identity subject (required)")
	cmd.Flags().StringVar(&id.Email, "email", "", "email claim")
	cmd.Flags().StringVar(&id.Name, "name", "", "name claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
