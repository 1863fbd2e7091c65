package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ETAnderson/shopfeed/internal/api/auth"
	"github.com/ETAnderson/shopfeed/internal/api/tenantctx"
)

func newTokenCmd() *cobra.Command {
	token := &cobra.Command{
		Use:   "token",
		Short: "Work with API bearer tokens",
	}

	var (
		tenantID uint64
		ttl      time.Duration
		issuer   string
		subject  string
		envKey   string
	)
	mint := &cobra.Command{
		Use:   "mint",
		Short: "Sign a token with the private key held in an env var",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := strings.TrimSpace(os.Getenv(envKey))
			if raw == "" {
				return fmt.Errorf("%s is not set", envKey)
			}

			priv, err := auth.ParseRSAPrivateKeyPEM(raw)
			if err != nil {
				return fmt.Errorf("load private key failed: %w", err)
			}

			s, err := auth.MintRS256(priv, auth.MintOptions{
				TenantID: tenantID,
				Issuer:   issuer,
				Subject:  subject,
				TTL:      ttl,
			})
			if err != nil {
				return fmt.Errorf("sign token failed: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), s)
			return nil
		},
	}

	f := mint.Flags()
	f.Uint64Var(&tenantID, "tenant", tenantctx.DefaultTenantID, "tenant_id claim value")
	f.DurationVar(&ttl, "ttl", 30*time.Minute, "token TTL (e.g. 30m, 2h)")
	f.StringVar(&issuer, "iss", auth.DefaultIssuer, "issuer (iss)")
	f.StringVar(&subject, "sub", "dev-client", "subject (sub)")
	f.StringVar(&envKey, "env", "JWT_PRIVATE_KEY_PEM", "env var containing RSA private key PEM")

	token.AddCommand(mint)
	return token
}
