package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ETAnderson/shopfeed/internal/api/auth"
)

const (
	privateKeyFile = "jwt_private.pem"
	publicKeyFile  = "jwt_public.pem"
)

func newKeysCmd() *cobra.Command {
	keys := &cobra.Command{
		Use:   "keys",
		Short: "Manage the RS256 token signing keys",
	}

	var (
		outDir string
		bits   int
		force  bool
	)
	gen := &cobra.Command{
		Use:   "gen",
		Short: "Generate an RSA key pair for API tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			privPath := filepath.Join(outDir, privateKeyFile)
			pubPath := filepath.Join(outDir, publicKeyFile)

			if !force {
				if _, err := os.Stat(privPath); err == nil {
					return fmt.Errorf("%s exists (use --force to replace it)", privPath)
				}
			}

			if err := os.MkdirAll(outDir, 0o700); err != nil {
				return fmt.Errorf("mkdir failed: %w", err)
			}

			privPEM, pubPEM, err := auth.GenerateKeyPair(bits)
			if err != nil {
				return err
			}

			if err := os.WriteFile(privPath, privPEM, 0o600); err != nil {
				return fmt.Errorf("write private key failed: %w", err)
			}
			if err := os.WriteFile(pubPath, pubPEM, 0o644); err != nil {
				return fmt.Errorf("write public key failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\nWrote %s\n", privPath, pubPath)
			return nil
		},
	}
	gen.Flags().StringVar(&outDir, "out", "./secrets", "output directory")
	gen.Flags().IntVar(&bits, "bits", 2048, "RSA key size")
	gen.Flags().BoolVar(&force, "force", false, "overwrite an existing key pair")

	keys.AddCommand(gen)
	return keys
}
