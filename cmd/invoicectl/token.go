package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/garyjia/clinic-invoice/internal/container"
	"github.com/garyjia/clinic-invoice/pkg/utils"
)

var (
	tokenOwner string
	tokenEmail string
	tokenTTL   time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Sign a development access token with the configured secret",
	Long: `Sign a development access token with the configured secret.

The token is accepted by the API as "Authorization: Bearer <token>".

Examples:
  invoicectl token --owner 4f1c2a5e-8f3e-4a44-9d3b-1f5b7a1f0c11
  invoicectl token --owner $(uuidgen) --email dr@example.com --ttl 24h`,
	Args: cobra.NoArgs,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenOwner, "owner", "", "owner id (uuid) placed in the subject claim")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "email claim")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "token lifetime")
	_ = tokenCmd.MarkFlagRequired("owner")
}

func runToken(cmd *cobra.Command, args []string) error {
	if err := utils.ValidateOwnerID(tokenOwner); err != nil {
		return err
	}
	if tokenEmail != "" {
		if err := utils.ValidateEmail(tokenEmail); err != nil {
			return err
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	verifier, err := container.ProvideVerifier(&cfg.Auth)
	if err != nil {
		return err
	}

	token, err := verifier.Issue(tokenOwner, tokenEmail, tokenTTL)
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
