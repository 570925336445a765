package main

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"retreat/internal/auth"
	"retreat/internal/config"
)

var (
	tokenSubject string
	tokenKey     string
	tokenIssuer  string
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an admin token for the registration API",
	Long: `Mint an HS256 admin token for GET /v1/registrations.

Unless given as flags, the signing key, issuer and lifetime come from the same
JWT_SIGNING_KEY, JWT_ISSUER and ACCESS_TTL variables the API reads.

Examples:
  retreatctl token --subject ops@example.com
  JWT_SIGNING_KEY=... retreatctl token --subject ops | jq -r .access_token`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if !cmd.Flags().Changed("signing-key") {
			tokenKey = cfg.JWTSigningKey
		}
		if !cmd.Flags().Changed("issuer") {
			tokenIssuer = cfg.JWTIssuer
		}
		if !cmd.Flags().Changed("ttl") {
			tokenTTL = cfg.AccessTTL
		}

		tok, err := auth.Issue(tokenSubject, auth.RoleAdmin, tokenIssuer, tokenKey, tokenTTL)
		if err != nil {
			return err
		}
		log.Debug().Str("subject", tokenSubject).Time("expires_at", tok.ExpiresAt).Msg("token issued")
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(tok)
	},
}

func init() {
	tokenCmd.Flags().StringVarP(&tokenSubject, "subject", "s", "", "who the token is for")
	tokenCmd.Flags().StringVar(&tokenKey, "signing-key", "", "HS256 signing key (default $JWT_SIGNING_KEY)")
	tokenCmd.Flags().StringVar(&tokenIssuer, "issuer", "", "token issuer (default $JWT_ISSUER)")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (default $ACCESS_TTL)")
	_ = tokenCmd.MarkFlagRequired("subject")
}
