package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/feegateway/internal/auth"
)

var (
	tokenService  string
	tokenTenantID int64
	tokenTTL      time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a service token",
	Long:  `Issue a service token that lets a school portal call the checkout and settings API for one tenant.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		issuer, err := auth.NewJWTTokenService(cfg.Security.JWTSecret)
		if err != nil {
			log.Fatalf("failed to initialize token service: %v", err)
		}

		ttl := tokenTTL
		if ttl <= 0 {
			ttl = cfg.Security.ServiceTokenTTL
		}

		token, err := issuer.Issue(tokenService, tokenTenantID, ttl)
		if err != nil {
			log.Fatalf("failed to issue token: %v", err)
		}
		fmt.Println(token)
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenService, "service", "school-portal", "calling service name")
	tokenCmd.Flags().Int64Var(&tokenTenantID, "tenant", 0, "tenant id the token is scoped to")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (defaults to security.service_token_ttl)")
	_ = tokenCmd.MarkFlagRequired("tenant")
}
