package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/feegateway/internal/tenant"
	"github.com/frahmantamala/feegateway/pkg/logger"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with demo tenant settings",
	Long:  `Seed the database with demo tenant payment settings for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		service, err := newTenantService(cfg, db, logger.LoggerWrapper())
		if err != nil {
			log.Fatal(err)
		}

		ctx := context.Background()
		for _, demo := range demoTenants() {
			if err := service.Save(ctx, demo.tenantID, demo.settings); err != nil {
				log.Fatalf("failed to seed tenant %d: %v", demo.tenantID, err)
			}
			fmt.Printf("Seeded tenant %d: %s\n", demo.tenantID, demo.description)
		}
	},
}

type demoTenant struct {
	tenantID    int64
	description string
	settings    *tenant.SaveSettingsDTO
}

func demoTenants() []demoTenant {
	testMode := true
	return []demoTenant{
		{
			tenantID:    1,
			description: "HDFC credentials, simulation mode",
			settings: &tenant.SaveSettingsDTO{
				Provider:   "hdfc",
				MerchantID: "HDFC-DEMO-001",
				SecretKey:  "hdfc-demo-secret",
				AccessCode: "AC-DEMO-001",
				TestMode:   &testMode,
			},
		},
		{
			tenantID:    2,
			description: "ICICI credentials, simulation mode",
			settings: &tenant.SaveSettingsDTO{
				Provider:   "icici",
				MerchantID: "ICICI-DEMO-002",
				SecretKey:  "0123456789abcdef",
				AccessCode: "AC-DEMO-002",
				TestMode:   &testMode,
			},
		},
	}
}
