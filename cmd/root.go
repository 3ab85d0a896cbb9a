package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/property-profile/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "property-profile",
	Short: "Property profile engine for French addresses",
	Long:  "Geocodes an address, fans out to public data sources (risks, energy, sales, schools, air quality, amenities, safety, companies, urbanism) and merges the answers into one profile.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
