package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/property-profile/internal/export"
	"github.com/sells-group/property-profile/internal/model"
)

var (
	profileAddress  string
	profileRadius   int
	profileLanguage string
	profileXLSX     string
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Build one property profile and print it as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEngine(ctx, cfg, "profile")
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Engine.Build(ctx, model.AddressQuery{
			Text:        profileAddress,
			Radius:      profileRadius,
			Language:    profileLanguage,
			BypassCache: true,
		})
		if err != nil {
			return eris.Wrap(err, "build profile")
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(res.Profile); err != nil {
			return eris.Wrap(err, "encode profile")
		}

		if profileXLSX != "" {
			f, err := os.Create(profileXLSX)
			if err != nil {
				return eris.Wrap(err, "create xlsx")
			}
			defer f.Close() //nolint:errcheck
			if err := export.WriteMarketXLSX(f, res.Profile); err != nil {
				return err
			}
			zap.L().Info("market transactions exported",
				zap.String("path", profileXLSX),
				zap.Int("transactions", len(res.Profile.Market.Transactions)),
			)
		}
		return nil
	},
}

func init() {
	profileCmd.Flags().StringVar(&profileAddress, "address", "", "address to profile")
	profileCmd.Flags().IntVar(&profileRadius, "radius", model.DefaultRadius, "search radius in meters (100-10000)")
	profileCmd.Flags().StringVar(&profileLanguage, "language", model.DefaultLanguage, "recommendation language (fr|en)")
	profileCmd.Flags().StringVar(&profileXLSX, "xlsx", "", "write the market transactions to this XLSX file")
	_ = profileCmd.MarkFlagRequired("address")
	rootCmd.AddCommand(profileCmd)
}
