package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/property-profile/internal/normalize"
	"github.com/sells-group/property-profile/pkg/geocode"
)

var normalizeAddress string

var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Show the geocoder query rewrites and the street token for an address",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "cache key text: %s\n", normalize.Address(normalizeAddress))
		for i, s := range geocode.Strategies(normalizeAddress) {
			fmt.Fprintf(out, "strategy %d %-16s %s\n", i+1, s.Name, s.Query)
		}
		street, _, _ := strings.Cut(normalizeAddress, ",")
		street = strings.TrimLeft(strings.TrimSpace(street), "0123456789 ")
		fmt.Fprintf(out, "street token: %s\n", normalize.StreetToken(street))
		return nil
	},
}

func init() {
	normalizeCmd.Flags().StringVar(&normalizeAddress, "address", "", "address to normalize")
	_ = normalizeCmd.MarkFlagRequired("address")
	rootCmd.AddCommand(normalizeCmd)
}
