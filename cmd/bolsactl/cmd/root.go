package cmd

import (
	"github.com/spf13/cobra"
)

var serverAddr string

var rootCmd = &cobra.Command{
	Use:   "bolsactl",
	Short: "Operator CLI for the bolsa exchange simulator",
	Long: `bolsactl talks to a running bolsad instance.

It provides commands for:
  - Listing instruments and their live prices
  - Inspecting an instrument's active buy/sell orders
  - Submitting limit orders
  - Watching price and book change events over WebSocket`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverAddr, "addr", "localhost:8080", "bolsad host:port")
}
