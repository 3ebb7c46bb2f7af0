package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"github.com/spf13/cobra"
)

var instrumentsCmd = &cobra.Command{
	Use:   "instruments",
	Short: "List instruments and their current prices",
	Args:  cobra.NoArgs,
	RunE:  runInstruments,
}

func init() {
	rootCmd.AddCommand(instrumentsCmd)
}

type instrumentRow struct {
	Symbol string  `json:"symbol"`
	Name   string  `json:"name"`
	Price  float64 `json:"price"`
}

func runInstruments(cmd *cobra.Command, args []string) error {
	resp, err := http.Get(fmt.Sprintf("http://%s/api/v1/instruments", serverAddr))
	if err != nil {
		return fmt.Errorf("list instruments: %w", err)
	}
	defer resp.Body.Close()

	var snapshot map[string]instrumentRow
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	symbols := make([]string, 0, len(snapshot))
	for sym := range snapshot {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	fmt.Printf("%-8s %-24s %10s\n", "SYMBOL", "NAME", "PRICE")
	for _, sym := range symbols {
		in := snapshot[sym]
		fmt.Printf("%-8s %-24s %10.2f\n", in.Symbol, in.Name, in.Price)
	}
	return nil
}
