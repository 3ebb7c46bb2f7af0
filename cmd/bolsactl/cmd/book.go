package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

var bookCmd = &cobra.Command{
	Use:   "book <symbol>",
	Short: "Show the active buy and sell orders for an instrument",
	Args:  cobra.ExactArgs(1),
	RunE:  runBook,
}

func init() {
	rootCmd.AddCommand(bookCmd)
}

type orderRow struct {
	ID      string  `json:"id"`
	OwnerID string  `json:"ownerId"`
	Side    string  `json:"side"`
	Price   float64 `json:"price"`
	Qty     int64   `json:"qty"`
}

func fetchOrders(symbol, side string) ([]orderRow, error) {
	url := fmt.Sprintf("http://%s/api/v1/instruments/%s/book/%s", serverAddr, symbol, side)
	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", side, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("unknown symbol %s", symbol)
	}

	var orders []orderRow
	if err := json.NewDecoder(resp.Body).Decode(&orders); err != nil {
		return nil, fmt.Errorf("decode %s: %w", side, err)
	}
	return orders, nil
}

func printSide(title string, orders []orderRow) {
	fmt.Printf("%s (%d)\n", title, len(orders))
	if len(orders) == 0 {
		fmt.Println("  <empty>")
		return
	}
	for _, o := range orders {
		fmt.Printf("  %8.2f x %-6d %-12s %s\n", o.Price, o.Qty, o.OwnerID, o.ID)
	}
}

func runBook(cmd *cobra.Command, args []string) error {
	symbol := args[0]

	bids, err := fetchOrders(symbol, "bids")
	if err != nil {
		return err
	}
	asks, err := fetchOrders(symbol, "asks")
	if err != nil {
		return err
	}

	printSide("BIDS", bids)
	printSide("ASKS", asks)
	return nil
}
