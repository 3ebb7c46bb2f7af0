package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

var (
	submitOwner string
	submitSide  string
	submitPrice float64
	submitQty   int64
)

var submitCmd = &cobra.Command{
	Use:   "submit <symbol>",
	Short: "Submit a limit order",
	Long: `Submit a limit order to the exchange.

Examples:
  bolsactl submit PETR4 --side buy --price 28.75 --qty 100
  bolsactl submit VALE3 --side sell --price 70.00 --qty 50 --owner inv-7`,
	Args: cobra.ExactArgs(1),
	RunE: runSubmit,
}

func init() {
	submitCmd.Flags().StringVar(&submitOwner, "owner", "bolsactl", "owner id recorded on the order")
	submitCmd.Flags().StringVar(&submitSide, "side", "", "buy or sell (required)")
	submitCmd.Flags().Float64Var(&submitPrice, "price", 0, "limit price (required)")
	submitCmd.Flags().Int64Var(&submitQty, "qty", 0, "quantity (required)")
	submitCmd.MarkFlagRequired("side")
	submitCmd.MarkFlagRequired("price")
	submitCmd.MarkFlagRequired("qty")
	rootCmd.AddCommand(submitCmd)
}

func runSubmit(cmd *cobra.Command, args []string) error {
	body, err := json.Marshal(map[string]interface{}{
		"ownerId": submitOwner,
		"symbol":  args[0],
		"side":    submitSide,
		"price":   submitPrice,
		"qty":     submitQty,
	})
	if err != nil {
		return err
	}

	resp, err := http.Post(
		fmt.Sprintf("http://%s/api/v1/orders", serverAddr),
		"application/json",
		bytes.NewReader(body),
	)
	if err != nil {
		return fmt.Errorf("submit order: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil {
			return fmt.Errorf("rejected: %s: %s", apiErr.Error, apiErr.Message)
		}
		return fmt.Errorf("rejected: status %d", resp.StatusCode)
	}

	var ack struct {
		Status   string `json:"status"`
		OrderID  string `json:"orderId"`
		Executed bool   `json:"executed"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	fmt.Printf("%s: order %s", ack.Status, ack.OrderID)
	if ack.Executed {
		fmt.Print(" (executed immediately)")
	}
	fmt.Println()
	return nil
}
