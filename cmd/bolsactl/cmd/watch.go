package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

var watchID string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream price and book change events",
	Long: `Subscribe to the exchange event feed over WebSocket and print
every price and book change until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchID, "id", "", "subscriber id (defaults to a connection-derived id)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	u := url.URL{Scheme: "ws", Host: serverAddr, Path: "/ws"}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", u.String(), err)
	}
	defer conn.Close()

	sub, _ := json.Marshal(map[string]string{"op": "subscribe", "id": watchID})
	if err := conn.WriteMessage(websocket.TextMessage, sub); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	done := make(chan error, 1)
	go func() {
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				done <- err
				return
			}
			// The server may fold several newline-separated events
			// into one frame.
			for _, line := range bytes.Split(message, []byte{'\n'}) {
				if len(line) > 0 {
					printEvent(line)
				}
			}
		}
	}()

	select {
	case err := <-done:
		return fmt.Errorf("connection closed: %w", err)
	case <-interrupt:
		// Best-effort clean close.
		deadline := time.Now().Add(time.Second)
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		return nil
	}
}

func printEvent(message []byte) {
	var ev struct {
		Type     string  `json:"type"`
		Symbol   string  `json:"symbol"`
		OldPrice float64 `json:"oldPrice"`
		NewPrice float64 `json:"newPrice"`
	}
	if err := json.Unmarshal(message, &ev); err != nil {
		fmt.Println(string(message))
		return
	}
	switch ev.Type {
	case "price":
		fmt.Printf("[price] %-6s %8.2f -> %8.2f\n", ev.Symbol, ev.OldPrice, ev.NewPrice)
	case "book":
		fmt.Printf("[book]  %-6s changed\n", ev.Symbol)
	default:
		fmt.Println(string(message))
	}
}
