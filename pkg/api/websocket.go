package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS is handled by the main server.
		return true
	},
}

// wsClient is one WebSocket connection acting as a subscriber handle. The
// hub's delivery worker hands events to OnPriceChanged/OnBookChanged, which
// enqueue frames for writePump; the connection's write deadline and send
// buffer turn an unreachable peer into a delivery failure, which gets the
// handle evicted.
type wsClient struct {
	conn *websocket.Conn
	send chan []byte

	mu    sync.Mutex
	subID string // registered subscriber id, "" when not subscribed
}

func (c *wsClient) OnPriceChanged(symbol string, oldPrice, newPrice float64) error {
	return c.push(WSEvent{
		Type:      "price",
		Symbol:    symbol,
		OldPrice:  oldPrice,
		NewPrice:  newPrice,
		Timestamp: time.Now().UnixMilli(),
	})
}

func (c *wsClient) OnBookChanged(symbol string) error {
	return c.push(WSEvent{
		Type:      "book",
		Symbol:    symbol,
		Timestamp: time.Now().UnixMilli(),
	})
}

func (c *wsClient) push(ev WSEvent) error {
	message, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	select {
	case c.send <- message:
		return nil
	default:
		return fmt.Errorf("subscriber send buffer full")
	}
}

// readPump handles subscribe/unsubscribe control messages until the
// connection drops, then tears the subscription down.
func (c *wsClient) readPump(s *Server) {
	defer func() {
		c.mu.Lock()
		id := c.subID
		c.subID = ""
		c.mu.Unlock()
		if id != "" {
			s.ex.Unsubscribe(id)
		}
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.log.Warnw("ws_read_error", "err", err)
			}
			return
		}

		var req WSRequest
		if err := json.Unmarshal(message, &req); err != nil {
			s.log.Warnw("ws_invalid_message", "err", err)
			continue
		}

		switch req.Op {
		case "subscribe":
			id := req.ID
			if id == "" {
				id = c.conn.RemoteAddr().String()
			}
			c.mu.Lock()
			prev := c.subID
			c.subID = id
			c.mu.Unlock()
			// A connection holds at most one registration; subscribing
			// under a new id replaces the old one.
			if prev != "" && prev != id {
				s.ex.Unsubscribe(prev)
			}
			s.ex.Subscribe(id, c)
			s.log.Infow("ws_subscribed", "id", id)
		case "unsubscribe":
			c.mu.Lock()
			id := c.subID
			c.subID = ""
			c.mu.Unlock()
			if id != "" {
				s.ex.Unsubscribe(id)
				s.log.Infow("ws_unsubscribed", "id", id)
			}
		default:
			s.log.Warnw("ws_unknown_op", "op", req.Op)
		}
	}
}

// writePump is the single writer on the connection: queued events plus
// keepalive pings, each under a write deadline.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Fold queued messages into the same write.
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleWebSocket upgrades the connection and runs the pumps.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnw("ws_upgrade_error", "err", err)
		return
	}

	client := &wsClient{
		conn: conn,
		send: make(chan []byte, 256),
	}

	go client.writePump()
	go client.readPump(s)
}
