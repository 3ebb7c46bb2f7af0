// Package api is the remote gateway: a REST surface for queries and order
// submission plus a WebSocket endpoint that carries subscriber callbacks.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/brunovale/bolsa/pkg/exchange"
)

type Server struct {
	log    *zap.SugaredLogger
	ex     *exchange.Exchange
	router *mux.Router
}

func NewServer(ex *exchange.Exchange, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	s := &Server{
		log:    log,
		ex:     ex,
		router: mux.NewRouter(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/instruments", s.handleListInstruments).Methods("GET")
	api.HandleFunc("/instruments/{symbol}", s.handleGetInstrument).Methods("GET")
	api.HandleFunc("/instruments/{symbol}/book/bids", s.handleListBids).Methods("GET")
	api.HandleFunc("/instruments/{symbol}/book/asks", s.handleListAsks).Methods("GET")
	api.HandleFunc("/orders", s.handleSubmitOrder).Methods("POST")

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Handler returns the full HTTP handler, CORS included.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(s.router)
}

// Start serves until the listener fails.
func (s *Server) Start(addr string) error {
	s.log.Infow("api_server_starting", "addr", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handleListInstruments(w http.ResponseWriter, r *http.Request) {
	snap := s.ex.ListInstruments()

	response := make(map[string]InstrumentInfo, len(snap))
	for sym, in := range snap {
		response[sym] = InstrumentInfo{Symbol: in.Symbol, Name: in.Name, Price: in.Price}
	}
	respondJSON(w, response)
}

func (s *Server) handleGetInstrument(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	in, err := s.ex.GetInstrument(symbol)
	if err != nil {
		respondError(w, http.StatusNotFound, "instrument not found", err.Error())
		return
	}
	respondJSON(w, InstrumentInfo{Symbol: in.Symbol, Name: in.Name, Price: in.Price})
}

func (s *Server) handleListBids(w http.ResponseWriter, r *http.Request) {
	s.respondOrders(w, r, exchange.Buy)
}

func (s *Server) handleListAsks(w http.ResponseWriter, r *http.Request) {
	s.respondOrders(w, r, exchange.Sell)
}

func (s *Server) respondOrders(w http.ResponseWriter, r *http.Request, side exchange.Side) {
	symbol := mux.Vars(r)["symbol"]
	if _, err := s.ex.GetInstrument(symbol); err != nil {
		respondError(w, http.StatusNotFound, "instrument not found", err.Error())
		return
	}

	var orders []exchange.Order
	if side == exchange.Buy {
		orders = s.ex.ActiveBuyOrders(symbol)
	} else {
		orders = s.ex.ActiveSellOrders(symbol)
	}

	response := make([]OrderInfo, len(orders))
	for i, o := range orders {
		response[i] = OrderInfo{
			ID:        o.ID,
			OwnerID:   o.OwnerID,
			Symbol:    o.Symbol,
			Side:      o.Side.String(),
			Price:     o.Price,
			Qty:       o.Qty,
			CreatedAt: o.CreatedAt,
		}
	}
	respondJSON(w, response)
}

func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req SubmitOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	var side exchange.Side
	switch req.Side {
	case "buy":
		side = exchange.Buy
	case "sell":
		side = exchange.Sell
	default:
		respondError(w, http.StatusBadRequest, "invalid side", "side must be buy or sell")
		return
	}

	order, err := s.ex.SubmitOrder(req.OwnerID, req.Symbol, side, req.Price, req.Qty)
	switch {
	case errors.Is(err, exchange.ErrNotFound):
		respondError(w, http.StatusNotFound, "instrument not found", err.Error())
		return
	case errors.Is(err, exchange.ErrInvalidOrder):
		respondError(w, http.StatusBadRequest, "invalid order", err.Error())
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, "submit failed", err.Error())
		return
	}

	respondJSON(w, SubmitOrderResponse{
		Status:   "accepted",
		OrderID:  order.ID,
		Executed: order.Executed,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, error string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Message: message,
	})
}
