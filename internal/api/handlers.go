/*
Package api
File: handlers.go
Description:
    HTTP surface of the server: the WebSocket endpoint and a small REST API.
    Handlers never touch player state directly. They forward actions to the
    engine, which applies them under the player's lock and pushes the
    resulting snapshot back through the Hub.

    Key Responsibilities:
    - Player identity (query parameter or a freshly issued id)
    - Input Validation (Is the JSON valid? Is the player connected?)
    - Rate limiting of player actions
*/

package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/everforgeworks/resource-rush/internal/game"
)

// Actions is the slice of the engine the transport drives.
type Actions interface {
	Connect(ctx context.Context, playerID string) error
	Disconnect(playerID string) bool
	Click(playerID string) bool
	Buy(playerID string, generatorID int) bool
	Snapshot(playerID string) (game.Snapshot, bool)
	Catalog() *game.Catalog
}

// Request DTOs (Data Transfer Objects)

type clientMessage struct {
	Type        string `json:"type"` // "manual_drill", "buy_generator"
	GeneratorID int    `json:"generator_id"`
}

type BuyGeneratorRequest struct {
	GeneratorID int `json:"generator_id"`
}

type WelcomePayload struct {
	PlayerID string `json:"player_id"`
}

const maxPlayerIDLen = 64

type Options struct {
	ClickRate  float64 // Actions per second per player; 0 disables limiting
	ClickBurst int
	SendBuffer int
	Logger     *log.Logger
}

// Server binds the engine and the Hub to HTTP routes.
type Server struct {
	actions  Actions
	hub      *Hub
	opts     Options
	logger   *log.Logger
	limiters *limiterSet
}

func NewServer(actions Actions, hub *Hub, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 256
	}
	return &Server{
		actions:  actions,
		hub:      hub,
		opts:     opts,
		logger:   logger,
		limiters: newLimiterSet(opts.ClickRate, opts.ClickBurst),
	}
}

// Routes returns the full handler tree, CORS included.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	// Information Endpoints
	mux.HandleFunc("GET /health", s.HandleHealth)
	mux.HandleFunc("GET /api/catalog", s.HandleGetCatalog)
	mux.HandleFunc("GET /api/players/{id}/state", s.HandleGetState)

	// Action Endpoints
	mux.HandleFunc("POST /api/players/{id}/drill", s.HandleDrill)
	mux.HandleFunc("POST /api/players/{id}/buy", s.HandleBuy)

	// Real-Time WebSocket Endpoint
	mux.HandleFunc("GET /ws", s.ServeWs)

	return corsMiddleware(mux)
}

// upgrader configures the WebSocket handshake.
// CheckOrigin returns true to allow connections from any host (CORS permissive for development).
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWs upgrades the request and attaches the connection to its player.
// Without a ?player= parameter a new id is issued in a "welcome" message.
func (s *Server) ServeWs(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("player")
	if len(playerID) > maxPlayerIDLen {
		http.Error(w, "Invalid player id", http.StatusBadRequest)
		return
	}
	if playerID == "" {
		playerID = uuid.NewString()
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Println("WS Upgrade Error:", err)
		return
	}

	client := &Client{
		hub:      s.hub,
		conn:     conn,
		send:     make(chan []byte, s.opts.SendBuffer),
		playerID: playerID,
		connID:   uuid.NewString(),
		limiter:  s.limiters.acquire(playerID),
	}

	// Welcome goes first so the id precedes any state.
	if welcome, err := json.Marshal(Message{Type: "welcome", Payload: WelcomePayload{PlayerID: playerID}, Sender: "server"}); err == nil {
		client.send <- welcome
	}

	// Register before connecting so the initial snapshot has somewhere to go.
	if !s.hub.Register(client) {
		s.limiters.release(playerID)
		conn.Close()
		return
	}

	if err := s.actions.Connect(r.Context(), playerID); err != nil {
		s.logger.Printf("WS: connect %s failed: %v", playerID, err)
		s.hub.Unregister(client)
		if _, ok := s.actions.Snapshot(playerID); !ok {
			s.limiters.release(playerID)
		}
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "state unavailable"))
		conn.Close()
		return
	}
	go client.writePump()
	go client.readPump(evictingActions{s}, s.logger)
}

// evictingActions releases the player's limiter once their session is gone.
type evictingActions struct{ *Server }

func (a evictingActions) Disconnect(playerID string) bool {
	evicted := a.actions.Disconnect(playerID)
	if evicted {
		a.limiters.release(playerID)
	}
	return evicted
}

func (a evictingActions) Click(playerID string) bool { return a.actions.Click(playerID) }

func (a evictingActions) Buy(playerID string, generatorID int) bool {
	return a.actions.Buy(playerID, generatorID)
}

// HandleHealth is a liveness probe.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// HandleGetCatalog returns the static catalog.
func (s *Server) HandleGetCatalog(w http.ResponseWriter, r *http.Request) {
	cat := s.actions.Catalog()
	if cat == nil {
		http.Error(w, "Catalog not loaded", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

// HandleGetState returns the current snapshot of a connected player.
func (s *Server) HandleGetState(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.actions.Snapshot(r.PathValue("id"))
	if !ok {
		http.Error(w, "Player not connected", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// HandleDrill queues one manual drill. The new state arrives over the socket.
func (s *Server) HandleDrill(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.limiters.allow(id) {
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
		return
	}
	s.actions.Click(id)
	w.WriteHeader(http.StatusAccepted)
}

// HandleBuy queues a generator purchase. Unaffordable purchases are silently ignored.
func (s *Server) HandleBuy(w http.ResponseWriter, r *http.Request) {
	var req BuyGeneratorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	id := r.PathValue("id")
	if !s.limiters.allow(id) {
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
		return
	}
	s.actions.Buy(id, req.GeneratorID)
	w.WriteHeader(http.StatusAccepted)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// corsMiddleware lets browser clients on other origins reach the API.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// limiterSet holds one token bucket per connected player, shared by all of
// that player's sockets and the REST actions.
type limiterSet struct {
	mu    sync.Mutex
	byID  map[string]*rate.Limiter
	limit rate.Limit
	burst int
}

func newLimiterSet(perSecond float64, burst int) *limiterSet {
	if burst <= 0 {
		burst = 1
	}
	return &limiterSet{byID: make(map[string]*rate.Limiter), limit: rate.Limit(perSecond), burst: burst}
}

// acquire returns the player's limiter, nil when limiting is disabled.
func (l *limiterSet) acquire(playerID string) *rate.Limiter {
	if l.limit <= 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.byID[playerID]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.byID[playerID] = lim
	}
	return lim
}

func (l *limiterSet) release(playerID string) {
	l.mu.Lock()
	delete(l.byID, playerID)
	l.mu.Unlock()
}

// allow spends a token. Players without a limiter have no session, so
// the action is a no-op downstream anyway.
func (l *limiterSet) allow(playerID string) bool {
	if l.limit <= 0 {
		return true
	}
	l.mu.Lock()
	lim := l.byID[playerID]
	l.mu.Unlock()
	return lim == nil || lim.Allow()
}
