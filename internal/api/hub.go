/*
Package api
File: hub.go
Description:
    The WebSocket Hub is the real-time link to the presentation layer.

    It maintains a registry of active clients grouped by player, and routes
    each player's state snapshots to every socket that player has open.
    The engine calls Notify; the Hub goroutine does all socket bookkeeping,
    so the simulation never touches a connection directly.

    Architecture:
    - Hub: the registry and router, run as one goroutine.
    - Client: one browser connection for one player.
    - ServeWs (handlers.go): upgrades the request and wires a Client to the engine.
*/

package api

import (
	"context"
	"encoding/json"
	"log"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/everforgeworks/resource-rush/internal/game"
)

// Message defines the standard JSON envelope for all real-time communication.
type Message struct {
	Type    string      `json:"type"`    // "welcome", "player_state", "error"
	Payload interface{} `json:"payload"` // The actual data
	Sender  string      `json:"sender"`  // "server"
}

// Client represents a single connected browser tab.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte // Buffered channel for outbound messages
	playerID string
	connID   string
	limiter  *rate.Limiter // nil = unlimited
}

type delivery struct {
	playerID string
	data     []byte
}

// Hub maintains the set of active clients and delivers snapshots to them.
type Hub struct {
	// playerID -> set of that player's clients.
	clients map[string]map[*Client]bool

	deliver    chan delivery
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	logger     *log.Logger
}

// NewHub creates a new Hub instance. Run it as a goroutine.
func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		deliver:    make(chan delivery, 1024),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run is the main event loop for the Hub. It returns when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, set := range h.clients {
				for client := range set {
					close(client.send)
				}
			}
			h.clients = make(map[string]map[*Client]bool)
			h.logger.Println("WS: Hub stopped")
			return

		case client := <-h.register:
			h.add(client)

		case client := <-h.unregister:
			h.remove(client)

		case d := <-h.deliver:
			h.dispatch(d)
		}
	}
}

func (h *Hub) add(client *Client) {
	set := h.clients[client.playerID]
	if set == nil {
		set = make(map[*Client]bool)
		h.clients[client.playerID] = set
	}
	set[client] = true
	h.logger.Printf("WS: %s connected (%s, %d open)", client.playerID, client.connID, len(set))
}

func (h *Hub) dispatch(d delivery) {
	for client := range h.clients[d.playerID] {
		select {
		case client.send <- d.data:
		default:
			// If the client's send buffer is full, assume they hung.
			h.logger.Printf("WS: dropping slow client %s (%s)", client.playerID, client.connID)
			h.remove(client)
		}
	}
}

func (h *Hub) remove(client *Client) {
	set, ok := h.clients[client.playerID]
	if !ok || !set[client] {
		return
	}
	delete(set, client)
	close(client.send)
	if len(set) == 0 {
		delete(h.clients, client.playerID)
	}
}

// Notify implements engine.Notifier.
func (h *Hub) Notify(playerID string, snap game.Snapshot) {
	data, err := json.Marshal(Message{Type: "player_state", Payload: snap, Sender: "server"})
	if err != nil {
		h.logger.Printf("WS: marshal snapshot for %s: %v", playerID, err)
		return
	}
	select {
	case h.deliver <- delivery{playerID: playerID, data: data}:
	case <-h.done:
	}
}

// Register adds a client; false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client. Safe to call after the hub has dropped it.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// playerActions is what a socket may do once connected.
type playerActions interface {
	Disconnect(playerID string) bool
	Click(playerID string) bool
	Buy(playerID string, generatorID int) bool
}

// readPump parses player actions until the connection closes.
func (c *Client) readPump(actions playerActions, logger *log.Logger) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
		actions.Disconnect(c.playerID)
	}()
	c.conn.SetReadLimit(4096)

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Printf("WS Error: %v", err)
			}
			return
		}

		var req clientMessage
		if err := json.Unmarshal(message, &req); err != nil {
			continue
		}
		if c.limiter != nil && !c.limiter.Allow() {
			continue
		}
		switch req.Type {
		case "manual_drill":
			actions.Click(c.playerID)
		case "buy_generator":
			actions.Buy(c.playerID, req.GeneratorID)
		default:
			logger.Printf("WS: unknown message type %q from %s", req.Type, c.playerID)
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	defer func() {
		c.conn.Close()
	}()

	// Range over the channel. This loop exits when c.send is closed.
	for message := range c.send {
		w, err := c.conn.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}
		w.Write(message)

		if err := w.Close(); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
