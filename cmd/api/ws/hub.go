// Package ws relays job events to WebSocket clients.
package ws

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	app "github.com/mark3748/helpdesk-sla/cmd/api/app"
	"github.com/mark3748/helpdesk-sla/cmd/api/auth"
	"github.com/mark3748/helpdesk-sla/internal/jobs"
	"github.com/mark3748/helpdesk-sla/internal/metrics"
)

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	rdb        *redis.Client
	register   chan *Client
	unregister chan *Client
	clients    map[*Client]bool
	broadcast  chan jobs.Event
}

// NewHub constructs a Hub. rdb may be nil to disable cross-process broadcasting.
func NewHub(rdb *redis.Client) *Hub {
	return &Hub{
		rdb:        rdb,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		broadcast:  make(chan jobs.Event, 16),
	}
}

// Run starts the hub loop, optionally subscribing to Redis events.
func (h *Hub) Run(ctx context.Context) {
	var ch <-chan *redis.Message
	if h.rdb != nil {
		sub := h.rdb.Subscribe(ctx, jobs.Channel)
		ch = sub.Channel()
		go func() {
			<-ctx.Done()
			_ = sub.Close()
		}()
	}
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return
		case msg, ok := <-ch:
			if !ok {
				ch = nil
				continue
			}
			var ev jobs.Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err == nil {
				h.send(ev)
			}
		case c := <-h.register:
			h.clients[c] = true
			metrics.WSClients.Inc()
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(c)
			}
		case ev := <-h.broadcast:
			h.send(ev)
		}
	}
}

func (h *Hub) send(ev jobs.Event) {
	for c := range h.clients {
		if ev.Tenant != "" && !c.user.CanAccess(ev.Tenant) {
			continue
		}
		select {
		case c.send <- ev:
		default:
			h.drop(c)
		}
	}
}

func (h *Hub) drop(c *Client) {
	delete(h.clients, c)
	close(c.send)
	metrics.WSClients.Dec()
}

// Broadcast enqueues an event for all clients allowed to see it.
func (h *Hub) Broadcast(ev jobs.Event) { h.broadcast <- ev }

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) { h.register <- c }

// Client represents a WebSocket connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan jobs.Event
	user auth.AuthUser
}

// NewClient constructs a client.
func NewClient(h *Hub, conn *websocket.Conn, user auth.AuthUser) *Client {
	return &Client{hub: h, conn: conn, send: make(chan jobs.Event, 8), user: user}
}

// ReadPump reads messages from the WebSocket to detect disconnects.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		_ = c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

// WritePump writes events to the WebSocket connection.
func (c *Client) WritePump(ctx context.Context) {
	defer func() { _ = c.conn.Close() }()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-c.send:
			if !ok {
				return
			}
			b, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		}
	}
}

// Websocket upgrader with permissive CORS (expected to be protected by middleware).
var Upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// Handler upgrades an authenticated request and attaches it to h.
func Handler(h *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := c.Get("user")
		user, _ := u.(auth.AuthUser)
		if !ok {
			app.AbortError(c, http.StatusUnauthorized, "unauthenticated", "unauthenticated", nil)
			return
		}
		conn, err := Upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Ctx(c.Request.Context()).Warn().Err(err).Msg("websocket upgrade")
			return
		}
		client := NewClient(h, conn, user)
		h.Register(client)
		go client.WritePump(context.WithoutCancel(c.Request.Context()))
		client.ReadPump()
	}
}
