package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"discount-codes/internal/model"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 256
	commandBacklog = 16
)

const msgTooManyCommands = "Too many pending commands"

var (
	// ErrHubClosed is returned by Publish after the hub stopped running.
	ErrHubClosed = errors.New("hub closed")

	// ErrClientGone is returned when sending to a client that disconnected.
	ErrClientGone = errors.New("client disconnected")
)

// MessageHandler processes a message received from a websocket client.
type MessageHandler func(ctx context.Context, client *Client, data []byte)

// Hub keeps track of connected websocket clients and broadcasts events to them.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
	lock       sync.RWMutex
	upgrader   websocket.Upgrader
	logger     zerolog.Logger
}

// NewHub creates a hub. Run must be started before clients connect.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, sendBufferSize),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger.With().Str("component", "hub").Logger(),
	}
}

// Run serves registrations and broadcasts until ctx is cancelled, then
// disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		h.lock.Lock()
		for id, client := range h.clients {
			delete(h.clients, id)
			close(client.send)
		}
		h.lock.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.lock.Lock()
			h.clients[client.id] = client
			h.lock.Unlock()
			h.logger.Debug().Str("client_id", client.id).Msg("client registered")
		case client := <-h.unregister:
			h.remove(client)
		case message := <-h.broadcast:
			h.lock.Lock()
			for id, client := range h.clients {
				select {
				case client.send <- message:
				default:
					delete(h.clients, id)
					close(client.send)
					h.logger.Warn().Str("client_id", id).Msg("dropping slow client")
				}
			}
			h.lock.Unlock()
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.lock.Lock()
	defer h.lock.Unlock()
	if _, ok := h.clients[client.id]; ok {
		delete(h.clients, client.id)
		close(client.send)
		h.logger.Debug().Str("client_id", client.id).Msg("client unregistered")
	}
}

// Publish broadcasts event to every connected client.
func (h *Hub) Publish(ctx context.Context, event model.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	select {
	case <-h.done:
		return ErrHubClosed
	default:
	}

	select {
	case h.broadcast <- data:
		return nil
	case <-h.done:
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades the request to a websocket connection and registers the
// client. Every text message the client sends is passed to onMessage.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, onMessage MessageHandler) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("failed to upgrade websocket connection")
		return
	}

	client := &Client{
		id:   uuid.NewString(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}

	select {
	case h.register <- client:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go client.writePump()
	go client.readPump(onMessage)
}

// Client is a single websocket connection.
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// ID returns the identifier assigned to the connection.
func (c *Client) ID() string {
	return c.id
}

// Send delivers event to this client only.
func (c *Client) Send(event model.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	c.hub.lock.RLock()
	defer c.hub.lock.RUnlock()

	if _, ok := c.hub.clients[c.id]; !ok {
		return ErrClientGone
	}

	select {
	case c.send <- data:
		return nil
	default:
		return fmt.Errorf("send buffer full for client %s", c.id)
	}
}

// readPump keeps reading while commands run on a separate goroutine, so a
// disconnect cancels the context of the command in flight.
func (c *Client) readPump(onMessage MessageHandler) {
	ctx, cancel := context.WithCancel(context.Background())
	commands := make(chan []byte, commandBacklog)
	go c.runCommands(ctx, commands, onMessage)

	defer func() {
		cancel()
		close(commands)
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn().Err(err).Str("client_id", c.id).Msg("websocket read failed")
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		select {
		case commands <- data:
		default:
			c.hub.logger.Warn().Str("client_id", c.id).Msg("command backlog full, rejecting message")
			_ = c.Send(model.ErrorEvent(msgTooManyCommands, time.Now()))
		}
	}
}

// runCommands handles messages one at a time in arrival order. Messages still
// queued when the connection closes are skipped.
func (c *Client) runCommands(ctx context.Context, commands <-chan []byte, onMessage MessageHandler) {
	for data := range commands {
		if ctx.Err() != nil {
			continue
		}
		onMessage(ctx, c, data)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
