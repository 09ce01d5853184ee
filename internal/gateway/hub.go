// Package gateway manages the WebSocket side of the session engine:
// connection lifecycle, inbound command dispatch, and fan-out of room
// broadcasts.
package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/actout/actout/internal/events"
	"github.com/actout/actout/internal/models"
	"github.com/actout/actout/internal/room"
)

// RoomLookup resolves a join code to its live room.
type RoomLookup interface {
	GetRoom(code string) (*room.Room, error)
}

// ConnectionConfig holds tunables for WebSocket connections.
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	DispatchTimeout time.Duration
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConnectionConfig returns the default WebSocket configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  4096,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		DispatchTimeout: 10 * time.Second,
		CheckOrigin: func(r *http.Request) bool {
			// Party clients connect from whatever origin the host shares.
			return true
		},
	}
}

type broadcastMessage struct {
	code  string
	event events.Event
}

// Hub manages every WebSocket connection, keyed by room code. Broadcast
// fan-out is fire-and-forget per connection; a slow or dead connection
// is dropped, never waited on.
type Hub struct {
	roomConns map[string]map[*Connection]bool
	mu        sync.RWMutex

	rooms       RoomLookup
	upgrader    websocket.Upgrader
	config      ConnectionConfig
	broadcastCh chan broadcastMessage
}

// Connection is one WebSocket client registered under exactly one room.
// Send is never closed; teardown is signalled through done so that late
// writers (error replies, in-flight broadcasts) can never panic.
type Connection struct {
	ID   string
	Code string
	Conn *websocket.Conn
	Send chan []byte
	hub  *Hub

	done      chan struct{}
	closeOnce sync.Once

	// senderMu guards the player binding established by join_game.
	senderMu sync.RWMutex
	sender   room.Sender

	ConnectedAt time.Time
}

// shutdown signals the pumps and closes the socket. Safe to call from
// any goroutine, any number of times.
func (c *Connection) shutdown() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.Conn.Close()
	})
}

// Sender returns the connection's current player binding.
func (c *Connection) Sender() room.Sender {
	c.senderMu.RLock()
	defer c.senderMu.RUnlock()
	return c.sender
}

func (c *Connection) bind(s room.Sender) {
	c.senderMu.Lock()
	c.sender = s
	c.senderMu.Unlock()
}

// NewHub creates a connection hub.
func NewHub(rooms RoomLookup, config ConnectionConfig) *Hub {
	return &Hub{
		roomConns: make(map[string]map[*Connection]bool),
		rooms:     rooms,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan broadcastMessage, 1000),
	}
}

// Run processes broadcast messages until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	log.Info().Msg("connection hub started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("connection hub shutting down")
			return
		case message := <-h.broadcastCh:
			h.handleBroadcast(message)
		}
	}
}

// HandleWS upgrades an HTTP request to a WebSocket bound to a room and
// sends the full snapshot before any incremental event.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request, code string) {
	rm, err := h.rooms.GetRoom(code)
	if err != nil {
		http.Error(w, "game not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade WebSocket connection")
		return
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		Code:        rm.Code(),
		Conn:        conn,
		Send:        make(chan []byte, 256),
		done:        make(chan struct{}),
		hub:         h,
		ConnectedAt: time.Now(),
	}
	h.register(connection)

	go connection.writePump()
	go connection.readPump(rm)

	// Snapshot first, deltas after: a reconnecting socket converges to
	// the authoritative state instead of accumulating stale deltas.
	connection.sendSnapshot(r.Context(), rm)

	log.Info().
		Str("connection_id", connection.ID).
		Str("code", connection.Code).
		Msg("WebSocket connection established")
}

func (c *Connection) sendSnapshot(ctx context.Context, rm *room.Room) {
	ctx, cancel := context.WithTimeout(ctx, c.hub.config.DispatchTimeout)
	defer cancel()
	snap, err := rm.Snapshot(ctx, c.Sender())
	if err != nil {
		c.sendEvent(events.NewError("game not found"))
		return
	}
	c.sendEvent(events.New(events.TypeGameState, snap))
}

func (c *Connection) sendEvent(ev events.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal event")
		return
	}
	select {
	case c.Send <- data:
	case <-c.done:
	default:
		log.Warn().Str("connection_id", c.ID).Msg("connection send buffer full, closing connection")
		c.hub.unregister(c)
		c.shutdown()
	}
}

func (h *Hub) register(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.roomConns[conn.Code] == nil {
		h.roomConns[conn.Code] = make(map[*Connection]bool)
	}
	h.roomConns[conn.Code][conn] = true

	log.Debug().
		Str("connection_id", conn.ID).
		Str("code", conn.Code).
		Int("total_connections", len(h.roomConns[conn.Code])).
		Msg("connection registered")
}

func (h *Hub) unregister(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if connections, exists := h.roomConns[conn.Code]; exists {
		if _, exists := connections[conn]; exists {
			delete(connections, conn)
			if len(connections) == 0 {
				delete(h.roomConns, conn.Code)
			}
			log.Debug().
				Str("connection_id", conn.ID).
				Str("code", conn.Code).
				Msg("connection unregistered")
		}
	}
}

// BroadcastRoom queues an event for every connection in the room. Never
// blocks room processing; a full queue drops the message with a warning.
func (h *Hub) BroadcastRoom(code string, event events.Event) {
	select {
	case h.broadcastCh <- broadcastMessage{code: code, event: event}:
	default:
		log.Warn().Str("code", code).Msg("broadcast channel full, dropping message")
	}
}

// CloseRoom closes every connection registered for a room. Called before
// the room itself is freed so no client silently talks to a dead room.
func (h *Hub) CloseRoom(code string) {
	h.mu.Lock()
	connections := h.roomConns[code]
	delete(h.roomConns, code)
	h.mu.Unlock()

	for conn := range connections {
		conn.Conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "game closed"),
			time.Now().Add(time.Second),
		)
		conn.shutdown()
	}
	if len(connections) > 0 {
		log.Info().Str("code", code).Int("connections", len(connections)).Msg("room connections closed")
	}
}

func (h *Hub) handleBroadcast(message broadcastMessage) {
	h.mu.RLock()
	connections, exists := h.roomConns[message.code]
	if !exists {
		h.mu.RUnlock()
		return
	}
	targets := make([]*Connection, 0, len(connections))
	for conn := range connections {
		targets = append(targets, conn)
	}
	h.mu.RUnlock()

	// The redacted form is shared by everyone but the round's actor, so
	// marshal it once.
	redacted, err := json.Marshal(message.event.Redacted())
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal event for broadcast")
		return
	}
	actorID, hasSecret := eventActor(message.event)

	for _, conn := range targets {
		data := redacted
		if hasSecret {
			if s := conn.Sender(); s.PlayerID == actorID {
				full, err := json.Marshal(message.event)
				if err == nil {
					data = full
				}
			}
		}
		select {
		case conn.Send <- data:
		case <-conn.done:
		default:
			log.Warn().
				Str("connection_id", conn.ID).
				Msg("connection send buffer full, closing connection")
			h.unregister(conn)
			conn.shutdown()
		}
	}

	log.Debug().
		Str("event_type", string(message.event.Type)).
		Str("code", message.code).
		Int("connections", len(targets)).
		Msg("event broadcast")
}

// eventActor returns the actor entitled to the event's embedded secret,
// if the event carries one.
func eventActor(ev events.Event) (uuid.UUID, bool) {
	if ev.Data == nil || ev.Data.Round == nil {
		return uuid.Nil, false
	}
	round := ev.Data.Round
	if round.Token == "" || round.ActorID == nil {
		return uuid.Nil, false
	}
	return *round.ActorID, true
}

// writePump sends queued messages and keepalive pings to the socket.
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.hub.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.hub.unregister(c)
		c.shutdown()
	}()

	for {
		select {
		case <-c.done:
			c.Conn.SetWriteDeadline(time.Now().Add(c.hub.config.WriteTimeout))
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case message := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.hub.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Debug().Err(err).Str("connection_id", c.ID).Msg("failed to write message")
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.hub.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads client messages and dispatches them to the owning room.
func (c *Connection) readPump(rm *room.Room) {
	defer func() {
		c.hub.unregister(c)
		c.shutdown()
	}()

	c.Conn.SetReadLimit(c.hub.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.hub.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.hub.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("connection_id", c.ID).Msg("unexpected WebSocket close")
			}
			return
		}
		c.dispatch(rm, message)
		c.Conn.SetReadDeadline(time.Now().Add(c.hub.config.ReadTimeout))
	}
}

// dispatch decodes one client message and applies it through the room's
// serialized mailbox. Failures go back to this sender only; they never
// mutate state or reach other connections.
func (c *Connection) dispatch(rm *room.Room, message []byte) {
	cmd, err := decodeCommand(message, c.Sender())
	if err != nil {
		c.sendEvent(events.NewError(err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.hub.config.DispatchTimeout)
	defer cancel()

	val, err := rm.Do(ctx, cmd)
	if err != nil {
		log.Debug().
			Err(err).
			Str("connection_id", c.ID).
			Str("kind", string(models.KindOf(err))).
			Msgf("rejected %T", cmd)
		c.sendEvent(events.NewError(err.Error()))
		return
	}

	// join_game binds the connection to the recognized player and hands
	// back a personal snapshot, which restores actor secrets after a
	// reconnect.
	if _, isJoin := cmd.(room.JoinGame); isJoin {
		if player, ok := val.(*models.Player); ok && player != nil {
			c.bind(room.Sender{PlayerID: player.ID})
			c.sendSnapshot(ctx, rm)
		}
	}
}

// Stats reports active connection counts per room.
func (h *Hub) Stats() map[string]int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make(map[string]int, len(h.roomConns))
	for code, conns := range h.roomConns {
		out[code] = len(conns)
	}
	return out
}
