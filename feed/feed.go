// Package feed broadcasts fight outcomes to websocket clients as JSON.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/nathoo/arena/engine/state"
)

const writeWait = 5 * time.Second

// Entity describes one side of a fight.
type Entity struct {
	ID   int    `json:"id" jsonschema:"description=Registry handle of the entity"`
	Kind string `json:"kind" jsonschema:"enum=dragon,enum=elf,enum=knight"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

// Message is one fight outcome as sent to clients.
type Message struct {
	ID          string    `json:"id" jsonschema:"description=ULID of the outcome, sortable by time"`
	At          time.Time `json:"at"`
	Attacker    Entity    `json:"attacker"`
	AttackRoll  int       `json:"attack_roll" jsonschema:"minimum=1,maximum=6"`
	Defender    Entity    `json:"defender"`
	DefenseRoll int       `json:"defense_roll" jsonschema:"minimum=1,maximum=6"`
	Win         bool      `json:"win" jsonschema:"description=True when the defender died"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub is an observer that fans every outcome out to connected clients.
// Each client has a bounded outbox; when it is full the message is dropped
// for that client so a slow reader never stalls the resolver.
type Hub struct {
	log      *zap.Logger
	buffer   int
	upgrader websocket.Upgrader
	now      func() time.Time

	mu      sync.Mutex
	clients map[*client]struct{}

	sent    atomic.Int64
	dropped atomic.Int64
}

// NewHub creates a hub whose clients buffer up to buffer messages.
func NewHub(buffer int, log *zap.Logger) *Hub {
	if buffer < 1 {
		buffer = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		log:    log.Named("feed"),
		buffer: buffer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		now:     time.Now,
		clients: make(map[*client]struct{}),
	}
}

// OnFight marshals the outcome once and hands it to every client.
func (h *Hub) OnFight(attacker *state.NPC, attackRoll int, defender *state.NPC, defenseRoll int, win bool) {
	at := h.now()
	a, d := attacker.Snapshot(), defender.Snapshot()
	msg := Message{
		ID:          ulid.MustNew(ulid.Timestamp(at), ulid.DefaultEntropy()).String(),
		At:          at.UTC(),
		Attacker:    Entity{ID: a.ID, Kind: a.Kind.String(), X: a.X, Y: a.Y},
		AttackRoll:  attackRoll,
		Defender:    Entity{ID: d.ID, Kind: d.Kind.String(), X: d.X, Y: d.Y},
		DefenseRoll: defenseRoll,
		Win:         win,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("marshal fight", zap.Error(err))
		return
	}
	h.broadcast(data)
}

func (h *Hub) broadcast(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
			h.sent.Add(1)
		default:
			h.dropped.Add(1)
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Dropped returns how many messages were dropped on full outboxes.
func (h *Hub) Dropped() int64 { return h.dropped.Load() }

// Sent returns how many messages were queued to clients.
func (h *Hub) Sent() int64 { return h.sent.Load() }

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Info("client connected", zap.Int("clients", n))
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	close(c.send)
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Info("client disconnected", zap.Int("clients", n))
}

// Handler upgrades requests to websocket connections and streams fight
// messages until the client goes away. Clients never send anything
// meaningful; reads only detect disconnects.
func (h *Hub) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.log.Warn("upgrade failed", zap.String("remote", r.RemoteAddr), zap.Error(err))
			return
		}
		c := &client{conn: conn, send: make(chan []byte, h.buffer)}
		h.register(c)

		go h.writeLoop(c)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		h.unregister(c)
	})
}

func (h *Hub) writeLoop(c *client) {
	defer c.conn.Close()
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.log.Debug("write failed", zap.Error(err))
			h.unregister(c)
			// Drain so unregister's close ends the loop.
			for range c.send {
			}
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()
	for _, c := range clients {
		h.unregister(c)
	}
}

// ListenAndServe serves the feed on addr until ctx is done.
func (h *Hub) ListenAndServe(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/fights", h.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	h.log.Info("feed listening", zap.String("addr", addr))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	h.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
