package realtime

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/giftwavehq/giftwave-backend/pkg/logger"
)

// Message types pushed to dashboard clients.
const (
	MessageTypeNewActivity     = "new_activity"
	MessageTypeActivityCount   = "activity_count"
	MessageTypeNewNotification = "new_notification"
	MessageTypeUnreadCount     = "unread_count"
	MessageTypePing            = "ping"
	MessageTypePong            = "pong"
)

// RoomAdmin receives every platform-wide event. Merchant rooms only receive
// events addressed to that merchant's account.
const RoomAdmin = "admin"

// MerchantRoom returns the room name for a merchant user.
func MerchantRoom(userID uuid.UUID) string {
	return "merchant:" + userID.String()
}

// Message is the wire envelope written to websocket clients.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type envelope struct {
	room string
	msg  Message
}

// Hub tracks connected clients per room and fans messages out to them.
// Delivery is best-effort: a full broadcast queue or a slow client drops
// messages rather than blocking producers.
type Hub struct {
	logg       *logger.Logger
	rooms      map[string]map[*Client]bool
	broadcast  chan envelope
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

// NewHub builds an empty hub.
func NewHub(logg *logger.Logger) (*Hub, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Hub{
		logg:       logg,
		rooms:      make(map[string]map[*Client]bool),
		broadcast:  make(chan envelope, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}, nil
}

// Run processes lifecycle and broadcast events until ctx is cancelled.
// Lifecycle events win over broadcasts so room membership is settled before
// messages are delivered.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.closeAll(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.register:
			h.addClient(ctx, client)
			continue
		case client := <-h.unregister:
			h.removeClient(ctx, client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.closeAll(ctx)
			return ctx.Err()
		case client := <-h.register:
			h.addClient(ctx, client)
		case client := <-h.unregister:
			h.removeClient(ctx, client)
		case env := <-h.broadcast:
			h.deliver(env)
		}
	}
}

// Publish queues a message for every client in the room. It never blocks; when
// the broadcast queue is full the message is dropped and logged.
func (h *Hub) Publish(ctx context.Context, room string, msg Message) {
	select {
	case h.broadcast <- envelope{room: room, msg: msg}:
	default:
		warnCtx := h.logg.WithFields(ctx, map[string]any{
			"room":         room,
			"message_type": msg.Type,
		})
		h.logg.Warn(warnCtx, "broadcast queue full, dropping realtime message")
	}
}

// RoomCount returns the number of clients currently joined to the room.
func (h *Hub) RoomCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func (h *Hub) addClient(ctx context.Context, client *Client) {
	h.mu.Lock()
	for _, room := range client.rooms {
		members := h.rooms[room]
		if members == nil {
			members = make(map[*Client]bool)
			h.rooms[room] = members
		}
		members[client] = true
	}
	h.mu.Unlock()
	h.logg.Info(h.logg.WithFields(ctx, map[string]any{"rooms": client.rooms}), "realtime client connected")
}

func (h *Hub) removeClient(ctx context.Context, client *Client) {
	h.mu.Lock()
	removed := false
	for _, room := range client.rooms {
		members := h.rooms[room]
		if members == nil {
			continue
		}
		if members[client] {
			delete(members, client)
			removed = true
		}
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	h.mu.Unlock()
	if removed {
		close(client.send)
		h.logg.Info(h.logg.WithFields(ctx, map[string]any{"rooms": client.rooms}), "realtime client disconnected")
	}
}

// deliver writes to clients in a stable order and evicts any client whose send
// buffer is full.
func (h *Hub) deliver(env envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members := h.rooms[env.room]
	if len(members) == 0 {
		return
	}

	clients := make([]*Client, 0, len(members))
	for client := range members {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].id < clients[j].id })

	var evict []*Client
	for _, client := range clients {
		select {
		case client.send <- env.msg:
		default:
			evict = append(evict, client)
		}
	}

	for _, client := range evict {
		close(client.send)
		for _, room := range client.rooms {
			delete(h.rooms[room], client)
			if len(h.rooms[room]) == 0 {
				delete(h.rooms, room)
			}
		}
	}
}

func (h *Hub) closeAll(ctx context.Context) {
	h.mu.Lock()
	seen := make(map[*Client]bool)
	for _, members := range h.rooms {
		for client := range members {
			seen[client] = true
		}
	}
	clients := make([]*Client, 0, len(seen))
	for client := range seen {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].id < clients[j].id })
	for _, client := range clients {
		close(client.send)
	}
	h.rooms = make(map[string]map[*Client]bool)
	h.mu.Unlock()

	h.logg.Info(h.logg.WithField(ctx, "clients_closed", len(clients)), "realtime hub stopped")
}
