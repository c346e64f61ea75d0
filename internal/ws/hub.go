package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/kiwari-pos/ledger/internal/events"
	"github.com/rs/zerolog/log"
)

// Rooms a client can join.
const (
	// RoomOrders receives every ledger event. Counter terminals join it.
	RoomOrders = "orders"
	// RoomKitchen receives only the events a kitchen display acts on.
	RoomKitchen = "kitchen"
)

// IsRoom reports whether name is a known room.
func IsRoom(name string) bool {
	return name == RoomOrders || name == RoomKitchen
}

var kitchenEvents = map[string]bool{
	events.OrderPlaced:    true,
	events.OrderReady:     true,
	events.OrderCompleted: true,
	events.OrderDeleted:   true,
	events.OrdersRefresh:  true,
}

// roomsFor lists the rooms an event type is delivered to.
func roomsFor(eventType string) []string {
	if kitchenEvents[eventType] {
		return []string{RoomOrders, RoomKitchen}
	}
	return []string{RoomOrders}
}

// roomEvent is an internal struct for routing events to specific rooms
type roomEvent struct {
	Room  string
	Event events.Event
}

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	// Registered clients by room
	rooms map[string]map[*Client]bool

	// Inbound messages from clients (register/unregister)
	register   chan *Client
	unregister chan *Client

	// Outbound messages to broadcast
	broadcast chan *roomEvent

	// Closed when Run returns
	done chan struct{}

	// Builds the orders.refresh payload sent to a client on join
	greet func() any

	// Mutex for thread-safe room access
	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *roomEvent, 256),
		done:       make(chan struct{}),
	}
}

// Greet makes the hub send every newly joined client an orders.refresh
// event built from fn, so a display has the ongoing list before the next
// broadcast. Call it before Run.
func (h *Hub) Greet(fn func() any) {
	h.greet = fn
}

// Run starts the hub's main loop and returns when ctx is cancelled, closing
// every client's send channel on the way out.
// This should be called as a goroutine: go hub.Run(ctx)
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for room, clients := range h.rooms {
				for client := range clients {
					close(client.send)
				}
				delete(h.rooms, room)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.room] == nil {
				h.rooms[client.room] = make(map[*Client]bool)
			}
			h.rooms[client.room][client] = true
			h.mu.Unlock()
			h.sendGreeting(client)

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.room]; ok {
				if _, exists := clients[client]; exists {
					delete(clients, client)
					close(client.send)
					// Clean up empty rooms
					if len(clients) == 0 {
						delete(h.rooms, client.room)
					}
				}
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			h.mu.Lock()
			clients := h.rooms[event.Room]

			// Marshal event to JSON once
			message, err := json.Marshal(event.Event)
			if err != nil {
				h.mu.Unlock()
				continue
			}

			for client := range clients {
				select {
				case client.send <- message:
				default:
					// Client's send buffer is full, close and unregister
					close(client.send)
					delete(h.rooms[event.Room], client)
					if len(h.rooms[event.Room]) == 0 {
						delete(h.rooms, event.Room)
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastToRoom sends an event to all clients in one room.
func (h *Hub) BroadcastToRoom(room string, event events.Event) {
	select {
	case h.broadcast <- &roomEvent{Room: room, Event: event}:
	case <-h.done:
	}
}

// Publish routes an event to every room interested in its type. It
// implements events.Publisher.
func (h *Hub) Publish(ctx context.Context, e events.Event) error {
	for _, room := range roomsFor(e.Type) {
		select {
		case h.broadcast <- &roomEvent{Room: room, Event: e}:
		case <-h.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (h *Hub) sendGreeting(c *Client) {
	if h.greet == nil {
		return
	}
	e, err := events.New(events.OrdersRefresh, "", h.greet())
	if err != nil {
		log.Error().Err(err).Msg("encode greeting")
		return
	}
	message, err := json.Marshal(e)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.rooms[c.room][c] {
		return
	}
	select {
	case c.send <- message:
	default:
	}
}

func (h *Hub) join(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		close(c.send)
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// ClientCount returns the number of connected clients in room.
func (h *Hub) ClientCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
