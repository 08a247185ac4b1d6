package websocket

import (
	"log"
	"sync"
)

// Hub tracks live connections per user and fans events out to them. A user
// may hold several connections (phone and laptop), each gets every event.
type Hub struct {
	connections map[string]map[*Client]bool

	events     chan *Event
	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex
}

// Event is a single frame pushed to clients. An empty UserID means broadcast.
type Event struct {
	UserID  string                 `json:"user_id,omitempty"`
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload"`
}

const (
	EventTypeNotification = "notification"
	EventTypePresence     = "user_presence"
	EventTypePong         = "pong"
)

func NewHub() *Hub {
	return &Hub{
		connections: make(map[string]map[*Client]bool),
		events:      make(chan *Event, 256),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
	}
}

// Run owns the connection map. All mutations go through the channels.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			firstConnection := len(h.connections[client.UserID]) == 0
			if h.connections[client.UserID] == nil {
				h.connections[client.UserID] = make(map[*Client]bool)
			}
			h.connections[client.UserID][client] = true
			h.mu.Unlock()

			if firstConnection {
				h.broadcastPresence(client.UserID, true)
			}

		case client := <-h.unregister:
			h.mu.Lock()
			lastConnection := false
			if clients, ok := h.connections[client.UserID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.send)
					if len(clients) == 0 {
						delete(h.connections, client.UserID)
						lastConnection = true
					}
				}
			}
			h.mu.Unlock()

			if lastConnection {
				h.broadcastPresence(client.UserID, false)
			}

		case event := <-h.events:
			h.mu.RLock()
			if event.UserID != "" {
				h.deliver(h.connections[event.UserID], event)
			} else {
				for _, clients := range h.connections {
					h.deliver(clients, event)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// deliver pushes an event to every connection in the set, dropping
// connections whose send buffer is full
func (h *Hub) deliver(clients map[*Client]bool, event *Event) {
	for client := range clients {
		select {
		case client.send <- event:
		default:
			close(client.send)
			delete(clients, client)
		}
	}
}

// BroadcastToUser queues an event for all of a user's connections. Offline
// users simply miss it, the notifications table is the durable record.
func (h *Hub) BroadcastToUser(userID string, payload map[string]interface{}) {
	event := &Event{
		UserID:  userID,
		Type:    EventTypeNotification,
		Payload: payload,
	}

	select {
	case h.events <- event:
	default:
		log.Printf("Event channel full, dropping notification for user %s", userID)
	}
}

// OnlineUserIDs returns the ids of all currently connected users
func (h *Hub) OnlineUserIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.connections))
	for id := range h.connections {
		ids = append(ids, id)
	}
	return ids
}

// IsOnline reports whether the user has at least one live connection
func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[userID]) > 0
}

func (h *Hub) broadcastPresence(userID string, online bool) {
	event := &Event{
		Type: EventTypePresence,
		Payload: map[string]interface{}{
			"user_id": userID,
			"online":  online,
		},
	}

	select {
	case h.events <- event:
	default:
	}
}
