package ws

import (
	"encoding/json"
	"log"
	"sync"

	"splitfund/internal/domain"
)

// Hub fans fund snapshot updates out to the websocket subscribers of each
// room. Subscribers are read-only; the feed carries no client commands.
type Hub struct {
	mu    sync.RWMutex
	rooms map[int64]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[int64]map[*Client]struct{})}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.rooms[c.RoomID]
	if !ok {
		set = make(map[*Client]struct{})
		h.rooms[c.RoomID] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.rooms[c.RoomID]
	if !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.rooms, c.RoomID)
	}
}

type fundUpdate struct {
	Type     string               `json:"type"`
	Snapshot *domain.FundSnapshot `json:"snapshot"`
}

// BroadcastSnapshot pushes a reconciled snapshot to the room's subscribers.
// Slow subscribers are dropped rather than allowed to block the feed.
func (h *Hub) BroadcastSnapshot(snapshot *domain.FundSnapshot) {
	payload, err := json.Marshal(fundUpdate{Type: "fund_update", Snapshot: snapshot})
	if err != nil {
		log.Printf("Hub.BroadcastSnapshot: marshal failed: %v", err)
		return
	}

	h.mu.RLock()
	set := h.rooms[snapshot.RoomID]
	clients := make([]*Client, 0, len(set))
	for c := range set {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.Send <- payload:
		default:
			log.Printf("Hub.BroadcastSnapshot: dropping slow subscriber user=%d room=%d", c.UserID, c.RoomID)
			h.Unregister(c)
			c.Close()
		}
	}
}
