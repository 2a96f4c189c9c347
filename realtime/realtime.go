package realtime

import (
	"sync"

	"codewhisperer/metrics"

	"github.com/sirupsen/logrus"
)

const (
	OverallRoom            = "overall"
	OverallLeaderboardRoom = "overall-leaderboard"

	EventJoinRoom          = "joinRoom"
	EventLeaveRoom         = "leaveRoom"
	EventLeaderboardUpdate = "leaderboard-update"
)

// Message is the JSON frame exchanged with browsers
type Message struct {
	Event      string `json:"event"`
	Room       string `json:"room,omitempty"`
	QuestionID string `json:"questionId,omitempty"`
}

// Client is a connected socket; Send must not block for long
type Client interface {
	Send(msg Message) error
	Close() error
}

// Hub tracks room membership and fans out leaderboard updates
type Hub struct {
	mu    sync.Mutex
	rooms map[string]map[Client]bool
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[Client]bool)}
}

func (h *Hub) Join(room string, c Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[Client]bool)
	}
	h.rooms[room][c] = true
}

func (h *Hub) Leave(room string, c Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leave(room, c)
}

func (h *Hub) leave(room string, c Client) {
	if clients, ok := h.rooms[room]; ok {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.rooms, room)
		}
	}
}

// Remove drops the client from every room
func (h *Hub) Remove(c Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room := range h.rooms {
		h.leave(room, c)
	}
}

// Members returns the number of clients in a room
func (h *Hub) Members(room string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[room])
}

// Broadcast sends msg to every member of room and drops the ones that fail
func (h *Hub) Broadcast(room string, msg Message) int {
	h.mu.Lock()
	clients := make([]Client, 0, len(h.rooms[room]))
	for c := range h.rooms[room] {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	delivered := 0
	for _, c := range clients {
		if err := c.Send(msg); err != nil {
			logrus.WithError(err).WithField("room", room).Debug("Dropping socket after failed write")
			h.Remove(c)
			c.Close()
			continue
		}
		delivered++
	}
	metrics.RelayBroadcasts.WithLabelValues(room).Inc()
	return delivered
}

// NotifyLeaderboard emits leaderboard-update to the question room and both overall rooms
func (h *Hub) NotifyLeaderboard(questionID string) {
	msg := Message{Event: EventLeaderboardUpdate, QuestionID: questionID}
	if questionID != "" {
		h.Broadcast(questionID, msg)
	}
	h.Broadcast(OverallRoom, msg)
	h.Broadcast(OverallLeaderboardRoom, msg)
}
