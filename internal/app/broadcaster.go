package app

import (
	"log/slog"
	"sync"

	"quizroom/internal/domain"
)

// Broadcaster delivers room events to members
type Broadcaster interface {
	Broadcast(roomCode string, event *domain.Event)
	SendTo(roomCode, teamName string, event *domain.Event)
}

// ClientConnection represents a connected client
type ClientConnection interface {
	Send(message interface{}) error
	ID() string
}

// ConnectionBroadcaster fans events out to registered client connections
type ConnectionBroadcaster struct {
	rooms  map[string]map[string]ClientConnection // roomCode -> teamName -> client
	mu     sync.RWMutex
	logger *slog.Logger
}

// NewConnectionBroadcaster creates an empty broadcaster
func NewConnectionBroadcaster(logger *slog.Logger) *ConnectionBroadcaster {
	return &ConnectionBroadcaster{
		rooms:  make(map[string]map[string]ClientConnection),
		logger: logger,
	}
}

// Subscribe registers the client connection of a team
func (b *ConnectionBroadcaster) Subscribe(roomCode, teamName string, client ClientConnection) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.rooms[roomCode]; !ok {
		b.rooms[roomCode] = make(map[string]ClientConnection)
	}
	b.rooms[roomCode][teamName] = client
}

// Unsubscribe removes a team's connection if it is still the registered one
func (b *ConnectionBroadcaster) Unsubscribe(roomCode, teamName string, client ClientConnection) {
	b.mu.Lock()
	defer b.mu.Unlock()

	clients, ok := b.rooms[roomCode]
	if !ok {
		return
	}

	if current, ok := clients[teamName]; ok && current.ID() == client.ID() {
		delete(clients, teamName)
	}
	if len(clients) == 0 {
		delete(b.rooms, roomCode)
	}
}

// CloseRoom drops every subscription of a room
func (b *ConnectionBroadcaster) CloseRoom(roomCode string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.rooms, roomCode)
}

// Broadcast sends an event to every connection in the room
func (b *ConnectionBroadcaster) Broadcast(roomCode string, event *domain.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for teamName, client := range b.rooms[roomCode] {
		if err := client.Send(event); err != nil {
			b.logger.Debug("failed to send to client", "roomCode", roomCode, "team", teamName, "error", err)
		}
	}
}

// SendTo sends an event to a single team
func (b *ConnectionBroadcaster) SendTo(roomCode, teamName string, event *domain.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	client, ok := b.rooms[roomCode][teamName]
	if !ok {
		return
	}
	if err := client.Send(event); err != nil {
		b.logger.Debug("failed to send to client", "roomCode", roomCode, "team", teamName, "error", err)
	}
}

// SubscriberCount returns the number of connections in a room
func (b *ConnectionBroadcaster) SubscriberCount(roomCode string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.rooms[roomCode])
}
