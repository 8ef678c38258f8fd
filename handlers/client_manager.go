package handlers

import (
	"fmt"
	"log"
	"sync"
	"time"

	"runedeep/server/messages"
)

// ClientManager manages connected clients
type ClientManager struct {
	clients map[string]*ClientHandler // Map PlayerID to ClientHandler
	mutex   sync.RWMutex
}

// NewClientManager creates a new client manager
func NewClientManager() *ClientManager {
	return &ClientManager{
		clients: make(map[string]*ClientHandler),
	}
}

// AddClient adds a client to the manager, replacing any older connection of
// the same player
func (cm *ClientManager) AddClient(playerID string, handler *ClientHandler) *ClientHandler {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()
	previous := cm.clients[playerID]
	cm.clients[playerID] = handler
	return previous
}

// RemoveClient removes a client from the manager if it is still registered
func (cm *ClientManager) RemoveClient(playerID string, handler *ClientHandler) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()
	if cm.clients[playerID] == handler {
		delete(cm.clients, playerID)
	}
}

// Count returns the number of connected clients
func (cm *ClientManager) Count() int {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()
	return len(cm.clients)
}

// BroadcastToAll sends a message to all connected clients
func (cm *ClientManager) BroadcastToAll(msg interface{}) {
	cm.BroadcastToOthers("", msg)
}

// BroadcastToOthers sends a message to all connected clients except the specified one
func (cm *ClientManager) BroadcastToOthers(excludePlayerID string, msg interface{}) {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	for id, client := range cm.clients {
		if id == excludePlayerID {
			continue
		}
		if err := client.conn.SendMessage(msg); err != nil {
			log.Printf("Error broadcasting to client %s: %v", id, err)
		}
	}
}

// AnnounceReloads tells every client when the theme presets change. It
// returns once reloads is closed.
func (cm *ClientManager) AnnounceReloads(reloads <-chan string, presets interface{ Len() int }) {
	for range reloads {
		cm.BroadcastToAll(announcement("The dungeon shifts. %d themes are known.", presets.Len()))
	}
}

// ExecuteOnAllClients executes a function for each connected client
func (cm *ClientManager) ExecuteOnAllClients(action func(*ClientHandler)) {
	cm.mutex.RLock()
	clients := make([]*ClientHandler, 0, len(cm.clients))
	for _, client := range cm.clients {
		clients = append(clients, client)
	}
	cm.mutex.RUnlock()

	for _, client := range clients {
		action(client)
	}
}

func announcement(format string, args ...interface{}) messages.BaseMessage {
	return messages.BaseMessage{
		Type: messages.MessageTypeAnnouncement,
		Payload: messages.AnnouncementMessage{
			Message:   fmt.Sprintf(format, args...),
			Timestamp: time.Now().Unix(),
		},
	}
}
