package gameserver

import (
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ClientManager tracks clients that completed Hello, keyed by player id.
// Thread-safe for concurrent access.
type ClientManager struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]*GameClient
}

// NewClientManager creates a new client manager.
func NewClientManager() *ClientManager {
	return &ClientManager{
		clients: make(map[uuid.UUID]*GameClient, 256),
	}
}

// Register adds a client unless playerID already has one.
// Reports whether the client was added.
func (cm *ClientManager) Register(playerID uuid.UUID, client *GameClient) bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if _, ok := cm.clients[playerID]; ok {
		return false
	}
	cm.clients[playerID] = client
	return true
}

// Unregister removes client if it is still the one registered for playerID.
// Reports whether it was removed.
func (cm *ClientManager) Unregister(playerID uuid.UUID, client *GameClient) bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.clients[playerID] != client {
		return false
	}
	delete(cm.clients, playerID)
	return true
}

// GetClient returns the client for playerID or nil.
func (cm *ClientManager) GetClient(playerID uuid.UUID) *GameClient {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.clients[playerID]
}

// FindByName returns the client whose player name matches (case-insensitive).
func (cm *ClientManager) FindByName(name string) *GameClient {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	for _, c := range cm.clients {
		if strings.EqualFold(c.Name(), name) {
			return c
		}
	}
	return nil
}

// Names returns every registered player name, sorted.
func (cm *ClientManager) Names() []string {
	cm.mu.RLock()
	names := make([]string, 0, len(cm.clients))
	for _, c := range cm.clients {
		names = append(names, c.Name())
	}
	cm.mu.RUnlock()
	slices.Sort(names)
	return names
}

// Count returns number of registered clients.
func (cm *ClientManager) Count() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.clients)
}

// ForEachClient iterates over all registered clients.
// Iteration stops if fn returns false. fn must not call back into the manager.
func (cm *ClientManager) ForEachClient(fn func(*GameClient) bool) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	for _, c := range cm.clients {
		if !fn(c) {
			return
		}
	}
}
