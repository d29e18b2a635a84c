/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package recordgate

import (
	"fmt"
	"sort"
	"sync"
)

// Manager holds named clients, for example one per scope or per table.
type Manager struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewManager creates an empty Manager
func NewManager() *Manager {
	return &Manager{
		clients: make(map[string]*Client),
	}
}

// Register adds a client under the given name
func (m *Manager) Register(name string, c *Client) error {
	if c == nil {
		return fmt.Errorf("client %q is nil", name)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.clients[name]; exists {
		return fmt.Errorf("client with name %q already registered", name)
	}
	m.clients[name] = c
	return nil
}

// Get retrieves a client by name
func (m *Manager) Get(name string) (*Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, exists := m.clients[name]
	if !exists {
		return nil, fmt.Errorf("client with name %q not found", name)
	}
	return c, nil
}

// Remove deletes a client by name
func (m *Manager) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.clients[name]; !exists {
		return fmt.Errorf("client with name %q not found", name)
	}
	delete(m.clients, name)
	return nil
}

// List returns the registered names in sorted order
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.clients))
	for name := range m.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
