// Package session keeps JSON-encoded values in process memory with a TTL.
// It backs the session store and form cache when no redis is configured.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

type item struct {
	payload []byte
	expires time.Time // zero never expires
}

type Manager struct {
	items map[string]item
	mu    sync.RWMutex
	now   func() time.Time
}

func NewManager() *Manager {
	return &Manager{
		items: make(map[string]item),
		now:   time.Now,
	}
}

// AddToCash stores payload under key. A ttl of zero keeps it until removed.
func (m *Manager) AddToCash(_ context.Context, key string, payload any, ttl time.Duration) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	it := item{payload: raw}
	if ttl > 0 {
		it.expires = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.items[key] = it
	m.mu.Unlock()

	return nil
}

// GetCashFor decodes the value under key into dst and reports whether it was found
func (m *Manager) GetCashFor(_ context.Context, key string, dst any) (bool, error) {
	m.mu.RLock()
	it, ok := m.items[key]
	m.mu.RUnlock()

	if !ok || m.expired(it) {
		return false, nil
	}

	if err := json.Unmarshal(it.payload, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}

	return true, nil
}

func (m *Manager) RemoveFromCash(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()

	return nil
}

// Cleanup drops expired entries and returns how many were removed
func (m *Manager) Cleanup() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, it := range m.items {
		if m.expired(it) {
			delete(m.items, key)
			removed++
		}
	}

	return removed
}

// Run calls Cleanup every interval until ctx is done
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Cleanup()
		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.items)
}

func (m *Manager) IsHealthy() bool {
	return true
}

func (m *Manager) expired(it item) bool {
	return !it.expires.IsZero() && !m.now().Before(it.expires)
}
