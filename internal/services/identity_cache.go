package services

import (
	"context"
	"sync"
	"time"
)

// Identity cache keys. Each is set and expires independently.
const (
	IdentityKeyEmail     = "customer_email"
	IdentityKeyFirstName = "customer_first_name"
	IdentityKeyLastName  = "customer_last_name"
)

// IdentityKeys lists every key the resolver reads and writes.
var IdentityKeys = []string{IdentityKeyEmail, IdentityKeyFirstName, IdentityKeyLastName}

// IdentityCache is a device-scoped key-value store with per-entry expiry.
// It caches the identifying fields of a Customer and is never authoritative.
type IdentityCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Remove(ctx context.Context, key string) error
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryIdentityCache keeps entries in process memory. It stands in for a
// single device in tests and local tooling.
type MemoryIdentityCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryIdentityCache constructs an empty cache. now may be nil.
func NewMemoryIdentityCache(now func() time.Time) *MemoryIdentityCache {
	if now == nil {
		now = time.Now
	}
	return &MemoryIdentityCache{entries: make(map[string]memoryEntry), now: now}
}

// Get returns the value when present and unexpired.
func (m *MemoryIdentityCache) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return "", false, nil
	}
	if !m.now().Before(entry.expiresAt) {
		delete(m.entries, key)
		return "", false, nil
	}
	return entry.value, true, nil
}

// Set stores value until now+ttl.
func (m *MemoryIdentityCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{value: value, expiresAt: m.now().Add(ttl)}
	return nil
}

// Remove deletes key.
func (m *MemoryIdentityCache) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}
