package pricecache

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"mandiprice/internal/agmarknet"
)

// Entry is one cached upstream payload. Freshness is judged by the
// caller against CachedAt; the cache itself never expires entries.
type Entry struct {
	Payload  *agmarknet.Response
	CachedAt time.Time
}

// Memory is a process-scoped map of query key to last successful payload.
// Entries are only ever superseded, never deleted; that is an accepted
// bound because the key space (a handful of commodities and states) is
// small and the process is short-lived.
type Memory struct {
	mu    sync.RWMutex
	items map[string]Entry
}

func NewMemory() *Memory {
	return &Memory{items: make(map[string]Entry)}
}

func (m *Memory) Get(key string) (Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.items[key]
	return e, ok
}

func (m *Memory) Put(key string, payload *agmarknet.Response, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = Entry{Payload: payload, CachedAt: now}
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Key builds the normalized composite cache key for a query.
func Key(commodity, state string, limit int) string {
	return fmt.Sprintf("%s|%s|%d",
		strings.ToLower(strings.TrimSpace(commodity)),
		strings.ToLower(strings.TrimSpace(state)),
		limit)
}
