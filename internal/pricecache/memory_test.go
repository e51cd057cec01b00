package pricecache

import (
	"testing"
	"time"

	"mandiprice/internal/agmarknet"
)

func TestKey_Normalization(t *testing.T) {
	a := Key("Rice", "Karnataka", 10)
	b := Key("  rice ", " KARNATAKA", 10)
	if a != b {
		t.Fatalf("keys should normalize equal: %q vs %q", a, b)
	}
	if a == Key("Rice", "Karnataka", 5) {
		t.Fatal("limit must be part of the key")
	}
	if a == Key("Wheat", "Karnataka", 10) {
		t.Fatal("commodity must be part of the key")
	}
}

func TestMemory_PutGet(t *testing.T) {
	m := NewMemory()
	key := Key("Rice", "Karnataka", 10)

	if _, ok := m.Get(key); ok {
		t.Fatal("empty cache should miss")
	}

	payload := &agmarknet.Response{Records: []agmarknet.Record{{Market: "Bangalore APMC"}}}
	now := time.Date(2024, 1, 12, 10, 0, 0, 0, time.UTC)
	m.Put(key, payload, now)

	e, ok := m.Get(key)
	if !ok {
		t.Fatal("expected hit")
	}
	if e.Payload != payload {
		t.Fatal("payload mismatch")
	}
	if !e.CachedAt.Equal(now) {
		t.Fatalf("cachedAt: want %v, got %v", now, e.CachedAt)
	}

	// Overwrite supersedes.
	later := now.Add(time.Minute)
	m.Put(key, payload, later)
	e, _ = m.Get(key)
	if !e.CachedAt.Equal(later) {
		t.Fatal("overwrite should update CachedAt")
	}
	if m.Len() != 1 {
		t.Fatalf("want 1 entry, got %d", m.Len())
	}
}
