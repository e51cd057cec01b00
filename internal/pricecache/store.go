package pricecache

import (
	"context"

	"mandiprice/internal/agmarknet"
)

// DurableRecord is the persisted fallback payload for one
// (state, commodity) pair. It never expires; staleness is surfaced via
// Timestamp/LastUpdated and judged by the reader.
type DurableRecord struct {
	Data        *agmarknet.Response `json:"data"`
	Timestamp   int64               `json:"timestamp"`   // epoch ms of the write
	LastUpdated string              `json:"lastUpdated"` // RFC3339, human-facing
}

// Store is the durable price cache. Implementations provide
// get/set-by-key semantics over an external store; writes are
// last-write-wins with no versioning.
type Store interface {
	// Read returns the record for (state, commodity), or (nil, nil)
	// when none exists.
	Read(ctx context.Context, state, commodity string) (*DurableRecord, error)
	// Write overwrites the record for (state, commodity).
	Write(ctx context.Context, state, commodity string, payload *agmarknet.Response) error
}
