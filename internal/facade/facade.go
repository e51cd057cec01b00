// Package facade is the single entry point for price lookups. It owns
// the degrade-don't-fail ladder: fresh memory cache, then a live upstream
// call, then the durable cache at any age, then synthesized sample data.
// A lookup never returns an error to its caller.
package facade

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"mandiprice/internal/agmarknet"
	"mandiprice/internal/pricecache"
	"mandiprice/internal/snapshot"
)

const (
	defaultTTL         = 5 * time.Minute
	defaultRecordLimit = 10
	defaultState       = "Karnataka"
	defaultCommodity   = "Rice"
)

// Service resolves price snapshots. All collaborators are injected;
// there is no package-level state, so tests can substitute a counting
// fetcher, a fake store and a fixed clock.
type Service struct {
	Fetcher agmarknet.Fetcher
	Memory  *pricecache.Memory
	Store   pricecache.Store
	// TTL bounds how long a memory-cache entry counts as fresh.
	TTL time.Duration
	// Limit is the record count requested on live interactive fetches.
	Limit int
	// Now is the clock; nil means time.Now.
	Now func() time.Time
	Log zerolog.Logger
}

func (s *Service) clock() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return defaultTTL
}

func (s *Service) limit() int {
	if s.Limit > 0 {
		return s.Limit
	}
	return defaultRecordLimit
}

// normalize fills defaults and maps the commodity through the canonical
// name table.
func normalize(commodity, state string) (string, string) {
	commodity = snapshot.CanonicalCommodity(commodity)
	if commodity == "" {
		commodity = defaultCommodity
	}
	if state == "" {
		state = defaultState
	}
	return commodity, state
}

// GetPrice returns a best-effort snapshot for a commodity in a state.
// It always returns a usable value; worst case the snapshot is
// synthesized and tagged QualitySynthetic.
func (s *Service) GetPrice(ctx context.Context, commodity, state string) snapshot.Snapshot {
	commodity, state = normalize(commodity, state)
	key := pricecache.Key(commodity, state, s.limit())
	now := s.clock()

	// 1. Fresh in-process cache.
	if e, ok := s.Memory.Get(key); ok && now.Sub(e.CachedAt) < s.ttl() && e.Payload != nil {
		if snap, ok := snapshot.Derive(e.Payload.Records, now, snapshot.QualityLive); ok {
			return snap
		}
	}

	// 2. Live fetch, no retry: interactive callers must return quickly.
	resp, out := s.Fetcher.FetchPrices(ctx, agmarknet.Query{
		Commodity: commodity,
		State:     state,
		Limit:     s.limit(),
	})
	if out.OK() && resp != nil && len(resp.Records) > 0 {
		s.Memory.Put(key, resp, now)
		if snap, ok := snapshot.Derive(resp.Records, now, snapshot.QualityLive); ok {
			return snap
		}
	}
	if !out.OK() {
		s.Log.Debug().
			Str("commodity", commodity).
			Str("outcome", out.Class.String()).
			Msg("live fetch unavailable, trying durable cache")
	}

	// 3. Durable cache, regardless of age. Storage failures mean "no
	// fallback available", never a caller-visible error.
	rec, err := s.Store.Read(ctx, state, commodity)
	if err != nil {
		s.Log.Warn().Err(err).Str("commodity", commodity).Msg("durable cache read failed")
	} else if rec != nil && rec.Data != nil {
		if snap, ok := snapshot.Derive(rec.Data.Records, now, snapshot.QualityCached); ok {
			s.Log.Debug().
				Str("commodity", commodity).
				Str("lastUpdated", rec.LastUpdated).
				Msg("serving durable cached prices")
			return snap
		}
	}

	// 4. Synthesized sample.
	return snapshot.Sample(commodity, now)
}

// RawResult is the outcome of a raw-payload lookup for the proxy
// endpoints.
type RawResult struct {
	Payload *agmarknet.Response
	Outcome agmarknet.Outcome
	Source  string
	Cached  bool
}

const upstreamSource = "AGMARKNET Government API"

// GetRaw serves the proxy endpoints: fresh memory cache first, then a
// live fetch. On any upstream failure it returns an empty record set
// with the failure outcome; callers turn that into a success:false
// envelope, never an HTTP error.
func (s *Service) GetRaw(ctx context.Context, q agmarknet.Query) RawResult {
	q.Commodity, _ = normalize(q.Commodity, defaultState)
	if q.Limit <= 0 {
		q.Limit = s.limit()
	}
	key := pricecache.Key(q.Commodity, q.State, q.Limit)
	now := s.clock()

	if e, ok := s.Memory.Get(key); ok && now.Sub(e.CachedAt) < s.ttl() && e.Payload != nil {
		return RawResult{Payload: e.Payload, Outcome: agmarknet.Outcome{Class: agmarknet.ClassSuccess}, Source: upstreamSource, Cached: true}
	}

	resp, out := s.Fetcher.FetchPrices(ctx, q)
	if out.OK() && resp != nil {
		s.Memory.Put(key, resp, now)
		return RawResult{Payload: resp, Outcome: out, Source: upstreamSource}
	}
	return RawResult{Payload: &agmarknet.Response{Records: []agmarknet.Record{}}, Outcome: out}
}
