// Package warming proactively populates the durable price cache so the
// fallback data interactive lookups degrade to is recent.
package warming

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"mandiprice/internal/agmarknet"
	"mandiprice/internal/pricecache"
	"mandiprice/internal/snapshot"
)

// Result is the outcome of warming one commodity.
type Result struct {
	Commodity string `json:"commodity"`
	Success   bool   `json:"success"`
	Records   int    `json:"records"`
	Err       error  `json:"-"`
}

// Report collects the results of one warming run.
type Report struct {
	State   string   `json:"state"`
	Results []Result `json:"results"`
}

func (r Report) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.Success {
			n++
		}
	}
	return n
}

func (r Report) Failed() int { return len(r.Results) - r.Succeeded() }

// Warmer iterates a commodity list sequentially, fetching a small sample
// per commodity through a retry-capable fetcher and writing successes to
// the durable store. Sequential iteration with a fixed inter-commodity
// delay is a correctness property: the upstream rate limit is global, not
// per commodity.
//
// Runs are idempotent (each one overwrites the durable records).
// Concurrent runs are not coordinated; overlapping writes are
// last-write-wins, which only affects staleness, not correctness.
type Warmer struct {
	Fetcher agmarknet.Fetcher
	Store   pricecache.Store
	// Delay between commodities; zero means no pause (tests).
	Delay time.Duration
	// Limit is the per-commodity record count. Warming only needs a
	// representative sample, not a full dataset.
	Limit int
	Log   zerolog.Logger
}

func (w *Warmer) limit() int {
	if w.Limit > 0 {
		return w.Limit
	}
	return 5
}

// WarmOne fetches and persists a single commodity. It never returns an
// error; failure is data in the Result.
func (w *Warmer) WarmOne(ctx context.Context, commodity, state string) Result {
	commodity = snapshot.CanonicalCommodity(commodity)
	res := Result{Commodity: commodity}

	resp, out := w.Fetcher.FetchPrices(ctx, agmarknet.Query{
		Commodity: commodity,
		State:     state,
		Limit:     w.limit(),
	})
	if !out.OK() || resp == nil || len(resp.Records) == 0 {
		res.Err = out.Err
		w.Log.Warn().
			Str("commodity", commodity).
			Str("outcome", out.Class.String()).
			Msg("warm fetch failed")
		return res
	}

	if err := w.Store.Write(ctx, state, commodity, resp); err != nil {
		res.Err = err
		w.Log.Error().Err(err).Str("commodity", commodity).Msg("durable cache write failed")
		return res
	}

	res.Success = true
	res.Records = len(resp.Records)
	w.Log.Info().Str("commodity", commodity).Int("records", res.Records).Msg("cached market data")
	return res
}

// WarmAll warms every commodity in the list, strictly in order, pausing
// Delay between commodities. A failed commodity is recorded and skipped;
// it never aborts the batch. Cancellation stops the run early with the
// results gathered so far.
func (w *Warmer) WarmAll(ctx context.Context, commodities []string, state string) Report {
	report := Report{State: state, Results: make([]Result, 0, len(commodities))}
	for i, commodity := range commodities {
		if i > 0 && w.Delay > 0 {
			if err := agmarknet.Sleep(ctx, w.Delay); err != nil {
				w.Log.Warn().Err(err).Msg("warming run canceled")
				break
			}
		}
		report.Results = append(report.Results, w.WarmOne(ctx, commodity, state))
	}
	w.Log.Info().
		Str("state", state).
		Int("succeeded", report.Succeeded()).
		Int("failed", report.Failed()).
		Msg("market cache update complete")
	return report
}
