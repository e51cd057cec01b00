package agmarknet_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"mandiprice/internal/agmarknet"
)

// scriptedFetcher returns canned outcomes in order, recording calls.
type scriptedFetcher struct {
	outcomes []agmarknet.Outcome
	payloads []*agmarknet.Response
	calls    int
}

func (f *scriptedFetcher) FetchPrices(_ context.Context, _ agmarknet.Query) (*agmarknet.Response, agmarknet.Outcome) {
	i := f.calls
	if i >= len(f.outcomes) {
		i = len(f.outcomes) - 1
	}
	f.calls++
	var resp *agmarknet.Response
	if i < len(f.payloads) {
		resp = f.payloads[i]
	}
	return resp, f.outcomes[i]
}

func TestRetrier_RetriesRateLimitThenSucceeds(t *testing.T) {
	t.Parallel()

	payload := &agmarknet.Response{Records: []agmarknet.Record{{Market: "Mysore Mandi", ModalPrice: "2085"}}}
	f := &scriptedFetcher{
		outcomes: []agmarknet.Outcome{
			{Class: agmarknet.ClassRateLimited, StatusCode: 429},
			{Class: agmarknet.ClassSuccess, StatusCode: 200},
		},
		payloads: []*agmarknet.Response{nil, payload},
	}
	r := &agmarknet.Retrier{F: f, Attempts: 2, Backoff: time.Millisecond, Log: zerolog.Nop()}

	resp, out := r.FetchPrices(context.Background(), agmarknet.Query{Commodity: "Rice"})

	require.True(t, out.OK())
	require.Equal(t, payload, resp)
	require.Equal(t, 2, f.calls)
}

func TestRetrier_ExhaustsAttemptsAndReturnsLastOutcome(t *testing.T) {
	t.Parallel()

	f := &scriptedFetcher{
		outcomes: []agmarknet.Outcome{{Class: agmarknet.ClassRateLimited, StatusCode: 429}},
	}
	r := &agmarknet.Retrier{F: f, Attempts: 3, Backoff: time.Millisecond, Log: zerolog.Nop()}

	resp, out := r.FetchPrices(context.Background(), agmarknet.Query{Commodity: "Wheat"})

	require.Nil(t, resp)
	require.Equal(t, agmarknet.ClassRateLimited, out.Class)
	require.Equal(t, 3, f.calls)
}

func TestRetrier_DoesNotRetryUpstreamErrors(t *testing.T) {
	t.Parallel()

	f := &scriptedFetcher{
		outcomes: []agmarknet.Outcome{{Class: agmarknet.ClassUpstreamError, StatusCode: 500}},
	}
	r := &agmarknet.Retrier{F: f, Attempts: 3, Backoff: time.Millisecond, Log: zerolog.Nop()}

	_, out := r.FetchPrices(context.Background(), agmarknet.Query{Commodity: "Maize"})

	require.Equal(t, agmarknet.ClassUpstreamError, out.Class)
	require.Equal(t, 1, f.calls)
}

func TestRetrier_CancellationStopsBackoff(t *testing.T) {
	t.Parallel()

	f := &scriptedFetcher{
		outcomes: []agmarknet.Outcome{{Class: agmarknet.ClassRateLimited, StatusCode: 429}},
	}
	r := &agmarknet.Retrier{F: f, Attempts: 2, Backoff: time.Hour, Log: zerolog.Nop()}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, out := r.FetchPrices(ctx, agmarknet.Query{Commodity: "Rice"})

	require.Less(t, time.Since(start), time.Second)
	require.False(t, out.OK())
	require.Equal(t, 1, f.calls)
}
