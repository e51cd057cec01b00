package agmarknet_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"mandiprice/internal/agmarknet"
)

func newClient(t *testing.T, baseURL string, timeout time.Duration) *agmarknet.Client {
	t.Helper()
	return agmarknet.New(agmarknet.Config{
		BaseURL: baseURL,
		APIKey:  "test-key",
		Timeout: timeout,
	}, http.DefaultClient, zerolog.Nop())
}

func TestFetchPrices_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		require.Equal(t, "test-key", q.Get("api-key"))
		require.Equal(t, "json", q.Get("format"))
		require.Equal(t, "10", q.Get("limit"))
		require.Equal(t, "Karnataka", q.Get("filters[state]"))
		require.Equal(t, "Rice", q.Get("filters[commodity]"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"records": []map[string]string{
				{"market": "Bangalore APMC", "modal_price": "2100", "arrival_date": "2024-01-10"},
			},
			"count": 1,
		})
	}))
	defer srv.Close()

	c := newClient(t, srv.URL, 5*time.Second)
	resp, out := c.FetchPrices(context.Background(), agmarknet.Query{Commodity: "Rice", State: "Karnataka", Limit: 10})

	require.True(t, out.OK())
	require.NotNil(t, resp)
	require.Len(t, resp.Records, 1)
	require.Equal(t, "Bangalore APMC", resp.Records[0].Market)
	require.Equal(t, "2100", resp.Records[0].ModalPrice)
}

func TestFetchPrices_RateLimited(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newClient(t, srv.URL, 5*time.Second)
	resp, out := c.FetchPrices(context.Background(), agmarknet.Query{Commodity: "Rice"})

	require.Nil(t, resp)
	require.Equal(t, agmarknet.ClassRateLimited, out.Class)
	require.Equal(t, http.StatusTooManyRequests, out.StatusCode)
	require.True(t, out.Transient())
}

func TestFetchPrices_UpstreamError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newClient(t, srv.URL, 5*time.Second)
	resp, out := c.FetchPrices(context.Background(), agmarknet.Query{Commodity: "Rice"})

	require.Nil(t, resp)
	require.Equal(t, agmarknet.ClassUpstreamError, out.Class)
	require.Equal(t, http.StatusBadGateway, out.StatusCode)
	require.False(t, out.Transient())
	require.Equal(t, "API returned 502", out.Reason())
}

func TestFetchPrices_Timeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := newClient(t, srv.URL, 50*time.Millisecond)

	start := time.Now()
	resp, out := c.FetchPrices(context.Background(), agmarknet.Query{Commodity: "Rice"})

	require.Nil(t, resp)
	require.Equal(t, agmarknet.ClassTimeout, out.Class)
	// The deadline must fire at the client timeout, not wait for the
	// upstream to answer.
	require.Less(t, time.Since(start), 2*time.Second)
}

func TestFetchPrices_NetworkError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := newClient(t, srv.URL, 5*time.Second)
	resp, out := c.FetchPrices(context.Background(), agmarknet.Query{Commodity: "Rice"})

	require.Nil(t, resp)
	require.Equal(t, agmarknet.ClassNetworkError, out.Class)
	require.Error(t, out.Err)
}

func TestFetchPrices_MalformedPayload(t *testing.T) {
	t.Parallel()

	// Arrange: a mock http client returning junk with a 200.
	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(bytes.NewBufferString("<html>not json</html>")),
			}, nil
		}).
		Times(1)

	c := agmarknet.New(agmarknet.Config{BaseURL: "http://upstream", APIKey: "k"}, httpClient, zerolog.Nop())

	// Act
	resp, out := c.FetchPrices(context.Background(), agmarknet.Query{Commodity: "Rice"})

	// Assert: classified, not raised.
	require.Nil(t, resp)
	require.Equal(t, agmarknet.ClassUpstreamError, out.Class)
	require.Error(t, out.Err)
}
