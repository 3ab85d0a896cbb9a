package fetcher

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/sells-group/property-profile/internal/resilience"
)

func testClient(srv *httptest.Server, attempts int) *Client {
	return New(Options{
		RatePerSecond: 1000,
		Policy:        resilience.Policy{Attempts: attempts, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond},
		Breakers:      resilience.NewBreakers(resilience.BreakerConfig{Threshold: 2, Cooldown: time.Hour}),
		HTTPClient:    srv.Client(),
	})
}

func TestGetJSON_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "property-profile/1.0", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"name":"ok","count":3}`)
	}))
	defer srv.Close()

	var out struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	err := testClient(srv, 1).GetJSON(context.Background(), srv.URL+"/x", &out)
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Name)
	assert.Equal(t, 3, out.Count)
}

func TestGetJSON_RetriesTransient(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	var out map[string]any
	require.NoError(t, testClient(srv, 3).GetJSON(context.Background(), srv.URL, &out))
	assert.Equal(t, int32(2), calls.Load())
}

func TestGetJSON_PermanentStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	var out map[string]any
	err := testClient(srv, 3).GetJSON(context.Background(), srv.URL, &out)
	require.Error(t, err)
	var se *resilience.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetJSON_DecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `not json`)
	}))
	defer srv.Close()

	var out map[string]any
	err := testClient(srv, 1).GetJSON(context.Background(), srv.URL, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestGetJSON_CircuitOpens(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := testClient(srv, 1)
	var out map[string]any
	for i := 0; i < 2; i++ {
		require.Error(t, c.GetJSON(context.Background(), srv.URL, &out))
	}
	err := c.GetJSON(context.Background(), srv.URL, &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGetJSON_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	var out map[string]any
	err := testClient(srv, 3).GetJSON(ctx, srv.URL, &out)
	require.Error(t, err)
}

func TestHostLimiter_Adaptive(t *testing.T) {
	h := newHostLimiter(rate.Limit(8))
	h.OnRateLimit()
	assert.Equal(t, rate.Limit(4), h.Limit())
	h.OnRateLimit()
	h.OnRateLimit()
	assert.Equal(t, rate.Limit(2), h.Limit())
	for i := 0; i < 10; i++ {
		h.OnSuccess()
	}
	assert.Equal(t, rate.Limit(8), h.Limit())
}

func TestBuildURL(t *testing.T) {
	assert.Equal(t, "https://a.example/api/v1?q=12+rue", BuildURL("https://a.example/", "/api/v1", url.Values{"q": {"12 rue"}}))
	assert.Equal(t, "https://a.example", BuildURL("https://a.example", "", nil))
}
