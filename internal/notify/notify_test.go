package notify

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name  string
	ready bool
	err   error
	sent  atomic.Int64
}

func (p *stubProvider) Name() string  { return p.name }
func (p *stubProvider) Ready() bool   { return p.ready }
func (p *stubProvider) Acquire() bool { return p.ready }

func (p *stubProvider) Send(ctx context.Context, r Recovery) error {
	p.sent.Add(1)
	return p.err
}

func testRecovery() Recovery {
	return Recovery{
		ShopDomain:  "shop1.example",
		CheckoutID:  100,
		Email:       "a@b.com",
		RecoveryURL: "https://shop1.example/recover/t1",
	}
}

func TestBreakerOpensAfterThreshold(t *testing.T) {
	br := NewBreaker(2, time.Minute)

	require.True(t, br.TryAcquire())
	br.OnFailure()
	assert.True(t, br.Ready(), "one failure keeps it closed")

	br.OnFailure()
	assert.False(t, br.Ready())
	assert.False(t, br.TryAcquire())
}

func TestBreakerProbesAfterOpenWindow(t *testing.T) {
	br := NewBreaker(1, 5*time.Millisecond)
	br.OnFailure()
	require.False(t, br.TryAcquire())

	time.Sleep(10 * time.Millisecond)

	// one probe only
	assert.True(t, br.TryAcquire())
	assert.False(t, br.TryAcquire(), "second concurrent probe is refused")

	br.OnSuccess()
	assert.True(t, br.Ready())
	assert.True(t, br.TryAcquire())
}

func TestBreakerFailedProbeReopens(t *testing.T) {
	br := NewBreaker(1, 5*time.Millisecond)
	br.OnFailure()
	time.Sleep(10 * time.Millisecond)

	require.True(t, br.TryAcquire())
	br.OnFailure()

	assert.False(t, br.TryAcquire(), "failed probe re-opens the window")
}

func TestDispatcherRoundRobin(t *testing.T) {
	a := &stubProvider{name: "a", ready: true}
	b := &stubProvider{name: "b", ready: true}
	d := NewDispatcher([]Provider{a, b}, 1)

	for i := 0; i < 4; i++ {
		require.NoError(t, d.Send(context.Background(), testRecovery()))
	}

	assert.Equal(t, int64(2), a.sent.Load())
	assert.Equal(t, int64(2), b.sent.Load())
}

func TestDispatcherSkipsUnhealthy(t *testing.T) {
	down := &stubProvider{name: "down", ready: false}
	up := &stubProvider{name: "up", ready: true}
	d := NewDispatcher([]Provider{down, up}, 2)

	require.NoError(t, d.Send(context.Background(), testRecovery()))
	assert.Equal(t, int64(0), down.sent.Load())
	assert.Equal(t, int64(1), up.sent.Load())
}

func TestDispatcherNoHealthyProviders(t *testing.T) {
	d := NewDispatcher([]Provider{&stubProvider{name: "down"}}, 2)

	err := d.Send(context.Background(), testRecovery())
	require.ErrorIs(t, err, ErrNoHealthy)
}

func TestDispatcherRetriesAcrossProviders(t *testing.T) {
	flaky := &stubProvider{name: "flaky", ready: true, err: errors.New("timeout")}
	solid := &stubProvider{name: "solid", ready: true}
	d := NewDispatcher([]Provider{flaky, solid}, 2)

	require.NoError(t, d.Send(context.Background(), testRecovery()))
	assert.Equal(t, int64(1), flaky.sent.Load())
	assert.Equal(t, int64(1), solid.sent.Load())
}

func TestHTTPProviderPostsPayload(t *testing.T) {
	var gotContentType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	p := NewHTTPProvider("webhook", srv.URL, 2000, 3, 15000)
	require.NoError(t, p.Send(context.Background(), testRecovery()))

	assert.Equal(t, "application/json", gotContentType)
	assert.Contains(t, string(gotBody), `"checkout_id":100`)
	assert.Contains(t, string(gotBody), `"email":"a@b.com"`)
}

func TestHTTPProviderTripsBreakerOn5xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewHTTPProvider("webhook", srv.URL, 2000, 2, 60000)

	require.Error(t, p.Send(context.Background(), testRecovery()))
	assert.True(t, p.Ready())
	require.Error(t, p.Send(context.Background(), testRecovery()))
	assert.False(t, p.Ready(), "breaker opens after consecutive failures")
}
