package prober_test

import (
	"context"
	"errors"
	"net"
	"project-portal/internal/domain"
	"project-portal/internal/prober"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockDialer is a mock implementation of the Dialer interface
type MockDialer struct {
	mock.Mock
}

func (m *MockDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	args := m.Called(ctx, network, address)
	if conn, ok := args.Get(0).(net.Conn); ok {
		return conn, args.Error(1)
	}
	return nil, args.Error(1)
}

// fakeClock is advanced by hand so cache expiry is deterministic
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func pipeConn() net.Conn {
	client, server := net.Pipe()
	_ = server.Close()
	return client
}

func startListener(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			_ = conn.Close()
		}
	}()

	return ln.Addr().(*net.TCPAddr).Port
}

func closedPort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func TestProbe_OpenPort(t *testing.T) {
	t.Parallel()
	port := startListener(t)
	p := prober.New(prober.WithTimeout(time.Second))

	assert.True(t, p.Probe(context.Background(), "127.0.0.1", port))
}

func TestProbe_ClosedPort(t *testing.T) {
	t.Parallel()
	port := closedPort(t)
	timeout := 500 * time.Millisecond
	p := prober.New(prober.WithTimeout(timeout))

	start := time.Now()
	online := p.Probe(context.Background(), "127.0.0.1", port)

	assert.False(t, online)
	assert.Less(t, time.Since(start), timeout+time.Second)
}

func TestProbe_TimeoutDoesNotHang(t *testing.T) {
	t.Parallel()
	mockDialer := &MockDialer{}
	mockDialer.On("DialContext", mock.Anything, "tcp", "10.255.255.1:8080").
		Run(func(args mock.Arguments) {
			ctx := args.Get(0).(context.Context)
			<-ctx.Done()
		}).
		Return(nil, context.DeadlineExceeded)

	p := prober.New(prober.WithDialer(mockDialer), prober.WithTimeout(50*time.Millisecond))

	start := time.Now()
	online := p.Probe(context.Background(), "10.255.255.1", 8080)

	assert.False(t, online)
	assert.Less(t, time.Since(start), time.Second)
	mockDialer.AssertExpectations(t)
}

func TestProbe_InvalidTarget(t *testing.T) {
	t.Parallel()
	mockDialer := &MockDialer{}
	p := prober.New(prober.WithDialer(mockDialer))

	assert.False(t, p.Probe(context.Background(), "", 3000))
	assert.False(t, p.Probe(context.Background(), "localhost", 0))
	assert.False(t, p.Probe(context.Background(), "localhost", 70000))
	mockDialer.AssertNotCalled(t, "DialContext", mock.Anything, mock.Anything, mock.Anything)
}

func TestProbe_DefaultHost(t *testing.T) {
	t.Parallel()
	mockDialer := &MockDialer{}
	mockDialer.On("DialContext", mock.Anything, "tcp", "127.0.0.1:3000").Return(pipeConn(), nil)

	p := prober.New(prober.WithDialer(mockDialer), prober.WithDefaultHost("127.0.0.1"))

	assert.True(t, p.Probe(context.Background(), "", 3000))
	// an explicit host and the default share one cache entry
	assert.True(t, p.Probe(context.Background(), "127.0.0.1", 3000))
	mockDialer.AssertNumberOfCalls(t, "DialContext", 1)
}

func TestProbe_CacheWithinTTL(t *testing.T) {
	t.Parallel()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	mockDialer := &MockDialer{}
	mockDialer.On("DialContext", mock.Anything, "tcp", "localhost:3000").Return(pipeConn(), nil)

	p := prober.New(
		prober.WithDialer(mockDialer),
		prober.WithClock(clock.Now),
		prober.WithCacheTTL(5000*time.Millisecond),
	)
	ctx := context.Background()

	assert.True(t, p.Probe(ctx, "localhost", 3000))
	clock.Advance(4999 * time.Millisecond)
	assert.True(t, p.Probe(ctx, "localhost", 3000))
	mockDialer.AssertNumberOfCalls(t, "DialContext", 1)

	clock.Advance(2 * time.Millisecond)
	assert.True(t, p.Probe(ctx, "localhost", 3000))
	mockDialer.AssertNumberOfCalls(t, "DialContext", 2)
}

func TestProbe_CachesOfflineResults(t *testing.T) {
	t.Parallel()
	mockDialer := &MockDialer{}
	mockDialer.On("DialContext", mock.Anything, "tcp", "localhost:4000").
		Return(nil, errors.New("connection refused"))

	p := prober.New(prober.WithDialer(mockDialer))
	ctx := context.Background()

	assert.False(t, p.Probe(ctx, "localhost", 4000))
	assert.False(t, p.Probe(ctx, "localhost", 4000))
	mockDialer.AssertNumberOfCalls(t, "DialContext", 1)
	assert.Equal(t, 1, p.CacheSize())
}

func TestProbeWith_BypassCache(t *testing.T) {
	t.Parallel()
	mockDialer := &MockDialer{}
	mockDialer.On("DialContext", mock.Anything, "tcp", "localhost:3000").Return(pipeConn(), nil).Once()
	mockDialer.On("DialContext", mock.Anything, "tcp", "localhost:3000").
		Return(nil, errors.New("connection refused")).Once()

	p := prober.New(prober.WithDialer(mockDialer))
	ctx := context.Background()

	assert.True(t, p.Probe(ctx, "localhost", 3000))
	assert.False(t, p.ProbeWith(ctx, "localhost", 3000, prober.ProbeOptions{BypassCache: true}))
	// the bypassing probe refreshed the cache
	assert.False(t, p.Probe(ctx, "localhost", 3000))
	mockDialer.AssertNumberOfCalls(t, "DialContext", 2)
}

func TestProbe_CacheDisabled(t *testing.T) {
	t.Parallel()
	mockDialer := &MockDialer{}
	mockDialer.On("DialContext", mock.Anything, "tcp", "localhost:3000").Return(pipeConn(), nil)

	p := prober.New(prober.WithDialer(mockDialer), prober.WithCacheTTL(0))
	ctx := context.Background()

	p.Probe(ctx, "localhost", 3000)
	p.Probe(ctx, "localhost", 3000)

	mockDialer.AssertNumberOfCalls(t, "DialContext", 2)
	assert.Equal(t, 0, p.CacheSize())
}

func TestProbe_CancelledContextNotCached(t *testing.T) {
	t.Parallel()
	mockDialer := &MockDialer{}
	mockDialer.On("DialContext", mock.Anything, "tcp", "localhost:3000").Return(nil, context.Canceled)

	p := prober.New(prober.WithDialer(mockDialer))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.False(t, p.Probe(ctx, "localhost", 3000))
	assert.Equal(t, 0, p.CacheSize())
}

func TestClearCache(t *testing.T) {
	t.Parallel()
	mockDialer := &MockDialer{}
	mockDialer.On("DialContext", mock.Anything, "tcp", mock.Anything).Return(nil, errors.New("refused"))

	p := prober.New(prober.WithDialer(mockDialer))
	p.Probe(context.Background(), "localhost", 3000)
	p.Probe(context.Background(), "localhost", 3001)
	require.Equal(t, 2, p.CacheSize())

	p.ClearCache()

	assert.Equal(t, 0, p.CacheSize())
}

func TestProbeAll_PreservesCandidates(t *testing.T) {
	t.Parallel()
	openPort := startListener(t)
	offPort := closedPort(t)
	p := prober.New(prober.WithTimeout(time.Second))

	candidates := []domain.ProbeCandidate{
		{Host: "127.0.0.1", Port: openPort, Entry: domain.URLEntry{Type: domain.URLDevelopment, Label: "open"}},
		{Host: "127.0.0.1", Port: offPort, Entry: domain.URLEntry{Type: domain.URLProduction, Label: "closed"}},
		{Host: "127.0.0.1", Port: openPort, Entry: domain.URLEntry{Type: domain.URLMain, Label: "open again"}},
	}

	results := p.ProbeAll(context.Background(), candidates)

	require.Len(t, results, 3)
	for i, result := range results {
		assert.Equal(t, candidates[i], result.Candidate)
	}
	assert.True(t, results[0].Online)
	assert.False(t, results[1].Online)
	assert.True(t, results[2].Online)
}

func TestProbeAll_Empty(t *testing.T) {
	t.Parallel()
	p := prober.New()

	results := p.ProbeAll(context.Background(), nil)

	assert.Empty(t, results)
}
