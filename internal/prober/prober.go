package prober

import (
	"context"
	"net"
	"project-portal/internal/domain"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultTimeout  = 1000 * time.Millisecond
	DefaultCacheTTL = 5000 * time.Millisecond
)

// Dialer opens network connections; *net.Dialer satisfies it
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

type cacheEntry struct {
	online     bool
	observedAt time.Time
}

// Prober checks TCP reachability and remembers results for a bounded time
type Prober struct {
	dialer      Dialer
	timeout     time.Duration
	ttl         time.Duration
	defaultHost string
	now         func() time.Time
	logger      *zap.Logger

	mu    sync.Mutex
	cache map[string]cacheEntry
}

type Option func(*Prober)

func WithTimeout(d time.Duration) Option {
	return func(p *Prober) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithCacheTTL sets the result lifetime; zero or negative disables caching
func WithCacheTTL(d time.Duration) Option {
	return func(p *Prober) { p.ttl = d }
}

// WithDefaultHost sets the host probed when a caller passes none
func WithDefaultHost(host string) Option {
	return func(p *Prober) { p.defaultHost = host }
}

func WithDialer(d Dialer) Option {
	return func(p *Prober) { p.dialer = d }
}

func WithClock(now func() time.Time) Option {
	return func(p *Prober) { p.now = now }
}

func WithLogger(l *zap.Logger) Option {
	return func(p *Prober) { p.logger = l }
}

// New creates a prober with its own cache
func New(opts ...Option) *Prober {
	p := &Prober{
		dialer:  &net.Dialer{},
		timeout: DefaultTimeout,
		ttl:     DefaultCacheTTL,
		now:     time.Now,
		logger:  zap.NewNop(),
		cache:   make(map[string]cacheEntry),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProbeOptions adjusts a single probe
type ProbeOptions struct {
	Timeout     time.Duration // zero uses the prober default
	BypassCache bool
}

// Probe reports whether host:port accepts TCP connections
func (p *Prober) Probe(ctx context.Context, host string, port int) bool {
	return p.ProbeWith(ctx, host, port, ProbeOptions{})
}

// ProbeWith is Probe with per-call timeout and cache control.
// Refusals, timeouts and resolution failures all come back as false.
func (p *Prober) ProbeWith(ctx context.Context, host string, port int, opts ProbeOptions) bool {
	if host == "" {
		host = p.defaultHost
	}
	if host == "" || port <= 0 || port > 65535 {
		return false
	}

	key := cacheKey(host, port)
	if !opts.BypassCache {
		if online, ok := p.lookup(key); ok {
			return online
		}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = p.timeout
	}

	online, observed := p.dial(ctx, host, port, timeout)
	if observed {
		p.store(key, online)
	}
	return online
}

// ProbeAll checks every candidate concurrently and waits for all of them
func (p *Prober) ProbeAll(ctx context.Context, candidates []domain.ProbeCandidate) []domain.ProbeResult {
	results := make([]domain.ProbeResult, len(candidates))

	var wg sync.WaitGroup
	for i, candidate := range candidates {
		wg.Add(1)
		go func(i int, candidate domain.ProbeCandidate) {
			defer wg.Done()
			results[i] = domain.ProbeResult{
				Candidate: candidate,
				Online:    p.Probe(ctx, candidate.Host, candidate.Port),
			}
		}(i, candidate)
	}
	wg.Wait()

	return results
}

// CacheSize returns the number of cached observations, stale ones included
func (p *Prober) CacheSize() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.cache)
}

// CacheTTL returns the configured result lifetime
func (p *Prober) CacheTTL() time.Duration {
	return p.ttl
}

func (p *Prober) ClearCache() {
	p.mu.Lock()
	p.cache = make(map[string]cacheEntry)
	p.mu.Unlock()
}

// dial returns the outcome and whether it reflects the target rather than a cancelled caller
func (p *Prober) dial(ctx context.Context, host string, port int, timeout time.Duration) (bool, bool) {
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	address := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := p.dialer.DialContext(dialCtx, "tcp", address)
	if err != nil {
		p.logger.Debug("Port probe failed",
			zap.String("address", address),
			zap.Error(err))
		return false, ctx.Err() == nil
	}
	_ = conn.Close()

	return true, true
}

func (p *Prober) lookup(key string) (bool, bool) {
	if p.ttl <= 0 {
		return false, false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.cache[key]
	if !ok {
		return false, false
	}
	if p.now().Sub(entry.observedAt) >= p.ttl {
		delete(p.cache, key)
		return false, false
	}
	return entry.online, true
}

func (p *Prober) store(key string, online bool) {
	if p.ttl <= 0 {
		return
	}

	p.mu.Lock()
	p.cache[key] = cacheEntry{online: online, observedAt: p.now()}
	p.mu.Unlock()
}

func cacheKey(host string, port int) string {
	return host + ":" + strconv.Itoa(port)
}
