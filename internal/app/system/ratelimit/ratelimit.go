// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Counter counts hits per key inside a fixed window that starts at the
// key's first hit.
type Counter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int, error)
	Reset(ctx context.Context, key string) error
}

// MemoryCounter is a process-local Counter. Expired keys are pruned on
// write once the map passes pruneAt entries.
type MemoryCounter struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

type window struct {
	count     int
	expiresAt time.Time
}

const pruneAt = 4096

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{windows: make(map[string]*window), now: time.Now}
}

func (m *MemoryCounter) Hit(_ context.Context, key string, d time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if len(m.windows) > pruneAt {
		for k, w := range m.windows {
			if now.After(w.expiresAt) {
				delete(m.windows, k)
			}
		}
	}

	w, ok := m.windows[key]
	if !ok || now.After(w.expiresAt) {
		w = &window{expiresAt: now.Add(d)}
		m.windows[key] = w
	}
	w.count++
	return w.count, nil
}

func (m *MemoryCounter) Reset(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.windows, key)
	return nil
}

// RedisCounter shares counts across instances. INCR and TTL go out in one
// MULTI; a key found without a TTL (first hit, or an earlier EXPIRE that
// failed) gets the window applied, so no key outlives its window for long.
type RedisCounter struct {
	c      *redis.Client
	prefix string
}

func NewRedisCounter(c *redis.Client, prefix string) *RedisCounter {
	return &RedisCounter{c: c, prefix: prefix}
}

func (r *RedisCounter) Hit(ctx context.Context, key string, d time.Duration) (int, error) {
	k := r.prefix + key
	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := r.c.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, k)
		ttl = p.TTL(ctx, k)
		return nil
	})
	if err != nil {
		return 0, err
	}
	n := int(incr.Val())
	// TTL reports -1 for a key with no expiry.
	if ttl.Val() < 0 {
		if err := r.c.Expire(ctx, k, d).Err(); err != nil {
			return n, err
		}
	}
	return n, nil
}

func (r *RedisCounter) Reset(ctx context.Context, key string) error {
	return r.c.Del(ctx, r.prefix+key).Err()
}

// LoginGuard limits sign-in attempts per client IP and per email.
// Counter errors fail open.
type LoginGuard struct {
	counter  Counter
	perIP    int
	perEmail int
	window   time.Duration
	log      *zap.Logger
}

// Default login limits.
const (
	DefaultPerIP    = 20
	DefaultPerEmail = 5
	DefaultWindow   = 15 * time.Minute
)

func NewLoginGuard(c Counter, logger *zap.Logger) *LoginGuard {
	return &LoginGuard{
		counter:  c,
		perIP:    DefaultPerIP,
		perEmail: DefaultPerEmail,
		window:   DefaultWindow,
		log:      logger,
	}
}

// Allow records an attempt and reports whether it may proceed.
func (g *LoginGuard) Allow(ctx context.Context, ip, email string) bool {
	if g == nil {
		return true
	}
	if n, err := g.counter.Hit(ctx, "ip:"+ip, g.window); err != nil {
		g.log.Warn("login rate counter failed", zap.Error(err))
	} else if n > g.perIP {
		return false
	}
	if email == "" {
		return true
	}
	if n, err := g.counter.Hit(ctx, "email:"+email, g.window); err != nil {
		g.log.Warn("login rate counter failed", zap.Error(err))
	} else if n > g.perEmail {
		return false
	}
	return true
}

// Succeeded clears the email counter after a good sign-in.
func (g *LoginGuard) Succeeded(ctx context.Context, email string) {
	if g == nil || email == "" {
		return
	}
	if err := g.counter.Reset(ctx, "email:"+email); err != nil {
		g.log.Warn("login rate reset failed", zap.Error(err))
	}
}

// ClientIP returns the first X-Forwarded-For hop, then X-Real-IP, then
// RemoteAddr without its port.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
