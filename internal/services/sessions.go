package services

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"

	"github.com/tky-kevin/LazyTravelogue-sub000/internal/ports"
)

type session struct {
	cache    *RouteCache
	lastSeen atomic.Int64 // unix nanos
}

// SessionRegistry scopes a RouteCache to each planning session.
type SessionRegistry struct {
	oracle  ports.RouteCostOracle
	idleTTL time.Duration
	log     *zap.Logger
	now     func() time.Time

	sessions *xsync.MapOf[string, *session]
}

func NewSessionRegistry(oracle ports.RouteCostOracle, idleTTL time.Duration, log *zap.Logger) *SessionRegistry {
	if log == nil {
		log = zap.NewNop()
	}
	return &SessionRegistry{
		oracle:   oracle,
		idleTTL:  idleTTL,
		log:      log,
		now:      time.Now,
		sessions: xsync.NewMapOf[string, *session](),
	}
}

// Get returns the session's cache, creating it on first use. The session is
// touched under the map's bucket lock so a concurrent sweep cannot expire it.
func (r *SessionRegistry) Get(id string) *RouteCache {
	now := r.now().UnixNano()
	started := false
	s, _ := r.sessions.Compute(id, func(s *session, loaded bool) (*session, bool) {
		if !loaded {
			cache := NewRouteCache(r.oracle, r.log.With(zap.String("session", id)))
			cache.now = r.now
			s = &session{cache: cache}
			started = true
		}
		s.lastSeen.Store(now)
		return s, false
	})
	if started {
		r.log.Debug("session started", zap.String("session", id))
	}
	return s.cache
}

// End resets and forgets the session. It reports whether the session existed.
func (r *SessionRegistry) End(id string) bool {
	s, ok := r.sessions.LoadAndDelete(id)
	if !ok {
		return false
	}
	s.cache.Reset()
	r.log.Debug("session ended", zap.String("session", id))
	return true
}

// Sweep ends sessions idle for longer than the idle TTL and returns how many
// were dropped. A non-positive TTL disables expiry.
func (r *SessionRegistry) Sweep(now time.Time) int {
	if r.idleTTL <= 0 {
		return 0
	}

	cutoff := now.Add(-r.idleTTL).UnixNano()
	dropped := 0
	for _, id := range r.idleSessions(cutoff) {
		if r.expire(id, cutoff) {
			dropped++
		}
	}
	return dropped
}

func (r *SessionRegistry) idleSessions(cutoff int64) []string {
	var idle []string
	r.sessions.Range(func(id string, s *session) bool {
		if s.lastSeen.Load() < cutoff {
			idle = append(idle, id)
		}
		return true
	})
	return idle
}

// expire removes the session only if it is still idle at cutoff.
func (r *SessionRegistry) expire(id string, cutoff int64) bool {
	var expired *session
	r.sessions.Compute(id, func(s *session, loaded bool) (*session, bool) {
		if !loaded {
			return s, true
		}
		if s.lastSeen.Load() >= cutoff {
			return s, false
		}
		expired = s
		return s, true
	})
	if expired == nil {
		return false
	}

	expired.cache.Reset()
	r.log.Debug("session expired", zap.String("session", id))
	return true
}

// Run sweeps idle sessions every interval until ctx is done.
func (r *SessionRegistry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(r.now()); n > 0 {
				r.log.Info("idle sessions swept", zap.Int("count", n))
			}
		}
	}
}

func (r *SessionRegistry) Len() int {
	return r.sessions.Size()
}
