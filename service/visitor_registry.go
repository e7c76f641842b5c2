package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultVisitorTTL is how long an idle visitor's storefront is kept
const DefaultVisitorTTL = 30 * time.Minute

// ErrRegistryClosed is returned for lookups after Close
var ErrRegistryClosed = errors.New("visitor registry closed")

// StorefrontFactory builds the storefront of a new visitor
type StorefrontFactory func() *Storefront

type visitor struct {
	storefront *Storefront
	lastSeen   time.Time
}

// VisitorRegistry keeps one Storefront per browser visitor
type VisitorRegistry struct {
	factory StorefrontFactory
	ttl     time.Duration
	now     func() time.Time
	log     *zap.Logger

	mu       sync.Mutex
	visitors map[string]*visitor
	closed   bool
}

// NewVisitorRegistry creates a registry evicting visitors idle longer than ttl
func NewVisitorRegistry(factory StorefrontFactory, ttl time.Duration, log *zap.Logger) *VisitorRegistry {
	if ttl <= 0 {
		ttl = DefaultVisitorTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &VisitorRegistry{
		factory:  factory,
		ttl:      ttl,
		now:      time.Now,
		log:      log,
		visitors: map[string]*visitor{},
	}
}

// GetOrCreate returns the storefront for id. Unknown or empty ids get a new
// visitor; created reports whether that happened, and the returned id must be
// handed back to the browser.
func (r *VisitorRegistry) GetOrCreate(id string) (string, *Storefront, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return "", nil, false, ErrRegistryClosed
	}

	now := r.now()
	if v, ok := r.visitors[id]; ok && id != "" {
		v.lastSeen = now
		return id, v.storefront, false, nil
	}

	id = uuid.NewString()
	v := &visitor{storefront: r.factory(), lastSeen: now}
	r.visitors[id] = v
	r.log.Debug("visitor created", zap.String("visitor_id", id))
	return id, v.storefront, true, nil
}

// Len returns the number of live visitors
func (r *VisitorRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.visitors)
}

// Sweep closes and removes visitors idle longer than the TTL
func (r *VisitorRegistry) Sweep() int {
	r.mu.Lock()
	cutoff := r.now().Add(-r.ttl)
	var expired []*Storefront
	for id, v := range r.visitors {
		if v.lastSeen.Before(cutoff) {
			expired = append(expired, v.storefront)
			delete(r.visitors, id)
		}
	}
	r.mu.Unlock()

	for _, sf := range expired {
		sf.Close()
	}
	if len(expired) > 0 {
		r.log.Info("evicted idle visitors", zap.Int("count", len(expired)))
	}
	return len(expired)
}

// Run sweeps every interval until ctx is done
func (r *VisitorRegistry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = r.ttl / 2
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Close closes every storefront
func (r *VisitorRegistry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	all := make([]*Storefront, 0, len(r.visitors))
	for id, v := range r.visitors {
		all = append(all, v.storefront)
		delete(r.visitors, id)
	}
	r.mu.Unlock()

	for _, sf := range all {
		sf.Close()
	}
}
