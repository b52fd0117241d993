// internal/app/system/dashstate/registry.go
package dashstate

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// SourceFactory builds the counter source for one user.
type SourceFactory func(userID string) Source

// Registry keeps one Aggregator per signed-in user. Aggregators are created
// lazily and evicted after a period without loads or subscribers.
type Registry struct {
	mu      sync.Mutex
	aggs    map[string]*Aggregator
	factory SourceFactory
	log     *zap.Logger
	now     func() time.Time
}

// NewRegistry returns an empty Registry.
func NewRegistry(factory SourceFactory, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		aggs:    make(map[string]*Aggregator),
		factory: factory,
		log:     logger,
		now:     time.Now,
	}
}

// Get returns the user's Aggregator, creating it if needed. A new
// Aggregator starts in InitialState; the caller decides when to Load.
func (r *Registry) Get(userID string) *Aggregator {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a, ok := r.aggs[userID]; ok {
		a.touch()
		return a
	}
	a := New(r.factory(userID), r.log.With(zap.String("user", userID)))
	r.aggs[userID] = a
	sessionsGauge.Inc()
	return a
}

// Len returns the number of live aggregators.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.aggs)
}

// Release closes and forgets the user's aggregator unless it has open
// subscriptions, which keep it alive until eviction. It reports whether
// the aggregator was removed.
func (r *Registry) Release(userID string) bool {
	r.mu.Lock()
	a, ok := r.aggs[userID]
	if !ok || a.Subscribers() > 0 {
		r.mu.Unlock()
		return false
	}
	delete(r.aggs, userID)
	r.mu.Unlock()

	a.Close()
	sessionsGauge.Dec()
	return true
}

// Evict closes and removes aggregators idle for at least ttl. Aggregators
// with open subscriptions are kept. It returns how many were removed.
func (r *Registry) Evict(ttl time.Duration) int {
	cutoff := r.now().Add(-ttl)

	r.mu.Lock()
	var victims []*Aggregator
	for id, a := range r.aggs {
		if a.Subscribers() > 0 || a.LastUsed().After(cutoff) {
			continue
		}
		delete(r.aggs, id)
		victims = append(victims, a)
	}
	r.mu.Unlock()

	for _, a := range victims {
		a.Close()
	}
	sessionsGauge.Sub(float64(len(victims)))
	return len(victims)
}

// Close closes every aggregator.
func (r *Registry) Close() {
	r.mu.Lock()
	all := r.aggs
	r.aggs = make(map[string]*Aggregator)
	r.mu.Unlock()

	for _, a := range all {
		a.Close()
	}
	sessionsGauge.Sub(float64(len(all)))
	r.log.Info("dashboard sessions closed", zap.Int("count", len(all)))
}
