// internal/app/system/dashstate/aggregator.go
package dashstate

import (
	"context"
	"errors"
	"sync"
	"time"

	dashboardstore "github.com/dalemusser/studyhub/internal/app/store/dashboard"
	"github.com/dalemusser/studyhub/internal/app/system/timeouts"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Source supplies the six dashboard counters. Each call is independent.
// *dashboardstore.Repository satisfies it.
type Source interface {
	MyGroupsCount(ctx context.Context) (int64, error)
	ActiveAssignmentsCount(ctx context.Context) (int64, error)
	NewMessagesCount(ctx context.Context) (int64, error)
	TotalTasksCount(ctx context.Context) (int64, error)
	CompletedTasksCount(ctx context.Context) (int64, error)
	OverdueTasksCount(ctx context.Context) (int64, error)
}

// Aggregator runs dashboard load cycles and publishes ViewState snapshots.
//
// A load cycle publishes a loading state, fetches all six counters
// concurrently and then publishes exactly one completion state. Counters are
// replaced only when all six fetches succeed; a single failure keeps the
// previous counters and sets LoadFailedMessage.
//
// Overlapping cycles are not cancelled. Each publishes its own completion
// state, so the cycle that finishes last wins. Cycles belong to the
// Aggregator, not to the caller that started them: a caller that goes away
// stops waiting but never cuts a cycle short.
type Aggregator struct {
	src Source
	log *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	idle     *sync.Cond
	state    ViewState
	subs     map[string]chan ViewState
	inflight int
	closed   bool
	lastUsed time.Time
}

// New returns an Aggregator in InitialState. It does not start a load;
// the owner calls Load when it is ready.
func New(src Source, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	a := &Aggregator{
		src:      src,
		log:      logger,
		ctx:      ctx,
		cancel:   cancel,
		state:    InitialState(),
		subs:     make(map[string]chan ViewState),
		lastUsed: time.Now(),
	}
	a.idle = sync.NewCond(&a.mu)
	return a
}

// Current returns the most recently published state.
func (a *Aggregator) Current() ViewState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Subscribe returns a stream that yields the current state immediately and
// then every later publication. The stream closes when ctx is done or the
// Aggregator is closed. A slow reader is conflated to the newest state.
func (a *Aggregator) Subscribe(ctx context.Context) <-chan ViewState {
	ch := make(chan ViewState, 1)

	a.mu.Lock()
	ch <- a.state
	if a.closed {
		a.mu.Unlock()
		close(ch)
		return ch
	}
	id := uuid.NewString()
	a.subs[id] = ch
	a.mu.Unlock()
	subscribersGauge.Inc()

	context.AfterFunc(ctx, func() { a.unsubscribe(id) })
	return ch
}

// Subscribers returns the number of open streams.
func (a *Aggregator) Subscribers() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.subs)
}

func (a *Aggregator) unsubscribe(id string) {
	a.mu.Lock()
	ch, ok := a.subs[id]
	if ok {
		delete(a.subs, id)
		close(ch)
	}
	a.mu.Unlock()
	if ok {
		subscribersGauge.Dec()
	}
}

// Load publishes a loading state and runs one cycle in the background.
func (a *Aggregator) Load() {
	if !a.begin() {
		return
	}
	go a.run()
}

// Retry is Load under a name that reads better after a failure.
func (a *Aggregator) Retry() {
	a.Load()
}

// Refresh starts one cycle and waits for the state it publishes. If ctx is
// done first, Refresh returns the current state and the cycle carries on
// for the other subscribers.
func (a *Aggregator) Refresh(ctx context.Context) ViewState {
	if !a.begin() {
		return a.Current()
	}
	done := make(chan ViewState, 1)
	go func() { done <- a.run() }()

	select {
	case s := <-done:
		return s
	case <-ctx.Done():
		return a.Current()
	}
}

// ClearError publishes the current state with ErrorMessage cleared. It
// does not fetch.
func (a *Aggregator) ClearError() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastUsed = time.Now()
	a.publishLocked(a.state.withoutError())
}

// Wait blocks until no cycle is in flight.
func (a *Aggregator) Wait() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for a.inflight > 0 {
		a.idle.Wait()
	}
}

// Close abandons in-flight fetches, closes every subscriber stream and
// waits for running cycles to return. Further Loads are ignored.
func (a *Aggregator) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	n := len(a.subs)
	for id, ch := range a.subs {
		delete(a.subs, id)
		close(ch)
	}
	a.mu.Unlock()
	subscribersGauge.Sub(float64(n))

	a.cancel()
	a.Wait()
}

// LastUsed reports when the aggregator was last fetched from its Registry,
// loaded or cleared.
func (a *Aggregator) LastUsed() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastUsed
}

func (a *Aggregator) touch() {
	a.mu.Lock()
	a.lastUsed = time.Now()
	a.mu.Unlock()
}

// begin publishes the loading state and registers a cycle.
func (a *Aggregator) begin() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return false
	}
	a.inflight++
	a.lastUsed = time.Now()
	a.publishLocked(a.state.loading())
	return true
}

// run fetches under the cycle deadline, publishes the completion state and
// releases the cycle.
func (a *Aggregator) run() ViewState {
	ctx, cancel := timeouts.WithTimeout(a.ctx, timeouts.Long(), a.log, "dashboard load")
	defer cancel()

	start := time.Now()
	counts, err := a.fetch(ctx)
	cycleDuration.Observe(time.Since(start).Seconds())

	a.mu.Lock()
	defer a.mu.Unlock()

	var next ViewState
	switch {
	case err != nil && a.ctx.Err() != nil:
		// Closed mid-cycle: nothing failed, so settle without an error.
		cycleTotal.WithLabelValues("abandoned").Inc()
		a.log.Debug("dashboard load abandoned", zap.Duration("took", time.Since(start)))
		next = a.state.settled()
	case err != nil:
		category := "unknown"
		var dae *dashboardstore.DataAccessError
		if errors.As(err, &dae) {
			category = string(dae.Category)
		}
		fetchErrors.WithLabelValues(category).Inc()
		cycleTotal.WithLabelValues("error").Inc()
		a.log.Warn("dashboard load failed",
			zap.String("category", category),
			zap.Duration("took", time.Since(start)),
			zap.Error(err))
		next = a.state.failed()
	default:
		cycleTotal.WithLabelValues("ok").Inc()
		a.log.Debug("dashboard loaded", zap.Duration("took", time.Since(start)))
		next = a.state.succeeded(counts)
	}

	a.publishLocked(next)
	a.inflight--
	a.idle.Broadcast()
	return next
}

// fetch runs the six counts concurrently and returns either all of them or
// the first error. Each goroutine writes its own field, so no locking is
// needed until the join.
func (a *Aggregator) fetch(ctx context.Context) (Counts, error) {
	var c Counts
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		c.MyGroups, err = a.src.MyGroupsCount(gctx)
		return err
	})
	g.Go(func() (err error) {
		c.ActiveAssignments, err = a.src.ActiveAssignmentsCount(gctx)
		return err
	})
	g.Go(func() (err error) {
		c.NewMessages, err = a.src.NewMessagesCount(gctx)
		return err
	})
	g.Go(func() (err error) {
		c.TotalTasks, err = a.src.TotalTasksCount(gctx)
		return err
	})
	g.Go(func() (err error) {
		c.CompletedTasks, err = a.src.CompletedTasksCount(gctx)
		return err
	})
	g.Go(func() (err error) {
		c.OverdueTasks, err = a.src.OverdueTasksCount(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return Counts{}, err
	}
	return c, nil
}

// publishLocked replaces the state and offers it to every subscriber.
// Channels have capacity 1 and only publishLocked sends, so after draining
// a stale value the send cannot block.
func (a *Aggregator) publishLocked(s ViewState) {
	a.state = s
	for _, ch := range a.subs {
		select {
		case ch <- s:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- s
		}
	}
}
