// internal/app/system/tasks/runner.go
package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/studyhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Job is a named unit of periodic work.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Runner runs each Job on its own ticker until Stop is called.
// A run gets timeouts.Long() to finish; errors are logged, never fatal.
type Runner struct {
	log  *zap.Logger
	jobs []Job

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// NewRunner creates a runner for jobs. Jobs with a non-positive interval
// are skipped at Start.
func NewRunner(logger *zap.Logger, jobs ...Job) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{log: logger, jobs: jobs, ctx: ctx, cancel: cancel}
}

// Start launches one goroutine per job.
func (r *Runner) Start() {
	for _, j := range r.jobs {
		if j.Interval <= 0 || j.Run == nil {
			r.log.Warn("skipping job without interval", zap.String("job", j.Name))
			continue
		}
		r.wg.Add(1)
		go r.loop(j)
		r.log.Info("job scheduled", zap.String("job", j.Name), zap.Duration("interval", j.Interval))
	}
}

// Stop cancels running jobs and waits for them to return. It is safe to
// call more than once.
func (r *Runner) Stop() {
	r.once.Do(func() {
		r.cancel()
		r.wg.Wait()
		r.log.Info("job runner stopped")
	})
}

func (r *Runner) loop(j Job) {
	defer r.wg.Done()

	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.runOnce(j)
		}
	}
}

func (r *Runner) runOnce(j Job) {
	ctx, cancel := timeouts.WithTimeout(r.ctx, timeouts.Long(), r.log, j.Name)
	defer cancel()

	start := time.Now()
	if err := j.Run(ctx); err != nil {
		r.log.Error("job failed", zap.String("job", j.Name), zap.Error(err))
		return
	}
	r.log.Debug("job finished", zap.String("job", j.Name), zap.Duration("took", time.Since(start)))
}
