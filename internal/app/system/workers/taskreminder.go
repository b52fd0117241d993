// internal/app/system/workers/taskreminder.go
package workers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dalemusser/studyhub/internal/app/system/timeouts"
	"github.com/dalemusser/studyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// DueTasks is the slice of the task store the reminder needs.
type DueTasks interface {
	DueForReminder(ctx context.Context, now time.Time, window time.Duration, limit int64) ([]models.Task, error)
	MarkReminded(ctx context.Context, id primitive.ObjectID, at time.Time) (bool, error)
}

// Notifier writes in-app notifications.
type Notifier interface {
	Create(ctx context.Context, n models.Notification) (models.Notification, error)
}

// reminderBatch caps the tasks handled per tick.
const reminderBatch = 500

// TaskReminder is a background worker that notifies assignees of open
// tasks coming due.
type TaskReminder struct {
	tasks    DueTasks
	notes    Notifier
	log      *zap.Logger
	interval time.Duration
	window   time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewTaskReminder creates a reminder worker.
//
// Parameters:
//   - interval: how often to scan (e.g., 5 minutes)
//   - window: how far ahead a due date triggers a reminder (e.g., 24 hours)
func NewTaskReminder(tasks DueTasks, notes Notifier, logger *zap.Logger, interval, window time.Duration) *TaskReminder {
	return &TaskReminder{
		tasks:    tasks,
		notes:    notes,
		log:      logger,
		interval: interval,
		window:   window,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background loop.
func (w *TaskReminder) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("task reminder worker started",
		zap.Duration("interval", w.interval),
		zap.Duration("window", w.window))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *TaskReminder) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("task reminder worker stopped")
}

func (w *TaskReminder) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			ctx, cancel := timeouts.WithTimeout(context.Background(), timeouts.Long(), w.log, "task reminder sweep")
			if _, err := w.RunOnce(ctx); err != nil {
				w.log.Error("task reminder sweep failed", zap.Error(err))
			}
			cancel()
		}
	}
}

// RunOnce performs one scan and returns how many reminders it wrote.
// A task is claimed with MarkReminded before its notification is written,
// so two overlapping scans never notify twice.
func (w *TaskReminder) RunOnce(ctx context.Context) (int, error) {
	now := w.now().UTC()
	due, err := w.tasks.DueForReminder(ctx, now, w.window, reminderBatch)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, t := range due {
		claimed, err := w.tasks.MarkReminded(ctx, t.ID, now)
		if err != nil {
			return sent, err
		}
		if !claimed {
			continue
		}
		id := t.ID
		if _, err := w.notes.Create(ctx, models.Notification{
			UserID:    t.AssigneeID,
			Kind:      models.NotificationTaskDue,
			TaskID:    &id,
			Title:     reminderTitle(t, now),
			Body:      t.Title,
			CreatedAt: now,
		}); err != nil {
			return sent, err
		}
		sent++
	}

	if sent > 0 {
		w.log.Info("task reminders sent", zap.Int("count", sent))
	}
	return sent, nil
}

func reminderTitle(t models.Task, now time.Time) string {
	if t.DueAt != nil && t.DueAt.Before(now) {
		return fmt.Sprintf("Overdue: %s", t.Title)
	}
	return fmt.Sprintf("Due soon: %s", t.Title)
}
