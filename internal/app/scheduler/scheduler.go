// Package scheduler runs the bot's background loops: challenge
// releases, timeouts, hunt clue drips, and backups. One goroutine per
// task; a panicking tick is logged and the loop keeps going.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Task is one periodic job. Run receives the tick time so the work is
// testable against fixed clocks.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(now time.Time) error
}

type Scheduler struct {
	log   *slog.Logger
	tasks []Task
	wg    sync.WaitGroup
}

func New(log *slog.Logger, tasks ...Task) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{log: log, tasks: tasks}
}

// Start launches every task loop. Loops stop when ctx is cancelled;
// Wait blocks until they have all drained.
func (s *Scheduler) Start(ctx context.Context) {
	for _, task := range s.tasks {
		s.wg.Add(1)
		go s.loop(ctx, task)
	}
}

func (s *Scheduler) Wait() { s.wg.Wait() }

func (s *Scheduler) loop(ctx context.Context, task Task) {
	defer s.wg.Done()
	s.log.Info("task started", "task", task.Name, "interval", task.Interval)

	t := time.NewTicker(task.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log.Info("task stopped", "task", task.Name)
			return
		case now := <-t.C:
			s.tick(task, now)
		}
	}
}

func (s *Scheduler) tick(task Task, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("task panicked", "task", task.Name, "panic", r)
		}
	}()
	if err := task.Run(now); err != nil {
		s.log.Error("task failed", "task", task.Name, "err", err)
	}
}
