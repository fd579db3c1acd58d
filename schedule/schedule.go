// Package schedule runs the recurring crawl jobs on fixed intervals.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Task is one unit of recurring work. Implementations must be safe to run
// concurrently with themselves, since a slow run can overlap the next tick.
type Task interface {
	Name() string
	Run(ctx context.Context)
}

// TaskFunc adapts a function to the Task interface.
type TaskFunc struct {
	TaskName string
	Fn       func(ctx context.Context)
}

func (t TaskFunc) Name() string            { return t.TaskName }
func (t TaskFunc) Run(ctx context.Context) { t.Fn(ctx) }

// Definition binds a named group of tasks to an interval. Every tick fires
// all tasks of the group in parallel.
type Definition struct {
	Name  string
	Every time.Duration
	Tasks []Task
}

// Manager owns the cron runner and the base context handed to tasks.
type Manager struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
}

func NewManager() *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{cron: cron.New(), ctx: ctx, cancel: cancel}
}

// Register schedules a definition. Tasks are detached per tick, so one slow
// or panicking task never delays its siblings or later ticks.
func (m *Manager) Register(def Definition) error {
	if len(def.Tasks) == 0 {
		return fmt.Errorf("schedule %q has no tasks", def.Name)
	}

	spec := fmt.Sprintf("@every %s", def.Every)
	_, err := m.cron.AddFunc(spec, func() {
		for _, task := range def.Tasks {
			go m.runTask(def.Name, task)
		}
	})
	if err != nil {
		return fmt.Errorf("register schedule %q: %w", def.Name, err)
	}

	slog.Info("schedule registered", "name", def.Name, "every", def.Every, "tasks", len(def.Tasks))
	return nil
}

func (m *Manager) runTask(schedule string, task Task) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("scheduled task panicked",
				"schedule", schedule, "task", task.Name(), "panic", rec)
		}
	}()

	start := time.Now()
	task.Run(m.ctx)
	slog.Debug("scheduled task finished",
		"schedule", schedule, "task", task.Name(), "duration", time.Since(start))
}

// Start begins firing ticks in the background.
func (m *Manager) Start() {
	m.cron.Start()
}

// Stop cancels the task context and waits for cron's own bookkeeping to
// drain. Detached tasks observe cancellation through their context.
func (m *Manager) Stop() {
	m.cancel()
	<-m.cron.Stop().Done()
}
