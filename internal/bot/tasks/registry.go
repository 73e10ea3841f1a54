// Package tasks implements the relay's scheduled housekeeping tasks.
package tasks

import (
	"context"
	"log/slog"
	"time"

	"github.com/edgard/botrelay/internal/config"
	"github.com/edgard/botrelay/internal/database"
)

// ScheduledTaskFunc is the signature of every scheduled task.
// Tasks must respect ctx cancellation.
type ScheduledTaskFunc func(ctx context.Context) error

// TaskDeps contains the dependencies of scheduled tasks.
type TaskDeps struct {
	Logger    *slog.Logger
	Store     database.Store
	Retention time.Duration
	Now       func() time.Time
}

// RegisterAllTasks returns all tasks keyed by the name used under scheduler.tasks in the config.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	if deps.Now == nil {
		deps.Now = time.Now
	}

	tasks := map[string]ScheduledTaskFunc{
		config.TaskRegistrationLogPrune: newRegistrationLogPruneTask(deps),
		config.TaskSQLMaintenance:       newSQLMaintenanceTask(deps),
	}

	deps.Logger.Info("Initialized scheduled tasks", "count", len(tasks))
	return tasks
}
