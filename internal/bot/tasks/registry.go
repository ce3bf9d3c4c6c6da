package tasks

import (
	"context"
)

// ScheduledTaskFunc defines the standard signature for all scheduled tasks.
// The context provided by the scheduler should be respected for cancellation.
type ScheduledTaskFunc = func(ctx context.Context) error

// RegisterAllTasks returns the available tasks keyed by the names used in the
// scheduler configuration. Archive tasks are only registered when an archive
// is configured.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	tasks := make(map[string]ScheduledTaskFunc)

	tasks["stats_report"] = newStatsReportTask(deps)

	if deps.Archive != nil {
		tasks["archive_messages"] = newArchiveMessagesTask(deps)
		tasks["sql_maintenance"] = newSQLMaintenanceTask(deps)
	}

	deps.Logger.Info("Initialized scheduled tasks", "count", len(tasks))
	return tasks
}
