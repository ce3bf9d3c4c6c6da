package tasks

import (
	"context"
)

// newStatsReportTask logs the cumulative cycle counters and the size of the
// conversation store.
func newStatsReportTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "stats_report")

	return func(ctx context.Context) error {
		stats := deps.Bot.Stats()
		counts := deps.Bot.Store().Counts()

		log.InfoContext(ctx, "Bot statistics",
			"cycles", stats.Cycles,
			"fetched", stats.Fetched,
			"folded", stats.Folded,
			"skipped", stats.Skipped,
			"decode_errors", stats.DecodeErrors,
			"dispatched", stats.Dispatched,
			"fetch_failures", stats.FetchFailures,
			"offset", deps.Bot.Offset(),
			"chats", counts.Chats,
			"users", counts.Users,
			"messages", counts.Messages,
		)
		return nil
	}
}
