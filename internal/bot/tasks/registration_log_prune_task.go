package tasks

import (
	"context"
	"fmt"
)

// newRegistrationLogPruneTask deletes audit entries older than the configured retention.
func newRegistrationLogPruneTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "registration_log_prune")

	return func(ctx context.Context) error {
		cutoff := deps.Now().Add(-deps.Retention)

		removed, err := deps.Store.PruneRegistrations(ctx, cutoff)
		if err != nil {
			log.ErrorContext(ctx, "Registration log prune failed", "error", err)
			return fmt.Errorf("registration log prune failed: %w", err)
		}

		log.InfoContext(ctx, "Registration log pruned", "removed", removed, "cutoff", cutoff)
		return nil
	}
}
