// retention.go - Scheduled pruning of old audit records

package storage

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// PruneOnce deletes records older than retention.
func PruneOnce(ctx context.Context, store AuditStore, retention time.Duration, now time.Time) (int64, error) {
	return store.Prune(ctx, now.Add(-retention))
}

// StartRetentionScheduler prunes store on schedule until ctx is done.
// The schedule is a 5-field cron expression or a descriptor such as "@daily".
// An empty schedule or a non-positive retention disables pruning.
func StartRetentionScheduler(ctx context.Context, store AuditStore, schedule string, retention time.Duration) error {
	schedule = strings.TrimSpace(schedule)
	if schedule == "" || retention <= 0 {
		log.Println("Audit retention disabled")
		return nil
	}

	sched, err := scheduleParser.Parse(schedule)
	if err != nil {
		return fmt.Errorf("invalid AUDIT_PRUNE_SCHEDULE %q: %w", schedule, err)
	}
	log.Printf("🧹 Audit retention scheduled (cron: %s, keep %s)", schedule, retention)

	go func() {
		for {
			now := time.Now()
			next := sched.Next(now)
			timer := time.NewTimer(next.Sub(now))

			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}

			removed, err := PruneOnce(ctx, store, retention, time.Now())
			if err != nil {
				log.Printf("⚠️  Audit prune error: %v", err)
				continue
			}
			log.Printf("🧹 Audit prune complete: %d records removed", removed)
		}
	}()
	return nil
}
