// services/scheduler.go
package services

import (
	"fmt"
	"log"

	"github.com/go-co-op/gocron/v2"
)

// StartDeadlineScheduler runs the deadline sweep on the policy's interval.
// The sweep is stateless and idempotent, so a missed or doubled tick is
// harmless.
func StartDeadlineScheduler(monitor *DeadlineMonitorService) (gocron.Scheduler, error) {
	if err := monitor.Policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid review policy: %w", err)
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(monitor.Policy.SweepInterval),
		gocron.NewTask(func() {
			result, err := monitor.ProcessDeadlines()
			if err != nil {
				log.Printf("[SWEEP] ❌ sweep aborted: %v", err)
				return
			}
			for _, e := range result.Errors {
				log.Printf("[SWEEP] ⚠️ %s", e)
			}
		}),
	)
	if err != nil {
		return nil, err
	}

	sched.Start()
	log.Printf("✅ Deadline sweep scheduled every %v", monitor.Policy.SweepInterval)
	return sched, nil
}
