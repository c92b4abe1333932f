// services/scheduler.go
package services

import (
	"log"
	"time"

	"game-arena-system/models"

	"github.com/go-co-op/gocron/v2"
)

// StartStaleEscrowReporter runs a periodic sweep that logs matches whose
// timeout deadline has passed without a claim. It never mutates state:
// timeouts are only ever applied through ClaimTimeout, so this job exists
// purely to make stuck escrow visible to operators.
func (s *MatchService) StartStaleEscrowReporter() (gocron.Scheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			var open []models.Match
			if err := s.DB.
				Where("state IN ?", []string{
					models.MatchStateCreated,
					models.MatchStateCommit,
					models.MatchStateReveal,
				}).
				Find(&open).Error; err != nil {
				log.Printf("[Scheduler] stale escrow sweep failed: %v", err)
				return
			}

			now := time.Now().UTC()
			for _, m := range open {
				deadline, ok := s.TimeoutDeadline(&m)
				if ok && now.After(deadline) {
					log.Printf("[Scheduler] match %d stuck in %s since %s, escrow %d claimable",
						m.ID, m.State, deadline.Format(time.RFC3339), m.EscrowedAmount())
				}
			}
		}),
	)
	if err != nil {
		return nil, err
	}

	scheduler.Start()
	log.Println("✅ Stale escrow reporter started (1m interval)")
	return scheduler, nil
}
