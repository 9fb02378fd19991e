package bot

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// raidPollInterval is how often the resolver sweeps for due raids. Short
// enough that a raid never overshoots its join window by much.
const raidPollInterval = 5 * time.Second

// StartRaidResolutionWorker starts a background worker that resolves raids
// whose join window has elapsed. Pending raids survive restarts because the
// sweep reads deadlines from the database rather than holding timers.
// Returns a cleanup function to stop the worker gracefully.
func (b *Bot) StartRaidResolutionWorker(ctx context.Context) func() {
	ticker := time.NewTicker(raidPollInterval)
	stopChan := make(chan struct{})

	resolveDue := func() {
		due, err := b.raidService.GetDueRaids(ctx, time.Now().UTC())
		if err != nil {
			log.Errorf("Error getting due raids: %v", err)
			return
		}

		for _, raid := range due {
			result, err := b.raidService.ResolveRaid(ctx, raid.ID)
			if err != nil {
				log.WithFields(log.Fields{
					"raidID": raid.ID,
					"chatID": raid.ChatID,
					"error":  err,
				}).Error("Error resolving raid")
				continue
			}
			if result == nil {
				// Another sweep got there first
				continue
			}

			log.WithFields(log.Fields{
				"raidID":       raid.ID,
				"chatID":       raid.ChatID,
				"participants": len(result.Outcomes),
			}).Info("Raid resolved")

			b.reportRaidResult(ctx, result)
		}
	}

	go func() {
		log.Info("Raid resolution worker started")

		// Run immediately so raids pending across a restart resolve fast
		resolveDue()

		for {
			select {
			case <-ctx.Done():
				log.Info("Raid resolution worker shutting down (context cancelled)...")
				return
			case <-stopChan:
				log.Info("Raid resolution worker shutting down (stop requested)...")
				return
			case <-ticker.C:
				resolveDue()
			}
		}
	}()

	return func() {
		ticker.Stop()
		close(stopChan)
	}
}
