package services

import (
	"context"
	"time"

	"sqlquest/logger"

	"github.com/go-co-op/gocron/v2"
)

// StartScheduler runs the periodic maintenance jobs: the ranking cache rebuild
// and the counter achievement reconcile. The caller owns Shutdown.
func StartScheduler(log *logger.Logger, ranking *RankingService, achievements *AchievementService, rankingEvery, reconcileEvery time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	if ranking != nil && ranking.Redis != nil && rankingEvery > 0 {
		_, err = sched.NewJob(
			gocron.DurationJob(rankingEvery),
			gocron.NewTask(func() {
				ctx, cancel := context.WithTimeout(context.Background(), rankingEvery)
				defer cancel()
				if err := ranking.Refresh(ctx); err != nil {
					log.Warn("[Scheduler] ranking refresh failed", "error", err)
				}
			}),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
			gocron.WithStartAt(gocron.WithStartImmediately()),
		)
		if err != nil {
			return nil, err
		}
	}

	if achievements != nil && reconcileEvery > 0 {
		_, err = sched.NewJob(
			gocron.DurationJob(reconcileEvery),
			gocron.NewTask(func() {
				changed, err := achievements.ReconcileCounters(context.Background())
				if err != nil {
					log.Error("[Scheduler] achievement reconcile failed", "error", err)
					return
				}
				if changed > 0 {
					log.Info("[Scheduler] achievement counters reconciled", "rows", changed)
				}
			}),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return nil, err
		}
	}

	sched.Start()
	return sched, nil
}
