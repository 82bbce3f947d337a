package server

import (
	"time"

	"github.com/go-co-op/gocron"

	"github.com/jlvsolutions/WorldCities-sub000/internal/logger"
)

// StartJobs schedules the periodic maintenance of s and starts the
// scheduler. Stop it with Stop.
func (s *Server) StartJobs(purgeEvery time.Duration) (*gocron.Scheduler, error) {
	sched := gocron.NewScheduler(time.UTC)
	if _, err := sched.Every(purgeEvery).Do(func() {
		if n := s.Tokens.Purge(); n > 0 {
			logger.L.Infow("purged refresh tokens", "count", n)
		}
	}); err != nil {
		return nil, err
	}
	sched.StartAsync()
	return sched, nil
}
