// Package jobs runs scheduled background tasks on a cron.
package jobs

import (
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	cron "github.com/robfig/cron"
	"github.com/sirupsen/logrus"
)

// CronJob is a named task with a cron schedule.
type CronJob interface {
	Name() string
	Schedule() string
	Run()
}

// Runner schedules cron jobs and guards against overlapping runs of the
// same job.
type Runner struct {
	cron    *cron.Cron
	jobs    []CronJob
	running mapset.Set[string]
	mu      sync.Mutex
	log     *logrus.Logger
}

func NewRunner(log *logrus.Logger, jobs ...CronJob) *Runner {
	return &Runner{
		cron:    cron.New(),
		jobs:    jobs,
		running: mapset.NewSet[string](),
		log:     log,
	}
}

// Start registers every job with the cron and starts it.
func (r *Runner) Start() error {
	for _, job := range r.jobs {
		job := job
		err := r.cron.AddFunc(job.Schedule(), func() {
			r.mu.Lock()
			if r.running.Contains(job.Name()) {
				r.mu.Unlock()
				r.log.WithField("job", job.Name()).Warn("job still running, skipping this tick")
				return
			}
			r.running.Add(job.Name())
			r.mu.Unlock()

			defer func() {
				r.mu.Lock()
				r.running.Remove(job.Name())
				r.mu.Unlock()
			}()

			job.Run()
		})
		if err != nil {
			return err
		}
	}
	r.cron.Start()
	return nil
}

func (r *Runner) Stop() {
	r.log.Info("stopping scheduled jobs")
	r.cron.Stop()
}
