package service

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"FrameForge-server/config"
	"FrameForge-server/models"
)

// Scheduler polls the job table and dispatches eligible jobs to the queue.
// One broken job never stops the loop or other jobs.
type Scheduler struct {
	DB       *gorm.DB
	Queue    *Queue
	Interval time.Duration
	Now      func() time.Time
}

func NewScheduler(db *gorm.DB, queue *Queue) *Scheduler {
	interval := time.Duration(config.AppConfig.Scheduler.IntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &Scheduler{DB: db, Queue: queue, Interval: interval, Now: time.Now}
}

// Run ticks until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *Scheduler) tick() {
	defer func() {
		if r := recover(); r != nil {
			config.Log.WithField("panic", r).Error("scheduler tick panicked")
		}
	}()

	jobs, err := models.ListJobs(s.DB)
	if err != nil {
		config.Log.WithError(err).Error("scheduler job listing failed")
		return
	}
	now := s.Now()
	for _, j := range jobs {
		if !jobEligible(&j, now) {
			continue
		}
		if err := models.UpdateJobStatus(s.DB, j.ID, models.JobStatusRunning); err != nil {
			config.Log.WithError(err).WithField("job", j.ID).Error("job status update failed")
			continue
		}
		if err := s.Queue.EnqueueJobRun(JobRunPayload{JobID: j.ID}); err != nil {
			config.Log.WithError(err).WithField("job", j.ID).Error("job dispatch failed")
			if rerr := models.UpdateJobStatus(s.DB, j.ID, models.JobStatusPending); rerr != nil {
				config.Log.WithError(rerr).WithField("job", j.ID).Error("job status rollback failed")
			}
			continue
		}
		config.Log.WithField("job", j.ID).Info("job dispatched")
	}
}

// jobEligible decides whether a job should run at now. Running jobs are
// never eligible. "once" jobs run a single time, at or after their
// configured time of day when one is set. "daily" jobs run each day at or
// after their configured time, at most once per day. "weekly" jobs behave
// like daily jobs but only on the weekday the job was created.
func jobEligible(j *models.Job, now time.Time) bool {
	if j.Status == models.JobStatusRunning {
		return false
	}

	switch j.Interval {
	case models.JobIntervalOnce:
		if j.LastRun != nil {
			return false
		}
		if j.Status != models.JobStatusPending {
			return false
		}
		if j.Time == "" {
			return true
		}
		due, err := timeOfDayOn(now, j.Time)
		if err != nil {
			return false
		}
		return !now.Before(due)

	case models.JobIntervalDaily, models.JobIntervalWeekly:
		if j.Time == "" {
			return false
		}
		if j.Interval == models.JobIntervalWeekly && now.Weekday() != j.CreatedAt.Weekday() {
			return false
		}
		due, err := timeOfDayOn(now, j.Time)
		if err != nil {
			return false
		}
		if now.Before(due) {
			return false
		}
		// Already ran at or after today's due instant.
		return j.LastRun == nil || j.LastRun.Before(due)

	default:
		return false
	}
}

// timeOfDayOn places an "HH:MM" clock time on day's date in day's location.
func timeOfDayOn(day time.Time, clock string) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad job time %q: %w", clock, err)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location()), nil
}
