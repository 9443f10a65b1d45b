package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"FrameForge-server/models"
)

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02 15:04", value)
	if err != nil {
		t.Fatal(err)
	}
	return ts
}

func TestOnceJobEligibility(t *testing.T) {
	now := mustTime(t, "2026-03-02 10:00")

	job := &models.Job{Interval: models.JobIntervalOnce, Status: models.JobStatusPending}
	assert.True(t, jobEligible(job, now), "a once job with no time and no run is always eligible")

	ran := now.Add(-time.Hour)
	job.LastRun = &ran
	assert.False(t, jobEligible(job, now), "a once job never runs twice")
}

func TestOnceJobWithTime(t *testing.T) {
	job := &models.Job{Interval: models.JobIntervalOnce, Status: models.JobStatusPending, Time: "09:00"}

	assert.False(t, jobEligible(job, mustTime(t, "2026-03-02 08:59")))
	assert.True(t, jobEligible(job, mustTime(t, "2026-03-02 09:00")))
	assert.True(t, jobEligible(job, mustTime(t, "2026-03-02 17:30")), "eligible any time at or after the configured instant")
}

func TestDailyJobEligibility(t *testing.T) {
	job := &models.Job{Interval: models.JobIntervalDaily, Status: models.JobStatusPending, Time: "09:00"}

	assert.False(t, jobEligible(job, mustTime(t, "2026-03-02 08:00")))
	assert.True(t, jobEligible(job, mustTime(t, "2026-03-02 09:00")))

	ran := mustTime(t, "2026-03-02 09:01")
	job.LastRun = &ran
	assert.False(t, jobEligible(job, mustTime(t, "2026-03-02 15:00")), "already ran at or after today's due instant")
	assert.True(t, jobEligible(job, mustTime(t, "2026-03-03 09:00")), "due again the next day")
}

func TestDailyJobRequiresTime(t *testing.T) {
	job := &models.Job{Interval: models.JobIntervalDaily, Status: models.JobStatusPending}
	assert.False(t, jobEligible(job, mustTime(t, "2026-03-02 12:00")))
}

func TestWeeklyJobRunsOnCreationWeekday(t *testing.T) {
	// 2026-03-02 is a Monday.
	created := mustTime(t, "2026-03-02 08:00")
	job := &models.Job{
		Interval:  models.JobIntervalWeekly,
		Status:    models.JobStatusPending,
		Time:      "09:00",
		CreatedAt: created,
	}

	assert.True(t, jobEligible(job, mustTime(t, "2026-03-02 09:30")), "monday job on a monday")
	assert.False(t, jobEligible(job, mustTime(t, "2026-03-03 09:30")), "monday job on a tuesday")

	ran := mustTime(t, "2026-03-02 09:30")
	job.LastRun = &ran
	assert.False(t, jobEligible(job, mustTime(t, "2026-03-02 18:00")))
	assert.True(t, jobEligible(job, mustTime(t, "2026-03-09 09:00")), "due again the following monday")
}

func TestRunningJobNeverEligible(t *testing.T) {
	job := &models.Job{Interval: models.JobIntervalOnce, Status: models.JobStatusRunning}
	assert.False(t, jobEligible(job, mustTime(t, "2026-03-02 12:00")))
}

func TestBadJobTimeIsNeverEligible(t *testing.T) {
	job := &models.Job{Interval: models.JobIntervalDaily, Status: models.JobStatusPending, Time: "25:99"}
	assert.False(t, jobEligible(job, mustTime(t, "2026-03-02 12:00")))
}
