package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateJobBumpsWorkflowUsage(t *testing.T) {
	db, log := newRecordedDB(t)
	job := &Job{
		ID:         "job-1",
		Name:       "nightly harvest",
		WorkflowID: "wf-1",
		Interval:   JobIntervalOnce,
		Status:     JobStatusPending,
	}
	require.NoError(t, CreateJob(db, job))

	assert.True(t, log.contains("INSERT INTO `job`"))
	assert.True(t, log.contains("UPDATE `workflow`"))
	assert.True(t, log.contains("usage_count"))
}

func TestCreateJobWithoutWorkflowSkipsUsage(t *testing.T) {
	db, log := newRecordedDB(t)
	job := &Job{
		ID:       "job-2",
		Name:     "ad hoc harvest",
		Interval: JobIntervalOnce,
		Status:   JobStatusPending,
	}
	require.NoError(t, CreateJob(db, job))

	assert.True(t, log.contains("INSERT INTO `job`"))
	assert.False(t, log.contains("usage_count"))
}
