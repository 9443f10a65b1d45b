package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"FrameForge-server/config"
	"FrameForge-server/models"
)

// JobRunner executes scheduled jobs: harvest stories per the job's
// parameters, stamp the job's mastering configuration onto each new
// project and optionally kick off their pipelines.
type JobRunner struct {
	DB        *gorm.DB
	Harvester *Harvester
	Meta      *MetaStore
	Queue     *Queue
	Events    EventSink
}

func (r *JobRunner) Run(ctx context.Context, jobID string) error {
	job, err := models.GetJobByID(r.DB, jobID)
	if err != nil {
		return fmt.Errorf("job %s: %w", jobID, err)
	}

	if err := job.UpdateProgress(r.DB, models.JobStatusRunning, 0); err != nil {
		return fmt.Errorf("job %s: %w", jobID, err)
	}
	config.Log.WithField("job", jobID).Info("job started")

	created, runErr := r.execute(ctx, job)
	status := models.JobStatusCompleted
	if runErr != nil {
		status = models.JobStatusFailed
		config.Log.WithError(runErr).WithField("job", jobID).Error("job failed")
	}
	if err := job.MarkRun(r.DB, status, time.Now()); err != nil {
		return fmt.Errorf("job %s: %w", jobID, err)
	}
	config.Log.WithFields(map[string]interface{}{
		"job":      jobID,
		"status":   status,
		"projects": len(created),
	}).Info("job finished")
	return runErr
}

func (r *JobRunner) execute(ctx context.Context, job *models.Job) ([]string, error) {
	opts := harvestOptionsFromParams(job.Params)
	created, err := r.Harvester.Harvest(ctx, opts)
	if err != nil {
		return created, err
	}

	patch := masteringPatchFromParams(job.Params)
	autoRun := paramBool(job.Params, "auto_run", false)
	for i, projectID := range created {
		if len(patch) > 0 {
			if _, err := r.Meta.Update(projectID, patch); err != nil {
				config.Log.WithError(err).WithField("project", projectID).Warn("job parameter stamping failed")
			}
		}
		if autoRun {
			if err := r.Queue.EnqueuePipelineRun(PipelineRunPayload{ProjectID: projectID, RunAll: true}); err != nil {
				config.Log.WithError(err).WithField("project", projectID).Warn("pipeline dispatch failed")
			}
		}
		progress := (i + 1) * 100 / len(created)
		if err := job.UpdateProgress(r.DB, models.JobStatusRunning, progress); err != nil {
			config.Log.WithError(err).WithField("job", job.ID).Warn("job progress update failed")
		}
	}
	return created, nil
}

func harvestOptionsFromParams(params models.JobParams) HarvestOptions {
	opts := HarvestOptions{
		Limit:     paramInt(params, "limit", 0),
		MinChars:  paramInt(params, "min_chars", 0),
		MaxChars:  paramInt(params, "max_chars", 0),
		Sort:      paramString(params, "sort", ""),
		Timeframe: paramString(params, "timeframe", ""),
	}
	switch v := params["subreddits"].(type) {
	case []interface{}:
		for _, s := range v {
			if str, ok := s.(string); ok && str != "" {
				opts.Subreddits = append(opts.Subreddits, str)
			}
		}
	case string:
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				opts.Subreddits = append(opts.Subreddits, s)
			}
		}
	}
	return opts
}

// masteringPatchFromParams lifts the job's composition settings into the
// metadata patch applied to every project the job creates.
func masteringPatchFromParams(params models.JobParams) map[string]interface{} {
	patch := map[string]interface{}{}
	for _, key := range []string{
		"output_format", "background_mode", "background_video",
		"asset_category", "segment_length", "selection_strategy",
		"transition_type", "caption_mode", "voice",
		"background_audio", "background_audio_volume",
		"intro", "outro",
	} {
		if v, ok := params[key]; ok {
			patch[key] = v
		}
	}
	return patch
}

func paramString(params models.JobParams, key, def string) string {
	if v, ok := params[key].(string); ok && v != "" {
		return v
	}
	return def
}

func paramInt(params models.JobParams, key string, def int) int {
	switch v := params[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return def
}

func paramBool(params models.JobParams, key string, def bool) bool {
	if v, ok := params[key].(bool); ok {
		return v
	}
	return def
}
