package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"FrameForge-server/config"
)

const (
	TaskTypePipelineRun = "pipeline:run"
	TaskTypeJobRun      = "job:run"
)

// PipelineRunPayload asks a worker to run one stage (or every remaining
// pre-composition stage) for a project.
type PipelineRunPayload struct {
	ProjectID string `json:"project_id"`
	Stage     string `json:"stage,omitempty"`
	RunAll    bool   `json:"run_all,omitempty"`
}

// JobRunPayload asks a worker to execute one scheduled job.
type JobRunPayload struct {
	JobID string `json:"job_id"`
}

// Queue enqueues pipeline and job work onto Redis.
type Queue struct {
	client *asynq.Client
}

func NewQueue() *Queue {
	return &Queue{client: asynq.NewClient(asynq.RedisClientOpt{
		Addr:     config.AppConfig.Redis.Addr,
		Password: config.AppConfig.Redis.Password,
	})}
}

func (q *Queue) Close() error { return q.client.Close() }

func (q *Queue) EnqueuePipelineRun(p PipelineRunPayload) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("enqueue pipeline run: %w", err)
	}
	_, err = q.client.Enqueue(
		asynq.NewTask(TaskTypePipelineRun, payload),
		asynq.MaxRetry(0),
		asynq.Timeout(2*time.Hour),
		asynq.Retention(24*time.Hour),
	)
	if err != nil {
		return fmt.Errorf("enqueue pipeline run: %w", err)
	}
	return nil
}

func (q *Queue) EnqueueJobRun(p JobRunPayload) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("enqueue job run: %w", err)
	}
	_, err = q.client.Enqueue(
		asynq.NewTask(TaskTypeJobRun, payload),
		asynq.MaxRetry(0),
		asynq.Timeout(1*time.Hour),
		asynq.Retention(24*time.Hour),
	)
	if err != nil {
		return fmt.Errorf("enqueue job run: %w", err)
	}
	return nil
}

// Worker is the asynq server consuming pipeline and job tasks with bounded
// concurrency.
type Worker struct {
	server   *asynq.Server
	executor *Executor
	jobs     *JobRunner
}

func NewWorker(executor *Executor, jobs *JobRunner) *Worker {
	return &Worker{
		server: asynq.NewServer(
			asynq.RedisClientOpt{
				Addr:     config.AppConfig.Redis.Addr,
				Password: config.AppConfig.Redis.Password,
			},
			asynq.Config{
				Concurrency: config.AppConfig.Scheduler.Concurrency,
				Logger:      config.Log,
			},
		),
		executor: executor,
		jobs:     jobs,
	}
}

// Start runs the worker in the background.
func (w *Worker) Start() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypePipelineRun, w.handlePipelineRun)
	mux.HandleFunc(TaskTypeJobRun, w.handleJobRun)
	return w.server.Start(mux)
}

func (w *Worker) Shutdown() { w.server.Shutdown() }

func (w *Worker) handlePipelineRun(ctx context.Context, t *asynq.Task) error {
	var p PipelineRunPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("pipeline run payload: %w", err)
	}

	if p.RunAll {
		if err := w.executor.RunAll(ctx, p.ProjectID); err != nil {
			config.Log.WithError(err).WithField("project", p.ProjectID).Error("pipeline run failed")
		}
		return nil
	}

	stage, known := ParseStage(p.Stage)
	if !known {
		return fmt.Errorf("pipeline run: unknown stage %q", p.Stage)
	}
	if err := w.executor.ExecuteStage(ctx, p.ProjectID, stage); err != nil {
		// Stage failures are recorded on the project; the task itself is
		// done and must not be retried.
		config.Log.WithError(err).WithField("project", p.ProjectID).Error("stage run failed")
	}
	return nil
}

func (w *Worker) handleJobRun(ctx context.Context, t *asynq.Task) error {
	var p JobRunPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("job run payload: %w", err)
	}
	if err := w.jobs.Run(ctx, p.JobID); err != nil {
		config.Log.WithError(err).WithField("job", p.JobID).Error("job run failed")
	}
	return nil
}
