package service

import (
	"context"
	"fmt"
	"sync"

	"FrameForge-server/config"
	"FrameForge-server/models"
)

// ProjectStateStore is the slice of project persistence the pipeline needs.
type ProjectStateStore interface {
	GetProject(id string) (*models.Project, error)
	UpdateProjectState(id, status, stage string) error
}

// StageUnit is one unit of pipeline work. ProjectID identifies the project
// directory and records; the unit reads and writes through the executor's
// meta store.
type StageUnit interface {
	Run(ctx context.Context, projectID string) error
}

// Executor drives projects through the stage sequence. Each stage run is
// optimistic: the project is moved to Processing at the target stage before
// the unit runs, and on failure the stage is rolled back to where it was.
type Executor struct {
	Projects ProjectStateStore
	Meta     *MetaStore
	Events   EventSink

	Translate StageUnit
	Speech    StageUnit
	Subtitles StageUnit
	Thumbnail StageUnit
	Mastering StageUnit

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

func NewExecutor(projects ProjectStateStore, meta *MetaStore, events EventSink) *Executor {
	return &Executor{
		Projects: projects,
		Meta:     meta,
		Events:   events,
		cancels:  make(map[string]context.CancelFunc),
	}
}

func (e *Executor) unitFor(stage Stage) (StageUnit, error) {
	switch stage {
	case StageTextTranslated:
		return e.Translate, nil
	case StageSpeechGenerated:
		return e.Speech, nil
	case StageSubtitlesCreated:
		return e.Subtitles, nil
	case StageThumbnailCreated:
		return e.Thumbnail, nil
	case StageMasterComposition:
		return e.Mastering, nil
	case StageTextScrapped:
		return nil, fmt.Errorf("stage %q is produced by the harvester, not the pipeline", stage)
	default:
		return nil, fmt.Errorf("unknown stage %v", stage)
	}
}

// ExecuteStage runs exactly one stage for a project.
func (e *Executor) ExecuteStage(ctx context.Context, projectID string, target Stage) error {
	p, err := e.Projects.GetProject(projectID)
	if err != nil {
		return fmt.Errorf("execute stage: %w", err)
	}
	if p.Status == models.ProjectStatusProcessing {
		return fmt.Errorf("project %s is already processing", projectID)
	}

	unit, err := e.unitFor(target)
	if err != nil {
		return err
	}
	if unit == nil {
		return fmt.Errorf("stage %q has no configured unit", target)
	}

	prevStage := p.CurrentStage
	ctx, cancel := context.WithCancel(ctx)
	e.registerCancel(projectID, cancel)
	defer e.clearCancel(projectID, cancel)

	if err := e.transition(projectID, models.ProjectStatusProcessing, target.String()); err != nil {
		return err
	}
	e.Events.BroadcastLog(projectID, "info", fmt.Sprintf("stage %q started", target))

	if err := e.runUnit(ctx, unit, projectID); err != nil {
		if ctx.Err() == context.Canceled {
			e.Events.BroadcastLog(projectID, "warn", fmt.Sprintf("stage %q cancelled", target))
			if terr := e.transition(projectID, models.ProjectStatusCancelled, prevStage); terr != nil {
				config.Log.WithError(terr).WithField("project", projectID).Error("cancel transition failed")
			}
			return fmt.Errorf("stage %q cancelled: %w", target, err)
		}
		e.Events.BroadcastLog(projectID, "error", fmt.Sprintf("stage %q failed: %v", target, err))
		if terr := e.transition(projectID, models.ProjectStatusError, prevStage); terr != nil {
			config.Log.WithError(terr).WithField("project", projectID).Error("rollback transition failed")
		}
		return fmt.Errorf("stage %q: %w", target, err)
	}

	if err := e.transition(projectID, models.ProjectStatusSuccess, target.String()); err != nil {
		return err
	}
	e.Events.BroadcastLog(projectID, "info", fmt.Sprintf("stage %q completed", target))
	return nil
}

// runUnit isolates a panicking unit so one broken stage cannot take down
// the worker.
func (e *Executor) runUnit(ctx context.Context, unit StageUnit, projectID string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("stage unit panicked: %v", r)
		}
	}()
	return unit.Run(ctx, projectID)
}

// Advance runs the next pending stage for a project. It reports the stage
// that ran, or ok=false when the project is already past the last
// advanceable stage.
func (e *Executor) Advance(ctx context.Context, projectID string) (Stage, bool, error) {
	p, err := e.Projects.GetProject(projectID)
	if err != nil {
		return 0, false, fmt.Errorf("advance: %w", err)
	}
	nextName, ok := NextStageName(p.CurrentStage)
	if !ok {
		return 0, false, nil
	}
	next, known := ParseStage(nextName)
	if !known {
		return 0, false, fmt.Errorf("advance: unknown stage %q", nextName)
	}
	return next, true, e.ExecuteStage(ctx, projectID, next)
}

// RunAll advances a project stage by stage up to, but not including, the
// final composition, which is always triggered explicitly.
func (e *Executor) RunAll(ctx context.Context, projectID string) error {
	for {
		p, err := e.Projects.GetProject(projectID)
		if err != nil {
			return fmt.Errorf("run all: %w", err)
		}
		nextName, ok := NextStageName(p.CurrentStage)
		if !ok {
			return nil
		}
		next, known := ParseStage(nextName)
		if !known {
			return fmt.Errorf("run all: unknown stage %q", nextName)
		}
		if next == StageMasterComposition {
			e.Events.BroadcastLog(projectID, "info", "automatic run stopped before final composition")
			return nil
		}
		if err := e.ExecuteStage(ctx, projectID, next); err != nil {
			return err
		}
	}
}

// Cancel aborts a project's running stage if one is active and marks the
// project cancelled either way.
func (e *Executor) Cancel(projectID string) error {
	e.mu.Lock()
	cancel, running := e.cancels[projectID]
	e.mu.Unlock()

	if running {
		cancel()
		return nil
	}

	p, err := e.Projects.GetProject(projectID)
	if err != nil {
		return fmt.Errorf("cancel: %w", err)
	}
	return e.transition(projectID, models.ProjectStatusCancelled, p.CurrentStage)
}

func (e *Executor) transition(projectID, status, stage string) error {
	if err := e.Projects.UpdateProjectState(projectID, status, stage); err != nil {
		return fmt.Errorf("transition %s to %s/%s: %w", projectID, status, stage, err)
	}
	e.Events.BroadcastStatus(projectID, status, stage)
	e.syncMirror(projectID, status, stage)
	return nil
}

// syncMirror keeps the on-disk meta.json in step with the project row.
func (e *Executor) syncMirror(projectID, status, stage string) {
	if e.Meta == nil {
		return
	}
	if _, err := e.Meta.Update(projectID, map[string]interface{}{
		"status":        status,
		"current_stage": stage,
	}); err != nil {
		config.Log.WithError(err).WithField("project", projectID).Warn("meta mirror sync failed")
	}
}

func (e *Executor) registerCancel(projectID string, cancel context.CancelFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancels[projectID] = cancel
}

func (e *Executor) clearCancel(projectID string, cancel context.CancelFunc) {
	cancel()
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.cancels, projectID)
}
