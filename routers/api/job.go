package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"FrameForge-server/models"
	"FrameForge-server/service"
)

func (e *Env) ListJobs(c *gin.Context) {
	jobs, err := models.ListJobs(e.DB)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

func (e *Env) GetJob(c *gin.Context) {
	job, err := models.GetJobByID(e.DB, c.Param("job_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"job": job})
}

func (e *Env) CreateJob(c *gin.Context) {
	var req struct {
		Name       string           `json:"name" binding:"required"`
		WorkflowID string           `json:"workflow_id"`
		Params     models.JobParams `json:"params"`
		Interval   string           `json:"interval"`
		Time       string           `json:"time"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	switch req.Interval {
	case "":
		req.Interval = models.JobIntervalOnce
	case models.JobIntervalOnce, models.JobIntervalDaily, models.JobIntervalWeekly:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "interval must be once, daily or weekly"})
		return
	}
	if req.Interval != models.JobIntervalOnce && req.Time == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "recurring jobs require a time"})
		return
	}
	if req.WorkflowID != "" {
		if _, err := models.GetWorkflowByID(e.DB, req.WorkflowID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown workflow"})
			return
		}
	}

	job := models.Job{
		ID:         uuid.NewString(),
		Name:       req.Name,
		WorkflowID: req.WorkflowID,
		Params:     req.Params,
		Interval:   req.Interval,
		Time:       req.Time,
		Status:     models.JobStatusPending,
	}
	if err := models.CreateJob(e.DB, &job); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"job": job})
}

// RunJobNow dispatches the job immediately, bypassing the schedule.
func (e *Env) RunJobNow(c *gin.Context) {
	id := c.Param("job_id")
	job, err := models.GetJobByID(e.DB, id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	if job.Status == models.JobStatusRunning {
		c.JSON(http.StatusConflict, gin.H{"error": "job is already running"})
		return
	}
	if err := e.Queue.EnqueueJobRun(service.JobRunPayload{JobID: id}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"queued": id})
}

func (e *Env) DeleteJob(c *gin.Context) {
	if err := models.DeleteJobByID(e.DB, c.Param("job_id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("job_id")})
}
