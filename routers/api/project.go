package api

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"FrameForge-server/models"
	"FrameForge-server/service"
)

func (e *Env) ListProjects(c *gin.Context) {
	projects, err := models.ListProjects(e.DB)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

func (e *Env) GetProject(c *gin.Context) {
	id := c.Param("project_id")
	project, err := models.GetProjectByID(e.DB, id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}
	meta, err := e.Meta.Load(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": project, "meta": meta})
}

func (e *Env) UpdateProjectMeta(c *gin.Context) {
	id := c.Param("project_id")
	if _, err := models.GetProjectByID(e.DB, id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}

	var patch map[string]interface{}
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	meta, err := e.Meta.Update(id, patch)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"meta": meta})
}

// DeleteProject removes the project row; with ?hard=true the project
// directory goes too.
func (e *Env) DeleteProject(c *gin.Context) {
	id := c.Param("project_id")
	if _, err := models.GetProjectByID(e.DB, id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}
	if err := models.DeleteProjectByID(e.DB, id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if c.Query("hard") == "true" {
		if err := os.RemoveAll(filepath.Join(e.Root, id)); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

func (e *Env) CancelProject(c *gin.Context) {
	id := c.Param("project_id")
	if err := e.Executor.Cancel(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cancelled": id})
}

// AdvanceProject queues the project's next pending stage.
func (e *Env) AdvanceProject(c *gin.Context) {
	id := c.Param("project_id")
	project, err := models.GetProjectByID(e.DB, id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}
	next, ok := service.NextStageName(project.CurrentStage)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"completed": true})
		return
	}
	if err := e.Queue.EnqueuePipelineRun(service.PipelineRunPayload{ProjectID: id, Stage: next}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"queued": next})
}

// AdvanceProjectAll queues every remaining stage up to the final
// composition.
func (e *Env) AdvanceProjectAll(c *gin.Context) {
	id := c.Param("project_id")
	if _, err := models.GetProjectByID(e.DB, id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}
	if err := e.Queue.EnqueuePipelineRun(service.PipelineRunPayload{ProjectID: id, RunAll: true}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"queued": "run_all"})
}

// MasterProject queues the final composition explicitly.
func (e *Env) MasterProject(c *gin.Context) {
	id := c.Param("project_id")
	if _, err := models.GetProjectByID(e.DB, id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}
	if err := e.Queue.EnqueuePipelineRun(service.PipelineRunPayload{
		ProjectID: id,
		Stage:     service.StageMasterComposition.String(),
	}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"queued": service.StageMasterComposition.String()})
}

// ExtractShorts cuts vertical clips from the finished video.
func (e *Env) ExtractShorts(c *gin.Context) {
	id := c.Param("project_id")
	var req struct {
		Count  int     `json:"count"`
		Length float64 `json:"length"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Count <= 0 {
		req.Count = 3
	}
	if req.Length <= 0 {
		req.Length = 60
	}
	clips, err := e.Shorts.Extract(c.Request.Context(), id, req.Count, req.Length)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"shorts": clips})
}

// FinalVideoURL returns a download link for the finished video: a presigned
// object-store URL when mirroring is enabled, otherwise the local static
// path.
func (e *Env) FinalVideoURL(c *gin.Context) {
	id := c.Param("project_id")
	if _, err := models.GetProjectByID(e.DB, id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}
	local := filepath.Join(e.Root, id, "video", "final.mp4")
	if _, err := os.Stat(local); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "final video not rendered yet"})
		return
	}

	if e.OSS != nil {
		if url, err := e.OSS.PresignedURL(c.Request.Context(), id+"/video/final.mp4"); err == nil {
			c.JSON(http.StatusOK, gin.H{"url": url})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"url": "/data/" + id + "/video/final.mp4"})
}

// HarvestNow triggers an ad-hoc harvest run.
func (e *Env) HarvestNow(c *gin.Context) {
	var opts service.HarvestOptions
	if err := c.ShouldBindJSON(&opts); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	created, err := e.Harvester.Harvest(c.Request.Context(), opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"created": created})
}
