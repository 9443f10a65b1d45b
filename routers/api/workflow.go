package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"FrameForge-server/models"
)

func (e *Env) ListWorkflows(c *gin.Context) {
	workflows, err := models.ListWorkflows(e.DB)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"workflows": workflows})
}

func (e *Env) GetWorkflow(c *gin.Context) {
	wf, err := models.GetWorkflowByID(e.DB, c.Param("workflow_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "workflow not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"workflow": wf})
}
