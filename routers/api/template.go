package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"FrameForge-server/models"
)

func (e *Env) ListTemplates(c *gin.Context) {
	templates, err := models.ListTemplates(e.DB)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"templates": templates})
}

func (e *Env) GetTemplate(c *gin.Context) {
	t, err := models.GetTemplateByID(e.DB, c.Param("template_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "template not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"template": t})
}

func (e *Env) CreateTemplate(c *gin.Context) {
	var t models.Template
	if err := c.ShouldBindJSON(&t); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if err := e.DB.Create(&t).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"template": t})
}

func (e *Env) UpdateTemplate(c *gin.Context) {
	id := c.Param("template_id")
	if _, err := models.GetTemplateByID(e.DB, id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "template not found"})
		return
	}
	var t models.Template
	if err := c.ShouldBindJSON(&t); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t.ID = id
	if err := e.DB.Save(&t).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"template": t})
}

func (e *Env) DeleteTemplate(c *gin.Context) {
	if err := e.DB.Delete(&models.Template{}, "id = ?", c.Param("template_id")).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("template_id")})
}
