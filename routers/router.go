package routers

import (
	"github.com/gin-gonic/gin"

	"FrameForge-server/routers/api"
)

func InitRouter(env *api.Env) *gin.Engine {
	r := gin.Default()
	r.Static("/data", env.Root)

	v1 := r.Group("/v1/api")
	{
		v1.GET("/projects", env.ListProjects)
		v1.GET("/projects/:project_id", env.GetProject)
		v1.PATCH("/projects/:project_id/meta", env.UpdateProjectMeta)
		v1.DELETE("/projects/:project_id", env.DeleteProject)
		v1.POST("/projects/:project_id/cancel", env.CancelProject)
		v1.POST("/projects/:project_id/advance", env.AdvanceProject)
		v1.POST("/projects/:project_id/advance-all", env.AdvanceProjectAll)
		v1.POST("/projects/:project_id/master", env.MasterProject)
		v1.POST("/projects/:project_id/shorts", env.ExtractShorts)
		v1.GET("/projects/:project_id/final-url", env.FinalVideoURL)
		v1.POST("/harvest", env.HarvestNow)

		v1.GET("/assets", env.ListAssets)
		v1.POST("/assets/scan", env.ScanAssets)
		v1.PUT("/assets/categories", env.SetAssetCategories)
		v1.DELETE("/assets", env.DeleteAsset)

		v1.GET("/templates", env.ListTemplates)
		v1.GET("/templates/:template_id", env.GetTemplate)
		v1.POST("/templates", env.CreateTemplate)
		v1.PUT("/templates/:template_id", env.UpdateTemplate)
		v1.DELETE("/templates/:template_id", env.DeleteTemplate)

		v1.GET("/workflows", env.ListWorkflows)
		v1.GET("/workflows/:workflow_id", env.GetWorkflow)

		v1.GET("/jobs", env.ListJobs)
		v1.GET("/jobs/:job_id", env.GetJob)
		v1.POST("/jobs", env.CreateJob)
		v1.POST("/jobs/:job_id/run", env.RunJobNow)
		v1.DELETE("/jobs/:job_id", env.DeleteJob)

		v1.GET("/config", env.GetConfig)
		v1.GET("/logs", env.GetLogs)
	}
	r.GET("/ws", env.EventsWebSocket)
	return r
}
