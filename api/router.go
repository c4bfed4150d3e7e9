package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"mediadl/config"
	"mediadl/task"
)

func SetupRouter(tm *task.Manager, cfg *config.Config) *gin.Engine {
	r := gin.Default()
	r.Use(cors.Default())
	h := NewHandler(tm, cfg)

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Static option listing, no task state involved.
	r.GET("/api/formats", h.handleFormats)

	authed := r.Group("/")
	authed.Use(AuthMiddleware(cfg))
	{
		authed.POST("/download", h.handleCreateDownload)
		authed.GET("/status/:taskId", h.handleStatus)
		authed.GET("/file/:taskId", h.handleFile)
	}
	return r
}
