package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hirelens/interview-analysis-be/internal/api/handler"
)

// Config holds router-level settings.
type Config struct {
	// MaxUploadBytes caps the request body size on the upload route.
	// Zero disables the limit.
	MaxUploadBytes int64
}

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(cfg Config, deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "interview-analysis-api",
		})
	})

	jobHandler := handler.NewJobHandler(deps)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// POST /api/v1/upload - Submit a video for analysis
		v1.POST("/upload", BodySizeLimitMiddleware(cfg.MaxUploadBytes), jobHandler.UploadVideo)

		// GET /api/v1/status/:job_id - Poll job progress
		v1.GET("/status/:job_id", jobHandler.GetStatus)

		// GET /api/v1/jobs - List all jobs
		v1.GET("/jobs", jobHandler.ListJobs)

		// GET /api/v1/results/:job_id - Fetch the final report
		v1.GET("/results/:job_id", jobHandler.GetResults)

		// GET /api/v1/videos/:job_id - Serve the stored video
		v1.GET("/videos/:job_id", jobHandler.GetVideo)
	}

	return r
}
