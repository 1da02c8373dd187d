package handler

import (
	"log/slog"

	"github.com/hirelens/interview-analysis-be/internal/analysis/jobstore"
	"github.com/hirelens/interview-analysis-be/internal/analysis/scheduler"
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger     *slog.Logger
	Store      jobstore.Store
	Dispatcher scheduler.Dispatcher
	// VideoDir is where uploaded videos are persisted as {job_id}{ext}.
	VideoDir string
}

// JobHandler handles analysis job HTTP requests
type JobHandler struct {
	logger     *slog.Logger
	store      jobstore.Store
	dispatcher scheduler.Dispatcher
	videoDir   string
}

// NewJobHandler creates a new JobHandler instance
func NewJobHandler(deps *Dependencies) *JobHandler {
	return &JobHandler{
		logger:     deps.Logger,
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
		videoDir:   deps.VideoDir,
	}
}
