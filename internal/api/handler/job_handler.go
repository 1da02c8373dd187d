package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hirelens/interview-analysis-be/internal/analysis/domain"
	"github.com/hirelens/interview-analysis-be/internal/api/dto"
)

// videoMimeTypes maps the accepted upload extensions to their MIME types.
var videoMimeTypes = map[string]string{
	".mp4":  "video/mp4",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".mkv":  "video/x-matroska",
	".wmv":  "video/x-ms-wmv",
	".flv":  "video/x-flv",
	".webm": "video/webm",
}

// UploadVideo handles POST /api/v1/upload
// Accepts a multipart video, registers a job, and dispatches it for
// asynchronous processing. The response returns before analysis starts.
func (h *JobHandler) UploadVideo(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.logger.Error("Upload without file part", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "file is required",
		})
		return
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if _, ok := videoMimeTypes[ext]; !ok {
		h.logger.Error("Rejected upload with unsupported extension",
			slog.String("filename", fileHeader.Filename),
		)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": domain.ErrUnsupportedMedia.Error(),
		})
		return
	}

	job, err := h.store.Create(c.Request.Context(), fileHeader.Filename)
	if err != nil {
		h.logger.Error("Failed to create job", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create job",
		})
		return
	}

	if err := os.MkdirAll(h.videoDir, 0o755); err != nil {
		h.failUpload(c, job, fmt.Errorf("failed to prepare video directory: %w", err))
		return
	}

	videoPath := filepath.Join(h.videoDir, job.ID()+ext)
	if err := c.SaveUploadedFile(fileHeader, videoPath); err != nil {
		h.failUpload(c, job, fmt.Errorf("failed to save uploaded video: %w", err))
		return
	}
	job.SetVideoPath(videoPath)

	if err := h.syncAndDispatch(c, job); err != nil {
		return
	}

	snap := job.Snapshot()

	h.logger.Info("Video accepted for analysis",
		slog.String("job_id", snap.JobID),
		slog.String("filename", snap.OriginalFilename),
		slog.String("video_path", snap.VideoPath),
	)

	c.JSON(http.StatusOK, dto.UploadResponse{
		JobID:     snap.JobID,
		Filename:  snap.OriginalFilename,
		Status:    string(snap.Status),
		Message:   "Video uploaded successfully. Analysis in progress.",
		CreatedAt: snap.CreatedAt.Format(time.RFC3339),
	})
}

// syncAndDispatch flushes the record and hands the job to the backend,
// failing the job when the handoff itself fails.
func (h *JobHandler) syncAndDispatch(c *gin.Context, job *domain.JobRecord) error {
	if err := h.store.Sync(c.Request.Context(), job); err != nil {
		h.failUpload(c, job, fmt.Errorf("failed to persist job: %w", err))
		return err
	}

	if err := h.dispatcher.Dispatch(c.Request.Context(), job.ID()); err != nil {
		h.failUpload(c, job, fmt.Errorf("failed to dispatch job: %w", err))
		return err
	}

	return nil
}

// failUpload marks the job failed and answers with a 500.
func (h *JobHandler) failUpload(c *gin.Context, job *domain.JobRecord, err error) {
	h.logger.Error("Upload failed after job creation",
		slog.String("job_id", job.ID()),
		slog.String("error", err.Error()),
	)

	job.Fail(err.Error())
	if syncErr := h.store.Sync(c.Request.Context(), job); syncErr != nil {
		h.logger.Error("Failed to sync failed job",
			slog.String("job_id", job.ID()),
			slog.String("error", syncErr.Error()),
		)
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"error": "Failed to process upload",
	})
}

// GetStatus handles GET /api/v1/status/:job_id
func (h *JobHandler) GetStatus(c *gin.Context) {
	jobID := c.Param("job_id")

	job, err := h.store.Get(c.Request.Context(), jobID)
	if err != nil {
		h.respondLookupError(c, jobID, err)
		return
	}

	c.JSON(http.StatusOK, dto.StatusFromSnapshot(job.Snapshot()))
}

// ListJobs handles GET /api/v1/jobs
func (h *JobHandler) ListJobs(c *gin.Context) {
	jobs, err := h.store.List(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list jobs", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list jobs",
		})
		return
	}

	views := make([]dto.JobStatusResponse, len(jobs))
	for i, job := range jobs {
		views[i] = dto.StatusFromSnapshot(job.Snapshot())
	}

	c.JSON(http.StatusOK, dto.ListJobsResponse{
		Jobs:  views,
		Total: len(views),
	})
}

// GetResults handles GET /api/v1/results/:job_id
// Only completed jobs have results; failed jobs surface their stage error.
func (h *JobHandler) GetResults(c *gin.Context) {
	jobID := c.Param("job_id")

	job, err := h.store.Get(c.Request.Context(), jobID)
	if err != nil {
		h.respondLookupError(c, jobID, err)
		return
	}

	snap := job.Snapshot()

	switch snap.Status {
	case domain.StatusFailed:
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("Job failed: %s", snap.Error),
		})
		return
	case domain.StatusCompleted:
		// Fall through to the result payload.
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"error": domain.ErrJobNotReady.Error(),
		})
		return
	}

	resp := dto.ResultsResponse{
		JobID:      snap.JobID,
		Filename:   snap.OriginalFilename,
		Transcript: snap.Transcript,
	}
	if snap.CompletedAt != nil {
		resp.CompletedAt = snap.CompletedAt.Format(time.RFC3339)
	}
	if snap.AnalysisResult != nil {
		resp.BodyLanguageAnalysis = snap.AnalysisResult.BodyLanguageAnalysis
		resp.CandidateScore = snap.AnalysisResult.CandidateScore
	}

	c.JSON(http.StatusOK, resp)
}

// GetVideo handles GET /api/v1/videos/:job_id
// Serves the stored video with its MIME type; supports range requests.
func (h *JobHandler) GetVideo(c *gin.Context) {
	jobID := c.Param("job_id")

	job, err := h.store.Get(c.Request.Context(), jobID)
	if err != nil {
		h.respondLookupError(c, jobID, err)
		return
	}

	snap := job.Snapshot()
	if snap.VideoPath == "" {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "video not found",
		})
		return
	}

	if _, err := os.Stat(snap.VideoPath); err != nil {
		h.logger.Error("Stored video missing on disk",
			slog.String("job_id", jobID),
			slog.String("video_path", snap.VideoPath),
		)
		c.JSON(http.StatusNotFound, gin.H{
			"error": "video not found",
		})
		return
	}

	ext := strings.ToLower(filepath.Ext(snap.VideoPath))
	if mimeType, ok := videoMimeTypes[ext]; ok {
		c.Header("Content-Type", mimeType)
	}

	c.File(snap.VideoPath)
}

func (h *JobHandler) respondLookupError(c *gin.Context, jobID string, err error) {
	if errors.Is(err, domain.ErrJobNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": domain.ErrJobNotFound.Error(),
		})
		return
	}

	h.logger.Error("Failed to get job",
		slog.String("job_id", jobID),
		slog.String("error", err.Error()),
	)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": "Failed to get job",
	})
}
