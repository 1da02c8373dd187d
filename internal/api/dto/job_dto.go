package dto

import (
	"time"

	"github.com/hirelens/interview-analysis-be/internal/analysis/domain"
)

// UploadResponse is returned immediately after a video is accepted.
type UploadResponse struct {
	JobID     string `json:"job_id"`
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	Message   string `json:"message"`
	CreatedAt string `json:"created_at"`
}

// JobStatusResponse is the polling view of one job.
type JobStatusResponse struct {
	JobID       string  `json:"job_id"`
	Filename    string  `json:"filename"`
	Status      string  `json:"status"`
	CurrentStep string  `json:"current_step,omitempty"`
	Progress    float64 `json:"progress"`
	Error       string  `json:"error,omitempty"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
	CompletedAt string  `json:"completed_at,omitempty"`
}

// ListJobsResponse wraps the status views of every known job.
type ListJobsResponse struct {
	Jobs  []JobStatusResponse `json:"jobs"`
	Total int                 `json:"total"`
}

// ResultsResponse carries the final report of a completed job.
type ResultsResponse struct {
	JobID                string                     `json:"job_id"`
	Filename             string                     `json:"filename"`
	Transcript           string                     `json:"transcript"`
	BodyLanguageAnalysis *domain.BodyLanguageReport `json:"body_language_analysis"`
	CandidateScore       *domain.ScoreReport        `json:"candidate_score"`
	CompletedAt          string                     `json:"completed_at,omitempty"`
}

// StatusFromSnapshot builds the polling view from a job snapshot.
func StatusFromSnapshot(snap domain.JobSnapshot) JobStatusResponse {
	resp := JobStatusResponse{
		JobID:       snap.JobID,
		Filename:    snap.OriginalFilename,
		Status:      string(snap.Status),
		CurrentStep: snap.CurrentStep,
		Progress:    snap.Progress,
		Error:       snap.Error,
		CreatedAt:   snap.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   snap.UpdatedAt.Format(time.RFC3339),
	}
	if snap.CompletedAt != nil {
		resp.CompletedAt = snap.CompletedAt.Format(time.RFC3339)
	}
	return resp
}
