package domain

import (
	"sync"
	"time"
)

// Status represents the lifecycle state of an analysis job.
type Status string

// Job status constants
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// IsTerminal reports whether a status admits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// JobRecord tracks one submitted video end-to-end. Exactly one worker
// mutates a record, but the submission path and status pollers read it
// concurrently, so every mutation and read goes through the mutex.
type JobRecord struct {
	mu sync.RWMutex

	jobID            string
	originalFilename string
	status           Status
	createdAt        time.Time
	updatedAt        time.Time
	completedAt      *time.Time

	videoPath          string
	audioPath          string
	transcript         string
	transcriptJSONPath string
	analysisResult     *AnalysisResult

	currentStep string
	progress    float64
	errMessage  string
}

// NewJobRecord creates a pending record with zero progress.
func NewJobRecord(jobID, originalFilename string) *JobRecord {
	now := time.Now()
	return &JobRecord{
		jobID:            jobID,
		originalFilename: originalFilename,
		status:           StatusPending,
		createdAt:        now,
		updatedAt:        now,
	}
}

// RestoreJobRecord rebuilds a record from a persisted snapshot. Used by
// durable stores to rehydrate jobs created by another process.
func RestoreJobRecord(snap JobSnapshot) *JobRecord {
	return &JobRecord{
		jobID:              snap.JobID,
		originalFilename:   snap.OriginalFilename,
		status:             snap.Status,
		createdAt:          snap.CreatedAt,
		updatedAt:          snap.UpdatedAt,
		completedAt:        snap.CompletedAt,
		videoPath:          snap.VideoPath,
		audioPath:          snap.AudioPath,
		transcript:         snap.Transcript,
		transcriptJSONPath: snap.TranscriptJSONPath,
		analysisResult:     snap.AnalysisResult,
		currentStep:        snap.CurrentStep,
		progress:           snap.Progress,
		errMessage:         snap.Error,
	}
}

// ID returns the immutable job identifier.
func (j *JobRecord) ID() string {
	return j.jobID
}

// UpdateStatus transitions the job and optionally records a step label.
// Terminal states are absorbing: updates against a completed or failed
// job are ignored. Completing a job forces progress to 1.0 and stamps
// completed_at.
func (j *JobRecord) UpdateStatus(status Status, step string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.status.IsTerminal() {
		return
	}

	j.status = status
	if step != "" {
		j.currentStep = step
	}
	j.updatedAt = time.Now()

	if status == StatusCompleted {
		now := time.Now()
		j.completedAt = &now
		j.progress = 1.0
	}
}

// Fail moves the job to failed carrying the stage error message verbatim.
// Progress stays at the last checkpoint it reached.
func (j *JobRecord) Fail(message string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.status.IsTerminal() {
		return
	}

	j.status = StatusFailed
	j.errMessage = message
	j.updatedAt = time.Now()
}

// UpdateProgress advances the progress fraction. Progress never regresses:
// values at or below the current one are dropped.
func (j *JobRecord) UpdateProgress(progress float64) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.status.IsTerminal() || progress <= j.progress {
		return
	}

	j.progress = progress
	j.updatedAt = time.Now()
}

// SetVideoPath records where the uploaded video was persisted.
func (j *JobRecord) SetVideoPath(path string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.videoPath = path
	j.updatedAt = time.Now()
}

// SetAudioPath records the extracted audio location.
func (j *JobRecord) SetAudioPath(path string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.audioPath = path
	j.updatedAt = time.Now()
}

// SetTranscript records the formatted transcript string and the location
// of the persisted structured transcript.
func (j *JobRecord) SetTranscript(transcript, jsonPath string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.transcript = transcript
	j.transcriptJSONPath = jsonPath
	j.updatedAt = time.Now()
}

// SetResult records the combined analysis output.
func (j *JobRecord) SetResult(result *AnalysisResult) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.analysisResult = result
	j.updatedAt = time.Now()
}

// JobSnapshot is a point-in-time value copy of a JobRecord, safe to hold
// across further mutations of the record.
type JobSnapshot struct {
	JobID              string
	OriginalFilename   string
	Status             Status
	CreatedAt          time.Time
	UpdatedAt          time.Time
	CompletedAt        *time.Time
	VideoPath          string
	AudioPath          string
	Transcript         string
	TranscriptJSONPath string
	AnalysisResult     *AnalysisResult
	CurrentStep        string
	Progress           float64
	Error              string
}

// Snapshot returns a consistent view of the record.
func (j *JobRecord) Snapshot() JobSnapshot {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return JobSnapshot{
		JobID:              j.jobID,
		OriginalFilename:   j.originalFilename,
		Status:             j.status,
		CreatedAt:          j.createdAt,
		UpdatedAt:          j.updatedAt,
		CompletedAt:        j.completedAt,
		VideoPath:          j.videoPath,
		AudioPath:          j.audioPath,
		Transcript:         j.transcript,
		TranscriptJSONPath: j.transcriptJSONPath,
		AnalysisResult:     j.analysisResult,
		CurrentStep:        j.currentStep,
		Progress:           j.progress,
		Error:              j.errMessage,
	}
}
