package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJobRecord(t *testing.T) {
	job := NewJobRecord("job-1", "interview.mp4")

	snap := job.Snapshot()
	assert.Equal(t, "job-1", snap.JobID)
	assert.Equal(t, "interview.mp4", snap.OriginalFilename)
	assert.Equal(t, StatusPending, snap.Status)
	assert.Equal(t, 0.0, snap.Progress)
	assert.Empty(t, snap.Error)
	assert.Nil(t, snap.CompletedAt)
	assert.False(t, snap.CreatedAt.IsZero())
}

func TestJobRecord_UpdateStatus(t *testing.T) {
	t.Run("records step label", func(t *testing.T) {
		job := NewJobRecord("job-1", "interview.mp4")

		job.UpdateStatus(StatusProcessing, "Extracting audio from video")

		snap := job.Snapshot()
		assert.Equal(t, StatusProcessing, snap.Status)
		assert.Equal(t, "Extracting audio from video", snap.CurrentStep)
	})

	t.Run("empty step keeps previous label", func(t *testing.T) {
		job := NewJobRecord("job-1", "interview.mp4")
		job.UpdateStatus(StatusProcessing, "Transcribing audio")

		job.UpdateStatus(StatusProcessing, "")

		assert.Equal(t, "Transcribing audio", job.Snapshot().CurrentStep)
	})

	t.Run("completion forces progress to 1.0", func(t *testing.T) {
		job := NewJobRecord("job-1", "interview.mp4")
		job.UpdateStatus(StatusProcessing, "Scoring candidate")
		job.UpdateProgress(0.9)

		job.UpdateStatus(StatusCompleted, "")

		snap := job.Snapshot()
		assert.Equal(t, StatusCompleted, snap.Status)
		assert.Equal(t, 1.0, snap.Progress)
		require.NotNil(t, snap.CompletedAt)
	})
}

func TestJobRecord_TerminalStatesAreAbsorbing(t *testing.T) {
	t.Run("failed job ignores further transitions", func(t *testing.T) {
		job := NewJobRecord("job-1", "interview.mp4")
		job.UpdateStatus(StatusProcessing, "Extracting audio from video")
		job.UpdateProgress(0.1)
		job.Fail("ffmpeg exited with status 1")

		job.UpdateStatus(StatusCompleted, "")
		job.UpdateProgress(0.8)
		job.Fail("second failure")

		snap := job.Snapshot()
		assert.Equal(t, StatusFailed, snap.Status)
		assert.Equal(t, "ffmpeg exited with status 1", snap.Error)
		assert.Equal(t, 0.1, snap.Progress)
		assert.Nil(t, snap.CompletedAt)
	})

	t.Run("completed job ignores failure", func(t *testing.T) {
		job := NewJobRecord("job-1", "interview.mp4")
		job.UpdateStatus(StatusProcessing, "")
		job.UpdateStatus(StatusCompleted, "")

		job.Fail("late failure")

		snap := job.Snapshot()
		assert.Equal(t, StatusCompleted, snap.Status)
		assert.Empty(t, snap.Error)
		assert.Equal(t, 1.0, snap.Progress)
	})
}

func TestJobRecord_ProgressIsMonotonic(t *testing.T) {
	job := NewJobRecord("job-1", "interview.mp4")
	job.UpdateStatus(StatusProcessing, "")

	job.UpdateProgress(0.2)
	job.UpdateProgress(0.5)
	job.UpdateProgress(0.3)
	job.UpdateProgress(0.5)

	assert.Equal(t, 0.5, job.Snapshot().Progress)
}

func TestJobRecord_FailFreezesProgress(t *testing.T) {
	job := NewJobRecord("job-1", "interview.mp4")
	job.UpdateStatus(StatusProcessing, "Transcribing audio")
	job.UpdateProgress(0.3)

	job.Fail("transcription error: 503 - service unavailable")

	snap := job.Snapshot()
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Equal(t, 0.3, snap.Progress)
	assert.Empty(t, snap.Transcript)
	assert.Nil(t, snap.AnalysisResult)
}

func TestStatus_IsTerminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusProcessing.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
}
