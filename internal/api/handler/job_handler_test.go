package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/hirelens/interview-analysis-be/internal/analysis/domain"
	"github.com/hirelens/interview-analysis-be/internal/analysis/jobstore"
	"github.com/hirelens/interview-analysis-be/internal/api/dto"
	"github.com/hirelens/interview-analysis-be/internal/api/handler"
	"github.com/hirelens/interview-analysis-be/internal/api/router"
	"github.com/hirelens/interview-analysis-be/shared/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingDispatcher captures dispatched job ids without processing them,
// so handler tests observe jobs exactly as the submitter left them.
type recordingDispatcher struct {
	mu  sync.Mutex
	ids []string
	err error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, jobID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.ids = append(d.ids, jobID)
	return nil
}

type testEnv struct {
	store      *jobstore.MemoryStore
	dispatcher *recordingDispatcher
	engine     *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := jobstore.NewMemoryStore()
	dispatcher := &recordingDispatcher{}

	engine := router.SetupRouter(
		router.Config{MaxUploadBytes: 10 << 20},
		&handler.Dependencies{
			Logger:     logger.NewDefault().Logger,
			Store:      store,
			Dispatcher: dispatcher,
			VideoDir:   t.TempDir(),
		},
	)

	return &testEnv{store: store, dispatcher: dispatcher, engine: engine}
}

func multipartVideo(t *testing.T, filename string) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte("fake video bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	return &body, writer.FormDataContentType()
}

func (e *testEnv) do(method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	e.engine.ServeHTTP(rec, req)
	return rec
}

func TestUploadVideo(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := multipartVideo(t, "interview.mp4")
	rec := env.do(http.MethodPost, "/api/v1/upload", body, contentType)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.JobID)
	assert.Equal(t, "interview.mp4", resp.Filename)
	assert.Equal(t, string(domain.StatusPending), resp.Status)

	// The job is dispatched, not processed inline.
	assert.Equal(t, []string{resp.JobID}, env.dispatcher.ids)

	// Visible through the store immediately.
	job, err := env.store.Get(context.Background(), resp.JobID)
	require.NoError(t, err)
	snap := job.Snapshot()
	assert.Equal(t, domain.StatusPending, snap.Status)
	assert.Contains(t, snap.VideoPath, resp.JobID+".mp4")
}

func TestUploadVideo_UnsupportedExtension(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := multipartVideo(t, "resume.pdf")
	rec := env.do(http.MethodPost, "/api/v1/upload", body, contentType)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "not a valid video file")
	assert.Empty(t, env.dispatcher.ids)

	jobs, err := env.store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestUploadVideo_MissingFilePart(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/v1/upload", nil, "multipart/form-data")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "file is required")
}

func TestUploadVideo_DispatchFailureFailsJob(t *testing.T) {
	env := newTestEnv(t)
	env.dispatcher.err = context.DeadlineExceeded

	body, contentType := multipartVideo(t, "interview.mp4")
	rec := env.do(http.MethodPost, "/api/v1/upload", body, contentType)

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	jobs, err := env.store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	snap := jobs[0].Snapshot()
	assert.Equal(t, domain.StatusFailed, snap.Status)
	assert.Contains(t, snap.Error, "failed to dispatch job")
}

func TestGetStatus(t *testing.T) {
	env := newTestEnv(t)

	job, err := env.store.Create(context.Background(), "interview.mp4")
	require.NoError(t, err)
	job.UpdateStatus(domain.StatusProcessing, "Transcribing audio")
	job.UpdateProgress(0.3)

	rec := env.do(http.MethodGet, "/api/v1/status/"+job.ID(), nil, "")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.JobStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, job.ID(), resp.JobID)
	assert.Equal(t, "processing", resp.Status)
	assert.Equal(t, "Transcribing audio", resp.CurrentStep)
	assert.Equal(t, 0.3, resp.Progress)
}

func TestGetStatus_UnknownJob(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/v1/status/unknown", nil, "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "job not found")
}

func TestListJobs(t *testing.T) {
	env := newTestEnv(t)

	first, err := env.store.Create(context.Background(), "a.mp4")
	require.NoError(t, err)
	second, err := env.store.Create(context.Background(), "b.mp4")
	require.NoError(t, err)

	rec := env.do(http.MethodGet, "/api/v1/jobs", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.ListJobsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)
	require.Len(t, resp.Jobs, 2)
	assert.Equal(t, first.ID(), resp.Jobs[0].JobID)
	assert.Equal(t, second.ID(), resp.Jobs[1].JobID)
}

func TestGetResults(t *testing.T) {
	env := newTestEnv(t)

	job, err := env.store.Create(context.Background(), "interview.mp4")
	require.NoError(t, err)
	job.SetTranscript("speaker 1: \"hello\"", "/results/t.json")
	job.SetResult(&domain.AnalysisResult{
		BodyLanguageAnalysis: &domain.BodyLanguageReport{VerbalCommunication: "clear"},
		CandidateScore: &domain.ScoreReport{
			VerbalCommunication: domain.ScoreEntry{Reason: "clear answers", Score: 8},
		},
	})
	job.UpdateStatus(domain.StatusCompleted, "")

	rec := env.do(http.MethodGet, "/api/v1/results/"+job.ID(), nil, "")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.ResultsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, job.ID(), resp.JobID)
	assert.Equal(t, "speaker 1: \"hello\"", resp.Transcript)
	require.NotNil(t, resp.BodyLanguageAnalysis)
	assert.Equal(t, "clear", resp.BodyLanguageAnalysis.VerbalCommunication)
	require.NotNil(t, resp.CandidateScore)
	assert.Equal(t, 8.0, resp.CandidateScore.VerbalCommunication.Score)
	assert.NotEmpty(t, resp.CompletedAt)
}

func TestGetResults_JobStillProcessing(t *testing.T) {
	env := newTestEnv(t)

	job, err := env.store.Create(context.Background(), "interview.mp4")
	require.NoError(t, err)
	job.UpdateStatus(domain.StatusProcessing, "Extracting audio from video")

	rec := env.do(http.MethodGet, "/api/v1/results/"+job.ID(), nil, "")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "job is not completed yet")
}

func TestGetResults_FailedJobSurfacesStageError(t *testing.T) {
	env := newTestEnv(t)

	job, err := env.store.Create(context.Background(), "interview.mp4")
	require.NoError(t, err)
	job.Fail("failed to extract audio from video: ffmpeg failed: exit status 1")

	rec := env.do(http.MethodGet, "/api/v1/results/"+job.ID(), nil, "")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Job failed: failed to extract audio from video")
}

func TestGetResults_UnknownJob(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/v1/results/unknown", nil, "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "job not found")
}

func TestGetVideo_MissingOnDisk(t *testing.T) {
	env := newTestEnv(t)

	job, err := env.store.Create(context.Background(), "interview.mp4")
	require.NoError(t, err)
	job.SetVideoPath("/videos/gone.mp4")

	rec := env.do(http.MethodGet, "/api/v1/videos/"+job.ID(), nil, "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "video not found")
}

func TestUploadVideo_RejectsOversizedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)

	store := jobstore.NewMemoryStore()
	engine := router.SetupRouter(
		router.Config{MaxUploadBytes: 8},
		&handler.Dependencies{
			Logger:     logger.NewDefault().Logger,
			Store:      store,
			Dispatcher: &recordingDispatcher{},
			VideoDir:   t.TempDir(),
		},
	)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "interview.mp4")
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte("x"), 1024))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
