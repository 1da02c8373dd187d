// Package pipeline runs the full analysis sequence for one job: audio
// extraction, diarized transcription, body-language analysis, and scoring.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hirelens/interview-analysis-be/internal/analysis/domain"
	"github.com/hirelens/interview-analysis-be/internal/analysis/jobstore"
	"github.com/hirelens/interview-analysis-be/internal/analysis/transcript"
)

// Step labels surfaced through the status endpoint while a job runs.
const (
	stepExtracting   = "Extracting audio from video"
	stepTranscribing = "Transcribing audio"
	stepAnalyzing    = "Analyzing body language"
	stepScoring      = "Scoring candidate"
)

// AudioExtractor produces an audio file from a job's video.
type AudioExtractor interface {
	Extract(ctx context.Context, videoPath, jobID string) (string, error)
}

// Transcriber turns an audio file into a raw diarized transcription.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*transcript.RawTranscription, error)
}

// InferenceEngine runs the two model calls over the video and transcript.
type InferenceEngine interface {
	Analyze(ctx context.Context, videoPath, transcript string) (*domain.BodyLanguageReport, error)
	Score(ctx context.Context, transcript string, analysis *domain.BodyLanguageReport) (*domain.ScoreReport, error)
}

// Config holds pipeline settings.
type Config struct {
	// ResultsDir is where per-job transcript and result artifacts are
	// written.
	ResultsDir string
}

// Orchestrator drives one job through every stage in order, checkpointing
// progress on the record after each stage. A stage error fails the job
// immediately with the stage's message; no stage is retried.
type Orchestrator struct {
	cfg         Config
	store       jobstore.Store
	extractor   AudioExtractor
	transcriber Transcriber
	engine      InferenceEngine
	logger      *slog.Logger
}

// NewOrchestrator wires the pipeline stages together.
func NewOrchestrator(
	cfg Config,
	store jobstore.Store,
	extractor AudioExtractor,
	transcriber Transcriber,
	engine InferenceEngine,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		cfg:         cfg,
		store:       store,
		extractor:   extractor,
		transcriber: transcriber,
		engine:      engine,
		logger:      logger,
	}
}

// Process runs the analysis pipeline for a job. The returned error is the
// stage error already recorded on the job; callers use it for logging and
// queue acknowledgement decisions only.
func (o *Orchestrator) Process(ctx context.Context, job *domain.JobRecord) error {
	jobID := job.ID()

	// Redelivered or double-dispatched terminal jobs skip the provider
	// calls entirely; the record would absorb every mutation anyway.
	if status := job.Snapshot().Status; status.IsTerminal() {
		o.logger.Warn("Skipping job already in terminal state",
			slog.String("job_id", jobID),
			slog.String("status", string(status)),
		)
		return nil
	}

	o.logger.Info("Starting analysis pipeline", slog.String("job_id", jobID))

	job.UpdateStatus(domain.StatusProcessing, stepExtracting)
	job.UpdateProgress(0.1)
	o.checkpoint(ctx, job)

	snap := job.Snapshot()

	audioPath, err := o.extractor.Extract(ctx, snap.VideoPath, jobID)
	if err != nil {
		return o.fail(ctx, job, err)
	}
	job.SetAudioPath(audioPath)
	job.UpdateProgress(0.2)
	o.checkpoint(ctx, job)

	job.UpdateStatus(domain.StatusProcessing, stepTranscribing)
	job.UpdateProgress(0.3)
	o.checkpoint(ctx, job)

	raw, err := o.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		return o.fail(ctx, job, err)
	}

	turns := transcript.Assemble(raw)
	formatted := transcript.Format(turns)

	transcriptPath, err := o.writeTranscript(jobID, turns)
	if err != nil {
		return o.fail(ctx, job, err)
	}
	job.SetTranscript(formatted, transcriptPath)
	job.UpdateProgress(0.5)
	o.checkpoint(ctx, job)

	job.UpdateStatus(domain.StatusProcessing, stepAnalyzing)
	job.UpdateProgress(0.6)
	o.checkpoint(ctx, job)

	analysis, err := o.engine.Analyze(ctx, snap.VideoPath, formatted)
	if err != nil {
		return o.fail(ctx, job, err)
	}
	job.UpdateProgress(0.8)
	o.checkpoint(ctx, job)

	job.UpdateStatus(domain.StatusProcessing, stepScoring)
	job.UpdateProgress(0.9)
	o.checkpoint(ctx, job)

	score, err := o.engine.Score(ctx, formatted, analysis)
	if err != nil {
		return o.fail(ctx, job, err)
	}

	result := &domain.AnalysisResult{
		BodyLanguageAnalysis: analysis,
		CandidateScore:       score,
	}
	if err := o.writeResult(jobID, result); err != nil {
		return o.fail(ctx, job, err)
	}
	job.SetResult(result)
	job.UpdateStatus(domain.StatusCompleted, stepScoring)
	o.checkpoint(ctx, job)

	o.logger.Info("Analysis pipeline completed", slog.String("job_id", jobID))

	return nil
}

// fail records the stage error on the job verbatim and flushes it.
func (o *Orchestrator) fail(ctx context.Context, job *domain.JobRecord, err error) error {
	o.logger.Error("Analysis pipeline failed",
		slog.String("job_id", job.ID()),
		slog.String("error", err.Error()),
	)

	job.Fail(err.Error())
	o.checkpoint(ctx, job)
	return err
}

// checkpoint flushes the job to the store. Flush failures are logged and
// swallowed: the in-memory record stays authoritative for this process.
func (o *Orchestrator) checkpoint(ctx context.Context, job *domain.JobRecord) {
	if err := o.store.Sync(ctx, job); err != nil {
		o.logger.Error("Failed to sync job state",
			slog.String("job_id", job.ID()),
			slog.String("error", err.Error()),
		)
	}
}

// writeTranscript persists the structured transcript turns.
func (o *Orchestrator) writeTranscript(jobID string, turns []transcript.Turn) (string, error) {
	path := filepath.Join(o.cfg.ResultsDir, jobID+"_transcript.json")
	if err := writeJSON(path, turns); err != nil {
		return "", fmt.Errorf("failed to save transcript: %w", err)
	}
	return path, nil
}

// writeResult persists the combined analysis report.
func (o *Orchestrator) writeResult(jobID string, result *domain.AnalysisResult) error {
	path := filepath.Join(o.cfg.ResultsDir, jobID+"_results.json")
	if err := writeJSON(path, result); err != nil {
		return fmt.Errorf("failed to save analysis result: %w", err)
	}
	return nil
}

func writeJSON(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
