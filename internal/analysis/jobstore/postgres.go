package jobstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hirelens/interview-analysis-be/internal/analysis/domain"
	"github.com/hirelens/interview-analysis-be/shared/postgresql"
)

// PostgresStore backs the registry with a jobs table so the API service
// and a queue-backed worker can share state across processes. Live records
// are cached per process; Sync flushes a record's snapshot to its row.
type PostgresStore struct {
	client *postgresql.Client

	mu    sync.RWMutex
	cache map[string]*domain.JobRecord
}

// NewPostgresStore creates a store on top of an established client.
func NewPostgresStore(pg *postgresql.Client) *PostgresStore {
	return &PostgresStore{
		client: pg,
		cache:  make(map[string]*domain.JobRecord),
	}
}

type jobRow struct {
	JobID              string         `db:"job_id"`
	OriginalFilename   string         `db:"original_filename"`
	Status             string         `db:"status"`
	CreatedAt          time.Time      `db:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at"`
	CompletedAt        sql.NullTime   `db:"completed_at"`
	VideoPath          sql.NullString `db:"video_path"`
	AudioPath          sql.NullString `db:"audio_path"`
	Transcript         sql.NullString `db:"transcript"`
	TranscriptJSONPath sql.NullString `db:"transcript_json_path"`
	AnalysisResult     []byte         `db:"analysis_result"`
	CurrentStep        sql.NullString `db:"current_step"`
	Progress           float64        `db:"progress"`
	ErrorMessage       sql.NullString `db:"error_message"`
}

// Create registers a new pending job and inserts its row.
func (s *PostgresStore) Create(ctx context.Context, originalFilename string) (*domain.JobRecord, error) {
	job := domain.NewJobRecord(uuid.New().String(), originalFilename)
	snap := job.Snapshot()

	query := `
		INSERT INTO analysis_jobs (
			job_id, original_filename, status, created_at, updated_at, progress
		) VALUES ($1, $2, $3, $4, $5, $6)
	`
	err := s.client.ExecContext(ctx, query,
		snap.JobID, snap.OriginalFilename, string(snap.Status),
		snap.CreatedAt, snap.UpdatedAt, snap.Progress,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	s.mu.Lock()
	s.cache[job.ID()] = job
	s.mu.Unlock()

	return job, nil
}

// Get returns the live record when this process holds one, otherwise
// rehydrates it from the jobs table.
func (s *PostgresStore) Get(ctx context.Context, jobID string) (*domain.JobRecord, error) {
	s.mu.RLock()
	job, ok := s.cache[jobID]
	s.mu.RUnlock()
	if ok {
		return job, nil
	}

	var row jobRow
	query := `SELECT * FROM analysis_jobs WHERE job_id = $1`
	if err := s.client.GetContext(ctx, &row, query, jobID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	job, err := restoreFromRow(&row)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	// Another goroutine may have raced the rehydration; keep its handle.
	if cached, ok := s.cache[jobID]; ok {
		job = cached
	} else {
		s.cache[jobID] = job
	}
	s.mu.Unlock()

	return job, nil
}

// List returns every job row, preferring live cached records.
func (s *PostgresStore) List(ctx context.Context) ([]*domain.JobRecord, error) {
	var rows []jobRow
	query := `SELECT * FROM analysis_jobs ORDER BY created_at`
	if err := s.client.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]*domain.JobRecord, 0, len(rows))
	for i := range rows {
		if cached, ok := s.cache[rows[i].JobID]; ok {
			jobs = append(jobs, cached)
			continue
		}
		job, err := restoreFromRow(&rows[i])
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// Sync flushes the record's snapshot to its row.
func (s *PostgresStore) Sync(ctx context.Context, job *domain.JobRecord) error {
	snap := job.Snapshot()

	var resultJSON []byte
	if snap.AnalysisResult != nil {
		var err error
		resultJSON, err = json.Marshal(snap.AnalysisResult)
		if err != nil {
			return fmt.Errorf("failed to marshal analysis result: %w", err)
		}
	}

	query := `
		UPDATE analysis_jobs
		SET status = $1,
			updated_at = $2,
			completed_at = $3,
			video_path = NULLIF($4, ''),
			audio_path = NULLIF($5, ''),
			transcript = NULLIF($6, ''),
			transcript_json_path = NULLIF($7, ''),
			analysis_result = $8,
			current_step = NULLIF($9, ''),
			progress = $10,
			error_message = NULLIF($11, '')
		WHERE job_id = $12
	`
	err := s.client.ExecContext(ctx, query,
		string(snap.Status), snap.UpdatedAt, nullTime(snap.CompletedAt),
		snap.VideoPath, snap.AudioPath, snap.Transcript, snap.TranscriptJSONPath,
		resultJSON, snap.CurrentStep, snap.Progress, snap.Error, snap.JobID,
	)
	if err != nil {
		return fmt.Errorf("failed to sync job: %w", err)
	}
	return nil
}

func restoreFromRow(row *jobRow) (*domain.JobRecord, error) {
	snap := domain.JobSnapshot{
		JobID:              row.JobID,
		OriginalFilename:   row.OriginalFilename,
		Status:             domain.Status(row.Status),
		CreatedAt:          row.CreatedAt,
		UpdatedAt:          row.UpdatedAt,
		VideoPath:          row.VideoPath.String,
		AudioPath:          row.AudioPath.String,
		Transcript:         row.Transcript.String,
		TranscriptJSONPath: row.TranscriptJSONPath.String,
		CurrentStep:        row.CurrentStep.String,
		Progress:           row.Progress,
		Error:              row.ErrorMessage.String,
	}
	if row.CompletedAt.Valid {
		completedAt := row.CompletedAt.Time
		snap.CompletedAt = &completedAt
	}
	if len(row.AnalysisResult) > 0 {
		var result domain.AnalysisResult
		if err := json.Unmarshal(row.AnalysisResult, &result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal analysis result: %w", err)
		}
		snap.AnalysisResult = &result
	}
	return domain.RestoreJobRecord(snap), nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
