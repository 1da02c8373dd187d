// Package media extracts audio tracks from interview videos with ffmpeg.
package media

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hirelens/interview-analysis-be/internal/analysis/domain"
)

// Config holds audio extraction settings.
type Config struct {
	// AudioDir is where extracted audio files are written.
	AudioDir string
	// MaxOutputBytes caps the extracted audio size. Zero disables the
	// degrade ladder.
	MaxOutputBytes int64
	// FFmpegPath and FFprobePath default to the binaries on PATH.
	FFmpegPath  string
	FFprobePath string
}

// Extractor shells out to ffmpeg to produce 16 kHz mono PCM audio from a
// video file. When the output exceeds the configured ceiling it degrades
// the audio in a strict order: lower sample rate, then lossy re-encode at
// low bitrate, then proportional trimming as a last resort.
type Extractor struct {
	cfg    Config
	logger *slog.Logger

	// runCmd is swapped out in tests.
	runCmd func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewExtractor creates an extractor writing into cfg.AudioDir.
func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	if cfg.FFprobePath == "" {
		cfg.FFprobePath = "ffprobe"
	}
	return &Extractor{
		cfg:    cfg,
		logger: logger,
		runCmd: runCombined,
	}
}

func runCombined(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Extract produces the audio track for a job's video and returns its path.
func (e *Extractor) Extract(ctx context.Context, videoPath, jobID string) (string, error) {
	if err := os.MkdirAll(e.cfg.AudioDir, 0o755); err != nil {
		return "", domain.NewExtractionError(err)
	}

	audioPath := filepath.Join(e.cfg.AudioDir, jobID+"_audio.wav")

	e.logger.Info("Extracting audio from video",
		slog.String("job_id", jobID),
		slog.String("video_path", videoPath),
		slog.String("audio_path", audioPath),
	)

	if err := e.ffmpeg(ctx, pcmArgs(videoPath, audioPath, 16000)); err != nil {
		return "", domain.NewExtractionError(err)
	}

	audioPath, err := e.applyCeiling(ctx, audioPath, jobID)
	if err != nil {
		return "", domain.NewExtractionError(err)
	}

	e.logger.Info("Audio extraction completed",
		slog.String("job_id", jobID),
		slog.String("audio_path", audioPath),
	)

	return audioPath, nil
}

// applyCeiling walks the degrade ladder until the output fits, stopping at
// the first rung that satisfies the ceiling.
func (e *Extractor) applyCeiling(ctx context.Context, audioPath, jobID string) (string, error) {
	if e.cfg.MaxOutputBytes <= 0 {
		return audioPath, nil
	}

	size, err := fileSize(audioPath)
	if err != nil {
		return "", err
	}
	if size <= e.cfg.MaxOutputBytes {
		return audioPath, nil
	}

	// Rung 1: lower sample rate, mono.
	e.logger.Warn("Audio exceeds size ceiling, reducing sample rate",
		slog.String("job_id", jobID),
		slog.Int64("size", size),
		slog.Int64("ceiling", e.cfg.MaxOutputBytes),
	)
	downsampled := filepath.Join(e.cfg.AudioDir, jobID+"_audio_8k.wav")
	if err := e.ffmpeg(ctx, pcmArgs(audioPath, downsampled, 8000)); err != nil {
		return "", err
	}
	if err := replaceFile(downsampled, audioPath); err != nil {
		return "", err
	}
	if size, err = fileSize(audioPath); err != nil {
		return "", err
	}
	if size <= e.cfg.MaxOutputBytes {
		return audioPath, nil
	}

	// Rung 2: lossy re-encode at low bitrate.
	e.logger.Warn("Audio still exceeds size ceiling, re-encoding to mp3",
		slog.String("job_id", jobID),
		slog.Int64("size", size),
	)
	lossyPath := filepath.Join(e.cfg.AudioDir, jobID+"_audio.mp3")
	if err := e.ffmpeg(ctx, mp3Args(audioPath, lossyPath)); err != nil {
		return "", err
	}
	if err := os.Remove(audioPath); err != nil {
		return "", err
	}
	audioPath = lossyPath
	if size, err = fileSize(audioPath); err != nil {
		return "", err
	}
	if size <= e.cfg.MaxOutputBytes {
		return audioPath, nil
	}

	// Rung 3: trim duration proportionally. Lossy by design; downstream
	// consumers should treat the transcript as degraded.
	duration, err := e.probeDuration(ctx, audioPath)
	if err != nil {
		return "", err
	}
	keep := duration * float64(e.cfg.MaxOutputBytes) / float64(size)
	e.logger.Warn("Audio still exceeds size ceiling, trimming duration",
		slog.String("job_id", jobID),
		slog.Int64("size", size),
		slog.Float64("keep_seconds", keep),
	)
	trimmed := filepath.Join(e.cfg.AudioDir, jobID+"_audio_trimmed.mp3")
	if err := e.ffmpeg(ctx, trimArgs(audioPath, trimmed, keep)); err != nil {
		return "", err
	}
	if err := replaceFile(trimmed, audioPath); err != nil {
		return "", err
	}

	return audioPath, nil
}

func (e *Extractor) ffmpeg(ctx context.Context, args []string) error {
	output, err := e.runCmd(ctx, e.cfg.FFmpegPath, args...)
	if err != nil {
		return fmt.Errorf("ffmpeg failed: %v: %s", err, tail(output, 512))
	}
	return nil
}

// probeDuration returns the audio duration in seconds via ffprobe.
func (e *Extractor) probeDuration(ctx context.Context, path string) (float64, error) {
	output, err := e.runCmd(ctx, e.cfg.FFprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %v: %s", err, tail(output, 512))
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, fmt.Errorf("unexpected ffprobe duration output %q: %w", string(output), err)
	}
	return duration, nil
}

func pcmArgs(input, output string, sampleRate int) []string {
	return []string{
		"-i", input,
		"-vn",
		"-ar", strconv.Itoa(sampleRate),
		"-ac", "1",
		"-c:a", "pcm_s16le",
		"-y",
		output,
	}
}

func mp3Args(input, output string) []string {
	return []string{
		"-i", input,
		"-vn",
		"-ac", "1",
		"-c:a", "libmp3lame",
		"-b:a", "32k",
		"-y",
		output,
	}
}

func trimArgs(input, output string, keepSeconds float64) []string {
	return []string{
		"-i", input,
		"-t", fmt.Sprintf("%.3f", keepSeconds),
		"-c", "copy",
		"-y",
		output,
	}
}

func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func replaceFile(src, dst string) error {
	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return err
	}
	return os.Rename(src, dst)
}

func tail(b []byte, n int) string {
	s := strings.TrimSpace(string(b))
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
