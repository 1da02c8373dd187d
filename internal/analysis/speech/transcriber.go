// Package speech calls the Azure fast transcription REST API to transcribe
// audio with speaker diarization.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/hirelens/interview-analysis-be/internal/analysis/domain"
	"github.com/hirelens/interview-analysis-be/internal/analysis/transcript"
)

const defaultAPIVersion = "2024-11-15"

// Config holds transcription provider settings.
type Config struct {
	Region          string
	SubscriptionKey string
	// Locales is the ordered list of candidate locale tags.
	Locales []string
	// MaxSpeakers is the maximum number of distinguishable speakers, >= 1.
	MaxSpeakers int
	APIVersion  string
	// Endpoint overrides the region-derived URL. Used in tests.
	Endpoint string
}

// Client is a thin adapter over the transcription provider.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a transcription client.
func NewClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *Client {
	if cfg.APIVersion == "" {
		cfg.APIVersion = defaultAPIVersion
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
		logger:     logger,
	}
}

func (c *Client) endpoint() string {
	if c.cfg.Endpoint != "" {
		return c.cfg.Endpoint
	}
	return fmt.Sprintf(
		"https://%s.api.cognitive.microsoft.com/speechtotext/transcriptions:transcribe?api-version=%s",
		c.cfg.Region, c.cfg.APIVersion,
	)
}

type transcriptionDefinition struct {
	Locales     []string `json:"locales"`
	Diarization struct {
		MaxSpeakers int  `json:"maxSpeakers"`
		Enabled     bool `json:"enabled"`
	} `json:"diarization"`
}

// Transcribe submits the audio file and returns the raw diarized payload.
func (c *Client) Transcribe(ctx context.Context, audioPath string) (*transcript.RawTranscription, error) {
	audioFile, err := os.Open(audioPath)
	if err != nil {
		return nil, domain.NewTranscriptionError(0, err)
	}
	defer audioFile.Close()

	definition := transcriptionDefinition{Locales: c.cfg.Locales}
	definition.Diarization.MaxSpeakers = c.cfg.MaxSpeakers
	definition.Diarization.Enabled = true

	definitionJSON, err := json.Marshal(definition)
	if err != nil {
		return nil, domain.NewTranscriptionError(0, err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	audioPart, err := writer.CreateFormFile("audio", filepath.Base(audioPath))
	if err != nil {
		return nil, domain.NewTranscriptionError(0, err)
	}
	if _, err := io.Copy(audioPart, audioFile); err != nil {
		return nil, domain.NewTranscriptionError(0, err)
	}
	if err := writer.WriteField("definition", string(definitionJSON)); err != nil {
		return nil, domain.NewTranscriptionError(0, err)
	}
	if err := writer.Close(); err != nil {
		return nil, domain.NewTranscriptionError(0, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), &body)
	if err != nil {
		return nil, domain.NewTranscriptionError(0, err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.cfg.SubscriptionKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	c.logger.Info("Sending audio to transcription provider",
		slog.String("audio_path", audioPath),
		slog.Int("max_speakers", c.cfg.MaxSpeakers),
		slog.Any("locales", c.cfg.Locales),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewTranscriptionError(0, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewTranscriptionError(resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewTranscriptionError(resp.StatusCode,
			fmt.Errorf("transcription error: %d - %s", resp.StatusCode, string(respBody)))
	}

	var raw transcript.RawTranscription
	if err := json.Unmarshal(respBody, &raw); err != nil {
		return nil, domain.NewTranscriptionError(resp.StatusCode,
			fmt.Errorf("unexpected transcription response: %w", err))
	}

	c.logger.Info("Transcription successful",
		slog.Int("phrases", len(raw.Phrases)),
	)

	return &raw, nil
}
