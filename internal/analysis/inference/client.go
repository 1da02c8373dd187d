// Package inference calls the Gemini generative API for body-language
// analysis and candidate scoring. Every call runs at temperature 0 with a
// single model invocation; failed calls are never retried here.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hirelens/interview-analysis-be/internal/analysis/domain"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

// Config holds inference provider settings.
type Config struct {
	APIKey  string
	ModelID string
	// BaseURL overrides the provider endpoint. Used in tests.
	BaseURL string
	// FileActivationTimeout bounds how long an uploaded video may stay
	// in the provider's processing state before analysis gives up.
	FileActivationTimeout time.Duration
}

// Client is a thin adapter over the generative inference provider.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates an inference client.
func NewClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.FileActivationTimeout <= 0 {
		cfg.FileActivationTimeout = 5 * time.Minute
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

type fileInfo struct {
	Name     string `json:"name"`
	URI      string `json:"uri"`
	MimeType string `json:"mimeType"`
	State    string `json:"state"`
}

type generatePart struct {
	Text     string `json:"text,omitempty"`
	FileData *struct {
		MimeType string `json:"mimeType"`
		FileURI  string `json:"fileUri"`
	} `json:"fileData,omitempty"`
}

type generateContent struct {
	Role  string         `json:"role,omitempty"`
	Parts []generatePart `json:"parts"`
}

type generateRequest struct {
	Contents          []generateContent `json:"contents"`
	SystemInstruction *generateContent  `json:"systemInstruction,omitempty"`
	GenerationConfig  struct {
		Temperature float64 `json:"temperature"`
	} `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Analyze uploads the video, waits for the provider to finish processing
// it, and asks for the structured body-language report.
func (c *Client) Analyze(ctx context.Context, videoPath, transcript string) (*domain.BodyLanguageReport, error) {
	file, err := c.uploadFile(ctx, videoPath)
	if err != nil {
		return nil, domain.NewInferenceError("analyze", err)
	}

	file, err = c.awaitFileActive(ctx, file)
	if err != nil {
		return nil, domain.NewInferenceError("analyze", err)
	}

	c.logger.Info("Video processing complete",
		slog.String("file_uri", file.URI),
	)

	req := generateRequest{
		Contents: []generateContent{
			{
				Role: "user",
				Parts: []generatePart{
					{FileData: &struct {
						MimeType string `json:"mimeType"`
						FileURI  string `json:"fileUri"`
					}{MimeType: file.MimeType, FileURI: file.URI}},
				},
			},
			{
				Role:  "user",
				Parts: []generatePart{{Text: fmt.Sprintf(videoAnalysisUserPrompt, transcript)}},
			},
		},
		SystemInstruction: &generateContent{
			Parts: []generatePart{{Text: videoAnalysisSystemPrompt}},
		},
	}

	text, err := c.generate(ctx, &req)
	if err != nil {
		return nil, domain.NewInferenceError("analyze", err)
	}

	var report domain.BodyLanguageReport
	if err := extractJSON(text, &report); err != nil {
		return nil, domain.NewInferenceError("analyze", err)
	}
	return &report, nil
}

// Score asks for the five-criterion score report over the transcript and
// the analysis produced by Analyze.
func (c *Client) Score(ctx context.Context, transcript string, analysis *domain.BodyLanguageReport) (*domain.ScoreReport, error) {
	analysisJSON, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return nil, domain.NewInferenceError("score", err)
	}

	req := generateRequest{
		Contents: []generateContent{
			{
				Role:  "user",
				Parts: []generatePart{{Text: fmt.Sprintf(scoringUserPrompt, transcript, string(analysisJSON))}},
			},
		},
		SystemInstruction: &generateContent{
			Parts: []generatePart{{Text: scoringSystemPrompt}},
		},
	}

	text, err := c.generate(ctx, &req)
	if err != nil {
		return nil, domain.NewInferenceError("score", err)
	}

	var report domain.ScoreReport
	if err := extractJSON(text, &report); err != nil {
		return nil, domain.NewInferenceError("score", err)
	}
	return &report, nil
}

// uploadFile pushes the raw video bytes to the provider's file API.
func (c *Client) uploadFile(ctx context.Context, videoPath string) (*fileInfo, error) {
	video, err := os.Open(videoPath)
	if err != nil {
		return nil, err
	}
	defer video.Close()

	url := fmt.Sprintf("%s/upload/v1beta/files?key=%s", c.cfg.BaseURL, c.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, video)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Goog-Upload-Protocol", "raw")
	req.Header.Set("Content-Type", videoMimeType(videoPath))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("file upload failed: %d - %s", resp.StatusCode, string(body))
	}

	var result struct {
		File fileInfo `json:"file"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("unexpected upload response: %w", err)
	}
	return &result.File, nil
}

// awaitFileActive polls the uploaded file until the provider reports it
// ACTIVE. Only the still-processing state is retried; provider failures
// are permanent so a failed call is never re-issued.
func (c *Client) awaitFileActive(ctx context.Context, file *fileInfo) (*fileInfo, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 2 * time.Second
	policy.MaxInterval = 15 * time.Second
	policy.MaxElapsedTime = c.cfg.FileActivationTimeout

	operation := func() error {
		current, err := c.getFile(ctx, file.Name)
		if err != nil {
			return backoff.Permanent(err)
		}
		switch current.State {
		case "ACTIVE":
			file = current
			return nil
		case "FAILED":
			return backoff.Permanent(fmt.Errorf("video processing failed with state: %s", current.State))
		default:
			c.logger.Info("Waiting for video to be processed by the inference provider",
				slog.String("file", file.Name),
				slog.String("state", current.State),
			)
			return fmt.Errorf("file %s still in state %s", file.Name, current.State)
		}
	}

	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return nil, err
	}
	return file, nil
}

func (c *Client) getFile(ctx context.Context, name string) (*fileInfo, error) {
	url := fmt.Sprintf("%s/v1beta/%s?key=%s", c.cfg.BaseURL, name, c.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("file lookup failed: %d - %s", resp.StatusCode, string(body))
	}

	var file fileInfo
	if err := json.Unmarshal(body, &file); err != nil {
		return nil, fmt.Errorf("unexpected file response: %w", err)
	}
	return &file, nil
}

// generate performs one generateContent call and returns the response text.
func (c *Client) generate(ctx context.Context, genReq *generateRequest) (string, error) {
	genReq.GenerationConfig.Temperature = 0

	payload, err := json.Marshal(genReq)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.cfg.BaseURL, c.cfg.ModelID, c.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("inference call failed: %d - %s", resp.StatusCode, string(body))
	}

	var genResp generateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return "", fmt.Errorf("unexpected inference response: %w", err)
	}
	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("inference response contained no candidates")
	}
	return genResp.Candidates[0].Content.Parts[0].Text, nil
}

// videoMimeType maps a video extension to its MIME type, defaulting to mp4.
func videoMimeType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".avi":
		return "video/x-msvideo"
	case ".mov":
		return "video/quicktime"
	case ".webm":
		return "video/webm"
	case ".mkv":
		return "video/x-matroska"
	default:
		return "video/mp4"
	}
}
