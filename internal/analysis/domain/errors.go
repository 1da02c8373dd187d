package domain

import "errors"

var (
	// ErrJobNotFound is returned when a job id is unknown to the store.
	ErrJobNotFound = errors.New("job not found")

	// ErrJobNotReady is returned when results are requested before the
	// job reaches the completed state.
	ErrJobNotReady = errors.New("job is not completed yet")

	// ErrUnsupportedMedia is returned when an upload is not a supported
	// video file type.
	ErrUnsupportedMedia = errors.New("not a valid video file")
)

// ExtractionError wraps a failure of the audio extraction stage.
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string {
	return "failed to extract audio from video: " + e.Err.Error()
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// TranscriptionError wraps a failure of the transcription stage.
// StatusCode carries the provider's HTTP status when the provider
// responded at all; it is zero for transport-level failures.
type TranscriptionError struct {
	StatusCode int
	Err        error
}

func (e *TranscriptionError) Error() string {
	return "failed to transcribe audio: " + e.Err.Error()
}

func (e *TranscriptionError) Unwrap() error {
	return e.Err
}

// InferenceError wraps a failure of a generative inference call,
// including responses that cannot be parsed into the expected shape.
type InferenceError struct {
	Op  string // "analyze" or "score"
	Err error
}

func (e *InferenceError) Error() string {
	switch e.Op {
	case "score":
		return "failed to score candidate: " + e.Err.Error()
	default:
		return "failed to analyze video: " + e.Err.Error()
	}
}

func (e *InferenceError) Unwrap() error {
	return e.Err
}

// NewExtractionError wraps err as an extraction stage failure.
func NewExtractionError(err error) error {
	return &ExtractionError{Err: err}
}

// NewTranscriptionError wraps err as a transcription stage failure.
func NewTranscriptionError(statusCode int, err error) error {
	return &TranscriptionError{StatusCode: statusCode, Err: err}
}

// NewInferenceError wraps err as an inference stage failure for op.
func NewInferenceError(op string, err error) error {
	return &InferenceError{Op: op, Err: err}
}
