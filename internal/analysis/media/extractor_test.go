package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hirelens/interview-analysis-be/internal/analysis/domain"
	"github.com/hirelens/interview-analysis-be/shared/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner scripts ffmpeg/ffprobe invocations: each ffmpeg call writes
// its output file with the next size from sizes, ffprobe reports duration.
type fakeRunner struct {
	sizes    []int64
	duration string
	calls    [][]string
}

func (f *fakeRunner) run(_ context.Context, name string, args ...string) ([]byte, error) {
	call := append([]string{name}, args...)
	f.calls = append(f.calls, call)

	if name == "ffprobe" {
		return []byte(f.duration + "\n"), nil
	}

	if len(f.sizes) == 0 {
		return nil, errors.New("unexpected ffmpeg call")
	}
	size := f.sizes[0]
	f.sizes = f.sizes[1:]

	outPath := args[len(args)-1]
	return nil, os.WriteFile(outPath, make([]byte, size), 0o644)
}

func newTestExtractor(t *testing.T, maxBytes int64, runner *fakeRunner) *Extractor {
	t.Helper()
	e := NewExtractor(Config{
		AudioDir:       t.TempDir(),
		MaxOutputBytes: maxBytes,
	}, logger.NewDefault().Logger)
	e.runCmd = runner.run
	return e
}

func TestExtract_NoCeiling(t *testing.T) {
	runner := &fakeRunner{sizes: []int64{4096}}
	e := newTestExtractor(t, 0, runner)

	audioPath, err := e.Extract(context.Background(), "/videos/job-1.mp4", "job-1")
	require.NoError(t, err)

	assert.Equal(t, "job-1_audio.wav", filepath.Base(audioPath))
	require.Len(t, runner.calls, 1)
	assert.Contains(t, runner.calls[0], "16000")
	assert.Contains(t, runner.calls[0], "pcm_s16le")
	assert.Contains(t, runner.calls[0], "/videos/job-1.mp4")
}

func TestExtract_UnderCeiling(t *testing.T) {
	runner := &fakeRunner{sizes: []int64{100}}
	e := newTestExtractor(t, 1000, runner)

	audioPath, err := e.Extract(context.Background(), "/videos/job-1.mp4", "job-1")
	require.NoError(t, err)

	assert.Equal(t, "job-1_audio.wav", filepath.Base(audioPath))
	assert.Len(t, runner.calls, 1, "no degrade step should run")
}

func TestExtract_DownsampleSatisfiesCeiling(t *testing.T) {
	runner := &fakeRunner{sizes: []int64{2000, 900}}
	e := newTestExtractor(t, 1000, runner)

	audioPath, err := e.Extract(context.Background(), "/videos/job-1.mp4", "job-1")
	require.NoError(t, err)

	assert.Equal(t, "job-1_audio.wav", filepath.Base(audioPath))
	require.Len(t, runner.calls, 2)
	assert.Contains(t, runner.calls[1], "8000")

	size, err := fileSize(audioPath)
	require.NoError(t, err)
	assert.Equal(t, int64(900), size)
}

func TestExtract_FullLadderDownToTrim(t *testing.T) {
	// 16k wav too big, 8k wav too big, mp3 still too big, then trim.
	runner := &fakeRunner{sizes: []int64{4000, 3000, 2000, 800}, duration: "100.0"}
	e := newTestExtractor(t, 1000, runner)

	audioPath, err := e.Extract(context.Background(), "/videos/job-1.mp4", "job-1")
	require.NoError(t, err)

	assert.Equal(t, "job-1_audio.mp3", filepath.Base(audioPath))

	// ffmpeg 16k, ffmpeg 8k, ffmpeg mp3, ffprobe, ffmpeg trim
	require.Len(t, runner.calls, 5)
	assert.Contains(t, runner.calls[2], "libmp3lame")
	assert.Contains(t, runner.calls[2], "32k")
	assert.Equal(t, "ffprobe", runner.calls[3][0])

	// ceiling/size * duration = 1000/2000 * 100s
	trimCall := strings.Join(runner.calls[4], " ")
	assert.Contains(t, trimCall, "-t 50.000")

	size, err := fileSize(audioPath)
	require.NoError(t, err)
	assert.LessOrEqual(t, size, int64(1000))
}

func TestExtract_FFmpegFailure(t *testing.T) {
	e := NewExtractor(Config{AudioDir: t.TempDir()}, logger.NewDefault().Logger)
	e.runCmd = func(_ context.Context, _ string, _ ...string) ([]byte, error) {
		return []byte("Output file does not contain any stream"), errors.New("exit status 1")
	}

	_, err := e.Extract(context.Background(), "/videos/job-1.mp4", "job-1")
	require.Error(t, err)

	var extractionErr *domain.ExtractionError
	require.ErrorAs(t, err, &extractionErr)
	assert.Contains(t, err.Error(), "does not contain any stream")
}

func TestTail(t *testing.T) {
	long := strings.Repeat("x", 600) + "tail-end"
	got := tail([]byte(long), 16)
	assert.Equal(t, 16, len(got))
	assert.True(t, strings.HasSuffix(got, "tail-end"))

	assert.Equal(t, "short", tail([]byte(" short \n"), 512))
}

func TestPCMArgs(t *testing.T) {
	args := pcmArgs("in.mp4", "out.wav", 16000)
	joined := strings.Join(args, " ")
	assert.Equal(t, "-i in.mp4 -vn -ar 16000 -ac 1 -c:a pcm_s16le -y out.wav", joined)
}

func TestTrimArgs(t *testing.T) {
	args := trimArgs("in.mp3", "out.mp3", 12.3456)
	assert.Equal(t, []string{"-i", "in.mp3", "-t", "12.346", "-c", "copy", "-y", "out.mp3"}, args)
}

func TestFakeRunnerSelfCheck(t *testing.T) {
	// Guard the fixture: an exhausted script should error, not silently pass.
	runner := &fakeRunner{}
	_, err := runner.run(context.Background(), "ffmpeg", "-y", filepath.Join(t.TempDir(), "x.wav"))
	require.Error(t, err)
}
