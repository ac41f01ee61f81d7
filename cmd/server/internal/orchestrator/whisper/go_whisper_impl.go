package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/houzhh15/audioscribe/cmd/server/internal/audio"
	"github.com/houzhh15/audioscribe/pkg/metrics"
	"github.com/houzhh15/audioscribe/pkg/retry"
)

const capabilityName = "whisper"

// GoWhisperImpl implements Recognizer against the go-whisper HTTP service
// (ghcr.io/mutablelogic/go-whisper). Each chunk is encoded as 16-bit mono WAV
// and posted as multipart/form-data.
type GoWhisperImpl struct {
	apiURL     string
	model      string
	httpClient *http.Client
	policy     retry.Policy
	logger     *slog.Logger
}

// Options configures a GoWhisperImpl.
type Options struct {
	Model      string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	Logger     *slog.Logger
}

// NewGoWhisperImpl creates a recognizer for the service at apiURL
// (e.g. "http://whisper:80" or "http://localhost:8082").
func NewGoWhisperImpl(apiURL string, opts Options) *GoWhisperImpl {
	if opts.Model == "" {
		opts.Model = "ggml-base"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Minute
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	g := &GoWhisperImpl{
		apiURL:     strings.TrimRight(apiURL, "/"),
		model:      opts.Model,
		httpClient: &http.Client{Timeout: opts.Timeout},
		logger:     logger,
	}
	g.policy = retry.Policy{
		MaxRetries: opts.MaxRetries,
		BaseDelay:  opts.RetryDelay,
		OnRetry: func(attempt int, err error) {
			metrics.RecordCapabilityRetry(capabilityName)
			g.logger.Warn("retrying whisper request", "attempt", attempt, "error", err)
		},
	}
	return g
}

// DecodeChunk implements Recognizer.
//
// API endpoint: POST {apiURL}/api/whisper/transcribe
// Reference: https://github.com/mutablelogic/go-whisper/blob/main/doc/API.md#transcription
func (g *GoWhisperImpl) DecodeChunk(ctx context.Context, samples []float32, sampleRate int, opts DecodingOptions) (string, error) {
	wavData, err := encodeWAV(samples, sampleRate)
	if err != nil {
		return "", err
	}

	start := time.Now()
	var result TranscriptionResult
	err = retry.Do(ctx, g.policy, func(ctx context.Context) error {
		return g.post(ctx, wavData, opts, &result)
	})
	metrics.RecordCapabilityDuration(capabilityName, time.Since(start).Seconds())
	metrics.RecordCapabilityCall(capabilityName, metrics.CallStatus(err, errors.Is(err, context.DeadlineExceeded)))
	if err != nil {
		return "", fmt.Errorf("whisper transcription failed: %w", err)
	}
	return result.FullText(), nil
}

func (g *GoWhisperImpl) post(ctx context.Context, wavData []byte, opts DecodingOptions, out *TranscriptionResult) error {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	// go-whisper API uses 'audio' field name
	part, err := writer.CreateFormFile("audio", "chunk.wav")
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(wavData); err != nil {
		return fmt.Errorf("failed to copy audio data: %w", err)
	}

	fields := [][2]string{
		{"model", g.model},
		{"response_format", "json"},
		{"temperature", strconv.FormatFloat(opts.Temperature, 'f', -1, 64)},
	}
	if opts.BeamWidth > 0 {
		fields = append(fields, [2]string{"beam_size", strconv.Itoa(opts.BeamWidth)})
	}
	if opts.Language != "" {
		fields = append(fields, [2]string{"language", opts.Language})
	}
	for _, f := range fields {
		if err := writer.WriteField(f[0], f[1]); err != nil {
			return fmt.Errorf("failed to write %s field: %w", f[0], err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close multipart writer: %w", err)
	}

	endpoint := g.apiURL + "/api/whisper/transcribe"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &retry.StatusError{StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse JSON response: %w", err)
	}
	return nil
}

// encodeWAV 将切片写入临时 WAV 文件后读回字节（WAV 编码器需要 io.WriteSeeker）
func encodeWAV(samples []float32, sampleRate int) ([]byte, error) {
	tmp, err := os.CreateTemp("", "whisper-chunk-*.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp WAV: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if err := audio.WriteWAV(tmp, samples, sampleRate); err != nil {
		return nil, err
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind temp WAV: %w", err)
	}
	return io.ReadAll(tmp)
}

// HealthCheck verifies that the go-whisper service is operational via GET /api/whisper/model.
func (g *GoWhisperImpl) HealthCheck(ctx context.Context) (bool, error) {
	endpoint := g.apiURL + "/api/whisper/model"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("health check request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return true, nil
	}
	return false, fmt.Errorf("health check failed: status %d", resp.StatusCode)
}

// Name returns the identifier of this recognizer implementation.
func (g *GoWhisperImpl) Name() string {
	return "go-whisper"
}
