package dependency

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
)

// DependencyClient is a facade for the pipeline to call external tools
// without dealing with command construction or execution details.
type DependencyClient struct {
	executor DependencyExecutor
	config   ExecutorConfig
}

// NewClient creates a DependencyClient backed by a LocalExecutor.
func NewClient(config ExecutorConfig) *DependencyClient {
	return NewClientWithExecutor(NewLocalExecutor(config), config)
}

// NewClientWithExecutor creates a DependencyClient on top of an arbitrary executor.
func NewClientWithExecutor(executor DependencyExecutor, config ExecutorConfig) *DependencyClient {
	return &DependencyClient{executor: executor, config: config}
}

// ConvertToWAV decodes any container/codec FFmpeg understands into a mono,
// 16-bit PCM WAV file at sampleRate.
//
// Example:
//
//	err := client.ConvertToWAV(ctx, "/tmp/upload.m4a", "/tmp/upload_16k.wav", 16000)
func (c *DependencyClient) ConvertToWAV(ctx context.Context, inputPath, outputPath string, sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", sampleRate)
	}

	req := CommandRequest{
		Command: "ffmpeg",
		Args: []string{
			"-nostdin",
			"-hide_banner",
			"-loglevel", "error",
			"-y",
			"-i", inputPath,
			"-vn",
			"-ac", "1",
			"-ar", strconv.Itoa(sampleRate),
			"-c:a", "pcm_s16le",
			"-f", "wav",
			outputPath,
		},
		Timeout: c.config.DefaultTimeout,
	}

	if err := ValidateCommandRequest(req, c.config); err != nil {
		return fmt.Errorf("command validation failed: %w", err)
	}

	slog.Debug("[DependencyClient] converting audio", "input", inputPath, "output", outputPath, "sample_rate", sampleRate)

	resp, err := c.executor.ExecuteCommand(ctx, req)
	if err != nil {
		if resp.Stderr != "" {
			return fmt.Errorf("audio conversion failed: %w: %s", err, resp.Stderr)
		}
		return fmt.Errorf("audio conversion failed: %w", err)
	}
	if !resp.Success || resp.ExitCode != 0 {
		return fmt.Errorf("audio conversion failed (exit code %d): %s", resp.ExitCode, resp.Stderr)
	}

	return nil
}

// HealthCheck delegates to the underlying executor.
func (c *DependencyClient) HealthCheck(ctx context.Context) error {
	return c.executor.HealthCheck(ctx)
}

// Name identifies the decoder backend in health reports.
func (c *DependencyClient) Name() string {
	return "ffmpeg"
}
