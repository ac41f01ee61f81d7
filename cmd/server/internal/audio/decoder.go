package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// DecodeError reports an unreadable file or an unsupported codec.
type DecodeError struct {
	Path  string
	Cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Cause)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// Decoder turns an audio file of any supported container into a mono Signal
// resampled to targetSampleRate.
type Decoder interface {
	Decode(ctx context.Context, path string, targetSampleRate int) (Signal, error)
}

// WAVConverter transcodes inputPath into a mono PCM WAV at sampleRate.
// dependency.DependencyClient satisfies it through FFmpeg.
type WAVConverter interface {
	ConvertToWAV(ctx context.Context, inputPath, outputPath string, sampleRate int) error
}

// FFmpegDecoder decodes through a WAVConverter into a temporary WAV file and
// reads the PCM back.
type FFmpegDecoder struct {
	converter WAVConverter
	tempDir   string
	logger    *slog.Logger
}

// NewFFmpegDecoder creates a decoder; an empty tempDir uses os.TempDir().
func NewFFmpegDecoder(converter WAVConverter, tempDir string, logger *slog.Logger) *FFmpegDecoder {
	if logger == nil {
		logger = slog.Default()
	}
	return &FFmpegDecoder{converter: converter, tempDir: tempDir, logger: logger}
}

// Decode implements Decoder.
func (d *FFmpegDecoder) Decode(ctx context.Context, path string, targetSampleRate int) (Signal, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Signal{}, &DecodeError{Path: path, Cause: err}
	}
	if info.IsDir() {
		return Signal{}, &DecodeError{Path: path, Cause: errors.New("path is a directory")}
	}

	tmp, err := os.CreateTemp(d.tempDir, "decode-*.wav")
	if err != nil {
		return Signal{}, &DecodeError{Path: path, Cause: fmt.Errorf("create temp file: %w", err)}
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(tmpPath)

	absInput, err := filepath.Abs(path)
	if err != nil {
		absInput = path
	}
	if err := d.converter.ConvertToWAV(ctx, absInput, tmpPath, targetSampleRate); err != nil {
		return Signal{}, &DecodeError{Path: path, Cause: err}
	}

	f, err := os.Open(tmpPath)
	if err != nil {
		return Signal{}, &DecodeError{Path: path, Cause: err}
	}
	defer f.Close()

	signal, err := ReadWAV(f)
	if err != nil {
		return Signal{}, &DecodeError{Path: path, Cause: err}
	}
	if signal.SampleRate != targetSampleRate {
		return Signal{}, &DecodeError{
			Path:  path,
			Cause: fmt.Errorf("decoded sample rate %d does not match target %d", signal.SampleRate, targetSampleRate),
		}
	}

	d.logger.Debug("audio decoded",
		"path", path,
		"samples", len(signal.Samples),
		"duration", signal.Duration().String(),
	)
	return signal, nil
}
