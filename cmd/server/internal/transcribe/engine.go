// Package transcribe turns audio chunks into text segments through a
// speech recognizer. The engine never retries; retry policy belongs to the
// recognizer adapter.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/houzhh15/audioscribe/cmd/server/internal/audio"
	"github.com/houzhh15/audioscribe/cmd/server/internal/metrics"
	"github.com/houzhh15/audioscribe/cmd/server/internal/orchestrator/whisper"
	"github.com/houzhh15/audioscribe/pkg/logger"
)

// Segment is the text recognized for one chunk.
type Segment struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// Error reports a recognizer failure for a specific chunk. Offset is the
// chunk start in the source audio.
type Error struct {
	ChunkIndex int
	Offset     time.Duration
	Cause      error
}

func (e *Error) Error() string {
	if e.ChunkIndex < 0 {
		return fmt.Sprintf("transcription failed: %v", e.Cause)
	}
	return fmt.Sprintf("transcription of chunk %d at %s failed: %v", e.ChunkIndex, e.Offset, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Temperature is fixed at 0 so the same chunk always decodes to the same text.
const Temperature = 0.0

// Options configures an Engine.
type Options struct {
	BeamWidth int
	// Concurrency bounds in-flight chunks in TranscribeAll; <=0 means 1.
	Concurrency int
	// Timeout bounds a single chunk; <=0 disables the per-call deadline.
	Timeout time.Duration
	Logger  *slog.Logger
}

// Engine transcribes chunks with fixed decoding parameters.
type Engine struct {
	recognizer whisper.Recognizer
	opts       Options
	logger     *slog.Logger
}

// NewEngine creates an engine over recognizer.
func NewEngine(recognizer whisper.Recognizer, opts Options) *Engine {
	if opts.BeamWidth <= 0 {
		opts.BeamWidth = 5
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Engine{
		recognizer: recognizer,
		opts:       opts,
		logger:     logger.OrDefault(opts.Logger),
	}
}

// Transcribe recognizes a single chunk. languageHint may be empty.
func (e *Engine) Transcribe(ctx context.Context, chunk audio.Chunk, languageHint string) (Segment, error) {
	callCtx := ctx
	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := e.recognizer.DecodeChunk(callCtx, chunk.Samples, chunk.SampleRate, whisper.DecodingOptions{
		Temperature: Temperature,
		BeamWidth:   e.opts.BeamWidth,
		Language:    languageHint,
	})
	elapsed := time.Since(start)
	metrics.RecordChunkTranscribed(err == nil)

	if err != nil {
		logger.LogStageEvent(e.logger, "transcribe", "error", chunk.Index, elapsed.Milliseconds(), "TRANSCRIPTION_FAILED")
		return Segment{}, &Error{ChunkIndex: chunk.Index, Offset: chunk.Offset(), Cause: err}
	}
	logger.LogStageEvent(e.logger, "transcribe", "success", chunk.Index, elapsed.Milliseconds(), "")
	return Segment{Index: chunk.Index, Text: text}, nil
}

// TranscribeAll recognizes every chunk with bounded parallelism. Segments come
// back in chunk order regardless of completion order. The first failure
// cancels the remaining chunks and is returned.
func (e *Engine) TranscribeAll(ctx context.Context, chunks []audio.Chunk, languageHint string) ([]Segment, error) {
	segments := make([]Segment, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)
	for i, chunk := range chunks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return &Error{ChunkIndex: chunk.Index, Offset: chunk.Offset(), Cause: err}
			}
			seg, err := e.Transcribe(gctx, chunk, languageHint)
			if err != nil {
				return err
			}
			segments[i] = seg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		var tErr *Error
		if !errors.As(err, &tErr) {
			err = &Error{ChunkIndex: -1, Cause: err}
		}
		return nil, err
	}
	return segments, nil
}

// Join trims each segment and joins the non-empty ones with a single space.
func Join(segments []Segment) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		if t := strings.TrimSpace(seg.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
