// Package orchestrator wires the audio pipeline end to end: decode, chunk,
// transcribe, deduplicate, detect language and enrich.
package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/houzhh15/audioscribe/cmd/server/internal/audio"
	"github.com/houzhh15/audioscribe/cmd/server/internal/dedupe"
	"github.com/houzhh15/audioscribe/cmd/server/internal/enrich"
	"github.com/houzhh15/audioscribe/cmd/server/internal/metrics"
	"github.com/houzhh15/audioscribe/cmd/server/internal/transcribe"
	"github.com/houzhh15/audioscribe/pkg/logger"
)

// Transcriber recognizes every chunk, returning segments in chunk order.
type Transcriber interface {
	TranscribeAll(ctx context.Context, chunks []audio.Chunk, languageHint string) ([]transcribe.Segment, error)
}

// LanguageDetector returns the ISO 639-1 code of the dominant language.
type LanguageDetector interface {
	Detect(ctx context.Context, text string) (string, error)
}

// Enricher runs the enrichment stages.
type Enricher interface {
	Run(ctx context.Context, text, detected string) enrich.Result
	TargetLanguage() string
}

// Options holds the run parameters.
type Options struct {
	SampleRate   int
	ChunkSeconds float64
	// LanguageHint is passed to every chunk; empty means auto.
	LanguageHint string
	Dedupe       dedupe.Filter
	Logger       *slog.Logger
}

// Orchestrator runs the pipeline. Its collaborators are shared read-only, so
// concurrent Run calls are independent.
type Orchestrator struct {
	decoder     audio.Decoder
	transcriber Transcriber
	detector    LanguageDetector
	enricher    Enricher
	opts        Options
	logger      *slog.Logger
}

// New creates an orchestrator.
func New(decoder audio.Decoder, transcriber Transcriber, detector LanguageDetector, enricher Enricher, opts Options) *Orchestrator {
	if opts.SampleRate <= 0 {
		opts.SampleRate = 16000
	}
	if opts.ChunkSeconds <= 0 {
		opts.ChunkSeconds = 30
	}
	return &Orchestrator{
		decoder:     decoder,
		transcriber: transcriber,
		detector:    detector,
		enricher:    enricher,
		opts:        opts,
		logger:      logger.OrDefault(opts.Logger),
	}
}

// Run processes the audio file at path. Decode, chunk and transcription
// failures abort the run with an *OrchError and a nil state. Language
// detection and enrichment failures are recorded in State.Stages.
func (o *Orchestrator) Run(ctx context.Context, path string) (*State, error) {
	state := &State{
		RunID:          uuid.NewString(),
		SourceFile:     path,
		TargetLanguage: o.enricher.TargetLanguage(),
		Stages:         make(map[enrich.StageName]enrich.StageResult),
		StartedAt:      time.Now(),
	}
	log := o.logger.With("run_id", state.RunID, "file", path)
	log.Info("pipeline run started")

	// 1. 解码
	start := time.Now()
	signal, err := o.decoder.Decode(ctx, path, o.opts.SampleRate)
	o.observe(log, "decode", start, err, DECODE_FAILED)
	if err != nil {
		return nil, o.fatal(log, NewDecodeError(err))
	}

	// 2. 切片
	chunks, err := audio.Split(signal, o.opts.ChunkSeconds)
	if err != nil {
		o.observe(log, "chunk", time.Now(), err, INVALID_INPUT)
		return nil, o.fatal(log, NewInvalidInputError(err))
	}
	state.Chunks = len(chunks)
	log.Info("audio chunked", "chunks", len(chunks), "duration", signal.Duration().String())

	// 3. 转写
	start = time.Now()
	segments, err := o.transcriber.TranscribeAll(ctx, chunks, o.opts.LanguageHint)
	o.observe(log, "transcribe", start, err, TRANSCRIPTION_FAILED)
	if err != nil {
		return nil, o.fatal(log, NewTranscriptionError(err))
	}
	state.RawTranscript = transcribe.Join(segments)

	// 4. 去重
	state.Transcript = o.opts.Dedupe.Apply(state.RawTranscript)
	text := state.Transcript.String()

	// 5. 语言检测（失败不终止，语言视为未知）
	start = time.Now()
	detected, err := o.detector.Detect(ctx, text)
	elapsed := time.Since(start)
	if err != nil {
		state.Stages[enrich.StageDetectLanguage] = enrich.Failed(enrich.StageDetectLanguage, err, elapsed)
		logger.LogStageEvent(log, string(enrich.StageDetectLanguage), "error", -1, elapsed.Milliseconds(), "DETECTION_FAILED")
		log.Warn("language detection failed, treating language as unknown", "error", err)
	} else {
		state.DetectedLanguage = detected
		state.Stages[enrich.StageDetectLanguage] = enrich.Succeeded(enrich.StageDetectLanguage, detected, elapsed)
		logger.LogStageEvent(log, string(enrich.StageDetectLanguage), "success", -1, elapsed.Milliseconds(), "")
	}
	metrics.RecordStageOutcome(string(enrich.StageDetectLanguage), string(state.Stages[enrich.StageDetectLanguage].Status))
	metrics.RecordDuration(string(enrich.StageDetectLanguage), elapsed.Seconds())

	// 6. 增强
	res := o.enricher.Run(ctx, text, state.DetectedLanguage)
	for _, r := range res.Stages {
		state.Stages[r.Stage] = r
	}
	state.ActionItems = res.ActionItems
	state.WorkingText = res.Text
	state.FinishedAt = time.Now()

	outcome := "complete"
	if state.Partial() {
		outcome = "partial"
	}
	metrics.RecordRun(outcome)
	log.Info("pipeline run finished",
		"outcome", outcome,
		"detected_language", state.DetectedLanguage,
		"action_items", len(state.ActionItems),
		"duration_ms", state.FinishedAt.Sub(state.StartedAt).Milliseconds(),
	)
	return state, nil
}

func (o *Orchestrator) observe(log *slog.Logger, stage string, start time.Time, err error, code ErrorCode) {
	elapsed := time.Since(start)
	metrics.RecordDuration(stage, elapsed.Seconds())
	if err != nil {
		logger.LogStageEvent(log, stage, "error", -1, elapsed.Milliseconds(), string(code))
		return
	}
	logger.LogStageEvent(log, stage, "success", -1, elapsed.Milliseconds(), "")
}

func (o *Orchestrator) fatal(log *slog.Logger, err *OrchError) error {
	metrics.RecordRun("fatal")
	metrics.RecordRunError(string(err.Code))

	attrs := []any{"code", err.Code, "error", err.Cause}
	var tErr *transcribe.Error
	if errors.As(err, &tErr) {
		attrs = append(attrs, "chunk_index", tErr.ChunkIndex)
	}
	log.Error("pipeline run aborted", attrs...)
	return err
}
