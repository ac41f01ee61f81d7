package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/houzhh15/audioscribe/cmd/server/internal/llm"
	"github.com/houzhh15/audioscribe/cmd/server/internal/metrics"
	"github.com/houzhh15/audioscribe/pkg/logger"
)

var (
	// ErrEmptyOutput is the cause when a stage answer is blank.
	ErrEmptyOutput = errors.New("model returned empty output")
	// ErrEditTooShort is the cause when the edited text lost too much content.
	ErrEditTooShort = errors.New("edited text is implausibly short")
	// ErrEmptyInput is the cause when there is no text left to work on.
	ErrEmptyInput = errors.New("no input text")
)

// Options configures a Pipeline.
type Options struct {
	TargetLanguage string
	// MinEditRatio is the minimum edited/input length ratio in runes.
	MinEditRatio float64
	// Timeout bounds each model call; <=0 disables the per-call deadline.
	Timeout time.Duration
	Logger  *slog.Logger
}

// Result collects the stage outcomes of one run.
type Result struct {
	Stages      []StageResult `json:"stages"`
	ActionItems []string      `json:"action_items"`
	// Text is the last successful stage output.
	Text string `json:"text"`
}

// Stage returns the outcome recorded for name.
func (r Result) Stage(name StageName) (StageResult, bool) {
	for _, s := range r.Stages {
		if s.Stage == name {
			return s, true
		}
	}
	return StageResult{}, false
}

// Pipeline is the enrichment state machine. It holds no per-run state and is
// safe for concurrent use.
type Pipeline struct {
	generator llm.Generator
	opts      Options
	logger    *slog.Logger
}

// NewPipeline creates a pipeline over generator.
func NewPipeline(generator llm.Generator, opts Options) *Pipeline {
	if opts.TargetLanguage == "" {
		opts.TargetLanguage = "pt"
	}
	if opts.MinEditRatio < 0 {
		opts.MinEditRatio = 0
	}
	return &Pipeline{generator: generator, opts: opts, logger: logger.OrDefault(opts.Logger)}
}

// TargetLanguage returns the configured output language.
func (p *Pipeline) TargetLanguage() string {
	return p.opts.TargetLanguage
}

// Run executes every stage in order. detected may be empty when detection
// failed; translation is then attempted.
func (p *Pipeline) Run(ctx context.Context, text, detected string) Result {
	res := Result{Stages: make([]StageResult, 0, len(Stages)), ActionItems: []string{}}
	current := text

	for _, stage := range Stages {
		var out StageResult
		switch stage {
		case StageTranslate:
			if detected == p.opts.TargetLanguage {
				out = Skipped(stage, current, "source language equals target "+p.opts.TargetLanguage)
			} else {
				out = p.call(ctx, stage, current, nil)
			}
		case StageEdit:
			out = p.call(ctx, stage, current, p.checkEdit)
		case StageSummarize:
			out = p.call(ctx, stage, current, nil)
		case StageExtractActionItems:
			out = p.call(ctx, stage, current, nil)
			if out.OK() {
				res.ActionItems = ParseActionItems(out.Text)
			}
		}

		p.record(out)
		res.Stages = append(res.Stages, out)
		if out.OK() && stage != StageExtractActionItems {
			current = out.Text
		}
	}

	res.Text = current
	return res
}

type checkFunc func(input, output string) error

// call runs one model request. Extract accepts an empty answer as "no items".
func (p *Pipeline) call(ctx context.Context, stage StageName, input string, check checkFunc) StageResult {
	if err := ctx.Err(); err != nil {
		return Failed(stage, err, 0)
	}
	if strings.TrimSpace(input) == "" {
		return Failed(stage, ErrEmptyInput, 0)
	}

	callCtx := ctx
	if p.opts.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, p.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	answer, err := p.generator.Generate(callCtx, input, SystemInstruction(stage, p.opts.TargetLanguage))
	elapsed := time.Since(start)
	if err != nil {
		return Failed(stage, err, elapsed)
	}

	answer = strings.TrimSpace(answer)
	if answer == "" && stage != StageExtractActionItems {
		return Failed(stage, ErrEmptyOutput, elapsed)
	}
	if check != nil {
		if err := check(input, answer); err != nil {
			return Failed(stage, err, elapsed)
		}
	}
	return Succeeded(stage, answer, elapsed)
}

func (p *Pipeline) checkEdit(input, output string) error {
	in, out := utf8.RuneCountInString(input), utf8.RuneCountInString(output)
	if float64(out) < p.opts.MinEditRatio*float64(in) {
		return fmt.Errorf("%w: %d of %d runes", ErrEditTooShort, out, in)
	}
	return nil
}

func (p *Pipeline) record(r StageResult) {
	metrics.RecordStageOutcome(string(r.Stage), string(r.Status))
	metrics.RecordDuration(string(r.Stage), r.Duration.Seconds())

	switch r.Status {
	case StatusFailed:
		logger.LogStageEvent(p.logger, string(r.Stage), "error", -1, r.Duration.Milliseconds(), "STAGE_FAILED")
		p.logger.Warn("enrichment stage failed, continuing", "stage", r.Stage, "error", r.Failure.Cause)
	case StatusSkipped:
		logger.LogStageEvent(p.logger, string(r.Stage), "skip", -1, 0, "")
	default:
		logger.LogStageEvent(p.logger, string(r.Stage), "success", -1, r.Duration.Milliseconds(), "")
	}
}
