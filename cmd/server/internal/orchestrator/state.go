package orchestrator

import (
	"fmt"
	"strings"
	"time"

	"github.com/houzhh15/audioscribe/cmd/server/internal/dedupe"
	"github.com/houzhh15/audioscribe/cmd/server/internal/enrich"
)

// unavailable 用于渲染失败阶段
const unavailable = "_stage unavailable_"

// State is the record of one pipeline run. It is built by a single goroutine
// and not mutated after Run returns.
type State struct {
	RunID            string
	SourceFile       string
	Chunks           int
	RawTranscript    string
	Transcript       dedupe.Transcript
	DetectedLanguage string
	TargetLanguage   string
	Stages           map[enrich.StageName]enrich.StageResult
	ActionItems      []string
	// WorkingText is the last successful enrichment output.
	WorkingText string
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Output returns the text produced by stage when it succeeded.
func (s *State) Output(stage enrich.StageName) (string, bool) {
	r, ok := s.Stages[stage]
	if !ok || r.Status != enrich.StatusSucceeded {
		return "", false
	}
	return r.Text, true
}

// Partial reports whether any stage failed.
func (s *State) Partial() bool {
	for _, r := range s.Stages {
		if r.Status == enrich.StatusFailed {
			return true
		}
	}
	return false
}

// StageView is the per-stage status in the JSON result.
type StageView struct {
	Stage      enrich.StageName `json:"stage"`
	Status     enrich.Status    `json:"status"`
	Reason     string           `json:"reason,omitempty"`
	Error      string           `json:"error,omitempty"`
	DurationMs int64            `json:"duration_ms"`
}

// Result is the JSON view of a run.
type Result struct {
	RunID            string      `json:"run_id"`
	SourceFile       string      `json:"source_file"`
	Chunks           int         `json:"chunks"`
	RawTranscript    string      `json:"raw_transcript"`
	Transcript       string      `json:"transcript"`
	DetectedLanguage string      `json:"detected_language,omitempty"`
	TargetLanguage   string      `json:"target_language"`
	TranslatedText   string      `json:"translated_text,omitempty"`
	EditedText       string      `json:"edited_text,omitempty"`
	Summary          string      `json:"summary,omitempty"`
	ActionItems      []string    `json:"action_items"`
	Stages           []StageView `json:"stages"`
	Partial          bool        `json:"partial"`
	DurationMs       int64       `json:"duration_ms"`
}

var stageOrder = append([]enrich.StageName{enrich.StageDetectLanguage}, enrich.Stages...)

// Result builds the JSON view.
func (s *State) Result() Result {
	res := Result{
		RunID:            s.RunID,
		SourceFile:       s.SourceFile,
		Chunks:           s.Chunks,
		RawTranscript:    s.RawTranscript,
		Transcript:       s.Transcript.String(),
		DetectedLanguage: s.DetectedLanguage,
		TargetLanguage:   s.TargetLanguage,
		ActionItems:      s.ActionItems,
		Stages:           make([]StageView, 0, len(s.Stages)),
		Partial:          s.Partial(),
		DurationMs:       s.FinishedAt.Sub(s.StartedAt).Milliseconds(),
	}
	if res.ActionItems == nil {
		res.ActionItems = []string{}
	}
	res.TranslatedText, _ = s.Output(enrich.StageTranslate)
	res.EditedText, _ = s.Output(enrich.StageEdit)
	res.Summary, _ = s.Output(enrich.StageSummarize)

	for _, name := range stageOrder {
		r, ok := s.Stages[name]
		if !ok {
			continue
		}
		v := StageView{Stage: name, Status: r.Status, Reason: r.Reason, DurationMs: r.Duration.Milliseconds()}
		if r.Failure != nil && r.Failure.Cause != nil {
			v.Error = r.Failure.Cause.Error()
		}
		res.Stages = append(res.Stages, v)
	}
	return res
}

// Markdown renders the run as a document. Failed stages render as
// "stage unavailable" instead of being omitted.
func (s *State) Markdown() string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Transcription %s\n\n", s.RunID)
	if s.DetectedLanguage != "" {
		fmt.Fprintf(&b, "- Detected language: %s\n", enrich.LanguageName(s.DetectedLanguage))
	} else {
		b.WriteString("- Detected language: unknown\n")
	}
	fmt.Fprintf(&b, "- Target language: %s\n\n", enrich.LanguageName(s.TargetLanguage))

	b.WriteString("## Transcript\n\n")
	b.WriteString(orPlaceholder(s.Transcript.String(), "_no speech recognized_"))
	b.WriteString("\n\n")

	if r, ok := s.Stages[enrich.StageTranslate]; !ok || r.Status != enrich.StatusSkipped {
		s.section(&b, "Translation", enrich.StageTranslate)
	}
	s.section(&b, "Edited text", enrich.StageEdit)
	s.section(&b, "Summary", enrich.StageSummarize)

	b.WriteString("## Action items\n\n")
	switch {
	case s.Stages[enrich.StageExtractActionItems].Status != enrich.StatusSucceeded:
		b.WriteString(unavailable)
		b.WriteString("\n")
	case len(s.ActionItems) == 0:
		b.WriteString("_none_\n")
	default:
		for _, item := range s.ActionItems {
			fmt.Fprintf(&b, "- %s\n", item)
		}
	}
	return b.String()
}

func (s *State) section(b *strings.Builder, title string, stage enrich.StageName) {
	fmt.Fprintf(b, "## %s\n\n", title)
	if text, ok := s.Output(stage); ok {
		b.WriteString(text)
	} else {
		b.WriteString(unavailable)
	}
	b.WriteString("\n\n")
}

func orPlaceholder(s, placeholder string) string {
	if strings.TrimSpace(s) == "" {
		return placeholder
	}
	return s
}
