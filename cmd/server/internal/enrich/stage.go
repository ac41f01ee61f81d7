// Package enrich runs the sequential text enrichment stages over a
// deduplicated transcript: translate, edit, summarize, extract action items.
// A failed stage never aborts the run; the next stage consumes the last
// successful output.
package enrich

import (
	"encoding/json"
	"fmt"
	"time"
)

// StageName identifies a pipeline stage.
type StageName string

const (
	StageDetectLanguage     StageName = "detect_language"
	StageTranslate          StageName = "translate"
	StageEdit               StageName = "edit"
	StageSummarize          StageName = "summarize"
	StageExtractActionItems StageName = "extract_action_items"
)

// Stages lists the enrichment stages in execution order.
var Stages = []StageName{StageTranslate, StageEdit, StageSummarize, StageExtractActionItems}

// Status is the outcome of one stage.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// StageFailure records why a stage produced no output.
type StageFailure struct {
	Stage StageName
	Cause error
}

func (f *StageFailure) Error() string {
	return fmt.Sprintf("stage %s failed: %v", f.Stage, f.Cause)
}

func (f *StageFailure) Unwrap() error {
	return f.Cause
}

// MarshalJSON renders the failure as {"stage": ..., "error": ...}.
func (f *StageFailure) MarshalJSON() ([]byte, error) {
	msg := ""
	if f.Cause != nil {
		msg = f.Cause.Error()
	}
	return json.Marshal(struct {
		Stage StageName `json:"stage"`
		Error string    `json:"error"`
	}{f.Stage, msg})
}

// StageResult is a tagged outcome: Text is set only for succeeded and skipped
// stages, Failure only for failed ones.
type StageResult struct {
	Stage    StageName     `json:"stage"`
	Status   Status        `json:"status"`
	Text     string        `json:"text,omitempty"`
	Reason   string        `json:"reason,omitempty"`
	Failure  *StageFailure `json:"failure,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// Succeeded builds a successful outcome.
func Succeeded(stage StageName, text string, d time.Duration) StageResult {
	return StageResult{Stage: stage, Status: StatusSucceeded, Text: text, Duration: d}
}

// Skipped builds a skipped outcome that passes text through unchanged.
func Skipped(stage StageName, text, reason string) StageResult {
	return StageResult{Stage: stage, Status: StatusSkipped, Text: text, Reason: reason}
}

// Failed builds a failed outcome.
func Failed(stage StageName, cause error, d time.Duration) StageResult {
	return StageResult{Stage: stage, Status: StatusFailed, Failure: &StageFailure{Stage: stage, Cause: cause}, Duration: d}
}

// OK reports whether the stage produced usable text.
func (r StageResult) OK() bool {
	return r.Status == StatusSucceeded || r.Status == StatusSkipped
}
