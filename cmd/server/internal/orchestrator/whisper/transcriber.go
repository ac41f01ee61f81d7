// Package whisper provides the speech recognition capability used by the
// transcription engine. A Recognizer turns one fixed-length PCM chunk into text.
package whisper

import (
	"context"
	"strings"
)

// TranscriptionSegment represents a single segment of transcribed audio with timing information.
type TranscriptionSegment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// TranscriptionResult is the JSON body returned by the go-whisper transcribe endpoint.
type TranscriptionResult struct {
	Segments []TranscriptionSegment `json:"segments"`
	Text     string                 `json:"text"`
	Language string                 `json:"language"`
	Duration float64                `json:"duration"`
}

// FullText returns Text, or the concatenated segment texts when the service
// only filled segments.
func (r *TranscriptionResult) FullText() string {
	if r == nil {
		return ""
	}
	if strings.TrimSpace(r.Text) != "" {
		return r.Text
	}
	parts := make([]string, 0, len(r.Segments))
	for _, seg := range r.Segments {
		if t := strings.TrimSpace(seg.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// DecodingOptions controls a single recognition call.
//
// Temperature 0 makes decoding deterministic; BeamWidth is the number of
// hypotheses kept per step. Language is an ISO 639-1 hint, empty means auto.
type DecodingOptions struct {
	Temperature float64
	BeamWidth   int
	Language    string
}

// Recognizer is the speech recognition capability.
type Recognizer interface {
	// DecodeChunk transcribes mono samples recorded at sampleRate. An empty
	// string with a nil error means the chunk held no speech.
	DecodeChunk(ctx context.Context, samples []float32, sampleRate int, opts DecodingOptions) (string, error)

	// HealthCheck verifies that the recognition service is operational.
	HealthCheck(ctx context.Context) (bool, error)

	// Name identifies the implementation in logs and metrics.
	Name() string
}
