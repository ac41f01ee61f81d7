// Package langdetect identifies the dominant language of a transcript as an
// ISO 639-1 code.
package langdetect

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// Error codes carried by DetectionError.
const (
	CodeEmptyText   = "EMPTY_TEXT"
	CodeClassifier  = "CLASSIFIER_FAILED"
	CodeInvalidCode = "INVALID_CODE"
)

var codePattern = regexp.MustCompile(`^[a-z]{2}$`)

// DetectionError reports a classifier failure or an answer that is not a
// valid ISO 639-1 code.
type DetectionError struct {
	Code   string
	Answer string
	Cause  error
}

func (e *DetectionError) Error() string {
	switch {
	case e.Cause != nil:
		return fmt.Sprintf("language detection failed [%s]: %v", e.Code, e.Cause)
	case e.Answer != "":
		return fmt.Sprintf("language detection failed [%s]: %q is not an ISO 639-1 code", e.Code, e.Answer)
	default:
		return fmt.Sprintf("language detection failed [%s]", e.Code)
	}
}

func (e *DetectionError) Unwrap() error {
	return e.Cause
}

// Classifier proposes a language code for text. The answer is validated by
// Detector, so implementations may return raw model output.
type Classifier interface {
	Classify(ctx context.Context, text string) (string, error)
}

// Detector validates classifier answers.
type Detector struct {
	classifier Classifier
	timeout    time.Duration
}

// NewDetector creates a detector; timeout <= 0 disables the per-call deadline.
func NewDetector(classifier Classifier, timeout time.Duration) *Detector {
	return &Detector{classifier: classifier, timeout: timeout}
}

// Detect returns the two-letter lowercase code of the dominant language.
func (d *Detector) Detect(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", &DetectionError{Code: CodeEmptyText, Cause: errors.New("no text to classify")}
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	answer, err := d.classifier.Classify(ctx, text)
	if err != nil {
		return "", &DetectionError{Code: CodeClassifier, Cause: err}
	}
	if !ValidCode(answer) {
		return "", &DetectionError{Code: CodeInvalidCode, Answer: answer}
	}
	return answer, nil
}

// ValidCode reports whether code is exactly two lowercase ASCII letters naming
// a known ISO 639-1 language.
func ValidCode(code string) bool {
	if !codePattern.MatchString(code) {
		return false
	}
	base, err := language.ParseBase(code)
	if err != nil {
		return false
	}
	// ParseBase also accepts some 2-letter codes it maps elsewhere
	return base.String() == code
}
