package langdetect

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClassifier struct {
	answer string
	err    error
	calls  int
}

func (s *stubClassifier) Classify(ctx context.Context, _ string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.answer, ctx.Err()
}

type stubGenerator struct {
	answer      string
	err         error
	prompt      string
	instruction string
}

func (s *stubGenerator) Generate(_ context.Context, prompt, systemInstruction string) (string, error) {
	s.prompt, s.instruction = prompt, systemInstruction
	return s.answer, s.err
}

func TestDetector_Detect(t *testing.T) {
	d := NewDetector(&stubClassifier{answer: "pt"}, time.Second)
	code, err := d.Detect(context.Background(), "Olá, tudo bem?")
	require.NoError(t, err)
	assert.Equal(t, "pt", code)
}

func TestDetector_RejectsMalformedCodes(t *testing.T) {
	for _, answer := range []string{"EN", "eng", "english", "e1", "", "e", "p t"} {
		t.Run(answer, func(t *testing.T) {
			d := NewDetector(&stubClassifier{answer: answer}, 0)
			code, err := d.Detect(context.Background(), "some text")
			assert.Empty(t, code)

			var dErr *DetectionError
			require.ErrorAs(t, err, &dErr)
			assert.Equal(t, CodeInvalidCode, dErr.Code)
		})
	}
}

func TestDetector_EmptyText(t *testing.T) {
	c := &stubClassifier{answer: "en"}
	_, err := NewDetector(c, 0).Detect(context.Background(), "  \n ")

	var dErr *DetectionError
	require.ErrorAs(t, err, &dErr)
	assert.Equal(t, CodeEmptyText, dErr.Code)
	assert.Zero(t, c.calls, "classifier is not consulted for empty text")
}

func TestDetector_ClassifierFailure(t *testing.T) {
	cause := errors.New("llm unavailable")
	_, err := NewDetector(&stubClassifier{err: cause}, 0).Detect(context.Background(), "hello")

	var dErr *DetectionError
	require.ErrorAs(t, err, &dErr)
	assert.Equal(t, CodeClassifier, dErr.Code)
	assert.ErrorIs(t, err, cause)
}

func TestValidCode(t *testing.T) {
	for _, code := range []string{"en", "pt", "de", "ja", "zh", "fr"} {
		assert.True(t, ValidCode(code), code)
	}
	for _, code := range []string{"EN", "En", "pt-BR", "por", " en", "e1"} {
		assert.False(t, ValidCode(code), code)
	}
}

func TestLLMClassifier_NormalizesAnswer(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"en", "en"},
		{"  pt\n", "pt"},
		{`"de"`, "de"},
		{"fr.", "fr"},
		{"'it'", "it"},
		{"EN", "EN"},
	}
	for _, tt := range tests {
		gen := &stubGenerator{answer: tt.raw}
		got, err := NewLLMClassifier(gen).Classify(context.Background(), "text")
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
		assert.Contains(t, gen.instruction, "ISO 639-1")
	}
}

func TestLLMClassifier_SamplesLongText(t *testing.T) {
	gen := &stubGenerator{answer: "en"}
	long := strings.Repeat("é", maxSampleRunes+500)

	_, err := NewLLMClassifier(gen).Classify(context.Background(), long)
	require.NoError(t, err)
	assert.Equal(t, maxSampleRunes, utf8.RuneCountInString(gen.prompt))
}

func TestLLMClassifier_PropagatesError(t *testing.T) {
	gen := &stubGenerator{err: errors.New("quota")}
	_, err := NewLLMClassifier(gen).Classify(context.Background(), "text")
	assert.EqualError(t, err, "quota")
}
