package langdetect

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/houzhh15/audioscribe/cmd/server/internal/llm"
)

// maxSampleRunes 只取文本开头用于分类
const maxSampleRunes = 2000

const classifyInstruction = "Identify the dominant language of the user's text. " +
	"Answer with the two-letter lowercase ISO 639-1 code only, for example: en"

// LLMClassifier asks a text generator for the language code.
type LLMClassifier struct {
	generator llm.Generator
}

// NewLLMClassifier creates a classifier over generator.
func NewLLMClassifier(generator llm.Generator) *LLMClassifier {
	return &LLMClassifier{generator: generator}
}

// Classify implements Classifier. Surrounding whitespace, quotes and a
// trailing period are stripped; case is kept so Detector can reject it.
func (c *LLMClassifier) Classify(ctx context.Context, text string) (string, error) {
	answer, err := c.generator.Generate(ctx, sample(text), classifyInstruction)
	if err != nil {
		return "", err
	}
	answer = strings.TrimSpace(answer)
	answer = strings.Trim(answer, "\"'`")
	answer = strings.TrimSuffix(answer, ".")
	return strings.TrimSpace(answer), nil
}

func sample(text string) string {
	if utf8.RuneCountInString(text) <= maxSampleRunes {
		return text
	}
	return string([]rune(text)[:maxSampleRunes])
}
