package enrich

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// LanguageName returns the English name for an ISO 639-1 code, or the code
// itself when it is unknown.
func LanguageName(code string) string {
	base, err := language.ParseBase(code)
	if err != nil {
		return code
	}
	if name := display.English.Languages().Name(base); name != "" {
		return name
	}
	return code
}

// SystemInstruction returns the fixed instruction sent with each stage. Only
// translation changes the language; later stages keep the language of their
// input, which is untranslated text when translation failed.
func SystemInstruction(stage StageName, targetLanguage string) string {
	switch stage {
	case StageTranslate:
		return fmt.Sprintf("You are a professional translator. Translate the user's text into %s. "+
			"Preserve meaning, names and numbers. Reply with the translation only.", LanguageName(targetLanguage))
	case StageEdit:
		return "You are a copy editor. Rewrite the user's text for readability: fix punctuation, " +
			"capitalization, grammar and paragraphing, remove filler words and false starts. " +
			"Keep the text's language and do not translate it. Do not summarize, add or drop information. " +
			"Reply with the edited text only."
	case StageSummarize:
		return "Summarize the user's text in a few concise paragraphs, in the same language as the text. " +
			"Keep decisions, owners and dates. Reply with the summary only."
	case StageExtractActionItems:
		return "List the action items in the user's text, in the same language as the text, one per line, " +
			"each starting with \"- \". Include the owner and due date when stated. " +
			"If there are none, reply with exactly: none"
	default:
		return ""
	}
}
