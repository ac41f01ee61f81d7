package enrich

import (
	"regexp"
	"strings"
)

var (
	bulletPrefix   = regexp.MustCompile(`^(?:[-*•]|\d+[.)])\s+`)
	noneAnswer     = regexp.MustCompile(`(?i)^(?:none|no action items?|n/?a|nenhum[a]?|ninguno|aucun[e]?)\.?$`)
	checkboxPrefix = regexp.MustCompile(`^\[[ xX]?\]\s*`)
)

// ParseActionItems extracts list entries from a model answer. Lines starting
// with "-", "*", "•" or "N." / "N)" are items. If no line is marked, every
// non-empty line counts. A "none" style answer yields an empty list.
func ParseActionItems(answer string) []string {
	items := []string{}
	trimmed := strings.TrimSpace(answer)
	if trimmed == "" || noneAnswer.MatchString(trimmed) {
		return items
	}

	lines := strings.Split(trimmed, "\n")
	var marked, plain []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if loc := bulletPrefix.FindStringIndex(line); loc != nil {
			item := strings.TrimSpace(checkboxPrefix.ReplaceAllString(line[loc[1]:], ""))
			if item != "" {
				marked = append(marked, item)
			}
			continue
		}
		plain = append(plain, line)
	}

	if len(marked) > 0 {
		return append(items, marked...)
	}
	return append(items, plain...)
}
