// Package dedupe removes adjacent repeated sentences from a raw transcript.
//
// Speech recognizers at temperature 0 tend to loop on silence or chunk
// boundaries and emit the same sentence several times in a row. Only
// consecutive repeats are collapsed; a sentence that recurs later in the
// text is legitimate content and is kept.
package dedupe

import (
	"strings"

	"golang.org/x/text/cases"
)

// Separator splits and joins transcript sentences.
const Separator = ". "

// Transcript is a sequence of sentences in which no two neighbours are
// case-insensitively equal.
type Transcript struct {
	Sentences []string `json:"sentences"`
}

// String joins the sentences with Separator.
func (t Transcript) String() string {
	return strings.Join(t.Sentences, Separator)
}

// Filter collapses adjacent duplicate sentences.
//
// NearDuplicateDistance < 0 restricts matching to case-insensitive equality.
// A value >= 0 also drops a sentence whose simhash fingerprint is within that
// Hamming distance of the previous kept sentence.
type Filter struct {
	NearDuplicateDistance int
}

// Dedupe applies the exact-match filter.
func Dedupe(text string) Transcript {
	return Filter{NearDuplicateDistance: -1}.Apply(text)
}

// Apply splits text on Separator, trims each fragment, drops empty ones and
// keeps a sentence only when it differs from the previous kept sentence.
func (f Filter) Apply(text string) Transcript {
	fold := cases.Fold()

	kept := make([]string, 0)
	var prevKey string
	var prevHash uint64
	for _, raw := range strings.Split(text, Separator) {
		sentence := strings.TrimSpace(raw)
		if sentence == "" {
			continue
		}

		key := fold.String(sentence)
		var hash uint64
		if f.NearDuplicateDistance >= 0 {
			hash = Fingerprint(key)
		}

		if len(kept) > 0 {
			if key == prevKey {
				continue
			}
			if f.NearDuplicateDistance >= 0 && HammingDistance(hash, prevHash) <= f.NearDuplicateDistance {
				continue
			}
		}

		kept = append(kept, sentence)
		prevKey, prevHash = key, hash
	}
	return Transcript{Sentences: kept}
}
