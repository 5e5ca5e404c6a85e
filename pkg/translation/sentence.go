package translation

import (
	"strings"
	"unicode"
)

// sentenceEnders are the hard sentence terminators, ASCII and full-width.
var sentenceEnders = map[rune]bool{
	'.': true, '!': true, '?': true,
	'。': true, '！': true, '？': true,
}

// SplitSentences splits text at sentence terminators that are followed by
// whitespace. A terminator with no trailing whitespace does not split:
// "3.14 is pi。done" stays one sentence because neither terminator in it
// is followed by whitespace. Empty pieces are filtered.
func SplitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i, r := range runes {
		current.WriteRune(r)
		if !sentenceEnders[r] {
			continue
		}
		// Split only when the terminator is followed by whitespace; this
		// keeps decimals, abbreviations and inline CJK terminators intact.
		if i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}
