package asr

import (
	"regexp"
	"strconv"
	"strings"
)

// timestampRe matches one <|t|> timestamp token.
var timestampRe = regexp.MustCompile(`<\|(\d+(?:\.\d+)?)\|>`)

// ParseTimestampedText parses a model output of <|t|>word spans into words.
// Each word takes the previous timestamp as its start and the current one
// as its end; offsetSec shifts both into stream-absolute time. Text without
// any timestamp tokens yields no words.
func ParseTimestampedText(text string, offsetSec float64) []Word {
	matches := timestampRe.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	var words []Word
	prev := 0.0
	for i, m := range matches {
		ts, err := strconv.ParseFloat(text[m[2]:m[3]], 64)
		if err != nil {
			continue
		}

		// The word text sits between this token and the next one (or the
		// end of the string).
		wordStart := m[1]
		wordEnd := len(text)
		if i+1 < len(matches) {
			wordEnd = matches[i+1][0]
		}
		word := strings.TrimSpace(text[wordStart:wordEnd])

		if word != "" {
			words = append(words, Word{
				Word:     word,
				StartSec: prev + offsetSec,
				EndSec:   ts + offsetSec,
				// confidence is not produced by span output
			})
		}
		prev = ts
	}
	return words
}

// StripTimestamps removes <|t|> tokens and normalizes whitespace, leaving
// the plain transcript.
func StripTimestamps(text string) string {
	plain := timestampRe.ReplaceAllString(text, " ")
	return strings.Join(strings.Fields(plain), " ")
}
