package asr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestampedText(t *testing.T) {
	words := ParseTimestampedText("<|0.50|>hello<|1.00|>world<|1.40|>", 0)
	require.Len(t, words, 2)

	assert.Equal(t, "hello", words[0].Word)
	assert.Equal(t, 0.0, words[0].StartSec)
	assert.Equal(t, 0.5, words[0].EndSec)

	assert.Equal(t, "world", words[1].Word)
	assert.Equal(t, 0.5, words[1].StartSec)
	assert.Equal(t, 1.0, words[1].EndSec)
}

func TestParseTimestampedTextOffset(t *testing.T) {
	words := ParseTimestampedText("<|0.40|>hey", 2.0)
	require.Len(t, words, 1)
	assert.Equal(t, 2.0, words[0].StartSec)
	assert.Equal(t, 2.4, words[0].EndSec)
}

func TestParseTimestampedTextEndAfterStart(t *testing.T) {
	words := ParseTimestampedText("<|0.32|>one<|0.64|>two<|0.96|>three<|1.28|>", 0)
	require.Len(t, words, 3)
	for _, w := range words {
		assert.GreaterOrEqual(t, w.EndSec, w.StartSec, "word %q", w.Word)
	}
}

func TestParseTimestampedTextPlain(t *testing.T) {
	assert.Nil(t, ParseTimestampedText("no spans here", 0))
	assert.Nil(t, ParseTimestampedText("", 0))
}

func TestStripTimestamps(t *testing.T) {
	assert.Equal(t, "hello world", StripTimestamps("<|0.50|>hello<|1.00|>world<|1.40|>"))
	assert.Equal(t, "plain text", StripTimestamps("plain text"))
}
