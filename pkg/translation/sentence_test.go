package translation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "ascii terminators",
			text: "Hello there. How are you? Fine!",
			want: []string{"Hello there.", "How are you?", "Fine!"},
		},
		{
			name: "cjk terminators with whitespace",
			text: "你好。 很高兴见到你！ 再见？ 好",
			want: []string{"你好。", "很高兴见到你！", "再见？", "好"},
		},
		{
			name: "terminator without whitespace does not split",
			text: "pi is 3.14 not 3。15 okay",
			want: []string{"pi is 3.14 not 3。15 okay"},
		},
		{
			name: "single sentence",
			text: "just one thing",
			want: []string{"just one thing"},
		},
		{
			name: "trailing terminator keeps last sentence",
			text: "first one. second one.",
			want: []string{"first one.", "second one."},
		},
		{
			name: "empty pieces filtered",
			text: "a.   . b.",
			want: []string{"a.", ".", "b."},
		},
		{
			name: "empty input",
			text: "",
			want: nil,
		},
		{
			name: "whitespace only",
			text: "   ",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitSentences(tt.text))
		})
	}
}
