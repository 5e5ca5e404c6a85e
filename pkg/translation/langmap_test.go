package translation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLanguageMapResolve(t *testing.T) {
	m := DefaultLanguageMap()

	tests := []struct {
		code    string
		want    string
		wantErr bool
	}{
		{"en", "eng_Latn", false},
		{"es", "spa_Latn", false},
		{"zh", "zho_Hans", false},
		{"ko", "kor_Hang", false},
		{"spa_Latn", "spa_Latn", false}, // backend form accepted directly
		{"fr", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got, err := m.Resolve(tt.code)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsKind(err, KindUnsupportedLanguage))
				var te *Error
				require.ErrorAs(t, err, &te)
				assert.NotEmpty(t, te.Context["allowed"], "error must carry the allowed set")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLanguageMapAllowed(t *testing.T) {
	m := DefaultLanguageMap()
	assert.Equal(t, []string{"en", "es", "ko", "zh"}, m.Allowed())
}

func TestLanguageName(t *testing.T) {
	assert.Equal(t, "Spanish", LanguageName("es"))
	assert.Equal(t, "Chinese", LanguageName("zho_Hans"))
	assert.Equal(t, "xx", LanguageName("xx"))
}
