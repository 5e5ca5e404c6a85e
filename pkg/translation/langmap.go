package translation

import "sort"

// LanguageMap translates user-facing language codes into the codes the
// translation backend expects. The backend form is also accepted directly.
type LanguageMap struct {
	toBackend map[string]string
	backend   map[string]bool
}

// DefaultLanguageMap covers the pipeline's language set with NLLB-style
// backend codes.
func DefaultLanguageMap() *LanguageMap {
	return NewLanguageMap(map[string]string{
		"en": "eng_Latn",
		"es": "spa_Latn",
		"zh": "zho_Hans",
		"ko": "kor_Hang",
	})
}

// NewLanguageMap builds a map from user codes to backend codes.
func NewLanguageMap(mapping map[string]string) *LanguageMap {
	m := &LanguageMap{
		toBackend: make(map[string]string, len(mapping)),
		backend:   make(map[string]bool, len(mapping)),
	}
	for user, be := range mapping {
		m.toBackend[user] = be
		m.backend[be] = true
	}
	return m
}

// Resolve maps a user code to its backend code. Backend codes pass through
// unchanged; anything else fails with UnsupportedLanguage carrying the
// allowed set.
func (m *LanguageMap) Resolve(code string) (string, error) {
	if be, ok := m.toBackend[code]; ok {
		return be, nil
	}
	if m.backend[code] {
		return code, nil
	}
	return "", NewError(KindUnsupportedLanguage, "unsupported language code").
		With("language", code).
		With("allowed", m.Allowed())
}

// Allowed returns the accepted user codes, sorted.
func (m *LanguageMap) Allowed() []string {
	out := make([]string, 0, len(m.toBackend))
	for user := range m.toBackend {
		out = append(out, user)
	}
	sort.Strings(out)
	return out
}

// languageNames maps user codes to full names for prompt construction.
var languageNames = map[string]string{
	"en": "English",
	"es": "Spanish",
	"zh": "Chinese",
	"ko": "Korean",
	"ja": "Japanese",
	"fr": "French",
	"de": "German",

	"eng_Latn": "English",
	"spa_Latn": "Spanish",
	"zho_Hans": "Chinese",
	"kor_Hang": "Korean",
}

// LanguageName converts a language code to a full name, falling back to the
// code itself.
func LanguageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return code
}
