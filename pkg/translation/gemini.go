package translation

import (
	"context"
	"strings"

	"google.golang.org/genai"
)

// GeminiConfig configures the Gemini-backed translator.
type GeminiConfig struct {
	APIKey string
	Model  string // default gemini-2.0-flash-exp
	// Languages maps user codes to backend codes; nil uses the default map.
	Languages *LanguageMap
}

// GeminiTranslator translates through the Gemini API.
type GeminiTranslator struct {
	cfg    GeminiConfig
	langs  *LanguageMap
	client *genai.Client
}

// NewGeminiTranslator creates a Gemini-backed translator.
func NewGeminiTranslator(cfg GeminiConfig) (*GeminiTranslator, error) {
	if cfg.APIKey == "" {
		return nil, NewError(KindNotInitialized, "Gemini API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash-exp"
	}
	langs := cfg.Languages
	if langs == nil {
		langs = DefaultLanguageMap()
	}
	return &GeminiTranslator{cfg: cfg, langs: langs}, nil
}

// Initialize implements Translator.
func (t *GeminiTranslator) Initialize(ctx context.Context) error {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  t.cfg.APIKey,
		Backend: genai.BackendGoogleAI,
	})
	if err != nil {
		return WrapError(KindNotInitialized, "failed to create Gemini client", err)
	}
	t.client = client
	return nil
}

// Translate implements Translator.
func (t *GeminiTranslator) Translate(ctx context.Context, text string, opts Options) (*Result, error) {
	if t.client == nil {
		return nil, NewError(KindNotInitialized, "translator is not initialized")
	}
	src, err := t.langs.Resolve(opts.SourceLang)
	if err != nil {
		return nil, err
	}
	tgt, err := t.langs.Resolve(opts.TargetLang)
	if err != nil {
		return nil, err
	}

	resp, err := t.client.Models.GenerateContent(
		ctx,
		t.cfg.Model,
		genai.Text(text),
		&genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{
				Parts: []*genai.Part{
					{Text: buildPrompt(src, tgt)},
				},
			},
		},
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, WrapError(KindCancelled, "translation cancelled", ctx.Err())
		}
		return nil, WrapError(KindTranslationFailed, "Gemini translation request failed", err).
			With("target_language", opts.TargetLang)
	}

	out := collectGeminiText(resp)
	if out == "" {
		return nil, NewError(KindTranslationFailed, "no response from Gemini").
			With("target_language", opts.TargetLang)
	}

	return &Result{
		Text:       strings.TrimSpace(out),
		SourceLang: opts.SourceLang,
		TargetLang: opts.TargetLang,
	}, nil
}

// TranslateStream implements Translator by sentence-streaming over
// Translate.
func (t *GeminiTranslator) TranslateStream(ctx context.Context, text string, opts Options) (<-chan *Result, <-chan error) {
	return streamBySentence(ctx, text, opts, t.Translate)
}

// Close implements Translator.
func (t *GeminiTranslator) Close() error {
	t.client = nil
	return nil
}

// collectGeminiText concatenates the text parts of all candidates.
func collectGeminiText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var builder strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part == nil || part.Text == "" {
				continue
			}
			builder.WriteString(part.Text)
		}
	}
	return builder.String()
}

// Ensure GeminiTranslator implements Translator at compile time.
var _ Translator = (*GeminiTranslator)(nil)
