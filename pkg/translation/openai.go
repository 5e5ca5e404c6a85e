package translation

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// OpenAIConfig configures the OpenAI-backed translator.
type OpenAIConfig struct {
	APIKey string
	Model  string // default gpt-4o-mini
	// Languages maps user codes to backend codes; nil uses the default map.
	Languages *LanguageMap
}

// OpenAITranslator translates through the OpenAI chat-completion API.
// Safe for concurrent use after Initialize.
type OpenAITranslator struct {
	cfg    OpenAIConfig
	langs  *LanguageMap
	client *openai.Client
}

// NewOpenAITranslator creates an OpenAI-backed translator.
func NewOpenAITranslator(cfg OpenAIConfig) (*OpenAITranslator, error) {
	if cfg.APIKey == "" {
		return nil, NewError(KindNotInitialized, "OpenAI API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	langs := cfg.Languages
	if langs == nil {
		langs = DefaultLanguageMap()
	}
	return &OpenAITranslator{cfg: cfg, langs: langs}, nil
}

// Initialize implements Translator.
func (t *OpenAITranslator) Initialize(ctx context.Context) error {
	client := openai.NewClient(option.WithAPIKey(t.cfg.APIKey))
	t.client = &client
	return nil
}

// buildPrompt creates the translation system prompt for a language pair.
func buildPrompt(sourceLang, targetLang string) string {
	if sourceLang == "" || sourceLang == "auto" {
		return fmt.Sprintf("You are a professional translator. Translate the following text to %s. Only output the translation, no explanations.",
			LanguageName(targetLang))
	}
	return fmt.Sprintf("You are a professional translator. Translate the following text from %s to %s. Only output the translation, no explanations.",
		LanguageName(sourceLang), LanguageName(targetLang))
}

// Translate implements Translator.
func (t *OpenAITranslator) Translate(ctx context.Context, text string, opts Options) (*Result, error) {
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

	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(buildPrompt(src, tgt)),
			openai.UserMessage(text),
		},
		Model: shared.ChatModel(t.cfg.Model),
	}

	completion, err := t.client.Chat.Completions.New(ctx, params)
	if err != nil {
		if ctx.Err() != nil {
			return nil, WrapError(KindCancelled, "translation cancelled", ctx.Err())
		}
		return nil, WrapError(KindTranslationFailed, "OpenAI translation request failed", err).
			With("target_language", opts.TargetLang)
	}
	if len(completion.Choices) == 0 {
		return nil, NewError(KindTranslationFailed, "no response from OpenAI").
			With("target_language", opts.TargetLang)
	}

	return &Result{
		Text:       strings.TrimSpace(completion.Choices[0].Message.Content),
		SourceLang: opts.SourceLang,
		TargetLang: opts.TargetLang,
	}, nil
}

// TranslateStream implements Translator by sentence-streaming over
// Translate.
func (t *OpenAITranslator) TranslateStream(ctx context.Context, text string, opts Options) (<-chan *Result, <-chan error) {
	return streamBySentence(ctx, text, opts, t.Translate)
}

// Close implements Translator.
func (t *OpenAITranslator) Close() error {
	t.client = nil
	return nil
}

// Ensure OpenAITranslator implements Translator at compile time.
var _ Translator = (*OpenAITranslator)(nil)
