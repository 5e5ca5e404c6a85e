// voice-bridge streams a WAV file (or a WebSocket session) through the
// realtime voice-to-voice translation pipeline and prints pipeline events
// as JSON lines.
//
// Usage:
//
//	voice-bridge -input speech.wav -languages es,zh,ko
//	voice-bridge -serve -addr :8080
//
// Configuration comes from flags and the environment (.env is loaded when
// present): OPENAI_API_KEY for ASR and the default translator backend,
// GEMINI_API_KEY with -translator gemini, TTS_SERVER_URL for the synthesis
// service.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/naturally-translate/voice-bridge/pkg/asr"
	"github.com/naturally-translate/voice-bridge/pkg/audio"
	"github.com/naturally-translate/voice-bridge/pkg/pipeline"
	"github.com/naturally-translate/voice-bridge/pkg/server"
	"github.com/naturally-translate/voice-bridge/pkg/trace"
	"github.com/naturally-translate/voice-bridge/pkg/translation"
)

func main() {
	if err := godotenv.Load(); err == nil {
		log.Println("loaded .env")
	}

	var (
		input      = flag.String("input", "", "input WAV file to stream")
		languages  = flag.String("languages", "es,zh,ko", "comma-separated target languages")
		translator = flag.String("translator", "openai", "translation backend: openai or gemini")
		ttsURL     = flag.String("tts-url", getEnv("TTS_SERVER_URL", "http://localhost:8000"), "synthesis service URL")
		chunkMs    = flag.Int("chunk-ms", 500, "streaming chunk size in milliseconds")
		prosody    = flag.Bool("prosody", true, "enable speaker prosody matching")
		serve      = flag.Bool("serve", false, "run the WebSocket streaming server instead of processing a file")
		addr       = flag.String("addr", ":8080", "server listen address (with -serve)")
	)
	flag.Parse()

	if err := trace.Initialize(context.Background(), trace.DefaultConfig()); err != nil {
		log.Printf("tracing disabled: %v", err)
	}
	defer trace.Shutdown(context.Background())

	cfg := pipeline.DefaultConfig()
	cfg.TargetLanguages = splitLanguages(*languages)
	cfg.EnableProsodyMatching = *prosody
	cfg.TTSServerURL = *ttsURL

	deps, err := buildDependencies(*translator)
	if err != nil {
		log.Fatalf("dependency setup failed: %v", err)
	}

	orch := pipeline.NewOrchestrator(cfg, deps)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := orch.Initialize(ctx); err != nil {
		log.Fatalf("pipeline initialization failed: %v", err)
	}
	defer orch.Shutdown(context.Background())

	if *serve {
		runServer(ctx, orch, *addr)
		return
	}
	if *input == "" {
		flag.Usage()
		log.Fatal("either -input or -serve is required")
	}
	if err := streamFile(ctx, orch, *input, *chunkMs); err != nil {
		log.Fatalf("processing failed: %v", err)
	}
}

// buildDependencies wires the model backends from the environment.
func buildDependencies(backend string) (pipeline.Dependencies, error) {
	openaiKey := os.Getenv("OPENAI_API_KEY")
	asrModel, err := asr.NewWhisperModel(openaiKey, "")
	if err != nil {
		return pipeline.Dependencies{}, fmt.Errorf("ASR backend: %w", err)
	}

	var newTranslator func(lang string) (translation.Translator, error)
	switch backend {
	case "openai":
		newTranslator = func(lang string) (translation.Translator, error) {
			return translation.NewOpenAITranslator(translation.OpenAIConfig{APIKey: openaiKey})
		}
	case "gemini":
		geminiKey := os.Getenv("GEMINI_API_KEY")
		newTranslator = func(lang string) (translation.Translator, error) {
			return translation.NewGeminiTranslator(translation.GeminiConfig{APIKey: geminiKey})
		}
	default:
		return pipeline.Dependencies{}, fmt.Errorf("unknown translator backend %q", backend)
	}

	vadModel, err := newVADModel()
	if err != nil {
		return pipeline.Dependencies{}, fmt.Errorf("VAD backend: %w", err)
	}

	return pipeline.Dependencies{
		VADModel:      vadModel,
		ASRModel:      asrModel,
		NewTranslator: newTranslator,
	}, nil
}

// streamFile chunks a WAV file through the pipeline in real-time-shaped
// pushes and prints every event as one JSON line.
func streamFile(ctx context.Context, orch *pipeline.Orchestrator, path string, chunkMs int) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	samples, sampleRate, err := audio.DecodeWAV(data)
	if err != nil {
		return err
	}
	log.Printf("streaming %s: %.2fs at %d Hz", path, float64(len(samples))/float64(sampleRate), sampleRate)

	enc := json.NewEncoder(os.Stdout)
	chunk := sampleRate * chunkMs / 1000
	for start := 0; start < len(samples); start += chunk {
		end := start + chunk
		if end > len(samples) {
			end = len(samples)
		}
		events, err := orch.ProcessAudio(ctx, samples[start:end], &pipeline.AudioMeta{
			SampleRate: sampleRate,
			Channels:   1,
		})
		if err != nil {
			return err
		}
		for ev := range events {
			enc.Encode(ev)
		}
	}

	events, err := orch.Flush(ctx)
	if err != nil {
		return err
	}
	for ev := range events {
		enc.Encode(ev)
	}
	return nil
}

// runServer blocks on the WebSocket server until the context ends.
func runServer(ctx context.Context, orch *pipeline.Orchestrator, addr string) {
	srv := server.New(server.Config{Addr: addr}, orch)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
	if err := srv.Start(); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

func splitLanguages(s string) []string {
	var out []string
	for _, lang := range strings.Split(s, ",") {
		if lang = strings.TrimSpace(lang); lang != "" {
			out = append(out, lang)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
