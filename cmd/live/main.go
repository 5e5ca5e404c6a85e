// live captures microphone audio and runs it through the translation
// pipeline, printing transcripts, translations and synthesis progress.
//
// Requires OPENAI_API_KEY (ASR + translation) and a running synthesis
// service. Stop with Ctrl-C; the pipeline is flushed before exit.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gen2brain/malgo"
	"github.com/joho/godotenv"

	"github.com/naturally-translate/voice-bridge/pkg/asr"
	"github.com/naturally-translate/voice-bridge/pkg/audio"
	"github.com/naturally-translate/voice-bridge/pkg/pipeline"
	"github.com/naturally-translate/voice-bridge/pkg/translation"
	"github.com/naturally-translate/voice-bridge/pkg/vad"
)

const captureRate = 16000

func main() {
	godotenv.Load()

	openaiKey := os.Getenv("OPENAI_API_KEY")
	asrModel, err := asr.NewWhisperModel(openaiKey, "")
	if err != nil {
		log.Fatalf("ASR backend: %v", err)
	}
	vadModel, err := vad.NewDefaultModel(os.Getenv("SILERO_VAD_MODEL"))
	if err != nil {
		log.Fatalf("VAD backend: %v", err)
	}

	cfg := pipeline.DefaultConfig()
	if url := os.Getenv("TTS_SERVER_URL"); url != "" {
		cfg.TTSServerURL = url
	}

	orch := pipeline.NewOrchestrator(cfg, pipeline.Dependencies{
		VADModel: vadModel,
		ASRModel: asrModel,
		NewTranslator: func(lang string) (translation.Translator, error) {
			return translation.NewOpenAITranslator(translation.OpenAIConfig{APIKey: openaiKey})
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := orch.Initialize(ctx); err != nil {
		log.Fatalf("pipeline initialization failed: %v", err)
	}
	defer orch.Shutdown(context.Background())

	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {})
	if err != nil {
		log.Fatalf("audio context: %v", err)
	}
	defer func() {
		_ = mctx.Uninit()
		mctx.Free()
	}()

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = captureRate
	deviceConfig.Alsa.NoMMap = 1

	// Capture frames land in a ring buffer; the processing loop drains it
	// in ~300ms pushes so the callback never blocks on the pipeline.
	ring := audio.NewRingBuffer(captureRate, 3000)
	chunks := make(chan struct{}, 1)
	onRecvFrames := func(pOutput, pInput []byte, framecount uint32) {
		ring.Write(audio.BytesToFloat32(pInput))
		select {
		case chunks <- struct{}{}:
		default:
		}
	}

	device, err := malgo.InitDevice(mctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onRecvFrames})
	if err != nil {
		log.Fatalf("capture device: %v", err)
	}
	if err := device.Start(); err != nil {
		log.Fatalf("capture start: %v", err)
	}
	defer device.Uninit()

	log.Printf("listening (languages %v), Ctrl-C to stop", cfg.TargetLanguages)
	minPush := captureRate * 300 / 1000

	for {
		select {
		case <-ctx.Done():
			flushEvents, err := orch.Flush(context.Background())
			if err == nil {
				for ev := range flushEvents {
					printEvent(ev)
				}
			}
			return
		case <-chunks:
			if ring.Size() < minPush {
				continue
			}
			events, err := orch.ProcessAudio(ctx, ring.Drain(), &pipeline.AudioMeta{
				SampleRate: captureRate,
				Channels:   1,
			})
			if err != nil {
				log.Printf("process: %v", err)
				continue
			}
			for ev := range events {
				printEvent(ev)
			}
		}
	}
}

func printEvent(ev pipeline.Event) {
	switch ev.Type {
	case pipeline.EventTranscription:
		if !ev.Transcription.Result.IsPartial {
			log.Printf("you said: %s", ev.Transcription.Result.Text)
		}
	case pipeline.EventTranslation:
		r := ev.Translation.Result
		if !r.IsPartial {
			log.Printf("[%s] %s", r.TargetLang, r.Text)
		}
	case pipeline.EventSynthesis:
		log.Printf("[%s] synthesized %.2fs of audio", ev.Synthesis.TargetLanguage, ev.Synthesis.DurationSec)
	case pipeline.EventError:
		log.Printf("error (%s/%s): %s", ev.Error.Stage, ev.Error.TargetLanguage, ev.Error.Message)
	}
}
