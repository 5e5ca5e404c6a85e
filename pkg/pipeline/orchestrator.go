package pipeline

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/naturally-translate/voice-bridge/pkg/asr"
	"github.com/naturally-translate/voice-bridge/pkg/audio"
	"github.com/naturally-translate/voice-bridge/pkg/metrics"
	vtrace "github.com/naturally-translate/voice-bridge/pkg/trace"
	"github.com/naturally-translate/voice-bridge/pkg/translation"
	"github.com/naturally-translate/voice-bridge/pkg/tts"
	"github.com/naturally-translate/voice-bridge/pkg/vad"
	"github.com/naturally-translate/voice-bridge/pkg/worker"
)

// State is the orchestrator lifecycle state.
type State int

const (
	StateCreated State = iota
	StateInitializing
	StateReady
	StateProcessing
	StateShutdown
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "Created"
	case StateInitializing:
		return "Initializing"
	case StateReady:
		return "Ready"
	case StateProcessing:
		return "Processing"
	case StateShutdown:
		return "Shutdown"
	default:
		return "Unknown"
	}
}

// Dependencies are the model backends injected into the orchestrator. The
// pipeline treats them as opaque: tests use mocks, production wires the
// ONNX VAD detector, the Whisper model and an API translator.
type Dependencies struct {
	VADModel vad.Model
	ASRModel asr.Model
	// NewTranslator builds one translator per target language; each worker
	// owns its instance exclusively.
	NewTranslator func(lang string) (translation.Translator, error)
	// TTSClient overrides the HTTP client constructed from the config
	// (used by tests to point at an httptest server).
	TTSClient *tts.Client
}

// AudioMeta declares the format of one ProcessAudio input chunk.
type AudioMeta struct {
	SampleRate int
	Channels   int
}

// Orchestrator routes audio chunks through VAD -> ASR -> N x (translation
// -> synthesis) and emits the pipeline event stream.
type Orchestrator struct {
	cfg  Config
	deps Dependencies

	mu    sync.Mutex
	state State

	pctx      *Context
	buffer    *audio.ChunkedBuffer
	vadEngine *vad.Engine
	asrEngine *asr.Engine
	ttsClient *tts.Client

	translationPool *worker.Pool
	ttsPool         *worker.Pool

	bus     *EventBus
	watcher *metrics.ThresholdWatcher

	metricsStop chan struct{}
	processStop context.CancelFunc
}

// NewOrchestrator creates an orchestrator in Created. Initialize builds
// the collaborators.
func NewOrchestrator(cfg Config, deps Dependencies) *Orchestrator {
	cfg.applyDefaults()
	return &Orchestrator{
		cfg:   cfg,
		deps:  deps,
		state: StateCreated,
		bus:   NewEventBus(),
	}
}

// State returns the orchestrator state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Bus exposes the event bus for subscribers (metrics, servers).
func (o *Orchestrator) Bus() Bus { return o.bus }

// Context returns the active pipeline context (nil before Initialize).
func (o *Orchestrator) Context() *Context {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pctx
}

// OnThresholdAlert registers a threshold alert listener.
func (o *Orchestrator) OnThresholdAlert(l metrics.AlertListener) {
	o.watcherOrInit().OnAlert(l)
}

func (o *Orchestrator) watcherOrInit() *metrics.ThresholdWatcher {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.watcher == nil {
		o.watcher = metrics.NewThresholdWatcher(metrics.ThresholdConfig{
			LatencyThresholdMs: o.cfg.LatencyThresholdMs,
			MemoryThresholdMB:  o.cfg.MemoryThresholdMB,
		})
	}
	return o.watcher
}

// Initialize constructs and initializes every collaborator. On failure the
// orchestrator returns to Created so initialization can be retried.
func (o *Orchestrator) Initialize(ctx context.Context) error {
	o.mu.Lock()
	if o.state == StateShutdown {
		o.mu.Unlock()
		return NewError(KindShutdown, "pipeline is shut down")
	}
	if o.state != StateCreated {
		o.mu.Unlock()
		return NewError(KindInvalidInput, "pipeline already initialized").
			With("state", o.state.String())
	}
	o.state = StateInitializing
	o.mu.Unlock()

	err := o.initialize(ctx)
	o.mu.Lock()
	defer o.mu.Unlock()
	if err != nil {
		o.state = StateCreated
		return WrapError(KindStageFailed, "pipeline initialization failed", err)
	}
	o.state = StateReady
	log.Printf("[Pipeline] ready (session %s, languages %v)", o.pctx.Session.ID, o.cfg.TargetLanguages)
	return nil
}

func (o *Orchestrator) initialize(ctx context.Context) error {
	ttsClient := o.deps.TTSClient
	if ttsClient == nil {
		ttsClient = tts.NewClient(tts.ClientConfig{
			ServerURL:     o.cfg.TTSServerURL,
			RetryAttempts: o.cfg.RetryAttempts,
			RetryDelay:    time.Duration(o.cfg.RetryDelayMs) * time.Millisecond,
		})
	}

	pctx := newContext(o.cfg, ttsClient)
	buffer, err := audio.NewChunkedBuffer(audio.ChunkedBufferConfig{SampleRate: o.cfg.SampleRate})
	if err != nil {
		return err
	}

	vadEngine := vad.NewEngine(o.deps.VADModel, o.cfg.VAD)
	asrEngine := asr.NewEngine(o.deps.ASRModel, asr.DefaultEngineConfig())

	translationPool := worker.NewPool("TranslationPool", o.cfg.TargetLanguages,
		func(lang string) (worker.Executor, error) {
			tr, err := o.deps.NewTranslator(lang)
			if err != nil {
				return nil, err
			}
			return &worker.TranslateExecutor{Translator: tr, TargetLang: lang}, nil
		},
		worker.PoolConfig{
			MaxQueueSize:       o.cfg.TranslationQueueSize,
			TaskTimeout:        time.Duration(o.cfg.TranslationTaskTimeoutMs) * time.Millisecond,
			MaxRestartAttempts: o.cfg.MaxRestartAttempts,
			RestartDelay:       time.Duration(o.cfg.TranslationRestartDelayMs) * time.Millisecond,
		},
		worker.TranslationErrors{})

	ttsPool := worker.NewPool("TTSPool", o.cfg.TargetLanguages,
		func(lang string) (worker.Executor, error) {
			return &worker.SynthesizeExecutor{Client: ttsClient, Language: lang}, nil
		},
		worker.PoolConfig{
			MaxQueueSize:       o.cfg.TTSQueueSize,
			TaskTimeout:        time.Duration(o.cfg.TTSTaskTimeoutMs) * time.Millisecond,
			MaxRestartAttempts: o.cfg.MaxRestartAttempts,
			RestartDelay:       time.Duration(o.cfg.TTSRestartDelayMs) * time.Millisecond,
		},
		worker.TTSErrors{})

	// Initialize both pools in parallel.
	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, p := range []*worker.Pool{translationPool, ttsPool} {
		wg.Add(1)
		go func(p *worker.Pool) {
			defer wg.Done()
			if err := p.Initialize(ctx); err != nil {
				errs <- err
			}
		}(p)
	}
	wg.Wait()
	close(errs)
	if err := <-errs; err != nil {
		translationPool.Shutdown(ctx)
		ttsPool.Shutdown(ctx)
		return err
	}

	if err := pctx.Session.Start(); err != nil {
		return err
	}

	o.mu.Lock()
	o.pctx = pctx
	o.buffer = buffer
	o.vadEngine = vadEngine
	o.asrEngine = asrEngine
	o.ttsClient = ttsClient
	o.translationPool = translationPool
	o.ttsPool = ttsPool
	o.mu.Unlock()

	o.watcherOrInit()
	o.startMetricsTick()
	return nil
}

// startMetricsTick arms the periodic metrics snapshot; a non-positive
// interval disables it.
func (o *Orchestrator) startMetricsTick() {
	if o.cfg.MetricsIntervalMs <= 0 {
		return
	}
	stop := make(chan struct{})
	o.mu.Lock()
	o.metricsStop = stop
	o.mu.Unlock()

	interval := time.Duration(o.cfg.MetricsIntervalMs) * time.Millisecond
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				o.emitMetricsSnapshot()
			}
		}
	}()
}

// emitMetricsSnapshot takes a snapshot, runs threshold checks, and
// publishes a metrics event to the bus.
func (o *Orchestrator) emitMetricsSnapshot() *Event {
	o.mu.Lock()
	pctx := o.pctx
	o.mu.Unlock()
	if pctx == nil {
		return nil
	}

	snap := pctx.Metrics.Snapshot()
	o.watcherOrInit().Check(snap)

	ev := newEvent(EventMetrics, pctx.Session.ID)
	ev.Metrics = &snap
	o.bus.Publish(ev)
	return &ev
}

// emitProsodyIfChanged yields a prosody event on the hot-path sequence when
// the extractor has moved since the last one.
func (o *Orchestrator) emitProsodyIfChanged(events chan<- Event, pctx *Context) {
	if pctx.Prosody == nil {
		return
	}
	st := pctx.Prosody.State()
	if st == pctx.prosodyState {
		return
	}
	pctx.prosodyState = st

	ev := newEvent(EventProsody, pctx.Session.ID)
	ev.Prosody = &ProsodyPayload{
		State:               st.String(),
		AccumulatedDuration: pctx.Prosody.AccumulatedDuration(),
		HasEmbedding:        pctx.Prosody.GetEmbeddingSync() != nil,
	}
	o.emit(events, ev)
}

// ProcessAudio is the hot path: one input chunk in, an asynchronous event
// sequence out. The returned channel closes when every stage triggered by
// this chunk has settled.
func (o *Orchestrator) ProcessAudio(ctx context.Context, samples []float32, meta *AudioMeta) (<-chan Event, error) {
	if len(samples) == 0 {
		return nil, NewError(KindInvalidInput, "no audio samples provided")
	}
	m := AudioMeta{SampleRate: o.cfg.SampleRate, Channels: 1}
	if meta != nil {
		m = *meta
	}
	if m.SampleRate <= 0 || m.Channels <= 0 {
		return nil, NewError(KindInvalidInput, "invalid audio metadata").
			With("sample_rate", m.SampleRate).
			With("channels", m.Channels)
	}

	o.mu.Lock()
	switch o.state {
	case StateReady:
	case StateShutdown:
		o.mu.Unlock()
		return nil, NewError(KindShutdown, "pipeline is shut down")
	default:
		o.mu.Unlock()
		return nil, NewError(KindNotInitialized, "pipeline is not ready").
			With("state", o.state.String())
	}
	o.state = StateProcessing
	procCtx, cancel := context.WithCancel(ctx)
	o.processStop = cancel
	pctx := o.pctx
	o.mu.Unlock()

	events := make(chan Event, 64)
	go func() {
		defer close(events)
		defer func() {
			cancel()
			o.mu.Lock()
			if o.state == StateProcessing {
				o.state = StateReady
			}
			o.processStop = nil
			o.mu.Unlock()
		}()
		o.processChunk(procCtx, pctx, samples, m, events)
	}()
	return events, nil
}

// processChunk runs the synchronous stages on the caller task and fans out
// per-language work.
func (o *Orchestrator) processChunk(ctx context.Context, pctx *Context, samples []float32, meta AudioMeta, events chan<- Event) {
	ctx, span := vtrace.InstrumentChunk(ctx, pctx.Session.ID, meta.SampleRate, meta.Channels, len(samples))
	defer span.End()

	// Buffer accumulation keeps indexing aligned with VAD's absolute
	// timing; the input rate is only adopted while the buffer is empty.
	if meta.SampleRate != o.buffer.SampleRate() {
		if err := o.buffer.SetSampleRate(meta.SampleRate); err != nil {
			o.emitError(events, pctx, "audio", "", err, false)
			return
		}
	}
	mono, err := audio.MixdownMono(samples, meta.Channels)
	if err != nil {
		o.emitError(events, pctx, "audio", "", err, false)
		return
	}
	o.buffer.Append(mono)
	pctx.Metrics.SetAudioBufferBytes(o.buffer.TotalSamples() * 4)

	vadStart := time.Now()
	vadEvents, err := o.vadEngine.Push(samples, meta.SampleRate, meta.Channels)
	pctx.Metrics.RecordLatency(metrics.StageVAD, "", time.Since(vadStart))
	if err != nil {
		// A VAD failure skips downstream stages; the pipeline stays Ready.
		o.emitError(events, pctx, "vad", "", err, false)
		return
	}

	for _, ve := range vadEvents {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if ve.IsPartial {
			ev := newEvent(EventVAD, pctx.Session.ID)
			ev.VAD = &VADPayload{Event: ve}
			o.emit(events, ev)
			continue
		}
		o.processSegment(ctx, pctx, ve, events)
	}
}

// processSegment handles one finalized VAD segment: extraction, prosody,
// transcription, fan-out, eviction.
func (o *Orchestrator) processSegment(ctx context.Context, pctx *Context, ve vad.Event, events chan<- Event) {
	segmentStart := time.Now()
	segID := uuid.NewString()

	// Segment audio always comes from the buffer: the segment may have
	// begun chunks ago, so slicing the current chunk would truncate it.
	segAudio := o.buffer.ExtractRange(ve.Segment.StartSec, ve.Segment.EndSec)

	if pctx.Prosody != nil && len(segAudio) > 0 {
		// Extraction is session-scoped: it must survive the end of this
		// chunk's processing context.
		pctx.Prosody.AddAudio(context.Background(), segAudio)
	}
	o.emitProsodyIfChanged(events, pctx)

	ev := newEvent(EventVAD, pctx.Session.ID)
	ev.SegmentID = segID
	ev.VAD = &VADPayload{Event: ve, Audio: segAudio, AudioLength: len(segAudio)}
	o.emit(events, ev)

	pctx.AddSegment(&SegmentMetadata{
		ID:        segID,
		Segment:   ve.Segment,
		Audio:     segAudio,
		CreatedAt: time.Now(),
	})
	pctx.Metrics.RecordSegment()

	if len(segAudio) == 0 {
		log.Printf("[Pipeline] segment %s audio already evicted, skipping transcription", segID)
		return
	}

	finalText := o.transcribeSegment(ctx, pctx, segID, segAudio, ve.Segment.StartSec, events)
	if strings.TrimSpace(finalText) != "" {
		o.fanOut(ctx, pctx, segID, finalText, events)
	}

	pctx.Metrics.RecordLatency(metrics.StageTotal, "", time.Since(segmentStart))
	o.buffer.EvictBefore(ve.Segment.EndSec)
	pctx.Metrics.SetAudioBufferBytes(o.buffer.TotalSamples() * 4)
}

// transcribeSegment drives ASR over one segment, emitting partial and
// final transcription events. Returns the final text ("" on failure).
func (o *Orchestrator) transcribeSegment(ctx context.Context, pctx *Context, segID string, segAudio []float32, startSec float64, events chan<- Event) string {
	ctx, span := vtrace.InstrumentStage(ctx, "asr", "", segID)
	defer span.End()

	asrStart := time.Now()
	transcriptionID := uuid.NewString()
	pctx.LinkTranscription(transcriptionID, segID)

	results, errs := o.asrEngine.TranscribeStream(ctx, asr.TranscribeRequest{
		Samples:       segAudio,
		SampleRate:    o.buffer.SampleRate(),
		Channels:      1,
		TimeOffsetSec: startSec,
		Options:       asr.TranscribeOptions{Language: pctx.Config.SourceLanguage},
	})

	finalText := ""
	for results != nil || errs != nil {
		select {
		case r, ok := <-results:
			if !ok {
				results = nil
				continue
			}
			ev := newEvent(EventTranscription, pctx.Session.ID)
			ev.SegmentID = segID
			ev.TranscriptionID = transcriptionID
			ev.Transcription = &TranscriptionPayload{Result: *r}
			o.emit(events, ev)
			if !r.IsPartial {
				finalText = r.Text
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err != nil {
				// An ASR failure skips translation and synthesis for this
				// segment; the pipeline stays Ready.
				o.emitError(events, pctx, "asr", "", err, false)
				pctx.Metrics.RecordLatency(metrics.StageASR, "", time.Since(asrStart))
				return ""
			}
		case <-ctx.Done():
			return ""
		}
	}
	pctx.Metrics.RecordLatency(metrics.StageASR, "", time.Since(asrStart))
	return finalText
}

// fanOut dispatches translation then synthesis for every active language.
// Results interleave in completion order through one shared channel; a
// failing language reports an error event without blocking the others.
func (o *Orchestrator) fanOut(ctx context.Context, pctx *Context, segID, text string, events chan<- Event) {
	fanout := make(chan Event, len(o.cfg.TargetLanguages)*4)
	var wg sync.WaitGroup

	for _, lang := range o.cfg.TargetLanguages {
		wg.Add(1)
		go func(lang string) {
			defer wg.Done()
			o.processLanguage(ctx, pctx, segID, text, lang, fanout)
		}(lang)
	}
	go func() {
		wg.Wait()
		close(fanout)
	}()

	for ev := range fanout {
		o.emit(events, ev)
	}
}

// processLanguage runs translation then synthesis for one language,
// feeding completion-ordered events into the fan-out channel.
func (o *Orchestrator) processLanguage(ctx context.Context, pctx *Context, segID, text, lang string, fanout chan<- Event) {
	ctx, span := vtrace.InstrumentStage(ctx, "language", lang, segID)
	defer span.End()

	translationID := uuid.NewString()

	transStart := time.Now()
	future, err := o.translationPool.Submit(ctx, lang, worker.TranslateRequest{
		Text:       text,
		SourceLang: pctx.Config.SourceLanguage,
	})
	var result worker.Result
	if err != nil {
		result = worker.Result{Err: err}
	} else {
		result = <-future
	}
	pctx.Metrics.RecordLatency(metrics.StageTranslation, lang, time.Since(transStart))

	if result.Err != nil {
		vtrace.RecordError(span, result.Err)
		pctx.Metrics.RecordError(lang)
		fanout <- o.languageErrorEvent(pctx, segID, "translation", lang, result.Err)
		return
	}

	translated, ok := result.Value.(*translation.Result)
	if !ok || translated == nil {
		pctx.Metrics.RecordError(lang)
		fanout <- o.languageErrorEvent(pctx, segID, "translation", lang,
			NewError(KindLanguageProcessing, "translator returned no result"))
		return
	}
	pctx.Metrics.RecordTranslation()

	ev := newEvent(EventTranslation, pctx.Session.ID)
	ev.SegmentID = segID
	ev.TranslationID = translationID
	ev.Translation = &TranslationPayload{Result: *translated}
	fanout <- ev

	// Prosody injection: a locked embedding rides along with a neutral
	// fallback; otherwise the request goes out plain.
	var embedding *tts.SpeakerEmbedding
	if pctx.Prosody != nil {
		embedding = pctx.Prosody.GetEmbeddingSync()
	}

	synthStart := time.Now()
	synthReq := worker.SynthesizeRequest{Text: translated.Text}
	if embedding != nil {
		synthReq.Embedding = embedding
		synthReq.FallbackToNeutral = true
	}
	future, err = o.ttsPool.Submit(ctx, lang, synthReq)
	if err != nil {
		result = worker.Result{Err: err}
	} else {
		result = <-future
	}
	pctx.Metrics.RecordLatency(metrics.StageSynthesis, lang, time.Since(synthStart))

	if result.Err != nil {
		pctx.Metrics.RecordError(lang)
		fanout <- o.languageErrorEvent(pctx, segID, "synthesis", lang, result.Err)
		return
	}
	synthesized, ok := result.Value.(*tts.SynthesisResult)
	if !ok || synthesized == nil {
		pctx.Metrics.RecordError(lang)
		fanout <- o.languageErrorEvent(pctx, segID, "synthesis", lang,
			NewError(KindLanguageProcessing, "synthesizer returned no result"))
		return
	}

	pctx.Metrics.RecordSynthesis()
	pctx.Metrics.RecordSuccess(lang)

	sev := newEvent(EventSynthesis, pctx.Session.ID)
	sev.SegmentID = segID
	sev.TranslationID = translationID
	sev.Synthesis = &SynthesisPayload{
		TargetLanguage: lang,
		Audio:          synthesized.Audio,
		AudioLength:    len(synthesized.Audio),
		SampleRate:     synthesized.SampleRate,
		DurationSec:    synthesized.DurationSec,
	}
	fanout <- sev
}

// languageErrorEvent builds the recoverable per-language error event.
func (o *Orchestrator) languageErrorEvent(pctx *Context, segID, stage, lang string, err error) Event {
	log.Printf("[Pipeline] %s failed for %s: %v", stage, lang, err)
	ev := newEvent(EventError, pctx.Session.ID)
	ev.SegmentID = segID
	ev.Error = &ErrorPayload{
		Stage:          stage,
		TargetLanguage: lang,
		Code:           errorCode(err),
		Message:        err.Error(),
		Recoverable:    true,
	}
	return ev
}

// emitError emits a stage error event (non-language-scoped).
func (o *Orchestrator) emitError(events chan<- Event, pctx *Context, stage, lang string, err error, recoverable bool) {
	log.Printf("[Pipeline] %s stage error: %v", stage, err)
	ev := newEvent(EventError, pctx.Session.ID)
	ev.Error = &ErrorPayload{
		Stage:          stage,
		TargetLanguage: lang,
		Code:           errorCode(err),
		Message:        err.Error(),
		Recoverable:    recoverable,
	}
	o.emit(events, ev)
}

// emit delivers an event to the caller's sequence and mirrors it on the
// bus.
func (o *Orchestrator) emit(events chan<- Event, ev Event) {
	events <- ev
	o.bus.Publish(ev)
}

// Flush closes any in-progress VAD segment, forces a prosody extraction,
// and emits a final metrics snapshot.
func (o *Orchestrator) Flush(ctx context.Context) (<-chan Event, error) {
	o.mu.Lock()
	if o.state != StateReady {
		state := o.state
		o.mu.Unlock()
		if state == StateShutdown {
			return nil, NewError(KindShutdown, "pipeline is shut down")
		}
		return nil, NewError(KindNotInitialized, "pipeline is not ready").
			With("state", state.String())
	}
	pctx := o.pctx
	o.mu.Unlock()

	events := make(chan Event, 16)
	go func() {
		defer close(events)

		final, err := o.vadEngine.Flush()
		if err != nil {
			o.emitError(events, pctx, "vad", "", err, false)
		} else if final != nil {
			segID := uuid.NewString()
			segAudio := o.buffer.ExtractRange(final.Segment.StartSec, final.Segment.EndSec)
			ev := newEvent(EventVAD, pctx.Session.ID)
			ev.SegmentID = segID
			ev.VAD = &VADPayload{Event: *final, Audio: segAudio, AudioLength: len(segAudio)}
			o.emit(events, ev)
			pctx.AddSegment(&SegmentMetadata{
				ID:        segID,
				Segment:   final.Segment,
				Audio:     segAudio,
				CreatedAt: time.Now(),
			})
		}

		if pctx.Prosody != nil {
			if _, err := pctx.Prosody.ExtractNow(ctx); err != nil {
				log.Printf("[Pipeline] flush prosody extraction: %v", err)
			}
			st := pctx.Prosody.State()
			pctx.prosodyState = st
			ev := newEvent(EventProsody, pctx.Session.ID)
			ev.Prosody = &ProsodyPayload{
				State:               st.String(),
				AccumulatedDuration: pctx.Prosody.AccumulatedDuration(),
				HasEmbedding:        pctx.Prosody.GetEmbeddingSync() != nil,
			}
			o.emit(events, ev)
		}

		if mev := o.emitMetricsSnapshot(); mev != nil {
			events <- *mev
		}
	}()
	return events, nil
}

// Reset clears stream state and starts a fresh session. Collaborator
// instances are kept.
func (o *Orchestrator) Reset() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateReady {
		return NewError(KindNotInitialized, "pipeline is not ready").
			With("state", o.state.String())
	}

	o.vadEngine.Reset()
	o.buffer.Reset()
	if o.pctx.Prosody != nil {
		o.pctx.Prosody.Reset()
	}
	o.pctx.Session.Complete()

	pctx := newContext(o.cfg, o.ttsClient)
	if err := pctx.Session.Start(); err != nil {
		return err
	}
	o.pctx = pctx
	log.Printf("[Pipeline] reset (new session %s)", pctx.Session.ID)
	return nil
}

// Shutdown stops the metrics tick, aborts in-flight processing, shuts the
// pools down in parallel, and completes the session.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.mu.Lock()
	if o.state == StateShutdown {
		o.mu.Unlock()
		return nil
	}
	if o.state == StateCreated || o.state == StateInitializing {
		o.state = StateShutdown
		o.mu.Unlock()
		return nil
	}
	if o.metricsStop != nil {
		close(o.metricsStop)
		o.metricsStop = nil
	}
	if o.processStop != nil {
		o.processStop()
	}
	o.state = StateShutdown
	pctx := o.pctx
	translationPool, ttsPool := o.translationPool, o.ttsPool
	asrEngine := o.asrEngine
	o.mu.Unlock()

	var wg sync.WaitGroup
	for _, p := range []*worker.Pool{translationPool, ttsPool} {
		if p == nil {
			continue
		}
		wg.Add(1)
		go func(p *worker.Pool) {
			defer wg.Done()
			p.Shutdown(ctx)
		}(p)
	}
	wg.Wait()

	if asrEngine != nil {
		asrEngine.Close()
	}
	if o.deps.VADModel != nil {
		o.deps.VADModel.Close()
	}
	if pctx != nil {
		pctx.Session.Complete()
	}
	log.Printf("[Pipeline] shut down")
	return nil
}
