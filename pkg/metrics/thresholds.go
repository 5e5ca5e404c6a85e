package metrics

import (
	"log"
	"strings"
	"sync"
	"time"
)

// ThresholdConfig sets the alert limits.
type ThresholdConfig struct {
	LatencyThresholdMs float64 // default 4000
	MemoryThresholdMB  float64 // default 10000
}

// DefaultThresholdConfig returns the standard limits.
func DefaultThresholdConfig() ThresholdConfig {
	return ThresholdConfig{
		LatencyThresholdMs: 4000,
		MemoryThresholdMB:  10000,
	}
}

// Violation describes one exceeded threshold.
type Violation struct {
	Kind      string  `json:"kind"` // "latency" or "memory"
	Stage     string  `json:"stage,omitempty"`
	Language  string  `json:"language,omitempty"`
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
}

// Alert is delivered to listeners on a transition into violation. It
// carries the full snapshot and every current violation.
type Alert struct {
	TimestampMs int64       `json:"timestamp_ms"`
	Snapshot    Snapshot    `json:"snapshot"`
	Violations  []Violation `json:"violations"`
}

// AlertListener observes threshold alerts. Listener panics are swallowed.
type AlertListener func(alert Alert)

// ThresholdWatcher evaluates snapshots against the configured limits.
// Alerts are edge-triggered: a steady violation fires once; recovery
// re-arms the trigger.
type ThresholdWatcher struct {
	cfg ThresholdConfig

	mu          sync.Mutex
	listeners   []AlertListener
	inViolation bool
}

// NewThresholdWatcher creates a watcher with the given limits.
func NewThresholdWatcher(cfg ThresholdConfig) *ThresholdWatcher {
	if cfg.LatencyThresholdMs == 0 {
		cfg.LatencyThresholdMs = 4000
	}
	if cfg.MemoryThresholdMB == 0 {
		cfg.MemoryThresholdMB = 10000
	}
	return &ThresholdWatcher{cfg: cfg}
}

// OnAlert registers an alert listener.
func (w *ThresholdWatcher) OnAlert(l AlertListener) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listeners = append(w.listeners, l)
}

// Check evaluates one snapshot. On a transition into violation it returns
// the alert (also delivered to listeners); otherwise nil.
func (w *ThresholdWatcher) Check(snap Snapshot) *Alert {
	violations := w.evaluate(snap)

	w.mu.Lock()
	wasViolating := w.inViolation
	w.inViolation = len(violations) > 0
	listeners := make([]AlertListener, len(w.listeners))
	copy(listeners, w.listeners)
	w.mu.Unlock()

	if len(violations) == 0 || wasViolating {
		return nil
	}

	alert := &Alert{
		TimestampMs: time.Now().UnixMilli(),
		Snapshot:    snap,
		Violations:  violations,
	}
	for _, l := range listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("[Metrics] alert listener panicked: %v", r)
				}
			}()
			l(*alert)
		}()
	}
	return alert
}

// evaluate collects every current violation.
func (w *ThresholdWatcher) evaluate(snap Snapshot) []Violation {
	var violations []Violation

	for key, latency := range snap.StageLatencyMs {
		if latency <= w.cfg.LatencyThresholdMs {
			continue
		}
		// Only total and per-language stage latencies trip the alert; the
		// key encodes "stage" or "stage:language".
		stage, lang := key, ""
		if i := strings.IndexByte(key, ':'); i >= 0 {
			stage, lang = key[:i], key[i+1:]
		}
		if stage != string(StageTotal) && lang == "" {
			continue
		}
		violations = append(violations, Violation{
			Kind:      "latency",
			Stage:     stage,
			Language:  lang,
			Value:     latency,
			Threshold: w.cfg.LatencyThresholdMs,
		})
	}

	if snap.MemoryMB > w.cfg.MemoryThresholdMB {
		violations = append(violations, Violation{
			Kind:      "memory",
			Value:     snap.MemoryMB,
			Threshold: w.cfg.MemoryThresholdMB,
		})
	}
	return violations
}
