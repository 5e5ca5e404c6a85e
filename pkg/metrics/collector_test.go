package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorRollingMean(t *testing.T) {
	c := NewCollector([]string{"es"})

	c.RecordLatency(StageVAD, "", 10*time.Millisecond)
	c.RecordLatency(StageVAD, "", 30*time.Millisecond)

	snap := c.Snapshot()
	assert.InDelta(t, 20, snap.StageLatencyMs["vad"], 0.001)
}

func TestCollectorRollingWindowBound(t *testing.T) {
	c := NewCollector(nil)

	// 150 samples: only the last 100 survive in the mean.
	for i := 0; i < 50; i++ {
		c.RecordLatency(StageASR, "", 1000*time.Millisecond)
	}
	for i := 0; i < 100; i++ {
		c.RecordLatency(StageASR, "", 10*time.Millisecond)
	}

	snap := c.Snapshot()
	assert.InDelta(t, 10, snap.StageLatencyMs["asr"], 0.001)
}

func TestCollectorLanguageStats(t *testing.T) {
	c := NewCollector([]string{"es", "zh"})

	c.RecordSuccess("es")
	c.RecordSuccess("es")
	c.RecordError("es")
	c.RecordError("zh")

	es := c.LanguageStatsFor("es")
	assert.Equal(t, int64(2), es.SuccessCount)
	assert.Equal(t, int64(1), es.ErrorCount)
	assert.InDelta(t, 1.0/3.0, es.ErrorRate(), 0.001)
	assert.True(t, es.IsActive)
	assert.NotZero(t, es.LastSuccessMs)

	zh := c.LanguageStatsFor("zh")
	assert.InDelta(t, 1.0, zh.ErrorRate(), 0.001)

	c.SetLanguageActive("zh", false)
	assert.False(t, c.LanguageStatsFor("zh").IsActive)
}

func TestCollectorThroughputResetsPerInterval(t *testing.T) {
	c := NewCollector(nil)

	c.RecordSegment()
	c.RecordSegment()
	c.RecordTranslation()
	c.RecordSynthesis()

	snap := c.Snapshot()
	assert.Greater(t, snap.SegmentsPerSec, 0.0)
	assert.Greater(t, snap.TranslationsPerSec, 0.0)
	assert.Greater(t, snap.SynthesesPerSec, 0.0)

	// Counters reset: an immediate second snapshot reads zero throughput.
	snap = c.Snapshot()
	assert.Zero(t, snap.SegmentsPerSec)
	assert.Zero(t, snap.TranslationsPerSec)
	assert.Zero(t, snap.SynthesesPerSec)
}

func TestCollectorHistoryBounded(t *testing.T) {
	c := NewCollector(nil)
	for i := 0; i < historySize+20; i++ {
		c.Snapshot()
	}
	assert.Len(t, c.History(), historySize)
}

func TestCollectorBufferBytes(t *testing.T) {
	c := NewCollector(nil)
	c.SetAudioBufferBytes(4096)
	assert.Equal(t, int64(4096), c.Snapshot().AudioBufferBytes)
}

func TestThresholdEdgeTrigger(t *testing.T) {
	w := NewThresholdWatcher(ThresholdConfig{
		LatencyThresholdMs: 100,
		MemoryThresholdMB:  1e9, // never trips here
	})

	var alerts []Alert
	w.OnAlert(func(a Alert) { alerts = append(alerts, a) })
	// A panicking listener must not stop delivery.
	w.OnAlert(func(a Alert) { panic("listener bug") })

	healthy := Snapshot{StageLatencyMs: map[string]float64{"total": 50}}
	violating := Snapshot{StageLatencyMs: map[string]float64{"total": 500}}

	assert.Nil(t, w.Check(healthy))

	// Transition into violation: exactly one alert.
	alert := w.Check(violating)
	require.NotNil(t, alert)
	require.Len(t, alert.Violations, 1)
	assert.Equal(t, "latency", alert.Violations[0].Kind)
	assert.Equal(t, "total", alert.Violations[0].Stage)

	// Steady-state violation: no further alerts.
	assert.Nil(t, w.Check(violating))
	assert.Nil(t, w.Check(violating))

	// Recovery then violation re-triggers.
	assert.Nil(t, w.Check(healthy))
	assert.NotNil(t, w.Check(violating))

	assert.Len(t, alerts, 2)
}

func TestThresholdMemoryViolation(t *testing.T) {
	w := NewThresholdWatcher(ThresholdConfig{
		LatencyThresholdMs: 1e9,
		MemoryThresholdMB:  0.001,
	})

	c := NewCollector(nil)
	alert := w.Check(c.Snapshot())
	require.NotNil(t, alert, "any real process exceeds 0.001 MB")

	var hasMemory bool
	for _, v := range alert.Violations {
		if v.Kind == "memory" {
			hasMemory = true
			assert.Equal(t, 0.001, v.Threshold)
		}
	}
	assert.True(t, hasMemory, "violations must contain a memory entry")
}

func TestThresholdPerLanguageLatency(t *testing.T) {
	w := NewThresholdWatcher(ThresholdConfig{LatencyThresholdMs: 100, MemoryThresholdMB: 1e9})

	alert := w.Check(Snapshot{StageLatencyMs: map[string]float64{
		"translation:zh": 250,
		"translation:es": 50,
		"asr":            900, // global non-total stages do not trip alerts
	}})
	require.NotNil(t, alert)
	require.Len(t, alert.Violations, 1)
	assert.Equal(t, "translation", alert.Violations[0].Stage)
	assert.Equal(t, "zh", alert.Violations[0].Language)
}
