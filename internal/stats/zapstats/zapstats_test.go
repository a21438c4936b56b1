package zapstats

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/discochess/chessassist/internal/stats"
)

func TestCollector(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	c := New(zap.New(core))

	c.IncCounter(stats.MetricAnalyses, 2)
	c.SetGauge(stats.MetricCacheSize, 7)
	c.ObserveHistogram(stats.MetricAnalysisSeconds, 0.25)

	entries := logs.All()
	if len(entries) != 3 {
		t.Fatalf("got %d log entries, want 3", len(entries))
	}
	wantMsgs := []string{"counter", "gauge", "histogram"}
	for i, e := range entries {
		if e.Message != wantMsgs[i] {
			t.Errorf("entry %d message = %q, want %q", i, e.Message, wantMsgs[i])
		}
		if e.LoggerName != "stats" {
			t.Errorf("entry %d logger = %q, want stats", i, e.LoggerName)
		}
	}
	if got := entries[0].ContextMap()["metric"]; got != stats.MetricAnalyses {
		t.Errorf("metric field = %v", got)
	}
	if got := entries[1].ContextMap()["value"]; got != int64(7) {
		t.Errorf("gauge value = %v, want 7", got)
	}
}

func TestNew_NilLogger(t *testing.T) {
	c := New(nil)
	c.IncCounter("x", 1)
}
