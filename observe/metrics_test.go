package observe

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestSink() (*Sink, *sdkmetric.ManualReader) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	return NewSink(mp.Meter("test")), reader
}

// TestSink_IncrementCounter verifies a named counter is created and incremented.
func TestSink_IncrementCounter(t *testing.T) {
	sink, reader := newTestSink()

	labels := map[string]string{"dependency": "payments", "outcome": "success"}
	sink.Increment(context.Background(), "dep.call.outcome", labels)
	sink.Increment(context.Background(), "dep.call.outcome", labels)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}

	found := findMetric(rm, "dep.call.outcome")
	if found == nil {
		t.Fatal("dep.call.outcome metric not found")
	}

	sum, ok := found.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected Sum[int64], got %T", found.Data)
	}
	if len(sum.DataPoints) == 0 {
		t.Fatal("no data points")
	}
	if sum.DataPoints[0].Value != 2 {
		t.Errorf("expected count 2, got %d", sum.DataPoints[0].Value)
	}
}

// TestSink_ObserveHistogram verifies a named histogram records values.
func TestSink_ObserveHistogram(t *testing.T) {
	sink, reader := newTestSink()

	sink.Observe(context.Background(), "dep.call.duration_ms", 50, map[string]string{"dependency": "payments"})

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}

	found := findMetric(rm, "dep.call.duration_ms")
	if found == nil {
		t.Fatal("dep.call.duration_ms metric not found")
	}

	hist, ok := found.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("expected Histogram[float64], got %T", found.Data)
	}
	if len(hist.DataPoints) == 0 {
		t.Fatal("no data points")
	}
	if hist.DataPoints[0].Sum != 50 {
		t.Errorf("expected sum 50, got %f", hist.DataPoints[0].Sum)
	}
}

// TestSink_LabelsApplied verifies labels are converted to attributes.
func TestSink_LabelsApplied(t *testing.T) {
	sink, reader := newTestSink()

	sink.Increment(context.Background(), "dep.call.outcome", map[string]string{
		"dependency": "inventory",
		"outcome":    "failure",
	})

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}

	found := findMetric(rm, "dep.call.outcome")
	if found == nil {
		t.Fatal("dep.call.outcome metric not found")
	}

	sum, ok := found.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected Sum[int64], got %T", found.Data)
	}
	if len(sum.DataPoints) == 0 {
		t.Fatal("no data points")
	}

	attrs := sum.DataPoints[0].Attributes
	var foundDep, foundOutcome bool
	for iter := attrs.Iter(); iter.Next(); {
		kv := iter.Attribute()
		switch string(kv.Key) {
		case "dependency":
			foundDep = true
			if kv.Value.AsString() != "inventory" {
				t.Errorf("expected dependency='inventory', got %q", kv.Value.AsString())
			}
		case "outcome":
			foundOutcome = true
			if kv.Value.AsString() != "failure" {
				t.Errorf("expected outcome='failure', got %q", kv.Value.AsString())
			}
		}
	}

	if !foundDep {
		t.Error("dependency attribute not found")
	}
	if !foundOutcome {
		t.Error("outcome attribute not found")
	}
}

// TestSink_RecordCallOutcomes verifies the standard series distinguish success and failure.
func TestSink_RecordCallOutcomes(t *testing.T) {
	sink, reader := newTestSink()

	meta := DepMeta{Name: "payments"}
	sink.RecordCall(context.Background(), meta, 10*time.Millisecond, nil)
	sink.RecordCall(context.Background(), meta, 10*time.Millisecond, errors.New("boom"))

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}

	found := findMetric(rm, "dep.call.outcome")
	if found == nil {
		t.Fatal("dep.call.outcome metric not found")
	}

	sum, ok := found.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected Sum[int64], got %T", found.Data)
	}
	// One data point per outcome label
	if len(sum.DataPoints) != 2 {
		t.Errorf("expected 2 data points, got %d", len(sum.DataPoints))
	}

	if findMetric(rm, "dep.call.duration_ms") == nil {
		t.Error("dep.call.duration_ms metric not found")
	}
}

// TestSink_ConcurrentRecording verifies thread safety of lazy instrument creation.
func TestSink_ConcurrentRecording(t *testing.T) {
	sink, reader := newTestSink()

	const numGoroutines = 100
	labels := map[string]string{"dependency": "concurrent"}

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			sink.Increment(context.Background(), "dep.call.outcome", labels)
		}()
	}

	wg.Wait()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}

	found := findMetric(rm, "dep.call.outcome")
	if found == nil {
		t.Fatal("dep.call.outcome metric not found")
	}

	sum, ok := found.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected Sum[int64], got %T", found.Data)
	}
	if len(sum.DataPoints) == 0 {
		t.Fatal("no data points")
	}
	if sum.DataPoints[0].Value != numGoroutines {
		t.Errorf("expected count %d, got %d", numGoroutines, sum.DataPoints[0].Value)
	}
}

// findMetric searches for a metric by name in ResourceMetrics.
func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}
