package metric

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockStage simulates a pipeline stage that registers its own metrics
type mockStage struct {
	name    string
	metrics struct {
		clipsLoaded prometheus.Counter
		batchDepth  prometheus.Gauge
	}
}

func newMockStage(name string) *mockStage {
	return &mockStage{name: name}
}

// RegisterMetrics registers stage-specific metrics
func (m *mockStage) RegisterMetrics(registrar Registrar) error {
	m.metrics.clipsLoaded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "seeder",
		Subsystem: "mock_stage",
		Name:      "clips_loaded_total",
		Help:      "Total number of clips loaded",
	})
	if err := registrar.Register(m.name, "clips_loaded_total", m.metrics.clipsLoaded); err != nil {
		return err
	}

	m.metrics.batchDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "seeder",
		Subsystem: "mock_stage",
		Name:      "batch_depth",
		Help:      "Rows buffered awaiting flush",
	})
	return registrar.Register(m.name, "batch_depth", m.metrics.batchDepth)
}

// TestStageMetricsIntegration verifies a stage can register and expose
// metrics alongside the core set
func TestStageMetricsIntegration(t *testing.T) {
	registry := NewRegistry()
	stage := newMockStage("mock-stage")

	require.NoError(t, stage.RegisterMetrics(registry))

	stage.metrics.clipsLoaded.Inc()
	stage.metrics.batchDepth.Set(42)
	registry.CoreMetrics().RecordRead("raw")

	names := gatheredNames(t, registry)
	assert.True(t, names["seeder_mock_stage_clips_loaded_total"])
	assert.True(t, names["seeder_mock_stage_batch_depth"])
	assert.True(t, names["seeder_source_records_read_total"])

	// Re-registration under the same component and name fails.
	err := registry.Register("mock-stage", "batch_depth", stage.metrics.batchDepth)
	assert.Error(t, err)

	// A second registry is fully independent.
	other := NewRegistry()
	otherStage := newMockStage("mock-stage")
	require.NoError(t, otherStage.RegisterMetrics(other))
}
