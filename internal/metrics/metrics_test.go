package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)
	assert.Same(t, reg, m.Registry())

	// Registering twice on the same registry fails
	_, err = New(reg)
	assert.Error(t, err)
}

func TestObserveLoad(t *testing.T) {
	m, err := New(nil)
	require.NoError(t, err)

	m.ObserveLoad(OutcomeLoaded, 250*time.Millisecond)
	m.ObserveLoad(OutcomeLoaded, time.Second)
	m.ObserveLoad(OutcomeFailed, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Loads.WithLabelValues(OutcomeLoaded)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Loads.WithLabelValues(OutcomeFailed)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Loads.WithLabelValues(OutcomeSkipped)))
}

func TestObserveParse(t *testing.T) {
	m, err := New(nil)
	require.NoError(t, err)

	m.ObserveParse(
		map[string]int{"entity": 2, "row": 10},
		[]string{"SAMPLE", "SAMPLE"},
		[]string{"missing_obligation"},
		1,
	)

	assert.Equal(t, 10.0, testutil.ToFloat64(m.Lines.WithLabelValues("row")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Entities.WithLabelValues("SAMPLE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Warnings.WithLabelValues("missing_obligation")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TableErrors))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveLoad(OutcomeLoaded, time.Second)
		m.ObserveParse(map[string]int{"row": 1}, nil, nil, 0)
	})
}

func TestHandler(t *testing.T) {
	m, err := New(nil)
	require.NoError(t, err)
	m.ObserveLoad(OutcomeSkipped, 0)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `geosoft_loads_total{outcome="skipped"} 1`))
}
