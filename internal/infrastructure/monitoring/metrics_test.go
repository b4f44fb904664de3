package monitoring

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gaugeValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name {
			require.Len(t, mf.GetMetric(), 1)
			return mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func TestUptimeAdvancesBetweenScrapes(t *testing.T) {
	m := New()

	first := gaugeValue(t, m.Registry(), "popgate_uptime_seconds")
	time.Sleep(20 * time.Millisecond)
	second := gaugeValue(t, m.Registry(), "popgate_uptime_seconds")

	assert.Greater(t, second, first, "uptime must be read at scrape time")
}

func TestIndependentRegistries(t *testing.T) {
	a := New()
	b := New()

	a.Connections.Set(3)
	assert.Equal(t, float64(3), gaugeValue(t, a.Registry(), "popgate_relay_connections"))
	assert.Equal(t, float64(0), gaugeValue(t, b.Registry(), "popgate_relay_connections"))
}
