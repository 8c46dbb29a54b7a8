package metrics_test

import (
	"testing"

	"messenger/backend/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestDefault_IsSingleton(t *testing.T) {
	assert.Same(t, metrics.Default(), metrics.Default())
}

func TestNewWithRegistry_Isolated(t *testing.T) {
	m := metrics.NewWithRegistry(prometheus.NewRegistry())

	m.RelayEvents.WithLabelValues("call:offer").Inc()
	m.RelayEvents.WithLabelValues("call:offer").Inc()
	m.RelayConnections.Set(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RelayEvents.WithLabelValues("call:offer")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.RelayConnections))
}
