package observability_test

import (
	"testing"

	"github.com/aretw0/refgraph"
	"github.com/aretw0/refgraph/pkg/observability"
	"github.com/aretw0/refgraph/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewEventMetrics(reg)

	doc := refgraph.New()
	listener, err := doc.Watch(m.Observe)
	require.NoError(t, err)

	rename := func(name string) {
		require.NoError(t, doc.Transaction("Rename", func(rec ports.UndoRecorder) error {
			return doc.SetName(name)
		}))
	}
	rename("a")
	rename("b")

	counter, err := m.Counter("target_changed", "Document")
	require.NoError(t, err)
	assert.Equal(t, 2.0, testutil.ToFloat64(counter))

	require.NoError(t, listener.Close())
	rename("c")
	assert.Equal(t, 2.0, testutil.ToFloat64(counter), "closed listeners stop counting")
}
