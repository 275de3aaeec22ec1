package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Record(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveRun("check", nil, 3*time.Second)
	m.ObserveRun("check", errors.New("boom"), time.Second)
	m.AddPages(3)
	m.AddPostings("matched", 2)
	m.AddPostings("unmatched", 0)
	m.AddMessages("matched", 2)
	m.SetSeen(42)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("check", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("check", "error")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.PagesScrapedTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PostingsTotal.WithLabelValues("matched")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.PostingsTotal.WithLabelValues("unmatched")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.MessagesSentTotal.WithLabelValues("matched")))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.SeenSetSize))
	assert.Greater(t, testutil.ToFloat64(m.LastSuccess), 0.0)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRun("show", nil, time.Second)
		m.AddPages(1)
		m.AddPostings("seen", 1)
		m.AddMessages("summary", 1)
		m.SetSeen(1)
	})
}
