package performance

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerRecordsCompletedMarkers(t *testing.T) {
	tracker := NewTracker(nil)

	ok := tracker.StartOperation("harness:import", "5")
	ok.Complete()
	ok.Complete()

	failed := tracker.StartOperation("harness:import", "6")
	failed.SetError(errors.New("boom"))
	failed.Complete()

	summaries := tracker.Summaries()
	require.Contains(t, summaries, "harness:import")
	assert.Equal(t, 2, summaries["harness:import"].Count)
	assert.Equal(t, 1, summaries["harness:import"].Failures)
}

func TestTrackerRaisesRenderAlert(t *testing.T) {
	tracker := NewTracker(nil)
	tracker.SetThresholds(&AlertThresholds{
		SlowResponseThreshold:     time.Hour,
		CriticalResponseThreshold: time.Hour,
		RenderThreshold:           0,
	})

	marker := tracker.StartOperation("render:wireviz", "1")
	time.Sleep(time.Millisecond)
	marker.Complete()

	alerts := tracker.Alerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertWarning, alerts[0].Severity)
	assert.Equal(t, "render:wireviz", alerts[0].Operation)
}

func TestTrackerRetentionLimit(t *testing.T) {
	tracker := NewTracker(&TrackerConfig{MaxMarkers: 2, MaxAlerts: 2})
	for i := 0; i < 5; i++ {
		tracker.StartOperation("op", "").Complete()
	}
	assert.Equal(t, 2, tracker.Summaries()["op"].Count)
}

func TestMarkerCacheRatio(t *testing.T) {
	m := &Marker{}
	assert.Equal(t, 0.0, m.GetCacheHitRatio())
	m.AddCacheHit()
	m.AddCacheMiss()
	assert.Equal(t, 0.5, m.GetCacheHitRatio())
}
