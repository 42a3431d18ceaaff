package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

// TestMetrics_NilIsSafe ensures a nil collector set can be used everywhere.
func TestMetrics_NilIsSafe(t *testing.T) {
	t.Parallel()

	var m *Metrics

	require.NotPanics(t, func() {
		m.FrameCaptured()
		m.FrameDropped()
		m.FrameAnalyzed(true, time.Millisecond)
		m.AlarmTriggered()
		m.AlarmSilenced()
		m.AlarmReleased()
		m.SoundFallback()
		m.ReleaseFailed("audio")
		m.SourceAcquired(nil)
	})
	require.NotNil(t, m.Gatherer())
	require.NotNil(t, m.Handler())
}

// TestMetrics_Counts checks that recorded events show up in the collectors.
func TestMetrics_Counts(t *testing.T) {
	t.Parallel()

	m := New()

	m.FrameCaptured()
	m.FrameCaptured()
	m.FrameDropped()
	m.FrameAnalyzed(false, time.Millisecond)
	m.AlarmTriggered()
	m.SoundFallback()
	m.ReleaseFailed("haptic")
	m.SourceAcquired(errors.New("busy"))

	require.InDelta(t, 2, testutil.ToFloat64(m.framesCaptured), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.framesDropped), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.framesAnalyzed.WithLabelValues("false")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.alarmState), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.fallbacks), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.releaseErrors.WithLabelValues("haptic")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.acquisitions.WithLabelValues("error")), 0)

	m.AlarmSilenced()
	m.AlarmReleased()
	require.InDelta(t, 1, testutil.ToFloat64(m.silences), 0)
	require.InDelta(t, 0, testutil.ToFloat64(m.alarmState), 0)
}

// TestRouter serves metrics and the health snapshot.
func TestRouter(t *testing.T) {
	t.Parallel()

	m := New()
	m.AlarmTriggered()

	router := NewRouter(m, func() any {
		return map[string]string{"state": "triggering"}
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "green_sentinel_alarm_triggers_total 1")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"state":"triggering"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/healthz", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
