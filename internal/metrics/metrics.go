package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "green_sentinel"

// Metrics groups the sentinel collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	// gatherer serves the collectors registered by New.
	gatherer prometheus.Gatherer

	framesCaptured   prometheus.Counter
	framesDropped    prometheus.Counter
	framesAnalyzed   *prometheus.CounterVec
	analysisDuration prometheus.Histogram
	alarmState       prometheus.Gauge
	triggers         prometheus.Counter
	silences         prometheus.Counter
	fallbacks        prometheus.Counter
	releaseErrors    *prometheus.CounterVec
	acquisitions     *prometheus.CounterVec
}

// New creates the collectors and registers them on a dedicated registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		gatherer: reg,
		framesCaptured: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_captured_total",
			Help:      "Frames received from the frame source.",
		}),
		framesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_dropped_total",
			Help:      "Frames overwritten by a newer one before analysis.",
		}),
		framesAnalyzed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_analyzed_total",
			Help:      "Frames analyzed, by detection result.",
		}, []string{"present"}),
		analysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "frame_analysis_duration_seconds",
			Help:      "Time spent probing one frame.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		alarmState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "alarm_triggering",
			Help:      "1 while the alarm is triggering, 0 while monitoring.",
		}),
		triggers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alarm_triggers_total",
			Help:      "Alarms raised.",
		}),
		silences: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alarm_silences_total",
			Help:      "Alarms silenced by a stop command.",
		}),
		fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alarm_sound_fallbacks_total",
			Help:      "Alarms that had to use the fallback ring path.",
		}),
		releaseErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "effect_release_errors_total",
			Help:      "Failures while releasing alarm devices.",
		}, []string{"device"}),
		acquisitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_acquisitions_total",
			Help:      "Frame source acquisition attempts, by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		m.framesCaptured,
		m.framesDropped,
		m.framesAnalyzed,
		m.analysisDuration,
		m.alarmState,
		m.triggers,
		m.silences,
		m.fallbacks,
		m.releaseErrors,
		m.acquisitions,
	)

	return m
}

// Handler serves the registered collectors in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}

	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Gatherer returns the registry backing m.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m == nil {
		return prometheus.DefaultGatherer
	}

	return m.gatherer
}

// FrameCaptured counts a frame handed over by the source.
func (m *Metrics) FrameCaptured() {
	if m == nil {
		return
	}

	m.framesCaptured.Inc()
}

// FrameDropped counts a frame replaced before it was analyzed.
func (m *Metrics) FrameDropped() {
	if m == nil {
		return
	}

	m.framesDropped.Inc()
}

// FrameAnalyzed records one detector pass.
func (m *Metrics) FrameAnalyzed(present bool, took time.Duration) {
	if m == nil {
		return
	}

	label := "false"
	if present {
		label = "true"
	}

	m.framesAnalyzed.WithLabelValues(label).Inc()
	m.analysisDuration.Observe(took.Seconds())
}

// AlarmTriggered records a raised alarm.
func (m *Metrics) AlarmTriggered() {
	if m == nil {
		return
	}

	m.triggers.Inc()
	m.alarmState.Set(1)
}

// AlarmSilenced records an alarm silenced by a stop command.
func (m *Metrics) AlarmSilenced() {
	if m == nil {
		return
	}

	m.silences.Inc()
}

// AlarmReleased records that the alarm devices were released.
func (m *Metrics) AlarmReleased() {
	if m == nil {
		return
	}

	m.alarmState.Set(0)
}

// SoundFallback records an alarm that fell back to the ring path.
func (m *Metrics) SoundFallback() {
	if m == nil {
		return
	}

	m.fallbacks.Inc()
}

// ReleaseFailed records a device that could not be released.
func (m *Metrics) ReleaseFailed(device string) {
	if m == nil {
		return
	}

	m.releaseErrors.WithLabelValues(device).Inc()
}

// SourceAcquired records a frame source acquisition attempt.
func (m *Metrics) SourceAcquired(err error) {
	if m == nil {
		return
	}

	result := "ok"
	if err != nil {
		result = "error"
	}

	m.acquisitions.WithLabelValues(result).Inc()
}
