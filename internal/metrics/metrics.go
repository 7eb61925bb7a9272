// Package metrics exposes Prometheus metrics for the hue animation.
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/coreman2200/huestream/internal/color"
)

type Metrics struct {
	frames    prometheus.Counter
	rotations prometheus.Counter
	step      prometheus.Gauge
	channel   *prometheus.GaugeVec
	started   atomic.Bool
}

// New registers the animation metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		frames: f.NewCounter(prometheus.CounterOpts{
			Namespace: "huestream",
			Name:      "frames_total",
			Help:      "Frames written to the sink",
		}),
		rotations: f.NewCounter(prometheus.CounterOpts{
			Namespace: "huestream",
			Name:      "rotations_total",
			Help:      "Completed hue rotations",
		}),
		step: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "huestream",
			Name:      "hue_step",
			Help:      "Hue step of the last frame",
		}),
		channel: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "huestream",
			Name:      "channel_value",
			Help:      "Channel value of the last frame (0-255)",
		}, []string{"channel"}),
	}
}

// ObserveFrame counts a frame. A rotation completes whenever step 0 comes
// around again.
func (m *Metrics) ObserveFrame(step int, f color.Frame) {
	if step == 0 && m.started.Swap(true) {
		m.rotations.Inc()
	}
	m.frames.Inc()
	m.step.Set(float64(step))
	m.channel.WithLabelValues("r").Set(float64(f.R))
	m.channel.WithLabelValues("g").Set(float64(f.G))
	m.channel.WithLabelValues("b").Set(float64(f.B))
}
