package metrics

import (
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registry = prometheus.NewRegistry()

	samplesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "prokill",
		Name:      "samples_total",
		Help:      "Process table samples taken, by result (ok or error).",
	}, []string{"result"})

	sampleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "prokill",
		Name:      "sample_duration_seconds",
		Help:      "Time spent enumerating the process table in seconds.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	})

	snapshotProcesses = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "prokill",
		Name:      "snapshot_processes",
		Help:      "Number of processes in the most recent snapshot.",
	})

	terminationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "prokill",
		Name:      "terminations_total",
		Help:      "Termination requests issued, by mode and outcome.",
	}, []string{"mode", "outcome"})

	buildInfo = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "prokill",
		Name:      "build_info",
		Help:      "Build metadata for the running prokill binary.",
	}, []string{"go_version", "vcs", "vcs_revision", "vcs_time", "vcs_modified"})

	buildInfoOnce sync.Once
)

func init() {
	registry.MustRegister(samplesTotal, sampleDuration, snapshotProcesses, terminationsTotal, buildInfo)
}

// Registry returns the Prometheus registry containing all prokill metrics.
func Registry() *prometheus.Registry {
	return registry
}

// ObserveSample records one sampling attempt. The process count is only
// updated for successful samples.
func ObserveSample(d time.Duration, processes int, err error) {
	if err != nil {
		samplesTotal.WithLabelValues("error").Inc()
		return
	}
	samplesTotal.WithLabelValues("ok").Inc()
	sampleDuration.Observe(d.Seconds())
	snapshotProcesses.Set(float64(processes))
}

// IncrementTermination counts a termination request.
func IncrementTermination(mode, outcome string) {
	if mode == "" {
		mode = "unknown"
	}
	if outcome == "" {
		outcome = "unknown"
	}
	terminationsTotal.WithLabelValues(mode, outcome).Inc()
}

// EmitBuildInfo publishes build metadata about the running binary.
func EmitBuildInfo() {
	buildInfoOnce.Do(func() {
		labels := prometheus.Labels{
			"go_version":   runtime.Version(),
			"vcs":          "",
			"vcs_revision": "",
			"vcs_time":     "",
			"vcs_modified": "",
		}
		if info, ok := debug.ReadBuildInfo(); ok {
			if info.GoVersion != "" {
				labels["go_version"] = info.GoVersion
			}
			for _, setting := range info.Settings {
				switch setting.Key {
				case "vcs":
					labels["vcs"] = setting.Value
				case "vcs.revision":
					labels["vcs_revision"] = setting.Value
				case "vcs.time":
					labels["vcs_time"] = setting.Value
				case "vcs.modified":
					labels["vcs_modified"] = setting.Value
				}
			}
		}
		buildInfo.With(labels).Set(1)
	})
}
