package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once               sync.Once
	registry           *prom.Registry
	buildDuration      *prom.HistogramVec
	buildOutcome       *prom.CounterVec
	bundlerPasses      *prom.CounterVec
	publishOutcome     *prom.CounterVec
	subprocessDuration *prom.HistogramVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{registry: reg}
	pr.once.Do(func() {
		pr.buildDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "libbuilder",
			Name:      "build_duration_seconds",
			Help:      "Duration of build executor runs",
			Buckets:   prom.DefBuckets,
		}, []string{"project"})
		pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "libbuilder",
			Name:      "build_outcomes_total",
			Help:      "Build executor outcomes",
		}, []string{"project", "outcome"})
		pr.bundlerPasses = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "libbuilder",
			Name:      "bundler_passes_total",
			Help:      "Successful bundler compilation passes (more than one in watch mode)",
		}, []string{"project"})
		pr.publishOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "libbuilder",
			Name:      "publish_outcomes_total",
			Help:      "Publish executor outcomes",
		}, []string{"project", "outcome"})
		pr.subprocessDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "libbuilder",
			Name:      "subprocess_duration_seconds",
			Help:      "Duration of package manager subprocesses",
			Buckets:   prom.ExponentialBuckets(0.25, 2, 10),
		}, []string{"command", "result"})
		reg.MustRegister(pr.buildDuration, pr.buildOutcome, pr.bundlerPasses, pr.publishOutcome, pr.subprocessDuration)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveBuildDuration(project string, d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.WithLabelValues(project).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(project string, outcome Outcome) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(project, string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncBundlerPass(project string) {
	if p == nil || p.bundlerPasses == nil {
		return
	}
	p.bundlerPasses.WithLabelValues(project).Inc()
}

func (p *PrometheusRecorder) IncPublishOutcome(project string, outcome Outcome) {
	if p == nil || p.publishOutcome == nil {
		return
	}
	p.publishOutcome.WithLabelValues(project, string(outcome)).Inc()
}

func (p *PrometheusRecorder) ObserveSubprocessDuration(command string, d time.Duration, success bool) {
	if p == nil || p.subprocessDuration == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.subprocessDuration.WithLabelValues(command, res).Observe(d.Seconds())
}

// WriteTextfile writes the registry in Prometheus text format to path.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if p == nil || path == "" {
		return nil
	}
	return prom.WriteToTextfile(path, p.registry)
}
