package metrics

import "time"

// Outcome enumerates executor outcome labels.
type Outcome string

const (
	OutcomeSuccess       Outcome = "success"
	OutcomeFailed        Outcome = "failed"
	OutcomeConfigInvalid Outcome = "config_invalid"
)

// Recorder defines observability hooks for executor metrics.
type Recorder interface {
	ObserveBuildDuration(project string, d time.Duration)
	IncBuildOutcome(project string, outcome Outcome)
	IncBundlerPass(project string)
	IncPublishOutcome(project string, outcome Outcome)
	ObserveSubprocessDuration(command string, d time.Duration, success bool)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveBuildDuration(string, time.Duration)            {}
func (NoopRecorder) IncBuildOutcome(string, Outcome)                       {}
func (NoopRecorder) IncBundlerPass(string)                                 {}
func (NoopRecorder) IncPublishOutcome(string, Outcome)                     {}
func (NoopRecorder) ObserveSubprocessDuration(string, time.Duration, bool) {}
