package metrics

import (
	"testing"
	"time"
)

// The noop recorder must satisfy the interface and accept any input.
func TestNoopRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveBuildDuration("p", time.Second)
	r.IncBuildOutcome("p", OutcomeFailed)
	r.IncBundlerPass("p")
	r.IncPublishOutcome("p", OutcomeSuccess)
	r.ObserveSubprocessDuration("publish", time.Millisecond, false)
}
