// Package metrics records build and publish metrics for libbuilder executors.
//
// Executors take a Recorder field and fall back to NoopRecorder when it is nil:
//
//	exec := &build.Executor{Bundler: b, Recorder: metrics.NewPrometheusRecorder(reg)}
//
// A CLI process has no scrape endpoint; PrometheusRecorder.WriteTextfile dumps
// the registry in the Prometheus text format for a node_exporter textfile
// collector to pick up.
package metrics
