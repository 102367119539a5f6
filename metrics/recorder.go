// Package metrics records transform counts and latencies.
//
// Components receive a Recorder and default to NoopRecorder, so metrics cost
// nothing unless a real implementation such as PrometheusRecorder is injected.
package metrics

import "time"

// ResultLabel enumerates transform outcomes for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultCanceled ResultLabel = "canceled"
	ResultBypassed ResultLabel = "bypassed"
)

// Stage names used with ObserveStageDuration.
const (
	StageExtract = "extract"
	StageRender  = "render"
	StageEmit    = "emit"
)

// Recorder receives transform observations. Implementations must be safe for
// concurrent use.
type Recorder interface {
	ObserveTransformDuration(frame string, d time.Duration)
	ObserveStageDuration(stage string, d time.Duration)
	IncTransformResult(frame string, result ResultLabel)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObserveTransformDuration(string, time.Duration) {}
func (NoopRecorder) ObserveStageDuration(string, time.Duration)     {}
func (NoopRecorder) IncTransformResult(string, ResultLabel)         {}
