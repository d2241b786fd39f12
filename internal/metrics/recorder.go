package metrics

import "time"

// Outcome labels the result of a single document generation.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeConfig   Outcome = "config_error"
	OutcomeRender   Outcome = "render_error"
	OutcomeIO       Outcome = "io_error"
	OutcomeCanceled Outcome = "canceled"
)

// Recorder defines observability hooks for generation and notification metrics.
type Recorder interface {
	ObserveGeneration(language string, d time.Duration, outcome Outcome)
	IncBroadcast()
	SetClients(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveGeneration(string, time.Duration, Outcome) {}
func (NoopRecorder) IncBroadcast()                                    {}
func (NoopRecorder) SetClients(int)                                   {}
