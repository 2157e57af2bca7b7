package measure

import "time"

// Measure collects one Metric per pipeline step.
type Measure interface {
	AddMetric(name string, concurrent int) Metric
	GetMetric(name string) Metric
	AllMetrics() map[string]Metric
}

// Metric collects the durations observed for one step.
type Metric interface {
	AddDuration(elapsed time.Duration)
	AddTransportDuration(inputStepName string, elapsed time.Duration)
	AVGDuration() time.Duration
	AVGTransportDuration() map[string]*TransportInfo
	SetTotalDuration(endDuration time.Duration)
	GetTotalDuration() time.Duration
	Count() int64
}
