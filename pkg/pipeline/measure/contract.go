package measure

import "time"

// Measure collects one Metric per stage.
type Measure interface {
	AddMetric(name string) Metric
	GetMetric(name string) Metric
	AllMetrics() map[string]Metric
}

// Metric holds the durations of a stage. Transport durations are keyed by the previous stage and
// measure how long the image took to go from that stage through this one.
type Metric interface {
	AddDuration(elapsed time.Duration)
	AddTileDuration(elapsed time.Duration)
	AddTransportDuration(inputStageName string, elapsed time.Duration)
	AVGDuration() time.Duration
	AVGTileDuration() time.Duration
	TileCount() int64
	SetTotalDuration(endDuration time.Duration)
	GetTotalDuration() time.Duration
	AllTransports() map[string]*TransportInfo
}
