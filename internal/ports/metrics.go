package ports

import "time"

type MetricsPort interface {
	VersionQuery(kind string, err error)
	SolverRestart()
	SolveDuration(d time.Duration)
	Download(kind string, err error)
	IntegrityFailure(name string)
}

// NopMetrics discards every observation.
type NopMetrics struct{}

func (NopMetrics) VersionQuery(string, error)  {}
func (NopMetrics) SolverRestart()              {}
func (NopMetrics) SolveDuration(time.Duration) {}
func (NopMetrics) Download(string, error)      {}
func (NopMetrics) IntegrityFailure(string)     {}

var _ MetricsPort = NopMetrics{}
