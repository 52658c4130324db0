package extension

import (
	gometrics "github.com/xraph/go-utils/metrics"

	"github.com/xraph/points/observability"
)

// metricsAdapter exposes Forge's metrics as an observability.MetricFactory.
type metricsAdapter struct {
	m gometrics.MetricFactory
}

var _ observability.MetricFactory = metricsAdapter{}

func (a metricsAdapter) Counter(name string) observability.Counter {
	return a.m.Counter(name)
}

func (a metricsAdapter) Histogram(name string) observability.Histogram {
	return a.m.Histogram(name)
}
