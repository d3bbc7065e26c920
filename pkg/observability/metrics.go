package observability

import (
	"github.com/facebookincubator/go-belt/tool/experimental/metrics"
)

// NewMetrics returns the default Metrics handler for the fwscope
// family of tools.
func NewMetrics() metrics.Metrics {
	return metrics.Default()
}
