// Package zapstats reports metrics as zap debug entries.
package zapstats

import (
	"go.uber.org/zap"

	"github.com/discochess/chessassist/internal/stats"
)

var _ stats.Collector = (*Collector)(nil)

// Collector logs each metric update at debug level.
type Collector struct {
	logger *zap.Logger
}

// New creates a collector writing to logger. A nil logger discards output.
func New(logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{logger: logger.Named("stats")}
}

func (c *Collector) IncCounter(name string, delta int64) {
	c.logger.Debug("counter", zap.String("metric", name), zap.Int64("delta", delta))
}

func (c *Collector) SetGauge(name string, value int64) {
	c.logger.Debug("gauge", zap.String("metric", name), zap.Int64("value", value))
}

func (c *Collector) ObserveHistogram(name string, value float64) {
	c.logger.Debug("histogram", zap.String("metric", name), zap.Float64("value", value))
}
