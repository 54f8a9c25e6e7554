package monitoring

import (
	"sync/atomic"
	"time"
)

// Counter names reported by Snapshot.
const (
	MetricRequests           = "requests"
	MetricPredictions        = "predictions"
	MetricValidationFailures = "validation_failures"
	MetricInternalErrors     = "internal_errors"
	MetricCacheHits          = "cache_hits"
)

// Counters holds the process-wide request counters. The zero value is not
// usable; call NewCounters.
type Counters struct {
	requests           atomic.Int64
	predictions        atomic.Int64
	validationFailures atomic.Int64
	internalErrors     atomic.Int64
	cacheHits          atomic.Int64

	startTime time.Time
}

// NewCounters creates counters whose uptime starts now.
func NewCounters() *Counters {
	return &Counters{startTime: time.Now()}
}

func (c *Counters) IncRequests()           { c.requests.Add(1) }
func (c *Counters) IncPredictions()        { c.predictions.Add(1) }
func (c *Counters) IncValidationFailures() { c.validationFailures.Add(1) }
func (c *Counters) IncInternalErrors()     { c.internalErrors.Add(1) }
func (c *Counters) IncCacheHits()          { c.cacheHits.Add(1) }

// Snapshot returns the current value of every counter.
func (c *Counters) Snapshot() map[string]int64 {
	return map[string]int64{
		MetricRequests:           c.requests.Load(),
		MetricPredictions:        c.predictions.Load(),
		MetricValidationFailures: c.validationFailures.Load(),
		MetricInternalErrors:     c.internalErrors.Load(),
		MetricCacheHits:          c.cacheHits.Load(),
	}
}

// Uptime returns the time since the counters were created.
func (c *Counters) Uptime() time.Duration {
	return time.Since(c.startTime)
}
