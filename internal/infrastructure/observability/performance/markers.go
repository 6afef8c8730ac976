// Package performance times harness operations and raises alerts for slow
// imports and renders.
package performance

import "time"

// Marker times one operation, e.g. "harness_import" scoped to a part id.
type Marker struct {
	Operation string        `json:"operation"`
	Scope     string        `json:"scope"`
	StartTime time.Time     `json:"startTime"`
	EndTime   time.Time     `json:"endTime"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`

	// Context cache lookups made while the operation ran.
	CacheHits   int `json:"cacheHits"`
	CacheMisses int `json:"cacheMisses"`

	Completed bool `json:"completed"`

	onComplete func(*Marker)
}

// Complete stops the clock and hands the marker to its tracker. Only the
// first call has an effect.
func (m *Marker) Complete() {
	if m.Completed {
		return
	}
	m.EndTime = time.Now()
	m.Duration = m.EndTime.Sub(m.StartTime)
	m.Completed = true

	if m.onComplete != nil {
		m.onComplete(m)
	}
}

// SetSuccess overrides the outcome.
func (m *Marker) SetSuccess(success bool) {
	m.Success = success
}

// SetError records err and marks the operation failed. A nil err is ignored.
func (m *Marker) SetError(err error) {
	if err == nil {
		return
	}
	m.Error = err.Error()
	m.Success = false
}

func (m *Marker) AddCacheHit()  { m.CacheHits++ }
func (m *Marker) AddCacheMiss() { m.CacheMisses++ }

// GetCacheHitRatio is hits over lookups, 0 without lookups.
func (m *Marker) GetCacheHitRatio() float64 {
	total := m.CacheHits + m.CacheMisses
	if total == 0 {
		return 0
	}
	return float64(m.CacheHits) / float64(total)
}
