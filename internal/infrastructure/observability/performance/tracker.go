package performance

import (
	"strings"
	"sync"
	"time"
)

// AlertSeverity grades a performance alert
type AlertSeverity string

const (
	AlertWarning  AlertSeverity = "warning"
	AlertCritical AlertSeverity = "critical"
)

// PerformanceAlert is raised when a completed operation crosses a threshold
type PerformanceAlert struct {
	Timestamp time.Time     `json:"timestamp"`
	Severity  AlertSeverity `json:"severity"`
	Operation string        `json:"operation"`
	Scope     string        `json:"scope"`
	Actual    time.Duration `json:"actual"`
	Message   string        `json:"message"`
}

// TrackerConfig contains configuration options for the performance tracker
type TrackerConfig struct {
	MaxMarkers   int  `json:"maxMarkers"`   // Completed markers retained for reporting
	MaxAlerts    int  `json:"maxAlerts"`    // Alerts retained for reporting
	EnableAlerts bool `json:"enableAlerts"` // Whether to generate performance alerts
}

// DefaultTrackerConfig returns a sensible default configuration
func DefaultTrackerConfig() *TrackerConfig {
	return &TrackerConfig{
		MaxMarkers:   1000,
		MaxAlerts:    200,
		EnableAlerts: true,
	}
}

// AlertThresholds defines performance thresholds for generating alerts
type AlertThresholds struct {
	SlowResponseThreshold     time.Duration `json:"slowResponseThreshold"`
	CriticalResponseThreshold time.Duration `json:"criticalResponseThreshold"`
	RenderThreshold           time.Duration `json:"renderThreshold"`
}

// DefaultAlertThresholds returns sensible default alert thresholds
func DefaultAlertThresholds() *AlertThresholds {
	return &AlertThresholds{
		SlowResponseThreshold:     2 * time.Second,
		CriticalResponseThreshold: 10 * time.Second,
		RenderThreshold:           5 * time.Second,
	}
}

// Tracker manages performance markers and provides metrics aggregation
type Tracker struct {
	completed  []Marker
	alerts     []PerformanceAlert
	thresholds *AlertThresholds
	config     *TrackerConfig
	started    time.Time
	mu         sync.RWMutex
}

// NewTracker creates a new performance tracker with the given configuration
func NewTracker(config *TrackerConfig) *Tracker {
	if config == nil {
		config = DefaultTrackerConfig()
	}
	return &Tracker{
		thresholds: DefaultAlertThresholds(),
		config:     config,
		started:    time.Now(),
	}
}

// SetThresholds replaces the alert thresholds
func (t *Tracker) SetThresholds(thresholds *AlertThresholds) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.thresholds = thresholds
}

// StartOperation creates a new performance marker for an operation. The
// marker reports back to the tracker when completed.
func (t *Tracker) StartOperation(operation, scope string) *Marker {
	return &Marker{
		Operation:  operation,
		Scope:      scope,
		StartTime:  time.Now(),
		Success:    true,
		onComplete: t.record,
	}
}

func (t *Tracker) record(m *Marker) {
	t.mu.Lock()
	defer t.mu.Unlock()

	snapshot := *m
	snapshot.onComplete = nil
	t.completed = append(t.completed, snapshot)
	if len(t.completed) > t.config.MaxMarkers {
		t.completed = t.completed[len(t.completed)-t.config.MaxMarkers:]
	}

	if !t.config.EnableAlerts {
		return
	}
	for _, alert := range t.evaluate(&snapshot) {
		t.alerts = append(t.alerts, alert)
	}
	if len(t.alerts) > t.config.MaxAlerts {
		t.alerts = t.alerts[len(t.alerts)-t.config.MaxAlerts:]
	}
}

func (t *Tracker) evaluate(m *Marker) []PerformanceAlert {
	var alerts []PerformanceAlert
	newAlert := func(sev AlertSeverity, msg string) PerformanceAlert {
		return PerformanceAlert{
			Timestamp: time.Now(),
			Severity:  sev,
			Operation: m.Operation,
			Scope:     m.Scope,
			Actual:    m.Duration,
			Message:   msg,
		}
	}

	switch {
	case m.Duration > t.thresholds.CriticalResponseThreshold:
		alerts = append(alerts, newAlert(AlertCritical, "Operation exceeded critical response time threshold"))
	case m.Duration > t.thresholds.SlowResponseThreshold:
		alerts = append(alerts, newAlert(AlertWarning, "Operation exceeded slow response time threshold"))
	}

	if strings.HasPrefix(m.Operation, "render") && m.Duration > t.thresholds.RenderThreshold {
		alerts = append(alerts, newAlert(AlertWarning, "Diagram rendering exceeded threshold"))
	}

	return alerts
}

// Summary aggregates completed markers for one operation
type Summary struct {
	Operation string        `json:"operation"`
	Count     int           `json:"count"`
	Failures  int           `json:"failures"`
	Average   time.Duration `json:"average"`
	Max       time.Duration `json:"max"`
}

// Summaries returns per-operation aggregates over the retained markers
func (t *Tracker) Summaries() map[string]Summary {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]Summary)
	totals := make(map[string]time.Duration)
	for _, m := range t.completed {
		s := out[m.Operation]
		s.Operation = m.Operation
		s.Count++
		if !m.Success {
			s.Failures++
		}
		if m.Duration > s.Max {
			s.Max = m.Duration
		}
		totals[m.Operation] += m.Duration
		out[m.Operation] = s
	}
	for op, s := range out {
		s.Average = totals[op] / time.Duration(s.Count)
		out[op] = s
	}
	return out
}

// Alerts returns a copy of the retained alerts
func (t *Tracker) Alerts() []PerformanceAlert {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]PerformanceAlert(nil), t.alerts...)
}

// Uptime reports how long the tracker has been running
func (t *Tracker) Uptime() time.Duration {
	return time.Since(t.started)
}
