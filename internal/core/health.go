package core

import (
	"fmt"
	"sync"
	"time"

	"github.com/sliink/extloader/internal/model"
)

// HealthMonitor tracks system and component health
type HealthMonitor struct {
	components map[string]Component
	metrics    map[string]interface{}
	counters   map[string]int64
	mutex      sync.RWMutex
	BaseComponent
}

// NewHealthMonitor creates a new health monitor
func NewHealthMonitor() *HealthMonitor {
	return &HealthMonitor{
		components:    make(map[string]Component),
		metrics:       make(map[string]interface{}),
		counters:      make(map[string]int64),
		BaseComponent: NewBaseComponent("health_monitor", "Health Monitor"),
	}
}

// Initialize prepares the health monitor for operation
func (h *HealthMonitor) Initialize() bool {
	h.SetStatus(model.StatusInitialized)
	return true
}

// Start begins health monitor operation
func (h *HealthMonitor) Start() bool {
	h.SetStatus(model.StatusRunning)
	return true
}

// Stop halts health monitor operation
func (h *HealthMonitor) Stop() bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.metrics = make(map[string]interface{})
	h.counters = make(map[string]int64)

	h.SetStatus(model.StatusStopped)
	return true
}

// RegisterComponent adds a component to be monitored
func (h *HealthMonitor) RegisterComponent(component Component) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.components[component.ID()] = component
}

// AddMetric adds a metric value with optional metadata
func (h *HealthMonitor) AddMetric(name string, value interface{}, metadata map[string]interface{}) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	entry := make(map[string]interface{}, len(metadata)+2)
	for k, v := range metadata {
		entry[k] = v
	}
	entry["value"] = value
	entry["timestamp"] = time.Now()

	h.metrics[name] = entry
}

// IncrementCounter adds delta to a named counter and returns the new value
func (h *HealthMonitor) IncrementCounter(name string, delta int64) int64 {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.counters[name] += delta
	return h.counters[name]
}

// GetCounter returns the value of a named counter
func (h *HealthMonitor) GetCounter(name string) int64 {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return h.counters[name]
}

// GetMetric retrieves a metric value
func (h *HealthMonitor) GetMetric(name string) (interface{}, bool) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	metric, exists := h.metrics[name]
	return metric, exists
}

// GetAllMetrics retrieves all metrics and counters
func (h *HealthMonitor) GetAllMetrics() map[string]interface{} {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return h.allMetricsLocked()
}

func (h *HealthMonitor) allMetricsLocked() map[string]interface{} {
	metrics := make(map[string]interface{}, len(h.metrics)+len(h.counters))
	for k, v := range h.metrics {
		metrics[k] = v
	}
	for k, v := range h.counters {
		metrics[k] = v
	}
	return metrics
}

// GetHealthStatus retrieves the health status of the system
func (h *HealthMonitor) GetHealthStatus() model.HealthStatus {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	components := make(map[string]model.HealthStatus, len(h.components))
	for id, component := range h.components {
		components[id] = model.HealthStatus{
			Status:    component.GetStatus(),
			Timestamp: time.Now(),
			Message:   component.Name() + " status: " + string(component.GetStatus()),
		}
	}

	statusCounts := make(map[model.ComponentStatus]int)
	for _, health := range components {
		statusCounts[health.Status]++
	}

	systemStatus := model.StatusRunning
	var statusMessage string

	switch {
	case statusCounts[model.StatusError] > 0:
		systemStatus = model.StatusError
		statusMessage = fmt.Sprintf("System has errors: %d components in ERROR state", statusCounts[model.StatusError])
	case statusCounts[model.StatusStopped] > 0 && statusCounts[model.StatusStopped] == len(components):
		systemStatus = model.StatusStopped
		statusMessage = "System is stopped"
	case statusCounts[model.StatusRunning] == 0:
		systemStatus = model.StatusInitialized
		statusMessage = "System is initializing"
	case statusCounts[model.StatusRunning] < len(components):
		systemStatus = model.StatusInitialized
		statusMessage = fmt.Sprintf("System is partially running: %d of %d components running",
			statusCounts[model.StatusRunning], len(components))
	default:
		statusMessage = "System is healthy: all components running"
	}

	return model.HealthStatus{
		Status:     systemStatus,
		Timestamp:  time.Now(),
		Message:    statusMessage,
		Components: components,
		Details:    h.allMetricsLocked(),
	}
}
