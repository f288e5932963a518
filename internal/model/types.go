package model

import "time"

// ComponentStatus represents the current status of a component
type ComponentStatus string

const (
	// StatusUninitialized indicates the component has not been initialized
	StatusUninitialized ComponentStatus = "UNINITIALIZED"
	// StatusInitialized indicates the component has been initialized but not started
	StatusInitialized ComponentStatus = "INITIALIZED"
	// StatusRunning indicates the component is currently running
	StatusRunning ComponentStatus = "RUNNING"
	// StatusStopped indicates the component has been stopped
	StatusStopped ComponentStatus = "STOPPED"
	// StatusError indicates the component is in an error state
	StatusError ComponentStatus = "ERROR"
)

// LoaderState is the state of the plugin loader state machine
type LoaderState string

const (
	// LoaderIdle means no preload batch is in flight
	LoaderIdle LoaderState = "IDLE"
	// LoaderLoading means at least one preload batch is in flight
	LoaderLoading LoaderState = "LOADING"
)

// EventType represents the type of system event
type EventType string

const (
	// EventComponentStatusChange indicates a component status has changed
	EventComponentStatusChange EventType = "COMPONENT_STATUS_CHANGE"
	// EventConfigChange indicates a configuration has changed
	EventConfigChange EventType = "CONFIG_CHANGE"
	// EventPreloadStarted indicates a preload batch was dispatched
	EventPreloadStarted EventType = "PRELOAD_STARTED"
	// EventPreloadSettled indicates a preload batch has settled
	EventPreloadSettled EventType = "PRELOAD_SETTLED"
	// EventPluginPreloaded indicates a single app plugin was preloaded
	EventPluginPreloaded EventType = "PLUGIN_PRELOADED"
	// EventPluginPreloadFailed indicates a single app plugin failed to preload
	EventPluginPreloadFailed EventType = "PLUGIN_PRELOAD_FAILED"
	// EventError indicates an error has occurred
	EventError EventType = "ERROR"
)

// HealthStatus represents the health status of the system or a component
type HealthStatus struct {
	Status     ComponentStatus         `json:"status"`
	Timestamp  time.Time               `json:"timestamp"`
	Message    string                  `json:"message,omitempty"`
	Details    map[string]any          `json:"details,omitempty"`
	Components map[string]HealthStatus `json:"components,omitempty"`
}

// BatchStarted is the payload of EventPreloadStarted
type BatchStarted struct {
	BatchID   string   `json:"batch_id"`
	PluginIDs []string `json:"plugin_ids"`
}

// BatchSettled is the payload of EventPreloadSettled
type BatchSettled struct {
	BatchID   string        `json:"batch_id"`
	PluginIDs []string      `json:"plugin_ids"`
	Duration  time.Duration `json:"duration"`
	Err       error         `json:"-"`
}

// PluginPreloadResult is the payload of EventPluginPreloaded and EventPluginPreloadFailed
type PluginPreloadResult struct {
	PluginID   string `json:"plugin_id"`
	Version    string `json:"version,omitempty"`
	Registered int    `json:"registered"`
	Err        error  `json:"-"`
}
