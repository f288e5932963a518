package core

import (
	"github.com/go-logr/logr"
	"go.uber.org/atomic"

	"github.com/sliink/extloader/internal/model"
)

// Component represents a core system component with lifecycle management
type Component interface {
	// Initialize prepares the component for operation
	Initialize() bool

	// Start begins component operation
	Start() bool

	// Stop halts component operation
	Stop() bool

	// GetStatus returns the current component status
	GetStatus() model.ComponentStatus

	// SetStatus updates the component status
	SetStatus(status model.ComponentStatus)

	// ID returns the component's unique identifier
	ID() string

	// Name returns the component's human-readable name
	Name() string
}

// BaseComponent provides common functionality for all components
type BaseComponent struct {
	id     string
	name   string
	status *atomic.String
	log    logr.Logger
}

// NewBaseComponent creates a new base component
func NewBaseComponent(id, name string) BaseComponent {
	return BaseComponent{
		id:     id,
		name:   name,
		status: atomic.NewString(string(model.StatusUninitialized)),
		log:    logr.Discard(),
	}
}

// ID returns the component's unique identifier
func (c *BaseComponent) ID() string {
	return c.id
}

// Name returns the component's human-readable name
func (c *BaseComponent) Name() string {
	return c.name
}

// GetStatus returns the current component status
func (c *BaseComponent) GetStatus() model.ComponentStatus {
	return model.ComponentStatus(c.status.Load())
}

// SetStatus updates the component status
func (c *BaseComponent) SetStatus(status model.ComponentStatus) {
	c.status.Store(string(status))
}

// SetLogger replaces the component logger. The logger is named after the component ID.
func (c *BaseComponent) SetLogger(log logr.Logger) {
	c.log = log.WithName(c.id)
}

// Logger returns the component logger
func (c *BaseComponent) Logger() logr.Logger {
	return c.log
}
