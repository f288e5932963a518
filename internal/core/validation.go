package core

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sliink/extloader/internal/model"
)

// ErrInvalidExtension is wrapped by every validation failure
var ErrInvalidExtension = errors.New("invalid extension")

// Validator checks a single extension contributed by an app
type Validator func(app model.AppConfig, ext model.Extension) error

// ValidationStage represents a single validation step
type ValidationStage struct {
	Name      string
	Check     Validator
	NextStage *ValidationStage
}

// Validate runs the stage and, if it passes, the following stages
func (s *ValidationStage) Validate(app model.AppConfig, ext model.Extension) error {
	if s == nil {
		return nil
	}

	if err := s.Check(app, ext); err != nil {
		return fmt.Errorf("%w: %s %q from %s failed %s: %w",
			ErrInvalidExtension, ext.Kind(), ext.Key(), app.ID, s.Name, err)
	}

	return s.NextStage.Validate(app, ext)
}

// ValidationPipeline manages the chain of validators applied to extensions
// before they are registered
type ValidationPipeline struct {
	first *ValidationStage
	mutex sync.RWMutex
	BaseComponent
}

// NewValidationPipeline creates an empty validation pipeline
func NewValidationPipeline() *ValidationPipeline {
	return &ValidationPipeline{
		BaseComponent: NewBaseComponent("validation_pipeline", "Validation Pipeline"),
	}
}

// NewDefaultValidationPipeline creates a pipeline with the standard validators.
// In strict mode extensions must also be declared in the app configuration.
func NewDefaultValidationPipeline(strict bool) *ValidationPipeline {
	p := NewValidationPipeline()
	p.AddStage("title", ValidateTitle)
	p.AddStage("shape", ValidateShape)
	p.AddStage("targets", ValidateTargets)
	if strict {
		p.AddStage("declared", ValidateDeclared)
	}
	return p
}

// Initialize prepares the validation pipeline for operation
func (p *ValidationPipeline) Initialize() bool {
	p.SetStatus(model.StatusInitialized)
	return true
}

// Start begins validation pipeline operation
func (p *ValidationPipeline) Start() bool {
	p.SetStatus(model.StatusRunning)
	return true
}

// Stop halts validation pipeline operation
func (p *ValidationPipeline) Stop() bool {
	p.SetStatus(model.StatusStopped)
	return true
}

// AddStage appends a validator to the end of the chain
func (p *ValidationPipeline) AddStage(name string, check Validator) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	stage := &ValidationStage{Name: name, Check: check}
	if p.first == nil {
		p.first = stage
		return
	}

	current := p.first
	for current.NextStage != nil {
		current = current.NextStage
	}
	current.NextStage = stage
}

// Stages returns the stage names in execution order
func (p *ValidationPipeline) Stages() []string {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	var names []string
	for s := p.first; s != nil; s = s.NextStage {
		names = append(names, s.Name)
	}
	return names
}

// Validate sends an extension through the pipeline. An empty pipeline accepts everything.
func (p *ValidationPipeline) Validate(app model.AppConfig, ext model.Extension) error {
	if ext == nil {
		return fmt.Errorf("%w: nil extension from %s", ErrInvalidExtension, app.ID)
	}

	p.mutex.RLock()
	defer p.mutex.RUnlock()

	return p.first.Validate(app, ext)
}

// ValidateTitle requires a title, or an ID for exposed components
func ValidateTitle(app model.AppConfig, ext model.Extension) error {
	if strings.TrimSpace(ext.Key()) == "" {
		if ext.Kind() == model.ExposedComponentKind {
			return errors.New("id is required")
		}
		return errors.New("title is required")
	}
	if c, ok := ext.(model.ExposedComponentConfig); ok && strings.TrimSpace(c.Title) == "" {
		return errors.New("title is required")
	}
	return nil
}

// ValidateShape checks the kind-specific required fields
func ValidateShape(app model.AppConfig, ext model.Extension) error {
	switch c := ext.(type) {
	case model.AddedLinkConfig:
		prefix := "/a/" + app.ID + "/"
		if !strings.HasPrefix(c.Path, prefix) {
			return fmt.Errorf("path %q must start with %q", c.Path, prefix)
		}
	case model.AddedComponentConfig:
		if c.Component == "" {
			return errors.New("component is required")
		}
	case model.ExposedComponentConfig:
		prefix := app.ID + "/"
		if !strings.HasPrefix(c.ID, prefix) || len(c.ID) == len(prefix) {
			return fmt.Errorf("id %q must start with %q", c.ID, prefix)
		}
		if c.Component == "" {
			return errors.New("component is required")
		}
	case model.AddedFunctionConfig:
		if c.Fn == nil {
			return errors.New("function is required")
		}
	default:
		return fmt.Errorf("unsupported extension type %T", ext)
	}
	return nil
}

// ValidateTargets requires at least one non-empty extension point ID for
// everything except exposed components
func ValidateTargets(app model.AppConfig, ext model.Extension) error {
	if ext.Kind() == model.ExposedComponentKind {
		return nil
	}

	targets := ext.TargetIDs()
	if len(targets) == 0 {
		return errors.New("at least one target is required")
	}
	for _, target := range targets {
		if strings.TrimSpace(target) == "" {
			return errors.New("targets must not be empty")
		}
	}
	return nil
}

// ValidateDeclared requires the extension to be declared in the app configuration
func ValidateDeclared(app model.AppConfig, ext model.Extension) error {
	if !app.Extensions.Declares(ext.Kind(), ext.Key()) {
		return errors.New("extension is not declared in the app configuration")
	}
	return nil
}
