package plugin

import (
	"context"

	"github.com/sliink/extloader/internal/model"
)

// BasePlugin provides common functionality for app plugins.
// Derived plugins add their extensions when they are initialized.
type BasePlugin struct {
	id         string
	name       string
	Config     model.AppConfig
	extensions model.PluginExtensions
}

// NewBasePlugin creates a new base plugin
func NewBasePlugin(id, name string) BasePlugin {
	return BasePlugin{
		id:   id,
		name: name,
	}
}

// ID returns the plugin's unique identifier
func (p *BasePlugin) ID() string {
	return p.id
}

// Name returns the plugin's human-readable name
func (p *BasePlugin) Name() string {
	return p.name
}

// Init stores the app configuration and drops extensions added by a
// previous Init
func (p *BasePlugin) Init(ctx context.Context, config model.AppConfig) error {
	p.Config = config
	p.extensions = model.PluginExtensions{}
	return nil
}

// AddLink adds a link to the extension points in its targets
func (p *BasePlugin) AddLink(link model.AddedLinkConfig) *BasePlugin {
	p.extensions.AddedLinks = append(p.extensions.AddedLinks, link)
	return p
}

// AddComponent adds a component to the extension points in its targets
func (p *BasePlugin) AddComponent(component model.AddedComponentConfig) *BasePlugin {
	p.extensions.AddedComponents = append(p.extensions.AddedComponents, component)
	return p
}

// ExposeComponent makes a component available to other plugins by ID
func (p *BasePlugin) ExposeComponent(component model.ExposedComponentConfig) *BasePlugin {
	p.extensions.ExposedComponents = append(p.extensions.ExposedComponents, component)
	return p
}

// AddFunction adds a function to the extension points in its targets
func (p *BasePlugin) AddFunction(fn model.AddedFunctionConfig) *BasePlugin {
	p.extensions.AddedFunctions = append(p.extensions.AddedFunctions, fn)
	return p
}

// Extensions returns a copy of everything the plugin contributes
func (p *BasePlugin) Extensions() model.PluginExtensions {
	return model.PluginExtensions{
		AddedLinks:        append([]model.AddedLinkConfig(nil), p.extensions.AddedLinks...),
		AddedComponents:   append([]model.AddedComponentConfig(nil), p.extensions.AddedComponents...),
		ExposedComponents: append([]model.ExposedComponentConfig(nil), p.extensions.ExposedComponents...),
		AddedFunctions:    append([]model.AddedFunctionConfig(nil), p.extensions.AddedFunctions...),
	}
}
