package model

import "context"

// AppConfig describes an installable app plugin
type AppConfig struct {
	ID      string `json:"id" mapstructure:"id" yaml:"id"`
	Name    string `json:"name,omitempty" mapstructure:"name" yaml:"name"`
	Version string `json:"version,omitempty" mapstructure:"version" yaml:"version"`

	// Module names a built-in module known to the plugin factory.
	// Apps without a module are imported from the manifest under Path.
	Module string `json:"module,omitempty" mapstructure:"module" yaml:"module"`
	Path   string `json:"path,omitempty" mapstructure:"path" yaml:"path"`

	// Preload marks apps that are preloaded when the core starts
	Preload bool `json:"preload" mapstructure:"preload" yaml:"preload"`

	// Extensions declares what the app intends to register
	Extensions ExtensionsMeta `json:"extensions" mapstructure:"extensions" yaml:"extensions"`
}

// ExtensionMeta declares a single extension in an app configuration
type ExtensionMeta struct {
	ID          string   `json:"id,omitempty" mapstructure:"id" yaml:"id"`
	Title       string   `json:"title,omitempty" mapstructure:"title" yaml:"title"`
	Description string   `json:"description,omitempty" mapstructure:"description" yaml:"description"`
	Targets     []string `json:"targets,omitempty" mapstructure:"targets" yaml:"targets"`
}

// ExtensionsMeta groups the declared extensions of an app by kind
type ExtensionsMeta struct {
	AddedLinks        []ExtensionMeta `json:"added_links,omitempty" mapstructure:"added_links" yaml:"added_links"`
	AddedComponents   []ExtensionMeta `json:"added_components,omitempty" mapstructure:"added_components" yaml:"added_components"`
	ExposedComponents []ExtensionMeta `json:"exposed_components,omitempty" mapstructure:"exposed_components" yaml:"exposed_components"`
	AddedFunctions    []ExtensionMeta `json:"added_functions,omitempty" mapstructure:"added_functions" yaml:"added_functions"`
}

// Declares reports whether the metadata declares an extension of the given kind and key
func (m ExtensionsMeta) Declares(kind ExtensionKind, key string) bool {
	var declared []ExtensionMeta
	switch kind {
	case AddedLinkKind:
		declared = m.AddedLinks
	case AddedComponentKind:
		declared = m.AddedComponents
	case ExposedComponentKind:
		declared = m.ExposedComponents
	case AddedFunctionKind:
		declared = m.AddedFunctions
	}

	for _, meta := range declared {
		if kind == ExposedComponentKind {
			if meta.ID == key {
				return true
			}
			continue
		}
		if meta.Title == key {
			return true
		}
	}
	return false
}

// AppPlugin is the registration code of an app plugin
type AppPlugin interface {
	// ID returns the plugin's unique identifier
	ID() string

	// Name returns the plugin's human-readable name
	Name() string

	// Init runs the plugin's registration code against its configuration
	Init(ctx context.Context, config AppConfig) error

	// Extensions returns everything the plugin contributes
	Extensions() PluginExtensions
}

// Importer fetches the registration code of an app plugin
type Importer interface {
	Import(ctx context.Context, config AppConfig) (AppPlugin, error)
}

// ImporterFunc adapts a function to the Importer interface
type ImporterFunc func(ctx context.Context, config AppConfig) (AppPlugin, error)

// Import calls f(ctx, config)
func (f ImporterFunc) Import(ctx context.Context, config AppConfig) (AppPlugin, error) {
	return f(ctx, config)
}
