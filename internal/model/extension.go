package model

// ExtensionKind represents the kind of a plugin extension
type ExtensionKind string

const (
	// AddedLinkKind is a link added to one or more extension points
	AddedLinkKind ExtensionKind = "ADDED_LINK"
	// AddedComponentKind is a component added to one or more extension points
	AddedComponentKind ExtensionKind = "ADDED_COMPONENT"
	// ExposedComponentKind is a component other plugins can use by ID
	ExposedComponentKind ExtensionKind = "EXPOSED_COMPONENT"
	// AddedFunctionKind is a function added to one or more extension points
	AddedFunctionKind ExtensionKind = "ADDED_FUNCTION"
)

// Extension is implemented by every extension configuration
type Extension interface {
	// Kind returns the extension kind
	Kind() ExtensionKind

	// Key identifies the extension within its plugin: the ID for exposed
	// components, the title for everything else
	Key() string

	// TargetIDs returns the extension point IDs the extension is added to
	TargetIDs() []string
}

// AddedLinkConfig is a link contributed to extension points
type AddedLinkConfig struct {
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description,omitempty" yaml:"description"`
	Path        string   `json:"path" yaml:"path"`
	Category    string   `json:"category,omitempty" yaml:"category"`
	Icon        string   `json:"icon,omitempty" yaml:"icon"`
	Targets     []string `json:"targets" yaml:"targets"`
}

func (c AddedLinkConfig) Kind() ExtensionKind { return AddedLinkKind }
func (c AddedLinkConfig) Key() string { return c.Title }
func (c AddedLinkConfig) TargetIDs() []string { return c.Targets }

// AddedComponentConfig is a component contributed to extension points
type AddedComponentConfig struct {
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description,omitempty" yaml:"description"`
	Component   string   `json:"component" yaml:"component"`
	Targets     []string `json:"targets" yaml:"targets"`
}

func (c AddedComponentConfig) Kind() ExtensionKind { return AddedComponentKind }
func (c AddedComponentConfig) Key() string { return c.Title }
func (c AddedComponentConfig) TargetIDs() []string { return c.Targets }

// ExposedComponentConfig is a component exposed for use by other plugins
type ExposedComponentConfig struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description"`
	Component   string `json:"component" yaml:"component"`
}

func (c ExposedComponentConfig) Kind() ExtensionKind { return ExposedComponentKind }
func (c ExposedComponentConfig) Key() string { return c.ID }
func (c ExposedComponentConfig) TargetIDs() []string { return nil }

// ExtensionFunc is the callable behind an added function
type ExtensionFunc func(args ...any) (any, error)

// AddedFunctionConfig is a function contributed to extension points
type AddedFunctionConfig struct {
	Title       string        `json:"title" yaml:"title"`
	Description string        `json:"description,omitempty" yaml:"description"`
	Targets     []string      `json:"targets" yaml:"targets"`
	Fn          ExtensionFunc `json:"-" yaml:"-"`
}

func (c AddedFunctionConfig) Kind() ExtensionKind { return AddedFunctionKind }
func (c AddedFunctionConfig) Key() string { return c.Title }
func (c AddedFunctionConfig) TargetIDs() []string { return c.Targets }

// PluginExtensions groups everything a plugin contributes
type PluginExtensions struct {
	AddedLinks        []AddedLinkConfig
	AddedComponents   []AddedComponentConfig
	ExposedComponents []ExposedComponentConfig
	AddedFunctions    []AddedFunctionConfig
}

// All returns the extensions in registration order: exposed components,
// added components, added links, added functions
func (e PluginExtensions) All() []Extension {
	all := make([]Extension, 0, e.Len())
	for _, c := range e.ExposedComponents {
		all = append(all, c)
	}
	for _, c := range e.AddedComponents {
		all = append(all, c)
	}
	for _, c := range e.AddedLinks {
		all = append(all, c)
	}
	for _, c := range e.AddedFunctions {
		all = append(all, c)
	}
	return all
}

// Len returns the total number of extensions
func (e PluginExtensions) Len() int {
	return len(e.AddedLinks) + len(e.AddedComponents) + len(e.ExposedComponents) + len(e.AddedFunctions)
}

// AddedLink is a registered link
type AddedLink struct {
	PluginID string `json:"plugin_id"`
	AddedLinkConfig
}

// AddedComponent is a registered component
type AddedComponent struct {
	PluginID string `json:"plugin_id"`
	AddedComponentConfig
}

// ExposedComponent is a registered exposed component
type ExposedComponent struct {
	PluginID string `json:"plugin_id"`
	ExposedComponentConfig
}

// AddedFunction is a registered function
type AddedFunction struct {
	PluginID string `json:"plugin_id"`
	AddedFunctionConfig
}

// RegistriesSnapshot is a point-in-time copy of the extension registries
type RegistriesSnapshot struct {
	AddedLinks        map[string][]AddedLink      `json:"added_links"`
	AddedComponents   map[string][]AddedComponent `json:"added_components"`
	ExposedComponents map[string]ExposedComponent `json:"exposed_components"`
	AddedFunctions    map[string][]AddedFunction  `json:"added_functions"`
}
