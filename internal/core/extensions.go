package core

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/sliink/extloader/internal/model"
)

// ExtensionRegistries holds the extensions contributed by preloaded apps.
// A plugin's contributions are always written as one unit.
type ExtensionRegistries struct {
	links      map[string][]model.AddedLink
	components map[string][]model.AddedComponent
	functions  map[string][]model.AddedFunction
	exposed    map[string]model.ExposedComponent
	plugins    map[string]int
	validation *ValidationPipeline
	mutex      sync.RWMutex
	BaseComponent
}

// NewExtensionRegistries creates empty registries validating through the given
// pipeline. A nil pipeline uses the default non-strict validators.
func NewExtensionRegistries(validation *ValidationPipeline) *ExtensionRegistries {
	if validation == nil {
		validation = NewDefaultValidationPipeline(false)
	}

	r := &ExtensionRegistries{
		validation:    validation,
		BaseComponent: NewBaseComponent("extension_registries", "Extension Registries"),
	}
	r.reset()
	return r
}

func (r *ExtensionRegistries) reset() {
	r.links = make(map[string][]model.AddedLink)
	r.components = make(map[string][]model.AddedComponent)
	r.functions = make(map[string][]model.AddedFunction)
	r.exposed = make(map[string]model.ExposedComponent)
	r.plugins = make(map[string]int)
}

// Initialize prepares the registries for operation
func (r *ExtensionRegistries) Initialize() bool {
	r.SetStatus(model.StatusInitialized)
	return true
}

// Start begins registries operation
func (r *ExtensionRegistries) Start() bool {
	r.SetStatus(model.StatusRunning)
	return true
}

// Stop halts registries operation and drops every registered extension
func (r *ExtensionRegistries) Stop() bool {
	r.Clear()
	r.SetStatus(model.StatusStopped)
	return true
}

// Clear removes all registered extensions
func (r *ExtensionRegistries) Clear() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.reset()
}

// Register records the extensions of an app. Previous contributions of the
// same app are replaced. Invalid extensions are skipped; the returned error
// joins their validation errors and the count is the number registered.
func (r *ExtensionRegistries) Register(app model.AppConfig, extensions model.PluginExtensions) (int, error) {
	if app.ID == "" {
		return 0, fmt.Errorf("cannot register extensions without app id")
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.removeLocked(app.ID)

	var errs []error
	registered := 0

	for _, ext := range extensions.All() {
		if err := r.validation.Validate(app, ext); err != nil {
			errs = append(errs, err)
			continue
		}

		switch c := ext.(type) {
		case model.ExposedComponentConfig:
			if existing, taken := r.exposed[c.ID]; taken {
				errs = append(errs, fmt.Errorf("%w: exposed component %q from %s is already exposed by %s",
					ErrInvalidExtension, c.ID, app.ID, existing.PluginID))
				continue
			}
			r.exposed[c.ID] = model.ExposedComponent{PluginID: app.ID, ExposedComponentConfig: c}
		case model.AddedComponentConfig:
			for _, target := range c.Targets {
				r.components[target] = append(r.components[target], model.AddedComponent{PluginID: app.ID, AddedComponentConfig: c})
			}
		case model.AddedLinkConfig:
			for _, target := range c.Targets {
				r.links[target] = append(r.links[target], model.AddedLink{PluginID: app.ID, AddedLinkConfig: c})
			}
		case model.AddedFunctionConfig:
			for _, target := range c.Targets {
				r.functions[target] = append(r.functions[target], model.AddedFunction{PluginID: app.ID, AddedFunctionConfig: c})
			}
		}
		registered++
	}

	if registered > 0 {
		r.plugins[app.ID] = registered
	}

	r.log.V(1).Info("Registered extensions", "plugin", app.ID, "registered", registered, "rejected", len(errs))
	return registered, errors.Join(errs...)
}

// Unregister removes every extension contributed by an app
func (r *ExtensionRegistries) Unregister(pluginID string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.removeLocked(pluginID)
}

func (r *ExtensionRegistries) removeLocked(pluginID string) {
	if _, exists := r.plugins[pluginID]; !exists {
		return
	}

	for target, items := range r.links {
		r.links[target] = removeByPlugin(items, pluginID, func(l model.AddedLink) string { return l.PluginID })
		if len(r.links[target]) == 0 {
			delete(r.links, target)
		}
	}
	for target, items := range r.components {
		r.components[target] = removeByPlugin(items, pluginID, func(c model.AddedComponent) string { return c.PluginID })
		if len(r.components[target]) == 0 {
			delete(r.components, target)
		}
	}
	for target, items := range r.functions {
		r.functions[target] = removeByPlugin(items, pluginID, func(f model.AddedFunction) string { return f.PluginID })
		if len(r.functions[target]) == 0 {
			delete(r.functions, target)
		}
	}
	for id, c := range r.exposed {
		if c.PluginID == pluginID {
			delete(r.exposed, id)
		}
	}
	delete(r.plugins, pluginID)
}

func removeByPlugin[T any](items []T, pluginID string, owner func(T) string) []T {
	kept := items[:0]
	for _, item := range items {
		if owner(item) != pluginID {
			kept = append(kept, item)
		}
	}
	return kept
}

// AddedLinks returns the links added to an extension point
func (r *ExtensionRegistries) AddedLinks(extensionPointID string) []model.AddedLink {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return append([]model.AddedLink(nil), r.links[extensionPointID]...)
}

// AddedComponents returns the components added to an extension point
func (r *ExtensionRegistries) AddedComponents(extensionPointID string) []model.AddedComponent {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return append([]model.AddedComponent(nil), r.components[extensionPointID]...)
}

// AddedFunctions returns the functions added to an extension point
func (r *ExtensionRegistries) AddedFunctions(extensionPointID string) []model.AddedFunction {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return append([]model.AddedFunction(nil), r.functions[extensionPointID]...)
}

// ExposedComponent returns an exposed component by ID
func (r *ExtensionRegistries) ExposedComponent(id string) (model.ExposedComponent, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	c, exists := r.exposed[id]
	return c, exists
}

// PluginIDs returns the sorted IDs of apps with registered extensions
func (r *ExtensionRegistries) PluginIDs() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	ids := make([]string, 0, len(r.plugins))
	for id := range r.plugins {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Snapshot returns a copy of the registries
func (r *ExtensionRegistries) Snapshot() model.RegistriesSnapshot {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	snapshot := model.RegistriesSnapshot{
		AddedLinks:        make(map[string][]model.AddedLink, len(r.links)),
		AddedComponents:   make(map[string][]model.AddedComponent, len(r.components)),
		ExposedComponents: make(map[string]model.ExposedComponent, len(r.exposed)),
		AddedFunctions:    make(map[string][]model.AddedFunction, len(r.functions)),
	}
	for k, v := range r.links {
		snapshot.AddedLinks[k] = append([]model.AddedLink(nil), v...)
	}
	for k, v := range r.components {
		snapshot.AddedComponents[k] = append([]model.AddedComponent(nil), v...)
	}
	for k, v := range r.exposed {
		snapshot.ExposedComponents[k] = v
	}
	for k, v := range r.functions {
		snapshot.AddedFunctions[k] = append([]model.AddedFunction(nil), v...)
	}
	return snapshot
}
