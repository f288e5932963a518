package plugin

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/sliink/extloader/internal/model"
)

// ErrUnknownModule is returned when an app names a module the factory does not know
var ErrUnknownModule = errors.New("unknown module")

// Creator creates the registration code of a built-in app
type Creator func(config model.AppConfig) model.AppPlugin

// PluginFactory creates built-in app plugins by module name
type PluginFactory struct {
	creators map[string]Creator
	mutex    sync.RWMutex
}

// NewPluginFactory creates a new plugin factory
func NewPluginFactory() *PluginFactory {
	return &PluginFactory{
		creators: make(map[string]Creator),
	}
}

// Register registers a module creator, replacing any earlier one with the same name
func (f *PluginFactory) Register(module string, creator Creator) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	f.creators[module] = creator
}

// Modules returns the sorted names of the registered modules
func (f *PluginFactory) Modules() []string {
	f.mutex.RLock()
	defer f.mutex.RUnlock()

	modules := make([]string, 0, len(f.creators))
	for name := range f.creators {
		modules = append(modules, name)
	}
	sort.Strings(modules)
	return modules
}

// Import creates the plugin for the app's module
func (f *PluginFactory) Import(ctx context.Context, config model.AppConfig) (model.AppPlugin, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mutex.RLock()
	creator, exists := f.creators[config.Module]
	f.mutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModule, config.Module)
	}
	return creator(config), nil
}
