package core

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/sliink/extloader/internal/model"
)

var (
	// ErrAppNotFound is returned when an app ID is not registered
	ErrAppNotFound = errors.New("app not found")
	// ErrDuplicateApp is returned when an app ID is registered twice
	ErrDuplicateApp = errors.New("app already registered")
)

// AppRegistry keeps track of the configurations of installed app plugins
type AppRegistry struct {
	apps  map[string]model.AppConfig
	mutex sync.RWMutex
	BaseComponent
}

// NewAppRegistry creates a new app registry
func NewAppRegistry() *AppRegistry {
	return &AppRegistry{
		apps:          make(map[string]model.AppConfig),
		BaseComponent: NewBaseComponent("app_registry", "App Registry"),
	}
}

// Initialize prepares the app registry for operation
func (r *AppRegistry) Initialize() bool {
	r.SetStatus(model.StatusInitialized)
	return true
}

// Start begins app registry operation
func (r *AppRegistry) Start() bool {
	r.SetStatus(model.StatusRunning)
	return true
}

// Stop halts app registry operation. Registered apps are kept so the
// registry can be started again.
func (r *AppRegistry) Stop() bool {
	r.SetStatus(model.StatusStopped)
	return true
}

// RegisterApp adds an app configuration to the registry
func (r *AppRegistry) RegisterApp(app model.AppConfig) error {
	if app.ID == "" {
		return fmt.Errorf("cannot register app without id")
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.apps[app.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateApp, app.ID)
	}

	r.apps[app.ID] = app
	return nil
}

// UnregisterApp removes an app configuration from the registry
func (r *AppRegistry) UnregisterApp(appID string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.apps[appID]; !exists {
		return fmt.Errorf("%w: %s", ErrAppNotFound, appID)
	}

	delete(r.apps, appID)
	return nil
}

// Replace swaps the registered apps for the given set. Every app is checked
// before anything is replaced.
func (r *AppRegistry) Replace(apps []model.AppConfig) error {
	next := make(map[string]model.AppConfig, len(apps))
	for _, app := range apps {
		if app.ID == "" {
			return fmt.Errorf("cannot register app without id")
		}
		if _, exists := next[app.ID]; exists {
			return fmt.Errorf("%w: %s", ErrDuplicateApp, app.ID)
		}
		next[app.ID] = app
	}

	r.mutex.Lock()
	r.apps = next
	r.mutex.Unlock()
	return nil
}

// GetApp retrieves an app configuration by ID
func (r *AppRegistry) GetApp(appID string) (model.AppConfig, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	app, exists := r.apps[appID]
	return app, exists
}

// GetAllApps retrieves all registered apps sorted by ID
func (r *AppRegistry) GetAllApps() []model.AppConfig {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]model.AppConfig, 0, len(r.apps))
	for _, app := range r.apps {
		result = append(result, app)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })

	return result
}

// PreloadApps returns the IDs of the apps marked for preloading at startup
func (r *AppRegistry) PreloadApps() []string {
	var ids []string
	for _, app := range r.GetAllApps() {
		if app.Preload {
			ids = append(ids, app.ID)
		}
	}
	return ids
}

// Resolve maps plugin IDs to their app configurations in input order.
// Unknown IDs and repeated IDs are dropped.
func (r *AppRegistry) Resolve(pluginIDs []string) ([]model.AppConfig, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	seen := make(map[string]struct{}, len(pluginIDs))
	var result []model.AppConfig

	for _, id := range pluginIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		if app, exists := r.apps[id]; exists {
			result = append(result, app)
		}
	}

	return result, nil
}
