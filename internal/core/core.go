package core

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/go-logr/logr"

	"github.com/sliink/extloader/internal/model"
)

// Core is the central coordinator of the system
type Core struct {
	eventBus      *EventBus
	apps          *AppRegistry
	configManager *ConfigManager
	healthMonitor *HealthMonitor
	validation    *ValidationPipeline
	registries    *ExtensionRegistries
	preloader     *PluginPreloader
	loader        *PluginLoader
	importer      model.Importer
	reloadMutex   sync.Mutex
	root          logr.Logger
	ctx           context.Context
	cancel        context.CancelFunc
	BaseComponent
}

// Option configures a Core
type Option func(*Core)

// WithLogger sets the logger handed to every core component
func WithLogger(log logr.Logger) Option {
	return func(c *Core) {
		c.root = log
		c.BaseComponent.SetLogger(log)
	}
}

// WithImporter sets the importer used to fetch app plugins
func WithImporter(importer model.Importer) Option {
	return func(c *Core) {
		c.importer = importer
	}
}

// WithConfigManager uses an already loaded configuration
func WithConfigManager(m *ConfigManager) Option {
	return func(c *Core) {
		if m != nil {
			c.configManager = m
		}
	}
}

// NewCore creates a new core system
func NewCore(opts ...Option) *Core {
	ctx, cancel := context.WithCancel(context.Background())

	c := &Core{
		configManager: NewConfigManager(),
		root:          logr.Discard(),
		ctx:           ctx,
		cancel:        cancel,
		BaseComponent: NewBaseComponent("core", "Core System"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetComponent returns a component by ID
func (c *Core) GetComponent(id string) (Component, bool) {
	switch id {
	case c.ID():
		return c, true
	case c.configManager.ID():
		return c.configManager, true
	}

	// The remaining components exist once the core is initialized
	if c.eventBus == nil {
		return nil, false
	}
	for _, component := range c.components() {
		if component.ID() == id {
			return component, true
		}
	}
	return nil, false
}

// GetConfigManager returns the configuration manager component
func (c *Core) GetConfigManager() *ConfigManager {
	return c.configManager
}

// GetAppRegistry returns the app registry component
func (c *Core) GetAppRegistry() *AppRegistry {
	return c.apps
}

// Registries returns the extension registries
func (c *Core) Registries() *ExtensionRegistries {
	return c.registries
}

// Loader returns the plugin loader
func (c *Core) Loader() *PluginLoader {
	return c.loader
}

// Initialize prepares the core system for operation
func (c *Core) Initialize() bool {
	log := c.log

	c.eventBus = NewEventBus()
	c.apps = NewAppRegistry()
	c.healthMonitor = NewHealthMonitor()
	c.validation = NewDefaultValidationPipeline(c.configManager.GetBool("loader.strict_meta"))
	c.registries = NewExtensionRegistries(c.validation)
	c.preloader = NewPluginPreloader(c.importer,
		WithConcurrency(c.configManager.GetInt("loader.concurrency")),
		WithPreloadTTL(c.configManager.GetDuration("loader.preload_ttl")),
		WithImportTimeout(c.configManager.GetDuration("loader.timeout")),
		WithPreloadEvents(c.eventBus),
	)
	c.loader = NewPluginLoader(c.apps, c.preloader, c.registries,
		WithLoaderEvents(c.eventBus),
		WithBaseContext(c.ctx),
	)

	components := c.components()
	for _, component := range components {
		if l, ok := component.(interface{ SetLogger(logr.Logger) }); ok {
			l.SetLogger(c.root)
		}
	}

	for _, component := range components {
		if !component.Initialize() {
			log.Error(nil, "Failed to initialize component", "component", component.ID())
			c.SetStatus(model.StatusError)
			return false
		}
	}

	if err := c.ReloadApps(); err != nil {
		log.Error(err, "Failed to load app configuration")
		c.SetStatus(model.StatusError)
		return false
	}

	c.healthMonitor.RegisterComponent(c)
	for _, component := range components {
		c.healthMonitor.RegisterComponent(component)
	}
	c.subscribe()

	c.SetStatus(model.StatusInitialized)
	return true
}

// components returns the core components in start order
func (c *Core) components() []Component {
	return []Component{
		c.eventBus,
		c.configManager,
		c.apps,
		c.healthMonitor,
		c.validation,
		c.registries,
		c.preloader,
		c.loader,
	}
}

func (c *Core) subscribe() {
	c.eventBus.Subscribe(model.EventPreloadStarted, c.ID(), func(Event) {
		c.healthMonitor.IncrementCounter("batches_started", 1)
		c.healthMonitor.AddMetric("is_loading", true, nil)
	})
	c.eventBus.Subscribe(model.EventPreloadSettled, c.ID(), func(Event) {
		c.healthMonitor.AddMetric("is_loading", c.loader.IsLoading(), nil)
		c.healthMonitor.IncrementCounter("batches_settled", 1)
	})
	c.eventBus.Subscribe(model.EventPluginPreloaded, c.ID(), func(Event) {
		c.healthMonitor.IncrementCounter("plugins_preloaded", 1)
	})
	c.eventBus.Subscribe(model.EventPluginPreloadFailed, c.ID(), func(Event) {
		c.healthMonitor.IncrementCounter("plugins_failed", 1)
	})
	c.healthMonitor.AddMetric("is_loading", false, nil)
}

// Start begins core system operation and preloads the apps marked for preload
func (c *Core) Start() bool {
	for _, component := range c.components() {
		if !component.Start() {
			c.log.Error(nil, "Failed to start component", "component", component.ID())
			c.SetStatus(model.StatusError)
			return false
		}
	}

	if c.configManager.GetBool("config.watch") {
		c.configManager.OnChange("apps", func(interface{}) {
			if err := c.ReloadApps(); err != nil {
				c.log.Error(err, "Failed to reload app configuration")
			}
		})
		if err := c.configManager.WatchFile(); err != nil {
			c.log.Error(err, "Failed to watch configuration file")
		}
	}

	c.SetStatus(model.StatusRunning)
	c.PublishEvent(model.EventComponentStatusChange, c.ID(), c.GetStatus())

	if ids := c.apps.PreloadApps(); len(ids) > 0 {
		c.loader.LoadAppPlugins(ids)
	}
	return true
}

// Stop halts core system operation. Batches in flight observe the cancelled context.
func (c *Core) Stop() bool {
	c.cancel()

	if c.eventBus != nil {
		components := c.components()
		for i := len(components) - 1; i >= 0; i-- {
			components[i].Stop()
		}
	}

	c.SetStatus(model.StatusStopped)
	return true
}

// ReloadApps replaces the registered apps with the apps in the configuration.
// Apps that are no longer configured, or whose configuration changed, lose
// their extensions and their memoised preload. Reloads are serialised.
func (c *Core) ReloadApps() error {
	if c.apps == nil {
		return fmt.Errorf("core is not initialized")
	}

	c.reloadMutex.Lock()
	defer c.reloadMutex.Unlock()

	var apps []model.AppConfig
	if err := c.configManager.UnmarshalKey("apps", &apps); err != nil {
		return fmt.Errorf("reading apps: %w", err)
	}

	previous := c.apps.GetAllApps()
	if err := c.apps.Replace(apps); err != nil {
		return err
	}

	for _, app := range previous {
		current, exists := c.apps.GetApp(app.ID)
		if exists && reflect.DeepEqual(current, app) {
			continue
		}
		c.registries.Unregister(app.ID)
		c.preloader.Forget(app.ID)
		if exists {
			c.log.V(1).Info("App configuration changed", "pluginId", app.ID, "version", current.Version)
		}
	}

	c.log.V(1).Info("Loaded app configuration", "apps", len(apps))
	return nil
}

// RegisterApp adds an app configuration to the registry
func (c *Core) RegisterApp(app model.AppConfig) error {
	if c.apps == nil {
		return fmt.Errorf("core is not initialized")
	}
	return c.apps.RegisterApp(app)
}

// LoadAppPlugins preloads the given apps in the background
func (c *Core) LoadAppPlugins(pluginIDs []string) {
	if c.loader == nil {
		return
	}
	c.loader.LoadAppPlugins(pluginIDs)
}

// IsLoading reports whether a preload batch is in flight
func (c *Core) IsLoading() bool {
	return c.loader != nil && c.loader.IsLoading()
}

// GetHealthStatus returns the system health with loader metrics attached
func (c *Core) GetHealthStatus() model.HealthStatus {
	if c.healthMonitor == nil {
		return model.HealthStatus{Status: c.GetStatus(), Message: "Core is not initialized"}
	}
	return c.healthMonitor.GetHealthStatus()
}

// PublishEvent publishes an event to the event bus
func (c *Core) PublishEvent(eventType model.EventType, sourceID string, data interface{}) {
	if c.eventBus == nil {
		return
	}

	c.eventBus.Publish(NewEvent(eventType, sourceID, data))
}
